package ims

import (
	"fmt"
	"path"
	"sort"
)

// fakeContainer is an in-memory Container. Groups are implied by the paths
// of the stored objects.
type fakeContainer struct {
	attrs   map[string][][]byte // "path@name"
	strs    map[string][]string
	floats  map[string][]float64
	shapes  map[string][]int
	volumes map[string]Volume
	groups  map[string]bool
	closed  int
	// failOn makes every read of the given path fail with ErrIO.
	failOn string
}

func newFake() *fakeContainer {
	return &fakeContainer{
		attrs:   make(map[string][][]byte),
		strs:    make(map[string][]string),
		floats:  make(map[string][]float64),
		shapes:  make(map[string][]int),
		volumes: make(map[string]Volume),
		groups:  make(map[string]bool),
	}
}

// chars splits s the way Imaris stores attribute text: one element per byte.
func chars(s string) [][]byte {
	out := make([][]byte, len(s))
	for i := range s {
		out[i] = []byte{s[i]}
	}
	return out
}

func (c *fakeContainer) mkdir(p string) {
	for p != "/" && p != "." {
		c.groups[p] = true
		p = path.Dir(p)
	}
}

func (c *fakeContainer) setAttr(p, name, value string) {
	c.mkdir(p)
	c.attrs[p+"@"+name] = chars(value)
}

func (c *fakeContainer) setStrings(p string, s ...string) {
	c.mkdir(path.Dir(p))
	c.strs[p] = s
}

func (c *fakeContainer) setFloats(p string, shape []int, v ...float64) {
	c.mkdir(path.Dir(p))
	c.floats[p] = v
	c.shapes[p] = shape
}

func (c *fakeContainer) setVolume(p string, v Volume) {
	c.mkdir(path.Dir(p))
	c.volumes[p] = v
}

func (c *fakeContainer) check(p string) error {
	if c.failOn != "" && c.failOn == p {
		return fmt.Errorf("%s: %w", p, ErrIO)
	}
	return nil
}

func (c *fakeContainer) Members(p string) ([]string, error) {
	if err := c.check(p); err != nil {
		return nil, err
	}
	if !c.groups[p] {
		return nil, fmt.Errorf("group %s: %w", p, ErrNotFound)
	}
	seen := make(map[string]bool)
	add := func(child string) {
		if path.Dir(child) == p {
			seen[path.Base(child)] = true
		}
	}
	for g := range c.groups {
		add(g)
	}
	for d := range c.strs {
		add(d)
	}
	for d := range c.floats {
		add(d)
	}
	for d := range c.volumes {
		add(d)
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func (c *fakeContainer) AttrBytes(p, name string) ([][]byte, error) {
	if err := c.check(p); err != nil {
		return nil, err
	}
	b, ok := c.attrs[p+"@"+name]
	if !ok {
		return nil, fmt.Errorf("attribute %s@%s: %w", p, name, ErrNotFound)
	}
	return b, nil
}

func (c *fakeContainer) Strings(p string) ([]string, error) {
	if err := c.check(p); err != nil {
		return nil, err
	}
	s, ok := c.strs[p]
	if !ok {
		return nil, fmt.Errorf("dataset %s: %w", p, ErrNotFound)
	}
	return s, nil
}

func (c *fakeContainer) Floats(p string) ([]float64, []int, error) {
	if err := c.check(p); err != nil {
		return nil, nil, err
	}
	v, ok := c.floats[p]
	if !ok {
		return nil, nil, fmt.Errorf("dataset %s: %w", p, ErrNotFound)
	}
	return v, c.shapes[p], nil
}

func (c *fakeContainer) Field(p, name string) ([]float64, error) {
	v, _, err := c.Floats(path.Join(p, name))
	return v, err
}

func (c *fakeContainer) Volume(p string) (Volume, error) {
	if err := c.check(p); err != nil {
		return nil, err
	}
	v, ok := c.volumes[p]
	if !ok {
		return nil, fmt.Errorf("dataset %s: %w", p, ErrNotFound)
	}
	return v, nil
}

func (c *fakeContainer) Close() error {
	c.closed++
	return nil
}

// imarisFake builds a small container: a 4x4x2 image, 40 x 40 x 4 um, with
// one channel whose raw data has an extra all-zero row at y=2, one surface
// collection and one point collection.
func imarisFake() *fakeContainer {
	c := newFake()
	img := "/DataSetInfo/Image"
	for name, v := range map[string]string{
		"X": "4", "Y": "4", "Z": "2",
		"ExtMin0": "0", "ExtMax0": "40",
		"ExtMin1": "-10", "ExtMax1": "30",
		"ExtMin2": "1.5", "ExtMax2": "5.5",
		"Unit": "um",
	} {
		c.setAttr(img, name, v)
	}
	c.setAttr("/DataSetInfo/Channel 0", "Name", "DAPI")
	c.setAttr("/DataSetInfo/Channel 0", "Color", "0.000 0.000 1.000")
	c.mkdir("/DataSetInfo/TimeInfo")

	c.setVolume(fmt.Sprintf(channelDataFmt, 0), paddedChannel())

	c.mkdir("/Scene8/Content")
	surf := fmt.Sprintf(surfaceGroupFmt, 0)
	c.setStrings(surf+"/CreationParameters",
		`<bpSurfacesCreationParameters mName="Nuclei" mSourceChannelIndex="3" ChannelIndex="0" mSmooth="true"/>`)
	info := surf + "/" + surfaceModelInfo
	c.setFloats(info+"/CenterOfMassX", []int{2}, 10, 20)
	c.setFloats(info+"/CenterOfMassY", []int{2}, 5, 35)
	c.setFloats(info+"/CenterOfMassZ", []int{2}, 2, 3)
	c.setFloats(info+"/EllipsoidAxisLengthX", []int{2}, 1, 2)
	c.setFloats(info+"/EllipsoidAxisLengthY", []int{2}, 1.5, 2.5)
	c.setFloats(info+"/EllipsoidAxisLengthZ", []int{2}, 0.5, 0.5)

	c.mkdir("/Scene/Content")
	pts := fmt.Sprintf(pointGroupFmt, 0)
	c.setFloats(pts+"/CoordsXYZR", []int{3, 4},
		1, 2, 3, 0.5,
		4, 5, 6, 0.5,
		7, 8, 9, 1,
	)
	c.setFloats(pts+"/RadiusYZ", []int{3, 2},
		0.5, 0.5,
		0.5, 0.5,
		1, 1,
	)
	// members without the collection prefix are not counted
	c.mkdir("/Scene/Content/Surfaces0")
	c.mkdir("/Scene8/Content/Filaments0")
	return c
}

// paddedChannel is a (2, 5, 4) uint16 volume whose y=2 row is zero in every
// plane; all other samples are non-zero and encode their position.
func paddedChannel() *Array3[uint16] {
	data := make([]uint16, 0, 2*5*4)
	for z := 0; z < 2; z++ {
		for y := 0; y < 5; y++ {
			for x := 0; x < 4; x++ {
				if y == 2 {
					data = append(data, 0)
					continue
				}
				data = append(data, uint16(100*(z+1)+10*y+x+1))
			}
		}
	}
	a, err := NewArray3([3]int{2, 5, 4}, data)
	if err != nil {
		panic(err)
	}
	return a
}

