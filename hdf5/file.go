package hdf5

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/robert-malhotra/go-ims/internal/binary"
	"github.com/robert-malhotra/go-ims/internal/heap"
	"github.com/robert-malhotra/go-ims/internal/object"
	"github.com/robert-malhotra/go-ims/internal/superblock"
)

// File is an open HDF5 file. Its methods may be called concurrently.
type File struct {
	path string
	f    *os.File
	r    *binary.Reader
	sb   *superblock.Superblock
	root *Group
	// global resolves variable-length data.
	global *heap.Global

	mu       sync.Mutex
	external map[string]*File
	closed   bool
}

// Open opens the file at path for reading.
func Open(path string) (*File, error) {
	osf, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	f, err := newFile(path, osf)
	if err != nil {
		osf.Close()
		return nil, err
	}
	return f, nil
}

func newFile(path string, osf *os.File) (*File, error) {
	sb, err := superblock.Read(osf)
	if err != nil {
		if errors.Is(err, superblock.ErrNotHDF5) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotHDF5)
		}
		return nil, fmt.Errorf("%s: superblock: %w", path, err)
	}
	r := binary.NewReader(osf, sb.BaseAddress, sb.OffsetSize, sb.LengthSize)
	f := &File{path: path, f: osf, r: r, sb: sb, global: heap.NewGlobal(r)}

	hdr, err := object.Read(r, sb.RootAddress)
	if err != nil {
		return nil, fmt.Errorf("%s: root group: %w", path, err)
	}
	f.root = &Group{node: node{file: f, path: "/", hdr: hdr}}
	if !f.root.isGroup() && sb.RootBTree != 0 {
		// Some old writers leave the symbol table only in the
		// superblock's cached root entry.
		f.root.tree, f.root.names = sb.RootBTree, sb.RootHeap
	}
	return f, nil
}

// Close closes the file and any files opened through external links.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	for _, ext := range f.external {
		ext.Close()
	}
	f.external = nil
	return f.f.Close()
}

func (f *File) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Path returns the name the file was opened with.
func (f *File) Path() string { return f.path }

// Version returns the superblock version.
func (f *File) Version() int { return int(f.sb.Version) }

// Root returns the root group.
func (f *File) Root() *Group { return f.root }

// OpenGroup opens the group at an absolute path.
func (f *File) OpenGroup(path string) (*Group, error) {
	if f.isClosed() {
		return nil, ErrClosed
	}
	return f.root.OpenGroup(path)
}

// OpenDataset opens the dataset at an absolute path.
func (f *File) OpenDataset(path string) (*Dataset, error) {
	if f.isClosed() {
		return nil, ErrClosed
	}
	return f.root.OpenDataset(path)
}

// Exists reports whether path names an object.
func (f *File) Exists(path string) bool {
	if f.isClosed() {
		return false
	}
	_, err := f.root.resolve(path)
	return err == nil
}

// GetAttr returns the attribute at an attribute path such as
// "/DataSetInfo/Image@X".
func (f *File) GetAttr(attrPath string) (*Attribute, error) {
	if f.isClosed() {
		return nil, ErrClosed
	}
	obj, name, err := ParseAttrPath(attrPath)
	if err != nil {
		return nil, err
	}
	n, err := f.root.resolve(obj)
	if err != nil {
		return nil, err
	}
	return n.attr(name)
}

// openExternal opens, once, the file an external link names. Relative
// names are taken from the directory of f.
func (f *File) openExternal(name string) (*File, error) {
	if !filepath.IsAbs(name) {
		name = filepath.Join(filepath.Dir(f.path), name)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, ErrClosed
	}
	if ext, ok := f.external[name]; ok {
		return ext, nil
	}
	ext, err := Open(name)
	if err != nil {
		return nil, fmt.Errorf("external file: %w", err)
	}
	if f.external == nil {
		f.external = map[string]*File{}
	}
	f.external[name] = ext
	return ext, nil
}
