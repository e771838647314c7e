package hdf5

import (
	"fmt"
	"path"
	"slices"

	"github.com/robert-malhotra/go-ims/internal/btree"
	"github.com/robert-malhotra/go-ims/internal/heap"
	"github.com/robert-malhotra/go-ims/internal/message"
	"github.com/robert-malhotra/go-ims/internal/object"
)

// node is an object reached by path: a group, a dataset or something
// else the reader does not open.
type node struct {
	file *File
	path string
	hdr  *object.Header
	// tree and names locate an old-style symbol table kept outside the
	// object header.
	tree, names uint64
}

func (n *node) isGroup() bool {
	return n.tree != 0 || n.hdr.Has(message.TypeSymbolTable) || n.hdr.Has(message.TypeLinkInfo) || n.hdr.Has(message.TypeLink)
}

func (n *node) isDataset() bool { return n.hdr.Has(message.TypeLayout) }

// Name returns the last component of the object's path.
func (n *node) Name() string {
	if n.path == "/" {
		return "/"
	}
	return path.Base(n.path)
}

// Path returns the path the object was opened by.
func (n *node) Path() string { return n.path }

// attributes returns the object's attribute messages, those in the header
// first.
func (n *node) attributes() ([]*message.Attribute, error) {
	attrs := object.All[*message.Attribute](n.hdr)
	info, ok := object.Get[*message.AttributeInfo](n.hdr)
	if !ok || !info.Dense() {
		return attrs, nil
	}
	err := n.dense(info.FractalHeap, info.NameIndex, func(obj []byte) error {
		m, err := message.Decode(message.TypeAttribute, 0, n.file.r.Decoder(obj))
		if err != nil {
			return err
		}
		attrs = append(attrs, m.(*message.Attribute))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: attributes: %w", n.path, err)
	}
	return attrs, nil
}

// dense calls fn with every object a name index at index lists from the
// fractal heap at heap.
func (n *node) dense(heapAddr, index uint64, fn func(obj []byte) error) error {
	h, err := heap.ReadFractal(n.file.r, heapAddr)
	if err != nil {
		return err
	}
	ids, err := btree.HeapIDs(n.file.r, index, h.IDLen())
	if err != nil {
		return err
	}
	for _, id := range ids {
		obj, err := h.Object(id)
		if err != nil {
			return err
		}
		if err := fn(obj); err != nil {
			return err
		}
	}
	return nil
}

// Attrs returns the object's attribute names, those in the header first in
// header order. Attributes that cannot be read are left out.
func (n *node) Attrs() []string {
	attrs, _ := n.attributes()
	names := make([]string, len(attrs))
	for i, a := range attrs {
		names[i] = a.Name
	}
	return names
}

func (n *node) attr(name string) (*Attribute, error) {
	attrs, err := n.attributes()
	if err != nil {
		return nil, err
	}
	for _, a := range attrs {
		if a.Name == name {
			return &Attribute{file: n.file, msg: a}, nil
		}
	}
	return nil, fmt.Errorf("%s: attribute %q: %w", n.path, name, ErrNotFound)
}

// Attr returns the attribute called name, or nil.
func (n *node) Attr(name string) *Attribute {
	a, _ := n.attr(name)
	return a
}

// HasAttr reports whether the object has an attribute called name.
func (n *node) HasAttr(name string) bool { return n.Attr(name) != nil }

// Group is an HDF5 group.
type Group struct {
	node
}

// links returns the group's members keyed by name.
func (g *Group) links() (map[string]*message.Link, error) {
	out := map[string]*message.Link{}
	for _, l := range object.All[*message.Link](g.hdr) {
		out[l.Name] = l
	}
	if info, ok := object.Get[*message.LinkInfo](g.hdr); ok && info.Dense() {
		err := g.dense(info.FractalHeap, info.NameIndex, func(obj []byte) error {
			m, err := message.Decode(message.TypeLink, 0, g.file.r.Decoder(obj))
			if err != nil {
				return err
			}
			l := m.(*message.Link)
			out[l.Name] = l
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("%s: links: %w", g.path, err)
		}
	}

	tree, names := g.tree, g.names
	if st, ok := object.Get[*message.SymbolTable](g.hdr); ok {
		tree, names = st.BTree, st.Heap
	}
	if tree == 0 {
		return out, nil
	}
	local, err := heap.ReadLocal(g.file.r, names)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", g.path, err)
	}
	syms, err := btree.Symbols(g.file.r, tree, local)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", g.path, err)
	}
	for _, s := range syms {
		l := &message.Link{Name: s.Name, Kind: message.LinkHard, Addr: s.Header}
		if s.Soft != "" {
			l.Kind, l.Target = message.LinkSoft, s.Soft
		}
		out[s.Name] = l
	}
	return out, nil
}

// Members returns the names of the group's members, sorted.
func (g *Group) Members() ([]string, error) {
	if g.file.isClosed() {
		return nil, ErrClosed
	}
	links, err := g.links()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(links))
	for name := range links {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

// OpenGroup opens the group at p, relative to g unless p is absolute.
func (g *Group) OpenGroup(p string) (*Group, error) {
	n, err := g.resolve(p)
	if err != nil {
		return nil, err
	}
	if !n.isGroup() {
		return nil, fmt.Errorf("%s: %w", n.path, ErrNotGroup)
	}
	return &Group{node: *n}, nil
}

// OpenDataset opens the dataset at p, relative to g unless p is absolute.
func (g *Group) OpenDataset(p string) (*Dataset, error) {
	n, err := g.resolve(p)
	if err != nil {
		return nil, err
	}
	if !n.isDataset() {
		return nil, fmt.Errorf("%s: %w", n.path, ErrNotDataset)
	}
	return newDataset(n)
}

func (g *Group) resolve(p string) (*node, error) {
	if g.file.isClosed() {
		return nil, ErrClosed
	}
	return g.follow(p, 0)
}

// follow resolves p from g. depth counts the soft and external links
// already taken.
func (g *Group) follow(p string, depth int) (*node, error) {
	cur := g
	if path.IsAbs(p) {
		cur = g.file.root
	}
	parts := splitPath(p)
	if len(parts) == 0 {
		n := cur.node
		return &n, nil
	}

	for i, name := range parts {
		if name == ".." {
			return nil, fmt.Errorf("%s: '..' is not supported", p)
		}
		links, err := cur.links()
		if err != nil {
			return nil, err
		}
		l, ok := links[name]
		if !ok {
			return nil, fmt.Errorf("%s: %w", path.Join(cur.path, name), ErrNotFound)
		}
		n, err := cur.target(l, depth)
		if err != nil {
			return nil, err
		}
		n.path = path.Join(cur.path, name)
		if i == len(parts)-1 {
			return n, nil
		}
		if !n.isGroup() {
			return nil, fmt.Errorf("%s: %w", n.path, ErrNotGroup)
		}
		cur = &Group{node: *n}
	}
	panic("unreachable")
}

// target opens the object a member link of g points at.
func (g *Group) target(l *message.Link, depth int) (*node, error) {
	switch l.Kind {
	case message.LinkHard:
		hdr, err := object.Read(g.file.r, l.Addr)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path.Join(g.path, l.Name), err)
		}
		return &node{file: g.file, hdr: hdr}, nil
	case message.LinkSoft:
		if depth >= MaxLinkDepth {
			return nil, fmt.Errorf("%s: %w", path.Join(g.path, l.Name), ErrLinkDepth)
		}
		return g.follow(l.Target, depth+1)
	case message.LinkExternal:
		if depth >= MaxLinkDepth {
			return nil, fmt.Errorf("%s: %w", path.Join(g.path, l.Name), ErrLinkDepth)
		}
		ext, err := g.file.openExternal(l.File)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path.Join(g.path, l.Name), err)
		}
		return ext.root.follow(CleanPath(l.Target), depth+1)
	}
	return nil, fmt.Errorf("%s: unknown link type %d", path.Join(g.path, l.Name), l.Kind)
}
