package hdf5

import (
	"errors"
	"path"
)

// ErrStopWalk can be returned by a WalkFunc to end the walk early. Walk then
// returns nil.
var ErrStopWalk = errors.New("walk stopped")

// ErrSkipGroup can be returned by a WalkFunc for a group to skip its members.
var ErrSkipGroup = errors.New("skip group")

// Entry is one object visited by Walk. Exactly one of Group, Dataset or Err
// is set.
type Entry struct {
	Path    string
	Depth   int
	Group   *Group
	Dataset *Dataset
	// Err is set when the member could be listed but not opened, for
	// example a dangling soft link.
	Err error
}

// Attrs returns the attributes of the entry's object, in header order.
func (e Entry) Attrs() []*Attribute {
	var (
		names []string
		get   func(string) *Attribute
	)
	switch {
	case e.Group != nil:
		names, get = e.Group.Attrs(), e.Group.Attr
	case e.Dataset != nil:
		names, get = e.Dataset.Attrs(), e.Dataset.Attr
	default:
		return nil
	}
	attrs := make([]*Attribute, 0, len(names))
	for _, n := range names {
		if a := get(n); a != nil {
			attrs = append(attrs, a)
		}
	}
	return attrs
}

// WalkFunc is called for every object visited by Walk.
type WalkFunc func(e Entry) error

// Walk visits g and everything below it depth first, members in the order
// the group lists them. Groups are visited before their members.
func Walk(g *Group, fn WalkFunc) error {
	err := walkGroup(g, 0, fn)
	if errors.Is(err, ErrStopWalk) {
		return nil
	}
	return err
}

func walkGroup(g *Group, depth int, fn WalkFunc) error {
	if err := fn(Entry{Path: g.Path(), Depth: depth, Group: g}); err != nil {
		if errors.Is(err, ErrSkipGroup) {
			return nil
		}
		return err
	}

	members, err := g.Members()
	if err != nil {
		return err
	}
	for _, name := range members {
		child := path.Join(g.Path(), name)

		if sub, err := g.OpenGroup(name); err == nil {
			if err := walkGroup(sub, depth+1, fn); err != nil {
				return err
			}
			continue
		}

		e := Entry{Path: child, Depth: depth + 1}
		if ds, err := g.OpenDataset(name); err == nil {
			e.Dataset = ds
		} else {
			e.Err = err
		}
		if err := fn(e); err != nil && !errors.Is(err, ErrSkipGroup) {
			return err
		}
	}
	return nil
}
