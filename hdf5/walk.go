package hdf5

import (
	"path"
)

// WalkFunc is invoked once per object during a Walk. obj is a *Group or
// *Dataset; err carries any failure opening the object. Returning a
// non-nil error stops the walk.
type WalkFunc func(path string, obj interface{}, err error) error

// Walk traverses every group and dataset below g, depth first, invoking
// fn for each, starting with g itself.
func Walk(g *Group, fn WalkFunc) error {
	if err := fn(g.Path(), g, nil); err != nil {
		return err
	}

	members, err := g.Members()
	if err != nil {
		return err
	}
	for _, name := range members {
		childPath := path.Join(g.Path(), name)

		if childGroup, err := g.OpenGroup(name); err == nil {
			if err := Walk(childGroup, fn); err != nil {
				return err
			}
			continue
		}

		// Not a group; report it as a dataset or surface the open error.
		var obj interface{}
		dataset, err := g.OpenDataset(name)
		if err == nil {
			obj = dataset
		}
		if err := fn(childPath, obj, err); err != nil {
			return err
		}
	}
	return nil
}

// AttrInfo describes one attribute encountered by WalkAttrs.
type AttrInfo struct {
	// Path is the attribute path, e.g. "/group/dataset@attr".
	Path string

	// ObjectPath is the path of the object carrying the attribute.
	ObjectPath string

	// ObjectType is "group" or "dataset".
	ObjectType string

	// Name is the attribute name.
	Name string

	// Attr gives access to the attribute itself for detailed reading.
	Attr *Attribute

	// Value is the auto-read attribute value, nil when reading failed.
	Value interface{}

	// Err is the value-read error, if any.
	Err error
}

// WalkAttrsFunc is invoked once per attribute during WalkAttrs.
// Returning a non-nil error stops the walk.
type WalkAttrsFunc func(info AttrInfo) error

// attrCarrier is any object exposing named attributes.
type attrCarrier interface {
	Attrs() []string
	Attr(name string) *Attribute
}

// WalkAttrs visits every attribute on every group and dataset in the
// file, depth first from the root.
func (f *File) WalkAttrs(fn WalkAttrsFunc) error {
	if f.closed {
		return ErrClosed
	}
	return f.walkGroupAttrs(f.root, fn)
}

func (f *File) walkGroupAttrs(g *Group, fn WalkAttrsFunc) error {
	if err := emitAttrs(g, g.Path(), "group", fn); err != nil {
		return err
	}

	members, err := g.Members()
	if err != nil {
		return err
	}
	for _, name := range members {
		if childGroup, err := g.OpenGroup(name); err == nil {
			if err := f.walkGroupAttrs(childGroup, fn); err != nil {
				return err
			}
			continue
		}

		dataset, err := g.OpenDataset(name)
		if err != nil {
			// Unopenable objects carry no reachable attributes.
			continue
		}
		childPath := path.Join(g.Path(), name)
		if err := emitAttrs(dataset, childPath, "dataset", fn); err != nil {
			return err
		}
	}
	return nil
}

// emitAttrs invokes fn for every attribute on one object, auto-reading
// each value.
func emitAttrs(obj attrCarrier, objPath, objType string, fn WalkAttrsFunc) error {
	for _, name := range obj.Attrs() {
		attr := obj.Attr(name)
		info := AttrInfo{
			Path:       JoinAttrPath(objPath, name),
			ObjectPath: objPath,
			ObjectType: objType,
			Name:       name,
			Attr:       attr,
		}
		if attr != nil {
			info.Value, info.Err = attr.Value()
		}
		if err := fn(info); err != nil {
			return err
		}
	}
	return nil
}

// ErrStopWalk can be returned from a walk callback to stop traversal
// without reporting an error.
var ErrStopWalk = &walkStopError{}

type walkStopError struct{}

func (e *walkStopError) Error() string { return "walk stopped" }

// IsStopWalk reports whether err is ErrStopWalk.
func IsStopWalk(err error) bool {
	_, ok := err.(*walkStopError)
	return ok
}
