package hdf5

import (
	"fmt"
	"path"

	"github.com/robert-malhotra/h5data/internal/binary"
	"github.com/robert-malhotra/h5data/internal/btree"
	"github.com/robert-malhotra/h5data/internal/heap"
	"github.com/robert-malhotra/h5data/internal/message"
	"github.com/robert-malhotra/h5data/internal/object"
)

// Group is an HDF5 group opened for reading, and the anchor for links
// appended when the file was opened for writing.
type Group struct {
	file   *File
	path   string
	header *object.Header
	addr   uint64

	pendingLinks []*message.Link
}

// linkResolution is the outcome of following one link. file is nil when
// the target lives in the same file.
type linkResolution struct {
	address   uint64
	isDataset bool
	file      *File
}

// Addr reports the object header address. Two link paths that reach the
// same object yield the same address, so it serves as the object's
// identity within a file.
func (g *Group) Addr() uint64 {
	return g.addr
}

// Resolve follows a direct child link by name, through soft and external
// links, and reports the target address and whether it is a dataset.
func (g *Group) Resolve(name string) (addr uint64, isDataset bool, err error) {
	res, err := g.findChildFull(name, make(map[string]bool))
	if err != nil {
		return 0, false, err
	}
	return res.address, res.isDataset, nil
}

// Name is the final component of the group's path.
func (g *Group) Name() string {
	if g.path == "/" {
		return "/"
	}
	return path.Base(g.path)
}

// Path is the absolute path of the group within its file.
func (g *Group) Path() string {
	return g.path
}

// OpenGroup opens a subgroup at a path relative to this group.
func (g *Group) OpenGroup(relativePath string) (*Group, error) {
	obj, err := g.open(relativePath)
	if err != nil {
		return nil, err
	}

	group, ok := obj.(*Group)
	if !ok {
		return nil, ErrNotGroup
	}
	return group, nil
}

// OpenDataset opens a dataset at a path relative to this group.
func (g *Group) OpenDataset(relativePath string) (*Dataset, error) {
	obj, err := g.open(relativePath)
	if err != nil {
		return nil, err
	}

	dataset, ok := obj.(*Dataset)
	if !ok {
		return nil, ErrNotDataset
	}
	return dataset, nil
}

// open walks relativePath component by component, following links into
// whichever file each resolution lands in, and returns a *Group or
// *Dataset for the final component.
func (g *Group) open(relativePath string) (interface{}, error) {
	parts := splitPath(relativePath)
	if len(parts) == 0 {
		return g, nil
	}

	current := g
	visited := make(map[string]bool)

	for i, name := range parts {
		res, err := current.findChildFull(name, visited)
		if err != nil {
			return nil, fmt.Errorf("finding %q: %w", name, err)
		}

		targetFile := current.file
		if res.file != nil {
			targetFile = res.file
		}

		fullPath := path.Join(current.path, name)

		if i == len(parts)-1 {
			if res.isDataset {
				return targetFile.openDatasetAt(res.address, fullPath)
			}
			return targetFile.openGroupAt(res.address, fullPath)
		}

		if res.isDataset {
			return nil, fmt.Errorf("%q: %w", fullPath, ErrNotGroup)
		}

		current, err = targetFile.openGroupAt(res.address, fullPath)
		if err != nil {
			return nil, err
		}
	}

	return current, nil
}

// symbolTable returns the group's v1 symbol table message, falling back
// for the root group to the addresses cached in the superblock scratch
// pad. Returns nil for link-message groups.
func (g *Group) symbolTable() *message.SymbolTable {
	if symMsg := g.header.GetMessage(message.TypeSymbolTable); symMsg != nil {
		return symMsg.(*message.SymbolTable)
	}
	if g.path == "/" && g.file.superblock.RootGroupBTreeAddress != 0 {
		return &message.SymbolTable{
			BTreeAddress:     g.file.superblock.RootGroupBTreeAddress,
			LocalHeapAddress: g.file.superblock.RootGroupLocalHeapAddress,
		}
	}
	return nil
}

func (g *Group) findChildFull(name string, visited map[string]bool) (*linkResolution, error) {
	// Link messages first, the new-style group encoding.
	for _, msg := range g.header.GetMessages(message.TypeLink) {
		link := msg.(*message.Link)
		if link.Name == name {
			return g.resolveLink(link, visited)
		}
	}

	if symTable := g.symbolTable(); symTable != nil {
		return g.findChildV1Full(name, symTable, visited)
	}

	return nil, ErrNotFound
}

// guardSoftLink enforces the traversal depth limit and cycle detection
// shared by every soft link hop.
func guardSoftLink(targetPath string, visited map[string]bool) error {
	if len(visited) >= MaxLinkDepth {
		return ErrLinkDepth
	}
	if visited[targetPath] {
		return fmt.Errorf("circular soft link detected: %s", targetPath)
	}
	visited[targetPath] = true
	return nil
}

func (g *Group) resolveLink(link *message.Link, visited map[string]bool) (*linkResolution, error) {
	switch {
	case link.IsHard():
		isDataset, err := g.isDataset(link.ObjectAddress)
		if err != nil {
			return nil, err
		}
		return &linkResolution{address: link.ObjectAddress, isDataset: isDataset}, nil

	case link.IsSoft():
		if err := guardSoftLink(link.SoftLinkValue, visited); err != nil {
			return nil, err
		}
		return g.file.resolveAbsolutePath(link.SoftLinkValue, visited)

	case link.IsExternal():
		return g.file.resolveExternalLink(link.ExternalFile, link.ExternalPath, visited)

	default:
		return nil, fmt.Errorf("unknown link type: %d", link.LinkType)
	}
}

// findChildV1Full looks a name up through the old-style group machinery,
// the local heap for names and the v1 B-tree for entries.
func (g *Group) findChildV1Full(name string, symTable *message.SymbolTable, visited map[string]bool) (*linkResolution, error) {
	entries, err := g.readGroupEntries(symTable)
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		if entry.Name != name {
			continue
		}

		// Cache type 1 marks a soft link carried in the scratch pad.
		if entry.LinkType == 1 {
			if err := guardSoftLink(entry.SoftLinkValue, visited); err != nil {
				return nil, err
			}
			return g.file.resolveAbsolutePath(entry.SoftLinkValue, visited)
		}

		isDataset, err := g.isDataset(entry.ObjectAddress)
		if err != nil {
			return nil, err
		}
		return &linkResolution{address: entry.ObjectAddress, isDataset: isDataset}, nil
	}

	return nil, ErrNotFound
}

// isDataset reads the header at address and classifies datasets by the
// presence of a dataspace message.
func (g *Group) isDataset(address uint64) (bool, error) {
	header, err := object.Read(g.file.reader, address)
	if err != nil {
		return false, err
	}
	return header.GetMessage(message.TypeDataspace) != nil, nil
}

// Members lists the names of every direct child, in link order.
func (g *Group) Members() ([]string, error) {
	var names []string

	for _, msg := range g.header.GetMessages(message.TypeLink) {
		link := msg.(*message.Link)
		names = append(names, link.Name)
	}
	if len(names) > 0 {
		return names, nil
	}

	symTable := g.symbolTable()
	if symTable == nil {
		return nil, nil
	}
	entries, err := g.readGroupEntries(symTable)
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		names = append(names, entry.Name)
	}
	return names, nil
}

// readGroupEntries loads the local heap then collects the symbol table
// entries from the B-tree it names.
func (g *Group) readGroupEntries(symTable *message.SymbolTable) ([]btree.GroupEntry, error) {
	localHeap, err := heap.ReadLocalHeap(g.file.reader, symTable.LocalHeapAddress)
	if err != nil {
		return nil, fmt.Errorf("reading local heap: %w", err)
	}
	entries, err := btree.ReadGroupEntries(g.file.reader, symTable.BTreeAddress, localHeap)
	if err != nil {
		return nil, fmt.Errorf("reading B-tree: %w", err)
	}
	return entries, nil
}

// NumObjects counts the group's direct children.
func (g *Group) NumObjects() (int, error) {
	members, err := g.Members()
	if err != nil {
		return 0, err
	}
	return len(members), nil
}

// attributeNames lists the attribute names carried in an object header,
// in message order.
func attributeNames(header *object.Header) []string {
	var names []string
	for _, msg := range header.GetMessages(message.TypeAttribute) {
		names = append(names, msg.(*message.Attribute).Name)
	}
	return names
}

// findAttribute returns the named attribute from an object header, nil
// when absent.
func findAttribute(header *object.Header, reader *binary.Reader, name string) *Attribute {
	for _, msg := range header.GetMessages(message.TypeAttribute) {
		attr := msg.(*message.Attribute)
		if attr.Name == name {
			return &Attribute{msg: attr, reader: reader}
		}
	}
	return nil
}

// Attrs lists the group's attribute names.
func (g *Group) Attrs() []string {
	return attributeNames(g.header)
}

// Attr returns the named attribute, or nil when absent.
func (g *Group) Attr(name string) *Attribute {
	return findAttribute(g.header, g.file.reader, name)
}

// HasAttr reports whether the named attribute exists.
func (g *Group) HasAttr(name string) bool {
	return g.Attr(name) != nil
}
