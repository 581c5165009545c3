package hdf5

import (
	"fmt"
	"path"

	"github.com/robert-malhotra/h5data/internal/message"
	"github.com/robert-malhotra/h5data/internal/object"
)

// CreateGroup writes a new empty subgroup and hard-links it under this
// group.
func (g *Group) CreateGroup(name string) (*Group, error) {
	if err := g.file.requireWritable(); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, fmt.Errorf("group name cannot be empty")
	}

	groupMessages := object.NewEmptyGroupHeader()
	groupAddr := g.file.allocate(int64(object.HeaderSize(g.file.writer, groupMessages)))

	if _, err := object.WriteHeader(g.file.writer.At(int64(groupAddr)), groupMessages); err != nil {
		return nil, fmt.Errorf("writing group header: %w", err)
	}
	if err := g.addLink(message.NewHardLink(name, groupAddr)); err != nil {
		return nil, fmt.Errorf("adding link to parent: %w", err)
	}

	return &Group{
		file: g.file,
		path: path.Join(g.path, name),
		addr: groupAddr,
	}, nil
}

// addLink appends a link message to the group and rewrites its object
// header. Any links already on disk are loaded first so they survive
// the rewrite.
func (g *Group) addLink(link *message.Link) error {
	if err := g.file.requireWritable(); err != nil {
		return err
	}
	if g.pendingLinks == nil {
		g.loadExistingLinks()
	}
	g.pendingLinks = append(g.pendingLinks, link)
	return g.rewriteHeader()
}

// loadExistingLinks seeds pendingLinks from the link messages already in
// the group's header. A header that cannot be read means the group is
// new, which starts the list empty.
func (g *Group) loadExistingLinks() {
	g.pendingLinks = make([]*message.Link, 0)

	if g.header == nil && g.file.reader != nil {
		header, err := object.Read(g.file.reader, g.addr)
		if err != nil {
			return
		}
		g.header = header
	}
	if g.header == nil {
		return
	}
	for _, msg := range g.header.GetMessages(message.TypeLink) {
		if linkMsg, ok := msg.(*message.Link); ok {
			g.pendingLinks = append(g.pendingLinks, linkMsg)
		}
	}
}

// rewriteHeader writes the group's object header with the current link
// set at a fresh address, since headers cannot grow in place, and fixes
// up whatever referenced the old address.
func (g *Group) rewriteHeader() error {
	messages := object.NewGroupHeader(g.pendingLinks)

	// Padded to the minimum chunk size so a later link append can often
	// reuse the same region.
	headerSize := object.HeaderSizeWithMinChunk(g.file.writer, messages, object.MinGroupChunkSize)
	newAddr := g.file.allocate(int64(headerSize))

	if _, err := object.WriteHeaderWithMinChunk(g.file.writer.At(int64(newAddr)), messages, object.MinGroupChunkSize); err != nil {
		return err
	}
	g.addr = newAddr

	if g.path == "/" {
		g.file.superblock.RootGroupAddress = newAddr
		return nil
	}
	return g.updateParentLink(newAddr)
}

// updateParentLink points the parent's link for this group at newAddr
// and rewrites the parent's header in turn.
func (g *Group) updateParentLink(newAddr uint64) error {
	parent := g.findParent()
	if parent == nil {
		return nil
	}

	name := path.Base(g.path)
	for _, link := range parent.pendingLinks {
		if link.Name == name {
			link.ObjectAddress = newAddr
			break
		}
	}
	return parent.rewriteHeader()
}

// findParent resolves the parent group. Only root-level parents are
// tracked; deeper nesting would need a group cache.
func (g *Group) findParent() *Group {
	if g.path == "/" {
		return nil
	}
	parentPath := path.Dir(g.path)
	if parentPath == "/" || parentPath == "" || parentPath == "." {
		return g.file.root
	}
	return nil
}
