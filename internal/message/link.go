package message

import (
	"bytes"
	"fmt"

	binpkg "github.com/robert-malhotra/h5data/internal/binary"
)

// LinkType distinguishes how a link names its target.
type LinkType uint8

const (
	// LinkTypeHard carries the target's object header address.
	LinkTypeHard LinkType = 0
	// LinkTypeSoft carries a path string resolved at traversal time.
	LinkTypeSoft LinkType = 1
	// LinkTypeExternal carries a file name plus a path inside it.
	LinkTypeExternal LinkType = 64
)

// Link is the link message (type 0x0006): one named edge in a group.
type Link struct {
	Version       uint8
	LinkType      LinkType
	CreationOrder uint64
	Name          string
	Charset       uint8

	// ObjectAddress is set for hard links.
	ObjectAddress uint64

	// SoftLinkValue is set for soft links.
	SoftLinkValue string

	// ExternalFile and ExternalPath are set for external links.
	ExternalFile string
	ExternalPath string
}

func (m *Link) Type() Type { return TypeLink }

// Kind predicates.
func (m *Link) IsHard() bool     { return m.LinkType == LinkTypeHard }
func (m *Link) IsSoft() bool     { return m.LinkType == LinkTypeSoft }
func (m *Link) IsExternal() bool { return m.LinkType == LinkTypeExternal }

func parseLink(data []byte, r *binpkg.Reader) (*Link, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("link message too short")
	}

	link := &Link{Version: data[0]}
	flags := data[1]
	c := &fieldCursor{data: data, pos: 2, r: r}

	// Bit 3: explicit link type byte. Absent means hard.
	if flags&0x08 != 0 {
		lt, err := c.uint(1, "link type")
		if err != nil {
			return nil, err
		}
		link.LinkType = LinkType(lt)
	}

	// Bit 2: creation order field.
	if flags&0x04 != 0 {
		order, err := c.uint(8, "link creation order")
		if err != nil {
			return nil, err
		}
		link.CreationOrder = order
	}

	// Bit 4: name charset byte.
	if flags&0x10 != 0 {
		cs, err := c.uint(1, "link charset")
		if err != nil {
			return nil, err
		}
		link.Charset = uint8(cs)
	}

	// The low two flag bits give the name length field width as a
	// power of two.
	nameLen, err := c.uint(1<<(flags&0x03), "link name length")
	if err != nil {
		return nil, err
	}
	name, err := c.bytes(int(nameLen), "link name")
	if err != nil {
		return nil, err
	}
	link.Name = string(name)

	switch link.LinkType {
	case LinkTypeHard:
		if link.ObjectAddress, err = c.uint(r.OffsetSize(), "hard link address"); err != nil {
			return nil, err
		}

	case LinkTypeSoft:
		value, err := linkValue(c, "soft link")
		if err != nil {
			return nil, err
		}
		link.SoftLinkValue = string(value)

	case LinkTypeExternal:
		// The target blob is a version/flags byte followed by the
		// file name and object path, each NUL terminated.
		extData, err := linkValue(c, "external link")
		if err != nil {
			return nil, err
		}
		if len(extData) < 2 {
			return nil, fmt.Errorf("external link data too short")
		}
		extData = extData[1:]

		fileEnd := bytes.IndexByte(extData, 0)
		if fileEnd < 0 {
			fileEnd = len(extData)
		}
		link.ExternalFile = string(extData[:fileEnd])
		if fileEnd+1 < len(extData) {
			link.ExternalPath = string(bytes.TrimSuffix(extData[fileEnd+1:], []byte{0}))
		}
	}

	return link, nil
}

// linkValue reads a 2-byte length followed by that many value bytes.
func linkValue(c *fieldCursor, what string) ([]byte, error) {
	n, err := c.uint(2, what+" length")
	if err != nil {
		return nil, err
	}
	return c.bytes(int(n), what+" value")
}
