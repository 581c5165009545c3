package message

import (
	"github.com/robert-malhotra/h5data/internal/binary"
)

// GroupInfo is the group info message (type 0x000A): hints about how
// a group stores its links.
type GroupInfo struct {
	Version uint8
	Flags   uint8

	// Compact/dense phase change bounds, present when flag bit 0 is
	// set.
	MaxCompactLinks uint16
	MinDenseLinks   uint16

	// Sizing estimates, present when flag bit 1 is set.
	EstNumEntries  uint16
	EstLinkNameLen uint16
}

func (m *GroupInfo) Type() Type { return TypeGroupInfo }

func (m *GroupInfo) Serialize(w *binary.Writer) error {
	mw := &msgWriter{w: w}
	mw.u8(m.Version)
	mw.u8(m.Flags)
	if m.Flags&0x01 != 0 {
		mw.u16(m.MaxCompactLinks)
		mw.u16(m.MinDenseLinks)
	}
	if m.Flags&0x02 != 0 {
		mw.u16(m.EstNumEntries)
		mw.u16(m.EstLinkNameLen)
	}
	return mw.err
}

func (m *GroupInfo) SerializedSize(w *binary.Writer) int {
	size := 2
	if m.Flags&0x01 != 0 {
		size += 4
	}
	if m.Flags&0x02 != 0 {
		size += 4
	}
	return size
}

// NewGroupInfo builds a group info with no optional fields, leaving
// all storage hints at their defaults.
func NewGroupInfo() *GroupInfo {
	return &GroupInfo{}
}
