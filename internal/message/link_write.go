package message

import (
	"github.com/robert-malhotra/h5data/internal/binary"
)

// linkNameLenSize picks the width of the name length field and the flag
// bits that declare it.
func linkNameLenSize(nameLen int) (size int, flagBits uint8) {
	switch {
	case nameLen <= 0xFF:
		return 1, 0
	case nameLen <= 0xFFFF:
		return 2, 1
	case nameLen <= 0xFFFFFFFF:
		return 4, 2
	default:
		return 8, 3
	}
}

// Serialize emits the link message in the version 1 encoding: version,
// flags, an optional link type byte for non-hard links, the name with a
// variable width length, then type specific target data.
func (m *Link) Serialize(w *binary.Writer) error {
	nameLen := len(m.Name)
	nameLenSize, flags := linkNameLenSize(nameLen)

	// Flag bit 3 marks an explicit link type byte; hard links omit it.
	if m.LinkType != LinkTypeHard {
		flags |= 0x08
	}

	mw := &msgWriter{w: w}
	mw.u8(1)
	mw.u8(flags)
	if m.LinkType != LinkTypeHard {
		mw.u8(uint8(m.LinkType))
	}
	mw.uintN(uint64(nameLen), nameLenSize)
	mw.bytes([]byte(m.Name))

	switch m.LinkType {
	case LinkTypeHard:
		mw.offset(m.ObjectAddress)

	case LinkTypeSoft:
		mw.u16(uint16(len(m.SoftLinkValue)))
		mw.bytes([]byte(m.SoftLinkValue))

	case LinkTypeExternal:
		// Target data is a version flags byte followed by the file name
		// and object path, both NUL terminated.
		mw.u16(uint16(1 + len(m.ExternalFile) + 1 + len(m.ExternalPath) + 1))
		mw.u8(0)
		mw.bytes(append([]byte(m.ExternalFile), 0))
		mw.bytes(append([]byte(m.ExternalPath), 0))
	}

	return mw.err
}

// SerializedSize is the byte count Serialize will produce.
func (m *Link) SerializedSize(w *binary.Writer) int {
	size := 2

	if m.LinkType != LinkTypeHard {
		size++
	}

	nameLen := len(m.Name)
	nameLenSize, _ := linkNameLenSize(nameLen)
	size += nameLenSize + nameLen

	switch m.LinkType {
	case LinkTypeHard:
		size += w.OffsetSize()
	case LinkTypeSoft:
		size += 2 + len(m.SoftLinkValue)
	case LinkTypeExternal:
		size += 2 + 1 + len(m.ExternalFile) + 1 + len(m.ExternalPath) + 1
	}

	return size
}

// NewHardLink builds a hard link to an object header address.
func NewHardLink(name string, objectAddress uint64) *Link {
	return &Link{
		Version:       1,
		LinkType:      LinkTypeHard,
		Name:          name,
		ObjectAddress: objectAddress,
	}
}

// NewSoftLink builds a soft link naming a target path.
func NewSoftLink(name string, targetPath string) *Link {
	return &Link{
		Version:       1,
		LinkType:      LinkTypeSoft,
		Name:          name,
		SoftLinkValue: targetPath,
	}
}

// NewExternalLink builds a link into another file.
func NewExternalLink(name string, externalFile, externalPath string) *Link {
	return &Link{
		Version:      1,
		LinkType:     LinkTypeExternal,
		Name:         name,
		ExternalFile: externalFile,
		ExternalPath: externalPath,
	}
}
