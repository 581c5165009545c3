package message

import (
	"encoding/binary"
	"fmt"

	binpkg "github.com/robert-malhotra/h5data/internal/binary"
)

// Attribute is an attribute message (type 0x000C). Datatype or Dataspace
// may be nil when the embedded encoding could not be decoded; Data then
// still carries the raw value bytes.
type Attribute struct {
	Version       uint8
	Name          string
	DatatypeSize  uint16
	DataspaceSize uint16
	Datatype      *Datatype
	Dataspace     *Dataspace
	Data          []byte
}

func (m *Attribute) Type() Type { return TypeAttribute }

// All attribute versions share the same shape: a name, an embedded
// datatype, an embedded dataspace and the value bytes, each with its
// declared size. Version 1 aligns each piece to 8 bytes, version 3
// inserts a name character set byte after the sizes. parseAttribute
// dispatches on those two differences only.
func parseAttribute(data []byte, r *binpkg.Reader) (*Attribute, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("attribute message too short")
	}

	attr := &Attribute{
		Version: data[0],
	}

	switch attr.Version {
	case 1:
		return parseAttributeBody(data, r, attr, 8, true)
	case 2:
		return parseAttributeBody(data, r, attr, 8, false)
	case 3:
		if len(data) < 9 {
			return nil, fmt.Errorf("attribute v3 too short")
		}
		return parseAttributeBody(data, r, attr, 9, false)
	default:
		return nil, fmt.Errorf("unsupported attribute version: %d", attr.Version)
	}
}

func parseAttributeBody(data []byte, r *binpkg.Reader, attr *Attribute, start int, pad8 bool) (*Attribute, error) {
	nameSize := binary.LittleEndian.Uint16(data[2:4])
	attr.DatatypeSize = binary.LittleEndian.Uint16(data[4:6])
	attr.DataspaceSize = binary.LittleEndian.Uint16(data[6:8])

	align := func(offset int) int {
		if pad8 && offset%8 != 0 {
			offset += 8 - (offset % 8)
		}
		return offset
	}

	offset := start

	// The declared name size includes the terminating NUL.
	if offset+int(nameSize) > len(data) {
		return nil, fmt.Errorf("attribute name truncated")
	}
	nameEnd := offset
	for nameEnd < offset+int(nameSize) && data[nameEnd] != 0 {
		nameEnd++
	}
	attr.Name = string(data[offset:nameEnd])
	offset = align(offset + int(nameSize))

	if offset+int(attr.DatatypeSize) > len(data) {
		return nil, fmt.Errorf("attribute datatype truncated")
	}
	if dt, err := parseDatatype(data[offset:offset+int(attr.DatatypeSize)], r); err == nil {
		attr.Datatype = dt
	}
	offset = align(offset + int(attr.DatatypeSize))

	if offset+int(attr.DataspaceSize) > len(data) {
		return nil, fmt.Errorf("attribute dataspace truncated")
	}
	if ds, err := parseDataspace(data[offset:offset+int(attr.DataspaceSize)], r); err == nil {
		attr.Dataspace = ds
	}
	offset = align(offset + int(attr.DataspaceSize))

	// Everything after the dataspace is the value.
	if offset < len(data) {
		attr.Data = make([]byte, len(data)-offset)
		copy(attr.Data, data[offset:])
	}

	return attr, nil
}
