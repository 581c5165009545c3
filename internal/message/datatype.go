package message

import (
	"bytes"
	"encoding/binary"
	"fmt"

	binpkg "github.com/robert-malhotra/h5data/internal/binary"
)

// DatatypeClass is the top-level kind of an HDF5 datatype.
type DatatypeClass uint8

const (
	ClassFixedPoint DatatypeClass = 0
	ClassFloatPoint DatatypeClass = 1
	ClassTime       DatatypeClass = 2
	ClassString     DatatypeClass = 3
	ClassBitfield   DatatypeClass = 4
	ClassOpaque     DatatypeClass = 5
	ClassCompound   DatatypeClass = 6
	ClassReference  DatatypeClass = 7
	ClassEnum       DatatypeClass = 8
	ClassVarLen     DatatypeClass = 9
	ClassArray      DatatypeClass = 10
)

// ByteOrder is the stored endianness of numeric values.
type ByteOrder uint8

const (
	OrderLE   ByteOrder = 0
	OrderBE   ByteOrder = 1
	OrderVAX  ByteOrder = 2
	OrderNone ByteOrder = 3
)

// StringPadding tells how fixed-width strings fill unused bytes.
type StringPadding uint8

const (
	PadNullTerm StringPadding = 0
	PadNullPad  StringPadding = 1
	PadSpacePad StringPadding = 2
)

// CharacterSet is the declared text encoding.
type CharacterSet uint8

const (
	CharsetASCII CharacterSet = 0
	CharsetUTF8  CharacterSet = 1
)

// Datatype is a datatype message (type 0x0003). Only the fields for the
// message's Class are meaningful; Properties keeps the raw class property
// bytes for consumers that decode more than this parser does.
type Datatype struct {
	Class     DatatypeClass
	ClassBits uint32
	Size      uint32

	ByteOrder ByteOrder

	// Fixed point.
	BitOffset    uint16
	BitPrecision uint16
	Signed       bool

	// Strings.
	StringPadding StringPadding
	CharSet       CharacterSet

	// Compound.
	Members []CompoundMember

	// Array.
	ArrayDims []uint32
	BaseType  *Datatype

	// Variable length.
	VarLenType     *Datatype
	IsVarLenString bool

	// Enum.
	EnumBase   *Datatype
	EnumNames  []string
	EnumValues []int64

	Properties []byte
}

// CompoundMember is one named, typed field of a compound datatype.
type CompoundMember struct {
	Name       string
	ByteOffset uint32
	Type       *Datatype
}

func (m *Datatype) Type() Type { return TypeDatatype }

// Class predicates. IsString also covers variable-length strings, which
// arrive as ClassVarLen on disk.
func (m *Datatype) IsInteger() bool  { return m.Class == ClassFixedPoint }
func (m *Datatype) IsFloat() bool    { return m.Class == ClassFloatPoint }
func (m *Datatype) IsCompound() bool { return m.Class == ClassCompound }
func (m *Datatype) IsArray() bool    { return m.Class == ClassArray }
func (m *Datatype) IsVarLen() bool   { return m.Class == ClassVarLen }
func (m *Datatype) IsEnum() bool     { return m.Class == ClassEnum }

func (m *Datatype) IsString() bool {
	return m.Class == ClassString || (m.Class == ClassVarLen && m.IsVarLenString)
}

// cString extracts a NUL terminated string starting at off. The second
// return is the position past the terminator, or -1 when unterminated.
func cString(data []byte, off int) (string, int) {
	end := bytes.IndexByte(data[off:], 0)
	if end < 0 {
		return "", -1
	}
	return string(data[off : off+end]), off + end + 1
}

// align8 rounds off up to the next 8-byte boundary.
func align8(off int) int {
	return (off + 7) &^ 7
}

func parseDatatype(data []byte, r *binpkg.Reader) (*Datatype, error) {
	dt, _, err := parseDatatypeWithSize(data, r)
	return dt, err
}

// parseDatatypeWithSize also reports how many bytes the encoding used,
// which nested types (compound members, array and varlen bases) need to
// keep walking the property block.
func parseDatatypeWithSize(data []byte, r *binpkg.Reader) (*Datatype, int, error) {
	if len(data) < 8 {
		return nil, 0, fmt.Errorf("datatype message too short")
	}

	// Byte 0 packs the version in the high nibble and class in the low.
	version := int(data[0] >> 4)
	class := DatatypeClass(data[0] & 0x0F)
	classBits := uint32(decodeUint(data[1:], 3, binary.LittleEndian))
	size := binary.LittleEndian.Uint32(data[4:8])

	props := data[8:]
	propsSize := calcPropertiesSize(class, props)
	if propsSize > len(props) {
		propsSize = len(props)
	}

	dt := &Datatype{
		Class:      class,
		ClassBits:  classBits,
		Size:       size,
		Properties: props[:propsSize],
	}

	switch class {
	case ClassFixedPoint:
		dt.ByteOrder = ByteOrder(classBits & 0x01)
		dt.Signed = classBits&0x08 != 0
		if len(props) >= 4 {
			dt.BitOffset = binary.LittleEndian.Uint16(props[0:2])
			dt.BitPrecision = binary.LittleEndian.Uint16(props[2:4])
		}

	case ClassFloatPoint:
		// Sign, exponent and mantissa positions stay raw in Properties.
		dt.ByteOrder = ByteOrder(classBits & 0x01)

	case ClassString:
		dt.StringPadding = StringPadding(classBits & 0x0F)
		dt.CharSet = CharacterSet((classBits >> 4) & 0x0F)

	case ClassCompound:
		parseCompoundMembers(dt, props, r, version)

	case ClassArray:
		parseArrayType(dt, props, r)

	case ClassVarLen:
		// Varlen kind 1 is a string, 0 a sequence of the base type.
		dt.IsVarLenString = (classBits & 0x0F) == 1
		if len(props) > 0 {
			if varLenType, err := parseDatatype(props, r); err == nil {
				dt.VarLenType = varLenType
			}
		}

	case ClassEnum:
		if err := parseEnumMembers(dt, props, r, version); err != nil {
			return nil, 0, fmt.Errorf("parsing enum members: %w", err)
		}
	}

	return dt, 8 + propsSize, nil
}

func parseCompoundMembers(dt *Datatype, props []byte, r *binpkg.Reader, version int) {
	numMembers := int(dt.ClassBits & 0xFFFF)
	dt.Members = make([]CompoundMember, 0, numMembers)
	offset := 0
	for i := 0; i < numMembers && offset < len(props); i++ {
		member, consumed, err := parseCompoundMember(props[offset:], r, version, dt.Size)
		if err != nil {
			break
		}
		dt.Members = append(dt.Members, member)
		offset += consumed
	}
}

func parseArrayType(dt *Datatype, props []byte, r *binpkg.Reader) {
	if len(props) < 1 {
		return
	}
	ndims := int(props[0])
	dt.ArrayDims = make([]uint32, ndims)
	// Dimension count byte plus three reserved bytes.
	offset := 4
	for i := 0; i < ndims && offset+4 <= len(props); i++ {
		dt.ArrayDims[i] = binary.LittleEndian.Uint32(props[offset:])
		offset += 4
	}
	if offset < len(props) {
		if baseType, err := parseDatatype(props[offset:], r); err == nil {
			dt.BaseType = baseType
		}
	}
}

// parseEnumMembers decodes the enum property block, which holds the base
// datatype, then every member name, then every member value at the base
// type's width. Versions below 3 pad each name to an 8-byte boundary.
func parseEnumMembers(dt *Datatype, props []byte, r *binpkg.Reader, version int) error {
	base, baseSize, err := parseDatatypeWithSize(props, r)
	if err != nil {
		return fmt.Errorf("enum base type: %w", err)
	}
	dt.EnumBase = base

	numMembers := int(dt.ClassBits & 0xFFFF)
	offset := baseSize

	dt.EnumNames = make([]string, 0, numMembers)
	for i := 0; i < numMembers; i++ {
		name, next := cString(props, offset)
		if next < 0 {
			return fmt.Errorf("enum member %d name not terminated", i)
		}
		dt.EnumNames = append(dt.EnumNames, name)
		offset = next
		if version < 3 {
			offset = align8(offset)
		}
	}

	valSize := int(base.Size)
	if valSize <= 0 || valSize > 8 {
		return fmt.Errorf("enum base type size %d not supported", base.Size)
	}
	dt.EnumValues = make([]int64, 0, numMembers)
	for i := 0; i < numMembers; i++ {
		if offset+valSize > len(props) {
			return fmt.Errorf("enum member %d value truncated", i)
		}
		uval := decodeUint(props[offset:], valSize, binary.LittleEndian)
		val := int64(uval)
		// Sign extend values narrower than 8 bytes for signed bases.
		if base.Signed && valSize < 8 {
			shift := uint(64 - valSize*8)
			val = int64(uval<<shift) >> shift
		}
		dt.EnumValues = append(dt.EnumValues, val)
		offset += valSize
	}
	return nil
}

// calcPropertiesSize bounds the class property block so nested parsers do
// not read past one datatype into the next. Compound and enum consume
// whatever remains since their callers already sliced the block.
func calcPropertiesSize(class DatatypeClass, props []byte) int {
	switch class {
	case ClassFixedPoint, ClassBitfield:
		// Bit offset and bit precision, 2 bytes each.
		return 4
	case ClassFloatPoint:
		// Bit offset, precision, exponent and mantissa layout, bias.
		return 12
	case ClassString, ClassReference:
		return 0
	case ClassOpaque:
		// A NUL terminated tag string.
		if _, next := cString(props, 0); next >= 0 {
			return next
		}
		return len(props) + 1
	case ClassVarLen:
		// One nested base datatype.
		if len(props) >= 8 {
			return 8 + calcPropertiesSize(DatatypeClass(props[0]&0x0F), props[8:])
		}
		return len(props)
	case ClassArray:
		// Dimension header, dims, then one nested base datatype.
		if len(props) >= 4 {
			offset := 4 + int(props[0])*4
			if offset < len(props) {
				return offset + 8 + calcPropertiesSize(DatatypeClass(props[offset]&0x0F), props[offset+8:])
			}
		}
		return len(props)
	default:
		return len(props)
	}
}

func parseCompoundMember(data []byte, r *binpkg.Reader, version int, compoundSize uint32) (CompoundMember, int, error) {
	var member CompoundMember

	name, offset := cString(data, 0)
	if offset < 0 {
		return member, 0, fmt.Errorf("compound member name not terminated")
	}
	member.Name = name

	// Versions 1 and 2 pad the name to an 8-byte boundary.
	if version < 3 {
		offset = align8(offset)
	}

	// Version 3 shrinks the member offset field to the fewest bytes that
	// can index into the compound; earlier versions always use 4.
	offsetSize := 4
	if version >= 3 {
		offsetSize = 1
		for offsetSize < 8 && uint64(compoundSize) >= 1<<(8*offsetSize) {
			offsetSize *= 2
		}
	}

	if offset+offsetSize > len(data) {
		return member, 0, fmt.Errorf("compound member truncated")
	}
	member.ByteOffset = uint32(decodeUint(data[offset:], offsetSize, binary.LittleEndian))
	offset += offsetSize

	if offset < len(data) {
		memberType, typeSize, err := parseDatatypeWithSize(data[offset:], r)
		if err != nil {
			return member, 0, err
		}
		member.Type = memberType
		offset += typeSize
	}

	return member, offset, nil
}
