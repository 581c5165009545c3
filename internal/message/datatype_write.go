package message

import (
	"github.com/robert-malhotra/h5data/internal/binary"
)

// Serialize emits the datatype message encoding: a class and version
// byte, three class bit bytes, a 4-byte size and the class properties.
// Compound and enum types are written at version 3, which drops the
// 8-byte member name padding of the earlier versions.
func (m *Datatype) Serialize(w *binary.Writer) error {
	version := uint8(1)
	if m.Class == ClassCompound || m.Class == ClassEnum {
		version = 3
	}

	mw := &msgWriter{w: w}
	mw.u8(uint8(m.Class) | version<<4)
	mw.uintN(uint64(m.ClassBits&0xFFFFFF), 3)
	mw.u32(m.Size)

	switch m.Class {
	case ClassFixedPoint:
		mw.u16(m.BitOffset)
		mw.u16(m.BitPrecision)

	case ClassFloatPoint:
		// Prefer properties carried over from a parsed type, otherwise
		// emit the IEEE layout for the size.
		props := m.Properties
		if len(props) < 12 {
			props = ieeeFloatProps(m.Size)
		}
		mw.bytes(props[:12])

	case ClassString:
		// Strings carry no properties.

	case ClassCompound:
		for _, member := range m.Members {
			if mw.err == nil {
				mw.err = writeCompoundMember(w, &member, m.Size)
			}
		}

	case ClassArray:
		// Array property version, dimension count, two reserved bytes.
		mw.u8(2)
		mw.u8(uint8(len(m.ArrayDims)))
		mw.u16(0)
		for _, dim := range m.ArrayDims {
			mw.u32(dim)
		}
		if m.BaseType != nil && mw.err == nil {
			mw.err = m.BaseType.Serialize(w)
		}

	case ClassVarLen:
		if m.VarLenType != nil && mw.err == nil {
			mw.err = m.VarLenType.Serialize(w)
		}

	case ClassEnum:
		// Base type, unpadded member names, then values at the base
		// type's width.
		valSize := 1
		if m.EnumBase != nil {
			if mw.err == nil {
				mw.err = m.EnumBase.Serialize(w)
			}
			valSize = int(m.EnumBase.Size)
		}
		for _, name := range m.EnumNames {
			mw.bytes(append([]byte(name), 0))
		}
		for _, val := range m.EnumValues {
			mw.uintN(uint64(val), valSize)
		}
	}

	return mw.err
}

// SerializedSize is the byte count Serialize will produce.
func (m *Datatype) SerializedSize(w *binary.Writer) int {
	size := 8

	switch m.Class {
	case ClassFixedPoint:
		size += 4
	case ClassFloatPoint:
		size += 12
	case ClassCompound:
		for _, member := range m.Members {
			size += compoundMemberSize(&member, m.Size)
		}
	case ClassArray:
		size += 4 + len(m.ArrayDims)*4
		if m.BaseType != nil {
			size += m.BaseType.SerializedSize(w)
		}
	case ClassVarLen:
		if m.VarLenType != nil {
			size += m.VarLenType.SerializedSize(w)
		}
	case ClassEnum:
		valSize := 1
		if m.EnumBase != nil {
			size += m.EnumBase.SerializedSize(w)
			valSize = int(m.EnumBase.Size)
		}
		for _, name := range m.EnumNames {
			size += len(name) + 1
		}
		size += len(m.EnumValues) * valSize
	}

	return size
}

// ieeeFloatProps is the 12-byte float property block: bit offset and
// precision, exponent location and size, mantissa location and size,
// exponent bias. Note the mantissa size field is a single byte.
func ieeeFloatProps(size uint32) []byte {
	switch size {
	case 4:
		return []byte{
			0, 0, // bit offset
			32, 0, // bit precision
			23, 8, // exponent location, size
			0, 23, // mantissa location, size
			127, 0, 0, 0, // exponent bias
		}
	case 8:
		return []byte{
			0, 0,
			64, 0,
			52, 11,
			0, 52,
			255, 3, 0, 0, // bias 1023
		}
	default:
		return make([]byte, 12)
	}
}

// writeCompoundMember emits one member in the version 3 encoding: a
// NUL terminated name, a variable width byte offset and the member's
// datatype.
func writeCompoundMember(w *binary.Writer, member *CompoundMember, compoundSize uint32) error {
	mw := &msgWriter{w: w}
	mw.bytes([]byte(member.Name))
	mw.u8(0)
	mw.uintN(uint64(member.ByteOffset), memberOffsetSize(compoundSize))
	if mw.err == nil && member.Type != nil {
		mw.err = member.Type.Serialize(w)
	}
	return mw.err
}

func compoundMemberSize(member *CompoundMember, compoundSize uint32) int {
	size := len(member.Name) + 1
	size += memberOffsetSize(compoundSize)
	if member.Type != nil {
		size += member.Type.SerializedSize(nil)
	}
	return size
}

// memberOffsetSize picks the fewest bytes that can index into a
// compound of the given total size.
func memberOffsetSize(compoundSize uint32) int {
	switch {
	case compoundSize <= 0xFF:
		return 1
	case compoundSize <= 0xFFFF:
		return 2
	default:
		return 4
	}
}

// NewFixedPointDatatype builds an integer datatype of the given width.
func NewFixedPointDatatype(size uint32, signed bool, byteOrder ByteOrder) *Datatype {
	classBits := uint32(byteOrder)
	if signed {
		classBits |= 0x08
	}

	return &Datatype{
		Class:        ClassFixedPoint,
		ClassBits:    classBits,
		Size:         size,
		ByteOrder:    byteOrder,
		BitPrecision: uint16(size * 8),
		Signed:       signed,
	}
}

// NewFloatDatatype builds an IEEE 754 float datatype of 4 or 8 bytes.
func NewFloatDatatype(size uint32, byteOrder ByteOrder) *Datatype {
	var signLocation uint32
	switch size {
	case 4:
		signLocation = 31
	case 8:
		signLocation = 63
	}

	// Class bits: byte order in bit 0, normalized mantissa in bit 5,
	// sign bit location in the second byte.
	classBits := uint32(byteOrder) | (1 << 5) | (signLocation << 8)

	return &Datatype{
		Class:      ClassFloatPoint,
		ClassBits:  classBits,
		Size:       size,
		ByteOrder:  byteOrder,
		Properties: ieeeFloatProps(size),
	}
}

// NewStringDatatype builds a fixed-width string datatype.
func NewStringDatatype(size uint32, padding StringPadding, charset CharacterSet) *Datatype {
	return &Datatype{
		Class:         ClassString,
		ClassBits:     uint32(padding) | (uint32(charset) << 4),
		Size:          size,
		StringPadding: padding,
		CharSet:       charset,
	}
}

// NewVarLenStringDatatype builds a variable-length string datatype over
// a 1-byte string base. The declared size is the in-memory hvl_t width.
func NewVarLenStringDatatype(charset CharacterSet) *Datatype {
	baseType := &Datatype{
		Class:         ClassString,
		ClassBits:     uint32(PadNullTerm) | (uint32(charset) << 4),
		Size:          1,
		StringPadding: PadNullTerm,
		CharSet:       charset,
	}

	return &Datatype{
		Class:          ClassVarLen,
		ClassBits:      uint32(1) | (uint32(charset) << 4),
		Size:           16,
		VarLenType:     baseType,
		IsVarLenString: true,
	}
}

// NewCompoundDatatype builds a compound datatype with the given total
// size and members.
func NewCompoundDatatype(size uint32, members []CompoundMember) *Datatype {
	return &Datatype{
		Class:     ClassCompound,
		ClassBits: uint32(len(members)),
		Size:      size,
		Members:   members,
	}
}

// NewEnumDatatype builds an enumerated datatype over base. names and
// values must have equal length; stored elements use the base width.
func NewEnumDatatype(base *Datatype, names []string, values []int64) *Datatype {
	return &Datatype{
		Class:      ClassEnum,
		ClassBits:  uint32(len(names)) & 0xFFFF,
		Size:       base.Size,
		EnumBase:   base,
		EnumNames:  names,
		EnumValues: values,
	}
}

// NewBoolEnumDatatype builds the conventional boolean encoding, a
// 1-byte enum with members FALSE=0 and TRUE=1.
func NewBoolEnumDatatype() *Datatype {
	base := NewFixedPointDatatype(1, true, OrderLE)
	return NewEnumDatatype(base, []string{"FALSE", "TRUE"}, []int64{0, 1})
}

// NewArrayDatatype builds a fixed-shape array datatype over baseType.
func NewArrayDatatype(dims []uint32, baseType *Datatype) *Datatype {
	totalElements := uint32(1)
	for _, d := range dims {
		totalElements *= d
	}

	return &Datatype{
		Class:     ClassArray,
		Size:      totalElements * baseType.Size,
		ArrayDims: dims,
		BaseType:  baseType,
	}
}
