package message

import (
	"github.com/robert-malhotra/h5data/internal/binary"
)

// NewAttribute builds a version 3 attribute over the given datatype
// and dataspace, with data already encoded in the datatype's wire form.
func NewAttribute(name string, datatype *Datatype, dataspace *Dataspace, data []byte) *Attribute {
	return &Attribute{
		Version:   3,
		Name:      name,
		Datatype:  datatype,
		Dataspace: dataspace,
		Data:      data,
	}
}

// NewScalarAttribute builds an attribute with a rank 0 dataspace.
func NewScalarAttribute(name string, datatype *Datatype, data []byte) *Attribute {
	return NewAttribute(name, datatype, NewScalarDataspace(), data)
}

// Serialize emits the attribute in version 3 form: a 9-byte prelude
// (version, flags, name/datatype/dataspace sizes, name encoding),
// then the NUL terminated name and the three payloads with no
// padding between them.
func (m *Attribute) Serialize(w *binary.Writer) error {
	mw := &msgWriter{w: w}
	mw.u8(3) // version
	mw.u8(0) // flags
	mw.u16(uint16(len(m.Name) + 1))
	mw.u16(uint16(m.Datatype.SerializedSize(w)))
	mw.u16(uint16(m.Dataspace.SerializedSize(w)))
	mw.u8(0) // name encoding, ASCII
	mw.bytes(append([]byte(m.Name), 0))
	if mw.err == nil {
		mw.err = m.Datatype.Serialize(w)
	}
	if mw.err == nil {
		mw.err = m.Dataspace.Serialize(w)
	}
	mw.bytes(m.Data)
	return mw.err
}

func (m *Attribute) SerializedSize(w *binary.Writer) int {
	return 9 + len(m.Name) + 1 +
		m.Datatype.SerializedSize(w) +
		m.Dataspace.SerializedSize(w) +
		len(m.Data)
}
