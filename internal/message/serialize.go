package message

import (
	"github.com/robert-malhotra/h5data/internal/binary"
)

// Serializable marks messages that know their wire form. The writer
// argument supplies the file-wide field widths.
type Serializable interface {
	Message
	Serialize(w *binary.Writer) error
	SerializedSize(w *binary.Writer) int
}

// Serialize writes msg when it is Serializable and is a no-op
// otherwise.
func Serialize(msg Message, w *binary.Writer) error {
	if s, ok := msg.(Serializable); ok {
		return s.Serialize(w)
	}
	return nil
}

// SerializedSize reports msg's wire size, 0 for messages that cannot
// be serialized.
func SerializedSize(msg Message, w *binary.Writer) int {
	if s, ok := msg.(Serializable); ok {
		return s.SerializedSize(w)
	}
	return 0
}

// encodeUint writes v little endian into buf at the given byte width.
func encodeUint(buf []byte, v uint64, size int) {
	for i := 0; i < size; i++ {
		buf[i] = uint8(v >> (8 * i))
	}
}
