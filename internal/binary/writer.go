package binary

import (
	"encoding/binary"
	"io"
)

// Writer encodes HDF5 binary structures to an io.WriterAt, mirroring
// Reader's position and field-width handling.
type Writer struct {
	w          io.WriterAt
	order      binary.ByteOrder
	offsetSize int
	lengthSize int
	pos        int64
}

// NewWriter builds a Writer positioned at offset zero.
func NewWriter(w io.WriterAt, cfg Config) *Writer {
	return &Writer{
		w:          w,
		order:      cfg.ByteOrder,
		offsetSize: cfg.OffsetSize,
		lengthSize: cfg.LengthSize,
	}
}

// At derives a writer positioned at offset, sharing the underlying
// io.WriterAt.
func (w *Writer) At(offset int64) *Writer {
	nw := *w
	nw.pos = offset
	return &nw
}

// WithSizes derives a writer with the given offset and length widths.
func (w *Writer) WithSizes(offsetSize, lengthSize int) *Writer {
	nw := *w
	nw.offsetSize = offsetSize
	nw.lengthSize = lengthSize
	return &nw
}

// Pos reports the current write position.
func (w *Writer) Pos() int64 {
	return w.pos
}

// WriteBytes writes data at the current position and advances it.
func (w *Writer) WriteBytes(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	n, err := w.w.WriteAt(data, w.pos)
	w.pos += int64(n)
	return err
}

// WriteUint8 writes an unsigned 8-bit integer.
func (w *Writer) WriteUint8(v uint8) error {
	return w.WriteBytes([]byte{v})
}

// WriteUint16 writes an unsigned 16-bit integer.
func (w *Writer) WriteUint16(v uint16) error {
	return w.WriteUintN(uint64(v), 2)
}

// WriteUint32 writes an unsigned 32-bit integer.
func (w *Writer) WriteUint32(v uint32) error {
	return w.WriteUintN(uint64(v), 4)
}

// WriteUint64 writes an unsigned 64-bit integer.
func (w *Writer) WriteUint64(v uint64) error {
	return w.WriteUintN(v, 8)
}

// WriteUintN writes an unsigned integer occupying n bytes.
func (w *Writer) WriteUintN(v uint64, n int) error {
	buf := make([]byte, n)
	w.encodeUint(buf, v, n)
	return w.WriteBytes(buf)
}

// WriteOffset writes a file offset at the configured width.
func (w *Writer) WriteOffset(v uint64) error {
	return w.WriteUintN(v, w.offsetSize)
}

// WriteLength writes a length field at the configured width.
func (w *Writer) WriteLength(v uint64) error {
	return w.WriteUintN(v, w.lengthSize)
}

func (w *Writer) encodeUint(buf []byte, v uint64, size int) {
	switch size {
	case 1:
		buf[0] = uint8(v)
	case 2:
		w.order.PutUint16(buf, uint16(v))
	case 4:
		w.order.PutUint32(buf, uint32(v))
	case 8:
		w.order.PutUint64(buf, v)
	default:
		// Non-standard widths are assumed little endian.
		for i := 0; i < size; i++ {
			buf[i] = byte(v >> (8 * i))
		}
	}
}

// UndefinedOffset returns the undefined-address sentinel at the
// configured offset width, all one bits.
func (w *Writer) UndefinedOffset() uint64 {
	return undefinedSentinel(w.offsetSize)
}

// UndefinedLength returns the undefined sentinel for length fields.
func (w *Writer) UndefinedLength() uint64 {
	return undefinedSentinel(w.lengthSize)
}

// WriteUndefinedOffset writes the undefined offset sentinel.
func (w *Writer) WriteUndefinedOffset() error {
	return w.WriteOffset(w.UndefinedOffset())
}

// WriteUndefinedLength writes the undefined length sentinel.
func (w *Writer) WriteUndefinedLength() error {
	return w.WriteLength(w.UndefinedLength())
}

// Skip advances the position by n bytes without writing.
func (w *Writer) Skip(n int64) {
	w.pos += n
}

// Align rounds the position up to the next multiple of alignment
// without writing anything.
func (w *Writer) Align(alignment int64) {
	if alignment <= 1 {
		return
	}
	if remainder := w.pos % alignment; remainder != 0 {
		w.pos += alignment - remainder
	}
}

// WritePadding writes zero bytes up to the next alignment boundary.
func (w *Writer) WritePadding(alignment int64) error {
	if alignment <= 1 {
		return nil
	}
	remainder := w.pos % alignment
	if remainder == 0 {
		return nil
	}
	return w.WriteZeros(int(alignment - remainder))
}

// WriteZeros writes n zero bytes.
func (w *Writer) WriteZeros(n int) error {
	if n <= 0 {
		return nil
	}
	return w.WriteBytes(make([]byte, n))
}

// OffsetSize reports the configured offset width in bytes.
func (w *Writer) OffsetSize() int {
	return w.offsetSize
}

// LengthSize reports the configured length width in bytes.
func (w *Writer) LengthSize() int {
	return w.lengthSize
}

// ByteOrder returns the configured byte order.
func (w *Writer) ByteOrder() binary.ByteOrder {
	return w.order
}

// SeekableWriterAt adapts an io.WriteSeeker into an io.WriterAt. Not
// safe for concurrent use since each WriteAt seeks first.
type SeekableWriterAt struct {
	ws io.WriteSeeker
}

// NewSeekableWriterAt wraps ws.
func NewSeekableWriterAt(ws io.WriteSeeker) *SeekableWriterAt {
	return &SeekableWriterAt{ws: ws}
}

// WriteAt implements io.WriterAt.
func (s *SeekableWriterAt) WriteAt(p []byte, off int64) (n int, err error) {
	if _, err := s.ws.Seek(off, io.SeekStart); err != nil {
		return 0, err
	}
	return s.ws.Write(p)
}
