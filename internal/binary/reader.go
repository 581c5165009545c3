// Package binary implements the low-level byte readers and writers the
// HDF5 format parsing is built on, including variable-width offset and
// length fields.
package binary

import (
	"encoding/binary"
	"errors"
	"io"
)

// ErrInvalidSize reports an offset or length width outside 2, 4 and 8.
var ErrInvalidSize = errors.New("invalid offset/length size: must be 2, 4, or 8")

// Reader decodes HDF5 binary structures from an io.ReaderAt, tracking
// its own position so derived readers can parse independently.
type Reader struct {
	r          io.ReaderAt
	order      binary.ByteOrder
	offsetSize int
	lengthSize int
	pos        int64
}

// Config carries the byte order and field widths, usually taken from
// the superblock.
type Config struct {
	ByteOrder  binary.ByteOrder
	OffsetSize int // 2, 4, or 8 bytes
	LengthSize int // 2, 4, or 8 bytes
}

// DefaultConfig is the configuration used before the superblock has
// been parsed: little endian with 8-byte offsets and lengths.
func DefaultConfig() Config {
	return Config{
		ByteOrder:  binary.LittleEndian,
		OffsetSize: 8,
		LengthSize: 8,
	}
}

// NewReader builds a Reader positioned at offset zero.
func NewReader(r io.ReaderAt, cfg Config) *Reader {
	return &Reader{
		r:          r,
		order:      cfg.ByteOrder,
		offsetSize: cfg.OffsetSize,
		lengthSize: cfg.LengthSize,
	}
}

// At derives a reader positioned at offset. The underlying io.ReaderAt
// is shared while the position is independent.
func (r *Reader) At(offset int64) *Reader {
	nr := *r
	nr.pos = offset
	return &nr
}

// WithSizes derives a reader using the offset and length widths read
// from the superblock.
func (r *Reader) WithSizes(offsetSize, lengthSize int) *Reader {
	nr := *r
	nr.offsetSize = offsetSize
	nr.lengthSize = lengthSize
	return &nr
}

// Pos reports the current read position.
func (r *Reader) Pos() int64 {
	return r.pos
}

// ReadBytes reads exactly n bytes and advances the position.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	if _, err := r.r.ReadAt(buf, r.pos); err != nil {
		return nil, err
	}
	r.pos += int64(n)
	return buf, nil
}

// Peek reads n bytes without moving the position.
func (r *Reader) Peek(n int) ([]byte, error) {
	save := r.pos
	buf, err := r.ReadBytes(n)
	r.pos = save
	return buf, err
}

// ReadUint8 reads an unsigned 8-bit integer.
func (r *Reader) ReadUint8() (uint8, error) {
	buf, err := r.ReadBytes(1)
	if err != nil {
		return 0, err
	}
	return buf[0], nil
}

// ReadUint16 reads an unsigned 16-bit integer.
func (r *Reader) ReadUint16() (uint16, error) {
	v, err := r.ReadUintN(2)
	return uint16(v), err
}

// ReadUint32 reads an unsigned 32-bit integer.
func (r *Reader) ReadUint32() (uint32, error) {
	v, err := r.ReadUintN(4)
	return uint32(v), err
}

// ReadUint64 reads an unsigned 64-bit integer.
func (r *Reader) ReadUint64() (uint64, error) {
	return r.ReadUintN(8)
}

// ReadUintN reads an unsigned integer occupying n bytes.
func (r *Reader) ReadUintN(n int) (uint64, error) {
	buf, err := r.ReadBytes(n)
	if err != nil {
		return 0, err
	}
	return r.decodeUint(buf, n), nil
}

// ReadOffset reads a file offset at the configured width.
func (r *Reader) ReadOffset() (uint64, error) {
	return r.ReadUintN(r.offsetSize)
}

// ReadLength reads a length field at the configured width.
func (r *Reader) ReadLength() (uint64, error) {
	return r.ReadUintN(r.lengthSize)
}

func (r *Reader) decodeUint(buf []byte, size int) uint64 {
	switch size {
	case 1:
		return uint64(buf[0])
	case 2:
		return uint64(r.order.Uint16(buf))
	case 4:
		return uint64(r.order.Uint32(buf))
	case 8:
		return r.order.Uint64(buf)
	default:
		// Non-standard widths are assumed little endian.
		var val uint64
		for i := size - 1; i >= 0; i-- {
			val = (val << 8) | uint64(buf[i])
		}
		return val
	}
}

// undefinedSentinel is the all-ones pattern marking an n-byte field as
// undefined.
func undefinedSentinel(n int) uint64 {
	if n >= 8 {
		return ^uint64(0)
	}
	return 1<<(8*n) - 1
}

// IsUndefinedOffset reports whether offset is the undefined-address
// sentinel at the configured width.
func (r *Reader) IsUndefinedOffset(offset uint64) bool {
	return offset == undefinedSentinel(r.offsetSize)
}

// IsUndefinedLength reports whether length is the undefined sentinel.
func (r *Reader) IsUndefinedLength(length uint64) bool {
	return length == undefinedSentinel(r.lengthSize)
}

// Skip advances the position by n bytes.
func (r *Reader) Skip(n int64) {
	r.pos += n
}

// Align rounds the position up to the next multiple of alignment.
func (r *Reader) Align(alignment int64) {
	if alignment <= 1 {
		return
	}
	if remainder := r.pos % alignment; remainder != 0 {
		r.pos += alignment - remainder
	}
}

// OffsetSize reports the configured offset width in bytes.
func (r *Reader) OffsetSize() int {
	return r.offsetSize
}

// LengthSize reports the configured length width in bytes.
func (r *Reader) LengthSize() int {
	return r.lengthSize
}

// ByteOrder returns the configured byte order.
func (r *Reader) ByteOrder() binary.ByteOrder {
	return r.order
}
