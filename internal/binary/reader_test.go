package binary

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// memReaderAt serves reads from an in-memory byte slice.
type memReaderAt []byte

func (m memReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(m)) {
		return 0, nil
	}
	return copy(p, m[off:]), nil
}

func TestReaderFixedWidthReads(t *testing.T) {
	// Little-endian encodings of one value per width, back to back.
	data := memReaderAt{
		0x42,
		0x02, 0x01,
		0x78, 0x56, 0x34, 0x12,
		0xF0, 0xDE, 0xBC, 0x9A, 0x78, 0x56, 0x34, 0x12,
	}
	r := NewReader(data, DefaultConfig())

	if v, err := r.ReadUint8(); err != nil || v != 0x42 {
		t.Fatalf("ReadUint8 = 0x%02x, %v", v, err)
	}
	if v, err := r.ReadUint16(); err != nil || v != 0x0102 {
		t.Fatalf("ReadUint16 = 0x%04x, %v", v, err)
	}
	if v, err := r.ReadUint32(); err != nil || v != 0x12345678 {
		t.Fatalf("ReadUint32 = 0x%08x, %v", v, err)
	}
	if v, err := r.ReadUint64(); err != nil || v != 0x123456789ABCDEF0 {
		t.Fatalf("ReadUint64 = 0x%016x, %v", v, err)
	}
	if got, want := r.Pos(), int64(len(data)); got != want {
		t.Fatalf("Pos after reads = %d, want %d", got, want)
	}
}

func TestReaderReadOffsetWidths(t *testing.T) {
	tests := []struct {
		name  string
		width int
		data  []byte
		want  uint64
	}{
		{"2-byte", 2, []byte{0x34, 0x12}, 0x1234},
		{"4-byte", 4, []byte{0x78, 0x56, 0x34, 0x12}, 0x12345678},
		{"8-byte", 8, []byte{0xF0, 0xDE, 0xBC, 0x9A, 0x78, 0x56, 0x34, 0x12}, 0x123456789ABCDEF0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{
				ByteOrder:  binary.LittleEndian,
				OffsetSize: tt.width,
				LengthSize: tt.width,
			}
			r := NewReader(memReaderAt(tt.data), cfg)

			v, err := r.ReadOffset()
			if err != nil {
				t.Fatalf("ReadOffset: %v", err)
			}
			if v != tt.want {
				t.Errorf("ReadOffset = 0x%x, want 0x%x", v, tt.want)
			}
		})
	}
}

func TestReaderAtIsIndependent(t *testing.T) {
	data := memReaderAt{0x00, 0x01, 0x02, 0x03, 0x04, 0x05}
	r := NewReader(data, DefaultConfig())

	derived := r.At(3)
	if v, err := derived.ReadUint8(); err != nil || v != 0x03 {
		t.Fatalf("derived ReadUint8 = 0x%02x, %v", v, err)
	}

	// The parent reader's position must be untouched.
	if v, err := r.ReadUint8(); err != nil || v != 0x00 {
		t.Fatalf("parent ReadUint8 = 0x%02x, %v", v, err)
	}
}

func TestReaderSkipAndAlign(t *testing.T) {
	tests := []struct {
		start     int64
		alignment int64
		want      int64
	}{
		{0, 8, 0},
		{1, 8, 8},
		{7, 8, 8},
		{8, 8, 8},
		{9, 8, 16},
		{0, 4, 0},
		{1, 4, 4},
		{3, 4, 4},
		{4, 4, 4},
	}

	for _, tt := range tests {
		r := NewReader(make(memReaderAt, 32), DefaultConfig())
		r.Skip(tt.start)
		r.Align(tt.alignment)
		if r.Pos() != tt.want {
			t.Errorf("Skip(%d) then Align(%d): pos = %d, want %d",
				tt.start, tt.alignment, r.Pos(), tt.want)
		}
	}
}

func TestReaderPeekDoesNotAdvance(t *testing.T) {
	r := NewReader(memReaderAt{0x00, 0x01, 0x02, 0x03}, DefaultConfig())

	peeked, err := r.Peek(2)
	if err != nil {
		t.Fatalf("Peek: %v", err)
	}
	if !bytes.Equal(peeked, []byte{0x00, 0x01}) {
		t.Errorf("Peek = %v, want [0 1]", peeked)
	}
	if r.Pos() != 0 {
		t.Errorf("Peek moved position to %d", r.Pos())
	}

	read, err := r.ReadBytes(2)
	if err != nil {
		t.Fatalf("ReadBytes: %v", err)
	}
	if !bytes.Equal(read, peeked) {
		t.Errorf("ReadBytes after Peek = %v, want %v", read, peeked)
	}
}

func TestReaderUndefinedSentinels(t *testing.T) {
	tests := []struct {
		width int
		value uint64
		want  bool
	}{
		{2, 0xFFFF, true},
		{2, 0xFFFE, false},
		{4, 0xFFFFFFFF, true},
		{4, 0xFFFFFFFE, false},
		{8, 0xFFFFFFFFFFFFFFFF, true},
		{8, 0xFFFFFFFFFFFFFFFE, false},
	}

	for _, tt := range tests {
		cfg := Config{
			ByteOrder:  binary.LittleEndian,
			OffsetSize: tt.width,
			LengthSize: tt.width,
		}
		r := NewReader(memReaderAt{}, cfg)

		if got := r.IsUndefinedOffset(tt.value); got != tt.want {
			t.Errorf("IsUndefinedOffset(width %d, 0x%x) = %v, want %v",
				tt.width, tt.value, got, tt.want)
		}
		if got := r.IsUndefinedLength(tt.value); got != tt.want {
			t.Errorf("IsUndefinedLength(width %d, 0x%x) = %v, want %v",
				tt.width, tt.value, got, tt.want)
		}
	}
}

func TestReaderWithSizes(t *testing.T) {
	data := memReaderAt{0x34, 0x12, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	r := NewReader(data, DefaultConfig())

	narrow := r.WithSizes(2, 2)
	v, err := narrow.ReadOffset()
	if err != nil {
		t.Fatalf("ReadOffset: %v", err)
	}
	if v != 0x1234 {
		t.Errorf("ReadOffset = 0x%x, want 0x1234", v)
	}
	if narrow.OffsetSize() != 2 || narrow.LengthSize() != 2 {
		t.Errorf("WithSizes widths = %d/%d, want 2/2",
			narrow.OffsetSize(), narrow.LengthSize())
	}
}
