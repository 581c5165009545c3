package superblock

import (
	binpkg "github.com/robert-malhotra/h5data/internal/binary"
)

// Write emits a version 2 or 3 superblock at the writer's current
// position and returns the byte count. The header is staged in memory
// first so the trailing checksum can cover it.
func (sb *Superblock) Write(w *binpkg.Writer) (int64, error) {
	startPos := w.Pos()

	// Fixed bytes plus four offset-wide addresses plus the checksum.
	headerSize := 12 + 4*w.OffsetSize()

	staging := &growBuffer{buf: make([]byte, headerSize+4)}
	bw := binpkg.NewWriter(staging, binpkg.Config{
		ByteOrder:  w.ByteOrder(),
		OffsetSize: w.OffsetSize(),
		LengthSize: w.LengthSize(),
	})

	if err := bw.WriteBytes(Signature); err != nil {
		return 0, err
	}

	version := sb.Version
	if version < 2 {
		version = 2
	}

	for _, b := range []uint8{version, sb.OffsetSize, sb.LengthSize, sb.FileConsistencyFlags} {
		if err := bw.WriteUint8(b); err != nil {
			return 0, err
		}
	}

	// A zero extension address means none; the format spells that as
	// the undefined offset.
	extAddr := sb.SuperblockExtensionAddress
	if extAddr == 0 {
		extAddr = bw.UndefinedOffset()
	}

	for _, addr := range []uint64{sb.BaseAddress, extAddr, sb.EOFAddress, sb.RootGroupAddress} {
		if err := bw.WriteOffset(addr); err != nil {
			return 0, err
		}
	}

	checksum := binpkg.Lookup3Checksum(staging.buf[:bw.Pos()])
	if err := bw.WriteUint32(checksum); err != nil {
		return 0, err
	}

	if err := w.WriteBytes(staging.buf[:bw.Pos()]); err != nil {
		return 0, err
	}

	return w.Pos() - startPos, nil
}

// Size reports the serialized size of a version 2 or 3 superblock.
func (sb *Superblock) Size() int {
	offsetSize := int(sb.OffsetSize)
	if offsetSize == 0 {
		offsetSize = 8
	}
	return 12 + 4*offsetSize + 4
}

// NewSuperblock builds a version 3 superblock with 8-byte offsets and
// lengths.
func NewSuperblock() *Superblock {
	return &Superblock{
		Version:    3,
		OffsetSize: 8,
		LengthSize: 8,
	}
}

// growBuffer is an in-memory io.WriterAt that extends itself on
// writes past the end.
type growBuffer struct {
	buf []byte
}

func (b *growBuffer) WriteAt(p []byte, off int64) (n int, err error) {
	if int(off)+len(p) > len(b.buf) {
		newBuf := make([]byte, int(off)+len(p))
		copy(newBuf, b.buf)
		b.buf = newBuf
	}
	copy(b.buf[off:], p)
	return len(p), nil
}
