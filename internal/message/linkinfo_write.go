package message

import (
	"github.com/robert-malhotra/h5data/internal/binary"
)

// LinkInfo is the link info message (type 0x0002): per-group link
// bookkeeping such as creation order tracking and the addresses of an
// optional fractal heap index.
type LinkInfo struct {
	Version uint8
	Flags   uint8

	// MaxCreationIndex is present when flag bit 0 is set.
	MaxCreationIndex uint64

	// The heap and name index addresses are serialized even when
	// undefined; groups that list links inline leave them at the
	// undefined address.
	FractalHeapAddr    uint64
	NameIndexBTreeAddr uint64

	// CreationOrderBTreeAddr is present only when flag bits 0 and 1
	// are both set.
	CreationOrderBTreeAddr uint64
}

func (m *LinkInfo) Type() Type { return TypeLinkInfo }

func (m *LinkInfo) Serialize(w *binary.Writer) error {
	mw := &msgWriter{w: w}
	mw.u8(m.Version)
	mw.u8(m.Flags)
	if m.Flags&0x01 != 0 {
		mw.uintN(m.MaxCreationIndex, 8)
	}
	mw.offset(m.FractalHeapAddr)
	mw.offset(m.NameIndexBTreeAddr)
	if m.Flags&0x03 == 0x03 {
		mw.offset(m.CreationOrderBTreeAddr)
	}
	return mw.err
}

func (m *LinkInfo) SerializedSize(w *binary.Writer) int {
	size := 2 + 2*w.OffsetSize()

	if m.Flags&0x01 != 0 {
		size += 8
	}
	if m.Flags&0x03 == 0x03 {
		size += w.OffsetSize()
	}

	return size
}

// UndefinedAddress marks an absent file address.
const UndefinedAddress = ^uint64(0)

// NewLinkInfo builds the minimal link info for a group that stores
// its links as inline messages rather than a fractal heap.
func NewLinkInfo() *LinkInfo {
	return &LinkInfo{
		FractalHeapAddr:    UndefinedAddress,
		NameIndexBTreeAddr: UndefinedAddress,
	}
}

// NewLinkInfoWithHeap builds a link info pointing at a fractal heap
// and its name index B-tree.
func NewLinkInfoWithHeap(heapAddr, nameIndexAddr uint64) *LinkInfo {
	return &LinkInfo{
		Flags:              0x02,
		FractalHeapAddr:    heapAddr,
		NameIndexBTreeAddr: nameIndexAddr,
	}
}
