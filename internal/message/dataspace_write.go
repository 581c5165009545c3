package message

import (
	"github.com/robert-malhotra/h5data/internal/binary"
)

// Serialize emits the dataspace in version 2 form: version, rank,
// flags and space type bytes, then the dimensions at the length
// width, then the max dimensions when flag bit 0 says they follow.
func (m *Dataspace) Serialize(w *binary.Writer) error {
	flags := uint8(0)
	if len(m.MaxDims) > 0 {
		flags |= 0x01
	}

	mw := &msgWriter{w: w}
	mw.u8(2)
	mw.u8(uint8(m.Rank))
	mw.u8(flags)
	mw.u8(uint8(m.SpaceType))
	for _, dim := range m.Dimensions {
		mw.length(dim)
	}
	for _, maxDim := range m.MaxDims {
		mw.length(maxDim)
	}
	return mw.err
}

func (m *Dataspace) SerializedSize(w *binary.Writer) int {
	size := 4 + m.Rank*w.LengthSize()
	if len(m.MaxDims) > 0 {
		size += m.Rank * w.LengthSize()
	}
	return size
}

// NewDataspace builds a simple dataspace. Pass maxDims as nil when
// the dataset is fixed size.
func NewDataspace(dims []uint64, maxDims []uint64) *Dataspace {
	return &Dataspace{
		Version:    2,
		Rank:       len(dims),
		SpaceType:  DataspaceSimple,
		Dimensions: dims,
		MaxDims:    maxDims,
	}
}

// NewScalarDataspace builds a rank 0 scalar dataspace.
func NewScalarDataspace() *Dataspace {
	return &Dataspace{
		Version:   2,
		SpaceType: DataspaceScalar,
	}
}

// NewNullDataspace builds a dataspace with no elements.
func NewNullDataspace() *Dataspace {
	return &Dataspace{
		Version:   2,
		SpaceType: DataspaceNull,
	}
}
