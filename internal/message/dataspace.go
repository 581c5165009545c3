package message

import (
	"encoding/binary"
	"fmt"

	binpkg "github.com/robert-malhotra/h5data/internal/binary"
)

// DataspaceType classifies a dataspace's extent.
type DataspaceType uint8

const (
	DataspaceScalar DataspaceType = 0 // one element, no dimensions
	DataspaceSimple DataspaceType = 1 // regular N-dimensional grid
	DataspaceNull   DataspaceType = 2 // zero elements
)

// Dataspace is the dataspace message (type 0x0001): the shape of a
// dataset or attribute.
type Dataspace struct {
	Version   uint8
	Rank      int
	SpaceType DataspaceType

	Dimensions []uint64

	// MaxDims is nil when absent, meaning the extent is fixed at
	// Dimensions.
	MaxDims []uint64
}

func (m *Dataspace) Type() Type { return TypeDataspace }

// NumElements multiplies out the extent. Null spaces yield 0 and
// scalar spaces yield 1.
func (m *Dataspace) NumElements() uint64 {
	if m.SpaceType == DataspaceScalar {
		return 1
	}
	if m.SpaceType != DataspaceSimple || len(m.Dimensions) == 0 {
		return 0
	}
	n := uint64(1)
	for _, d := range m.Dimensions {
		n *= d
	}
	return n
}

func (m *Dataspace) IsScalar() bool { return m.SpaceType == DataspaceScalar }
func (m *Dataspace) IsNull() bool   { return m.SpaceType == DataspaceNull }

func parseDataspace(data []byte, r *binpkg.Reader) (*Dataspace, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("dataspace message too short")
	}

	ds := &Dataspace{
		Version: data[0],
		Rank:    int(data[1]),
	}
	hasMaxDims := data[2]&0x01 != 0

	// Version 1 has no type byte; rank 0 means scalar.
	switch {
	case ds.Version >= 2:
		ds.SpaceType = DataspaceType(data[3])
	case ds.Rank == 0:
		ds.SpaceType = DataspaceScalar
	default:
		ds.SpaceType = DataspaceSimple
	}

	if ds.SpaceType != DataspaceSimple || ds.Rank == 0 {
		return ds, nil
	}

	// Version 1 inserts four reserved bytes before the dimensions.
	c := &fieldCursor{data: data, pos: 4, r: r}
	if ds.Version == 1 {
		c.pos = 8
	}

	lengthSize := r.LengthSize()
	if lengthSize == 0 {
		lengthSize = 8
	}

	readDims := func() ([]uint64, error) {
		dims := make([]uint64, ds.Rank)
		for i := range dims {
			d, err := c.uint(lengthSize, "dataspace dimensions")
			if err != nil {
				return nil, fmt.Errorf("dataspace message truncated reading dimensions")
			}
			dims[i] = d
		}
		return dims, nil
	}

	var err error
	if ds.Dimensions, err = readDims(); err != nil {
		return nil, err
	}
	if hasMaxDims {
		if ds.MaxDims, err = readDims(); err != nil {
			return nil, err
		}
	}
	return ds, nil
}

// decodeUint reads an unsigned integer of any byte width, falling
// back to little endian assembly for odd widths.
func decodeUint(buf []byte, size int, order binary.ByteOrder) uint64 {
	switch size {
	case 1:
		return uint64(buf[0])
	case 2:
		return uint64(order.Uint16(buf))
	case 4:
		return uint64(order.Uint32(buf))
	case 8:
		return order.Uint64(buf)
	}
	var val uint64
	for i := 0; i < size; i++ {
		val |= uint64(buf[i]) << (8 * i)
	}
	return val
}
