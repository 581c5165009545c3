package layout

import (
	"fmt"

	"github.com/robert-malhotra/h5data/internal/binary"
	"github.com/robert-malhotra/h5data/internal/message"
)

// Contiguous serves datasets stored as one addressed run of bytes.
type Contiguous struct {
	address   uint64
	size      uint64
	dataspace *message.Dataspace
	datatype  *message.Datatype
	reader    *binary.Reader
}

// NewContiguous builds a contiguous handler. A zero size in the layout
// message falls back to the extent times the element width.
func NewContiguous(
	layout *message.DataLayout,
	dataspace *message.Dataspace,
	datatype *message.Datatype,
	reader *binary.Reader,
) *Contiguous {
	size := layout.Size
	if size == 0 {
		size = calculateDataSize(dataspace, datatype)
	}

	return &Contiguous{
		address:   layout.Address,
		size:      size,
		dataspace: dataspace,
		datatype:  datatype,
		reader:    reader,
	}
}

func (c *Contiguous) Class() message.LayoutClass {
	return message.LayoutContiguous
}

// Read returns the whole storage run. An undefined address means the
// data was never allocated.
func (c *Contiguous) Read() ([]byte, error) {
	if c.reader.IsUndefinedOffset(c.address) {
		return nil, fmt.Errorf("contiguous data not allocated")
	}
	if c.size == 0 {
		return []byte{}, nil
	}

	data, err := c.reader.At(int64(c.address)).ReadBytes(int(c.size))
	if err != nil {
		return nil, fmt.Errorf("reading contiguous data: %w", err)
	}
	return data, nil
}

// ReadSlice reads the whole run and carves the selection out of it. A
// scalar dataset only accepts empty start and count.
func (c *Contiguous) ReadSlice(start, count []uint64) ([]byte, error) {
	dims := c.dataspace.Dimensions
	if len(dims) == 0 {
		if len(start) == 0 && len(count) == 0 {
			return c.Read()
		}
		return nil, fmt.Errorf("cannot slice scalar dataset with non-empty start/count")
	}
	if err := validateSelection(dims, start, count); err != nil {
		return nil, err
	}

	data, err := c.Read()
	if err != nil {
		return nil, err
	}
	return extractHyperslab(data, dims, start, count, uint64(c.datatype.Size))
}

// Address reports where the storage run begins.
func (c *Contiguous) Address() uint64 {
	return c.address
}

// Size reports the storage run's byte count.
func (c *Contiguous) Size() uint64 {
	return c.size
}
