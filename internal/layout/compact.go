package layout

import (
	"fmt"

	"github.com/robert-malhotra/h5data/internal/message"
)

// Compact serves datasets whose raw bytes live inline in the object
// header. Reads never touch the file again.
type Compact struct {
	data      []byte
	dataspace *message.Dataspace
	datatype  *message.Datatype
}

func NewCompact(layout *message.DataLayout, dataspace *message.Dataspace, datatype *message.Datatype) *Compact {
	return &Compact{
		data:      layout.CompactData,
		dataspace: dataspace,
		datatype:  datatype,
	}
}

func (c *Compact) Class() message.LayoutClass {
	return message.LayoutCompact
}

// Read hands back a copy of the inline bytes.
func (c *Compact) Read() ([]byte, error) {
	return append([]byte(nil), c.data...), nil
}

// Size reports the inline byte count.
func (c *Compact) Size() int {
	return len(c.data)
}

// ReadSlice extracts a hyperslab from the inline bytes. A scalar
// dataset only accepts empty start and count.
func (c *Compact) ReadSlice(start, count []uint64) ([]byte, error) {
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

	return extractHyperslab(c.data, dims, start, count, uint64(c.datatype.Size))
}
