package message

import (
	"bytes"
	"fmt"

	binpkg "github.com/robert-malhotra/h5data/internal/binary"
)

// Registered filter identifiers below the custom range.
const (
	FilterDeflate     uint16 = 1 // gzip
	FilterShuffle     uint16 = 2 // byte shuffle
	FilterFletcher32  uint16 = 3 // fletcher32 checksum
	FilterSZIP        uint16 = 4 // szip
	FilterNBit        uint16 = 5 // n-bit packing
	FilterScaleOffset uint16 = 6 // scale plus offset
)

// FilterInfo is one stage of a chunk filter pipeline.
type FilterInfo struct {
	ID         uint16
	Flags      uint16
	Name       string
	ClientData []uint32
}

// IsOptional reports whether a failed apply of this filter may be
// skipped rather than treated as an error.
func (f *FilterInfo) IsOptional() bool {
	return f.Flags&0x01 != 0
}

// FilterPipeline is the filter pipeline message (type 0x000B): the
// ordered filters applied to each chunk before it hits the file.
type FilterPipeline struct {
	Version uint8
	Filters []FilterInfo
}

func (m *FilterPipeline) Type() Type { return TypeFilterPipeline }

// HasFilter reports whether any stage uses the given filter ID.
func (m *FilterPipeline) HasFilter(id uint16) bool {
	for _, f := range m.Filters {
		if f.ID == id {
			return true
		}
	}
	return false
}

// HasCompression reports whether any stage is a compressor.
func (m *FilterPipeline) HasCompression() bool {
	for _, f := range m.Filters {
		switch f.ID {
		case FilterDeflate, FilterSZIP:
			return true
		}
	}
	return false
}

func parseFilterPipeline(data []byte, r *binpkg.Reader) (*FilterPipeline, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("filter pipeline message too short")
	}

	fp := &FilterPipeline{
		Version: data[0],
		Filters: make([]FilterInfo, data[1]),
	}

	// Version 1 pads the two header bytes with six reserved bytes.
	c := &fieldCursor{data: data, pos: 2, r: r}
	if fp.Version == 1 {
		c.pos = 8
	}

	for i := range fp.Filters {
		filter, err := parseFilterInfo(c, fp.Version)
		if err != nil {
			return nil, fmt.Errorf("parsing filter %d: %w", i, err)
		}
		fp.Filters[i] = filter
	}
	return fp, nil
}

func parseFilterInfo(c *fieldCursor, version uint8) (FilterInfo, error) {
	var f FilterInfo

	if c.remaining() < 6 {
		return f, fmt.Errorf("filter info too short")
	}
	id, _ := c.uint(2, "filter ID")
	f.ID = uint16(id)

	// A name length field appears in version 1, and in version 2 only
	// for filters in the custom ID range.
	var nameLen uint64
	if version == 1 || f.ID >= 256 {
		if nameLen, _ = c.uint(2, "filter name length"); c.remaining() < 4 {
			return f, fmt.Errorf("filter info too short")
		}
	}

	flags, _ := c.uint(2, "filter flags")
	f.Flags = uint16(flags)
	numCD, _ := c.uint(2, "filter client data count")

	if nameLen > 0 {
		name, err := c.bytes(int(nameLen), "filter name")
		if err != nil {
			return f, err
		}
		if i := bytes.IndexByte(name, 0); i >= 0 {
			name = name[:i]
		}
		f.Name = string(name)

		// Version 1 pads the name to an 8-byte boundary.
		if version == 1 && nameLen%8 != 0 {
			c.pos += 8 - int(nameLen%8)
		}
	}

	f.ClientData = make([]uint32, numCD)
	for j := range f.ClientData {
		if c.remaining() < 4 {
			break
		}
		cd, _ := c.uint(4, "filter client data")
		f.ClientData[j] = uint32(cd)
	}

	// Version 1 pads an odd client data count with one extra word.
	if version == 1 && numCD%2 != 0 {
		c.pos += 4
	}
	return f, nil
}
