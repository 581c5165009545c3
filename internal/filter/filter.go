package filter

import (
	"fmt"

	"github.com/robert-malhotra/h5data/internal/message"
)

// Filter is one decode stage in a chunk pipeline.
type Filter interface {
	ID() uint16

	// Decode turns encoded bytes back into the raw form.
	Decode(input []byte) ([]byte, error)
}

// Registry holds the constructor for each supported filter ID.
var Registry = map[uint16]func([]uint32) Filter{
	message.FilterDeflate:    func(cd []uint32) Filter { return NewDeflate(cd) },
	message.FilterShuffle:    func(cd []uint32) Filter { return NewShuffle(cd) },
	message.FilterFletcher32: func(cd []uint32) Filter { return NewFletcher32(cd) },
}

// filterNames covers the registered ID range so errors for known but
// unimplemented filters can name them.
var filterNames = map[uint16]string{
	message.FilterDeflate:     "deflate/gzip",
	message.FilterShuffle:     "shuffle",
	message.FilterFletcher32:  "Fletcher32",
	message.FilterSZIP:        "SZIP",
	message.FilterNBit:        "N-bit",
	message.FilterScaleOffset: "scale-offset",
}

// New instantiates the filter described by info. Unsupported optional
// filters come back as (nil, nil) and get skipped; unsupported
// required filters are an error, since the chunk data cannot be
// recovered without them.
func New(info message.FilterInfo) (Filter, error) {
	constructor, ok := Registry[info.ID]
	if !ok {
		if info.IsOptional() {
			return nil, nil
		}
		if name, known := filterNames[info.ID]; known {
			return nil, fmt.Errorf("%s filter (ID %d) is not supported; this dataset cannot be read", name, info.ID)
		}
		return nil, fmt.Errorf("unsupported filter ID: %d", info.ID)
	}
	return constructor(info.ClientData), nil
}
