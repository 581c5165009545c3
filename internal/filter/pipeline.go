package filter

import (
	"fmt"

	"github.com/robert-malhotra/h5data/internal/message"
)

// Pipeline runs a chunk's filters in decode order.
type Pipeline struct {
	filters []Filter
}

// NewPipeline instantiates the filters a pipeline message names. A
// nil or empty message yields a pass-through pipeline.
func NewPipeline(fp *message.FilterPipeline) (*Pipeline, error) {
	if fp == nil || len(fp.Filters) == 0 {
		return &Pipeline{}, nil
	}

	p := &Pipeline{
		filters: make([]Filter, 0, len(fp.Filters)),
	}

	for _, info := range fp.Filters {
		f, err := New(info)
		if err != nil {
			return nil, fmt.Errorf("creating filter %d: %w", info.ID, err)
		}
		if f != nil {
			p.filters = append(p.filters, f)
		}
	}

	return p, nil
}

// Decode reverses the pipeline over encoded chunk bytes. Filters ran
// forward at write time, so decoding walks them last to first; bit i
// of filterMask marks filter i as skipped for this chunk.
func (p *Pipeline) Decode(input []byte, filterMask uint32) ([]byte, error) {
	data := input

	for i := len(p.filters) - 1; i >= 0; i-- {
		if filterMask&(1<<uint(i)) != 0 {
			continue
		}

		var err error
		data, err = p.filters[i].Decode(data)
		if err != nil {
			return nil, fmt.Errorf("filter %d decode: %w", p.filters[i].ID(), err)
		}
	}

	return data, nil
}

// Empty reports whether the pipeline passes data through untouched.
func (p *Pipeline) Empty() bool {
	return len(p.filters) == 0
}

// Len reports the number of filter stages.
func (p *Pipeline) Len() int {
	return len(p.filters)
}
