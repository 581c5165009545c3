package filter

import (
	"github.com/robert-malhotra/h5data/internal/message"
)

// Shuffle undoes the byte shuffle transform. Shuffled chunks store
// byte position 0 of every element, then byte position 1, and so on,
// which makes runs compress better.
type Shuffle struct {
	elemSize int
}

// NewShuffle builds a shuffle filter. Client data word 0 is the
// element size in bytes.
func NewShuffle(clientData []uint32) *Shuffle {
	elemSize := 1
	if len(clientData) > 0 && clientData[0] > 0 {
		elemSize = int(clientData[0])
	}
	return &Shuffle{elemSize: elemSize}
}

func (f *Shuffle) ID() uint16 {
	return message.FilterShuffle
}

// Decode gathers each element's bytes back together from the grouped
// byte planes. Single-byte elements shuffle to themselves.
func (f *Shuffle) Decode(input []byte) ([]byte, error) {
	if f.elemSize <= 1 {
		return input, nil
	}

	numElems := len(input) / f.elemSize
	if numElems == 0 {
		return input, nil
	}

	output := make([]byte, len(input))
	for i := 0; i < numElems; i++ {
		for j := 0; j < f.elemSize; j++ {
			output[i*f.elemSize+j] = input[j*numElems+i]
		}
	}

	return output, nil
}

// SetElementSize overrides the element size when it is only known
// after the pipeline is built.
func (f *Shuffle) SetElementSize(size int) {
	f.elemSize = size
}
