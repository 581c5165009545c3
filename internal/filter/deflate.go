package filter

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"

	"github.com/robert-malhotra/h5data/internal/message"
)

// Deflate inflates zlib-compressed chunks. The level field only
// matters on the encode side; decoding accepts any level.
type Deflate struct {
	level int
}

// NewDeflate builds a deflate filter. Client data word 0, when
// present, is the compression level.
func NewDeflate(clientData []uint32) *Deflate {
	level := 6
	if len(clientData) > 0 {
		level = int(clientData[0])
	}
	return &Deflate{level: level}
}

func (f *Deflate) ID() uint16 {
	return message.FilterDeflate
}

func (f *Deflate) Decode(input []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(input))
	if err != nil {
		return nil, fmt.Errorf("zlib reader: %w", err)
	}
	defer r.Close()

	output, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("zlib decompress: %w", err)
	}

	return output, nil
}
