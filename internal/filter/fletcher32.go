package filter

import (
	"encoding/binary"
	"fmt"

	binpkg "github.com/robert-malhotra/h5data/internal/binary"
	"github.com/robert-malhotra/h5data/internal/message"
)

// Fletcher32Filter checks the Fletcher-32 checksum the encoder
// appended to each chunk.
type Fletcher32Filter struct{}

func NewFletcher32(clientData []uint32) *Fletcher32Filter {
	return &Fletcher32Filter{}
}

func (f *Fletcher32Filter) ID() uint16 {
	return message.FilterFletcher32
}

// Decode strips the trailing 4-byte checksum after verifying it
// against the payload.
func (f *Fletcher32Filter) Decode(input []byte) ([]byte, error) {
	if len(input) < 4 {
		return nil, fmt.Errorf("fletcher32: input too short for checksum")
	}

	data := input[:len(input)-4]
	stored := binary.LittleEndian.Uint32(input[len(input)-4:])

	computed := binpkg.Fletcher32(data)
	if stored != computed {
		return nil, fmt.Errorf("fletcher32: checksum mismatch (stored=0x%08x, computed=0x%08x)",
			stored, computed)
	}

	return data, nil
}
