package heap

import (
	"bytes"
	"fmt"

	"github.com/robert-malhotra/h5data/internal/binary"
)

// LocalHeap holds the name storage of an old-style group. Symbol
// table entries refer to names by byte offset into the data segment.
type LocalHeap struct {
	DataSize    uint64
	FreeOffset  uint64
	DataAddress uint64
	data        []byte
}

var localHeapSignature = []byte{'H', 'E', 'A', 'P'}

// ReadLocalHeap decodes the heap header at address and pulls in its
// data segment.
func ReadLocalHeap(r *binary.Reader, address uint64) (*LocalHeap, error) {
	hr := r.At(int64(address))

	sig, err := hr.ReadBytes(4)
	if err != nil {
		return nil, fmt.Errorf("reading local heap signature: %w", err)
	}
	if !bytes.Equal(sig, localHeapSignature) {
		return nil, fmt.Errorf("invalid local heap signature: got %q, expected \"HEAP\"", string(sig))
	}

	version, err := hr.ReadUint8()
	if err != nil {
		return nil, err
	}
	if version != 0 {
		return nil, fmt.Errorf("unsupported local heap version: %d", version)
	}

	hr.Skip(3) // reserved

	// Data segment size, free list head and segment address follow at
	// the file-wide field widths.
	dataSize, err := hr.ReadLength()
	if err != nil {
		return nil, err
	}

	freeOffset, err := hr.ReadLength()
	if err != nil {
		return nil, err
	}

	dataAddr, err := hr.ReadOffset()
	if err != nil {
		return nil, err
	}

	heap := &LocalHeap{
		DataSize:    dataSize,
		FreeOffset:  freeOffset,
		DataAddress: dataAddr,
	}

	heap.data, err = r.At(int64(dataAddr)).ReadBytes(int(dataSize))
	if err != nil {
		return nil, fmt.Errorf("reading local heap data: %w", err)
	}

	return heap, nil
}

// GetString returns the NUL terminated string at offset, or "" when
// the offset falls outside the data segment.
func (h *LocalHeap) GetString(offset uint64) string {
	if offset >= uint64(len(h.data)) {
		return ""
	}

	rest := h.data[offset:]
	if i := bytes.IndexByte(rest, 0); i >= 0 {
		rest = rest[:i]
	}
	return string(rest)
}
