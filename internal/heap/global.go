package heap

import (
	"bytes"
	stdbin "encoding/binary"
	"fmt"

	"github.com/robert-malhotra/h5data/internal/binary"
)

// GlobalHeap is one parsed GCOL collection, the structure variable
// length values point into.
type GlobalHeap struct {
	CollectionSize uint64
	objects        map[uint16][]byte
}

// GlobalHeapID locates one object: the collection's file address plus
// the object's index within it.
type GlobalHeapID struct {
	CollectionAddress uint64
	ObjectIndex       uint32
}

// ReadGlobalHeap parses the collection at address and indexes its
// objects.
func ReadGlobalHeap(r *binary.Reader, address uint64) (*GlobalHeap, error) {
	if address == 0 || r.IsUndefinedOffset(address) {
		return nil, fmt.Errorf("invalid global heap address")
	}

	hr := r.At(int64(address))

	sig, err := hr.ReadBytes(4)
	if err != nil {
		return nil, fmt.Errorf("reading global heap signature: %w", err)
	}
	if string(sig) != "GCOL" {
		return nil, fmt.Errorf("invalid global heap signature: %q", string(sig))
	}

	version, err := hr.ReadUint8()
	if err != nil {
		return nil, err
	}
	if version != 1 {
		return nil, fmt.Errorf("unsupported global heap version: %d", version)
	}
	hr.Skip(3) // reserved

	// The declared collection size covers the header too.
	collectionSize, err := hr.ReadLength()
	if err != nil {
		return nil, err
	}

	heap := &GlobalHeap{
		CollectionSize: collectionSize,
		objects:        make(map[uint16][]byte),
	}

	// Objects follow until a zero index or the collection runs out.
	remaining := collectionSize - uint64(4+1+3+r.LengthSize())
	for remaining > 0 {
		index, data, consumed := readGlobalHeapObject(hr, r.LengthSize())
		if index == 0 || consumed == 0 || consumed > remaining {
			break
		}
		if data != nil {
			heap.objects[index] = data
		}
		remaining -= consumed
	}
	return heap, nil
}

// readGlobalHeapObject reads one object entry. A zero index or zero
// consumed count ends the scan.
func readGlobalHeapObject(hr *binary.Reader, lengthSize int) (index uint16, data []byte, consumed uint64) {
	index, err := hr.ReadUint16()
	if err != nil || index == 0 {
		return 0, nil, 0
	}
	if _, err := hr.ReadUint16(); err != nil { // refcount
		return 0, nil, 0
	}
	hr.Skip(4) // reserved

	objectSize, err := hr.ReadLength()
	if err != nil {
		return 0, nil, 0
	}
	if objectSize > 0 {
		if data, err = hr.ReadBytes(int(objectSize)); err != nil {
			return 0, nil, 0
		}
	}

	// Object data is padded to an 8-byte boundary.
	padding := (8 - objectSize%8) % 8
	hr.Skip(int64(padding))

	return index, data, uint64(2+2+4+lengthSize) + objectSize + padding
}

// GetObject returns a copy of the object bytes at index.
func (h *GlobalHeap) GetObject(index uint16) ([]byte, error) {
	if h == nil {
		return nil, fmt.Errorf("nil global heap")
	}
	data, ok := h.objects[index]
	if !ok {
		return nil, fmt.Errorf("object index %d not found in global heap", index)
	}
	return append([]byte(nil), data...), nil
}

// GetString returns the object at index up to its first NUL.
func (h *GlobalHeap) GetString(index uint16) (string, error) {
	data, err := h.GetObject(index)
	if err != nil {
		return "", err
	}
	if end := bytes.IndexByte(data, 0); end >= 0 {
		data = data[:end]
	}
	return string(data), nil
}

// ParseGlobalHeapID decodes a heap reference, an offset-sized little
// endian collection address followed by a 4-byte object index.
func ParseGlobalHeapID(data []byte, offsetSize int) (GlobalHeapID, error) {
	if len(data) < offsetSize+4 {
		return GlobalHeapID{}, fmt.Errorf("global heap ID too short: need %d bytes, have %d", offsetSize+4, len(data))
	}

	var addr uint64
	switch offsetSize {
	case 2:
		addr = uint64(stdbin.LittleEndian.Uint16(data))
	case 4:
		addr = uint64(stdbin.LittleEndian.Uint32(data))
	case 8:
		addr = stdbin.LittleEndian.Uint64(data)
	default:
		return GlobalHeapID{}, fmt.Errorf("unsupported offset size: %d", offsetSize)
	}

	return GlobalHeapID{
		CollectionAddress: addr,
		ObjectIndex:       stdbin.LittleEndian.Uint32(data[offsetSize:]),
	}, nil
}
