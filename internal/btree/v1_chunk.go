package btree

import (
	"fmt"

	"github.com/robert-malhotra/h5data/internal/binary"
)

// ChunkEntry is one indexed chunk of a chunked dataset.
type ChunkEntry struct {
	// Offset locates the chunk's first element in dataset coordinates.
	Offset []uint64

	// FilterMask has bit i set when pipeline filter i was skipped for
	// this particular chunk.
	FilterMask uint32

	// Size is the stored byte count, after any filtering.
	Size uint32

	// Address is where the stored bytes begin in the file.
	Address uint64
}

// ChunkIndex holds every chunk entry found for one dataset.
type ChunkIndex struct {
	// NDims counts the dataset dimensions. Keys on disk carry one more
	// dimension than this.
	NDims int

	Entries []ChunkEntry
}

// ReadChunkIndex walks the v1 B-tree rooted at btreeAddr and collects all
// chunk entries. ndims is the dataset rank without the extra key dimension.
func ReadChunkIndex(r *binary.Reader, btreeAddr uint64, ndims int) (*ChunkIndex, error) {
	entries, err := readChunkBTreeNode(r, btreeAddr, ndims)
	if err != nil {
		return nil, err
	}
	return &ChunkIndex{NDims: ndims, Entries: entries}, nil
}

// chunkKey is the B-tree key preceding each child pointer. Offsets hold
// ndims+1 values; the final one is always zero and tracks the element axis.
type chunkKey struct {
	size       uint32
	filterMask uint32
	offsets    []uint64
}

func readChunkKey(nr *binary.Reader, ndims int) (chunkKey, error) {
	var k chunkKey
	var err error
	if k.size, err = nr.ReadUint32(); err != nil {
		return k, fmt.Errorf("reading chunk size: %w", err)
	}
	if k.filterMask, err = nr.ReadUint32(); err != nil {
		return k, fmt.Errorf("reading filter mask: %w", err)
	}
	k.offsets = make([]uint64, ndims+1)
	for j := 0; j <= ndims; j++ {
		if k.offsets[j], err = nr.ReadUint64(); err != nil {
			return k, fmt.Errorf("reading chunk offset %d: %w", j, err)
		}
	}
	return k, nil
}

func readChunkBTreeNode(r *binary.Reader, address uint64, ndims int) ([]ChunkEntry, error) {
	nr := r.At(int64(address))

	sig, err := nr.ReadBytes(4)
	if err != nil {
		return nil, fmt.Errorf("reading btree signature: %w", err)
	}
	if string(sig) != "TREE" {
		return nil, fmt.Errorf("invalid B-tree signature: got %q, expected \"TREE\"", string(sig))
	}

	var nodeType, nodeLevel uint8
	var entriesUsed uint16
	read := func(f func() error) {
		if err == nil {
			err = f()
		}
	}
	// Node type 0 indexes group links, 1 indexes chunks.
	read(func() (e error) { nodeType, e = nr.ReadUint8(); return })
	read(func() (e error) { nodeLevel, e = nr.ReadUint8(); return })
	read(func() (e error) { entriesUsed, e = nr.ReadUint16(); return })
	// Sibling addresses, unused when collecting the whole tree.
	read(func() (e error) { _, e = nr.ReadOffset(); return })
	read(func() (e error) { _, e = nr.ReadOffset(); return })
	if err != nil {
		return nil, err
	}
	if nodeType != 1 {
		return nil, fmt.Errorf("unexpected B-tree node type: %d (expected 1 for chunk)", nodeType)
	}

	// Keys and child pointers alternate, with one trailing key past the
	// last child that bounds the node from above.
	var entries []ChunkEntry
	for i := uint16(0); i <= entriesUsed; i++ {
		key, err := readChunkKey(nr, ndims)
		if err != nil {
			return nil, err
		}
		if i == entriesUsed {
			break
		}

		childAddr, err := nr.ReadOffset()
		if err != nil {
			return nil, fmt.Errorf("reading child address: %w", err)
		}

		if nodeLevel > 0 {
			childEntries, err := readChunkBTreeNode(r, childAddr, ndims)
			if err != nil {
				return nil, err
			}
			entries = append(entries, childEntries...)
			continue
		}

		if childAddr == 0xFFFFFFFFFFFFFFFF || key.size == 0 {
			continue
		}
		entries = append(entries, ChunkEntry{
			Offset:     key.offsets[:ndims],
			FilterMask: key.filterMask,
			Size:       key.size,
			Address:    childAddr,
		})
	}

	return entries, nil
}

// FindChunk returns the entry whose chunk box contains offset, or nil.
func (idx *ChunkIndex) FindChunk(offset []uint64, chunkDims []uint32) *ChunkEntry {
	for i := range idx.Entries {
		entry := &idx.Entries[i]
		match := true
		for d := 0; d < len(offset) && d < len(entry.Offset); d++ {
			chunkStart := entry.Offset[d]
			chunkEnd := chunkStart + uint64(chunkDims[d])
			if offset[d] < chunkStart || offset[d] >= chunkEnd {
				match = false
				break
			}
		}
		if match {
			return entry
		}
	}
	return nil
}
