package btree

import (
	"encoding/binary"
	"fmt"

	bin "github.com/robert-malhotra/h5data/internal/binary"
	"github.com/robert-malhotra/h5data/internal/heap"
)

// GroupEntry is one link found in a v1 group B-tree.
type GroupEntry struct {
	Name          string
	ObjectAddress uint64
	LinkType      uint32 // 0 hard, 1 soft
	SoftLinkValue string // soft link target path
}

// ReadGroupEntries collects every link reachable from a v1 group
// B-tree. Link names come from the group's local heap.
func ReadGroupEntries(r *bin.Reader, btreeAddr uint64, localHeap *heap.LocalHeap) ([]GroupEntry, error) {
	return readBTreeNode(r, btreeAddr, localHeap)
}

func readBTreeNode(r *bin.Reader, address uint64, localHeap *heap.LocalHeap) ([]GroupEntry, error) {
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
	read(func() (e error) { nodeType, e = nr.ReadUint8(); return })
	read(func() (e error) { nodeLevel, e = nr.ReadUint8(); return })
	read(func() (e error) { entriesUsed, e = nr.ReadUint16(); return })
	// Sibling addresses, unused for a full scan.
	read(func() (e error) { _, e = nr.ReadOffset(); return })
	read(func() (e error) { _, e = nr.ReadOffset(); return })
	if err != nil {
		return nil, err
	}

	// Node type 0 indexes group links, 1 indexes chunks.
	if nodeType != 0 {
		return nil, fmt.Errorf("unexpected B-tree node type: %d (expected 0 for group)", nodeType)
	}

	var entries []GroupEntry
	for i := uint16(0); i < entriesUsed; i++ {
		// Key, a heap offset used only for ordered lookups.
		if _, err := nr.ReadLength(); err != nil {
			return nil, err
		}
		childAddr, err := nr.ReadOffset()
		if err != nil {
			return nil, err
		}

		var childEntries []GroupEntry
		if nodeLevel == 0 {
			childEntries, err = readSymbolTableNode(r, childAddr, localHeap)
			if err != nil {
				return nil, fmt.Errorf("reading symbol table node: %w", err)
			}
		} else if childEntries, err = readBTreeNode(r, childAddr, localHeap); err != nil {
			return nil, err
		}
		entries = append(entries, childEntries...)
	}
	return entries, nil
}

func readSymbolTableNode(r *bin.Reader, address uint64, localHeap *heap.LocalHeap) ([]GroupEntry, error) {
	nr := r.At(int64(address))

	sig, err := nr.ReadBytes(4)
	if err != nil {
		return nil, fmt.Errorf("reading SNOD signature: %w", err)
	}
	if string(sig) != "SNOD" {
		return nil, fmt.Errorf("invalid symbol table node signature: got %q, expected \"SNOD\"", string(sig))
	}

	version, err := nr.ReadUint8()
	if err != nil {
		return nil, err
	}
	if version != 1 {
		return nil, fmt.Errorf("unsupported symbol table node version: %d", version)
	}
	nr.Skip(1) // reserved

	numSymbols, err := nr.ReadUint16()
	if err != nil {
		return nil, err
	}

	var entries []GroupEntry
	for i := uint16(0); i < numSymbols; i++ {
		entry, err := readSymbolTableEntry(nr, localHeap)
		if err != nil {
			return nil, fmt.Errorf("reading symbol table entry %d: %w", i, err)
		}
		// Unused table slots carry an empty name.
		if entry.Name != "" {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// Cache type values a symbol table entry can carry.
const (
	cacheTypeNone     uint32 = 0
	cacheTypeHardLink uint32 = 1
	cacheTypeSoftLink uint32 = 2
)

func readSymbolTableEntry(r *bin.Reader, localHeap *heap.LocalHeap) (GroupEntry, error) {
	nameOffset, err := r.ReadOffset()
	if err != nil {
		return GroupEntry{}, err
	}
	objAddr, err := r.ReadOffset()
	if err != nil {
		return GroupEntry{}, err
	}
	cacheType, err := r.ReadUint32()
	if err != nil {
		return GroupEntry{}, err
	}
	r.Skip(4) // reserved

	// Scratch pad, meaning depends on the cache type.
	scratchPad, err := r.ReadBytes(16)
	if err != nil {
		return GroupEntry{}, err
	}

	entry := GroupEntry{
		Name:          localHeap.GetString(nameOffset),
		ObjectAddress: objAddr,
	}
	if cacheType == cacheTypeSoftLink {
		// The scratch pad opens with a 4-byte heap offset naming the
		// link target.
		linkOffset := uint64(binary.LittleEndian.Uint32(scratchPad[:4]))
		entry.LinkType = 1
		entry.SoftLinkValue = localHeap.GetString(linkOffset)
		entry.ObjectAddress = 0
	}
	return entry, nil
}
