package btree

import (
	"fmt"

	"github.com/robert-malhotra/h5data/internal/binary"
)

// Record types a v2 B-tree can hold when indexing chunks.
const (
	// BTreeV2TypeChunkNoFilter is record type 10, chunks with no filters.
	BTreeV2TypeChunkNoFilter uint8 = 10
	// BTreeV2TypeChunkWithFilter is record type 11, filtered chunks.
	BTreeV2TypeChunkWithFilter uint8 = 11
)

// btreeV2Header mirrors the on-disk BTHD block.
type btreeV2Header struct {
	Version        uint8
	Type           uint8
	NodeSize       uint32
	RecordSize     uint16
	Depth          uint16
	SplitPercent   uint8
	MergePercent   uint8
	RootAddr       uint64
	NumRootRecords uint16
	TotalRecords   uint64
}

// ReadChunkIndexV2 collects every chunk record reachable from a v2
// B-tree rooted at btreeAddr. ndims must match the dataset rank since
// records embed one scaled offset per dimension.
func ReadChunkIndexV2(r *binary.Reader, btreeAddr uint64, ndims int) (*ChunkIndex, error) {
	header, err := readBTreeV2Header(r, btreeAddr)
	if err != nil {
		return nil, fmt.Errorf("reading B-tree v2 header: %w", err)
	}

	if header.Type != BTreeV2TypeChunkNoFilter && header.Type != BTreeV2TypeChunkWithFilter {
		return nil, fmt.Errorf("unexpected B-tree v2 type: %d (expected 10 or 11 for chunks)", header.Type)
	}

	index := &ChunkIndex{NDims: ndims}
	if header.TotalRecords == 0 {
		return index, nil
	}

	hasFilter := header.Type == BTreeV2TypeChunkWithFilter

	// Depth 0 means the root already holds leaf records.
	if header.Depth == 0 {
		index.Entries, err = readBTreeV2LeafRecords(r, header.RootAddr,
			int(header.NumRootRecords), ndims, hasFilter)
	} else {
		index.Entries, err = readBTreeV2InternalNode(r, header.RootAddr,
			int(header.NumRootRecords), header, ndims, int(header.Depth), hasFilter)
	}
	if err != nil {
		return nil, err
	}

	return index, nil
}

// readNodePrologue consumes a node's signature, version and record type
// byte. The record type is already validated against the header.
func readNodePrologue(nr *binary.Reader, sig, what string) error {
	got, err := nr.ReadBytes(4)
	if err != nil {
		return fmt.Errorf("reading %s signature: %w", what, err)
	}
	if string(got) != sig {
		return fmt.Errorf("invalid B-tree v2 %s signature: %q (expected %s)", what, string(got), sig)
	}

	version, err := nr.ReadUint8()
	if err != nil {
		return err
	}
	if version != 0 {
		return fmt.Errorf("unsupported B-tree v2 %s version: %d", what, version)
	}

	_, err = nr.ReadUint8()
	return err
}

// readBTreeV2Header decodes a BTHD block. The trailing checksum is not
// verified.
func readBTreeV2Header(r *binary.Reader, address uint64) (*btreeV2Header, error) {
	nr := r.At(int64(address))

	sig, err := nr.ReadBytes(4)
	if err != nil {
		return nil, fmt.Errorf("reading signature: %w", err)
	}
	if string(sig) != "BTHD" {
		return nil, fmt.Errorf("invalid B-tree v2 signature: %q (expected BTHD)", string(sig))
	}

	var h btreeV2Header
	read := func(f func() error) {
		if err == nil {
			err = f()
		}
	}
	read(func() (e error) { h.Version, e = nr.ReadUint8(); return })
	if err == nil && h.Version != 0 {
		return nil, fmt.Errorf("unsupported B-tree v2 version: %d", h.Version)
	}
	read(func() (e error) { h.Type, e = nr.ReadUint8(); return })
	read(func() (e error) { h.NodeSize, e = nr.ReadUint32(); return })
	read(func() (e error) { h.RecordSize, e = nr.ReadUint16(); return })
	read(func() (e error) { h.Depth, e = nr.ReadUint16(); return })
	read(func() (e error) { h.SplitPercent, e = nr.ReadUint8(); return })
	read(func() (e error) { h.MergePercent, e = nr.ReadUint8(); return })
	read(func() (e error) { h.RootAddr, e = nr.ReadOffset(); return })
	read(func() (e error) { h.NumRootRecords, e = nr.ReadUint16(); return })
	read(func() (e error) { h.TotalRecords, e = nr.ReadLength(); return })
	if err != nil {
		return nil, err
	}

	return &h, nil
}

// readBTreeV2LeafRecords decodes the chunk records of one BTLF node,
// dropping records whose address is zero or undefined.
func readBTreeV2LeafRecords(r *binary.Reader, address uint64, numRecords, ndims int, hasFilter bool) ([]ChunkEntry, error) {
	nr := r.At(int64(address))
	if err := readNodePrologue(nr, "BTLF", "leaf"); err != nil {
		return nil, err
	}

	entries := make([]ChunkEntry, 0, numRecords)
	for i := 0; i < numRecords; i++ {
		entry, err := readChunkRecord(nr, ndims, hasFilter)
		if err != nil {
			return nil, fmt.Errorf("reading record %d: %w", i, err)
		}
		if entry.Address != 0 && entry.Address != 0xFFFFFFFFFFFFFFFF {
			entries = append(entries, entry)
		}
	}

	return entries, nil
}

// readBTreeV2InternalNode walks a BTIN node. The layout interleaves n
// records with n+1 child pointers; since every record also appears in
// some leaf, record keys are skipped and only children are followed.
func readBTreeV2InternalNode(r *binary.Reader, address uint64, numRecords int,
	header *btreeV2Header, ndims int, depth int, hasFilter bool) ([]ChunkEntry, error) {

	nr := r.At(int64(address))
	if err := readNodePrologue(nr, "BTIN", "internal node"); err != nil {
		return nil, err
	}

	var entries []ChunkEntry
	for i := 0; i <= numRecords; i++ {
		// The final child pointer has no record before it.
		if i < numRecords {
			nr.Skip(int64(header.RecordSize))
		}

		childAddr, err := nr.ReadOffset()
		if err != nil {
			return nil, fmt.Errorf("reading child pointer %d: %w", i, err)
		}
		childNumRecords, err := nr.ReadUint16()
		if err != nil {
			return nil, fmt.Errorf("reading child record count %d: %w", i, err)
		}

		var childEntries []ChunkEntry
		if depth == 1 {
			childEntries, err = readBTreeV2LeafRecords(r, childAddr, int(childNumRecords), ndims, hasFilter)
		} else {
			childEntries, err = readBTreeV2InternalNode(r, childAddr, int(childNumRecords),
				header, ndims, depth-1, hasFilter)
		}
		if err != nil {
			return nil, fmt.Errorf("reading child node %d: %w", i, err)
		}
		entries = append(entries, childEntries...)
	}

	return entries, nil
}

// readChunkRecord decodes one record. Type 10 stores scaled offsets
// then the address; type 11 stores address, a length-prefixed chunk
// size, the filter mask, then the scaled offsets.
func readChunkRecord(nr *binary.Reader, ndims int, hasFilter bool) (ChunkEntry, error) {
	var entry ChunkEntry
	var err error

	readOffsets := func() error {
		entry.Offset = make([]uint64, ndims)
		for d := 0; d < ndims; d++ {
			if entry.Offset[d], err = nr.ReadUint64(); err != nil {
				return err
			}
		}
		return nil
	}

	if !hasFilter {
		if err = readOffsets(); err != nil {
			return entry, err
		}
		// Type 10 omits the size; zero tells the caller to derive it
		// from the chunk shape.
		entry.Address, err = nr.ReadOffset()
		return entry, err
	}

	if entry.Address, err = nr.ReadOffset(); err != nil {
		return entry, err
	}

	// One byte gives the size width, then little-endian value bytes.
	sizeWidth, err := nr.ReadUint8()
	if err != nil {
		return entry, err
	}
	if sizeWidth > 0 {
		size, err := nr.ReadUintN(int(sizeWidth))
		if err != nil {
			return entry, err
		}
		entry.Size = uint32(size)
	}

	if entry.FilterMask, err = nr.ReadUint32(); err != nil {
		return entry, err
	}
	if err = readOffsets(); err != nil {
		return entry, err
	}

	return entry, nil
}
