package layout

import (
	"fmt"

	"github.com/robert-malhotra/h5data/internal/binary"
	"github.com/robert-malhotra/h5data/internal/btree"
	"github.com/robert-malhotra/h5data/internal/filter"
	"github.com/robert-malhotra/h5data/internal/message"
)

// Layout reads dataset elements regardless of how they are stored on disk.
type Layout interface {
	// Read returns the whole dataset in row-major order.
	Read() ([]byte, error)

	// ReadSlice returns the bytes of a rectangular selection, row-major.
	// start holds per-dimension origins and count per-dimension extents.
	ReadSlice(start, count []uint64) ([]byte, error)

	// Class reports which storage class this handler decodes.
	Class() message.LayoutClass
}

// New picks the handler matching the layout message class.
func New(
	layout *message.DataLayout,
	dataspace *message.Dataspace,
	datatype *message.Datatype,
	filterPipeline *message.FilterPipeline,
	reader *binary.Reader,
) (Layout, error) {
	if layout == nil {
		return nil, fmt.Errorf("nil layout message")
	}

	switch layout.Class {
	case message.LayoutCompact:
		return NewCompact(layout, dataspace, datatype), nil

	case message.LayoutContiguous:
		return NewContiguous(layout, dataspace, datatype, reader), nil

	case message.LayoutChunked:
		return NewChunked(layout, dataspace, datatype, filterPipeline, reader)

	default:
		return nil, fmt.Errorf("unsupported layout class: %d", layout.Class)
	}
}

// calculateDataSize is the element count times the element width, in bytes.
func calculateDataSize(dataspace *message.Dataspace, datatype *message.Datatype) uint64 {
	if dataspace == nil || datatype == nil {
		return 0
	}
	return dataspace.NumElements() * uint64(datatype.Size)
}

func product(vals []uint64) uint64 {
	p := uint64(1)
	for _, v := range vals {
		p *= v
	}
	return p
}

func widenDims(dims []uint32) []uint64 {
	out := make([]uint64, len(dims))
	for i, d := range dims {
		out[i] = uint64(d)
	}
	return out
}

// rowMajorStrides gives per-dimension byte strides for a row-major
// buffer of the given shape.
func rowMajorStrides(shape []uint64, elementSize uint64) []uint64 {
	strides := make([]uint64, len(shape))
	strides[len(shape)-1] = elementSize
	for d := len(shape) - 2; d >= 0; d-- {
		strides[d] = strides[d+1] * shape[d+1]
	}
	return strides
}

// copyBox copies a rectangular region of the given extent between two
// row-major buffers, with independent origin coordinates on each side.
// Rows that would run past either buffer are dropped rather than
// partially copied; callers clip extents beforehand, so this only
// absorbs short chunk buffers.
func copyBox(dst, src []byte, dstOrigin, srcOrigin, extent, dstStrides, srcStrides []uint64) {
	var dstOff, srcOff uint64
	for d := range extent {
		dstOff += dstOrigin[d] * dstStrides[d]
		srcOff += srcOrigin[d] * srcStrides[d]
	}
	copyBoxRows(dst, src, dstOff, srcOff, extent, dstStrides, srcStrides, 0)
}

func copyBoxRows(dst, src []byte, dstOff, srcOff uint64, extent, dstStrides, srcStrides []uint64, dim int) {
	if dim == len(extent)-1 {
		// Innermost rows are contiguous on both sides.
		rowBytes := extent[dim] * srcStrides[dim]
		if srcOff+rowBytes <= uint64(len(src)) && dstOff+rowBytes <= uint64(len(dst)) {
			copy(dst[dstOff:dstOff+rowBytes], src[srcOff:srcOff+rowBytes])
		}
		return
	}
	for i := uint64(0); i < extent[dim]; i++ {
		copyBoxRows(dst, src,
			dstOff+i*dstStrides[dim], srcOff+i*srcStrides[dim],
			extent, dstStrides, srcStrides, dim+1)
	}
}

// validateSelection checks a hyperslab selection against the dataset
// extent.
func validateSelection(dims, start, count []uint64) error {
	if len(start) != len(dims) || len(count) != len(dims) {
		return fmt.Errorf("start and count must have %d dimensions, got %d and %d",
			len(dims), len(start), len(count))
	}
	for d := range dims {
		if start[d]+count[d] > dims[d] {
			return fmt.Errorf("slice out of bounds: dimension %d, start=%d, count=%d, size=%d",
				d, start[d], count[d], dims[d])
		}
	}
	return nil
}

// extractHyperslab pulls a rectangular selection out of a fully
// materialized row-major buffer. dims describes the whole dataset.
func extractHyperslab(data []byte, dims []uint64, start, count []uint64, elementSize uint64) ([]byte, error) {
	if len(dims) == 0 {
		return nil, fmt.Errorf("cannot extract hyperslab from scalar dataset")
	}

	result := make([]byte, product(count)*elementSize)
	copyBox(result, data,
		make([]uint64, len(dims)), start, count,
		rowMajorStrides(count, elementSize), rowMajorStrides(dims, elementSize))
	return result, nil
}

// Chunked decodes datasets whose raw data is split into fixed-size
// chunks located through one of the v4 chunk indexes or a v1 B-tree.
type Chunked struct {
	layout    *message.DataLayout
	dataspace *message.Dataspace
	datatype  *message.Datatype
	pipeline  *filter.Pipeline
	reader    *binary.Reader
}

// NewChunked builds a chunked handler, compiling the filter pipeline up front.
func NewChunked(
	layout *message.DataLayout,
	dataspace *message.Dataspace,
	datatype *message.Datatype,
	filterPipeline *message.FilterPipeline,
	reader *binary.Reader,
) (*Chunked, error) {
	var pipeline *filter.Pipeline
	var err error
	if filterPipeline != nil {
		pipeline, err = filter.NewPipeline(filterPipeline)
		if err != nil {
			return nil, fmt.Errorf("creating filter pipeline: %w", err)
		}
	}

	return &Chunked{
		layout:    layout,
		dataspace: dataspace,
		datatype:  datatype,
		pipeline:  pipeline,
		reader:    reader,
	}, nil
}

func (c *Chunked) Class() message.LayoutClass {
	return message.LayoutChunked
}

// chunkIndexKind identifies the structure that locates chunks on disk.
type chunkIndexKind int

const (
	indexSingle chunkIndexKind = iota
	indexImplicit
	indexBTreeV1
	indexFixedArray
	indexExtensibleArray
	indexBTreeV2
)

// indexKind resolves which chunk index to walk. v4 layout messages
// declare it; v3 messages only store an address, so the 4-byte
// signature behind it is the sole discriminator.
func (c *Chunked) indexKind() (chunkIndexKind, error) {
	if c.layout.Version == 4 {
		switch c.layout.ChunkIndexType {
		case message.ChunkIndexSingleChunk:
			return indexSingle, nil
		case message.ChunkIndexImplicit:
			return indexImplicit, nil
		case message.ChunkIndexFixedArray:
			return indexFixedArray, nil
		case message.ChunkIndexExtensibleArray:
			return indexExtensibleArray, nil
		case message.ChunkIndexBTreeV2:
			return indexBTreeV2, nil
		default:
			return 0, fmt.Errorf("unknown v4 chunk index type: %d", c.layout.ChunkIndexType)
		}
	}

	if c.layout.ChunkIndexAddr == 0 || c.layout.ChunkIndexAddr == 0xFFFFFFFFFFFFFFFF {
		return indexSingle, nil
	}

	sig, err := c.reader.At(int64(c.layout.ChunkIndexAddr)).ReadBytes(4)
	if err != nil {
		return indexSingle, nil
	}

	switch string(sig) {
	case "TREE":
		return indexBTreeV1, nil
	case "FARY", "FAHD":
		return indexFixedArray, nil
	case "EAHD":
		return indexExtensibleArray, nil
	case "BTHD":
		return indexBTreeV2, nil
	default:
		// No known signature means the address points at raw chunk bytes.
		return indexSingle, nil
	}
}

// geometry resolves the dataset extent, the chunk shape trimmed of its
// trailing element-size dimension, and the byte sizes derived from them.
func (c *Chunked) geometry() (dims []uint64, chunkDims []uint32, elementSize, chunkBytes uint64, err error) {
	dims = c.dataspace.Dimensions
	if len(dims) == 0 {
		// A chunked scalar is malformed but cheap to tolerate.
		dims = []uint64{1}
	}

	chunkDims = c.layout.ChunkDims
	if len(chunkDims) == 0 {
		return nil, nil, 0, 0, fmt.Errorf("chunked layout has no chunk dimensions")
	}
	if len(chunkDims) > len(dims) {
		chunkDims = chunkDims[:len(dims)]
	}

	elementSize = uint64(c.datatype.Size)
	chunkBytes = product(widenDims(chunkDims)) * elementSize
	return dims, chunkDims, elementSize, chunkBytes, nil
}

// loadEntries walks the resolved index structure and returns every
// allocated chunk.
func (c *Chunked) loadEntries(kind chunkIndexKind, dims []uint64, chunkDims []uint32) ([]btree.ChunkEntry, error) {
	switch kind {
	case indexBTreeV1:
		idx, err := btree.ReadChunkIndex(c.reader, c.layout.ChunkIndexAddr, len(dims))
		if err != nil {
			return nil, fmt.Errorf("reading chunk B-tree: %w", err)
		}
		return idx.Entries, nil

	case indexBTreeV2:
		idx, err := btree.ReadChunkIndexV2(c.reader, c.layout.ChunkIndexAddr, len(dims))
		if err != nil {
			return nil, fmt.Errorf("reading v2 chunk B-tree: %w", err)
		}
		return idx.Entries, nil

	case indexFixedArray:
		entries, err := c.readFixedArrayIndex(dims, chunkDims)
		if err != nil {
			return nil, fmt.Errorf("reading fixed array index: %w", err)
		}
		return entries, nil

	case indexExtensibleArray:
		entries, err := c.readExtensibleArrayIndex(dims, chunkDims)
		if err != nil {
			return nil, fmt.Errorf("reading extensible array index: %w", err)
		}
		return entries, nil

	default:
		return nil, fmt.Errorf("chunk index kind %d has no entry list", kind)
	}
}

func (c *Chunked) Read() ([]byte, error) {
	dims, chunkDims, elementSize, chunkBytes, err := c.geometry()
	if err != nil {
		return nil, err
	}

	totalSize := calculateDataSize(c.dataspace, c.datatype)
	if totalSize == 0 {
		return nil, nil
	}

	kind, err := c.indexKind()
	if err != nil {
		return nil, err
	}

	switch kind {
	case indexSingle:
		return c.readSingleChunk(totalSize)
	case indexImplicit:
		return c.readImplicitChunks(dims, chunkDims, elementSize, chunkBytes)
	}

	entries, err := c.loadEntries(kind, dims, chunkDims)
	if err != nil {
		return nil, err
	}

	output := make([]byte, totalSize)
	if err := c.assembleChunks(entries, dims, chunkDims, elementSize, chunkBytes, output); err != nil {
		return nil, err
	}
	return output, nil
}

// readSingleChunk handles the degenerate index where the whole dataset
// lives in one chunk at the index address.
func (c *Chunked) readSingleChunk(totalSize uint64) ([]byte, error) {
	data, err := c.reader.At(int64(c.layout.ChunkIndexAddr)).ReadBytes(int(totalSize))
	if err != nil {
		return nil, fmt.Errorf("reading single chunk: %w", err)
	}
	return c.unfilter(data, 0)
}

// unfilter runs the compiled pipeline backwards over stored chunk
// bytes. A nil or empty pipeline passes the data through.
func (c *Chunked) unfilter(data []byte, filterMask uint32) ([]byte, error) {
	if c.pipeline == nil || c.pipeline.Empty() {
		return data, nil
	}
	out, err := c.pipeline.Decode(data, filterMask)
	if err != nil {
		return nil, fmt.Errorf("unfiltering chunk: %w", err)
	}
	return out, nil
}

// chunkCounts gives the number of chunks along each dimension.
func chunkCounts(dims []uint64, chunkDims []uint32) []uint64 {
	counts := make([]uint64, len(dims))
	for d := range dims {
		counts[d] = (dims[d] + uint64(chunkDims[d]) - 1) / uint64(chunkDims[d])
	}
	return counts
}

// chunkCoords maps a linear chunk number back to the chunk's origin in
// dataset coordinates.
func chunkCoords(linear uint64, counts []uint64, chunkDims []uint32) []uint64 {
	offset := make([]uint64, len(counts))
	for d := len(counts) - 1; d >= 0; d-- {
		offset[d] = (linear % counts[d]) * uint64(chunkDims[d])
		linear /= counts[d]
	}
	return offset
}

// clipExtent is the chunk shape reduced where the chunk overhangs the
// dataset edge.
func clipExtent(chunkOffset, dims []uint64, chunkDims []uint32) []uint64 {
	extent := make([]uint64, len(dims))
	for d := range dims {
		extent[d] = uint64(chunkDims[d])
		if chunkOffset[d]+extent[d] > dims[d] {
			extent[d] = dims[d] - chunkOffset[d]
		}
	}
	return extent
}

// readImplicitChunks decodes the implicit index, where full-size chunks
// sit back to back in row-major order with no lookup structure.
func (c *Chunked) readImplicitChunks(dims []uint64, chunkDims []uint32, elementSize, chunkBytes uint64) ([]byte, error) {
	totalSize := calculateDataSize(c.dataspace, c.datatype)
	output := make([]byte, totalSize)

	counts := chunkCounts(dims, chunkDims)
	if product(counts) == 1 && totalSize < chunkBytes {
		// A lone chunk may be stored unpadded when the dataset is
		// smaller than the chunk shape.
		chunkBytes = totalSize
	}
	outStrides := rowMajorStrides(dims, elementSize)
	chunkStrides := rowMajorStrides(widenDims(chunkDims), elementSize)
	nr := c.reader.At(int64(c.layout.ChunkIndexAddr))

	for n := uint64(0); n < product(counts); n++ {
		chunkData, err := nr.ReadBytes(int(chunkBytes))
		if err != nil {
			return nil, fmt.Errorf("reading implicit chunk %d: %w", n, err)
		}
		chunkData, err = c.unfilter(chunkData, 0)
		if err != nil {
			return nil, fmt.Errorf("implicit chunk %d: %w", n, err)
		}

		origin := chunkCoords(n, counts, chunkDims)
		copyBox(output, chunkData,
			origin, make([]uint64, len(dims)), clipExtent(origin, dims, chunkDims),
			outStrides, chunkStrides)
	}

	return output, nil
}

// loadChunk fetches and unfilters one indexed chunk. Entries without a
// stored size (v2 B-tree type 10) fall back to the full chunk size.
func (c *Chunked) loadChunk(entry btree.ChunkEntry, chunkBytes uint64) ([]byte, error) {
	if entry.Size == 0 {
		entry.Size = uint32(chunkBytes)
	}

	data, err := c.reader.At(int64(entry.Address)).ReadBytes(int(entry.Size))
	if err != nil {
		return nil, fmt.Errorf("reading chunk at offset %v: %w", entry.Offset, err)
	}

	data, err = c.unfilter(data, entry.FilterMask)
	if err != nil {
		return nil, fmt.Errorf("chunk at offset %v: %w", entry.Offset, err)
	}
	return data, nil
}

// assembleChunks unfilters every allocated chunk and places it at its
// coordinates in the full dataset buffer. Unallocated regions keep
// their fill bytes.
func (c *Chunked) assembleChunks(entries []btree.ChunkEntry, dims []uint64, chunkDims []uint32, elementSize, chunkBytes uint64, output []byte) error {
	outStrides := rowMajorStrides(dims, elementSize)
	chunkStrides := rowMajorStrides(widenDims(chunkDims), elementSize)
	zero := make([]uint64, len(dims))

	for _, entry := range entries {
		if entry.Address == 0 || entry.Address == 0xFFFFFFFFFFFFFFFF {
			continue
		}

		chunkData, err := c.loadChunk(entry, chunkBytes)
		if err != nil {
			return err
		}

		copyBox(output, chunkData,
			entry.Offset, zero, clipExtent(entry.Offset, dims, chunkDims),
			outStrides, chunkStrides)
	}

	return nil
}

// ReadSlice reads a rectangular selection by touching only the chunks
// that intersect it.
func (c *Chunked) ReadSlice(start, count []uint64) ([]byte, error) {
	dims, chunkDims, elementSize, chunkBytes, err := c.geometry()
	if err != nil {
		return nil, err
	}

	ndims := len(dims)
	if err := validateSelection(dims, start, count); err != nil {
		return nil, err
	}

	kind, err := c.indexKind()
	if err != nil {
		return nil, err
	}

	// Indexes without per-chunk addressing are materialized whole, then
	// the selection is carved out.
	switch kind {
	case indexSingle:
		data, err := c.readSingleChunk(calculateDataSize(c.dataspace, c.datatype))
		if err != nil {
			return nil, err
		}
		return extractHyperslab(data, dims, start, count, elementSize)

	case indexImplicit:
		data, err := c.readImplicitChunks(dims, chunkDims, elementSize, chunkBytes)
		if err != nil {
			return nil, err
		}
		return extractHyperslab(data, dims, start, count, elementSize)
	}

	entries, err := c.loadEntries(kind, dims, chunkDims)
	if err != nil {
		return nil, err
	}

	output := make([]byte, product(count)*elementSize)
	outStrides := rowMajorStrides(count, elementSize)
	chunkStrides := rowMajorStrides(widenDims(chunkDims), elementSize)

	for _, entry := range entries {
		if entry.Address == 0 || entry.Address == 0xFFFFFFFFFFFFFFFF {
			continue
		}

		// Overlap box in dataset coordinates: max of the starts, min of
		// the clipped ends, per dimension.
		overlapOrigin := make([]uint64, ndims)
		overlapExtent := make([]uint64, ndims)
		chunkExtent := clipExtent(entry.Offset, dims, chunkDims)
		overlaps := true
		for d := 0; d < ndims; d++ {
			lo := start[d]
			if entry.Offset[d] > lo {
				lo = entry.Offset[d]
			}
			hi := start[d] + count[d]
			if end := entry.Offset[d] + chunkExtent[d]; end < hi {
				hi = end
			}
			if hi <= lo {
				overlaps = false
				break
			}
			overlapOrigin[d] = lo
			overlapExtent[d] = hi - lo
		}
		if !overlaps {
			continue
		}

		chunkData, err := c.loadChunk(entry, chunkBytes)
		if err != nil {
			return nil, err
		}

		// Translate the overlap origin into selection-local and
		// chunk-local coordinates.
		dstOrigin := make([]uint64, ndims)
		srcOrigin := make([]uint64, ndims)
		for d := 0; d < ndims; d++ {
			dstOrigin[d] = overlapOrigin[d] - start[d]
			srcOrigin[d] = overlapOrigin[d] - entry.Offset[d]
		}
		copyBox(output, chunkData, dstOrigin, srcOrigin, overlapExtent, outStrides, chunkStrides)
	}

	return output, nil
}

// readFixedArrayIndex parses the FAHD header and follows it into the
// single data block that holds the chunk entries.
func (c *Chunked) readFixedArrayIndex(dims []uint64, chunkDims []uint32) ([]btree.ChunkEntry, error) {
	nr := c.reader.At(int64(c.layout.ChunkIndexAddr))

	sig, err := nr.ReadBytes(4)
	if err != nil {
		return nil, fmt.Errorf("reading fixed array signature: %w", err)
	}
	if string(sig) != "FAHD" {
		return nil, fmt.Errorf("invalid fixed array signature: got %q, expected \"FAHD\"", string(sig))
	}

	version, err := nr.ReadUint8()
	if err != nil {
		return nil, err
	}
	if version != 0 {
		return nil, fmt.Errorf("unsupported fixed array version: %d", version)
	}

	// Client ID (always 0 for chunk indexes), entry size, page bits.
	var clientID, entrySize, pageBits uint8
	for _, dst := range []*uint8{&clientID, &entrySize, &pageBits} {
		if *dst, err = nr.ReadUint8(); err != nil {
			return nil, err
		}
	}

	numEntries, err := nr.ReadLength()
	if err != nil {
		return nil, err
	}
	blockAddr, err := nr.ReadOffset()
	if err != nil {
		return nil, err
	}

	return c.readFixedArrayDataBlock(blockAddr, int(numEntries), int(entrySize), dims, chunkDims)
}

// readFixedArrayDataBlock decodes FADB chunk entries. Paged data blocks
// are not handled; small arrays store entries inline after the header
// back-pointer.
func (c *Chunked) readFixedArrayDataBlock(addr uint64, numEntries, entrySize int, dims []uint64, chunkDims []uint32) ([]btree.ChunkEntry, error) {
	nr := c.reader.At(int64(addr))

	sig, err := nr.ReadBytes(4)
	if err != nil {
		return nil, fmt.Errorf("reading fixed array data block signature: %w", err)
	}
	if string(sig) != "FADB" {
		return nil, fmt.Errorf("invalid fixed array data block signature: got %q, expected \"FADB\"", string(sig))
	}

	// Version, client ID, then the back-pointer to the array header.
	if _, err = nr.ReadUint8(); err != nil {
		return nil, err
	}
	if _, err = nr.ReadUint8(); err != nil {
		return nil, err
	}
	if _, err = nr.ReadOffset(); err != nil {
		return nil, err
	}

	counts := chunkCounts(dims, chunkDims)
	fullChunk := uint32(product(widenDims(chunkDims))) * c.datatype.Size

	var entries []btree.ChunkEntry
	for n := 0; n < numEntries; n++ {
		addr, err := nr.ReadOffset()
		if err != nil {
			return nil, fmt.Errorf("reading chunk address: %w", err)
		}

		size := fullChunk
		var mask uint32
		if entrySize > 8 {
			// Filtered entries: the stored size fills whatever bytes sit
			// between the address and the 4-byte filter mask.
			sizeWidth := entrySize - c.reader.OffsetSize() - 4
			if sizeWidth > 0 {
				raw, err := nr.ReadBytes(sizeWidth)
				if err != nil {
					return nil, fmt.Errorf("reading chunk size: %w", err)
				}
				size = 0
				for j, b := range raw {
					size |= uint32(b) << (8 * j)
				}
			}
			if mask, err = nr.ReadUint32(); err != nil {
				return nil, fmt.Errorf("reading filter mask: %w", err)
			}
		}

		if addr != 0 && addr != 0xFFFFFFFFFFFFFFFF {
			entries = append(entries, btree.ChunkEntry{
				Offset:     chunkCoords(uint64(n), counts, chunkDims),
				FilterMask: mask,
				Size:       size,
				Address:    addr,
			})
		}
	}

	return entries, nil
}

// readExtensibleArrayIndex parses the EAHD header. Only the element
// size, index-block capacity, counters and index block address feed the
// decode; the remaining header fields are consumed and ignored.
func (c *Chunked) readExtensibleArrayIndex(dims []uint64, chunkDims []uint32) ([]btree.ChunkEntry, error) {
	nr := c.reader.At(int64(c.layout.ChunkIndexAddr))

	sig, err := nr.ReadBytes(4)
	if err != nil {
		return nil, fmt.Errorf("reading extensible array signature: %w", err)
	}
	if string(sig) != "EAHD" {
		return nil, fmt.Errorf("invalid extensible array signature: got %q, expected \"EAHD\"", string(sig))
	}

	version, err := nr.ReadUint8()
	if err != nil {
		return nil, err
	}
	if version != 0 {
		return nil, fmt.Errorf("unsupported extensible array version: %d", version)
	}

	// Client ID, element size, max element count bits, index block
	// capacity bits, then three more geometry bytes that are not needed.
	var clientID, elemSize, maxBits, idxBlkElmts uint8
	for _, dst := range []*uint8{&clientID, &elemSize, &maxBits, &idxBlkElmts} {
		if *dst, err = nr.ReadUint8(); err != nil {
			return nil, err
		}
	}
	for i := 0; i < 3; i++ {
		if _, err = nr.ReadUint8(); err != nil {
			return nil, err
		}
	}

	// Secondary block count and size, data block count and size. Four
	// length-sized fields.
	for i := 0; i < 4; i++ {
		if _, err = nr.ReadLength(); err != nil {
			return nil, err
		}
	}

	if _, err = nr.ReadLength(); err != nil { // max index used
		return nil, err
	}
	numElements, err := nr.ReadLength()
	if err != nil {
		return nil, err
	}
	idxBlockAddr, err := nr.ReadOffset()
	if err != nil {
		return nil, err
	}

	return c.readExtensibleArrayIndexBlock(idxBlockAddr, int(idxBlkElmts), int(elemSize), int(numElements), dims, chunkDims)
}

// readExtensibleArrayIndexBlock decodes EAIB entries stored directly in
// the index block. Overflow into secondary data blocks is unsupported.
func (c *Chunked) readExtensibleArrayIndexBlock(addr uint64, idxBlkElmts, elemSize, numElements int, dims []uint64, chunkDims []uint32) ([]btree.ChunkEntry, error) {
	nr := c.reader.At(int64(addr))

	sig, err := nr.ReadBytes(4)
	if err != nil {
		return nil, fmt.Errorf("reading extensible array index block signature: %w", err)
	}
	if string(sig) != "EAIB" {
		return nil, fmt.Errorf("invalid extensible array index block signature: got %q, expected \"EAIB\"", string(sig))
	}

	// Version, client ID, back-pointer to the array header.
	if _, err = nr.ReadUint8(); err != nil {
		return nil, err
	}
	if _, err = nr.ReadUint8(); err != nil {
		return nil, err
	}
	if _, err = nr.ReadOffset(); err != nil {
		return nil, err
	}

	capacity := 1 << idxBlkElmts
	if numElements > capacity {
		return nil, fmt.Errorf("extensible array has %d elements but only %d fit in index block; data block reading not yet implemented", numElements, capacity)
	}
	capacity = numElements

	counts := chunkCounts(dims, chunkDims)
	fullChunk := uint32(product(widenDims(chunkDims))) * c.datatype.Size

	var entries []btree.ChunkEntry
	for n := 0; n < capacity; n++ {
		addr, err := nr.ReadOffset()
		if err != nil {
			return nil, err
		}

		size := fullChunk
		var mask uint32
		if elemSize > 8 {
			// Filtered entries carry a 4-byte size and 4-byte mask after
			// the address, as far as the element width allows.
			remaining := elemSize - c.reader.OffsetSize()
			if remaining >= 4 {
				if size, err = nr.ReadUint32(); err != nil {
					return nil, err
				}
				remaining -= 4
			}
			if remaining >= 4 {
				if mask, err = nr.ReadUint32(); err != nil {
					return nil, err
				}
			}
		}

		if addr != 0 && addr != 0xFFFFFFFFFFFFFFFF {
			entries = append(entries, btree.ChunkEntry{
				Offset:     chunkCoords(uint64(n), counts, chunkDims),
				FilterMask: mask,
				Size:       size,
				Address:    addr,
			})
		}
	}

	return entries, nil
}
