package layout

import (
	"github.com/robert-malhotra/h5data/internal/binary"
)

// ChunkWriter emits chunked dataset raw data together with the index
// structure that locates it.
type ChunkWriter struct {
	w           *binary.Writer
	chunkDims   []uint32
	elementSize uint32
	filterMask  uint32 // 0 means every filter was applied
	allocator   func(size int64) uint64
}

// NewChunkWriter builds a writer that places chunks via the allocator.
func NewChunkWriter(w *binary.Writer, chunkDims []uint32, elementSize uint32, allocator func(size int64) uint64) *ChunkWriter {
	return &ChunkWriter{
		w:           w,
		chunkDims:   chunkDims,
		elementSize: elementSize,
		filterMask:  0,
		allocator:   allocator,
	}
}

// ChunkSize is the uncompressed byte size of one full chunk.
func (cw *ChunkWriter) ChunkSize() uint64 {
	return product(widenDims(cw.chunkDims)) * uint64(cw.elementSize)
}

// put writes a finished block at a pre-allocated address.
func (cw *ChunkWriter) put(addr uint64, data []byte) error {
	return cw.w.At(int64(addr)).WriteBytes(data)
}

// blockBuilder accumulates an index structure in memory, since the
// trailing lookup3 checksum has to cover the assembled bytes.
type blockBuilder struct {
	buf []byte
}

func (b *blockBuilder) raw(p []byte) {
	b.buf = append(b.buf, p...)
}

func (b *blockBuilder) u8(v uint8) {
	b.buf = append(b.buf, v)
}

// uintN appends v little-endian in n bytes.
func (b *blockBuilder) uintN(v uint64, n int) {
	for i := 0; i < n; i++ {
		b.buf = append(b.buf, byte(v>>(8*i)))
	}
}

// seal appends the checksum of everything appended so far and returns
// the finished block.
func (b *blockBuilder) seal() []byte {
	sum := binary.Lookup3Checksum(b.buf)
	b.uintN(uint64(sum), 4)
	return b.buf
}

// WriteSingleChunk allocates and writes one chunk, returning its address.
func (cw *ChunkWriter) WriteSingleChunk(data []byte) (uint64, error) {
	addr := cw.allocator(int64(len(data)))
	if err := cw.put(addr, data); err != nil {
		return 0, err
	}
	return addr, nil
}

// WriteChunks writes each chunk in order and returns their addresses.
func (cw *ChunkWriter) WriteChunks(chunks [][]byte) ([]uint64, error) {
	addrs := make([]uint64, len(chunks))
	for i, chunk := range chunks {
		addr, err := cw.WriteSingleChunk(chunk)
		if err != nil {
			return nil, err
		}
		addrs[i] = addr
	}
	return addrs, nil
}

// WriteSingleChunkIndex emits the single-chunk index, which for an
// unfiltered chunk is nothing more than the chunk address.
func (cw *ChunkWriter) WriteSingleChunkIndex(chunkAddr uint64, chunkSize uint32) (uint64, error) {
	indexAddr := cw.allocator(int64(cw.w.OffsetSize()))

	if err := cw.w.At(int64(indexAddr)).WriteOffset(chunkAddr); err != nil {
		return 0, err
	}
	return indexAddr, nil
}

// WriteFixedArrayIndex emits an FAHD header plus its FADB data block
// listing each chunk address in storage order. The header and the
// block point at each other, so both addresses are allocated before
// either block is assembled.
func (cw *ChunkWriter) WriteFixedArrayIndex(chunkAddrs []uint64, chunkSizes []uint32) (uint64, error) {
	numChunks := len(chunkAddrs)
	if numChunks == 0 {
		return 0, nil
	}

	offsetSize := cw.w.OffsetSize()
	lengthSize := cw.w.LengthSize()

	// Unfiltered entries hold only an address.
	entrySize := offsetSize

	pageBits := uint8(10)
	if numChunks > 1024 {
		pageBits = 12
	}

	// Signature, version, client ID, entry size, page bits, then max
	// entries, data block address and checksum.
	headerAddr := cw.allocator(int64(8 + lengthSize + offsetSize + 4))
	blockAddr := cw.allocator(int64(6 + offsetSize + numChunks*entrySize + 4))

	var block blockBuilder
	block.raw([]byte("FADB"))
	block.u8(0) // version
	block.u8(0) // client ID, 0 for unfiltered chunks
	block.uintN(headerAddr, offsetSize)
	for _, addr := range chunkAddrs {
		block.uintN(addr, offsetSize)
	}
	if err := cw.put(blockAddr, block.seal()); err != nil {
		return 0, err
	}

	var hdr blockBuilder
	hdr.raw([]byte("FAHD"))
	hdr.u8(0)
	hdr.u8(0)
	hdr.u8(uint8(entrySize))
	hdr.u8(pageBits)
	hdr.uintN(uint64(numChunks), lengthSize)
	hdr.uintN(blockAddr, offsetSize)
	if err := cw.put(headerAddr, hdr.seal()); err != nil {
		return 0, err
	}

	return headerAddr, nil
}

// WriteExtensibleArrayIndex emits an EAHD header plus an EAIB index
// block sized so every chunk address fits directly in the index block,
// avoiding secondary data blocks entirely.
func (cw *ChunkWriter) WriteExtensibleArrayIndex(chunkAddrs []uint64) (uint64, error) {
	numChunks := len(chunkAddrs)
	if numChunks == 0 {
		return 0, nil
	}

	offsetSize := cw.w.OffsetSize()
	lengthSize := cw.w.LengthSize()
	elemSize := offsetSize

	// Index block capacity: next power of two covering every chunk,
	// with a floor of 4 entries.
	idxBlkBits := uint8(2)
	for (1 << idxBlkBits) < numChunks {
		idxBlkBits++
	}
	maxElmtsBits := idxBlkBits
	if maxElmtsBits < 4 {
		maxElmtsBits = 4
	}
	capacity := 1 << idxBlkBits

	idxBlockAddr := cw.allocator(int64(6 + offsetSize + capacity*elemSize + 4))
	headerAddr := cw.allocator(int64(12 + 6*lengthSize + offsetSize + 4))

	var block blockBuilder
	block.raw([]byte("EAIB"))
	block.u8(0) // version
	block.u8(0) // client ID, 0 for unfiltered chunks
	block.uintN(headerAddr, offsetSize)
	for _, addr := range chunkAddrs {
		block.uintN(addr, elemSize)
	}
	for i := numChunks; i < capacity; i++ {
		// Unused capacity reads as undefined addresses.
		block.uintN(0xFFFFFFFFFFFFFFFF, elemSize)
	}
	if err := cw.put(idxBlockAddr, block.seal()); err != nil {
		return 0, err
	}

	var hdr blockBuilder
	hdr.raw([]byte("EAHD"))
	hdr.u8(0)
	hdr.u8(0)
	hdr.u8(uint8(elemSize))
	hdr.u8(maxElmtsBits)
	hdr.u8(idxBlkBits)
	hdr.u8(1) // data block min elements
	hdr.u8(0) // super block min data blocks
	hdr.u8(0) // data block page max bits
	for i := 0; i < 4; i++ {
		// Secondary block count and size, data block count and size.
		// All zero since everything lives in the index block.
		hdr.uintN(0, lengthSize)
	}
	hdr.uintN(uint64(numChunks-1), lengthSize) // max index set
	hdr.uintN(uint64(numChunks), lengthSize)
	hdr.uintN(idxBlockAddr, offsetSize)
	if err := cw.put(headerAddr, hdr.seal()); err != nil {
		return 0, err
	}

	return headerAddr, nil
}

// SplitIntoChunks carves a row-major buffer into full-size chunk
// buffers in row-major chunk order. Chunks overhanging the dataset
// edge are zero padded to the full chunk size.
func SplitIntoChunks(data []byte, dataDims []uint64, chunkDims []uint32, elementSize uint32) [][]byte {
	elemSize := uint64(elementSize)
	counts := chunkCounts(dataDims, chunkDims)
	srcStrides := rowMajorStrides(dataDims, elemSize)
	chunkStrides := rowMajorStrides(widenDims(chunkDims), elemSize)
	chunkBytes := product(widenDims(chunkDims)) * elemSize
	zero := make([]uint64, len(dataDims))

	chunks := make([][]byte, 0, product(counts))
	for n := uint64(0); n < product(counts); n++ {
		origin := chunkCoords(n, counts, chunkDims)
		buf := make([]byte, chunkBytes)
		copyBox(buf, data, zero, origin, clipExtent(origin, dataDims, chunkDims), chunkStrides, srcStrides)
		chunks = append(chunks, buf)
	}
	return chunks
}
