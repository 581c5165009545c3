package message

import (
	"github.com/robert-malhotra/h5data/internal/binary"
)

// Serialize emits the layout message. Chunked layouts go out at version
// 4, which carries an explicit chunk index type; the other classes use
// version 3.
func (m *DataLayout) Serialize(w *binary.Writer) error {
	version := m.Version
	if version == 0 {
		version = 3
		if m.Class == LayoutChunked {
			version = 4
		}
	}

	mw := &msgWriter{w: w}
	mw.u8(version)
	mw.u8(uint8(m.Class))

	switch m.Class {
	case LayoutCompact:
		mw.u16(uint16(len(m.CompactData)))
		mw.bytes(m.CompactData)

	case LayoutContiguous:
		mw.offset(m.Address)
		mw.length(m.Size)

	case LayoutChunked:
		dimSizeBytes := m.DimensionSizeBytes
		if dimSizeBytes == 0 {
			dimSizeBytes = 4
		}

		mw.u8(0) // flags
		// ChunkDims already carries the element size as its final entry.
		mw.u8(uint8(len(m.ChunkDims)))
		mw.u8(dimSizeBytes)
		for _, dim := range m.ChunkDims {
			mw.uintN(uint64(dim), int(dimSizeBytes))
		}
		mw.u8(uint8(m.ChunkIndexType))

		// Fixed and extensible array indexes insert one parameter byte
		// before the address. The value must agree with what the index
		// writer emits in its own header.
		switch m.ChunkIndexType {
		case ChunkIndexFixedArray:
			mw.u8(10) // page bits
		case ChunkIndexExtensibleArray:
			mw.u8(10) // max bits
		}
		mw.offset(m.ChunkIndexAddr)
	}

	return mw.err
}

// SerializedSize is the byte count Serialize will produce.
func (m *DataLayout) SerializedSize(w *binary.Writer) int {
	size := 2

	switch m.Class {
	case LayoutCompact:
		size += 2 + len(m.CompactData)

	case LayoutContiguous:
		size += w.OffsetSize() + w.LengthSize()

	case LayoutChunked:
		dimSizeBytes := int(m.DimensionSizeBytes)
		if dimSizeBytes == 0 {
			dimSizeBytes = 4
		}
		// Flags, dimension count, dimension width, dims, index type.
		size += 3 + len(m.ChunkDims)*dimSizeBytes + 1
		if m.ChunkIndexType == ChunkIndexFixedArray || m.ChunkIndexType == ChunkIndexExtensibleArray {
			size++
		}
		size += w.OffsetSize()
	}

	return size
}

// NewCompactLayout builds a layout carrying the value inline.
func NewCompactLayout(data []byte) *DataLayout {
	return &DataLayout{
		Version:     3,
		Class:       LayoutCompact,
		CompactData: data,
	}
}

// NewContiguousLayout builds a layout for one run of size bytes at
// address.
func NewContiguousLayout(address, size uint64) *DataLayout {
	return &DataLayout{
		Version: 3,
		Class:   LayoutContiguous,
		Address: address,
		Size:    size,
	}
}

// NewChunkedLayout builds a version 4 chunked layout. chunkDims is the
// dataset-facing chunk shape; the on-disk encoding appends the element
// size as one extra dimension, which this constructor does. The caller
// fills ChunkIndexAddr once the index is written.
func NewChunkedLayout(chunkDims []uint32, elementSize uint32, indexType ChunkIndexType) *DataLayout {
	allDims := make([]uint32, len(chunkDims)+1)
	copy(allDims, chunkDims)
	allDims[len(chunkDims)] = elementSize

	// The narrowest dimension width that fits every entry.
	var dimSizeBytes uint8 = 1
	for _, d := range allDims {
		for dimSizeBytes < 4 && d >= 1<<(8*dimSizeBytes) {
			dimSizeBytes *= 2
		}
	}

	return &DataLayout{
		Version:            4,
		Class:              LayoutChunked,
		ChunkDims:          allDims,
		ChunkIndexType:     indexType,
		DimensionSizeBytes: dimSizeBytes,
	}
}
