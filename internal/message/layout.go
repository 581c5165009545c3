package message

import (
	"fmt"

	binpkg "github.com/robert-malhotra/h5data/internal/binary"
)

// LayoutClass names how a dataset's raw bytes are stored.
type LayoutClass uint8

const (
	LayoutCompact    LayoutClass = 0 // inline in the object header
	LayoutContiguous LayoutClass = 1 // one run of bytes in the file
	LayoutChunked    LayoutClass = 2 // indexed fixed-size chunks
	LayoutVirtual    LayoutClass = 3 // mapped from other datasets, v4 only
)

// ChunkIndexType names the index structure locating chunks in v4 layouts.
type ChunkIndexType uint8

const (
	ChunkIndexSingleChunk     ChunkIndexType = 0
	ChunkIndexImplicit        ChunkIndexType = 1
	ChunkIndexFixedArray      ChunkIndexType = 2
	ChunkIndexExtensibleArray ChunkIndexType = 3
	ChunkIndexBTreeV2         ChunkIndexType = 4
)

// DataLayout is the data layout message (type 0x0008). The populated
// fields depend on Class.
type DataLayout struct {
	Version uint8
	Class   LayoutClass

	// Compact storage carries the value bytes in the message itself.
	CompactData []byte

	// Contiguous storage is one addressed run of Size bytes.
	Address uint64
	Size    uint64

	// Chunked storage records the chunk shape and the address of
	// whichever index structure locates the chunks.
	ChunkDims      []uint32
	ChunkIndexAddr uint64
	ChunkIndexType ChunkIndexType

	ChunkFlags         uint8
	DimensionSizeBytes uint8

	FilteredChunkSize uint32
}

func (m *DataLayout) Type() Type { return TypeDataLayout }

func (m *DataLayout) IsCompact() bool    { return m.Class == LayoutCompact }
func (m *DataLayout) IsContiguous() bool { return m.Class == LayoutContiguous }
func (m *DataLayout) IsChunked() bool    { return m.Class == LayoutChunked }

// fieldCursor walks fixed-width fields through a message body.
type fieldCursor struct {
	data []byte
	pos  int
	r    *binpkg.Reader
}

func (c *fieldCursor) remaining() int { return len(c.data) - c.pos }

// uint consumes an n-byte unsigned field, or fails with a message
// naming the field.
func (c *fieldCursor) uint(n int, what string) (uint64, error) {
	if c.remaining() < n {
		return 0, fmt.Errorf("%s truncated", what)
	}
	v := decodeUint(c.data[c.pos:], n, c.r.ByteOrder())
	c.pos += n
	return v, nil
}

func (c *fieldCursor) bytes(n int, what string) ([]byte, error) {
	if c.remaining() < n {
		return nil, fmt.Errorf("%s truncated", what)
	}
	b := c.data[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

func parseDataLayout(data []byte, r *binpkg.Reader) (*DataLayout, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("data layout message too short")
	}

	layout := &DataLayout{Version: data[0]}
	c := &fieldCursor{data: data, pos: 1, r: r}

	switch layout.Version {
	case 1, 2:
		return parseDataLayoutV1V2(c, layout)
	case 3, 4:
		// v4 adds virtual storage on top of v3; the non-virtual
		// classes share the v3 encoding.
		return parseDataLayoutV3(c, layout)
	default:
		return nil, fmt.Errorf("unsupported data layout version: %d", layout.Version)
	}
}

// parseContiguous fills Address and Size from an offset-sized and a
// length-sized field.
func parseContiguous(c *fieldCursor, layout *DataLayout) (err error) {
	if layout.Address, err = c.uint(c.r.OffsetSize(), "contiguous layout"); err != nil {
		return err
	}
	layout.Size, err = c.uint(c.r.LengthSize(), "contiguous layout")
	return err
}

// parseCompact reads a size field of the given width followed by that
// many inline value bytes.
func parseCompact(c *fieldCursor, sizeWidth int, layout *DataLayout) error {
	size, err := c.uint(sizeWidth, "compact layout")
	if err != nil {
		return err
	}
	raw, err := c.bytes(int(size), "compact data")
	if err != nil {
		return err
	}
	layout.CompactData = append([]byte(nil), raw...)
	return nil
}

func parseDataLayoutV1V2(c *fieldCursor, layout *DataLayout) (*DataLayout, error) {
	// Dimensionality, class, then a reserved word.
	head, err := c.bytes(3, "data layout v1/v2 message")
	if err != nil {
		return nil, err
	}
	ndims := int(head[0])
	layout.Class = LayoutClass(head[1])

	switch layout.Class {
	case LayoutCompact:
		if err := parseCompact(c, 4, layout); err != nil {
			return nil, err
		}

	case LayoutContiguous:
		if err := parseContiguous(c, layout); err != nil {
			return nil, err
		}

	case LayoutChunked:
		if layout.ChunkIndexAddr, err = c.uint(c.r.OffsetSize(), "chunked layout"); err != nil {
			return nil, err
		}
		// Chunk dimensions are fixed 4-byte fields in v1/v2.
		layout.ChunkDims = make([]uint32, ndims)
		for i := 0; i < ndims && c.remaining() >= 4; i++ {
			d, _ := c.uint(4, "chunk dims")
			layout.ChunkDims[i] = uint32(d)
		}
	}
	return layout, nil
}

func parseDataLayoutV3(c *fieldCursor, layout *DataLayout) (*DataLayout, error) {
	cls, err := c.uint(1, "data layout v3 message")
	if err != nil {
		return nil, err
	}
	layout.Class = LayoutClass(cls)

	switch layout.Class {
	case LayoutCompact:
		// Compact size shrinks to 2 bytes from v3 on.
		if err := parseCompact(c, 2, layout); err != nil {
			return nil, err
		}

	case LayoutContiguous:
		if err := parseContiguous(c, layout); err != nil {
			return nil, err
		}

	case LayoutChunked:
		head, err := c.bytes(3, "chunked layout v3")
		if err != nil {
			return nil, err
		}
		layout.ChunkFlags = head[0]
		layout.ChunkIndexType = ChunkIndexType(layout.ChunkFlags & 0x0F)
		ndims := int(head[1])
		layout.DimensionSizeBytes = head[2]

		dimSize := int(layout.DimensionSizeBytes)
		layout.ChunkDims = make([]uint32, ndims)
		for i := 0; i < ndims && c.remaining() >= dimSize; i++ {
			d, _ := c.uint(dimSize, "chunk dims")
			layout.ChunkDims[i] = uint32(d)
		}

		// Writers may insert index parameters between the dims and the
		// index address, which always sits at the end of the message.
		// Prefer the trailing position when it is past the dims,
		// otherwise read in place.
		offsetSize := c.r.OffsetSize()
		if tail := len(c.data) - offsetSize; tail >= c.pos {
			layout.ChunkIndexAddr = decodeUint(c.data[tail:], offsetSize, c.r.ByteOrder())
		} else if c.remaining() >= offsetSize {
			layout.ChunkIndexAddr, _ = c.uint(offsetSize, "chunk index address")
		}
	}
	return layout, nil
}
