package message

import (
	"bytes"
	"encoding/binary"
	"testing"

	binpkg "github.com/robert-malhotra/h5data/internal/binary"
)

// mockReader backs parsers with empty file bytes; only heap-chasing
// paths ever read through it.
func mockReader() *binpkg.Reader {
	return binpkg.NewReader(bytes.NewReader(make([]byte, 256)), binpkg.Config{
		ByteOrder:  binary.LittleEndian,
		OffsetSize: 8,
		LengthSize: 8,
	})
}

// v2 dataspace header: version, rank, flags, space type.
func dataspaceV2(rank, flags, spaceType byte, dims ...uint64) []byte {
	data := make([]byte, 4+8*len(dims))
	data[0] = 2
	data[1] = rank
	data[2] = flags
	data[3] = spaceType
	for i, d := range dims {
		binary.LittleEndian.PutUint64(data[4+8*i:], d)
	}
	return data
}

func TestDataspaceScalar(t *testing.T) {
	ds, err := parseDataspace(dataspaceV2(0, 0, 0), mockReader())
	if err != nil {
		t.Fatalf("parseDataspace: %v", err)
	}

	if ds.Version != 2 || ds.Rank != 0 {
		t.Errorf("version %d rank %d, want 2 and 0", ds.Version, ds.Rank)
	}
	if ds.SpaceType != DataspaceScalar || !ds.IsScalar() {
		t.Errorf("space type %d not recognized as scalar", ds.SpaceType)
	}
	if ds.NumElements() != 1 {
		t.Errorf("scalar NumElements = %d, want 1", ds.NumElements())
	}
}

func TestDataspaceSimpleRanks(t *testing.T) {
	tests := []struct {
		name     string
		dims     []uint64
		elements uint64
	}{
		{"1d", []uint64{10}, 10},
		{"2d", []uint64{3, 4}, 12},
		{"3d", []uint64{2, 3, 4}, 24},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := dataspaceV2(byte(len(tt.dims)), 0, 1, tt.dims...)
			ds, err := parseDataspace(data, mockReader())
			if err != nil {
				t.Fatalf("parseDataspace: %v", err)
			}

			if int(ds.Rank) != len(tt.dims) {
				t.Errorf("rank = %d, want %d", ds.Rank, len(tt.dims))
			}
			for i, want := range tt.dims {
				if ds.Dimensions[i] != want {
					t.Errorf("dim %d = %d, want %d", i, ds.Dimensions[i], want)
				}
			}
			if ds.NumElements() != tt.elements {
				t.Errorf("NumElements = %d, want %d", ds.NumElements(), tt.elements)
			}
		})
	}
}

func TestDataspaceMaxDims(t *testing.T) {
	// Flag bit 0 marks a max-dimension list after the current dims.
	data := dataspaceV2(1, 0x01, 1, 10, 0xFFFFFFFFFFFFFFFF)

	ds, err := parseDataspace(data, mockReader())
	if err != nil {
		t.Fatalf("parseDataspace: %v", err)
	}

	if ds.MaxDims == nil {
		t.Fatal("MaxDims not parsed")
	}
	if ds.MaxDims[0] != 0xFFFFFFFFFFFFFFFF {
		t.Errorf("MaxDims[0] = %d, want unlimited sentinel", ds.MaxDims[0])
	}
}

func TestDataspaceNull(t *testing.T) {
	ds, err := parseDataspace(dataspaceV2(0, 0, 2), mockReader())
	if err != nil {
		t.Fatalf("parseDataspace: %v", err)
	}

	if !ds.IsNull() {
		t.Error("null space type not recognized")
	}
	if ds.NumElements() != 0 {
		t.Errorf("null NumElements = %d, want 0", ds.NumElements())
	}
}

func TestDataspaceV1(t *testing.T) {
	// v1 header carries four reserved bytes before the dims.
	data := make([]byte, 8+8)
	data[0] = 1
	data[1] = 1
	binary.LittleEndian.PutUint64(data[8:], 5)

	ds, err := parseDataspace(data, mockReader())
	if err != nil {
		t.Fatalf("parseDataspace: %v", err)
	}

	if ds.Version != 1 || ds.Rank != 1 || ds.NumElements() != 5 {
		t.Errorf("version %d rank %d elements %d, want 1, 1, 5",
			ds.Version, ds.Rank, ds.NumElements())
	}
}

func TestDataspaceTruncated(t *testing.T) {
	if _, err := parseDataspace([]byte{2, 0}, mockReader()); err == nil {
		t.Error("truncated dataspace accepted")
	}
}

// fixedPoint builds a v1 fixed-point datatype message of the given
// byte size, optionally signed.
func fixedPoint(size uint32, signed bool) []byte {
	data := make([]byte, 12)
	data[0] = 0x10 | byte(ClassFixedPoint)
	if signed {
		data[1] = 0x08
	}
	binary.LittleEndian.PutUint32(data[4:], size)
	binary.LittleEndian.PutUint16(data[10:], uint16(size*8))
	return data
}

func TestDatatypeFixedPointSizes(t *testing.T) {
	for _, size := range []uint32{1, 2, 4, 8} {
		dt, err := parseDatatype(fixedPoint(size, true), mockReader())
		if err != nil {
			t.Fatalf("size %d: parseDatatype: %v", size, err)
		}

		if dt.Class != ClassFixedPoint || !dt.IsInteger() {
			t.Errorf("size %d: class %d not an integer", size, dt.Class)
		}
		if dt.Size != size {
			t.Errorf("Size = %d, want %d", dt.Size, size)
		}
		if !dt.Signed {
			t.Errorf("size %d: signed bit lost", size)
		}
	}
}

func TestDatatypeUnsigned(t *testing.T) {
	dt, err := parseDatatype(fixedPoint(4, false), mockReader())
	if err != nil {
		t.Fatalf("parseDatatype: %v", err)
	}
	if dt.Signed {
		t.Error("unsigned type parsed as signed")
	}
}

func TestDatatypeFloats(t *testing.T) {
	for _, size := range []uint32{4, 8} {
		data := make([]byte, 20)
		data[0] = 0x10 | byte(ClassFloatPoint)
		binary.LittleEndian.PutUint32(data[4:], size)

		dt, err := parseDatatype(data, mockReader())
		if err != nil {
			t.Fatalf("size %d: parseDatatype: %v", size, err)
		}
		if dt.Class != ClassFloatPoint || !dt.IsFloat() {
			t.Errorf("size %d: class %d not a float", size, dt.Class)
		}
		if dt.Size != size {
			t.Errorf("Size = %d, want %d", dt.Size, size)
		}
	}
}

func TestDatatypeFixedString(t *testing.T) {
	data := make([]byte, 8)
	data[0] = 0x10 | byte(ClassString)
	data[1] = byte(PadNullTerm)
	binary.LittleEndian.PutUint32(data[4:], 32)

	dt, err := parseDatatype(data, mockReader())
	if err != nil {
		t.Fatalf("parseDatatype: %v", err)
	}

	if dt.Class != ClassString || !dt.IsString() {
		t.Errorf("class %d not a string", dt.Class)
	}
	if dt.Size != 32 {
		t.Errorf("Size = %d, want 32", dt.Size)
	}
	if dt.StringPadding != PadNullTerm {
		t.Errorf("padding = %d, want null terminated", dt.StringPadding)
	}
	if dt.CharSet != CharsetASCII {
		t.Errorf("charset = %d, want ASCII", dt.CharSet)
	}
}

func TestDatatypeStringVariants(t *testing.T) {
	t.Run("space padded", func(t *testing.T) {
		data := make([]byte, 8)
		data[0] = 0x10 | byte(ClassString)
		data[1] = byte(PadSpacePad)
		binary.LittleEndian.PutUint32(data[4:], 10)

		dt, err := parseDatatype(data, mockReader())
		if err != nil {
			t.Fatalf("parseDatatype: %v", err)
		}
		if dt.StringPadding != PadSpacePad {
			t.Errorf("padding = %d, want space padded", dt.StringPadding)
		}
	})

	t.Run("utf8", func(t *testing.T) {
		// The charset occupies bits 4-7 of the first class-bit byte.
		data := make([]byte, 8)
		data[0] = 0x10 | byte(ClassString)
		data[1] = byte(PadNullTerm) | byte(CharsetUTF8)<<4
		binary.LittleEndian.PutUint32(data[4:], 64)

		dt, err := parseDatatype(data, mockReader())
		if err != nil {
			t.Fatalf("parseDatatype: %v", err)
		}
		if dt.CharSet != CharsetUTF8 {
			t.Errorf("charset = %d, want UTF-8", dt.CharSet)
		}
	})
}

func TestDatatypeByteOrderBit(t *testing.T) {
	le := fixedPoint(4, false)
	be := fixedPoint(4, false)
	be[1] |= 0x01

	dt, err := parseDatatype(le, mockReader())
	if err != nil {
		t.Fatalf("parseDatatype LE: %v", err)
	}
	if dt.ByteOrder != OrderLE {
		t.Errorf("byte order = %d, want little endian", dt.ByteOrder)
	}

	dt, err = parseDatatype(be, mockReader())
	if err != nil {
		t.Fatalf("parseDatatype BE: %v", err)
	}
	if dt.ByteOrder != OrderBE {
		t.Errorf("byte order = %d, want big endian", dt.ByteOrder)
	}
}

func TestDatatypeTruncated(t *testing.T) {
	if _, err := parseDatatype([]byte{0x10, 0x00, 0x00}, mockReader()); err == nil {
		t.Error("truncated datatype accepted")
	}
}

func TestLayoutContiguousV3(t *testing.T) {
	data := make([]byte, 18)
	data[0] = 3
	data[1] = byte(LayoutContiguous)
	binary.LittleEndian.PutUint64(data[2:], 0x1000)
	binary.LittleEndian.PutUint64(data[10:], 0x2000)

	layout, err := parseDataLayout(data, mockReader())
	if err != nil {
		t.Fatalf("parseDataLayout: %v", err)
	}

	if layout.Version != 3 || layout.Class != LayoutContiguous || !layout.IsContiguous() {
		t.Errorf("version %d class %d, want v3 contiguous", layout.Version, layout.Class)
	}
	if layout.Address != 0x1000 || layout.Size != 0x2000 {
		t.Errorf("address 0x%x size 0x%x, want 0x1000 and 0x2000",
			layout.Address, layout.Size)
	}
}

func TestLayoutCompactV3(t *testing.T) {
	payload := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	data := make([]byte, 4+len(payload))
	data[0] = 3
	data[1] = byte(LayoutCompact)
	binary.LittleEndian.PutUint16(data[2:], uint16(len(payload)))
	copy(data[4:], payload)

	layout, err := parseDataLayout(data, mockReader())
	if err != nil {
		t.Fatalf("parseDataLayout: %v", err)
	}

	if !layout.IsCompact() {
		t.Error("compact class not recognized")
	}
	if string(layout.CompactData) != string(payload) {
		t.Errorf("compact payload = %v, want %v", layout.CompactData, payload)
	}
}

func TestLayoutChunkedV3(t *testing.T) {
	data := make([]byte, 20)
	data[0] = 3
	data[1] = byte(LayoutChunked)
	data[2] = byte(ChunkIndexBTreeV2)
	data[3] = 2 // dimensionality
	data[4] = 4 // bytes per chunk dimension
	binary.LittleEndian.PutUint32(data[5:], 10)
	binary.LittleEndian.PutUint32(data[9:], 10)
	binary.LittleEndian.PutUint64(data[12:], 0x3000)

	layout, err := parseDataLayout(data, mockReader())
	if err != nil {
		t.Fatalf("parseDataLayout: %v", err)
	}

	if !layout.IsChunked() {
		t.Error("chunked class not recognized")
	}
	if len(layout.ChunkDims) != 2 {
		t.Errorf("parsed %d chunk dims, want 2", len(layout.ChunkDims))
	}
}

func TestLayoutV1(t *testing.T) {
	data := make([]byte, 20)
	data[0] = 1
	data[1] = 2 // dimensionality
	data[2] = byte(LayoutContiguous)
	binary.LittleEndian.PutUint64(data[4:], 0x5000)
	binary.LittleEndian.PutUint64(data[12:], 0x1000)

	layout, err := parseDataLayout(data, mockReader())
	if err != nil {
		t.Fatalf("parseDataLayout: %v", err)
	}

	if layout.Version != 1 || layout.Address != 0x5000 {
		t.Errorf("version %d address 0x%x, want v1 at 0x5000",
			layout.Version, layout.Address)
	}
}

func TestLayoutMalformed(t *testing.T) {
	if _, err := parseDataLayout([]byte{3}, mockReader()); err == nil {
		t.Error("truncated layout accepted")
	}
	if _, err := parseDataLayout([]byte{99, 0}, mockReader()); err == nil {
		t.Error("unknown layout version accepted")
	}
}

func TestLinkHard(t *testing.T) {
	name := "my_dataset"
	data := make([]byte, 4+len(name)+8)
	data[0] = 1
	data[1] = 0x08 // link type field present
	data[2] = byte(LinkTypeHard)
	data[3] = byte(len(name))
	copy(data[4:], name)
	binary.LittleEndian.PutUint64(data[4+len(name):], 0x1234)

	link, err := parseLink(data, mockReader())
	if err != nil {
		t.Fatalf("parseLink: %v", err)
	}

	if link.Version != 1 || link.Name != name || !link.IsHard() {
		t.Errorf("parsed %+v, want hard link %q", link, name)
	}
	if link.ObjectAddress != 0x1234 {
		t.Errorf("ObjectAddress = 0x%x, want 0x1234", link.ObjectAddress)
	}
}

func TestLinkSoft(t *testing.T) {
	name := "soft_link"
	target := "/path/to/target"
	data := make([]byte, 4+len(name)+2+len(target))
	data[0] = 1
	data[1] = 0x08
	data[2] = byte(LinkTypeSoft)
	data[3] = byte(len(name))
	copy(data[4:], name)
	off := 4 + len(name)
	binary.LittleEndian.PutUint16(data[off:], uint16(len(target)))
	copy(data[off+2:], target)

	link, err := parseLink(data, mockReader())
	if err != nil {
		t.Fatalf("parseLink: %v", err)
	}

	if !link.IsSoft() {
		t.Error("soft link type not recognized")
	}
	if link.SoftLinkValue != target {
		t.Errorf("SoftLinkValue = %q, want %q", link.SoftLinkValue, target)
	}
}

func TestLinkCreationOrder(t *testing.T) {
	name := "ordered_link"
	data := make([]byte, 12+len(name)+8)
	data[0] = 1
	data[1] = 0x08 | 0x04 // link type and creation order present
	data[2] = byte(LinkTypeHard)
	binary.LittleEndian.PutUint64(data[3:], 42)
	data[11] = byte(len(name))
	copy(data[12:], name)
	binary.LittleEndian.PutUint64(data[12+len(name):], 0x5678)

	link, err := parseLink(data, mockReader())
	if err != nil {
		t.Fatalf("parseLink: %v", err)
	}
	if link.CreationOrder != 42 {
		t.Errorf("CreationOrder = %d, want 42", link.CreationOrder)
	}
}

func TestLinkTruncated(t *testing.T) {
	if _, err := parseLink([]byte{1}, mockReader()); err == nil {
		t.Error("truncated link accepted")
	}
}

func TestFilterPipelineDeflate(t *testing.T) {
	data := []byte{
		2, // version
		1, // filter count
		0x01, 0x00, // deflate
		0x00, 0x00, // flags
		0x01, 0x00, // one client value
		0x06, 0x00, 0x00, 0x00, // level 6
	}

	fp, err := parseFilterPipeline(data, mockReader())
	if err != nil {
		t.Fatalf("parseFilterPipeline: %v", err)
	}

	if fp.Version != 2 || len(fp.Filters) != 1 {
		t.Fatalf("version %d with %d filters, want v2 with 1", fp.Version, len(fp.Filters))
	}
	if fp.Filters[0].ID != FilterDeflate || !fp.HasFilter(FilterDeflate) {
		t.Errorf("filter ID = %d, want deflate", fp.Filters[0].ID)
	}
	if !fp.HasCompression() {
		t.Error("deflate pipeline not reported as compressed")
	}
}

func TestFilterPipelineShuffleDeflate(t *testing.T) {
	data := []byte{
		2,
		2,
		0x02, 0x00, // shuffle
		0x00, 0x00,
		0x01, 0x00,
		0x08, 0x00, 0x00, 0x00, // element size 8
		0x01, 0x00, // deflate
		0x00, 0x00,
		0x01, 0x00,
		0x09, 0x00, 0x00, 0x00, // level 9
	}

	fp, err := parseFilterPipeline(data, mockReader())
	if err != nil {
		t.Fatalf("parseFilterPipeline: %v", err)
	}

	if len(fp.Filters) != 2 {
		t.Fatalf("parsed %d filters, want 2", len(fp.Filters))
	}
	// Pipeline order matters for decode: shuffle precedes deflate.
	if fp.Filters[0].ID != FilterShuffle || fp.Filters[1].ID != FilterDeflate {
		t.Errorf("filter order = %d, %d", fp.Filters[0].ID, fp.Filters[1].ID)
	}
}

func TestFilterPipelineFletcher32(t *testing.T) {
	data := []byte{
		2,
		1,
		0x03, 0x00, // fletcher32
		0x00, 0x00,
		0x00, 0x00, // no client values
	}

	fp, err := parseFilterPipeline(data, mockReader())
	if err != nil {
		t.Fatalf("parseFilterPipeline: %v", err)
	}

	if len(fp.Filters) != 1 || fp.Filters[0].ID != FilterFletcher32 {
		t.Fatalf("filters = %+v, want single fletcher32", fp.Filters)
	}
	// A checksum filter alone is not compression.
	if fp.HasCompression() {
		t.Error("checksum-only pipeline reported as compressed")
	}
}

func TestFilterPipelineOptionalFlag(t *testing.T) {
	data := []byte{
		2,
		1,
		0x01, 0x00,
		0x01, 0x00, // flag bit 0: optional
		0x00, 0x00,
	}

	fp, err := parseFilterPipeline(data, mockReader())
	if err != nil {
		t.Fatalf("parseFilterPipeline: %v", err)
	}
	if !fp.Filters[0].IsOptional() {
		t.Error("optional flag lost")
	}
}

func TestFilterPipelineTruncated(t *testing.T) {
	if _, err := parseFilterPipeline([]byte{2}, mockReader()); err == nil {
		t.Error("truncated pipeline accepted")
	}
}

func TestParseDispatch(t *testing.T) {
	t.Run("unknown type", func(t *testing.T) {
		msg, err := Parse(Type(0xFF), []byte{1, 2, 3, 4}, 0, mockReader())
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		unknown, ok := msg.(*Unknown)
		if !ok {
			t.Fatalf("Parse returned %T, want *Unknown", msg)
		}
		if unknown.Type() != Type(0xFF) || len(unknown.Data()) != 4 {
			t.Errorf("type 0x%x with %d bytes", unknown.Type(), len(unknown.Data()))
		}
	})

	t.Run("dataspace", func(t *testing.T) {
		msg, err := Parse(TypeDataspace, dataspaceV2(0, 0, 0), 0, mockReader())
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		if _, ok := msg.(*Dataspace); !ok {
			t.Fatalf("Parse returned %T, want *Dataspace", msg)
		}
	})

	t.Run("datatype", func(t *testing.T) {
		msg, err := Parse(TypeDatatype, fixedPoint(4, true), 0, mockReader())
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		if _, ok := msg.(*Datatype); !ok {
			t.Fatalf("Parse returned %T, want *Datatype", msg)
		}
	})

	t.Run("layout", func(t *testing.T) {
		data := make([]byte, 18)
		data[0] = 3
		data[1] = byte(LayoutContiguous)
		binary.LittleEndian.PutUint64(data[2:], 0x1000)
		binary.LittleEndian.PutUint64(data[10:], 0x2000)

		msg, err := Parse(TypeDataLayout, data, 0, mockReader())
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		if _, ok := msg.(*DataLayout); !ok {
			t.Fatalf("Parse returned %T, want *DataLayout", msg)
		}
	})
}
