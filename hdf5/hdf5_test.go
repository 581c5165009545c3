package hdf5

import (
	"os"
	"path/filepath"
	"testing"
)

// writeTestFile creates an HDF5 file in a test temp dir, lets build
// populate it through the write path, and returns its path.
func writeTestFile(t *testing.T, name string, build func(t *testing.T, root *Group)) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	f, err := Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	build(t, f.Root())
	if err := f.Close(); err != nil {
		t.Fatalf("Close after write failed: %v", err)
	}
	return path
}

func openTestFile(t *testing.T, path string) *File {
	t.Helper()

	f, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestOpenNotHDF5(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.h5")
	if err := os.WriteFile(path, []byte("plain text, no signature"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Open(path); err == nil {
		t.Error("expected error opening a non-HDF5 file")
	}
}

func TestOpenNotExists(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "absent.h5")); err == nil {
		t.Error("expected error opening a missing file")
	}
}

func TestOpenImage(t *testing.T) {
	path := writeTestFile(t, "image.h5", func(t *testing.T, root *Group) {
		if _, err := root.CreateDataset("data", []int32{7, 8, 9}); err != nil {
			t.Fatalf("CreateDataset failed: %v", err)
		}
	})

	image, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	f, err := OpenImage(image)
	if err != nil {
		t.Fatalf("OpenImage failed: %v", err)
	}
	if !f.IsImage() {
		t.Error("IsImage should be true for a memory image")
	}

	ds, err := f.OpenDataset("/data")
	if err != nil {
		t.Fatalf("OpenDataset failed: %v", err)
	}
	values, err := ds.ReadInt32()
	if err != nil {
		t.Fatalf("ReadInt32 failed: %v", err)
	}
	if len(values) != 3 || values[0] != 7 || values[2] != 9 {
		t.Errorf("unexpected values: %v", values)
	}

	if err := f.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
}

func TestOpenImageNotHDF5(t *testing.T) {
	if _, err := OpenImage([]byte{0x00, 0x01, 0x02, 0x03}); err == nil {
		t.Error("expected error for a garbage image")
	}
}

func TestNumericRoundTrip(t *testing.T) {
	path := writeTestFile(t, "numeric.h5", func(t *testing.T, root *Group) {
		datasets := map[string]interface{}{
			"i8":  []int8{-128, 0, 127},
			"i16": []int16{-300, 0, 300},
			"i32": []int32{-70000, 0, 70000},
			"i64": []int64{-5e12, 0, 5e12},
			"u8":  []uint8{0, 128, 255},
			"u16": []uint16{0, 40000, 65535},
			"u32": []uint32{0, 3e9, 4e9},
			"u64": []uint64{0, 1 << 40, 1 << 60},
			"f32": []float32{-1.5, 0, 2.25},
			"f64": []float64{-1.5e300, 0, 2.25e-300},
		}
		for name, data := range datasets {
			if _, err := root.CreateDataset(name, data); err != nil {
				t.Fatalf("CreateDataset %s failed: %v", name, err)
			}
		}
	})

	f := openTestFile(t, path)

	i8ds, err := f.OpenDataset("/i8")
	if err != nil {
		t.Fatal(err)
	}
	i8, err := i8ds.ReadInt8()
	if err != nil {
		t.Fatalf("ReadInt8 failed: %v", err)
	}
	for i, want := range []int8{-128, 0, 127} {
		if i8[i] != want {
			t.Errorf("i8[%d]: got %d, want %d", i, i8[i], want)
		}
	}

	i64ds, err := f.OpenDataset("/i64")
	if err != nil {
		t.Fatal(err)
	}
	i64, err := i64ds.ReadInt64()
	if err != nil {
		t.Fatalf("ReadInt64 failed: %v", err)
	}
	for i, want := range []int64{-5e12, 0, 5e12} {
		if i64[i] != want {
			t.Errorf("i64[%d]: got %d, want %d", i, i64[i], want)
		}
	}

	u64ds, err := f.OpenDataset("/u64")
	if err != nil {
		t.Fatal(err)
	}
	u64, err := u64ds.ReadUint64()
	if err != nil {
		t.Fatalf("ReadUint64 failed: %v", err)
	}
	for i, want := range []uint64{0, 1 << 40, 1 << 60} {
		if u64[i] != want {
			t.Errorf("u64[%d]: got %d, want %d", i, u64[i], want)
		}
	}

	f64ds, err := f.OpenDataset("/f64")
	if err != nil {
		t.Fatal(err)
	}
	f64, err := f64ds.ReadFloat64()
	if err != nil {
		t.Fatalf("ReadFloat64 failed: %v", err)
	}
	for i, want := range []float64{-1.5e300, 0, 2.25e-300} {
		if f64[i] != want {
			t.Errorf("f64[%d]: got %v, want %v", i, f64[i], want)
		}
	}

	// Generic Read into a typed slice pointer.
	f32ds, err := f.OpenDataset("/f32")
	if err != nil {
		t.Fatal(err)
	}
	var f32 []float32
	if err := f32ds.Read(&f32); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(f32) != 3 || f32[2] != 2.25 {
		t.Errorf("unexpected f32 values: %v", f32)
	}
}

func TestReadMultidim(t *testing.T) {
	path := writeTestFile(t, "multidim.h5", func(t *testing.T, root *Group) {
		data := [][]int32{
			{1, 2, 3, 4},
			{5, 6, 7, 8},
			{9, 10, 11, 12},
		}
		if _, err := root.CreateDataset("matrix", data); err != nil {
			t.Fatalf("CreateDataset failed: %v", err)
		}
	})

	f := openTestFile(t, path)

	ds, err := f.OpenDataset("/matrix")
	if err != nil {
		t.Fatalf("OpenDataset failed: %v", err)
	}

	shape := ds.Shape()
	if len(shape) != 2 || shape[0] != 3 || shape[1] != 4 {
		t.Errorf("expected shape [3 4], got %v", shape)
	}
	if ds.Rank() != 2 {
		t.Errorf("expected rank 2, got %d", ds.Rank())
	}
	if ds.NumElements() != 12 {
		t.Errorf("expected 12 elements, got %d", ds.NumElements())
	}

	// Row-major flattening.
	values, err := ds.ReadInt32()
	if err != nil {
		t.Fatalf("ReadInt32 failed: %v", err)
	}
	for i, want := range []int32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12} {
		if values[i] != want {
			t.Errorf("element %d: got %d, want %d", i, values[i], want)
		}
	}
}

func TestGroupNavigation(t *testing.T) {
	path := writeTestFile(t, "groups.h5", func(t *testing.T, root *Group) {
		outer, err := root.CreateGroup("outer")
		if err != nil {
			t.Fatalf("CreateGroup failed: %v", err)
		}
		inner, err := outer.CreateGroup("inner")
		if err != nil {
			t.Fatalf("CreateGroup failed: %v", err)
		}
		if _, err := inner.CreateDataset("deep", []float64{3.25}); err != nil {
			t.Fatalf("CreateDataset failed: %v", err)
		}
		if _, err := root.CreateDataset("shallow", []int32{1}); err != nil {
			t.Fatalf("CreateDataset failed: %v", err)
		}
	})

	f := openTestFile(t, path)

	members, err := f.Root().Members()
	if err != nil {
		t.Fatalf("Members failed: %v", err)
	}
	if len(members) != 2 {
		t.Errorf("expected 2 root members, got %v", members)
	}

	// Absolute path access from the file.
	if _, err := f.OpenDataset("/outer/inner/deep"); err != nil {
		t.Errorf("absolute dataset open failed: %v", err)
	}

	// Relative navigation group by group.
	outer, err := f.OpenGroup("outer")
	if err != nil {
		t.Fatalf("OpenGroup failed: %v", err)
	}
	if outer.Path() != "/outer" {
		t.Errorf("expected path /outer, got %s", outer.Path())
	}
	inner, err := outer.OpenGroup("inner")
	if err != nil {
		t.Fatalf("nested OpenGroup failed: %v", err)
	}
	ds, err := inner.OpenDataset("deep")
	if err != nil {
		t.Fatalf("relative OpenDataset failed: %v", err)
	}
	if ds.Path() != "/outer/inner/deep" {
		t.Errorf("expected path /outer/inner/deep, got %s", ds.Path())
	}
	if ds.Name() != "deep" {
		t.Errorf("expected name deep, got %s", ds.Name())
	}

	n, err := inner.NumObjects()
	if err != nil {
		t.Fatalf("NumObjects failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 object in /outer/inner, got %d", n)
	}

	// Opening a dataset as a group and vice versa must fail.
	if _, err := f.OpenGroup("/shallow"); err == nil {
		t.Error("expected error opening a dataset as a group")
	}
	if _, err := f.OpenDataset("/outer"); err == nil {
		t.Error("expected error opening a group as a dataset")
	}
}

func TestGroupAddrAndResolve(t *testing.T) {
	path := writeTestFile(t, "resolve.h5", func(t *testing.T, root *Group) {
		g, err := root.CreateGroup("g")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := g.CreateDataset("d", []int32{1}); err != nil {
			t.Fatal(err)
		}
	})

	f := openTestFile(t, path)

	root := f.Root()
	if root.Addr() == 0 {
		t.Error("root group address should be set")
	}

	addr, isDataset, err := root.Resolve("g")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if isDataset {
		t.Error("g should resolve as a group")
	}

	g, err := root.OpenGroup("g")
	if err != nil {
		t.Fatal(err)
	}
	if g.Addr() != addr {
		t.Errorf("Resolve addr %x does not match opened group addr %x", addr, g.Addr())
	}

	_, isDataset, err = g.Resolve("d")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !isDataset {
		t.Error("d should resolve as a dataset")
	}

	if _, _, err := root.Resolve("missing"); err == nil {
		t.Error("expected error resolving a missing name")
	}
}

func TestReadSliceContiguous(t *testing.T) {
	path := writeTestFile(t, "slice.h5", func(t *testing.T, root *Group) {
		data := [][]float64{
			{0, 1, 2, 3},
			{10, 11, 12, 13},
			{20, 21, 22, 23},
		}
		if _, err := root.CreateDataset("grid", data); err != nil {
			t.Fatalf("CreateDataset failed: %v", err)
		}
	})

	f := openTestFile(t, path)

	ds, err := f.OpenDataset("/grid")
	if err != nil {
		t.Fatalf("OpenDataset failed: %v", err)
	}

	// Inner 2x2 block.
	var block []float64
	if err := ds.ReadSlice([]uint64{1, 1}, []uint64{2, 2}, &block); err != nil {
		t.Fatalf("ReadSlice failed: %v", err)
	}
	want := []float64{11, 12, 21, 22}
	if len(block) != len(want) {
		t.Fatalf("expected %d elements, got %d", len(want), len(block))
	}
	for i := range want {
		if block[i] != want[i] {
			t.Errorf("element %d: got %v, want %v", i, block[i], want[i])
		}
	}

	// Raw slice returns element-size * count bytes.
	raw, err := ds.ReadRawSlice([]uint64{0, 0}, []uint64{1, 4})
	if err != nil {
		t.Fatalf("ReadRawSlice failed: %v", err)
	}
	if len(raw) != 4*8 {
		t.Errorf("expected 32 raw bytes, got %d", len(raw))
	}

	// Out-of-bounds and wrong-rank selections are rejected by the layout.
	if err := ds.ReadSlice([]uint64{2, 2}, []uint64{2, 3}, &block); err == nil {
		t.Error("expected error for out-of-bounds slice")
	}
	if err := ds.ReadSlice([]uint64{0}, []uint64{2}, &block); err == nil {
		t.Error("expected error for rank-1 slice of a rank-2 dataset")
	}
}

func TestReadSliceChunked(t *testing.T) {
	path := writeTestFile(t, "chunked_slice.h5", func(t *testing.T, root *Group) {
		data := make([]int32, 20)
		for i := range data {
			data[i] = int32(i * i)
		}
		// Chunks of 6: the slice below crosses chunk boundaries.
		if _, err := root.CreateDataset("squares", data, WithChunks(6)); err != nil {
			t.Fatalf("CreateDataset failed: %v", err)
		}
	})

	f := openTestFile(t, path)

	ds, err := f.OpenDataset("/squares")
	if err != nil {
		t.Fatalf("OpenDataset failed: %v", err)
	}

	var got []int32
	if err := ds.ReadSlice([]uint64{4}, []uint64{9}, &got); err != nil {
		t.Fatalf("ReadSlice failed: %v", err)
	}
	if len(got) != 9 {
		t.Fatalf("expected 9 elements, got %d", len(got))
	}
	for i := 0; i < 9; i++ {
		want := int32((i + 4) * (i + 4))
		if got[i] != want {
			t.Errorf("element %d: got %d, want %d", i, got[i], want)
		}
	}
}

func TestReadSliceEmptySelection(t *testing.T) {
	path := writeTestFile(t, "full_slice.h5", func(t *testing.T, root *Group) {
		if _, err := root.CreateDataset("v", []int64{42, 43}); err != nil {
			t.Fatal(err)
		}
	})

	f := openTestFile(t, path)

	ds, err := f.OpenDataset("/v")
	if err != nil {
		t.Fatal(err)
	}

	// Empty start/count means full read through the slice API.
	var full []int64
	if err := ds.ReadSlice(nil, nil, &full); err != nil {
		t.Fatalf("empty-selection ReadSlice failed: %v", err)
	}
	if len(full) != 2 || full[0] != 42 || full[1] != 43 {
		t.Errorf("unexpected values: %v", full)
	}
}

func TestVarLenStringRoundTrip(t *testing.T) {
	values := []string{"red", "green", "a considerably longer entry", ""}

	path := writeTestFile(t, "vlen.h5", func(t *testing.T, root *Group) {
		if _, err := root.CreateVarLenStringDataset("labels", []uint64{uint64(len(values))}, values); err != nil {
			t.Fatalf("CreateVarLenStringDataset failed: %v", err)
		}
	})

	f := openTestFile(t, path)

	ds, err := f.OpenDataset("/labels")
	if err != nil {
		t.Fatalf("OpenDataset failed: %v", err)
	}
	got, err := ds.ReadString()
	if err != nil {
		t.Fatalf("ReadString failed: %v", err)
	}
	if len(got) != len(values) {
		t.Fatalf("expected %d strings, got %d", len(values), len(got))
	}
	for i := range values {
		if got[i] != values[i] {
			t.Errorf("element %d: got %q, want %q", i, got[i], values[i])
		}
	}
}

func TestDatasetAttributes(t *testing.T) {
	path := writeTestFile(t, "attrs.h5", func(t *testing.T, root *Group) {
		_, err := root.CreateDataset("data", []float64{1, 2, 3},
			WithAttribute("units", "kelvin"),
			WithAttribute("scale", 0.5),
		)
		if err != nil {
			t.Fatalf("CreateDataset failed: %v", err)
		}
	})

	f := openTestFile(t, path)

	ds, err := f.OpenDataset("/data")
	if err != nil {
		t.Fatalf("OpenDataset failed: %v", err)
	}

	names := ds.Attrs()
	if len(names) != 2 {
		t.Errorf("expected 2 attributes, got %v", names)
	}
	if !ds.HasAttr("units") || !ds.HasAttr("scale") {
		t.Errorf("missing expected attributes in %v", names)
	}

	units := ds.Attr("units")
	if units == nil {
		t.Fatal("Attr(units) returned nil")
	}
	val, err := units.Value()
	if err != nil {
		t.Fatalf("attribute Value failed: %v", err)
	}
	if s, ok := val.(string); !ok || s != "kelvin" {
		t.Errorf("expected units=kelvin, got %v", val)
	}

	// Path-addressed access through the file.
	val, err = f.ReadAttr("/data@units")
	if err != nil {
		t.Fatalf("ReadAttr failed: %v", err)
	}
	if s, ok := val.(string); !ok || s != "kelvin" {
		t.Errorf("expected units=kelvin via ReadAttr, got %v", val)
	}
}

func TestDatatypeAccessor(t *testing.T) {
	path := writeTestFile(t, "dtype.h5", func(t *testing.T, root *Group) {
		if _, err := root.CreateDataset("d", []int16{1, 2}); err != nil {
			t.Fatal(err)
		}
	})

	f := openTestFile(t, path)

	ds, err := f.OpenDataset("/d")
	if err != nil {
		t.Fatal(err)
	}
	dt := ds.Datatype()
	if dt == nil {
		t.Fatal("Datatype returned nil")
	}
	if !dt.IsInteger() || dt.Size != 2 || !dt.Signed {
		t.Errorf("unexpected datatype: class=%d size=%d signed=%v", dt.Class, dt.Size, dt.Signed)
	}
	if ds.DtypeSize() != 2 {
		t.Errorf("expected dtype size 2, got %d", ds.DtypeSize())
	}
}
