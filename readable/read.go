package readable

import (
	"bytes"
	"fmt"
	"math"
	"reflect"

	"go.uber.org/zap"

	"github.com/robert-malhotra/h5data/hdf5"
	"github.com/robert-malhotra/h5data/internal/dtype"
	"github.com/robert-malhotra/h5data/internal/message"
)

// Read extracts a rectangular region of a dataset into a fresh Value.
// start and count select the region per dimension; an empty count reads
// the whole dataset (scalars included). The request must match the
// dataset's rank exactly and lie fully inside its extents.
func (c *Catalog) Read(path string, start, count []int64) (*Value, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cont == nil || c.cont.file == nil {
		return nil, &IoError{Locator: c.locator, Err: errCatalogClosed}
	}

	i, ok := c.index[path]
	if !ok {
		return nil, &NotFoundError{Path: path}
	}
	spec := c.specs[i]

	ustart, ucount, shape, err := checkRegion(spec, start, count)
	if err != nil {
		return nil, err
	}

	lockLibrary()
	defer unlockLibrary()

	ds, err := c.cont.file.OpenDataset(path)
	if err != nil {
		return nil, &IoError{Locator: c.locator, Err: err}
	}

	c.log.Debug("reading dataset region",
		zap.String("locator", c.locator),
		zap.String("path", path),
		zap.Int64s("shape", shape))

	return c.decode(path, spec, ds, ustart, ucount, shape)
}

// ReadAt reads the region bounded by start (inclusive) and stop
// (exclusive) per dimension. Missing trailing entries default to the full
// extent; stop is clamped into [0, extent] and start into [0, stop], so a
// request beyond the data yields an empty result instead of an error.
func (c *Catalog) ReadAt(path string, start, stop []int64) (*Value, error) {
	spec, err := c.Spec(path)
	if err != nil {
		return nil, err
	}

	rank := len(spec.Shape)
	rstart := make([]int64, rank)
	count := make([]int64, rank)
	for i := 0; i < rank; i++ {
		s := int64(0)
		if i < len(start) {
			s = start[i]
		}
		e := spec.Shape[i]
		if i < len(stop) {
			e = stop[i]
		}
		if e > spec.Shape[i] {
			e = spec.Shape[i]
		}
		if e < 0 {
			e = 0
		}
		if s > e {
			s = e
		}
		if s < 0 {
			s = 0
		}
		rstart[i] = s
		count[i] = e - s
	}

	return c.Read(path, rstart, count)
}

// ReadInto reads like Read but copies the result into dest, a pointer to
// a slice of the canonical Go type for the dataset.
func (c *Catalog) ReadInto(path string, start, count []int64, dest interface{}) error {
	v, err := c.Read(path, start, count)
	if err != nil {
		return err
	}

	rv := reflect.ValueOf(dest)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("dest must be a pointer to a slice, got %T", dest)
	}
	dv := reflect.ValueOf(v.data)
	if dv.Type() != rv.Elem().Type() {
		return fmt.Errorf("dest type %s does not match dataset type %s",
			rv.Elem().Type(), dv.Type())
	}
	rv.Elem().Set(dv)
	return nil
}

// checkRegion validates a slice request against a spec and returns the
// container-level selection plus the result shape. An empty count selects
// everything.
func checkRegion(spec Spec, start, count []int64) (ustart, ucount []uint64, shape []int64, err error) {
	rank := len(spec.Shape)

	if len(count) == 0 {
		if rank == 0 {
			return nil, nil, nil, nil
		}
		ustart = make([]uint64, rank)
		ucount = make([]uint64, rank)
		shape = make([]int64, rank)
		for i, d := range spec.Shape {
			ucount[i] = uint64(d)
			shape[i] = d
		}
		return ustart, ucount, shape, nil
	}

	if len(count) != rank || len(start) != rank {
		got := len(count)
		if len(start) != rank {
			got = len(start)
		}
		return nil, nil, nil, &RankMismatchError{Path: spec.Path, Got: got, Want: rank}
	}

	ustart = make([]uint64, rank)
	ucount = make([]uint64, rank)
	shape = make([]int64, rank)
	for i := 0; i < rank; i++ {
		// Checked as count > extent-start rather than start+count > extent;
		// the sum can wrap for huge counts.
		if start[i] < 0 || count[i] < 0 || start[i] > spec.Shape[i] ||
			count[i] > spec.Shape[i]-start[i] {
			return nil, nil, nil, &OutOfBoundsError{
				Path:     spec.Path,
				Dim:      i,
				Start:    start[i],
				Count:    count[i],
				Boundary: spec.Shape[i],
			}
		}
		ustart[i] = uint64(start[i])
		ucount[i] = uint64(count[i])
		shape[i] = count[i]
	}
	return ustart, ucount, shape, nil
}

// decode reads the selected region and converts it to the canonical type.
// Caller holds both locks.
func (c *Catalog) decode(path string, spec Spec, ds *hdf5.Dataset, ustart, ucount []uint64, shape []int64) (*Value, error) {
	switch spec.DType {
	case Uint8:
		var out []uint8
		if err := ds.ReadSlice(ustart, ucount, &out); err != nil {
			return nil, &IoError{Locator: c.locator, Err: err}
		}
		return &Value{dtype: spec.DType, shape: shape, data: out}, nil
	case Uint16:
		var out []uint16
		if err := ds.ReadSlice(ustart, ucount, &out); err != nil {
			return nil, &IoError{Locator: c.locator, Err: err}
		}
		return &Value{dtype: spec.DType, shape: shape, data: out}, nil
	case Uint32:
		var out []uint32
		if err := ds.ReadSlice(ustart, ucount, &out); err != nil {
			return nil, &IoError{Locator: c.locator, Err: err}
		}
		return &Value{dtype: spec.DType, shape: shape, data: out}, nil
	case Uint64:
		var out []uint64
		if err := ds.ReadSlice(ustart, ucount, &out); err != nil {
			return nil, &IoError{Locator: c.locator, Err: err}
		}
		return &Value{dtype: spec.DType, shape: shape, data: out}, nil
	case Int8:
		var out []int8
		if err := ds.ReadSlice(ustart, ucount, &out); err != nil {
			return nil, &IoError{Locator: c.locator, Err: err}
		}
		return &Value{dtype: spec.DType, shape: shape, data: out}, nil
	case Int16:
		var out []int16
		if err := ds.ReadSlice(ustart, ucount, &out); err != nil {
			return nil, &IoError{Locator: c.locator, Err: err}
		}
		return &Value{dtype: spec.DType, shape: shape, data: out}, nil
	case Int32:
		var out []int32
		if err := ds.ReadSlice(ustart, ucount, &out); err != nil {
			return nil, &IoError{Locator: c.locator, Err: err}
		}
		return &Value{dtype: spec.DType, shape: shape, data: out}, nil
	case Int64:
		var out []int64
		if err := ds.ReadSlice(ustart, ucount, &out); err != nil {
			return nil, &IoError{Locator: c.locator, Err: err}
		}
		return &Value{dtype: spec.DType, shape: shape, data: out}, nil
	case Float32:
		var out []float32
		if err := ds.ReadSlice(ustart, ucount, &out); err != nil {
			return nil, &IoError{Locator: c.locator, Err: err}
		}
		return &Value{dtype: spec.DType, shape: shape, data: out}, nil
	case Float64:
		var out []float64
		if err := ds.ReadSlice(ustart, ucount, &out); err != nil {
			return nil, &IoError{Locator: c.locator, Err: err}
		}
		return &Value{dtype: spec.DType, shape: shape, data: out}, nil

	case Complex64, Complex128:
		return c.decodeComplex(path, spec, ds, ustart, ucount, shape)

	case Bool:
		return c.decodeBool(path, spec, ds, ustart, ucount, shape)

	case String:
		return c.decodeString(path, spec, ds, ustart, ucount, shape)

	default:
		return nil, &ResolutionError{Path: path, Detail: fmt.Sprintf("unreadable data type %s", spec.DType)}
	}
}

// rawRegion reads the raw bytes of the selection; an empty selection means
// the whole dataset (which is also the only path that works for scalars).
func (c *Catalog) rawRegion(ds *hdf5.Dataset, ustart, ucount []uint64) ([]byte, error) {
	var raw []byte
	var err error
	if len(ucount) == 0 {
		raw, err = ds.ReadRaw()
	} else {
		raw, err = ds.ReadRawSlice(ustart, ucount)
	}
	if err != nil {
		return nil, &IoError{Locator: c.locator, Err: err}
	}
	return raw, nil
}

// decodeComplex reinterprets the two-float compound encoding as Go complex
// values. The member offsets come from the on-disk layout, so padded or
// reordered compounds decode correctly.
func (c *Catalog) decodeComplex(path string, spec Spec, ds *hdf5.Dataset, ustart, ucount []uint64, shape []int64) (*Value, error) {
	dt := ds.Datatype()
	raw, err := c.rawRegion(ds, ustart, ucount)
	if err != nil {
		return nil, err
	}

	v, err := newValue(spec.DType, shape)
	if err != nil {
		return nil, err
	}
	n := v.Len()
	stride := int(dt.Size)
	if len(raw) < n*stride {
		return nil, &IoError{Locator: c.locator,
			Err: fmt.Errorf("short read for %s: %d bytes for %d elements", path, len(raw), n)}
	}
	realOff := int(dt.Members[0].ByteOffset)
	imagOff := int(dt.Members[1].ByteOffset)
	realOrder := dtype.ByteOrder(dt.Members[0].Type)
	imagOrder := dtype.ByteOrder(dt.Members[1].Type)

	switch spec.DType {
	case Complex64:
		out := v.data.([]complex64)
		for i := 0; i < n; i++ {
			base := raw[i*stride:]
			re := math.Float32frombits(realOrder.Uint32(base[realOff:]))
			im := math.Float32frombits(imagOrder.Uint32(base[imagOff:]))
			out[i] = complex(re, im)
		}
	case Complex128:
		out := v.data.([]complex128)
		for i := 0; i < n; i++ {
			base := raw[i*stride:]
			re := math.Float64frombits(realOrder.Uint64(base[realOff:]))
			im := math.Float64frombits(imagOrder.Uint64(base[imagOff:]))
			out[i] = complex(re, im)
		}
	}
	return v, nil
}

// decodeBool decodes the 1-byte boolean enum. The enum shape is
// re-validated against the open dataset before touching the bytes.
func (c *Catalog) decodeBool(path string, spec Spec, ds *hdf5.Dataset, ustart, ucount []uint64, shape []int64) (*Value, error) {
	if err := validateBoolEnum(path, ds.Datatype()); err != nil {
		return nil, err
	}

	raw, err := c.rawRegion(ds, ustart, ucount)
	if err != nil {
		return nil, err
	}

	v, err := newValue(Bool, shape)
	if err != nil {
		return nil, err
	}
	out := v.data.([]bool)
	if len(raw) < len(out) {
		return nil, &IoError{Locator: c.locator,
			Err: fmt.Errorf("short read for %s: %d bytes for %d elements", path, len(raw), len(out))}
	}
	for i := range out {
		out[i] = raw[i] != 0
	}
	return v, nil
}

// decodeString handles both string encodings: variable-length strings go
// through the global heap, fixed-length strings are cut out of the raw
// bytes according to the declared padding mode.
func (c *Catalog) decodeString(path string, spec Spec, ds *hdf5.Dataset, ustart, ucount []uint64, shape []int64) (*Value, error) {
	dt := ds.Datatype()

	if dt.Class == message.ClassVarLen {
		var out []string
		if err := ds.ReadSlice(ustart, ucount, &out); err != nil {
			return nil, &IoError{Locator: c.locator, Err: err}
		}
		return &Value{dtype: String, shape: shape, data: out}, nil
	}

	switch dt.StringPadding {
	case message.PadNullTerm, message.PadNullPad:
	case message.PadSpacePad:
		return nil, &UnsupportedPaddingError{Path: path, Padding: "space padded"}
	default:
		return nil, &UnsupportedPaddingError{Path: path,
			Padding: fmt.Sprintf("pad mode %d", dt.StringPadding)}
	}

	raw, err := c.rawRegion(ds, ustart, ucount)
	if err != nil {
		return nil, err
	}

	v, err := newValue(String, shape)
	if err != nil {
		return nil, err
	}
	out := v.data.([]string)
	width := int(dt.Size)
	if len(raw) < len(out)*width {
		return nil, &IoError{Locator: c.locator,
			Err: fmt.Errorf("short read for %s: %d bytes for %d elements", path, len(raw), len(out))}
	}
	for i := range out {
		cell := raw[i*width : (i+1)*width]
		if dt.StringPadding == message.PadNullTerm {
			if j := bytes.IndexByte(cell, 0); j >= 0 {
				cell = cell[:j]
			}
		} else {
			cell = bytes.TrimRight(cell, "\x00")
		}
		out[i] = string(cell)
	}
	return v, nil
}
