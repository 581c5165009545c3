package readable

import "fmt"

// Value is a freshly allocated, fully populated read result: a flat
// buffer of the dataset's canonical type in row-major order, together
// with the shape of the selected region.
type Value struct {
	dtype DType
	shape []int64
	data  interface{}
}

// newValue allocates the typed backing buffer for a read of the given
// shape. It is the allocation capability handed to the slice reader: the
// buffer exists before decoding starts and is only surfaced on success.
func newValue(dtype DType, shape []int64) (*Value, error) {
	n := int64(1)
	for _, d := range shape {
		n *= d
	}

	var data interface{}
	switch dtype {
	case Uint8:
		data = make([]uint8, n)
	case Uint16:
		data = make([]uint16, n)
	case Uint32:
		data = make([]uint32, n)
	case Uint64:
		data = make([]uint64, n)
	case Int8:
		data = make([]int8, n)
	case Int16:
		data = make([]int16, n)
	case Int32:
		data = make([]int32, n)
	case Int64:
		data = make([]int64, n)
	case Float32:
		data = make([]float32, n)
	case Float64:
		data = make([]float64, n)
	case Complex64:
		data = make([]complex64, n)
	case Complex128:
		data = make([]complex128, n)
	case String:
		data = make([]string, n)
	case Bool:
		data = make([]bool, n)
	default:
		return nil, fmt.Errorf("cannot allocate value of type %s", dtype)
	}

	return &Value{dtype: dtype, shape: shape, data: data}, nil
}

// DType returns the canonical element type.
func (v *Value) DType() DType {
	return v.dtype
}

// Shape returns the per-dimension extents of the read region. A scalar
// read has an empty shape.
func (v *Value) Shape() []int64 {
	return v.shape
}

// Len returns the number of elements.
func (v *Value) Len() int {
	n := int64(1)
	for _, d := range v.shape {
		n *= d
	}
	return int(n)
}

// Data returns the flat backing slice ([]uint8, []float64, []string, ...).
func (v *Value) Data() interface{} {
	return v.data
}

// Strings returns the backing slice for a String value.
func (v *Value) Strings() ([]string, bool) {
	s, ok := v.data.([]string)
	return s, ok
}

// Bools returns the backing slice for a Bool value.
func (v *Value) Bools() ([]bool, bool) {
	b, ok := v.data.([]bool)
	return b, ok
}

// Float64s returns the backing slice for a Float64 value.
func (v *Value) Float64s() ([]float64, bool) {
	f, ok := v.data.([]float64)
	return f, ok
}

// Int64s returns the backing slice for an Int64 value.
func (v *Value) Int64s() ([]int64, bool) {
	i, ok := v.data.([]int64)
	return i, ok
}
