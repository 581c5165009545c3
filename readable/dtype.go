package readable

import "fmt"

// DType identifies a canonical element type exposed by a Catalog. The set
// is closed: every supported on-disk datatype maps to exactly one DType,
// and datasets whose datatype cannot be mapped fail type resolution.
type DType int

const (
	Invalid DType = iota
	Uint8
	Uint16
	Uint32
	Uint64
	Int8
	Int16
	Int32
	Int64
	Float32
	Float64
	Complex64
	Complex128
	String
	Bool
)

var dtypeNames = map[DType]string{
	Invalid:    "invalid",
	Uint8:      "uint8",
	Uint16:     "uint16",
	Uint32:     "uint32",
	Uint64:     "uint64",
	Int8:       "int8",
	Int16:      "int16",
	Int32:      "int32",
	Int64:      "int64",
	Float32:    "float32",
	Float64:    "float64",
	Complex64:  "complex64",
	Complex128: "complex128",
	String:     "string",
	Bool:       "bool",
}

func (t DType) String() string {
	if name, ok := dtypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("DType(%d)", int(t))
}

// Size returns the in-memory element size in bytes, or 0 for String
// (variable) and Invalid.
func (t DType) Size() int {
	switch t {
	case Uint8, Int8, Bool:
		return 1
	case Uint16, Int16:
		return 2
	case Uint32, Int32, Float32:
		return 4
	case Uint64, Int64, Float64, Complex64:
		return 8
	case Complex128:
		return 16
	default:
		return 0
	}
}

// IsNumeric reports whether the type is an integer, float, or complex type.
func (t DType) IsNumeric() bool {
	switch t {
	case String, Bool, Invalid:
		return false
	default:
		return true
	}
}
