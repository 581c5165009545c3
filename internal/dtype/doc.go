// Package dtype converts between HDF5 element encodings and Go values.
//
// Reading uses [Convert] or, for datatypes that reference the global
// heap (variable-length strings and sequences), [ConvertWithReader]:
//
//	var values []float64
//	err := dtype.Convert(datatype, rawBytes, numElements, &values)
//
// Fixed-point types decode to the Go integer of matching width and
// signedness, floats to float32/float64, strings (fixed or varlen) to
// string, compounds to map[string]interface{} or a matching struct,
// arrays to slices of the element type, enums to their base integer
// type, bitfields to unsigned integers, and opaque data to []byte.
//
// Writing goes the other way: [Encode] produces the raw on-disk bytes
// for a Go value, and [GoTypeToDatatype] derives the HDF5 datatype for
// a Go type so the write path can round-trip what it is given.
//
// [GoType], [ByteOrder], and [ElementSize] expose the per-datatype
// facts (destination reflect.Type, endianness, element width) the
// layout and message packages need.
package dtype
