package hdf5

import (
	"fmt"

	"github.com/robert-malhotra/h5data/internal/binary"
	"github.com/robert-malhotra/h5data/internal/dtype"
	"github.com/robert-malhotra/h5data/internal/message"
)

// Attribute is a named value attached to a group or dataset. The value
// bytes live inline in the attribute message; only variable-length
// types reach back into the file, through the retained reader.
type Attribute struct {
	msg    *message.Attribute
	reader *binary.Reader
}

// Name reports the attribute's name.
func (a *Attribute) Name() string {
	return a.msg.Name
}

// Shape reports the value's dimensions, nil for scalars.
func (a *Attribute) Shape() []uint64 {
	if a.msg.Dataspace == nil || a.msg.Dataspace.IsScalar() {
		return nil
	}
	return a.msg.Dataspace.Dimensions
}

// NumElements reports how many elements the value holds.
func (a *Attribute) NumElements() uint64 {
	if a.msg.Dataspace == nil {
		return 1
	}
	return a.msg.Dataspace.NumElements()
}

// IsScalar reports whether the value is a single element.
func (a *Attribute) IsScalar() bool {
	if a.msg.Dataspace == nil {
		return true
	}
	return a.msg.Dataspace.IsScalar()
}

// DtypeClass reports the stored datatype class.
func (a *Attribute) DtypeClass() message.DatatypeClass {
	if a.msg.Datatype == nil {
		return 0
	}
	return a.msg.Datatype.Class
}

// IsCompound reports whether the datatype is a compound type.
func (a *Attribute) IsCompound() bool {
	return a.msg.Datatype != nil && a.msg.Datatype.Class == message.ClassCompound
}

// IsArray reports whether the datatype is an array type.
func (a *Attribute) IsArray() bool {
	return a.msg.Datatype != nil && a.msg.Datatype.Class == message.ClassArray
}

// Read decodes the value into dest, a pointer to a slice of a matching
// Go type.
func (a *Attribute) Read(dest interface{}) error {
	if a.msg.Datatype == nil {
		return fmt.Errorf("attribute has no datatype")
	}
	if a.msg.Data == nil {
		return fmt.Errorf("attribute has no data")
	}

	return dtype.ConvertWithReader(a.msg.Datatype, a.msg.Data, a.NumElements(), dest, a.reader)
}

// attrValues decodes the whole value as a slice of T, with the usual
// integer widening rules.
func attrValues[T any](a *Attribute) ([]T, error) {
	var vals []T
	err := a.Read(&vals)
	return vals, err
}

// firstValue unwraps single-element reads for the scalar accessors.
func firstValue[T any](vals []T, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	if len(vals) == 0 {
		return zero, fmt.Errorf("no values in attribute")
	}
	return vals[0], nil
}

func (a *Attribute) ReadFloat64() ([]float64, error) { return attrValues[float64](a) }
func (a *Attribute) ReadFloat32() ([]float32, error) { return attrValues[float32](a) }
func (a *Attribute) ReadInt64() ([]int64, error)     { return attrValues[int64](a) }
func (a *Attribute) ReadInt32() ([]int32, error)     { return attrValues[int32](a) }
func (a *Attribute) ReadString() ([]string, error)   { return attrValues[string](a) }

// ReadScalarInt64 decodes a single-element integer attribute.
func (a *Attribute) ReadScalarInt64() (int64, error) {
	return firstValue(a.ReadInt64())
}

// ReadScalarFloat64 decodes a single-element float attribute.
func (a *Attribute) ReadScalarFloat64() (float64, error) {
	return firstValue(a.ReadFloat64())
}

// ReadScalarString decodes a single-element string attribute.
func (a *Attribute) ReadScalarString() (string, error) {
	return firstValue(a.ReadString())
}

// ReadCompound decodes a compound-typed value as maps keyed by member name.
func (a *Attribute) ReadCompound() ([]map[string]interface{}, error) {
	raw, err := attrValues[interface{}](a)
	if err != nil {
		return nil, err
	}

	maps := make([]map[string]interface{}, len(raw))
	for i, v := range raw {
		m, ok := v.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("element %d is not a map: %T", i, v)
		}
		maps[i] = m
	}
	return maps, nil
}

// ReadScalarCompound decodes a single-element compound attribute.
func (a *Attribute) ReadScalarCompound() (map[string]interface{}, error) {
	return firstValue(a.ReadCompound())
}

// ReadArray decodes an array-typed value; the concrete slice type
// follows the array's base type.
func (a *Attribute) ReadArray() (interface{}, error) {
	var result interface{}
	err := a.Read(&result)
	return result, err
}

// unwrapScalar collapses a one-element slice to its value when the
// dataspace is scalar.
func unwrapScalar[T any](a *Attribute, vals []T, err error) (interface{}, error) {
	if err != nil {
		return nil, err
	}
	if a.IsScalar() && len(vals) == 1 {
		return vals[0], nil
	}
	return vals, nil
}

// Value decodes to a Go value picked from the datatype class: integers
// widen to int64 or uint64, floats to float64, strings stay strings,
// compounds become member maps. Scalars come back as a single value,
// everything else as a slice.
func (a *Attribute) Value() (interface{}, error) {
	if a.msg.Datatype == nil {
		return nil, fmt.Errorf("attribute has no datatype")
	}

	switch a.msg.Datatype.Class {
	case message.ClassFixedPoint:
		if a.msg.Datatype.Signed {
			vals, err := a.ReadInt64()
			return unwrapScalar(a, vals, err)
		}
		vals, err := attrValues[uint64](a)
		return unwrapScalar(a, vals, err)

	case message.ClassFloatPoint:
		vals, err := a.ReadFloat64()
		return unwrapScalar(a, vals, err)

	case message.ClassString:
		vals, err := a.ReadString()
		return unwrapScalar(a, vals, err)

	case message.ClassVarLen:
		if a.msg.Datatype.IsVarLenString {
			vals, err := a.ReadString()
			return unwrapScalar(a, vals, err)
		}
		return a.ReadArray()

	case message.ClassCompound:
		vals, err := a.ReadCompound()
		return unwrapScalar(a, vals, err)

	case message.ClassEnum:
		vals, err := a.ReadInt64()
		return unwrapScalar(a, vals, err)

	default:
		return a.ReadArray()
	}
}
