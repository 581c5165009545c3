package dtype

import (
	"encoding/binary"
	"fmt"
	"math"
	"reflect"

	"github.com/robert-malhotra/h5data/internal/message"
)

// Encode serializes Go values into the on-disk representation of dt.
// src may be a slice, an array, a scalar, or a pointer to any of those.
func Encode(dt *message.Datatype, src interface{}) ([]byte, error) {
	if dt == nil {
		return nil, fmt.Errorf("nil datatype")
	}

	srcVal := reflect.ValueOf(src)
	if srcVal.Kind() == reflect.Ptr {
		srcVal = srcVal.Elem()
	}

	switch dt.Class {
	case message.ClassFixedPoint:
		return encodeFixedPoint(dt, srcVal)
	case message.ClassFloatPoint:
		return encodeFloatPoint(dt, srcVal)
	case message.ClassString:
		return encodeString(dt, srcVal)
	default:
		return nil, fmt.Errorf("unsupported datatype class for encoding: %d", dt.Class)
	}
}

// EncodeScalar serializes one value by encoding it as a length-1 slice.
func EncodeScalar(dt *message.Datatype, src interface{}) ([]byte, error) {
	srcVal := reflect.ValueOf(src)
	return Encode(dt, wrapScalar(srcVal).Interface())
}

// wrapScalar lifts a single value into a one-element slice of its type.
func wrapScalar(v reflect.Value) reflect.Value {
	s := reflect.MakeSlice(reflect.SliceOf(v.Type()), 1, 1)
	s.Index(0).Set(v)
	return s
}

// asSlice normalizes srcVal so element iteration always works.
func asSlice(srcVal reflect.Value) reflect.Value {
	switch srcVal.Kind() {
	case reflect.Slice, reflect.Array:
		return srcVal
	default:
		return wrapScalar(srcVal)
	}
}

// putBits writes the low size bytes of v at the datatype's width.
func putBits(order binary.ByteOrder, b []byte, v uint64, size int) error {
	switch size {
	case 1:
		b[0] = byte(v)
	case 2:
		order.PutUint16(b, uint16(v))
	case 4:
		order.PutUint32(b, uint32(v))
	case 8:
		order.PutUint64(b, v)
	default:
		return fmt.Errorf("unsupported element size: %d", size)
	}
	return nil
}

func encodeFixedPoint(dt *message.Datatype, srcVal reflect.Value) ([]byte, error) {
	order := ByteOrder(dt)
	size := int(dt.Size)
	srcVal = asSlice(srcVal)
	n := srcVal.Len()

	data := make([]byte, n*size)
	for i := 0; i < n; i++ {
		elem := srcVal.Index(i)

		var bits uint64
		switch elem.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			bits = uint64(elem.Int())
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			bits = elem.Uint()
		default:
			return nil, fmt.Errorf("cannot encode %v as fixed-point", elem.Kind())
		}

		if err := putBits(order, data[i*size:], bits, size); err != nil {
			return nil, err
		}
	}

	return data, nil
}

func encodeFloatPoint(dt *message.Datatype, srcVal reflect.Value) ([]byte, error) {
	order := ByteOrder(dt)
	size := int(dt.Size)
	srcVal = asSlice(srcVal)
	n := srcVal.Len()

	data := make([]byte, n*size)
	for i := 0; i < n; i++ {
		elem := srcVal.Index(i)

		switch elem.Kind() {
		case reflect.Float32, reflect.Float64:
		default:
			return nil, fmt.Errorf("cannot encode %v as float", elem.Kind())
		}

		var bits uint64
		if size == 4 {
			bits = uint64(math.Float32bits(float32(elem.Float())))
		} else {
			bits = math.Float64bits(elem.Float())
		}
		if err := putBits(order, data[i*size:], bits, size); err != nil {
			return nil, err
		}
	}

	return data, nil
}

func encodeString(dt *message.Datatype, srcVal reflect.Value) ([]byte, error) {
	size := int(dt.Size)

	switch srcVal.Kind() {
	case reflect.Slice, reflect.Array:
	case reflect.String:
		srcVal = wrapScalar(srcVal)
	default:
		return nil, fmt.Errorf("cannot encode %v as string", srcVal.Kind())
	}
	n := srcVal.Len()

	data := make([]byte, n*size)
	for i := 0; i < n; i++ {
		str := srcVal.Index(i).String()
		offset := i * size

		// Truncate to the fixed element width, then pad per the datatype's rule.
		copyLen := copy(data[offset:offset+size], str)

		switch dt.StringPadding {
		case message.PadNullTerm:
			if copyLen < size {
				data[offset+copyLen] = 0
			}
		case message.PadNullPad:
			// make already zeroed the buffer.
		case message.PadSpacePad:
			for j := copyLen; j < size; j++ {
				data[offset+j] = ' '
			}
		}
	}

	return data, nil
}

// GoTypeToDatatype maps a Go type onto the HDF5 datatype a writer would
// pick for it. Pointer, slice and array types describe their element type.
func GoTypeToDatatype(t reflect.Type) (*message.Datatype, error) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() == reflect.Slice || t.Kind() == reflect.Array {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return message.NewFixedPointDatatype(uint32(t.Size()), true, message.OrderLE), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return message.NewFixedPointDatatype(uint32(t.Size()), false, message.OrderLE), nil
	case reflect.Float32, reflect.Float64:
		return message.NewFloatDatatype(uint32(t.Size()), message.OrderLE), nil
	case reflect.String:
		// Strings have no natural fixed width, so use variable length.
		return message.NewVarLenStringDatatype(message.CharsetUTF8), nil
	default:
		return nil, fmt.Errorf("unsupported Go type: %v", t)
	}
}

// DataSize is the byte count n elements of dt occupy on disk.
func DataSize(dt *message.Datatype, n uint64) uint64 {
	return uint64(dt.Size) * n
}
