package dtype

import (
	"encoding/binary"
	"fmt"
	"reflect"
	"strings"

	"github.com/robert-malhotra/h5data/internal/message"
)

var (
	intTypes   = map[uint32]reflect.Type{1: reflect.TypeOf(int8(0)), 2: reflect.TypeOf(int16(0)), 4: reflect.TypeOf(int32(0)), 8: reflect.TypeOf(int64(0))}
	uintTypes  = map[uint32]reflect.Type{1: reflect.TypeOf(uint8(0)), 2: reflect.TypeOf(uint16(0)), 4: reflect.TypeOf(uint32(0)), 8: reflect.TypeOf(uint64(0))}
	floatTypes = map[uint32]reflect.Type{4: reflect.TypeOf(float32(0)), 8: reflect.TypeOf(float64(0))}
)

// GoType maps a file datatype to the reflect.Type its elements decode
// into. Compound types become anonymous structs, arrays become nested
// Go arrays, varlen sequences become slices.
func GoType(dt *message.Datatype) (reflect.Type, error) {
	if dt == nil {
		return nil, fmt.Errorf("nil datatype")
	}

	switch dt.Class {
	case message.ClassFixedPoint, message.ClassEnum:
		// An enum reads as its base integer type.
		return goTypeFixedPoint(dt)
	case message.ClassFloatPoint:
		return sizedType(floatTypes, dt.Size, "float")
	case message.ClassString:
		return reflect.TypeOf(""), nil
	case message.ClassCompound:
		return goTypeCompound(dt)
	case message.ClassArray:
		return goTypeArray(dt)
	case message.ClassVarLen:
		return goTypeVarLen(dt)
	default:
		return nil, fmt.Errorf("unsupported datatype class: %d", dt.Class)
	}
}

func sizedType(table map[uint32]reflect.Type, size uint32, what string) (reflect.Type, error) {
	if t, ok := table[size]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("unsupported %s size: %d", what, size)
}

func goTypeFixedPoint(dt *message.Datatype) (reflect.Type, error) {
	if dt.Signed {
		return sizedType(intTypes, dt.Size, "fixed-point")
	}
	return sizedType(uintTypes, dt.Size, "fixed-point")
}

func goTypeVarLen(dt *message.Datatype) (reflect.Type, error) {
	switch {
	case dt.IsVarLenString:
		return reflect.TypeOf(""), nil
	case dt.VarLenType != nil:
		elemType, err := GoType(dt.VarLenType)
		if err != nil {
			return nil, err
		}
		return reflect.SliceOf(elemType), nil
	}
	return reflect.TypeOf([]byte{}), nil
}

func goTypeCompound(dt *message.Datatype) (reflect.Type, error) {
	if len(dt.Members) == 0 {
		return nil, fmt.Errorf("compound type has no members")
	}

	fields := make([]reflect.StructField, len(dt.Members))
	for i, member := range dt.Members {
		memberType, err := GoType(member.Type)
		if err != nil {
			return nil, fmt.Errorf("compound member %q: %w", member.Name, err)
		}
		fields[i] = reflect.StructField{Name: exportName(member.Name), Type: memberType}
	}
	return reflect.StructOf(fields), nil
}

func goTypeArray(dt *message.Datatype) (reflect.Type, error) {
	if dt.BaseType == nil {
		return nil, fmt.Errorf("array type has no base type")
	}
	if len(dt.ArrayDims) == 0 {
		return nil, fmt.Errorf("array type has no dimensions")
	}

	result, err := GoType(dt.BaseType)
	if err != nil {
		return nil, err
	}
	// Wrap innermost dimension first.
	for i := len(dt.ArrayDims) - 1; i >= 0; i-- {
		result = reflect.ArrayOf(int(dt.ArrayDims[i]), result)
	}
	return result, nil
}

// exportName makes a member name usable as an exported struct field:
// first rune upper-cased, anything outside [A-Za-z0-9_] replaced with
// an underscore.
func exportName(name string) string {
	if name == "" {
		return "Field"
	}
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return '_'
	}, name)
	return strings.ToUpper(mapped[:1]) + mapped[1:]
}

// ByteOrder picks the binary.ByteOrder a datatype's values are stored
// in.
func ByteOrder(dt *message.Datatype) binary.ByteOrder {
	if dt.ByteOrder == message.OrderBE {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// ElementSize reports the stored size of one element in bytes.
func ElementSize(dt *message.Datatype) int {
	return int(dt.Size)
}

// IsNumeric reports whether the datatype is an integer or float class.
func IsNumeric(dt *message.Datatype) bool {
	return dt.Class == message.ClassFixedPoint || dt.Class == message.ClassFloatPoint
}
