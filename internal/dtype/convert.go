package dtype

// On-disk element bytes become Go values here. Convert dispatches on
// the datatype class; each converter walks the buffer element by
// element through reflection. Fixed-point and float-point types whose
// byte order and width already match the destination slice skip the
// reflection walk and memcpy instead (canDirectCopy, directCopy).
// Variable-length strings hold global heap references rather than
// inline bytes and need a file reader to resolve.

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"reflect"
	"unsafe"

	binpkg "github.com/robert-malhotra/h5data/internal/binary"
	"github.com/robert-malhotra/h5data/internal/heap"
	"github.com/robert-malhotra/h5data/internal/message"
)

// Convert decodes raw element bytes into dest, which must point at a
// slice of a matching Go type. Variable-length data cannot be decoded
// this way; use ConvertWithReader.
func Convert(dt *message.Datatype, data []byte, numElements uint64, dest interface{}) error {
	return ConvertWithReader(dt, data, numElements, dest, nil)
}

// ConvertWithReader is Convert plus a file reader so global heap
// references in variable-length data can be chased.
func ConvertWithReader(dt *message.Datatype, data []byte, numElements uint64, dest interface{}, reader *binpkg.Reader) error {
	if dt == nil {
		return fmt.Errorf("nil datatype")
	}

	destVal := reflect.ValueOf(dest)
	if destVal.Kind() != reflect.Ptr {
		return fmt.Errorf("dest must be a pointer")
	}

	elemVal := destVal.Elem()

	switch dt.Class {
	case message.ClassFixedPoint:
		return convertFixedPoint(dt, data, numElements, elemVal)
	case message.ClassFloatPoint:
		return convertFloatPoint(dt, data, numElements, elemVal)
	case message.ClassString:
		return convertString(dt, data, numElements, elemVal)
	case message.ClassVarLen:
		return convertVarLen(dt, data, numElements, elemVal, reader)
	case message.ClassCompound:
		return convertCompound(dt, data, numElements, elemVal, reader)
	case message.ClassArray:
		return convertArray(dt, data, numElements, elemVal, reader)
	case message.ClassEnum:
		return convertEnum(dt, data, numElements, elemVal)
	case message.ClassBitfield:
		return convertBitfield(dt, data, numElements, elemVal)
	case message.ClassOpaque:
		return convertOpaque(dt, data, numElements, elemVal)
	default:
		return fmt.Errorf("unsupported datatype class for conversion: %d", dt.Class)
	}
}

// ConvertToSlice allocates and fills a slice of the requested type.
func ConvertToSlice[T any](dt *message.Datatype, data []byte, numElements uint64) ([]T, error) {
	result := make([]T, numElements)
	if err := Convert(dt, data, numElements, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// ensureSlice grows a slice destination to hold n elements. Non-slice
// destinations pass through untouched.
func ensureSlice(dest reflect.Value, n uint64) {
	if dest.Kind() == reflect.Slice && dest.Len() < int(n) {
		dest.Set(reflect.MakeSlice(dest.Type(), int(n), int(n)))
	}
}

// forEachElem slices data into size-byte elements and calls fn for
// each, stopping quietly at a short tail.
func forEachElem(data []byte, n uint64, size int, fn func(i int, elem []byte) error) error {
	for i := 0; i < int(n); i++ {
		offset := i * size
		if offset+size > len(data) {
			return nil
		}
		if err := fn(i, data[offset:offset+size]); err != nil {
			return err
		}
	}
	return nil
}

// decodeInt boxes one stored integer, picking the signed or unsigned
// Go type of the stored width.
func decodeInt(elem []byte, size int, signed bool, order binary.ByteOrder) (interface{}, error) {
	switch size {
	case 1:
		if signed {
			return int8(elem[0]), nil
		}
		return elem[0], nil
	case 2:
		v := order.Uint16(elem)
		if signed {
			return int16(v), nil
		}
		return v, nil
	case 4:
		v := order.Uint32(elem)
		if signed {
			return int32(v), nil
		}
		return v, nil
	case 8:
		v := order.Uint64(elem)
		if signed {
			return int64(v), nil
		}
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported integer size: %d", size)
	}
}

// decodeFloat boxes one stored IEEE float.
func decodeFloat(elem []byte, size int, order binary.ByteOrder) (interface{}, error) {
	switch size {
	case 4:
		return math.Float32frombits(order.Uint32(elem)), nil
	case 8:
		return math.Float64frombits(order.Uint64(elem)), nil
	default:
		return nil, fmt.Errorf("unsupported float size: %d", size)
	}
}

// setBoxed stores a boxed value into slice index i, converting to the
// element type.
func setBoxed(dest reflect.Value, i int, val interface{}) {
	if dest.Kind() == reflect.Slice {
		dest.Index(i).Set(reflect.ValueOf(val).Convert(dest.Type().Elem()))
	}
}

func convertFixedPoint(dt *message.Datatype, data []byte, n uint64, dest reflect.Value) error {
	order := ByteOrder(dt)
	size := int(dt.Size)

	if dest.Kind() == reflect.Slice && dest.CanSet() && canDirectCopy(dt, dest.Type().Elem()) {
		return directCopy(data, n, size, dest)
	}

	ensureSlice(dest, n)

	return forEachElem(data, n, size, func(i int, elem []byte) error {
		val, err := decodeInt(elem, size, dt.Signed, order)
		if err != nil {
			return err
		}
		setBoxed(dest, i, val)
		return nil
	})
}

func convertFloatPoint(dt *message.Datatype, data []byte, n uint64, dest reflect.Value) error {
	order := ByteOrder(dt)
	size := int(dt.Size)

	if dest.Kind() == reflect.Slice && canDirectCopy(dt, dest.Type().Elem()) {
		return directCopy(data, n, size, dest)
	}

	ensureSlice(dest, n)

	return forEachElem(data, n, size, func(i int, elem []byte) error {
		val, err := decodeFloat(elem, size, order)
		if err != nil {
			return err
		}
		setBoxed(dest, i, val)
		return nil
	})
}

// trimFixedString cuts a fixed-width string at its first NUL and, for
// space-padded types, drops trailing blanks too.
func trimFixedString(raw []byte, padding message.StringPadding) string {
	if i := bytes.IndexByte(raw, 0); i >= 0 {
		raw = raw[:i]
	}
	if padding == message.PadSpacePad {
		raw = bytes.TrimRight(raw, " ")
	}
	return string(raw)
}

func convertString(dt *message.Datatype, data []byte, n uint64, dest reflect.Value) error {
	ensureSlice(dest, n)

	return forEachElem(data, n, int(dt.Size), func(i int, elem []byte) error {
		str := trimFixedString(elem, dt.StringPadding)
		if dest.Kind() == reflect.Slice {
			dest.Index(i).SetString(str)
		} else if dest.Kind() == reflect.String {
			dest.SetString(str)
		}
		return nil
	})
}

func convertVarLen(dt *message.Datatype, data []byte, n uint64, dest reflect.Value, reader *binpkg.Reader) error {
	if dt.IsVarLenString {
		return convertVarLenString(dt, data, n, dest, reader)
	}

	return fmt.Errorf("variable-length data type not fully supported (IsVarLenString=%v)", dt.IsVarLenString)
}

// convertVarLenString resolves heap references of the form
// length(4) + collection address(offsetSize) + object index(4).
func convertVarLenString(dt *message.Datatype, data []byte, n uint64, dest reflect.Value, reader *binpkg.Reader) error {
	ensureSlice(dest, n)

	offsetSize := 8
	if reader != nil {
		offsetSize = reader.OffsetSize()
	}

	refSize := 4 + offsetSize + 4

	// Strings in one dataset usually share a collection; cache it.
	heapCache := make(map[uint64]*heap.GlobalHeap)

	setStr := func(i int, s string) {
		if dest.Kind() == reflect.Slice && dest.Type().Elem().Kind() == reflect.String {
			dest.Index(i).SetString(s)
		} else if dest.Kind() == reflect.String && i == 0 {
			dest.SetString(s)
		}
	}

	return forEachElem(data, n, refSize, func(i int, refData []byte) error {
		// The leading length duplicates what the heap records; the heap
		// ID after it is what locates the bytes.
		heapID, err := heap.ParseGlobalHeapID(refData[4:], offsetSize)
		if err != nil {
			return fmt.Errorf("parsing global heap ID for element %d: %w", i, err)
		}

		// Address 0 is a null reference.
		if heapID.CollectionAddress == 0 {
			setStr(i, "")
			return nil
		}

		if reader == nil {
			return fmt.Errorf("variable-length string reading requires file reader (global heap at 0x%x)", heapID.CollectionAddress)
		}

		gh, ok := heapCache[heapID.CollectionAddress]
		if !ok {
			gh, err = heap.ReadGlobalHeap(reader, heapID.CollectionAddress)
			if err != nil {
				return fmt.Errorf("reading global heap at 0x%x: %w", heapID.CollectionAddress, err)
			}
			heapCache[heapID.CollectionAddress] = gh
		}

		str, err := gh.GetString(uint16(heapID.ObjectIndex))
		if err != nil {
			return fmt.Errorf("getting string from heap (index %d): %w", heapID.ObjectIndex, err)
		}

		setStr(i, str)
		return nil
	})
}

// convertCompound turns each element into a map keyed by member name,
// pulling member bytes out by their recorded offsets.
func convertCompound(dt *message.Datatype, data []byte, n uint64, dest reflect.Value, reader *binpkg.Reader) error {
	ensureSlice(dest, n)

	return forEachElem(data, n, int(dt.Size), func(i int, elemData []byte) error {
		result, err := convertCompoundElem(dt, elemData, reader)
		if err != nil {
			return err
		}

		if dest.Kind() == reflect.Slice {
			switch dest.Type().Elem().Kind() {
			case reflect.Map, reflect.Interface:
				dest.Index(i).Set(reflect.ValueOf(result))
			}
		} else if dest.Kind() == reflect.Map && i == 0 {
			for k, v := range result {
				dest.SetMapIndex(reflect.ValueOf(k), reflect.ValueOf(v))
			}
		} else if dest.Kind() == reflect.Interface && i == 0 {
			dest.Set(reflect.ValueOf(result))
		}
		return nil
	})
}

// convertCompoundElem maps one compound element's members to boxed Go
// values. Members whose bytes fall outside the element are skipped.
func convertCompoundElem(dt *message.Datatype, elemData []byte, reader *binpkg.Reader) (map[string]interface{}, error) {
	result := make(map[string]interface{})

	for _, member := range dt.Members {
		if member.Type == nil {
			continue
		}

		memberOffset := int(member.ByteOffset)
		memberSize := int(member.Type.Size)
		if memberOffset+memberSize > len(elemData) {
			continue
		}

		memberData := elemData[memberOffset : memberOffset+memberSize]
		memberValue, err := convertMemberValue(member.Type, memberData, reader)
		if err != nil {
			return nil, fmt.Errorf("converting compound member %q: %w", member.Name, err)
		}
		result[member.Name] = memberValue
	}

	return result, nil
}

// convertMemberValue decodes one compound member into a boxed Go value.
func convertMemberValue(dt *message.Datatype, data []byte, reader *binpkg.Reader) (interface{}, error) {
	switch dt.Class {
	case message.ClassFixedPoint:
		return decodeInt(data, int(dt.Size), dt.Signed, ByteOrder(dt))
	case message.ClassFloatPoint:
		return decodeFloat(data, int(dt.Size), ByteOrder(dt))
	case message.ClassString:
		size := int(dt.Size)
		if size > len(data) {
			size = len(data)
		}
		return trimFixedString(data[:size], dt.StringPadding), nil
	case message.ClassCompound:
		return convertCompoundElem(dt, data, reader)
	}
	return nil, fmt.Errorf("unsupported member type class: %d", dt.Class)
}

// decodeNumericArray reads count base-type values out of elem as a
// boxed slice of the corresponding Go type.
func decodeNumericArray(base *message.Datatype, elem []byte, count uint64) (interface{}, error) {
	order := ByteOrder(base)
	size := int(base.Size)

	switch base.Class {
	case message.ClassFixedPoint:
		switch {
		case base.Signed && size == 4:
			arr := make([]int32, count)
			for j := range arr {
				arr[j] = int32(order.Uint32(elem[j*4:]))
			}
			return arr, nil
		case base.Signed && size == 8:
			arr := make([]int64, count)
			for j := range arr {
				arr[j] = int64(order.Uint64(elem[j*8:]))
			}
			return arr, nil
		case !base.Signed && size == 4:
			arr := make([]uint32, count)
			for j := range arr {
				arr[j] = order.Uint32(elem[j*4:])
			}
			return arr, nil
		case !base.Signed && size == 8:
			arr := make([]uint64, count)
			for j := range arr {
				arr[j] = order.Uint64(elem[j*8:])
			}
			return arr, nil
		default:
			return nil, fmt.Errorf("unsupported array element size: %d", size)
		}
	case message.ClassFloatPoint:
		switch size {
		case 4:
			arr := make([]float32, count)
			for j := range arr {
				arr[j] = math.Float32frombits(order.Uint32(elem[j*4:]))
			}
			return arr, nil
		case 8:
			arr := make([]float64, count)
			for j := range arr {
				arr[j] = math.Float64frombits(order.Uint64(elem[j*8:]))
			}
			return arr, nil
		default:
			return nil, fmt.Errorf("unsupported array float size: %d", size)
		}
	default:
		return nil, fmt.Errorf("unsupported array base type: %d", base.Class)
	}
}

// convertArray handles fixed-shape array elements. Each dataset element
// becomes a Go slice of the numeric base type.
func convertArray(dt *message.Datatype, data []byte, n uint64, dest reflect.Value, reader *binpkg.Reader) error {
	if dt.BaseType == nil || len(dt.ArrayDims) == 0 {
		return fmt.Errorf("invalid array type: missing base type or dimensions")
	}

	arrayElements := uint64(1)
	for _, dim := range dt.ArrayDims {
		arrayElements *= uint64(dim)
	}

	ensureSlice(dest, n)

	return forEachElem(data, n, int(dt.Size), func(i int, elem []byte) error {
		arrayResult, err := decodeNumericArray(dt.BaseType, elem, arrayElements)
		if err != nil {
			return err
		}

		if dest.Kind() == reflect.Slice {
			dest.Index(i).Set(reflect.ValueOf(arrayResult))
		} else if dest.Kind() == reflect.Interface && i == 0 {
			dest.Set(reflect.ValueOf(arrayResult))
		}
		return nil
	})
}

// convertEnum widens enum values to their underlying integer type.
func convertEnum(dt *message.Datatype, data []byte, n uint64, dest reflect.Value) error {
	order := ByteOrder(dt)
	size := int(dt.Size)

	ensureSlice(dest, n)

	return forEachElem(data, n, size, func(i int, elem []byte) error {
		var val interface{}
		switch size {
		case 1:
			val = int32(int8(elem[0]))
		case 2:
			val = int32(int16(order.Uint16(elem)))
		case 4:
			val = int32(order.Uint32(elem))
		case 8:
			val = int64(order.Uint64(elem))
		default:
			return fmt.Errorf("unsupported enum size: %d", size)
		}
		setBoxed(dest, i, val)
		return nil
	})
}

// convertBitfield treats bitfield elements as unsigned integers.
func convertBitfield(dt *message.Datatype, data []byte, n uint64, dest reflect.Value) error {
	order := ByteOrder(dt)
	size := int(dt.Size)

	ensureSlice(dest, n)

	return forEachElem(data, n, size, func(i int, elem []byte) error {
		val, err := decodeInt(elem, size, false, order)
		if err != nil {
			return fmt.Errorf("unsupported bitfield size: %d", size)
		}
		setBoxed(dest, i, val)
		return nil
	})
}

// convertOpaque copies each opaque element out as its own byte slice.
func convertOpaque(dt *message.Datatype, data []byte, n uint64, dest reflect.Value) error {
	ensureSlice(dest, n)

	return forEachElem(data, n, int(dt.Size), func(i int, elem []byte) error {
		if dest.Kind() == reflect.Slice {
			dest.Index(i).Set(reflect.ValueOf(append([]byte(nil), elem...)))
		}
		return nil
	})
}

// canDirectCopy reports whether the stored representation already
// matches the in-memory one: little endian, same width, matching
// signedness or floatness.
func canDirectCopy(dt *message.Datatype, elemType reflect.Type) bool {
	if dt.ByteOrder != message.OrderLE {
		return false
	}

	if int(dt.Size) != int(elemType.Size()) {
		return false
	}

	switch dt.Class {
	case message.ClassFixedPoint:
		switch elemType.Kind() {
		case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return dt.Signed
		case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return !dt.Signed
		}
	case message.ClassFloatPoint:
		switch elemType.Kind() {
		case reflect.Float32, reflect.Float64:
			return true
		}
	}

	return false
}

// directCopy blasts the raw bytes straight into the destination
// slice's backing array.
func directCopy(data []byte, n uint64, size int, dest reflect.Value) error {
	needed := int(n) * size
	if needed > len(data) {
		return fmt.Errorf("not enough data: need %d bytes, have %d", needed, len(data))
	}

	if dest.Len() < int(n) {
		dest.Set(reflect.MakeSlice(dest.Type(), int(n), int(n)))
	}

	sliceHeader := (*reflect.SliceHeader)(unsafe.Pointer(dest.UnsafeAddr()))
	destPtr := unsafe.Pointer(sliceHeader.Data)
	copy(unsafe.Slice((*byte)(destPtr), needed), data[:needed])

	return nil
}

// ReadScalar decodes the first element of data as a single value.
func ReadScalar[T any](dt *message.Datatype, data []byte) (T, error) {
	var zero T
	result := make([]T, 1)
	if err := Convert(dt, data, 1, &result); err != nil {
		return zero, err
	}
	return result[0], nil
}
