package readable

import (
	"fmt"

	"github.com/robert-malhotra/h5data/internal/message"
)

// defaultComplexNames are the compound member labels recognized as the
// real/imaginary pair of a complex number, matching the h5py convention.
var defaultComplexNames = [2]string{"r", "i"}

// resolveDType maps an on-disk datatype to a canonical DType. The mapping
// is strict: anything outside the closed canonical set is a typed
// resolution error for this dataset only.
func resolveDType(path string, dt *message.Datatype, complexNames [2]string) (DType, error) {
	switch dt.Class {
	case message.ClassFixedPoint:
		return resolveInteger(path, dt)

	case message.ClassFloatPoint:
		switch dt.Size {
		case 4:
			return Float32, nil
		case 8:
			return Float64, nil
		default:
			return Invalid, &ResolutionError{
				Path:   path,
				Detail: fmt.Sprintf("unsupported data type size %d", dt.Size),
			}
		}

	case message.ClassString:
		return String, nil

	case message.ClassVarLen:
		// Both variable-length strings and variable-length byte sequences
		// surface as text; decode strategy is chosen at read time.
		return String, nil

	case message.ClassCompound:
		return resolveCompound(path, dt, complexNames)

	case message.ClassEnum:
		return resolveEnum(path, dt)

	default:
		return Invalid, &ResolutionError{
			Path:   path,
			Detail: fmt.Sprintf("unsupported data class %d", dt.Class),
		}
	}
}

func resolveInteger(path string, dt *message.Datatype) (DType, error) {
	switch dt.Size {
	case 1:
		if dt.Signed {
			return Int8, nil
		}
		return Uint8, nil
	case 2:
		if dt.Signed {
			return Int16, nil
		}
		return Uint16, nil
	case 4:
		if dt.Signed {
			return Int32, nil
		}
		return Uint32, nil
	case 8:
		if dt.Signed {
			return Int64, nil
		}
		return Uint64, nil
	default:
		return Invalid, &ResolutionError{
			Path:   path,
			Detail: fmt.Sprintf("unsupported data type size %d", dt.Size),
		}
	}
}

// resolveCompound accepts only the two-member real/imaginary encoding of
// complex numbers: members named by complexNames in order, identical float
// types of width 4 or 8.
func resolveCompound(path string, dt *message.Datatype, complexNames [2]string) (DType, error) {
	if len(dt.Members) != 2 {
		return Invalid, &ResolutionError{
			Path:   path,
			Detail: fmt.Sprintf("unsupported compound members: %d", len(dt.Members)),
		}
	}

	m0, m1 := dt.Members[0], dt.Members[1]
	if m0.Name != complexNames[0] || m1.Name != complexNames[1] {
		return Invalid, &ResolutionError{
			Path:   path,
			Detail: fmt.Sprintf("unsupported compound member names: %s, %s", m0.Name, m1.Name),
		}
	}

	if m0.Type == nil || m1.Type == nil {
		return Invalid, &ResolutionError{Path: path, Detail: "compound member missing datatype"}
	}
	if m0.Type.Class != m1.Type.Class || m0.Type.Size != m1.Type.Size {
		return Invalid, &ResolutionError{
			Path: path,
			Detail: fmt.Sprintf("unsupported compound with different data type: %d, %d",
				m0.Type.Class, m1.Type.Class),
		}
	}
	if m0.Type.Class != message.ClassFloatPoint {
		return Invalid, &ResolutionError{
			Path:   path,
			Detail: fmt.Sprintf("unsupported compound with non-float data class: %d", m0.Type.Class),
		}
	}

	switch m0.Type.Size {
	case 4:
		return Complex64, nil
	case 8:
		return Complex128, nil
	default:
		return Invalid, &ResolutionError{
			Path:   path,
			Detail: fmt.Sprintf("unsupported data type size for compound: %d", m0.Type.Size),
		}
	}
}

// resolveEnum accepts only the boolean encoding: a 1-byte enum with exactly
// two members, FALSE at index 0 with value 0 and TRUE at index 1 with
// value 1. Anything else fails with the full member name list.
func resolveEnum(path string, dt *message.Datatype) (DType, error) {
	if err := validateBoolEnum(path, dt); err != nil {
		return Invalid, err
	}
	return Bool, nil
}

func validateBoolEnum(path string, dt *message.Datatype) error {
	if dt.Size == 1 && len(dt.EnumNames) == 2 &&
		dt.EnumNames[0] == "FALSE" && dt.EnumNames[1] == "TRUE" &&
		len(dt.EnumValues) == 2 &&
		dt.EnumValues[0] == 0 && dt.EnumValues[1] == 1 {
		return nil
	}
	members := make([]string, len(dt.EnumNames))
	copy(members, dt.EnumNames)
	return &UnsupportedEnumError{Path: path, Members: members}
}
