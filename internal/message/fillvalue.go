package message

import (
	"encoding/binary"
	"fmt"

	binpkg "github.com/robert-malhotra/h5data/internal/binary"
)

// FillValue is the fill value message (type 0x0005): the byte pattern
// unallocated dataset regions read back as.
type FillValue struct {
	Version        uint8
	SpaceAllocTime uint8
	FillWriteTime  uint8
	IsDefined      bool
	Size           uint32
	Value          []byte
}

func (m *FillValue) Type() Type { return TypeFillValue }

func parseFillValue(data []byte, r *binpkg.Reader) (*FillValue, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("fill value message too short")
	}

	fv := &FillValue{
		Version: data[0],
	}

	switch fv.Version {
	case 1, 2:
		return parseFillValueV1V2(data, fv)
	case 3:
		return parseFillValueV3(data, fv)
	default:
		return nil, fmt.Errorf("unsupported fill value version: %d", fv.Version)
	}
}

// Versions 1 and 2 spell the allocation time, write time and defined
// flag as whole bytes, then the value size and bytes when defined.
func parseFillValueV1V2(data []byte, fv *FillValue) (*FillValue, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("fill value v1/v2 too short")
	}

	fv.SpaceAllocTime = data[1]
	fv.FillWriteTime = data[2]
	fv.IsDefined = data[3] != 0

	if fv.IsDefined && len(data) >= 8 {
		fv.Size = binary.LittleEndian.Uint32(data[4:8])
		if len(data) >= 8+int(fv.Size) {
			fv.Value = append([]byte(nil), data[8:8+fv.Size]...)
		}
	}

	return fv, nil
}

// Version 3 packs everything into a flag byte: allocation time in
// bits 0-1, write time in bits 2-3, bit 4 set when the value is
// undefined, bit 5 set when value bytes follow.
func parseFillValueV3(data []byte, fv *FillValue) (*FillValue, error) {
	flags := data[1]
	fv.SpaceAllocTime = flags & 0x03
	fv.FillWriteTime = (flags >> 2) & 0x03
	fv.IsDefined = (flags>>4)&0x01 == 0

	offset := 2
	if fv.IsDefined && (flags>>5)&0x01 != 0 {
		if offset+4 > len(data) {
			return nil, fmt.Errorf("fill value v3 size truncated")
		}
		fv.Size = binary.LittleEndian.Uint32(data[offset:])
		offset += 4

		if offset+int(fv.Size) > len(data) {
			return nil, fmt.Errorf("fill value v3 data truncated")
		}
		fv.Value = append([]byte(nil), data[offset:offset+int(fv.Size)]...)
	}

	return fv, nil
}
