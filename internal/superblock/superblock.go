package superblock

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"

	binpkg "github.com/robert-malhotra/h5data/internal/binary"
)

// Signature opens every HDF5 file: 0x89 "HDF" CR LF 0x1a LF.
var Signature = []byte{0x89, 'H', 'D', 'F', '\r', '\n', 0x1a, '\n'}

// A file embedded in a user block places the superblock at a power of
// two offset, so the signature search probes these in order.
var superblockOffsets = []int64{0, 512, 1024, 2048}

var (
	ErrNotHDF5            = errors.New("not an HDF5 file: signature not found")
	ErrUnsupportedVersion = errors.New("unsupported superblock version")
	ErrInvalidSuperblock  = errors.New("invalid superblock structure")
)

// Superblock carries the file-wide metadata every other structure
// depends on: field widths, the root group location and the end of
// file address.
type Superblock struct {
	// Version is 0 through 3.
	Version uint8

	// OffsetSize and LengthSize set the width of file offsets and
	// length fields throughout the file.
	OffsetSize uint8
	LengthSize uint8

	// FileConsistencyFlags only appears from version 2 on.
	FileConsistencyFlags uint8

	// BaseAddress is the file address of byte 0, nonzero when the HDF5
	// data is embedded after a user block.
	BaseAddress uint64

	SuperblockExtensionAddress uint64

	// EOFAddress is the logical end of file.
	EOFAddress uint64

	// RootGroupAddress is the root group's object header address.
	RootGroupAddress uint64

	// Version 0 and 1 fields. The scratch pad addresses come from the
	// root group symbol table entry and let the root group be walked
	// without a symbol table message.
	GroupLeafNodeK              uint16
	GroupInternalNodeK          uint16
	IndexedStorageK             uint16
	FreeSpaceManagerVersion     uint8
	RootGroupSymbolTableAddress uint64
	RootGroupBTreeAddress       uint64
	RootGroupLocalHeapAddress   uint64

	// HDF5 metadata is always little endian.
	ByteOrder binary.ByteOrder

	// FileOffset is where the signature was found.
	FileOffset int64
}

// Read searches the standard offsets for the signature and parses
// whichever superblock version follows it.
func Read(r io.ReaderAt) (*Superblock, error) {
	for _, offset := range superblockOffsets {
		probe := make([]byte, 9)
		if _, err := r.ReadAt(probe, offset); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				continue
			}
			return nil, err
		}
		if !bytes.Equal(probe[:8], Signature) {
			continue
		}

		parse, ok := versionParsers[probe[8]]
		if !ok {
			return nil, ErrUnsupportedVersion
		}
		sb, err := parse(r, offset)
		if err != nil {
			return nil, err
		}
		sb.FileOffset = offset
		sb.ByteOrder = binary.LittleEndian
		return sb, nil
	}
	return nil, ErrNotHDF5
}

var versionParsers = map[uint8]func(io.ReaderAt, int64) (*Superblock, error){
	0: readV0,
	1: readV1,
	2: readV2,
	3: readV3,
}

// ReaderConfig derives the reader configuration the rest of the file
// must be parsed with.
func (sb *Superblock) ReaderConfig() binpkg.Config {
	return binpkg.Config{
		ByteOrder:  sb.ByteOrder,
		OffsetSize: int(sb.OffsetSize),
		LengthSize: int(sb.LengthSize),
	}
}

// decodeUint reads a little endian unsigned integer of any width.
func decodeUint(buf []byte, size int) uint64 {
	switch size {
	case 2:
		return uint64(binary.LittleEndian.Uint16(buf))
	case 4:
		return uint64(binary.LittleEndian.Uint32(buf))
	case 8:
		return binary.LittleEndian.Uint64(buf)
	default:
		var val uint64
		for i := 0; i < size; i++ {
			val |= uint64(buf[i]) << (8 * i)
		}
		return val
	}
}
