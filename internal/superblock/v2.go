package superblock

import (
	"encoding/binary"
	"io"

	binpkg "github.com/robert-malhotra/h5data/internal/binary"
)

// Versions 2 and 3 share one layout: four single bytes after the
// signature, then base, extension, EOF and root group addresses at the
// offset width, then a lookup3 checksum over everything before it.
// Version 3 only widens the meaning of the consistency flags.

func readV2(r io.ReaderAt, offset int64) (*Superblock, error) {
	return readV2V3(r, offset)
}

func readV3(r io.ReaderAt, offset int64) (*Superblock, error) {
	return readV2V3(r, offset)
}

func readV2V3(r io.ReaderAt, offset int64) (*Superblock, error) {
	header := make([]byte, 4)
	if _, err := r.ReadAt(header, offset+8); err != nil {
		return nil, err
	}

	sb := &Superblock{
		Version:              header[0],
		OffsetSize:           header[1],
		LengthSize:           header[2],
		FileConsistencyFlags: header[3],
	}

	osize := int(sb.OffsetSize)
	pos := offset + 12
	addrBuf := make([]byte, osize)

	fields := []*uint64{
		&sb.BaseAddress,
		&sb.SuperblockExtensionAddress,
		&sb.EOFAddress,
		&sb.RootGroupAddress,
	}
	for _, field := range fields {
		if _, err := r.ReadAt(addrBuf, pos); err != nil {
			return nil, err
		}
		*field = decodeUint(addrBuf, osize)
		pos += int64(osize)
	}

	// The checksum covers the superblock from the signature up to the
	// checksum field itself.
	checksumData := make([]byte, pos-offset)
	if _, err := r.ReadAt(checksumData, offset); err != nil {
		return nil, err
	}

	checksumBuf := make([]byte, 4)
	if _, err := r.ReadAt(checksumBuf, pos); err != nil {
		return nil, err
	}

	stored := binary.LittleEndian.Uint32(checksumBuf)
	if stored != binpkg.Lookup3Checksum(checksumData) {
		return nil, ErrInvalidSuperblock
	}

	return sb, nil
}
