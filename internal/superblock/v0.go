package superblock

import (
	"io"
)

// The v0 superblock carries, after the 8-byte signature: version bytes
// for the superblock, free-space storage and symbol table entry, the
// offset and length widths, the group B-tree K values, consistency
// flags, then four offset-width addresses (base, free-space info, EOF,
// driver info) and the root group symbol table entry. The entry itself
// is a link name offset, the object header address and 32 bytes of
// cache scratch space.

// readV0 parses a version 0 superblock.
func readV0(r io.ReaderAt, offset int64) (*Superblock, error) {
	// Fixed fields between the signature and the address block.
	header := make([]byte, 16)
	if _, err := r.ReadAt(header, offset+8); err != nil {
		return nil, err
	}

	sb := &Superblock{
		Version:                 header[0],
		FreeSpaceManagerVersion: header[1],
		// header[2..4] are the symbol table entry version, a
		// reserved byte and the shared message format version.
		OffsetSize: header[5],
		LengthSize: header[6],
		// header[7] is reserved.
		GroupLeafNodeK:     uint16(header[8]) | uint16(header[9])<<8,
		GroupInternalNodeK: uint16(header[10]) | uint16(header[11])<<8,
		// header[12:16] holds the file consistency flags.
	}

	osize := int(sb.OffsetSize)

	pos := offset + 24
	addrBuf := make([]byte, osize)

	if _, err := r.ReadAt(addrBuf, pos); err != nil {
		return nil, err
	}
	sb.BaseAddress = decodeUint(addrBuf, osize)
	pos += int64(osize)

	// Free-space info address, unused here.
	pos += int64(osize)

	if _, err := r.ReadAt(addrBuf, pos); err != nil {
		return nil, err
	}
	sb.EOFAddress = decodeUint(addrBuf, osize)
	pos += int64(osize)

	// Driver info block address, unused here.
	pos += int64(osize)

	// Symbol table entry: skip the link name offset, then read the
	// object header address.
	pos += int64(osize)

	if _, err := r.ReadAt(addrBuf, pos); err != nil {
		return nil, err
	}
	sb.RootGroupAddress = decodeUint(addrBuf, osize)
	sb.RootGroupSymbolTableAddress = sb.RootGroupAddress

	return sb, nil
}

// readV1 parses a version 1 superblock, which extends v0 with the
// indexed storage B-tree K value.
func readV1(r io.ReaderAt, offset int64) (*Superblock, error) {
	header := make([]byte, 16)
	if _, err := r.ReadAt(header, offset+8); err != nil {
		return nil, err
	}

	sb := &Superblock{
		Version:                 header[0],
		FreeSpaceManagerVersion: header[1],
		OffsetSize:              header[5],
		LengthSize:              header[6],
		GroupLeafNodeK:          uint16(header[8]) | uint16(header[9])<<8,
		GroupInternalNodeK:      uint16(header[10]) | uint16(header[11])<<8,
	}

	osize := int(sb.OffsetSize)

	kBuf := make([]byte, 2)
	if _, err := r.ReadAt(kBuf, offset+24); err != nil {
		return nil, err
	}
	sb.IndexedStorageK = uint16(kBuf[0]) | uint16(kBuf[1])<<8

	// The K value is followed by two reserved bytes.
	pos := offset + 28
	addrBuf := make([]byte, osize)

	if _, err := r.ReadAt(addrBuf, pos); err != nil {
		return nil, err
	}
	sb.BaseAddress = decodeUint(addrBuf, osize)
	pos += int64(osize)

	// Free-space info address, unused here.
	pos += int64(osize)

	if _, err := r.ReadAt(addrBuf, pos); err != nil {
		return nil, err
	}
	sb.EOFAddress = decodeUint(addrBuf, osize)
	pos += int64(osize)

	// Driver info block address, unused here.
	pos += int64(osize)

	// Skip the entry's link name offset, then read the object header
	// address.
	pos += int64(osize)

	if _, err := r.ReadAt(addrBuf, pos); err != nil {
		return nil, err
	}
	sb.RootGroupAddress = decodeUint(addrBuf, osize)
	sb.RootGroupSymbolTableAddress = sb.RootGroupAddress

	return sb, nil
}
