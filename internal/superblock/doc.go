// Package superblock locates and parses the HDF5 superblock, the entry
// point of every HDF5 file.
//
// The superblock starts with the 8-byte signature 0x89 "HDF" CR LF 0x1a
// LF and may sit at offset 0, 512, 1024, or 2048; [Read] probes those
// offsets in order. [ErrNotHDF5] means no signature was found.
//
// Versions 0 through 3 are supported. V0/v1 superblocks use fixed-size
// fields and reference the root group through a symbol table entry;
// v2/v3 are the compact modern form that points straight at the root
// group's object header (v3 only changes the consistency-flag
// semantics). The parsed [Superblock] carries the offset and length
// sizes, base and end-of-file addresses, root group address, and the
// v0/v1 B-tree parameters when present.
//
// After parsing, ReaderConfig yields the sizing configuration a
// binary.Reader needs for the rest of the file:
//
//	sb, err := superblock.Read(file)
//	r := binary.NewReader(file, sb.ReaderConfig())
//
// [Write] emits the v2/v3 form for file creation.
package superblock
