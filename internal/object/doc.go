// Package object reads and writes HDF5 object headers.
//
// Every object in an HDF5 file carries a header holding its metadata as
// header messages. [Read] parses a header at a known file address,
// autodetecting the version: v1 headers (older files, 8-byte aligned
// messages, continuation blocks in a linked list) and v2 headers
// (signature "OHDR", variable-size message prefixes, optional
// timestamps and checksums).
//
// The parsed [Header] exposes the common messages directly
// (Dataspace, Datatype, DataLayout, FilterPipeline) and generic access
// through GetMessage and GetMessages for everything else, attributes
// included.
//
// Read failures surface as [ErrInvalidHeader], [ErrUnsupportedVersion],
// or [ErrChecksumMismatch] when a v2 checksum does not verify.
//
// For writing, NewDatasetHeader and WriteHeader assemble and emit v2
// headers for freshly created objects.
package object
