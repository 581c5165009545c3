// Package alloc manages file-space allocation for HDF5 writing.
//
// Everything written into an HDF5 file (object headers, heaps, chunk
// data) must land at a distinct file offset. The [Allocator] hands out
// those offsets append-only: each allocation is placed at the current
// end-of-file address, which then advances. Allocations can be aligned
// via [Allocator.AllocAligned], e.g. 8-byte alignment for object
// headers, and every allocation is recorded so overlapping writes can
// be caught.
//
// Freed blocks are tracked but not yet reused.
//
// A typical writer starts the allocator just past the superblock and
// often passes it around as a plain function:
//
//	a := alloc.New(96)
//	addr := a.Alloc(1024)
//	allocFn := a.AllocFunc()
package alloc
