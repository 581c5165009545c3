// Package heap reads the two HDF5 heap structures that hold
// variable-length data.
//
// The [LocalHeap] (signature "HEAP") backs v0/v1 groups: member names
// are stored as null-terminated strings in its data segment and symbol
// table entries reference them by byte offset.
//
//	h, err := heap.ReadLocalHeap(reader, heapAddress)
//	name := h.GetString(nameOffset)
//
// The [GlobalHeap] (signature "GCOL") holds values that may be shared
// across objects, most importantly variable-length string elements. A
// collection contains numbered, reference-counted objects padded to
// 8-byte boundaries. Dataset elements of variable-length type store a
// [GlobalHeapID], the (collection address, object index) pair that
// locates the actual bytes:
//
//	id, err := heap.ParseGlobalHeapID(rawBytes, offsetSize)
//	h, err := heap.ReadGlobalHeap(reader, id.CollectionAddress)
//	value, err := h.GetObject(uint16(id.ObjectIndex))
package heap
