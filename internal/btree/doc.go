// Package btree reads the HDF5 B-tree structures that index groups and
// chunked storage.
//
// Two B-tree formats appear in HDF5 files. V1 trees (signature "TREE")
// index group symbol tables in v0/v1 superblock files and chunked
// storage in older files; group-flavored v1 trees point at Symbol Table
// Nodes ("SNOD") whose entry names live in the group's local heap. V2
// trees (signature "BTHD") index chunked storage in newer files, as
// record type 10 (unfiltered chunks) or 11 (filtered chunks).
//
// [ReadGroupEntries] walks a group v1 tree and returns every member as
// a [GroupEntry]. [ReadChunkIndex] and [ReadChunkIndexV2] build a
// [ChunkIndex] from the respective tree versions; each [ChunkEntry]
// carries the chunk's coordinate offset, file address, stored size, and
// filter mask, and the index resolves coordinates through FindChunk.
package btree
