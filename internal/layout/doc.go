// Package layout reads dataset raw data regardless of its on-disk
// storage arrangement.
//
// HDF5 stores dataset data in one of three layout classes, unified
// here behind the [Layout] interface (full reads via Read, hyperslab
// reads via ReadSlice):
//
//   - [Compact] (class 0): the data lives inside the object header
//     itself, sensible only for very small datasets.
//   - [Contiguous] (class 1): one uninterrupted block in the file.
//   - [Chunked] (class 2): fixed-size chunks stored independently and
//     located through an index; required for filters and for
//     extensible dimensions.
//
// [New] inspects the layout message and returns the right handler:
//
//	l, err := layout.New(layoutMsg, dataspaceMsg, datatypeMsg, filterMsg, reader)
//	data, err := l.Read()
//
// Chunked storage autodetects its index format: single-chunk, v1
// B-tree ("TREE"), v2 B-tree ("BTHD"), fixed array ("FAHD"), or
// extensible array ("EAHD"). Each chunk is run through the filter
// pipeline and copied into place dimension by dimension; edge chunks
// that extend past the dataset bounds are clipped during the copy.
package layout
