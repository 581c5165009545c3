// Package filter decodes the HDF5 filter pipeline applied to chunked data.
//
// A [Pipeline] is built from a dataset's filter pipeline message and
// applies the filters in reverse declaration order when decoding a
// chunk. A per-chunk filter mask can exclude individual filters: if bit
// i of the mask is set, filter i is skipped for that chunk.
//
//	pipeline, err := filter.NewPipeline(filterPipelineMsg)
//	data, err := pipeline.Decode(compressedChunk, filterMask)
//
// Three standard filters are implemented: DEFLATE (ID 1, zlib
// decompression via [Deflate]), shuffle (ID 2, [Shuffle], which undoes
// the byte-transposition that groups equal byte positions together for
// better compression), and Fletcher-32 (ID 3, [Fletcher32Filter],
// which verifies the checksum appended to each chunk).
//
// SZIP, N-bit, and scale-offset are recognized but not implemented; a
// chunk requiring one of them fails to decode unless the pipeline marks
// the filter optional.
package filter
