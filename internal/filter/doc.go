// Package filter undoes the HDF5 filter pipeline on stored chunks.
//
// Chunks are filtered in pipeline order when written, so a [Pipeline] undoes
// the filters last to first. A chunk's filter mask has bit i set when
// filter i was not applied to it:
//
//	p, err := filter.New(pipelineMessage)
//	data, err := p.Decode(stored, chunk.Mask)
//
// # Supported Filters
//
//   - deflate (1): zlib streams, see [Inflate]
//   - shuffle (2): byte shuffling by element size, see [Unshuffle]
//   - fletcher32 (3): a trailing checksum, see [VerifyFletcher32]
//   - lz4 (32004): the HDF5 LZ4 block format, see [DecodeLZ4]
//
// A required filter outside this list fails [New]. An optional one is
// skipped, which only works for chunks whose mask shows it was never
// applied.
//
// # Errors
//
//   - [ErrChecksum]: a Fletcher-32 checksum does not match
package filter
