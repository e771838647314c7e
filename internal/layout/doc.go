// Package layout reads the raw elements of a dataset from wherever its
// layout message says they live.
//
// # Storage Classes
//
//   - Compact: the elements sit inside the object header
//   - Contiguous: one block of the file, or nothing if never allocated
//   - Chunked: fixed-size chunks found through a chunk index
//
// # Chunk Indexes
//
// Version 3 layouts index chunks with a version 1 B-tree. Version 4 layouts
// add a single unindexed chunk, an implicit index computed from the chunk
// grid, fixed arrays ("FAHD"), extensible arrays ("EAHD") and version 2
// B-trees. Chunks that are missing from the index read as the fill value.
//
// # Selections
//
// [Read] selects a box of elements given by a start and a count per
// dimension and returns it packed in row-major order. [ReadAll] reads
// everything:
//
//	s := &layout.Source{Layout: lay, Dims: dims, ElemSize: 2, Filters: p}
//	raw, err := layout.Read(r, s, start, count)
package layout
