// Package btree walks the B-trees that index HDF5 groups and chunked
// datasets.
//
// # Version 1
//
// Version 1 trees (signature "TREE") index old-style group members (type 0)
// and dataset chunks (type 1). Group leaves point to symbol table nodes
// ("SNOD") whose entries name their members through the group's local heap:
//
//	syms, err := btree.Symbols(r, tree, names)
//	chunks, err := btree.ChunksV1(r, tree, rank)
//
// # Version 2
//
// Version 2 trees (signature "BTHD") index chunks of datasets written with
// a version 4 layout message (record types 10 and 11), and the names of
// links and attributes kept in dense storage (record types 5 and 8).
// [Records] visits every record in key order; [ChunksV2] and [HeapIDs] are
// built on it.
//
// # Key Types
//
//   - [Symbol]: one member of an old-style group
//   - [Chunk]: a stored chunk with its offset, size, filter mask and address
//   - [HeaderV2]: the header of a version 2 tree
package btree
