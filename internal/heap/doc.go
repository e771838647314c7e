// Package heap reads the HDF5 heaps.
//
// # Local Heap
//
// A [Local] heap (signature "HEAP") holds the member names of an old-style
// group as null-terminated strings. Symbol table entries name members by
// offset into it.
//
// # Global Heap
//
// A global heap [Collection] (signature "GCOL") holds numbered objects such
// as the bytes of variable-length strings. Elements refer to them with a
// [Ref], read by [DecodeVarLen]. [Global] resolves references and caches
// the collections it has read:
//
//	g := heap.NewGlobal(r)
//	n, ref := heap.DecodeVarLen(d)
//	b, err := g.Resolve(ref)
//
// # Fractal Heap
//
// A [Fractal] heap (signature "FRHP") holds the link and attribute messages
// of objects with dense storage. Heap IDs address managed objects by offset
// and length within the heap's direct blocks, or carry tiny objects inline.
// Huge objects are not supported.
package heap
