// Package superblock locates and decodes the HDF5 superblock, the fixed
// structure that declares the file's address widths and the root group.
//
// # Location
//
// The superblock starts with an 8-byte signature and sits at offset 0, or
// at a power of two from 512 onward when the file carries a user block.
// [Read] searches those offsets.
//
// # Versions
//
// Versions 0 and 1 describe the root group through a symbol table entry.
// Versions 2 and 3 point straight at its object header and end with a
// lookup3 checksum.
//
// # Errors
//
//   - [ErrNotHDF5]: no signature at any candidate offset
//   - [ErrUnsupportedVersion]: a superblock version this package cannot read
package superblock
