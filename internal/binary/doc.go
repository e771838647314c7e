// Package binary decodes the little-endian structures of an HDF5 file.
//
// A [Reader] fetches whole structures from the underlying file and hands them
// out as [Decoder] values. A Decoder walks a byte slice field by field and
// remembers the first failure, so a parser can read every field of a
// structure and check Err once at the end:
//
//	d, err := r.Block(addr, size)
//	if err != nil {
//		return err
//	}
//	d.Expect("HEAP")
//	version := d.U8()
//	d.Skip(3)
//	seg := d.Length()
//	if err := d.Err(); err != nil {
//		return err
//	}
//
// # Address Widths
//
// The superblock declares the size of file offsets and lengths. Readers and
// decoders carry both widths; Addr and Length read fields of those sizes,
// and an all-ones address of any width reads as [Undefined].
//
// # Checksums
//
// Newer structures end with a [Lookup3] checksum, verified with
// [VerifyLookup3]. [Fletcher32] backs the chunk checksum filter.
//
// # Errors
//
//   - [ErrTruncated]: a field ran past the end of its structure
//   - [ErrChecksum]: a stored checksum does not match
package binary
