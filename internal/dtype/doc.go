// Package dtype turns raw HDF5 elements into Go values.
//
// # Type Mapping
//
//	HDF5 Class        | Go Type
//	------------------|----------------------------------------
//	Fixed-point       | int8/16/32/64 or uint8/16/32/64
//	Floating-point    | float32 or float64
//	String            | string
//	Variable-length   | string, or a slice of the base type
//	Array             | nested Go arrays of the base type
//	Compound          | struct with one field per member
//	Opaque            | byte array of the element size
//
// [GoType] reports the mapping without decoding anything.
//
// # Numbers
//
// [Numbers] converts integer or float elements of any width and byte order
// to any Go number type. [Field] pulls one numeric member out of compound
// records.
//
// # Strings
//
// Fixed-size strings are trimmed by their padding scheme in [Strings].
// Variable-length strings are references into the global heap and need a
// [heap.Global] to resolve. [Bytes] returns elements without interpretation
// beyond dropping trailing NUL padding from strings.
//
// # Generic Values
//
// [Value] decodes any supported datatype into the natural Go value, and
// [First] unwraps single-element results.
package dtype
