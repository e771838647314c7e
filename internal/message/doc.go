// Package message decodes HDF5 object header messages.
//
// An object header is a list of typed messages. [Decode] turns the body of
// a message into one of the structs in this package. Message types a reader
// has no use for decode to nil and are skipped by the caller. A message
// flagged as shared decodes to a [Shared] pointer at the header that holds
// it.
//
// # Message Types
//
//   - [Dataspace]: rank, dimensions and maximum dimensions
//   - [Datatype]: element class, size, byte order and nested types
//   - [FillValue]: the value of never-written elements
//   - [Layout]: compact, contiguous or chunked storage and its index
//   - [FilterPipeline]: the filters applied to each chunk
//   - [Attribute]: a named value attached to an object
//   - [Link], [LinkInfo] and [SymbolTable]: group membership
//   - [AttributeInfo]: where dense attributes are stored
//   - [Continuation]: the next block of header messages
package message
