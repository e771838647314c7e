// Package object reads HDF5 object headers, the message lists that describe
// every group, dataset and committed datatype in a file.
//
// # Header Versions
//
// Version 1 headers start with the version byte and keep their messages
// 8-byte aligned. Version 2 headers (signature "OHDR") use compact message
// headers and end every block with a lookup3 checksum. Both continue into
// further blocks through continuation messages; [Read] follows them and
// returns the messages in file order.
//
// # Usage
//
//	h, err := object.Read(r, addr)
//	space, ok := object.Get[*message.Dataspace](h)
//	attrs := object.All[*message.Attribute](h)
//
// # Key Types
//
//   - [Header]: the decoded messages of one object
//   - [Message]: one message with its type and flags
package object
