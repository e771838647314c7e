// Package ims reads Imaris .ims files.
//
// An Imaris file is an HDF5 container. A Reader opened on one extracts the
// image metadata (LoadInfo), surface collections (LoadSurface), point
// collections (LoadPoints) and channel volumes (LoadChannel), keeping what it
// loaded for later retrieval through Info, Surface, Points and ChannelData.
//
//	r, err := ims.Open("sample.ims")
//	if err != nil {
//		return err
//	}
//	defer r.Close()
//	if err := r.LoadInfo(); err != nil {
//		return err
//	}
//	v, err := r.LoadChannel(0)
//
// Imaris pads channel data to chunk-friendly sizes, so the stored arrays can
// be larger than the declared image. Channel volumes are trimmed back with
// Reconcile, which drops all-zero slices along any oversized axis.
//
// Attribute values are stored as arrays of single bytes; DecodeBytes and
// its typed variants join them back into strings and numbers.
//
// Errors match one of ErrNotFound, ErrIO, ErrFormat, ErrPrecondition or
// ErrIndex under errors.Is.
package ims
