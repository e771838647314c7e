// Package hdf5 is a read-only HDF5 reader covering the parts of the format
// Imaris .ims containers use: old and new style groups, soft and external
// links, attributes, and contiguous, compact or chunked datasets with
// deflate, shuffle, Fletcher-32 and LZ4 filters.
//
// # Paths
//
// Objects are addressed by absolute slash-separated paths. Attributes are
// addressed as "object@name", see [ParseAttrPath]:
//
//	f, err := hdf5.Open("scan.ims")
//	if err != nil {
//		return err
//	}
//	defer f.Close()
//	ds, err := f.OpenDataset("/DataSet/ResolutionLevel 0/TimePoint 0/Channel 0/Data")
//	x, err := f.GetAttr("/DataSetInfo/Image@X")
//
// # Walking
//
// [Walk] visits a group tree depth-first in name order. Objects that fail
// to open are reported to the callback rather than ending the walk.
package hdf5
