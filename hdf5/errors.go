package hdf5

import "errors"

var (
	ErrNotHDF5     = errors.New("not an HDF5 file")
	ErrNotFound    = errors.New("object not found")
	ErrNotDataset  = errors.New("object is not a dataset")
	ErrNotGroup    = errors.New("object is not a group")
	ErrNotCompound = errors.New("datatype is not compound")
	ErrNotString   = errors.New("datatype is not a string")
	ErrClosed      = errors.New("file is closed")
	ErrLinkDepth   = errors.New("too many nested links")
)

// MaxLinkDepth bounds the soft and external links followed while resolving
// one path.
const MaxLinkDepth = 64
