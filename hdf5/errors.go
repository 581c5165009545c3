// Package hdf5 reads and writes HDF5 files without cgo.
package hdf5

import "errors"

// Sentinel errors returned across the package.
var (
	ErrNotHDF5       = errors.New("not an HDF5 file")
	ErrNotFound      = errors.New("object not found")
	ErrNotDataset    = errors.New("object is not a dataset")
	ErrNotGroup      = errors.New("object is not a group")
	ErrUnsupported   = errors.New("unsupported feature")
	ErrInvalidPath   = errors.New("invalid path")
	ErrClosed        = errors.New("file is closed")
	ErrLinkDepth     = errors.New("maximum link depth exceeded")
)

// MaxLinkDepth caps how many soft or external links a single path
// resolution may follow, guarding against link cycles.
const MaxLinkDepth = 100
