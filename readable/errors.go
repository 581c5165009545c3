package readable

import (
	"errors"
	"fmt"
	"strings"
)

// errCatalogClosed is returned, wrapped in an IoError, for operations on a
// closed catalog.
var errCatalogClosed = errors.New("catalog is closed")

// OpenError reports a failure to acquire a readable container: the locator
// was unreachable, a remote size probe or read failed, or the bytes are not
// a parseable HDF5 file/image.
type OpenError struct {
	Locator string
	Err     error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("unable to open hdf5 file %s: %v", e.Locator, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// WalkError reports a namespace traversal failure from the container library.
type WalkError struct {
	Locator string
	Err     error
}

func (e *WalkError) Error() string {
	return fmt.Sprintf("unable to traverse hdf5 file %s: %v", e.Locator, e.Err)
}

func (e *WalkError) Unwrap() error { return e.Err }

// ResolutionError reports an on-disk datatype that cannot be represented as
// any canonical DType. Detail carries enough context to reproduce the
// classification decision (offending widths, member names and classes).
type ResolutionError struct {
	Path   string
	Detail string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("%s for %s", e.Detail, e.Path)
}

// NotFoundError reports a dataset path absent from the catalog.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("dataset %s not found", e.Path)
}

// RankMismatchError reports a slice request whose rank does not match the
// dataset's rank.
type RankMismatchError struct {
	Path string
	Got  int
	Want int
}

func (e *RankMismatchError) Error() string {
	return fmt.Sprintf("rank does not match for %s: %d vs. %d", e.Path, e.Want, e.Got)
}

// OutOfBoundsError reports a slice request exceeding a dataset extent in
// one dimension.
type OutOfBoundsError struct {
	Path     string
	Dim      int
	Start    int64
	Count    int64
	Boundary int64
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("dimension [%d] out of boundary for %s: start=%d, slice=%d, boundary=%d",
		e.Dim, e.Path, e.Start, e.Count, e.Boundary)
}

// UnsupportedPaddingError reports a fixed-length string dataset whose
// declared padding mode has no decode strategy (space padding).
type UnsupportedPaddingError struct {
	Path    string
	Padding string
}

func (e *UnsupportedPaddingError) Error() string {
	return fmt.Sprintf("string pad type not supported for %s: %s", e.Path, e.Padding)
}

// UnsupportedEnumError reports an enum datatype that does not match the
// boolean encoding (exactly two members FALSE=0, TRUE=1 of width 1).
// Members lists every member name found, for diagnostics.
type UnsupportedEnumError struct {
	Path    string
	Members []string
}

func (e *UnsupportedEnumError) Error() string {
	return fmt.Sprintf("unsupported data class for enum: [%s]", strings.Join(e.Members, ", "))
}

// IoError wraps a raw I/O failure from the container library, carrying the
// locator and the library's own diagnostic text.
type IoError struct {
	Locator string
	Err     error
}

func (e *IoError) Error() string {
	return fmt.Sprintf("unable to process dataset file %s: %v", e.Locator, e.Err)
}

func (e *IoError) Unwrap() error { return e.Err }
