package readable

import (
	"context"

	"github.com/robert-malhotra/h5data/hdf5"
	"github.com/robert-malhotra/h5data/readable/fetch"
)

// container couples an open container handle with the buffer backing it,
// if the handle was opened over memory this catalog owns.
type container struct {
	file   *hdf5.File
	buffer []byte // owned remote-fetch buffer, nil otherwise
}

// openContainer acquires a readable container handle. Precedence follows
// the locator forms: a caller-supplied memory image is wrapped directly
// (the caller keeps ownership of the bytes), a plain path is opened from
// the local filesystem, and a scheme-addressed locator is fetched fully
// into an owned buffer first.
//
// Callers must hold the library lock.
func openContainer(ctx context.Context, locator string, memory []byte) (*container, error) {
	if len(memory) != 0 {
		f, err := hdf5.OpenImage(memory)
		if err != nil {
			return nil, &OpenError{Locator: locator, Err: err}
		}
		return &container{file: f}, nil
	}

	if !fetch.IsRemote(locator) {
		f, err := hdf5.Open(locator)
		if err != nil {
			return nil, &OpenError{Locator: locator, Err: err}
		}
		return &container{file: f}, nil
	}

	buf, err := fetch.Fetch(ctx, locator)
	if err != nil {
		return nil, &OpenError{Locator: locator, Err: err}
	}
	f, err := hdf5.OpenImage(buf)
	if err != nil {
		return nil, &OpenError{Locator: locator, Err: err}
	}
	return &container{file: f, buffer: buf}, nil
}

// close releases the handle before the owned buffer and is safe to call
// more than once.
func (c *container) close() error {
	if c == nil || c.file == nil {
		return nil
	}
	err := c.file.Close()
	c.file = nil
	c.buffer = nil
	return err
}
