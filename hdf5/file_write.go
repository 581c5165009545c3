package hdf5

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/robert-malhotra/h5data/internal/alloc"
	binpkg "github.com/robert-malhotra/h5data/internal/binary"
	"github.com/robert-malhotra/h5data/internal/object"
	"github.com/robert-malhotra/h5data/internal/superblock"
)

// Create makes a new HDF5 file with a v2 superblock, v2 object headers
// and an empty root group.
func Create(path string, opts ...FileOption) (*File, error) {
	options := defaultFileOptions()
	for _, opt := range opts {
		opt(options)
	}

	osFile, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	fail := func(err error) (*File, error) {
		osFile.Close()
		os.Remove(path)
		return nil, err
	}

	writer := binpkg.NewWriter(osFile, binpkg.Config{
		ByteOrder:  binary.LittleEndian,
		OffsetSize: options.offsetSize,
		LengthSize: options.lengthSize,
	})

	// The root group header sits directly after the superblock, and both
	// go out in one pass once the resulting EOF is known.
	sb := superblock.NewSuperblock()
	sb.OffsetSize = uint8(options.offsetSize)
	sb.LengthSize = uint8(options.lengthSize)
	sb.RootGroupAddress = uint64(sb.Size())

	rootMessages := object.NewEmptyGroupHeader()
	headerSize := object.HeaderSizeWithMinChunk(writer, rootMessages, object.MinGroupChunkSize)
	sb.EOFAddress = sb.RootGroupAddress + uint64(headerSize)

	if _, err := sb.Write(writer); err != nil {
		return fail(err)
	}
	if _, err := object.WriteHeaderWithMinChunk(writer, rootMessages, object.MinGroupChunkSize); err != nil {
		return fail(err)
	}

	f := newWritableFile(path, osFile, sb, nil, writer)
	f.root = &Group{file: f, path: "/", addr: sb.RootGroupAddress}
	return f, nil
}

// OpenReadWrite opens an existing file so groups, datasets and
// attributes can be appended to it.
func OpenReadWrite(path string) (*File, error) {
	osFile, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}

	sb, err := superblock.Read(osFile)
	if err != nil {
		osFile.Close()
		return nil, err
	}

	// Reader and writer share the superblock's byte order and field
	// widths so appended structures match the existing ones.
	cfg := sb.ReaderConfig()
	f := newWritableFile(path, osFile, sb, binpkg.NewReader(osFile, cfg), binpkg.NewWriter(osFile, cfg))

	root, err := f.openGroupAt(sb.RootGroupAddress, "/")
	if err != nil {
		osFile.Close()
		return nil, err
	}
	f.root = root
	return f, nil
}

func newWritableFile(path string, osFile *os.File, sb *superblock.Superblock, reader *binpkg.Reader, writer *binpkg.Writer) *File {
	return &File{
		path:       path,
		file:       osFile,
		reader:     reader,
		superblock: sb,
		writable:   true,
		writer:     writer,
		allocator:  alloc.New(sb.EOFAddress),
	}
}

// Flush rewrites the superblock with the current end of file and syncs.
func (f *File) Flush() error {
	if !f.writable {
		return nil
	}
	f.superblock.EOFAddress = f.allocator.EOFAddr()
	if _, err := f.superblock.Write(f.writer.At(0)); err != nil {
		return err
	}
	return f.file.Sync()
}

// allocate reserves size bytes of file space and returns their address.
func (f *File) allocate(size int64) uint64 {
	return f.allocator.Alloc(uint64(size))
}

// AllocStats exposes the allocator's counters.
func (f *File) AllocStats() alloc.Stats {
	if f.allocator == nil {
		return alloc.Stats{}
	}
	return f.allocator.Stats()
}

func (f *File) requireWritable() error {
	if !f.writable {
		return fmt.Errorf("file is not writable")
	}
	return nil
}

func (f *File) closeWritable() error {
	return f.Flush()
}

// IsWritable reports whether the file accepts writes.
func (f *File) IsWritable() bool {
	return f.writable
}
