package hdf5

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/robert-malhotra/h5data/internal/alloc"
	"github.com/robert-malhotra/h5data/internal/binary"
	"github.com/robert-malhotra/h5data/internal/object"
	"github.com/robert-malhotra/h5data/internal/superblock"
)

// File is an open HDF5 file or in-memory file image.
type File struct {
	path          string
	file          *os.File // nil for in-memory images
	image         []byte   // backing buffer for in-memory images
	reader        *binary.Reader
	superblock    *superblock.Superblock
	root          *Group
	closed        bool
	externalFiles map[string]*File

	writable  bool
	writer    *binary.Writer
	allocator *alloc.Allocator
}

// Open opens an HDF5 file for reading.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}

	hdf, err := openReaderAt(f, path)
	if err != nil {
		f.Close()
		return nil, err
	}
	hdf.file = f
	return hdf, nil
}

// OpenImage opens an HDF5 file image held entirely in memory. The caller
// retains ownership of data; the returned File must not outlive it.
func OpenImage(data []byte) (*File, error) {
	hdf, err := openReaderAt(bytes.NewReader(data), "")
	if err != nil {
		return nil, err
	}
	hdf.image = data
	return hdf, nil
}

// openReaderAt parses the superblock and root group over any io.ReaderAt.
func openReaderAt(r io.ReaderAt, path string) (*File, error) {
	sb, err := superblock.Read(r)
	if err != nil {
		return nil, fmt.Errorf("reading superblock: %w", err)
	}

	reader := binary.NewReader(r, sb.ReaderConfig())

	hdf := &File{
		path:       path,
		reader:     reader,
		superblock: sb,
	}

	root, err := hdf.openGroupAt(sb.RootGroupAddress, "/")
	if err != nil {
		return nil, fmt.Errorf("opening root group: %w", err)
	}
	hdf.root = root

	return hdf, nil
}

// Close releases the file and every external file it opened. Closing
// twice is a no-op.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true

	if f.writable {
		if err := f.closeWritable(); err != nil {
			f.file.Close()
			return err
		}
	}

	for _, extFile := range f.externalFiles {
		extFile.Close()
	}
	f.externalFiles = nil

	// Handle release before the backing buffer: drop the reader first so a
	// self-owned image cannot be touched after Close returns.
	f.reader = nil
	f.image = nil

	if f.file == nil {
		return nil
	}
	return f.file.Close()
}

// IsImage reports whether the file came from an in-memory image.
func (f *File) IsImage() bool {
	return f.image != nil
}

// Root returns the root group.
func (f *File) Root() *Group {
	return f.root
}

// Path returns the path the file was opened from, empty for images.
func (f *File) Path() string {
	return f.path
}

// Version reports the superblock version.
func (f *File) Version() int {
	return int(f.superblock.Version)
}

// OpenGroup opens a group by absolute path.
func (f *File) OpenGroup(path string) (*Group, error) {
	if f.closed {
		return nil, ErrClosed
	}
	return f.root.OpenGroup(path)
}

// OpenDataset opens a dataset by absolute path.
func (f *File) OpenDataset(path string) (*Dataset, error) {
	if f.closed {
		return nil, ErrClosed
	}
	return f.root.OpenDataset(path)
}

func (f *File) readHeader(address uint64) (*object.Header, error) {
	header, err := object.Read(f.reader, address)
	if err != nil {
		return nil, fmt.Errorf("reading object header: %w", err)
	}
	return header, nil
}

func (f *File) openGroupAt(address uint64, path string) (*Group, error) {
	header, err := f.readHeader(address)
	if err != nil {
		return nil, err
	}
	return &Group{file: f, path: path, header: header, addr: address}, nil
}

func (f *File) openDatasetAt(address uint64, path string) (*Dataset, error) {
	header, err := f.readHeader(address)
	if err != nil {
		return nil, err
	}
	return newDataset(f, path, header)
}

// normalizePath strips the leading and trailing slashes so paths split
// cleanly into components.
func normalizePath(path string) string {
	return strings.Trim(path, "/")
}

func splitPath(path string) []string {
	if path = normalizePath(path); path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// GetAttr looks up an attribute addressed as object@name, for example
// "/@root_attr", "/data@units" or "/sensors/temp@calibration".
func (f *File) GetAttr(path string) (*Attribute, error) {
	if f.closed {
		return nil, ErrClosed
	}

	objectPath, attrName, err := ParseAttrPath(path)
	if err != nil {
		return nil, err
	}

	obj, err := f.getAttributeHolder(objectPath)
	if err != nil {
		return nil, fmt.Errorf("opening object %s: %w", objectPath, err)
	}

	attr := obj.Attr(attrName)
	if attr == nil {
		return nil, fmt.Errorf("attribute not found: %s", attrName)
	}
	return attr, nil
}

// ReadAttr looks up an attribute by object@name path and decodes its
// value in one call.
func (f *File) ReadAttr(path string) (interface{}, error) {
	attr, err := f.GetAttr(path)
	if err != nil {
		return nil, err
	}
	return attr.Value()
}

// attributeHolder abstracts over the two object kinds that carry
// attributes.
type attributeHolder interface {
	Attr(name string) *Attribute
}

func (f *File) getAttributeHolder(path string) (attributeHolder, error) {
	if path == "/" {
		return f.root, nil
	}

	if group, err := f.OpenGroup(path); err == nil {
		return group, nil
	}
	if dataset, err := f.OpenDataset(path); err == nil {
		return dataset, nil
	}

	return nil, fmt.Errorf("object not found: %s", path)
}

// resolveAbsolutePath walks an absolute path from the root, following
// links into other files when a component crosses a file boundary.
// visited carries the cycle detection state across hops.
func (f *File) resolveAbsolutePath(absPath string, visited map[string]bool) (*linkResolution, error) {
	parts := splitPath(absPath)
	if len(parts) == 0 {
		return &linkResolution{address: f.superblock.RootGroupAddress}, nil
	}

	current := f.root
	currentFile := f

	for i, name := range parts {
		res, err := current.findChildFull(name, visited)
		if err != nil {
			return nil, fmt.Errorf("resolving %q in path %s: %w", name, absPath, err)
		}

		if res.file != nil {
			currentFile = res.file
		}

		if i == len(parts)-1 {
			return res, nil
		}

		if res.isDataset {
			return nil, fmt.Errorf("%q in path %s: %w", name, absPath, ErrNotGroup)
		}

		current, err = currentFile.openGroupAt(res.address, "")
		if err != nil {
			return nil, fmt.Errorf("opening group %q: %w", name, err)
		}
	}

	return nil, fmt.Errorf("empty path")
}

// openExternalFile opens a file named by an external link, relative to
// this file's directory, caching the handle for reuse.
func (f *File) openExternalFile(filename string) (*File, error) {
	if extFile, ok := f.externalFiles[filename]; ok {
		return extFile, nil
	}

	baseDir := filepath.Dir(f.path)
	extPath := filepath.Join(baseDir, filename)

	extFile, err := Open(extPath)
	if err != nil {
		return nil, fmt.Errorf("opening external file %q: %w", extPath, err)
	}

	if f.externalFiles == nil {
		f.externalFiles = make(map[string]*File)
	}
	f.externalFiles[filename] = extFile

	return extFile, nil
}

// resolveExternalLink follows a link into another file. Cycle detection
// keys on file:path so loops spanning files are caught too.
func (f *File) resolveExternalLink(extFile string, extPath string, visited map[string]bool) (*linkResolution, error) {
	if len(visited) >= MaxLinkDepth {
		return nil, ErrLinkDepth
	}

	linkKey := extFile + ":" + extPath
	if visited[linkKey] {
		return nil, fmt.Errorf("circular external link detected: %s", linkKey)
	}
	visited[linkKey] = true

	targetFile, err := f.openExternalFile(extFile)
	if err != nil {
		return nil, err
	}

	res, err := targetFile.resolveAbsolutePath(extPath, visited)
	if err != nil {
		return nil, fmt.Errorf("resolving path %q in external file %q: %w", extPath, extFile, err)
	}

	// Later reads must go through the external file's reader even when
	// the final hop resolved within it.
	if res.file == nil {
		res.file = targetFile
	}
	return res, nil
}
