package hdf5

import (
	"fmt"
	"path"
	"reflect"

	"github.com/robert-malhotra/h5data/internal/dtype"
	"github.com/robert-malhotra/h5data/internal/layout"
	"github.com/robert-malhotra/h5data/internal/message"
	"github.com/robert-malhotra/h5data/internal/object"
)

// Dataset is an HDF5 dataset opened for reading. Datasets made through
// CreateDatasetWithType also carry the reserved value region so Write
// can fill it later.
type Dataset struct {
	file      *File
	path      string
	header    *object.Header
	dataspace *message.Dataspace
	datatype  *message.Datatype
	layout    layout.Layout

	dataAddr    uint64
	dataSize    uint64
	numElements uint64
}

// newDataset wires a dataset from its object header. The header must
// carry dataspace, datatype and layout messages.
func newDataset(f *File, path string, header *object.Header) (*Dataset, error) {
	ds := &Dataset{
		file:   f,
		path:   path,
		header: header,
	}

	ds.dataspace = header.Dataspace()
	if ds.dataspace == nil {
		return nil, fmt.Errorf("dataset missing dataspace message")
	}

	ds.datatype = header.Datatype()
	if ds.datatype == nil {
		return nil, fmt.Errorf("dataset missing datatype message")
	}

	layoutMsg := header.DataLayout()
	if layoutMsg == nil {
		return nil, fmt.Errorf("dataset missing layout message")
	}

	filterMsg := header.FilterPipeline()
	var err error
	ds.layout, err = layout.New(layoutMsg, ds.dataspace, ds.datatype, filterMsg, f.reader)
	if err != nil {
		return nil, fmt.Errorf("creating layout: %w", err)
	}

	return ds, nil
}

// Name is the final component of the dataset's path.
func (d *Dataset) Name() string {
	return path.Base(d.path)
}

// Path is the absolute path of the dataset within its file.
func (d *Dataset) Path() string {
	return d.path
}

// Shape returns the dataset dimensions, nil for a scalar.
func (d *Dataset) Shape() []uint64 {
	if d.dataspace.IsScalar() {
		return nil
	}
	return d.dataspace.Dimensions
}

// Dims is an alias for Shape.
func (d *Dataset) Dims() []uint64 {
	return d.Shape()
}

// Rank is the number of dimensions.
func (d *Dataset) Rank() int {
	return d.dataspace.Rank
}

// NumElements is the total element count across all dimensions.
func (d *Dataset) NumElements() uint64 {
	return d.dataspace.NumElements()
}

// IsScalar reports whether the dataset holds a single value.
func (d *Dataset) IsScalar() bool {
	return d.dataspace.IsScalar()
}

// DtypeSize is the on-disk size of one element in bytes.
func (d *Dataset) DtypeSize() int {
	return int(d.datatype.Size)
}

// DtypeClass is the datatype class of the elements.
func (d *Dataset) DtypeClass() message.DatatypeClass {
	return d.datatype.Class
}

// Datatype returns the parsed on-disk datatype message for this dataset.
func (d *Dataset) Datatype() *message.Datatype {
	return d.datatype
}

// GoType maps the dataset's datatype onto the matching Go type.
func (d *Dataset) GoType() (reflect.Type, error) {
	return dtype.GoType(d.datatype)
}

// Read decodes the whole dataset into dest, a pointer to a slice of the
// appropriate Go type.
func (d *Dataset) Read(dest interface{}) error {
	raw, err := d.layout.Read()
	if err != nil {
		return fmt.Errorf("reading data: %w", err)
	}

	numElements := d.dataspace.NumElements()
	return dtype.ConvertWithReader(d.datatype, raw, numElements, dest, d.file.reader)
}

// ReadRaw returns the dataset's value bytes without conversion.
func (d *Dataset) ReadRaw() ([]byte, error) {
	return d.layout.Read()
}

// ReadRawSlice reads the raw bytes of a rectangular sub-region. start and
// count must each have one entry per dataset dimension.
func (d *Dataset) ReadRawSlice(start, count []uint64) ([]byte, error) {
	return d.layout.ReadSlice(start, count)
}

// ReadSlice reads a rectangular sub-region into dest, which should be a
// pointer to a slice of the appropriate type. A scalar dataset is selected
// with empty start/count.
func (d *Dataset) ReadSlice(start, count []uint64, dest interface{}) error {
	if len(count) == 0 {
		return d.Read(dest)
	}

	raw, err := d.layout.ReadSlice(start, count)
	if err != nil {
		return fmt.Errorf("reading slice: %w", err)
	}

	numElements := uint64(1)
	for _, c := range count {
		numElements *= c
	}
	return dtype.ConvertWithReader(d.datatype, raw, numElements, dest, d.file.reader)
}

// datasetValues decodes the whole dataset as a slice of T, widening
// integers per the usual conversion rules.
func datasetValues[T any](d *Dataset) ([]T, error) {
	var vals []T
	err := d.Read(&vals)
	return vals, err
}

func (d *Dataset) ReadFloat64() ([]float64, error) { return datasetValues[float64](d) }
func (d *Dataset) ReadFloat32() ([]float32, error) { return datasetValues[float32](d) }
func (d *Dataset) ReadInt64() ([]int64, error)     { return datasetValues[int64](d) }
func (d *Dataset) ReadInt32() ([]int32, error)     { return datasetValues[int32](d) }
func (d *Dataset) ReadInt16() ([]int16, error)     { return datasetValues[int16](d) }
func (d *Dataset) ReadInt8() ([]int8, error)       { return datasetValues[int8](d) }
func (d *Dataset) ReadUint64() ([]uint64, error)   { return datasetValues[uint64](d) }
func (d *Dataset) ReadUint32() ([]uint32, error)   { return datasetValues[uint32](d) }
func (d *Dataset) ReadUint16() ([]uint16, error)   { return datasetValues[uint16](d) }
func (d *Dataset) ReadUint8() ([]uint8, error)     { return datasetValues[uint8](d) }
func (d *Dataset) ReadString() ([]string, error)   { return datasetValues[string](d) }

// Attrs lists the dataset's attribute names.
func (d *Dataset) Attrs() []string {
	return attributeNames(d.header)
}

// Attr returns the named attribute, or nil when absent.
func (d *Dataset) Attr(name string) *Attribute {
	return findAttribute(d.header, d.file.reader, name)
}

// HasAttr reports whether the named attribute exists.
func (d *Dataset) HasAttr(name string) bool {
	return d.Attr(name) != nil
}
