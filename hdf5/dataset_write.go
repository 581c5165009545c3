package hdf5

import (
	"fmt"
	"path"
	"reflect"

	"github.com/robert-malhotra/h5data/internal/dtype"
	"github.com/robert-malhotra/h5data/internal/heap"
	"github.com/robert-malhotra/h5data/internal/layout"
	"github.com/robert-malhotra/h5data/internal/message"
	"github.com/robert-malhotra/h5data/internal/object"
)

// CreateDataset creates and fills a dataset whose datatype and shape are
// inferred from the Go value.
func (g *Group) CreateDataset(name string, data interface{}, opts ...DatasetOption) (*Dataset, error) {
	options, err := g.checkCreate(name, opts)
	if err != nil {
		return nil, err
	}

	dataVal := reflect.ValueOf(data)
	if dataVal.Kind() == reflect.Ptr {
		dataVal = dataVal.Elem()
	}
	dims, elemType, err := inferDimensionsAndType(dataVal)
	if err != nil {
		return nil, fmt.Errorf("inferring dimensions: %w", err)
	}

	datatype, err := dtype.GoTypeToDatatype(elemType)
	if err != nil {
		return nil, fmt.Errorf("creating datatype: %w", err)
	}
	rawData, err := dtype.Encode(datatype, data)
	if err != nil {
		return nil, fmt.Errorf("encoding data: %w", err)
	}

	var dataLayout *message.DataLayout
	if options.chunks != nil {
		dataLayout, err = g.writeChunkedData(rawData, dims, options.chunks, datatype.Size)
		if err != nil {
			return nil, err
		}
	} else {
		dataLayout, err = g.writeContiguousData(rawData)
		if err != nil {
			return nil, err
		}
	}

	return g.finishDataset(name, message.NewDataspace(dims, options.maxDims), datatype, dataLayout, options.attributes)
}

// CreateDatasetWithType creates a dataset with explicit dimensions and
// datatype, leaving the value to a later Write or WriteRaw call.
func (g *Group) CreateDatasetWithType(name string, dims []uint64, dt *message.Datatype, opts ...DatasetOption) (*Dataset, error) {
	options, err := g.checkCreate(name, opts)
	if err != nil {
		return nil, err
	}

	numElements := elementCount(dims)
	dataSize := dtype.DataSize(dt, numElements)

	// Reserve the value region now so Write can fill it in place.
	dataAddr := g.file.allocate(int64(dataSize))
	dataLayout := message.NewContiguousLayout(dataAddr, dataSize)

	ds, err := g.finishDataset(name, message.NewDataspace(dims, options.maxDims), dt, dataLayout, nil)
	if err != nil {
		return nil, err
	}
	ds.dataAddr = dataAddr
	ds.dataSize = dataSize
	ds.numElements = numElements
	return ds, nil
}

// CreateVarLenStringDataset creates a dataset of variable-length UTF-8
// strings. Each element is stored in the global heap and the dataset data
// holds per-element heap references.
func (g *Group) CreateVarLenStringDataset(name string, dims []uint64, values []string) (*Dataset, error) {
	if err := g.file.requireWritable(); err != nil {
		return nil, err
	}
	numElements := elementCount(dims)
	if uint64(len(values)) != numElements {
		return nil, fmt.Errorf("value count mismatch: expected %d, got %d", numElements, len(values))
	}

	// Store every string in a single global heap collection.
	ghw := heap.NewGlobalHeapWriter(g.file.writer, g.file.allocate)
	indices := make([]uint16, len(values))
	for i, s := range values {
		indices[i] = ghw.AddString(s)
	}
	_, heapIDs, err := ghw.Write()
	if err != nil {
		return nil, fmt.Errorf("writing global heap: %w", err)
	}

	// Reference layout: length(4) + collection address(offsetSize) + index(4).
	refSize := 4 + g.file.writer.OffsetSize() + 4
	dataSize := uint64(refSize) * numElements
	dataAddr := g.file.allocate(int64(dataSize))

	w := g.file.writer.At(int64(dataAddr))
	for i, s := range values {
		if err := w.WriteUint32(uint32(len(s))); err != nil {
			return nil, fmt.Errorf("writing reference length: %w", err)
		}
		if err := heap.WriteGlobalHeapID(w, heapIDs[indices[i]]); err != nil {
			return nil, fmt.Errorf("writing heap reference: %w", err)
		}
	}

	dt := message.NewVarLenStringDatatype(message.CharsetUTF8)
	return g.finishDataset(name, message.NewDataspace(dims, nil), dt, message.NewContiguousLayout(dataAddr, dataSize), nil)
}

// checkCreate validates a dataset creation call and folds its options.
func (g *Group) checkCreate(name string, opts []DatasetOption) (*datasetOptions, error) {
	if err := g.file.requireWritable(); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, fmt.Errorf("dataset name cannot be empty")
	}
	options := defaultDatasetOptions()
	for _, opt := range opts {
		opt(options)
	}
	return options, nil
}

func (g *Group) writeContiguousData(rawData []byte) (*message.DataLayout, error) {
	dataAddr := g.file.allocate(int64(len(rawData)))
	if err := g.file.writer.At(int64(dataAddr)).WriteBytes(rawData); err != nil {
		return nil, fmt.Errorf("writing data: %w", err)
	}
	return message.NewContiguousLayout(dataAddr, uint64(len(rawData))), nil
}

// writeChunkedData stores rawData under chunked layout. A value that
// fits one chunk gets the implicit index, which common readers accept;
// larger data is split and indexed through a fixed array.
func (g *Group) writeChunkedData(rawData []byte, dims, chunks []uint64, elemSize uint32) (*message.DataLayout, error) {
	chunkDims := make([]uint32, len(chunks))
	for i, c := range chunks {
		chunkDims[i] = uint32(c)
	}
	cw := layout.NewChunkWriter(g.file.writer, chunkDims, elemSize, g.file.allocate)

	if uint64(len(rawData)) <= cw.ChunkSize() {
		chunkAddr, err := cw.WriteSingleChunk(rawData)
		if err != nil {
			return nil, fmt.Errorf("writing chunk: %w", err)
		}
		dataLayout := message.NewChunkedLayout(chunkDims, elemSize, message.ChunkIndexImplicit)
		dataLayout.ChunkIndexAddr = chunkAddr
		return dataLayout, nil
	}

	chunkAddrs, err := cw.WriteChunks(layout.SplitIntoChunks(rawData, dims, chunkDims, elemSize))
	if err != nil {
		return nil, fmt.Errorf("writing chunks: %w", err)
	}
	indexAddr, err := cw.WriteFixedArrayIndex(chunkAddrs, nil)
	if err != nil {
		return nil, fmt.Errorf("writing chunk index: %w", err)
	}
	dataLayout := message.NewChunkedLayout(chunkDims, elemSize, message.ChunkIndexFixedArray)
	dataLayout.ChunkIndexAddr = indexAddr
	return dataLayout, nil
}

// finishDataset assembles the object header, appends any attribute
// messages, hard-links the new object into the group and returns a
// handle for it.
func (g *Group) finishDataset(name string, dataspace *message.Dataspace, dt *message.Datatype, dataLayout *message.DataLayout, attrs []attrDef) (*Dataset, error) {
	messages := object.NewDatasetHeader(dataspace, dt, dataLayout)
	for _, attr := range attrs {
		attrMsg, err := createAttributeMessage(attr.name, attr.value)
		if err != nil {
			return nil, fmt.Errorf("creating attribute %q: %w", attr.name, err)
		}
		messages = append(messages, attrMsg)
	}

	headerSize := object.HeaderSize(g.file.writer, messages)
	datasetAddr := g.file.allocate(int64(headerSize))
	if _, err := object.WriteHeader(g.file.writer.At(int64(datasetAddr)), messages); err != nil {
		return nil, fmt.Errorf("writing dataset header: %w", err)
	}
	if err := g.addLink(message.NewHardLink(name, datasetAddr)); err != nil {
		return nil, fmt.Errorf("adding link to parent: %w", err)
	}

	return &Dataset{
		file:      g.file,
		path:      path.Join(g.path, name),
		dataspace: dataspace,
		datatype:  dt,
	}, nil
}

// Write encodes data and stores it into the region reserved by
// CreateDatasetWithType.
func (ds *Dataset) Write(data interface{}) error {
	rawData, err := dtype.Encode(ds.datatype, data)
	if err != nil {
		return fmt.Errorf("encoding data: %w", err)
	}
	return ds.WriteRaw(rawData)
}

// WriteRaw stores pre-encoded bytes into the region reserved by
// CreateDatasetWithType. The caller is responsible for matching the
// on-disk element encoding; no conversion is applied.
func (ds *Dataset) WriteRaw(data []byte) error {
	if err := ds.file.requireWritable(); err != nil {
		return err
	}
	if ds.dataAddr == 0 {
		return fmt.Errorf("dataset was not created for writing")
	}
	if uint64(len(data)) != ds.dataSize {
		return fmt.Errorf("data size mismatch: expected %d, got %d", ds.dataSize, len(data))
	}
	return ds.file.writer.At(int64(ds.dataAddr)).WriteBytes(data)
}

func elementCount(dims []uint64) uint64 {
	n := uint64(1)
	for _, d := range dims {
		n *= d
	}
	return n
}

// inferDimensionsAndType walks nested slices and arrays down to the
// element type, collecting one dimension per level. A bare scalar
// becomes a one-element 1D dataset.
func inferDimensionsAndType(val reflect.Value) ([]uint64, reflect.Type, error) {
	var dims []uint64
	for val.Kind() == reflect.Slice || val.Kind() == reflect.Array {
		dims = append(dims, uint64(val.Len()))
		if val.Len() == 0 {
			return dims, val.Type().Elem(), nil
		}
		val = val.Index(0)
	}
	if len(dims) == 0 {
		dims = []uint64{1}
	}
	return dims, val.Type(), nil
}

// createAttributeMessage builds an attribute message for a Go value.
// Strings get fixed-width string types; other values go through the
// numeric type inference.
func createAttributeMessage(name string, value interface{}) (*message.Attribute, error) {
	val := reflect.ValueOf(value)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	if val.Kind() == reflect.String {
		return fixedStringAttribute(name, message.NewScalarDataspace(), []string{val.String()})
	}
	if val.Kind() == reflect.Slice && val.Type().Elem().Kind() == reflect.String {
		if val.Len() == 0 {
			return nil, fmt.Errorf("empty string array not supported")
		}
		strs := make([]string, val.Len())
		for i := range strs {
			strs[i] = val.Index(i).String()
		}
		return fixedStringAttribute(name, message.NewDataspace([]uint64{uint64(len(strs))}, nil), strs)
	}

	dataspace := message.NewScalarDataspace()
	elemType := val.Type()
	switch val.Kind() {
	case reflect.Slice, reflect.Array:
		dataspace = message.NewDataspace([]uint64{uint64(val.Len())}, nil)
		if val.Len() > 0 {
			elemType = val.Index(0).Type()
		} else {
			elemType = val.Type().Elem()
		}
	}

	datatype, err := dtype.GoTypeToDatatype(elemType)
	if err != nil {
		return nil, fmt.Errorf("unsupported attribute type %v: %w", elemType, err)
	}
	data, err := dtype.Encode(datatype, value)
	if err != nil {
		return nil, fmt.Errorf("encoding attribute value: %w", err)
	}
	return message.NewAttribute(name, datatype, dataspace, data), nil
}

// fixedStringAttribute stores strings as NUL-terminated fixed-width
// values sized to the longest element.
func fixedStringAttribute(name string, dataspace *message.Dataspace, strs []string) (*message.Attribute, error) {
	maxLen := 0
	for _, s := range strs {
		if len(s) > maxLen {
			maxLen = len(s)
		}
	}
	strLen := maxLen + 1

	data := make([]byte, len(strs)*strLen)
	for i, s := range strs {
		copy(data[i*strLen:], s)
	}

	datatype := message.NewStringDatatype(uint32(strLen), message.PadNullTerm, message.CharsetASCII)
	return message.NewAttribute(name, datatype, dataspace, data), nil
}
