package hdf5

// FileOption adjusts settings used when creating a file.
type FileOption func(*fileOptions)

type fileOptions struct {
	offsetSize int
	lengthSize int
}

func defaultFileOptions() *fileOptions {
	return &fileOptions{
		offsetSize: 8,
		lengthSize: 8,
	}
}

// WithOffsetSize sets the width of file offsets in bytes. Accepted
// values are 2, 4 and 8; anything else leaves the default in place.
func WithOffsetSize(size int) FileOption {
	return func(o *fileOptions) {
		if size == 2 || size == 4 || size == 8 {
			o.offsetSize = size
		}
	}
}

// WithLengthSize sets the width of length fields in bytes (2, 4 or 8).
func WithLengthSize(size int) FileOption {
	return func(o *fileOptions) {
		if size == 2 || size == 4 || size == 8 {
			o.lengthSize = size
		}
	}
}

// DatasetOption adjusts settings used when creating a dataset.
type DatasetOption func(*datasetOptions)

// attrDef is a pending attribute to write alongside the dataset.
type attrDef struct {
	name  string
	value interface{}
}

type datasetOptions struct {
	chunks         []uint64
	maxDims        []uint64
	compressionLvl int
	shuffle        bool
	fletcher32     bool
	attributes     []attrDef
}

func defaultDatasetOptions() *datasetOptions {
	return &datasetOptions{
		compressionLvl: 0,
		shuffle:        false,
		fletcher32:     false,
	}
}

// WithChunks selects chunked storage with the given chunk dimensions.
// Chunking is required for resizable datasets and for compression.
func WithChunks(dims ...uint64) DatasetOption {
	return func(o *datasetOptions) {
		o.chunks = dims
	}
}

// WithMaxDims sets the maximum extent per dimension for a resizable
// dataset. A value of 0 marks that dimension unlimited.
func WithMaxDims(dims ...uint64) DatasetOption {
	return func(o *datasetOptions) {
		o.maxDims = dims
	}
}

// WithCompression sets the deflate level, 1 through 9. Zero disables
// compression.
func WithCompression(level int) DatasetOption {
	return func(o *datasetOptions) {
		if level >= 0 && level <= 9 {
			o.compressionLvl = level
		}
	}
}

// WithShuffle enables the byte shuffle filter ahead of compression.
func WithShuffle() DatasetOption {
	return func(o *datasetOptions) {
		o.shuffle = true
	}
}

// WithFletcher32 enables Fletcher32 checksums on stored chunks.
func WithFletcher32() DatasetOption {
	return func(o *datasetOptions) {
		o.fletcher32 = true
	}
}

// WithAttribute attaches an attribute to the dataset at creation time.
// The value may be a scalar or slice of any fixed-width integer, float32,
// float64 or string. Repeat the option to attach several attributes.
func WithAttribute(name string, value interface{}) DatasetOption {
	return func(o *datasetOptions) {
		o.attributes = append(o.attributes, attrDef{name: name, value: value})
	}
}
