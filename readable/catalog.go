package readable

import (
	"context"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Spec describes one catalogued dataset: its normalized path, canonical
// element type, and shape. Specs are immutable after catalog build.
type Spec struct {
	Path  string
	DType DType
	Shape []int64
}

// Info is the listing form of a Spec: the shape is padded to the maximum
// rank across the catalog with -1 sentinels, and the type is reported as
// its integer code.
type Info struct {
	Path  string
	Shape []int64
	DType int64
}

// Catalog is a read-only index over every dataset in one open container.
// A catalog holds its container open for its whole lifetime; reads go
// directly against that handle under the catalog lock.
//
// All public operations additionally serialize on the process-wide
// library lock, shared with every other catalog.
type Catalog struct {
	mu sync.Mutex

	locator string
	cont    *container
	specs   []Spec
	index   map[string]int
	maxRank int

	complexNames [2]string
	permissive   bool
	buildErrs    error
	log          *zap.Logger

	// memory is only set between option application and the end of build;
	// it carries the caller-supplied image into openContainer.
	memory []byte
}

// Option configures catalog construction.
type Option func(*Catalog)

// WithMemory supplies an in-memory file image; the locator is then used
// only for diagnostics. The caller retains ownership of data and must keep
// it alive until the catalog is closed.
func WithMemory(data []byte) Option {
	memory := data
	return func(c *Catalog) { c.memory = memory }
}

// WithComplexNames overrides the compound member labels recognized as the
// real/imaginary pair (default "r", "i").
func WithComplexNames(real, imag string) Option {
	return func(c *Catalog) { c.complexNames = [2]string{real, imag} }
}

// WithPermissiveBuild excludes datasets whose types cannot be resolved
// instead of failing the whole build. The collected failures are available
// from BuildErrors.
func WithPermissiveBuild() Option {
	return func(c *Catalog) { c.permissive = true }
}

// WithLogger sets the logger used during catalog build.
func WithLogger(log *zap.Logger) Option {
	return func(c *Catalog) { c.log = log }
}

// Open acquires the container named by locator (local path, scheme://
// remote locator, or the image supplied via WithMemory), enumerates its
// datasets, and resolves every dataset to a canonical type. By default a
// single unresolvable dataset fails the build; see WithPermissiveBuild.
func Open(ctx context.Context, locator string, opts ...Option) (*Catalog, error) {
	c := &Catalog{
		locator:      locator,
		index:        make(map[string]int),
		complexNames: defaultComplexNames,
		log:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	lockLibrary()
	defer unlockLibrary()

	cont, err := openContainer(ctx, locator, c.memory)
	if err != nil {
		return nil, err
	}
	c.cont = cont

	if err := c.build(); err != nil {
		cont.close()
		return nil, err
	}
	return c, nil
}

// build walks the namespace and assembles the spec list. Caller holds the
// library lock; the catalog is not yet visible to other goroutines.
func (c *Catalog) build() error {
	paths, err := walkDatasets(c.cont.file)
	if err != nil {
		return &WalkError{Locator: c.locator, Err: err}
	}

	for _, path := range paths {
		ds, err := c.cont.file.OpenDataset(path)
		if err != nil {
			return &WalkError{Locator: c.locator, Err: err}
		}

		dtype, err := resolveDType(path, ds.Datatype(), c.complexNames)
		if err != nil {
			if !c.permissive {
				return err
			}
			c.buildErrs = multierr.Append(c.buildErrs, err)
			c.log.Debug("excluding unresolvable dataset",
				zap.String("locator", c.locator),
				zap.String("path", path),
				zap.Error(err))
			continue
		}

		var shape []int64
		for _, d := range ds.Shape() {
			shape = append(shape, int64(d))
		}
		if len(shape) > c.maxRank {
			c.maxRank = len(shape)
		}

		c.index[path] = len(c.specs)
		c.specs = append(c.specs, Spec{Path: path, DType: dtype, Shape: shape})

		c.log.Debug("catalogued dataset",
			zap.String("locator", c.locator),
			zap.String("path", path),
			zap.Stringer("dtype", dtype),
			zap.Int64s("shape", shape))
	}

	c.memory = nil
	return nil
}

// Close releases the container handle and any owned buffer. Safe to call
// more than once.
func (c *Catalog) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	lockLibrary()
	defer unlockLibrary()

	err := c.cont.close()
	return err
}

// Locator returns the locator the catalog was opened from.
func (c *Catalog) Locator() string {
	return c.locator
}

// BuildErrors returns the aggregated resolution failures from a
// permissive build, or nil.
func (c *Catalog) BuildErrors() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buildErrs
}

// Datasets returns every catalogued dataset path in catalog order. The
// order is the traversal order of the build and is stable for the
// catalog's lifetime; it is not sorted.
func (c *Catalog) Datasets() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	paths := make([]string, len(c.specs))
	for i, s := range c.specs {
		paths[i] = s.Path
	}
	return paths
}

// Spec returns the spec for a dataset path.
func (c *Catalog) Spec(path string) (Spec, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i, ok := c.index[path]
	if !ok {
		return Spec{}, &NotFoundError{Path: path}
	}
	s := c.specs[i]
	s.Shape = append([]int64(nil), s.Shape...)
	return s, nil
}

// Info lists every dataset with its shape padded to the catalog's maximum
// rank using -1 for unused trailing dimensions, and the canonical type as
// an integer code.
func (c *Catalog) Info() []Info {
	c.mu.Lock()
	defer c.mu.Unlock()

	infos := make([]Info, len(c.specs))
	for i, s := range c.specs {
		shape := make([]int64, c.maxRank)
		for j := range shape {
			if j < len(s.Shape) {
				shape[j] = s.Shape[j]
			} else {
				shape[j] = -1
			}
		}
		infos[i] = Info{Path: s.Path, Shape: shape, DType: int64(s.DType)}
	}
	return infos
}
