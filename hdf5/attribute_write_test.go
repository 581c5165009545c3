package hdf5

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// openSoleDataset reopens path and returns the single dataset under the
// root group named name.
func openSoleDataset(t *testing.T, path, name string) *Dataset {
	t.Helper()

	f := openTestFile(t, path)
	ds, err := f.Root().OpenDataset(name)
	require.NoError(t, err)
	return ds
}

func TestScalarAttributes(t *testing.T) {
	path := writeTestFile(t, "attr_scalar.h5", func(t *testing.T, root *Group) {
		_, err := root.CreateDataset("data", []int32{1, 2, 3, 4, 5},
			WithAttribute("scale", float64(1.5)),
			WithAttribute("offset", int32(100)),
		)
		require.NoError(t, err)
	})

	ds := openSoleDataset(t, path, "data")
	require.Len(t, ds.Attrs(), 2)

	scale := ds.Attr("scale")
	require.NotNil(t, scale)
	scaleVal, err := scale.ReadScalarFloat64()
	require.NoError(t, err)
	require.Equal(t, 1.5, scaleVal)

	// Integer scalars widen to int64 on read.
	offset := ds.Attr("offset")
	require.NotNil(t, offset)
	offsetVal, err := offset.ReadScalarInt64()
	require.NoError(t, err)
	require.Equal(t, int64(100), offsetVal)
}

func TestFloatArrayAttribute(t *testing.T) {
	calibration := []float64{0.5, 1.0, 1.5}

	path := writeTestFile(t, "attr_array.h5", func(t *testing.T, root *Group) {
		_, err := root.CreateDataset("measurements", []float64{1.0, 2.0, 3.0},
			WithAttribute("calibration", calibration),
		)
		require.NoError(t, err)
	})

	ds := openSoleDataset(t, path, "measurements")

	attr := ds.Attr("calibration")
	require.NotNil(t, attr)
	vals, err := attr.ReadFloat64()
	require.NoError(t, err)
	require.Equal(t, calibration, vals)
}

func TestIntegerAttributes(t *testing.T) {
	indices := []int32{0, 1, 2}

	path := writeTestFile(t, "attr_int.h5", func(t *testing.T, root *Group) {
		_, err := root.CreateDataset("indexed_data", []int32{10, 20, 30},
			WithAttribute("indices", indices),
			WithAttribute("count", int64(3)),
		)
		require.NoError(t, err)
	})

	ds := openSoleDataset(t, path, "indexed_data")

	idxAttr := ds.Attr("indices")
	require.NotNil(t, idxAttr)
	idxVals, err := idxAttr.ReadInt32()
	require.NoError(t, err)
	require.Equal(t, indices, idxVals)

	countAttr := ds.Attr("count")
	require.NotNil(t, countAttr)
	count, err := countAttr.ReadScalarInt64()
	require.NoError(t, err)
	require.Equal(t, int64(3), count)
}

func TestStringAttributes(t *testing.T) {
	path := writeTestFile(t, "attr_string.h5", func(t *testing.T, root *Group) {
		_, err := root.CreateDataset("data", []float64{1.0, 2.0, 3.0},
			WithAttribute("units", "meters"),
			WithAttribute("description", "Test measurements"),
		)
		require.NoError(t, err)
	})

	ds := openSoleDataset(t, path, "data")
	require.Len(t, ds.Attrs(), 2)

	for name, want := range map[string]string{
		"units":       "meters",
		"description": "Test measurements",
	} {
		attr := ds.Attr(name)
		require.NotNil(t, attr, "attribute %q", name)
		got, err := attr.ReadScalarString()
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}

func TestStringArrayAttribute(t *testing.T) {
	labels := []string{"alpha", "beta", "gamma"}

	path := writeTestFile(t, "attr_string_array.h5", func(t *testing.T, root *Group) {
		_, err := root.CreateDataset("labeled_data", []int32{1, 2, 3},
			WithAttribute("labels", labels),
		)
		require.NoError(t, err)
	})

	ds := openSoleDataset(t, path, "labeled_data")

	attr := ds.Attr("labels")
	require.NotNil(t, attr)
	got, err := attr.ReadString()
	require.NoError(t, err)
	require.Equal(t, labels, got)
}
