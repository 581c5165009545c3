package readable

import (
	"encoding/binary"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/h5data/hdf5"
	"github.com/robert-malhotra/h5data/internal/message"
)

// buildContainer writes a container exercising every canonical type and
// returns its path. The layout:
//
//	/temperature  float64  [2 3]
//	/counts       int32    [6]
//	/scalar       float64  scalar
//	/flags        bool     [4]
//	/signal       complex64  [3]
//	/wave         complex128 [2]
//	/names        string   [3]  fixed width 8, null-terminated
//	/padded       string   [2]  fixed width 4, null-padded
//	/spacey       string   [2]  fixed width 4, space-padded
//	/labels       string   [3]  variable-length
//	/grp/values   float32  [4]
//	/grp/inner/deep int64  [2]
func buildContainer(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "fixture.h5")
	f, err := hdf5.Create(path)
	require.NoError(t, err)
	root := f.Root()

	_, err = root.CreateDataset("temperature", [][]float64{
		{1.5, 2.5, 3.5},
		{4.5, 5.5, 6.5},
	})
	require.NoError(t, err)

	_, err = root.CreateDataset("counts", []int32{10, 20, 30, 40, 50, 60})
	require.NoError(t, err)

	ds, err := root.CreateDatasetWithType("scalar", nil, message.NewFloatDatatype(8, message.OrderLE))
	require.NoError(t, err)
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, math.Float64bits(3.5))
	require.NoError(t, ds.WriteRaw(buf))

	ds, err = root.CreateDatasetWithType("flags", []uint64{4}, message.NewBoolEnumDatatype())
	require.NoError(t, err)
	require.NoError(t, ds.WriteRaw([]byte{0, 1, 1, 0}))

	ds, err = root.CreateDatasetWithType("signal", []uint64{3}, complex64Type())
	require.NoError(t, err)
	require.NoError(t, ds.WriteRaw(complex64Bytes(
		complex(float32(1), float32(2)),
		complex(float32(3), float32(4)),
		complex(float32(5), float32(6)),
	)))

	ds, err = root.CreateDatasetWithType("wave", []uint64{2}, complex128Type())
	require.NoError(t, err)
	require.NoError(t, ds.WriteRaw(complex128Bytes(1.25+2.5i, -3.75+0i)))

	ds, err = root.CreateDatasetWithType("names", []uint64{3},
		message.NewStringDatatype(8, message.PadNullTerm, message.CharsetASCII))
	require.NoError(t, err)
	require.NoError(t, ds.WriteRaw(fixedCells(8, "alpha", "beta", "gamma")))

	ds, err = root.CreateDatasetWithType("padded", []uint64{2},
		message.NewStringDatatype(4, message.PadNullPad, message.CharsetASCII))
	require.NoError(t, err)
	require.NoError(t, ds.WriteRaw(fixedCells(4, "ab", "wxyz")))

	ds, err = root.CreateDatasetWithType("spacey", []uint64{2},
		message.NewStringDatatype(4, message.PadSpacePad, message.CharsetASCII))
	require.NoError(t, err)
	require.NoError(t, ds.WriteRaw([]byte("ab  cd  ")))

	_, err = root.CreateVarLenStringDataset("labels", []uint64{3}, []string{"red", "green", "blue"})
	require.NoError(t, err)

	grp, err := root.CreateGroup("grp")
	require.NoError(t, err)
	_, err = grp.CreateDataset("values", []float32{0.5, 1.0, 1.5, 2.0})
	require.NoError(t, err)

	inner, err := grp.CreateGroup("inner")
	require.NoError(t, err)
	_, err = inner.CreateDataset("deep", []int64{-7, 7})
	require.NoError(t, err)

	require.NoError(t, f.Close())
	return path
}

// buildBigEndianComplex writes a container whose single dataset stores
// complex64 values with big-endian float members.
func buildBigEndianComplex(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "bigend.h5")
	f, err := hdf5.Create(path)
	require.NoError(t, err)

	dt := message.NewCompoundDatatype(8, []message.CompoundMember{
		{Name: "r", ByteOffset: 0, Type: message.NewFloatDatatype(4, message.OrderBE)},
		{Name: "i", ByteOffset: 4, Type: message.NewFloatDatatype(4, message.OrderBE)},
	})
	ds, err := f.Root().CreateDatasetWithType("signal", []uint64{2}, dt)
	require.NoError(t, err)

	var buf []byte
	for _, v := range []complex64{complex(1, -2), complex(3.5, 4)} {
		buf = binary.BigEndian.AppendUint32(buf, math.Float32bits(real(v)))
		buf = binary.BigEndian.AppendUint32(buf, math.Float32bits(imag(v)))
	}
	require.NoError(t, ds.WriteRaw(buf))

	require.NoError(t, f.Close())
	return path
}

func complex64Type() *message.Datatype {
	return message.NewCompoundDatatype(8, []message.CompoundMember{
		{Name: "r", ByteOffset: 0, Type: message.NewFloatDatatype(4, message.OrderLE)},
		{Name: "i", ByteOffset: 4, Type: message.NewFloatDatatype(4, message.OrderLE)},
	})
}

func complex128Type() *message.Datatype {
	return message.NewCompoundDatatype(16, []message.CompoundMember{
		{Name: "r", ByteOffset: 0, Type: message.NewFloatDatatype(8, message.OrderLE)},
		{Name: "i", ByteOffset: 8, Type: message.NewFloatDatatype(8, message.OrderLE)},
	})
}

func complex64Bytes(vals ...complex64) []byte {
	buf := make([]byte, 0, len(vals)*8)
	for _, v := range vals {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(real(v)))
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(imag(v)))
	}
	return buf
}

func complex128Bytes(vals ...complex128) []byte {
	buf := make([]byte, 0, len(vals)*16)
	for _, v := range vals {
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(real(v)))
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(imag(v)))
	}
	return buf
}

// fixedCells packs strings into fixed-width cells padded with NULs.
func fixedCells(width int, vals ...string) []byte {
	buf := make([]byte, len(vals)*width)
	for i, v := range vals {
		copy(buf[i*width:(i+1)*width], v)
	}
	return buf
}
