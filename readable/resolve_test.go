package readable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/h5data/internal/message"
)

func TestResolveIntegers(t *testing.T) {
	tests := []struct {
		size   uint32
		signed bool
		want   DType
	}{
		{1, false, Uint8},
		{2, false, Uint16},
		{4, false, Uint32},
		{8, false, Uint64},
		{1, true, Int8},
		{2, true, Int16},
		{4, true, Int32},
		{8, true, Int64},
	}
	for _, tc := range tests {
		dt := message.NewFixedPointDatatype(tc.size, tc.signed, message.OrderLE)
		got, err := resolveDType("/d", dt, defaultComplexNames)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}

	dt := message.NewFixedPointDatatype(4, true, message.OrderLE)
	dt.Size = 3
	_, err := resolveDType("/d", dt, defaultComplexNames)
	var re *ResolutionError
	require.ErrorAs(t, err, &re)
	assert.Contains(t, re.Error(), "unsupported data type size 3")
}

func TestResolveFloats(t *testing.T) {
	got, err := resolveDType("/d", message.NewFloatDatatype(4, message.OrderLE), defaultComplexNames)
	require.NoError(t, err)
	assert.Equal(t, Float32, got)

	got, err = resolveDType("/d", message.NewFloatDatatype(8, message.OrderLE), defaultComplexNames)
	require.NoError(t, err)
	assert.Equal(t, Float64, got)

	half := message.NewFloatDatatype(4, message.OrderLE)
	half.Size = 2
	_, err = resolveDType("/d", half, defaultComplexNames)
	var re *ResolutionError
	assert.ErrorAs(t, err, &re)
}

func TestResolveStrings(t *testing.T) {
	got, err := resolveDType("/d",
		message.NewStringDatatype(16, message.PadNullTerm, message.CharsetASCII),
		defaultComplexNames)
	require.NoError(t, err)
	assert.Equal(t, String, got)

	got, err = resolveDType("/d",
		message.NewVarLenStringDatatype(message.CharsetUTF8), defaultComplexNames)
	require.NoError(t, err)
	assert.Equal(t, String, got)

	// Space padding resolves; the refusal happens at decode time.
	got, err = resolveDType("/d",
		message.NewStringDatatype(4, message.PadSpacePad, message.CharsetASCII),
		defaultComplexNames)
	require.NoError(t, err)
	assert.Equal(t, String, got)
}

func TestResolveComplex(t *testing.T) {
	got, err := resolveDType("/d", complex64Type(), defaultComplexNames)
	require.NoError(t, err)
	assert.Equal(t, Complex64, got)

	got, err = resolveDType("/d", complex128Type(), defaultComplexNames)
	require.NoError(t, err)
	assert.Equal(t, Complex128, got)
}

func TestResolveCompoundRejections(t *testing.T) {
	f32 := message.NewFloatDatatype(4, message.OrderLE)
	f64 := message.NewFloatDatatype(8, message.OrderLE)
	i32 := message.NewFixedPointDatatype(4, true, message.OrderLE)

	var re *ResolutionError

	// Wrong member count.
	three := message.NewCompoundDatatype(12, []message.CompoundMember{
		{Name: "r", ByteOffset: 0, Type: f32},
		{Name: "i", ByteOffset: 4, Type: f32},
		{Name: "j", ByteOffset: 8, Type: f32},
	})
	_, err := resolveDType("/d", three, defaultComplexNames)
	require.ErrorAs(t, err, &re)
	assert.Contains(t, re.Error(), "unsupported compound members: 3")

	// Wrong member names.
	named := message.NewCompoundDatatype(8, []message.CompoundMember{
		{Name: "re", ByteOffset: 0, Type: f32},
		{Name: "im", ByteOffset: 4, Type: f32},
	})
	_, err = resolveDType("/d", named, defaultComplexNames)
	require.ErrorAs(t, err, &re)
	assert.Contains(t, re.Error(), "unsupported compound member names: re, im")

	// Mismatched member widths.
	mixed := message.NewCompoundDatatype(12, []message.CompoundMember{
		{Name: "r", ByteOffset: 0, Type: f32},
		{Name: "i", ByteOffset: 4, Type: f64},
	})
	_, err = resolveDType("/d", mixed, defaultComplexNames)
	require.ErrorAs(t, err, &re)

	// Non-float members.
	ints := message.NewCompoundDatatype(8, []message.CompoundMember{
		{Name: "r", ByteOffset: 0, Type: i32},
		{Name: "i", ByteOffset: 4, Type: i32},
	})
	_, err = resolveDType("/d", ints, defaultComplexNames)
	require.ErrorAs(t, err, &re)
	assert.Contains(t, re.Error(), "non-float")
}

func TestResolveCustomComplexNames(t *testing.T) {
	f32 := message.NewFloatDatatype(4, message.OrderLE)
	dt := message.NewCompoundDatatype(8, []message.CompoundMember{
		{Name: "re", ByteOffset: 0, Type: f32},
		{Name: "im", ByteOffset: 4, Type: f32},
	})

	got, err := resolveDType("/d", dt, [2]string{"re", "im"})
	require.NoError(t, err)
	assert.Equal(t, Complex64, got)
}

func TestResolveBoolEnum(t *testing.T) {
	got, err := resolveDType("/d", message.NewBoolEnumDatatype(), defaultComplexNames)
	require.NoError(t, err)
	assert.Equal(t, Bool, got)
}

func TestResolveEnumRejections(t *testing.T) {
	base := message.NewFixedPointDatatype(1, true, message.OrderLE)

	var ue *UnsupportedEnumError

	// Wrong member names.
	colors := message.NewEnumDatatype(base, []string{"RED", "GREEN", "BLUE"}, []int64{0, 1, 2})
	_, err := resolveDType("/d", colors, defaultComplexNames)
	require.ErrorAs(t, err, &ue)
	assert.EqualError(t, err, "unsupported data class for enum: [RED, GREEN, BLUE]")

	// Right names, wrong width.
	wide := message.NewEnumDatatype(
		message.NewFixedPointDatatype(4, true, message.OrderLE),
		[]string{"FALSE", "TRUE"}, []int64{0, 1})
	_, err = resolveDType("/d", wide, defaultComplexNames)
	require.ErrorAs(t, err, &ue)

	// Right names and width, wrong values.
	flipped := message.NewEnumDatatype(base, []string{"FALSE", "TRUE"}, []int64{1, 0})
	_, err = resolveDType("/d", flipped, defaultComplexNames)
	require.ErrorAs(t, err, &ue)
}

func TestResolveUnsupportedClass(t *testing.T) {
	dt := message.NewArrayDatatype([]uint32{3},
		message.NewFloatDatatype(4, message.OrderLE))
	_, err := resolveDType("/d", dt, defaultComplexNames)
	var re *ResolutionError
	require.ErrorAs(t, err, &re)
	assert.Contains(t, re.Error(), "unsupported data class")
}
