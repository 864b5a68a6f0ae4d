package item

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ska-sa/spead-go/descriptor"
	"github.com/ska-sa/spead-go/dtype"
	"github.com/ska-sa/spead-go/errs"
	"github.com/ska-sa/spead-go/format"
	"github.com/ska-sa/spead-go/wire"
)

// Scenario 1: scalar unsigned immediate.
func TestSetFromRaw_ScalarUnsignedImmediate(t *testing.T) {
	d := descriptor.Descriptor{
		ID:        1,
		Name:      "scalar_u32",
		Shape:     []int{},
		HasFormat: true,
		Format:    format.Format{{Code: format.CodeUnsigned, Length: 32}},
	}
	it := New(d)

	raw := wire.RawItem{
		IsImmediate: true,
		Value:       []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0xDE, 0xAD, 0xBE},
	}
	require.NoError(t, it.SetFromRaw(raw))

	v := it.Value()
	require.Len(t, v.Records, 1)
	assert.Equal(t, uint64(0x00DEADBE), v.Records[0][0].Uint)
	assert.EqualValues(t, 1, it.Version())
}

// Scenario 2: signed record.
func TestSetFromRaw_SignedRecord(t *testing.T) {
	d := descriptor.Descriptor{
		ID:        2,
		Name:      "pair",
		Shape:     []int{},
		HasFormat: true,
		Format:    format.Format{{Code: format.CodeSigned, Length: 12}, {Code: format.CodeSigned, Length: 12}},
	}
	it := New(d)

	raw := wire.RawItem{IsImmediate: false, Value: []byte{0xFF, 0xF0, 0x01}}
	require.NoError(t, it.SetFromRaw(raw))

	rec := it.Value().Records[0]
	assert.Equal(t, int64(-1), rec[0].Int)
	assert.Equal(t, int64(1), rec[1].Int)
}

// Scenario 3: variable length vector, dtype mode.
func TestSetFromRaw_VariableLengthVectorDtypeMode(t *testing.T) {
	d := descriptor.Descriptor{
		ID:       3,
		Name:     "vec",
		Shape:    []int{-1},
		HasDtype: true,
		Dtype:    dtype.Uint16.Swapped(), // big-endian per scenario
	}
	it := New(d)

	raw := wire.RawItem{IsImmediate: false, Value: []byte{0x00, 0x01, 0x00, 0x02, 0x00, 0x03}}
	require.NoError(t, it.SetFromRaw(raw))

	v := it.Value()
	assert.Equal(t, []int{3}, v.Shape)
	assert.Equal(t, []uint16{1, 2, 3}, v.Uint16s)
}

// Scenario 4: ASCII string specialization.
func TestSetFromRaw_ASCIIStringSpecialization(t *testing.T) {
	d := descriptor.Descriptor{
		ID:       4,
		Name:     "text",
		Shape:    []int{5},
		HasDtype: true,
		Dtype:    dtype.Bytes1,
	}
	it := New(d)

	raw := wire.RawItem{IsImmediate: false, Value: []byte("Hello")}
	require.NoError(t, it.SetFromRaw(raw))

	v := it.Value()
	assert.True(t, v.IsText)
	assert.Equal(t, "Hello", v.Text)
}

// Scenario 5: Fortran order round trip.
func TestToBuffer_DtypeMode_RoundTrip(t *testing.T) {
	d := descriptor.Descriptor{
		ID:       5,
		Name:     "matrix",
		Shape:    []int{2, 3},
		Order:    descriptor.ColumnMajor,
		HasDtype: true,
		Dtype:    dtype.Int32,
	}
	it := New(d)

	original := []int32{1, 2, 3, 4, 5, 6}
	require.NoError(t, it.SetValue(Value{Shape: []int{2, 3}, Int32s: original}))

	buf, err := it.ToBuffer()
	require.NoError(t, err)

	it2 := New(d)
	require.NoError(t, it2.SetFromRaw(wire.RawItem{IsImmediate: false, Value: buf}))
	assert.Equal(t, original, it2.Value().Int32s)
}

func TestSetFromRaw_FixedShapeInsufficientBytes(t *testing.T) {
	d := descriptor.Descriptor{
		ID:       6,
		Name:     "undersize",
		Shape:    []int{10},
		HasDtype: true,
		Dtype:    dtype.Uint32,
	}
	it := New(d)

	raw := wire.RawItem{Value: []byte{1, 2, 3}} // far fewer than 40 bytes
	err := it.SetFromRaw(raw)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrShapeInsufficient))
}

func TestToBuffer_MissingValue(t *testing.T) {
	d := descriptor.Descriptor{ID: 7, Name: "empty", HasDtype: true, Dtype: dtype.Uint8}
	it := New(d)

	_, err := it.ToBuffer()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrMissingValue))
}

func TestSetValue_AbsentRejected(t *testing.T) {
	d := descriptor.Descriptor{ID: 8, Name: "x", HasDtype: true, Dtype: dtype.Uint8}
	it := New(d)

	err := it.SetValue(Value{Absent: true})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrMissingValue))
}

func TestImmediatePadding_EquivalentToPayloadOfLastKBytes(t *testing.T) {
	d := descriptor.Descriptor{ID: 9, Name: "x", Shape: []int{2}, HasDtype: true, Dtype: dtype.Uint8}

	full := []byte{0xAA, 0xBB, 0x01, 0x02}
	immediate := New(d)
	require.NoError(t, immediate.SetFromRaw(wire.RawItem{IsImmediate: true, Value: full}))

	payload := New(d)
	require.NoError(t, payload.SetFromRaw(wire.RawItem{IsImmediate: false, Value: full[2:]}))

	assert.Equal(t, immediate.Value().Uint8s, payload.Value().Uint8s)
}

func TestSetFromRaw_BooleanDtypeMode(t *testing.T) {
	d := descriptor.Descriptor{
		ID:       11,
		Name:     "flags",
		Shape:    []int{3},
		HasDtype: true,
		Dtype:    dtype.Bool1,
	}
	it := New(d)

	raw := wire.RawItem{Value: []byte{1, 0, 1}}
	require.NoError(t, it.SetFromRaw(raw))

	v := it.Value()
	assert.Equal(t, []bool{true, false, true}, v.Bools)

	buf, err := it.ToBuffer()
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 0, 1}, buf)
}

func TestSetFromRaw_CompoundDtypeModeRoundTrip(t *testing.T) {
	// A multi-field format reduces to a compound dtype during descriptor
	// construction (descriptor.FromRaw), so an Item built from it must be
	// able to decode and re-encode a value through the dtype-mode path.
	d := descriptor.Descriptor{
		ID:       12,
		Name:     "pair",
		Shape:    []int{2},
		HasDtype: true,
		Dtype:    dtype.Compound(dtype.Uint32.Swapped(), dtype.Int16.Swapped()),
	}
	it := New(d)

	raw := wire.RawItem{Value: []byte{
		0x00, 0x00, 0x00, 0x07, 0xFF, 0xFF, // {7, -1}
		0x00, 0x00, 0x00, 0x09, 0x00, 0x02, // {9, 2}
	}}
	require.NoError(t, it.SetFromRaw(raw))

	v := it.Value()
	require.Len(t, v.Records, 2)
	assert.Equal(t, uint64(7), v.Records[0][0].Uint)
	assert.Equal(t, int64(-1), v.Records[0][1].Int)
	assert.Equal(t, uint64(9), v.Records[1][0].Uint)
	assert.Equal(t, int64(2), v.Records[1][1].Int)

	buf, err := it.ToBuffer()
	require.NoError(t, err)
	assert.Equal(t, raw.Value, buf)
}

func TestSetFromRaw_FormatModeRoundTrip(t *testing.T) {
	d := descriptor.Descriptor{
		ID:        10,
		Name:      "records",
		Shape:     []int{2},
		HasFormat: true,
		Format:    format.Format{{Code: format.CodeUnsigned, Length: 4}, {Code: format.CodeBoolean, Length: 4}},
	}
	it := New(d)

	records := [][]format.Value{
		{{Uint: 5}, {Bool: true}},
		{{Uint: 9}, {Bool: false}},
	}
	require.NoError(t, it.SetValue(Value{Shape: []int{2}, Records: records}))

	buf, err := it.ToBuffer()
	require.NoError(t, err)

	it2 := New(d)
	require.NoError(t, it2.SetFromRaw(wire.RawItem{Value: buf}))
	got := it2.Value().Records
	assert.Equal(t, uint64(5), got[0][0].Uint)
	assert.True(t, got[0][1].Bool)
	assert.Equal(t, uint64(9), got[1][0].Uint)
	assert.False(t, got[1][1].Bool)
}
