// Package format implements the packed-record codec that sits directly on
// top of bitio: a Format is an ordered sequence of typed bitfields, and
// Encode/Decode turn one record's worth of Go values into bits and back.
//
// This is the "format codec" layer: descriptors in dtype mode never touch
// this package directly (they reinterpret raw bytes via dtype instead), but
// any descriptor built from an explicit field list is driven through here,
// and a format that happens to be losslessly representable as a numeric
// dtype is collapsed to one by Reduce so the rest of the codec can treat it
// uniformly.
package format

import (
	"fmt"
	"math"

	"github.com/ska-sa/spead-go/bitio"
	"github.com/ska-sa/spead-go/dtype"
	"github.com/ska-sa/spead-go/endian"
	"github.com/ska-sa/spead-go/errs"
)

// Code identifies one bitfield's wire representation within a Format.
type Code byte

const (
	CodeUnsigned  Code = 'u'
	CodeSigned    Code = 'i'
	CodeBoolean   Code = 'b'
	CodeCharacter Code = 'c'
	CodeFloat     Code = 'f'
)

func (c Code) String() string {
	return string(rune(c))
}

// Field is one (code, length_bits) pair in a Format.
type Field struct {
	Code   Code
	Length int // width in bits
}

// Format is a nonempty ordered sequence of bitfields describing one packed
// record. Decoding walks Fields in order and produces one Go value per
// field; encoding is the mirror.
type Format []Field

// Validate checks that every field names a supported (code, length)
// combination, returning an ErrFormatDefinition-wrapped error naming the
// first offender.
func (f Format) Validate() error {
	for i, field := range f {
		if !field.valid() {
			return errs.Wrap(errs.ErrFormatDefinition, "field %d: unrecognized (%c, %d)", i, field.Code, field.Length)
		}
	}
	return nil
}

func (field Field) valid() bool {
	switch field.Code {
	case CodeUnsigned, CodeSigned, CodeBoolean:
		return field.Length >= 1
	case CodeCharacter:
		return field.Length == 8
	case CodeFloat:
		return field.Length == 32 || field.Length == 64
	default:
		return false
	}
}

// BitLength returns the total number of bits one record occupies: the sum
// of all field widths.
func (f Format) BitLength() int {
	total := 0
	for _, field := range f {
		total += field.Length
	}
	return total
}

// Value is one decoded field's worth of data. Exactly one field is
// meaningful, selected by the Field's Code: Uint for 'u', Int for 'i',
// Bool for 'b', Char for 'c', Float for 'f'.
type Value struct {
	Uint  uint64
	Int   int64
	Bool  bool
	Char  byte
	Float float64
}

// Uint64 returns v's Uint field. Int, Bool, Char and Float are not
// consulted, so the result is meaningful only for a value from a 'u' field.
func (v Value) Uint64() uint64 {
	return v.Uint
}

// Encode writes one record's worth of values, one per field in f, using w.
// len(values) must equal len(f).
func Encode(w *bitio.Writer, f Format, values []Value) error {
	if len(values) != len(f) {
		return fmt.Errorf("format: expected %d values, got %d", len(f), len(values))
	}

	for i, field := range f {
		if err := encodeField(w, field, values[i]); err != nil {
			return fmt.Errorf("field %d: %w", i, err)
		}
	}
	return nil
}

func encodeField(w *bitio.Writer, field Field, v Value) error {
	switch field.Code {
	case CodeUnsigned:
		limit := uint64(1) << field.Length
		if field.Length == 64 {
			return w.Put(v.Uint, field.Length)
		}
		if v.Uint >= limit {
			return errs.Wrap(errs.ErrFormatRange, "value %d does not fit in unsigned field of %d bits", v.Uint, field.Length)
		}
		return w.Put(v.Uint, field.Length)

	case CodeSigned:
		n := field.Length
		if n < 64 {
			lo := -(int64(1) << (n - 1))
			hi := int64(1) << (n - 1)
			if v.Int < lo || v.Int >= hi {
				return errs.Wrap(errs.ErrFormatRange, "value %d does not fit in signed field of %d bits", v.Int, n)
			}
		}
		mask := uint64(1)<<n - 1
		bits := uint64(v.Int) & mask
		return w.Put(bits, n)

	case CodeBoolean:
		val := uint64(0)
		if v.Bool {
			val = 1
		}
		return w.Put(val, field.Length)

	case CodeCharacter:
		return w.Put(uint64(v.Char), field.Length)

	case CodeFloat:
		var bits uint64
		if field.Length == 32 {
			bits = uint64(math.Float32bits(float32(v.Float)))
		} else {
			bits = math.Float64bits(v.Float)
		}
		return w.Put(bits, field.Length)

	default:
		return errs.Wrap(errs.ErrFormatDefinition, "unrecognized field code %c", field.Code)
	}
}

// Decode reads one record's worth of values, one per field in f, using r.
func Decode(r *bitio.Reader, f Format) ([]Value, error) {
	out := make([]Value, len(f))
	for i, field := range f {
		v, err := decodeField(r, field)
		if err != nil {
			return nil, fmt.Errorf("field %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func decodeField(r *bitio.Reader, field Field) (Value, error) {
	switch field.Code {
	case CodeUnsigned:
		bits, err := r.Take(field.Length)
		if err != nil {
			return Value{}, err
		}
		return Value{Uint: bits}, nil

	case CodeSigned:
		bits, err := r.Take(field.Length)
		if err != nil {
			return Value{}, err
		}
		n := field.Length
		signBit := uint64(1) << (n - 1)
		var signed int64
		if bits&signBit != 0 {
			signed = int64(bits) - (int64(1) << n)
		} else {
			signed = int64(bits)
		}
		return Value{Int: signed}, nil

	case CodeBoolean:
		bits, err := r.Take(field.Length)
		if err != nil {
			return Value{}, err
		}
		return Value{Bool: bits != 0}, nil

	case CodeCharacter:
		bits, err := r.Take(field.Length)
		if err != nil {
			return Value{}, err
		}
		return Value{Char: byte(bits)}, nil

	case CodeFloat:
		bits, err := r.Take(field.Length)
		if err != nil {
			return Value{}, err
		}
		var f64 float64
		if field.Length == 32 {
			f64 = float64(math.Float32frombits(uint32(bits)))
		} else {
			f64 = math.Float64frombits(bits)
		}
		return Value{Float: f64}, nil

	default:
		return Value{}, errs.Wrap(errs.ErrFormatDefinition, "unrecognized field code %c", field.Code)
	}
}

// Reduce reports whether f is "dtype-compatible" — every field is u/i with
// length in {8,16,32,64}, f with length in {32,64}, b with length 8, or c
// with length 8 — and if so returns the equivalent big-endian dtype. A
// single-field format reduces to a scalar dtype; a multi-field format
// reduces to a compound dtype with one member per field, in wire order
// (the c/8 case becoming a single-byte string member, b/8 becoming a
// single-byte boolean member — distinct dtype kinds, per numpy's own 'S1'
// vs 'b1' typestrings). Any non-conforming field leaves the codec in
// bitfield mode, reported by the second return value being false.
func Reduce(f Format) (dtype.Dtype, bool) {
	if len(f) == 0 {
		return dtype.Dtype{}, false
	}

	members := make([]dtype.Dtype, len(f))
	for i, field := range f {
		member, ok := reduceField(field)
		if !ok {
			return dtype.Dtype{}, false
		}
		members[i] = member
	}

	if len(members) == 1 {
		return members[0], true
	}
	return dtype.Compound(members...), true
}

func reduceField(field Field) (dtype.Dtype, bool) {
	be := endian.GetBigEndianEngine()

	switch field.Code {
	case CodeUnsigned:
		switch field.Length {
		case 8:
			return dtype.Uint8.WithOrder(be), true
		case 16:
			return dtype.Uint16.WithOrder(be), true
		case 32:
			return dtype.Uint32.WithOrder(be), true
		case 64:
			return dtype.Uint64.WithOrder(be), true
		}
	case CodeSigned:
		switch field.Length {
		case 8:
			return dtype.Int8.WithOrder(be), true
		case 16:
			return dtype.Int16.WithOrder(be), true
		case 32:
			return dtype.Int32.WithOrder(be), true
		case 64:
			return dtype.Int64.WithOrder(be), true
		}
	case CodeFloat:
		switch field.Length {
		case 32:
			return dtype.Float32.WithOrder(be), true
		case 64:
			return dtype.Float64.WithOrder(be), true
		}
	case CodeCharacter:
		if field.Length == 8 {
			return dtype.Bytes1, true
		}
	case CodeBoolean:
		if field.Length == 8 {
			return dtype.Bool1, true
		}
	}

	return dtype.Dtype{}, false
}
