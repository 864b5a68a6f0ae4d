// Package dtype represents the element type of a descriptor's numeric-array
// value: its kind, width, and byte order.
//
// This stands in for the numpy dtype object the item-layer codec treats as
// an external given (see the package-level discussion in ndarray). A Dtype
// here is the minimal slice of that contract the codec actually touches:
// enough to size a raw buffer, reinterpret it, and round-trip it through
// the numpy-style header string embedded in a wire descriptor.
package dtype

import (
	"fmt"

	"github.com/ska-sa/spead-go/endian"
)

// Kind identifies the element representation of a Dtype.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindUint
	KindInt
	KindFloat
	KindBytes // single-byte string field, numpy "S1"
	KindBool  // single-byte boolean field, numpy "b1"
)

func (k Kind) String() string {
	switch k {
	case KindUint:
		return "uint"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBytes:
		return "bytes"
	case KindBool:
		return "bool"
	default:
		return "invalid"
	}
}

// Dtype is an immutable element type descriptor: kind, byte width, and
// (for multi-byte kinds) byte order. A compound record dtype (the result of
// reducing a multi-field format) additionally carries Fields, one per
// packed-record member, in wire order; Kind/Size/Order are unused on a
// compound Dtype and Itemsize sums the member widths instead.
type Dtype struct {
	Kind   Kind
	Size   int // width in bytes
	Order  endian.EndianEngine
	Fields []Dtype // non-nil for a compound (multi-field record) dtype
}

// IsCompound reports whether d represents a packed record of several
// fields rather than a single scalar element.
func (d Dtype) IsCompound() bool {
	return d.Fields != nil
}

// Compound builds a compound record dtype from fields, in wire order. It is
// the direct-construction counterpart to format.Reduce: per the dtype
// reduction idempotence property, a descriptor built from a dtype-compatible
// format must equal one built from Compound(sameFields...).
func Compound(fields ...Dtype) Dtype {
	return Dtype{Fields: fields}
}

// Uint8, Uint16, ... are the standard numeric element types in little-endian
// order; Swapped gives the big-endian form.
var (
	Uint8   = Dtype{Kind: KindUint, Size: 1, Order: endian.GetLittleEndianEngine()}
	Uint16  = Dtype{Kind: KindUint, Size: 2, Order: endian.GetLittleEndianEngine()}
	Uint32  = Dtype{Kind: KindUint, Size: 4, Order: endian.GetLittleEndianEngine()}
	Uint64  = Dtype{Kind: KindUint, Size: 8, Order: endian.GetLittleEndianEngine()}
	Int8    = Dtype{Kind: KindInt, Size: 1, Order: endian.GetLittleEndianEngine()}
	Int16   = Dtype{Kind: KindInt, Size: 2, Order: endian.GetLittleEndianEngine()}
	Int32   = Dtype{Kind: KindInt, Size: 4, Order: endian.GetLittleEndianEngine()}
	Int64   = Dtype{Kind: KindInt, Size: 8, Order: endian.GetLittleEndianEngine()}
	Float32 = Dtype{Kind: KindFloat, Size: 4, Order: endian.GetLittleEndianEngine()}
	Float64 = Dtype{Kind: KindFloat, Size: 8, Order: endian.GetLittleEndianEngine()}
	Bytes1  = Dtype{Kind: KindBytes, Size: 1, Order: endian.GetLittleEndianEngine()}
	Bool1   = Dtype{Kind: KindBool, Size: 1, Order: endian.GetLittleEndianEngine()}
)

// WithOrder returns a copy of d using the given byte order. Single-byte
// kinds are order-independent but the field is carried for symmetry with
// the numpy dtype model, where even a 1-byte dtype has a byteorder char.
// For a compound dtype, order is applied to every field.
func (d Dtype) WithOrder(order endian.EndianEngine) Dtype {
	if d.IsCompound() {
		fields := make([]Dtype, len(d.Fields))
		for i, f := range d.Fields {
			fields[i] = f.WithOrder(order)
		}
		d.Fields = fields
		return d
	}
	d.Order = order
	return d
}

// Swapped returns a copy of d with the opposite byte order. This backs the
// SWAP_ENDIAN bug-compat flag. SWAP_ENDIAN applies to dtype-bearing
// descriptors only per the codec's design notes; format-mode descriptors
// (not yet reduced to a dtype) are unaffected.
func (d Dtype) Swapped() Dtype {
	if d.IsCompound() {
		fields := make([]Dtype, len(d.Fields))
		for i, f := range d.Fields {
			fields[i] = f.Swapped()
		}
		d.Fields = fields
		return d
	}
	return d.WithOrder(endian.Opposite(d.Order))
}

// Itemsize returns the width of one element in bytes: for a compound dtype,
// the sum of its fields' widths.
func (d Dtype) Itemsize() int {
	if d.IsCompound() {
		total := 0
		for _, f := range d.Fields {
			total += f.Itemsize()
		}
		return total
	}
	return d.Size
}

// IsNativeOrder reports whether d's byte order matches the host's.
func (d Dtype) IsNativeOrder() bool {
	return endian.CompareNativeEndian(d.Order)
}

// orderChar returns the numpy-style byte order character: '<' little, '>'
// big, '|' not applicable (single-byte kinds).
func (d Dtype) orderChar() byte {
	if d.Size <= 1 {
		return '|'
	}
	if endian.IsLittleEndian(d.Order) {
		return '<'
	}
	return '>'
}

// typeChar returns the numpy type-code character for d's Kind.
func (d Dtype) typeChar() byte {
	switch d.Kind {
	case KindUint:
		return 'u'
	case KindInt:
		return 'i'
	case KindFloat:
		return 'f'
	case KindBool:
		return 'b'
	default:
		return 0
	}
}

// String returns d's canonical numpy-style dtype descriptor string, e.g.
// "<u4", ">f8", or "|S1". A compound dtype renders as numpy's structured
// dtype list form, e.g. "[('f0','>u4'),('f1','|S1')]".
func (d Dtype) String() string {
	if d.IsCompound() {
		s := "["
		for i, f := range d.Fields {
			if i > 0 {
				s += ","
			}
			s += fmt.Sprintf("('f%d','%s')", i, f.String())
		}
		return s + "]"
	}

	if d.Kind == KindBytes {
		return "|S1"
	}

	return fmt.Sprintf("%c%c%d", d.orderChar(), d.typeChar(), d.Size)
}

// Parse parses a numpy-style dtype descriptor string such as "<u4", ">f8",
// "|S1", or "S1" (no explicit order, treated as not-applicable) into a
// Dtype. Parse does not support the structured-dtype list form that String
// emits for a compound dtype, so the numpy header that descriptor.ToRaw
// emits for a compound dtype (a reduced multi-field format) is rejected by
// descriptor.FromRaw.
func Parse(descr string) (Dtype, error) {
	if descr == "" {
		return Dtype{}, fmt.Errorf("empty dtype descriptor")
	}

	order := endian.GetLittleEndianEngine()
	i := 0
	switch descr[0] {
	case '<':
		order = endian.GetLittleEndianEngine()
		i = 1
	case '>':
		order = endian.GetBigEndianEngine()
		i = 1
	case '|', '=':
		i = 1
	}

	if i >= len(descr) {
		return Dtype{}, fmt.Errorf("dtype descriptor %q has no type code", descr)
	}

	code := descr[i]
	rest := descr[i+1:]

	if code == 'S' {
		if rest != "1" {
			return Dtype{}, fmt.Errorf("dtype descriptor %q: only single-byte string fields are supported", descr)
		}
		return Bytes1, nil
	}

	if code == 'b' {
		if rest != "1" {
			return Dtype{}, fmt.Errorf("dtype descriptor %q: only single-byte bool fields are supported", descr)
		}
		return Bool1, nil
	}

	var kind Kind
	switch code {
	case 'u':
		kind = KindUint
	case 'i':
		kind = KindInt
	case 'f':
		kind = KindFloat
	default:
		return Dtype{}, fmt.Errorf("dtype descriptor %q: unrecognized type code %q", descr, code)
	}

	size := 0
	if _, err := fmt.Sscanf(rest, "%d", &size); err != nil {
		return Dtype{}, fmt.Errorf("dtype descriptor %q: invalid size %q", descr, rest)
	}

	switch {
	case kind == KindFloat && (size != 4 && size != 8):
		return Dtype{}, fmt.Errorf("dtype descriptor %q: unsupported float size %d", descr, size)
	case kind != KindFloat && (size != 1 && size != 2 && size != 4 && size != 8):
		return Dtype{}, fmt.Errorf("dtype descriptor %q: unsupported integer size %d", descr, size)
	}

	return Dtype{Kind: kind, Size: size, Order: order}, nil
}

// Equal reports whether d and other describe the same kind, size, and byte
// order (order is ignored for single-byte kinds, matching numpy semantics
// where a 1-byte dtype has no meaningful byte order). Two compound dtypes
// are equal iff they have the same number of fields, each pairwise equal.
func (d Dtype) Equal(other Dtype) bool {
	if d.IsCompound() || other.IsCompound() {
		if !d.IsCompound() || !other.IsCompound() {
			return false
		}
		if len(d.Fields) != len(other.Fields) {
			return false
		}
		for i, f := range d.Fields {
			if !f.Equal(other.Fields[i]) {
				return false
			}
		}
		return true
	}

	if d.Kind != other.Kind || d.Size != other.Size {
		return false
	}
	if d.Size <= 1 {
		return true
	}

	return d.Order == other.Order
}
