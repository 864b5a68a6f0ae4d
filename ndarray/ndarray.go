// Package ndarray provides the zero-copy byte/element reinterpretation and
// byte-swap primitives the item-layer codec's dtype-mode path is built on
// (see spec §1's "numeric-array library... taken as given").
//
// Item's dtype-mode path reinterprets a raw byte slice as a flat array of
// Number via FromBytes; this mirrors the zero-copy unsafe.Slice
// reinterpretation mebo's raw numeric decoder uses for its own fixed
// float64 column, generalized here to any fixed-width numeric element type
// via a type parameter. A descriptor's shape and axis order are carried as
// metadata describing how a caller should index the flat elements; they
// never change the physical byte sequence, so this package has no shaped
// array type of its own to reshape or transpose.
package ndarray

import (
	"fmt"
	"unsafe"

	"golang.org/x/exp/constraints"
)

// Number is the set of element types a flat array may hold: every numeric
// kind a dtype can name.
type Number interface {
	constraints.Integer | constraints.Float
}

// FromBytes reinterprets raw as a flat slice of T without copying. len(raw)
// must be an exact multiple of the width of T; the caller is responsible
// for byte order — FromBytes performs no byte swapping; item.SetFromRaw's
// dtype-mode path swaps the returned slice in place when the source order
// is non-native.
//
// The returned slice aliases raw: mutating one mutates the other. Callers
// that need an owned copy should copy raw first.
func FromBytes[T Number](raw []byte) ([]T, error) {
	var zero T
	width := int(unsafe.Sizeof(zero))

	if len(raw) == 0 {
		return nil, nil
	}
	if len(raw)%width != 0 {
		return nil, fmt.Errorf("ndarray: byte slice length (%d) is not a multiple of element width (%d)", len(raw), width)
	}

	ptr := (*T)(unsafe.Pointer(&raw[0]))
	return unsafe.Slice(ptr, len(raw)/width), nil
}

// ToBytes reinterprets a flat slice of T as its raw bytes without copying,
// the mirror of FromBytes. The returned slice aliases data.
func ToBytes[T Number](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	width := int(unsafe.Sizeof(zero))

	ptr := (*byte)(unsafe.Pointer(&data[0]))
	return unsafe.Slice(ptr, len(data)*width)
}

// ByteSwapInPlace reverses the byte order of every element in place. It
// operates on the array's own backing storage via unsafe reinterpretation,
// so any aliased byte buffer observes the swap too; this backs the dtype
// path's "swap in place, reinterpret as native order" efficiency
// normalization described in the codec's component design.
func ByteSwapInPlace[T Number](data []T) {
	var zero T
	width := int(unsafe.Sizeof(zero))
	if width <= 1 {
		return
	}

	for i := range data {
		ptr := (*T)(unsafe.Pointer(&data[i]))
		b := unsafe.Slice((*byte)(unsafe.Pointer(ptr)), width)
		for lo, hi := 0, width-1; lo < hi; lo, hi = lo+1, hi-1 {
			b[lo], b[hi] = b[hi], b[lo]
		}
	}
}
