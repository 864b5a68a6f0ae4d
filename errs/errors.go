// Package errs defines the sentinel error kinds produced by the item-layer
// codec, along with helpers for wrapping them with offending-input context.
//
// Every exported error in this package corresponds to one of the error kinds
// named in the codec's error handling design: descriptor parsing, shape
// resolution, format encode range, format definition, value shape, missing
// value, and bit-stream bounds. Callers should match against these sentinels
// with errors.Is rather than string comparison.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrDescriptorParse indicates a malformed numpy-style header, a missing
	// or extra key, a non-integer shape entry, a non-boolean fortran_order,
	// or an unrecognized dtype descriptor string.
	ErrDescriptorParse = errors.New("descriptor parse error")

	// ErrDescriptorConflict indicates a descriptor supplied both dtype and
	// format, or neither, or used an order symbol other than 'C' or 'F'.
	ErrDescriptorConflict = errors.New("descriptor dtype/format conflict")

	// ErrShapeMultipleUnknown indicates a shape with more than one negative
	// (variable) dimension, which cannot be resolved at decode time.
	ErrShapeMultipleUnknown = errors.New("shape has multiple unknown dimensions")

	// ErrShapeInsufficient indicates the raw item has too few bytes to hold
	// the number of elements the descriptor's shape resolved to.
	ErrShapeInsufficient = errors.New("item has too few elements for shape")

	// ErrFormatRange indicates a value supplied for encoding falls outside
	// the range representable by its field's bit width.
	ErrFormatRange = errors.New("value out of range for field width")

	// ErrFormatDefinition indicates an unrecognized (code, length) pair in a
	// format specification.
	ErrFormatDefinition = errors.New("unrecognized format field")

	// ErrValueShape indicates a value supplied for encoding has a shape
	// incompatible with the descriptor's fixed dimensions.
	ErrValueShape = errors.New("value shape incompatible with descriptor")

	// ErrMissingValue indicates an attempt to serialize an item whose value
	// is absent, or an attempt to assign the absent sentinel to an item.
	ErrMissingValue = errors.New("item value is absent")

	// ErrBitStreamEOF indicates a bit-stream read past the end of the
	// source buffer.
	ErrBitStreamEOF = errors.New("bit-stream read past end of buffer")

	// ErrUnknownItem indicates a raw item referencing a descriptor id the
	// group has never seen. Group.Update tolerates this locally; it is
	// exported so callers that bypass Update can recognize the same
	// condition.
	ErrUnknownItem = errors.New("item references unknown descriptor")
)

// Wrap annotates a sentinel error with a formatted, offending-input message
// while preserving errors.Is matching against sentinel.
func Wrap(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), sentinel)
}
