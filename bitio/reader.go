// Package bitio provides a stateful cursor for packing and unpacking
// variable-width unsigned integers across a byte buffer, MSB-first both
// across the buffer and within each field.
//
// This is the lowest layer of the item-layer codec: the format codec drives
// a Reader/Writer pair to turn a SPEAD format specification's bitfields
// into Go values and back. The original Python implementation expresses
// this cursor as a pair of coroutines driven by send(); here it's an
// explicit stateful object, which is the natural Go shape for the same
// "read/write n bits, keep the remainder buffered" contract.
package bitio

import (
	"github.com/ska-sa/spead-go/errs"
)

// Reader unpacks unsigned integers of arbitrary bit width from a byte
// buffer, MSB-first. It is not safe for concurrent use.
type Reader struct {
	src   []byte
	pos   int    // next unread byte in src
	acc   uint64 // at most 8 residual bits from the most recently read byte
	nbits int    // number of valid low-order bits buffered in acc, 0..8
}

// NewReader creates a Reader over src. The Reader does not copy src; the
// caller must not mutate it while reading.
func NewReader(src []byte) *Reader {
	return &Reader{src: src}
}

// Take reads the next n bits from the stream, MSB-first, and returns them
// as the low-order n bits of the result. n must be between 0 and 64
// inclusive; Take(0) always returns 0 without consuming input.
//
// Take returns errs.ErrBitStreamEOF wrapped with context if the source
// buffer is exhausted before n bits can be supplied.
func (r *Reader) Take(n int) (uint64, error) {
	if n == 0 {
		return 0, nil
	}

	var result uint64
	remaining := n

	for remaining > 0 {
		if r.nbits == 0 {
			if r.pos >= len(r.src) {
				return 0, errs.Wrap(errs.ErrBitStreamEOF, "need %d more bits, source exhausted", remaining)
			}
			r.acc = uint64(r.src[r.pos])
			r.pos++
			r.nbits = 8
		}

		take := remaining
		if take > r.nbits {
			take = r.nbits
		}

		shift := r.nbits - take
		mask := (uint64(1) << take) - 1
		chunk := (r.acc >> shift) & mask

		result = (result << take) | chunk

		if shift == 0 {
			r.acc = 0
		} else {
			r.acc &= (uint64(1) << shift) - 1
		}
		r.nbits -= take
		remaining -= take
	}

	return result, nil
}

// Remaining reports the number of whole bytes not yet consumed from the
// source buffer, not counting bits already buffered in the accumulator.
func (r *Reader) Remaining() int {
	return len(r.src) - r.pos
}
