// Package spead provides the item-layer codec for the SPEAD streaming
// protocol: descriptors that describe a numeric or text item's wire layout,
// items that hold a typed value against a descriptor, and an item group
// that tracks many items by id and name across a stream of heaps.
//
// # Core Features
//
//   - Bit-exact packing/unpacking of arbitrary-width fields (bitio)
//   - Numpy-compatible dtype descriptor strings and header parsing
//   - Dynamic shape resolution for variable-length items
//   - Dtype-compatible format reduction for zero-copy numeric decoding
//   - Bug-compatibility flags for legacy SPEAD implementations
//
// # Basic Usage
//
// Building an item group and applying heaps as they arrive:
//
//	g := group.New()
//	updated, err := g.Update(heap)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for name, it := range updated {
//	    fmt.Printf("%s = %+v (version %d)\n", name, it.Value(), it.Version())
//	}
//
// # Package Structure
//
// This package re-exports the bug-compatibility constants most callers
// need; the bitio, format, dtype, descriptor, item, and group packages
// provide the full component-level API.
package spead

import "github.com/ska-sa/spead-go/wire"

// Bug-compatibility flags controlling legacy SPEAD wire quirks, re-exported
// from the wire package for convenience.
const (
	DescriptorWidths = wire.DescriptorWidths
	ShapeBit1        = wire.ShapeBit1
	SwapEndian       = wire.SwapEndian
	Pyspead052       = wire.Pyspead052
)

// BugCompat is a set of bug-compatibility flags, re-exported from the wire
// package for convenience.
type BugCompat = wire.BugCompat
