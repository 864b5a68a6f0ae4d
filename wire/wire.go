// Package wire defines the contract presented by the transport/heap-assembly
// layer named in the codec's external interfaces: raw descriptors, raw
// items, and the heap that bundles them, plus the bug-compatibility flag
// set that tunes how the codec interprets a legacy sender's quirks.
//
// Nothing in this package does any decoding itself; it is the boundary
// data model that descriptor.FromRaw, item.SetFromRaw, and group.Update
// consume. Network ingest, packet reassembly, and buffer pooling for these
// types are out of scope here and are assumed to be supplied externally.
package wire

import "github.com/ska-sa/spead-go/format"

// BugCompat is a bit set selecting compensations for specific legacy-sender
// quirks. Only SwapEndian is observed by this codec; the others are
// consumed by the assembly layer.
type BugCompat uint32

const (
	// DescriptorWidths compensates for a legacy sender's inconsistent
	// descriptor field widths. Consumed by the assembly layer, not the
	// core codec.
	DescriptorWidths BugCompat = 1 << iota

	// ShapeBit1 compensates for a legacy sender's off-by-one shape
	// encoding. Consumed by the assembly layer, not the core codec.
	ShapeBit1

	// SwapEndian causes every dtype observed in an inbound numpy-style
	// descriptor to be reinterpreted with the opposite byte order before
	// storage, and causes an outbound dtype to be byte-swapped before
	// emission. This is the only flag the item-layer codec itself honors.
	SwapEndian
)

// Pyspead052 is the union of all three primitive flags, naming the
// combination needed to interoperate with PySPEAD 0.5.2 senders.
const Pyspead052 = DescriptorWidths | ShapeBit1 | SwapEndian

// Has reports whether flag is set in bc.
func (bc BugCompat) Has(flag BugCompat) bool {
	return bc&flag != 0
}

// RawDescriptor is the transport layer's representation of one descriptor
// carried by a heap. Exactly one of NumpyHeader or Format is populated.
type RawDescriptor struct {
	ID          uint64
	Name        string
	Description string
	Shape       []int
	Format      format.Format
	NumpyHeader string // empty when absent
}

// RawItem is the transport layer's representation of one item's encoded
// value carried by a heap.
type RawItem struct {
	ID uint64
	// Value is the raw byte buffer. Its padding discipline is determined
	// by IsImmediate: head-padded (significant bytes at the end) when
	// true, tail-padded (significant bytes at the start) when false.
	Value []byte
	// IsImmediate distinguishes an inline-encoded field from a
	// payload-referencing one.
	IsImmediate bool
}

// Heap is one unit of delivery from the transport layer: a sequence
// number, a bug-compat flag set, and the descriptors and items carried in
// this delivery.
type Heap struct {
	BugCompat   BugCompat
	Cnt         uint64
	Descriptors []RawDescriptor
	Items       []RawItem
}
