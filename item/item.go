// Package item implements the item-layer codec's C4 component: a
// Descriptor paired with a current value and a monotonic version, capable
// of materializing a value from a raw heap field (SetFromRaw) and
// serializing a value to a raw heap field (ToBuffer).
package item

import (
	"fmt"
	"math"
	"strings"

	"github.com/ska-sa/spead-go/bitio"
	"github.com/ska-sa/spead-go/descriptor"
	"github.com/ska-sa/spead-go/dtype"
	"github.com/ska-sa/spead-go/errs"
	"github.com/ska-sa/spead-go/format"
	"github.com/ska-sa/spead-go/ndarray"
	"github.com/ska-sa/spead-go/wire"
)

// Value is an item's current decoded value. Exactly one storage field is
// populated, matching the descriptor's shape and dtype/format mode:
//
//   - IsScalar: set when the shape is zero-dimensional; the single element
//     is then held in a one-element slice (dtype mode) or in the one
//     record of Records (format mode).
//   - Uint8s/..., Float32s/Float64s, Bools: flat element storage for a
//     fixed- or variable-shaped dtype-mode array, paired with Shape.
//   - Text: the one-dimensional single-byte-string specialization.
//   - Records: one []format.Value per element, in the descriptor's shape
//     order. Populated by format-mode items, and also by dtype-mode items
//     whose dtype is compound (a reduced multi-field format, per
//     descriptor.FromRaw) — each record holds one value per compound
//     member, in the same field order the original format would have used.
//
// Value's sum-type-via-struct shape mirrors Descriptor's Dtype/Format
// tagged-variant design: callers check Absent and then which storage
// field is populated, matching how the descriptor already
// branches on HasDtype/HasFormat.
type Value struct {
	Absent bool

	Shape []int

	// Dtype-mode storage. Present when the descriptor is in dtype mode and
	// its dtype is scalar (not compound). Exactly one slice is populated,
	// selected by dtype.Kind; Text holds the one-dimensional
	// single-byte-string specialization.
	Uint8s   []uint8
	Uint16s  []uint16
	Uint32s  []uint32
	Uint64s  []uint64
	Int8s    []int8
	Int16s   []int16
	Int32s   []int32
	Int64s   []int64
	Float32s []float32
	Float64s []float64
	Bools    []bool
	Text     string
	IsText   bool
	IsScalar bool

	// Records holds one record (slice of field values) per element, in
	// shape order (row-major walk): format-mode storage, and dtype-mode
	// storage for a compound dtype.
	Records [][]format.Value
}

// Item is a Descriptor bound to a current value and a version counter.
type Item struct {
	descriptor.Descriptor
	value   Value
	version uint64
}

// New constructs an Item from a Descriptor with no value assigned yet.
func New(d descriptor.Descriptor) *Item {
	return &Item{Descriptor: d, value: Value{Absent: true}}
}

// Value returns the item's current value.
func (it *Item) Value() Value {
	return it.value
}

// Version returns the item's current version counter.
func (it *Item) Version() uint64 {
	return it.version
}

// SetValue assigns v as the item's current value and increments Version.
// Assigning an absent value fails with errs.ErrMissingValue.
func (it *Item) SetValue(v Value) error {
	if v.Absent {
		return errs.Wrap(errs.ErrMissingValue, "cannot assign absent value to item %q", it.Name)
	}
	it.value = v
	it.version++
	return nil
}

// SetVersionFromHeap stamps the item's version with a heap's sequence
// number rather than incrementing it. It is used by group.Update when
// applying an inbound heap update, whose version is the heap's cnt rather
// than a locally incremented counter.
func (it *Item) SetVersionFromHeap(cnt uint64) {
	it.version = cnt
}

// FromRaw constructs an Item from a raw descriptor: it builds the
// underlying Descriptor via descriptor.FromRaw and wraps it with no value
// assigned.
func FromRaw(raw wire.RawDescriptor, bugCompat wire.BugCompat) (*Item, error) {
	d, err := descriptor.FromRaw(raw, bugCompat)
	if err != nil {
		return nil, err
	}
	return New(d), nil
}

// SetFromRaw materializes it's value from a raw item's encoded buffer,
// branching on whether it.Descriptor is in dtype mode or format mode, and
// assigns the result via SetValue (bumping Version).
func (it *Item) SetFromRaw(raw wire.RawItem) error {
	var v Value
	var err error

	if it.HasDtype {
		v, err = decodeDtypeMode(it.Descriptor, raw)
	} else {
		v, err = decodeFormatMode(it.Descriptor, raw)
	}
	if err != nil {
		return err
	}

	return it.SetValue(v)
}

// sliceRaw returns the portion of raw.Value holding sizeBytes significant
// bytes: the trailing sizeBytes when immediate (head-padded), or the
// leading sizeBytes when payload (tail-padded).
func sliceRaw(raw wire.RawItem, sizeBytes int) ([]byte, error) {
	if len(raw.Value) < sizeBytes {
		return nil, errs.Wrap(errs.ErrShapeInsufficient, "item has %d bytes, needs %d", len(raw.Value), sizeBytes)
	}
	if raw.IsImmediate {
		return raw.Value[len(raw.Value)-sizeBytes:], nil
	}
	return raw.Value[:sizeBytes], nil
}

func decodeFormatMode(d descriptor.Descriptor, raw wire.RawItem) (Value, error) {
	bitLength := d.Format.BitLength()
	if bitLength == 0 {
		return Value{}, errs.Wrap(errs.ErrFormatDefinition, "format has zero total bit length")
	}

	maxElements := (len(raw.Value) * 8) / bitLength
	shape, err := d.DynamicShape(maxElements)
	if err != nil {
		return Value{}, err
	}
	elements := descriptor.NumElements(shape)
	if elements > maxElements {
		return Value{}, errs.Wrap(errs.ErrShapeInsufficient, "shape %v needs %d elements, only %d available", shape, elements, maxElements)
	}

	sizeBytes := (elements*bitLength + 7) / 8
	buf, err := sliceRaw(raw, sizeBytes)
	if err != nil {
		return Value{}, err
	}

	r := bitio.NewReader(buf)
	records := make([][]format.Value, elements)
	for i := 0; i < elements; i++ {
		rec, err := format.Decode(r, d.Format)
		if err != nil {
			return Value{}, fmt.Errorf("record %d: %w", i, err)
		}
		records[i] = rec
	}

	return Value{Shape: shape, Records: records, IsScalar: len(shape) == 0}, nil
}

func decodeDtypeMode(d descriptor.Descriptor, raw wire.RawItem) (Value, error) {
	itemsize := d.Dtype.Itemsize()
	if itemsize == 0 {
		return Value{}, errs.Wrap(errs.ErrDescriptorParse, "dtype %s has zero itemsize", d.Dtype.String())
	}

	maxElements := len(raw.Value) / itemsize
	shape, err := d.DynamicShape(maxElements)
	if err != nil {
		return Value{}, err
	}
	elements := descriptor.NumElements(shape)
	if elements > maxElements {
		return Value{}, errs.Wrap(errs.ErrShapeInsufficient, "shape %v needs %d elements, only %d available", shape, elements, maxElements)
	}

	sizeBytes := elements * itemsize
	buf, err := sliceRaw(raw, sizeBytes)
	if err != nil {
		return Value{}, err
	}

	v, err := flatFromBytes(d.Dtype, buf)
	if err != nil {
		return Value{}, err
	}
	v.Shape = shape

	if len(shape) == 0 {
		v.IsScalar = true
	}
	if len(shape) == 1 && d.Dtype.Kind == dtype.KindBytes {
		v = Value{Shape: shape, Text: bytesToASCII(v.Uint8s), IsText: true}
	}

	return v, nil
}

// flatFromBytes reinterprets buf as a flat array of dt's kind/size,
// byte-swapping in place first if dt's order is non-native (an efficiency
// normalization: the data is then treated as native order going forward).
// A compound dt (a reduced multi-field format) is instead walked
// member-by-member per record, mirroring format.Decode.
func flatFromBytes(dt dtype.Dtype, buf []byte) (Value, error) {
	if dt.IsCompound() {
		itemsize := dt.Itemsize()
		if itemsize == 0 || len(buf)%itemsize != 0 {
			return Value{}, fmt.Errorf("item: compound dtype %s itemsize %d does not evenly divide %d buffered bytes", dt.String(), itemsize, len(buf))
		}
		records, err := decodeCompoundRecords(dt, buf, len(buf)/itemsize)
		if err != nil {
			return Value{}, err
		}
		return Value{Records: records}, nil
	}

	swap := !dt.IsNativeOrder() && dt.Size > 1

	switch dt.Kind {
	case dtype.KindBytes:
		out := make([]uint8, len(buf))
		copy(out, buf)
		return Value{Uint8s: out}, nil
	case dtype.KindBool:
		out := make([]bool, len(buf))
		for i, b := range buf {
			out[i] = b != 0
		}
		return Value{Bools: out}, nil
	case dtype.KindUint:
		switch dt.Size {
		case 1:
			flat, err := ndarray.FromBytes[uint8](buf)
			return Value{Uint8s: flat}, err
		case 2:
			flat, err := ndarray.FromBytes[uint16](buf)
			if err == nil && swap {
				ndarray.ByteSwapInPlace(flat)
			}
			return Value{Uint16s: flat}, err
		case 4:
			flat, err := ndarray.FromBytes[uint32](buf)
			if err == nil && swap {
				ndarray.ByteSwapInPlace(flat)
			}
			return Value{Uint32s: flat}, err
		case 8:
			flat, err := ndarray.FromBytes[uint64](buf)
			if err == nil && swap {
				ndarray.ByteSwapInPlace(flat)
			}
			return Value{Uint64s: flat}, err
		}
	case dtype.KindInt:
		switch dt.Size {
		case 1:
			flat, err := ndarray.FromBytes[int8](buf)
			return Value{Int8s: flat}, err
		case 2:
			flat, err := ndarray.FromBytes[int16](buf)
			if err == nil && swap {
				ndarray.ByteSwapInPlace(flat)
			}
			return Value{Int16s: flat}, err
		case 4:
			flat, err := ndarray.FromBytes[int32](buf)
			if err == nil && swap {
				ndarray.ByteSwapInPlace(flat)
			}
			return Value{Int32s: flat}, err
		case 8:
			flat, err := ndarray.FromBytes[int64](buf)
			if err == nil && swap {
				ndarray.ByteSwapInPlace(flat)
			}
			return Value{Int64s: flat}, err
		}
	case dtype.KindFloat:
		switch dt.Size {
		case 4:
			flat, err := ndarray.FromBytes[float32](buf)
			if err == nil && swap {
				ndarray.ByteSwapInPlace(flat)
			}
			return Value{Float32s: flat}, err
		case 8:
			flat, err := ndarray.FromBytes[float64](buf)
			if err == nil && swap {
				ndarray.ByteSwapInPlace(flat)
			}
			return Value{Float64s: flat}, err
		}
	}

	return Value{}, fmt.Errorf("item: unsupported dtype %s", dt.String())
}

// decodeCompoundRecords walks buf as elements consecutive records of dt's
// fields, decoding each field's raw bytes into the format.Value its
// originating format code would have produced.
func decodeCompoundRecords(dt dtype.Dtype, buf []byte, elements int) ([][]format.Value, error) {
	records := make([][]format.Value, elements)
	offset := 0
	for i := 0; i < elements; i++ {
		rec := make([]format.Value, len(dt.Fields))
		for j, field := range dt.Fields {
			width := field.Itemsize()
			v, err := scalarFieldFromBytes(field, buf[offset:offset+width])
			if err != nil {
				return nil, fmt.Errorf("record %d, field %d: %w", i, j, err)
			}
			rec[j] = v
			offset += width
		}
		records[i] = rec
	}
	return records, nil
}

// scalarFieldFromBytes decodes one compound member's raw bytes into the
// format.Value its originating format code would have produced: Uint for
// u, Int for i, Float for f, Bool for b, Char for c.
func scalarFieldFromBytes(dt dtype.Dtype, buf []byte) (format.Value, error) {
	switch dt.Kind {
	case dtype.KindUint:
		switch dt.Size {
		case 1:
			return format.Value{Uint: uint64(buf[0])}, nil
		case 2:
			return format.Value{Uint: uint64(dt.Order.Uint16(buf))}, nil
		case 4:
			return format.Value{Uint: uint64(dt.Order.Uint32(buf))}, nil
		case 8:
			return format.Value{Uint: dt.Order.Uint64(buf)}, nil
		}
	case dtype.KindInt:
		switch dt.Size {
		case 1:
			return format.Value{Int: int64(int8(buf[0]))}, nil
		case 2:
			return format.Value{Int: int64(int16(dt.Order.Uint16(buf)))}, nil
		case 4:
			return format.Value{Int: int64(int32(dt.Order.Uint32(buf)))}, nil
		case 8:
			return format.Value{Int: int64(dt.Order.Uint64(buf))}, nil
		}
	case dtype.KindFloat:
		switch dt.Size {
		case 4:
			return format.Value{Float: float64(math.Float32frombits(dt.Order.Uint32(buf)))}, nil
		case 8:
			return format.Value{Float: math.Float64frombits(dt.Order.Uint64(buf))}, nil
		}
	case dtype.KindBool:
		return format.Value{Bool: buf[0] != 0}, nil
	case dtype.KindBytes:
		return format.Value{Char: buf[0]}, nil
	}
	return format.Value{}, fmt.Errorf("unsupported compound field dtype %s", dt.String())
}

func bytesToASCII(b []uint8) string {
	var sb strings.Builder
	sb.Grow(len(b))
	for _, c := range b {
		sb.WriteByte(c)
	}
	return sb.String()
}

// ToBuffer serializes it's current value to a wire-ready byte buffer. It
// fails with errs.ErrMissingValue if no value has been assigned.
func (it *Item) ToBuffer() ([]byte, error) {
	if it.value.Absent {
		return nil, errs.Wrap(errs.ErrMissingValue, "item %q has no value to serialize", it.Name)
	}

	if it.HasDtype {
		return encodeDtypeMode(it.Descriptor, it.value)
	}
	return encodeFormatMode(it.Descriptor, it.value)
}

func encodeDtypeMode(d descriptor.Descriptor, v Value) ([]byte, error) {
	shape := v.Shape
	if v.IsText {
		shape = []int{len(v.Text)}
	}
	if !d.CompatibleShape(shape) {
		return nil, errs.Wrap(errs.ErrValueShape, "value shape %v incompatible with descriptor shape %v", shape, d.Shape)
	}

	if v.IsText {
		return []byte(v.Text), nil
	}

	// d.Order only tells an external consumer how to index the flat
	// elements against d.Shape (row-major vs column-major); it never
	// changes the physical byte sequence the wire carries, so no
	// permutation of v's flat storage is needed here, and the buffer
	// handed to the caller can alias the item's own storage directly.
	buf, err := bytesFromFlat(d.Dtype, v)
	if err != nil {
		return nil, err
	}
	if want := descriptor.NumElements(shape) * d.Dtype.Itemsize(); len(buf) != want {
		return nil, errs.Wrap(errs.ErrValueShape, "value holds %d bytes, shape %v expects %d", len(buf), shape, want)
	}
	return buf, nil
}

func bytesFromFlat(dt dtype.Dtype, v Value) ([]byte, error) {
	if dt.IsCompound() {
		return encodeCompoundRecords(dt, v.Records)
	}

	swap := !dt.IsNativeOrder() && dt.Size > 1

	switch dt.Kind {
	case dtype.KindUint:
		switch dt.Size {
		case 1:
			return swappedBytesOf(v.Uint8s, false), nil
		case 2:
			return swappedBytesOf(v.Uint16s, swap), nil
		case 4:
			return swappedBytesOf(v.Uint32s, swap), nil
		case 8:
			return swappedBytesOf(v.Uint64s, swap), nil
		}
	case dtype.KindInt:
		switch dt.Size {
		case 1:
			return swappedBytesOf(v.Int8s, false), nil
		case 2:
			return swappedBytesOf(v.Int16s, swap), nil
		case 4:
			return swappedBytesOf(v.Int32s, swap), nil
		case 8:
			return swappedBytesOf(v.Int64s, swap), nil
		}
	case dtype.KindFloat:
		switch dt.Size {
		case 4:
			return swappedBytesOf(v.Float32s, swap), nil
		case 8:
			return swappedBytesOf(v.Float64s, swap), nil
		}
	case dtype.KindBytes:
		return swappedBytesOf(v.Uint8s, false), nil
	case dtype.KindBool:
		out := make([]byte, len(v.Bools))
		for i, b := range v.Bools {
			if b {
				out[i] = 1
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("item: unsupported dtype %s", dt.String())
}

// encodeCompoundRecords is the mirror of decodeCompoundRecords: it walks
// records member-by-member, encoding each format.Value back to the bytes
// its dtype member occupies on the wire.
func encodeCompoundRecords(dt dtype.Dtype, records [][]format.Value) ([]byte, error) {
	itemsize := dt.Itemsize()
	out := make([]byte, 0, itemsize*len(records))
	for i, rec := range records {
		if len(rec) != len(dt.Fields) {
			return nil, fmt.Errorf("item: record %d has %d fields, dtype expects %d", i, len(rec), len(dt.Fields))
		}
		for j, field := range dt.Fields {
			b, err := scalarFieldToBytes(field, rec[j])
			if err != nil {
				return nil, fmt.Errorf("record %d, field %d: %w", i, j, err)
			}
			out = append(out, b...)
		}
	}
	return out, nil
}

// scalarFieldToBytes is the mirror of scalarFieldFromBytes.
func scalarFieldToBytes(dt dtype.Dtype, v format.Value) ([]byte, error) {
	buf := make([]byte, dt.Size)
	switch dt.Kind {
	case dtype.KindUint:
		switch dt.Size {
		case 1:
			buf[0] = byte(v.Uint)
		case 2:
			dt.Order.PutUint16(buf, uint16(v.Uint))
		case 4:
			dt.Order.PutUint32(buf, uint32(v.Uint))
		case 8:
			dt.Order.PutUint64(buf, v.Uint)
		default:
			return nil, fmt.Errorf("unsupported compound field dtype %s", dt.String())
		}
	case dtype.KindInt:
		switch dt.Size {
		case 1:
			buf[0] = byte(v.Int)
		case 2:
			dt.Order.PutUint16(buf, uint16(int16(v.Int)))
		case 4:
			dt.Order.PutUint32(buf, uint32(int32(v.Int)))
		case 8:
			dt.Order.PutUint64(buf, uint64(v.Int))
		default:
			return nil, fmt.Errorf("unsupported compound field dtype %s", dt.String())
		}
	case dtype.KindFloat:
		switch dt.Size {
		case 4:
			dt.Order.PutUint32(buf, math.Float32bits(float32(v.Float)))
		case 8:
			dt.Order.PutUint64(buf, math.Float64bits(v.Float))
		default:
			return nil, fmt.Errorf("unsupported compound field dtype %s", dt.String())
		}
	case dtype.KindBool:
		if v.Bool {
			buf[0] = 1
		}
	case dtype.KindBytes:
		buf[0] = v.Char
	default:
		return nil, fmt.Errorf("unsupported compound field dtype %s", dt.String())
	}
	return buf, nil
}

// swappedBytesOf returns the raw bytes of data. When no byte swap is
// needed the result aliases the item's own stored value directly, per the
// dtype-mode encode path's documented buffer-aliasing contract: the
// caller must treat it as read-only for as long as the item exists. A
// non-native target order forces a private copy, since swapping in place
// would corrupt the item's stored value.
func swappedBytesOf[T ndarray.Number](data []T, swap bool) []byte {
	if !swap {
		return ndarray.ToBytes(data)
	}
	owned := make([]T, len(data))
	copy(owned, data)
	ndarray.ByteSwapInPlace(owned)
	return ndarray.ToBytes(owned)
}

func encodeFormatMode(d descriptor.Descriptor, v Value) ([]byte, error) {
	if !d.CompatibleShape(v.Shape) {
		return nil, errs.Wrap(errs.ErrValueShape, "value shape %v incompatible with descriptor shape %v", v.Shape, d.Shape)
	}

	elements := descriptor.NumElements(v.Shape)
	if len(v.Records) != elements {
		return nil, errs.Wrap(errs.ErrValueShape, "value has %d records, shape %v expects %d", len(v.Records), v.Shape, elements)
	}

	w := bitio.NewWriter()
	for i, rec := range v.Records {
		if err := format.Encode(w, d.Format, rec); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
	}
	return w.Finish(), nil
}
