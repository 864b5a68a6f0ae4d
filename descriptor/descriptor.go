// Package descriptor implements the item-layer codec's immutable shape and
// type metadata: parsing and emitting the embedded numpy-style array-header
// string, classifying a shape as fixed or variable, and resolving a
// variable dimension against the bytes actually available at decode time.
package descriptor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ska-sa/spead-go/dtype"
	"github.com/ska-sa/spead-go/errs"
	"github.com/ska-sa/spead-go/format"
	"github.com/ska-sa/spead-go/wire"
)

// Order is a descriptor's axis order: row-major (C) or column-major (F).
type Order byte

const (
	RowMajor    Order = 'C'
	ColumnMajor Order = 'F'
)

// Descriptor is the immutable shape and type metadata for one logical
// item: identity (id, name, description), shape (with at most one negative
// "variable" entry), and exactly one of Dtype or Format.
type Descriptor struct {
	ID          uint64
	Name        string
	Description string
	Shape       []int
	Order       Order

	Dtype     dtype.Dtype // populated in dtype mode
	HasDtype  bool
	Format    format.Format // populated in format mode
	HasFormat bool
}

// IsVariableSize reports whether any shape entry is negative.
func (d Descriptor) IsVariableSize() bool {
	for _, n := range d.Shape {
		if n < 0 {
			return true
		}
	}
	return false
}

// DynamicShape resolves Shape's single unknown (negative) dimension, if
// any, against maxElements element slots. If there is no unknown, Shape is
// returned unchanged. Let known be the product of the nonnegative entries:
// if known == 0 the unknown resolves to 0; otherwise it resolves to
// maxElements/known (integer floor). More than one unknown is an error.
func (d Descriptor) DynamicShape(maxElements int) ([]int, error) {
	unknownIdx := -1
	known := 1
	for i, n := range d.Shape {
		if n < 0 {
			if unknownIdx != -1 {
				return nil, errs.Wrap(errs.ErrShapeMultipleUnknown, "shape %v has more than one unknown dimension", d.Shape)
			}
			unknownIdx = i
			continue
		}
		known *= n
	}

	if unknownIdx == -1 {
		out := make([]int, len(d.Shape))
		copy(out, d.Shape)
		return out, nil
	}

	out := make([]int, len(d.Shape))
	copy(out, d.Shape)
	if known == 0 {
		out[unknownIdx] = 0
	} else {
		out[unknownIdx] = maxElements / known
	}
	return out, nil
}

// CompatibleShape reports whether candidate has the same rank as d.Shape
// and agrees with every fixed (nonnegative) dimension positionally.
func (d Descriptor) CompatibleShape(candidate []int) bool {
	if len(candidate) != len(d.Shape) {
		return false
	}
	for i, n := range d.Shape {
		if n >= 0 && n != candidate[i] {
			return false
		}
	}
	return true
}

// NumElements returns the product of Shape's entries. Shape must not be
// variable-size; callers resolve via DynamicShape first.
func NumElements(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

// ParseHeader parses a numpy-style header string, a text serialization of
// a mapping with exactly the keys {descr, fortran_order, shape}, e.g.
//
//	{'descr': '<u4', 'fortran_order': False, 'shape': (3, 4)}
//
// returning the decoded shape, axis order, and dtype. Any deviation is
// reported as errs.ErrDescriptorParse with a quoted excerpt of header.
func ParseHeader(header string) (shape []int, order Order, dt dtype.Dtype, err error) {
	trimmed := strings.TrimSpace(header)
	if !strings.HasPrefix(trimmed, "{") || !strings.HasSuffix(trimmed, "}") {
		return nil, 0, dtype.Dtype{}, errs.Wrap(errs.ErrDescriptorParse, "header is not a mapping literal: %q", header)
	}
	body := trimmed[1 : len(trimmed)-1]

	fields := splitTopLevel(body)
	values := make(map[string]string, len(fields))
	for _, field := range fields {
		parts := strings.SplitN(field, ":", 2)
		if len(parts) != 2 {
			return nil, 0, dtype.Dtype{}, errs.Wrap(errs.ErrDescriptorParse, "malformed header entry %q in %q", field, header)
		}
		key := strings.Trim(strings.TrimSpace(parts[0]), "'\"")
		values[key] = strings.TrimSpace(parts[1])
	}

	if len(values) != 3 {
		return nil, 0, dtype.Dtype{}, errs.Wrap(errs.ErrDescriptorParse, "header %q must have exactly keys descr, fortran_order, shape", header)
	}
	descrRaw, ok := values["descr"]
	if !ok {
		return nil, 0, dtype.Dtype{}, errs.Wrap(errs.ErrDescriptorParse, "header %q missing descr", header)
	}
	fortranRaw, ok := values["fortran_order"]
	if !ok {
		return nil, 0, dtype.Dtype{}, errs.Wrap(errs.ErrDescriptorParse, "header %q missing fortran_order", header)
	}
	shapeRaw, ok := values["shape"]
	if !ok {
		return nil, 0, dtype.Dtype{}, errs.Wrap(errs.ErrDescriptorParse, "header %q missing shape", header)
	}

	descrStr := strings.Trim(descrRaw, "'\"")
	dt, parseErr := dtype.Parse(descrStr)
	if parseErr != nil {
		return nil, 0, dtype.Dtype{}, errs.Wrap(errs.ErrDescriptorParse, "header %q: %v", header, parseErr)
	}

	var fortranOrder bool
	switch fortranRaw {
	case "True":
		fortranOrder = true
	case "False":
		fortranOrder = false
	default:
		return nil, 0, dtype.Dtype{}, errs.Wrap(errs.ErrDescriptorParse, "header %q: fortran_order must be True or False, got %q", header, fortranRaw)
	}

	shape, shapeErr := parseShapeTuple(shapeRaw)
	if shapeErr != nil {
		return nil, 0, dtype.Dtype{}, errs.Wrap(errs.ErrDescriptorParse, "header %q: %v", header, shapeErr)
	}

	order = RowMajor
	if fortranOrder {
		order = ColumnMajor
	}
	return shape, order, dt, nil
}

// splitTopLevel splits s on commas that are not nested inside parentheses.
func splitTopLevel(s string) []string {
	var out []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		case ',':
			if depth == 0 {
				if part := strings.TrimSpace(s[start:i]); part != "" {
					out = append(out, part)
				}
				start = i + 1
			}
		}
	}
	if part := strings.TrimSpace(s[start:]); part != "" {
		out = append(out, part)
	}
	return out
}

func parseShapeTuple(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "(") || !strings.HasSuffix(s, ")") {
		return nil, fmt.Errorf("shape %q is not a tuple", s)
	}
	body := strings.TrimSpace(s[1 : len(s)-1])
	if body == "" {
		return []int{}, nil
	}

	parts := strings.Split(body, ",")
	shape := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue // trailing comma on a 1-tuple, e.g. "(3,)"
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("shape entry %q is not an integer", p)
		}
		shape = append(shape, n)
	}
	return shape, nil
}

// EmitHeader produces the canonical numpy-style header text for dt, shape,
// order.
func EmitHeader(dt dtype.Dtype, shape []int, order Order) string {
	shapeStr := formatShapeTuple(shape)
	fortran := "False"
	if order == ColumnMajor {
		fortran = "True"
	}
	return fmt.Sprintf("{'descr': '%s', 'fortran_order': %s, 'shape': %s}", dt.String(), fortran, shapeStr)
}

func formatShapeTuple(shape []int) string {
	if len(shape) == 0 {
		return "()"
	}
	parts := make([]string, len(shape))
	for i, n := range shape {
		parts[i] = strconv.Itoa(n)
	}
	body := strings.Join(parts, ", ")
	if len(shape) == 1 {
		return "(" + body + ",)"
	}
	return "(" + body + ")"
}

// FromRaw builds a Descriptor from the transport layer's raw descriptor.
// If raw carries a nonempty numpy header it is parsed (SWAP_ENDIAN is
// applied to the resulting dtype when set in bugCompat); otherwise Shape
// and Format are taken directly from raw with RowMajor order and no dtype.
// A dtype-compatible format is reduced per format.Reduce.
func FromRaw(raw wire.RawDescriptor, bugCompat wire.BugCompat) (Descriptor, error) {
	d := Descriptor{
		ID:          raw.ID,
		Name:        raw.Name,
		Description: raw.Description,
	}

	if raw.NumpyHeader != "" {
		shape, order, dt, err := ParseHeader(raw.NumpyHeader)
		if err != nil {
			return Descriptor{}, err
		}
		if bugCompat.Has(wire.SwapEndian) {
			dt = dt.Swapped()
		}
		d.Shape = shape
		d.Order = order
		d.Dtype = dt
		d.HasDtype = true
		return d, nil
	}

	d.Shape = append([]int(nil), raw.Shape...)
	d.Order = RowMajor
	d.Format = raw.Format
	d.HasFormat = true

	if reduced, ok := format.Reduce(raw.Format); ok {
		d.Dtype = reduced
		d.HasDtype = true
		d.Format = nil
		d.HasFormat = false
	}

	return d, nil
}

// ToRaw is the mirror of FromRaw: when d is in dtype mode it emits a numpy
// header (byte-swapping the dtype first under SWAP_ENDIAN); otherwise it
// populates Format and Shape directly.
func (d Descriptor) ToRaw(bugCompat wire.BugCompat) wire.RawDescriptor {
	raw := wire.RawDescriptor{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Shape:       append([]int(nil), d.Shape...),
	}

	if d.HasDtype {
		dt := d.Dtype
		if bugCompat.Has(wire.SwapEndian) {
			dt = dt.Swapped()
		}
		raw.NumpyHeader = EmitHeader(dt, d.Shape, d.Order)
		return raw
	}

	raw.Format = d.Format
	return raw
}
