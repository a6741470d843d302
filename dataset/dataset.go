// Package dataset holds labeled multi-dimensional arrays over shared,
// named coordinate axes: the in-memory container assembled from a TSG
// dataset and serialized to archive storage.
package dataset

import (
	"errors"
	"fmt"
	"slices"
	"sort"
)

// Common errors
var (
	ErrBadDType     = errors.New("unsupported value type")
	ErrDimMismatch  = errors.New("dimension size mismatch")
	ErrShapeInvalid = errors.New("shape does not match data length")
	ErrNotFound     = errors.New("no such variable or coordinate")
	ErrDupName      = errors.New("duplicate name")
)

// DataArray is one named variable: row-major values over named dims.
type DataArray struct {
	Name  string
	Dims  []string
	Shape []int
	Data  any
	Attrs map[string]any
}

// Len returns the element count implied by the shape.
func (a *DataArray) Len() int {
	n := 1
	for _, s := range a.Shape {
		n *= s
	}
	return n
}

// Coord is a coordinate axis: values along a single dim. A coord whose
// Name equals its Dim is that dim's index coordinate.
type Coord struct {
	Name   string
	Dim    string
	Values any
}

// IsIndex reports whether the coord is its dim's index coordinate.
func (c *Coord) IsIndex() bool {
	return c.Name == c.Dim
}

// Dataset is an ordered collection of variables and coordinates sharing
// dimension axes, plus free-form metadata attributes. Variables and
// coordinates keep insertion order so identical inputs serialize
// identically.
type Dataset struct {
	vars   []*DataArray
	coords []*Coord
	dims   map[string]int
	attrs  map[string]any
}

// New creates an empty dataset.
func New() *Dataset {
	return &Dataset{
		dims:  map[string]int{},
		attrs: map[string]any{},
	}
}

// AddVar appends a variable, registering any new dims. Dims shared with
// existing variables or coords must agree in size.
func (d *Dataset) AddVar(a *DataArray) error {
	if d.Var(a.Name) != nil {
		return fmt.Errorf("%w: variable %q", ErrDupName, a.Name)
	}
	if len(a.Dims) != len(a.Shape) {
		return fmt.Errorf("%w: %q has %d dims, %d shape entries", ErrShapeInvalid, a.Name, len(a.Dims), len(a.Shape))
	}
	n, err := valueLen(a.Data)
	if err != nil {
		return fmt.Errorf("variable %q: %w", a.Name, err)
	}
	if n != a.Len() {
		return fmt.Errorf("%w: %q has %d values for shape %v", ErrShapeInvalid, a.Name, n, a.Shape)
	}
	for i, dim := range a.Dims {
		if size, ok := d.dims[dim]; ok && size != a.Shape[i] {
			return fmt.Errorf("%w: dim %q is %d, variable %q wants %d", ErrDimMismatch, dim, size, a.Name, a.Shape[i])
		}
	}
	for i, dim := range a.Dims {
		d.dims[dim] = a.Shape[i]
	}
	d.vars = append(d.vars, a)
	return nil
}

// SetCoord sets a coordinate, registering its dim if new. Replaces an
// existing coord of the same name.
func (d *Dataset) SetCoord(c *Coord) error {
	n, err := valueLen(c.Values)
	if err != nil {
		return fmt.Errorf("coord %q: %w", c.Name, err)
	}
	if size, ok := d.dims[c.Dim]; ok && size != n {
		return fmt.Errorf("%w: dim %q is %d, coord %q has %d values", ErrDimMismatch, c.Dim, size, c.Name, n)
	}
	d.dims[c.Dim] = n
	for i, existing := range d.coords {
		if existing.Name == c.Name {
			d.coords[i] = c
			return nil
		}
	}
	d.coords = append(d.coords, c)
	return nil
}

// Var returns the named variable, or nil.
func (d *Dataset) Var(name string) *DataArray {
	for _, v := range d.vars {
		if v.Name == name {
			return v
		}
	}
	return nil
}

// Vars returns the variables in order.
func (d *Dataset) Vars() []*DataArray {
	return d.vars
}

// VarNames returns the variable names in order.
func (d *Dataset) VarNames() []string {
	names := make([]string, len(d.vars))
	for i, v := range d.vars {
		names[i] = v.Name
	}
	return names
}

// Coord returns the named coordinate, or nil.
func (d *Dataset) Coord(name string) *Coord {
	for _, c := range d.coords {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Coords returns the coordinates in order.
func (d *Dataset) Coords() []*Coord {
	return d.coords
}

// DimSize returns the size of a dim.
func (d *Dataset) DimSize(dim string) (int, bool) {
	size, ok := d.dims[dim]
	return size, ok
}

// SetAttr sets a metadata attribute.
func (d *Dataset) SetAttr(key string, value any) {
	d.attrs[key] = value
}

// Attrs returns the metadata attributes.
func (d *Dataset) Attrs() map[string]any {
	return d.attrs
}

// AttrKeys returns attribute keys sorted for deterministic output.
func (d *Dataset) AttrKeys() []string {
	keys := make([]string, 0, len(d.attrs))
	for k := range d.attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DropVars removes the named variables; unknown names are ignored.
func (d *Dataset) DropVars(names ...string) {
	d.vars = slices.DeleteFunc(d.vars, func(v *DataArray) bool {
		return slices.Contains(names, v.Name)
	})
}

// Reorder keeps exactly the named variables, in the given order.
func (d *Dataset) Reorder(names []string) error {
	ordered := make([]*DataArray, 0, len(names))
	for _, name := range names {
		v := d.Var(name)
		if v == nil {
			return fmt.Errorf("%w: variable %q", ErrNotFound, name)
		}
		ordered = append(ordered, v)
	}
	d.vars = ordered
	return nil
}

// Take returns a new dataset gathering the given positions along dim in
// every variable and coordinate on that dim. Other arrays are shared, not
// copied.
func (d *Dataset) Take(dim string, indices []int) (*Dataset, error) {
	size, ok := d.dims[dim]
	if !ok {
		return nil, fmt.Errorf("%w: dim %q", ErrNotFound, dim)
	}
	for _, idx := range indices {
		if idx < 0 || idx >= size {
			return nil, fmt.Errorf("index %d out of range for dim %q (size %d)", idx, dim, size)
		}
	}

	out := New()
	for k, v := range d.attrs {
		out.attrs[k] = v
	}
	for _, v := range d.vars {
		taken, err := takeArray(v, dim, indices)
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", v.Name, err)
		}
		if err := out.AddVar(taken); err != nil {
			return nil, err
		}
	}
	for _, c := range d.coords {
		if c.Dim != dim {
			if err := out.SetCoord(c); err != nil {
				return nil, err
			}
			continue
		}
		values, err := takeValues(c.Values, 1, size, 1, indices)
		if err != nil {
			return nil, fmt.Errorf("coord %q: %w", c.Name, err)
		}
		if err := out.SetCoord(&Coord{Name: c.Name, Dim: c.Dim, Values: values}); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func takeArray(a *DataArray, dim string, indices []int) (*DataArray, error) {
	axis := slices.Index(a.Dims, dim)
	if axis < 0 {
		return a, nil
	}
	outer, inner := 1, 1
	for _, s := range a.Shape[:axis] {
		outer *= s
	}
	for _, s := range a.Shape[axis+1:] {
		inner *= s
	}
	data, err := takeValues(a.Data, outer, a.Shape[axis], inner, indices)
	if err != nil {
		return nil, err
	}
	shape := slices.Clone(a.Shape)
	shape[axis] = len(indices)
	return &DataArray{
		Name:  a.Name,
		Dims:  slices.Clone(a.Dims),
		Shape: shape,
		Data:  data,
		Attrs: a.Attrs,
	}, nil
}

// Select returns a new dataset keeping the positions along dim where the
// mask is true.
func (d *Dataset) Select(dim string, keep []bool) (*Dataset, error) {
	if size, ok := d.dims[dim]; !ok || size != len(keep) {
		return nil, fmt.Errorf("%w: mask length %d for dim %q", ErrDimMismatch, len(keep), dim)
	}
	indices := make([]int, 0, len(keep))
	for i, k := range keep {
		if k {
			indices = append(indices, i)
		}
	}
	return d.Take(dim, indices)
}

// Stride returns a new dataset keeping every nth position along dim,
// starting at zero.
func (d *Dataset) Stride(dim string, n int) (*Dataset, error) {
	size, ok := d.dims[dim]
	if !ok {
		return nil, fmt.Errorf("%w: dim %q", ErrNotFound, dim)
	}
	if n < 1 {
		return nil, fmt.Errorf("stride %d for dim %q", n, dim)
	}
	indices := make([]int, 0, (size+n-1)/n)
	for i := 0; i < size; i += n {
		indices = append(indices, i)
	}
	return d.Take(dim, indices)
}

// SortBy returns a new dataset reordered along the coord's dim so the
// coordinate values ascend. The sort is stable and the coord must be a
// float column.
func (d *Dataset) SortBy(coordName string) (*Dataset, error) {
	c := d.Coord(coordName)
	if c == nil {
		return nil, fmt.Errorf("%w: coord %q", ErrNotFound, coordName)
	}
	values, ok := c.Values.([]float64)
	if !ok {
		return nil, fmt.Errorf("%w: coord %q is %T, need []float64", ErrBadDType, coordName, c.Values)
	}
	indices := make([]int, len(values))
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(a, b int) bool {
		return values[indices[a]] < values[indices[b]]
	})
	return d.Take(c.Dim, indices)
}

// SwapDims renames dim from to the name of one of its coords, promoting
// that coord to the index coordinate. The previous index coord (named
// after the dim) survives as a plain coordinate on the new dim.
func (d *Dataset) SwapDims(from, to string) error {
	c := d.Coord(to)
	if c == nil || c.Dim != from {
		return fmt.Errorf("%w: coord %q on dim %q", ErrNotFound, to, from)
	}
	size := d.dims[from]
	delete(d.dims, from)
	d.dims[to] = size
	for _, v := range d.vars {
		for i, dim := range v.Dims {
			if dim == from {
				v.Dims[i] = to
			}
		}
	}
	for _, coord := range d.coords {
		if coord.Dim == from {
			coord.Dim = to
		}
	}
	return nil
}
