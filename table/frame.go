// Package table provides the ordered-column data frame that prediction
// operations read target rows from and append interval columns to.
package table

import (
	"fmt"
)

// Frame is a table of named columns sharing one row count. Column order is
// insertion order and row order is significant: every operation that appends
// results preserves the correspondence between input rows and output rows.
type Frame struct {
	names   []string
	numeric map[string][]float64
	labels  map[string][]string
	rows    int
}

// NewFrame creates an empty frame with a fixed row count.
func NewFrame(rows int) *Frame {
	return &Frame{
		numeric: make(map[string][]float64),
		labels:  make(map[string][]string),
		rows:    rows,
	}
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return f.rows
}

// Names returns the column names in insertion order.
func (f *Frame) Names() []string {
	out := make([]string, len(f.names))
	copy(out, f.names)
	return out
}

// Has reports whether a column with the given name exists.
func (f *Frame) Has(name string) bool {
	_, num := f.numeric[name]
	_, lab := f.labels[name]
	return num || lab
}

// AddNumeric adds a numeric column. Adding a column whose length does not
// match the frame's row count, or whose name already exists, is an error;
// use Bind to overwrite deliberately.
func (f *Frame) AddNumeric(name string, values []float64) error {
	if len(values) != f.rows {
		return fmt.Errorf("table: column %q has %d values, frame has %d rows", name, len(values), f.rows)
	}
	if f.Has(name) {
		return fmt.Errorf("table: column %q already exists", name)
	}
	f.names = append(f.names, name)
	f.numeric[name] = values
	return nil
}

// AddLabel adds a string-valued column, typically a factor.
func (f *Frame) AddLabel(name string, values []string) error {
	if len(values) != f.rows {
		return fmt.Errorf("table: column %q has %d values, frame has %d rows", name, len(values), f.rows)
	}
	if f.Has(name) {
		return fmt.Errorf("table: column %q already exists", name)
	}
	f.names = append(f.names, name)
	f.labels[name] = values
	return nil
}

// Numeric returns the numeric column with the given name.
func (f *Frame) Numeric(name string) ([]float64, bool) {
	col, ok := f.numeric[name]
	return col, ok
}

// Label returns the string column with the given name.
func (f *Frame) Label(name string) ([]string, bool) {
	col, ok := f.labels[name]
	return col, ok
}

// Bind attaches a numeric result column, replacing any existing column of
// the same name. It reports whether an existing column was overwritten so
// the caller can surface the collision; the overwrite itself always wins.
func (f *Frame) Bind(name string, values []float64) (overwritten bool, err error) {
	if len(values) != f.rows {
		return false, fmt.Errorf("table: column %q has %d values, frame has %d rows", name, len(values), f.rows)
	}
	if f.Has(name) {
		delete(f.labels, name)
		f.numeric[name] = values
		return true, nil
	}
	f.names = append(f.names, name)
	f.numeric[name] = values
	return false, nil
}

// Clone returns a deep copy sharing no column storage with the receiver.
func (f *Frame) Clone() *Frame {
	out := NewFrame(f.rows)
	out.names = make([]string, len(f.names))
	copy(out.names, f.names)
	for name, col := range f.numeric {
		dup := make([]float64, len(col))
		copy(dup, col)
		out.numeric[name] = dup
	}
	for name, col := range f.labels {
		dup := make([]string, len(col))
		copy(dup, col)
		out.labels[name] = dup
	}
	return out
}

// Subset returns a new frame containing the rows at the given indices, in
// the given order. Indices may repeat, which is what the case-resampling
// bootstrap relies on.
func (f *Frame) Subset(idx []int) (*Frame, error) {
	for _, i := range idx {
		if i < 0 || i >= f.rows {
			return nil, fmt.Errorf("table: row index %d out of range [0,%d)", i, f.rows)
		}
	}
	out := NewFrame(len(idx))
	out.names = make([]string, len(f.names))
	copy(out.names, f.names)
	for name, col := range f.numeric {
		sub := make([]float64, len(idx))
		for j, i := range idx {
			sub[j] = col[i]
		}
		out.numeric[name] = sub
	}
	for name, col := range f.labels {
		sub := make([]string, len(idx))
		for j, i := range idx {
			sub[j] = col[i]
		}
		out.labels[name] = sub
	}
	return out, nil
}
