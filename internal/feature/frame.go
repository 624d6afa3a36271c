package feature

import (
	"errors"
	"fmt"
	"math"
)

var ErrColumnMismatch = errors.New("feature columns do not match builder output")

// Frame is a column store aligned to a bar series. Columns keep insertion order.
type Frame struct {
	n     int
	order []Column
	data  map[Column][]float64
}

func newFrame(n int) *Frame {
	return &Frame{n: n, data: make(map[Column][]float64, 24)}
}

func (f *Frame) add(c Column, values []float64) {
	if len(values) != f.n {
		panic(fmt.Sprintf("feature: column %s has %d rows, frame has %d", c, len(values), f.n))
	}
	if _, ok := f.data[c]; !ok {
		f.order = append(f.order, c)
	}
	f.data[c] = values
}

// Len is the number of rows (bars).
func (f *Frame) Len() int { return f.n }

// Columns returns every attached column in insertion order.
func (f *Frame) Columns() []Column {
	out := make([]Column, len(f.order))
	copy(out, f.order)
	return out
}

// Column returns a copy of one column.
func (f *Frame) Column(c Column) ([]float64, bool) {
	v, ok := f.data[c]
	if !ok {
		return nil, false
	}
	out := make([]float64, len(v))
	copy(out, v)
	return out, true
}

// Validate checks that every column in want is attached.
func (f *Frame) Validate(want []Column) error {
	seen := make(map[Column]bool, len(want))
	for _, c := range want {
		if seen[c] {
			return fmt.Errorf("%w: duplicate column %q", ErrColumnMismatch, c)
		}
		seen[c] = true
		if _, ok := f.data[c]; !ok {
			return fmt.Errorf("%w: missing column %q", ErrColumnMismatch, c)
		}
	}
	return nil
}

// Vector is one feature row with its column layout.
type Vector struct {
	Columns []Column
	Values  []float64
}

// Complete reports whether every value is defined.
func (v Vector) Complete() bool {
	for _, x := range v.Values {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// Get returns the value of column c.
func (v Vector) Get(c Column) (float64, bool) {
	for i, col := range v.Columns {
		if col == c {
			return v.Values[i], true
		}
	}
	return 0, false
}

// Row extracts the feature vector at bar t in cols order.
func (f *Frame) Row(t int, cols []Column) Vector {
	v := Vector{Columns: cols, Values: make([]float64, len(cols))}
	for i, c := range cols {
		col, ok := f.data[c]
		if !ok || t < 0 || t >= f.n {
			v.Values[i] = math.NaN()
			continue
		}
		v.Values[i] = col[t]
	}
	return v
}

// Matrix is a batch of rows sharing one column layout.
type Matrix struct {
	Columns []Column
	Index   []int // bar index of each row
	Rows    [][]float64
}

// Matrix extracts rows for bars [from, to) in cols order.
func (f *Frame) Matrix(from, to int, cols []Column) Matrix {
	if from < 0 {
		from = 0
	}
	if to > f.n {
		to = f.n
	}
	m := Matrix{Columns: cols}
	for t := from; t < to; t++ {
		m.Index = append(m.Index, t)
		m.Rows = append(m.Rows, f.Row(t, cols).Values)
	}
	return m
}
