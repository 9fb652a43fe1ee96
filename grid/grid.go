// Package grid provides the owned 2-D sample buffer shared by the noise,
// erosion and scatter stages.
package grid

import "fmt"

// Field stores a 2D grid of float32 samples in row-major order.
// Every accessor goes through Index, so out-of-range coordinates are caught
// in one place instead of at each call site.
type Field struct {
	W, H int
	data []float32
}

// New allocates a zeroed field with the given dimensions.
func New(w, h int) *Field {
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	return &Field{W: w, H: h, data: make([]float32, w*h)}
}

// NewSquare allocates a zeroed n x n field.
func NewSquare(n int) *Field {
	return New(n, n)
}

// FromRows builds a field from a slice of equal-length rows.
func FromRows(rows [][]float32) (*Field, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("grid: no rows")
	}
	f := New(len(rows[0]), len(rows))
	for y, row := range rows {
		if len(row) != f.W {
			return nil, fmt.Errorf("grid: row %d has %d samples, want %d", y, len(row), f.W)
		}
		copy(f.data[y*f.W:(y+1)*f.W], row)
	}
	return f, nil
}

// Index returns the linear slice index for coordinates (x, y).
func (f *Field) Index(x, y int) int {
	if !f.InBounds(x, y) {
		panic(fmt.Sprintf("grid: (%d, %d) outside %dx%d field", x, y, f.W, f.H))
	}
	return y*f.W + x
}

// InBounds reports whether (x, y) addresses a sample.
func (f *Field) InBounds(x, y int) bool {
	return x >= 0 && x < f.W && y >= 0 && y < f.H
}

// At returns the sample at (x, y).
func (f *Field) At(x, y int) float32 { return f.data[f.Index(x, y)] }

// Set overwrites the sample at (x, y).
func (f *Field) Set(x, y int, v float32) { f.data[f.Index(x, y)] = v }

// Add adds v to the sample at (x, y).
func (f *Field) Add(x, y int, v float32) { f.data[f.Index(x, y)] += v }

// Clamped returns the sample nearest to (x, y), clamping to the field edge.
func (f *Field) Clamped(x, y int) float32 {
	x = clampInt(x, 0, f.W-1)
	y = clampInt(y, 0, f.H-1)
	return f.data[y*f.W+x]
}

// Data exposes the backing slice so callers can read/write values directly.
func (f *Field) Data() []float32 { return f.data }

// Size returns the edge length of a square field, or the width otherwise.
func (f *Field) Size() int { return f.W }

// Square reports whether the field has equal dimensions.
func (f *Field) Square() bool { return f.W == f.H }

// Clone returns a deep copy.
func (f *Field) Clone() *Field {
	c := &Field{W: f.W, H: f.H, data: make([]float32, len(f.data))}
	copy(c.data, f.data)
	return c
}

// Clear fills the field with zeros.
func (f *Field) Clear() {
	for i := range f.data {
		f.data[i] = 0
	}
}

// Sum returns the sum of all samples, accumulated in float64.
func (f *Field) Sum() float64 {
	var s float64
	for _, v := range f.data {
		s += float64(v)
	}
	return s
}

// MinMax returns the smallest and largest sample.
func (f *Field) MinMax() (lo, hi float32) {
	lo, hi = f.data[0], f.data[0]
	for _, v := range f.data[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// Equal reports whether both fields have the same shape and identical samples.
func (f *Field) Equal(o *Field) bool {
	if f.W != o.W || f.H != o.H {
		return false
	}
	for i, v := range f.data {
		if o.data[i] != v {
			return false
		}
	}
	return true
}

// Rows copies the field into a slice of rows.
func (f *Field) Rows() [][]float32 {
	rows := make([][]float32, f.H)
	for y := range rows {
		rows[y] = make([]float32, f.W)
		copy(rows[y], f.data[y*f.W:(y+1)*f.W])
	}
	return rows
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
