// Package tensor provides the dense 2-D numeric primitive of the Mendel
// engine and the compute-backend seam the rest of the engine is built on.
package tensor

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

// ErrDimensionMismatch is returned when operand shapes are incompatible.
// It is fatal to the single operation that raised it.
var ErrDimensionMismatch = errors.New("tensor: dimension mismatch")

// Matrix is a dense 2-D buffer of float32 values in row-major order.
// Row and column extents are fixed at construction; contents are mutable
// because in-place elementwise transforms are a deliberate performance
// choice. Equality is content-based.
//
// Example:
//
//	m := tensor.New(2, 3)
//	m.Set(0, 1, 4.5)
//	v := m.At(0, 1)
type Matrix struct {
	rows int
	cols int
	data []float32
}

// New creates a zero-filled rows×cols matrix.
// Panics if either extent is not positive; shapes are a construction-time
// contract, not a runtime input.
func New(rows, cols int) *Matrix {
	if rows <= 0 || cols <= 0 {
		panic(fmt.Sprintf("tensor: invalid shape %dx%d", rows, cols))
	}
	return &Matrix{
		rows: rows,
		cols: cols,
		data: make([]float32, rows*cols),
	}
}

// FromSlice creates a rows×cols matrix from row-major data.
// The slice is copied.
func FromSlice(rows, cols int, data []float32) (*Matrix, error) {
	if rows*cols != len(data) {
		return nil, fmt.Errorf("%w: shape %dx%d requires %d elements, got %d",
			ErrDimensionMismatch, rows, cols, rows*cols, len(data))
	}
	m := New(rows, cols)
	copy(m.data, data)
	return m, nil
}

// Rand creates a rows×cols matrix with values drawn uniformly from [-1, 1)
// using the supplied generator. No global state is touched; two calls with
// identically seeded generators produce identical matrices.
func Rand(rows, cols int, rng *rand.Rand) *Matrix {
	m := New(rows, cols)
	for i := range m.data {
		m.data[i] = rng.Float32()*2 - 1
	}
	return m
}

// Rows returns the row extent.
func (m *Matrix) Rows() int { return m.rows }

// Cols returns the column extent.
func (m *Matrix) Cols() int { return m.cols }

// NumElements returns the total element count.
func (m *Matrix) NumElements() int { return len(m.data) }

// Data returns the row-major backing slice (zero-copy).
//
// WARNING: modifications to the returned slice modify the matrix.
func (m *Matrix) Data() []float32 { return m.data }

// At returns the element at (row, col). Panics if out of bounds.
func (m *Matrix) At(row, col int) float32 {
	m.checkIndex(row, col)
	return m.data[row*m.cols+col]
}

// Set stores value at (row, col). Panics if out of bounds.
func (m *Matrix) Set(row, col int, value float32) {
	m.checkIndex(row, col)
	m.data[row*m.cols+col] = value
}

func (m *Matrix) checkIndex(row, col int) {
	if row < 0 || row >= m.rows || col < 0 || col >= m.cols {
		panic(fmt.Sprintf("tensor: index (%d,%d) out of bounds for %dx%d matrix",
			row, col, m.rows, m.cols))
	}
}

// Clone creates a deep copy.
func (m *Matrix) Clone() *Matrix {
	c := New(m.rows, m.cols)
	copy(c.data, m.data)
	return c
}

// T returns a new transposed copy of m.
func (m *Matrix) T() *Matrix {
	t := New(m.cols, m.rows)
	for r := 0; r < m.rows; r++ {
		for c := 0; c < m.cols; c++ {
			t.data[c*m.rows+r] = m.data[r*m.cols+c]
		}
	}
	return t
}

// SameShape reports whether m and other have identical extents.
func (m *Matrix) SameShape(other *Matrix) bool {
	return m.rows == other.rows && m.cols == other.cols
}

// Equal reports whether m and other have identical shape and contents.
func (m *Matrix) Equal(other *Matrix) bool {
	if !m.SameShape(other) {
		return false
	}
	for i, v := range m.data {
		if v != other.data[i] {
			return false
		}
	}
	return true
}

// Apply replaces each element x with fn(x - threshold), in place.
// A zero threshold gives the plain elementwise transform; a nonzero
// threshold implements the per-layer activation offset of the legacy
// network. Returns m for chaining.
func (m *Matrix) Apply(fn func(float32) float32, threshold float32) *Matrix {
	for i, v := range m.data {
		m.data[i] = fn(v - threshold)
	}
	return m
}

// Fill sets every element to value.
func (m *Matrix) Fill(value float32) {
	for i := range m.data {
		m.data[i] = value
	}
}

// MaxAbs returns the largest absolute value and its flat row-major index.
// Ties resolve to the first occurrence in scan order.
func (m *Matrix) MaxAbs() (float32, int) {
	best := float32(0)
	idx := 0
	for i, v := range m.data {
		a := float32(math.Abs(float64(v)))
		if a > best {
			best = a
			idx = i
		}
	}
	return best, idx
}

// IsFinite reports whether every element is a finite number.
// Non-finite values are always a defect upstream, never a valid state.
func (m *Matrix) IsFinite() bool {
	for _, v := range m.data {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// String returns a short diagnostic description, not the contents.
func (m *Matrix) String() string {
	return fmt.Sprintf("Matrix[%dx%d]", m.rows, m.cols)
}
