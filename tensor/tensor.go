// Copyright 2026 Mendel Engine. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"math/rand"

	"github.com/mendel-ml/mendel/internal/tensor"
)

// Matrix is a dense row-major float32 matrix. It is the single numeric
// container used throughout the engine.
type Matrix = tensor.Matrix

// Backend is the compute interface all tensor backends implement. It is the
// substitution point for accelerators: everything above it is written
// against this capability set only.
//
// Implementations:
//   - backend/cpu: pure Go with a parallel worker pool
//   - backend/webgpu: cross-platform GPU compute via WebGPU
type Backend = tensor.Backend

// ErrDimensionMismatch is returned when operand shapes do not line up.
var ErrDimensionMismatch = tensor.ErrDimensionMismatch

// New creates a zero-filled rows×cols matrix.
func New(rows, cols int) *Matrix {
	return tensor.New(rows, cols)
}

// FromSlice creates a matrix from row-major data; the slice is copied.
func FromSlice(rows, cols int, data []float32) (*Matrix, error) {
	return tensor.FromSlice(rows, cols, data)
}

// Rand creates a matrix with elements drawn uniformly from [-1, 1).
func Rand(rows, cols int, rng *rand.Rand) *Matrix {
	return tensor.Rand(rows, cols, rng)
}

// TwoPointCrossover produces a child matrix that copies parent a outside a
// random contiguous segment of the flattened data and parent b inside it.
// Both parents are untouched.
//
// Example:
//
//	rng := rand.New(rand.NewSource(1))
//	child, err := tensor.TwoPointCrossover(a, b, rng)
func TwoPointCrossover(a, b *Matrix, rng *rand.Rand) (*Matrix, error) {
	return tensor.TwoPointCrossover(a, b, rng)
}
