// Package cpu implements the engine's compute backend in pure Go,
// parallelised over rows and slices through the fork-join harness.
package cpu

import (
	"fmt"

	"github.com/mendel-ml/mendel/internal/parallel"
	"github.com/mendel-ml/mendel/internal/tensor"
)

// Backend implements tensor.Backend on the CPU.
type Backend struct {
	cfg parallel.Config
}

// New creates a CPU backend with the default worker-pool configuration.
func New() *Backend {
	return &Backend{cfg: parallel.DefaultConfig()}
}

// NewWithConfig creates a CPU backend with an explicit worker-pool
// configuration. parallel.Sequential() gives single-threaded execution.
func NewWithConfig(cfg parallel.Config) *Backend {
	return &Backend{cfg: cfg}
}

// Name returns the backend name.
func (b *Backend) Name() string {
	return "CPU"
}

// MatMul performs dense matrix multiplication, partitioned over result rows.
// C[i,j] = sum_k A[i,k] * B[k,j]
func (b *Backend) MatMul(a, other *tensor.Matrix) (*tensor.Matrix, error) {
	m, k := a.Rows(), a.Cols()
	kAlt, n := other.Rows(), other.Cols()
	if k != kAlt {
		return nil, fmt.Errorf("%w: matmul %dx%d @ %dx%d",
			tensor.ErrDimensionMismatch, m, k, kAlt, n)
	}

	result := tensor.New(m, n)
	cData := result.Data()
	aData := a.Data()
	bData := other.Data()

	// Each partition owns a disjoint row range of the result.
	err := parallel.For(m, func(i int) error {
		for j := 0; j < n; j++ {
			sum := float32(0)
			for kIdx := 0; kIdx < k; kIdx++ {
				sum += aData[i*k+kIdx] * bData[kIdx*n+j]
			}
			cData[i*n+j] = sum
		}
		return nil
	}, b.cfg)
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Map applies fn to every element of m in place.
func (b *Backend) Map(m *tensor.Matrix, fn func(float32) float32) {
	data := m.Data()
	for i, v := range data {
		data[i] = fn(v)
	}
}
