// Package conv implements the convolution pipeline: ordered stages that
// turn an image-like volume into a feature volume through chained
// kernel/activation/pooling/normalization transforms.
package conv

import (
	"errors"
	"fmt"

	"github.com/mendel-ml/mendel/internal/tensor"
)

// ErrBadStage is returned when a stage is misconfigured or receives a
// volume violating its shape precondition. These are configuration errors:
// fail fast, never truncate.
var ErrBadStage = errors.New("conv: invalid stage configuration")

// Volume is an ordered sequence of equal-shaped matrices, the depth slices
// of a 3-D feature map. Depth is the sequence length.
type Volume []*tensor.Matrix

// NewVolume builds a volume from depth slices, validating that all slices
// share one shape.
func NewVolume(slices ...*tensor.Matrix) (Volume, error) {
	if len(slices) == 0 {
		return nil, fmt.Errorf("%w: volume must have at least one slice", ErrBadStage)
	}
	for i, s := range slices[1:] {
		if !s.SameShape(slices[0]) {
			return nil, fmt.Errorf("%w: slice %d is %dx%d, slice 0 is %dx%d",
				ErrBadStage, i+1, s.Rows(), s.Cols(), slices[0].Rows(), slices[0].Cols())
		}
	}
	return Volume(slices), nil
}

// Depth returns the number of slices.
func (v Volume) Depth() int { return len(v) }

// Rows returns the spatial height of the slices.
func (v Volume) Rows() int { return v[0].Rows() }

// Cols returns the spatial width of the slices.
func (v Volume) Cols() int { return v[0].Cols() }

// Clone deep-copies every slice.
func (v Volume) Clone() Volume {
	out := make(Volume, len(v))
	for i, s := range v {
		out[i] = s.Clone()
	}
	return out
}

// Flatten concatenates the slices into a single 1×N row vector, the form
// the dense head of a network consumes.
func (v Volume) Flatten() *tensor.Matrix {
	n := v.Depth() * v.Rows() * v.Cols()
	flat := tensor.New(1, n)
	data := flat.Data()
	offset := 0
	for _, s := range v {
		copy(data[offset:], s.Data())
		offset += s.NumElements()
	}
	return flat
}
