// Copyright 2026 Mendel Engine. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package conv provides the convolutional feature-extraction pipeline:
// volumes of 2D slices flowing through expand, activation, pooling and
// normalization stages.
//
// # Basic Usage
//
//	import (
//	    "github.com/mendel-ml/mendel/backend/cpu"
//	    "github.com/mendel-ml/mendel/conv"
//	)
//
//	func main() {
//	    expand, _ := conv.NewExpand(conv.EdgeTop, conv.Sharpen)
//	    pipe, _ := conv.New(cpu.New(),
//	        expand,
//	        conv.NewReLU(),
//	        conv.NewPool(),
//	        conv.NewNormalize(),
//	    )
//	    _ = pipe
//	}
package conv

import (
	"github.com/mendel-ml/mendel/internal/conv"
	"github.com/mendel-ml/mendel/tensor"
)

// Volume is an ordered list of equally shaped 2D slices.
type Volume = conv.Volume

// Stage is one step of the feature-extraction pipeline.
type Stage = conv.Stage

// Expand convolves every input slice with every kernel, multiplying depth.
type Expand = conv.Expand

// Activation applies an elementwise non-linearity to every slice.
type Activation = conv.Activation

// Pool performs 2×2 stride-2 max pooling per slice.
type Pool = conv.Pool

// Normalize rescales every slice by its maximum absolute value.
type Normalize = conv.Normalize

// Pipeline is an ordered stage list bound to a backend.
type Pipeline = conv.Pipeline

// ErrBadStage is returned for malformed stages or stage inputs.
var ErrBadStage = conv.ErrBadStage

// Named catalog kernels.
const (
	EdgeTop           = conv.EdgeTop
	EdgeBottom        = conv.EdgeBottom
	EdgeLeft          = conv.EdgeLeft
	EdgeRight         = conv.EdgeRight
	Outline           = conv.Outline
	Sharpen           = conv.Sharpen
	EmbossTopLeft     = conv.EmbossTopLeft
	EmbossTopRight    = conv.EmbossTopRight
	EmbossBottomLeft  = conv.EmbossBottomLeft
	EmbossBottomRight = conv.EmbossBottomRight
)

// NewVolume creates a volume from equally shaped slices.
func NewVolume(slices ...*tensor.Matrix) (Volume, error) {
	return conv.NewVolume(slices...)
}

// NewExpand creates an expand stage from catalog kernel names.
func NewExpand(names ...string) (*Expand, error) {
	return conv.NewExpand(names...)
}

// NewReLU creates a rectified linear activation stage.
func NewReLU() *Activation {
	return conv.NewReLU()
}

// NewPool creates a 2×2 stride-2 max pooling stage.
func NewPool() *Pool {
	return conv.NewPool()
}

// NewNormalize creates a max-abs normalization stage.
func NewNormalize() *Normalize {
	return conv.NewNormalize()
}

// New creates a pipeline from an ordered stage list.
func New(backend tensor.Backend, stages ...Stage) (*Pipeline, error) {
	return conv.New(backend, stages...)
}

// KernelByName returns a fresh copy of a catalog kernel.
func KernelByName(name string) (*tensor.Matrix, error) {
	return conv.KernelByName(name)
}

// KernelNames returns the catalog kernel names in sorted order.
func KernelNames() []string {
	return conv.KernelNames()
}
