// Copyright 2026 Mendel Engine. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the network core: validated computation graphs with
// an optional convolutional front end and a dense head, forward
// evaluation, backpropagation, and structural crossover.
//
// # Basic Usage
//
//	import (
//	    "math/rand"
//
//	    "github.com/mendel-ml/mendel/backend/cpu"
//	    "github.com/mendel-ml/mendel/nn"
//	)
//
//	func main() {
//	    net, err := nn.Build([]nn.LayerSpec{
//	        {Kind: nn.Input, Shape: nn.Shape{Depth: 1, Rows: 8, Cols: 8}},
//	        {Kind: nn.Conv, Kernels: []string{"edge-top", "sharpen"}, Activation: nn.ReLU},
//	        {Kind: nn.Pool},
//	        {Kind: nn.DenseLayer, Size: 16, Activation: nn.Tanh},
//	        {Kind: nn.Output, Size: 4, Activation: nn.Sigmoid, Cost: nn.MeanSquaredError},
//	    }, cpu.New(), rand.New(rand.NewSource(1)))
//	    if err != nil {
//	        panic(err)
//	    }
//	    _ = net
//	}
//
// Every structural rule is checked at Build time, so a graph that
// constructs can always be evaluated and trained.
package nn

import (
	"math/rand"

	"github.com/mendel-ml/mendel/internal/nn"
	"github.com/mendel-ml/mendel/tensor"
)

// Graph is a validated single-input single-output computation graph.
type Graph = nn.Graph

// LayerSpec describes one layer of a graph network.
type LayerSpec = nn.LayerSpec

// LayerKind identifies a layer-spec kind.
type LayerKind = nn.LayerKind

// Layer kinds accepted by Build.
const (
	Input      = nn.Input
	Conv       = nn.Conv
	Pool       = nn.Pool
	Normalize  = nn.Normalize
	DenseLayer = nn.DenseLayer
	Output     = nn.Output
)

// Shape is a volume extent: depth × rows × cols.
type Shape = nn.Shape

// Activation identifies an elementwise non-linearity.
type Activation = nn.Activation

// Supported activations. Sigmoid is the zero value.
const (
	Sigmoid = nn.Sigmoid
	ReLU    = nn.ReLU
	Tanh    = nn.Tanh
	Linear  = nn.Linear
)

// Cost identifies the scalar cost attached to the terminal layer.
type Cost = nn.Cost

// Supported costs. MeanSquaredError is the zero value.
const (
	MeanSquaredError = nn.MeanSquaredError
	CrossEntropy     = nn.CrossEntropy
)

// Gradients holds the gradient of the cost w.r.t. every trainable tensor.
type Gradients = nn.Gradients

// Network is the legacy two-matrix feed-forward network.
type Network = nn.Network

// NetworkConfig describes a legacy two-matrix network.
type NetworkConfig = nn.NetworkConfig

// BuildError reports a structural defect found during graph construction.
type BuildError = nn.BuildError

// ErrorKind classifies build errors.
type ErrorKind = nn.ErrorKind

// Build error kinds.
const (
	InvalidLayer = nn.InvalidLayer
	BadTopology  = nn.BadTopology
)

// ErrIncompatible is returned when two networks cannot be crossed over.
var ErrIncompatible = nn.ErrIncompatible

// Build constructs a Graph from an ordered layer-spec list, or fails with
// a BuildError identifying the offending layer.
func Build(specs []LayerSpec, backend tensor.Backend, rng *rand.Rand) (*Graph, error) {
	return nn.Build(specs, backend, rng)
}

// NewNetwork creates a legacy two-matrix network with random weights.
func NewNetwork(cfg NetworkConfig, backend tensor.Backend, rng *rand.Rand) (*Network, error) {
	return nn.NewNetwork(cfg, backend, rng)
}
