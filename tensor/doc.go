// Copyright 2026 Mendel Engine. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the matrix primitive underlying the Mendel engine.
//
// # Overview
//
// Every numeric value the engine moves (weights, activations, gradients,
// convolution kernels) is a dense row-major float32 matrix. This package
// provides:
//   - The Matrix type with construction, access and structural helpers
//   - The Backend interface, the substitution point for accelerators
//   - Two-point crossover over flattened weight matrices
//
// # Basic Usage
//
//	import (
//	    "math/rand"
//
//	    "github.com/mendel-ml/mendel/tensor"
//	    "github.com/mendel-ml/mendel/backend/cpu"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    rng := rand.New(rand.NewSource(1))
//
//	    a := tensor.Rand(4, 8, rng)
//	    b := tensor.Rand(8, 2, rng)
//	    c, err := backend.MatMul(a, b)
//	    if err != nil {
//	        panic(err)
//	    }
//	    _ = c
//	}
//
// # Determinism
//
// All randomness flows through an explicit *rand.Rand, so any run can be
// reproduced from its seed.
package tensor
