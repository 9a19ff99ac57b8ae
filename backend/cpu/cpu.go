// Copyright 2026 Mendel Engine. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the pure Go CPU backend.
//
// Matrix products partition their output rows across the engine's worker
// pool; all other operations run single-threaded. The backend holds no
// mutable state and is safe for concurrent use.
package cpu

import (
	internalcpu "github.com/mendel-ml/mendel/internal/backend/cpu"
	"github.com/mendel-ml/mendel/parallel"
	"github.com/mendel-ml/mendel/tensor"
)

// Backend is the CPU implementation of tensor.Backend.
type Backend = internalcpu.Backend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a CPU backend with the default parallel configuration.
//
// Example:
//
//	import (
//	    "github.com/mendel-ml/mendel/backend/cpu"
//	    "github.com/mendel-ml/mendel/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    _ = backend.Name()
//	    _ = tensor.New(2, 3)
//	}
func New() *Backend {
	return internalcpu.New()
}

// NewWithConfig creates a CPU backend with an explicit worker pool
// configuration. Use parallel.Sequential() for deterministic debugging.
func NewWithConfig(cfg parallel.Config) *Backend {
	return internalcpu.NewWithConfig(cfg)
}
