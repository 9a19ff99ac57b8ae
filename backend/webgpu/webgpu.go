// Copyright 2026 Mendel Engine. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu provides the GPU backend built on zero-CGO WebGPU
// bindings.
//
// Matrix products and convolutions run as WGSL compute shaders; map and
// pooling stay on the CPU where a GPU round trip costs more than the
// kernel. Construction fails cleanly when no adapter or native library is
// present, so callers can fall back to the CPU backend:
//
//	var backend tensor.Backend
//	if gpu, err := webgpu.New(); err == nil {
//	    defer gpu.Release()
//	    backend = gpu
//	} else {
//	    backend = cpu.New()
//	}
package webgpu

import (
	internalwebgpu "github.com/mendel-ml/mendel/internal/backend/webgpu"
	"github.com/mendel-ml/mendel/tensor"
)

// Backend is the WebGPU implementation of tensor.Backend.
type Backend = internalwebgpu.Backend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a WebGPU backend, or fails if WebGPU is unavailable on this
// system. Call Release when done.
func New() (*Backend, error) {
	return internalwebgpu.New()
}

// IsAvailable reports whether a WebGPU adapter can be acquired.
func IsAvailable() bool {
	return internalwebgpu.IsAvailable()
}
