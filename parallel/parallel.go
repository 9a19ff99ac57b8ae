// Copyright 2026 Mendel Engine. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package parallel exposes the engine's fork-join execution harness.
//
// The same configuration type drives both the CPU backend's row
// partitioning and the training loop's per-sample gradient phase. A failed
// partition fails the whole call: partial results are never observable.
package parallel

import "github.com/mendel-ml/mendel/internal/parallel"

// Config controls parallel execution behavior.
type Config = parallel.Config

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	return parallel.DefaultConfig()
}

// Sequential returns a config that forces single-threaded execution.
func Sequential() Config {
	return parallel.Sequential()
}

// For executes f(i) for i in [0, n) across the worker pool and blocks until
// every partition finishes. Partitions must write only to disjoint regions
// of any shared output. If any invocation fails the whole call fails with
// the aggregated error and the output must be treated as invalid.
func For(n int, f func(i int) error, cfg Config) error {
	return parallel.For(n, f, cfg)
}
