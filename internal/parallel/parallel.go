// Package parallel provides the fork-join execution harness used by the
// Mendel engine to fan out independent per-row, per-slice and per-sample
// work across a bounded worker pool.
package parallel

import (
	"errors"
	"runtime"
	"sync"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool // Whether parallel execution is enabled.
	NumWorkers   int  // Number of worker goroutines to use.
	MinChunkSize int  // Minimum items per goroutine to avoid overhead.
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 16,
	}
}

// Sequential returns a config that forces single-threaded execution.
// Useful for deterministic debugging and for tests.
func Sequential() Config {
	return Config{Enabled: false, NumWorkers: 1, MinChunkSize: 1}
}

// For executes f(i) for i in [0, n), partitioned into contiguous chunks over
// a worker pool. The call blocks until every partition has finished.
//
// Partitions must write only to disjoint regions of any shared output; For
// provides no locking. If any invocation of f returns an error the whole
// call fails: all partition errors are joined into a single aggregated
// error, and the caller must treat the output of the call as invalid. A
// failing partition stops at its first error; other partitions still run to
// completion so the join is unconditional.
func For(n int, f func(i int) error, cfg Config) error {
	if !cfg.Enabled || n < cfg.MinChunkSize {
		for i := 0; i < n; i++ {
			if err := f(i); err != nil {
				return err
			}
		}
		return nil
	}

	chunkSize := max((n+cfg.NumWorkers-1)/cfg.NumWorkers, cfg.MinChunkSize)
	numChunks := (n + chunkSize - 1) / chunkSize
	errs := make([]error, numChunks)

	var wg sync.WaitGroup
	for c := 0; c < numChunks; c++ {
		start := c * chunkSize
		end := min(start+chunkSize, n)
		wg.Add(1)
		go func(c, s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				if err := f(i); err != nil {
					errs[c] = err
					return
				}
			}
		}(c, start, end)
	}
	wg.Wait()

	return errors.Join(errs...)
}

// ForBatch executes f(b, c) over a batch*channels iteration space.
// Common for depth-slice loops in the convolution pipeline.
func ForBatch(batch, channels int, f func(b, c int) error, cfg Config) error {
	return For(batch*channels, func(k int) error {
		return f(k/channels, k%channels)
	}, cfg)
}
