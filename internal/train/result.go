// Package train implements the training entry point: the epoch loop, the
// parallel forward/backward phase, dataset evaluation, and the immutable
// session result it reports.
package train

import (
	"fmt"
	"strings"
	"time"
)

// StopReason names why a training run ended.
type StopReason int

// Stop reasons.
const (
	// EpochBudget means the configured number of epochs completed.
	EpochBudget StopReason = iota
	// UserRequested means the cancellation signal was observed at an epoch
	// boundary; the in-flight epoch was finished before stopping.
	UserRequested
)

// String returns the stable reason name used in result exports.
func (r StopReason) String() string {
	if r == UserRequested {
		return "user-requested"
	}
	return "epoch-budget"
}

// EvalResult is the immutable outcome of one dataset pass.
type EvalResult struct {
	Cost     float64
	Accuracy float64
}

// String returns a stable, human-diffable representation.
func (r EvalResult) String() string {
	return fmt.Sprintf("cost=%.6f accuracy=%.4f", r.Cost, r.Accuracy)
}

// SessionResult is the immutable record of one training run, constructed
// once by Run when the loop ends and never mutated afterwards.
type SessionResult struct {
	Reason     StopReason
	Epochs     int
	Elapsed    time.Duration
	Validation []EvalResult
	Test       []EvalResult
}

// String renders the session as stable, human-diffable structured text.
// This is a one-way export for logging and diagnostics, not a round-trip
// persistence format.
func (s *SessionResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "stop-reason: %s\n", s.Reason)
	fmt.Fprintf(&b, "epochs: %d\n", s.Epochs)
	fmt.Fprintf(&b, "elapsed: %s\n", s.Elapsed)
	fmt.Fprintf(&b, "validation-reports: %d\n", len(s.Validation))
	for i, r := range s.Validation {
		fmt.Fprintf(&b, "  [%d] %s\n", i, r)
	}
	fmt.Fprintf(&b, "test-reports: %d\n", len(s.Test))
	for i, r := range s.Test {
		fmt.Fprintf(&b, "  [%d] %s\n", i, r)
	}
	return b.String()
}
