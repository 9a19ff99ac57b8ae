package nn

import (
	"errors"
	"fmt"
)

// ErrIncompatible is returned by crossover when two networks are not
// structurally compatible. The call fails; neither parent is affected.
var ErrIncompatible = errors.New("nn: networks are not structurally compatible")

// ErrorKind classifies construction failures.
type ErrorKind int

// Build-error kinds.
const (
	// InvalidLayer marks a layer whose own configuration is wrong:
	// non-positive size, unknown activation, bad kernel name.
	InvalidLayer ErrorKind = iota
	// BadTopology marks a structurally malformed layer sequence: missing
	// input, shape mismatch between adjacent layers, cost on a
	// non-terminal layer, empty graph.
	BadTopology
)

func (k ErrorKind) String() string {
	if k == InvalidLayer {
		return "invalid layer"
	}
	return "bad topology"
}

// BuildError reports why network construction failed and which layer is at
// fault. Build errors are raised synchronously during construction, before
// any training begins, and are always fatal to that construction attempt.
type BuildError struct {
	Kind   ErrorKind
	Layer  string
	Reason string
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("nn: %s %q: %s", e.Kind, e.Layer, e.Reason)
}

func invalidLayer(layer, format string, args ...any) *BuildError {
	return &BuildError{Kind: InvalidLayer, Layer: layer, Reason: fmt.Sprintf(format, args...)}
}

func badTopology(layer, format string, args ...any) *BuildError {
	return &BuildError{Kind: BadTopology, Layer: layer, Reason: fmt.Sprintf(format, args...)}
}
