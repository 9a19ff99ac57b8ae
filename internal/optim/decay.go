package optim

import "math"

// DecayingRate is an unbounded lazy sequence of schedule values, consumed
// one value per training step. A rate is not restartable in place: a fresh
// sequence is obtained by constructing a new producer, never by resetting
// shared state.
type DecayingRate interface {
	Next() float64
}

// Exponential produces exp(-i/decay) for i = 0, 1, 2, ….
type Exponential struct {
	decay float64
	i     int
}

// NewExponential creates a fresh exponential decay sequence.
func NewExponential(decay float64) *Exponential {
	return &Exponential{decay: decay}
}

// Next returns the current value and advances the sequence.
func (e *Exponential) Next() float64 {
	v := math.Exp(-float64(e.i) / e.decay)
	e.i++
	return v
}

// Linear produces 1, factor, factor², ….
type Linear struct {
	current float64
	factor  float64
}

// NewLinear creates a fresh geometric decay sequence.
func NewLinear(factor float64) *Linear {
	return &Linear{current: 1, factor: factor}
}

// Next returns the current value and advances the sequence.
func (l *Linear) Next() float64 {
	v := l.current
	l.current *= l.factor
	return v
}
