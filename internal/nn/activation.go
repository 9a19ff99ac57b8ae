// Package nn implements the network core: the legacy two-matrix network,
// the validated graph network, forward evaluation, backpropagation, and
// structural crossover.
package nn

import "math"

// Activation identifies an elementwise non-linearity.
type Activation int

// Supported activation kinds. Sigmoid is the zero value, so configurations
// that leave the activation unset get the classic default.
const (
	Sigmoid Activation = iota
	ReLU
	Tanh
	Linear
)

// String returns the activation name.
func (a Activation) String() string {
	switch a {
	case Linear:
		return "linear"
	case Sigmoid:
		return "sigmoid"
	case ReLU:
		return "relu"
	case Tanh:
		return "tanh"
	default:
		return "unknown"
	}
}

func (a Activation) valid() bool {
	return a >= Sigmoid && a <= Linear
}

// Func returns the activation function value at x.
func (a Activation) Func(x float32) float32 {
	switch a {
	case Sigmoid:
		return float32(1 / (1 + math.Exp(-float64(x))))
	case ReLU:
		if x < 0 {
			return 0
		}
		return x
	case Tanh:
		return float32(math.Tanh(float64(x)))
	default:
		return x
	}
}

// Deriv returns the derivative of the activation at pre-activation z.
func (a Activation) Deriv(z float32) float32 {
	switch a {
	case Sigmoid:
		y := a.Func(z)
		return y * (1 - y)
	case ReLU:
		if z > 0 {
			return 1
		}
		return 0
	case Tanh:
		y := float32(math.Tanh(float64(z)))
		return 1 - y*y
	default:
		return 1
	}
}
