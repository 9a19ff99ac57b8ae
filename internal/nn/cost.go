package nn

import (
	"math"

	"github.com/mendel-ml/mendel/internal/tensor"
)

// Cost identifies the scalar cost attached to the terminal layer.
type Cost int

// Supported cost kinds. MeanSquaredError is the zero value.
const (
	MeanSquaredError Cost = iota
	CrossEntropy
)

// String returns the cost name.
func (c Cost) String() string {
	if c == CrossEntropy {
		return "cross-entropy"
	}
	return "mean-squared-error"
}

func (c Cost) valid() bool {
	return c == MeanSquaredError || c == CrossEntropy
}

// Value computes the scalar cost of a prediction against its target.
func (c Cost) Value(pred, target *tensor.Matrix) float32 {
	p := pred.Data()
	t := target.Data()
	total := float32(0)
	switch c {
	case CrossEntropy:
		for i := range p {
			y := clampProb(p[i])
			total += float32(-float64(t[i])*math.Log(float64(y)) -
				float64(1-t[i])*math.Log(float64(1-y)))
		}
	default:
		for i := range p {
			d := p[i] - t[i]
			total += 0.5 * d * d
		}
	}
	return total
}

// Deriv computes dC/dpred as a new matrix.
func (c Cost) Deriv(pred, target *tensor.Matrix) *tensor.Matrix {
	out := tensor.New(pred.Rows(), pred.Cols())
	o := out.Data()
	p := pred.Data()
	t := target.Data()
	switch c {
	case CrossEntropy:
		for i := range p {
			y := clampProb(p[i])
			o[i] = (y - t[i]) / (y * (1 - y))
		}
	default:
		for i := range p {
			o[i] = p[i] - t[i]
		}
	}
	return out
}

// clampProb keeps predicted probabilities away from 0 and 1 so the
// cross-entropy terms stay finite.
func clampProb(p float32) float32 {
	const eps = 1e-7
	if p < eps {
		return eps
	}
	if p > 1-eps {
		return 1 - eps
	}
	return p
}
