package nn

import (
	"math"
	"math/rand"

	"github.com/mendel-ml/mendel/internal/tensor"
)

// Dense is a fully connected layer: a = act(x·W + b).
type Dense struct {
	name string
	in   int
	out  int
	act  Activation

	weight *tensor.Matrix // in × out
	bias   *tensor.Matrix // 1 × out
}

// newDense creates a dense layer with Xavier-initialised weights and zero
// bias.
func newDense(name string, in, out int, act Activation, rng *rand.Rand) *Dense {
	weight := tensor.Rand(in, out, rng)
	// Xavier/Glorot scaling over the uniform [-1,1) draw.
	scale := float32(math.Sqrt(6.0 / float64(in+out)))
	data := weight.Data()
	for i := range data {
		data[i] *= scale
	}
	return &Dense{
		name:   name,
		in:     in,
		out:    out,
		act:    act,
		weight: weight,
		bias:   tensor.New(1, out),
	}
}

// forward computes the pre-activation z = x·W + b and activation a.
// x has one sample per row.
func (d *Dense) forward(b tensor.Backend, x *tensor.Matrix) (z, a *tensor.Matrix, err error) {
	z, err = b.MatMul(x, d.weight)
	if err != nil {
		return nil, nil, err
	}
	zData := z.Data()
	bData := d.bias.Data()
	for r := 0; r < z.Rows(); r++ {
		for c := 0; c < d.out; c++ {
			zData[r*d.out+c] += bData[c]
		}
	}

	a = z.Clone()
	a.Apply(d.act.Func, 0)
	return z, a, nil
}

// backward maps the gradient w.r.t. the layer activation to gradients
// w.r.t. weight, bias and input. x and z are the values cached by forward.
func (d *Dense) backward(b tensor.Backend, x, z, gradA *tensor.Matrix) (gradW, gradB, gradX *tensor.Matrix, err error) {
	// delta = gradA ⊙ act'(z)
	delta := gradA.Clone()
	dData := delta.Data()
	zData := z.Data()
	for i := range dData {
		dData[i] *= d.act.Deriv(zData[i])
	}

	gradW, err = b.MatMul(x.T(), delta)
	if err != nil {
		return nil, nil, nil, err
	}

	gradB = tensor.New(1, d.out)
	gbData := gradB.Data()
	for r := 0; r < delta.Rows(); r++ {
		for c := 0; c < d.out; c++ {
			gbData[c] += dData[r*d.out+c]
		}
	}

	gradX, err = b.MatMul(delta, d.weight.T())
	if err != nil {
		return nil, nil, nil, err
	}
	return gradW, gradB, gradX, nil
}

// clone deep-copies the layer.
func (d *Dense) clone() *Dense {
	c := *d
	c.weight = d.weight.Clone()
	c.bias = d.bias.Clone()
	return &c
}
