package conv

import (
	"fmt"

	"github.com/mendel-ml/mendel/internal/tensor"
)

// Stage is one deterministic Volume -> Volume transform of a pipeline.
// Apply must not mutate its input; Backward is the exact reverse-mode
// adjoint of Apply, mapping the gradient w.r.t. the stage output back to
// the gradient w.r.t. the stage input.
type Stage interface {
	Apply(b tensor.Backend, v Volume) (Volume, error)
	Backward(b tensor.Backend, in Volume, grad Volume) (Volume, error)
	Name() string
}

// Expand convolves every input slice with every kernel: output depth is
// input depth × number of kernels, spatial size shrinks per valid
// convolution. Output slice order is input-major: slice s and kernel k
// land at index s*len(kernels)+k.
type Expand struct {
	Kernels []*tensor.Matrix
}

// NewExpand builds an Expand stage from catalog kernel names.
func NewExpand(names ...string) (*Expand, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: expand needs at least one kernel", ErrBadStage)
	}
	kernels := make([]*tensor.Matrix, len(names))
	for i, name := range names {
		k, err := KernelByName(name)
		if err != nil {
			return nil, err
		}
		kernels[i] = k
	}
	return &Expand{Kernels: kernels}, nil
}

// Name returns the stage name.
func (e *Expand) Name() string { return "expand" }

// Apply convolves each slice with each kernel.
func (e *Expand) Apply(b tensor.Backend, v Volume) (Volume, error) {
	if len(e.Kernels) == 0 {
		return nil, fmt.Errorf("%w: expand has no kernels", ErrBadStage)
	}
	out := make(Volume, 0, v.Depth()*len(e.Kernels))
	for _, slice := range v {
		for _, kernel := range e.Kernels {
			conved, err := b.Conv2D(slice, kernel)
			if err != nil {
				return nil, fmt.Errorf("expand: %w", err)
			}
			out = append(out, conved)
		}
	}
	return out, nil
}

// Backward computes the input gradient: for each input slice, the sum over
// kernels of the full correlation of the output gradient with the
// 180°-rotated kernel (the adjoint of valid convolution).
func (e *Expand) Backward(b tensor.Backend, in Volume, grad Volume) (Volume, error) {
	k := len(e.Kernels)
	if grad.Depth() != in.Depth()*k {
		return nil, fmt.Errorf("%w: expand backward got %d gradient slices for %d inputs and %d kernels",
			ErrBadStage, grad.Depth(), in.Depth(), k)
	}

	out := make(Volume, in.Depth())
	for s := range in {
		acc := tensor.New(in.Rows(), in.Cols())
		for ki, kernel := range e.Kernels {
			g := grad[s*k+ki]
			padded := zeroPad(g, kernel.Rows()-1, kernel.Cols()-1)
			dIn, err := b.Conv2D(padded, rot180(kernel))
			if err != nil {
				return nil, fmt.Errorf("expand backward: %w", err)
			}
			addInto(acc, dIn)
		}
		out[s] = acc
	}
	return out, nil
}

// KernelGrads computes the gradient of the cost w.r.t. each kernel:
// dK[k] = sum over slices s of valid-conv(in[s], grad[s*K+k]).
// Used when the expand kernels are trainable layer weights.
func (e *Expand) KernelGrads(b tensor.Backend, in Volume, grad Volume) ([]*tensor.Matrix, error) {
	k := len(e.Kernels)
	if grad.Depth() != in.Depth()*k {
		return nil, fmt.Errorf("%w: expand kernel grads got %d gradient slices for %d inputs and %d kernels",
			ErrBadStage, grad.Depth(), in.Depth(), k)
	}

	grads := make([]*tensor.Matrix, k)
	for ki := range e.Kernels {
		acc := tensor.New(e.Kernels[ki].Rows(), e.Kernels[ki].Cols())
		for s := range in {
			dK, err := b.Conv2D(in[s], grad[s*k+ki])
			if err != nil {
				return nil, fmt.Errorf("expand kernel grads: %w", err)
			}
			addInto(acc, dK)
		}
		grads[ki] = acc
	}
	return grads, nil
}

// Activation applies an elementwise non-linearity per slice; depth and
// spatial size are unchanged.
type Activation struct {
	Fn    func(float32) float32
	Deriv func(float32) float32 // derivative as a function of the input value
	Label string
}

// NewReLU returns the rectifier activation stage.
func NewReLU() *Activation {
	return &Activation{
		Fn: func(x float32) float32 {
			if x < 0 {
				return 0
			}
			return x
		},
		Deriv: func(x float32) float32 {
			if x > 0 {
				return 1
			}
			return 0
		},
		Label: "relu",
	}
}

// Name returns the stage name.
func (a *Activation) Name() string { return a.Label }

// Apply maps the non-linearity over every slice.
func (a *Activation) Apply(b tensor.Backend, v Volume) (Volume, error) {
	if a.Fn == nil {
		return nil, fmt.Errorf("%w: activation stage has no function", ErrBadStage)
	}
	out := make(Volume, v.Depth())
	for i, slice := range v {
		c := slice.Clone()
		b.Map(c, a.Fn)
		out[i] = c
	}
	return out, nil
}

// Backward multiplies the output gradient by the derivative evaluated at
// the stage input.
func (a *Activation) Backward(b tensor.Backend, in Volume, grad Volume) (Volume, error) {
	if a.Deriv == nil {
		return nil, fmt.Errorf("%w: activation stage has no derivative", ErrBadStage)
	}
	if grad.Depth() != in.Depth() {
		return nil, fmt.Errorf("%w: activation backward depth %d != %d",
			ErrBadStage, grad.Depth(), in.Depth())
	}
	out := make(Volume, in.Depth())
	for i := range in {
		g := grad[i].Clone()
		gData := g.Data()
		inData := in[i].Data()
		for j := range gData {
			gData[j] *= a.Deriv(inData[j])
		}
		out[i] = g
	}
	return out, nil
}

// Pool performs the deterministic 2×2 max reduction, halving height and
// width; depth is unchanged. Requires even spatial extents.
type Pool struct{}

// NewPool returns the 2×2 max-pool stage.
func NewPool() *Pool { return &Pool{} }

// Name returns the stage name.
func (p *Pool) Name() string { return "pool" }

// Apply pools every slice.
func (p *Pool) Apply(b tensor.Backend, v Volume) (Volume, error) {
	out := make(Volume, v.Depth())
	for i, slice := range v {
		pooled, _, err := b.MaxPool2D(slice)
		if err != nil {
			return nil, fmt.Errorf("pool: %w", err)
		}
		out[i] = pooled
	}
	return out, nil
}

// Backward routes each output gradient to the input element the maximum was
// taken from. The argmax indices are recomputed from the stage input, which
// is valid because pooling is deterministic including its tie break.
func (p *Pool) Backward(b tensor.Backend, in Volume, grad Volume) (Volume, error) {
	if grad.Depth() != in.Depth() {
		return nil, fmt.Errorf("%w: pool backward depth %d != %d",
			ErrBadStage, grad.Depth(), in.Depth())
	}
	out := make(Volume, in.Depth())
	for i := range in {
		_, indices, err := b.MaxPool2D(in[i])
		if err != nil {
			return nil, fmt.Errorf("pool backward: %w", err)
		}
		dIn := tensor.New(in.Rows(), in.Cols())
		dData := dIn.Data()
		for outIdx, inIdx := range indices {
			dData[inIdx] += grad[i].Data()[outIdx]
		}
		out[i] = dIn
	}
	return out, nil
}

// Normalize rescales each slice into [-1, 1] by dividing by its largest
// absolute value; depth and spatial size are unchanged. An all-zero slice
// passes through untouched.
type Normalize struct{}

// NewNormalize returns the per-slice rescaling stage.
func NewNormalize() *Normalize { return &Normalize{} }

// Name returns the stage name.
func (n *Normalize) Name() string { return "normalize" }

// Apply rescales every slice.
func (n *Normalize) Apply(b tensor.Backend, v Volume) (Volume, error) {
	out := make(Volume, v.Depth())
	for i, slice := range v {
		scale, _ := slice.MaxAbs()
		c := slice.Clone()
		if scale != 0 {
			b.Map(c, func(x float32) float32 { return x / scale })
		}
		out[i] = c
	}
	return out, nil
}

// Backward is the exact adjoint of the max-abs rescale y = x/s with
// s = |x_p|: dL/dx_i = g_i/s - [i==p]·sign(x_p)·<g,x>/s².
func (n *Normalize) Backward(b tensor.Backend, in Volume, grad Volume) (Volume, error) {
	if grad.Depth() != in.Depth() {
		return nil, fmt.Errorf("%w: normalize backward depth %d != %d",
			ErrBadStage, grad.Depth(), in.Depth())
	}
	out := make(Volume, in.Depth())
	for i := range in {
		scale, p := in[i].MaxAbs()
		g := grad[i].Clone()
		if scale == 0 {
			out[i] = g
			continue
		}
		gData := g.Data()
		inData := in[i].Data()
		dot := float32(0)
		for j := range gData {
			dot += gData[j] * inData[j]
		}
		for j := range gData {
			gData[j] /= scale
		}
		sign := float32(1)
		if inData[p] < 0 {
			sign = -1
		}
		gData[p] -= sign * dot / (scale * scale)
		out[i] = g
	}
	return out, nil
}

// zeroPad embeds m in a zero matrix with padR/padC extra rows/columns on
// every side. Used to express the convolution adjoint as a valid
// convolution over a padded gradient.
func zeroPad(m *tensor.Matrix, padR, padC int) *tensor.Matrix {
	out := tensor.New(m.Rows()+2*padR, m.Cols()+2*padC)
	for r := 0; r < m.Rows(); r++ {
		for c := 0; c < m.Cols(); c++ {
			out.Set(r+padR, c+padC, m.At(r, c))
		}
	}
	return out
}

// rot180 returns the kernel rotated by 180 degrees.
func rot180(k *tensor.Matrix) *tensor.Matrix {
	out := tensor.New(k.Rows(), k.Cols())
	for r := 0; r < k.Rows(); r++ {
		for c := 0; c < k.Cols(); c++ {
			out.Set(k.Rows()-1-r, k.Cols()-1-c, k.At(r, c))
		}
	}
	return out
}

func addInto(dst, src *tensor.Matrix) {
	d := dst.Data()
	for i, v := range src.Data() {
		d[i] += v
	}
}
