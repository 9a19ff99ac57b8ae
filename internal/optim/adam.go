package optim

import (
	"math"

	"github.com/mendel-ml/mendel/internal/tensor"
)

// AdamConfig holds configuration for Adam and AdaMax.
type AdamConfig struct {
	LR    float32    // learning rate (default: 0.001)
	L2    float32    // L2 regularisation (default: 0)
	Betas [2]float32 // moment decay rates β₁, β₂ (default: 0.9, 0.999)
	Eps   float32    // numerical stability (default: 1e-8)
}

func (c AdamConfig) withDefaults() AdamConfig {
	if c.LR == 0 {
		c.LR = 0.001
	}
	if c.Betas[0] == 0 {
		c.Betas[0] = 0.9
	}
	if c.Betas[1] == 0 {
		c.Betas[1] = 0.999
	}
	if c.Eps == 0 {
		c.Eps = 1e-8
	}
	return c
}

// adamState is the explicit per-weight state: biased moment estimates plus
// the step counter used for bias correction.
type adamState struct {
	m []float32
	v []float32
	t int
}

// Adam maintains bias-corrected first and second moment running averages:
//
//	m = β₁·m + (1-β₁)·g
//	v = β₂·v + (1-β₂)·g²
//	m̂ = m / (1-β₁ᵗ)
//	v̂ = v / (1-β₂ᵗ)
//	w -= η·m̂ / (sqrt(v̂) + ε)
//
// Reference: "Adam: A Method for Stochastic Optimization" (Kingma & Ba, 2014).
type Adam struct {
	cfg   AdamConfig
	state map[*tensor.Matrix]*adamState
}

// NewAdam creates an Adam strategy.
func NewAdam(cfg AdamConfig) *Adam {
	return &Adam{
		cfg:   cfg.withDefaults(),
		state: make(map[*tensor.Matrix]*adamState),
	}
}

// Name returns the strategy name.
func (a *Adam) Name() string { return KindAdam.String() }

// Update applies one step in place. The per-weight step counter is
// incremented exactly once per call.
func (a *Adam) Update(w, grad *tensor.Matrix) error {
	if err := checkShapes(w, grad); err != nil {
		return err
	}
	st, ok := a.state[w]
	if !ok {
		st = &adamState{
			m: make([]float32, w.NumElements()),
			v: make([]float32, w.NumElements()),
		}
		a.state[w] = st
	}
	st.t++

	beta1 := a.cfg.Betas[0]
	beta2 := a.cfg.Betas[1]
	biasCorrection1 := float32(1 - math.Pow(float64(beta1), float64(st.t)))
	biasCorrection2 := float32(1 - math.Pow(float64(beta2), float64(st.t)))

	wData := w.Data()
	gData := grad.Data()
	for i := range wData {
		g := regularised(gData[i], wData[i], a.cfg.L2)
		st.m[i] = beta1*st.m[i] + (1-beta1)*g
		st.v[i] = beta2*st.v[i] + (1-beta2)*g*g
		mHat := st.m[i] / biasCorrection1
		vHat := st.v[i] / biasCorrection2
		wData[i] -= a.cfg.LR * mHat / (float32(math.Sqrt(float64(vHat))) + a.cfg.Eps)
	}
	return nil
}

// adamaxState carries the first moment, the infinity-norm accumulator and
// the step counter.
type adamaxState struct {
	m []float32
	u []float32
	t int
}

// AdaMax is the infinity-norm variant of Adam: the second moment is
// replaced by an exponentially weighted max of gradient magnitudes:
//
//	m = β₁·m + (1-β₁)·g
//	u = max(β₂·u, |g|)
//	w -= η/(1-β₁ᵗ) · m / (u + ε)
type AdaMax struct {
	cfg   AdamConfig
	state map[*tensor.Matrix]*adamaxState
}

// NewAdaMax creates an AdaMax strategy. The conventional default learning
// rate is 0.002; a zero LR picks that up.
func NewAdaMax(cfg AdamConfig) *AdaMax {
	if cfg.LR == 0 {
		cfg.LR = 0.002
	}
	return &AdaMax{
		cfg:   cfg.withDefaults(),
		state: make(map[*tensor.Matrix]*adamaxState),
	}
}

// Name returns the strategy name.
func (a *AdaMax) Name() string { return KindAdaMax.String() }

// Update applies one step in place.
func (a *AdaMax) Update(w, grad *tensor.Matrix) error {
	if err := checkShapes(w, grad); err != nil {
		return err
	}
	st, ok := a.state[w]
	if !ok {
		st = &adamaxState{
			m: make([]float32, w.NumElements()),
			u: make([]float32, w.NumElements()),
		}
		a.state[w] = st
	}
	st.t++

	beta1 := a.cfg.Betas[0]
	beta2 := a.cfg.Betas[1]
	biasCorrection := float32(1 - math.Pow(float64(beta1), float64(st.t)))

	wData := w.Data()
	gData := grad.Data()
	for i := range wData {
		g := regularised(gData[i], wData[i], a.cfg.L2)
		st.m[i] = beta1*st.m[i] + (1-beta1)*g
		mag := g
		if mag < 0 {
			mag = -mag
		}
		if decayed := beta2 * st.u[i]; decayed > mag {
			st.u[i] = decayed
		} else {
			st.u[i] = mag
		}
		wData[i] -= a.cfg.LR / biasCorrection * st.m[i] / (st.u[i] + a.cfg.Eps)
	}
	return nil
}
