package optim

import (
	"math"

	"github.com/mendel-ml/mendel/internal/tensor"
)

// AdaGradConfig holds configuration for AdaGrad.
type AdaGradConfig struct {
	LR  float32 // learning rate (default: 0.01)
	L2  float32 // L2 regularisation (default: 0)
	Eps float32 // numerical stability (default: 1e-8)
}

// AdaGrad accumulates squared gradients per weight and divides each step by
// the square root of the accumulator:
//
//	n += g²
//	w -= η·g / sqrt(n + ε)
type AdaGrad struct {
	lr  float32
	l2  float32
	eps float32

	accum map[*tensor.Matrix][]float32
}

// NewAdaGrad creates an AdaGrad strategy.
func NewAdaGrad(cfg AdaGradConfig) *AdaGrad {
	if cfg.LR == 0 {
		cfg.LR = 0.01
	}
	if cfg.Eps == 0 {
		cfg.Eps = 1e-8
	}
	return &AdaGrad{
		lr:    cfg.LR,
		l2:    cfg.L2,
		eps:   cfg.Eps,
		accum: make(map[*tensor.Matrix][]float32),
	}
}

// Name returns the strategy name.
func (a *AdaGrad) Name() string { return KindAdaGrad.String() }

// Update applies one step in place.
func (a *AdaGrad) Update(w, grad *tensor.Matrix) error {
	if err := checkShapes(w, grad); err != nil {
		return err
	}
	n, ok := a.accum[w]
	if !ok {
		n = make([]float32, w.NumElements())
		a.accum[w] = n
	}

	wData := w.Data()
	gData := grad.Data()
	for i := range wData {
		g := regularised(gData[i], wData[i], a.l2)
		n[i] += g * g
		wData[i] -= a.lr * g / float32(math.Sqrt(float64(n[i]+a.eps)))
	}
	return nil
}

// RMSPropConfig holds configuration for RMSProp.
type RMSPropConfig struct {
	LR  float32 // learning rate (default: 0.01)
	L2  float32 // L2 regularisation (default: 0)
	Rho float32 // squared-gradient decay ρ (default: 0.9)
	Eps float32 // numerical stability (default: 1e-8)
}

// RMSProp replaces AdaGrad's raw sum with an exponentially decayed running
// average of squared gradients:
//
//	n = ρ·n + (1-ρ)·g²
//	w -= η·g / sqrt(n + ε)
type RMSProp struct {
	lr  float32
	l2  float32
	rho float32
	eps float32

	accum map[*tensor.Matrix][]float32
}

// NewRMSProp creates an RMSProp strategy.
func NewRMSProp(cfg RMSPropConfig) *RMSProp {
	if cfg.LR == 0 {
		cfg.LR = 0.01
	}
	if cfg.Rho == 0 {
		cfg.Rho = 0.9
	}
	if cfg.Eps == 0 {
		cfg.Eps = 1e-8
	}
	return &RMSProp{
		lr:    cfg.LR,
		l2:    cfg.L2,
		rho:   cfg.Rho,
		eps:   cfg.Eps,
		accum: make(map[*tensor.Matrix][]float32),
	}
}

// Name returns the strategy name.
func (r *RMSProp) Name() string { return KindRMSProp.String() }

// Update applies one step in place.
func (r *RMSProp) Update(w, grad *tensor.Matrix) error {
	if err := checkShapes(w, grad); err != nil {
		return err
	}
	n, ok := r.accum[w]
	if !ok {
		n = make([]float32, w.NumElements())
		r.accum[w] = n
	}

	wData := w.Data()
	gData := grad.Data()
	for i := range wData {
		g := regularised(gData[i], wData[i], r.l2)
		n[i] = r.rho*n[i] + (1-r.rho)*g*g
		wData[i] -= r.lr * g / float32(math.Sqrt(float64(n[i]+r.eps)))
	}
	return nil
}

// AdaDeltaConfig holds configuration for AdaDelta.
type AdaDeltaConfig struct {
	LR  float32 // step scale (default: 1.0, the published rule has no η)
	L2  float32 // L2 regularisation (default: 0)
	Rho float32 // decay ρ (default: 0.95)
	Eps float32 // numerical stability (default: 1e-6)
}

// AdaDelta keeps decayed running averages of both squared gradients and
// squared steps, making the step size self-scaling:
//
//	n  = ρ·n + (1-ρ)·g²
//	Δ  = -sqrt(d + ε)/sqrt(n + ε) · g
//	d  = ρ·d + (1-ρ)·Δ²
//	w += η·Δ
type AdaDelta struct {
	lr  float32
	l2  float32
	rho float32
	eps float32

	accumGrad map[*tensor.Matrix][]float32
	accumStep map[*tensor.Matrix][]float32
}

// NewAdaDelta creates an AdaDelta strategy.
func NewAdaDelta(cfg AdaDeltaConfig) *AdaDelta {
	if cfg.LR == 0 {
		cfg.LR = 1.0
	}
	if cfg.Rho == 0 {
		cfg.Rho = 0.95
	}
	if cfg.Eps == 0 {
		cfg.Eps = 1e-6
	}
	return &AdaDelta{
		lr:        cfg.LR,
		l2:        cfg.L2,
		rho:       cfg.Rho,
		eps:       cfg.Eps,
		accumGrad: make(map[*tensor.Matrix][]float32),
		accumStep: make(map[*tensor.Matrix][]float32),
	}
}

// Name returns the strategy name.
func (a *AdaDelta) Name() string { return KindAdaDelta.String() }

// Update applies one step in place.
func (a *AdaDelta) Update(w, grad *tensor.Matrix) error {
	if err := checkShapes(w, grad); err != nil {
		return err
	}
	n, ok := a.accumGrad[w]
	if !ok {
		n = make([]float32, w.NumElements())
		a.accumGrad[w] = n
	}
	d, ok := a.accumStep[w]
	if !ok {
		d = make([]float32, w.NumElements())
		a.accumStep[w] = d
	}

	wData := w.Data()
	gData := grad.Data()
	for i := range wData {
		g := regularised(gData[i], wData[i], a.l2)
		n[i] = a.rho*n[i] + (1-a.rho)*g*g
		step := -float32(math.Sqrt(float64(d[i]+a.eps))/math.Sqrt(float64(n[i]+a.eps))) * g
		d[i] = a.rho*d[i] + (1-a.rho)*step*step
		wData[i] += a.lr * step
	}
	return nil
}
