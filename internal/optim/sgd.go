package optim

import "github.com/mendel-ml/mendel/internal/tensor"

// SGDConfig holds configuration for plain stochastic gradient descent.
type SGDConfig struct {
	LR float32 // learning rate (default: 0.01)
	L2 float32 // L2 regularisation (default: 0)
}

// SGD implements the plain update rule: w -= η·(g + λ·w).
// It carries no per-weight state.
type SGD struct {
	lr float32
	l2 float32
}

// NewSGD creates an SGD strategy.
func NewSGD(cfg SGDConfig) *SGD {
	if cfg.LR == 0 {
		cfg.LR = 0.01
	}
	return &SGD{lr: cfg.LR, l2: cfg.L2}
}

// Name returns the strategy name.
func (s *SGD) Name() string { return KindSGD.String() }

// Update applies one step in place.
func (s *SGD) Update(w, grad *tensor.Matrix) error {
	if err := checkShapes(w, grad); err != nil {
		return err
	}
	wData := w.Data()
	gData := grad.Data()
	for i := range wData {
		wData[i] -= s.lr * regularised(gData[i], wData[i], s.l2)
	}
	return nil
}

// MomentumConfig holds configuration for SGD with momentum.
type MomentumConfig struct {
	LR       float32 // learning rate (default: 0.01)
	L2       float32 // L2 regularisation (default: 0)
	Momentum float32 // velocity coefficient μ (default: 0.9)
}

// Momentum implements classical momentum:
//
//	v = μ·v - η·(g + λ·w)
//	w += v
//
// The running velocity is the per-weight state.
type Momentum struct {
	lr       float32
	l2       float32
	momentum float32

	velocity map[*tensor.Matrix][]float32
}

// NewMomentum creates a momentum strategy.
func NewMomentum(cfg MomentumConfig) *Momentum {
	if cfg.LR == 0 {
		cfg.LR = 0.01
	}
	if cfg.Momentum == 0 {
		cfg.Momentum = 0.9
	}
	return &Momentum{
		lr:       cfg.LR,
		l2:       cfg.L2,
		momentum: cfg.Momentum,
		velocity: make(map[*tensor.Matrix][]float32),
	}
}

// Name returns the strategy name.
func (m *Momentum) Name() string { return KindMomentum.String() }

// Update applies one step in place.
func (m *Momentum) Update(w, grad *tensor.Matrix) error {
	if err := checkShapes(w, grad); err != nil {
		return err
	}
	v, ok := m.velocity[w]
	if !ok {
		v = make([]float32, w.NumElements())
		m.velocity[w] = v
	}

	wData := w.Data()
	gData := grad.Data()
	for i := range wData {
		v[i] = m.momentum*v[i] - m.lr*regularised(gData[i], wData[i], m.l2)
		wData[i] += v[i]
	}
	return nil
}
