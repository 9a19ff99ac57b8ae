// Package optim implements the gradient-optimizer strategy family and the
// decaying-rate producers used for schedules.
//
// Every strategy exposes the same operation: update a weight matrix in
// place from its gradient, carrying whatever per-weight accumulators the
// variant needs as explicit optimizer state. There are no hidden global
// counters; the step counter Adam and AdaMax need for bias correction is
// part of the per-weight state and is incremented once per update call.
//
// Example:
//
//	strat, _ := optim.New(optim.Algorithm{Kind: optim.KindAdam, LR: 0.001})
//	for _, i := range paramIndices {
//	    strat.Update(params[i], grads[i])
//	}
package optim

import (
	"fmt"

	"github.com/mendel-ml/mendel/internal/tensor"
)

// Strategy is a stateful weight-update rule. Update applies one step to w
// in place. Calls are pure given (weight, gradient, accumulated state):
// the same inputs and state always produce the same step.
type Strategy interface {
	Update(w, grad *tensor.Matrix) error
	Name() string
}

// Kind tags an optimizer variant.
type Kind int

// Optimizer variants.
const (
	KindSGD Kind = iota
	KindMomentum
	KindAdaGrad
	KindAdaDelta
	KindAdam
	KindAdaMax
	KindRMSProp
)

func (k Kind) String() string {
	switch k {
	case KindSGD:
		return "sgd"
	case KindMomentum:
		return "momentum"
	case KindAdaGrad:
		return "adagrad"
	case KindAdaDelta:
		return "adadelta"
	case KindAdam:
		return "adam"
	case KindAdaMax:
		return "adamax"
	case KindRMSProp:
		return "rmsprop"
	default:
		return "unknown"
	}
}

// Algorithm is the tagged training-algorithm descriptor: one variant kind
// plus its hyperparameters. Zero-valued hyperparameters get the variant's
// published defaults.
type Algorithm struct {
	Kind Kind

	LR       float32 // learning rate η
	L2       float32 // L2 regularisation λ
	Momentum float32 // momentum coefficient μ (Momentum)
	Rho      float32 // decay rate ρ (AdaDelta, RMSProp)
	Beta1    float32 // first-moment decay β₁ (Adam, AdaMax)
	Beta2    float32 // second-moment decay β₂ (Adam, AdaMax)
	Eps      float32 // numerical-stability ε
}

// New constructs the strategy for the tagged algorithm.
func New(alg Algorithm) (Strategy, error) {
	switch alg.Kind {
	case KindSGD:
		return NewSGD(SGDConfig{LR: alg.LR, L2: alg.L2}), nil
	case KindMomentum:
		return NewMomentum(MomentumConfig{LR: alg.LR, L2: alg.L2, Momentum: alg.Momentum}), nil
	case KindAdaGrad:
		return NewAdaGrad(AdaGradConfig{LR: alg.LR, L2: alg.L2, Eps: alg.Eps}), nil
	case KindAdaDelta:
		return NewAdaDelta(AdaDeltaConfig{LR: alg.LR, L2: alg.L2, Rho: alg.Rho, Eps: alg.Eps}), nil
	case KindAdam:
		return NewAdam(AdamConfig{LR: alg.LR, L2: alg.L2, Betas: [2]float32{alg.Beta1, alg.Beta2}, Eps: alg.Eps}), nil
	case KindAdaMax:
		return NewAdaMax(AdamConfig{LR: alg.LR, L2: alg.L2, Betas: [2]float32{alg.Beta1, alg.Beta2}, Eps: alg.Eps}), nil
	case KindRMSProp:
		return NewRMSProp(RMSPropConfig{LR: alg.LR, L2: alg.L2, Rho: alg.Rho, Eps: alg.Eps}), nil
	default:
		return nil, fmt.Errorf("optim: unknown algorithm kind %d", alg.Kind)
	}
}

// regularised returns gradient + λ·weight for one element. Every variant
// folds the L2 term into the gradient before applying its rule.
func regularised(g, w, l2 float32) float32 {
	return g + l2*w
}

func checkShapes(w, grad *tensor.Matrix) error {
	if !w.SameShape(grad) {
		return fmt.Errorf("%w: weight %s, gradient %s", tensor.ErrDimensionMismatch, w, grad)
	}
	return nil
}
