// Copyright 2026 Mendel Engine. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim

import "github.com/mendel-ml/mendel/internal/optim"

// Strategy is a stateful weight-update rule.
type Strategy = optim.Strategy

// Kind tags an optimizer variant.
type Kind = optim.Kind

// Optimizer variants.
const (
	KindSGD      = optim.KindSGD
	KindMomentum = optim.KindMomentum
	KindAdaGrad  = optim.KindAdaGrad
	KindAdaDelta = optim.KindAdaDelta
	KindAdam     = optim.KindAdam
	KindAdaMax   = optim.KindAdaMax
	KindRMSProp  = optim.KindRMSProp
)

// Algorithm is the tagged training-algorithm descriptor: one variant kind
// plus its hyperparameters. Zero-valued hyperparameters get the variant's
// published defaults.
type Algorithm = optim.Algorithm

// New constructs the strategy for the tagged algorithm.
func New(alg Algorithm) (Strategy, error) {
	return optim.New(alg)
}

// SGD

// SGD is plain stochastic gradient descent.
type SGD = optim.SGD

// SGDConfig configures SGD.
type SGDConfig = optim.SGDConfig

// NewSGD creates an SGD strategy.
func NewSGD(cfg SGDConfig) *SGD {
	return optim.NewSGD(cfg)
}

// Momentum

// Momentum is SGD with a velocity accumulator per weight.
type Momentum = optim.Momentum

// MomentumConfig configures Momentum.
type MomentumConfig = optim.MomentumConfig

// NewMomentum creates a Momentum strategy.
func NewMomentum(cfg MomentumConfig) *Momentum {
	return optim.NewMomentum(cfg)
}

// AdaGrad

// AdaGrad scales steps by accumulated squared gradients.
type AdaGrad = optim.AdaGrad

// AdaGradConfig configures AdaGrad.
type AdaGradConfig = optim.AdaGradConfig

// NewAdaGrad creates an AdaGrad strategy.
func NewAdaGrad(cfg AdaGradConfig) *AdaGrad {
	return optim.NewAdaGrad(cfg)
}

// AdaDelta

// AdaDelta adapts steps from decayed gradient and update accumulators; the
// published rule needs no global learning rate.
type AdaDelta = optim.AdaDelta

// AdaDeltaConfig configures AdaDelta.
type AdaDeltaConfig = optim.AdaDeltaConfig

// NewAdaDelta creates an AdaDelta strategy.
func NewAdaDelta(cfg AdaDeltaConfig) *AdaDelta {
	return optim.NewAdaDelta(cfg)
}

// RMSProp

// RMSProp scales steps by an exponentially decayed squared-gradient mean.
type RMSProp = optim.RMSProp

// RMSPropConfig configures RMSProp.
type RMSPropConfig = optim.RMSPropConfig

// NewRMSProp creates an RMSProp strategy.
func NewRMSProp(cfg RMSPropConfig) *RMSProp {
	return optim.NewRMSProp(cfg)
}

// Adam and AdaMax

// Adam keeps bias-corrected first and second moment estimates per weight.
type Adam = optim.Adam

// AdamConfig configures Adam and AdaMax.
type AdamConfig = optim.AdamConfig

// NewAdam creates an Adam strategy.
//
// Example:
//
//	strategy := optim.NewAdam(optim.AdamConfig{
//	    LR:    0.001,
//	    Betas: [2]float32{0.9, 0.999},
//	})
func NewAdam(cfg AdamConfig) *Adam {
	return optim.NewAdam(cfg)
}

// AdaMax is Adam with an infinity-norm second moment.
type AdaMax = optim.AdaMax

// NewAdaMax creates an AdaMax strategy.
func NewAdaMax(cfg AdamConfig) *AdaMax {
	return optim.NewAdaMax(cfg)
}

// Decaying rates

// DecayingRate produces a deterministic decreasing scalar sequence.
type DecayingRate = optim.DecayingRate

// Exponential produces exp(-i/decay) for i = 0, 1, 2, ...
type Exponential = optim.Exponential

// NewExponential creates an exponential decay sequence.
func NewExponential(decay float64) *Exponential {
	return optim.NewExponential(decay)
}

// Linear produces 1, factor, factor², ...
type Linear = optim.Linear

// NewLinear creates a geometric decay sequence.
func NewLinear(factor float64) *Linear {
	return optim.NewLinear(factor)
}
