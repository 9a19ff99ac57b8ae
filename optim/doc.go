// Copyright 2026 Mendel Engine. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides the weight-update strategy family and decaying
// rate producers.
//
// # Overview
//
// Seven interchangeable update rules share one contract: given a live
// weight matrix and its gradient, fold the update into the weights in
// place. Per-weight state (velocity, squared-gradient accumulators,
// moment estimates) lives inside the strategy, keyed by weight identity.
//
//   - SGD: plain gradient descent
//   - Momentum: SGD with velocity
//   - AdaGrad: per-element accumulated-squared-gradient scaling
//   - AdaDelta: unit-corrected adaptive steps, no global learning rate
//   - RMSProp: exponentially decayed squared-gradient scaling
//   - Adam: bias-corrected first and second moments
//   - AdaMax: Adam with an infinity-norm second moment
//
// Every rule folds L2 weight decay into the gradient before applying its
// update.
//
// # Basic Usage
//
//	import "github.com/mendel-ml/mendel/optim"
//
//	strategy := optim.NewAdam(optim.AdamConfig{LR: 0.001})
//	for _, w := range weights {
//	    if err := strategy.Update(w, grads[w]); err != nil {
//	        return err
//	    }
//	}
//
// A strategy can also be selected by name through the Algorithm
// descriptor:
//
//	strategy, err := optim.New(optim.Algorithm{Kind: optim.KindRMSProp})
//
// # Decaying Rates
//
// DecayingRate producers generate deterministic scalar sequences for
// exploration schedules and annealed hyper-parameters:
//
//	eps := optim.NewExponential(100) // 1, e^(-1/100), e^(-2/100), ...
//	lin := optim.NewLinear(0.9)      // 1, 0.9, 0.81, ...
package optim
