// Copyright 2026 Mendel Engine. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package train provides the training entry point: the epoch loop with a
// parallel gradient phase, dataset evaluation, and the immutable session
// result.
//
// # Basic Usage
//
//	import (
//	    "context"
//	    "github.com/mendel-ml/mendel/optim"
//	    "github.com/mendel-ml/mendel/train"
//	)
//
//	func fit(net *nn.Graph, ds *train.Dataset) error {
//	    result, err := train.Run(context.Background(), net, ds, train.Options{
//	        Epochs:             50,
//	        ValidationFraction: 0.2,
//	        Strategy:           optim.NewAdam(optim.AdamConfig{}),
//	    })
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Print(result)
//	    return nil
//	}
//
// Cancellation is cooperative: cancel the context and the in-flight epoch
// finishes before the loop stops with a user-requested stop reason. A
// failed epoch never commits partial weight updates.
package train

import (
	"context"

	"github.com/mendel-ml/mendel/internal/train"
	"github.com/mendel-ml/mendel/nn"
	"github.com/mendel-ml/mendel/parallel"
	"github.com/mendel-ml/mendel/tensor"
)

// Options configures a training run.
type Options = train.Options

// SessionResult is the immutable record of one training run.
type SessionResult = train.SessionResult

// EvalResult is the immutable outcome of one dataset pass.
type EvalResult = train.EvalResult

// StopReason names why a training run ended.
type StopReason = train.StopReason

// Stop reasons.
const (
	EpochBudget   = train.EpochBudget
	UserRequested = train.UserRequested
)

// Dataset is a fixed list of (input, target) pairs.
type Dataset = train.Dataset

// Source supplies the training pairs for each epoch.
type Source = train.Source

// Environment is an interactive sample driver.
type Environment = train.Environment

// EnvironmentSource adapts an Environment into a per-epoch sample stream.
type EnvironmentSource = train.EnvironmentSource

// ErrBadData is returned for malformed datasets or source output.
var ErrBadData = train.ErrBadData

// Run trains net against the source until the epoch budget is exhausted or
// the context is cancelled.
func Run(ctx context.Context, net *nn.Graph, source Source, opts Options) (*SessionResult, error) {
	return train.Run(ctx, net, source, opts)
}

// NewDataset pairs inputs with targets.
func NewDataset(inputs, targets []*tensor.Matrix) (*Dataset, error) {
	return train.NewDataset(inputs, targets)
}

// Evaluate runs one dataset pass, returning average cost and accuracy.
func Evaluate(net *nn.Graph, ds *Dataset, cfg parallel.Config) (EvalResult, error) {
	return train.Evaluate(net, ds, cfg)
}
