package train

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/mendel-ml/mendel/internal/nn"
	"github.com/mendel-ml/mendel/internal/optim"
	"github.com/mendel-ml/mendel/internal/parallel"
	"github.com/mendel-ml/mendel/internal/tensor"
)

// Options configures a training run.
type Options struct {
	// Epochs is the epoch budget; required.
	Epochs int
	// ValidationFraction carves a held-out set from a Dataset source;
	// 0 evaluates against the training set instead.
	ValidationFraction float64
	// TestSet, when set, is evaluated alongside validation every epoch.
	TestSet *Dataset
	// Strategy is the weight-update rule; defaults to plain SGD.
	Strategy optim.Strategy
	// Parallel configures the worker pool for the per-sample phase.
	Parallel parallel.Config
	// Progress, when set, is called after every completed epoch.
	Progress func(epoch int, val EvalResult)
	// Rng drives the validation split; defaults to a fixed-seed generator
	// so runs are reproducible unless the caller opts out.
	Rng *rand.Rand
}

// Run trains net against the source until the epoch budget is exhausted or
// the context is cancelled, and returns the immutable session record.
//
// Each epoch has two phases. The parallel phase fans the samples out across
// the worker pool; network weights are read-only and every partition writes
// only its own gradient slot, so no locks are needed. The apply phase then
// runs single-threaded, strictly after the join, folding the accumulated
// gradient into the weights through the strategy. If any partition fails
// the epoch aborts before the apply phase: the aggregated error propagates
// to the caller and the network stays at its last fully committed weights.
//
// Cancellation is cooperative and observed only at epoch boundaries: the
// in-flight epoch finishes, then the loop stops with a user-requested stop
// reason.
func Run(ctx context.Context, net *nn.Graph, source Source, opts Options) (*SessionResult, error) {
	if net == nil || source == nil {
		return nil, fmt.Errorf("%w: network and source are required", ErrBadData)
	}
	if opts.Epochs <= 0 {
		return nil, fmt.Errorf("%w: epoch budget must be positive, got %d", ErrBadData, opts.Epochs)
	}
	if opts.Strategy == nil {
		opts.Strategy = optim.NewSGD(optim.SGDConfig{})
	}
	if opts.Parallel == (parallel.Config{}) {
		opts.Parallel = parallel.DefaultConfig()
	}
	if opts.Rng == nil {
		opts.Rng = rand.New(rand.NewSource(1))
	}

	var holdout *Dataset
	if ds, ok := source.(*Dataset); ok && opts.ValidationFraction > 0 {
		rest, held := ds.Split(opts.ValidationFraction, opts.Rng)
		if rest == nil {
			return nil, fmt.Errorf("%w: validation fraction %v leaves no training samples",
				ErrBadData, opts.ValidationFraction)
		}
		source = rest
		holdout = held
	}

	start := time.Now()
	result := &SessionResult{Reason: EpochBudget}

	for epoch := 0; epoch < opts.Epochs; epoch++ {
		inputs, targets, err := source.Samples(epoch, net)
		if err != nil {
			return nil, err
		}
		if len(inputs) == 0 || len(inputs) != len(targets) {
			return nil, fmt.Errorf("%w: source produced %d inputs and %d targets",
				ErrBadData, len(inputs), len(targets))
		}

		if err := runEpoch(net, inputs, targets, opts.Strategy, opts.Parallel); err != nil {
			return nil, err
		}
		result.Epochs = epoch + 1

		evalSet := holdout
		if evalSet == nil {
			evalSet = &Dataset{Inputs: inputs, Targets: targets}
		}
		val, err := Evaluate(net, evalSet, opts.Parallel)
		if err != nil {
			return nil, err
		}
		result.Validation = append(result.Validation, val)

		if opts.TestSet != nil {
			test, err := Evaluate(net, opts.TestSet, opts.Parallel)
			if err != nil {
				return nil, err
			}
			result.Test = append(result.Test, test)
		}

		if opts.Progress != nil {
			opts.Progress(epoch, val)
		}

		// Epoch boundary: the only cancellation point.
		if ctx.Err() != nil {
			result.Reason = UserRequested
			break
		}
	}

	result.Elapsed = time.Since(start)
	return result, nil
}

// runEpoch executes the parallel gradient phase and the single-threaded
// apply phase for one epoch.
func runEpoch(net *nn.Graph, inputs, targets []*tensor.Matrix, strategy optim.Strategy, cfg parallel.Config) error {
	n := len(inputs)
	grads := make([]*nn.Gradients, n)

	err := parallel.For(n, func(i int) error {
		g, _, err := net.Backward(inputs[i], targets[i])
		if err != nil {
			return err
		}
		grads[i] = g
		return nil
	}, cfg)
	if err != nil {
		// No partial result is committed: the apply phase never runs.
		return err
	}

	total := grads[0]
	for _, g := range grads[1:] {
		if err := total.Add(g); err != nil {
			return err
		}
	}
	total.Scale(1 / float32(n))

	params := net.Parameters()
	mats := total.Mats()
	for i, p := range params {
		if err := strategy.Update(p, mats[i]); err != nil {
			return err
		}
	}
	return nil
}

// Evaluate runs one dataset pass, returning average cost and accuracy.
// Accuracy is argmax agreement for multi-column targets and 0.5-threshold
// agreement for single-column targets.
func Evaluate(net *nn.Graph, ds *Dataset, cfg parallel.Config) (EvalResult, error) {
	n := ds.Len()
	costs := make([]float64, n)
	hits := make([]bool, n)

	err := parallel.For(n, func(i int) error {
		pred, err := net.Forward(ds.Inputs[i])
		if err != nil {
			return err
		}
		costs[i] = float64(net.CostKind().Value(pred, ds.Targets[i]))
		hits[i] = agrees(pred, ds.Targets[i])
		return nil
	}, cfg)
	if err != nil {
		return EvalResult{}, err
	}

	var costSum float64
	var hitCount int
	for i := range costs {
		costSum += costs[i]
		if hits[i] {
			hitCount++
		}
	}
	return EvalResult{
		Cost:     costSum / float64(n),
		Accuracy: float64(hitCount) / float64(n),
	}, nil
}

func agrees(pred, target *tensor.Matrix) bool {
	if pred.Cols() == 1 {
		return (pred.At(0, 0) >= 0.5) == (target.At(0, 0) >= 0.5)
	}
	return argmaxRow(pred) == argmaxRow(target)
}
