package train

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/mendel-ml/mendel/internal/nn"
	"github.com/mendel-ml/mendel/internal/optim"
	"github.com/mendel-ml/mendel/internal/tensor"
)

// ErrBadData is returned for malformed datasets or source output.
var ErrBadData = errors.New("train: invalid data")

// Dataset is a fixed list of (input, target) row-vector pairs.
type Dataset struct {
	Inputs  []*tensor.Matrix
	Targets []*tensor.Matrix
}

// NewDataset pairs inputs with targets.
func NewDataset(inputs, targets []*tensor.Matrix) (*Dataset, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: dataset is empty", ErrBadData)
	}
	if len(inputs) != len(targets) {
		return nil, fmt.Errorf("%w: %d inputs, %d targets", ErrBadData, len(inputs), len(targets))
	}
	return &Dataset{Inputs: inputs, Targets: targets}, nil
}

// Len returns the sample count.
func (d *Dataset) Len() int { return len(d.Inputs) }

// Samples implements Source; every epoch sees the full dataset.
func (d *Dataset) Samples(_ int, _ *nn.Graph) ([]*tensor.Matrix, []*tensor.Matrix, error) {
	return d.Inputs, d.Targets, nil
}

// Split shuffles the sample indices with rng and carves off the given
// fraction as a held-out set. The receiver is unchanged.
func (d *Dataset) Split(fraction float64, rng *rand.Rand) (rest, held *Dataset) {
	n := d.Len()
	k := int(float64(n) * fraction)
	if k <= 0 {
		return d, nil
	}
	if k >= n {
		return nil, d
	}

	perm := rng.Perm(n)
	held = &Dataset{}
	rest = &Dataset{}
	for i, idx := range perm {
		if i < k {
			held.Inputs = append(held.Inputs, d.Inputs[idx])
			held.Targets = append(held.Targets, d.Targets[idx])
		} else {
			rest.Inputs = append(rest.Inputs, d.Inputs[idx])
			rest.Targets = append(rest.Targets, d.Targets[idx])
		}
	}
	return rest, held
}

// Source supplies the training pairs for each epoch. A Dataset is a source;
// an interactive environment is adapted through EnvironmentSource.
type Source interface {
	Samples(epoch int, net *nn.Graph) (inputs, targets []*tensor.Matrix, err error)
}

// Environment is an interactive driver: the network picks actions from
// observations and learns from the rewards the environment returns.
type Environment interface {
	// Reset starts a fresh episode and returns the first observation.
	Reset() *tensor.Matrix
	// Step applies an action, returning the next observation, the reward
	// for the action, and whether the episode ended.
	Step(action int) (obs *tensor.Matrix, reward float32, done bool)
}

// EnvironmentSource adapts an Environment into a per-epoch sample stream.
// Each epoch plays up to StepsPerEpoch interactions: the network's output
// row is read as per-action value estimates, an action is chosen ε-greedily
// with ε drawn from the Explore sequence (one value per step), and the
// training target is the current estimate with the chosen action's entry
// replaced by the observed reward.
type EnvironmentSource struct {
	Env           Environment
	Explore       optim.DecayingRate // defaults to Exponential(100)
	StepsPerEpoch int                // defaults to 64
	Rng           *rand.Rand
}

// Samples implements Source.
func (s *EnvironmentSource) Samples(_ int, net *nn.Graph) ([]*tensor.Matrix, []*tensor.Matrix, error) {
	if s.Env == nil || s.Rng == nil {
		return nil, nil, fmt.Errorf("%w: environment source needs an environment and an rng", ErrBadData)
	}
	if s.Explore == nil {
		s.Explore = optim.NewExponential(100)
	}
	steps := s.StepsPerEpoch
	if steps <= 0 {
		steps = 64
	}

	var inputs, targets []*tensor.Matrix
	obs := s.Env.Reset()
	for i := 0; i < steps; i++ {
		estimate, err := net.Forward(obs)
		if err != nil {
			return nil, nil, err
		}

		action := argmaxRow(estimate)
		if s.Rng.Float64() < s.Explore.Next() {
			action = s.Rng.Intn(estimate.Cols())
		}

		next, reward, done := s.Env.Step(action)

		target := estimate.Clone()
		target.Set(0, action, reward)
		inputs = append(inputs, obs)
		targets = append(targets, target)

		if done {
			obs = s.Env.Reset()
		} else {
			obs = next
		}
	}
	return inputs, targets, nil
}

func argmaxRow(m *tensor.Matrix) int {
	best := 0
	data := m.Data()
	for i, v := range data {
		if v > data[best] {
			best = i
		}
	}
	return best
}
