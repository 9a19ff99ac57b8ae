package nn

import (
	"fmt"
	"math/rand"

	"github.com/mendel-ml/mendel/internal/tensor"
)

// NetworkConfig describes a legacy two-matrix network. Thresholds offset
// the activation per layer: out = act(act(in·W1 - Theta1)·W2 - Theta2).
type NetworkConfig struct {
	In     int
	Hidden int
	Out    int

	Activation Activation // defaults to Sigmoid
	Theta1     float32
	Theta2     float32
}

// Network is the legacy two-matrix feed-forward network. Its shape triple
// never changes after construction; structural change (crossover) always
// produces a new instance.
type Network struct {
	backend tensor.Backend

	in     int
	hidden int
	out    int
	act    Activation
	theta1 float32
	theta2 float32

	w1 *tensor.Matrix // in × hidden
	w2 *tensor.Matrix // hidden × out
}

// NewNetwork creates a legacy network with randomly initialised weights.
func NewNetwork(cfg NetworkConfig, backend tensor.Backend, rng *rand.Rand) (*Network, error) {
	if cfg.In <= 0 || cfg.Hidden <= 0 || cfg.Out <= 0 {
		return nil, invalidLayer("network", "sizes must be positive, got %d/%d/%d",
			cfg.In, cfg.Hidden, cfg.Out)
	}
	if !cfg.Activation.valid() {
		return nil, invalidLayer("network", "unknown activation %d", cfg.Activation)
	}
	if backend == nil {
		return nil, invalidLayer("network", "backend is required")
	}

	return &Network{
		backend: backend,
		in:      cfg.In,
		hidden:  cfg.Hidden,
		out:     cfg.Out,
		act:     cfg.Activation,
		theta1:  cfg.Theta1,
		theta2:  cfg.Theta2,
		w1:      tensor.Rand(cfg.In, cfg.Hidden, rng),
		w2:      tensor.Rand(cfg.Hidden, cfg.Out, rng),
	}, nil
}

// Forward evaluates the network on a batch of row vectors (rows × in).
// Deterministic: repeated calls with unchanged weights and thresholds
// return bit-identical output.
func (n *Network) Forward(input *tensor.Matrix) (*tensor.Matrix, error) {
	if input.Cols() != n.in {
		return nil, fmt.Errorf("%w: input has %d columns, network expects %d",
			tensor.ErrDimensionMismatch, input.Cols(), n.in)
	}

	hidden, err := n.backend.MatMul(input, n.w1)
	if err != nil {
		return nil, err
	}
	hidden.Apply(n.act.Func, n.theta1)

	out, err := n.backend.MatMul(hidden, n.w2)
	if err != nil {
		return nil, err
	}
	out.Apply(n.act.Func, n.theta2)

	return out, nil
}

// Descriptor returns the structural shape descriptor used by the crossover
// compatibility predicate.
func (n *Network) Descriptor() string {
	return fmt.Sprintf("ff(%d,%d,%d,%s)", n.in, n.hidden, n.out, n.act)
}

// Compatible reports whether two networks share the same concrete structure
// and may therefore be crossed over.
func (n *Network) Compatible(other *Network) bool {
	return other != nil && n.Descriptor() == other.Descriptor()
}

// Crossover produces a child network with the same shape parameters whose
// weight matrices are each a two-point crossover of the parents'. Both
// parents are untouched; incompatible parents fail with ErrIncompatible.
func (n *Network) Crossover(other *Network, rng *rand.Rand) (*Network, error) {
	if !n.Compatible(other) {
		got := "<nil>"
		if other != nil {
			got = other.Descriptor()
		}
		return nil, fmt.Errorf("%w: %s vs %s", ErrIncompatible, n.Descriptor(), got)
	}

	w1, err := tensor.TwoPointCrossover(n.w1, other.w1, rng)
	if err != nil {
		return nil, err
	}
	w2, err := tensor.TwoPointCrossover(n.w2, other.w2, rng)
	if err != nil {
		return nil, err
	}

	child := n.Clone()
	child.w1 = w1
	child.w2 = w2
	return child, nil
}

// Clone returns a deep copy.
func (n *Network) Clone() *Network {
	c := *n
	c.w1 = n.w1.Clone()
	c.w2 = n.w2.Clone()
	return &c
}

// Equal reports whether two networks have identical structure, thresholds
// and weight contents.
func (n *Network) Equal(other *Network) bool {
	return n.Compatible(other) &&
		n.theta1 == other.theta1 && n.theta2 == other.theta2 &&
		n.w1.Equal(other.w1) && n.w2.Equal(other.w2)
}

// Weights exposes the two weight matrices. Mutating them between forward
// passes is the caller's responsibility; never mutate concurrently with
// evaluation.
func (n *Network) Weights() (w1, w2 *tensor.Matrix) {
	return n.w1, n.w2
}
