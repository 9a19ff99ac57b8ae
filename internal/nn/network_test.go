package nn

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/mendel-ml/mendel/internal/backend/cpu"
	"github.com/mendel-ml/mendel/internal/tensor"
)

func legacyNet(t *testing.T, cfg NetworkConfig, seed int64) *Network {
	t.Helper()
	n, err := NewNetwork(cfg, cpu.New(), rand.New(rand.NewSource(seed)))
	if err != nil {
		t.Fatalf("NewNetwork: %v", err)
	}
	return n
}

func TestLegacyForwardLinear(t *testing.T) {
	n := legacyNet(t, NetworkConfig{In: 2, Hidden: 2, Out: 1, Activation: Linear}, 1)

	// With linear activation and zero thresholds the network is the plain
	// product x·W1·W2.
	w1, w2 := n.Weights()
	copy(w1.Data(), []float32{1, 0, 0, 1}) // identity
	copy(w2.Data(), []float32{2, 3})

	x, _ := tensor.FromSlice(1, 2, []float32{5, 7})
	out, err := n.Forward(x)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if out.Rows() != 1 || out.Cols() != 1 {
		t.Fatalf("output shape %dx%d, want 1x1", out.Rows(), out.Cols())
	}
	if got := out.At(0, 0); got != 5*2+7*3 {
		t.Errorf("output = %v, want 31", got)
	}
}

func TestLegacyForwardThreshold(t *testing.T) {
	n := legacyNet(t, NetworkConfig{
		In: 1, Hidden: 1, Out: 1,
		Activation: ReLU,
		Theta1:     2,
		Theta2:     0,
	}, 1)

	w1, w2 := n.Weights()
	copy(w1.Data(), []float32{1})
	copy(w2.Data(), []float32{1})

	// relu(x - 2): 1.5 is cut off, 3 passes as 1.
	x, _ := tensor.FromSlice(1, 1, []float32{1.5})
	out, _ := n.Forward(x)
	if out.At(0, 0) != 0 {
		t.Errorf("below threshold: got %v, want 0", out.At(0, 0))
	}

	x, _ = tensor.FromSlice(1, 1, []float32{3})
	out, _ = n.Forward(x)
	if out.At(0, 0) != 1 {
		t.Errorf("above threshold: got %v, want 1", out.At(0, 0))
	}
}

func TestLegacyForwardDeterministic(t *testing.T) {
	n := legacyNet(t, NetworkConfig{In: 4, Hidden: 6, Out: 3}, 7)
	x := tensor.Rand(2, 4, rand.New(rand.NewSource(2)))

	a, err := n.Forward(x)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	b, err := n.Forward(x)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if !a.Equal(b) {
		t.Error("repeated forward with unchanged weights must be bit-identical")
	}
}

func TestLegacyForwardBadInput(t *testing.T) {
	n := legacyNet(t, NetworkConfig{In: 4, Hidden: 2, Out: 1}, 1)
	_, err := n.Forward(tensor.New(1, 3))
	if !errors.Is(err, tensor.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestLegacyCrossover(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	a := legacyNet(t, NetworkConfig{In: 3, Hidden: 4, Out: 2}, 1)
	b := legacyNet(t, NetworkConfig{In: 3, Hidden: 4, Out: 2}, 2)

	aW1, aW2 := a.Weights()
	beforeW1 := aW1.Clone()
	beforeW2 := aW2.Clone()

	child, err := a.Crossover(b, rng)
	if err != nil {
		t.Fatalf("Crossover: %v", err)
	}

	if child.Descriptor() != a.Descriptor() || child.Descriptor() != b.Descriptor() {
		t.Error("child shape must equal both parents' shape")
	}

	// Every child element comes from one of the parents at the same slot.
	cW1, cW2 := child.Weights()
	bW1, bW2 := b.Weights()
	for i, v := range cW1.Data() {
		if v != aW1.Data()[i] && v != bW1.Data()[i] {
			t.Fatalf("w1[%d] = %v is from neither parent", i, v)
		}
	}
	for i, v := range cW2.Data() {
		if v != aW2.Data()[i] && v != bW2.Data()[i] {
			t.Fatalf("w2[%d] = %v is from neither parent", i, v)
		}
	}

	// Crossover is pure: parents untouched.
	if !aW1.Equal(beforeW1) || !aW2.Equal(beforeW2) {
		t.Error("parent weights mutated by crossover")
	}
}

func TestLegacyCrossoverIncompatible(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	a := legacyNet(t, NetworkConfig{In: 3, Hidden: 4, Out: 2}, 1)
	b := legacyNet(t, NetworkConfig{In: 3, Hidden: 5, Out: 2}, 2)

	if _, err := a.Crossover(b, rng); !errors.Is(err, ErrIncompatible) {
		t.Fatalf("expected ErrIncompatible, got %v", err)
	}
	if _, err := a.Crossover(nil, rng); !errors.Is(err, ErrIncompatible) {
		t.Fatalf("expected ErrIncompatible for nil, got %v", err)
	}
}

func TestLegacyCloneAndEqual(t *testing.T) {
	a := legacyNet(t, NetworkConfig{In: 2, Hidden: 3, Out: 1}, 9)
	b := a.Clone()

	if !a.Equal(b) {
		t.Fatal("clone must equal its source")
	}
	w1, _ := b.Weights()
	w1.Set(0, 0, 42)
	if a.Equal(b) {
		t.Fatal("equality must be content-based")
	}
}

func TestNewNetworkRejectsBadConfig(t *testing.T) {
	_, err := NewNetwork(NetworkConfig{In: 0, Hidden: 2, Out: 1}, cpu.New(), rand.New(rand.NewSource(1)))
	var buildErr *BuildError
	if !errors.As(err, &buildErr) {
		t.Fatalf("expected BuildError, got %v", err)
	}
	if buildErr.Kind != InvalidLayer {
		t.Errorf("kind = %v, want invalid layer", buildErr.Kind)
	}
}
