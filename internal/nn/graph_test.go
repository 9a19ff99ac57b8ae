package nn

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mendel-ml/mendel/internal/backend/cpu"
	"github.com/mendel-ml/mendel/internal/tensor"
)

func denseSpecs() []LayerSpec {
	return []LayerSpec{
		{Kind: Input, Shape: Shape{Depth: 1, Rows: 1, Cols: 3}},
		{Kind: DenseLayer, Size: 4, Activation: Sigmoid},
		{Kind: Output, Size: 2, Activation: Sigmoid, Cost: MeanSquaredError},
	}
}

func cnnSpecs() []LayerSpec {
	return []LayerSpec{
		{Kind: Input, Shape: Shape{Depth: 1, Rows: 6, Cols: 6}},
		{Kind: Conv, Kernels: []string{"edge-top", "sharpen"}, Activation: ReLU},
		{Kind: Pool},
		{Kind: Normalize},
		{Kind: DenseLayer, Size: 5, Activation: Tanh},
		{Kind: Output, Size: 3, Activation: Sigmoid, Cost: MeanSquaredError},
	}
}

func TestBuildDenseGraph(t *testing.T) {
	g, err := Build(denseSpecs(), cpu.New(), rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	assert.Equal(t, Shape{Depth: 1, Rows: 1, Cols: 3}, g.InputShape())
	assert.Equal(t, 2, g.OutputSize())
	assert.Equal(t, MeanSquaredError, g.CostKind())
	assert.Equal(t,
		"input(1x1x3)->dense(4,sigmoid)->output(2,sigmoid,mean-squared-error)",
		g.Descriptor())

	x, _ := tensor.FromSlice(1, 3, []float32{0.1, 0.5, -0.2})
	out, err := g.Forward(x)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Rows())
	assert.Equal(t, 2, out.Cols())
	assert.True(t, out.IsFinite())
}

func TestBuildCNNGraphShapes(t *testing.T) {
	g, err := Build(cnnSpecs(), cpu.New(), rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	// 6x6 conv 3x3 -> 2 slices of 4x4, pool -> 2x2, normalize keeps shape,
	// so the dense head sees 2*2*2 = 8 features.
	x := tensor.Rand(1, 36, rand.New(rand.NewSource(2)))
	out, err := g.Forward(x)
	require.NoError(t, err)
	assert.Equal(t, 3, out.Cols())

	again, err := g.Forward(x)
	require.NoError(t, err)
	assert.True(t, out.Equal(again), "forward must be deterministic")
}

func TestBuildRejectsBadTopologies(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	backend := cpu.New()

	cases := []struct {
		name  string
		specs []LayerSpec
		kind  ErrorKind
	}{
		{
			name: "first layer not input",
			specs: []LayerSpec{
				{Kind: DenseLayer, Size: 2, Activation: Sigmoid},
				{Kind: Output, Size: 1, Activation: Sigmoid},
			},
			kind: BadTopology,
		},
		{
			name: "last layer not output",
			specs: []LayerSpec{
				{Kind: Input, Shape: Shape{Depth: 1, Rows: 1, Cols: 2}},
				{Kind: DenseLayer, Size: 2, Activation: Sigmoid},
			},
			kind: BadTopology,
		},
		{
			name: "conv after dense",
			specs: []LayerSpec{
				{Kind: Input, Shape: Shape{Depth: 1, Rows: 6, Cols: 6}},
				{Kind: DenseLayer, Size: 4, Activation: Sigmoid},
				{Kind: Conv, Kernels: []string{"outline"}},
				{Kind: Output, Size: 1, Activation: Sigmoid},
			},
			kind: BadTopology,
		},
		{
			name: "pool on odd extent",
			specs: []LayerSpec{
				{Kind: Input, Shape: Shape{Depth: 1, Rows: 5, Cols: 5}},
				{Kind: Pool},
				{Kind: Output, Size: 1, Activation: Sigmoid},
			},
			kind: BadTopology,
		},
		{
			name: "kernel as large as slice",
			specs: []LayerSpec{
				{Kind: Input, Shape: Shape{Depth: 1, Rows: 3, Cols: 3}},
				{Kind: Conv, Kernels: []string{"outline"}},
				{Kind: Output, Size: 1, Activation: Sigmoid},
			},
			kind: BadTopology,
		},
		{
			name: "unknown kernel name",
			specs: []LayerSpec{
				{Kind: Input, Shape: Shape{Depth: 1, Rows: 6, Cols: 6}},
				{Kind: Conv, Kernels: []string{"no-such-kernel"}},
				{Kind: Output, Size: 1, Activation: Sigmoid},
			},
			kind: InvalidLayer,
		},
		{
			name: "non-positive dense size",
			specs: []LayerSpec{
				{Kind: Input, Shape: Shape{Depth: 1, Rows: 1, Cols: 2}},
				{Kind: DenseLayer, Size: 0, Activation: Sigmoid},
				{Kind: Output, Size: 1, Activation: Sigmoid},
			},
			kind: InvalidLayer,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Build(tc.specs, backend, rng)
			require.Error(t, err)
			var buildErr *BuildError
			require.ErrorAs(t, err, &buildErr)
			assert.Equal(t, tc.kind, buildErr.Kind)
		})
	}
}

func TestGraphBackwardMatchesFiniteDifferences(t *testing.T) {
	g, err := Build(denseSpecs(), cpu.New(), rand.New(rand.NewSource(3)))
	require.NoError(t, err)

	x, _ := tensor.FromSlice(1, 3, []float32{0.4, -0.2, 0.7})
	target, _ := tensor.FromSlice(1, 2, []float32{1, 0})

	grads, _, err := g.Backward(x, target)
	require.NoError(t, err)

	costAt := func() float32 {
		out, err := g.Forward(x)
		require.NoError(t, err)
		return g.CostKind().Value(out, target)
	}

	const h = 1e-2
	params := g.Parameters()
	require.Len(t, grads.Mats(), len(params))
	for pi, p := range params {
		data := p.Data()
		for i := range data {
			orig := data[i]
			data[i] = orig + h
			up := costAt()
			data[i] = orig - h
			down := costAt()
			data[i] = orig

			want := (up - down) / (2 * h)
			assert.InDelta(t, want, grads.Mats()[pi].Data()[i], 2e-2,
				"param %d element %d", pi, i)
		}
	}
}

func TestGraphBackwardRejectsBadTarget(t *testing.T) {
	g, err := Build(denseSpecs(), cpu.New(), rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	x, _ := tensor.FromSlice(1, 3, []float32{0.1, 0.2, 0.3})
	badTarget := tensor.New(1, 5)
	_, _, err = g.Backward(x, badTarget)
	assert.ErrorIs(t, err, tensor.ErrDimensionMismatch)
}

func snapshot(g *Graph) []*tensor.Matrix {
	params := g.Parameters()
	out := make([]*tensor.Matrix, len(params))
	for i, p := range params {
		out[i] = p.Clone()
	}
	return out
}

func TestGraphCrossover(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	a, err := Build(cnnSpecs(), cpu.New(), rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	b, err := Build(cnnSpecs(), cpu.New(), rand.New(rand.NewSource(2)))
	require.NoError(t, err)

	// Catalog kernels start identical, so diverge them before crossing.
	for _, p := range b.Parameters() {
		d := p.Data()
		for i := range d {
			d[i] += 10
		}
	}

	aBefore := snapshot(a)
	child, err := a.Crossover(b, rng)
	require.NoError(t, err)

	assert.Equal(t, a.Descriptor(), child.Descriptor())

	ap, bp, cp := a.Parameters(), b.Parameters(), child.Parameters()
	for i := range cp {
		for j, v := range cp[i].Data() {
			if v != ap[i].Data()[j] && v != bp[i].Data()[j] {
				t.Fatalf("param %d element %d from neither parent", i, j)
			}
		}
	}

	for i, m := range a.Parameters() {
		assert.True(t, m.Equal(aBefore[i]), "crossover mutated a parent")
	}
}

func TestGraphCrossoverIncompatible(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	a, err := Build(denseSpecs(), cpu.New(), rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	b, err := Build(cnnSpecs(), cpu.New(), rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	_, err = a.Crossover(b, rng)
	assert.ErrorIs(t, err, ErrIncompatible)
	_, err = a.Crossover(nil, rng)
	assert.ErrorIs(t, err, ErrIncompatible)
}

func TestGraphCloneIsDeep(t *testing.T) {
	g, err := Build(cnnSpecs(), cpu.New(), rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	c := g.Clone()

	x := tensor.Rand(1, 36, rand.New(rand.NewSource(4)))
	before, err := g.Forward(x)
	require.NoError(t, err)

	for _, p := range c.Parameters() {
		p.Fill(0.123)
	}
	after, err := g.Forward(x)
	require.NoError(t, err)
	assert.True(t, before.Equal(after), "mutating a clone must not affect the original")
}

func TestGradientsAddScale(t *testing.T) {
	g, err := Build(denseSpecs(), cpu.New(), rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	x, _ := tensor.FromSlice(1, 3, []float32{0.1, 0.2, 0.3})
	target, _ := tensor.FromSlice(1, 2, []float32{1, 0})

	ga, _, err := g.Backward(x, target)
	require.NoError(t, err)
	gb, _, err := g.Backward(x, target)
	require.NoError(t, err)

	single := gb.Mats()[0].Clone()
	require.NoError(t, ga.Add(gb))
	ga.Scale(0.5)

	// (g + g) / 2 == g
	for i, v := range ga.Mats()[0].Data() {
		assert.InDelta(t, single.Data()[i], v, 1e-6)
	}
}
