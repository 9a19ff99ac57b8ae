package conv

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mendel-ml/mendel/internal/backend/cpu"
	"github.com/mendel-ml/mendel/internal/tensor"
)

func TestExpandShape(t *testing.T) {
	b := cpu.New()

	expand, err := NewExpand(Sharpen, Outline)
	require.NoError(t, err)

	in, err := NewVolume(tensor.Rand(4, 4, rand.New(rand.NewSource(1))))
	require.NoError(t, err)

	out, err := expand.Apply(b, in)
	require.NoError(t, err)

	// 1 slice x 2 kernels, 4-3+1 = 2 per axis.
	assert.Equal(t, 2, out.Depth())
	assert.Equal(t, 2, out.Rows())
	assert.Equal(t, 2, out.Cols())
}

func TestExpandKernelTooLarge(t *testing.T) {
	b := cpu.New()

	expand, err := NewExpand(Sharpen)
	require.NoError(t, err)

	in, err := NewVolume(tensor.New(3, 3))
	require.NoError(t, err)

	_, err = expand.Apply(b, in)
	assert.ErrorIs(t, err, tensor.ErrDimensionMismatch)
}

func TestKernelCatalog(t *testing.T) {
	names := KernelNames()
	assert.Len(t, names, 10)

	for _, name := range names {
		k, err := KernelByName(name)
		require.NoError(t, err)
		assert.Equal(t, 3, k.Rows())
		assert.Equal(t, 3, k.Cols())
	}

	// Catalog kernels are copies: mutate one, fetch again.
	k1, _ := KernelByName(Sharpen)
	k1.Set(1, 1, 99)
	k2, _ := KernelByName(Sharpen)
	assert.Equal(t, float32(5), k2.At(1, 1))

	_, err := KernelByName("no-such-kernel")
	assert.ErrorIs(t, err, ErrBadStage)
}

func TestPoolOddInputRejected(t *testing.T) {
	b := cpu.New()

	pool := NewPool()
	in, err := NewVolume(tensor.New(5, 4))
	require.NoError(t, err)

	_, err = pool.Apply(b, in)
	assert.ErrorIs(t, err, tensor.ErrDimensionMismatch)
}

func TestVolumeMixedShapesRejected(t *testing.T) {
	_, err := NewVolume(tensor.New(4, 4), tensor.New(4, 5))
	assert.ErrorIs(t, err, ErrBadStage)
}

func TestPipelineStageOrder(t *testing.T) {
	b := cpu.New()

	expand, err := NewExpand(EdgeTop, EdgeLeft)
	require.NoError(t, err)
	p, err := New(b, expand, NewReLU(), NewPool(), NewNormalize())
	require.NoError(t, err)

	in, err := NewVolume(tensor.Rand(6, 6, rand.New(rand.NewSource(2))))
	require.NoError(t, err)

	out, err := p.Apply(in)
	require.NoError(t, err)

	// expand: 6-3+1 = 4 spatial, depth 2; pool halves to 2.
	assert.Equal(t, 2, out.Depth())
	assert.Equal(t, 2, out.Rows())
	assert.Equal(t, 2, out.Cols())

	// relu then normalize keeps everything in [0, 1].
	for _, slice := range out {
		for _, v := range slice.Data() {
			assert.GreaterOrEqual(t, v, float32(0))
			assert.LessOrEqual(t, v, float32(1))
		}
	}
}

func TestPipelineDeterministic(t *testing.T) {
	b := cpu.New()

	expand, err := NewExpand(Outline)
	require.NoError(t, err)
	p, err := New(b, expand, NewReLU(), NewNormalize())
	require.NoError(t, err)

	in, err := NewVolume(tensor.Rand(5, 5, rand.New(rand.NewSource(3))))
	require.NoError(t, err)

	out1, err := p.Apply(in)
	require.NoError(t, err)
	out2, err := p.Apply(in)
	require.NoError(t, err)

	for i := range out1 {
		assert.True(t, out1[i].Equal(out2[i]), "repeated forward must be bit-identical")
	}
}

func TestPipelineEmptyRejected(t *testing.T) {
	_, err := New(cpu.New())
	assert.ErrorIs(t, err, ErrBadStage)
}

// pipelineCost is a deterministic scalar over the pipeline output used for
// the numeric adjoint checks: sum of all output elements.
func pipelineCost(t *testing.T, p *Pipeline, in Volume) float32 {
	t.Helper()
	out, err := p.Apply(in)
	require.NoError(t, err)
	total := float32(0)
	for _, slice := range out {
		for _, v := range slice.Data() {
			total += v
		}
	}
	return total
}

// TestPipelineBackwardMatchesFiniteDifferences verifies that the chained
// expand and relu adjoints agree with a central-difference gradient of the
// forward pass. The input is crafted so every convolution output sits well
// away from the relu kink, keeping the numeric gradient well defined; the
// piecewise stages are additionally checked exactly in their own tests.
func TestPipelineBackwardMatchesFiniteDifferences(t *testing.T) {
	b := cpu.New()

	expand, err := NewExpand(Sharpen)
	require.NoError(t, err)
	p, err := New(b, expand, NewReLU())
	require.NoError(t, err)

	// Sharpen has weight sum 1, so this near-constant positive ramp keeps
	// all conv outputs near 1.
	slice := tensor.New(6, 6)
	for r := 0; r < 6; r++ {
		for c := 0; c < 6; c++ {
			slice.Set(r, c, 1+0.1*float32(r)+0.01*float32(c))
		}
	}
	in := Volume{slice}

	acts, err := p.Forward(in)
	require.NoError(t, err)
	out := acts[len(acts)-1]

	// d(sum)/d(out) is all ones.
	ones := make(Volume, out.Depth())
	for i := range ones {
		ones[i] = tensor.New(out.Rows(), out.Cols())
		ones[i].Fill(1)
	}

	grad, err := p.Backward(acts, ones)
	require.NoError(t, err)
	require.Equal(t, in.Depth(), grad.Depth())

	const h = 1e-2
	data := in[0].Data()
	for i := range data {
		orig := data[i]
		data[i] = orig + h
		plus := pipelineCost(t, p, in)
		data[i] = orig - h
		minus := pipelineCost(t, p, in)
		data[i] = orig

		numeric := (plus - minus) / (2 * h)
		assert.InDeltaf(t, float64(numeric), float64(grad[0].Data()[i]), 5e-2,
			"element %d: adjoint %v vs numeric %v", i, grad[0].Data()[i], numeric)
	}
}

func TestPoolBackwardRoutesToArgmax(t *testing.T) {
	b := cpu.New()

	slice, err := tensor.FromSlice(4, 4, []float32{
		1, 3, 2, 1,
		0, 2, 4, 1,
		5, 0, 0, 0,
		1, 2, 0, 7,
	})
	require.NoError(t, err)
	in := Volume{slice}

	g := tensor.New(2, 2)
	g.Data()[0], g.Data()[1], g.Data()[2], g.Data()[3] = 10, 20, 30, 40

	grad, err := NewPool().Backward(b, in, Volume{g})
	require.NoError(t, err)

	want := []float32{
		0, 10, 0, 0,
		0, 0, 20, 0,
		30, 0, 0, 0,
		0, 0, 0, 40,
	}
	assert.Equal(t, want, grad[0].Data())
}

func TestActivationBackward(t *testing.T) {
	b := cpu.New()

	slice, err := tensor.FromSlice(2, 2, []float32{-1, 2, 0.5, -3})
	require.NoError(t, err)
	in := Volume{slice}

	g := tensor.New(2, 2)
	g.Fill(1)

	grad, err := NewReLU().Backward(b, in, Volume{g})
	require.NoError(t, err)

	assert.Equal(t, []float32{0, 1, 1, 0}, grad[0].Data())
}

// TestNormalizeBackwardMatchesFiniteDifferences checks the exact max-abs
// rescale adjoint, including the correction term at the (negative) extreme
// element, against a numeric gradient.
func TestNormalizeBackwardMatchesFiniteDifferences(t *testing.T) {
	b := cpu.New()
	stage := NewNormalize()

	slice, err := tensor.FromSlice(2, 2, []float32{0.5, -0.3, 0.2, -2.0})
	require.NoError(t, err)
	in := Volume{slice}

	cost := func() float32 {
		out, err := stage.Apply(b, in)
		require.NoError(t, err)
		total := float32(0)
		for _, v := range out[0].Data() {
			total += v
		}
		return total
	}

	g := tensor.New(2, 2)
	g.Fill(1)
	grad, err := stage.Backward(b, in, Volume{g})
	require.NoError(t, err)

	const h = 1e-3
	data := slice.Data()
	for i := range data {
		orig := data[i]
		data[i] = orig + h
		plus := cost()
		data[i] = orig - h
		minus := cost()
		data[i] = orig

		numeric := (plus - minus) / (2 * h)
		assert.InDeltaf(t, float64(numeric), float64(grad[0].Data()[i]), 1e-2,
			"element %d: adjoint %v vs numeric %v", i, grad[0].Data()[i], numeric)
	}
}
