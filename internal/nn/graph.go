package nn

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/mendel-ml/mendel/internal/conv"
	"github.com/mendel-ml/mendel/internal/tensor"
)

// Shape is a volume extent: depth × rows × cols. Dense layers produce flat
// shapes of the form 1×1×n.
type Shape struct {
	Depth int
	Rows  int
	Cols  int
}

// Flat returns the flattened element count.
func (s Shape) Flat() int { return s.Depth * s.Rows * s.Cols }

func (s Shape) String() string {
	return fmt.Sprintf("%dx%dx%d", s.Depth, s.Rows, s.Cols)
}

// LayerKind identifies a layer-spec kind.
type LayerKind int

// Layer kinds accepted by Build. The feature-extraction kinds (Conv, Pool,
// Normalize) must precede the dense head; Output terminates the graph.
const (
	Input LayerKind = iota
	Conv
	Pool
	Normalize
	DenseLayer
	Output
)

func (k LayerKind) String() string {
	switch k {
	case Input:
		return "input"
	case Conv:
		return "conv"
	case Pool:
		return "pool"
	case Normalize:
		return "normalize"
	case DenseLayer:
		return "dense"
	case Output:
		return "output"
	default:
		return "unknown"
	}
}

// LayerSpec describes one layer of a graph network.
type LayerSpec struct {
	Name       string
	Kind       LayerKind
	Shape      Shape      // Input only
	Kernels    []string   // Conv only: catalog kernel names
	Size       int        // DenseLayer and Output
	Activation Activation // Conv, DenseLayer and Output
	Cost       Cost       // Output only
}

// Graph is a validated single-input single-output computation graph: an
// optional convolution front end followed by a dense head. Construction
// validates every declared shape against the shape produced upstream;
// structural errors never occur mid-training.
type Graph struct {
	backend tensor.Backend
	specs   []LayerSpec
	inShape Shape

	stages []conv.Stage // feature extractor, may be empty
	denses []*Dense
	cost   Cost
}

// Build constructs a Graph from an ordered layer-spec list, or fails with a
// BuildError identifying the offending layer. The rng initialises dense
// weights; conv kernels start from their catalog values and are trainable
// thereafter.
func Build(specs []LayerSpec, backend tensor.Backend, rng *rand.Rand) (*Graph, error) {
	if backend == nil {
		return nil, badTopology("graph", "backend is required")
	}
	if len(specs) < 2 {
		return nil, badTopology("graph", "need at least an input and an output layer")
	}
	if specs[0].Kind != Input {
		return nil, badTopology(specName(specs[0], 0), "first layer must be input, got %s", specs[0].Kind)
	}
	if specs[len(specs)-1].Kind != Output {
		return nil, badTopology(specName(specs[len(specs)-1], len(specs)-1),
			"last layer must be output, got %s", specs[len(specs)-1].Kind)
	}

	in := specs[0]
	if in.Shape.Depth <= 0 || in.Shape.Rows <= 0 || in.Shape.Cols <= 0 {
		return nil, invalidLayer(specName(in, 0), "input shape %s must be positive", in.Shape)
	}

	g := &Graph{
		backend: backend,
		specs:   append([]LayerSpec(nil), specs...),
		inShape: in.Shape,
	}

	shape := in.Shape
	denseStarted := false
	for i, spec := range specs[1:] {
		idx := i + 1
		name := specName(spec, idx)
		terminal := idx == len(specs)-1

		switch spec.Kind {
		case Input:
			return nil, badTopology(name, "input layer must be first")

		case Conv, Pool, Normalize:
			if denseStarted {
				return nil, badTopology(name, "%s layer cannot follow a dense layer", spec.Kind)
			}
			next, stage, err := buildStage(spec, name, shape)
			if err != nil {
				return nil, err
			}
			g.stages = append(g.stages, stage...)
			shape = next

		case DenseLayer, Output:
			if spec.Size <= 0 {
				return nil, invalidLayer(name, "size must be positive, got %d", spec.Size)
			}
			if !spec.Activation.valid() {
				return nil, invalidLayer(name, "unknown activation %d", spec.Activation)
			}
			if spec.Kind == DenseLayer && terminal {
				return nil, badTopology(name, "terminal layer must be output")
			}
			if spec.Kind == Output && !terminal {
				return nil, badTopology(name, "output layer must be last")
			}
			if spec.Kind == Output {
				if !spec.Cost.valid() {
					return nil, invalidLayer(name, "unknown cost %d", spec.Cost)
				}
				g.cost = spec.Cost
			}
			g.denses = append(g.denses, newDense(name, shape.Flat(), spec.Size, spec.Activation, rng))
			shape = Shape{Depth: 1, Rows: 1, Cols: spec.Size}
			denseStarted = true

		default:
			return nil, invalidLayer(name, "unknown layer kind %d", spec.Kind)
		}
	}

	if len(g.denses) == 0 {
		return nil, badTopology("graph", "graph has no output layer")
	}
	return g, nil
}

// buildStage translates one feature-extraction spec into conv stages and
// the resulting shape.
func buildStage(spec LayerSpec, name string, shape Shape) (Shape, []conv.Stage, error) {
	switch spec.Kind {
	case Conv:
		if len(spec.Kernels) == 0 {
			return Shape{}, nil, invalidLayer(name, "conv layer needs at least one kernel")
		}
		expand, err := conv.NewExpand(spec.Kernels...)
		if err != nil {
			return Shape{}, nil, invalidLayer(name, "%v", err)
		}
		kr := expand.Kernels[0].Rows()
		kc := expand.Kernels[0].Cols()
		if kr >= shape.Rows || kc >= shape.Cols {
			return Shape{}, nil, badTopology(name,
				"kernel %dx%d must be strictly smaller than slice %dx%d", kr, kc, shape.Rows, shape.Cols)
		}
		if !spec.Activation.valid() {
			return Shape{}, nil, invalidLayer(name, "unknown activation %d", spec.Activation)
		}
		out := Shape{
			Depth: shape.Depth * len(spec.Kernels),
			Rows:  shape.Rows - kr + 1,
			Cols:  shape.Cols - kc + 1,
		}
		stages := []conv.Stage{expand}
		if spec.Activation != Linear {
			stages = append(stages, &conv.Activation{
				Fn:    spec.Activation.Func,
				Deriv: spec.Activation.Deriv,
				Label: spec.Activation.String(),
			})
		}
		return out, stages, nil

	case Pool:
		if shape.Rows%2 != 0 || shape.Cols%2 != 0 {
			return Shape{}, nil, badTopology(name,
				"pool requires even spatial extents, got %dx%d", shape.Rows, shape.Cols)
		}
		return Shape{Depth: shape.Depth, Rows: shape.Rows / 2, Cols: shape.Cols / 2},
			[]conv.Stage{conv.NewPool()}, nil

	default: // Normalize
		return shape, []conv.Stage{conv.NewNormalize()}, nil
	}
}

func specName(spec LayerSpec, idx int) string {
	if spec.Name != "" {
		return spec.Name
	}
	return fmt.Sprintf("%s[%d]", spec.Kind, idx)
}

// InputShape returns the declared input shape.
func (g *Graph) InputShape() Shape { return g.inShape }

// OutputSize returns the width of the terminal layer.
func (g *Graph) OutputSize() int { return g.denses[len(g.denses)-1].out }

// CostKind returns the cost attached to the terminal layer.
func (g *Graph) CostKind() Cost { return g.cost }

// Descriptor returns the structural shape descriptor used by the crossover
// compatibility predicate: layer kinds, extents and activations, without
// weight contents.
func (g *Graph) Descriptor() string {
	parts := make([]string, 0, len(g.specs))
	for _, spec := range g.specs {
		switch spec.Kind {
		case Input:
			parts = append(parts, fmt.Sprintf("input(%s)", spec.Shape))
		case Conv:
			parts = append(parts, fmt.Sprintf("conv(%d,%s)", len(spec.Kernels), spec.Activation))
		case Pool:
			parts = append(parts, "pool")
		case Normalize:
			parts = append(parts, "normalize")
		case DenseLayer:
			parts = append(parts, fmt.Sprintf("dense(%d,%s)", spec.Size, spec.Activation))
		case Output:
			parts = append(parts, fmt.Sprintf("output(%d,%s,%s)", spec.Size, spec.Activation, spec.Cost))
		}
	}
	return strings.Join(parts, "->")
}

// toVolume reshapes a flat 1×n input row into the declared input volume.
func (g *Graph) toVolume(x *tensor.Matrix) (conv.Volume, error) {
	if x.Rows() != 1 || x.Cols() != g.inShape.Flat() {
		return nil, fmt.Errorf("%w: input is %dx%d, graph expects 1x%d",
			tensor.ErrDimensionMismatch, x.Rows(), x.Cols(), g.inShape.Flat())
	}
	data := x.Data()
	slices := make([]*tensor.Matrix, g.inShape.Depth)
	sliceLen := g.inShape.Rows * g.inShape.Cols
	for d := range slices {
		s, err := tensor.FromSlice(g.inShape.Rows, g.inShape.Cols, data[d*sliceLen:(d+1)*sliceLen])
		if err != nil {
			return nil, err
		}
		slices[d] = s
	}
	return conv.NewVolume(slices...)
}

// forwardCache records everything backward needs.
type forwardCache struct {
	volumes []conv.Volume    // stage activations: volumes[0] is the input volume
	xs      []*tensor.Matrix // dense inputs, one per dense layer
	zs      []*tensor.Matrix // dense pre-activations
	out     *tensor.Matrix
}

func (g *Graph) forward(x *tensor.Matrix) (*forwardCache, error) {
	cache := &forwardCache{}

	flat := x
	if len(g.stages) > 0 {
		v, err := g.toVolume(x)
		if err != nil {
			return nil, err
		}
		cache.volumes = append(cache.volumes, v)
		for _, stage := range g.stages {
			next, err := stage.Apply(g.backend, v)
			if err != nil {
				return nil, err
			}
			cache.volumes = append(cache.volumes, next)
			v = next
		}
		flat = v.Flatten()
	} else if x.Rows() != 1 || x.Cols() != g.inShape.Flat() {
		return nil, fmt.Errorf("%w: input is %dx%d, graph expects 1x%d",
			tensor.ErrDimensionMismatch, x.Rows(), x.Cols(), g.inShape.Flat())
	}

	for _, d := range g.denses {
		cache.xs = append(cache.xs, flat)
		z, a, err := d.forward(g.backend, flat)
		if err != nil {
			return nil, err
		}
		cache.zs = append(cache.zs, z)
		flat = a
	}
	cache.out = flat
	return cache, nil
}

// Forward evaluates the graph on a flat 1×n input row vector.
func (g *Graph) Forward(x *tensor.Matrix) (*tensor.Matrix, error) {
	cache, err := g.forward(x)
	if err != nil {
		return nil, err
	}
	return cache.out, nil
}

// Gradients holds the gradient of the cost w.r.t. every trainable tensor,
// in the same order as Parameters.
type Gradients struct {
	mats []*tensor.Matrix
}

// Mats returns the gradient matrices, ordered to match Parameters.
func (gr *Gradients) Mats() []*tensor.Matrix { return gr.mats }

// Add accumulates other into gr elementwise.
func (gr *Gradients) Add(other *Gradients) error {
	if len(gr.mats) != len(other.mats) {
		return fmt.Errorf("%w: gradient sets of length %d and %d",
			tensor.ErrDimensionMismatch, len(gr.mats), len(other.mats))
	}
	for i, m := range gr.mats {
		if !m.SameShape(other.mats[i]) {
			return fmt.Errorf("%w: gradient %d is %s, other is %s",
				tensor.ErrDimensionMismatch, i, m, other.mats[i])
		}
		d := m.Data()
		for j, v := range other.mats[i].Data() {
			d[j] += v
		}
	}
	return nil
}

// Scale multiplies every gradient by f.
func (gr *Gradients) Scale(f float32) {
	for _, m := range gr.mats {
		d := m.Data()
		for i := range d {
			d[i] *= f
		}
	}
}

// Parameters returns the trainable tensors in a stable order: expand
// kernels front to back, then dense weights and biases front to back.
// The returned matrices are the live weights; mutating them updates the
// network.
func (g *Graph) Parameters() []*tensor.Matrix {
	var params []*tensor.Matrix
	for _, stage := range g.stages {
		if ex, ok := stage.(*conv.Expand); ok {
			params = append(params, ex.Kernels...)
		}
	}
	for _, d := range g.denses {
		params = append(params, d.weight, d.bias)
	}
	return params
}

// Backward runs a forward pass and reverse-mode backpropagation for one
// sample, returning the cost value and the gradient of the cost w.r.t.
// every trainable tensor. The network itself is not mutated; weights are
// read-only during this call.
func (g *Graph) Backward(x, target *tensor.Matrix) (*Gradients, float32, error) {
	if target.Rows() != 1 || target.Cols() != g.OutputSize() {
		return nil, 0, fmt.Errorf("%w: target is %dx%d, graph produces 1x%d",
			tensor.ErrDimensionMismatch, target.Rows(), target.Cols(), g.OutputSize())
	}

	cache, err := g.forward(x)
	if err != nil {
		return nil, 0, err
	}
	costValue := g.cost.Value(cache.out, target)

	// Dense head, last to first.
	grad := g.cost.Deriv(cache.out, target)
	denseGrads := make([][2]*tensor.Matrix, len(g.denses))
	for i := len(g.denses) - 1; i >= 0; i-- {
		gw, gb, gx, err := g.denses[i].backward(g.backend, cache.xs[i], cache.zs[i], grad)
		if err != nil {
			return nil, 0, err
		}
		denseGrads[i] = [2]*tensor.Matrix{gw, gb}
		grad = gx
	}

	// Feature extractor, last stage to first.
	var kernelGrads []*tensor.Matrix
	if len(g.stages) > 0 {
		vGrad, err := g.toStageGrad(grad, cache.volumes[len(cache.volumes)-1])
		if err != nil {
			return nil, 0, err
		}
		kernelGradsByStage := make([][]*tensor.Matrix, len(g.stages))
		for i := len(g.stages) - 1; i >= 0; i-- {
			if ex, ok := g.stages[i].(*conv.Expand); ok {
				kg, err := ex.KernelGrads(g.backend, cache.volumes[i], vGrad)
				if err != nil {
					return nil, 0, err
				}
				kernelGradsByStage[i] = kg
			}
			prev, err := g.stages[i].Backward(g.backend, cache.volumes[i], vGrad)
			if err != nil {
				return nil, 0, err
			}
			vGrad = prev
		}
		for _, kg := range kernelGradsByStage {
			kernelGrads = append(kernelGrads, kg...)
		}
	}

	mats := make([]*tensor.Matrix, 0, len(kernelGrads)+2*len(denseGrads))
	mats = append(mats, kernelGrads...)
	for _, dg := range denseGrads {
		mats = append(mats, dg[0], dg[1])
	}
	return &Gradients{mats: mats}, costValue, nil
}

// toStageGrad reshapes the flat gradient leaving the dense head into a
// volume gradient matching the feature extractor's final output.
func (g *Graph) toStageGrad(flat *tensor.Matrix, out conv.Volume) (conv.Volume, error) {
	want := out.Depth() * out.Rows() * out.Cols()
	if flat.NumElements() != want {
		return nil, fmt.Errorf("%w: flat gradient has %d elements, feature map has %d",
			tensor.ErrDimensionMismatch, flat.NumElements(), want)
	}
	data := flat.Data()
	slices := make([]*tensor.Matrix, out.Depth())
	sliceLen := out.Rows() * out.Cols()
	for d := range slices {
		s, err := tensor.FromSlice(out.Rows(), out.Cols(), data[d*sliceLen:(d+1)*sliceLen])
		if err != nil {
			return nil, err
		}
		slices[d] = s
	}
	return conv.NewVolume(slices...)
}

// Compatible reports whether two graphs share the same structural
// descriptor and may be crossed over.
func (g *Graph) Compatible(other *Graph) bool {
	return other != nil && g.Descriptor() == other.Descriptor()
}

// Crossover produces a child graph with identical structure whose trainable
// tensors are each a two-point crossover of the corresponding parent pair.
// Parents are untouched; incompatible parents fail with ErrIncompatible.
func (g *Graph) Crossover(other *Graph, rng *rand.Rand) (*Graph, error) {
	if !g.Compatible(other) {
		got := "<nil>"
		if other != nil {
			got = other.Descriptor()
		}
		return nil, fmt.Errorf("%w: %s vs %s", ErrIncompatible, g.Descriptor(), got)
	}

	child := g.Clone()
	childParams := child.Parameters()
	a := g.Parameters()
	b := other.Parameters()
	for i := range childParams {
		mixed, err := tensor.TwoPointCrossover(a[i], b[i], rng)
		if err != nil {
			return nil, err
		}
		copy(childParams[i].Data(), mixed.Data())
	}
	return child, nil
}

// Clone returns a deep copy sharing no tensors with the original.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		backend: g.backend,
		specs:   append([]LayerSpec(nil), g.specs...),
		inShape: g.inShape,
		cost:    g.cost,
	}
	for _, stage := range g.stages {
		if ex, ok := stage.(*conv.Expand); ok {
			kernels := make([]*tensor.Matrix, len(ex.Kernels))
			for i, k := range ex.Kernels {
				kernels[i] = k.Clone()
			}
			c.stages = append(c.stages, &conv.Expand{Kernels: kernels})
			continue
		}
		c.stages = append(c.stages, stage)
	}
	for _, d := range g.denses {
		c.denses = append(c.denses, d.clone())
	}
	return c
}
