package conv

import (
	"fmt"

	"github.com/mendel-ml/mendel/internal/tensor"
)

// Pipeline is an ordered list of stages. Execution applies the stages
// strictly in order; each stage consumes the prior stage's volume and
// produces a new one, and no stage observes downstream stages.
type Pipeline struct {
	backend tensor.Backend
	stages  []Stage
}

// New builds a pipeline over the given backend.
func New(backend tensor.Backend, stages ...Stage) (*Pipeline, error) {
	if backend == nil {
		return nil, fmt.Errorf("%w: pipeline needs a backend", ErrBadStage)
	}
	if len(stages) == 0 {
		return nil, fmt.Errorf("%w: pipeline needs at least one stage", ErrBadStage)
	}
	return &Pipeline{backend: backend, stages: stages}, nil
}

// Stages returns the ordered stage list.
func (p *Pipeline) Stages() []Stage { return p.stages }

// Apply runs the volume through every stage in order.
func (p *Pipeline) Apply(v Volume) (Volume, error) {
	acts, err := p.Forward(v)
	if err != nil {
		return nil, err
	}
	return acts[len(acts)-1], nil
}

// Forward runs the volume through every stage, returning the intermediate
// volumes: acts[0] is the input, acts[i] the output of stage i-1. The
// record is what Backward consumes.
func (p *Pipeline) Forward(v Volume) ([]Volume, error) {
	acts := make([]Volume, 0, len(p.stages)+1)
	acts = append(acts, v)
	current := v
	for i, stage := range p.stages {
		next, err := stage.Apply(p.backend, current)
		if err != nil {
			return nil, fmt.Errorf("pipeline stage %d (%s): %w", i, stage.Name(), err)
		}
		acts = append(acts, next)
		current = next
	}
	return acts, nil
}

// Backward propagates the gradient w.r.t. the pipeline output back through
// every stage in reverse order, returning the gradient w.r.t. the input
// volume. acts must be the record produced by Forward for the same input.
func (p *Pipeline) Backward(acts []Volume, grad Volume) (Volume, error) {
	if len(acts) != len(p.stages)+1 {
		return nil, fmt.Errorf("%w: backward got %d activations for %d stages",
			ErrBadStage, len(acts), len(p.stages))
	}
	current := grad
	for i := len(p.stages) - 1; i >= 0; i-- {
		prev, err := p.stages[i].Backward(p.backend, acts[i], current)
		if err != nil {
			return nil, fmt.Errorf("pipeline stage %d (%s) backward: %w", i, p.stages[i].Name(), err)
		}
		current = prev
	}
	return current, nil
}
