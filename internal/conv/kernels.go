package conv

import (
	"fmt"
	"sort"

	"github.com/mendel-ml/mendel/internal/tensor"
)

// Named 3×3 constant kernels referenced by sample pipelines.
const (
	EdgeTop           = "edge-top"
	EdgeBottom        = "edge-bottom"
	EdgeLeft          = "edge-left"
	EdgeRight         = "edge-right"
	Outline           = "outline"
	Sharpen           = "sharpen"
	EmbossTopLeft     = "emboss-top-left"
	EmbossTopRight    = "emboss-top-right"
	EmbossBottomLeft  = "emboss-bottom-left"
	EmbossBottomRight = "emboss-bottom-right"
)

var catalog = map[string][9]float32{
	EdgeTop:    {1, 2, 1, 0, 0, 0, -1, -2, -1},
	EdgeBottom: {-1, -2, -1, 0, 0, 0, 1, 2, 1},
	EdgeLeft:   {1, 0, -1, 2, 0, -2, 1, 0, -1},
	EdgeRight:  {-1, 0, 1, -2, 0, 2, -1, 0, 1},
	Outline:    {-1, -1, -1, -1, 8, -1, -1, -1, -1},
	Sharpen:    {0, -1, 0, -1, 5, -1, 0, -1, 0},

	EmbossTopLeft:     {-2, -1, 0, -1, 1, 1, 0, 1, 2},
	EmbossTopRight:    {0, -1, -2, 1, 1, -1, 2, 1, 0},
	EmbossBottomLeft:  {0, 1, 2, -1, 1, 1, -2, -1, 0},
	EmbossBottomRight: {2, 1, 0, 1, 1, -1, 0, -1, -2},
}

// KernelByName returns a fresh copy of a catalog kernel. Callers own the
// returned matrix; mutating it does not affect the catalog.
func KernelByName(name string) (*tensor.Matrix, error) {
	values, ok := catalog[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown kernel %q", ErrBadStage, name)
	}
	k, err := tensor.FromSlice(3, 3, values[:])
	if err != nil {
		return nil, err
	}
	return k, nil
}

// KernelNames returns the catalog names in sorted order.
func KernelNames() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
