package tensor

import (
	"fmt"
	"math/rand"
)

// TwoPointCrossover combines two equal-shaped parent matrices into a child.
//
// The parents are treated as flattened row-major sequences. Two distinct
// cut indices i < j are drawn uniformly per call; the child takes its
// elements in [0,i) and [j,end) from a and its elements in [i,j) from b,
// so the child is assembled from exactly two contiguous donor segments,
// one per parent. Both parents are left untouched.
//
// Returns ErrDimensionMismatch if the parents differ in shape.
func TwoPointCrossover(a, b *Matrix, rng *rand.Rand) (*Matrix, error) {
	if !a.SameShape(b) {
		return nil, fmt.Errorf("%w: crossover parents %dx%d and %dx%d",
			ErrDimensionMismatch, a.rows, a.cols, b.rows, b.cols)
	}

	n := len(a.data)
	child := a.Clone()
	if n < 2 {
		return child, nil
	}

	i := rng.Intn(n)
	j := rng.Intn(n)
	for j == i {
		j = rng.Intn(n)
	}
	if i > j {
		i, j = j, i
	}

	copy(child.data[i:j], b.data[i:j])
	return child, nil
}
