package cpu

import (
	"fmt"

	"github.com/mendel-ml/mendel/internal/parallel"
	"github.com/mendel-ml/mendel/internal/tensor"
)

// Conv2D performs a "valid" 2-D convolution: no padding, stride 1, so the
// output shrinks to (inRows-kRows+1) × (inCols-kCols+1). Partitioned over
// output rows.
func (b *Backend) Conv2D(in, kernel *tensor.Matrix) (*tensor.Matrix, error) {
	if kernel.Rows() >= in.Rows() || kernel.Cols() >= in.Cols() {
		return nil, fmt.Errorf("%w: kernel %dx%d must be strictly smaller than input %dx%d",
			tensor.ErrDimensionMismatch, kernel.Rows(), kernel.Cols(), in.Rows(), in.Cols())
	}

	outRows := in.Rows() - kernel.Rows() + 1
	outCols := in.Cols() - kernel.Cols() + 1
	result := tensor.New(outRows, outCols)

	inData := in.Data()
	kData := kernel.Data()
	outData := result.Data()
	inCols := in.Cols()
	kRows, kCols := kernel.Rows(), kernel.Cols()

	err := parallel.For(outRows, func(y int) error {
		for x := 0; x < outCols; x++ {
			sum := float32(0)
			for i := 0; i < kRows; i++ {
				base := (y+i)*inCols + x
				kBase := i * kCols
				for j := 0; j < kCols; j++ {
					sum += inData[base+j] * kData[kBase+j]
				}
			}
			outData[y*outCols+x] = sum
		}
		return nil
	}, b.cfg)
	if err != nil {
		return nil, err
	}

	return result, nil
}

// MaxPool2D performs a 2×2/stride-2 max reduction. Both extents must be
// even. The returned index slice holds, per output element, the flat
// row-major input index the maximum came from; on equal values the first
// maximum in scan order wins.
func (b *Backend) MaxPool2D(in *tensor.Matrix) (*tensor.Matrix, []int, error) {
	if in.Rows()%2 != 0 || in.Cols()%2 != 0 {
		return nil, nil, fmt.Errorf("%w: maxpool requires even extents, got %dx%d",
			tensor.ErrDimensionMismatch, in.Rows(), in.Cols())
	}

	outRows := in.Rows() / 2
	outCols := in.Cols() / 2
	result := tensor.New(outRows, outCols)

	inData := in.Data()
	outData := result.Data()
	indices := make([]int, outRows*outCols)
	inCols := in.Cols()

	err := parallel.For(outRows, func(y int) error {
		for x := 0; x < outCols; x++ {
			bestIdx := 2*y*inCols + 2*x
			best := inData[bestIdx]
			for _, idx := range [3]int{bestIdx + 1, bestIdx + inCols, bestIdx + inCols + 1} {
				if inData[idx] > best {
					best = inData[idx]
					bestIdx = idx
				}
			}
			outData[y*outCols+x] = best
			indices[y*outCols+x] = bestIdx
		}
		return nil
	}, b.cfg)
	if err != nil {
		return nil, nil, err
	}

	return result, indices, nil
}
