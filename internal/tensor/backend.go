package tensor

// Backend is the compute seam every numeric operation in the engine goes
// through. It is a deliberately small capability set so an alternate
// compute implementation (GPU, accelerated CPU) can be substituted without
// touching callers: matrix multiply, elementwise map, valid 2-D
// convolution, and 2×2 max pooling.
//
// Implementations:
//   - backend/cpu: pure Go, parallelised over rows/slices
//   - backend/webgpu: GPU compute via WebGPU
//
// Backends are injected at construction time; nothing in the engine
// reaches for a global backend.
//
// Example:
//
//	b := cpu.New()
//	c, err := b.MatMul(a, w)
type Backend interface {
	// MatMul returns the dense product a·b. Requires a.Cols() == b.Rows();
	// returns ErrDimensionMismatch otherwise. Result is a.Rows()×b.Cols().
	MatMul(a, b *Matrix) (*Matrix, error)

	// Map applies fn to every element of m in place.
	Map(m *Matrix, fn func(float32) float32)

	// Conv2D returns the "valid" convolution of in with kernel: the kernel
	// slides over in without padding, so the result shrinks to
	// (in.Rows-kernel.Rows+1) × (in.Cols-kernel.Cols+1). The kernel must be
	// strictly smaller than in on both axes; ErrDimensionMismatch otherwise.
	Conv2D(in, kernel *Matrix) (*Matrix, error)

	// MaxPool2D performs a deterministic 2×2/stride-2 max reduction,
	// halving both extents. Requires even extents; ErrDimensionMismatch
	// otherwise. The returned index slice records, per output element, the
	// flat row-major input index the maximum was taken from (first maximum
	// in scan order on ties); the pool adjoint routes gradients through it.
	MaxPool2D(in *Matrix) (*Matrix, []int, error)

	// Name identifies the backend for diagnostics.
	Name() string
}
