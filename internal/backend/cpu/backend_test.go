package cpu

import (
	"errors"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/mendel-ml/mendel/internal/parallel"
	"github.com/mendel-ml/mendel/internal/tensor"
)

func TestMatMulManual(t *testing.T) {
	b := New()

	a, _ := tensor.FromSlice(2, 3, []float32{1, 2, 3, 4, 5, 6})
	w, _ := tensor.FromSlice(3, 2, []float32{7, 8, 9, 10, 11, 12})

	c, err := b.MatMul(a, w)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Rows() != 2 || c.Cols() != 2 {
		t.Fatalf("result shape %dx%d, want 2x2", c.Rows(), c.Cols())
	}

	// 1*7+2*9+3*11 = 58, 1*8+2*10+3*12 = 64
	// 4*7+5*9+6*11 = 139, 4*8+5*10+6*12 = 154
	want := []float32{58, 64, 139, 154}
	for i, v := range c.Data() {
		if v != want[i] {
			t.Errorf("element %d: got %v, want %v", i, v, want[i])
		}
	}
}

func TestMatMulDimensionMismatch(t *testing.T) {
	b := New()
	a := tensor.New(2, 3)
	w := tensor.New(2, 2)
	if _, err := b.MatMul(a, w); !errors.Is(err, tensor.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

// TestMatMulAgainstGonum checks larger products against gonum's reference
// implementation.
func TestMatMulAgainstGonum(t *testing.T) {
	b := New()
	rng := rand.New(rand.NewSource(11))

	a := tensor.Rand(17, 23, rng)
	w := tensor.Rand(23, 9, rng)

	got, err := b.MatMul(a, w)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ga := mat.NewDense(17, 23, toFloat64(a.Data()))
	gw := mat.NewDense(23, 9, toFloat64(w.Data()))
	var gc mat.Dense
	gc.Mul(ga, gw)

	for i := 0; i < 17; i++ {
		for j := 0; j < 9; j++ {
			want := gc.At(i, j)
			diff := float64(got.At(i, j)) - want
			if diff < -1e-4 || diff > 1e-4 {
				t.Fatalf("(%d,%d): got %v, gonum %v", i, j, got.At(i, j), want)
			}
		}
	}
}

func toFloat64(in []float32) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}

func TestMatMulSequentialMatchesParallel(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	a := tensor.Rand(31, 13, rng)
	w := tensor.Rand(13, 19, rng)

	par, err := New().MatMul(a, w)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	seq, err := NewWithConfig(parallel.Sequential()).MatMul(a, w)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !par.Equal(seq) {
		t.Error("parallel and sequential matmul must be bit-identical")
	}
}

func TestConv2DValid(t *testing.T) {
	b := New()

	in, _ := tensor.FromSlice(4, 4, []float32{
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
		13, 14, 15, 16,
	})
	// Identity-ish kernel: picks the centre element.
	kernel, _ := tensor.FromSlice(3, 3, []float32{
		0, 0, 0,
		0, 1, 0,
		0, 0, 0,
	})

	out, err := b.Conv2D(in, kernel)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Rows() != 2 || out.Cols() != 2 {
		t.Fatalf("result shape %dx%d, want 2x2", out.Rows(), out.Cols())
	}

	want := []float32{6, 7, 10, 11}
	for i, v := range out.Data() {
		if v != want[i] {
			t.Errorf("element %d: got %v, want %v", i, v, want[i])
		}
	}
}

func TestConv2DKernelTooLarge(t *testing.T) {
	b := New()
	in := tensor.New(3, 3)
	kernel := tensor.New(3, 3)
	if _, err := b.Conv2D(in, kernel); !errors.Is(err, tensor.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestMaxPool2D(t *testing.T) {
	b := New()

	in, _ := tensor.FromSlice(4, 4, []float32{
		1, 3, 2, 1,
		0, 2, 4, 1,
		5, 5, 0, 0,
		1, 2, 0, 7,
	})

	out, indices, err := b.MaxPool2D(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []float32{3, 4, 5, 7}
	for i, v := range out.Data() {
		if v != want[i] {
			t.Errorf("element %d: got %v, want %v", i, v, want[i])
		}
	}

	// Window (1,0)-(1,1) of the lower-left block ties at 5; the first
	// maximum in scan order (flat index 8) must win.
	if indices[2] != 8 {
		t.Errorf("tie break: got index %d, want 8", indices[2])
	}
}

func TestMaxPool2DOddInput(t *testing.T) {
	b := New()
	in := tensor.New(3, 4)
	if _, _, err := b.MaxPool2D(in); !errors.Is(err, tensor.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestMap(t *testing.T) {
	b := New()
	m, _ := tensor.FromSlice(1, 3, []float32{-1, 0, 2})
	b.Map(m, func(x float32) float32 {
		if x < 0 {
			return 0
		}
		return x
	})
	want := []float32{0, 0, 2}
	for i, v := range m.Data() {
		if v != want[i] {
			t.Errorf("element %d: got %v, want %v", i, v, want[i])
		}
	}
}
