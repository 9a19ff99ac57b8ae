package webgpu

import (
	"math/rand"
	"testing"

	"github.com/mendel-ml/mendel/internal/backend/cpu"
	"github.com/mendel-ml/mendel/internal/tensor"
)

func TestIsAvailable(t *testing.T) {
	// Reports status only; absence of a GPU is not a failure.
	t.Logf("WebGPU available: %v", IsAvailable())
}

func newBackend(t *testing.T) *Backend {
	t.Helper()
	backend, err := New()
	if err != nil {
		t.Skipf("WebGPU not available on this system: %v", err)
	}
	t.Cleanup(backend.Release)
	return backend
}

func TestNew(t *testing.T) {
	backend := newBackend(t)

	if backend.Name() == "" {
		t.Error("backend name should not be empty")
	}
	t.Logf("backend: %s", backend.Name())

	var _ tensor.Backend = backend
}

func TestMatMulMatchesCPU(t *testing.T) {
	gpu := newBackend(t)
	ref := cpu.New()

	rng := rand.New(rand.NewSource(1))
	a := tensor.Rand(33, 17, rng)
	b := tensor.Rand(17, 21, rng)

	got, err := gpu.MatMul(a, b)
	if err != nil {
		t.Fatalf("MatMul: %v", err)
	}
	want, err := ref.MatMul(a, b)
	if err != nil {
		t.Fatalf("cpu MatMul: %v", err)
	}

	for i, v := range got.Data() {
		diff := v - want.Data()[i]
		if diff < -1e-4 || diff > 1e-4 {
			t.Fatalf("element %d: gpu %v, cpu %v", i, v, want.Data()[i])
		}
	}
}

func TestMatMulShapeMismatch(t *testing.T) {
	gpu := newBackend(t)
	_, err := gpu.MatMul(tensor.New(2, 3), tensor.New(4, 2))
	if err == nil {
		t.Fatal("expected shape mismatch error")
	}
}

func TestConv2DMatchesCPU(t *testing.T) {
	gpu := newBackend(t)
	ref := cpu.New()

	rng := rand.New(rand.NewSource(2))
	in := tensor.Rand(8, 8, rng)
	kernel := tensor.Rand(3, 3, rng)

	got, err := gpu.Conv2D(in, kernel)
	if err != nil {
		t.Fatalf("Conv2D: %v", err)
	}
	want, err := ref.Conv2D(in, kernel)
	if err != nil {
		t.Fatalf("cpu Conv2D: %v", err)
	}

	if !got.SameShape(want) {
		t.Fatalf("output is %dx%d, want %dx%d", got.Rows(), got.Cols(), want.Rows(), want.Cols())
	}
	for i, v := range got.Data() {
		diff := v - want.Data()[i]
		if diff < -1e-4 || diff > 1e-4 {
			t.Fatalf("element %d: gpu %v, cpu %v", i, v, want.Data()[i])
		}
	}
}

func TestPoolingDelegatesToCPU(t *testing.T) {
	gpu := newBackend(t)

	in, err := tensor.FromSlice(2, 2, []float32{1, 2, 3, 4})
	if err != nil {
		t.Fatal(err)
	}
	out, idx, err := gpu.MaxPool2D(in)
	if err != nil {
		t.Fatalf("MaxPool2D: %v", err)
	}
	if out.At(0, 0) != 4 || idx[0] != 3 {
		t.Errorf("pool = %v at %d, want 4 at 3", out.At(0, 0), idx[0])
	}
}
