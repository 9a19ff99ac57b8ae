// Package webgpu implements the GPU tensor backend using zero-CGO WebGPU
// bindings. Matrix products and convolutions dispatch WGSL compute shaders;
// elementwise map and pooling stay on the CPU, where the transfer cost
// outweighs the kernel.
package webgpu

import (
	"fmt"
	"sync"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/mendel-ml/mendel/internal/backend/cpu"
	"github.com/mendel-ml/mendel/internal/tensor"
)

// Backend implements tensor.Backend on a WebGPU device.
type Backend struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	// Shader and pipeline cache.
	shaders   map[string]*wgpu.ShaderModule
	pipelines map[string]*wgpu.ComputePipeline
	mu        sync.RWMutex

	adapterInfo *wgpu.AdapterInfoGo

	// fallback runs the operations that never pay for a GPU round trip.
	fallback *cpu.Backend
}

// New creates a WebGPU backend, or fails if no adapter is available or the
// native library cannot be loaded.
func New() (backend *Backend, err error) {
	// Recover from panic if the wgpu_native library is not found.
	defer func() {
		if r := recover(); r != nil {
			backend = nil
			err = fmt.Errorf("webgpu: native library not available: %v", r)
		}
	}()

	instance, _ := wgpu.CreateInstance(nil)
	adapter, adapterErr := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if adapterErr != nil {
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to request adapter: %w", adapterErr)
	}

	adapterInfo, _ := adapter.GetInfo()

	device, deviceErr := adapter.RequestDevice(nil)
	if deviceErr != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to request device: %w", deviceErr)
	}

	queue := device.GetQueue()
	if queue == nil {
		device.Release()
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to get queue")
	}

	return &Backend{
		instance:    instance,
		adapter:     adapter,
		device:      device,
		queue:       queue,
		shaders:     make(map[string]*wgpu.ShaderModule),
		pipelines:   make(map[string]*wgpu.ComputePipeline),
		adapterInfo: adapterInfo,
		fallback:    cpu.New(),
	}, nil
}

// Release frees all WebGPU resources. The backend must not be used after
// Release.
func (b *Backend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, p := range b.pipelines {
		p.Release()
	}
	b.pipelines = nil

	for _, s := range b.shaders {
		s.Release()
	}
	b.shaders = nil

	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}

// Name returns the backend name, including the adapter when known.
func (b *Backend) Name() string {
	if b.adapterInfo != nil {
		return fmt.Sprintf("webgpu (%s %s)", b.adapterInfo.Device, b.adapterInfo.Vendor)
	}
	return "webgpu"
}

// AdapterInfo returns information about the GPU adapter.
func (b *Backend) AdapterInfo() *wgpu.AdapterInfoGo {
	return b.adapterInfo
}

// MatMul computes the matrix product a·b on the GPU.
func (b *Backend) MatMul(a, other *tensor.Matrix) (*tensor.Matrix, error) {
	if a.Cols() != other.Rows() {
		return nil, fmt.Errorf("%w: %dx%d · %dx%d",
			tensor.ErrDimensionMismatch, a.Rows(), a.Cols(), other.Rows(), other.Cols())
	}
	return b.runMatMul(a, other)
}

// Conv2D computes the valid 2D convolution of in with kernel on the GPU.
func (b *Backend) Conv2D(in, kernel *tensor.Matrix) (*tensor.Matrix, error) {
	if kernel.Rows() >= in.Rows() || kernel.Cols() >= in.Cols() {
		return nil, fmt.Errorf("%w: kernel %dx%d must be strictly smaller than input %dx%d",
			tensor.ErrDimensionMismatch, kernel.Rows(), kernel.Cols(), in.Rows(), in.Cols())
	}
	return b.runConv2D(in, kernel)
}

// Map applies fn elementwise in place. fn is an arbitrary Go closure, so
// this always runs on the CPU.
func (b *Backend) Map(m *tensor.Matrix, fn func(float32) float32) {
	b.fallback.Map(m, fn)
}

// MaxPool2D performs 2×2 stride-2 max pooling on the CPU: the kernel is too
// small to amortise a transfer, and the argmax indices must match the CPU
// backend exactly.
func (b *Backend) MaxPool2D(in *tensor.Matrix) (*tensor.Matrix, []int, error) {
	return b.fallback.MaxPool2D(in)
}

// IsAvailable reports whether a WebGPU adapter can be acquired on this
// system.
func IsAvailable() (available bool) {
	defer func() {
		if r := recover(); r != nil {
			available = false
		}
	}()

	instance, _ := wgpu.CreateInstance(nil)
	defer instance.Release()

	adapter, err := instance.RequestAdapter(nil)
	if err != nil {
		return false
	}
	adapter.Release()
	return true
}
