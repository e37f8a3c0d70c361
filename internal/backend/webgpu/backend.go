// Package webgpu implements the GPU matrix backend.
//
// Matrix storage lives in GPU buffers for its whole lifetime; every
// mat.Backend primitive is a WGSL compute kernel, and only Read and Write
// cross the host/device boundary, through a staging buffer.
package webgpu

import (
	"fmt"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/ycktw/libdnn/internal/mat"
)

// storage backs a device allocation with a GPU buffer.
type storage struct {
	buf *wgpu.Buffer
	n   int
}

// Len returns the number of float32 elements.
func (s *storage) Len() int { return s.n }

// Backend implements mat.Backend on the GPU via WebGPU compute.
type Backend struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	// Shader and pipeline caches, keyed by kernel name.
	shaders   map[string]*wgpu.ShaderModule
	pipelines map[string]*wgpu.ComputePipeline
	mu        sync.RWMutex
}

// New creates a WebGPU backend. Returns an error when no adapter or
// device is available (headless CI, missing native library); callers
// such as tests are expected to fall back or skip.
func New() (backend *Backend, err error) {
	// The native wgpu library panics rather than erroring when absent.
	defer func() {
		if r := recover(); r != nil {
			backend = nil
			err = fmt.Errorf("webgpu: native library not available: %v", r)
		}
	}()

	instance := wgpu.CreateInstance(nil)
	if instance == nil {
		return nil, fmt.Errorf("webgpu: failed to create instance")
	}

	adapter, adapterErr := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if adapterErr != nil {
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to request adapter: %w", adapterErr)
	}

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
		instance:  instance,
		adapter:   adapter,
		device:    device,
		queue:     queue,
		shaders:   make(map[string]*wgpu.ShaderModule),
		pipelines: make(map[string]*wgpu.ComputePipeline),
	}, nil
}

// Release frees the GPU context. Matrices allocated on this backend must
// not be used afterwards.
func (b *Backend) Release() {
	b.device.Release()
	b.adapter.Release()
	b.instance.Release()
}

// Name returns the backend name.
func (b *Backend) Name() string { return "WebGPU" }

// Alloc creates a zero-filled device allocation of n elements.
// WebGPU guarantees new buffers are zero-initialized.
func (b *Backend) Alloc(n int) mat.Storage {
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "matrix",
		Size:  uint64(n) * 4,
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst,
	})
	check("Alloc", err)
	return &storage{buf: buf, n: n}
}

// buffer extracts the GPU buffer of a matrix owned by this backend.
func buffer(m *mat.Matrix) *wgpu.Buffer {
	s, ok := m.Storage().(*storage)
	if !ok {
		panic(fmt.Sprintf("webgpu: matrix storage is %T, not GPU storage", m.Storage()))
	}
	return s.buf
}

// check panics on a GPU API error. Shape and setup failures in this
// backend are programmer errors, matching the fail-fast policy of the
// matrix core.
func check(op string, err error) {
	if err != nil {
		panic(fmt.Sprintf("webgpu: %s: %v", op, err))
	}
}
