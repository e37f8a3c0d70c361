package webgpu

import (
	"fmt"
	"math"
	"time"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/ycktw/libdnn/internal/mat"
)

// f32 packs a float32 into a uniform word.
func f32(v float32) uint32 { return math.Float32bits(v) }

// packParams serializes uniform words little-endian, padded to the
// 16-byte alignment uniform buffers require.
func packParams(words ...uint32) []byte {
	n := (len(words)*4 + 15) &^ 15
	out := make([]byte, n)
	for i, w := range words {
		out[i*4] = byte(w)
		out[i*4+1] = byte(w >> 8)
		out[i*4+2] = byte(w >> 16)
		out[i*4+3] = byte(w >> 24)
	}
	return out
}

// pipeline returns the cached compute pipeline for a kernel, compiling
// the shader on first use.
func (b *Backend) pipeline(name, code string) *wgpu.ComputePipeline {
	b.mu.RLock()
	if p, ok := b.pipelines[name]; ok {
		b.mu.RUnlock()
		return p
	}
	b.mu.RUnlock()

	b.mu.Lock()
	defer b.mu.Unlock()
	if p, ok := b.pipelines[name]; ok {
		return p
	}

	shader, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          name,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: code},
	})
	check("CreateShaderModule "+name, err)
	b.shaders[name] = shader

	p, err := b.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:   name,
		Compute: wgpu.ProgrammableStageDescriptor{Module: shader, EntryPoint: "main"},
	})
	check("CreateComputePipeline "+name, err)
	b.pipelines[name] = p
	return p
}

// dispatch runs one kernel invocation: storage buffers bind at 0..n-1,
// the packed uniform params at binding n, and count threads execute.
func (b *Backend) dispatch(name, code string, bufs []*wgpu.Buffer, paramWords []uint32, count int) {
	pipe := b.pipeline(name, code)

	params, err := b.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    name + "_params",
		Contents: packParams(paramWords...),
		Usage:    wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	check("CreateBufferInit "+name, err)
	defer params.Destroy()

	entries := make([]wgpu.BindGroupEntry, 0, len(bufs)+1)
	for i, buf := range bufs {
		entries = append(entries, wgpu.BindGroupEntry{
			Binding: uint32(i), Buffer: buf, Size: buf.GetSize(),
		})
	}
	entries = append(entries, wgpu.BindGroupEntry{
		Binding: uint32(len(bufs)), Buffer: params, Size: params.GetSize(),
	})

	bindGroup, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   name + "_bind",
		Layout:  pipe.GetBindGroupLayout(0),
		Entries: entries,
	})
	check("CreateBindGroup "+name, err)
	defer bindGroup.Release()

	encoder, err := b.device.CreateCommandEncoder(nil)
	check("CreateCommandEncoder "+name, err)
	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(pipe)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.DispatchWorkgroups(uint32((count+workgroupSize-1)/workgroupSize), 1, 1)
	pass.End()

	cmd, err := encoder.Finish(nil)
	check("Finish "+name, err)
	b.queue.Submit(cmd)
}

// readBinding returns buf as a read-only binding for a dispatch whose
// read_write binding is dst. WebGPU usage scopes forbid one buffer
// holding both usages in a single dispatch, so an aliased operand is
// staged through a scratch copy first; release destroys the scratch.
func (b *Backend) readBinding(buf, dst *wgpu.Buffer) (bound *wgpu.Buffer, release func()) {
	if buf != dst {
		return buf, func() {}
	}

	scratch, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "alias_scratch",
		Size:  buf.GetSize(),
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst,
	})
	check("CreateBuffer alias_scratch", err)

	encoder, err := b.device.CreateCommandEncoder(nil)
	check("CreateCommandEncoder alias_scratch", err)
	encoder.CopyBufferToBuffer(buf, 0, scratch, 0, buf.GetSize())
	cmd, err := encoder.Finish(nil)
	check("Finish alias_scratch", err)
	b.queue.Submit(cmd)

	return scratch, scratch.Destroy
}

// Copy overwrites dst's storage with src's, device-side.
func (b *Backend) Copy(dst, src *mat.Matrix) {
	if dst.Rows() != src.Rows() || dst.Cols() != src.Cols() {
		panic(fmt.Sprintf("webgpu: Copy shape mismatch: %d×%d vs %d×%d",
			dst.Rows(), dst.Cols(), src.Rows(), src.Cols()))
	}
	encoder, err := b.device.CreateCommandEncoder(nil)
	check("CreateCommandEncoder copy", err)
	encoder.CopyBufferToBuffer(buffer(src), 0, buffer(dst), 0, uint64(src.Size())*4)
	cmd, err := encoder.Finish(nil)
	check("Finish copy", err)
	b.queue.Submit(cmd)
}

// Geam computes dst[dr:, dc:] = alpha*a[ar:, ac:] + beta*b[br:, bc:]
// over a rows×cols window.
func (be *Backend) Geam(dst *mat.Matrix, dr, dc int, alpha float32, a *mat.Matrix, ar, ac int,
	beta float32, b *mat.Matrix, br, bc int, rows, cols int) {
	ab, releaseA := be.readBinding(buffer(a), buffer(dst))
	defer releaseA()
	bb, releaseB := be.readBinding(buffer(b), buffer(dst))
	defer releaseB()
	be.dispatch("geam", geamShader,
		[]*wgpu.Buffer{ab, bb, buffer(dst)},
		[]uint32{
			uint32(rows), uint32(cols),
			uint32(dst.Rows()), uint32(a.Rows()), uint32(b.Rows()),
			uint32(dr), uint32(dc), uint32(ar), uint32(ac), uint32(br), uint32(bc),
			f32(alpha), f32(beta),
		},
		rows*cols)
}

// Gemm computes dst[dr:, dc:] = alpha*op(A)·op(B) + beta*dst[dr:, dc:]
// for an m×n output window with contraction length k. One thread per
// output cell.
func (be *Backend) Gemm(dst *mat.Matrix, dr, dc int, alpha float32,
	a *mat.Matrix, ar, ac int, transA bool,
	b *mat.Matrix, br, bc int, transB bool,
	m, n, k int, beta float32) {
	var ta, tb uint32
	if transA {
		ta = 1
	}
	if transB {
		tb = 1
	}
	be.dispatch("gemm", gemmShader,
		[]*wgpu.Buffer{buffer(a), buffer(b), buffer(dst)},
		[]uint32{
			uint32(m), uint32(n), uint32(k),
			uint32(dst.Rows()), uint32(a.Rows()), uint32(b.Rows()),
			uint32(dr), uint32(dc), uint32(ar), uint32(ac), uint32(br), uint32(bc),
			ta, tb,
			f32(alpha), f32(beta),
		},
		m*n)
}

// Mul computes the Hadamard product dst = a ⊙ b.
func (be *Backend) Mul(dst, a, b *mat.Matrix) {
	if a.Rows() != b.Rows() || a.Cols() != b.Cols() ||
		dst.Rows() != a.Rows() || dst.Cols() != a.Cols() {
		panic(fmt.Sprintf("webgpu: Mul shape mismatch: dst %d×%d, a %d×%d, b %d×%d",
			dst.Rows(), dst.Cols(), a.Rows(), a.Cols(), b.Rows(), b.Cols()))
	}
	ab, releaseA := be.readBinding(buffer(a), buffer(dst))
	defer releaseA()
	bb, releaseB := be.readBinding(buffer(b), buffer(dst))
	defer releaseB()
	be.dispatch("mul", mulShader,
		[]*wgpu.Buffer{ab, bb, buffer(dst)},
		[]uint32{uint32(dst.Size())},
		dst.Size())
}

// Apply maps fn over every element of src, writing to dst.
func (b *Backend) Apply(dst, src *mat.Matrix, fn mat.ElemFunc) {
	if dst.Rows() != src.Rows() || dst.Cols() != src.Cols() {
		panic(fmt.Sprintf("webgpu: Apply shape mismatch: %d×%d vs %d×%d",
			dst.Rows(), dst.Cols(), src.Rows(), src.Cols()))
	}
	code, ok := applyShaders[fn]
	if !ok {
		panic(fmt.Sprintf("webgpu: unsupported elementwise function %v", fn))
	}
	sb, release := b.readBinding(buffer(src), buffer(dst))
	defer release()
	b.dispatch("apply_"+fn.String(), code,
		[]*wgpu.Buffer{sb, buffer(dst)},
		[]uint32{uint32(dst.Size())},
		dst.Size())
}

// Fill sets the rows×cols region of dst at (r, c) to value.
func (b *Backend) Fill(dst *mat.Matrix, r, c, rows, cols int, value float32) {
	b.dispatch("fill", fillShader,
		[]*wgpu.Buffer{buffer(dst)},
		[]uint32{
			uint32(rows), uint32(cols), uint32(dst.Rows()),
			uint32(r), uint32(c), f32(value),
		},
		rows*cols)
}

// Softmax computes a stable row-wise softmax of src into dst, one thread
// per row.
func (b *Backend) Softmax(dst, src *mat.Matrix) {
	if dst.Rows() != src.Rows() || dst.Cols() != src.Cols() {
		panic(fmt.Sprintf("webgpu: Softmax shape mismatch: %d×%d vs %d×%d",
			dst.Rows(), dst.Cols(), src.Rows(), src.Cols()))
	}
	sb, release := b.readBinding(buffer(src), buffer(dst))
	defer release()
	b.dispatch("softmax", softmaxShader,
		[]*wgpu.Buffer{sb, buffer(dst)},
		[]uint32{uint32(src.Rows()), uint32(src.Cols())},
		src.Rows())
}

// Write uploads column-major data into dst.
func (b *Backend) Write(dst *mat.Matrix, data []float32) {
	if len(data) != dst.Size() {
		panic(fmt.Sprintf("webgpu: Write length %d, want %d", len(data), dst.Size()))
	}
	b.queue.WriteBuffer(buffer(dst), 0, wgpu.ToBytes(data))
}

// Read downloads src in column-major order through a staging buffer.
func (b *Backend) Read(src *mat.Matrix) []float32 {
	size := uint64(src.Size()) * 4

	staging, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "read_staging",
		Size:  size,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	check("CreateBuffer staging", err)
	defer staging.Destroy()

	encoder, err := b.device.CreateCommandEncoder(nil)
	check("CreateCommandEncoder read", err)
	encoder.CopyBufferToBuffer(buffer(src), 0, staging, 0, size)
	cmd, err := encoder.Finish(nil)
	check("Finish read", err)
	b.queue.Submit(cmd)

	done := make(chan wgpu.BufferMapAsyncStatus, 1)
	err = staging.MapAsync(wgpu.MapModeRead, 0, size, func(status wgpu.BufferMapAsyncStatus) {
		done <- status
	})
	check("MapAsync", err)

	deadline := time.After(5 * time.Second)
	for {
		b.device.Poll(false, nil)
		select {
		case status := <-done:
			if status != wgpu.BufferMapAsyncStatusSuccess {
				panic(fmt.Sprintf("webgpu: buffer map failed: %v", status))
			}
			mapped := staging.GetMappedRange(0, uint(size))
			out := make([]float32, src.Size())
			copy(out, wgpu.FromBytes[float32](mapped))
			staging.Unmap()
			return out
		case <-deadline:
			panic("webgpu: Read timed out waiting for buffer map")
		default:
			time.Sleep(time.Millisecond)
		}
	}
}
