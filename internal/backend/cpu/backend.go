// Package cpu implements the pure-Go matrix backend.
//
// It is the reference implementation of mat.Backend: column-major loops
// fanned out through the parallel worker pool. Deterministic and always
// available; the unit tests for the layer core run against it.
package cpu

import (
	"fmt"
	"math"

	"github.com/ycktw/libdnn/internal/mat"
	"github.com/ycktw/libdnn/internal/parallel"
)

// storage backs a device allocation with a plain Go slice.
type storage struct {
	data []float32
}

// Len returns the number of elements.
func (s *storage) Len() int { return len(s.data) }

// CPUBackend implements mat.Backend on the host CPU.
type CPUBackend struct {
	cfg parallel.Config
}

// New creates a CPU backend with default parallelism.
func New() *CPUBackend {
	return &CPUBackend{cfg: parallel.DefaultConfig()}
}

// NewSequential creates a CPU backend that never spawns workers.
// Useful for deterministic profiling and race debugging.
func NewSequential() *CPUBackend {
	cfg := parallel.DefaultConfig()
	cfg.Enabled = false
	return &CPUBackend{cfg: cfg}
}

// Name returns the backend name.
func (c *CPUBackend) Name() string { return "CPU" }

// Alloc creates a zero-filled allocation of n elements.
func (c *CPUBackend) Alloc(n int) mat.Storage {
	return &storage{data: make([]float32, n)}
}

// slice extracts the backing slice of a matrix owned by this backend.
func slice(m *mat.Matrix) []float32 {
	s, ok := m.Storage().(*storage)
	if !ok {
		panic(fmt.Sprintf("cpu: matrix storage is %T, not CPU storage", m.Storage()))
	}
	return s.data
}

// Copy overwrites dst's storage with src's.
func (c *CPUBackend) Copy(dst, src *mat.Matrix) {
	if dst.Rows() != src.Rows() || dst.Cols() != src.Cols() {
		panic(fmt.Sprintf("cpu: Copy shape mismatch: %d×%d vs %d×%d",
			dst.Rows(), dst.Cols(), src.Rows(), src.Cols()))
	}
	copy(slice(dst), slice(src))
}

// Geam computes dst[dr:, dc:] = alpha*a[ar:, ac:] + beta*b[br:, bc:] over a
// rows×cols window. dst may alias b at the same offsets.
func (c *CPUBackend) Geam(dst *mat.Matrix, dr, dc int, alpha float32, a *mat.Matrix, ar, ac int,
	beta float32, b *mat.Matrix, br, bc int, rows, cols int) {
	dd, ad, bd := slice(dst), slice(a), slice(b)
	dld, ald, bld := dst.Rows(), a.Rows(), b.Rows()
	parallel.ForRegion(rows, cols, func(r, col int) {
		dd[(dc+col)*dld+dr+r] = alpha*ad[(ac+col)*ald+ar+r] + beta*bd[(bc+col)*bld+br+r]
	}, c.cfg)
}

// Gemm computes dst[dr:, dc:] = alpha*op(A)·op(B) + beta*dst[dr:, dc:]
// for an m×n output window with contraction length k.
// dst must not alias a or b.
func (c *CPUBackend) Gemm(dst *mat.Matrix, dr, dc int, alpha float32,
	a *mat.Matrix, ar, ac int, transA bool,
	b *mat.Matrix, br, bc int, transB bool,
	m, n, k int, beta float32) {
	dd, ad, bd := slice(dst), slice(a), slice(b)
	dld, ald, bld := dst.Rows(), a.Rows(), b.Rows()

	at := func(i, p int) float32 {
		if transA {
			return ad[(ac+i)*ald+ar+p]
		}
		return ad[(ac+p)*ald+ar+i]
	}
	bt := func(p, j int) float32 {
		if transB {
			return bd[(bc+p)*bld+br+j]
		}
		return bd[(bc+j)*bld+br+p]
	}

	parallel.ForRegion(m, n, func(i, j int) {
		var sum float32
		for p := 0; p < k; p++ {
			sum += at(i, p) * bt(p, j)
		}
		idx := (dc+j)*dld + dr + i
		dd[idx] = alpha*sum + beta*dd[idx]
	}, c.cfg)
}

// Mul computes the Hadamard product dst = a ⊙ b.
func (c *CPUBackend) Mul(dst, a, b *mat.Matrix) {
	if a.Rows() != b.Rows() || a.Cols() != b.Cols() ||
		dst.Rows() != a.Rows() || dst.Cols() != a.Cols() {
		panic(fmt.Sprintf("cpu: Mul shape mismatch: dst %d×%d, a %d×%d, b %d×%d",
			dst.Rows(), dst.Cols(), a.Rows(), a.Cols(), b.Rows(), b.Cols()))
	}
	dd, ad, bd := slice(dst), slice(a), slice(b)
	parallel.For(len(dd), func(i int) {
		dd[i] = ad[i] * bd[i]
	}, c.cfg)
}

// Apply maps fn over every element of src, writing to dst.
func (c *CPUBackend) Apply(dst, src *mat.Matrix, fn mat.ElemFunc) {
	if dst.Rows() != src.Rows() || dst.Cols() != src.Cols() {
		panic(fmt.Sprintf("cpu: Apply shape mismatch: %d×%d vs %d×%d",
			dst.Rows(), dst.Cols(), src.Rows(), src.Cols()))
	}
	f := elemFunc(fn)
	dd, sd := slice(dst), slice(src)
	parallel.For(len(dd), func(i int) {
		dd[i] = f(sd[i])
	}, c.cfg)
}

// elemFunc resolves an ElemFunc id to its scalar implementation.
func elemFunc(fn mat.ElemFunc) func(float32) float32 {
	switch fn {
	case mat.FuncSigmoid:
		return func(x float32) float32 {
			return float32(1.0 / (1.0 + math.Exp(-float64(x))))
		}
	case mat.FuncExp:
		return func(x float32) float32 {
			return float32(math.Exp(float64(x)))
		}
	case mat.FuncTanh:
		return func(x float32) float32 {
			return float32(math.Tanh(float64(x)))
		}
	case mat.FuncNeg:
		return func(x float32) float32 { return -x }
	default:
		panic(fmt.Sprintf("cpu: unsupported elementwise function %v", fn))
	}
}

// Softmax computes a stable row-wise softmax of src into dst.
// Rows are independent, so the fan-out is one unit of work per row.
func (c *CPUBackend) Softmax(dst, src *mat.Matrix) {
	if dst.Rows() != src.Rows() || dst.Cols() != src.Cols() {
		panic(fmt.Sprintf("cpu: Softmax shape mismatch: %d×%d vs %d×%d",
			dst.Rows(), dst.Cols(), src.Rows(), src.Cols()))
	}
	dd, sd := slice(dst), slice(src)
	rows, cols := src.Rows(), src.Cols()
	parallel.For(rows, func(r int) {
		rowMax := sd[r]
		for j := 1; j < cols; j++ {
			if v := sd[j*rows+r]; v > rowMax {
				rowMax = v
			}
		}
		var sum float32
		for j := 0; j < cols; j++ {
			e := float32(math.Exp(float64(sd[j*rows+r] - rowMax)))
			dd[j*rows+r] = e
			sum += e
		}
		for j := 0; j < cols; j++ {
			dd[j*rows+r] /= sum
		}
	}, c.cfg)
}

// Fill sets the rows×cols region of dst at (r, c) to value.
func (c *CPUBackend) Fill(dst *mat.Matrix, r, col, rows, cols int, value float32) {
	dd := slice(dst)
	ld := dst.Rows()
	parallel.ForRegion(rows, cols, func(i, j int) {
		dd[(col+j)*ld+r+i] = value
	}, c.cfg)
}

// Read downloads src in column-major order.
func (c *CPUBackend) Read(src *mat.Matrix) []float32 {
	out := make([]float32, src.Size())
	copy(out, slice(src))
	return out
}

// Write uploads column-major data into dst.
func (c *CPUBackend) Write(dst *mat.Matrix, data []float32) {
	if len(data) != dst.Size() {
		panic(fmt.Sprintf("cpu: Write length %d, want %d", len(data), dst.Size()))
	}
	copy(slice(dst), data)
}
