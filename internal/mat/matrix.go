// Package mat implements the device-resident matrix type used by the
// libdnn layer core.
//
// A Matrix is a 2-D, column-major, fixed-shape dense array of float32,
// contiguous in device memory and owning its backing storage exclusively.
// All computation is delegated to a Backend; the matrix itself only tracks
// shape and ownership. Data crosses the host/device boundary solely through
// Backend.Read and Backend.Write.
package mat

import "fmt"

// Storage is an opaque, backend-owned allocation backing a Matrix.
// The CPU backend backs it with a Go slice, the WebGPU backend with a
// GPU buffer. Callers never touch storage contents directly.
type Storage interface {
	// Len returns the number of float32 elements in the allocation.
	Len() int
}

// Matrix is a dense rows×cols matrix of float32 in column-major layout.
//
// Value semantics: Clone duplicates the device allocation, so exactly one
// Matrix owns each Storage at a time. Assignment of the struct itself
// aliases storage and is reserved for internal swaps.
type Matrix struct {
	rows    int
	cols    int
	data    Storage
	backend Backend
}

// Rows returns the row count.
func (m *Matrix) Rows() int { return m.rows }

// Cols returns the column count.
func (m *Matrix) Cols() int { return m.cols }

// Size returns the total number of elements (rows × cols).
func (m *Matrix) Size() int { return m.rows * m.cols }

// Backend returns the backend that owns this matrix's storage.
func (m *Matrix) Backend() Backend { return m.backend }

// Storage returns the backing allocation. Backends type-assert this to
// their own storage type; other callers should not need it.
func (m *Matrix) Storage() Storage { return m.data }

// Clone returns a deep copy with independent device storage.
func (m *Matrix) Clone() *Matrix {
	c := New(m.rows, m.cols, m.backend)
	m.backend.Copy(c, m)
	return c
}

// Swap exchanges the contents of two matrices without copying storage.
// Both matrices must live on the same backend. This is the non-throwing
// half of the copy-and-swap idiom used by the layer types.
func Swap(a, b *Matrix) {
	if a.backend != b.backend {
		panic("mat: Swap across backends")
	}
	a.rows, b.rows = b.rows, a.rows
	a.cols, b.cols = b.cols, a.cols
	a.data, b.data = b.data, a.data
}

// Data downloads the matrix contents in column-major order.
// This crosses the device boundary; intended for inspection and tests.
func (m *Matrix) Data() []float32 {
	return m.backend.Read(m)
}

// SetData uploads column-major data into the matrix.
// Panics if len(data) does not equal Size().
func (m *Matrix) SetData(data []float32) {
	if len(data) != m.Size() {
		panic(fmt.Sprintf("mat: SetData length %d, want %d", len(data), m.Size()))
	}
	m.backend.Write(m, data)
}

// At returns the element at row i, column j. Slow path: downloads the
// full matrix. Use Data for bulk access.
func (m *Matrix) At(i, j int) float32 {
	m.checkIndex(i, j)
	return m.backend.Read(m)[j*m.rows+i]
}

// Set writes the element at row i, column j. Slow path, like At.
func (m *Matrix) Set(i, j int, v float32) {
	m.checkIndex(i, j)
	data := m.backend.Read(m)
	data[j*m.rows+i] = v
	m.backend.Write(m, data)
}

func (m *Matrix) checkIndex(i, j int) {
	if i < 0 || i >= m.rows || j < 0 || j >= m.cols {
		panic(fmt.Sprintf("mat: index (%d, %d) out of range for %d×%d matrix", i, j, m.rows, m.cols))
	}
}

// String returns a shape summary, not the contents.
func (m *Matrix) String() string {
	return fmt.Sprintf("Matrix(%d×%d, %s)", m.rows, m.cols, m.backend.Name())
}
