package mat

import (
	"fmt"
	"math/rand"
)

// New creates a zero-filled rows×cols matrix on the given backend.
// Panics if either dimension is not positive.
func New(rows, cols int, b Backend) *Matrix {
	if rows <= 0 || cols <= 0 {
		panic(fmt.Sprintf("mat: invalid shape %d×%d (dimensions must be > 0)", rows, cols))
	}
	return &Matrix{
		rows:    rows,
		cols:    cols,
		data:    b.Alloc(rows * cols),
		backend: b,
	}
}

// FromSlice creates a matrix from column-major data.
//
// The slice is copied onto the device; the caller keeps ownership of it.
func FromSlice(data []float32, rows, cols int, b Backend) (*Matrix, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("mat: invalid shape %d×%d", rows, cols)
	}
	if len(data) != rows*cols {
		return nil, fmt.Errorf("mat: data length %d does not match shape %d×%d", len(data), rows, cols)
	}
	m := New(rows, cols, b)
	b.Write(m, data)
	return m, nil
}

// Full creates a matrix with every element set to value.
func Full(rows, cols int, value float32, b Backend) *Matrix {
	m := New(rows, cols, b)
	b.Fill(m, 0, 0, rows, cols, value)
	return m
}

// Randn creates a matrix with elements drawn from N(0, 1).
func Randn(rows, cols int, b Backend) *Matrix {
	m := New(rows, cols, b)
	data := make([]float32, rows*cols)
	for i := range data {
		//nolint:gosec // math/rand is fine for weight initialization
		data[i] = float32(rand.NormFloat64())
	}
	b.Write(m, data)
	return m
}
