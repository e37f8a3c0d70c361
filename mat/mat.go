// Copyright 2025 The libdnn Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package mat provides the public API for libdnn's device-resident
// matrix type.
//
// A Matrix is a 2-D, column-major, fixed-shape dense array of float32
// that owns its backing device allocation exclusively. Computation is
// delegated to a Backend (CPU or WebGPU); data crosses the host/device
// boundary only through explicit Data/SetData calls.
//
// Example:
//
//	backend := cpu.New()
//	x := mat.New(3, 4, backend)
//	y := x.Clone()            // independent storage
//	z := x.Mul(y)             // Hadamard product
package mat

import (
	"github.com/ycktw/libdnn/internal/mat"
)

// Matrix is a dense rows×cols matrix of float32 in column-major layout
// with value semantics: Clone duplicates the device allocation.
type Matrix = mat.Matrix

// Storage is an opaque, backend-owned device allocation.
type Storage = mat.Storage

// Backend is the interface a matrix compute engine must implement.
type Backend = mat.Backend

// ElemFunc identifies an elementwise kernel for Backend.Apply.
type ElemFunc = mat.ElemFunc

// Supported elementwise kernels.
const (
	FuncSigmoid ElemFunc = mat.FuncSigmoid
	FuncExp     ElemFunc = mat.FuncExp
	FuncTanh    ElemFunc = mat.FuncTanh
	FuncNeg     ElemFunc = mat.FuncNeg
)

// New creates a zero-filled rows×cols matrix on the given backend.
func New(rows, cols int, b Backend) *Matrix {
	return mat.New(rows, cols, b)
}

// FromSlice creates a matrix from column-major data.
//
// Example:
//
//	// [1 3]
//	// [2 4]
//	m, err := mat.FromSlice([]float32{1, 2, 3, 4}, 2, 2, backend)
func FromSlice(data []float32, rows, cols int, b Backend) (*Matrix, error) {
	return mat.FromSlice(data, rows, cols, b)
}

// Full creates a matrix with every element set to value.
func Full(rows, cols int, value float32, b Backend) *Matrix {
	return mat.Full(rows, cols, value, b)
}

// Randn creates a matrix with elements drawn from N(0, 1).
func Randn(rows, cols int, b Backend) *Matrix {
	return mat.Randn(rows, cols, b)
}

// CopyRegion copies a rows×cols block from src (top-left at srcRow,
// srcCol) into dst at (dstRow, dstCol). A straight overwrite of the
// destination region. Panics if either region is out of range.
func CopyRegion(dst, src *Matrix, srcRow, srcCol, rows, cols, dstRow, dstCol int) {
	mat.CopyRegion(dst, src, srcRow, srcCol, rows, cols, dstRow, dstCol)
}

// Swap exchanges the contents of two matrices without copying storage.
func Swap(a, b *Matrix) {
	mat.Swap(a, b)
}
