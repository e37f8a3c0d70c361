// Copyright 2025 The libdnn Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu exposes the pure-Go matrix backend.
package cpu

import (
	internalcpu "github.com/ycktw/libdnn/internal/backend/cpu"
	"github.com/ycktw/libdnn/mat"
)

// Backend is the CPU implementation of mat.Backend: column-major Go
// loops fanned out across a worker pool.
type Backend = internalcpu.CPUBackend

// Compile-time check that Backend implements mat.Backend.
var _ mat.Backend = (*Backend)(nil)

// New creates a new CPU backend.
//
// Example:
//
//	backend := cpu.New()
//	w := mat.Randn(3, 2, backend)
func New() *Backend {
	return internalcpu.New()
}

// NewSequential creates a CPU backend that never spawns workers.
func NewSequential() *Backend {
	return internalcpu.NewSequential()
}
