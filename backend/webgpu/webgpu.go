// Copyright 2025 The libdnn Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu exposes the GPU matrix backend.
//
// Matrices allocated on this backend live in GPU buffers for their whole
// lifetime; every primitive runs as a WGSL compute kernel.
package webgpu

import (
	internalwebgpu "github.com/ycktw/libdnn/internal/backend/webgpu"
	"github.com/ycktw/libdnn/mat"
)

// Backend is the WebGPU implementation of mat.Backend.
type Backend = internalwebgpu.Backend

// Compile-time check that Backend implements mat.Backend.
var _ mat.Backend = (*Backend)(nil)

// New creates a WebGPU backend. Returns an error when no GPU adapter or
// device is available, so callers can fall back to the CPU backend:
//
//	var backend mat.Backend
//	if gpu, err := webgpu.New(); err == nil {
//	    backend = gpu
//	} else {
//	    backend = cpu.New()
//	}
func New() (*Backend, error) {
	return internalwebgpu.New()
}
