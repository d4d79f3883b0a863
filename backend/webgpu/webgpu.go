//go:build windows

// Copyright 2025 The dll Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu provides the WebGPU backend for GPU-accelerated tensor
// operations.
//
// The backend is partial: element-wise operations run on the GPU via
// WGSL compute shaders, shape operations are metadata-only, and the
// remaining kernels panic as not implemented. Use the cpu backend for
// full layer stacks.
//
// Example:
//
//	import (
//	    "github.com/riverdarda/dll/backend/webgpu"
//	    "github.com/riverdarda/dll/tensor"
//	)
//
//	func main() {
//	    gpu, err := webgpu.New()
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer gpu.Release()
//
//	    x := tensor.Ones[float32](tensor.Shape{1024}, gpu)
//	    y := tensor.Ones[float32](tensor.Shape{1024}, gpu)
//	    z := x.Add(y)
//	    _ = z
//	}
package webgpu

import (
	internalwebgpu "github.com/riverdarda/dll/internal/backend/webgpu"
	"github.com/riverdarda/dll/tensor"
)

// Backend represents the WebGPU backend implementation.
type Backend = internalwebgpu.Backend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a new WebGPU backend.
//
// This function initializes the WebGPU device and returns a backend
// ready for tensor operations. Call Release() when done to free GPU
// resources.
//
// Returns an error if WebGPU initialization fails (e.g., no compatible GPU).
func New() (*Backend, error) {
	return internalwebgpu.New()
}

// IsAvailable checks if WebGPU is available on the current system.
//
// It attempts to initialize a WebGPU adapter to verify that a
// compatible GPU and drivers are present. Useful for graceful fallback
// to the CPU backend:
//
//	if webgpu.IsAvailable() {
//	    backend, _ = webgpu.New()
//	} else {
//	    backend = cpu.New()
//	}
func IsAvailable() bool {
	return internalwebgpu.IsAvailable()
}
