// Copyright 2025 The dll Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the tensor types and the compute-backend
// contract for the dll layer library.
//
// # Overview
//
// Tensors are the data structure every layer operates on. This package
// provides:
//   - Generic type-safe tensors (Tensor[T, B])
//   - The low-level RawTensor buffer representation
//   - The Backend interface compute implementations plug into
//   - Shape, DataType and Device definitions
//
// # Basic Usage
//
//	import (
//	    "github.com/riverdarda/dll/tensor"
//	    "github.com/riverdarda/dll/backend/cpu"
//	)
//
//	func main() {
//	    backend := cpu.New()
//
//	    // Create tensors
//	    x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	    y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//
//	    // Tensor operations
//	    z := x.Add(y)
//	    _ = z
//	}
//
// # Supported Data Types
//
// The tensor package supports the floating-point types the layer
// protocol computes with, via the DType constraint:
//   - float32 (the type the layer family instantiates)
//   - float64
//
// # Device Support
//
// Tensors can reside on different devices:
//   - CPU: reference pure Go backend, implements every operation
//   - WebGPU: partial GPU backend (element-wise subset, Windows)
//
// The device is carried per tensor; the backend that produced a tensor
// determines where its operations run.
package tensor
