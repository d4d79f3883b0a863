// Copyright 2025 The dll Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the pure Go CPU backend for tensor operations.
//
// # Overview
//
// This package implements the reference compute backend:
//   - Pure Go implementation (no CGO)
//   - Direct-loop correlation, pooling, matmul and reduction kernels
//   - Float32 and Float64 support
//   - Batch and filter loops parallelized across goroutines
//
// # Basic Usage
//
//	import (
//	    "github.com/riverdarda/dll/backend/cpu"
//	    "github.com/riverdarda/dll/layer"
//	    "github.com/riverdarda/dll/tensor"
//	)
//
//	func main() {
//	    // Create CPU backend
//	    backend := cpu.New()
//
//	    // Use with tensors
//	    x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	    y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//	    z := x.Add(y)
//	    _ = z
//
//	    // Use with layers
//	    conv := layer.NewConv(backend, layer.ConvDesc{
//	        Channels: 1, InHeight: 28, InWidth: 28,
//	        Filters: 6, OutHeight: 24, OutWidth: 24,
//	    })
//	    _ = conv
//	}
//
// # Determinism
//
// Every kernel is deterministic for a fixed input: goroutines only ever
// write disjoint output slices, so parallel and sequential execution
// produce identical results. Precondition violations (shape or rank
// mismatches) panic with a message naming the operation.
//
// # Thread Safety
//
// The CPU backend is safe for concurrent use. Operations share no
// mutable state beyond the configuration they were constructed with.
package cpu
