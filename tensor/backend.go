// Copyright 2025 The dll Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

// Backend defines the interface that all compute backends must implement.
// Backends handle the actual computation for tensor operations; the layer
// family consumes exactly this operation set and nothing more.
//
// Implementations:
//   - backend/cpu: pure Go reference implementation, every operation
//   - backend/webgpu: partial GPU backend (element-wise subset, Windows)
//
// Example:
//
//	import (
//	    "github.com/riverdarda/dll/tensor"
//	    "github.com/riverdarda/dll/backend/cpu"
//	)
//
//	backend := cpu.New()
//	x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//	z := x.Add(y)  // Uses backend.Add under the hood
type Backend interface {
	// Element-wise binary operations (same-shape operands).
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor // Hadamard product
	Div(a, b *RawTensor) *RawTensor

	// Matrix multiplication: [M,K] @ [K,N] -> [M,N].
	MatMul(a, b *RawTensor) *RawTensor

	// Rank-4 correlations with kernel flip. Input is [N,C,H,W];
	// kernels are [K,C,KH,KW]. Valid produces the forward activation,
	// Full propagates output errors back to input size, and
	// ValidFilter produces the per-filter weight gradient.
	Conv4DValidFlipped(input, kernel *RawTensor) *RawTensor
	Conv4DFullFlipped(errors, kernel *RawTensor) *RawTensor
	Conv4DValidFilterFlipped(input, errors *RawTensor) *RawTensor

	// Non-overlapping average pooling over the two trailing
	// dimensions of a rank-4 tensor, and its adjoint.
	AvgPool2D(x *RawTensor, poolH, poolW int) *RawTensor
	AvgPool2DBackward(errors *RawTensor, poolH, poolW int) *RawTensor

	// Reductions along a single dimension.
	SumDim(x *RawTensor, dim int, keepDim bool) *RawTensor
	MeanDim(x *RawTensor, dim int, keepDim bool) *RawTensor

	// Shape operations.
	Reshape(x *RawTensor, shape Shape) *RawTensor
	Transpose(x *RawTensor) *RawTensor           // rank-2
	Unsqueeze(x *RawTensor, dim int) *RawTensor  // insert dimension of size 1
	Expand(x *RawTensor, shape Shape) *RawTensor // replicate size-1 dimensions

	// Metadata.
	Name() string
	Device() Device
}
