package cpu

import (
	"fmt"

	"github.com/riverdarda/dll/internal/tensor"
)

// Reshape returns a view of x under a new shape. The element count must
// be unchanged. No data is copied; the result shares x's buffer.
func (cpu *CPUBackend) Reshape(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	if x.NumElements() != shape.NumElements() {
		panic(fmt.Sprintf("reshape: cannot reshape %v (%d elements) to %v (%d elements)",
			x.Shape(), x.NumElements(), shape, shape.NumElements()))
	}
	return x.View(shape)
}

// Transpose transposes a rank-2 tensor: (M, N) -> (N, M).
func (cpu *CPUBackend) Transpose(x *tensor.RawTensor) *tensor.RawTensor {
	xs := x.Shape()
	if len(xs) != 2 {
		panic(fmt.Sprintf("transpose: only 2D tensors supported, got %dD", len(xs)))
	}

	m, n := xs[0], xs[1]
	out := cpu.newResult("transpose", tensor.Shape{n, m}, x.DType())

	switch x.DType() {
	case tensor.Float32:
		transpose(out.AsFloat32(), x.AsFloat32(), m, n)
	case tensor.Float64:
		transpose(out.AsFloat64(), x.AsFloat64(), m, n)
	}
	return out
}

// Unsqueeze inserts a dimension of size 1 at the given position.
// Metadata only; the result shares x's buffer.
func (cpu *CPUBackend) Unsqueeze(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	xs := x.Shape()
	ndim := len(xs)

	if dim < 0 {
		dim = ndim + 1 + dim
	}
	if dim < 0 || dim > ndim {
		panic(fmt.Sprintf("unsqueeze: dimension %d out of range for %dD tensor", dim, ndim))
	}

	newShape := make(tensor.Shape, 0, ndim+1)
	newShape = append(newShape, xs[:dim]...)
	newShape = append(newShape, 1)
	newShape = append(newShape, xs[dim:]...)

	return x.View(newShape)
}

// Expand broadcasts x to a larger shape by replicating size-1
// dimensions. Shapes are aligned from the right; new leading dimensions
// may be introduced. The result is materialized.
func (cpu *CPUBackend) Expand(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	xs := x.Shape()
	if len(shape) < len(xs) {
		panic(fmt.Sprintf("expand: target shape %v has fewer dimensions than input shape %v", shape, xs))
	}

	offset := len(shape) - len(xs)
	for i := 0; i < len(xs); i++ {
		if xs[i] != 1 && xs[i] != shape[offset+i] {
			panic(fmt.Sprintf("expand: cannot expand dimension %d from %d to %d", i, xs[i], shape[offset+i]))
		}
	}

	out := cpu.newResult("expand", shape, x.DType())

	switch x.DType() {
	case tensor.Float32:
		expand(out.AsFloat32(), x.AsFloat32(), shape, xs, offset)
	case tensor.Float64:
		expand(out.AsFloat64(), x.AsFloat64(), shape, xs, offset)
	}
	return out
}

func transpose[T tensor.DType](dst, src []T, m, n int) {
	for i := 0; i < m; i++ {
		row := src[i*n : (i+1)*n]
		for j, v := range row {
			dst[j*m+i] = v
		}
	}
}

// expand maps every output index back to its source element, treating
// size-1 source dimensions as constant coordinates.
func expand[T tensor.DType](dst, src []T, outShape, inShape tensor.Shape, offset int) {
	outStrides := outShape.ComputeStrides()
	inStrides := inShape.ComputeStrides()

	for outIdx := range dst {
		inIdx := 0
		remaining := outIdx
		for d := 0; d < len(outShape); d++ {
			coord := remaining / outStrides[d]
			remaining %= outStrides[d]

			if d < offset {
				continue // new leading dimension, no source coordinate
			}
			if inShape[d-offset] == 1 {
				coord = 0
			}
			inIdx += coord * inStrides[d-offset]
		}
		dst[outIdx] = src[inIdx]
	}
}
