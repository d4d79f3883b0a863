//go:build windows

package webgpu

import (
	"fmt"

	"github.com/riverdarda/dll/internal/tensor"
)

// Add performs element-wise addition on the GPU.
func (b *Backend) Add(a, other *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runBinaryOp(a, other, "add", addShader)
	if err != nil {
		panic("webgpu: Add: " + err.Error())
	}
	return result
}

// Sub performs element-wise subtraction on the GPU.
func (b *Backend) Sub(a, other *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runBinaryOp(a, other, "sub", subShader)
	if err != nil {
		panic("webgpu: Sub: " + err.Error())
	}
	return result
}

// Mul performs element-wise multiplication on the GPU.
func (b *Backend) Mul(a, other *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runBinaryOp(a, other, "mul", mulShader)
	if err != nil {
		panic("webgpu: Mul: " + err.Error())
	}
	return result
}

// Div performs element-wise division on the GPU.
func (b *Backend) Div(a, other *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runBinaryOp(a, other, "div", divShader)
	if err != nil {
		panic("webgpu: Div: " + err.Error())
	}
	return result
}

// Reshape returns a view of x with a new shape. Purely a metadata
// operation, no GPU work is dispatched.
func (b *Backend) Reshape(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	if x.NumElements() != shape.NumElements() {
		panic(fmt.Sprintf("webgpu: reshape: cannot reshape %v (%d elements) to %v (%d elements)",
			x.Shape(), x.NumElements(), shape, shape.NumElements()))
	}
	return x.View(shape)
}

// Unsqueeze inserts a dimension of size 1 at position dim. Purely a
// metadata operation, no GPU work is dispatched.
func (b *Backend) Unsqueeze(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	xs := x.Shape()
	ndim := len(xs)

	if dim < 0 {
		dim = ndim + 1 + dim
	}
	if dim < 0 || dim > ndim {
		panic(fmt.Sprintf("webgpu: unsqueeze: dimension %d out of range for %dD tensor", dim, ndim))
	}

	newShape := make(tensor.Shape, 0, ndim+1)
	newShape = append(newShape, xs[:dim]...)
	newShape = append(newShape, 1)
	newShape = append(newShape, xs[dim:]...)

	return x.View(newShape)
}

// MatMul is not implemented on the WebGPU backend yet.
func (b *Backend) MatMul(a, other *tensor.RawTensor) *tensor.RawTensor {
	panic("webgpu: MatMul not implemented")
}

// Conv4DValidFlipped is not implemented on the WebGPU backend yet.
func (b *Backend) Conv4DValidFlipped(input, kernel *tensor.RawTensor) *tensor.RawTensor {
	panic("webgpu: Conv4DValidFlipped not implemented")
}

// Conv4DFullFlipped is not implemented on the WebGPU backend yet.
func (b *Backend) Conv4DFullFlipped(errors, kernel *tensor.RawTensor) *tensor.RawTensor {
	panic("webgpu: Conv4DFullFlipped not implemented")
}

// Conv4DValidFilterFlipped is not implemented on the WebGPU backend yet.
func (b *Backend) Conv4DValidFilterFlipped(input, errors *tensor.RawTensor) *tensor.RawTensor {
	panic("webgpu: Conv4DValidFilterFlipped not implemented")
}

// AvgPool2D is not implemented on the WebGPU backend yet.
func (b *Backend) AvgPool2D(x *tensor.RawTensor, poolH, poolW int) *tensor.RawTensor {
	panic("webgpu: AvgPool2D not implemented")
}

// AvgPool2DBackward is not implemented on the WebGPU backend yet.
func (b *Backend) AvgPool2DBackward(errors *tensor.RawTensor, poolH, poolW int) *tensor.RawTensor {
	panic("webgpu: AvgPool2DBackward not implemented")
}

// SumDim is not implemented on the WebGPU backend yet.
func (b *Backend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	panic("webgpu: SumDim not implemented")
}

// MeanDim is not implemented on the WebGPU backend yet.
func (b *Backend) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	panic("webgpu: MeanDim not implemented")
}

// Transpose is not implemented on the WebGPU backend yet.
func (b *Backend) Transpose(x *tensor.RawTensor) *tensor.RawTensor {
	panic("webgpu: Transpose not implemented")
}

// Expand is not implemented on the WebGPU backend yet.
func (b *Backend) Expand(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	panic("webgpu: Expand not implemented")
}
