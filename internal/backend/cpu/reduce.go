package cpu

import (
	"fmt"

	"github.com/riverdarda/dll/internal/tensor"
)

// SumDim sums tensor elements along the specified dimension.
//
// Parameters:
//   - dim: dimension to reduce (supports negative indexing: -1 = last dim)
//   - keepDim: if true, keep the reduced dimension with size 1; if false, remove it
//
// Example:
//
//	x := tensor.Randn[float32](tensor.Shape{2, 3, 4}, backend)
//	y := backend.SumDim(x.Raw(), -1, true)  // shape: [2, 3, 1]
//	z := backend.SumDim(x.Raw(), -1, false) // shape: [2, 3]
func (cpu *CPUBackend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	shape := x.Shape()
	ndim := len(shape)

	if dim < 0 {
		dim = ndim + dim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("sumdim: dimension %d out of range for %dD tensor", dim, ndim))
	}

	var outShape tensor.Shape
	if keepDim {
		outShape = shape.Clone()
		outShape[dim] = 1
	} else {
		outShape = make(tensor.Shape, 0, ndim-1)
		for i := 0; i < ndim; i++ {
			if i != dim {
				outShape = append(outShape, shape[i])
			}
		}
	}

	out := cpu.newResult("sumdim", outShape, x.DType())

	switch x.DType() {
	case tensor.Float32:
		sumDim(out.AsFloat32(), x.AsFloat32(), shape, dim)
	case tensor.Float64:
		sumDim(out.AsFloat64(), x.AsFloat64(), shape, dim)
	}
	return out
}

// MeanDim computes the mean of tensor elements along the specified
// dimension. Same dim/keepDim conventions as SumDim.
func (cpu *CPUBackend) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	out := cpu.SumDim(x, dim, keepDim)

	shape := x.Shape()
	if dim < 0 {
		dim = len(shape) + dim
	}
	divisor := shape[dim]

	switch out.DType() {
	case tensor.Float32:
		scaleLoop(out.AsFloat32(), 1/float32(divisor))
	case tensor.Float64:
		scaleLoop(out.AsFloat64(), 1/float64(divisor))
	}
	return out
}

// sumDim walks the input once, accumulating into the output position
// obtained by dropping the reduced coordinate.
func sumDim[T tensor.DType](dst, src []T, shape tensor.Shape, dim int) {
	strides := shape.ComputeStrides()

	outShape := shape.Clone()
	outShape[dim] = 1
	outStrides := outShape.ComputeStrides()

	for i := range src {
		outIdx := 0
		temp := i
		for d := 0; d < len(shape); d++ {
			coord := temp / strides[d]
			temp %= strides[d]
			if d != dim {
				outIdx += coord * outStrides[d]
			}
		}
		dst[outIdx] += src[i]
	}
}

func scaleLoop[T tensor.DType](data []T, factor T) {
	for i := range data {
		data[i] *= factor
	}
}
