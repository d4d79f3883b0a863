package cpu

import (
	"fmt"

	"github.com/riverdarda/dll/internal/parallel"
	"github.com/riverdarda/dll/internal/tensor"
)

// AvgPool2D performs non-overlapping average pooling:
//
//	x      [N, C, H, W]
//	output [N, C, H/poolH, W/poolW]
//
// The pool dimensions must divide the spatial dimensions exactly.
func (cpu *CPUBackend) AvgPool2D(x *tensor.RawTensor, poolH, poolW int) *tensor.RawTensor {
	xs := x.Shape()
	if len(xs) != 4 {
		panic(fmt.Sprintf("avgpool2d: expected 4D input, got %dD", len(xs)))
	}
	if poolH <= 0 || poolW <= 0 {
		panic(fmt.Sprintf("avgpool2d: invalid pool size %dx%d", poolH, poolW))
	}

	n, c, h, w := xs[0], xs[1], xs[2], xs[3]
	if h%poolH != 0 || w%poolW != 0 {
		panic(fmt.Sprintf("avgpool2d: pool %dx%d does not divide input %dx%d", poolH, poolW, h, w))
	}

	oh, ow := h/poolH, w/poolW
	out := cpu.newResult("avgpool2d", tensor.Shape{n, c, oh, ow}, x.DType())

	switch x.DType() {
	case tensor.Float32:
		avgPool(out.AsFloat32(), x.AsFloat32(), n, c, h, w, poolH, poolW, cpu.pool)
	case tensor.Float64:
		avgPool(out.AsFloat64(), x.AsFloat64(), n, c, h, w, poolH, poolW, cpu.pool)
	}
	return out
}

// AvgPool2DBackward distributes pooled errors back over their windows:
//
//	errors [N, C, OH, OW]
//	output [N, C, OH*poolH, OW*poolW]
//
// Each error element contributes errors[n,c,y,x] / (poolH*poolW) to
// every input position of its window, the adjoint of AvgPool2D.
func (cpu *CPUBackend) AvgPool2DBackward(errors *tensor.RawTensor, poolH, poolW int) *tensor.RawTensor {
	es := errors.Shape()
	if len(es) != 4 {
		panic(fmt.Sprintf("avgpool2d_backward: expected 4D errors, got %dD", len(es)))
	}
	if poolH <= 0 || poolW <= 0 {
		panic(fmt.Sprintf("avgpool2d_backward: invalid pool size %dx%d", poolH, poolW))
	}

	n, c, oh, ow := es[0], es[1], es[2], es[3]
	h, w := oh*poolH, ow*poolW
	out := cpu.newResult("avgpool2d_backward", tensor.Shape{n, c, h, w}, errors.DType())

	switch errors.DType() {
	case tensor.Float32:
		avgPoolBackward(out.AsFloat32(), errors.AsFloat32(), n, c, oh, ow, poolH, poolW, cpu.pool)
	case tensor.Float64:
		avgPoolBackward(out.AsFloat64(), errors.AsFloat64(), n, c, oh, ow, poolH, poolW, cpu.pool)
	}
	return out
}

func avgPool[T tensor.DType](dst, src []T, n, c, h, w, poolH, poolW int, pool parallel.Config) {
	oh, ow := h/poolH, w/poolW
	norm := T(1) / T(poolH*poolW)

	parallel.ForBatch(n, c, func(img, ch int) {
		inPlane := src[(img*c+ch)*h*w:]
		outPlane := dst[(img*c+ch)*oh*ow:]
		for oy := 0; oy < oh; oy++ {
			for ox := 0; ox < ow; ox++ {
				var sum T
				for a := 0; a < poolH; a++ {
					inRow := inPlane[(oy*poolH+a)*w+ox*poolW:]
					for b := 0; b < poolW; b++ {
						sum += inRow[b]
					}
				}
				outPlane[oy*ow+ox] = sum * norm
			}
		}
	}, pool)
}

func avgPoolBackward[T tensor.DType](dst, errs []T, n, c, oh, ow, poolH, poolW int, pool parallel.Config) {
	h, w := oh*poolH, ow*poolW
	norm := T(1) / T(poolH*poolW)

	parallel.ForBatch(n, c, func(img, ch int) {
		errPlane := errs[(img*c+ch)*oh*ow:]
		outPlane := dst[(img*c+ch)*h*w:]
		for oy := 0; oy < oh; oy++ {
			for ox := 0; ox < ow; ox++ {
				share := errPlane[oy*ow+ox] * norm
				for a := 0; a < poolH; a++ {
					outRow := outPlane[(oy*poolH+a)*w+ox*poolW:]
					for b := 0; b < poolW; b++ {
						outRow[b] = share
					}
				}
			}
		}
	}, pool)
}
