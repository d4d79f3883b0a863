package cpu

import (
	"fmt"

	"github.com/riverdarda/dll/internal/parallel"
	"github.com/riverdarda/dll/internal/tensor"
)

// Conv4DValidFlipped computes the valid cross-correlation of a batch of
// images with a bank of pre-flipped filters:
//
//	input  [N, C, H, W]
//	kernel [K, C, KH, KW]
//	output [N, K, H-KH+1, W-KW+1]
//
// output[n,k,y,x] = sum_{c,a,b} input[n,c,y+a,x+b] * kernel[k,c,a,b]
func (cpu *CPUBackend) Conv4DValidFlipped(input, kernel *tensor.RawTensor) *tensor.RawTensor {
	in := input.Shape()
	kr := kernel.Shape()
	if len(in) != 4 || len(kr) != 4 {
		panic(fmt.Sprintf("conv4d_valid: expected 4D input and kernel, got %dD and %dD", len(in), len(kr)))
	}
	if input.DType() != kernel.DType() {
		panic(fmt.Sprintf("conv4d_valid: dtype mismatch %s vs %s", input.DType(), kernel.DType()))
	}

	n, c, h, w := in[0], in[1], in[2], in[3]
	k, kc, kh, kw := kr[0], kr[1], kr[2], kr[3]
	if c != kc {
		panic(fmt.Sprintf("conv4d_valid: input channels %d != kernel channels %d", c, kc))
	}
	if kh > h || kw > w {
		panic(fmt.Sprintf("conv4d_valid: kernel %dx%d larger than input %dx%d", kh, kw, h, w))
	}

	oh, ow := h-kh+1, w-kw+1
	out := cpu.newResult("conv4d_valid", tensor.Shape{n, k, oh, ow}, input.DType())

	switch input.DType() {
	case tensor.Float32:
		convValid(out.AsFloat32(), input.AsFloat32(), kernel.AsFloat32(), n, c, h, w, k, kh, kw, cpu.pool)
	case tensor.Float64:
		convValid(out.AsFloat64(), input.AsFloat64(), kernel.AsFloat64(), n, c, h, w, k, kh, kw, cpu.pool)
	}
	return out
}

// Conv4DFullFlipped computes the full cross-correlation that propagates
// output-shaped errors back to input-shaped errors (the adjoint of
// Conv4DValidFlipped with respect to its input):
//
//	errors [N, K, OH, OW]
//	kernel [K, C, KH, KW]
//	output [N, C, OH+KH-1, OW+KW-1]
//
// output[n,c,h,w] = sum_{k,y,x} errors[n,k,y,x] * kernel[k,c,h-y,w-x]
// with (h-y, w-x) clipped to the kernel extent.
func (cpu *CPUBackend) Conv4DFullFlipped(errors, kernel *tensor.RawTensor) *tensor.RawTensor {
	er := errors.Shape()
	kr := kernel.Shape()
	if len(er) != 4 || len(kr) != 4 {
		panic(fmt.Sprintf("conv4d_full: expected 4D errors and kernel, got %dD and %dD", len(er), len(kr)))
	}
	if errors.DType() != kernel.DType() {
		panic(fmt.Sprintf("conv4d_full: dtype mismatch %s vs %s", errors.DType(), kernel.DType()))
	}

	n, k, oh, ow := er[0], er[1], er[2], er[3]
	kk, c, kh, kw := kr[0], kr[1], kr[2], kr[3]
	if k != kk {
		panic(fmt.Sprintf("conv4d_full: errors filters %d != kernel filters %d", k, kk))
	}

	h, w := oh+kh-1, ow+kw-1
	out := cpu.newResult("conv4d_full", tensor.Shape{n, c, h, w}, errors.DType())

	switch errors.DType() {
	case tensor.Float32:
		convFull(out.AsFloat32(), errors.AsFloat32(), kernel.AsFloat32(), n, c, h, w, k, oh, ow, kh, kw, cpu.pool)
	case tensor.Float64:
		convFull(out.AsFloat64(), errors.AsFloat64(), kernel.AsFloat64(), n, c, h, w, k, oh, ow, kh, kw, cpu.pool)
	}
	return out
}

// Conv4DValidFilterFlipped computes the filter gradient of
// Conv4DValidFlipped: the valid cross-correlation of the forward input
// with output-shaped errors, summed over the batch:
//
//	input  [N, C, H, W]
//	errors [N, K, OH, OW]
//	output [K, C, H-OH+1, W-OW+1]
//
// output[k,c,a,b] = sum_{n,y,x} input[n,c,y+a,x+b] * errors[n,k,y,x]
func (cpu *CPUBackend) Conv4DValidFilterFlipped(input, errors *tensor.RawTensor) *tensor.RawTensor {
	in := input.Shape()
	er := errors.Shape()
	if len(in) != 4 || len(er) != 4 {
		panic(fmt.Sprintf("conv4d_filter: expected 4D input and errors, got %dD and %dD", len(in), len(er)))
	}
	if input.DType() != errors.DType() {
		panic(fmt.Sprintf("conv4d_filter: dtype mismatch %s vs %s", input.DType(), errors.DType()))
	}

	n, c, h, w := in[0], in[1], in[2], in[3]
	en, k, oh, ow := er[0], er[1], er[2], er[3]
	if n != en {
		panic(fmt.Sprintf("conv4d_filter: input batch %d != errors batch %d", n, en))
	}
	if oh > h || ow > w {
		panic(fmt.Sprintf("conv4d_filter: errors %dx%d larger than input %dx%d", oh, ow, h, w))
	}

	kh, kw := h-oh+1, w-ow+1
	out := cpu.newResult("conv4d_filter", tensor.Shape{k, c, kh, kw}, input.DType())

	switch input.DType() {
	case tensor.Float32:
		convFilter(out.AsFloat32(), input.AsFloat32(), errors.AsFloat32(), n, c, h, w, k, oh, ow, kh, kw, cpu.pool)
	case tensor.Float64:
		convFilter(out.AsFloat64(), input.AsFloat64(), errors.AsFloat64(), n, c, h, w, k, oh, ow, kh, kw, cpu.pool)
	}
	return out
}

// convValid parallelizes over (batch, filter) pairs; each pair owns one
// output plane.
func convValid[T tensor.DType](dst, src, krn []T, n, c, h, w, k, kh, kw int, pool parallel.Config) {
	oh, ow := h-kh+1, w-kw+1

	parallel.ForBatch(n, k, func(img, f int) {
		outPlane := dst[(img*k+f)*oh*ow:]
		for oy := 0; oy < oh; oy++ {
			for ox := 0; ox < ow; ox++ {
				var sum T
				for ch := 0; ch < c; ch++ {
					inPlane := src[(img*c+ch)*h*w:]
					krnPlane := krn[(f*c+ch)*kh*kw:]
					for a := 0; a < kh; a++ {
						inRow := inPlane[(oy+a)*w+ox:]
						krnRow := krnPlane[a*kw:]
						for b := 0; b < kw; b++ {
							sum += inRow[b] * krnRow[b]
						}
					}
				}
				outPlane[oy*ow+ox] = sum
			}
		}
	}, pool)
}

// convFull parallelizes over (batch, channel) pairs; each pair owns one
// output plane.
func convFull[T tensor.DType](dst, errs, krn []T, n, c, h, w, k, oh, ow, kh, kw int, pool parallel.Config) {
	parallel.ForBatch(n, c, func(img, ch int) {
		outPlane := dst[(img*c+ch)*h*w:]
		for y := 0; y < h; y++ {
			// Error rows that can reach output row y.
			eyLo := y - kh + 1
			if eyLo < 0 {
				eyLo = 0
			}
			eyHi := y
			if eyHi > oh-1 {
				eyHi = oh - 1
			}
			for x := 0; x < w; x++ {
				exLo := x - kw + 1
				if exLo < 0 {
					exLo = 0
				}
				exHi := x
				if exHi > ow-1 {
					exHi = ow - 1
				}

				var sum T
				for f := 0; f < k; f++ {
					errPlane := errs[(img*k+f)*oh*ow:]
					krnPlane := krn[(f*c+ch)*kh*kw:]
					for ey := eyLo; ey <= eyHi; ey++ {
						krnRow := krnPlane[(y-ey)*kw:]
						errRow := errPlane[ey*ow:]
						for ex := exLo; ex <= exHi; ex++ {
							sum += errRow[ex] * krnRow[x-ex]
						}
					}
				}
				outPlane[y*w+x] = sum
			}
		}
	}, pool)
}

// convFilter parallelizes over (filter, channel) pairs; each pair owns
// one gradient plane. The batch sum stays inside a single goroutine so
// accumulation order is fixed.
func convFilter[T tensor.DType](dst, src, errs []T, n, c, h, w, k, oh, ow, kh, kw int, pool parallel.Config) {
	parallel.ForBatch(k, c, func(f, ch int) {
		outPlane := dst[(f*c+ch)*kh*kw:]
		for a := 0; a < kh; a++ {
			for b := 0; b < kw; b++ {
				var sum T
				for img := 0; img < n; img++ {
					inPlane := src[(img*c+ch)*h*w:]
					errPlane := errs[(img*k+f)*oh*ow:]
					for y := 0; y < oh; y++ {
						inRow := inPlane[(y+a)*w+b:]
						errRow := errPlane[y*ow:]
						for x := 0; x < ow; x++ {
							sum += inRow[x] * errRow[x]
						}
					}
				}
				outPlane[a*kw+b] = sum
			}
		}
	}, pool)
}
