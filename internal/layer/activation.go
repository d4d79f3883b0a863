package layer

import (
	"fmt"
	"math"

	"github.com/riverdarda/dll/internal/tensor"
)

// Activation is the element-wise nonlinearity applied by neural
// layers. Forward writes f(src) into dst. Derivative writes f'(x)
// into dst given activated = f(x); the backward pass evaluates the
// derivative at the stored activation, so no pre-activation values
// are kept. dst may be the same tensor as the source.
type Activation interface {
	Forward(dst, src *tensor.RawTensor)
	Derivative(dst, activated *tensor.RawTensor)
	String() string
}

func activationOrDefault(a Activation) Activation {
	if a == nil {
		return Sigmoid{}
	}
	return a
}

// Identity applies no nonlinearity.
type Identity struct{}

func (Identity) Forward(dst, src *tensor.RawTensor) {
	mapUnary(dst, src, func(x float64) float64 { return x })
}

func (Identity) Derivative(dst, activated *tensor.RawTensor) {
	mapUnary(dst, activated, func(float64) float64 { return 1 })
}

func (Identity) String() string { return "identity" }

// Sigmoid is the logistic activation.
type Sigmoid struct{}

func (Sigmoid) Forward(dst, src *tensor.RawTensor) {
	mapUnary(dst, src, func(x float64) float64 { return 1 / (1 + math.Exp(-x)) })
}

// Derivative computes s*(1-s) from the already-activated output s.
func (Sigmoid) Derivative(dst, activated *tensor.RawTensor) {
	mapUnary(dst, activated, func(s float64) float64 { return s * (1 - s) })
}

func (Sigmoid) String() string { return "sigmoid" }

// Tanh is the hyperbolic tangent activation.
type Tanh struct{}

func (Tanh) Forward(dst, src *tensor.RawTensor) {
	mapUnary(dst, src, math.Tanh)
}

func (Tanh) Derivative(dst, activated *tensor.RawTensor) {
	mapUnary(dst, activated, func(t float64) float64 { return 1 - t*t })
}

func (Tanh) String() string { return "tanh" }

// ReLU is the rectified linear activation.
type ReLU struct{}

func (ReLU) Forward(dst, src *tensor.RawTensor) {
	mapUnary(dst, src, func(x float64) float64 { return math.Max(0, x) })
}

func (ReLU) Derivative(dst, activated *tensor.RawTensor) {
	mapUnary(dst, activated, func(a float64) float64 {
		if a > 0 {
			return 1
		}
		return 0
	})
}

func (ReLU) String() string { return "relu" }

// Softmax normalizes over the trailing dimension, producing one
// distribution per leading index. Derivative writes ones: softmax is
// paired with a cross-entropy error signal that already carries the
// combined gradient.
type Softmax struct{}

func (Softmax) Forward(dst, src *tensor.RawTensor) {
	sameShape("softmax", dst, src)

	width := 1
	if shape := src.Shape(); len(shape) > 0 {
		width = shape[len(shape)-1]
	}

	switch src.DType() {
	case tensor.Float32:
		softmaxLoop(dst.AsFloat32(), src.AsFloat32(), width)
	case tensor.Float64:
		softmaxLoop(dst.AsFloat64(), src.AsFloat64(), width)
	default:
		panic(fmt.Sprintf("softmax: unsupported dtype %s", src.DType()))
	}
}

func (Softmax) Derivative(dst, activated *tensor.RawTensor) {
	mapUnary(dst, activated, func(float64) float64 { return 1 })
}

func (Softmax) String() string { return "softmax" }

func sameShape(op string, a, b *tensor.RawTensor) {
	if !a.Shape().Equal(b.Shape()) {
		panic(fmt.Sprintf("%s: shape mismatch %v vs %v", op, a.Shape(), b.Shape()))
	}
}

// mapUnary applies f element-wise, reading src and writing dst.
func mapUnary(dst, src *tensor.RawTensor, f func(float64) float64) {
	sameShape("activation", dst, src)

	switch src.DType() {
	case tensor.Float32:
		d, s := dst.AsFloat32(), src.AsFloat32()
		for i, v := range s {
			d[i] = float32(f(float64(v)))
		}
	case tensor.Float64:
		d, s := dst.AsFloat64(), src.AsFloat64()
		for i, v := range s {
			d[i] = f(v)
		}
	default:
		panic(fmt.Sprintf("activation: unsupported dtype %s", src.DType()))
	}
}

// softmaxLoop computes a max-shifted softmax over each row of width
// elements.
func softmaxLoop[T tensor.DType](dst, src []T, width int) {
	for row := 0; row < len(src); row += width {
		s := src[row : row+width]
		d := dst[row : row+width]

		maxv := float64(s[0])
		for _, v := range s[1:] {
			if float64(v) > maxv {
				maxv = float64(v)
			}
		}

		var sum float64
		for i, v := range s {
			e := math.Exp(float64(v) - maxv)
			d[i] = T(e)
			sum += e
		}
		for i := range d {
			d[i] = T(float64(d[i]) / sum)
		}
	}
}
