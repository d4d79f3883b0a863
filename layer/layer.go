// Copyright 2025 The dll Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package layer

import (
	"github.com/riverdarda/dll/internal/layer"
	"github.com/riverdarda/dll/tensor"
)

// Type aliases for public API

// Kind identifies a concrete layer variant.
type Kind = layer.Kind

// Layer variants. Every fixed kind has a dynamic dual; only
// construction and initialization differ between the two.
const (
	KindConv       Kind = layer.KindConv
	KindDynConv    Kind = layer.KindDynConv
	KindDense      Kind = layer.KindDense
	KindDynDense   Kind = layer.KindDynDense
	KindAvgPool    Kind = layer.KindAvgPool
	KindDynAvgPool Kind = layer.KindDynAvgPool
	KindPatches    Kind = layer.KindPatches
	KindDynPatches Kind = layer.KindDynPatches
)

// KindFromString resolves a variant name produced by Kind.String.
func KindFromString(name string) (Kind, error) {
	return layer.KindFromString(name)
}

// Traits is the capability record of a layer variant: a pure function
// of the Kind, available without instantiating the layer.
type Traits = layer.Traits

// TraitsOf returns the capability record for a layer kind.
func TraitsOf(k Kind) Traits {
	return layer.TraitsOf(k)
}

// Unit is the metadata contract shared by every layer variant.
type Unit = layer.Unit

// Forward is implemented by layers whose activation produces one
// tensor per sample.
type Forward[B tensor.Backend] = layer.Forward[B]

// Transform is implemented by parameterless layers whose activation
// yields a variable number of fixed-size tensors per sample.
type Transform[B tensor.Backend] = layer.Transform[B]

// Propagator is implemented by layers that participate in the backward
// pass of gradient training.
type Propagator[B tensor.Backend] = layer.Propagator[B]

// Neural is implemented by layers with learnable weights and biases.
type Neural[B tensor.Backend] = layer.Neural[B]

// Context carries the per-pass tensors of one layer: input, output,
// errors and, for neural layers, the parameter gradients.
type Context[B tensor.Backend] = layer.Context[B]

// Activations

// Activation is the element-wise nonlinearity strategy applied after a
// layer's linear part. Derivative is a function of the forward output.
type Activation = layer.Activation

// Activation implementations.
type (
	// Identity passes values through unchanged.
	Identity = layer.Identity
	// Sigmoid is the logistic function, the default activation.
	Sigmoid = layer.Sigmoid
	// Tanh is the hyperbolic tangent.
	Tanh = layer.Tanh
	// ReLU is the rectified linear unit.
	ReLU = layer.ReLU
	// Softmax normalizes each sample to a probability distribution.
	Softmax = layer.Softmax
)

// Initializers

// Initializer fills a freshly allocated parameter tensor.
type Initializer = layer.Initializer

// Initializer implementations.
type (
	// Zero fills with zeros, the usual choice for biases.
	Zero = layer.Zero
	// Gaussian fills with samples from N(Mean, Stddev^2).
	Gaussian = layer.Gaussian
	// Lecun scales a unit normal by 1/sqrt(fan-in), the default.
	Lecun = layer.Lecun
	// Xavier scales a unit normal by sqrt(2/(fan-in+fan-out)).
	Xavier = layer.Xavier
	// XavierFull scales a unit normal by sqrt(6/(fan-in+fan-out)).
	XavierFull = layer.XavierFull
	// He scales a unit normal by sqrt(2/fan-in).
	He = layer.He
)

// Convolution

// ConvDesc configures a fixed convolutional layer. The kernel size is
// derived as input - output + 1 per spatial dimension.
type ConvDesc = layer.ConvDesc

// Conv is the fixed-shape convolutional layer.
type Conv[B tensor.Backend] = layer.Conv[B]

// NewConv builds a convolutional layer with the dimensions frozen by
// its descriptor. Parameters are allocated and initialized here.
func NewConv[B tensor.Backend](backend B, desc ConvDesc) *Conv[B] {
	return layer.NewConv[B](backend, desc)
}

// DynConvDesc configures a dynamic convolutional layer: activation and
// initializers only. Dimensions arrive later through Init.
type DynConvDesc = layer.DynConvDesc

// DynConv is the runtime-shaped convolutional layer.
type DynConv[B tensor.Backend] = layer.DynConv[B]

// NewDynConv builds an unsized dynamic convolutional layer.
func NewDynConv[B tensor.Backend](backend B, desc DynConvDesc) *DynConv[B] {
	return layer.NewDynConv[B](backend, desc)
}

// Dense

// DenseDesc configures a fixed fully connected layer.
type DenseDesc = layer.DenseDesc

// Dense is the fixed-shape fully connected layer.
type Dense[B tensor.Backend] = layer.Dense[B]

// NewDense builds a fully connected layer with the dimensions frozen
// by its descriptor.
func NewDense[B tensor.Backend](backend B, desc DenseDesc) *Dense[B] {
	return layer.NewDense[B](backend, desc)
}

// DynDenseDesc configures a dynamic dense layer: activation and
// initializers only.
type DynDenseDesc = layer.DynDenseDesc

// DynDense is the runtime-shaped fully connected layer.
type DynDense[B tensor.Backend] = layer.DynDense[B]

// NewDynDense builds an unsized dynamic dense layer.
func NewDynDense[B tensor.Backend](backend B, desc DynDenseDesc) *DynDense[B] {
	return layer.NewDynDense[B](backend, desc)
}

// Average pooling

// AvgPoolDesc configures a non-overlapping average pooling layer.
type AvgPoolDesc = layer.AvgPoolDesc

// AvgPool is the fixed-shape average pooling layer.
type AvgPool[B tensor.Backend] = layer.AvgPool[B]

// NewAvgPool builds an average pooling layer. The pool must divide the
// input spatial dimensions exactly.
func NewAvgPool[B tensor.Backend](backend B, desc AvgPoolDesc) *AvgPool[B] {
	return layer.NewAvgPool[B](backend, desc)
}

// DynAvgPool is the runtime-shaped average pooling layer.
type DynAvgPool[B tensor.Backend] = layer.DynAvgPool[B]

// NewDynAvgPool builds an unsized dynamic average pooling layer.
func NewDynAvgPool[B tensor.Backend](backend B) *DynAvgPool[B] {
	return layer.NewDynAvgPool[B](backend)
}

// Patch extraction

// PatchesDesc configures a patch extraction layer: the window size and
// the scan strides.
type PatchesDesc = layer.PatchesDesc

// Patches is the fixed-shape patch extraction layer.
type Patches[B tensor.Backend] = layer.Patches[B]

// NewPatches builds a patch extraction layer.
func NewPatches[B tensor.Backend](backend B, desc PatchesDesc) *Patches[B] {
	return layer.NewPatches[B](backend, desc)
}

// DynPatches is the runtime-shaped patch extraction layer.
type DynPatches[B tensor.Backend] = layer.DynPatches[B]

// NewDynPatches builds an unsized dynamic patch extraction layer.
func NewDynPatches[B tensor.Backend](backend B) *DynPatches[B] {
	return layer.NewDynPatches[B](backend)
}
