package layer

import (
	"github.com/riverdarda/dll/internal/tensor"
)

// DynConvDesc configures a dynamic convolutional layer: activation and
// initializers only. Dimensions arrive later through Init.
type DynConvDesc struct {
	Activation Activation
	WeightInit Initializer
	BiasInit   Initializer
}

// DynConv is the runtime-shaped convolutional layer. It behaves
// exactly like Conv once Init has run; tensor operations before that
// panic.
type DynConv[B tensor.Backend] struct {
	convCore[B]
}

// NewDynConv builds an unsized dynamic convolutional layer.
func NewDynConv[B tensor.Backend](backend B, desc DynConvDesc) *DynConv[B] {
	return &DynConv[B]{convCore[B]{
		backend: backend,
		kind:    KindDynConv,
		act:     activationOrDefault(desc.Activation),
		wInit:   initializerOrDefault(desc.WeightInit),
		bInit:   initializerOrDefault(desc.BiasInit),
	}}
}

// Init fixes the layer dimensions, allocates the parameters and runs
// the initializers. The kernel size is derived as input - output + 1
// per spatial dimension; Init panics when an output dimension exceeds
// its input dimension.
func (l *DynConv[B]) Init(channels, inHeight, inWidth, filters, outHeight, outWidth int) {
	l.init(channels, inHeight, inWidth, filters, outHeight, outWidth)
}

var _ Neural[tensor.Backend] = (*DynConv[tensor.Backend])(nil)
