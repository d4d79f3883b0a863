package layer

import (
	"github.com/riverdarda/dll/internal/tensor"
)

// DynDenseDesc configures a dynamic dense layer: activation and
// initializers only. Dimensions arrive later through Init.
type DynDenseDesc struct {
	Activation Activation
	WeightInit Initializer
	BiasInit   Initializer
}

// DynDense is the runtime-shaped fully connected layer. It behaves
// exactly like Dense once Init has run; tensor operations before that
// panic.
type DynDense[B tensor.Backend] struct {
	denseCore[B]
}

// NewDynDense builds an unsized dynamic dense layer.
func NewDynDense[B tensor.Backend](backend B, desc DynDenseDesc) *DynDense[B] {
	return &DynDense[B]{denseCore[B]{
		backend: backend,
		kind:    KindDynDense,
		act:     activationOrDefault(desc.Activation),
		wInit:   initializerOrDefault(desc.WeightInit),
		bInit:   initializerOrDefault(desc.BiasInit),
	}}
}

// Init fixes the layer dimensions, allocates the parameters and runs
// the initializers.
func (l *DynDense[B]) Init(in, out int) {
	l.init(in, out)
}

var _ Neural[tensor.Backend] = (*DynDense[tensor.Backend])(nil)
