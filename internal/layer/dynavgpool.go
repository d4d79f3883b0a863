package layer

import (
	"github.com/riverdarda/dll/internal/tensor"
)

// DynAvgPool is the runtime-shaped average pooling layer. It behaves
// exactly like AvgPool once Init has run; tensor operations before
// that panic.
type DynAvgPool[B tensor.Backend] struct {
	poolCore[B]
}

// NewDynAvgPool builds an unsized dynamic average pooling layer.
func NewDynAvgPool[B tensor.Backend](backend B) *DynAvgPool[B] {
	return &DynAvgPool[B]{poolCore[B]{
		backend: backend,
		kind:    KindDynAvgPool,
	}}
}

// Init fixes the layer dimensions. The pool must divide the input
// spatial dimensions exactly; Init panics otherwise.
func (l *DynAvgPool[B]) Init(channels, inHeight, inWidth, poolHeight, poolWidth int) {
	l.init(channels, inHeight, inWidth, poolHeight, poolWidth)
}

var _ Propagator[tensor.Backend] = (*DynAvgPool[tensor.Backend])(nil)
