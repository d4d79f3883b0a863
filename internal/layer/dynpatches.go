package layer

import (
	"github.com/riverdarda/dll/internal/tensor"
)

// DynPatches is the runtime-shaped patch extraction layer. It behaves
// exactly like Patches once Init has run; activation before that
// panics.
type DynPatches[B tensor.Backend] struct {
	patchCore[B]
}

// NewDynPatches builds an unsized dynamic patch extraction layer.
func NewDynPatches[B tensor.Backend](backend B) *DynPatches[B] {
	return &DynPatches[B]{patchCore[B]{
		backend: backend,
		kind:    KindDynPatches,
	}}
}

// Init fixes the window size and scan strides.
func (l *DynPatches[B]) Init(width, height, vStride, hStride int) {
	l.init(width, height, vStride, hStride)
}

var _ Transform[tensor.Backend] = (*DynPatches[tensor.Backend])(nil)
