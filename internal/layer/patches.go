package layer

import (
	"fmt"

	"github.com/riverdarda/dll/internal/tensor"
)

// PatchesDesc configures a patch extraction layer: the window size and
// the scan strides.
type PatchesDesc struct {
	Height int
	Width  int

	VStride int
	HStride int
}

// patchCore holds the state and operations shared by the fixed and
// dynamic patch variants. Patch extraction is a pure shape transform:
// no parameters, no backward contract.
type patchCore[B tensor.Backend] struct {
	backend B
	kind    Kind

	height, width    int
	vStride, hStride int

	ready bool
}

func (p *patchCore[B]) init(width, height, vStride, hStride int) {
	if width <= 0 || height <= 0 || vStride <= 0 || hStride <= 0 {
		panic(fmt.Sprintf("patches: non-positive parameter in (%d:%dx%d:%d)",
			height, vStride, width, hStride))
	}

	p.width, p.height = width, height
	p.vStride, p.hStride = vStride, hStride

	p.ready = true
}

func (p *patchCore[B]) ensureReady(op string) {
	if !p.ready {
		panic(fmt.Sprintf("patches: %s on uninitialized dynamic layer", op))
	}
}

func (p *patchCore[B]) Kind() Kind     { return p.kind }
func (p *patchCore[B]) Traits() Traits { return TraitsOf(p.kind) }

// InputSize reports 0: a patch layer accepts single-channel inputs of
// any spatial size.
func (p *patchCore[B]) InputSize() int { return 0 }

// OutputSize reports the size of one patch, not the total patch
// count. Callers needing the count derive it from the input
// dimensions, or use PatchCount.
func (p *patchCore[B]) OutputSize() int     { return p.width * p.height }
func (p *patchCore[B]) ParameterCount() int { return 0 }

func (p *patchCore[B]) ShortString() string {
	label := "Patches"
	if p.kind == KindDynPatches {
		label = "Patches(dyn)"
	}
	return fmt.Sprintf("%s -> (%d:%dx%d:%d)", label, p.height, p.vStride, p.width, p.hStride)
}

// PatchCount returns the number of patches produced for an input of
// the given spatial size, zero when the window does not fit.
func (p *patchCore[B]) PatchCount(h, w int) int {
	if h < p.height || w < p.width {
		return 0
	}
	return ((h-p.height)/p.vStride + 1) * ((w-p.width)/p.hStride + 1)
}

// ActivateOne cuts the input into patches of height x width, scanning
// in row-major order: the window sweeps one vertical position with the
// horizontal stride before advancing by the vertical stride. The
// output container is cleared and rebuilt on every call; each patch
// keeps the single leading channel. Panics when the input has more
// than one channel.
func (p *patchCore[B]) ActivateOne(output *[]*tensor.Tensor[float32, B], input *tensor.Tensor[float32, B]) {
	p.ensureReady("ActivateOne")

	shape := input.Shape()
	if len(shape) != 3 || shape[0] != 1 {
		panic(fmt.Sprintf("patches: input must have a single channel, got shape %v", shape))
	}
	h, w := shape[1], shape[2]
	src := input.Raw().AsFloat32()

	*output = (*output)[:0]
	for y := 0; y+p.height <= h; y += p.vStride {
		for x := 0; x+p.width <= w; x += p.hStride {
			patch := tensor.Zeros[float32](tensor.Shape{1, p.height, p.width}, p.backend)
			dst := patch.Raw().AsFloat32()
			for yy := 0; yy < p.height; yy++ {
				row := (y+yy)*w + x
				copy(dst[yy*p.width:(yy+1)*p.width], src[row:row+p.width])
			}
			*output = append(*output, patch)
		}
	}
}

// ActivateMany maps ActivateOne over the samples in order.
func (p *patchCore[B]) ActivateMany(outputs [][]*tensor.Tensor[float32, B], inputs []*tensor.Tensor[float32, B]) {
	if len(outputs) != len(inputs) {
		panic(fmt.Sprintf("patches: %d output containers for %d inputs", len(outputs), len(inputs)))
	}
	for i := range inputs {
		p.ActivateOne(&outputs[i], inputs[i])
	}
}

func (p *patchCore[B]) PrepareOneOutput() []*tensor.Tensor[float32, B] {
	p.ensureReady("PrepareOneOutput")
	return nil
}

func (p *patchCore[B]) PrepareOutput(samples int) [][]*tensor.Tensor[float32, B] {
	p.ensureReady("PrepareOutput")
	if samples <= 0 {
		panic(fmt.Sprintf("patches: non-positive sample count %d", samples))
	}
	return make([][]*tensor.Tensor[float32, B], samples)
}

// Patches is the fixed-shape patch extraction layer.
type Patches[B tensor.Backend] struct {
	patchCore[B]
}

// NewPatches builds a patch extraction layer from desc. It panics on
// non-positive window or stride parameters.
func NewPatches[B tensor.Backend](backend B, desc PatchesDesc) *Patches[B] {
	l := &Patches[B]{patchCore[B]{
		backend: backend,
		kind:    KindPatches,
	}}
	l.init(desc.Width, desc.Height, desc.VStride, desc.HStride)
	return l
}

// DynInit sizes dyn to reproduce this layer's window and stride
// configuration. For patch layers this is the entire initialization
// contract.
func (l *Patches[B]) DynInit(dyn *DynPatches[B]) {
	dyn.Init(l.width, l.height, l.vStride, l.hStride)
}

var _ Transform[tensor.Backend] = (*Patches[tensor.Backend])(nil)
