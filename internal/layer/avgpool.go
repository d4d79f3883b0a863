package layer

import (
	"fmt"

	"github.com/riverdarda/dll/internal/tensor"
)

// AvgPoolDesc configures a non-overlapping average pooling layer. The
// pool dimensions must divide the input spatial dimensions exactly.
type AvgPoolDesc struct {
	Channels int
	InHeight int
	InWidth  int

	PoolHeight int
	PoolWidth  int
}

// poolCore holds the state and operations shared by the fixed and
// dynamic pooling variants. Pooling layers have no parameters: the
// backward pass spreads each error evenly over its pool window.
type poolCore[B tensor.Backend] struct {
	backend B
	kind    Kind

	channels, inH, inW int
	poolH, poolW       int
	outH, outW         int

	ready bool
}

func (p *poolCore[B]) init(channels, inH, inW, poolH, poolW int) {
	if channels <= 0 || inH <= 0 || inW <= 0 || poolH <= 0 || poolW <= 0 {
		panic(fmt.Sprintf("avgpool: non-positive dimension in %dx%dx%d / (%dx%d)",
			channels, inH, inW, poolH, poolW))
	}
	if inH%poolH != 0 || inW%poolW != 0 {
		panic(fmt.Sprintf("avgpool: pool %dx%d does not divide input %dx%d", poolH, poolW, inH, inW))
	}

	p.channels, p.inH, p.inW = channels, inH, inW
	p.poolH, p.poolW = poolH, poolW
	p.outH = inH / poolH
	p.outW = inW / poolW

	p.ready = true
}

func (p *poolCore[B]) ensureReady(op string) {
	if !p.ready {
		panic(fmt.Sprintf("avgpool: %s on uninitialized dynamic layer", op))
	}
}

func (p *poolCore[B]) Kind() Kind     { return p.kind }
func (p *poolCore[B]) Traits() Traits { return TraitsOf(p.kind) }

func (p *poolCore[B]) InputSize() int      { return p.channels * p.inH * p.inW }
func (p *poolCore[B]) OutputSize() int     { return p.channels * p.outH * p.outW }
func (p *poolCore[B]) ParameterCount() int { return 0 }

func (p *poolCore[B]) ShortString() string {
	label := "AvgP"
	if p.kind == KindDynAvgPool {
		label = "AvgP(dyn)"
	}
	return fmt.Sprintf("%s: %dx%dx%d -> (%dx%d) -> %dx%dx%d",
		label, p.channels, p.inH, p.inW, p.poolH, p.poolW, p.channels, p.outH, p.outW)
}

// ActivateOne averages each pool window of a single sample.
func (p *poolCore[B]) ActivateOne(output, input *tensor.Tensor[float32, B]) {
	p.ensureReady("ActivateOne")
	in := p.inputView(input.Raw(), 1)
	storeInto(output.Raw(), p.backend.AvgPool2D(in, p.poolH, p.poolW))
}

// ActivateBatch pools a whole batch at once.
func (p *poolCore[B]) ActivateBatch(output, input *tensor.Tensor[float32, B]) {
	p.ensureReady("ActivateBatch")
	n := batchSize(output.Raw(), "avgpool")
	in := p.inputView(input.Raw(), n)
	storeInto(output.Raw(), p.backend.AvgPool2D(in, p.poolH, p.poolW))
}

func (p *poolCore[B]) inputView(raw *tensor.RawTensor, samples int) *tensor.RawTensor {
	if raw.NumElements() != samples*p.InputSize() {
		panic(fmt.Sprintf("avgpool: input has %d elements, want %d samples of %d",
			raw.NumElements(), samples, p.InputSize()))
	}
	return raw.View(tensor.Shape{samples, p.channels, p.inH, p.inW})
}

func (p *poolCore[B]) PrepareInput() *tensor.Tensor[float32, B] {
	p.ensureReady("PrepareInput")
	return tensor.Zeros[float32](tensor.Shape{p.channels, p.inH, p.inW}, p.backend)
}

func (p *poolCore[B]) PrepareOneOutput() *tensor.Tensor[float32, B] {
	p.ensureReady("PrepareOneOutput")
	return tensor.Zeros[float32](tensor.Shape{p.channels, p.outH, p.outW}, p.backend)
}

func (p *poolCore[B]) PrepareOutput(samples int) *tensor.Tensor[float32, B] {
	p.ensureReady("PrepareOutput")
	if samples <= 0 {
		panic(fmt.Sprintf("avgpool: non-positive sample count %d", samples))
	}
	return tensor.Zeros[float32](tensor.Shape{samples, p.channels, p.outH, p.outW}, p.backend)
}

// NewContext allocates the pass tensors for a batch of the given size.
// Pooling layers carry no gradients, so WGrad and BGrad stay nil.
func (p *poolCore[B]) NewContext(batch int) *Context[B] {
	p.ensureReady("NewContext")
	if batch <= 0 {
		panic(fmt.Sprintf("avgpool: non-positive batch size %d", batch))
	}
	return &Context[B]{
		Input:  tensor.Zeros[float32](tensor.Shape{batch, p.channels, p.inH, p.inW}, p.backend),
		Output: tensor.Zeros[float32](tensor.Shape{batch, p.channels, p.outH, p.outW}, p.backend),
		Errors: tensor.Zeros[float32](tensor.Shape{batch, p.channels, p.outH, p.outW}, p.backend),
	}
}

// Backward spreads each error in ctx.Errors evenly over its pool
// window and writes the result as the previous layer's error.
func (p *poolCore[B]) Backward(output *tensor.Tensor[float32, B], ctx *Context[B]) {
	p.ensureReady("Backward")
	storeInto(output.Raw(), p.backend.AvgPool2DBackward(ctx.Errors.Raw(), p.poolH, p.poolW))
}

// AvgPool is the fixed-shape average pooling layer.
type AvgPool[B tensor.Backend] struct {
	poolCore[B]
}

// NewAvgPool builds an average pooling layer from desc. It panics on
// non-positive dimensions or when the pool does not divide the input.
func NewAvgPool[B tensor.Backend](backend B, desc AvgPoolDesc) *AvgPool[B] {
	l := &AvgPool[B]{poolCore[B]{
		backend: backend,
		kind:    KindAvgPool,
	}}
	l.init(desc.Channels, desc.InHeight, desc.InWidth, desc.PoolHeight, desc.PoolWidth)
	return l
}

// DynInit sizes dyn to reproduce this layer's shape configuration.
func (l *AvgPool[B]) DynInit(dyn *DynAvgPool[B]) {
	dyn.Init(l.channels, l.inH, l.inW, l.poolH, l.poolW)
}

var _ Propagator[tensor.Backend] = (*AvgPool[tensor.Backend])(nil)
