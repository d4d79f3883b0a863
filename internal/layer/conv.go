package layer

import (
	"fmt"

	"github.com/riverdarda/dll/internal/tensor"
)

// ConvDesc configures a convolutional layer. The kernel size is
// derived, never set directly: kernel = input - output + 1 per spatial
// dimension (valid correlation, no padding).
//
// A nil Activation means Sigmoid; nil initializers mean Lecun.
type ConvDesc struct {
	Channels int // input channels
	InHeight int
	InWidth  int

	Filters   int // output channels
	OutHeight int
	OutWidth  int

	Activation Activation
	WeightInit Initializer
	BiasInit   Initializer
}

// convCore holds the state and operations shared by the fixed and
// dynamic convolutional variants.
type convCore[B tensor.Backend] struct {
	backend B
	kind    Kind

	channels, inH, inW  int
	filters, outH, outW int
	kernelH, kernelW    int

	act   Activation
	wInit Initializer
	bInit Initializer

	weights *tensor.Tensor[float32, B] // [filters, channels, kernelH, kernelW]
	biases  *tensor.Tensor[float32, B] // [filters]

	backupW *tensor.RawTensor
	backupB *tensor.RawTensor

	ready bool
}

func (c *convCore[B]) init(channels, inH, inW, filters, outH, outW int) {
	if channels <= 0 || inH <= 0 || inW <= 0 || filters <= 0 || outH <= 0 || outW <= 0 {
		panic(fmt.Sprintf("conv: non-positive dimension in %dx%dx%d -> %dx%dx%d",
			channels, inH, inW, filters, outH, outW))
	}
	if inH < outH || inW < outW {
		panic(fmt.Sprintf("conv: output %dx%d exceeds input %dx%d", outH, outW, inH, inW))
	}

	c.channels, c.inH, c.inW = channels, inH, inW
	c.filters, c.outH, c.outW = filters, outH, outW
	c.kernelH = inH - outH + 1
	c.kernelW = inW - outW + 1

	c.weights = tensor.Zeros[float32](tensor.Shape{filters, channels, c.kernelH, c.kernelW}, c.backend)
	c.biases = tensor.Zeros[float32](tensor.Shape{filters}, c.backend)

	c.wInit.Initialize(c.weights.Raw(), c.InputSize(), c.OutputSize())
	c.bInit.Initialize(c.biases.Raw(), c.InputSize(), c.OutputSize())

	c.ready = true
}

func (c *convCore[B]) ensureReady(op string) {
	if !c.ready {
		panic(fmt.Sprintf("conv: %s on uninitialized dynamic layer", op))
	}
}

func (c *convCore[B]) Kind() Kind     { return c.kind }
func (c *convCore[B]) Traits() Traits { return TraitsOf(c.kind) }

func (c *convCore[B]) InputSize() int  { return c.channels * c.inH * c.inW }
func (c *convCore[B]) OutputSize() int { return c.filters * c.outH * c.outW }

// ParameterCount reports the filter volume filters*kernelH*kernelW
// shown in layer summaries.
func (c *convCore[B]) ParameterCount() int { return c.filters * c.kernelH * c.kernelW }

func (c *convCore[B]) ShortString() string {
	label := "Conv"
	if c.kind == KindDynConv {
		label = "Conv(dyn)"
	}
	return fmt.Sprintf("%s: %dx%dx%d -> (%dx%dx%d) -> %s -> %dx%dx%d",
		label, c.channels, c.inH, c.inW,
		c.filters, c.kernelH, c.kernelW,
		c.act, c.filters, c.outH, c.outW)
}

// ActivateOne computes output = f(bias + valid correlation(input, W))
// for a single sample.
func (c *convCore[B]) ActivateOne(output, input *tensor.Tensor[float32, B]) {
	c.ensureReady("ActivateOne")
	in := c.inputView(input.Raw(), 1)
	out := output.Raw().View(tensor.Shape{1, c.filters, c.outH, c.outW})
	c.forward(out, in, 1)
}

// ActivateBatch runs the same computation over a whole batch. The
// result is bit-identical to applying ActivateOne per sample.
func (c *convCore[B]) ActivateBatch(output, input *tensor.Tensor[float32, B]) {
	c.ensureReady("ActivateBatch")
	n := batchSize(output.Raw(), "conv")
	in := c.inputView(input.Raw(), n)
	out := output.Raw().View(tensor.Shape{n, c.filters, c.outH, c.outW})
	c.forward(out, in, n)
}

// inputView adapts an input of any shape holding the right element
// count to the canonical batched layout.
func (c *convCore[B]) inputView(raw *tensor.RawTensor, samples int) *tensor.RawTensor {
	if raw.NumElements() != samples*c.InputSize() {
		panic(fmt.Sprintf("conv: input has %d elements, want %d samples of %d",
			raw.NumElements(), samples, c.InputSize()))
	}
	return raw.View(tensor.Shape{samples, c.channels, c.inH, c.inW})
}

func (c *convCore[B]) forward(dst, src *tensor.RawTensor, samples int) {
	conv := c.backend.Conv4DValidFlipped(src, c.weights.Raw())

	bias := c.backend.Unsqueeze(c.biases.Raw(), 0)
	bias = c.backend.Unsqueeze(bias, 2)
	bias = c.backend.Unsqueeze(bias, 3)
	bias = c.backend.Expand(bias, tensor.Shape{samples, c.filters, c.outH, c.outW})

	c.act.Forward(dst, c.backend.Add(conv, bias))
}

func (c *convCore[B]) PrepareInput() *tensor.Tensor[float32, B] {
	c.ensureReady("PrepareInput")
	return tensor.Zeros[float32](tensor.Shape{c.channels, c.inH, c.inW}, c.backend)
}

func (c *convCore[B]) PrepareOneOutput() *tensor.Tensor[float32, B] {
	c.ensureReady("PrepareOneOutput")
	return tensor.Zeros[float32](tensor.Shape{c.filters, c.outH, c.outW}, c.backend)
}

func (c *convCore[B]) PrepareOutput(samples int) *tensor.Tensor[float32, B] {
	c.ensureReady("PrepareOutput")
	if samples <= 0 {
		panic(fmt.Sprintf("conv: non-positive sample count %d", samples))
	}
	return tensor.Zeros[float32](tensor.Shape{samples, c.filters, c.outH, c.outW}, c.backend)
}

// NewContext allocates the pass tensors for a batch of the given size.
func (c *convCore[B]) NewContext(batch int) *Context[B] {
	c.ensureReady("NewContext")
	if batch <= 0 {
		panic(fmt.Sprintf("conv: non-positive batch size %d", batch))
	}
	return &Context[B]{
		Input:  tensor.Zeros[float32](tensor.Shape{batch, c.channels, c.inH, c.inW}, c.backend),
		Output: tensor.Zeros[float32](tensor.Shape{batch, c.filters, c.outH, c.outW}, c.backend),
		Errors: tensor.Zeros[float32](tensor.Shape{batch, c.filters, c.outH, c.outW}, c.backend),
		WGrad:  tensor.Zeros[float32](tensor.Shape{c.filters, c.channels, c.kernelH, c.kernelW}, c.backend),
		BGrad:  tensor.Zeros[float32](tensor.Shape{c.filters}, c.backend),
	}
}

// AdaptErrors folds the activation derivative into ctx.Errors.
func (c *convCore[B]) AdaptErrors(ctx *Context[B]) {
	c.ensureReady("AdaptErrors")
	deriv := rawLike(ctx.Output.Raw())
	c.act.Derivative(deriv, ctx.Output.Raw())
	ctx.Errors.Raw().CopyFrom(c.backend.Mul(ctx.Errors.Raw(), deriv))
}

// Backward writes the previous layer's error: the full correlation of
// ctx.Errors against the flipped weights.
func (c *convCore[B]) Backward(output *tensor.Tensor[float32, B], ctx *Context[B]) {
	c.ensureReady("Backward")
	storeInto(output.Raw(), c.backend.Conv4DFullFlipped(ctx.Errors.Raw(), c.weights.Raw()))
}

// ComputeGradients fills ctx.WGrad with the valid filter correlation
// of input against errors, and ctx.BGrad with the batch mean of the
// spatial error sums.
func (c *convCore[B]) ComputeGradients(ctx *Context[B]) {
	c.ensureReady("ComputeGradients")
	ctx.WGrad.Raw().CopyFrom(c.backend.Conv4DValidFilterFlipped(ctx.Input.Raw(), ctx.Errors.Raw()))

	sums := c.backend.SumDim(ctx.Errors.Raw(), 3, false)
	sums = c.backend.SumDim(sums, 2, false)
	ctx.BGrad.Raw().CopyFrom(c.backend.MeanDim(sums, 0, false))
}

func (c *convCore[B]) Weights() *tensor.Tensor[float32, B] { return c.weights }
func (c *convCore[B]) Biases() *tensor.Tensor[float32, B]  { return c.biases }

// Snapshot keeps a private copy of the parameters.
func (c *convCore[B]) Snapshot() {
	c.ensureReady("Snapshot")
	c.backupW = c.weights.Raw().Clone()
	c.backupB = c.biases.Raw().Clone()
}

// Restore writes the snapshot back. It panics when called before any
// Snapshot.
func (c *convCore[B]) Restore() {
	c.ensureReady("Restore")
	if c.backupW == nil || c.backupB == nil {
		panic("conv: Restore before Snapshot")
	}
	c.weights.Raw().CopyFrom(c.backupW)
	c.biases.Raw().CopyFrom(c.backupB)
}

func (c *convCore[B]) StateDict() map[string]*tensor.RawTensor {
	c.ensureReady("StateDict")
	return map[string]*tensor.RawTensor{
		"weight": c.weights.Raw(),
		"bias":   c.biases.Raw(),
	}
}

func (c *convCore[B]) LoadStateDict(state map[string]*tensor.RawTensor) error {
	c.ensureReady("LoadStateDict")
	return loadParams(state, "conv", c.weights.Raw(), c.biases.Raw())
}

// Conv is the fixed-shape convolutional layer: all dimensions are
// frozen by the descriptor.
type Conv[B tensor.Backend] struct {
	convCore[B]
}

// NewConv builds a convolutional layer from desc. It panics on
// non-positive dimensions or when the output exceeds the input.
func NewConv[B tensor.Backend](backend B, desc ConvDesc) *Conv[B] {
	l := &Conv[B]{convCore[B]{
		backend: backend,
		kind:    KindConv,
		act:     activationOrDefault(desc.Activation),
		wInit:   initializerOrDefault(desc.WeightInit),
		bInit:   initializerOrDefault(desc.BiasInit),
	}}
	l.init(desc.Channels, desc.InHeight, desc.InWidth, desc.Filters, desc.OutHeight, desc.OutWidth)
	return l
}

// DynInit sizes dyn to reproduce this layer's shape configuration.
// No weights are copied; dyn runs its own initializers.
func (l *Conv[B]) DynInit(dyn *DynConv[B]) {
	dyn.Init(l.channels, l.inH, l.inW, l.filters, l.outH, l.outW)
}

var _ Neural[tensor.Backend] = (*Conv[tensor.Backend])(nil)
