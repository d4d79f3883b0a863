package layer

import (
	"fmt"

	"github.com/riverdarda/dll/internal/tensor"
)

// DenseDesc configures a fully connected layer.
//
// A nil Activation means Sigmoid; nil initializers mean Lecun.
type DenseDesc struct {
	In  int
	Out int

	Activation Activation
	WeightInit Initializer
	BiasInit   Initializer
}

// denseCore holds the state and operations shared by the fixed and
// dynamic dense variants. Weights are stored input-major: W[i][o]
// connects input unit i to output unit o.
type denseCore[B tensor.Backend] struct {
	backend B
	kind    Kind

	in, out int

	act   Activation
	wInit Initializer
	bInit Initializer

	weights *tensor.Tensor[float32, B] // [in, out]
	biases  *tensor.Tensor[float32, B] // [out]

	backupW *tensor.RawTensor
	backupB *tensor.RawTensor

	ready bool
}

func (d *denseCore[B]) init(in, out int) {
	if in <= 0 || out <= 0 {
		panic(fmt.Sprintf("dense: non-positive dimension %d -> %d", in, out))
	}

	d.in, d.out = in, out

	d.weights = tensor.Zeros[float32](tensor.Shape{in, out}, d.backend)
	d.biases = tensor.Zeros[float32](tensor.Shape{out}, d.backend)

	d.wInit.Initialize(d.weights.Raw(), in, out)
	d.bInit.Initialize(d.biases.Raw(), in, out)

	d.ready = true
}

func (d *denseCore[B]) ensureReady(op string) {
	if !d.ready {
		panic(fmt.Sprintf("dense: %s on uninitialized dynamic layer", op))
	}
}

func (d *denseCore[B]) Kind() Kind     { return d.kind }
func (d *denseCore[B]) Traits() Traits { return TraitsOf(d.kind) }

func (d *denseCore[B]) InputSize() int      { return d.in }
func (d *denseCore[B]) OutputSize() int     { return d.out }
func (d *denseCore[B]) ParameterCount() int { return d.in * d.out }

func (d *denseCore[B]) ShortString() string {
	label := "Dense"
	if d.kind == KindDynDense {
		label = "Dense(dyn)"
	}
	return fmt.Sprintf("%s: %d -> %s -> %d", label, d.in, d.act, d.out)
}

// ActivateOne computes output = f(input*W + bias) for one sample. Any
// input holding exactly InputSize elements is accepted and flattened,
// so a dense layer can directly follow a convolutional one.
func (d *denseCore[B]) ActivateOne(output, input *tensor.Tensor[float32, B]) {
	d.ensureReady("ActivateOne")
	in := d.inputView(input.Raw(), 1)
	out := output.Raw().View(tensor.Shape{1, d.out})
	d.forward(out, in, 1)
}

// ActivateBatch runs the same computation over a whole batch. The
// result is bit-identical to applying ActivateOne per sample.
func (d *denseCore[B]) ActivateBatch(output, input *tensor.Tensor[float32, B]) {
	d.ensureReady("ActivateBatch")
	n := batchSize(output.Raw(), "dense")
	in := d.inputView(input.Raw(), n)
	out := output.Raw().View(tensor.Shape{n, d.out})
	d.forward(out, in, n)
}

func (d *denseCore[B]) inputView(raw *tensor.RawTensor, samples int) *tensor.RawTensor {
	if raw.NumElements() != samples*d.in {
		panic(fmt.Sprintf("dense: input has %d elements, want %d samples of %d",
			raw.NumElements(), samples, d.in))
	}
	return raw.View(tensor.Shape{samples, d.in})
}

func (d *denseCore[B]) forward(dst, src *tensor.RawTensor, samples int) {
	mm := d.backend.MatMul(src, d.weights.Raw())

	bias := d.backend.Unsqueeze(d.biases.Raw(), 0)
	bias = d.backend.Expand(bias, tensor.Shape{samples, d.out})

	d.act.Forward(dst, d.backend.Add(mm, bias))
}

func (d *denseCore[B]) PrepareInput() *tensor.Tensor[float32, B] {
	d.ensureReady("PrepareInput")
	return tensor.Zeros[float32](tensor.Shape{d.in}, d.backend)
}

func (d *denseCore[B]) PrepareOneOutput() *tensor.Tensor[float32, B] {
	d.ensureReady("PrepareOneOutput")
	return tensor.Zeros[float32](tensor.Shape{d.out}, d.backend)
}

func (d *denseCore[B]) PrepareOutput(samples int) *tensor.Tensor[float32, B] {
	d.ensureReady("PrepareOutput")
	if samples <= 0 {
		panic(fmt.Sprintf("dense: non-positive sample count %d", samples))
	}
	return tensor.Zeros[float32](tensor.Shape{samples, d.out}, d.backend)
}

// NewContext allocates the pass tensors for a batch of the given size.
func (d *denseCore[B]) NewContext(batch int) *Context[B] {
	d.ensureReady("NewContext")
	if batch <= 0 {
		panic(fmt.Sprintf("dense: non-positive batch size %d", batch))
	}
	return &Context[B]{
		Input:  tensor.Zeros[float32](tensor.Shape{batch, d.in}, d.backend),
		Output: tensor.Zeros[float32](tensor.Shape{batch, d.out}, d.backend),
		Errors: tensor.Zeros[float32](tensor.Shape{batch, d.out}, d.backend),
		WGrad:  tensor.Zeros[float32](tensor.Shape{d.in, d.out}, d.backend),
		BGrad:  tensor.Zeros[float32](tensor.Shape{d.out}, d.backend),
	}
}

// AdaptErrors folds the activation derivative into ctx.Errors.
func (d *denseCore[B]) AdaptErrors(ctx *Context[B]) {
	d.ensureReady("AdaptErrors")
	deriv := rawLike(ctx.Output.Raw())
	d.act.Derivative(deriv, ctx.Output.Raw())
	ctx.Errors.Raw().CopyFrom(d.backend.Mul(ctx.Errors.Raw(), deriv))
}

// Backward writes the previous layer's error: errors multiplied by the
// transposed weights.
func (d *denseCore[B]) Backward(output *tensor.Tensor[float32, B], ctx *Context[B]) {
	d.ensureReady("Backward")
	prev := d.backend.MatMul(ctx.Errors.Raw(), d.backend.Transpose(d.weights.Raw()))
	storeInto(output.Raw(), prev)
}

// ComputeGradients fills ctx.WGrad with the transposed input times
// the errors, and ctx.BGrad with the batch mean of the errors.
func (d *denseCore[B]) ComputeGradients(ctx *Context[B]) {
	d.ensureReady("ComputeGradients")
	wg := d.backend.MatMul(d.backend.Transpose(ctx.Input.Raw()), ctx.Errors.Raw())
	ctx.WGrad.Raw().CopyFrom(wg)
	ctx.BGrad.Raw().CopyFrom(d.backend.MeanDim(ctx.Errors.Raw(), 0, false))
}

func (d *denseCore[B]) Weights() *tensor.Tensor[float32, B] { return d.weights }
func (d *denseCore[B]) Biases() *tensor.Tensor[float32, B]  { return d.biases }

// Snapshot keeps a private copy of the parameters.
func (d *denseCore[B]) Snapshot() {
	d.ensureReady("Snapshot")
	d.backupW = d.weights.Raw().Clone()
	d.backupB = d.biases.Raw().Clone()
}

// Restore writes the snapshot back. It panics when called before any
// Snapshot.
func (d *denseCore[B]) Restore() {
	d.ensureReady("Restore")
	if d.backupW == nil || d.backupB == nil {
		panic("dense: Restore before Snapshot")
	}
	d.weights.Raw().CopyFrom(d.backupW)
	d.biases.Raw().CopyFrom(d.backupB)
}

func (d *denseCore[B]) StateDict() map[string]*tensor.RawTensor {
	d.ensureReady("StateDict")
	return map[string]*tensor.RawTensor{
		"weight": d.weights.Raw(),
		"bias":   d.biases.Raw(),
	}
}

func (d *denseCore[B]) LoadStateDict(state map[string]*tensor.RawTensor) error {
	d.ensureReady("LoadStateDict")
	return loadParams(state, "dense", d.weights.Raw(), d.biases.Raw())
}

// Dense is the fixed-shape fully connected layer.
type Dense[B tensor.Backend] struct {
	denseCore[B]
}

// NewDense builds a dense layer from desc. It panics on non-positive
// dimensions.
func NewDense[B tensor.Backend](backend B, desc DenseDesc) *Dense[B] {
	l := &Dense[B]{denseCore[B]{
		backend: backend,
		kind:    KindDense,
		act:     activationOrDefault(desc.Activation),
		wInit:   initializerOrDefault(desc.WeightInit),
		bInit:   initializerOrDefault(desc.BiasInit),
	}}
	l.init(desc.In, desc.Out)
	return l
}

// DynInit sizes dyn to reproduce this layer's shape configuration.
// No weights are copied; dyn runs its own initializers.
func (l *Dense[B]) DynInit(dyn *DynDense[B]) {
	dyn.Init(l.in, l.out)
}

var _ Neural[tensor.Backend] = (*Dense[tensor.Backend])(nil)
