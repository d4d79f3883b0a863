package network

import (
	"github.com/riverdarda/dll/internal/layer"
	"github.com/riverdarda/dll/internal/tensor"
)

// Training is one gradient pass over a network. It owns a Context per
// layer so that a backward walk can reach every layer's recorded input,
// output and error signal. A Training is built for one batch size and
// reused across steps; it is not safe for concurrent use.
type Training[B tensor.Backend] struct {
	net      *Network[B]
	batch    int
	props    []layer.Propagator[B]
	contexts []*layer.Context[B]
}

// Batch returns the batch size the pass was allocated for.
func (t *Training[B]) Batch() int { return t.batch }

// Context returns the i-th layer's pass context.
func (t *Training[B]) Context(i int) *layer.Context[B] { return t.contexts[i] }

// Output returns the final activation recorded by the last Forward.
func (t *Training[B]) Output() *tensor.Tensor[float32, B] {
	return t.contexts[len(t.contexts)-1].Output
}

// Gradients returns the weight and bias gradients of the i-th layer as
// computed by the last Backward. Both are nil for parameterless layers.
func (t *Training[B]) Gradients(i int) (weights, biases *tensor.Tensor[float32, B]) {
	ctx := t.contexts[i]
	return ctx.WGrad, ctx.BGrad
}

// Forward records the batch into the first context and activates the
// stack layer by layer. Each context keeps the input it saw and the
// output it produced, which the backward walk depends on. Returns the
// final activation.
func (t *Training[B]) Forward(batch *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	current := batch.Raw()
	for i, p := range t.props {
		ctx := t.contexts[i]
		storeInto(ctx.Input.Raw(), current)
		p.ActivateBatch(ctx.Output, ctx.Input)
		current = ctx.Output.Raw()
	}
	return t.Output()
}

// Backward seeds the last context with the error signal and walks the
// stack in reverse. A neural layer first adapts the raw errors through
// its activation derivative and computes its parameter gradients; every
// layer then propagates its errors into the previous context, where
// they arrive raw again.
func (t *Training[B]) Backward(errs *tensor.Tensor[float32, B]) {
	last := len(t.props) - 1
	storeInto(t.contexts[last].Errors.Raw(), errs.Raw())
	for i := last; i >= 0; i-- {
		ctx := t.contexts[i]
		if n, ok := t.props[i].(layer.Neural[B]); ok {
			n.AdaptErrors(ctx)
			n.ComputeGradients(ctx)
		}
		if i > 0 {
			t.props[i].Backward(t.contexts[i-1].Errors, ctx)
		}
	}
}

// storeInto copies src into dst's buffer, viewing dst under src's
// shape when the two disagree but hold the same element count.
func storeInto(dst, src *tensor.RawTensor) {
	if !dst.Shape().Equal(src.Shape()) {
		dst = dst.View(src.Shape())
	}
	dst.CopyFrom(src)
}
