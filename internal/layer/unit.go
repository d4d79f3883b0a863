package layer

import (
	"github.com/riverdarda/dll/internal/tensor"
)

// Unit is the metadata contract shared by every layer variant. Sizes
// are pure functions of the stored dimensions; a dynamic layer reports
// zero sizes until its Init call.
type Unit interface {
	// Kind identifies the concrete variant.
	Kind() Kind

	// Traits reports the capability record for this variant.
	Traits() Traits

	// InputSize returns the element count of one input sample, or 0
	// when the layer accepts inputs of any size.
	InputSize() int

	// OutputSize returns the element count of one output sample.
	OutputSize() int

	// ParameterCount reports the parameter count shown in layer
	// summaries. Parameterless layers report 0.
	ParameterCount() int

	// ShortString returns a one-line shape and activation summary,
	// such as "Conv: 1x28x28 -> (6x5x5) -> sigmoid -> 6x24x24".
	ShortString() string
}

// Forward is implemented by layers whose activation produces one
// tensor per sample. A batched activation must be bit-identical to
// running the single-sample path over each sample in order; that is
// the invariant linking the two code paths.
type Forward[B tensor.Backend] interface {
	Unit

	// ActivateOne computes the activation for a single sample. The
	// input may use any shape holding exactly InputSize elements; it
	// is viewed in the layer's canonical layout first.
	ActivateOne(output, input *tensor.Tensor[float32, B])

	// ActivateBatch computes a whole batch at once. The leading
	// dimension of output fixes the batch size.
	ActivateBatch(output, input *tensor.Tensor[float32, B])

	// PrepareInput allocates one zeroed input sample in the layer's
	// canonical shape.
	PrepareInput() *tensor.Tensor[float32, B]

	// PrepareOneOutput allocates one zeroed output sample.
	PrepareOneOutput() *tensor.Tensor[float32, B]

	// PrepareOutput allocates a zeroed batch of outputs with the
	// given number of samples.
	PrepareOutput(samples int) *tensor.Tensor[float32, B]
}

// Transform is implemented by parameterless layers whose activation
// yields a variable number of fixed-size tensors per sample, such as
// patch extraction.
type Transform[B tensor.Backend] interface {
	Unit

	// ActivateOne rebuilds output with the transform results for one
	// input sample. The container is cleared first, never appended to.
	ActivateOne(output *[]*tensor.Tensor[float32, B], input *tensor.Tensor[float32, B])

	// ActivateMany maps ActivateOne over each sample in order.
	ActivateMany(outputs [][]*tensor.Tensor[float32, B], inputs []*tensor.Tensor[float32, B])

	// PrepareOneOutput returns an empty output container.
	PrepareOneOutput() []*tensor.Tensor[float32, B]

	// PrepareOutput returns the given number of empty output
	// containers.
	PrepareOutput(samples int) [][]*tensor.Tensor[float32, B]
}

// Propagator is implemented by layers that participate in the backward
// pass of gradient training.
type Propagator[B tensor.Backend] interface {
	Forward[B]

	// NewContext allocates the per-pass tensors for the given batch
	// size. One Context serves exactly one in-flight pass.
	NewContext(batch int) *Context[B]

	// Backward writes the error for the previous layer into output,
	// given the error signal in ctx.Errors. For neural layers it must
	// run after AdaptErrors.
	Backward(output *tensor.Tensor[float32, B], ctx *Context[B])
}

// Neural is implemented by layers with learnable weights and biases.
type Neural[B tensor.Backend] interface {
	Propagator[B]

	// AdaptErrors multiplies ctx.Errors in place by the activation
	// derivative evaluated at ctx.Output. It must be invoked exactly
	// once per backward pass, before Backward and ComputeGradients.
	AdaptErrors(ctx *Context[B])

	// ComputeGradients writes this batch's weight and bias gradients
	// into ctx.WGrad and ctx.BGrad. The parameters themselves are
	// never touched; applying gradients is the optimizer's job.
	ComputeGradients(ctx *Context[B])

	// Weights returns the live weight tensor.
	Weights() *tensor.Tensor[float32, B]

	// Biases returns the live bias tensor.
	Biases() *tensor.Tensor[float32, B]

	// Snapshot stores a private copy of the parameters; Restore
	// copies the snapshot back. Restore panics when no snapshot
	// exists. The snapshot never aliases the live tensors.
	Snapshot()
	Restore()

	// StateDict exposes the live parameter tensors under stable
	// names.
	StateDict() map[string]*tensor.RawTensor

	// LoadStateDict copies matching entries into the parameters,
	// validating presence and shape.
	LoadStateDict(state map[string]*tensor.RawTensor) error
}
