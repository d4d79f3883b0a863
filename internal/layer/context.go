package layer

import (
	"fmt"

	"github.com/riverdarda/dll/internal/tensor"
)

// Context carries the per-pass tensors for one layer: the batch input
// it saw, the activation it produced, the error signal flowing back
// and the gradients for its parameters. Errors always has Output's
// shape; WGrad and BGrad match the weight and bias shapes and are nil
// for parameterless layers.
//
// A Context belongs to exactly one in-flight forward/backward pass and
// is never shared between training steps.
type Context[B tensor.Backend] struct {
	Input  *tensor.Tensor[float32, B]
	Output *tensor.Tensor[float32, B]
	Errors *tensor.Tensor[float32, B]
	WGrad  *tensor.Tensor[float32, B]
	BGrad  *tensor.Tensor[float32, B]
}

// storeInto copies src into dst's buffer, viewing dst under src's
// shape when the two disagree but hold the same element count. Layers
// use it to hand results to neighbors that store the same data under
// another shape.
func storeInto(dst, src *tensor.RawTensor) {
	if !dst.Shape().Equal(src.Shape()) {
		dst = dst.View(src.Shape())
	}
	dst.CopyFrom(src)
}

// rawLike allocates a zeroed RawTensor with t's shape, dtype and
// device.
func rawLike(t *tensor.RawTensor) *tensor.RawTensor {
	raw, err := tensor.NewRaw(t.Shape(), t.DType(), t.Device())
	if err != nil {
		panic(fmt.Sprintf("layer: %v", err))
	}
	return raw
}

// batchSize reads the batch dimension off a prepared batched output.
func batchSize(out *tensor.RawTensor, kind string) int {
	shape := out.Shape()
	if len(shape) < 2 {
		panic(fmt.Sprintf("%s: batched output must be at least rank 2, got shape %v", kind, shape))
	}
	return shape[0]
}

// loadParams copies the "weight" and "bias" entries of a state dict
// into the given parameter tensors.
func loadParams(state map[string]*tensor.RawTensor, kind string, weights, biases *tensor.RawTensor) error {
	params := []struct {
		name string
		dst  *tensor.RawTensor
	}{
		{"weight", weights},
		{"bias", biases},
	}
	for _, p := range params {
		src, ok := state[p.name]
		if !ok {
			return fmt.Errorf("%s: state dict missing %q", kind, p.name)
		}
		if !src.Shape().Equal(p.dst.Shape()) {
			return fmt.Errorf("%s: %s shape %v does not match %v", kind, p.name, src.Shape(), p.dst.Shape())
		}
		p.dst.CopyFrom(src)
	}
	return nil
}
