package layer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riverdarda/dll/internal/tensor"
)

func TestDenseShapes(t *testing.T) {
	b := newBackend()
	l := NewDense(b, DenseDesc{In: 784, Out: 128})

	assert.Equal(t, KindDense, l.Kind())
	assert.Equal(t, 784, l.InputSize())
	assert.Equal(t, 128, l.OutputSize())
	assert.Equal(t, 784*128, l.ParameterCount())
	assert.Equal(t, tensor.Shape{784, 128}, l.Weights().Shape())
	assert.Equal(t, tensor.Shape{128}, l.Biases().Shape())
	assert.Equal(t, "Dense: 784 -> sigmoid -> 128", l.ShortString())
}

func TestDenseActivateKnown(t *testing.T) {
	b := newBackend()
	l := NewDense(b, DenseDesc{
		In: 2, Out: 2,
		Activation: Identity{},
		WeightInit: Zero{}, BiasInit: Zero{},
	})
	copy(l.Weights().Data(), []float32{1, 2, 3, 4}) // rows are input units
	copy(l.Biases().Data(), []float32{10, 20})

	input := tf32(t, b, []float32{1, 1}, tensor.Shape{2})
	output := l.PrepareOneOutput()
	l.ActivateOne(output, input)

	assert.Equal(t, []float32{14, 26}, output.Data())
}

func TestDenseBatchMatchesSingle(t *testing.T) {
	b := newBackend()
	l := NewDense(b, DenseDesc{
		In: 6, Out: 4,
		WeightInit: Gaussian{Stddev: 0.5}, BiasInit: Gaussian{Stddev: 0.5},
	})

	const samples = 3
	batchData := make([]float32, samples*6)
	for i := range batchData {
		batchData[i] = float32(i%7) - 3
	}
	batchIn := tf32(t, b, batchData, tensor.Shape{samples, 6})

	batchOut := l.PrepareOutput(samples)
	l.ActivateBatch(batchOut, batchIn)

	for s := 0; s < samples; s++ {
		in := tf32(t, b, batchData[s*6:(s+1)*6], tensor.Shape{6})
		out := l.PrepareOneOutput()
		l.ActivateOne(out, in)

		assert.Equal(t, out.Data(), batchOut.Data()[s*4:(s+1)*4],
			"batched activation must be bit-identical to the single-sample path for sample %d", s)
	}
}

func TestDenseFlattensInput(t *testing.T) {
	b := newBackend()
	l := NewDense(b, DenseDesc{
		In: 4, Out: 2,
		Activation: Identity{},
		WeightInit: Zero{}, BiasInit: Zero{},
	})
	copy(l.Weights().Data(), []float32{1, 0, 0, 1, 1, 0, 0, 1})

	vals := []float32{1, 2, 3, 4}
	flat := l.PrepareOneOutput()
	l.ActivateOne(flat, tf32(t, b, vals, tensor.Shape{4}))

	// A conv-shaped input with the same elements takes the same path.
	spatial := l.PrepareOneOutput()
	l.ActivateOne(spatial, tf32(t, b, vals, tensor.Shape{1, 2, 2}))

	assert.Equal(t, flat.Data(), spatial.Data())
	assert.Equal(t, []float32{1 + 3, 2 + 4}, flat.Data())
}

func TestDenseAdaptErrors(t *testing.T) {
	b := newBackend()
	l := NewDense(b, DenseDesc{In: 2, Out: 2})

	ctx := l.NewContext(1)
	copy(ctx.Output.Data(), []float32{0.5, 0.25})
	copy(ctx.Errors.Data(), []float32{4, 4})

	l.AdaptErrors(ctx)
	assert.InDeltaSlice(t, []float32{1, 0.75}, ctx.Errors.Data(), 1e-6)
}

func TestDenseBackwardKnown(t *testing.T) {
	b := newBackend()
	l := NewDense(b, DenseDesc{
		In: 2, Out: 2,
		Activation: Identity{},
		WeightInit: Zero{}, BiasInit: Zero{},
	})
	copy(l.Weights().Data(), []float32{1, 2, 3, 4})

	ctx := l.NewContext(1)
	copy(ctx.Errors.Data(), []float32{1, 0})

	prev := tensor.Zeros[float32](tensor.Shape{1, 2}, b)
	l.Backward(prev, ctx)

	// errors times the transposed weights
	assert.Equal(t, []float32{1, 3}, prev.Data())
}

func TestDenseComputeGradients(t *testing.T) {
	b := newBackend()
	l := NewDense(b, DenseDesc{
		In: 2, Out: 2,
		Activation: Identity{},
		WeightInit: Zero{}, BiasInit: Zero{},
	})

	ctx := l.NewContext(2)
	copy(ctx.Input.Data(), []float32{1, 2, 3, 4})
	copy(ctx.Errors.Data(), []float32{3, 4, 5, 6})

	l.ComputeGradients(ctx)

	assert.Equal(t, l.Weights().Shape(), ctx.WGrad.Shape())
	assert.Equal(t, l.Biases().Shape(), ctx.BGrad.Shape())

	// WGrad[i][o] = sum over samples of input[i]*errors[o]
	assert.Equal(t, []float32{1*3 + 3*5, 1*4 + 3*6, 2*3 + 4*5, 2*4 + 4*6}, ctx.WGrad.Data())
	// BGrad is the batch mean of the errors.
	assert.Equal(t, []float32{4, 5}, ctx.BGrad.Data())
}

func TestDenseSnapshotRestore(t *testing.T) {
	b := newBackend()
	l := NewDense(b, DenseDesc{
		In: 3, Out: 2,
		WeightInit: Gaussian{Stddev: 1}, BiasInit: Gaussian{Stddev: 1},
	})

	saved := append([]float32(nil), l.Weights().Data()...)
	l.Snapshot()
	for i := range l.Weights().Data() {
		l.Weights().Data()[i] = -9
	}
	l.Restore()

	assert.Equal(t, saved, l.Weights().Data())
	assert.Panics(t, func() { NewDense(b, DenseDesc{In: 1, Out: 1}).Restore() })
}

func TestDenseStateDictRoundtrip(t *testing.T) {
	b := newBackend()
	desc := DenseDesc{In: 4, Out: 3, WeightInit: Gaussian{Stddev: 1}, BiasInit: Gaussian{Stddev: 1}}

	src := NewDense(b, desc)
	dst := NewDense(b, desc)

	require.NoError(t, dst.LoadStateDict(src.StateDict()))
	assert.Equal(t, src.Weights().Data(), dst.Weights().Data())
	assert.Equal(t, src.Biases().Data(), dst.Biases().Data())

	err := dst.LoadStateDict(map[string]*tensor.RawTensor{"weight": src.Weights().Raw()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestDensePreconditions(t *testing.T) {
	b := newBackend()

	assert.Panics(t, func() { NewDense(b, DenseDesc{In: 0, Out: 3}) })
	assert.Panics(t, func() { NewDense(b, DenseDesc{In: 3, Out: -1}) })

	l := NewDense(b, DenseDesc{In: 3, Out: 2})
	assert.Panics(t, func() {
		l.ActivateOne(l.PrepareOneOutput(), tf32(t, b, []float32{1, 2}, tensor.Shape{2}))
	})
}

func TestDynDenseBridge(t *testing.T) {
	b := newBackend()
	fixed := NewDense(b, DenseDesc{In: 784, Out: 128, Activation: ReLU{}})

	dyn := NewDynDense(b, DynDenseDesc{Activation: ReLU{}})
	assert.Panics(t, func() { dyn.PrepareOneOutput() }, "unsized layer cannot allocate")

	fixed.DynInit(dyn)
	assert.Equal(t, 784, dyn.InputSize())
	assert.Equal(t, 128, dyn.OutputSize())
	assert.Equal(t, "Dense(dyn): 784 -> relu -> 128", dyn.ShortString())
	assert.Equal(t, fixed.Weights().Shape(), dyn.Weights().Shape())
}
