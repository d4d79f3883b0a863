package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riverdarda/dll/internal/backend/cpu"
	"github.com/riverdarda/dll/internal/layer"
	"github.com/riverdarda/dll/internal/tensor"
)

type cpuTensor = tensor.Tensor[float32, *cpu.CPUBackend]

func newBackend() *cpu.CPUBackend {
	return cpu.New()
}

func tf32(t *testing.T, b *cpu.CPUBackend, data []float32, shape tensor.Shape) *cpuTensor {
	t.Helper()
	tt, err := tensor.FromSlice(data, shape, b)
	require.NoError(t, err)
	return tt
}

// identityConv builds a 1x1-kernel conv layer whose single filter
// multiplies by scale, with zero bias and identity activation.
func identityConv(b *cpu.CPUBackend, size int, scale float32) *layer.Conv[*cpu.CPUBackend] {
	l := layer.NewConv(b, layer.ConvDesc{
		Channels: 1, InHeight: size, InWidth: size,
		Filters: 1, OutHeight: size, OutWidth: size,
		Activation: layer.Identity{},
		WeightInit: layer.Zero{}, BiasInit: layer.Zero{},
	})
	l.Weights().Set(scale, 0, 0, 0, 0)
	return l
}

func TestNetworkForwardThreadsSamples(t *testing.T) {
	b := newBackend()
	conv := layer.NewConv(b, layer.ConvDesc{
		Channels: 1, InHeight: 3, InWidth: 3,
		Filters: 1, OutHeight: 2, OutWidth: 2,
		Activation: layer.Identity{},
		WeightInit: layer.Zero{}, BiasInit: layer.Zero{},
	})
	copy(conv.Weights().Data(), []float32{1, 0, 0, 1})
	pool := layer.NewAvgPool(b, layer.AvgPoolDesc{
		Channels: 1, InHeight: 2, InWidth: 2,
		PoolHeight: 2, PoolWidth: 2,
	})
	net := New[*cpu.CPUBackend](b, conv, pool)

	first := tf32(t, b, []float32{1, 2, 3, 4, 5, 6, 7, 8, 9}, tensor.Shape{1, 3, 3})
	second := tf32(t, b, []float32{2, 4, 6, 8, 10, 12, 14, 16, 18}, tensor.Shape{1, 3, 3})

	outputs := net.Forward([]*cpuTensor{first, second})

	require.Len(t, outputs, 2)
	// Conv maps the first sample to {6, 8, 12, 14}; the pool averages to 10.
	assert.Equal(t, tensor.Shape{1, 1, 1}, outputs[0].Shape())
	assert.Equal(t, []float32{10}, outputs[0].Data())
	assert.Equal(t, []float32{20}, outputs[1].Data())
}

func TestNetworkPatchesFlattening(t *testing.T) {
	b := newBackend()
	patches := layer.NewPatches(b, layer.PatchesDesc{
		Height: 2, Width: 2, VStride: 2, HStride: 2,
	})
	sum := layer.NewDense(b, layer.DenseDesc{
		In: 4, Out: 1,
		Activation: layer.Identity{},
		WeightInit: layer.Zero{}, BiasInit: layer.Zero{},
	})
	copy(sum.Weights().Data(), []float32{1, 1, 1, 1})
	net := New[*cpu.CPUBackend](b, patches, sum)

	base := make([]float32, 16)
	shifted := make([]float32, 16)
	for i := range base {
		base[i] = float32(i + 1)
		shifted[i] = float32(i + 1 + 100)
	}
	first := tf32(t, b, base, tensor.Shape{1, 4, 4})
	second := tf32(t, b, shifted, tensor.Shape{1, 4, 4})

	outputs := net.Forward([]*cpuTensor{first, second})

	// Each sample expands into four patches, appended in input order,
	// and the dense layer reduces each patch to its element sum.
	require.Len(t, outputs, 8)
	want := []float32{14, 22, 46, 54, 414, 422, 446, 454}
	for i, out := range outputs {
		assert.Equal(t, []float32{want[i]}, out.Data(), "patch %d", i)
	}
}

func TestNetworkActivateBatchMatchesForward(t *testing.T) {
	b := newBackend()
	conv := layer.NewConv(b, layer.ConvDesc{
		Channels: 1, InHeight: 4, InWidth: 4,
		Filters: 2, OutHeight: 2, OutWidth: 2,
		WeightInit: layer.Gaussian{Stddev: 0.5}, BiasInit: layer.Gaussian{Stddev: 0.5},
	})
	pool := layer.NewAvgPool(b, layer.AvgPoolDesc{
		Channels: 2, InHeight: 2, InWidth: 2,
		PoolHeight: 2, PoolWidth: 2,
	})
	dense := layer.NewDense(b, layer.DenseDesc{
		In: 2, Out: 3,
		WeightInit: layer.Gaussian{Stddev: 0.5}, BiasInit: layer.Gaussian{Stddev: 0.5},
	})
	net := New[*cpu.CPUBackend](b, conv, pool, dense)

	const samples = 3
	batchData := make([]float32, samples*16)
	for i := range batchData {
		batchData[i] = float32(i%7) - 3
	}
	batch := tf32(t, b, batchData, tensor.Shape{samples, 1, 4, 4})

	batched := net.ActivateBatch(batch)
	require.Equal(t, tensor.Shape{samples, 3}, batched.Shape())

	var sampleList []*cpuTensor
	for s := 0; s < samples; s++ {
		sampleList = append(sampleList, tf32(t, b, batchData[s*16:(s+1)*16], tensor.Shape{1, 4, 4}))
	}
	single := net.Forward(sampleList)
	require.Len(t, single, samples)

	for s := 0; s < samples; s++ {
		assert.Equal(t, single[s].Data(), batched.Data()[s*3:(s+1)*3],
			"batched pass must match the per-sample path for sample %d", s)
	}
}

func TestNetworkActivateBatchRejectsPatches(t *testing.T) {
	b := newBackend()
	patches := layer.NewPatches(b, layer.PatchesDesc{
		Height: 2, Width: 2, VStride: 2, HStride: 2,
	})
	net := New[*cpu.CPUBackend](b, patches)

	batch := tf32(t, b, make([]float32, 16), tensor.Shape{1, 1, 4, 4})
	assert.PanicsWithValue(t,
		"network: layer 0 (Patches -> (2:2x2:2)) does not support batched activation",
		func() { net.ActivateBatch(batch) })
}

func TestNetworkTrainingRejectsNonSGD(t *testing.T) {
	b := newBackend()
	conv := layer.NewConv(b, layer.ConvDesc{
		Channels: 1, InHeight: 4, InWidth: 4,
		Filters: 1, OutHeight: 4, OutWidth: 4,
	})
	patches := layer.NewPatches(b, layer.PatchesDesc{
		Height: 2, Width: 2, VStride: 2, HStride: 2,
	})
	net := New[*cpu.CPUBackend](b, conv, patches)

	tr, err := net.Training(8)
	require.Error(t, err)
	assert.Nil(t, tr)
	assert.Contains(t, err.Error(), "layer 1")
	assert.Contains(t, err.Error(), "Patches")

	assert.Panics(t, func() { _, _ = net.Training(0) })
}

func TestNetworkTrainingForwardBackward(t *testing.T) {
	b := newBackend()
	hidden := layer.NewDense(b, layer.DenseDesc{
		In: 2, Out: 2,
		Activation: layer.Identity{},
		WeightInit: layer.Zero{}, BiasInit: layer.Zero{},
	})
	copy(hidden.Weights().Data(), []float32{1, 0, 0, 1})
	copy(hidden.Biases().Data(), []float32{1, -1})
	output := layer.NewDense(b, layer.DenseDesc{
		In: 2, Out: 1,
		Activation: layer.Identity{},
		WeightInit: layer.Zero{}, BiasInit: layer.Zero{},
	})
	copy(output.Weights().Data(), []float32{2, 3})
	net := New[*cpu.CPUBackend](b, hidden, output)

	tr, err := net.Training(1)
	require.NoError(t, err)
	assert.Equal(t, 1, tr.Batch())

	batch := tf32(t, b, []float32{1, 2}, tensor.Shape{1, 2})
	result := tr.Forward(batch)

	// Hidden shifts by the bias, the head is x0*2 + x1*3.
	assert.Equal(t, []float32{2, 1}, tr.Context(0).Output.Data())
	assert.Equal(t, []float32{7}, result.Data())
	assert.Equal(t, []float32{1, 2}, tr.Context(0).Input.Data())
	assert.Equal(t, []float32{2, 1}, tr.Context(1).Input.Data())
	assert.Same(t, result, tr.Output())

	errs := tf32(t, b, []float32{1}, tensor.Shape{1, 1})
	tr.Backward(errs)

	wGrad, bGrad := tr.Gradients(1)
	assert.Equal(t, []float32{2, 1}, wGrad.Data())
	assert.Equal(t, []float32{1}, bGrad.Data())

	// The head pushes its errors through its weights into the hidden
	// context, which the hidden layer then differentiates in place.
	assert.Equal(t, []float32{2, 3}, tr.Context(0).Errors.Data())
	wGrad, bGrad = tr.Gradients(0)
	assert.Equal(t, []float32{2, 3, 4, 6}, wGrad.Data())
	assert.Equal(t, []float32{2, 3}, bGrad.Data())
}

func TestNetworkTrainingAdaptsThroughDerivative(t *testing.T) {
	b := newBackend()
	l := layer.NewDense(b, layer.DenseDesc{
		In: 2, Out: 2,
		WeightInit: layer.Zero{}, BiasInit: layer.Zero{},
	})
	net := New[*cpu.CPUBackend](b, l)

	tr, err := net.Training(1)
	require.NoError(t, err)

	batch := tf32(t, b, []float32{1, 1}, tensor.Shape{1, 2})
	result := tr.Forward(batch)
	assert.InDeltaSlice(t, []float32{0.5, 0.5}, result.Data(), 1e-6)

	tr.Backward(tf32(t, b, []float32{1, 2}, tensor.Shape{1, 2}))

	// sigmoid'(0.5) = 0.25 scales each error component.
	assert.InDeltaSlice(t, []float32{0.25, 0.5}, tr.Context(0).Errors.Data(), 1e-6)
	wGrad, bGrad := tr.Gradients(0)
	assert.InDeltaSlice(t, []float32{0.25, 0.5, 0.25, 0.5}, wGrad.Data(), 1e-6)
	assert.InDeltaSlice(t, []float32{0.25, 0.5}, bGrad.Data(), 1e-6)
}

func TestNetworkTrainingWithPooling(t *testing.T) {
	b := newBackend()
	conv := identityConv(b, 2, 2)
	pool := layer.NewAvgPool(b, layer.AvgPoolDesc{
		Channels: 1, InHeight: 2, InWidth: 2,
		PoolHeight: 2, PoolWidth: 2,
	})
	net := New[*cpu.CPUBackend](b, conv, pool)

	tr, err := net.Training(1)
	require.NoError(t, err)

	batch := tf32(t, b, []float32{1, 2, 3, 4}, tensor.Shape{1, 1, 2, 2})
	result := tr.Forward(batch)
	assert.Equal(t, []float32{5}, result.Data())

	tr.Backward(tf32(t, b, []float32{4}, tensor.Shape{1, 1, 1, 1}))

	// The pool spreads the error evenly over its window.
	assert.Equal(t, []float32{1, 1, 1, 1}, tr.Context(0).Errors.Data())

	wGrad, bGrad := tr.Gradients(1)
	assert.Nil(t, wGrad)
	assert.Nil(t, bGrad)

	wGrad, bGrad = tr.Gradients(0)
	assert.Equal(t, []float32{10}, wGrad.Data())
	assert.Equal(t, []float32{4}, bGrad.Data())
}

func TestNetworkStateDict(t *testing.T) {
	b := newBackend()
	build := func() *Network[*cpu.CPUBackend] {
		conv := layer.NewConv(b, layer.ConvDesc{
			Channels: 1, InHeight: 6, InWidth: 6,
			Filters: 2, OutHeight: 4, OutWidth: 4,
			WeightInit: layer.Gaussian{Stddev: 0.5}, BiasInit: layer.Gaussian{Stddev: 0.5},
		})
		pool := layer.NewAvgPool(b, layer.AvgPoolDesc{
			Channels: 2, InHeight: 4, InWidth: 4,
			PoolHeight: 2, PoolWidth: 2,
		})
		dense := layer.NewDense(b, layer.DenseDesc{
			In: 8, Out: 3,
			WeightInit: layer.Gaussian{Stddev: 0.5}, BiasInit: layer.Gaussian{Stddev: 0.5},
		})
		return New[*cpu.CPUBackend](b, conv, pool, dense)
	}

	src := build()
	state := src.StateDict()

	require.Len(t, state, 4)
	for _, key := range []string{"layers.0.weight", "layers.0.bias", "layers.2.weight", "layers.2.bias"} {
		assert.Contains(t, state, key)
	}

	dst := build()
	require.NoError(t, dst.LoadStateDict(state))
	for i, p := range src.Parameters() {
		assert.Equal(t, p.Data(), dst.Parameters()[i].Data(), "parameter %d", i)
	}
}

func TestNetworkLoadStateDictErrors(t *testing.T) {
	b := newBackend()
	dense := layer.NewDense(b, layer.DenseDesc{In: 2, Out: 2})
	net := New[*cpu.CPUBackend](b, dense)
	good := net.StateDict()

	bad := map[string]*tensor.RawTensor{"weight": good["layers.0.weight"]}
	assert.ErrorContains(t, net.LoadStateDict(bad), "unexpected state key")

	bad = map[string]*tensor.RawTensor{"layers.weight": good["layers.0.weight"]}
	assert.ErrorContains(t, net.LoadStateDict(bad), "unexpected state key")

	bad = map[string]*tensor.RawTensor{
		"layers.0.weight": good["layers.0.weight"],
		"layers.0.bias":   good["layers.0.bias"],
		"layers.9.weight": good["layers.0.weight"],
	}
	assert.ErrorContains(t, net.LoadStateDict(bad), "does not address a layer")

	assert.ErrorContains(t, net.LoadStateDict(map[string]*tensor.RawTensor{}), "no parameters for layer 0")

	pool := layer.NewAvgPool(b, layer.AvgPoolDesc{
		Channels: 1, InHeight: 2, InWidth: 2,
		PoolHeight: 2, PoolWidth: 2,
	})
	withPool := New[*cpu.CPUBackend](b, pool)
	bad = map[string]*tensor.RawTensor{"layers.0.weight": good["layers.0.weight"]}
	assert.ErrorContains(t, withPool.LoadStateDict(bad), "has no parameters to load")
}

func TestNetworkSnapshotRestore(t *testing.T) {
	b := newBackend()
	conv := layer.NewConv(b, layer.ConvDesc{
		Channels: 1, InHeight: 4, InWidth: 4,
		Filters: 1, OutHeight: 3, OutWidth: 3,
		WeightInit: layer.Gaussian{Stddev: 0.5}, BiasInit: layer.Gaussian{Stddev: 0.5},
	})
	dense := layer.NewDense(b, layer.DenseDesc{
		In: 9, Out: 2,
		WeightInit: layer.Gaussian{Stddev: 0.5}, BiasInit: layer.Gaussian{Stddev: 0.5},
	})
	net := New[*cpu.CPUBackend](b, conv, dense)

	var saved [][]float32
	for _, p := range net.Parameters() {
		saved = append(saved, append([]float32(nil), p.Data()...))
	}

	net.Snapshot()
	for _, p := range net.Parameters() {
		clear(p.Data())
	}
	net.Restore()

	for i, p := range net.Parameters() {
		assert.Equal(t, saved[i], p.Data(), "parameter %d", i)
	}
}

func TestNetworkDescribe(t *testing.T) {
	b := newBackend()
	conv := layer.NewConv(b, layer.ConvDesc{
		Channels: 1, InHeight: 28, InWidth: 28,
		Filters: 6, OutHeight: 24, OutWidth: 24,
	})
	pool := layer.NewAvgPool(b, layer.AvgPoolDesc{
		Channels: 6, InHeight: 24, InWidth: 24,
		PoolHeight: 2, PoolWidth: 2,
	})
	dense := layer.NewDense(b, layer.DenseDesc{In: 864, Out: 10})
	net := New[*cpu.CPUBackend](b, conv, pool, dense)

	want := "0: Conv: 1x28x28 -> (6x5x5) -> sigmoid -> 6x24x24\n" +
		"1: AvgP: 6x24x24 -> (2x2) -> 6x12x12\n" +
		"2: Dense: 864 -> sigmoid -> 10\n"
	assert.Equal(t, want, net.Describe())
	assert.Equal(t, 3, net.Len())
	assert.Equal(t, pool, net.Unit(1))
}

func TestNetworkParameters(t *testing.T) {
	b := newBackend()
	conv := layer.NewConv(b, layer.ConvDesc{
		Channels: 1, InHeight: 4, InWidth: 4,
		Filters: 1, OutHeight: 3, OutWidth: 3,
	})
	pool := layer.NewAvgPool(b, layer.AvgPoolDesc{
		Channels: 1, InHeight: 3, InWidth: 3,
		PoolHeight: 3, PoolWidth: 3,
	})
	net := New[*cpu.CPUBackend](b, conv, pool)

	params := net.Parameters()
	require.Len(t, params, 2)
	assert.Same(t, conv.Weights(), params[0])
	assert.Same(t, conv.Biases(), params[1])
}

func TestNetworkNewValidation(t *testing.T) {
	b := newBackend()
	assert.Panics(t, func() { New[*cpu.CPUBackend](b) })

	conv := layer.NewConv(b, layer.ConvDesc{
		Channels: 1, InHeight: 28, InWidth: 28,
		Filters: 6, OutHeight: 24, OutWidth: 24,
	})
	dense := layer.NewDense(b, layer.DenseDesc{In: 100, Out: 10})
	assert.Panics(t, func() { New[*cpu.CPUBackend](b, conv, dense) },
		"mismatched adjacent sizes must be rejected")
}

func TestNetworkWithDynamicLayers(t *testing.T) {
	b := newBackend()
	fixed := layer.NewDense(b, layer.DenseDesc{
		In: 4, Out: 2,
		Activation: layer.Identity{},
		WeightInit: layer.Zero{}, BiasInit: layer.Zero{},
	})
	dyn := layer.NewDynDense(b, layer.DynDenseDesc{
		Activation: layer.Identity{},
		WeightInit: layer.Zero{}, BiasInit: layer.Zero{},
	})
	fixed.DynInit(dyn)

	net := New[*cpu.CPUBackend](b, dyn)
	copy(dyn.Weights().Data(), []float32{1, 0, 0, 1, 1, 0, 0, 1})

	out := net.ActivateBatch(tf32(t, b, []float32{1, 2, 3, 4}, tensor.Shape{1, 4}))
	assert.Equal(t, []float32{4, 6}, out.Data())

	tr, err := net.Training(1)
	require.NoError(t, err)
	require.NotNil(t, tr)
}
