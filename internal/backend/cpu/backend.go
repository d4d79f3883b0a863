// Package cpu implements the reference CPU compute backend in pure Go.
package cpu

import (
	"fmt"

	"github.com/riverdarda/dll/internal/parallel"
	"github.com/riverdarda/dll/internal/tensor"
)

// Verify interface compliance at compile time.
var _ tensor.Backend = (*CPUBackend)(nil)

// CPUBackend implements every tensor.Backend operation with direct-loop
// kernels. Batch and filter loops are spread over a worker pool; each
// worker writes a disjoint slice of the output, so results are
// deterministic regardless of scheduling.
type CPUBackend struct {
	device tensor.Device
	pool   parallel.Config
}

// New creates a CPU backend with default parallelism.
func New() *CPUBackend {
	return &CPUBackend{
		device: tensor.CPU,
		pool:   parallel.DefaultConfig(),
	}
}

// NewWithConfig creates a CPU backend with explicit worker-pool settings.
func NewWithConfig(cfg parallel.Config) *CPUBackend {
	return &CPUBackend{
		device: tensor.CPU,
		pool:   cfg,
	}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "cpu"
}

// Device returns the device this backend computes on.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// Add performs element-wise addition. Shapes must match exactly.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	out := cpu.newBinaryResult("add", a, b)
	switch a.DType() {
	case tensor.Float32:
		addLoop(out.AsFloat32(), a.AsFloat32(), b.AsFloat32())
	case tensor.Float64:
		addLoop(out.AsFloat64(), a.AsFloat64(), b.AsFloat64())
	}
	return out
}

// Sub performs element-wise subtraction. Shapes must match exactly.
func (cpu *CPUBackend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	out := cpu.newBinaryResult("sub", a, b)
	switch a.DType() {
	case tensor.Float32:
		subLoop(out.AsFloat32(), a.AsFloat32(), b.AsFloat32())
	case tensor.Float64:
		subLoop(out.AsFloat64(), a.AsFloat64(), b.AsFloat64())
	}
	return out
}

// Mul performs element-wise (Hadamard) multiplication. Shapes must match
// exactly.
func (cpu *CPUBackend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	out := cpu.newBinaryResult("mul", a, b)
	switch a.DType() {
	case tensor.Float32:
		mulLoop(out.AsFloat32(), a.AsFloat32(), b.AsFloat32())
	case tensor.Float64:
		mulLoop(out.AsFloat64(), a.AsFloat64(), b.AsFloat64())
	}
	return out
}

// Div performs element-wise division. Shapes must match exactly.
func (cpu *CPUBackend) Div(a, b *tensor.RawTensor) *tensor.RawTensor {
	out := cpu.newBinaryResult("div", a, b)
	switch a.DType() {
	case tensor.Float32:
		divLoop(out.AsFloat32(), a.AsFloat32(), b.AsFloat32())
	case tensor.Float64:
		divLoop(out.AsFloat64(), a.AsFloat64(), b.AsFloat64())
	}
	return out
}

// newBinaryResult validates a same-shape binary operation and allocates
// its result tensor.
func (cpu *CPUBackend) newBinaryResult(op string, a, b *tensor.RawTensor) *tensor.RawTensor {
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("%s: dtype mismatch %s vs %s", op, a.DType(), b.DType()))
	}
	if !a.Shape().Equal(b.Shape()) {
		panic(fmt.Sprintf("%s: shape mismatch %v vs %v", op, a.Shape(), b.Shape()))
	}
	out, err := tensor.NewRaw(a.Shape(), a.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("%s: %v", op, err))
	}
	return out
}

// newResult allocates an output tensor for the given shape, panicking on
// failure; kernels validate shapes before calling it.
func (cpu *CPUBackend) newResult(op string, shape tensor.Shape, dtype tensor.DataType) *tensor.RawTensor {
	out, err := tensor.NewRaw(shape, dtype, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("%s: %v", op, err))
	}
	return out
}

func addLoop[T tensor.DType](dst, a, b []T) {
	for i := range dst {
		dst[i] = a[i] + b[i]
	}
}

func subLoop[T tensor.DType](dst, a, b []T) {
	for i := range dst {
		dst[i] = a[i] - b[i]
	}
}

func mulLoop[T tensor.DType](dst, a, b []T) {
	for i := range dst {
		dst[i] = a[i] * b[i]
	}
}

func divLoop[T tensor.DType](dst, a, b []T) {
	for i := range dst {
		dst[i] = a[i] / b[i]
	}
}
