// Copyright 2025 The dll Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor_test

import (
	"testing"

	"github.com/riverdarda/dll/internal/backend/cpu"
	"github.com/riverdarda/dll/tensor"
)

// TestBackendInterface verifies that cpu.CPUBackend implements tensor.Backend.
func TestBackendInterface(_ *testing.T) {
	var _ tensor.Backend = (*cpu.CPUBackend)(nil)
}

// TestRawTensorAPI verifies the RawTensor type alias exposes the expected API.
func TestRawTensorAPI(t *testing.T) {
	raw, err := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatalf("NewRaw failed: %v", err)
	}

	if !raw.Shape().Equal(tensor.Shape{2, 3}) {
		t.Errorf("Shape() = %v, want [2 3]", raw.Shape())
	}

	if raw.DType() != tensor.Float32 {
		t.Errorf("DType() = %v, want Float32", raw.DType())
	}

	if raw.Device() != tensor.CPU {
		t.Errorf("Device() = %v, want CPU", raw.Device())
	}

	if n := raw.NumElements(); n != 6 {
		t.Errorf("NumElements() = %d, want 6", n)
	}

	expected := 6 * 4 // 6 elements * 4 bytes (float32)
	if byteSize := raw.ByteSize(); byteSize != expected {
		t.Errorf("ByteSize() = %d, want %d", byteSize, expected)
	}

	if data := raw.Data(); len(data) != expected {
		t.Errorf("Data() length = %d, want %d", len(data), expected)
	}

	if f32 := raw.AsFloat32(); len(f32) != 6 {
		t.Errorf("AsFloat32() length = %d, want 6", len(f32))
	}

	// Clone allocates an independent buffer.
	clone := raw.Clone()
	if clone == nil {
		t.Fatal("Clone() returned nil")
	}
	clone.AsFloat32()[0] = 42
	if raw.AsFloat32()[0] == 42 {
		t.Error("Clone() shares a buffer with the original")
	}

	// CopyFrom writes in place.
	raw.CopyFrom(clone)
	if raw.AsFloat32()[0] != 42 {
		t.Error("CopyFrom() did not copy data")
	}

	// View reinterprets the shape over the same buffer.
	view := raw.View(tensor.Shape{3, 2})
	if !view.Shape().Equal(tensor.Shape{3, 2}) {
		t.Errorf("View() shape = %v, want [3 2]", view.Shape())
	}
	view.AsFloat32()[1] = 7
	if raw.AsFloat32()[1] != 7 {
		t.Error("View() does not share the buffer")
	}
}

// TestTensorCreationFunctions verifies the high-level tensor creation API.
func TestTensorCreationFunctions(t *testing.T) {
	backend := cpu.New()

	tests := []struct {
		name string
		fn   func() interface{}
	}{
		{
			name: "Zeros",
			fn: func() interface{} {
				return tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
			},
		},
		{
			name: "Ones",
			fn: func() interface{} {
				return tensor.Ones[float32](tensor.Shape{2, 3}, backend)
			},
		},
		{
			name: "Full",
			fn: func() interface{} {
				return tensor.Full[float32](tensor.Shape{2, 3}, 3.14, backend)
			},
		},
		{
			name: "Randn",
			fn: func() interface{} {
				return tensor.Randn[float32](tensor.Shape{2, 3}, backend)
			},
		},
		{
			name: "Rand",
			fn: func() interface{} {
				return tensor.Rand[float32](tensor.Shape{2, 3}, backend)
			},
		},
		{
			name: "Eye",
			fn: func() interface{} {
				return tensor.Eye[float32](3, backend)
			},
		},
		{
			name: "FromSlice",
			fn: func() interface{} {
				data := []float32{1, 2, 3, 4, 5, 6}
				x, err := tensor.FromSlice(data, tensor.Shape{2, 3}, backend)
				if err != nil {
					return err
				}
				return x
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.fn()
			if result == nil {
				t.Errorf("%s() returned nil", tt.name)
			}
			if err, ok := result.(error); ok {
				t.Errorf("%s() returned error: %v", tt.name, err)
			}
		})
	}
}

// TestDeviceConstants verifies all device constants are accessible.
func TestDeviceConstants(t *testing.T) {
	devices := []struct {
		name   string
		device tensor.Device
	}{
		{"CPU", tensor.CPU},
		{"WebGPU", tensor.WebGPU},
	}

	for _, d := range devices {
		t.Run(d.name, func(t *testing.T) {
			str := d.device.String()
			if str == "" || str == "Unknown" {
				t.Errorf("Device.String() = %q, want non-empty known device name", str)
			}
		})
	}
}

// TestDataTypeConstants verifies all data type constants are accessible.
func TestDataTypeConstants(t *testing.T) {
	dtypes := []struct {
		name  string
		dtype tensor.DataType
	}{
		{"Float32", tensor.Float32},
		{"Float64", tensor.Float64},
	}

	for _, dt := range dtypes {
		t.Run(dt.name, func(t *testing.T) {
			if str := dt.dtype.String(); str == "" {
				t.Errorf("DataType.String() = %q, want non-empty", str)
			}
			if size := dt.dtype.Size(); size <= 0 {
				t.Errorf("DataType.Size() = %d, want > 0", size)
			}
		})
	}
}

// TestShapeAPI verifies the Shape type alias exposes the expected API.
func TestShapeAPI(t *testing.T) {
	shape := tensor.Shape{2, 3, 4}

	if n := shape.NumElements(); n != 24 {
		t.Errorf("NumElements() = %d, want 24", n)
	}

	if len(shape) != 3 {
		t.Errorf("len(shape) = %d, want 3", len(shape))
	}

	if !shape.Equal(tensor.Shape{2, 3, 4}) {
		t.Error("Equal() = false, want true for identical shapes")
	}

	clone := shape.Clone()
	if !clone.Equal(shape) {
		t.Error("Clone() created non-equal shape")
	}

	clone[0] = 999
	if shape[0] == 999 {
		t.Error("Clone() didn't create independent copy")
	}
}
