// Copyright 2025 The dll Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/riverdarda/dll/internal/tensor"
)

// RawTensor is the low-level tensor representation.
//
// RawTensor provides:
//   - Shape and type information via Shape(), DType(), Device()
//   - Type-safe data access via AsFloat32() and AsFloat64()
//   - Independent copies via Clone() and in-place writes via CopyFrom()
//   - Metadata reshaping via View()
//
// Every RawTensor owns its buffer outright; Clone always allocates.
// Most users should use the high-level Tensor[T, B] type instead.
//
// Example:
//
//	raw, _ := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float32, tensor.CPU)
//	data := raw.AsFloat32() // Type-safe access
//	clone := raw.Clone()    // Independent copy
type RawTensor = tensor.RawTensor
