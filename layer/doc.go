// Copyright 2025 The dll Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package layer provides the neural-network layer units of the dll
// library.
//
// # Overview
//
// Four layer kinds are provided, each in a fixed and a dynamic form:
//   - Conv / DynConv: valid-correlation convolution
//   - Dense / DynDense: fully connected
//   - AvgPool / DynAvgPool: non-overlapping average pooling
//   - Patches / DynPatches: sliding-window patch extraction
//
// A fixed layer freezes its dimensions at construction from a
// descriptor; a dynamic layer is constructed unsized and receives its
// dimensions later through an explicit Init call. Once initialized the
// two forms are operationally identical, and a fixed layer can copy its
// shape onto a dynamic one via DynInit.
//
// # Capabilities
//
// Composition code never branches on concrete layer types. Each unit
// reports a Kind and a Traits record, and the capability interfaces
// (Forward, Transform, Propagator, Neural) expose exactly the
// operations a given variant supports:
//
//	if n, ok := unit.(layer.Neural[B]); ok {
//	    n.AdaptErrors(ctx)
//	    n.ComputeGradients(ctx)
//	}
//
// # Training protocol
//
// Per-pass state lives in a Context, never in the layer: a unit holds
// only its dimensions and parameters, so any number of passes can be
// in flight against the same layer. The backward protocol for a neural
// layer is AdaptErrors, then ComputeGradients, then Backward into the
// upstream context. Applying gradients is deliberately out of scope;
// Context exposes them for an external optimizer.
//
// # Basic Usage
//
//	import (
//	    "github.com/riverdarda/dll/backend/cpu"
//	    "github.com/riverdarda/dll/layer"
//	)
//
//	func main() {
//	    backend := cpu.New()
//
//	    conv := layer.NewConv(backend, layer.ConvDesc{
//	        Channels: 1, InHeight: 28, InWidth: 28,
//	        Filters: 6, OutHeight: 24, OutWidth: 24,
//	    })
//
//	    in := conv.PrepareInput()
//	    out := conv.PrepareOneOutput()
//	    conv.ActivateOne(out, in)
//	}
package layer
