// Copyright 2025 The dll Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package network composes layer units into a feed-forward model.
//
// A Network owns an ordered stack of layers sharing one backend. It
// validates the stack at construction (adjacent sizes, backend
// compatibility), threads samples or batches through the layers, and
// exposes the training entry point:
//
//	net := network.New(backend,
//	    layer.NewConv(backend, layer.ConvDesc{...}),
//	    layer.NewAvgPool(backend, layer.AvgPoolDesc{...}),
//	    layer.NewDense(backend, layer.DenseDesc{...}),
//	)
//
//	tr, err := net.Training(batchSize)
//	if err != nil {
//	    log.Fatal(err) // a layer does not support gradient training
//	}
//	out := tr.Forward(batch)
//	tr.Backward(errs)
//
// Training owns one Context per layer; gradients accumulate there and
// are read back via Gradients. Applying them is an external
// optimizer's job.
package network

import (
	"github.com/riverdarda/dll/internal/network"
	"github.com/riverdarda/dll/layer"
	"github.com/riverdarda/dll/tensor"
)

// Network is an ordered stack of layer units sharing one backend.
type Network[B tensor.Backend] = network.Network[B]

// Training drives forward and backward passes over a network with one
// Context per layer.
type Training[B tensor.Backend] = network.Training[B]

// New builds a network over the given backend. It panics when the
// stack is empty, when a unit cannot run on the backend, or when
// adjacent layer sizes disagree.
func New[B tensor.Backend](backend B, units ...layer.Unit) *Network[B] {
	return network.New[B](backend, units...)
}
