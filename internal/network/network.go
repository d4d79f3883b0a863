// Package network stacks layer units into a feed-forward model and
// drives activation and gradient passes across the whole stack.
package network

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/riverdarda/dll/internal/layer"
	"github.com/riverdarda/dll/internal/tensor"
)

// Network is an ordered stack of layer units sharing one backend.
// Units are stored behind the metadata interface; activation and
// training paths discover per-unit capabilities by interface assertion.
type Network[B tensor.Backend] struct {
	backend B
	units   []layer.Unit
}

// New builds a network from the given units, in order.
//
// Every unit must support activation on backend B, either tensor-valued
// (Forward) or container-valued (Transform). Adjacent layers with known
// sizes must agree: the output size of layer i has to match the input
// size of layer i+1. Violations are programmer errors and panic.
func New[B tensor.Backend](backend B, units ...layer.Unit) *Network[B] {
	if len(units) == 0 {
		panic("network: at least one layer is required")
	}
	for i, u := range units {
		_, forward := u.(layer.Forward[B])
		_, transform := u.(layer.Transform[B])
		if !forward && !transform {
			panic(fmt.Sprintf("network: layer %d (%s) cannot run on backend %s", i, u.ShortString(), backend.Name()))
		}
		if i == 0 {
			continue
		}
		prev := units[i-1]
		out, in := prev.OutputSize(), u.InputSize()
		if out > 0 && in > 0 && out != in {
			panic(fmt.Sprintf("network: layer %d (%s) produces %d values but layer %d (%s) expects %d",
				i-1, prev.ShortString(), out, i, u.ShortString(), in))
		}
	}
	return &Network[B]{backend: backend, units: units}
}

// Backend returns the backend shared by all layers.
func (n *Network[B]) Backend() B { return n.backend }

// Len returns the number of layers.
func (n *Network[B]) Len() int { return len(n.units) }

// Unit returns the i-th layer.
func (n *Network[B]) Unit(i int) layer.Unit { return n.units[i] }

// Forward threads a list of independent samples through the stack.
//
// Tensor-valued layers map each sample to one output. Patch layers map
// each sample to a list of patches; the lists are appended in input
// order, so the result may hold more tensors than went in. Layers adapt
// incoming representations themselves, a flat sample can feed a conv
// layer and a conv output can feed a dense layer.
func (n *Network[B]) Forward(samples []*tensor.Tensor[float32, B]) []*tensor.Tensor[float32, B] {
	current := samples
	for i, u := range n.units {
		switch l := u.(type) {
		case layer.Transform[B]:
			next := make([]*tensor.Tensor[float32, B], 0, len(current))
			for _, s := range current {
				outputs := l.PrepareOneOutput()
				l.ActivateOne(&outputs, s)
				next = append(next, outputs...)
			}
			current = next
		case layer.Forward[B]:
			next := make([]*tensor.Tensor[float32, B], len(current))
			for j, s := range current {
				output := l.PrepareOneOutput()
				l.ActivateOne(output, s)
				next[j] = output
			}
			current = next
		default:
			panic(fmt.Sprintf("network: layer %d (%s) cannot activate", i, u.ShortString()))
		}
	}
	return current
}

// ActivateBatch threads one batch tensor through the stack and returns
// the final activation. The leading dimension is the sample count and
// is preserved across layers.
//
// Patch layers change the number of samples and cannot take part in a
// batched pass; their presence is a programmer error and panics. Use
// Forward with a sample list instead.
func (n *Network[B]) ActivateBatch(batch *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	samples := batch.Shape()[0]
	current := batch
	for i, u := range n.units {
		f, ok := u.(layer.Forward[B])
		if !ok {
			panic(fmt.Sprintf("network: layer %d (%s) does not support batched activation", i, u.ShortString()))
		}
		output := f.PrepareOutput(samples)
		f.ActivateBatch(output, current)
		current = output
	}
	return current
}

// Training allocates a gradient pass over the stack for the given batch
// size. Every layer must be able to propagate errors and be marked for
// gradient descent; otherwise an error naming the offending layer is
// returned.
func (n *Network[B]) Training(batch int) (*Training[B], error) {
	if batch <= 0 {
		panic(fmt.Sprintf("network: invalid batch size %d", batch))
	}
	props := make([]layer.Propagator[B], len(n.units))
	for i, u := range n.units {
		p, ok := u.(layer.Propagator[B])
		if !ok || !u.Traits().SGD {
			return nil, fmt.Errorf("network: layer %d (%s) does not support gradient training", i, u.ShortString())
		}
		props[i] = p
	}
	contexts := make([]*layer.Context[B], len(props))
	for i, p := range props {
		contexts[i] = p.NewContext(batch)
	}
	return &Training[B]{net: n, batch: batch, props: props, contexts: contexts}, nil
}

// Parameters returns the learnable tensors of all neural layers in
// order, weights before biases within each layer. Layers without
// parameters contribute nothing.
func (n *Network[B]) Parameters() []*tensor.Tensor[float32, B] {
	var params []*tensor.Tensor[float32, B]
	for _, u := range n.units {
		if nl, ok := u.(layer.Neural[B]); ok {
			params = append(params, nl.Weights(), nl.Biases())
		}
	}
	return params
}

// Snapshot captures the parameters of every neural layer.
func (n *Network[B]) Snapshot() {
	for _, u := range n.units {
		if nl, ok := u.(layer.Neural[B]); ok {
			nl.Snapshot()
		}
	}
}

// Restore rolls every neural layer back to its last snapshot.
func (n *Network[B]) Restore() {
	for _, u := range n.units {
		if nl, ok := u.(layer.Neural[B]); ok {
			nl.Restore()
		}
	}
}

// StateDict collects the parameters of all neural layers into one flat
// map. Keys are prefixed with the layer position, "layers.0.weight".
// Layers without parameters contribute no entries.
func (n *Network[B]) StateDict() map[string]*tensor.RawTensor {
	state := make(map[string]*tensor.RawTensor)
	for i, u := range n.units {
		nl, ok := u.(layer.Neural[B])
		if !ok {
			continue
		}
		for name, raw := range nl.StateDict() {
			state["layers."+strconv.Itoa(i)+"."+name] = raw
		}
	}
	return state
}

// LoadStateDict restores all neural layers from a flat map produced by
// StateDict. Every key must parse as "layers.<i>.<name>" and address a
// neural layer; every neural layer must find its complete parameter
// set.
func (n *Network[B]) LoadStateDict(state map[string]*tensor.RawTensor) error {
	perLayer := make(map[int]map[string]*tensor.RawTensor)
	for key, raw := range state {
		rest, ok := strings.CutPrefix(key, "layers.")
		if !ok {
			return fmt.Errorf("network: unexpected state key %q", key)
		}
		idx, name, ok := strings.Cut(rest, ".")
		if !ok {
			return fmt.Errorf("network: unexpected state key %q", key)
		}
		i, err := strconv.Atoi(idx)
		if err != nil || i < 0 || i >= len(n.units) {
			return fmt.Errorf("network: state key %q does not address a layer", key)
		}
		if perLayer[i] == nil {
			perLayer[i] = make(map[string]*tensor.RawTensor)
		}
		perLayer[i][name] = raw
	}
	for i, u := range n.units {
		nl, ok := u.(layer.Neural[B])
		if !ok {
			if len(perLayer[i]) > 0 {
				return fmt.Errorf("network: layer %d (%s) has no parameters to load", i, u.ShortString())
			}
			continue
		}
		sub := perLayer[i]
		if len(sub) == 0 {
			return fmt.Errorf("network: no parameters for layer %d (%s)", i, u.ShortString())
		}
		if err := nl.LoadStateDict(sub); err != nil {
			return fmt.Errorf("network: layer %d: %w", i, err)
		}
	}
	return nil
}

// Describe returns a one-line-per-layer summary of the stack.
func (n *Network[B]) Describe() string {
	var sb strings.Builder
	for i, u := range n.units {
		fmt.Fprintf(&sb, "%d: %s\n", i, u.ShortString())
	}
	return sb.String()
}
