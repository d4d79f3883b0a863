// Package layer implements the network layer units: convolution, dense,
// average pooling and patch extraction. Every kind comes in two forms
// with identical operational behavior: a fixed form whose dimensions are
// frozen by its descriptor, and a dynamic form sized later through an
// explicit Init call. Composition code is written once against the
// interfaces in unit.go and the capability table below.
package layer

import "fmt"

// Kind identifies a concrete layer variant.
type Kind uint8

// Layer variants. Every fixed kind has a dynamic dual; only
// construction and initialization differ between the two.
const (
	KindConv Kind = iota
	KindDynConv
	KindDense
	KindDynDense
	KindAvgPool
	KindDynAvgPool
	KindPatches
	KindDynPatches
)

var kindNames = [...]string{
	KindConv:       "conv",
	KindDynConv:    "dyn_conv",
	KindDense:      "dense",
	KindDynDense:   "dyn_dense",
	KindAvgPool:    "avg_pool",
	KindDynAvgPool: "dyn_avg_pool",
	KindPatches:    "patches",
	KindDynPatches: "dyn_patches",
}

// String returns the stable variant name, also used as the layer type
// tag in serialized models.
func (k Kind) String() string {
	if int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// KindFromString resolves a variant name produced by Kind.String.
func KindFromString(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("layer: unknown kind %q", name)
}

// Traits is the capability record of a layer variant. It is a pure
// function of the Kind, so composition code can decide how to drive a
// layer without instantiating or running it.
type Traits struct {
	Neural       bool // owns learnable weights and biases
	Dense        bool // fully connected forward pass
	Conv         bool // convolutional forward pass
	Pooling      bool // spatial pooling, parameterless
	Transform    bool // shape-only transform, parameterless
	Dynamic      bool // dimensions supplied at runtime via Init
	SGD          bool // usable in gradient-based training
	PretrainLast bool // only valid as the last stage of a pretraining pipeline
}

var traitsTable = [...]Traits{
	KindConv:       {Neural: true, Conv: true, SGD: true},
	KindDynConv:    {Neural: true, Conv: true, SGD: true, Dynamic: true},
	KindDense:      {Neural: true, Dense: true, SGD: true},
	KindDynDense:   {Neural: true, Dense: true, SGD: true, Dynamic: true},
	KindAvgPool:    {Pooling: true, SGD: true},
	KindDynAvgPool: {Pooling: true, SGD: true, Dynamic: true},
	KindPatches:    {Transform: true},
	KindDynPatches: {Transform: true, Dynamic: true},
}

// TraitsOf returns the capability record for a layer kind.
func TraitsOf(k Kind) Traits {
	if int(k) >= len(traitsTable) {
		panic(fmt.Sprintf("layer: unknown kind %d", k))
	}
	return traitsTable[k]
}
