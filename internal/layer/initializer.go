package layer

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/riverdarda/dll/internal/tensor"
)

// Initializer fills a freshly allocated parameter tensor. Strategies
// receive the owning layer's input and output sizes so fan-scaled
// schemes work for any layer shape. Initialize is called exactly once
// per parameter tensor, at construction or Init time.
type Initializer interface {
	Initialize(t *tensor.RawTensor, inputSize, outputSize int)
}

func initializerOrDefault(in Initializer) Initializer {
	if in == nil {
		return Lecun{}
	}
	return in
}

// Zero fills the tensor with zeros. The usual choice for biases.
type Zero struct{}

func (Zero) Initialize(t *tensor.RawTensor, _, _ int) {
	clear(t.Data())
}

// Gaussian fills with samples from N(Mean, Stddev^2).
type Gaussian struct {
	Mean   float64
	Stddev float64
	Source *rand.Rand // nil uses the global source
}

func (g Gaussian) Initialize(t *tensor.RawTensor, _, _ int) {
	fillNormal(t, g.Source, g.Mean, g.Stddev)
}

// Lecun scales a unit normal by 1/sqrt(fan-in).
type Lecun struct {
	Source *rand.Rand
}

func (l Lecun) Initialize(t *tensor.RawTensor, inputSize, _ int) {
	fillNormal(t, l.Source, 0, 1/math.Sqrt(float64(inputSize)))
}

// Xavier scales a unit normal by sqrt(2/(fan-in+fan-out)).
type Xavier struct {
	Source *rand.Rand
}

func (x Xavier) Initialize(t *tensor.RawTensor, inputSize, outputSize int) {
	fillNormal(t, x.Source, 0, math.Sqrt(2/float64(inputSize+outputSize)))
}

// XavierFull scales a unit normal by sqrt(6/(fan-in+fan-out)).
type XavierFull struct {
	Source *rand.Rand
}

func (x XavierFull) Initialize(t *tensor.RawTensor, inputSize, outputSize int) {
	fillNormal(t, x.Source, 0, math.Sqrt(6/float64(inputSize+outputSize)))
}

// He scales a unit normal by sqrt(2/fan-in). Suited to relu stacks.
type He struct {
	Source *rand.Rand
}

func (h He) Initialize(t *tensor.RawTensor, inputSize, _ int) {
	fillNormal(t, h.Source, 0, math.Sqrt(2/float64(inputSize)))
}

func fillNormal(t *tensor.RawTensor, src *rand.Rand, mean, stddev float64) {
	norm := rand.NormFloat64
	if src != nil {
		norm = src.NormFloat64
	}

	switch t.DType() {
	case tensor.Float32:
		data := t.AsFloat32()
		for i := range data {
			data[i] = float32(mean + stddev*norm())
		}
	case tensor.Float64:
		data := t.AsFloat64()
		for i := range data {
			data[i] = mean + stddev*norm()
		}
	default:
		panic(fmt.Sprintf("initializer: unsupported dtype %s", t.DType()))
	}
}
