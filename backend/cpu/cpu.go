// Copyright 2025 The dll Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	internalcpu "github.com/riverdarda/dll/internal/backend/cpu"
	"github.com/riverdarda/dll/internal/parallel"
	"github.com/riverdarda/dll/tensor"
)

// Backend represents the CPU backend implementation.
//
// The CPU backend provides pure Go reference implementations of every
// tensor operation the layer family needs.
type Backend = internalcpu.CPUBackend

// Config controls how the backend parallelizes its kernels across
// goroutines. The zero value disables parallelism.
type Config = parallel.Config

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a new CPU backend with parallelism sized to the machine.
//
// Example:
//
//	import (
//	    "github.com/riverdarda/dll/backend/cpu"
//	    "github.com/riverdarda/dll/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	}
func New() *Backend {
	return internalcpu.New()
}

// NewWithConfig creates a CPU backend with explicit parallelism
// settings. Useful to force sequential execution in tests and
// benchmarks.
func NewWithConfig(cfg Config) *Backend {
	return internalcpu.NewWithConfig(cfg)
}
