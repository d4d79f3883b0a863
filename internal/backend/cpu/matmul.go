package cpu

import (
	"fmt"

	"github.com/riverdarda/dll/internal/parallel"
	"github.com/riverdarda/dll/internal/tensor"
)

// MatMul performs matrix multiplication: (M, K) @ (K, N) -> (M, N).
// Rows of the result are computed independently across the worker pool.
func (cpu *CPUBackend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	as := a.Shape()
	bs := b.Shape()
	if len(as) != 2 || len(bs) != 2 {
		panic(fmt.Sprintf("matmul: only 2D tensors supported, got %dD and %dD", len(as), len(bs)))
	}
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("matmul: dtype mismatch %s vs %s", a.DType(), b.DType()))
	}

	m, k := as[0], as[1]
	kAlt, n := bs[0], bs[1]
	if k != kAlt {
		panic(fmt.Sprintf("matmul: shape mismatch [%d,%d] @ [%d,%d]", m, k, kAlt, n))
	}

	out := cpu.newResult("matmul", tensor.Shape{m, n}, a.DType())

	switch a.DType() {
	case tensor.Float32:
		matmul(out.AsFloat32(), a.AsFloat32(), b.AsFloat32(), m, k, n, cpu.pool)
	case tensor.Float64:
		matmul(out.AsFloat64(), a.AsFloat64(), b.AsFloat64(), m, k, n, cpu.pool)
	}
	return out
}

// matmul uses the i-k-j loop order so the inner loop walks both b and c
// rows sequentially.
func matmul[T tensor.DType](c, a, b []T, m, k, n int, pool parallel.Config) {
	parallel.For(m, func(i int) {
		cRow := c[i*n : (i+1)*n]
		for p := 0; p < k; p++ {
			av := a[i*k+p]
			if av == 0 {
				continue
			}
			bRow := b[p*n : (p+1)*n]
			for j := range cRow {
				cRow[j] += av * bRow[j]
			}
		}
	}, pool)
}
