package tensor

// Method sugar delegating to the backend. Each operation allocates a
// fresh result tensor; operands are never modified.

// Add performs element-wise addition: t + other.
func (t *Tensor[T, B]) Add(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Add(t.raw, other.raw), t.backend)
}

// Sub performs element-wise subtraction: t - other.
func (t *Tensor[T, B]) Sub(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Sub(t.raw, other.raw), t.backend)
}

// Mul performs element-wise (Hadamard) multiplication: t * other.
func (t *Tensor[T, B]) Mul(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Mul(t.raw, other.raw), t.backend)
}

// Div performs element-wise division: t / other.
func (t *Tensor[T, B]) Div(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Div(t.raw, other.raw), t.backend)
}

// MatMul performs matrix multiplication: t @ other.
func (t *Tensor[T, B]) MatMul(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.MatMul(t.raw, other.raw), t.backend)
}

// Reshape returns a tensor with the same data and a new shape.
func (t *Tensor[T, B]) Reshape(shape Shape) *Tensor[T, B] {
	return New[T, B](t.backend.Reshape(t.raw, shape), t.backend)
}

// Transpose returns the transposed matrix (rank-2 only).
func (t *Tensor[T, B]) Transpose() *Tensor[T, B] {
	return New[T, B](t.backend.Transpose(t.raw), t.backend)
}

// Unsqueeze inserts a dimension of size 1 at the given position.
func (t *Tensor[T, B]) Unsqueeze(dim int) *Tensor[T, B] {
	return New[T, B](t.backend.Unsqueeze(t.raw, dim), t.backend)
}

// Expand replicates size-1 dimensions to produce the given shape.
func (t *Tensor[T, B]) Expand(shape Shape) *Tensor[T, B] {
	return New[T, B](t.backend.Expand(t.raw, shape), t.backend)
}

// SumDim sums elements along the given dimension.
func (t *Tensor[T, B]) SumDim(dim int, keepDim bool) *Tensor[T, B] {
	return New[T, B](t.backend.SumDim(t.raw, dim, keepDim), t.backend)
}

// MeanDim averages elements along the given dimension.
func (t *Tensor[T, B]) MeanDim(dim int, keepDim bool) *Tensor[T, B] {
	return New[T, B](t.backend.MeanDim(t.raw, dim, keepDim), t.backend)
}
