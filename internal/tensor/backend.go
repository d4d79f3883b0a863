package tensor

// Backend defines the math operations the layer stack delegates to.
// Backends handle the actual computation for tensor operations; the
// layer protocol itself never touches element data.
//
// Implementations:
//   - cpu: reference pure-Go kernels (every operation)
//   - webgpu: partial GPU backend (element-wise subset)
//
// All operations are deterministic for a fixed input, panic on shape
// violations, and write only their own result tensor.
type Backend interface {
	// Element-wise binary operations. Shapes must match exactly;
	// broadcasting is spelled out with Unsqueeze and Expand.
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor // Hadamard product
	Div(a, b *RawTensor) *RawTensor

	// Matrix multiplication: [M,K] @ [K,N] -> [M,N].
	MatMul(a, b *RawTensor) *RawTensor

	// Rank-4 correlations over [N,C,H,W] data. Weights are stored
	// pre-flipped, so the "flipped" forms reduce to plain
	// cross-correlations and their adjoints.
	//
	// Conv4DValidFlipped:       input [N,C,H,W] x kernel [K,C,KH,KW] -> [N,K,H-KH+1,W-KW+1]
	// Conv4DFullFlipped:        errors [N,K,OH,OW] x kernel [K,C,KH,KW] -> [N,C,OH+KH-1,OW+KW-1]
	// Conv4DValidFilterFlipped: input [N,C,H,W] x errors [N,K,OH,OW] -> [K,C,H-OH+1,W-OW+1]
	Conv4DValidFlipped(input, kernel *RawTensor) *RawTensor
	Conv4DFullFlipped(errors, kernel *RawTensor) *RawTensor
	Conv4DValidFilterFlipped(input, errors *RawTensor) *RawTensor

	// Non-overlapping average pooling over [N,C,H,W] data.
	// Pool dimensions must divide the spatial dimensions exactly.
	AvgPool2D(x *RawTensor, poolH, poolW int) *RawTensor
	AvgPool2DBackward(errors *RawTensor, poolH, poolW int) *RawTensor

	// Reductions along a single dimension.
	SumDim(x *RawTensor, dim int, keepDim bool) *RawTensor
	MeanDim(x *RawTensor, dim int, keepDim bool) *RawTensor

	// Shape operations.
	Reshape(x *RawTensor, shape Shape) *RawTensor
	Transpose(x *RawTensor) *RawTensor           // rank-2
	Unsqueeze(x *RawTensor, dim int) *RawTensor  // insert dimension of size 1
	Expand(x *RawTensor, shape Shape) *RawTensor // replicate size-1 dimensions

	// Metadata.
	Name() string
	Device() Device
}
