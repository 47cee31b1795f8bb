package tensor

// Backend defines the interface that all compute backends must implement.
// Backends handle the actual computation for tensor operations.
//
// The operation set is deliberately small: it covers exactly what the
// layer, loss and optimizer implementations need.
//
// Example:
//
//	backend := cpu.New()
//	x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//	z := x.Add(y)  // Uses backend.Add under the hood
type Backend interface {
	// Element-wise binary operations.
	Add(a, b *RawTensor) *RawTensor // Element-wise addition.
	Sub(a, b *RawTensor) *RawTensor // Element-wise subtraction.
	Mul(a, b *RawTensor) *RawTensor // Element-wise multiplication.

	// Matrix operations.
	MatMul(a, b *RawTensor) *RawTensor // 2-D matrix multiplication.

	// Scalar operations.
	MulScalar(x *RawTensor, scalar float32) *RawTensor // Multiply by scalar.

	// Layer helpers.
	AddBias(x, bias *RawTensor) *RawTensor // Add a 1-D bias to each row of a 2-D tensor.
	ReLU(x *RawTensor) *RawTensor          // Element-wise max(0, x).

	// Metadata.
	Name() string   // Backend name (e.g., "CPU").
	Device() Device // Device type.
}
