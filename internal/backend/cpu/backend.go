// Package cpu implements a pure-Go compute backend.
//
// The CPU backend covers the operation set the Marrow layers, losses and
// optimizers need. All operations work on float32 tensors; other dtypes
// panic, matching the RawTensor typed-access convention.
package cpu

import (
	"fmt"

	"github.com/marrow-ml/marrow/internal/tensor"
)

// CPUBackend is a pure-Go implementation of tensor.Backend.
type CPUBackend struct{}

// New creates a new CPU backend.
func New() *CPUBackend {
	return &CPUBackend{}
}

// Name returns the backend name.
func (c *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the device type.
func (c *CPUBackend) Device() tensor.Device {
	return tensor.CPU
}

// Add performs element-wise addition.
func (c *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return c.binaryOp(a, b, func(x, y float32) float32 { return x + y })
}

// Sub performs element-wise subtraction.
func (c *CPUBackend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	return c.binaryOp(a, b, func(x, y float32) float32 { return x - y })
}

// Mul performs element-wise multiplication.
func (c *CPUBackend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return c.binaryOp(a, b, func(x, y float32) float32 { return x * y })
}

// MatMul performs 2-D matrix multiplication: [m, k] x [k, n] -> [m, n].
func (c *CPUBackend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape, bShape := a.Shape(), b.Shape()
	if len(aShape) != 2 || len(bShape) != 2 {
		panic(fmt.Sprintf("MatMul requires 2-D tensors, got %v and %v", aShape, bShape))
	}
	if aShape[1] != bShape[0] {
		panic(fmt.Sprintf("MatMul shape mismatch: %v x %v", aShape, bShape))
	}

	m, k, n := aShape[0], aShape[1], bShape[1]
	out := mustNewRaw(tensor.Shape{m, n})

	aData := a.AsFloat32()
	bData := b.AsFloat32()
	outData := out.AsFloat32()

	for i := 0; i < m; i++ {
		for p := 0; p < k; p++ {
			av := aData[i*k+p]
			if av == 0 {
				continue
			}
			for j := 0; j < n; j++ {
				outData[i*n+j] += av * bData[p*n+j]
			}
		}
	}
	return out
}

// MulScalar multiplies every element by a scalar.
func (c *CPUBackend) MulScalar(x *tensor.RawTensor, scalar float32) *tensor.RawTensor {
	out := mustNewRaw(x.Shape())
	xData := x.AsFloat32()
	outData := out.AsFloat32()
	for i, v := range xData {
		outData[i] = v * scalar
	}
	return out
}

// AddBias adds a 1-D bias to each row of a 2-D tensor: [m, n] + [n] -> [m, n].
func (c *CPUBackend) AddBias(x, bias *tensor.RawTensor) *tensor.RawTensor {
	xShape, bShape := x.Shape(), bias.Shape()
	if len(xShape) != 2 || len(bShape) != 1 || xShape[1] != bShape[0] {
		panic(fmt.Sprintf("AddBias shape mismatch: %v + %v", xShape, bShape))
	}

	m, n := xShape[0], xShape[1]
	out := mustNewRaw(xShape)

	xData := x.AsFloat32()
	bData := bias.AsFloat32()
	outData := out.AsFloat32()

	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			outData[i*n+j] = xData[i*n+j] + bData[j]
		}
	}
	return out
}

// ReLU computes element-wise max(0, x).
func (c *CPUBackend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	out := mustNewRaw(x.Shape())
	xData := x.AsFloat32()
	outData := out.AsFloat32()
	for i, v := range xData {
		if v > 0 {
			outData[i] = v
		}
	}
	return out
}

// binaryOp applies an element-wise float32 operation to two same-shape tensors.
func (c *CPUBackend) binaryOp(a, b *tensor.RawTensor, op func(x, y float32) float32) *tensor.RawTensor {
	if !a.Shape().Equal(b.Shape()) {
		panic(fmt.Sprintf("shape mismatch: %v vs %v", a.Shape(), b.Shape()))
	}

	out := mustNewRaw(a.Shape())
	aData := a.AsFloat32()
	bData := b.AsFloat32()
	outData := out.AsFloat32()

	for i := range aData {
		outData[i] = op(aData[i], bData[i])
	}
	return out
}

// mustNewRaw allocates a float32 result tensor.
func mustNewRaw(shape tensor.Shape) *tensor.RawTensor {
	raw, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
	if err != nil {
		panic(err) // Result shapes are derived from validated inputs
	}
	return raw
}

// Compile-time check that CPUBackend implements tensor.Backend.
var _ tensor.Backend = (*CPUBackend)(nil)
