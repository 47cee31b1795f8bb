package tensor

import (
	"math"
	"math/rand"
)

// Zeros creates a tensor filled with zeros.
//
// Example:
//
//	backend := cpu.New()
//	t := tensor.Zeros[float32](Shape{3, 4}, backend)
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	var dummy T
	dtype := inferDataType(dummy)

	raw, err := NewRaw(shape, dtype, b.Device())
	if err != nil {
		panic(err) // Shape validation should prevent this
	}

	// Data is already zero-initialized by make()
	return New[T, B](raw, b)
}

// Ones creates a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return Full[T, B](shape, T(1), b)
}

// Full creates a tensor filled with a specific value.
//
// Example:
//
//	t := tensor.Full[float32](Shape{3, 3}, 3.14, backend)
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = value
	}
	return t
}

// Randn creates a tensor with random values from a normal distribution (mean=0, std=1).
// Uses the Box-Muller transform.
// Note: Uses math/rand (not crypto/rand) - appropriate for ML initialization.
//
// Example:
//
//	t := tensor.Randn[float32](Shape{100, 100}, backend)
func Randn[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()

	for i := 0; i < len(data); i += 2 {
		u1 := rand.Float64() //nolint:gosec // G404: ML uses math/rand intentionally for reproducibility
		u2 := rand.Float64() //nolint:gosec // G404: ML uses math/rand intentionally for reproducibility
		z0 := math.Sqrt(-2.0*math.Log(u1)) * math.Cos(2.0*math.Pi*u2)
		z1 := math.Sqrt(-2.0*math.Log(u1)) * math.Sin(2.0*math.Pi*u2)
		data[i] = T(z0)
		if i+1 < len(data) {
			data[i+1] = T(z1)
		}
	}
	return t
}
