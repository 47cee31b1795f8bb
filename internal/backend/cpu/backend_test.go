package cpu_test

import (
	"testing"

	"github.com/marrow-ml/marrow/internal/backend/cpu"
	"github.com/marrow-ml/marrow/internal/tensor"
)

func TestAdd(t *testing.T) {
	backend := cpu.New()

	a, _ := tensor.FromFloat32([]float32{1, 2, 3, 4}, tensor.Shape{2, 2}, tensor.CPU)
	b, _ := tensor.FromFloat32([]float32{5, 6, 7, 8}, tensor.Shape{2, 2}, tensor.CPU)

	result := backend.Add(a, b)

	want := []float32{6, 8, 10, 12}
	for i, v := range result.AsFloat32() {
		if v != want[i] {
			t.Errorf("Add[%d] = %f, want %f", i, v, want[i])
		}
	}
}

func TestMatMul(t *testing.T) {
	backend := cpu.New()

	// [2, 2] identity x arbitrary
	identity, _ := tensor.FromFloat32([]float32{1, 0, 0, 1}, tensor.Shape{2, 2}, tensor.CPU)
	m, _ := tensor.FromFloat32([]float32{3, 4, 5, 6}, tensor.Shape{2, 2}, tensor.CPU)

	result := backend.MatMul(identity, m)
	for i, v := range result.AsFloat32() {
		if v != m.AsFloat32()[i] {
			t.Errorf("MatMul[%d] = %f, want %f", i, v, m.AsFloat32()[i])
		}
	}

	// Non-square: [1, 3] x [3, 1] -> [1, 1]
	row, _ := tensor.FromFloat32([]float32{1, 2, 3}, tensor.Shape{1, 3}, tensor.CPU)
	col, _ := tensor.FromFloat32([]float32{4, 5, 6}, tensor.Shape{3, 1}, tensor.CPU)

	dot := backend.MatMul(row, col)
	if dot.AsFloat32()[0] != 32 {
		t.Errorf("dot product = %f, want 32", dot.AsFloat32()[0])
	}
}

func TestMatMulShapeMismatchPanics(t *testing.T) {
	backend := cpu.New()

	a, _ := tensor.FromFloat32([]float32{1, 2}, tensor.Shape{1, 2}, tensor.CPU)
	b, _ := tensor.FromFloat32([]float32{1, 2, 3}, tensor.Shape{3, 1}, tensor.CPU)

	defer func() {
		if recover() == nil {
			t.Error("MatMul with incompatible shapes should panic")
		}
	}()
	backend.MatMul(a, b)
}

func TestAddBias(t *testing.T) {
	backend := cpu.New()

	x, _ := tensor.FromFloat32([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, tensor.CPU)
	bias, _ := tensor.FromFloat32([]float32{10, 20, 30}, tensor.Shape{3}, tensor.CPU)

	result := backend.AddBias(x, bias)

	want := []float32{11, 22, 33, 14, 25, 36}
	for i, v := range result.AsFloat32() {
		if v != want[i] {
			t.Errorf("AddBias[%d] = %f, want %f", i, v, want[i])
		}
	}
}

func TestReLU(t *testing.T) {
	backend := cpu.New()

	x, _ := tensor.FromFloat32([]float32{-2, -0.5, 0, 0.5, 2}, tensor.Shape{5}, tensor.CPU)

	result := backend.ReLU(x)

	want := []float32{0, 0, 0, 0.5, 2}
	for i, v := range result.AsFloat32() {
		if v != want[i] {
			t.Errorf("ReLU[%d] = %f, want %f", i, v, want[i])
		}
	}
}

func TestMulScalar(t *testing.T) {
	backend := cpu.New()

	x, _ := tensor.FromFloat32([]float32{1, -2, 3}, tensor.Shape{3}, tensor.CPU)

	result := backend.MulScalar(x, -2)

	want := []float32{-2, 4, -6}
	for i, v := range result.AsFloat32() {
		if v != want[i] {
			t.Errorf("MulScalar[%d] = %f, want %f", i, v, want[i])
		}
	}
}
