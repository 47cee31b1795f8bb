package optim_test

import (
	"errors"
	"math"
	"testing"

	"github.com/marrow-ml/marrow/internal/backend/cpu"
	"github.com/marrow-ml/marrow/internal/nn"
	"github.com/marrow-ml/marrow/internal/optim"
	"github.com/marrow-ml/marrow/internal/serialization"
	"github.com/marrow-ml/marrow/internal/tensor"
)

// Helper to check float equality with tolerance.
func floatEqual(a, b, eps float32) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < eps
}

func newParam(t *testing.T, backend *cpu.CPUBackend, values ...float32) *nn.Parameter[*cpu.CPUBackend] {
	t.Helper()
	x, err := tensor.FromSlice(values, tensor.Shape{len(values)}, backend)
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}
	return nn.NewParameter("x", x)
}

func gradFor(t *testing.T, param *nn.Parameter[*cpu.CPUBackend], values ...float32) map[*tensor.RawTensor]*tensor.RawTensor {
	t.Helper()
	grad, err := tensor.FromFloat32(values, param.Tensor().Shape(), tensor.CPU)
	if err != nil {
		t.Fatalf("FromFloat32 failed: %v", err)
	}
	return map[*tensor.RawTensor]*tensor.RawTensor{param.Tensor().Raw(): grad}
}

// TestSGD_SimpleUpdate tests SGD without momentum.
func TestSGD_SimpleUpdate(t *testing.T) {
	backend := cpu.New()
	param := newParam(t, backend, 2.0)

	optimizer := optim.NewSGD([]*nn.Parameter[*cpu.CPUBackend]{param},
		optim.SGDConfig{LR: 0.1},
		backend,
	)

	optimizer.Step(gradFor(t, param, 1.0))

	// x_new = 2.0 - 0.1 * 1.0 = 1.9
	actual := param.Tensor().Raw().AsFloat32()[0]
	if !floatEqual(actual, 1.9, 1e-6) {
		t.Errorf("SGD update: got %f, want 1.9", actual)
	}
}

// TestSGD_WithMomentum tests SGD with momentum over two steps.
func TestSGD_WithMomentum(t *testing.T) {
	backend := cpu.New()
	param := newParam(t, backend, 1.0)

	optimizer := optim.NewSGD([]*nn.Parameter[*cpu.CPUBackend]{param},
		optim.SGDConfig{LR: 0.1, Momentum: 0.9},
		backend,
	)

	// v_1 = 0.9 * 0 + 1.0 = 1.0
	// x_1 = 1.0 - 0.1 * 1.0 = 0.9
	optimizer.Step(gradFor(t, param, 1.0))
	actual1 := param.Tensor().Raw().AsFloat32()[0]
	if !floatEqual(actual1, 0.9, 1e-6) {
		t.Errorf("SGD momentum step 1: got %f, want 0.9", actual1)
	}

	// v_2 = 0.9 * 1.0 + 1.0 = 1.9
	// x_2 = 0.9 - 0.1 * 1.9 = 0.71
	optimizer.Step(gradFor(t, param, 1.0))
	actual2 := param.Tensor().Raw().AsFloat32()[0]
	if !floatEqual(actual2, 0.71, 1e-5) {
		t.Errorf("SGD momentum step 2: got %f, want 0.71", actual2)
	}
}

// TestSGD_SkipsParameterWithoutGradient tests that missing gradients leave
// parameters untouched.
func TestSGD_SkipsParameterWithoutGradient(t *testing.T) {
	backend := cpu.New()
	param := newParam(t, backend, 5.0)

	optimizer := optim.NewSGD([]*nn.Parameter[*cpu.CPUBackend]{param},
		optim.SGDConfig{LR: 0.1},
		backend,
	)

	optimizer.Step(map[*tensor.RawTensor]*tensor.RawTensor{})

	if param.Tensor().Raw().AsFloat32()[0] != 5.0 {
		t.Errorf("parameter changed without a gradient: got %f", param.Tensor().Raw().AsFloat32()[0])
	}
}

// TestAdam_FirstStep tests the Adam update after one step.
func TestAdam_FirstStep(t *testing.T) {
	backend := cpu.New()
	param := newParam(t, backend, 2.0)

	optimizer := optim.NewAdam([]*nn.Parameter[*cpu.CPUBackend]{param},
		optim.AdamConfig{LR: 0.1},
		backend,
	)

	optimizer.Step(gradFor(t, param, 1.0))

	// With bias correction the first step moves by almost exactly lr:
	// m_hat = g, v_hat = g², update = lr * g / (|g| + eps)
	expected := float32(2.0 - 0.1*1.0/(1.0+1e-8))
	actual := param.Tensor().Raw().AsFloat32()[0]
	if !floatEqual(actual, expected, 1e-4) {
		t.Errorf("Adam step 1: got %f, want %f", actual, expected)
	}
	if optimizer.GetTimestep() != 1 {
		t.Errorf("timestep = %d, want 1", optimizer.GetTimestep())
	}
}

// TestAdam_TwoSteps tests Adam bias correction over two steps.
func TestAdam_TwoSteps(t *testing.T) {
	backend := cpu.New()
	param := newParam(t, backend, 2.0)

	lr := float32(0.1)
	beta1 := float32(0.9)
	beta2 := float32(0.999)
	eps := float32(1e-8)

	optimizer := optim.NewAdam([]*nn.Parameter[*cpu.CPUBackend]{param},
		optim.AdamConfig{LR: lr},
		backend,
	)

	// Mirror the update rule with scalar arithmetic.
	x := float32(2.0)
	var m, v float32
	for step := 1; step <= 2; step++ {
		g := float32(1.0)
		m = beta1*m + (1-beta1)*g
		v = beta2*v + (1-beta2)*g*g
		mHat := m / (1 - float32(math.Pow(float64(beta1), float64(step))))
		vHat := v / (1 - float32(math.Pow(float64(beta2), float64(step))))
		x -= lr * mHat / (float32(math.Sqrt(float64(vHat))) + eps)

		optimizer.Step(gradFor(t, param, g))
	}

	actual := param.Tensor().Raw().AsFloat32()[0]
	if !floatEqual(actual, x, 1e-4) {
		t.Errorf("Adam step 2: got %f, want %f", actual, x)
	}
}

// TestWeightsOrdering tests the step-counter-first weight list contract.
func TestWeightsOrdering(t *testing.T) {
	backend := cpu.New()
	param := newParam(t, backend, 1.0, 2.0)

	optimizer := optim.NewAdam([]*nn.Parameter[*cpu.CPUBackend]{param},
		optim.AdamConfig{LR: 0.01},
		backend,
	)

	// Before the first step only the step counter exists.
	weights := optimizer.Weights()
	if len(weights) != 1 {
		t.Fatalf("fresh Weights length = %d, want 1", len(weights))
	}
	if !weights[0].Shape().Equal(tensor.Shape{1}) {
		t.Errorf("step counter shape = %v, want [1]", weights[0].Shape())
	}

	optimizer.Step(gradFor(t, param, 1.0, 1.0))

	// After allocation: step counter, first moment, second moment.
	weights = optimizer.Weights()
	if len(weights) != 3 {
		t.Fatalf("Weights length = %d, want 3", len(weights))
	}
	if weights[0].AsFloat32()[0] != 1.0 {
		t.Errorf("step counter = %f, want 1", weights[0].AsFloat32()[0])
	}
	for i := 1; i < 3; i++ {
		if !weights[i].Shape().Equal(param.Tensor().Shape()) {
			t.Errorf("slot %d shape = %v, want %v", i, weights[i].Shape(), param.Tensor().Shape())
		}
	}
}

// TestSetWeights_BeforeAllocation tests the not-allocated error.
func TestSetWeights_BeforeAllocation(t *testing.T) {
	backend := cpu.New()
	param := newParam(t, backend, 1.0)

	optimizer := optim.NewSGD([]*nn.Parameter[*cpu.CPUBackend]{param},
		optim.SGDConfig{LR: 0.1, Momentum: 0.9},
		backend,
	)

	err := optimizer.SetWeights(optimizer.Weights())
	if !errors.Is(err, optim.ErrSlotsNotAllocated) {
		t.Errorf("SetWeights before Step: got %v, want ErrSlotsNotAllocated", err)
	}
}

// TestSetWeights_MismatchLeavesStateUntouched tests validate-before-apply.
func TestSetWeights_MismatchLeavesStateUntouched(t *testing.T) {
	backend := cpu.New()
	param := newParam(t, backend, 1.0)

	optimizer := optim.NewSGD([]*nn.Parameter[*cpu.CPUBackend]{param},
		optim.SGDConfig{LR: 0.1, Momentum: 0.9},
		backend,
	)
	optimizer.Step(gradFor(t, param, 2.0))

	before := optimizer.Weights()

	// Wrong slot count.
	if err := optimizer.SetWeights(before[:1]); err == nil {
		t.Error("SetWeights with missing slots should fail")
	}

	// Wrong slot shape.
	badSlot, _ := tensor.FromFloat32([]float32{0, 0}, tensor.Shape{2}, tensor.CPU)
	if err := optimizer.SetWeights([]*tensor.RawTensor{before[0], badSlot}); err == nil {
		t.Error("SetWeights with a mismatched slot shape should fail")
	}

	after := optimizer.Weights()
	if after[1].AsFloat32()[0] != before[1].AsFloat32()[0] {
		t.Errorf("velocity changed after failed SetWeights: got %f, want %f",
			after[1].AsFloat32()[0], before[1].AsFloat32()[0])
	}
}

// TestRestore_AppliedOnFirstStep tests deferred weight restoration.
func TestRestore_AppliedOnFirstStep(t *testing.T) {
	backend := cpu.New()
	param := newParam(t, backend, 1.0)

	trained := optim.NewSGD([]*nn.Parameter[*cpu.CPUBackend]{param},
		optim.SGDConfig{LR: 0.1, Momentum: 0.9},
		backend,
	)
	trained.Step(gradFor(t, param, 1.0))
	trained.Step(gradFor(t, param, 1.0))

	saved := trained.Weights()

	fresh := optim.NewSGD([]*nn.Parameter[*cpu.CPUBackend]{param},
		optim.SGDConfig{LR: 0.1, Momentum: 0.9},
		backend,
	)
	fresh.Restore(saved)

	// Nothing is applied until the first Step.
	if len(fresh.Weights()) != 1 {
		t.Fatalf("Weights before first Step length = %d, want 1", len(fresh.Weights()))
	}

	fresh.Step(map[*tensor.RawTensor]*tensor.RawTensor{})

	restored := fresh.Weights()
	if len(restored) != len(saved) {
		t.Fatalf("Weights length = %d, want %d", len(restored), len(saved))
	}
	// v_2 = 0.9 * 1.0 + 1.0 = 1.9 carried over from the trained optimizer.
	if !floatEqual(restored[1].AsFloat32()[0], saved[1].AsFloat32()[0], 1e-6) {
		t.Errorf("restored velocity = %f, want %f",
			restored[1].AsFloat32()[0], saved[1].AsFloat32()[0])
	}
	// The empty Step still advanced the restored counter by one.
	if restored[0].AsFloat32()[0] != saved[0].AsFloat32()[0]+1 {
		t.Errorf("restored step = %f, want %f",
			restored[0].AsFloat32()[0], saved[0].AsFloat32()[0]+1)
	}
}

// TestRestore_MismatchDroppedSilently tests that a weight list saved before
// any training is discarded without an error.
func TestRestore_MismatchDroppedSilently(t *testing.T) {
	backend := cpu.New()
	param := newParam(t, backend, 1.0)

	// Never stepped: the weight list holds only the step counter.
	untrained := optim.NewSGD([]*nn.Parameter[*cpu.CPUBackend]{param},
		optim.SGDConfig{LR: 0.1, Momentum: 0.9},
		backend,
	)
	saved := untrained.Weights()

	fresh := optim.NewSGD([]*nn.Parameter[*cpu.CPUBackend]{param},
		optim.SGDConfig{LR: 0.1, Momentum: 0.9},
		backend,
	)
	fresh.Restore(saved)
	fresh.Step(gradFor(t, param, 1.0))

	// The mismatching list was dropped; training proceeded from fresh slots.
	// v_1 = 1.0, x = 1.0 - 0.1 * 1.0 = 0.9
	actual := param.Tensor().Raw().AsFloat32()[0]
	if !floatEqual(actual, 0.9, 1e-6) {
		t.Errorf("parameter after dropped restore = %f, want 0.9", actual)
	}
}

// TestRestore_NilIsNoOp tests that restoring a nil list queues nothing.
func TestRestore_NilIsNoOp(t *testing.T) {
	backend := cpu.New()
	param := newParam(t, backend, 2.0)

	optimizer := optim.NewSGD([]*nn.Parameter[*cpu.CPUBackend]{param},
		optim.SGDConfig{LR: 0.1},
		backend,
	)
	optimizer.Restore(nil)
	optimizer.Step(gradFor(t, param, 1.0))

	actual := param.Tensor().Raw().AsFloat32()[0]
	if !floatEqual(actual, 1.9, 1e-6) {
		t.Errorf("SGD update after nil Restore: got %f, want 1.9", actual)
	}
}

// TestOptimizerSerializeRoundTrip tests config-based reconstruction.
func TestOptimizerSerializeRoundTrip(t *testing.T) {
	backend := cpu.New()
	param := newParam(t, backend, 1.0)
	params := []*nn.Parameter[*cpu.CPUBackend]{param}

	sgd := optim.NewSGD(params, optim.SGDConfig{LR: 0.05, Momentum: 0.8}, backend)
	restored, err := optim.Deserialize(sgd.Serialize(), params, backend)
	if err != nil {
		t.Fatalf("Deserialize SGD failed: %v", err)
	}
	if restored.GetLR() != 0.05 {
		t.Errorf("restored SGD LR = %f, want 0.05", restored.GetLR())
	}

	adam := optim.NewAdam(params, optim.AdamConfig{LR: 0.002}, backend)
	restored, err = optim.Deserialize(adam.Serialize(), params, backend)
	if err != nil {
		t.Fatalf("Deserialize Adam failed: %v", err)
	}
	if restored.GetLR() != 0.002 {
		t.Errorf("restored Adam LR = %f, want 0.002", restored.GetLR())
	}

	unknown := serialization.Serialized{ClassName: "RMSprop"}
	if _, err := optim.Deserialize(unknown, params, backend); err == nil {
		t.Error("Deserialize with unknown class should fail")
	}
}

// TestZeroGrad tests gradient clearing.
func TestZeroGrad(t *testing.T) {
	backend := cpu.New()
	param := newParam(t, backend, 1.0)

	grad, _ := tensor.FromFloat32([]float32{3.0}, tensor.Shape{1}, tensor.CPU)
	param.SetGrad(tensor.New[float32](grad, backend))

	optimizer := optim.NewSGD([]*nn.Parameter[*cpu.CPUBackend]{param},
		optim.SGDConfig{LR: 0.1},
		backend,
	)
	optimizer.ZeroGrad()

	if param.Grad() != nil {
		t.Error("ZeroGrad should clear the parameter gradient")
	}
}
