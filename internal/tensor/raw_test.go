package tensor

import (
	"bytes"
	"encoding/gob"
	"testing"
)

// RawTensor Tests

func TestNewRawZeroInitialized(t *testing.T) {
	raw, err := NewRaw(Shape{2, 3}, Float32, CPU)
	if err != nil {
		t.Fatalf("NewRaw failed: %v", err)
	}

	for i, v := range raw.AsFloat32() {
		if v != 0 {
			t.Errorf("element %d = %f, want 0", i, v)
		}
	}
	if raw.ByteSize() != 24 {
		t.Errorf("ByteSize = %d, want 24", raw.ByteSize())
	}
}

func TestRawTensorAsFloat32ZeroCopy(t *testing.T) {
	raw, _ := NewRaw(Shape{3, 2}, Float32, CPU)
	data := raw.AsFloat32()

	if len(data) != 6 {
		t.Errorf("AsFloat32 length = %d, want 6", len(data))
	}

	// Modify and verify zero-copy
	data[0] = 42
	if raw.AsFloat32()[0] != 42 {
		t.Error("AsFloat32 should return zero-copy slice")
	}
}

func TestRawTensorAsFloat32WrongDType(t *testing.T) {
	raw, _ := NewRaw(Shape{2}, Float64, CPU)

	defer func() {
		if recover() == nil {
			t.Error("AsFloat32 on a float64 tensor should panic")
		}
	}()
	raw.AsFloat32()
}

func TestFromFloat32(t *testing.T) {
	raw, err := FromFloat32([]float32{1, 2, 3, 4}, Shape{2, 2}, CPU)
	if err != nil {
		t.Fatalf("FromFloat32 failed: %v", err)
	}

	if raw.AsFloat32()[3] != 4 {
		t.Errorf("element 3 = %f, want 4", raw.AsFloat32()[3])
	}

	if _, err := FromFloat32([]float32{1, 2, 3}, Shape{2, 2}, CPU); err == nil {
		t.Error("FromFloat32 with mismatched length should fail")
	}
}

func TestRawTensorCloneIsDeep(t *testing.T) {
	raw, _ := FromFloat32([]float32{1, 2, 3, 4}, Shape{2, 2}, CPU)
	clone := raw.Clone()

	clone.AsFloat32()[0] = 99
	if raw.AsFloat32()[0] != 1 {
		t.Error("Clone should not share memory with the original")
	}
	if !clone.Shape().Equal(raw.Shape()) {
		t.Errorf("clone shape = %v, want %v", clone.Shape(), raw.Shape())
	}
}

func TestRawTensorGobRoundTrip(t *testing.T) {
	original, _ := FromFloat32([]float32{1.5, -2.5, 3.5, 0, 5, 6}, Shape{2, 3}, CPU)

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(original); err != nil {
		t.Fatalf("gob encode failed: %v", err)
	}

	var decoded RawTensor
	if err := gob.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("gob decode failed: %v", err)
	}

	if !decoded.Shape().Equal(original.Shape()) {
		t.Errorf("shape = %v, want %v", decoded.Shape(), original.Shape())
	}
	if decoded.DType() != Float32 {
		t.Errorf("dtype = %s, want float32", decoded.DType())
	}

	origData := original.AsFloat32()
	for i, v := range decoded.AsFloat32() {
		if v != origData[i] {
			t.Errorf("element %d = %f, want %f", i, v, origData[i])
		}
	}
}

func TestRawTensorGobDecodeRejectsBadPayload(t *testing.T) {
	wire := rawTensorWire{DType: "float32", Shape: []int{2, 2}, Data: make([]byte, 8)} // 16 bytes expected

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(wire); err != nil {
		t.Fatalf("gob encode failed: %v", err)
	}

	var decoded RawTensor
	if err := decoded.GobDecode(buf.Bytes()); err == nil {
		t.Error("GobDecode should reject data that does not match the shape")
	}
}
