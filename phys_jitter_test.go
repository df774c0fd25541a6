package physjitter

import (
	"errors"
	"testing"
)

type mockEntropySource struct {
	hash [32]byte
	bits uint8
	err  error
}

func (m mockEntropySource) Sample(inputs []byte) (PhysHash, error) {
	if m.err != nil {
		return PhysHash{}, m.err
	}
	return PhysHash{Hash: m.hash, EntropyBits: m.bits}, nil
}

func (m mockEntropySource) Validate(h PhysHash, minBits uint8) bool {
	return h.EntropyBits >= minBits
}

func TestPhysJitterRejectsLowEntropy(t *testing.T) {
	source := mockEntropySource{hash: [32]byte{1}, bits: 4}
	engine, err := NewPhysJitter(source, 500, 2500, 8)
	if err != nil {
		t.Fatalf("NewPhysJitter: %v", err)
	}

	_, _, err = engine.Sample([32]byte{1}, []byte("x"))
	if err == nil {
		t.Fatal("expected InsufficientEntropy error")
	}
	var pjErr *Error
	if !errors.As(err, &pjErr) || pjErr.Kind != KindInsufficientEntropy {
		t.Fatalf("expected KindInsufficientEntropy, got %v", err)
	}
}

func TestPhysJitterAcceptsSufficientEntropy(t *testing.T) {
	source := mockEntropySource{hash: [32]byte{2}, bits: 20}
	engine, err := NewPhysJitter(source, 500, 2500, 8)
	if err != nil {
		t.Fatalf("NewPhysJitter: %v", err)
	}

	jitter, entropy, err := engine.Sample([32]byte{1}, []byte("x"))
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if jitter < 500 || jitter >= 3000 {
		t.Fatalf("jitter %d out of range", jitter)
	}
	if entropy.Hash != source.hash {
		t.Fatal("returned entropy hash does not match source")
	}
}

func TestPhysJitterBindsEntropyHash(t *testing.T) {
	secret := [32]byte{1}
	inputs := []byte("same-input")

	a, err := NewPhysJitter(mockEntropySource{hash: [32]byte{0xAA}, bits: 20}, 500, 2500, 8)
	if err != nil {
		t.Fatalf("NewPhysJitter: %v", err)
	}
	b, err := NewPhysJitter(mockEntropySource{hash: [32]byte{0xBB}, bits: 20}, 500, 2500, 8)
	if err != nil {
		t.Fatalf("NewPhysJitter: %v", err)
	}

	ja, _, err := a.Sample(secret, inputs)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	jb, _, err := b.Sample(secret, inputs)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}

	if ja == jb {
		t.Fatal("identical (secret, inputs) under different entropy hashes produced identical jitter")
	}
}

func TestPhysJitterHardwareUnavailable(t *testing.T) {
	source := mockEntropySource{err: errHardwareProbe}
	engine, err := NewPhysJitter(source, 500, 2500, 8)
	if err != nil {
		t.Fatalf("NewPhysJitter: %v", err)
	}

	_, _, err = engine.Sample([32]byte{1}, []byte("x"))
	var pjErr *Error
	if !errors.As(err, &pjErr) || pjErr.Kind != KindHardwareUnavailable {
		t.Fatalf("expected KindHardwareUnavailable, got %v", err)
	}
}

func TestPhysJitterZeroRangeRejected(t *testing.T) {
	source := mockEntropySource{hash: [32]byte{1}, bits: 20}
	if _, err := NewPhysJitter(source, 500, 0, 8); err == nil {
		t.Fatal("expected error for zero range")
	}
}

func TestPhysJitterNilSourceRejected(t *testing.T) {
	if _, err := NewPhysJitter(nil, 500, 2500, 8); err == nil {
		t.Fatal("expected error for nil entropy source")
	}
}

var errHardwareProbe = errors.New("mock: no hardware counter")
