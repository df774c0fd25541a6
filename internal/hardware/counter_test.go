package hardware

import "testing"

func TestEstimateEntropyBitsConstantSequence(t *testing.T) {
	samples := []uint64{100, 100, 100, 100, 100}
	if got := estimateEntropyBits(samples); got != 0 {
		t.Errorf("constant sequence: got %d bits, want 0", got)
	}
}

func TestEstimateEntropyBitsTooFewSamples(t *testing.T) {
	if got := estimateEntropyBits([]uint64{42}); got != 0 {
		t.Errorf("single sample: got %d bits, want 0", got)
	}
	if got := estimateEntropyBits(nil); got != 0 {
		t.Errorf("no samples: got %d bits, want 0", got)
	}
}

func TestEstimateEntropyBitsClamped(t *testing.T) {
	// A wildly varying sequence should clamp at MaxEntropyBits, never
	// exceed it or go negative.
	samples := make([]uint64, 32)
	seed := uint64(1)
	for i := range samples {
		seed = seed*6364136223846793005 + 1
		samples[i] = seed
	}

	got := estimateEntropyBits(samples)
	if got > MaxEntropyBits {
		t.Errorf("entropy bits %d exceeds clamp %d", got, MaxEntropyBits)
	}
}

func TestCounterSourceSampleHashCoversInputs(t *testing.T) {
	src := NewCounterSource()

	h1, err := src.Sample([]byte("alpha"))
	if err != nil {
		t.Fatalf("sample failed: %v", err)
	}
	h2, err := src.Sample([]byte("beta"))
	if err != nil {
		t.Fatalf("sample failed: %v", err)
	}

	if h1.Hash == h2.Hash {
		t.Error("different inputs produced identical hashes")
	}
}

func TestCounterSourceValidate(t *testing.T) {
	src := NewCounterSource()
	h := PhysHash{EntropyBits: 10}

	if !src.Validate(h, 8) {
		t.Error("expected 10 bits to validate against an 8-bit floor")
	}
	if src.Validate(h, 16) {
		t.Error("expected 10 bits to fail a 16-bit floor")
	}
}
