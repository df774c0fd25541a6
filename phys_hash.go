package physjitter

import "physjitter/internal/hardware"

// PhysHash pairs a 32-byte mixed hash with an advisory entropy-bits
// estimate in 0..64. The hash is preserved bit-for-bit everywhere it
// flows; entropy_bits never alters it. This is a type alias onto
// internal/hardware's definition so EntropySource implementations
// there satisfy the interface below without an import cycle.
type PhysHash = hardware.PhysHash

// EntropySource is the narrow capability interface PhysJitter samples
// for hardware timing entropy. Implementations never claim
// cryptographic-grade randomness: entropy_bits is advisory metadata a
// HybridEngine uses to decide whether to trust a sample.
type EntropySource interface {
	// Sample mixes inputs with a hardware-derived signal and returns
	// the resulting hash plus an entropy estimate.
	Sample(inputs []byte) (PhysHash, error)
	// Validate reports whether h carries at least minBits of advisory
	// entropy.
	Validate(h PhysHash, minBits uint8) bool
}

// NewCounterEntropySource returns the default EntropySource: the
// platform's high-resolution timing counter, sampled 16 times per
// call and mixed with the caller's input bytes.
func NewCounterEntropySource() EntropySource {
	return hardware.NewCounterSource()
}

// NewTPMEntropySource wraps provider as a supplementary EntropySource
// backed by a TPM's hardware RNG, reporting a fixed conservative
// entropy-bits estimate per sample rather than measuring variance.
func NewTPMEntropySource(provider hardware.TPMProvider) EntropySource {
	return hardware.NewTPMEntropySource(provider)
}
