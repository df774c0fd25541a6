package hardware

import (
	"crypto/sha256"
)

// TPMConservativeEntropyBits is the fixed advisory entropy rating
// TPMEntropySource reports for a successful sample. Unlike the timing
// counter, a TPM's hardware RNG output is not something we re-derive
// entropy for from observable jitter; we trust the device's random
// command and discount to a conservative constant well under the
// 64-bit ceiling.
const TPMConservativeEntropyBits = 32

// TPMProvider is the narrow capability a TPM device or mock must offer
// for TPMEntropySource to use it.
type TPMProvider interface {
	// Available reports whether a TPM is reachable on this host.
	Available() bool
	// GetRandom returns size bytes from the TPM's hardware RNG.
	GetRandom(size int) ([]byte, error)
}

// TPMEntropySource is an additional EntropySource implementation that
// sources bytes from a TPM's hardware RNG instead of (or alongside) the
// platform timing counter. It satisfies the same two-method contract as
// CounterSource, so a HybridEngine or PhysJitter can be built over
// either without further changes.
type TPMEntropySource struct {
	provider TPMProvider
	health   *AdaptiveProportionTest
}

// NewTPMEntropySource wraps provider in an EntropySource.
func NewTPMEntropySource(provider TPMProvider) *TPMEntropySource {
	return &TPMEntropySource{
		provider: provider,
		health:   NewAdaptiveProportionTest(512, 325),
	}
}

// Sample mixes inputs with 32 bytes drawn from the TPM's hardware RNG.
func (s *TPMEntropySource) Sample(inputs []byte) (PhysHash, error) {
	if s.provider == nil || !s.provider.Available() {
		return PhysHash{}, ErrHardwareUnavailable
	}

	random, err := s.provider.GetRandom(32)
	if err != nil {
		return PhysHash{}, ErrHardwareUnavailable
	}
	for _, b := range random {
		s.health.Feed(b)
	}

	h := sha256.New()
	h.Write(inputs)
	h.Write(random)

	var out PhysHash
	copy(out.Hash[:], h.Sum(nil))
	if s.health.Status() == HealthFailed {
		out.EntropyBits = 0
	} else {
		out.EntropyBits = TPMConservativeEntropyBits
	}
	return out, nil
}

// Validate reports whether h carries at least minBits of advisory
// entropy.
func (s *TPMEntropySource) Validate(h PhysHash, minBits uint8) bool {
	return h.EntropyBits >= minBits
}
