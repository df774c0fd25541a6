package physjitter

// PhysJitter combines an EntropySource with HMAC-SHA256 delay
// derivation. It samples the configured entropy source, rejects any
// sample scoring below its entropy floor, and otherwise folds
// entropy.hash into the HMAC input ahead of the caller's payload.
// entropy_bits itself is never mixed into the MAC — it travels only as
// metadata on the returned PhysHash.
type PhysJitter struct {
	source         EntropySource
	jmin           uint32
	rng            uint32
	minEntropyBits uint8
}

// NewPhysJitter constructs a PhysJitter sourcing entropy from source,
// mapping into [jmin, jmin+rng), and rejecting samples below
// minEntropyBits. rng must be greater than zero.
func NewPhysJitter(source EntropySource, jmin, rng uint32, minEntropyBits uint8) (*PhysJitter, error) {
	if rng == 0 {
		return nil, newInvalidInput("jitter range must be greater than zero")
	}
	if source == nil {
		return nil, newInvalidInput("entropy source must not be nil")
	}
	return &PhysJitter{source: source, jmin: jmin, rng: rng, minEntropyBits: minEntropyBits}, nil
}

// Sample draws one entropy sample for inputs and, if it clears the
// entropy floor, derives a jitter value bound to it. On
// HardwareUnavailable or InsufficientEntropy it returns a zero Jitter
// and the classifying error; callers that want silent fallback should
// go through HybridEngine rather than PhysJitter directly.
func (p *PhysJitter) Sample(secret [32]byte, inputs []byte) (Jitter, PhysHash, error) {
	entropy, err := p.source.Sample(inputs)
	if err != nil {
		return 0, PhysHash{}, wrapHardwareErr(err)
	}
	if !p.source.Validate(entropy, p.minEntropyBits) {
		return 0, PhysHash{}, newInsufficientEntropy(p.minEntropyBits, entropy.EntropyBits)
	}
	return p.ComputeJitter(secret, inputs, entropy), entropy, nil
}

// ComputeJitter implements JitterEngine: it assumes entropy has
// already cleared the floor (as Sample guarantees) and derives
// jmin + (HMAC-SHA256(secret, tag || entropy.hash || inputs)[0:8] mod range).
func (p *PhysJitter) ComputeJitter(secret [32]byte, inputs []byte, entropy PhysHash) Jitter {
	mixed := make([]byte, 0, len(entropy.Hash)+len(inputs))
	mixed = append(mixed, entropy.Hash[:]...)
	mixed = append(mixed, inputs...)
	return Jitter(p.jmin + computeJitterRaw(secret, mixed, p.rng))
}

// Range reports the engine's configured (jmin, range).
func (p *PhysJitter) Range() (jmin, rng uint32) {
	return p.jmin, p.rng
}
