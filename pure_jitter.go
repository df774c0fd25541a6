package physjitter

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
)

// Domain separation tags. These are part of the wire format (protocol
// tag v1) — changing them breaks compatibility with previously issued
// evidence. Reusing the session secret under any other tag is
// forbidden.
const (
	jitterDomainTag = "physjitter/v1/jitter"
	chainDomainTag  = "physjitter/v1/chain"
)

// JitterEngine maps a secret, an input payload, and an (optional)
// entropy sample to a bounded microsecond delay.
type JitterEngine interface {
	ComputeJitter(secret [32]byte, inputs []byte, entropy PhysHash) Jitter
}

// Jitter is a microsecond delay constrained to [jmin, jmin+range).
type Jitter uint32

// PureJitter is a JitterEngine backed solely by HMAC-SHA256. It never
// reads entropy; equal (secret, inputs) pairs always produce equal
// output, and it runs in time independent of the secret's value (the
// branch below depends only on the public range, not on any secret
// byte).
type PureJitter struct {
	jmin  uint32
	rng   uint32
}

// NewPureJitter constructs a PureJitter mapping into [jmin, jmin+rng).
// rng must be greater than zero.
func NewPureJitter(jmin, rng uint32) (*PureJitter, error) {
	if rng == 0 {
		return nil, newInvalidInput("jitter range must be greater than zero")
	}
	return &PureJitter{jmin: jmin, rng: rng}, nil
}

// ComputeJitter returns jmin + (HMAC-SHA256(secret, tag || inputs)[0:8] mod range).
// entropy is ignored.
func (p *PureJitter) ComputeJitter(secret [32]byte, inputs []byte, _ PhysHash) Jitter {
	return Jitter(p.jmin + computeJitterRaw(secret, inputs, p.rng))
}

// Range reports the engine's configured (jmin, range).
func (p *PureJitter) Range() (jmin, rng uint32) {
	return p.jmin, p.rng
}

// computeJitterRaw is the shared HMAC derivation used by both
// PureJitter and PhysJitter: HMAC-SHA256(secret, jitterDomainTag ||
// mixed)[0:8] interpreted as a big-endian uint64, reduced mod rng.
func computeJitterRaw(secret [32]byte, mixed []byte, rng uint32) uint32 {
	mac := hmac.New(sha256.New, secret[:])
	mac.Write([]byte(jitterDomainTag))
	mac.Write(mixed)
	sum := mac.Sum(nil)

	raw := binary.BigEndian.Uint64(sum[:8])
	return uint32(raw % uint64(rng))
}
