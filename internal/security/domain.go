package security

import (
	"crypto/hmac"
	"crypto/sha256"
)

// Domain separation tags. These are part of the wire format (spec v1) —
// changing them breaks compatibility with previously issued evidence.
const (
	JitterDomainTag = "physjitter/v1/jitter"
	ChainDomainTag  = "physjitter/v1/chain"
)

// DeriveChainKey derives the keyed-chain HMAC key from a session secret:
// HMAC-SHA256(secret, "physjitter/v1/chain"). Using a derived key rather
// than the raw secret keeps the chain MAC cryptographically distinct
// from the jitter HMAC, which uses the secret directly under a
// different tag.
func DeriveChainKey(secret []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(ChainDomainTag))
	return mac.Sum(nil)
}
