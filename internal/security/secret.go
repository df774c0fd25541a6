// Package security provides the zeroizing secret wrapper, constant-time
// primitives, and key derivation used throughout physjitter.
//
// This package implements:
//   - A 32-byte secret container that is wiped on every exit path
//   - HKDF-SHA256 derivation of session secrets from a master key
//   - Constant-time comparison and domain-separated hashing
package security

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"runtime"

	"golang.org/x/crypto/hkdf"
)

// SecretSize is the fixed size of a physjitter session secret.
const SecretSize = 32

// ErrInvalidKeySize is returned when a supplied key is not SecretSize bytes.
var ErrInvalidKeySize = errors.New("security: invalid key size")

// Secret is the exclusive, single-owner container for a 32-byte session
// secret. It is wiped on Destroy, on panic unwind (via ZeroizeOnPanic),
// and best-effort on garbage collection through a finalizer.
type Secret struct {
	data   [SecretSize]byte
	locked bool
}

// NewSecret copies b into a new Secret and wipes the caller's copy.
// b must be exactly SecretSize bytes.
func NewSecret(b []byte) (*Secret, error) {
	if len(b) != SecretSize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidKeySize, len(b), SecretSize)
	}

	s := &Secret{}
	copy(s.data[:], b)
	Wipe(b)

	if err := s.lock(); err != nil {
		// Non-fatal: continue without mlock on systems that don't support
		// it or where we lack privileges.
	}

	runtime.SetFinalizer(s, func(s *Secret) { s.Destroy() })
	return s, nil
}

// Bytes returns the underlying 32 bytes. The caller must not retain the
// returned slice past the call in which it was obtained.
func (s *Secret) Bytes() []byte {
	return s.data[:]
}

// Destroy wipes the secret and releases any memory lock. Safe to call
// more than once.
func (s *Secret) Destroy() {
	Wipe(s.data[:])
	if s.locked {
		s.unlock()
	}
}

// ZeroizeOnPanic wipes data if the deferred call observes a panic in
// flight, then re-panics. Usage: defer ZeroizeOnPanic(secret.Bytes())()
func ZeroizeOnPanic(data []byte) func() {
	return func() {
		if r := recover(); r != nil {
			Wipe(data)
			panic(r)
		}
	}
}

// Wipe overwrites data with zeros. The explicit loop plus KeepAlive
// discourages the compiler from eliding the writes as dead stores.
func Wipe(data []byte) {
	if len(data) == 0 {
		return
	}
	for i := range data {
		data[i] = 0
	}
	runtime.KeepAlive(data)
}

// ConstantTimeEqual reports whether two 32-byte values are equal without
// branching on the first differing byte.
func ConstantTimeEqual(a, b [32]byte) bool {
	return subtle.ConstantTimeCompare(a[:], b[:]) == 1
}

// ConstantTimeEqualBytes reports whether two byte slices are equal in
// constant time. Unequal lengths compare unequal without leaking which
// byte differed.
func ConstantTimeEqualBytes(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

// DeriveSessionSecret derives a 32-byte session secret from masterKey
// using HKDF-SHA256 extract-then-expand, with context as the HKDF info
// parameter. Equal (masterKey, context) pairs always yield the same
// secret; distinct contexts are cryptographically unlinkable even under
// the same master key.
func DeriveSessionSecret(masterKey []byte, context string) (*Secret, error) {
	reader := hkdf.New(sha256.New, masterKey, nil, []byte(context))

	derived := make([]byte, SecretSize)
	if _, err := io.ReadFull(reader, derived); err != nil {
		return nil, fmt.Errorf("security: key derivation failed: %w", err)
	}

	return NewSecret(derived)
}
