package physjitter

import (
	"crypto/sha256"
	"encoding/binary"
)

// Variant tags the security mode a piece of Evidence was produced
// under. These are part of the canonical binary encoding — changing
// their values breaks compatibility with previously issued evidence.
type Variant uint8

const (
	// VariantPhys marks evidence produced with hardware timing entropy.
	VariantPhys Variant = 0x01
	// VariantPure marks evidence produced from the secret and input alone.
	VariantPure Variant = 0x02
)

func (v Variant) String() string {
	switch v {
	case VariantPhys:
		return "phys"
	case VariantPure:
		return "pure"
	default:
		return "unknown"
	}
}

// Evidence is one immutable record binding an input event to its
// derived jitter and to the running chain. Phys records additionally
// carry the entropy sample that fed the derivation; Pure records do
// not, since none was used.
type Evidence struct {
	Variant     Variant
	Sequence    uint64
	TimestampNs uint64
	InputHash   [32]byte
	Entropy     PhysHash // zero value for VariantPure
	Jitter      Jitter
}

// HashInput returns the SHA-256 of the caller-supplied input bytes, as
// stored in Evidence.InputHash.
func HashInput(inputs []byte) [32]byte {
	return sha256.Sum256(inputs)
}

// canonicalBytes encodes e using the fixed, platform-independent
// binary layout used for hashing and MAC computation. JSON
// serialization is explicitly not part of this preimage: field order
// in any JSON encoder is not authoritative, so earlier schemes that
// hashed JSON directly produced chain hashes that moved under
// reordering. The layout, in order, is:
//
//	variant tag (1) | sequence (8 BE) | timestamp_ns (8 BE) |
//	input_hash (32) | [if Phys: entropy.hash (32) | entropy.bits (1)] |
//	jitter (4 BE)
func (e Evidence) canonicalBytes() []byte {
	size := 1 + 8 + 8 + 32 + 4
	if e.Variant == VariantPhys {
		size += 32 + 1
	}
	buf := make([]byte, 0, size)

	buf = append(buf, byte(e.Variant))

	var u64 [8]byte
	binary.BigEndian.PutUint64(u64[:], e.Sequence)
	buf = append(buf, u64[:]...)

	binary.BigEndian.PutUint64(u64[:], e.TimestampNs)
	buf = append(buf, u64[:]...)

	buf = append(buf, e.InputHash[:]...)

	if e.Variant == VariantPhys {
		buf = append(buf, e.Entropy.Hash[:]...)
		buf = append(buf, e.Entropy.EntropyBits)
	}

	var u32 [4]byte
	binary.BigEndian.PutUint32(u32[:], uint32(e.Jitter))
	buf = append(buf, u32[:]...)

	return buf
}
