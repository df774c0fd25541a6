package physjitter

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash"

	"physjitter/internal/schemavalidation"
	"physjitter/internal/security"
)

// EvidenceChain is an ordered, append-only sequence of Evidence plus a
// running 32-byte chain_mac. It is mutated only by Append — never by
// reorder or delete — and is destroyed along with its owning Session.
type EvidenceChain struct {
	records  []Evidence
	chainMAC [32]byte
	key      []byte // nil for an unkeyed chain
}

// NewChain creates an empty unkeyed chain: H is unkeyed SHA-256.
func NewChain() *EvidenceChain {
	return &EvidenceChain{}
}

// NewKeyedChain creates an empty chain keyed with secret: H is
// HMAC-SHA256 under a key derived as
// HMAC-SHA256(secret, "physjitter/v1/chain"). The derived key is
// cryptographically distinct from the secret's direct use as a
// jitter HMAC key.
func NewKeyedChain(secret [32]byte) *EvidenceChain {
	return &EvidenceChain{key: security.DeriveChainKey(secret[:])}
}

// Append adds r to the chain, advancing chain_mac. sequence must equal
// the previous sequence + 1 (0 for the first record); timestamp_ns
// must be non-decreasing. Either violation fails with InvalidInput and
// leaves the chain unchanged.
func (c *EvidenceChain) Append(r Evidence) error {
	wantSeq := uint64(len(c.records))
	if r.Sequence != wantSeq {
		return newInvalidInput("sequence %d out of order: expected %d", r.Sequence, wantSeq)
	}
	if len(c.records) > 0 && r.TimestampNs < c.records[len(c.records)-1].TimestampNs {
		return newInvalidInput("timestamp_ns %d regresses before previous record's %d", r.TimestampNs, c.records[len(c.records)-1].TimestampNs)
	}

	c.chainMAC = c.digest(c.chainMAC, r.canonicalBytes())
	c.records = append(c.records, r)
	return nil
}

// digest computes H(prev || canonicalBytes) using unkeyed SHA-256 or,
// for a keyed chain, HMAC-SHA256 under the derived chain key.
func (c *EvidenceChain) digest(prev [32]byte, canonical []byte) [32]byte {
	var h hash.Hash
	if c.key != nil {
		h = hmac.New(sha256.New, c.key)
	} else {
		h = sha256.New()
	}
	h.Write(prev[:])
	h.Write(canonical)

	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Records returns a copy of the chain's records in order. Callers must
// not mutate Evidence fields expecting it to affect the chain; Append
// is the only mutator.
func (c *EvidenceChain) Records() []Evidence {
	out := make([]Evidence, len(c.records))
	copy(out, c.records)
	return out
}

// Len reports the number of records in the chain.
func (c *EvidenceChain) Len() int {
	return len(c.records)
}

// ChainMAC returns the chain's current running MAC.
func (c *EvidenceChain) ChainMAC() [32]byte {
	return c.chainMAC
}

// VerifyIntegrity recomputes chain_mac from zero over every record and
// compares it to the stored value in constant time. For a chain built
// with NewKeyedChain, secret must be the same secret used to derive
// its chain key.
func (c *EvidenceChain) VerifyIntegrity(secret *[32]byte) bool {
	key := c.key
	if secret != nil {
		key = security.DeriveChainKey(secret[:])
	}

	recomputed := recomputeChainMAC(key, c.records)
	return security.ConstantTimeEqual(recomputed, c.chainMAC)
}

// recomputeChainMAC folds every record into a running MAC from the
// zero initial value, using key (nil for unkeyed).
func recomputeChainMAC(key []byte, records []Evidence) [32]byte {
	tmp := &EvidenceChain{key: key}
	var mac [32]byte
	for _, r := range records {
		mac = tmp.digest(mac, r.canonicalBytes())
	}
	return mac
}

// ValidateSequences reports whether sequence numbers run 0,1,2,...
// with no gap.
func (c *EvidenceChain) ValidateSequences() bool {
	for i, r := range c.records {
		if r.Sequence != uint64(i) {
			return false
		}
	}
	return true
}

// ValidateTimestamps reports whether timestamp_ns is non-decreasing
// across the chain.
func (c *EvidenceChain) ValidateTimestamps() bool {
	for i := 1; i < len(c.records); i++ {
		if c.records[i].TimestampNs < c.records[i-1].TimestampNs {
			return false
		}
	}
	return true
}

// PhysRatio returns the fraction of records that are VariantPhys, or 0
// for an empty chain.
func (c *EvidenceChain) PhysRatio() float32 {
	if len(c.records) == 0 {
		return 0
	}
	var phys int
	for _, r := range c.records {
		if r.Variant == VariantPhys {
			phys++
		}
	}
	return float32(phys) / float32(len(c.records))
}

// wireEntropy is the JSON shape of a Phys record's entropy field.
type wireEntropy struct {
	Hash string `json:"hash"`
	Bits uint8  `json:"bits"`
}

// wireEvidence is the JSON shape of one Evidence record.
type wireEvidence struct {
	Variant     string       `json:"variant"`
	Sequence    uint64       `json:"sequence"`
	TimestampNs uint64       `json:"timestamp_ns"`
	InputHash   string       `json:"input_hash"`
	Entropy     *wireEntropy `json:"entropy,omitempty"`
	Jitter      uint32       `json:"jitter"`
}

// wireChain is the JSON shape of an exported chain.
type wireChain struct {
	Records  []wireEvidence `json:"records"`
	ChainMAC string         `json:"chain_mac"`
}

func evidenceToWire(r Evidence) wireEvidence {
	w := wireEvidence{
		Sequence:    r.Sequence,
		TimestampNs: r.TimestampNs,
		InputHash:   hex.EncodeToString(r.InputHash[:]),
		Jitter:      uint32(r.Jitter),
	}
	switch r.Variant {
	case VariantPhys:
		w.Variant = "phys"
		w.Entropy = &wireEntropy{
			Hash: hex.EncodeToString(r.Entropy.Hash[:]),
			Bits: r.Entropy.EntropyBits,
		}
	default:
		w.Variant = "pure"
	}
	return w
}

func wireToEvidence(w wireEvidence) (Evidence, error) {
	var r Evidence
	r.Sequence = w.Sequence
	r.TimestampNs = w.TimestampNs
	r.Jitter = Jitter(w.Jitter)

	inputHash, err := decodeHash32(w.InputHash)
	if err != nil {
		return Evidence{}, newInvalidInput("record %d: input_hash: %v", w.Sequence, err)
	}
	r.InputHash = inputHash

	switch w.Variant {
	case "phys":
		r.Variant = VariantPhys
		if w.Entropy == nil {
			return Evidence{}, newInvalidInput("record %d: phys variant missing entropy", w.Sequence)
		}
		entropyHash, err := decodeHash32(w.Entropy.Hash)
		if err != nil {
			return Evidence{}, newInvalidInput("record %d: entropy.hash: %v", w.Sequence, err)
		}
		r.Entropy = PhysHash{Hash: entropyHash, EntropyBits: w.Entropy.Bits}
	case "pure":
		r.Variant = VariantPure
	default:
		return Evidence{}, newInvalidInput("record %d: unknown variant %q", w.Sequence, w.Variant)
	}

	return r, nil
}

func decodeHash32(s string) ([32]byte, error) {
	var out [32]byte
	b, err := hex.DecodeString(s)
	if err != nil {
		return out, err
	}
	if len(b) != 32 {
		return out, fmt.Errorf("want 32 bytes, got %d", len(b))
	}
	copy(out[:], b)
	return out, nil
}

// ExportJSON renders the chain as the human-readable wire form: an
// array of records plus the stored chain_mac. This form is never used
// as a hashing preimage — only the §canonicalBytes binary encoding is.
func (c *EvidenceChain) ExportJSON() ([]byte, error) {
	w := wireChain{
		Records:  make([]wireEvidence, len(c.records)),
		ChainMAC: hex.EncodeToString(c.chainMAC[:]),
	}
	for i, r := range c.records {
		w.Records[i] = evidenceToWire(r)
	}
	return json.Marshal(w)
}

// ImportChainJSON parses a chain previously produced by ExportJSON.
// data is first checked against the embedded chain schema, then the
// chain_mac is recomputed from the decoded records and compared to the
// stored value; any mismatch — from the schema check or the MAC
// comparison — fails with InvalidInput rather than returning a
// partially trusted chain. secret must be supplied if the exported
// chain was keyed.
func ImportChainJSON(data []byte, secret *[32]byte) (*EvidenceChain, error) {
	if err := schemavalidation.ValidateChainJSON(data); err != nil {
		return nil, newInvalidInput("%v", err)
	}

	var w wireChain
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, newInvalidInput("unmarshal chain: %v", err)
	}

	storedMAC, err := decodeHash32(w.ChainMAC)
	if err != nil {
		return nil, newInvalidInput("chain_mac: %v", err)
	}

	records := make([]Evidence, len(w.Records))
	for i, wr := range w.Records {
		r, err := wireToEvidence(wr)
		if err != nil {
			return nil, err
		}
		records[i] = r
	}

	var key []byte
	if secret != nil {
		key = security.DeriveChainKey(secret[:])
	}

	recomputed := recomputeChainMAC(key, records)
	if !security.ConstantTimeEqual(recomputed, storedMAC) {
		return nil, newInvalidInput("chain_mac mismatch: chain has been tampered with or imported under the wrong secret")
	}

	return &EvidenceChain{records: records, chainMAC: storedMAC, key: key}, nil
}
