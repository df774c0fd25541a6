package physjitter

import (
	"crypto/rand"
	"fmt"
	"log/slog"

	"physjitter/internal/logging"
	"physjitter/internal/security"
)

// sessionConfig holds Session's optional construction-time settings.
type sessionConfig struct {
	logger *slog.Logger
}

// SessionOption configures a Session at construction time.
type SessionOption func(*sessionConfig)

// WithSessionLogger overrides the discard-by-default logger Session
// uses to report chain import rejections. Never logs secret material,
// hashes, or jitter-bearing input bytes.
func WithSessionLogger(logger *slog.Logger) SessionOption {
	return func(c *sessionConfig) { c.logger = logger }
}

func resolveSessionConfig(opts []SessionOption) sessionConfig {
	cfg := sessionConfig{logger: logging.Discard()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = logging.Discard()
	}
	return cfg
}

// Session owns a zeroizing secret, a HybridEngine, and an
// EvidenceChain keyed with that secret. Concurrent use of a single
// Session from multiple goroutines is forbidden — sample() calls
// impose a total order only when the caller holds the Session
// exclusively.
type Session struct {
	secret   *security.Secret
	engine   *HybridEngine
	chain    *EvidenceChain
	sequence uint64
	logger   *slog.Logger
}

// New constructs a Session over secret with the default HybridEngine:
// the platform timing counter as its EntropySource, 8 minimum entropy
// bits, and the default [500, 3000) jitter range.
func New(secret [32]byte, opts ...SessionOption) (*Session, error) {
	engine, err := NewHybridEngine(NewCounterEntropySource())
	if err != nil {
		return nil, err
	}
	return WithEngine(secret, engine, opts...)
}

// WithEngine constructs a Session over secret using a caller-supplied
// HybridEngine, e.g. one built with a TPMEntropySource or non-default
// range/entropy-floor options.
func WithEngine(secret [32]byte, engine *HybridEngine, opts ...SessionOption) (*Session, error) {
	s, err := security.NewSecret(append([]byte(nil), secret[:]...))
	if err != nil {
		return nil, newInvalidInput("%v", err)
	}
	cfg := resolveSessionConfig(opts)
	return &Session{
		secret: s,
		engine: engine,
		chain:  NewKeyedChain(secret),
		logger: cfg.logger,
	}, nil
}

// Random constructs a Session over a fresh secret drawn from the OS
// CSPRNG.
func Random(opts ...SessionOption) (*Session, error) {
	var secret [32]byte
	if _, err := rand.Read(secret[:]); err != nil {
		return nil, newInvalidInput("read random secret: %v", err)
	}
	return New(secret, opts...)
}

// secretArray copies the session's secret out into a fixed-size array
// for the duration of one engine call. The zeroizing wrapper still
// owns and eventually wipes the canonical copy.
func (s *Session) secretArray() [32]byte {
	var out [32]byte
	copy(out[:], s.secret.Bytes())
	return out
}

// Sample derives a jitter value for inputs, appends the resulting
// Evidence to the chain, and returns both. Sample never fails: any
// lower-level entropy or hardware error is absorbed by HybridEngine's
// fallback to PureJitter, so evidence collection is never silently
// dropped.
func (s *Session) Sample(inputs []byte) (Jitter, Evidence) {
	outcome := s.engine.Sample(s.secretArray(), inputs)

	// Clamp to the previous record's timestamp so a wall-clock step
	// backwards (or an imported chain stamped ahead of this clock) keeps
	// timestamps non-decreasing.
	ts := nowNs()
	if n := len(s.chain.records); n > 0 && ts < s.chain.records[n-1].TimestampNs {
		ts = s.chain.records[n-1].TimestampNs
	}

	record := Evidence{
		Sequence:    s.sequence,
		TimestampNs: ts,
		InputHash:   HashInput(inputs),
		Jitter:      outcome.Jitter,
	}
	if outcome.Phys {
		record.Variant = VariantPhys
		record.Entropy = outcome.Entropy
	} else {
		record.Variant = VariantPure
	}

	// Append cannot fail here: the sequence is this Session's own counter
	// and the timestamp was clamped above to be non-decreasing.
	_ = s.chain.Append(record)
	s.sequence++

	return outcome.Jitter, record
}

// Validate extracts the jitter sequence (and inter-key intervals, from
// consecutive timestamps) from the chain and runs it through model.
func (s *Session) Validate(model HumanModel) ValidationResult {
	records := s.chain.Records()
	if len(records) == 0 {
		return ValidationResult{IsHuman: true}
	}

	delays := make([]uint32, len(records))
	intervals := make([]int64, 0, len(records)-1)
	for i, r := range records {
		delays[i] = uint32(r.Jitter)
		if i > 0 {
			intervals = append(intervals, int64(r.TimestampNs-records[i-1].TimestampNs))
		}
	}

	return model.Validate(delays, intervals)
}

// ExportJSON renders the session's chain as the human-readable wire
// form.
func (s *Session) ExportJSON() ([]byte, error) {
	return s.chain.ExportJSON()
}

// ImportSessionJSON reconstructs a Session from a chain previously
// produced by ExportJSON, keyed with secret. A chain_mac mismatch —
// from tampering or from the wrong secret — fails with InvalidInput.
// The returned Session's HybridEngine is engine; it has no bearing on
// the chain's validity, only on future Sample calls.
func ImportSessionJSON(data []byte, secret [32]byte, engine *HybridEngine, opts ...SessionOption) (*Session, error) {
	cfg := resolveSessionConfig(opts)

	chain, err := ImportChainJSON(data, &secret)
	if err != nil {
		cfg.logger.Warn("chain import rejected", "reason", err)
		return nil, err
	}

	s, err := security.NewSecret(append([]byte(nil), secret[:]...))
	if err != nil {
		return nil, newInvalidInput("%v", err)
	}

	return &Session{
		secret:   s,
		engine:   engine,
		chain:    chain,
		sequence: uint64(chain.Len()),
		logger:   cfg.logger,
	}, nil
}

// VerifyIntegrity recomputes the chain's MAC from zero using this
// Session's own secret and compares it to the stored value.
func (s *Session) VerifyIntegrity() bool {
	secret := s.secretArray()
	return s.chain.VerifyIntegrity(&secret)
}

// PhysRatio returns the fraction of the session's records that used
// PhysJitter.
func (s *Session) PhysRatio() float32 {
	return s.chain.PhysRatio()
}

// Chain exposes the session's underlying EvidenceChain for read-only
// inspection (ValidateSequences, ValidateTimestamps, Records, Len).
func (s *Session) Chain() *EvidenceChain {
	return s.chain
}

// Close destroys the session's secret, wiping it from memory. The
// Session must not be used afterward.
func (s *Session) Close() {
	s.secret.Destroy()
}

// DeriveSessionSecret derives a 32-byte session secret from masterKey
// via HKDF-SHA256 extract-then-expand, with context as the HKDF info
// parameter. Equal (masterKey, context) pairs always yield the same
// secret; distinct contexts are unlinkable even under the same master
// key.
func DeriveSessionSecret(masterKey []byte, context string) ([32]byte, error) {
	secret, err := security.DeriveSessionSecret(masterKey, context)
	if err != nil {
		return [32]byte{}, fmt.Errorf("physjitter: %w", err)
	}
	defer secret.Destroy()

	var out [32]byte
	copy(out[:], secret.Bytes())
	return out, nil
}
