package physjitter

import (
	"log/slog"

	"physjitter/internal/config"
	"physjitter/internal/logging"
)

// Default HybridEngine configuration, per the wire-format v1 profile.
const (
	DefaultMinEntropyBits uint8  = 8
	DefaultJitterMin      uint32 = 500
	DefaultJitterRange    uint32 = 2500
)

type hybridConfig struct {
	minEntropyBits uint8
	jmin           uint32
	rng            uint32
	logger         *slog.Logger
}

// HybridOption configures a HybridEngine at construction time.
type HybridOption func(*hybridConfig)

// WithMinEntropyBits overrides the entropy floor a PhysJitter sample
// must clear before HybridEngine trusts it.
func WithMinEntropyBits(bits uint8) HybridOption {
	return func(c *hybridConfig) { c.minEntropyBits = bits }
}

// WithRange overrides the [jmin, jmin+rng) output range.
func WithRange(jmin, rng uint32) HybridOption {
	return func(c *hybridConfig) { c.jmin = jmin; c.rng = rng }
}

// WithLogger overrides the discard-by-default logger HybridEngine uses
// to report phys-to-pure fallback decisions and entropy-health
// transitions. Never logs secret material, hashes, or jitter-bearing
// input bytes.
func WithLogger(logger *slog.Logger) HybridOption {
	return func(c *hybridConfig) { c.logger = logger }
}

// NewHybridEngineFromConfig builds a HybridEngine from a decoded
// configuration document's engine section, using source as the
// EntropySource (nil always falls back to PureJitter).
func NewHybridEngineFromConfig(source EntropySource, p config.EngineParameters, opts ...HybridOption) (*HybridEngine, error) {
	all := append([]HybridOption{WithMinEntropyBits(p.MinEntropyBits), WithRange(p.JitterMin, p.JitterRange)}, opts...)
	return NewHybridEngine(source, all...)
}

// HybridEngine tries PhysJitter per event and falls back to PureJitter
// on hardware unavailability or insufficient entropy. The fallback
// decision is made solely from public values — hardware availability,
// entropy_bits, and configuration — never from the secret, so it
// cannot leak secret bits through a timing side channel.
type HybridEngine struct {
	phys *PhysJitter
	pure *PureJitter

	minEntropyBits uint8
	jmin, rng      uint32

	physAvailable bool
	logger        *slog.Logger
}

// NewHybridEngine builds a HybridEngine. source may be nil, in which
// case the engine always falls back to PureJitter (phys_available()
// is false).
func NewHybridEngine(source EntropySource, opts ...HybridOption) (*HybridEngine, error) {
	cfg := hybridConfig{
		minEntropyBits: DefaultMinEntropyBits,
		jmin:           DefaultJitterMin,
		rng:            DefaultJitterRange,
		logger:         logging.Discard(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = logging.Discard()
	}

	pure, err := NewPureJitter(cfg.jmin, cfg.rng)
	if err != nil {
		return nil, err
	}

	e := &HybridEngine{
		pure:           pure,
		minEntropyBits: cfg.minEntropyBits,
		jmin:           cfg.jmin,
		rng:            cfg.rng,
		logger:         cfg.logger,
	}

	if source != nil {
		phys, err := NewPhysJitter(source, cfg.jmin, cfg.rng, cfg.minEntropyBits)
		if err != nil {
			return nil, err
		}
		e.phys = phys
		e.physAvailable = e.probePhys()
		if !e.physAvailable {
			e.logger.Info("phys entropy source unavailable at construction, falling back to pure jitter")
		}
	}

	return e, nil
}

// probePhys takes one throwaway entropy sample at construction time to
// determine whether this host can deliver high-entropy Phys samples at
// all, independent of any particular session's secret.
func (e *HybridEngine) probePhys() bool {
	if e.phys == nil {
		return false
	}
	entropy, err := e.phys.source.Sample([]byte(jitterDomainTag + "/probe"))
	if err != nil {
		return false
	}
	return e.phys.source.Validate(entropy, e.minEntropyBits)
}

// PhysAvailable reports whether the underlying EntropySource produced
// at least one successful high-entropy sample during the construction
// probe.
func (e *HybridEngine) PhysAvailable() bool {
	return e.physAvailable
}

// Outcome is one HybridEngine.Sample result: the derived jitter, the
// engine actually used, and (if Phys) the entropy sample behind it.
type Outcome struct {
	Jitter  Jitter
	Phys    bool
	Entropy PhysHash
}

// Sample attempts PhysJitter; on any failure — hardware unavailable or
// entropy below the configured floor — it falls back to PureJitter.
// Sequence numbers and timestamps are the caller's (Session's)
// responsibility; HybridEngine is stateless across calls.
func (e *HybridEngine) Sample(secret [32]byte, inputs []byte) Outcome {
	if e.phys != nil {
		jitter, entropy, err := e.phys.Sample(secret, inputs)
		if err == nil {
			return Outcome{Jitter: jitter, Phys: true, Entropy: entropy}
		}
		e.logger.Debug("falling back to pure jitter", "reason", err)
	}
	jitter := e.pure.ComputeJitter(secret, inputs, PhysHash{})
	return Outcome{Jitter: jitter, Phys: false}
}

// Range reports the engine's configured (jmin, range).
func (e *HybridEngine) Range() (jmin, rng uint32) {
	return e.jmin, e.rng
}
