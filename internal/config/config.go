// Package config decodes physjitter's tunable parameters from a
// caller-supplied TOML document.
//
// The library never opens files itself — callers own all file I/O and
// pass the decoded bytes or an io.Reader in. This keeps the "no files"
// environment constraint intact while still letting operators version
// and audit the constants their deployment uses, including provenance
// metadata for the HumanModel baseline (dataset name, sample size,
// capture date) rather than bare unexplained numbers.
package config

import (
	"io"
	"strings"

	"github.com/BurntSushi/toml"
)

// EngineParameters configures a HybridEngine/PhysJitter instance.
type EngineParameters struct {
	MinEntropyBits uint8  `toml:"min_entropy_bits"`
	JitterMin      uint32 `toml:"jitter_min"`
	JitterRange    uint32 `toml:"jitter_range"`
}

// BaselineProvenance documents where a HumanModel's baseline constants
// came from, so "why is mu=412us" has an answer besides "it's in the
// binary".
type BaselineProvenance struct {
	Dataset    string `toml:"dataset"`
	SampleSize uint64 `toml:"sample_size"`
	CapturedAt string `toml:"captured_at"`
}

// HumanModelParameters configures a HumanModel and its detectors.
type HumanModelParameters struct {
	Provenance          BaselineProvenance `toml:"provenance"`
	MeanMicros          float64            `toml:"mean_micros"`
	StdDevMicros        float64            `toml:"std_dev_micros"`
	RangeLoMicros       uint32             `toml:"range_lo_micros"`
	RangeHiMicros       uint32             `toml:"range_hi_micros"`
	MinIKIMillis        uint32             `toml:"min_iki_millis"`
	MaxIKIMillis        uint32             `toml:"max_iki_millis"`
	MinStdDevThreshold  float64            `toml:"min_std_dev_threshold"`
	PatternWindow       int                `toml:"pattern_window"`
	MinSamples          int                `toml:"min_samples"`
}

// Document is the top-level shape of a physjitter configuration blob.
type Document struct {
	Engine   EngineParameters     `toml:"engine"`
	Baseline HumanModelParameters `toml:"baseline"`
}

// Decode parses a TOML document from r.
func Decode(r io.Reader) (Document, error) {
	var doc Document
	_, err := toml.NewDecoder(r).Decode(&doc)
	return doc, err
}

// DecodeString parses a TOML document from a string.
func DecodeString(s string) (Document, error) {
	return Decode(strings.NewReader(s))
}
