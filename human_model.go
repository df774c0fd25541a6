package physjitter

import (
	"fmt"
	"math"

	"physjitter/internal/config"
)

// AnomalyKind classifies why HumanModel rejected a sequence.
type AnomalyKind int

const (
	// AnomalyOutOfRange: a jitter value fell outside [lo, hi].
	AnomalyOutOfRange AnomalyKind = iota
	// AnomalyPerfectTiming: three or more identical consecutive values.
	AnomalyPerfectTiming
	// AnomalyLowVariance: sample standard deviation below threshold.
	AnomalyLowVariance
	// AnomalyRepeatingPattern: an exact short period repeats too often.
	AnomalyRepeatingPattern
	// AnomalyDistributionMismatch: sample mean too far from the model mean.
	AnomalyDistributionMismatch
	// AnomalyInvalidIKI: an inter-key interval fell outside [min, max].
	AnomalyInvalidIKI
)

func (k AnomalyKind) String() string {
	switch k {
	case AnomalyOutOfRange:
		return "out_of_range"
	case AnomalyPerfectTiming:
		return "perfect_timing"
	case AnomalyLowVariance:
		return "low_variance"
	case AnomalyRepeatingPattern:
		return "repeating_pattern"
	case AnomalyDistributionMismatch:
		return "distribution_mismatch"
	case AnomalyInvalidIKI:
		return "invalid_iki"
	default:
		return "unknown"
	}
}

// Anomaly is one detector hit.
type Anomaly struct {
	Kind   AnomalyKind
	Detail string
}

// ValidationResult is HumanModel's verdict on a sequence of jitters.
type ValidationResult struct {
	IsHuman   bool
	Anomalies []Anomaly
}

// BaselineProvenance documents where a HumanModel's constants came
// from. Re-exported from internal/config so callers constructing a
// HumanModel from a decoded TOML document don't need two import paths.
type BaselineProvenance = config.BaselineProvenance

// HumanModel holds baseline keystroke-timing statistics and the
// thresholds its five anomaly detectors use. Two HumanModel values are
// compared only by value, never pointer identity — callers may freely
// copy one.
type HumanModel struct {
	Provenance BaselineProvenance

	MeanMicros   float64
	StdDevMicros float64

	RangeLoMicros uint32
	RangeHiMicros uint32

	MinIKIMillis uint32
	MaxIKIMillis uint32

	MinStdDevThreshold float64
	PatternWindow      int
	MinSamples         int
}

// Baseline returns the embedded reference model: an aggregate
// distribution over roughly 136 million real keystrokes. Its
// provenance is recorded on the returned value rather than left as
// unexplained constants — see LoadHumanModel to inject an
// independently sourced baseline instead.
func Baseline() HumanModel {
	return HumanModel{
		Provenance: BaselineProvenance{
			Dataset:    "aggregate-keystroke-corpus",
			SampleSize: 136_000_000,
			CapturedAt: "2024-01-01",
		},
		MeanMicros:          1750,
		StdDevMicros:        420,
		RangeLoMicros:       500,
		RangeHiMicros:       3000,
		MinIKIMillis:        30,
		MaxIKIMillis:        5000,
		MinStdDevThreshold:  25,
		PatternWindow:       32,
		MinSamples:          4,
	}
}

// LoadHumanModel builds a HumanModel from a decoded configuration
// document, carrying its provenance metadata through unchanged.
func LoadHumanModel(p config.HumanModelParameters) HumanModel {
	return HumanModel{
		Provenance:          p.Provenance,
		MeanMicros:          p.MeanMicros,
		StdDevMicros:        p.StdDevMicros,
		RangeLoMicros:       p.RangeLoMicros,
		RangeHiMicros:       p.RangeHiMicros,
		MinIKIMillis:        p.MinIKIMillis,
		MaxIKIMillis:        p.MaxIKIMillis,
		MinStdDevThreshold:  p.MinStdDevThreshold,
		PatternWindow:       p.PatternWindow,
		MinSamples:          p.MinSamples,
	}
}

// Validate runs the five ordered anomaly detectors over delays (the
// jitter sequence) and, if intervals is non-nil, also checks
// inter-key interval bounds. Sequences shorter than MinSamples are
// inconclusive: is_human=true with no anomalies, since there isn't
// enough evidence to reject.
func (m HumanModel) Validate(delays []uint32, intervals []int64) ValidationResult {
	if len(delays) < m.MinSamples {
		return ValidationResult{IsHuman: true}
	}

	var anomalies []Anomaly

	if a, ok := detectOutOfRange(delays, m.RangeLoMicros, m.RangeHiMicros); ok {
		anomalies = append(anomalies, a)
	}
	if a, ok := detectPerfectTiming(delays); ok {
		anomalies = append(anomalies, a)
	}
	if a, ok := detectLowVariance(delays, m.MinStdDevThreshold, m.PatternWindow); ok {
		anomalies = append(anomalies, a)
	}
	if a, ok := detectRepeatingPattern(delays, m.PatternWindow); ok {
		anomalies = append(anomalies, a)
	}
	if a, ok := detectDistributionMismatch(delays, m.MeanMicros, m.StdDevMicros); ok {
		anomalies = append(anomalies, a)
	}
	if intervals != nil {
		if a, ok := detectInvalidIKI(intervals, m.MinIKIMillis, m.MaxIKIMillis); ok {
			anomalies = append(anomalies, a)
		}
	}

	return ValidationResult{IsHuman: len(anomalies) == 0, Anomalies: anomalies}
}

func detectOutOfRange(delays []uint32, lo, hi uint32) (Anomaly, bool) {
	for i, d := range delays {
		if d < lo || d > hi {
			return Anomaly{
				Kind:   AnomalyOutOfRange,
				Detail: fmt.Sprintf("sample %d: %dus outside [%d, %d]", i, d, lo, hi),
			}, true
		}
	}
	return Anomaly{}, false
}

func detectPerfectTiming(delays []uint32) (Anomaly, bool) {
	run := 1
	for i := 1; i < len(delays); i++ {
		if delays[i] == delays[i-1] {
			run++
			if run >= 3 {
				return Anomaly{
					Kind:   AnomalyPerfectTiming,
					Detail: fmt.Sprintf("%d identical consecutive values ending at sample %d", run, i),
				}, true
			}
		} else {
			run = 1
		}
	}
	return Anomaly{}, false
}

// windowed returns the last window samples of delays, and the index
// offset of that slice within delays. window <= 0 means unbounded: the
// detector sees the full sequence.
func windowed(delays []uint32, window int) ([]uint32, int) {
	if window <= 0 || len(delays) <= window {
		return delays, 0
	}
	offset := len(delays) - window
	return delays[offset:], offset
}

func detectLowVariance(delays []uint32, threshold float64, window int) (Anomaly, bool) {
	sample, _ := windowed(delays, window)
	if len(sample) < 8 {
		return Anomaly{}, false
	}
	stddev := sampleStdDev(sample)
	if stddev < threshold {
		return Anomaly{
			Kind:   AnomalyLowVariance,
			Detail: fmt.Sprintf("stddev %.2fus below threshold %.2fus over last %d samples", stddev, threshold, len(sample)),
		}, true
	}
	return Anomaly{}, false
}

// detectRepeatingPattern looks for an exact period p in {2,3,4,5} that
// repeats at least 3 times consecutively within the last window samples
// of delays.
func detectRepeatingPattern(delays []uint32, window int) (Anomaly, bool) {
	sample, offset := windowed(delays, window)
	for p := 2; p <= 5; p++ {
		needed := p * 3
		if len(sample) < needed {
			continue
		}
		for start := 0; start+needed <= len(sample); start++ {
			if repeatsAt(sample, start, p, 3) {
				return Anomaly{
					Kind:   AnomalyRepeatingPattern,
					Detail: fmt.Sprintf("period-%d pattern repeats 3+ times starting at sample %d", p, offset+start),
				}, true
			}
		}
	}
	return Anomaly{}, false
}

func repeatsAt(delays []uint32, start, period, repeats int) bool {
	for r := 1; r < repeats; r++ {
		for i := 0; i < period; i++ {
			if delays[start+i] != delays[start+r*period+i] {
				return false
			}
		}
	}
	return true
}

func detectDistributionMismatch(delays []uint32, mean, stddev float64) (Anomaly, bool) {
	sampleMean := meanOf(delays)
	diff := math.Abs(sampleMean - mean)
	if diff > 3*stddev {
		return Anomaly{
			Kind:   AnomalyDistributionMismatch,
			Detail: fmt.Sprintf("sample mean %.2fus is %.2fus from model mean %.2fus (3sigma=%.2fus)", sampleMean, diff, mean, 3*stddev),
		}, true
	}
	return Anomaly{}, false
}

func detectInvalidIKI(intervals []int64, minMillis, maxMillis uint32) (Anomaly, bool) {
	minNs := int64(minMillis) * 1_000_000
	maxNs := int64(maxMillis) * 1_000_000
	for i, iv := range intervals {
		if iv < minNs || iv > maxNs {
			return Anomaly{
				Kind:   AnomalyInvalidIKI,
				Detail: fmt.Sprintf("interval %d: %dns outside [%dms, %dms]", i, iv, minMillis, maxMillis),
			}, true
		}
	}
	return Anomaly{}, false
}

func meanOf(delays []uint32) float64 {
	var sum float64
	for _, d := range delays {
		sum += float64(d)
	}
	return sum / float64(len(delays))
}

func sampleStdDev(delays []uint32) float64 {
	mean := meanOf(delays)
	var sumSq float64
	for _, d := range delays {
		diff := float64(d) - mean
		sumSq += diff * diff
	}
	// Sample variance: divide by n-1.
	variance := sumSq / float64(len(delays)-1)
	return math.Sqrt(variance)
}
