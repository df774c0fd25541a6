package physjitter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// These mirror the literal end-to-end scenarios that motivated this
// package's design: a chain built from mocked timestamps and no
// hardware counter, a too-short sequence read as inconclusive, a
// crafted constant-jitter sequence that trips PerfectTiming and
// LowVariance, a HybridEngine that never clears an unreachable entropy
// floor, an export/tamper/re-import round trip, and a zero-range
// construction failure.

func TestScenarioThreePureRecordsVerifyAndDetectTamper(t *testing.T) {
	secret := [32]byte{}
	pure, err := NewPureJitter(500, 2500)
	require.NoError(t, err)

	chain := NewKeyedChain(secret)
	for i, input := range []string{"a", "b", "c"} {
		jitter := pure.ComputeJitter(secret, []byte(input), PhysHash{})
		require.NoError(t, chain.Append(Evidence{
			Variant:     VariantPure,
			Sequence:    uint64(i),
			TimestampNs: uint64(i + 1),
			InputHash:   HashInput([]byte(input)),
			Jitter:      jitter,
		}))
	}

	require.Equal(t, 3, chain.Len())
	require.True(t, chain.ValidateSequences())
	require.True(t, chain.VerifyIntegrity(&secret))
	require.Equal(t, float32(0), chain.PhysRatio())

	chain.records[1].Jitter = 12345
	require.False(t, chain.VerifyIntegrity(&secret))
}

func TestScenarioShortSequenceIsInconclusive(t *testing.T) {
	secret := [32]byte{}
	pure, err := NewPureJitter(500, 2500)
	require.NoError(t, err)

	chain := NewKeyedChain(secret)
	for i, input := range []string{"a", "b", "c"} {
		jitter := pure.ComputeJitter(secret, []byte(input), PhysHash{})
		require.NoError(t, chain.Append(Evidence{
			Variant:     VariantPure,
			Sequence:    uint64(i),
			TimestampNs: uint64(i + 1),
			InputHash:   HashInput([]byte(input)),
			Jitter:      jitter,
		}))
	}

	delays := make([]uint32, chain.Len())
	for i, r := range chain.Records() {
		delays[i] = uint32(r.Jitter)
	}

	result := Baseline().Validate(delays, nil)
	require.True(t, result.IsHuman)
	require.Empty(t, result.Anomalies)
}

func TestScenarioCraftedConstantSequenceFlagsNonHuman(t *testing.T) {
	secret := [32]byte{0xAB}
	pure, err := NewPureJitter(500, 2500)
	require.NoError(t, err)

	// Craft 16 inputs that each land on the same derived jitter value
	// by reusing one fixed input repeatedly — PureJitter is
	// deterministic in (secret, inputs), so identical inputs always
	// reproduce the same delay.
	const fixedInput = "repeat"
	jitter := pure.ComputeJitter(secret, []byte(fixedInput), PhysHash{})

	delays := make([]uint32, 16)
	for i := range delays {
		delays[i] = uint32(jitter)
	}

	result := Baseline().Validate(delays, nil)
	require.False(t, result.IsHuman)

	var sawPerfectTiming, sawLowVariance bool
	for _, a := range result.Anomalies {
		switch a.Kind {
		case AnomalyPerfectTiming:
			sawPerfectTiming = true
		case AnomalyLowVariance:
			sawLowVariance = true
		}
	}
	require.True(t, sawPerfectTiming)
	require.True(t, sawLowVariance)
}

func TestScenarioUnreachableEntropyFloorAlwaysFallsBack(t *testing.T) {
	source := mockEntropySource{hash: [32]byte{1}, bits: 12}
	engine, err := NewHybridEngine(source, WithMinEntropyBits(64))
	require.NoError(t, err)
	require.False(t, engine.PhysAvailable())

	session, err := WithEngine([32]byte{1}, engine)
	require.NoError(t, err)
	defer session.Close()

	for i := 0; i < 10; i++ {
		session.Sample([]byte{byte(i)})
	}

	require.Equal(t, float32(0), session.PhysRatio())
}

func TestScenarioTamperedExportFailsReimport(t *testing.T) {
	secret := [32]byte{3, 3, 3}
	engine, err := NewHybridEngine(nil)
	require.NoError(t, err)
	session, err := WithEngine(secret, engine)
	require.NoError(t, err)

	session.Sample([]byte("a"))
	session.Sample([]byte("b"))

	data, err := session.ExportJSON()
	require.NoError(t, err)
	session.Close()

	tampered := make([]byte, len(data))
	copy(tampered, data)
	idx := indexOf(tampered, []byte(`"input_hash":"`))
	require.GreaterOrEqual(t, idx, 0)
	flipAt := idx + len(`"input_hash":"`)
	if tampered[flipAt] == '0' {
		tampered[flipAt] = '1'
	} else {
		tampered[flipAt] = '0'
	}

	_, err = ImportSessionJSON(tampered, secret, engine)
	require.Error(t, err)

	var pjErr *Error
	require.ErrorAs(t, err, &pjErr)
	require.Equal(t, KindInvalidInput, pjErr.Kind)
}

func TestScenarioZeroRangeConstructionFails(t *testing.T) {
	_, err := NewPureJitter(500, 0)
	require.Error(t, err)

	var pjErr *Error
	require.ErrorAs(t, err, &pjErr)
	require.Equal(t, KindInvalidInput, pjErr.Kind)
}
