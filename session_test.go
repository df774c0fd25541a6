package physjitter

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSessionSampleNeverFails(t *testing.T) {
	engine, err := NewHybridEngine(mockEntropySource{err: errHardwareProbe})
	require.NoError(t, err)

	session, err := WithEngine([32]byte{1, 2, 3}, engine)
	require.NoError(t, err)
	defer session.Close()

	jitter, record := session.Sample([]byte("a"))
	require.False(t, record.Variant == VariantPhys, "expected Pure fallback when hardware is unavailable")
	require.Equal(t, jitter, record.Jitter)
	require.Equal(t, uint64(0), record.Sequence)
}

func TestSessionAppendsToChainInOrder(t *testing.T) {
	engine, err := NewHybridEngine(nil)
	require.NoError(t, err)
	session, err := WithEngine([32]byte{4}, engine)
	require.NoError(t, err)
	defer session.Close()

	for _, input := range []string{"a", "b", "c"} {
		session.Sample([]byte(input))
	}

	require.Equal(t, 3, session.Chain().Len())
	require.True(t, session.Chain().ValidateSequences())
	require.True(t, session.Chain().ValidateTimestamps())
	require.True(t, session.VerifyIntegrity())
}

func TestSessionValidateInsufficientEvidence(t *testing.T) {
	engine, err := NewHybridEngine(nil)
	require.NoError(t, err)
	session, err := WithEngine([32]byte{5}, engine)
	require.NoError(t, err)
	defer session.Close()

	session.Sample([]byte("a"))
	result := session.Validate(Baseline())
	require.True(t, result.IsHuman)
	require.Empty(t, result.Anomalies)
}

func TestSessionExportImportRoundTrip(t *testing.T) {
	secret := [32]byte{6, 7, 8}
	engine, err := NewHybridEngine(nil)
	require.NoError(t, err)
	session, err := WithEngine(secret, engine)
	require.NoError(t, err)

	session.Sample([]byte("a"))
	session.Sample([]byte("b"))

	data, err := session.ExportJSON()
	require.NoError(t, err)
	session.Close()

	imported, err := ImportSessionJSON(data, secret, engine)
	require.NoError(t, err)
	defer imported.Close()

	require.True(t, imported.VerifyIntegrity())
	require.Equal(t, 2, imported.Chain().Len())
}

func TestSessionExportImportRejectsWrongSecret(t *testing.T) {
	secret := [32]byte{1}
	engine, err := NewHybridEngine(nil)
	require.NoError(t, err)
	session, err := WithEngine(secret, engine)
	require.NoError(t, err)

	session.Sample([]byte("a"))
	data, err := session.ExportJSON()
	require.NoError(t, err)
	session.Close()

	wrong := [32]byte{2}
	_, err = ImportSessionJSON(data, wrong, engine)
	require.Error(t, err)
}

func TestDeriveSessionSecretDeterministic(t *testing.T) {
	master := []byte("a master key of sufficient entropy and length")

	a, err := DeriveSessionSecret(master, "session-1")
	require.NoError(t, err)
	b, err := DeriveSessionSecret(master, "session-1")
	require.NoError(t, err)
	c, err := DeriveSessionSecret(master, "session-2")
	require.NoError(t, err)

	require.Equal(t, a, b)
	require.NotEqual(t, a, c)
}

func TestImportSessionJSONLogsRejection(t *testing.T) {
	engine, err := NewHybridEngine(nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	_, err = ImportSessionJSON([]byte("not json"), [32]byte{1}, engine, WithSessionLogger(logger))
	require.Error(t, err)
	require.Contains(t, buf.String(), "chain import rejected")
}

func TestRandomSessionProducesUsableSecret(t *testing.T) {
	session, err := Random()
	require.NoError(t, err)
	defer session.Close()

	session.Sample([]byte("a"))
	require.True(t, session.VerifyIntegrity())
}
