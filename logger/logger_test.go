package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"testing"

	"github.com/amp-labs/breeze/config"
	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var records []map[string]any

	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		if len(line) == 0 {
			continue
		}

		var rec map[string]any
		require.NoError(t, json.Unmarshal(line, &rec))

		records = append(records, rec)
	}

	return records
}

func TestLogger(t *testing.T) { //nolint:paralleltest
	var buf bytes.Buffer

	ConfigureLoggingWithOptions(Options{
		Subsystem: "test",
		JSON:      true,
		Output:    &buf,
	})

	Get().Info("default subsystem")

	ctx := WithSubsystem(t.Context(), "overridden")
	Get(ctx).Info("overridden subsystem")

	ctx = With(t.Context(), "operation", "fetchUser")
	ctx = With(ctx, "kind", "better-promise")
	Get(ctx).Info("with values")

	Get(WithMuted(t.Context(), true)).Info("never written")

	records := decodeLines(t, &buf)
	require.Len(t, records, 3)

	assert.Equal(t, "test", records[0]["subsystem"])
	assert.Equal(t, "overridden", records[1]["subsystem"])
	assert.Equal(t, "fetchUser", records[2]["operation"])
	assert.Equal(t, "better-promise", records[2]["kind"])
}

func TestLegacy(t *testing.T) { //nolint:paralleltest
	var buf bytes.Buffer

	ConfigureLoggingWithOptions(Options{
		Subsystem:   "test",
		JSON:        true,
		MinLevel:    slog.LevelDebug,
		LegacyLevel: slog.LevelInfo,
		Output:      &buf,
	})

	log.Println("legacy line")

	records := decodeLines(t, &buf)
	require.Len(t, records, 1)
	assert.Equal(t, "legacy line", records[0]["msg"])
}

func TestConfigureLoggingFromConfig(t *testing.T) { //nolint:paralleltest
	var buf bytes.Buffer

	logger, err := ConfigureLoggingFromConfig(config.Config{
		LogJSON:   true,
		LogLevel:  slog.LevelWarn,
		LogOutput: "stdout",
	}, "breeze", WithOutput(&buf))
	require.NoError(t, err)

	logger.Info("filtered")
	logger.Warn("kept")

	records := decodeLines(t, &buf)
	require.Len(t, records, 1)
	assert.Equal(t, "kept", records[0]["msg"])
	assert.Equal(t, "breeze", GetSubsystem(context.Background()))

	_, err = ConfigureLoggingFromConfig(config.Config{LogOutput: "nowhere"}, "breeze")
	require.ErrorIs(t, err, config.ErrInvalidLogOutput)
}

func TestWithLogger(t *testing.T) {
	t.Parallel()

	ctx := WithLogger(t.Context(), slogt.New(t))
	ctx = WithSubsystem(ctx, "resolve")

	// Routed to t.Log; nothing to assert beyond not touching the default logger.
	Get(ctx).Debug("hello from a test logger")

	assert.Equal(t, "resolve", GetSubsystem(ctx))
}

func TestGet_NilContext(t *testing.T) {
	t.Parallel()

	//nolint:staticcheck
	assert.NotNil(t, Get(nil))
	assert.Equal(t, context.Background(), getRealContext())
}
