package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info")
	require.NotNil(t, log)

	log.Info().Msg("test message")
	assert.Contains(t, buf.String(), "test message")
}

func TestSub(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "debug")
	sub := log.Sub("bridge")
	require.NotNil(t, sub)

	sub.Info().Msg("queue drained")
	output := buf.String()
	assert.Contains(t, output, "queue drained")
	assert.Contains(t, output, "bridge")
}

func TestSubChain(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "debug")
	actions := log.Sub("nodes").Sub("actions")

	actions.Warn().Msg("called but bot is not running")
	output := buf.String()
	assert.Contains(t, output, "called but bot is not running")
	assert.Contains(t, output, `"subsystem":"actions"`)
}

func TestLogLevels(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "warn")

	log.Debug().Msg("debug msg")
	log.Info().Msg("info msg")
	assert.Empty(t, buf.String(), "debug and info should be filtered at warn level")

	log.Warn().Msg("warn msg")
	assert.Contains(t, buf.String(), "warn msg")

	buf.Reset()
	log.Error().Msg("error msg")
	assert.Contains(t, buf.String(), "error msg")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"silent", zerolog.Disabled},
		{"", zerolog.InfoLevel},
		{"unknown", zerolog.InfoLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"Warn", zerolog.WarnLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.input))
		})
	}
}

func TestZerolog(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info")
	zl := log.Zerolog()
	assert.NotZero(t, zl)

	zl.Info().Msg("direct zerolog")
	assert.Contains(t, buf.String(), "direct zerolog")
}

func TestSilentLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "silent")

	log.Debug().Msg("should not appear")
	log.Info().Msg("should not appear")
	log.Warn().Msg("should not appear")
	log.Error().Msg("should not appear")

	assert.Empty(t, buf.String())
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info").With("plugin", "com.rune.discord")

	log.Info().Msg("loaded")
	assert.Contains(t, buf.String(), "com.rune.discord")
}

func TestClientLogFunc(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "debug")

	fn := log.ClientLogFunc()
	fn(2, "heartbeat sent, seq %d\n", 7)

	out := buf.String()
	assert.Contains(t, out, "heartbeat sent, seq 7")
	assert.Contains(t, out, `"client_level":2`)
	assert.Contains(t, out, `"level":"debug"`)
}

func TestClientLogFunc_FilteredAboveDebug(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info")

	log.ClientLogFunc()(0, "error from client")
	assert.Empty(t, buf.String())
}

func TestOpen_WithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "bridge.log")
	log, closer, err := Open(Options{Level: "info", Style: "json", File: path})
	require.NoError(t, err)

	log.Info().Msg("to file")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
}

func TestOpen_NoFile(t *testing.T) {
	log, closer, err := Open(Options{Level: "silent"})
	require.NoError(t, err)
	require.NotNil(t, log)
	assert.NoError(t, closer.Close())
}
