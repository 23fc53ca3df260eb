package logging_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsphweid/chordfuse/config"
	"github.com/jsphweid/chordfuse/logging"
)

func TestJSONLoggerWritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Format: "json", Output: &buf})
	require.NoError(t, err)

	logger.Info("song fused", logging.FieldSongID, "s1", logging.FieldErrorKind, "no_data")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "song fused", entry["msg"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "s1", entry["song_id"])
	assert.Equal(t, "no_data", entry["error_kind"])
	assert.Contains(t, entry, "ts")
	assert.NotContains(t, entry, "source")
}

func TestLevelFiltersMessages(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "warn", Format: "console", Output: &buf})
	require.NoError(t, err)

	logger.Info("quiet")
	logger.Warn("loud", logging.Error(errors.New("boom")))

	out := buf.String()
	assert.NotContains(t, out, "quiet")
	assert.Contains(t, out, "loud")
	assert.Contains(t, out, "error=boom")
}

func TestDebugAddsSource(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "debug", Format: "json", Output: &buf})
	require.NoError(t, err)

	logger.Debug("trace")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Contains(t, entry["source"], "logger_test.go:")
}

func TestAutoFormatFallsBackToJSONOffTerminal(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "auto", Output: &buf})
	require.NoError(t, err)

	logger.Info("hello")
	assert.True(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}

func TestUnknownFormatFails(t *testing.T) {
	_, err := logging.New(logging.Options{Format: "xml"})
	assert.Error(t, err)
}

func TestNewFromConfig(t *testing.T) {
	cfg := config.Default()
	logger, err := logging.NewFromConfig(&cfg)
	require.NoError(t, err)
	assert.NotNil(t, logger)

	logger, err = logging.NewFromConfig(nil)
	require.NoError(t, err)
	assert.NotNil(t, logger)
}
