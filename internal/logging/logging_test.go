package logging_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neomorfeo/dataflex/internal/logging"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, logging.ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, logging.ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, logging.ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, logging.ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, logging.ParseLevel("verbose"))
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&buf, logging.Options{Level: "info", Format: "json"})

	logger.Debug("hidden")
	logger.Info("agent registered", "agent_code", "DFA123456007")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "agent registered", entry["msg"])
	assert.Equal(t, "DFA123456007", entry["agent_code"])
}

func TestNew_TextWithoutColourOffTerminal(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&buf, logging.Options{Level: "debug"})

	logger.Debug("store failed", "error", errors.New("disk full"))

	out := buf.String()
	assert.Contains(t, out, "store failed")
	assert.Contains(t, out, "disk full")
	assert.NotContains(t, out, "\x1b[", "buffers are not terminals")
}
