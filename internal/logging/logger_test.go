package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitJSON(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FORMAT", "")

	var buf bytes.Buffer
	c, err := Init(Options{Level: "debug", Format: "json", Out: &buf})
	require.NoError(t, err)
	defer c.Close()

	Debug().Str("mode", "json").Msg("attempt")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "debug", line["level"])
	assert.Equal(t, "json", line["mode"])
	assert.Equal(t, "attempt", line["message"])
}

func TestInitEnvOverridesLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("LOG_FORMAT", "json")

	var buf bytes.Buffer
	_, err := Init(Options{Level: "debug", Out: &buf})
	require.NoError(t, err)
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	Info().Msg("hidden")
	assert.Empty(t, buf.String())
	assert.Equal(t, zerolog.ErrorLevel, zerolog.GlobalLevel())
}

func TestInitBadLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	_, err := Init(Options{Level: "loud"})
	assert.Error(t, err)
}

func TestInitFile(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FORMAT", "")

	path := filepath.Join(t.TempDir(), "logs", "app.log")
	c, err := Init(Options{File: path})
	require.NoError(t, err)

	Info().Msg("to file")
	require.NoError(t, c.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
}
