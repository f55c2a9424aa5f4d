package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	l := Setup("debug", false, &buf)

	assert.Equal(t, zerolog.DebugLevel, l.GetLevel())

	log.Info().Str("component", "test").Msg("hello")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["message"])
	assert.Equal(t, "test", entry["component"])
	assert.Contains(t, entry, "time")
}

func TestSetup_UnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := Setup("loud", false, &buf)
	assert.Equal(t, zerolog.InfoLevel, l.GetLevel())

	log.Debug().Msg("hidden")
	assert.Empty(t, buf.String())
}

func TestSetup_Pretty(t *testing.T) {
	var buf bytes.Buffer
	Setup("info", true, &buf)

	log.Info().Msg("console line")
	assert.Contains(t, buf.String(), "console line")
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}
