package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	config "github.com/thirdweb-dev/tracecollector/configs"
)

func TestNewLogger_JSONWithComponent(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)
	var buf bytes.Buffer
	logger := newLogger(&buf, "worker", config.LogConfig{Level: "debug"})

	logger.Debug().Uint64("block", 100).Msg("Processing block")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "worker", entry["component"])
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, float64(100), entry["block"])
	assert.Contains(t, entry, "time")
	assert.Contains(t, entry, "caller")
}

func TestNewLogger_DefaultsToInfo(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)
	var buf bytes.Buffer
	logger := newLogger(&buf, "worker", config.LogConfig{Level: "nonsense"})

	logger.Debug().Msg("hidden")
	assert.Empty(t, buf.String())

	logger.Info().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewLogger_Prettify(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)
	var buf bytes.Buffer
	logger := newLogger(&buf, "worker", config.LogConfig{Level: "info", Prettify: true})

	logger.Info().Msg("Block: 100, Tx: 0xT1, Trace not available")

	assert.Contains(t, buf.String(), "Block: 100, Tx: 0xT1, Trace not available")
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}
