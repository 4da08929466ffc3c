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

func TestLevelForVerbosity(t *testing.T) {
	tests := []struct {
		verbosity int
		want      zerolog.Level
	}{
		{0, zerolog.WarnLevel},
		{1, zerolog.InfoLevel},
		{2, zerolog.DebugLevel},
		{3, zerolog.TraceLevel},
		{7, zerolog.TraceLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelForVerbosity(tt.verbosity))
	}
}

func TestSetupLoggerWritesFileAndConsole(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	logFile := filepath.Join(t.TempDir(), "nested", "strmlink.log")
	var console bytes.Buffer

	SetupLoggerWithWriter(1, logFile, &console)
	log := GetLogger("test")
	log.Info().Str("dir", "/media").Msg("scan started")

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"component":"test"`)
	assert.Contains(t, string(data), "scan started")
	assert.Contains(t, console.String(), "scan started")
}

func TestSetupLoggerFiltersBelowLevel(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	logFile := filepath.Join(t.TempDir(), "strmlink.log")
	var console bytes.Buffer

	SetupLoggerWithWriter(0, logFile, &console)
	log := GetLogger("test")
	log.Info().Msg("hidden")
	log.Warn().Msg("visible")

	assert.NotContains(t, console.String(), "hidden")
	assert.Contains(t, console.String(), "visible")
}

func TestLogOperationStart(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	var console bytes.Buffer
	SetupLoggerWithWriter(2, filepath.Join(t.TempDir(), "strmlink.log"), &console)

	done := LogOperationStart(GetLogger("test"), "scan")
	assert.Contains(t, console.String(), "Operation started")
	assert.NotContains(t, console.String(), "Operation completed")

	done()
	assert.Contains(t, console.String(), "Operation completed")
	assert.Contains(t, console.String(), "scan")
}
