package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "server.log")

	logger, err := NewLogger(LoggerConfig{
		Level:      "info",
		OutputPath: path,
		Format:     "json",
		Service:    "invoxis",
	})
	require.NoError(t, err)

	logger.Info("draft created")
	logger.Debug("not written at info level")
	require.NoError(t, logger.Sync())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"msg":"draft created"`)
	assert.Contains(t, string(content), `"service":"invoxis"`)
	assert.Contains(t, string(content), `"timestamp"`)
	assert.False(t, strings.Contains(string(content), "not written"))
}

func TestNewLogger_InvalidLevelFallsBackToInfo(t *testing.T) {
	logger, err := NewLogger(LoggerConfig{Level: "chatty", OutputPath: "stderr", Format: "console"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
}
