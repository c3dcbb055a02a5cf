package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInitFile_WritesConsoleLines(t *testing.T) {
	prev := Log
	t.Cleanup(func() { Log = prev })

	path := filepath.Join(t.TempDir(), "eduseek.log")

	InitFile(false, path)
	Log.Debug("hidden")
	Log.Info("sync started", zap.String("attempt_id", "a1"))
	Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	out := string(data)
	assert.Contains(t, out, "info")
	assert.Contains(t, out, "sync started")
	assert.Contains(t, out, `"attempt_id": "a1"`)
	assert.NotContains(t, out, "hidden")
}

func TestInitFile_DebugLevel(t *testing.T) {
	prev := Log
	t.Cleanup(func() { Log = prev })

	path := filepath.Join(t.TempDir(), "debug.log")

	InitFile(true, path)
	Log.Debug("poll")
	Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "poll")
}
