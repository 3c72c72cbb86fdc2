package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInit(t *testing.T) {
	t.Cleanup(func() { level.SetLevel(zap.DebugLevel) })

	require.Error(t, Init("loud"))

	require.NoError(t, Init("warn"))
	assert.Equal(t, zap.WarnLevel, level.Level())
}

func TestInitFileOutput(t *testing.T) {
	prev := logger
	t.Cleanup(func() {
		logger = prev
		level.SetLevel(zap.DebugLevel)
	})

	path := filepath.Join(t.TempDir(), "user_log.txt")
	require.NoError(t, Init("info", path))

	Debug("hidden", "user_id", 1)
	Info("Added expense", "user_id", 42)
	Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Added expense")
	assert.Contains(t, string(data), "42")
	assert.NotContains(t, string(data), "hidden")
}
