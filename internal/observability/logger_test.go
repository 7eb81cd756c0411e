// internal/observability/logger_test.go
package observability

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xkilldash9x/domsvg/internal/config"
)

// initBuffered initializes the global logger on an in-memory writer.
func initBuffered(t *testing.T, cfg config.LoggerConfig) *bytes.Buffer {
	t.Helper()
	ResetForTest()
	t.Cleanup(ResetForTest)
	var buf bytes.Buffer
	Initialize(cfg, zapcore.AddSync(&buf))
	return &buf
}

func TestInitialize(t *testing.T) {
	t.Run("console format colorizes levels", func(t *testing.T) {
		buf := initBuffered(t, config.LoggerConfig{
			Level:       "debug",
			Format:      "console",
			ServiceName: "domsvg",
			Colors:      config.ColorConfig{Info: "green"},
		})
		GetLogger().Named("converter").Info("Conversion finished.")

		out := buf.String()
		assert.Contains(t, out, colorGreen+"INFO"+colorReset)
		assert.Contains(t, out, "domsvg.converter.")
		assert.Contains(t, out, "Conversion finished.")
	})

	t.Run("unknown color leaves the level plain", func(t *testing.T) {
		buf := initBuffered(t, config.LoggerConfig{
			Level:  "debug",
			Format: "console",
			Colors: config.ColorConfig{Warn: "chartreuse"},
		})
		GetLogger().Warn("Skipping background layer.")

		assert.Contains(t, buf.String(), "WARN")
		assert.NotContains(t, buf.String(), "\x1b[")
	})

	t.Run("json format", func(t *testing.T) {
		buf := initBuffered(t, config.LoggerConfig{
			Level:       "info",
			Format:      "json",
			ServiceName: "domsvg",
		})
		GetLogger().Warn("Fetch failed.", zap.String("url", "https://example.com/a.png"))

		var entry map[string]any
		require.NoError(t, jsoniter.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "WARN", entry["level"])
		assert.Equal(t, "domsvg", entry["logger"])
		assert.Equal(t, "Fetch failed.", entry["msg"])
		assert.Equal(t, "https://example.com/a.png", entry["url"])
	})

	t.Run("level filters entries", func(t *testing.T) {
		buf := initBuffered(t, config.LoggerConfig{Level: "warn", Format: "json"})
		GetLogger().Info("hidden")
		assert.Empty(t, buf.String())
	})

	t.Run("invalid level falls back to info", func(t *testing.T) {
		buf := initBuffered(t, config.LoggerConfig{Level: "loud", Format: "json"})
		GetLogger().Debug("hidden")
		GetLogger().Info("shown")
		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
	})

	t.Run("writes the log file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "domsvg.log")
		initBuffered(t, config.LoggerConfig{
			Level:   "debug",
			Format:  "console",
			LogFile: path,
			MaxSize: 1,
		})
		GetLogger().Error("This should go to the file.")
		Sync()

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(content), "This should go to the file.")
		assert.Contains(t, string(content), `"level":"ERROR"`)
	})

	t.Run("only the first call initializes", func(t *testing.T) {
		buf := initBuffered(t, config.LoggerConfig{Level: "info", Format: "json", ServiceName: "first"})
		first := GetLogger()
		Initialize(config.LoggerConfig{Level: "debug", ServiceName: "second"}, zapcore.AddSync(&bytes.Buffer{}))

		assert.Same(t, first, GetLogger())
		GetLogger().Info("test")
		assert.Contains(t, buf.String(), `"logger":"first"`)
	})
}

func TestGetLoggerFallback(t *testing.T) {
	ResetForTest()
	logger := GetLogger()
	require.NotNil(t, logger)
	assert.NotPanics(t, func() { logger.Info("fallback works") })
	assert.NotPanics(t, Sync)
}
