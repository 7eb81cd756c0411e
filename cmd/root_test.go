// File: cmd/root_test.go
package cmd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/domsvg/internal/config"
)

func TestRootCmd_VersionFlag(t *testing.T) {
	out, err := executeCommand(t, "", "--version")
	require.NoError(t, err)
	assert.Equal(t, "domsvg version dev\n", out)
}

func TestVersionCmd(t *testing.T) {
	out, err := executeCommand(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "domsvg version dev\n", out)
}

func TestConfigShow(t *testing.T) {
	t.Run("FileValues", func(t *testing.T) {
		path := writeConfig(t, `
render:
  keep_links: false
  capture_area: {x: 0, y: 10, width: 300, height: 200}
inline:
  concurrency: 3
`)
		out, err := executeCommand(t, "", "-c", path, "config", "show")
		require.NoError(t, err)
		assert.Contains(t, out, "keep_links: false")
		assert.Contains(t, out, "concurrency: 3")
		assert.Contains(t, out, "width: 300")
		assert.Contains(t, out, "navigation_timeout: 1m0s")
	})

	t.Run("EnvOverride", func(t *testing.T) {
		t.Setenv("DOMSVG_OUTPUT_INDENT", "4")
		out, err := executeCommand(t, "", "-c", writeConfig(t, "{}"), "config", "show")
		require.NoError(t, err)
		assert.Contains(t, out, "indent: 4")
	})

	t.Run("InvalidConfig", func(t *testing.T) {
		path := writeConfig(t, "inline:\n  concurrency: 0\n")
		_, err := executeCommand(t, "", "-c", path, "config", "show")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "inline configuration invalid")
	})
}

func TestGetConfigFromContext(t *testing.T) {
	_, err := getConfigFromContext(context.Background())
	assert.Error(t, err)

	cfg := config.NewDefaultConfig()
	got, err := getConfigFromContext(context.WithValue(context.Background(), configKey, cfg))
	require.NoError(t, err)
	assert.Same(t, cfg, got)
}
