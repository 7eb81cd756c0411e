// File: internal/config/config_test.go
package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/domsvg/internal/geom"
)

// -- Constructor and Defaults Tests --

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "domsvg", cfg.Logger.ServiceName)
	assert.Equal(t, "green", cfg.Logger.Colors.Info)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 60*time.Second, cfg.Browser.NavigationTimeout)
	assert.Equal(t, time.Second, cfg.Browser.PostLoadWait)
	assert.Equal(t, 1280, cfg.Browser.ViewportWidth())
	assert.Equal(t, 800, cfg.Browser.ViewportHeight())
	assert.True(t, cfg.Render.KeepLinks)
	assert.Nil(t, cfg.Render.CaptureArea)
	assert.False(t, cfg.Inline.Enabled)
	assert.Equal(t, 8, cfg.Inline.Concurrency)
	assert.Equal(t, int64(10<<20), cfg.Inline.MaxBytes)
	assert.Equal(t, 2, cfg.Output.Indent)

	assert.NoError(t, cfg.Validate(), "defaults must be valid")
}

func TestViewportFallback(t *testing.T) {
	b := BrowserConfig{Viewport: map[string]int{"width": 1920}}
	assert.Equal(t, 1920, b.ViewportWidth())
	assert.Equal(t, 800, b.ViewportHeight())
}

// -- Validation Logic Tests --

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "navigation timeout",
			mutate:  func(c *Config) { c.Browser.NavigationTimeout = 0 },
			wantErr: "browser.navigation_timeout must be a positive duration",
		},
		{
			name:    "negative post load wait",
			mutate:  func(c *Config) { c.Browser.PostLoadWait = -time.Second },
			wantErr: "browser.post_load_wait must not be negative",
		},
		{
			name:    "empty capture area",
			mutate:  func(c *Config) { c.Render.CaptureArea = &geom.Rect{Width: 10} },
			wantErr: "render.capture_area must have a positive width and height",
		},
		{
			name:    "inline concurrency",
			mutate:  func(c *Config) { c.Inline.Concurrency = 0 },
			wantErr: "inline configuration invalid: concurrency must be a positive integer",
		},
		{
			name:    "inline timeout",
			mutate:  func(c *Config) { c.Inline.Timeout = -time.Second },
			wantErr: "inline configuration invalid: timeout must be a positive duration",
		},
		{
			name:    "inline rate",
			mutate:  func(c *Config) { c.Inline.RequestsPerSecond = 0 },
			wantErr: "requests_per_second must be positive",
		},
		{
			name:    "inline size cap",
			mutate:  func(c *Config) { c.Inline.MaxBytes = 0 },
			wantErr: "max_bytes must be positive",
		},
		{
			name:    "negative indent",
			mutate:  func(c *Config) { c.Output.Indent = -1 },
			wantErr: "output.indent must not be negative",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("valid capture area", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Render.CaptureArea = &geom.Rect{X: 0, Y: 0, Width: 100, Height: 50}
		assert.NoError(t, cfg.Validate())
	})
}

// -- Factory Function Tests --

func TestNewConfigFromViper(t *testing.T) {
	t.Run("Successful Load from YAML", func(t *testing.T) {
		yamlBytes := []byte(`
browser:
  headless: false
  navigation_timeout: 10s
  viewport:
    width: 1024
    height: 768
render:
  keep_links: false
  capture_area:
    x: 0
    y: 100
    width: 640
    height: 480
inline:
  enabled: true
  concurrency: 2
`)
		v := viper.New()
		SetDefaults(v)
		v.SetConfigType("yaml")
		require.NoError(t, v.ReadConfig(bytes.NewBuffer(yamlBytes)))

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)

		assert.False(t, cfg.Browser.Headless)
		assert.Equal(t, 10*time.Second, cfg.Browser.NavigationTimeout)
		assert.Equal(t, 1024, cfg.Browser.ViewportWidth())
		assert.False(t, cfg.Render.KeepLinks)
		require.NotNil(t, cfg.Render.CaptureArea)
		assert.Equal(t, geom.Rect{Y: 100, Width: 640, Height: 480}, *cfg.Render.CaptureArea)
		assert.True(t, cfg.Inline.Enabled)
		assert.Equal(t, 2, cfg.Inline.Concurrency)
		// Defaults survive for keys the file does not set.
		assert.Equal(t, "info", cfg.Logger.Level)
		assert.Equal(t, 10*time.Second, cfg.Inline.Timeout)
	})

	t.Run("Validation Failure", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("inline.concurrency", 0)

		cfg, err := NewConfigFromViper(v)
		assert.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "invalid configuration")
		assert.Contains(t, err.Error(), "concurrency must be a positive integer")
	})
}
