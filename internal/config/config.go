// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/xkilldash9x/domsvg/internal/geom"
)

// Config holds the entire application configuration.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	Render  RenderConfig  `mapstructure:"render" yaml:"render"`
	Inline  InlineConfig  `mapstructure:"inline" yaml:"inline"`
	Output  OutputConfig  `mapstructure:"output" yaml:"output"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color names for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig holds settings for the headless browser used to capture
// pages.
type BrowserConfig struct {
	Headless          bool           `mapstructure:"headless" yaml:"headless"`
	DisableCache      bool           `mapstructure:"disable_cache" yaml:"disable_cache"`
	IgnoreTLSErrors   bool           `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	Args              []string       `mapstructure:"args" yaml:"args"`
	Viewport          map[string]int `mapstructure:"viewport" yaml:"viewport"`
	NavigationTimeout time.Duration  `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	PostLoadWait      time.Duration  `mapstructure:"post_load_wait" yaml:"post_load_wait"`
}

// RenderConfig configures the DOM to SVG conversion.
type RenderConfig struct {
	KeepLinks bool `mapstructure:"keep_links" yaml:"keep_links"`
	// CaptureArea limits painting to a region of the page. Nil paints
	// everything.
	CaptureArea *geom.Rect `mapstructure:"capture_area" yaml:"capture_area,omitempty"`
}

// InlineConfig configures embedding of external resources as data URIs.
type InlineConfig struct {
	Enabled           bool          `mapstructure:"enabled" yaml:"enabled"`
	Timeout           time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Concurrency       int           `mapstructure:"concurrency" yaml:"concurrency"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	MaxBytes          int64         `mapstructure:"max_bytes" yaml:"max_bytes"`
	UserAgent         string        `mapstructure:"user_agent" yaml:"user_agent"`
}

// OutputConfig controls how results are written.
type OutputConfig struct {
	Indent       int `mapstructure:"indent" yaml:"indent"`
	PreviewWidth int `mapstructure:"preview_width" yaml:"preview_width"`
}

// ViewportWidth and ViewportHeight return the configured viewport, falling
// back to 1280x800.
func (b BrowserConfig) ViewportWidth() int {
	if w := b.Viewport["width"]; w > 0 {
		return w
	}
	return 1280
}

func (b BrowserConfig) ViewportHeight() int {
	if h := b.Viewport["height"]; h > 0 {
		return h
	}
	return 800
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "domsvg")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "red")

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.disable_cache", false)
	v.SetDefault("browser.ignore_tls_errors", false)
	v.SetDefault("browser.viewport", map[string]int{"width": 1280, "height": 800})
	v.SetDefault("browser.navigation_timeout", "60s")
	v.SetDefault("browser.post_load_wait", "1s")

	// -- Render --
	v.SetDefault("render.keep_links", true)

	// -- Inline --
	v.SetDefault("inline.enabled", false)
	v.SetDefault("inline.timeout", "10s")
	v.SetDefault("inline.concurrency", 8)
	v.SetDefault("inline.requests_per_second", 20.0)
	v.SetDefault("inline.max_bytes", 10<<20)
	v.SetDefault("inline.user_agent", "domsvg")

	// -- Output --
	v.SetDefault("output.indent", 2)
	v.SetDefault("output.preview_width", 0)
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.Browser.NavigationTimeout <= 0 {
		return fmt.Errorf("browser.navigation_timeout must be a positive duration")
	}
	if c.Browser.PostLoadWait < 0 {
		return fmt.Errorf("browser.post_load_wait must not be negative")
	}
	if area := c.Render.CaptureArea; area != nil && (area.Width <= 0 || area.Height <= 0) {
		return fmt.Errorf("render.capture_area must have a positive width and height")
	}
	if err := c.Inline.Validate(); err != nil {
		return fmt.Errorf("inline configuration invalid: %w", err)
	}
	if c.Output.Indent < 0 {
		return fmt.Errorf("output.indent must not be negative")
	}
	if c.Output.PreviewWidth < 0 {
		return fmt.Errorf("output.preview_width must not be negative")
	}
	return nil
}

// Validate checks the inliner settings. They are checked even when inlining
// is disabled, since the flag can be flipped on the command line.
func (i *InlineConfig) Validate() error {
	if i.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be a positive integer")
	}
	if i.Timeout <= 0 {
		return fmt.Errorf("timeout must be a positive duration")
	}
	if i.RequestsPerSecond <= 0 {
		return fmt.Errorf("requests_per_second must be positive")
	}
	if i.MaxBytes <= 0 {
		return fmt.Errorf("max_bytes must be positive")
	}
	return nil
}
