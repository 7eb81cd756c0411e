// internal/capture/capture_test.go
package capture

import (
	"runtime"
	"strings"
	"testing"

	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/domsvg/internal/config"
)

func TestFlags(t *testing.T) {
	t.Run("Headless", func(t *testing.T) {
		flags := Flags(config.BrowserConfig{Headless: true})
		assert.Equal(t, true, flags["headless"])
		assert.Equal(t, true, flags["disable-gpu"])
		assert.Equal(t, false, flags["enable-automation"])
		assert.NotContains(t, flags, "disk-cache-size")
		assert.NotContains(t, flags, "allow-insecure-localhost")
	})

	t.Run("HeadlessDisabled", func(t *testing.T) {
		flags := Flags(config.BrowserConfig{})
		assert.Equal(t, false, flags["headless"])
		assert.Equal(t, false, flags["disable-gpu"])
	})

	t.Run("CacheDisabled", func(t *testing.T) {
		flags := Flags(config.BrowserConfig{DisableCache: true})
		assert.Equal(t, "0", flags["disk-cache-size"])
		assert.Equal(t, "0", flags["media-cache-size"])
		assert.Equal(t, true, flags["disable-cache"])
	})

	t.Run("IgnoreTLSErrors", func(t *testing.T) {
		flags := Flags(config.BrowserConfig{IgnoreTLSErrors: true})
		assert.Equal(t, true, flags["ignore-certificate-errors"])
		assert.Equal(t, true, flags["allow-insecure-localhost"])
	})

	t.Run("CustomArgs", func(t *testing.T) {
		flags := Flags(config.BrowserConfig{
			Headless: true,
			Args:     []string{"--custom-arg1", "lang=de-DE", "--headless=new", "--"},
		})
		assert.Equal(t, true, flags["custom-arg1"])
		assert.Equal(t, "de-DE", flags["lang"])
		assert.Equal(t, "new", flags["headless"], "custom args override built in switches")
		assert.NotContains(t, flags, "")
	})

	t.Run("Container", func(t *testing.T) {
		if runtime.GOOS != "linux" {
			t.Skip("sandbox switches are only added on linux")
		}
		flags := Flags(config.BrowserConfig{})
		assert.Equal(t, true, flags["no-sandbox"])
		assert.Equal(t, true, flags["disable-dev-shm-usage"])
	})
}

func TestAllocatorOptions(t *testing.T) {
	cfg := config.BrowserConfig{Headless: true, Args: []string{"--custom"}}
	opts := AllocatorOptions(cfg)

	// Defaults, one option per flag and the window size.
	assert.Len(t, opts, len(chromedp.DefaultExecAllocatorOptions)+len(Flags(cfg))+1)
}

func TestBuildScript(t *testing.T) {
	tests := []struct {
		name     string
		template string
		options  string
		want     string
		wantErr  string
	}{
		{
			name:     "Injects",
			template: "const o = " + OptionsPlaceholder + ";",
			options:  `{"selector":"#main"}`,
			want:     `const o = {"selector":"#main"};`,
		},
		{
			name:     "EmptyOptions",
			template: "const o = " + OptionsPlaceholder + ";",
			options:  "  ",
			want:     "const o = {};",
		},
		{
			name:     "EmptyTemplate",
			template: "",
			wantErr:  "template is empty",
		},
		{
			name:     "MissingPlaceholder",
			template: "const o = {};",
			options:  "{}",
			wantErr:  "required placeholder",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildScript(tt.template, tt.options)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScript(t *testing.T) {
	template, err := Template()
	require.NoError(t, err)
	require.Contains(t, template, OptionsPlaceholder)

	script, err := Script(Options{Selector: "main article", FontFaces: true})
	require.NoError(t, err)
	assert.NotContains(t, script, OptionsPlaceholder)
	assert.Contains(t, script, `const options = {"selector":"main article","fontFaces":true};`)
}

func TestDecodeResult(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		_, err := decodeResult(" ")
		assert.ErrorIs(t, err, ErrEmptyResult)
	})

	t.Run("Document", func(t *testing.T) {
		raw := `{"url":"https://example.com/","viewport":{"width":800,"height":600},` +
			`"scroll":{"x":0,"y":12},"root":{"id":1,"type":"element","tag":"HTML","ns":"html"}}`
		doc, err := decodeResult(raw)
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/", doc.URL)
		assert.Equal(t, 12.0, doc.Scroll.Y)
		assert.Equal(t, "HTML", doc.Root.Tag)
	})

	t.Run("Malformed", func(t *testing.T) {
		_, err := decodeResult(strings.Repeat("{", 3))
		assert.Error(t, err)
	})
}
