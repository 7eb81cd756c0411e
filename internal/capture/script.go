// internal/capture/script.go
package capture

import (
	_ "embed"
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

// OptionsPlaceholder is replaced in the script template with the JSON
// encoded Options.
const OptionsPlaceholder = "/*{{DOMSVG_CAPTURE_OPTIONS}}*/"

//go:embed capture.js
var scriptTemplate string

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Options selects what the capture script records.
type Options struct {
	// Selector picks the element to capture. Empty captures the document
	// element.
	Selector string `json:"selector,omitempty"`
	// FontFaces collects @font-face rules from same-origin stylesheets.
	FontFaces bool `json:"fontFaces"`
}

// Template returns the embedded capture script template.
func Template() (string, error) {
	if scriptTemplate == "" {
		return "", fmt.Errorf("embedded capture.js template is empty or failed to load")
	}
	return scriptTemplate, nil
}

// BuildScript injects the options JSON into the template.
func BuildScript(template, optionsJSON string) (string, error) {
	if template == "" {
		return "", fmt.Errorf("template is empty")
	}
	if !strings.Contains(template, OptionsPlaceholder) {
		return "", fmt.Errorf("template does not contain the required placeholder: %s", OptionsPlaceholder)
	}
	if strings.TrimSpace(optionsJSON) == "" {
		optionsJSON = "{}"
	}
	return strings.Replace(template, OptionsPlaceholder, optionsJSON, 1), nil
}

// Script renders the embedded template for opts.
func Script(opts Options) (string, error) {
	template, err := Template()
	if err != nil {
		return "", err
	}
	optionsJSON, err := json.Marshal(opts)
	if err != nil {
		return "", fmt.Errorf("failed to encode capture options: %w", err)
	}
	return BuildScript(template, string(optionsJSON))
}
