// File: cmd/cmd_test.go
package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// executeCommand runs a fresh command tree with args and returns what it
// wrote to stdout.
func executeCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cfgFile = ""
	t.Setenv("DOMSVG_LOGGER_LEVEL", "error")

	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// writeConfig writes a config file into a temp dir and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// pageSnapshot returns the test page with its URL rooted at base.
func pageSnapshot(t *testing.T, base string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "page.json"))
	require.NoError(t, err)
	return strings.ReplaceAll(string(data), "{{BASE}}", base)
}

// writeSnapshot stores the test page in a temp file.
func writeSnapshot(t *testing.T, base string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "page.json")
	require.NoError(t, os.WriteFile(path, []byte(pageSnapshot(t, base)), 0o644))
	return path
}
