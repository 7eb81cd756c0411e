// File: cmd/capture.go
package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/domsvg/internal/capture"
	"github.com/xkilldash9x/domsvg/internal/config"
	"github.com/xkilldash9x/domsvg/internal/observability"
)

// shutdownTimeout bounds how long the browser gets to exit cleanly.
const shutdownTimeout = 10 * time.Second

// capturerFactory starts a page capturer. Tests swap in a fake.
type capturerFactory func(ctx context.Context, logger *zap.Logger, cfg config.BrowserConfig) (capture.Capturer, error)

func newBrowserCapturer(ctx context.Context, logger *zap.Logger, cfg config.BrowserConfig) (capture.Capturer, error) {
	return capture.NewManager(ctx, logger, cfg)
}

type captureOptions struct {
	outputOptions
	Selector string
	Snapshot string
}

func newCaptureCmd(factory capturerFactory) *cobra.Command {
	var opts captureOptions

	captureCmd := &cobra.Command{
		Use:   "capture <url>",
		Short: "Load a page in headless Chrome and render it as SVG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("inline") {
				cfg.Inline.Enabled = opts.Inline
			}
			return runCapture(ctx, observability.GetLogger(), cfg, factory, args[0], opts, cmd.OutOrStdout())
		},
	}

	captureCmd.Flags().StringVarP(&opts.Output, "output", "o", "", "SVG output path (default stdout)")
	captureCmd.Flags().BoolVar(&opts.Inline, "inline", false, "embed images and fonts as data URIs (overrides inline.enabled)")
	captureCmd.Flags().StringVar(&opts.PNG, "png", "", "also write a PNG preview to this path")
	captureCmd.Flags().StringVar(&opts.Selector, "selector", "", "CSS selector of the element to capture (default the whole document)")
	captureCmd.Flags().StringVar(&opts.Snapshot, "snapshot", "", "also save the captured snapshot JSON to this path")
	return captureCmd
}

// runCapture holds the testable core of the capture command.
func runCapture(ctx context.Context, logger *zap.Logger, cfg *config.Config, factory capturerFactory, url string, opts captureOptions, stdout io.Writer) error {
	capturer, err := factory(ctx, logger, cfg.Browser)
	if err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := capturer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Browser did not shut down cleanly.", zap.Error(err))
		}
	}()

	doc, err := capturer.Capture(ctx, url, capture.Options{
		Selector:  opts.Selector,
		FontFaces: cfg.Inline.Enabled,
	})
	if err != nil {
		return err
	}

	if opts.Snapshot != "" {
		if err := writeFile(opts.Snapshot, doc.Encode); err != nil {
			return err
		}
		logger.Info("Snapshot written.", zap.String("path", opts.Snapshot))
	}

	out, err := renderSnapshot(ctx, logger, cfg, doc, cfg.Inline.Enabled)
	if err != nil {
		return err
	}
	return writeOutputs(logger, cfg, out, opts.outputOptions, stdout)
}
