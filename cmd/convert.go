// File: cmd/convert.go
package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/domsvg/internal/config"
	"github.com/xkilldash9x/domsvg/internal/observability"
	"github.com/xkilldash9x/domsvg/internal/snapshot"
)

func newConvertCmd() *cobra.Command {
	var opts outputOptions

	convertCmd := &cobra.Command{
		Use:   "convert <snapshot.json>",
		Short: "Convert a captured DOM snapshot to SVG",
		Long: `Reads a snapshot written by "domsvg capture --snapshot" (or "-" for stdin)
and renders it as SVG without a browser.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("inline") {
				cfg.Inline.Enabled = opts.Inline
			}
			return runConvert(ctx, observability.GetLogger(), cfg, args[0], opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	convertCmd.Flags().StringVarP(&opts.Output, "output", "o", "", "SVG output path (default stdout)")
	convertCmd.Flags().BoolVar(&opts.Inline, "inline", false, "embed images and fonts as data URIs (overrides inline.enabled)")
	convertCmd.Flags().StringVar(&opts.PNG, "png", "", "also write a PNG preview to this path")
	return convertCmd
}

// runConvert holds the testable core of the convert command.
func runConvert(ctx context.Context, logger *zap.Logger, cfg *config.Config, path string, opts outputOptions, stdin io.Reader, stdout io.Writer) error {
	var (
		doc *snapshot.Document
		err error
	)
	if path == "-" {
		doc, err = snapshot.Decode(stdin)
	} else {
		var expanded string
		if expanded, err = homedir.Expand(path); err == nil {
			doc, err = snapshot.Load(expanded)
		}
	}
	if err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}
	logger.Info("Converting snapshot.", zap.String("path", path), zap.String("url", doc.URL))

	out, err := renderSnapshot(ctx, logger, cfg, doc, cfg.Inline.Enabled)
	if err != nil {
		return err
	}
	return writeOutputs(logger, cfg, out, opts, stdout)
}
