// File: cmd/output.go
package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/beevik/etree"
	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"

	"github.com/xkilldash9x/domsvg/internal/config"
	"github.com/xkilldash9x/domsvg/internal/geom"
	"github.com/xkilldash9x/domsvg/internal/inline"
	"github.com/xkilldash9x/domsvg/internal/raster"
	"github.com/xkilldash9x/domsvg/internal/render"
	"github.com/xkilldash9x/domsvg/internal/snapshot"
)

// outputOptions are the flags shared by capture and convert.
type outputOptions struct {
	Output string
	Inline bool
	PNG    string
}

// renderSnapshot converts a snapshot to SVG and, when asked, embeds its
// external resources.
func renderSnapshot(ctx context.Context, logger *zap.Logger, cfg *config.Config, doc *snapshot.Document, inlineResources bool) (*etree.Document, error) {
	src, err := snapshot.NewSource(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	opts := render.DefaultOptions()
	opts.KeepLinks = cfg.Render.KeepLinks
	opts.CaptureArea = cfg.Render.CaptureArea
	opts.ScrollOffset = geom.Point{X: doc.Scroll.X, Y: doc.Scroll.Y}

	out, err := render.NewConverter(src, opts, logger).DocumentToSVG(src.Doc)
	if err != nil {
		return nil, fmt.Errorf("failed to convert snapshot: %w", err)
	}
	if !inlineResources {
		return out, nil
	}

	var inlinerOpts []inline.Option
	if base := src.BaseURL(); base != nil {
		inlinerOpts = append(inlinerOpts, inline.WithBaseURL(base))
	}
	in := inline.New(cfg.Inline, logger, inlinerOpts...)
	defer in.Close()

	images := in.InlineResources(ctx, out.Root())
	fonts := in.InlineFontFaces(ctx, out.Root(), doc.FontFaces)
	logger.Info("Resources inlined.",
		zap.Int("images", images.Inlined),
		zap.Int("fonts", fonts.Inlined),
		zap.Int("failed", images.Failed+fonts.Failed))
	return out, nil
}

// writeOutputs writes the SVG to opts.Output (stdout when empty or "-")
// and the PNG preview when requested.
func writeOutputs(logger *zap.Logger, cfg *config.Config, doc *etree.Document, opts outputOptions, stdout io.Writer) error {
	if cfg.Output.Indent > 0 {
		doc.Indent(cfg.Output.Indent)
	}
	data, err := doc.WriteToBytes()
	if err != nil {
		return fmt.Errorf("failed to serialize svg: %w", err)
	}

	if opts.Output == "" || opts.Output == "-" {
		if _, err := stdout.Write(data); err != nil {
			return fmt.Errorf("failed to write svg: %w", err)
		}
	} else {
		if err := writeFile(opts.Output, func(w io.Writer) error {
			_, err := w.Write(data)
			return err
		}); err != nil {
			return err
		}
		logger.Info("SVG written.", zap.String("path", opts.Output), zap.Int("bytes", len(data)))
	}

	if opts.PNG != "" {
		if err := writeFile(opts.PNG, func(w io.Writer) error {
			return raster.WritePNG(w, data, cfg.Output.PreviewWidth)
		}); err != nil {
			return err
		}
		logger.Info("PNG preview written.", zap.String("path", opts.PNG))
	}
	return nil
}

// writeFile creates path, expanding a leading ~, and fills it with write.
func writeFile(path string, write func(io.Writer) error) error {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return fmt.Errorf("invalid output path %q: %w", path, err)
	}
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		return fmt.Errorf("failed to render %s: %w", path, err)
	}
	if err := os.WriteFile(expanded, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
