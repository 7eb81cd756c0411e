// internal/raster/raster.go
package raster

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"github.com/disintegration/imaging"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// maxDim bounds either side of the intrinsic raster.
const maxDim = 8192

// ErrNoViewBox is returned for documents without a usable size.
var ErrNoViewBox = errors.New("svg has no usable viewBox")

// Rasterize draws the SVG onto a white canvas at its viewBox size, then
// scales the result to width pixels keeping the aspect ratio. A width of
// zero keeps the intrinsic size. Features the rasterizer does not support
// (text, masks, patterns) are skipped, so this is a preview, not a faithful
// rendering.
func Rasterize(svg []byte, width int) (image.Image, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(svg), oksvg.IgnoreErrorMode)
	if err != nil {
		return nil, fmt.Errorf("failed to parse svg: %w", err)
	}

	w := int(math.Ceil(icon.ViewBox.W))
	h := int(math.Ceil(icon.ViewBox.H))
	if w <= 0 || h <= 0 {
		return nil, ErrNoViewBox
	}
	if w > maxDim || h > maxDim {
		s := math.Min(float64(maxDim)/float64(w), float64(maxDim)/float64(h))
		w = max(int(math.Round(float64(w)*s)), 1)
		h = max(int(math.Round(float64(h)*s)), 1)
	}

	icon.SetTarget(0, 0, float64(w), float64(h))
	dst := imaging.New(w, h, color.White)
	scanner := rasterx.NewScannerGV(w, h, dst, dst.Bounds())
	dasher := rasterx.NewDasher(w, h, scanner)
	icon.Draw(dasher, 1.0)

	if width > 0 && width != w {
		return imaging.Resize(dst, width, 0, imaging.Lanczos), nil
	}
	return dst, nil
}

// WritePNG rasterizes svg and writes it to out as PNG.
func WritePNG(out io.Writer, svg []byte, width int) error {
	img, err := Rasterize(svg, width)
	if err != nil {
		return err
	}
	if err := imaging.Encode(out, img, imaging.PNG, imaging.PNGCompressionLevel(png.BestCompression)); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}
