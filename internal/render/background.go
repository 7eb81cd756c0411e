// internal/render/background.go
package render

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"github.com/xkilldash9x/domsvg/internal/cssvalue"
	"github.com/xkilldash9x/domsvg/internal/dom"
	"github.com/xkilldash9x/domsvg/internal/geom"
)

// bevelShade scales the channels of the shaded sides of inset and outset
// borders.
const bevelShade = 0.3

// paintBackgroundAndBorders draws the background color, background image
// layers and borders of a box into container.
func (r *run) paintBackgroundAndBorders(style dom.Style, bounds geom.Rect, container *etree.Element) {
	if !style.IsVisible() {
		return
	}
	uniform := style.HasUniformBorder()
	backgroundImage := style.Get("background-image")

	if bounds.Width > 0 && bounds.Height > 0 &&
		(!cssvalue.IsTransparent(style.Get("background-color")) || uniform || backgroundImage != "none") {
		box := backgroundBox(style, bounds, uniform)
		container.AddChild(box)
		if backgroundImage != "none" {
			r.paintBackgroundLayers(style, bounds, container, box)
		}
	}

	if !uniform {
		for _, side := range []string{"top", "bottom", "right", "left"} {
			if line := r.borderLine(style, bounds, side); line != nil {
				container.AddChild(line)
			}
		}
	}
}

func backgroundBox(style dom.Style, bounds geom.Rect, uniform bool) *etree.Element {
	box := rect(bounds)
	if color := style.Get("background-color"); color != "" {
		box.CreateAttr("fill", color)
	}
	if uniform {
		// All sides match, so the top side stands for the whole border.
		box.CreateAttr("stroke", style.Get("border-top-color"))
		box.CreateAttr("stroke-width", style.Get("border-top-width"))
		if style.Get("border-top-style") == "dashed" {
			box.CreateAttr("stroke-dasharray", "1")
		}
	}

	// Corners are drawn uniformly from the top-left radii.
	factor := style.OverlappingCurvesFactor(bounds)
	if rx := style.BorderRadiiForSide("top", bounds)[0] * factor; rx != 0 {
		box.CreateAttr("rx", num(rx))
	}
	if ry := style.BorderRadiiForSide("left", bounds)[0] * factor; ry != 0 {
		box.CreateAttr("ry", num(ry))
	}
	return box
}

// paintBackgroundLayers paints each background-image layer, last declared
// first. A layer that cannot be parsed is skipped.
func (r *run) paintBackgroundLayers(style dom.Style, bounds geom.Rect, container, box *etree.Element) {
	fns := cssvalue.Functions(style.Get("background-image"))
	positionsX := cssvalue.SplitList(style.Get("background-position-x"))
	positionsY := cssvalue.SplitList(style.Get("background-position-y"))
	repeats := cssvalue.SplitList(style.Get("background-repeat"))
	sizes := cssvalue.SplitList(style.Get("background-size"))

	// Painted last declared first; the per-layer lists stay in declaration
	// order.
	for i := len(fns) - 1; i >= 0; i-- {
		fn := fns[i]
		layer := backgroundLayer{
			posX:   cssvalue.LengthOr(item(positionsX, i), bounds.Width, 0),
			posY:   cssvalue.LengthOr(item(positionsY, i), bounds.Height, 0),
			repeat: item(repeats, i),
			size:   item(sizes, i),
		}

		var err error
		switch {
		case fn.Name == "url":
			err = r.paintURLLayer(fn, layer, bounds, container, box)
		case cssvalue.IsLinearGradient(fn.Name):
			err = r.paintGradientLayer(fn, layer, container, box)
		default:
			r.logger.Debug("Skipping unsupported background layer.", zap.String("function", fn.Name))
		}
		if err != nil {
			r.logger.Warn("Skipping background layer.", zap.String("layer", fn.Raw), zap.Error(err))
		}
	}
}

type backgroundLayer struct {
	posX, posY float64
	repeat     string
	size       string
}

// item returns list[i], or "" when the list is shorter.
func item(list []string, i int) string {
	if i < len(list) {
		return list[i]
	}
	return ""
}

func (r *run) paintURLLayer(fn cssvalue.Function, layer backgroundLayer, bounds geom.Rect, container, box *etree.Element) error {
	raw, ok := fn.URL()
	if !ok {
		return &cssvalue.ParseError{Kind: "url", Value: fn.Raw, Reason: "missing argument"}
	}

	size := layer.size
	cssWidth, cssHeight := "auto", "auto"
	if parts := strings.Fields(size); len(parts) > 0 {
		cssWidth = parts[0]
		if len(parts) > 1 {
			cssHeight = parts[1]
		}
	}
	width := cssvalue.LengthOr(cssWidth, bounds.Width, bounds.Width)
	height := cssvalue.LengthOr(cssHeight, bounds.Height, bounds.Height)

	img := etree.NewElement("image")
	img.CreateAttr("id", r.ids.UniqueID("background-image"))
	img.CreateAttr("width", num(width))
	img.CreateAttr("height", num(height))
	switch {
	case cssWidth != "auto" && cssHeight != "auto":
		img.CreateAttr("preserveAspectRatio", "none")
	case size == "contain":
		img.CreateAttr("preserveAspectRatio", "xMidYMid meet")
	case size == "cover":
		img.CreateAttr("preserveAspectRatio", "xMidYMid slice")
	}
	// Relative URLs resolve against the document, not the stylesheet they
	// were declared in.
	img.CreateAttr("xlink:href", r.resolve(raw))

	if layer.repeat == "no-repeat" ||
		(layer.posX == 0 && layer.posY == 0 && width == bounds.Width && height == bounds.Height) {
		img.CreateAttr("x", num(bounds.X))
		img.CreateAttr("y", num(bounds.Y))
		container.AddChild(img)
		return nil
	}

	img.CreateAttr("x", "0")
	img.CreateAttr("y", "0")
	pattern := etree.NewElement("pattern")
	pattern.CreateAttr("patternUnits", "userSpaceOnUse")
	pattern.CreateAttr("patternContentUnits", "userSpaceOnUse")
	pattern.CreateAttr("x", num(bounds.X+layer.posX))
	pattern.CreateAttr("y", num(bounds.Y+layer.posY))
	// A tile as large as the box keeps an axis from repeating.
	tileWidth := width + bounds.X + layer.posX
	if layer.repeat == "repeat" || layer.repeat == "repeat-x" {
		tileWidth = width
	}
	tileHeight := height + bounds.Y + layer.posY
	if layer.repeat == "repeat" || layer.repeat == "repeat-y" {
		tileHeight = height
	}
	pattern.CreateAttr("width", num(tileWidth))
	pattern.CreateAttr("height", num(tileHeight))
	patternID := r.ids.UniqueID("pattern")
	pattern.CreateAttr("id", patternID)
	pattern.AddChild(img)
	insertBefore(container, box, pattern)
	box.CreateAttr("fill", "url(#"+patternID+")")
	return nil
}

func (r *run) paintGradientLayer(fn cssvalue.Function, layer backgroundLayer, container, box *etree.Element) error {
	g, err := cssvalue.ParseLinearGradient(fn.Raw)
	if err != nil {
		return err
	}
	gradient := linearGradient(g)
	if layer.posX != 0 || layer.posY != 0 {
		gradient.CreateAttr("gradientTransform", fmt.Sprintf("translate(%s, %s)", num(layer.posX), num(layer.posY)))
	}
	gradientID := r.ids.UniqueID("linear-gradient")
	gradient.CreateAttr("id", gradientID)
	insertBefore(container, box, gradient)
	box.CreateAttr("fill", "url(#"+gradientID+")")
	return nil
}

func insertBefore(parent, ref *etree.Element, el *etree.Element) {
	parent.InsertChildAt(ref.Index(), el)
}

// borderLine draws one side of a non-uniform border, or returns nil when the
// side has no visible border.
func (r *run) borderLine(style dom.Style, bounds geom.Rect, side string) *etree.Element {
	color := style.Get("border-" + side + "-color")
	width := style.Get("border-" + side + "-width")
	if color == "" || cssvalue.IsTransparent(color) || width == "0px" {
		return nil
	}

	line := etree.NewElement("line")
	line.CreateAttr("stroke-linecap", "square")
	line.CreateAttr("stroke", color)
	line.CreateAttr("stroke-width", width)

	borderStyle := style.Get("border-" + side + "-style")
	if (borderStyle == "inset" && (side == "top" || side == "left")) ||
		(borderStyle == "outset" && (side == "right" || side == "bottom")) {
		if shaded, err := shade(color); err == nil {
			line.CreateAttr("stroke", shaded)
		} else {
			r.logger.Warn("Unexpected border color.", zap.String("side", side), zap.Error(err))
		}
	}

	x1, y1, x2, y2 := bounds.Left(), bounds.Top(), bounds.Right(), bounds.Top()
	switch side {
	case "left":
		x2, y2 = bounds.Left(), bounds.Bottom()
	case "right":
		x1, x2, y2 = bounds.Right(), bounds.Right(), bounds.Bottom()
	case "bottom":
		y1, y2 = bounds.Bottom(), bounds.Bottom()
	}
	line.CreateAttr("x1", num(x1))
	line.CreateAttr("x2", num(x2))
	line.CreateAttr("y1", num(y1))
	line.CreateAttr("y2", num(y2))
	return line
}

// shade darkens the low-light sides of a beveled border.
func shade(color string) (string, error) {
	c, err := cssvalue.ParseColor(color)
	if err != nil {
		return "", err
	}
	parts := []string{
		num(float64(c.R) * bevelShade),
		num(float64(c.G) * bevelShade),
		num(float64(c.B) * bevelShade),
	}
	if c.A < 1 {
		parts = append(parts, num(c.A))
	}
	return "rgba(" + strings.Join(parts, ", ") + ")", nil
}
