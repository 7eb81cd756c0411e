// internal/dom/style.go
package dom

import (
	"math"
	"strings"

	"github.com/xkilldash9x/domsvg/internal/cssvalue"
	"github.com/xkilldash9x/domsvg/internal/geom"
)

// Style is a snapshot of an element's computed style, keyed by CSS property
// name (e.g. "border-top-color").
type Style map[string]string

// initialValues fills in properties a capture did not record, so partial
// styles (hand-built ones in particular) read like a default element.
var initialValues = map[string]string{
	"position":                   "static",
	"float":                      "none",
	"z-index":                    "auto",
	"display":                    "inline",
	"visibility":                 "visible",
	"opacity":                    "1",
	"overflow":                   "visible",
	"mix-blend-mode":             "normal",
	"transform":                  "none",
	"filter":                     "none",
	"perspective":                "none",
	"clip-path":                  "none",
	"mask":                       "none",
	"mask-image":                 "none",
	"mask-border":                "none",
	"isolation":                  "auto",
	"contain":                    "none",
	"will-change":                "auto",
	"-webkit-overflow-scrolling": "auto",
	"background-color":           "rgba(0, 0, 0, 0)",
	"background-image":           "none",
	"background-repeat":          "repeat",
	"background-size":            "auto",
	"background-position-x":      "0%",
	"background-position-y":      "0%",
	"white-space":                "normal",
	"border-top-style":           "none",
	"border-right-style":         "none",
	"border-bottom-style":        "none",
	"border-left-style":          "none",
	"border-top-width":           "0px",
	"border-right-width":         "0px",
	"border-bottom-width":        "0px",
	"border-left-width":          "0px",
	"content":                    "normal",
}

// Get returns the computed value of prop. Properties missing from the
// snapshot read as their CSS initial value, or "" if none is known.
func (s Style) Get(prop string) string {
	if v, ok := s[prop]; ok {
		return v
	}
	return initialValues[prop]
}

// IsVisible reports whether the element paints at all.
func (s Style) IsVisible() bool {
	return s.Get("display-outside") != "none" &&
		s.Get("display") != "none" &&
		s.Get("visibility") != "hidden" &&
		s.Get("opacity") != "0"
}

// IsInline reports an inline-level outer display type.
func (s Style) IsInline() bool {
	return s.Get("display-outside") == "inline" || strings.HasPrefix(s.Get("display"), "inline-")
}

// IsPositioned reports any position other than static.
func (s Style) IsPositioned() bool {
	return s.Get("position") != "static"
}

// IsInFlow mirrors the flow classification used for layer placement. A box
// only counts as in flow here when it is floated and neither absolutely nor
// fixed positioned, so plain static blocks fall through to "no layer".
func (s Style) IsInFlow() bool {
	pos := s.Get("position")
	return s.Get("float") != "none" && pos != "absolute" && pos != "fixed"
}

// ZIndex returns the numeric z-index. ok is false for "auto" and for values
// that do not parse.
func (s Style) ZIndex() (z int, ok bool) {
	return ParseZIndex(s.Get("z-index"))
}

// ParseZIndex parses a z-index value as stored in computed styles or in a
// data-z-index attribute.
func ParseZIndex(v string) (int, bool) {
	v = strings.TrimSpace(v)
	if v == "" || v == "auto" {
		return 0, false
	}
	f, ok := cssvalue.Number(v)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

var borderSides = [...]string{"top", "bottom", "right", "left"}

// HasUniformBorder reports a visible border whose width, color and style are
// the same on all four sides, so it can be drawn as the stroke of one rect.
func (s Style) HasUniformBorder() bool {
	width, _ := cssvalue.Number(s.Get("border-top-width"))
	style := s.Get("border-top-style")
	color := s.Get("border-top-color")
	if width == 0 || style == "none" || style == "inset" || style == "outset" || cssvalue.IsTransparent(color) {
		return false
	}
	for _, side := range borderSides[1:] {
		if s.Get("border-"+side+"-width") != s.Get("border-top-width") ||
			s.Get("border-"+side+"-color") != color ||
			s.Get("border-"+side+"-style") != style {
			return false
		}
	}
	return true
}

// BorderRadiiForSide returns the two corner radii along side, in px. The
// radii of the horizontal sides are horizontal radii resolved against the
// box width; those of the vertical sides are vertical radii resolved against
// the height.
func (s Style) BorderRadiiForSide(side string, bounds geom.Rect) [2]float64 {
	horizontal := side == "top" || side == "bottom"
	corners := [2]string{"top", "bottom"}
	if horizontal {
		corners = [2]string{"left", "right"}
	}
	var radii [2]float64
	for i, corner := range corners {
		prop := "border-" + corner + "-" + side + "-radius"
		if horizontal {
			prop = "border-" + side + "-" + corner + "-radius"
		}
		parts := strings.Fields(s.Get(prop))
		if len(parts) == 0 {
			continue
		}
		if horizontal {
			radii[i] = cssvalue.LengthOr(parts[0], bounds.Width, 0)
			continue
		}
		v := parts[0]
		if len(parts) > 1 {
			v = parts[1]
		}
		radii[i] = cssvalue.LengthOr(v, bounds.Height, 0)
	}
	return radii
}

// OverlappingCurvesFactor is the scale applied to all corner radii when
// adjacent radii would overlap along a side.
func (s Style) OverlappingCurvesFactor(bounds geom.Rect) float64 {
	factor := 1.0
	for _, side := range borderSides {
		radii := s.BorderRadiiForSide(side, bounds)
		sum := radii[0] + radii[1]
		if sum == 0 {
			continue
		}
		length := bounds.Width
		if side == "left" || side == "right" {
			length = bounds.Height
		}
		factor = math.Min(factor, length/sum)
	}
	return factor
}

// Padding returns the resolved padding of each side in px.
func (s Style) Padding() (top, right, bottom, left float64) {
	px := func(side string) float64 {
		v, _ := cssvalue.Length(s.Get("padding-"+side), 0)
		return v
	}
	return px("top"), px("right"), px("bottom"), px("left")
}
