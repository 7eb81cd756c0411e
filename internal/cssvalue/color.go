// internal/cssvalue/color.go
package cssvalue

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/xkilldash9x/domsvg/internal/geom"
)

// Color is an sRGB color with a fractional alpha channel.
type Color struct {
	R, G, B uint8
	A       float64
}

var namedColors = map[string]Color{
	"black":       {0, 0, 0, 1},
	"white":       {255, 255, 255, 1},
	"red":         {255, 0, 0, 1},
	"green":       {0, 128, 0, 1},
	"blue":        {0, 0, 255, 1},
	"gray":        {128, 128, 128, 1},
	"grey":        {128, 128, 128, 1},
	"silver":      {192, 192, 192, 1},
	"yellow":      {255, 255, 0, 1},
	"orange":      {255, 165, 0, 1},
	"purple":      {128, 0, 128, 1},
	"transparent": {0, 0, 0, 0},
}

// ParseColor parses named, hex, rgb() and rgba() colors.
func ParseColor(value string) (Color, error) {
	v := strings.TrimSpace(strings.ToLower(value))

	if c, ok := namedColors[v]; ok {
		return c, nil
	}
	if strings.HasPrefix(v, "#") {
		if c, ok := parseHexColor(v); ok {
			return c, nil
		}
		return Color{}, parseErr("color", value, "malformed hex color")
	}
	if strings.HasPrefix(v, "rgb") {
		if c, ok := parseRGBColor(v); ok {
			return c, nil
		}
		return Color{}, parseErr("color", value, "malformed rgb color")
	}
	return Color{}, parseErr("color", value, "unsupported color syntax")
}

// IsTransparent matches the two spellings browsers use for a fully
// transparent computed color.
func IsTransparent(color string) bool {
	return color == "transparent" || color == "rgba(0, 0, 0, 0)"
}

// Darken scales the color channels by factor, keeping alpha.
func (c Color) Darken(factor float64) Color {
	return Color{
		R: uint8(float64(c.R) * factor),
		G: uint8(float64(c.G) * factor),
		B: uint8(float64(c.B) * factor),
		A: c.A,
	}
}

// RGB renders the color without alpha, e.g. "rgb(255,0,0)".
func (c Color) RGB() string {
	return fmt.Sprintf("rgb(%d,%d,%d)", c.R, c.G, c.B)
}

// String renders the color in the computed-style form browsers report.
func (c Color) String() string {
	if c.A >= 1 {
		return fmt.Sprintf("rgb(%d, %d, %d)", c.R, c.G, c.B)
	}
	return fmt.Sprintf("rgba(%d, %d, %d, %s)", c.R, c.G, c.B, geom.FormatNumber(c.A))
}

func parseHexColor(hex string) (Color, bool) {
	hex = strings.TrimPrefix(hex, "#")
	for i := 0; i < len(hex); i++ {
		if !isHex(hex[i]) {
			return Color{}, false
		}
	}
	c := Color{A: 1}
	switch len(hex) {
	case 3, 4:
		c.R = hexDigit(hex[0]) * 17
		c.G = hexDigit(hex[1]) * 17
		c.B = hexDigit(hex[2]) * 17
		if len(hex) == 4 {
			c.A = float64(hexDigit(hex[3])*17) / 255
		}
	case 6, 8:
		c.R = hexDigit(hex[0])<<4 | hexDigit(hex[1])
		c.G = hexDigit(hex[2])<<4 | hexDigit(hex[3])
		c.B = hexDigit(hex[4])<<4 | hexDigit(hex[5])
		if len(hex) == 8 {
			c.A = float64(hexDigit(hex[6])<<4|hexDigit(hex[7])) / 255
		}
	default:
		return Color{}, false
	}
	return c, true
}

func hexDigit(c byte) uint8 {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10
	}
	return 0
}

var rgbRegex = regexp.MustCompile(`^rgba?\((.*)\)$`)

func parseRGBColor(value string) (Color, bool) {
	m := rgbRegex.FindStringSubmatch(value)
	if len(m) != 2 {
		return Color{}, false
	}
	parts := strings.FieldsFunc(m[1], func(r rune) bool {
		return r == ',' || r == ' ' || r == '/'
	})
	if len(parts) < 3 || len(parts) > 4 {
		return Color{}, false
	}

	var c Color
	channels := []*uint8{&c.R, &c.G, &c.B}
	for i, ch := range channels {
		v, ok := parseChannel(parts[i])
		if !ok {
			return Color{}, false
		}
		*ch = v
	}
	c.A = 1
	if len(parts) == 4 {
		a, ok := parseAlpha(parts[3])
		if !ok {
			return Color{}, false
		}
		c.A = a
	}
	return c, true
}

func parseChannel(s string) (uint8, bool) {
	if strings.HasSuffix(s, "%") {
		p, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		if err != nil {
			return 0, false
		}
		return uint8(clamp(p/100*255+0.5, 0, 255)), true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return uint8(clamp(f+0.5, 0, 255)), true
}

func parseAlpha(s string) (float64, bool) {
	if strings.HasSuffix(s, "%") {
		p, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		if err != nil {
			return 0, false
		}
		return clamp(p/100, 0, 1), true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return clamp(f, 0, 1), true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
