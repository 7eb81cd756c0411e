// internal/cssvalue/gradient.go
package cssvalue

import (
	"math"
	"strconv"
	"strings"

	"github.com/tdewolff/parse/v2/css"
)

// OrientationKind distinguishes how a linear gradient's direction was given.
type OrientationKind int

const (
	// OrientationDefault means no direction was given ("to bottom").
	OrientationDefault OrientationKind = iota
	OrientationAngular
	OrientationDirectional
)

// Orientation is the direction part of a linear-gradient.
type Orientation struct {
	Kind OrientationKind
	// Angle in degrees, for OrientationAngular.
	Angle float64
	// Sides the gradient runs towards, for OrientationDirectional.
	Sides []string
}

// StopKind mirrors the syntax a color stop was written in, which decides how
// it is rendered as an SVG stop.
type StopKind int

const (
	StopLiteral StopKind = iota
	StopHex
	StopRGB
	StopRGBA
)

// ColorStop is one color stop of a gradient.
type ColorStop struct {
	Kind  StopKind
	Value string    // literal name or hex digits without '#'
	RGBA  []float64 // channels for StopRGB/StopRGBA
	// Position is the explicit stop position in percent, if one was given.
	Position *float64
}

// LinearGradient is a parsed linear-gradient() value.
type LinearGradient struct {
	Orientation Orientation
	Stops       []ColorStop
}

var sideOpposites = map[string]string{
	"left":   "right",
	"right":  "left",
	"top":    "bottom",
	"bottom": "top",
}

// IsLinearGradient reports whether name is a (possibly prefixed) linear
// gradient function name.
func IsLinearGradient(name string) bool {
	name = strings.ToLower(name)
	return name == "linear-gradient" || name == "-webkit-linear-gradient"
}

// ParseLinearGradient parses a single linear-gradient(...) function.
func ParseLinearGradient(value string) (*LinearGradient, error) {
	fns := Functions(value)
	if len(fns) == 0 || !IsLinearGradient(fns[0].Name) {
		return nil, parseErr("linear-gradient", value, "not a linear-gradient function")
	}
	fn := fns[0]
	legacy := strings.HasPrefix(fn.Name, "-webkit-")

	args := SplitArgs(fn.Args)
	if len(args) == 0 || len(args[0]) == 0 {
		return nil, parseErr("linear-gradient", value, "missing arguments")
	}

	g := &LinearGradient{}
	orientation, consumed, err := parseOrientation(args[0], legacy)
	if err != nil {
		return nil, parseErr("linear-gradient", value, "%v", err)
	}
	if consumed {
		g.Orientation = orientation
		args = args[1:]
	}
	if len(args) == 0 {
		return nil, parseErr("linear-gradient", value, "no color stops")
	}

	for _, arg := range args {
		stop, err := parseColorStop(arg)
		if err != nil {
			return nil, parseErr("linear-gradient", value, "%v", err)
		}
		g.Stops = append(g.Stops, stop)
	}
	return g, nil
}

type gradientError string

func (e gradientError) Error() string { return string(e) }

func parseOrientation(tokens []Token, legacy bool) (Orientation, bool, error) {
	first := tokens[0]
	switch first.Type {
	case css.DimensionToken:
		deg, err := angleDegrees(first.Data)
		if err != nil {
			return Orientation{}, false, err
		}
		return Orientation{Kind: OrientationAngular, Angle: deg}, true, nil
	case css.NumberToken:
		// A unitless zero is a valid angle.
		if f, err := strconv.ParseFloat(first.Data, 64); err == nil && f == 0 && len(tokens) == 1 {
			return Orientation{Kind: OrientationAngular}, true, nil
		}
	case css.IdentToken:
		ident := strings.ToLower(first.Data)
		if ident == "to" {
			sides := identList(tokens[1:])
			if len(sides) == 0 {
				return Orientation{}, false, gradientError("'to' without a side")
			}
			for _, s := range sides {
				if _, ok := sideOpposites[s]; !ok {
					return Orientation{}, false, gradientError("unknown side " + s)
				}
			}
			return Orientation{Kind: OrientationDirectional, Sides: sides}, true, nil
		}
		if _, ok := sideOpposites[ident]; ok && legacy {
			// Prefixed syntax names the starting side.
			var sides []string
			for _, s := range identList(tokens) {
				opp, ok := sideOpposites[s]
				if !ok {
					return Orientation{}, false, gradientError("unknown side " + s)
				}
				sides = append(sides, opp)
			}
			return Orientation{Kind: OrientationDirectional, Sides: sides}, true, nil
		}
	}
	return Orientation{}, false, nil
}

func identList(tokens []Token) []string {
	var out []string
	for _, t := range tokens {
		if t.IsWhitespace() {
			continue
		}
		if t.Type != css.IdentToken {
			return nil
		}
		out = append(out, strings.ToLower(t.Data))
	}
	return out
}

func angleDegrees(dim string) (float64, error) {
	n, ok := Number(dim)
	if !ok {
		return 0, gradientError("malformed angle " + dim)
	}
	unit := strings.ToLower(strings.TrimLeft(dim, "+-0123456789."))
	switch unit {
	case "deg":
		return n, nil
	case "grad":
		return n * 0.9, nil
	case "rad":
		return n * 180 / math.Pi, nil
	case "turn":
		return n * 360, nil
	}
	return 0, gradientError("unknown angle unit " + unit)
}

func parseColorStop(tokens []Token) (ColorStop, error) {
	if len(tokens) == 0 {
		return ColorStop{}, gradientError("empty color stop")
	}
	var stop ColorStop
	first := tokens[0]
	rest := tokens[1:]
	switch first.Type {
	case css.HashToken:
		stop.Kind = StopHex
		stop.Value = strings.TrimPrefix(first.Data, "#")
	case css.IdentToken:
		stop.Kind = StopLiteral
		stop.Value = first.Data
	case css.FunctionToken:
		name := strings.ToLower(strings.TrimSuffix(first.Data, "("))
		if name != "rgb" && name != "rgba" {
			return ColorStop{}, gradientError("unsupported color function " + name)
		}
		end := matchingParen(tokens, 0)
		for _, t := range innerTokens(tokens, 0, end) {
			if t.Type == css.NumberToken || t.Type == css.PercentageToken {
				f, ok := Number(t.Data)
				if !ok {
					return ColorStop{}, gradientError("malformed channel " + t.Data)
				}
				if t.Type == css.PercentageToken && len(stop.RGBA) == 3 {
					f /= 100
				}
				stop.RGBA = append(stop.RGBA, f)
			}
		}
		switch len(stop.RGBA) {
		case 3:
			stop.Kind = StopRGB
		case 4:
			stop.Kind = StopRGBA
		default:
			return ColorStop{}, gradientError("color function needs 3 or 4 channels")
		}
		rest = tokens[end:]
	default:
		return ColorStop{}, gradientError("unexpected token " + first.Data)
	}

	for _, t := range rest {
		if t.Type == css.PercentageToken {
			if f, ok := Number(t.Data); ok {
				stop.Position = &f
			}
			break
		}
	}
	return stop, nil
}
