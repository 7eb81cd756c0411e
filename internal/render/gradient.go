// internal/render/gradient.go
package render

import (
	"math"
	"strconv"

	"github.com/beevik/etree"

	"github.com/xkilldash9x/domsvg/internal/cssvalue"
)

// gradientVector is the x1/y1/x2/y2 endpoints of a linearGradient in
// bounding-box percentages.
type gradientVector struct {
	x1, y1, x2, y2 string
}

func vectorFor(o cssvalue.Orientation) gradientVector {
	v := gradientVector{x1: "0%", y1: "0%", x2: "0%", y2: "0%"}
	switch o.Kind {
	case cssvalue.OrientationAngular:
		a := o.Angle * math.Pi / 180
		v.x1 = percent(jsRound(50 + math.Sin(a+math.Pi)*50))
		v.y1 = percent(jsRound(50 + math.Cos(a)*50))
		v.x2 = percent(jsRound(50 + math.Sin(a)*50))
		v.y2 = percent(jsRound(50 + math.Cos(a+math.Pi)*50))
	case cssvalue.OrientationDirectional:
		for _, side := range o.Sides {
			switch side {
			case "left":
				v.x1 = "100%"
			case "top":
				v.y1 = "100%"
			case "right":
				v.x2 = "100%"
			case "bottom":
				v.y2 = "100%"
			}
		}
	default:
		v.y2 = "100%"
	}
	return v
}

// jsRound rounds half up, towards positive infinity.
func jsRound(x float64) float64 {
	return math.Floor(x + 0.5)
}

func percent(v float64) string {
	return num(v) + "%"
}

// linearGradient converts a parsed CSS gradient into an SVG <linearGradient>.
func linearGradient(g *cssvalue.LinearGradient) *etree.Element {
	v := vectorFor(g.Orientation)
	el := etree.NewElement("linearGradient")
	el.CreateAttr("x1", v.x1)
	el.CreateAttr("y1", v.y1)
	el.CreateAttr("x2", v.x2)
	el.CreateAttr("y2", v.y2)

	n := len(g.Stops)
	for i, s := range g.Stops {
		offset := 0.0
		switch {
		case s.Position != nil:
			offset = *s.Position
		case n > 1:
			offset = float64(i) / float64(n-1) * 100
		}

		color, opacity := "rgb(0,0,0)", 1.0
		switch s.Kind {
		case cssvalue.StopRGB, cssvalue.StopRGBA:
			color = "rgb(" + num(s.RGBA[0]) + "," + num(s.RGBA[1]) + "," + num(s.RGBA[2]) + ")"
			if s.Kind == cssvalue.StopRGBA {
				opacity = s.RGBA[3]
			}
		case cssvalue.StopHex:
			color = "#" + s.Value
		case cssvalue.StopLiteral:
			color = s.Value
		}

		stop := el.CreateElement("stop")
		stop.CreateAttr("offset", percent(offset))
		stop.CreateAttr("stop-color", color)
		stop.CreateAttr("stop-opacity", strconv.FormatFloat(opacity, 'f', -1, 64))
	}
	return el
}
