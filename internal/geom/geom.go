// internal/geom/geom.go
package geom

import (
	"fmt"
	"math"
	"strconv"
)

// Point is a position in the capture root's coordinate space.
type Point struct {
	X, Y float64
}

// Rect is an axis-aligned box in the capture root's coordinate space.
// Like a DOMRect it includes the element border.
type Rect struct {
	X      float64 `json:"x" yaml:"x" mapstructure:"x"`
	Y      float64 `json:"y" yaml:"y" mapstructure:"y"`
	Width  float64 `json:"width" yaml:"width" mapstructure:"width"`
	Height float64 `json:"height" yaml:"height" mapstructure:"height"`
}

func (r Rect) Left() float64   { return math.Min(r.X, r.X+r.Width) }
func (r Rect) Top() float64    { return math.Min(r.Y, r.Y+r.Height) }
func (r Rect) Right() float64  { return math.Max(r.X, r.X+r.Width) }
func (r Rect) Bottom() float64 { return math.Max(r.Y, r.Y+r.Height) }

// Empty reports whether the rect has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Intersects reports whether r overlaps area. A nil area means "no capture
// area configured" and always intersects.
func (r Rect) Intersects(area *Rect) bool {
	if area == nil {
		return true
	}
	return r.Left() < area.Right() &&
		r.Right() > area.Left() &&
		r.Top() < area.Bottom() &&
		r.Bottom() > area.Top()
}

// Union returns the smallest rect containing both r and o.
func (r Rect) Union(o Rect) Rect {
	left := math.Min(r.Left(), o.Left())
	top := math.Min(r.Top(), o.Top())
	right := math.Max(r.Right(), o.Right())
	bottom := math.Max(r.Bottom(), o.Bottom())
	return Rect{X: left, Y: top, Width: right - left, Height: bottom - top}
}

// Diagonal is the normalized diagonal used by SVG to resolve percentages that
// are neither horizontal nor vertical (e.g. stroke-width).
func (r Rect) Diagonal() float64 {
	return math.Sqrt(r.Width*r.Width+r.Height*r.Height) / math.Sqrt2
}

// Matrix is a 2D affine transformation.
// [ a c e ]
// [ b d f ]
// [ 0 0 1 ]
type Matrix struct {
	A, B, C, D, E, F float64
}

// Identity returns the identity matrix.
func Identity() Matrix {
	return Matrix{A: 1, D: 1}
}

// MatrixFromArray builds a matrix from the [a b c d e f] layout used by
// DOMMatrix serialization. ok is false when the slice has the wrong length.
func MatrixFromArray(v []float64) (Matrix, bool) {
	if len(v) != 6 {
		return Matrix{}, false
	}
	return Matrix{A: v[0], B: v[1], C: v[2], D: v[3], E: v[4], F: v[5]}, true
}

// Multiply returns m * n. Order matters: n is applied first.
func (m Matrix) Multiply(n Matrix) Matrix {
	return Matrix{
		A: m.A*n.A + m.C*n.B,
		B: m.B*n.A + m.D*n.B,
		C: m.A*n.C + m.C*n.D,
		D: m.B*n.C + m.D*n.D,
		E: m.A*n.E + m.C*n.F + m.E,
		F: m.B*n.E + m.D*n.F + m.F,
	}
}

// Apply transforms the point (x, y).
func (m Matrix) Apply(x, y float64) (float64, float64) {
	return m.A*x + m.C*y + m.E, m.B*x + m.D*y + m.F
}

// Inverse returns the inverse matrix, or an error when the determinant is zero.
func (m Matrix) Inverse() (Matrix, error) {
	det := m.A*m.D - m.B*m.C
	if det == 0 {
		return Matrix{}, fmt.Errorf("matrix %s is not invertible", m)
	}
	inv := 1.0 / det
	return Matrix{
		A: m.D * inv,
		B: -m.B * inv,
		C: -m.C * inv,
		D: m.A * inv,
		E: (m.C*m.F - m.D*m.E) * inv,
		F: (m.B*m.E - m.A*m.F) * inv,
	}, nil
}

func (m Matrix) IsIdentity() bool {
	return m == Identity()
}

// Translate returns a translation matrix.
func Translate(tx, ty float64) Matrix {
	return Matrix{A: 1, D: 1, E: tx, F: ty}
}

// Scale returns a scaling matrix.
func Scale(sx, sy float64) Matrix {
	return Matrix{A: sx, D: sy}
}

// String formats m as an SVG transform function.
func (m Matrix) String() string {
	return "matrix(" + FormatNumber(m.A) + " " + FormatNumber(m.B) + " " +
		FormatNumber(m.C) + " " + FormatNumber(m.D) + " " +
		FormatNumber(m.E) + " " + FormatNumber(m.F) + ")"
}

// FormatNumber renders a float the way JavaScript's Number#toString does for
// the ranges that occur in layout: shortest representation, no exponent for
// ordinary magnitudes, and "0" for negative zero.
func FormatNumber(v float64) string {
	if v == 0 {
		return "0"
	}
	abs := math.Abs(v)
	if abs >= 1e21 || abs < 1e-6 {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
