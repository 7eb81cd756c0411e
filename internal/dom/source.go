// internal/dom/source.go
package dom

import (
	"errors"
	"net/url"

	"golang.org/x/net/html"

	"github.com/xkilldash9x/domsvg/internal/geom"
)

var (
	// ErrNodeNotCaptured means a node has no captured style or geometry. A
	// conversion cannot continue past it.
	ErrNodeNotCaptured = errors.New("node was not captured")
	// ErrOutOfRange is returned when a text range extends past the end of
	// its text node.
	ErrOutOfRange = errors.New("text range out of range")
)

// Pseudo-element selectors accepted by Source.ComputedStyle.
const (
	PseudoNone   = ""
	PseudoBefore = "::before"
	PseudoAfter  = "::after"
)

// Source answers the layout questions a live browser would: computed styles,
// boxes, line boxes of text ranges and a few DOM properties. Implementations
// read from an already rendered page and never compute layout themselves.
type Source interface {
	// ComputedStyle returns the computed style of an element, or of its
	// ::before/::after pseudo-element.
	ComputedStyle(n *html.Node, pseudo string) (Style, error)
	// BoundingBox returns the border box of an element in capture
	// coordinates.
	BoundingBox(n *html.Node) (geom.Rect, error)
	// LineRects returns one rectangle per line box covered by the UTF-16
	// range [start, end) of a text node. It returns ErrOutOfRange when end
	// exceeds the length of the text.
	LineRects(text *html.Node, start, end int) ([]geom.Rect, error)
	// OffsetParent returns the element's containing block element, if any.
	OffsetParent(n *html.Node) *html.Node
	// Labels returns the label elements associated with a form control.
	Labels(n *html.Node) []*html.Node
	// Property returns a DOM property such as value or currentSrc.
	Property(n *html.Node, name string) string
	// ScreenCTM, CTM and Transform expose SVG graphics element matrices.
	ScreenCTM(n *html.Node) (geom.Matrix, bool)
	CTM(n *html.Node) (geom.Matrix, bool)
	Transform(n *html.Node) (geom.Matrix, bool)
	// BaseURL is the document base used to resolve relative URLs.
	BaseURL() *url.URL
	// AliasPseudo makes the synthetic element answer style and geometry
	// queries with the owner's pseudo-element data until release is called.
	AliasPseudo(synthetic, owner *html.Node, pseudo string) (release func())
}
