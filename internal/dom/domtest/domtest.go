// Package domtest provides an in-memory dom.Source for tests that need
// rendered geometry without a browser.
package domtest

import (
	"fmt"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/domsvg/internal/dom"
	"github.com/xkilldash9x/domsvg/internal/geom"
)

// TextLayout lays a text node out as monospaced glyphs wrapping after
// PerLine UTF-16 code units.
type TextLayout struct {
	Origin     geom.Point
	CharWidth  float64
	LineHeight float64
	PerLine    int
}

// Source is a hand-populated dom.Source. Nodes without a style read as a
// default static block; nodes without a box are reported as not captured.
type Source struct {
	Doc *html.Node

	styles   map[*html.Node]dom.Style
	pseudos  map[*html.Node]map[string]dom.Style
	boxes    map[*html.Node]geom.Rect
	layouts  map[*html.Node]TextLayout
	props    map[*html.Node]map[string]string
	offsets  map[*html.Node]*html.Node
	labels   map[*html.Node][]*html.Node
	ctms     map[*html.Node]geom.Matrix
	screen   map[*html.Node]geom.Matrix
	trans    map[*html.Node]geom.Matrix
	aliases  map[*html.Node]alias
	base     *url.URL
	Released int
}

type alias struct {
	owner  *html.Node
	pseudo string
}

// Parse builds a Source over an HTML document.
func Parse(t testing.TB, markup string) *Source {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(markup))
	require.NoError(t, err)
	base, _ := url.Parse("https://example.com/page/")
	return &Source{
		Doc:     doc,
		styles:  make(map[*html.Node]dom.Style),
		pseudos: make(map[*html.Node]map[string]dom.Style),
		boxes:   make(map[*html.Node]geom.Rect),
		layouts: make(map[*html.Node]TextLayout),
		props:   make(map[*html.Node]map[string]string),
		offsets: make(map[*html.Node]*html.Node),
		labels:  make(map[*html.Node][]*html.Node),
		ctms:    make(map[*html.Node]geom.Matrix),
		screen:  make(map[*html.Node]geom.Matrix),
		trans:   make(map[*html.Node]geom.Matrix),
		aliases: make(map[*html.Node]alias),
		base:    base,
	}
}

// ByID returns the element with the given id.
func (s *Source) ByID(t testing.TB, id string) *html.Node {
	t.Helper()
	n := s.find(s.Doc, func(n *html.Node) bool { return dom.AttrOr(n, "id") == id })
	require.NotNil(t, n, "no element with id %q", id)
	return n
}

// ByTag returns the first element with the given lower-case tag name.
func (s *Source) ByTag(t testing.TB, tag string) *html.Node {
	t.Helper()
	n := s.find(s.Doc, func(n *html.Node) bool { return n.Data == tag })
	require.NotNil(t, n, "no <%s> element", tag)
	return n
}

func (s *Source) find(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := s.find(c, match); found != nil {
			return found
		}
	}
	return nil
}

// ParseStyle parses "prop: value; prop: value" declarations.
func ParseStyle(decls string) dom.Style {
	style := dom.Style{}
	for _, decl := range strings.Split(decls, ";") {
		prop, val, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		style[strings.TrimSpace(prop)] = strings.TrimSpace(val)
	}
	return style
}

// SetStyle sets the computed style of n from declarations.
func (s *Source) SetStyle(n *html.Node, decls string) *Source {
	s.styles[n] = ParseStyle(decls)
	return s
}

// SetPseudo sets the style of a ::before or ::after pseudo-element.
func (s *Source) SetPseudo(n *html.Node, pseudo, decls string) *Source {
	if s.pseudos[n] == nil {
		s.pseudos[n] = make(map[string]dom.Style)
	}
	s.pseudos[n][pseudo] = ParseStyle(decls)
	return s
}

// SetBox sets the border box of an element.
func (s *Source) SetBox(n *html.Node, x, y, w, h float64) *Source {
	s.boxes[n] = geom.Rect{X: x, Y: y, Width: w, Height: h}
	return s
}

// BoxAll gives every element under root (inclusive) the same box, unless it
// already has one.
func (s *Source) BoxAll(root *html.Node, box geom.Rect) *Source {
	if root.Type == html.ElementNode {
		if _, ok := s.boxes[root]; !ok {
			s.boxes[root] = box
		}
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		s.BoxAll(c, box)
	}
	return s
}

// SetTextLayout lays out the text node n.
func (s *Source) SetTextLayout(n *html.Node, l TextLayout) *Source {
	s.layouts[n] = l
	return s
}

func (s *Source) SetProperty(n *html.Node, name, value string) *Source {
	if s.props[n] == nil {
		s.props[n] = make(map[string]string)
	}
	s.props[n][name] = value
	return s
}

func (s *Source) SetOffsetParent(n, parent *html.Node) *Source {
	s.offsets[n] = parent
	return s
}

func (s *Source) SetLabels(n *html.Node, labels ...*html.Node) *Source {
	s.labels[n] = labels
	return s
}

func (s *Source) SetScreenCTM(n *html.Node, m geom.Matrix) *Source {
	s.screen[n] = m
	return s
}

func (s *Source) SetCTM(n *html.Node, m geom.Matrix) *Source {
	s.ctms[n] = m
	return s
}

func (s *Source) SetTransform(n *html.Node, m geom.Matrix) *Source {
	s.trans[n] = m
	return s
}

func (s *Source) resolve(n *html.Node) (*html.Node, string) {
	if a, ok := s.aliases[n]; ok {
		return a.owner, a.pseudo
	}
	return n, dom.PseudoNone
}

func (s *Source) ComputedStyle(n *html.Node, pseudo string) (dom.Style, error) {
	owner, aliased := s.resolve(n)
	if aliased != dom.PseudoNone {
		pseudo = aliased
	}
	if pseudo != dom.PseudoNone {
		if style, ok := s.pseudos[owner][pseudo]; ok {
			return style, nil
		}
		return dom.Style{"content": "none"}, nil
	}
	if style, ok := s.styles[owner]; ok {
		return style, nil
	}
	return dom.Style{"display": "block"}, nil
}

func (s *Source) BoundingBox(n *html.Node) (geom.Rect, error) {
	owner, _ := s.resolve(n)
	if box, ok := s.boxes[owner]; ok {
		return box, nil
	}
	return geom.Rect{}, fmt.Errorf("<%s>: %w", n.Data, dom.ErrNodeNotCaptured)
}

func (s *Source) LineRects(text *html.Node, start, end int) ([]geom.Rect, error) {
	length := dom.UTF16Len(text.Data)
	if end > length || start < 0 || start > end {
		return nil, dom.ErrOutOfRange
	}
	l, ok := s.layouts[text]
	if !ok {
		return nil, nil
	}
	if start == end {
		return []geom.Rect{}, nil
	}
	var rects []geom.Rect
	for pos := start; pos < end; {
		line := pos / l.PerLine
		lineEnd := min((line+1)*l.PerLine, end)
		col := pos - line*l.PerLine
		rects = append(rects, geom.Rect{
			X:      l.Origin.X + float64(col)*l.CharWidth,
			Y:      l.Origin.Y + float64(line)*l.LineHeight,
			Width:  float64(lineEnd-pos) * l.CharWidth,
			Height: l.LineHeight,
		})
		pos = lineEnd
	}
	return rects, nil
}

func (s *Source) OffsetParent(n *html.Node) *html.Node {
	return s.offsets[n]
}

func (s *Source) Labels(n *html.Node) []*html.Node {
	return s.labels[n]
}

func (s *Source) Property(n *html.Node, name string) string {
	return s.props[n][name]
}

func (s *Source) ScreenCTM(n *html.Node) (geom.Matrix, bool) {
	m, ok := s.screen[n]
	return m, ok
}

func (s *Source) CTM(n *html.Node) (geom.Matrix, bool) {
	m, ok := s.ctms[n]
	return m, ok
}

func (s *Source) Transform(n *html.Node) (geom.Matrix, bool) {
	m, ok := s.trans[n]
	return m, ok
}

func (s *Source) BaseURL() *url.URL {
	return s.base
}

func (s *Source) AliasPseudo(synthetic, owner *html.Node, pseudo string) func() {
	s.aliases[synthetic] = alias{owner: owner, pseudo: pseudo}
	return func() {
		delete(s.aliases, synthetic)
		s.Released++
	}
}

var _ dom.Source = (*Source)(nil)
