// internal/snapshot/source.go
package snapshot

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/xkilldash9x/domsvg/internal/dom"
	"github.com/xkilldash9x/domsvg/internal/geom"
)

// Source serves the captured styles and geometry of a Document for the nodes
// of the tree it was built from.
type Source struct {
	// Doc is the rebuilt document node.
	Doc *html.Node

	records map[*html.Node]*Node
	byID    map[int]*html.Node
	aliases map[*html.Node]alias
	base    *url.URL
}

type alias struct {
	owner  *html.Node
	pseudo string
	// text is set for the text child of a synthetic pseudo-element.
	text bool
}

// NewSource rebuilds the captured tree as *html.Node values.
func NewSource(d *Document) (*Source, error) {
	if d.Root == nil {
		return nil, fmt.Errorf("snapshot has no root node")
	}
	s := &Source{
		Doc:     &html.Node{Type: html.DocumentNode},
		records: make(map[*html.Node]*Node),
		byID:    make(map[int]*html.Node),
		aliases: make(map[*html.Node]alias),
	}
	if d.URL != "" {
		base, err := url.Parse(d.URL)
		if err != nil {
			return nil, fmt.Errorf("snapshot url: %w", err)
		}
		s.base = base
	}
	root, err := s.build(d.Root)
	if err != nil {
		return nil, err
	}
	s.Doc.AppendChild(root)
	return s, nil
}

// Root returns the root element of the rebuilt tree.
func (s *Source) Root() *html.Node {
	return s.Doc.FirstChild
}

func (s *Source) build(rec *Node) (*html.Node, error) {
	var n *html.Node
	switch rec.Type {
	case TypeText:
		n = &html.Node{Type: html.TextNode, Data: rec.Text}
	case TypeElement:
		n = &html.Node{Type: html.ElementNode}
		switch rec.NS {
		case NamespaceSVG:
			n.Namespace = "svg"
			n.Data = rec.Tag
		case NamespaceHTML, "":
			n.Data = strings.ToLower(rec.Tag)
			n.DataAtom = atom.Lookup([]byte(n.Data))
		default:
			return nil, fmt.Errorf("node %d: unknown namespace %q", rec.ID, rec.NS)
		}
		for _, a := range rec.Attrs {
			n.Attr = append(n.Attr, attribute(a))
		}
	default:
		return nil, fmt.Errorf("node %d: unknown node type %q", rec.ID, rec.Type)
	}

	if _, dup := s.byID[rec.ID]; dup {
		return nil, fmt.Errorf("node %d: duplicate id", rec.ID)
	}
	s.records[n] = rec
	s.byID[rec.ID] = n

	for _, c := range rec.Children {
		child, err := s.build(c)
		if err != nil {
			return nil, err
		}
		n.AppendChild(child)
	}
	return n, nil
}

// attribute splits the foreign attribute prefixes the same way the HTML
// parser does for inline SVG.
func attribute(a Attribute) html.Attribute {
	if prefix, key, ok := strings.Cut(a.Name, ":"); ok {
		switch prefix {
		case "xlink", "xml", "xmlns":
			return html.Attribute{Namespace: prefix, Key: key, Val: a.Value}
		}
	}
	return html.Attribute{Key: a.Name, Val: a.Value}
}

func (s *Source) record(n *html.Node) (*Node, error) {
	rec, ok := s.records[n]
	if !ok {
		return nil, fmt.Errorf("<%s>: %w", n.Data, dom.ErrNodeNotCaptured)
	}
	return rec, nil
}

// pseudoOf returns the captured pseudo-element record of owner.
func pseudoOf(owner *Node, pseudo string) *Pseudo {
	switch pseudo {
	case dom.PseudoBefore:
		return owner.Before
	case dom.PseudoAfter:
		return owner.After
	}
	return nil
}

func (s *Source) ComputedStyle(n *html.Node, pseudo string) (dom.Style, error) {
	if a, ok := s.aliases[n]; ok {
		n, pseudo = a.owner, a.pseudo
	}
	rec, err := s.record(n)
	if err != nil {
		return nil, err
	}
	if pseudo == dom.PseudoNone {
		return dom.Style(rec.Style), nil
	}
	p := pseudoOf(rec, pseudo)
	if p == nil {
		return dom.Style{"content": "none"}, nil
	}
	return dom.Style(p.Style), nil
}

func (s *Source) BoundingBox(n *html.Node) (geom.Rect, error) {
	if a, ok := s.aliases[n]; ok {
		rec, err := s.record(a.owner)
		if err != nil {
			return geom.Rect{}, err
		}
		if p := pseudoOf(rec, a.pseudo); p != nil && p.Bounds != nil {
			return *p.Bounds, nil
		}
		n = a.owner
	}
	rec, err := s.record(n)
	if err != nil {
		return geom.Rect{}, err
	}
	if rec.Bounds == nil {
		return geom.Rect{}, fmt.Errorf("<%s> has no box: %w", n.Data, dom.ErrNodeNotCaptured)
	}
	return *rec.Bounds, nil
}

// LineRects merges the rectangles of the code units in [start, end) into one
// rectangle per distinct line top, in order of appearance.
func (s *Source) LineRects(text *html.Node, start, end int) ([]geom.Rect, error) {
	if end > dom.UTF16Len(text.Data) || start < 0 || start > end {
		return nil, dom.ErrOutOfRange
	}
	chars, err := s.chars(text)
	if err != nil {
		return nil, err
	}
	var lines []geom.Rect
	for i := start; i < end && i < len(chars); i++ {
		c := chars[i]
		if c == nil || (c.Width == 0 && c.Height == 0) {
			continue
		}
		merged := false
		for j := range lines {
			if lines[j].Top() == c.Top() {
				lines[j] = lines[j].Union(*c)
				merged = true
				break
			}
		}
		if !merged {
			lines = append(lines, *c)
		}
	}
	return lines, nil
}

func (s *Source) chars(text *html.Node) ([]*geom.Rect, error) {
	if a, ok := s.aliases[text]; ok && a.text {
		rec, err := s.record(a.owner)
		if err != nil {
			return nil, err
		}
		if p := pseudoOf(rec, a.pseudo); p != nil {
			return p.Chars, nil
		}
		return nil, nil
	}
	rec, err := s.record(text)
	if err != nil {
		return nil, err
	}
	return rec.Chars, nil
}

func (s *Source) OffsetParent(n *html.Node) *html.Node {
	rec, ok := s.records[n]
	if !ok || rec.OffsetParent == nil {
		return nil
	}
	return s.byID[*rec.OffsetParent]
}

func (s *Source) Labels(n *html.Node) []*html.Node {
	rec, ok := s.records[n]
	if !ok {
		return nil
	}
	var labels []*html.Node
	for _, id := range rec.Labels {
		if label, ok := s.byID[id]; ok {
			labels = append(labels, label)
		}
	}
	return labels
}

func (s *Source) Property(n *html.Node, name string) string {
	if rec, ok := s.records[n]; ok {
		return rec.Props[name]
	}
	return ""
}

func (s *Source) ScreenCTM(n *html.Node) (geom.Matrix, bool) {
	return s.matrix(n, func(rec *Node) []float64 { return rec.ScreenCTM })
}

func (s *Source) CTM(n *html.Node) (geom.Matrix, bool) {
	return s.matrix(n, func(rec *Node) []float64 { return rec.CTM })
}

func (s *Source) Transform(n *html.Node) (geom.Matrix, bool) {
	return s.matrix(n, func(rec *Node) []float64 { return rec.Transform })
}

func (s *Source) matrix(n *html.Node, field func(*Node) []float64) (geom.Matrix, bool) {
	rec, ok := s.records[n]
	if !ok {
		return geom.Matrix{}, false
	}
	return geom.MatrixFromArray(field(rec))
}

func (s *Source) BaseURL() *url.URL {
	return s.base
}

// AliasPseudo answers queries about synthetic, and about its text child,
// with the captured pseudo-element data of owner.
func (s *Source) AliasPseudo(synthetic, owner *html.Node, pseudo string) func() {
	s.aliases[synthetic] = alias{owner: owner, pseudo: pseudo}
	text := synthetic.FirstChild
	if text != nil && text.Type == html.TextNode {
		s.aliases[text] = alias{owner: owner, pseudo: pseudo, text: true}
	}
	return func() {
		delete(s.aliases, synthetic)
		if text != nil {
			delete(s.aliases, text)
		}
	}
}

var _ dom.Source = (*Source)(nil)
