// internal/snapshot/snapshot_test.go
package snapshot_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/domsvg/internal/dom"
	"github.com/xkilldash9x/domsvg/internal/geom"
	"github.com/xkilldash9x/domsvg/internal/render"
	"github.com/xkilldash9x/domsvg/internal/snapshot"
)

const fixture = `{
  "url": "https://example.com/docs/",
  "viewport": {"width": 800, "height": 600},
  "scroll": {"x": 0, "y": 40},
  "fontFaces": [{"cssText": "@font-face { font-family: A; src: url(a.woff2) }", "baseURL": "https://example.com/css/site.css"}],
  "root": {
    "id": 1, "type": "element", "tag": "HTML", "ns": "html",
    "style": {"display": "block"},
    "bounds": {"x": 0, "y": 0, "width": 800, "height": 600},
    "children": [{
      "id": 2, "type": "element", "tag": "BODY", "ns": "html",
      "style": {"display": "block"},
      "bounds": {"x": 0, "y": 0, "width": 800, "height": 600},
      "children": [
        {
          "id": 3, "type": "element", "tag": "P", "ns": "html",
          "attrs": [{"name": "id", "value": "para"}],
          "style": {"display": "block", "color": "rgb(0, 0, 0)"},
          "bounds": {"x": 8, "y": 8, "width": 30, "height": 40},
          "before": {
            "style": {"content": "\"> \"", "display": "inline", "color": "rgb(0, 0, 0)"},
            "bounds": {"x": 8, "y": 8, "width": 10, "height": 20},
            "chars": [{"x": 8, "y": 8, "width": 5, "height": 20}, {"x": 13, "y": 8, "width": 5, "height": 20}]
          },
          "children": [{
            "id": 4, "type": "text", "text": "ab cd",
            "chars": [
              {"x": 18, "y": 8, "width": 5, "height": 20},
              {"x": 23, "y": 8, "width": 5, "height": 20},
              null,
              {"x": 8, "y": 28, "width": 5, "height": 20},
              {"x": 13, "y": 28, "width": 5, "height": 20}
            ]
          }]
        },
        {
          "id": 5, "type": "element", "tag": "LABEL", "ns": "html",
          "style": {"display": "inline"},
          "bounds": {"x": 8, "y": 60, "width": 40, "height": 20}
        },
        {
          "id": 6, "type": "element", "tag": "INPUT", "ns": "html",
          "attrs": [{"name": "type", "value": "email"}],
          "style": {"display": "inline-block", "position": "absolute"},
          "bounds": {"x": 60, "y": 60, "width": 100, "height": 20},
          "props": {"value": "me@example.com", "type": "email"},
          "labels": [5],
          "offsetParent": 2
        },
        {
          "id": 7, "type": "element", "tag": "svg", "ns": "svg",
          "attrs": [{"name": "viewBox", "value": "0 0 10 10"}],
          "style": {"display": "inline"},
          "bounds": {"x": 0, "y": 100, "width": 20, "height": 20},
          "children": [{
            "id": 8, "type": "element", "tag": "use", "ns": "svg",
            "attrs": [{"name": "xlink:href", "value": "#shape"}],
            "style": {"display": "inline"},
            "screenCTM": [2, 0, 0, 2, 0, 100],
            "ctm": [1, 0, 0, 1, 0, 0]
          }]
        }
      ]
    }]
  }
}`

func load(t *testing.T) (*snapshot.Document, *snapshot.Source) {
	t.Helper()
	doc, err := snapshot.Decode(strings.NewReader(fixture))
	require.NoError(t, err)
	src, err := snapshot.NewSource(doc)
	require.NoError(t, err)
	return doc, src
}

func find(n *html.Node, match func(*html.Node) bool) *html.Node {
	if match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := find(c, match); found != nil {
			return found
		}
	}
	return nil
}

func byTag(t *testing.T, src *snapshot.Source, tag string) *html.Node {
	t.Helper()
	n := find(src.Doc, func(n *html.Node) bool { return n.Type == html.ElementNode && n.Data == tag })
	require.NotNil(t, n, "no <%s>", tag)
	return n
}

func TestDecode(t *testing.T) {
	doc, _ := load(t)
	assert.Equal(t, "https://example.com/docs/", doc.URL)
	assert.Equal(t, 40.0, doc.Scroll.Y)
	require.Len(t, doc.FontFaces, 1)
	assert.Equal(t, "https://example.com/css/site.css", doc.FontFaces[0].BaseURL)

	_, err := snapshot.Decode(strings.NewReader(`{"url": "x"}`))
	assert.Error(t, err)
	_, err = snapshot.Decode(strings.NewReader(`{`))
	assert.Error(t, err)
}

func TestEncodeKeepsDocument(t *testing.T) {
	doc, _ := load(t)
	var buf bytes.Buffer
	require.NoError(t, doc.Encode(&buf))

	again, err := snapshot.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, doc.Root.Children[0].Children[0].Attrs, again.Root.Children[0].Children[0].Attrs)
}

func TestNewSourceTree(t *testing.T) {
	_, src := load(t)

	root := src.Root()
	require.NotNil(t, root)
	assert.Equal(t, "html", root.Data)
	assert.True(t, dom.IsHTML(root))

	p := byTag(t, src, "p")
	assert.Equal(t, "para", dom.AttrOr(p, "id"))
	assert.Equal(t, "ab cd", p.FirstChild.Data)

	svg := byTag(t, src, "svg")
	assert.True(t, dom.IsSVG(svg))
	assert.Equal(t, "0 0 10 10", dom.AttrOr(svg, "viewBox"))

	use := byTag(t, src, "use")
	require.Len(t, use.Attr, 1)
	assert.Equal(t, html.Attribute{Namespace: "xlink", Key: "href", Val: "#shape"}, use.Attr[0])
}

func TestNewSourceRejectsBadTrees(t *testing.T) {
	tests := []struct {
		name string
		root *snapshot.Node
	}{
		{name: "unknown type", root: &snapshot.Node{ID: 1, Type: "comment"}},
		{name: "unknown namespace", root: &snapshot.Node{ID: 1, Type: "element", Tag: "math", NS: "mathml"}},
		{name: "duplicate id", root: &snapshot.Node{ID: 1, Type: "element", Tag: "div", Children: []*snapshot.Node{{ID: 1, Type: "text"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := snapshot.NewSource(&snapshot.Document{Root: tt.root})
			assert.Error(t, err)
		})
	}
}

func TestSourceQueries(t *testing.T) {
	_, src := load(t)
	p := byTag(t, src, "p")
	input := byTag(t, src, "input")
	use := byTag(t, src, "use")

	style, err := src.ComputedStyle(p, dom.PseudoNone)
	require.NoError(t, err)
	assert.Equal(t, "block", style.Get("display"))

	after, err := src.ComputedStyle(p, dom.PseudoAfter)
	require.NoError(t, err)
	assert.Equal(t, "none", after.Get("content"))

	box, err := src.BoundingBox(p)
	require.NoError(t, err)
	assert.Equal(t, geom.Rect{X: 8, Y: 8, Width: 30, Height: 40}, box)

	_, err = src.BoundingBox(use)
	assert.ErrorIs(t, err, dom.ErrNodeNotCaptured)
	_, err = src.ComputedStyle(&html.Node{Type: html.ElementNode, Data: "div"}, dom.PseudoNone)
	assert.ErrorIs(t, err, dom.ErrNodeNotCaptured)

	assert.Equal(t, byTag(t, src, "body"), src.OffsetParent(input))
	assert.Equal(t, []*html.Node{byTag(t, src, "label")}, src.Labels(input))
	assert.Equal(t, "me@example.com", src.Property(input, "value"))
	assert.Nil(t, src.OffsetParent(p))

	m, ok := src.ScreenCTM(use)
	require.True(t, ok)
	assert.Equal(t, geom.Matrix{A: 2, D: 2, F: 100}, m)
	_, ok = src.Transform(use)
	assert.False(t, ok)

	assert.Equal(t, "https://example.com/docs/", src.BaseURL().String())
}

func TestLineRects(t *testing.T) {
	_, src := load(t)
	text := byTag(t, src, "p").FirstChild

	tests := []struct {
		name       string
		start, end int
		want       []geom.Rect
	}{
		{name: "first line", start: 0, end: 2, want: []geom.Rect{{X: 18, Y: 8, Width: 10, Height: 20}}},
		{name: "collapsed space only", start: 2, end: 3, want: nil},
		{name: "across lines", start: 1, end: 5, want: []geom.Rect{
			{X: 23, Y: 8, Width: 5, Height: 20},
			{X: 8, Y: 28, Width: 10, Height: 20},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rects, err := src.LineRects(text, tt.start, tt.end)
			require.NoError(t, err)
			assert.Equal(t, tt.want, rects)
		})
	}

	_, err := src.LineRects(text, 0, 6)
	assert.ErrorIs(t, err, dom.ErrOutOfRange)
}

func TestAliasPseudo(t *testing.T) {
	_, src := load(t)
	p := byTag(t, src, "p")

	span := &html.Node{Type: html.ElementNode, Data: "span"}
	span.AppendChild(&html.Node{Type: html.TextNode, Data: "> "})
	release := src.AliasPseudo(span, p, dom.PseudoBefore)

	style, err := src.ComputedStyle(span, dom.PseudoNone)
	require.NoError(t, err)
	assert.Equal(t, "inline", style.Get("display"))
	box, err := src.BoundingBox(span)
	require.NoError(t, err)
	assert.Equal(t, 10.0, box.Width)
	rects, err := src.LineRects(span.FirstChild, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, []geom.Rect{{X: 8, Y: 8, Width: 10, Height: 20}}, rects)

	release()
	_, err = src.BoundingBox(span)
	assert.ErrorIs(t, err, dom.ErrNodeNotCaptured)
}

func TestConvertSnapshot(t *testing.T) {
	doc, src := load(t)
	opts := render.DefaultOptions()
	opts.ScrollOffset = geom.Point{X: doc.Scroll.X, Y: doc.Scroll.Y}

	out, err := render.NewConverter(src, opts, zaptest.NewLogger(t)).DocumentToSVG(src.Doc)
	require.NoError(t, err)
	svg := out.Root()
	assert.Equal(t, "0 40 800 600", svg.SelectAttrValue("viewBox", ""))
	require.Len(t, svg.ChildElements(), 1)
	assert.Equal(t, "translate(0, 40)", svg.ChildElements()[0].SelectAttrValue("transform", ""))

	// The pseudo-element text and both lines of the paragraph.
	var lines []string
	for _, tspan := range svg.FindElements("//tspan") {
		lines = append(lines, tspan.Text())
	}
	assert.Equal(t, []string{"> ", "ab ", "cd"}, lines)

	// The label got a generated ID that the input refers to.
	label := svg.FindElement("//g[@data-tag='label']")
	require.NotNil(t, label)
	input := svg.FindElement("//g[@data-tag='input']")
	require.NotNil(t, input)
	assert.Equal(t, label.SelectAttrValue("id", ""), input.SelectAttrValue("aria-labelledby", ""))
	assert.Equal(t, "textbox", input.SelectAttrValue("role", ""))

	use := svg.FindElement("//use")
	require.NotNil(t, use)
	assert.Equal(t, "#svg-1-shape", use.SelectAttrValue("xlink:href", ""))
	content := svg.FindElement("//g[@class='svg-content']")
	require.NotNil(t, content)
	assert.Equal(t, "matrix(2 0 0 2 0 100)", content.SelectAttrValue("transform", ""))
}
