// internal/render/converter.go
package render

import (
	"errors"
	"fmt"

	"github.com/beevik/etree"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/domsvg/internal/dom"
	"github.com/xkilldash9x/domsvg/internal/geom"
	"github.com/xkilldash9x/domsvg/internal/stacking"
)

const (
	svgNamespace   = "http://www.w3.org/2000/svg"
	xlinkNamespace = "http://www.w3.org/1999/xlink"
)

// ErrNoDocumentElement is returned by DocumentToSVG for a document without
// a root element.
var ErrNoDocumentElement = errors.New("document has no root element")

// Options control a conversion.
type Options struct {
	// CaptureArea limits painting to elements intersecting it. Elements
	// outside are still traversed. Nil paints everything.
	CaptureArea *geom.Rect
	// KeepLinks emits <a> elements for links instead of plain groups.
	KeepLinks bool
	// ScrollOffset is the document scroll position at capture time. The
	// root viewBox and the painted content are both shifted by it, so the
	// output is in document coordinates.
	ScrollOffset geom.Point
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{KeepLinks: true}
}

// Converter turns source elements into SVG documents. A Converter holds no
// state between calls.
type Converter struct {
	src    dom.Source
	opts   Options
	logger *zap.Logger
}

// NewConverter creates a converter reading styles and geometry from src.
func NewConverter(src dom.Source, opts Options, logger *zap.Logger) *Converter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Converter{
		src:    src,
		opts:   opts,
		logger: logger.Named("converter"),
	}
}

// DocumentToSVG converts the document element of doc.
func (c *Converter) DocumentToSVG(doc *html.Node) (*etree.Document, error) {
	root := doc
	if doc.Type == html.DocumentNode {
		root = nil
		for n := doc.FirstChild; n != nil; n = n.NextSibling {
			if n.Type == html.ElementNode {
				root = n
				break
			}
		}
	}
	if root == nil {
		return nil, ErrNoDocumentElement
	}
	return c.ElementToSVG(root)
}

// ElementToSVG converts el and its subtree into a standalone SVG document
// whose viewBox is the element's bounding box.
func (c *Converter) ElementToSVG(el *html.Node) (*etree.Document, error) {
	if !dom.IsElement(el) {
		return nil, fmt.Errorf("convert <%s>: not an element", el.Data)
	}
	bounds, err := c.src.BoundingBox(el)
	if err != nil {
		return nil, fmt.Errorf("convert <%s>: %w", el.Data, err)
	}

	logger := c.logger.With(zap.String("run_id", uuid.NewString()))
	logger.Debug("Starting conversion.", zap.String("root", el.Data))

	doc := etree.NewDocument()
	svg := doc.CreateElement("svg")
	svg.CreateAttr("xmlns", svgNamespace)
	svg.CreateAttr("xmlns:xlink", xlinkNamespace)
	svg.CreateAttr("width", num(bounds.Width))
	svg.CreateAttr("height", num(bounds.Height))
	svg.CreateAttr("viewBox", fmt.Sprintf("%s %s %s %s",
		num(bounds.X+c.opts.ScrollOffset.X),
		num(bounds.Y+c.opts.ScrollOffset.Y),
		num(bounds.Width),
		num(bounds.Height)))

	layers := stacking.Create(svg)
	r := newRun(c.src, c.opts, logger)
	ctx := walkContext{
		parent:      svg,
		layers:      layers,
		parentLayer: svg,
	}
	if err := r.walk(el, ctx); err != nil {
		return nil, fmt.Errorf("convert <%s>: %w", el.Data, err)
	}
	layers.Sort()
	layers.Prune()
	scrollContent(svg, c.opts.ScrollOffset)

	logger.Debug("Conversion finished.", zap.Int("ids", r.ids.Len()))
	return doc, nil
}

// scrollContent moves the painted children of svg from viewport into
// document coordinates, the space the scrolled viewBox is expressed in.
func scrollContent(svg *etree.Element, offset geom.Point) {
	if offset.X == 0 && offset.Y == 0 {
		return
	}
	g := etree.NewElement("g")
	g.CreateAttr("transform", fmt.Sprintf("translate(%s, %s)", num(offset.X), num(offset.Y)))
	for _, child := range svg.ChildElements() {
		svg.RemoveChild(child)
		g.AddChild(child)
	}
	svg.AddChild(g)
}
