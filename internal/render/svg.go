// internal/render/svg.go
package render

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/domsvg/internal/cssvalue"
	"github.com/xkilldash9x/domsvg/internal/dom"
	"github.com/xkilldash9x/domsvg/internal/geom"
)

var ignoredSVGElements = map[string]bool{
	"script":        true,
	"style":         true,
	"foreignObject": true,
}

// graphicsElements are the SVG elements that have a CTM and take
// presentation attributes.
var graphicsElements = map[string]bool{
	"a": true, "circle": true, "ellipse": true, "foreignObject": true, "g": true,
	"image": true, "line": true, "path": true, "polygon": true, "polyline": true,
	"rect": true, "svg": true, "switch": true, "text": true, "textPath": true,
	"tspan": true, "use": true,
}

var textContentElements = map[string]bool{
	"text": true, "textPath": true, "tspan": true,
}

// presentationDefaults lists the presentation properties copied from computed
// style, with the value that makes copying unnecessary.
var presentationDefaults = []struct {
	prop, initial string
}{
	{"alignment-baseline", "auto"},
	{"baseline-shift", "0px"},
	{"clip-path", "none"},
	{"clip-rule", "nonzero"},
	{"color", ""},
	{"color-interpolation", "srgb"},
	{"color-interpolation-filters", "linearrgb"},
	{"color-rendering", "auto"},
	{"direction", "ltr"},
	{"fill", ""},
	{"fill-opacity", "1"},
	{"fill-rule", "nonzero"},
	{"filter", "none"},
	{"flood-color", "rgb(0, 0, 0)"},
	{"flood-opacity", "1"},
	{"image-rendering", "auto"},
	{"lighting-color", "rgb(255, 255, 255)"},
	{"marker-end", "none"},
	{"marker-mid", "none"},
	{"marker-start", "none"},
	{"mask", "none"},
	{"opacity", "1"},
	{"pointer-events", "auto"},
	{"shape-rendering", "auto"},
	{"stop-color", "rgb(0, 0, 0)"},
	{"stop-opacity", "1"},
	{"stroke", ""},
	{"stroke-dasharray", "none"},
	{"stroke-dashoffset", "0px"},
	{"stroke-linecap", "butt"},
	{"stroke-linejoin", "miter"},
	{"stroke-miterlimit", "4"},
	{"stroke-opacity", "1"},
	{"stroke-width", "1px"},
	{"transform", "none"},
	{"vector-effect", "none"},
	{"visibility", "visible"},
}

// svgNode clones a node of an embedded SVG subtree.
func (r *run) svgNode(n *html.Node, ctx walkContext) error {
	switch {
	case dom.IsSVG(n):
		return r.svgElement(n, ctx)
	case dom.IsText(n):
		ctx.parent.CreateText(n.Data)
	}
	return nil
}

// svgElement clones an SVG element into ctx.parent. An <svg> root becomes a
// group carrying the transform that maps its viewport into the output.
func (r *run) svgElement(n *html.Node, ctx walkContext) error {
	if ignoredSVGElements[n.Data] {
		return nil
	}

	var out *etree.Element
	if n.Data == "svg" {
		out = r.svgRoot(n)
	} else {
		var err error
		if out, err = r.cloneSVGElement(n, ctx.idPrefix); err != nil {
			return err
		}
	}

	if id := out.SelectAttrValue("id", ""); id != "" {
		out.CreateAttr("id", ctx.idPrefix+id)
	}
	ctx.parent.AddChild(out)

	child := ctx
	child.parent = out
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := r.svgNode(c, child); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) svgRoot(n *html.Node) *etree.Element {
	g := etree.NewElement("g")
	g.CreateAttr("class", strings.Join(append([]string{"svg-content"}, dom.ClassList(n)...), " "))
	g.CreateAttr("data-view-box", dom.AttrOr(n, "viewBox"))
	g.CreateAttr("data-width", dom.AttrOr(n, "width"))
	g.CreateAttr("data-height", dom.AttrOr(n, "height"))
	if id := dom.AttrOr(n, "id"); id != "" {
		g.CreateAttr("id", id)
	}

	// The CTM of the first graphics child maps the viewBox into the page. A
	// nested <svg> only needs the mapping into its parent viewport, since
	// the outer transform already applies.
	nested := ownerSVG(n) != nil
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !dom.IsSVG(c) || !graphicsElements[c.Data] {
			continue
		}
		var m geom.Matrix
		var ok bool
		if nested {
			m, ok = r.src.CTM(c)
		} else {
			m, ok = r.src.ScreenCTM(c)
		}
		if !ok {
			// The <svg> is not rendered.
			break
		}
		// The child's own transform applies only to the child.
		if own, ok := r.src.Transform(c); ok && !own.IsIdentity() {
			if inv, err := own.Inverse(); err == nil {
				m = m.Multiply(inv)
			}
		}
		g.CreateAttr("transform", m.String())
		break
	}
	return g
}

func (r *run) cloneSVGElement(n *html.Node, prefix string) (*etree.Element, error) {
	var out *etree.Element
	if n.Data == "a" && !r.opts.KeepLinks {
		out = etree.NewElement("g")
	} else {
		out = etree.NewElement(n.Data)
		for _, a := range n.Attr {
			if strings.HasPrefix(a.Key, "on") && a.Namespace == "" {
				continue
			}
			if a.Key == "href" && strings.HasPrefix(strings.TrimSpace(strings.ToLower(a.Val)), "javascript:") {
				continue
			}
			out.CreateAttr(qualifiedName(a), a.Val)
		}
	}

	if graphicsElements[n.Data] {
		style, err := r.src.ComputedStyle(n, dom.PseudoNone)
		if err != nil {
			return nil, fmt.Errorf("style of <%s>: %w", n.Data, err)
		}
		r.copyPresentation(n, style, out)
		if textContentElements[n.Data] {
			copyTextStyles(style, out)
		}
	}

	// Point ID references at the prefixed IDs.
	for i := range out.Attr {
		a := &out.Attr[i]
		if a.Key == "href" {
			if strings.HasPrefix(a.Value, "#") {
				a.Value = "#" + prefix + a.Value[1:]
			}
		} else if cssvalue.HasURLReference(a.Value) {
			a.Value = cssvalue.RewriteURLReferences(a.Value, prefix)
		}
	}
	return out, nil
}

func (r *run) copyPresentation(n *html.Node, style dom.Style, out *etree.Element) {
	var diagonal float64
	for _, p := range presentationDefaults {
		v := style.Get(p.prop)
		if v == "" || v == p.initial {
			continue
		}
		if strings.HasSuffix(v, "%") {
			// Percentages refer to the normalized diagonal of the viewport.
			if diagonal == 0 {
				diagonal = r.viewport(n).Diagonal()
			}
			v = num(cssvalue.LengthOr(v, diagonal, 0))
		}
		out.CreateAttr(p.prop, v)
	}
}

// viewport returns the viewBox of the nearest <svg> ancestor, or its box
// when it has no viewBox.
func (r *run) viewport(n *html.Node) geom.Rect {
	owner := ownerSVG(n)
	if owner == nil {
		return geom.Rect{}
	}
	if vb, ok := parseViewBox(dom.AttrOr(owner, "viewBox")); ok {
		return vb
	}
	box, err := r.src.BoundingBox(owner)
	if err != nil {
		return geom.Rect{}
	}
	return geom.Rect{Width: box.Width, Height: box.Height}
}

func ownerSVG(n *html.Node) *html.Node {
	for p := n.Parent; p != nil && dom.IsSVG(p); p = p.Parent {
		if p.Data == "svg" {
			return p
		}
	}
	return nil
}

func parseViewBox(v string) (geom.Rect, bool) {
	fields := strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' || r == '\n' })
	if len(fields) != 4 {
		return geom.Rect{}, false
	}
	var vals [4]float64
	for i, f := range fields {
		x, ok := cssvalue.Number(f)
		if !ok {
			return geom.Rect{}, false
		}
		vals[i] = x
	}
	return geom.Rect{X: vals[0], Y: vals[1], Width: vals[2], Height: vals[3]}, true
}

func qualifiedName(a html.Attribute) string {
	if a.Namespace == "" {
		return a.Key
	}
	return a.Namespace + ":" + a.Key
}
