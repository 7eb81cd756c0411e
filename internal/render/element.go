// internal/render/element.go
package render

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/xkilldash9x/domsvg/internal/accessibility"
	"github.com/xkilldash9x/domsvg/internal/cssvalue"
	"github.com/xkilldash9x/domsvg/internal/dom"
	"github.com/xkilldash9x/domsvg/internal/geom"
	"github.com/xkilldash9x/domsvg/internal/stacking"
)

const (
	attrPseudoElement      = "data-pseudo-element"
	attrPseudoElementOwner = "data-pseudo-element-owner"
)

// element translates one element and its subtree.
func (r *run) element(n *html.Node, ctx walkContext) error {
	bounds, err := r.src.BoundingBox(n)
	if err != nil {
		return fmt.Errorf("bounds of <%s>: %w", n.Data, err)
	}
	intersects := bounds.Intersects(r.opts.CaptureArea)

	style, err := r.src.ComputedStyle(n, dom.PseudoNone)
	if err != nil {
		return fmt.Errorf("style of <%s>: %w", n.Data, err)
	}
	var parentStyle dom.Style
	if p := dom.ParentElement(n); p != nil {
		if parentStyle, err = r.src.ComputedStyle(p, dom.PseudoNone); err != nil {
			return fmt.Errorf("style of <%s>: %w", p.Data, err)
		}
	}

	container := r.newContainer(n)
	container.CreateAttr("data-tag", strings.ToLower(dom.TagName(n)))
	id := r.elementID(n)
	container.CreateAttr("id", id)
	if class := dom.AttrOr(n, "class"); class != "" {
		container.CreateAttr("class", class)
	}
	if title := dom.AttrOr(n, "title"); title != "" && dom.IsHTML(n) {
		t := etree.NewElement("title")
		t.SetText(title)
		container.InsertChildAt(0, t)
	}

	// Find the layer the container paints in, and append it there unless it
	// stays in the same layer as its output parent.
	layer := ctx.parentLayer
	if l := stacking.Classify(style, parentStyle); l != stacking.None {
		layer = ctx.layers.Get(l)
	}
	appendTo := ctx.parent
	if layer != ctx.parentLayer {
		appendTo = layer
		appendOwns(ctx.parent, id)
	}
	container.CreateAttr(stacking.AttrZIndex, style.Get("z-index"))
	appendTo.AddChild(container)

	child := ctx
	child.parent = container
	child.parentLayer = layer
	background := container
	var own *stacking.Layers
	if stacking.EstablishesContext(style, parentStyle) {
		own = stacking.Create(container)
		background = own.Get(stacking.RootBackgroundAndBorders)
		child.layers = own
	}

	if opacity := style.Get("opacity"); opacity != "1" {
		container.CreateAttr("opacity", opacity)
	}
	for _, a := range accessibility.Compute(n, r.src, r.ids, r.labels).List() {
		container.CreateAttr(a.Name, a.Value)
	}

	if dom.IsHTML(n) && !dom.HasAttr(n, attrPseudoElement) {
		release, err := r.insertPseudo(n, id, dom.PseudoBefore)
		if err != nil {
			return err
		}
		defer release()
		release, err = r.insertPseudo(n, id, dom.PseudoAfter)
		if err != nil {
			return err
		}
		defer release()
	}

	if intersects {
		r.paintBackgroundAndBorders(style, bounds, background)
	}

	if style.Get("overflow") != "visible" {
		mask := etree.NewElement("mask")
		maskID := r.ids.UniqueID("mask-for-" + id)
		mask.CreateAttr("id", maskID)
		visible := rect(bounds)
		visible.CreateAttr("fill", "#ffffff")
		mask.AddChild(visible)
		container.AddChild(mask)
		container.CreateAttr("mask", "url(#"+maskID+")")
		child.masks = &ancestorMask{mask: mask, owner: n, next: child.masks}
	}

	r.cutOutEscapingBox(n, style, bounds, ctx.masks)

	var walkErr error
	tag := dom.TagName(n)
	switch {
	case intersects && tag == "IMG" && (dom.AttrOr(n, "src") != "" || dom.AttrOr(n, "srcset") != ""):
		container.AddChild(r.image(n, id, style, bounds))
	case intersects && tag == "INPUT" && bounds.Width > 0 && bounds.Height > 0:
		if value := r.src.Property(n, "value"); value != "" {
			child.layers.Get(stacking.InFlowInlineLevelNonPositionedDescendants).AddChild(inputText(value, style, bounds))
		}
	case intersects && dom.IsSVG(n) && n.Data == "svg" && style.IsVisible():
		child.idPrefix = id + "-"
		walkErr = r.svgElement(n, child)
	default:
		walkErr = r.walkChildren(n, child)
	}
	if own != nil {
		own.Sort()
		own.Prune()
	}
	return walkErr
}

// walkChildren visits every child, including children of elements outside
// the capture area since they may overflow their parent.
func (r *run) walkChildren(n *html.Node, ctx walkContext) error {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := r.walk(c, ctx); err != nil {
			return err
		}
	}
	return nil
}

// newContainer returns an <a> for links when links are kept, a <g>
// otherwise.
func (r *run) newContainer(n *html.Node) *etree.Element {
	if dom.TagName(n) != "A" || !r.opts.KeepLinks {
		return etree.NewElement("g")
	}
	a := etree.NewElement("a")
	if href := r.absoluteURL(n, "href"); href != "" && !strings.HasPrefix(strings.ToLower(href), "javascript:") {
		a.CreateAttr("href", href)
	}
	for _, key := range []string{"rel", "target", "download"} {
		if v := dom.AttrOr(n, key); v != "" {
			a.CreateAttr(key, v)
		}
	}
	return a
}

func (r *run) elementID(n *html.Node) string {
	if id := dom.AttrOr(n, "id"); id != "" {
		return id
	}
	if dom.TagName(n) == "LABEL" {
		return r.labels.ID(n, r.ids)
	}
	prefix := strings.ToLower(dom.TagName(n))
	if classes := dom.ClassList(n); len(classes) > 0 {
		prefix = classes[0]
	}
	return r.ids.UniqueID(prefix)
}

// absoluteURL returns a URL property as the browser resolved it, falling
// back to resolving the attribute against the document base.
func (r *run) absoluteURL(n *html.Node, name string) string {
	if v := r.src.Property(n, name); v != "" {
		return v
	}
	raw, ok := dom.Attr(n, name)
	if !ok {
		return ""
	}
	return r.resolve(raw)
}

func (r *run) resolve(raw string) string {
	base := r.src.BaseURL()
	ref, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || base == nil {
		return raw
	}
	return base.ResolveReference(ref).String()
}

func appendOwns(parent *etree.Element, id string) {
	if owns := parent.SelectAttrValue("aria-owns", ""); owns != "" {
		id = owns + " " + id
	}
	parent.CreateAttr("aria-owns", id)
}

// insertPseudo stands in a real span for a ::before or ::after
// pseudo-element, so it is translated like any inline child. The returned
// release func removes the span again.
func (r *run) insertPseudo(n *html.Node, ownerID, pseudo string) (func(), error) {
	style, err := r.src.ComputedStyle(n, pseudo)
	if err != nil {
		return nil, fmt.Errorf("%s style of <%s>: %w", pseudo, n.Data, err)
	}
	content, ok := cssvalue.FirstString(style.Get("content"))
	if !ok {
		return func() {}, nil
	}

	span := &html.Node{
		Type:     html.ElementNode,
		Data:     "span",
		DataAtom: atom.Span,
		Attr:     []html.Attribute{{Key: attrPseudoElement, Val: pseudo}},
	}
	span.AppendChild(&html.Node{Type: html.TextNode, Data: content})
	dom.SetAttr(n, attrPseudoElementOwner, ownerID)
	if pseudo == dom.PseudoBefore {
		n.InsertBefore(span, n.FirstChild)
	} else {
		n.AppendChild(span)
	}
	unalias := r.src.AliasPseudo(span, n, pseudo)
	r.logger.Debug("Inserted pseudo-element.", zap.String("owner", ownerID), zap.String("pseudo", pseudo))

	return func() {
		unalias()
		n.RemoveChild(span)
		dom.RemoveAttr(n, attrPseudoElementOwner)
	}, nil
}

// cutOutEscapingBox makes an absolutely or fixed positioned element visible
// through the masks of overflow-clipping ancestors that are not its
// containing block, since such elements escape their clip.
func (r *run) cutOutEscapingBox(n *html.Node, style dom.Style, bounds geom.Rect, masks *ancestorMask) {
	position := style.Get("position")
	if !dom.IsHTML(n) || (position != "absolute" && position != "fixed") || masks == nil {
		return
	}
	containingBlock := r.src.OffsetParent(n)
	if containingBlock == nil {
		return
	}
	for m := masks; m != nil; m = m.next {
		if containingBlock == m.owner || !dom.Contains(containingBlock, m.owner) {
			break
		}
		visible := rect(bounds)
		visible.CreateAttr("fill", "#ffffff")
		m.mask.AddChild(visible)
	}
}

// image renders an <img> as an <image> filling its content box.
func (r *run) image(n *html.Node, id string, style dom.Style, bounds geom.Rect) *etree.Element {
	href := r.src.Property(n, "currentSrc")
	if href == "" {
		href = r.absoluteURL(n, "src")
	}
	padTop, padRight, padBottom, padLeft := contentInsets(style, bounds)

	img := etree.NewElement("image")
	img.CreateAttr("id", id+"-image")
	img.CreateAttr("xlink:href", href)
	img.CreateAttr("x", num(bounds.X+padLeft))
	img.CreateAttr("y", num(bounds.Y+padTop))
	img.CreateAttr("width", num(bounds.Width-padLeft-padRight))
	img.CreateAttr("height", num(bounds.Height-padTop-padBottom))
	if alt := dom.AttrOr(n, "alt"); alt != "" {
		img.CreateAttr("aria-label", alt)
	}
	return img
}

// inputText renders the value of a form control, vertically centered in its
// content box.
func inputText(value string, style dom.Style, bounds geom.Rect) *etree.Element {
	padTop, _, padBottom, padLeft := contentInsets(style, bounds)

	text := etree.NewElement("text")
	copyTextStyles(style, text)
	text.CreateAttr("dominant-baseline", "central")
	text.CreateAttr("xml:space", "preserve")
	text.CreateAttr("x", num(bounds.X+padLeft))
	top := bounds.Top() + padTop
	bottom := bounds.Bottom() - padBottom
	text.CreateAttr("y", num((top+bottom)/2))
	text.SetText(value)
	return text
}

func contentInsets(style dom.Style, bounds geom.Rect) (top, right, bottom, left float64) {
	top = cssvalue.LengthOr(style.Get("padding-top"), bounds.Height, 0)
	right = cssvalue.LengthOr(style.Get("padding-right"), bounds.Width, 0)
	bottom = cssvalue.LengthOr(style.Get("padding-bottom"), bounds.Height, 0)
	left = cssvalue.LengthOr(style.Get("padding-left"), bounds.Width, 0)
	return
}

func rect(bounds geom.Rect) *etree.Element {
	box := etree.NewElement("rect")
	box.CreateAttr("width", num(bounds.Width))
	box.CreateAttr("height", num(bounds.Height))
	box.CreateAttr("x", num(bounds.X))
	box.CreateAttr("y", num(bounds.Y))
	return box
}

func num(v float64) string {
	return geom.FormatNumber(v)
}
