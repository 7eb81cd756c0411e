// internal/render/text.go
package render

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/beevik/etree"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/domsvg/internal/dom"
	"github.com/xkilldash9x/domsvg/internal/geom"
)

// textAttributes are the computed properties copied onto <text> elements.
var textAttributes = []string{
	"color",
	"dominant-baseline",
	"font-family",
	"font-size",
	"font-size-adjust",
	"font-stretch",
	"font-style",
	"font-variant",
	"font-weight",
	"direction",
	"letter-spacing",
	"text-decoration",
	"text-anchor",
	"text-rendering",
	"unicode-bidi",
	"word-spacing",
	"writing-mode",
	"user-select",
}

func copyTextStyles(style dom.Style, el *etree.Element) {
	for _, prop := range textAttributes {
		if v := style.Get(prop); v != "" {
			el.CreateAttr(prop, v)
		}
	}
	// SVG text paints with fill, CSS with color.
	el.CreateAttr("fill", style.Get("color"))
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// text emits one <tspan> per rendered line of a text node. Lines are found by
// growing a range one code unit at a time until the browser reports line
// boxes at two different heights.
func (r *run) text(n *html.Node, ctx walkContext) error {
	parent := dom.ParentElement(n)
	if parent == nil {
		return nil
	}
	style, err := r.src.ComputedStyle(parent, dom.PseudoNone)
	if err != nil {
		return fmt.Errorf("style of <%s>: %w", parent.Data, err)
	}
	if !style.IsVisible() {
		return nil
	}

	text := etree.NewElement("text")
	copyTextStyles(style, text)
	// y is the bottom of the line box, not the baseline.
	text.CreateAttr("dominant-baseline", "text-after-edge")

	preserve := style.Get("white-space") == "pre" || style.Get("white-space") == "pre-wrap"
	length := dom.UTF16Len(n.Data)
	start, end := 0, 0
	for {
		end++
		rects, err := r.lineRects(n, start, end, length)
		if errors.Is(err, dom.ErrOutOfRange) {
			if err := r.flushLine(n, start, end-1, preserve, text); err != nil {
				return err
			}
			break
		}
		if err != nil {
			return err
		}
		// Collapsed whitespace has no boxes; keep growing.
		if len(rects) > 1 && rects[0].Y != rects[1].Y && end-start > 1 {
			end--
			if err := r.flushLine(n, start, end, preserve, text); err != nil {
				return err
			}
			start = end
		}
	}

	if len(text.ChildElements()) > 0 {
		ctx.parent.AddChild(text)
	}
	return nil
}

func (r *run) lineRects(n *html.Node, start, end, length int) ([]geom.Rect, error) {
	if end > length {
		return nil, dom.ErrOutOfRange
	}
	return r.src.LineRects(n, start, end)
}

// flushLine appends the tspan for the range [start, end) of a text node.
func (r *run) flushLine(n *html.Node, start, end int, preserve bool, text *etree.Element) error {
	if start >= end {
		return nil
	}
	rects, err := r.src.LineRects(n, start, end)
	if err != nil {
		return fmt.Errorf("line boxes of text: %w", err)
	}
	if len(rects) == 0 || !rects[0].Intersects(r.opts.CaptureArea) {
		return nil
	}
	line := rects[0]

	content := dom.UTF16Slice(n.Data, start, end)
	if !preserve {
		content = whitespaceRun.ReplaceAllString(content, " ")
		if start == 0 && precededByWhitespace(n) {
			content = strings.TrimLeftFunc(content, unicode.IsSpace)
		}
	}

	tspan := text.CreateElement("tspan")
	tspan.CreateAttr("xml:space", "preserve")
	tspan.SetText(content)
	tspan.CreateAttr("x", num(line.X))
	tspan.CreateAttr("y", num(line.Bottom()))
	tspan.CreateAttr("textLength", num(line.Width))
	tspan.CreateAttr("lengthAdjust", "spacingAndGlyphs")
	return nil
}

// precededByWhitespace reports whether the nearest previous sibling with
// visible text ends in whitespace, in which case a leading space of this
// node collapses into it.
func precededByWhitespace(n *html.Node) bool {
	for s := n.PrevSibling; s != nil; s = s.PrevSibling {
		content := dom.TextContent(s)
		if content == "" {
			continue
		}
		if strings.TrimRightFunc(content, unicode.IsSpace) != content {
			return true
		}
		if strings.TrimSpace(content) != "" {
			return false
		}
	}
	return false
}
