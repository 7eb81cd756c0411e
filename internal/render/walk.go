// internal/render/walk.go
package render

import (
	"golang.org/x/net/html"

	"github.com/xkilldash9x/domsvg/internal/dom"
)

// walk routes a node to its translator. Comments, doctypes and other node
// kinds produce nothing.
func (r *run) walk(n *html.Node, ctx walkContext) error {
	switch {
	case dom.IsHTML(n):
		return r.element(n, ctx)
	case dom.IsSVG(n):
		// An <svg> embedded in HTML is laid out like any other element and
		// then hands its content to the embedder.
		if n.Data == "svg" && !dom.IsSVG(n.Parent) {
			return r.element(n, ctx)
		}
		return r.svgNode(n, ctx)
	case dom.IsText(n):
		return r.text(n, ctx)
	}
	return nil
}
