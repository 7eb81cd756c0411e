// internal/accessibility/labels.go
package accessibility

import (
	"golang.org/x/net/html"

	"github.com/xkilldash9x/domsvg/internal/dom"
)

// Labels remembers the IDs generated for label elements that have none, so
// that a control's aria-labelledby and the label's own output container agree.
// It lives for a single conversion.
type Labels struct {
	ids map[*html.Node]string
}

func NewLabels() *Labels {
	return &Labels{ids: make(map[*html.Node]string)}
}

// ID returns the ID to reference label by: its id attribute, the ID it was
// previously assigned, or a freshly generated "label" ID.
func (l *Labels) ID(label *html.Node, ids IDGenerator) string {
	if id := dom.AttrOr(label, "id"); id != "" {
		return id
	}
	if id, ok := l.ids[label]; ok {
		return id
	}
	id := ids.UniqueID("label")
	l.ids[label] = id
	return id
}

// Lookup returns a previously assigned ID without generating one.
func (l *Labels) Lookup(label *html.Node) (string, bool) {
	id, ok := l.ids[label]
	return id, ok
}
