// internal/render/context.go
package render

import (
	"github.com/beevik/etree"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/domsvg/internal/accessibility"
	"github.com/xkilldash9x/domsvg/internal/dom"
	"github.com/xkilldash9x/domsvg/internal/stacking"
)

// ancestorMask is one entry of the list of overflow masks opened by the
// ancestors of the node being visited, closest first. The list is persistent:
// descending prepends a new head and never changes the tail, so sibling
// subtrees cannot observe each other's masks.
type ancestorMask struct {
	mask  *etree.Element
	owner *html.Node
	next  *ancestorMask
}

// walkContext is threaded by value through the walk. Descending copies it
// and overrides fields for the subtree.
type walkContext struct {
	// parent is the output element new nodes are appended to.
	parent *etree.Element
	// layers belong to the nearest stacking context root.
	layers *stacking.Layers
	// parentLayer is the layer group the current output subtree was placed
	// in.
	parentLayer *etree.Element
	masks       *ancestorMask
	// idPrefix is prepended to IDs copied from embedded SVG content.
	idPrefix string
}

// run is the state of one conversion. ids and labels are the only state
// shared across the walk.
type run struct {
	src    dom.Source
	opts   Options
	ids    *IDGenerator
	labels *accessibility.Labels
	logger *zap.Logger
}

func newRun(src dom.Source, opts Options, logger *zap.Logger) *run {
	return &run{
		src:    src,
		opts:   opts,
		ids:    NewIDGenerator(),
		labels: accessibility.NewLabels(),
		logger: logger,
	}
}
