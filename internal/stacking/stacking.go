// internal/stacking/stacking.go
package stacking

import (
	"sort"
	"strings"

	"github.com/beevik/etree"

	"github.com/xkilldash9x/domsvg/internal/cssvalue"
	"github.com/xkilldash9x/domsvg/internal/dom"
)

// Layer identifies one of the seven painting layers of a stacking context,
// in paint order.
type Layer int

const (
	// None means the element is not redirected into a layer and stays in
	// its current output parent.
	None Layer = iota
	RootBackgroundAndBorders
	ChildStackingContextsWithNegativeStackLevels
	InFlowNonInlineNonPositionedDescendants
	NonPositionedFloats
	InFlowInlineLevelNonPositionedDescendants
	ChildStackingContextsWithStackLevelZeroAndPositionedDescendantsWithStackLevelZero
	ChildStackingContextsWithPositiveStackLevels
)

// All lists the layers in paint order.
var All = [...]Layer{
	RootBackgroundAndBorders,
	ChildStackingContextsWithNegativeStackLevels,
	InFlowNonInlineNonPositionedDescendants,
	NonPositionedFloats,
	InFlowInlineLevelNonPositionedDescendants,
	ChildStackingContextsWithStackLevelZeroAndPositionedDescendantsWithStackLevelZero,
	ChildStackingContextsWithPositiveStackLevels,
}

var layerNames = map[Layer]string{
	None:                                         "none",
	RootBackgroundAndBorders:                     "rootBackgroundAndBorders",
	ChildStackingContextsWithNegativeStackLevels: "childStackingContextsWithNegativeStackLevels",
	InFlowNonInlineNonPositionedDescendants:      "inFlowNonInlineNonPositionedDescendants",
	NonPositionedFloats:                          "nonPositionedFloats",
	InFlowInlineLevelNonPositionedDescendants:    "inFlowInlineLevelNonPositionedDescendants",
	ChildStackingContextsWithStackLevelZeroAndPositionedDescendantsWithStackLevelZero: "childStackingContextsWithStackLevelZeroAndPositionedDescendantsWithStackLevelZero",
	ChildStackingContextsWithPositiveStackLevels:                                      "childStackingContextsWithPositiveStackLevels",
}

// String returns the name written to data-stacking-layer.
func (l Layer) String() string {
	if name, ok := layerNames[l]; ok {
		return name
	}
	return "unknown"
}

// Attributes written on the output tree.
const (
	AttrContext = "data-stacking-context"
	AttrLayer   = "data-stacking-layer"
	AttrZIndex  = "data-z-index"
)

// contextProperties are the will-change values that establish a stacking
// context.
var contextProperties = map[string]bool{
	"clip-path":                  true,
	"contain":                    true,
	"filter":                     true,
	"isolation":                  true,
	"mask":                       true,
	"mask-border":                true,
	"mask-image":                 true,
	"mix-blend-mode":             true,
	"opacity":                    true,
	"perspective":                true,
	"position":                   true,
	"transform":                  true,
	"-webkit-overflow-scrolling": true,
	"z-index":                    true,
}

// EstablishesContext reports whether an element with style s, whose parent
// element has style parent (nil at the root), forms a stacking context.
func EstablishesContext(s, parent dom.Style) bool {
	position := s.Get("position")
	zAuto := s.Get("z-index") == "auto"

	switch {
	case (position == "absolute" || position == "relative") && !zAuto:
		return true
	case position == "fixed" || position == "sticky":
		return true
	case parent != nil && (parent.Get("display") == "flex" || parent.Get("display") == "grid") && !zAuto:
		return true
	}

	if opacity, ok := cssvalue.Number(s.Get("opacity")); !ok || opacity != 1 {
		return true
	}
	if s.Get("mix-blend-mode") != "normal" {
		return true
	}
	for _, prop := range []string{"transform", "filter", "perspective", "clip-path", "mask", "mask-image", "mask-border"} {
		if s.Get(prop) != "none" {
			return true
		}
	}
	if s.Get("isolation") == "isolate" || s.Get("-webkit-overflow-scrolling") == "touch" {
		return true
	}
	switch s.Get("contain") {
	case "layout", "paint", "strict", "content":
		return true
	}
	for _, prop := range strings.Split(s.Get("will-change"), ",") {
		if contextProperties[strings.TrimSpace(prop)] {
			return true
		}
	}
	return false
}

// Classify returns the layer of the enclosing stacking context an element
// paints in. The order of the checks is significant.
func Classify(s, parent dom.Style) Layer {
	z, hasZ := s.ZIndex()
	positioned := s.IsPositioned()
	inFlow := s.IsInFlow()
	inline := s.IsInline()

	if hasZ && z < 0 && EstablishesContext(s, parent) {
		return ChildStackingContextsWithNegativeStackLevels
	}
	if inFlow && !inline && !positioned {
		return InFlowNonInlineNonPositionedDescendants
	}
	if !positioned && s.Get("float") != "none" {
		return NonPositionedFloats
	}
	if inFlow && inline && !positioned {
		return InFlowInlineLevelNonPositionedDescendants
	}
	if hasZ && z == 0 && (positioned || EstablishesContext(s, parent)) {
		return ChildStackingContextsWithStackLevelZeroAndPositionedDescendantsWithStackLevelZero
	}
	if hasZ && z > 0 && EstablishesContext(s, parent) {
		return ChildStackingContextsWithPositiveStackLevels
	}
	return None
}

// Layers is the set of seven layer groups of one stacking context root.
type Layers struct {
	Root   *etree.Element
	groups [len(All)]*etree.Element
}

// Create marks container as a stacking context root and appends its seven
// layer groups.
func Create(container *etree.Element) *Layers {
	container.CreateAttr(AttrContext, "true")
	ls := &Layers{Root: container}
	for i, l := range All {
		g := container.CreateElement("g")
		g.CreateAttr(AttrLayer, l.String())
		ls.groups[i] = g
	}
	return ls
}

// Get returns the group for l, or nil for None.
func (ls *Layers) Get(l Layer) *etree.Element {
	if l < RootBackgroundAndBorders || int(l) > len(All) {
		return nil
	}
	return ls.groups[l-1]
}

// Sort orders the negative and positive stack level layers by ascending
// data-z-index. Members without a z-index keep their slot; the others are
// stably sorted around them.
func (ls *Layers) Sort() {
	sortByZIndex(ls.Get(ChildStackingContextsWithNegativeStackLevels))
	sortByZIndex(ls.Get(ChildStackingContextsWithPositiveStackLevels))
}

func sortByZIndex(layer *etree.Element) {
	children := append([]etree.Token(nil), layer.Child...)

	var slots []int
	var ranked []etree.Token
	for i, tok := range children {
		if _, ok := zIndexOf(tok); ok {
			slots = append(slots, i)
			ranked = append(ranked, tok)
		}
	}
	if len(ranked) < 2 {
		return
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		zi, _ := zIndexOf(ranked[i])
		zj, _ := zIndexOf(ranked[j])
		return zi < zj
	})
	for k, slot := range slots {
		children[slot] = ranked[k]
	}
	for _, tok := range children {
		layer.AddChild(tok)
	}
}

func zIndexOf(tok etree.Token) (int, bool) {
	el, ok := tok.(*etree.Element)
	if !ok {
		return 0, false
	}
	attr := el.SelectAttr(AttrZIndex)
	if attr == nil {
		return 0, false
	}
	return dom.ParseZIndex(attr.Value)
}

// Prune removes layer groups that ended up without children.
func (ls *Layers) Prune() {
	for _, g := range ls.groups {
		if len(g.Child) == 0 && g.Parent() != nil {
			g.Parent().RemoveChild(g)
		}
	}
}
