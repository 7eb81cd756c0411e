package stacking_test

import (
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/domsvg/internal/dom"
	"github.com/xkilldash9x/domsvg/internal/stacking"
)

func TestEstablishesContext(t *testing.T) {
	testCases := []struct {
		name   string
		style  dom.Style
		parent dom.Style
		want   bool
	}{
		{"static default", dom.Style{}, nil, false},
		{"relative auto", dom.Style{"position": "relative"}, nil, false},
		{"relative with z", dom.Style{"position": "relative", "z-index": "1"}, nil, true},
		{"absolute with z 0", dom.Style{"position": "absolute", "z-index": "0"}, nil, true},
		{"fixed", dom.Style{"position": "fixed"}, nil, true},
		{"sticky", dom.Style{"position": "sticky"}, nil, true},
		{"flex item with z", dom.Style{"z-index": "3"}, dom.Style{"display": "flex"}, true},
		{"grid item with z", dom.Style{"z-index": "3"}, dom.Style{"display": "grid"}, true},
		{"block child with z", dom.Style{"z-index": "3"}, dom.Style{"display": "block"}, false},
		{"opacity", dom.Style{"opacity": "0.5"}, nil, true},
		{"blend", dom.Style{"mix-blend-mode": "multiply"}, nil, true},
		{"transform", dom.Style{"transform": "matrix(1, 0, 0, 1, 5, 0)"}, nil, true},
		{"filter", dom.Style{"filter": "blur(2px)"}, nil, true},
		{"perspective", dom.Style{"perspective": "100px"}, nil, true},
		{"clip-path", dom.Style{"clip-path": "circle(50%)"}, nil, true},
		{"mask", dom.Style{"mask": "url(#m)"}, nil, true},
		{"mask-image", dom.Style{"mask-image": "linear-gradient(red, blue)"}, nil, true},
		{"mask-border", dom.Style{"mask-border": "url(a.png) 30"}, nil, true},
		{"isolation", dom.Style{"isolation": "isolate"}, nil, true},
		{"touch scrolling", dom.Style{"-webkit-overflow-scrolling": "touch"}, nil, true},
		{"contain paint", dom.Style{"contain": "paint"}, nil, true},
		{"contain size", dom.Style{"contain": "size"}, nil, false},
		{"will-change opacity", dom.Style{"will-change": "scroll-position, opacity"}, nil, true},
		{"will-change scroll", dom.Style{"will-change": "scroll-position"}, nil, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, stacking.EstablishesContext(tc.style, tc.parent))
		})
	}
}

func TestClassify(t *testing.T) {
	testCases := []struct {
		name  string
		style dom.Style
		want  stacking.Layer
	}{
		{"plain block", dom.Style{"display": "block"}, stacking.None},
		{"negative context", dom.Style{"position": "relative", "z-index": "-1"}, stacking.ChildStackingContextsWithNegativeStackLevels},
		{"negative without context", dom.Style{"z-index": "-1"}, stacking.None},
		{"float block", dom.Style{"display": "block", "float": "left"}, stacking.InFlowNonInlineNonPositionedDescendants},
		{"float inline-block", dom.Style{"display": "inline-block", "float": "right"}, stacking.NonPositionedFloats},
		{"zero positioned", dom.Style{"position": "absolute", "z-index": "0"}, stacking.ChildStackingContextsWithStackLevelZeroAndPositionedDescendantsWithStackLevelZero},
		{"zero in flex", dom.Style{"z-index": "0", "opacity": "0.9"}, stacking.ChildStackingContextsWithStackLevelZeroAndPositionedDescendantsWithStackLevelZero},
		{"positive context", dom.Style{"position": "relative", "z-index": "2"}, stacking.ChildStackingContextsWithPositiveStackLevels},
		{"positioned auto", dom.Style{"position": "relative"}, stacking.None},
		{"garbage z", dom.Style{"position": "relative", "z-index": "high"}, stacking.None},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, stacking.Classify(tc.style, dom.Style{"display": "block"}))
		})
	}
}

func TestClassifyIsPure(t *testing.T) {
	s := dom.Style{"position": "relative", "z-index": "2"}
	first := stacking.Classify(s, nil)
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, stacking.Classify(s, nil))
	}
}

func TestNestedPositiveContext(t *testing.T) {
	// A relative z-index:2 element under a static parent lands in the
	// positive layer of the nearest context, whatever its parent is.
	grandparent := dom.Style{"position": "relative", "z-index": "1"}
	parent := dom.Style{"display": "block"}
	child := dom.Style{"position": "relative", "z-index": "2"}

	assert.True(t, stacking.EstablishesContext(grandparent, nil))
	assert.Equal(t, stacking.None, stacking.Classify(parent, grandparent))
	assert.Equal(t, stacking.ChildStackingContextsWithPositiveStackLevels, stacking.Classify(child, parent))
}

func TestCreateSortPrune(t *testing.T) {
	doc := etree.NewDocument()
	root := doc.CreateElement("g")
	ls := stacking.Create(root)

	assert.Equal(t, "true", root.SelectAttrValue(stacking.AttrContext, ""))
	require.Len(t, root.ChildElements(), 7)
	for i, l := range stacking.All {
		assert.Equal(t, l.String(), root.ChildElements()[i].SelectAttrValue(stacking.AttrLayer, ""))
	}
	assert.Nil(t, ls.Get(stacking.None))

	positive := ls.Get(stacking.ChildStackingContextsWithPositiveStackLevels)
	for _, z := range []string{"5", "2", "", "9", "1"} {
		g := positive.CreateElement("g")
		g.CreateAttr("id", "z"+z)
		if z != "" {
			g.CreateAttr(stacking.AttrZIndex, z)
		}
	}
	negative := ls.Get(stacking.ChildStackingContextsWithNegativeStackLevels)
	negative.CreateElement("g").CreateAttr(stacking.AttrZIndex, "-1")
	negative.CreateElement("g").CreateAttr(stacking.AttrZIndex, "-3")

	ls.Sort()

	var ids []string
	for _, c := range positive.ChildElements() {
		ids = append(ids, c.SelectAttrValue("id", ""))
	}
	assert.Equal(t, []string{"z1", "z2", "z", "z5", "z9"}, ids)
	assert.Equal(t, "-3", negative.ChildElements()[0].SelectAttrValue(stacking.AttrZIndex, ""))

	ls.Prune()
	remaining := root.ChildElements()
	require.Len(t, remaining, 2)
	assert.Equal(t, stacking.ChildStackingContextsWithNegativeStackLevels.String(), remaining[0].SelectAttrValue(stacking.AttrLayer, ""))
	assert.Equal(t, stacking.ChildStackingContextsWithPositiveStackLevels.String(), remaining[1].SelectAttrValue(stacking.AttrLayer, ""))

	// Pruning again is a no-op.
	ls.Prune()
	assert.Len(t, root.ChildElements(), 2)
}

func TestLayerString(t *testing.T) {
	assert.Equal(t, "none", stacking.None.String())
	assert.Equal(t, "nonPositionedFloats", stacking.NonPositionedFloats.String())
	assert.Equal(t, "unknown", stacking.Layer(42).String())
}
