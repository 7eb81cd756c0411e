// internal/accessibility/roles.go
package accessibility

import (
	"strconv"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/domsvg/internal/dom"
)

// IDGenerator hands out document-unique IDs.
type IDGenerator interface {
	UniqueID(prefix string) string
}

// implicitRoles maps tag names whose role does not depend on context.
var implicitRoles = map[string]string{
	"A":        "link",
	"ARTICLE":  "article",
	"ASIDE":    "complementary",
	"BODY":     "document",
	"BUTTON":   "button",
	"SUMMARY":  "button",
	"DD":       "definition",
	"DETAILS":  "group",
	"DFN":      "term",
	"DIALOG":   "dialog",
	"DT":       "term",
	"FIELDSET": "group",
	"FIGURE":   "figure",
	"FORM":     "form",
	"HR":       "separator",
	"MAIN":     "main",
	"MATH":     "math",
	"OL":       "list",
	"UL":       "list",
	"MENU":     "list",
	"NAV":      "navigation",
	"OPTION":   "option",
	"PROGRESS": "progressbar",
	"SECTION":  "region",
	"TABLE":    "table",
	"THEAD":    "rowgroup",
	"TBODY":    "rowgroup",
	"TFOOT":    "rowgroup",
	"TEXTAREA": "textbox",
	"TD":       "cell",
	"TR":       "tablerow",
}

var inputRoles = map[string]string{
	"button":   "button",
	"image":    "button",
	"reset":    "button",
	"submit":   "button",
	"number":   "spinbutton",
	"range":    "slider",
	"checkbox": "checkbox",
	"radio":    "radio",
}

// sectioning matches the ancestors that demote header and footer from
// banner and contentinfo landmarks.
var sectioning = cascadia.MustCompile(`article, aside, main, nav, section, [role="article"], [role="complementary"], [role="main"], [role="navigation"], [role="region"]`)

var insideTableHead = cascadia.MustCompile("thead")

// Compute returns the ARIA attributes the output container of an HTML
// element should carry: the implicit role of the element, state attributes,
// an inverted label relationship and any explicit aria-* and role
// attributes, which take precedence.
func Compute(n *html.Node, src dom.Source, ids IDGenerator, labels *Labels) *Attributes {
	attrs := newAttributes()
	tag := dom.TagName(n)

	if role, ok := implicitRoles[tag]; ok {
		attrs.Set("role", role)
	}
	switch tag {
	case "FOOTER", "HEADER":
		if dom.ClosestMatch(n, sectioning) == nil {
			role := "contentinfo"
			if tag == "HEADER" {
				role = "banner"
			}
			attrs.Set("role", role)
		}
	case "H1", "H2", "H3", "H4", "H5", "H6":
		attrs.Set("role", "heading")
		attrs.Set("aria-level", tag[1:])
	case "IMG":
		alt, hasAlt := dom.Attr(n, "alt")
		if !hasAlt || alt != "" {
			attrs.Set("role", "img")
			if alt != "" {
				attrs.Set("aria-label", alt)
			}
		}
	case "INPUT":
		typ := src.Property(n, "type")
		if typ == "" {
			typ = strings.ToLower(dom.AttrOr(n, "type"))
		}
		if role, ok := inputRoles[typ]; ok {
			attrs.Set("role", role)
		} else if (typ == "email" || typ == "tel") && !dom.HasAttr(n, "list") {
			attrs.Set("role", "textbox")
		}
	case "LI":
		if p := dom.ParentElement(n); p != nil {
			switch dom.TagName(p) {
			case "OL", "UL", "MENU":
				attrs.Set("role", "listitem")
			}
		}
	case "LINK":
		if src.Property(n, "href") != "" || dom.AttrOr(n, "href") != "" {
			attrs.Set("role", "link")
		}
	case "SELECT":
		role := "listbox"
		if !dom.HasAttr(n, "multiple") && selectSize(n, src) <= 1 {
			role = "combobox"
		}
		attrs.Set("role", role)
	case "TH":
		role := "rowheader"
		if dom.ClosestMatch(n, insideTableHead) != nil {
			role = "columnheader"
		}
		attrs.Set("role", role)
	}

	if dom.HasAttr(n, "disabled") {
		attrs.Set("aria-disabled", "true")
	}
	if placeholder, ok := dom.Attr(n, "placeholder"); ok {
		attrs.Set("aria-placeholder", placeholder)
	}
	if tabIndex := dom.AttrOr(n, "tabindex"); tabIndex != "" {
		attrs.Set("tabindex", tabIndex)
	}
	if elementLabels := src.Labels(n); len(elementLabels) > 0 {
		refs := make([]string, 0, len(elementLabels))
		for _, label := range elementLabels {
			refs = append(refs, labels.ID(label, ids))
		}
		attrs.Set("aria-labelledby", strings.Join(refs, " "))
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.HasPrefix(a.Key, "aria-") {
			attrs.Set(a.Key, a.Val)
		}
	}
	if role := dom.AttrOr(n, "role"); role != "" {
		attrs.Set("role", role)
	}
	return attrs
}

func selectSize(n *html.Node, src dom.Source) int {
	v := src.Property(n, "size")
	if v == "" {
		v = dom.AttrOr(n, "size")
	}
	size, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0
	}
	return size
}
