// internal/dom/node.go
package dom

import (
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

const (
	NamespaceSVG   = "http://www.w3.org/2000/svg"
	NamespaceXLink = "http://www.w3.org/1999/xlink"
	NamespaceXML   = "http://www.w3.org/XML/1998/namespace"
)

// IsElement reports an element node.
func IsElement(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode
}

// IsText reports a text node.
func IsText(n *html.Node) bool {
	return n != nil && n.Type == html.TextNode
}

// IsSVG reports an element in the SVG namespace.
func IsSVG(n *html.Node) bool {
	return IsElement(n) && n.Namespace == "svg"
}

// IsHTML reports an element in the HTML namespace.
func IsHTML(n *html.Node) bool {
	return IsElement(n) && n.Namespace == ""
}

// TagName returns the DOM tagName: upper case for HTML elements, verbatim for
// foreign content.
func TagName(n *html.Node) string {
	if IsHTML(n) {
		return strings.ToUpper(n.Data)
	}
	return n.Data
}

// Attr returns the value of an attribute and whether it is present.
func Attr(n *html.Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// AttrOr returns the attribute value or "" when it is absent.
func AttrOr(n *html.Node, key string) string {
	v, _ := Attr(n, key)
	return v
}

// HasAttr reports whether the attribute is present.
func HasAttr(n *html.Node, key string) bool {
	_, ok := Attr(n, key)
	return ok
}

// SetAttr sets or replaces an attribute.
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// RemoveAttr deletes an attribute if present.
func RemoveAttr(n *html.Node, key string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}

// ClassList splits the class attribute.
func ClassList(n *html.Node) []string {
	return strings.Fields(AttrOr(n, "class"))
}

// TextContent concatenates the data of all descendant text nodes.
func TextContent(n *html.Node) string {
	if n == nil {
		return ""
	}
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(TextContent(c))
	}
	return sb.String()
}

// ParentElement returns the closest element ancestor.
func ParentElement(n *html.Node) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode {
			return p
		}
	}
	return nil
}

// Contains reports whether other is n or a descendant of n.
func Contains(n, other *html.Node) bool {
	for c := other; c != nil; c = c.Parent {
		if c == n {
			return true
		}
	}
	return false
}

// Closest returns the first inclusive ancestor of n matching selector.
func Closest(n *html.Node, selector string) (*html.Node, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, err
	}
	return ClosestMatch(n, sel), nil
}

// ClosestMatch is Closest with a compiled selector.
func ClosestMatch(n *html.Node, sel cascadia.Selector) *html.Node {
	for c := n; c != nil; c = c.Parent {
		if c.Type == html.ElementNode && sel.Match(c) {
			return c
		}
	}
	return nil
}

// UTF16Len returns the length of s in UTF-16 code units, the unit DOM text
// offsets are counted in.
func UTF16Len(s string) int {
	n := 0
	for _, r := range s {
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
	}
	return n
}

// UTF16Slice returns the substring of s between two UTF-16 offsets. A
// surrogate pair split by start is dropped.
func UTF16Slice(s string, start, end int) string {
	var sb strings.Builder
	pos := 0
	for _, r := range s {
		width := 1
		if r >= 0x10000 {
			width = 2
		}
		if pos >= end {
			break
		}
		if pos >= start {
			sb.WriteRune(r)
		}
		pos += width
	}
	return sb.String()
}
