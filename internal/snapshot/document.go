// internal/snapshot/document.go
package snapshot

import (
	"fmt"
	"io"
	"os"

	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/domsvg/internal/geom"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Node types and namespaces as recorded by the capture script.
const (
	TypeElement = "element"
	TypeText    = "text"

	NamespaceHTML = "html"
	NamespaceSVG  = "svg"
)

// Document is a captured page: its DOM tree together with everything the
// converter needs to know about how the browser rendered it.
type Document struct {
	URL       string     `json:"url"`
	Viewport  Size       `json:"viewport"`
	Scroll    Offset     `json:"scroll"`
	Root      *Node      `json:"root"`
	FontFaces []FontFace `json:"fontFaces,omitempty"`
}

type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type Offset struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is one captured element or text node.
type Node struct {
	// ID is unique within the document and used by cross references such
	// as OffsetParent and Labels.
	ID       int         `json:"id"`
	Type     string      `json:"type"`
	Tag      string      `json:"tag,omitempty"`
	NS       string      `json:"ns,omitempty"`
	Attrs    []Attribute `json:"attrs,omitempty"`
	Text     string      `json:"text,omitempty"`
	Children []*Node     `json:"children,omitempty"`

	Style  map[string]string `json:"style,omitempty"`
	Before *Pseudo           `json:"before,omitempty"`
	After  *Pseudo           `json:"after,omitempty"`
	Bounds *geom.Rect        `json:"bounds,omitempty"`
	Props  map[string]string `json:"props,omitempty"`

	OffsetParent *int  `json:"offsetParent,omitempty"`
	Labels       []int `json:"labels,omitempty"`

	ScreenCTM []float64 `json:"screenCTM,omitempty"`
	CTM       []float64 `json:"ctm,omitempty"`
	Transform []float64 `json:"transform,omitempty"`

	// Chars holds one rectangle per UTF-16 code unit of a text node, nil
	// for code units without a box (collapsed whitespace).
	Chars []*geom.Rect `json:"chars,omitempty"`
}

// Attribute is an attribute with its qualified name, e.g. "xlink:href".
type Attribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Pseudo is a rendered ::before or ::after pseudo-element.
type Pseudo struct {
	Style  map[string]string `json:"style"`
	Bounds *geom.Rect        `json:"bounds,omitempty"`
	Chars  []*geom.Rect      `json:"chars,omitempty"`
}

// FontFace is the text of an @font-face rule and the URL of the stylesheet
// that declared it, which its relative URLs resolve against.
type FontFace struct {
	CSSText string `json:"cssText"`
	BaseURL string `json:"baseURL"`
}

// Decode reads a snapshot document.
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if doc.Root == nil {
		return nil, fmt.Errorf("decode snapshot: document has no root node")
	}
	return &doc, nil
}

// Load reads a snapshot document from a file.
func Load(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Encode writes the document as indented JSON.
func (d *Document) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return nil
}
