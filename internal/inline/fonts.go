// internal/inline/fonts.go
package inline

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
	"github.com/beevik/etree"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/xkilldash9x/domsvg/internal/cssvalue"
	"github.com/xkilldash9x/domsvg/internal/snapshot"
)

// fontSource is one url() inside the src descriptor of an @font-face rule.
type fontSource struct {
	decl *css.Declaration
	raw  string // source text of the url() call
	abs  string
}

// InlineFontFaces embeds the sources of the given @font-face rules and adds
// the rewritten rules to svg as a <style> element. Sources that cannot be
// fetched keep their absolute URL.
func (in *Inliner) InlineFontFaces(ctx context.Context, svg *etree.Element, faces []snapshot.FontFace) Report {
	var (
		report  Report
		rules   []*css.Rule
		sources []fontSource
		order   []string
		seen    = make(map[string]bool)
	)

	for _, face := range faces {
		sheet, err := parser.Parse(face.CSSText)
		if err != nil {
			report.Failed++
			report.Err = multierr.Append(report.Err, fmt.Errorf("parse @font-face: %w", err))
			in.logger.Warn("Skipping unparsable @font-face rule.", zap.Error(err))
			continue
		}
		base, _ := url.Parse(face.BaseURL)
		for _, rule := range sheet.Rules {
			if rule.Kind != css.AtRule || !strings.EqualFold(strings.TrimPrefix(rule.Name, "@"), "font-face") {
				continue
			}
			rules = append(rules, rule)
			for _, decl := range rule.Declarations {
				if !strings.EqualFold(decl.Property, "src") {
					continue
				}
				for _, fn := range cssvalue.Functions(decl.Value) {
					ref, ok := fn.URL()
					if !ok || !isRemote(ref) {
						continue
					}
					abs := resolveAgainst(base, ref)
					sources = append(sources, fontSource{decl: decl, raw: fn.Raw, abs: abs})
					if !seen[abs] {
						seen[abs] = true
						order = append(order, abs)
					}
				}
			}
		}
	}
	if len(rules) == 0 {
		return report
	}

	in.logger.Debug("Inlining font faces.", zap.Int("rules", len(rules)), zap.Int("resources", len(order)))
	data, fetched := in.fetchAll(ctx, order, fontResource)
	report.merge(fetched)

	for _, src := range sources {
		target := src.abs
		if uri, ok := data[src.abs]; ok {
			target = uri
		}
		src.decl.Value = strings.Replace(src.decl.Value, src.raw, `url("`+target+`")`, 1)
	}

	var text strings.Builder
	for _, rule := range rules {
		writeFontFace(&text, rule)
	}
	style := etree.NewElement("style")
	style.CreateAttr("type", "text/css")
	style.SetText(text.String())
	svg.InsertChildAt(0, style)
	return report
}

func writeFontFace(b *strings.Builder, rule *css.Rule) {
	b.WriteString("@font-face {")
	for _, decl := range rule.Declarations {
		b.WriteString(" ")
		b.WriteString(decl.Property)
		b.WriteString(": ")
		b.WriteString(decl.Value)
		if decl.Important {
			b.WriteString(" !important")
		}
		b.WriteString(";")
	}
	b.WriteString(" }\n")
}

func resolveAgainst(base *url.URL, ref string) string {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil || base == nil {
		return ref
	}
	return base.ResolveReference(u).String()
}
