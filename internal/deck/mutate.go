package deck

import (
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

// latinRunExpr selects the explicit latin font of every text run. Slide
// elements are namespace-prefixed (a:r, a:rPr, a:latin), so the test is on
// local names. Paragraph end-mark properties (endParaRPr) and field runs
// are deliberately not matched.
var latinRunExpr = xpath.MustCompile(
	"//*[local-name()='r']/*[local-name()='rPr']/*[local-name()='latin']")

// RemoveShape deletes the first shape with the given name from the given
// slide. The match is exact and covers every shape-tree child kind (shapes,
// pictures, graphic frames, connectors, groups). It reports whether a shape
// was removed; a miss is not an error.
func (d *Document) RemoveShape(slideNumber int, name string) bool {
	sp := d.slideByNumber(slideNumber)
	if sp == nil {
		return false
	}
	sld := childElem(sp.root, "sld")
	if sld == nil {
		return false
	}
	tree := spTree(sld)
	if tree == nil {
		return false
	}
	for n := tree.FirstChild; n != nil; n = n.NextSibling {
		if n.Type != xmlquery.ElementNode || !shapeContainers[n.Data] {
			continue
		}
		if shapeName(n) != name {
			continue
		}
		xmlquery.RemoveFromTree(n)
		sp.dirty = true
		return true
	}
	return false
}

// ReplaceFont rewrites the latin typeface of every text run whose explicit
// font equals from (case-insensitive) to use to, across all slides. Runs
// that inherit their font and theme references are left alone. Returns the
// number of runs rewritten.
func (d *Document) ReplaceFont(from, to string) int {
	replaced := 0
	for _, sp := range d.slides {
		n := 0
		for _, latin := range xmlquery.QuerySelectorAll(sp.root, latinRunExpr) {
			tf := normalizeTypeface(latin.SelectAttr("typeface"))
			if tf == "" || !strings.EqualFold(tf, from) {
				continue
			}
			latin.SetAttr("typeface", to)
			n++
		}
		if n > 0 {
			sp.dirty = true
			replaced += n
		}
	}
	return replaced
}
