package deck

import (
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
)

// Slide is a read view of one slide.
type Slide struct {
	Number int  // 1-based position in presentation order
	Hidden bool // p:sld show="0"
	Shapes []Shape
}

// Shape is a read view of one top-level shape-tree child.
type Shape struct {
	SlideNumber int
	Name        string
	Kind        string // element local name: sp, pic, graphicFrame, cxnSp, grpSp
	X, Y, W, H  int64  // EMU; valid only when HasFrame
	HasFrame    bool   // explicit a:xfrm present
	TextBox     *TextBox
}

// TextBox is the text body of a shape.
type TextBox struct {
	Paragraphs []Paragraph
}

// Paragraph is one a:p element.
type Paragraph struct {
	Runs []TextRun
}

// TextRun is one a:r portion: its text and its explicit latin font, if any.
type TextRun struct {
	Text     string
	FontName string // empty when inherited or a theme reference (+mj-lt, +mn-lt)
}

// Text returns the concatenated text of all runs in the box.
func (t *TextBox) Text() string {
	var b strings.Builder
	for _, p := range t.Paragraphs {
		for _, r := range p.Runs {
			b.WriteString(r.Text)
		}
	}
	return b.String()
}

// shapeContainers are the spTree children that carry a name and a frame.
var shapeContainers = map[string]bool{
	"sp":           true,
	"pic":          true,
	"graphicFrame": true,
	"cxnSp":        true,
	"grpSp":        true,
}

// Slides builds read views for every slide in presentation order.
func (d *Document) Slides() []Slide {
	slides := make([]Slide, 0, len(d.slides))
	for _, sp := range d.slides {
		slides = append(slides, sp.view())
	}
	return slides
}

func (sp *slidePart) view() Slide {
	s := Slide{Number: sp.number}
	sld := childElem(sp.root, "sld")
	if sld == nil {
		return s
	}
	s.Hidden = sld.SelectAttr("show") == "0"
	tree := spTree(sld)
	if tree == nil {
		return s
	}
	for n := tree.FirstChild; n != nil; n = n.NextSibling {
		if n.Type != xmlquery.ElementNode || !shapeContainers[n.Data] {
			continue
		}
		s.Shapes = append(s.Shapes, shapeView(n, sp.number))
	}
	return s
}

func spTree(sld *xmlquery.Node) *xmlquery.Node {
	cSld := childElem(sld, "cSld")
	if cSld == nil {
		return nil
	}
	return childElem(cSld, "spTree")
}

func shapeView(n *xmlquery.Node, slideNumber int) Shape {
	s := Shape{
		SlideNumber: slideNumber,
		Name:        shapeName(n),
		Kind:        n.Data,
	}
	s.X, s.Y, s.W, s.H, s.HasFrame = shapeFrame(n)
	if n.Data == "sp" {
		if tx := childElem(n, "txBody"); tx != nil {
			s.TextBox = textBoxView(tx)
		}
	}
	return s
}

// shapeName finds the cNvPr name inside the shape's non-visual property
// group (nvSpPr, nvPicPr, nvGraphicFramePr, nvCxnSpPr, nvGrpSpPr).
func shapeName(n *xmlquery.Node) string {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != xmlquery.ElementNode {
			continue
		}
		if !strings.HasPrefix(c.Data, "nv") || !strings.HasSuffix(c.Data, "Pr") {
			continue
		}
		if cNvPr := childElem(c, "cNvPr"); cNvPr != nil {
			return cNvPr.SelectAttr("name")
		}
	}
	return ""
}

// shapeFrame locates the shape's a:xfrm. Plain shapes and pictures carry it
// under spPr, groups under grpSpPr, graphic frames directly.
func shapeFrame(n *xmlquery.Node) (x, y, w, h int64, ok bool) {
	var xfrm *xmlquery.Node
	if spPr := childElem(n, "spPr"); spPr != nil {
		xfrm = childElem(spPr, "xfrm")
	}
	if xfrm == nil {
		if grpSpPr := childElem(n, "grpSpPr"); grpSpPr != nil {
			xfrm = childElem(grpSpPr, "xfrm")
		}
	}
	if xfrm == nil {
		xfrm = childElem(n, "xfrm")
	}
	if xfrm == nil {
		return 0, 0, 0, 0, false
	}
	off := childElem(xfrm, "off")
	ext := childElem(xfrm, "ext")
	if off == nil || ext == nil {
		return 0, 0, 0, 0, false
	}
	x = parseEMU(off.SelectAttr("x"))
	y = parseEMU(off.SelectAttr("y"))
	w = parseEMU(ext.SelectAttr("cx"))
	h = parseEMU(ext.SelectAttr("cy"))
	return x, y, w, h, true
}

func textBoxView(tx *xmlquery.Node) *TextBox {
	tb := &TextBox{}
	for p := tx.FirstChild; p != nil; p = p.NextSibling {
		if p.Type != xmlquery.ElementNode || p.Data != "p" {
			continue
		}
		para := Paragraph{}
		for r := p.FirstChild; r != nil; r = r.NextSibling {
			if r.Type != xmlquery.ElementNode || r.Data != "r" {
				continue
			}
			para.Runs = append(para.Runs, TextRun{
				Text:     runText(r),
				FontName: runFont(r),
			})
		}
		tb.Paragraphs = append(tb.Paragraphs, para)
	}
	return tb
}

func runText(r *xmlquery.Node) string {
	t := childElem(r, "t")
	if t == nil {
		return ""
	}
	return t.InnerText()
}

func runFont(r *xmlquery.Node) string {
	rPr := childElem(r, "rPr")
	if rPr == nil {
		return ""
	}
	latin := childElem(rPr, "latin")
	if latin == nil {
		return ""
	}
	return normalizeTypeface(latin.SelectAttr("typeface"))
}

// normalizeTypeface drops theme references like +mj-lt and +mn-lt, which
// name a slot in the theme rather than a font.
func normalizeTypeface(typeface string) string {
	if strings.HasPrefix(typeface, "+") {
		return ""
	}
	return typeface
}

// childElem returns the first element child with the given local name,
// ignoring namespace prefixes.
func childElem(n *xmlquery.Node, local string) *xmlquery.Node {
	if n == nil {
		return nil
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode && c.Data == local {
			return c
		}
	}
	return nil
}

func parseEMU(s string) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return v
}
