package docx

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// Paragraph is a w:p element.
type Paragraph struct{ el *etree.Element }

// Runs returns the direct runs of the paragraph.
func (p *Paragraph) Runs() []*Run {
	var out []*Run
	for _, el := range children(p.el, "r") {
		out = append(out, &Run{el: el})
	}
	return out
}

// Text returns the visible text, including runs nested in hyperlinks and smart tags.
func (p *Paragraph) Text() string {
	var b strings.Builder
	collectText(p.el, &b)
	return b.String()
}

func collectText(el *etree.Element, b *strings.Builder) {
	for _, c := range el.ChildElements() {
		switch {
		case is(c, "t"):
			b.WriteString(c.Text())
		case is(c, "tab"):
			if is(el, "r") {
				b.WriteString("\t")
			}
		case is(c, "br"), is(c, "cr"):
			b.WriteString("\n")
		case is(c, "pPr"), is(c, "rPr"):
		default:
			collectText(c, b)
		}
	}
}

// SetText replaces the paragraph content with a single run holding s.
// Paragraph properties and the formatting of the first run survive; newlines become w:br.
func (p *Paragraph) SetText(s string) *Run {
	var rPr *etree.Element
	if runs := p.Runs(); len(runs) > 0 {
		if pr := child(runs[0].el, "rPr"); pr != nil {
			rPr = pr.Copy()
		}
	}

	for _, c := range p.el.ChildElements() {
		if !is(c, "pPr") {
			p.el.RemoveChild(c)
		}
	}

	r := p.el.CreateElement("w:r")
	if rPr != nil {
		r.AddChild(rPr)
	}
	for i, line := range strings.Split(s, "\n") {
		if i > 0 {
			r.CreateElement("w:br")
		}
		t := r.CreateElement("w:t")
		if strings.TrimSpace(line) != line {
			t.CreateAttr("xml:space", "preserve")
		}
		t.SetText(line)
	}
	return &Run{el: r}
}

// Replace substitutes every occurrence of old in the paragraph text.
// Placeholders split across runs by the editor are matched too; on a match
// the paragraph is rewritten as one run. Reports whether anything changed.
func (p *Paragraph) Replace(old, new string) bool {
	text := p.Text()
	if !strings.Contains(text, old) {
		return false
	}
	p.SetText(strings.ReplaceAll(text, old, new))
	return true
}

// SetAlignment sets w:jc ("left", "center", "right", "both").
func (p *Paragraph) SetAlignment(v string) {
	pPr := ensure(p.el, "pPr", pOrder)
	ensure(pPr, "jc", pPrOrder).CreateAttr("w:val", v)
}

// Alignment returns the w:jc value or empty string.
func (p *Paragraph) Alignment() string {
	if pPr := child(p.el, "pPr"); pPr != nil {
		if jc := child(pPr, "jc"); jc != nil {
			return jc.SelectAttrValue("w:val", "")
		}
	}
	return ""
}

// Run is a w:r element.
type Run struct{ el *etree.Element }

// Text returns the run text.
func (r *Run) Text() string {
	var b strings.Builder
	collectText(r.el, &b)
	return b.String()
}

// SetBold toggles w:b.
func (r *Run) SetBold(on bool) {
	rPr := ensure(r.el, "rPr", rOrder)
	if !on {
		if b := child(rPr, "b"); b != nil {
			rPr.RemoveChild(b)
		}
		return
	}
	ensure(rPr, "b", rPrOrder)
}

// Bold reports whether w:b is set and not switched off.
func (r *Run) Bold() bool {
	rPr := child(r.el, "rPr")
	if rPr == nil {
		return false
	}
	b := child(rPr, "b")
	if b == nil {
		return false
	}
	v := b.SelectAttrValue("w:val", "true")
	return v != "false" && v != "0"
}

// SetFontSize sets w:sz and w:szCs in half-points (22 = 11pt).
func (r *Run) SetFontSize(halfPoints int) {
	rPr := ensure(r.el, "rPr", rOrder)
	v := strconv.Itoa(halfPoints)
	ensure(rPr, "sz", rPrOrder).CreateAttr("w:val", v)
	ensure(rPr, "szCs", rPrOrder).CreateAttr("w:val", v)
}

// FontSize returns w:sz in half-points, 0 when inherited.
func (r *Run) FontSize() int {
	if rPr := child(r.el, "rPr"); rPr != nil {
		if sz := child(rPr, "sz"); sz != nil {
			v, _ := strconv.Atoi(sz.SelectAttrValue("w:val", "0"))
			return v
		}
	}
	return 0
}
