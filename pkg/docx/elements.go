package docx

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// Table is a w:tbl element.
type Table struct{ el *etree.Element }

// Rows returns the table rows in order.
func (t *Table) Rows() []*Row {
	var out []*Row
	for _, el := range children(t.el, "tr") {
		out = append(out, &Row{el: el})
	}
	return out
}

// Text returns the text of all cells joined by newlines.
func (t *Table) Text() string {
	var parts []string
	for _, r := range t.Rows() {
		for _, c := range r.Cells() {
			parts = append(parts, c.Text())
		}
	}
	return strings.Join(parts, "\n")
}

// Contains reports whether any paragraph of the table contains s.
func (t *Table) Contains(s string) bool {
	for _, p := range t.Paragraphs() {
		if strings.Contains(p.Text(), s) {
			return true
		}
	}
	return false
}

// Paragraphs returns every paragraph of every cell, row by row.
func (t *Table) Paragraphs() []*Paragraph {
	var out []*Paragraph
	for _, r := range t.Rows() {
		for _, c := range r.Cells() {
			out = append(out, c.Paragraphs()...)
		}
	}
	return out
}

// gridWidths returns the w:gridCol widths in twips; zero when absent.
func (t *Table) gridWidths() []int {
	grid := child(t.el, "tblGrid")
	if grid == nil {
		return nil
	}
	var out []int
	for _, gc := range children(grid, "gridCol") {
		w, _ := strconv.Atoi(gc.SelectAttrValue("w:w", "0"))
		out = append(out, w)
	}
	return out
}

// ColumnCount is the grid column count, or the widest row when the grid is missing.
func (t *Table) ColumnCount() int {
	if n := len(t.gridWidths()); n > 0 {
		return n
	}
	n := 0
	for _, r := range t.Rows() {
		n = max(n, len(r.Cells()))
	}
	return n
}

// AddRow appends an empty row with one cell per grid column.
// Cells carry no borders; styling of appended rows is up to the caller.
func (t *Table) AddRow() *Row {
	tr := t.el.CreateElement("w:tr")
	widths := t.gridWidths()
	cols := t.ColumnCount()
	for i := 0; i < cols; i++ {
		tc := tr.CreateElement("w:tc")
		tcPr := tc.CreateElement("w:tcPr")
		tcW := tcPr.CreateElement("w:tcW")
		if i < len(widths) && widths[i] > 0 {
			tcW.CreateAttr("w:w", strconv.Itoa(widths[i]))
			tcW.CreateAttr("w:type", "dxa")
		} else {
			tcW.CreateAttr("w:w", "0")
			tcW.CreateAttr("w:type", "auto")
		}
		tc.CreateElement("w:p")
	}
	return &Row{el: tr}
}

// Row is a w:tr element.
type Row struct{ el *etree.Element }

// Cells returns the row cells in order.
func (r *Row) Cells() []*Cell {
	var out []*Cell
	for _, el := range children(r.el, "tc") {
		out = append(out, &Cell{el: el})
	}
	return out
}

// Cell is a w:tc element.
type Cell struct{ el *etree.Element }

// Paragraphs returns the cell paragraphs in order.
func (c *Cell) Paragraphs() []*Paragraph {
	var out []*Paragraph
	for _, el := range children(c.el, "p") {
		out = append(out, &Paragraph{el: el})
	}
	return out
}

// Text returns the cell text, paragraphs joined by newlines.
func (c *Cell) Text() string {
	var parts []string
	for _, p := range c.Paragraphs() {
		parts = append(parts, p.Text())
	}
	return strings.Join(parts, "\n")
}

// SetText puts s into the first paragraph and drops the others.
func (c *Cell) SetText(s string) *Paragraph {
	ps := c.Paragraphs()
	if len(ps) == 0 {
		p := &Paragraph{el: c.el.CreateElement("w:p")}
		p.SetText(s)
		return p
	}
	for _, extra := range ps[1:] {
		c.el.RemoveChild(extra.el)
	}
	ps[0].SetText(s)
	return ps[0]
}

// Border is one side of a cell border.
type Border struct {
	Val   string
	Size  int // eighths of a point
	Space int
	Color string
}

// SingleBlack is a thin single black line.
var SingleBlack = Border{Val: "single", Size: 4, Space: 0, Color: "000000"}

// SetBorders draws b on all four sides of the cell.
func (c *Cell) SetBorders(b Border) {
	tcPr := ensure(c.el, "tcPr", tcOrder)
	borders := ensure(tcPr, "tcBorders", tcPrOrder)
	for _, side := range []string{"top", "left", "bottom", "right"} {
		el := ensure(borders, side, tcBordersOrder)
		el.CreateAttr("w:val", b.Val)
		el.CreateAttr("w:sz", strconv.Itoa(b.Size))
		el.CreateAttr("w:space", strconv.Itoa(b.Space))
		el.CreateAttr("w:color", b.Color)
	}
}

// Borders returns the side→val map of explicit cell borders.
func (c *Cell) Borders() map[string]Border {
	out := map[string]Border{}
	tcPr := child(c.el, "tcPr")
	if tcPr == nil {
		return out
	}
	borders := child(tcPr, "tcBorders")
	if borders == nil {
		return out
	}
	for _, el := range borders.ChildElements() {
		sz, _ := strconv.Atoi(el.SelectAttrValue("w:sz", "0"))
		space, _ := strconv.Atoi(el.SelectAttrValue("w:space", "0"))
		out[el.Tag] = Border{
			Val:   el.SelectAttrValue("w:val", ""),
			Size:  sz,
			Space: space,
			Color: el.SelectAttrValue("w:color", ""),
		}
	}
	return out
}

// SetVerticalAlign sets w:vAlign ("top", "center", "bottom").
func (c *Cell) SetVerticalAlign(v string) {
	tcPr := ensure(c.el, "tcPr", tcOrder)
	ensure(tcPr, "vAlign", tcPrOrder).CreateAttr("w:val", v)
}

// VerticalAlign returns the w:vAlign value or empty string.
func (c *Cell) VerticalAlign() string {
	if tcPr := child(c.el, "tcPr"); tcPr != nil {
		if v := child(tcPr, "vAlign"); v != nil {
			return v.SelectAttrValue("w:val", "")
		}
	}
	return ""
}
