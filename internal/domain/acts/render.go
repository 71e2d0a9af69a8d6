package acts

import (
	"fmt"
	"sort"
	"strings"

	"ebase/internal/core/apperror"
	"ebase/pkg/docx"
)

type renderer struct {
	desc   *Descriptor
	snap   *Snapshot
	values map[string]string
	keys   []string
}

// Render fills an opened template in place. It fails with a TEMPLATE_ERROR
// when a required region cannot be located.
func Render(doc *docx.Document, desc *Descriptor, snap *Snapshot) error {
	r := &renderer{desc: desc, snap: snap, values: Placeholders(snap)}
	for k := range r.values {
		r.keys = append(r.keys, k)
	}
	sort.Strings(r.keys)

	// Regions are located before any substitution: anchors may be placeholders themselves.
	type found struct {
		region   Region
		table    *docx.Table
		byAnchor bool
	}
	tables := doc.Tables()
	var regions []found
	for _, reg := range desc.Regions {
		tbl, byAnchor := locate(tables, reg)
		if tbl == nil {
			if reg.Required {
				return apperror.NewTemplate(desc.Template, fmt.Sprintf("template has no %s table", reg.Role)).
					WithDetail("role", string(reg.Role))
			}
			continue
		}
		regions = append(regions, found{region: reg, table: tbl, byAnchor: byAnchor})
	}

	for _, f := range regions {
		var err error
		switch f.region.Role {
		case RoleRequisites:
			r.substitute(f.table.Paragraphs())
		case RoleDescription:
			err = r.fillText(f.table, f.region, f.byAnchor, deref(snap.Record.Description))
		case RoleWorkPerformed:
			err = r.fillText(f.table, f.region, f.byAnchor, deref(snap.Record.JobContent))
		case RoleParts:
			r.fillList(f.table, f.region, f.byAnchor, PartItems(snap))
		case RoleAccessories:
			r.fillList(f.table, f.region, f.byAnchor, AccessoryItems(snap))
		case RoleReplacement:
			r.fillList(f.table, f.region, f.byAnchor, ReplacementItems(snap))
		}
		if err != nil {
			return err
		}
	}

	r.substitute(doc.Paragraphs())
	return nil
}

func locate(tables []*docx.Table, reg Region) (*docx.Table, bool) {
	if reg.Anchor != "" {
		for _, t := range tables {
			if t.Contains(reg.Anchor) {
				return t, true
			}
		}
	}
	if reg.Index > 0 && reg.Index <= len(tables) {
		return tables[reg.Index-1], false
	}
	return nil, false
}

func (r *renderer) substitute(ps []*docx.Paragraph) {
	for _, p := range ps {
		changed, client := false, false
		for _, k := range r.keys {
			if p.Replace(k, r.values[k]) {
				changed = true
				client = client || k == PhClient
			}
		}
		if !changed {
			continue
		}
		r.style(p)
		if client {
			p.Runs()[0].SetBold(true)
		}
	}
}

func (r *renderer) fillText(tbl *docx.Table, reg Region, byAnchor bool, text string) error {
	if byAnchor {
		for _, p := range tbl.Paragraphs() {
			if p.Replace(reg.Anchor, text) {
				r.style(p)
			}
		}
		return nil
	}

	rows := tbl.Rows()
	if reg.Row < 1 || reg.Row > len(rows) {
		return apperror.NewTemplate(r.desc.Template,
			fmt.Sprintf("%s table has no row %d", reg.Role, reg.Row)).WithDetail("role", string(reg.Role))
	}
	cells := rows[reg.Row-1].Cells()
	if len(cells) == 0 {
		return apperror.NewTemplate(r.desc.Template,
			fmt.Sprintf("%s table row %d has no cells", reg.Role, reg.Row)).WithDetail("role", string(reg.Role))
	}
	r.style(cells[len(cells)-1].SetText(text))
	return nil
}

// fillList writes one item per row, appending bordered rows when the template
// has fewer. Template rows left over are cleared.
func (r *renderer) fillList(tbl *docx.Table, reg Region, byAnchor bool, items []Item) {
	rows := tbl.Rows()
	first := max(reg.FirstRow-1, 0)
	if byAnchor {
		for i, row := range rows {
			if hasText(row, reg.Anchor) {
				first = i + 1
				for _, c := range row.Cells() {
					for _, p := range c.Paragraphs() {
						p.Replace(reg.Anchor, "")
					}
				}
				break
			}
		}
	}

	for len(rows)-first < len(items) {
		row := tbl.AddRow()
		for _, c := range row.Cells() {
			c.SetBorders(docx.SingleBlack)
		}
		rows = append(rows, row)
	}

	for i := first; i < len(rows); i++ {
		cells := rows[i].Cells()
		if k := i - first; k < len(items) {
			r.writeItem(cells, k+1, items[k])
			continue
		}
		for _, c := range cells {
			if c.Text() != "" {
				c.SetText("")
			}
		}
	}
}

// writeItem lays out index, title and quantity over the available columns.
func (r *renderer) writeItem(cells []*docx.Cell, n int, it Item) {
	switch len(cells) {
	case 0:
	case 1:
		r.style(cells[0].SetText(fmt.Sprintf("%d. %s, %s", n, it.Title, it.Quantity)))
	case 2:
		r.style(cells[0].SetText(fmt.Sprintf("%d. %s", n, it.Title)))
		r.quantity(cells[1], it.Quantity)
	default:
		r.style(cells[0].SetText(fmt.Sprintf("%d", n)))
		r.style(cells[1].SetText(it.Title))
		r.quantity(cells[2], it.Quantity)
	}
}

func (r *renderer) quantity(c *docx.Cell, q string) {
	p := c.SetText(q)
	r.style(p)
	p.SetAlignment("center")
	c.SetVerticalAlign("center")
}

func (r *renderer) style(p *docx.Paragraph) {
	if r.desc.FontSize <= 0 {
		return
	}
	for _, run := range p.Runs() {
		run.SetFontSize(r.desc.FontSize)
	}
}

func hasText(row *docx.Row, s string) bool {
	for _, c := range row.Cells() {
		if strings.Contains(c.Text(), s) {
			return true
		}
	}
	return false
}
