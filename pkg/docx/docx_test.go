package docx

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBody = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:rPr><w:b/></w:rPr><w:t>Акт № {{ NUM</w:t></w:r><w:r><w:t xml:space="preserve"> }} от {{ DATE }}</w:t></w:r></w:p>
<w:tbl>
<w:tblGrid><w:gridCol w:w="600"/><w:gridCol w:w="4000"/><w:gridCol w:w="1200"/></w:tblGrid>
<w:tr><w:tc><w:p><w:r><w:t>№</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>Наименование</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>Кол-во</w:t></w:r></w:p></w:tc></w:tr>
</w:tbl>
<w:sdt><w:sdtContent><w:p><w:r><w:t>inside</w:t><w:tab/><w:t>control</w:t></w:r></w:p></w:sdtContent></w:sdt>
<w:sectPr/>
</w:body>
</w:document>`

func buildDocx(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	files := []struct{ name, data string }{
		{"[Content_Types].xml", `<?xml version="1.0"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`},
		{"_rels/.rels", `<?xml version="1.0"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"/>`},
		{"word/document.xml", body},
	}
	for _, f := range files {
		w, err := zw.Create(f.name)
		require.NoError(t, err)
		_, err = w.Write([]byte(f.data))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestRead_Structure(t *testing.T) {
	d, err := Read(buildDocx(t, testBody))
	require.NoError(t, err)

	ps := d.Paragraphs()
	require.Len(t, ps, 2)
	assert.Equal(t, "Акт № {{ NUM }} от {{ DATE }}", ps[0].Text())
	assert.Equal(t, "inside\tcontrol", ps[1].Text())

	tables := d.Tables()
	require.Len(t, tables, 1)
	assert.Equal(t, 3, tables[0].ColumnCount())
	assert.True(t, tables[0].Contains("Наименование"))
	assert.False(t, tables[0].Contains("{{"))
}

func TestRead_Rejects(t *testing.T) {
	_, err := Read([]byte("not a zip"))
	assert.Error(t, err)

	_, err = Read(buildDocx(t, `<w:document xmlns:w="x"><w:other/></w:document>`))
	assert.Error(t, err)
}

func TestParagraph_ReplaceAcrossRuns(t *testing.T) {
	d, err := Read(buildDocx(t, testBody))
	require.NoError(t, err)

	p := d.Paragraphs()[0]
	assert.True(t, p.Replace("{{ NUM }}", "17"))
	assert.True(t, p.Replace("{{ DATE }}", "«5» марта 2024 г."))
	assert.False(t, p.Replace("{{ MISSING }}", "x"))

	assert.Equal(t, "Акт № 17 от «5» марта 2024 г.", p.Text())
	runs := p.Runs()
	require.Len(t, runs, 1)
	assert.True(t, runs[0].Bold(), "first run formatting is kept")
}

func TestParagraph_SetTextMultiline(t *testing.T) {
	d, err := Read(buildDocx(t, testBody))
	require.NoError(t, err)

	p := d.Paragraphs()[0]
	p.SetText("first\nsecond")
	assert.Equal(t, "first\nsecond", p.Text())

	p.SetAlignment("center")
	assert.Equal(t, "center", p.Alignment())
}

func TestRun_Formatting(t *testing.T) {
	d, err := Read(buildDocx(t, testBody))
	require.NoError(t, err)

	r := d.Paragraphs()[1].Runs()[0]
	assert.False(t, r.Bold())
	assert.Zero(t, r.FontSize())

	r.SetFontSize(20)
	r.SetBold(true)
	assert.Equal(t, 20, r.FontSize())
	assert.True(t, r.Bold())

	// b precedes sz inside rPr
	rPr := child(r.el, "rPr")
	tags := []string{}
	for _, el := range rPr.ChildElements() {
		tags = append(tags, el.Tag)
	}
	assert.Equal(t, []string{"b", "sz", "szCs"}, tags)

	r.SetBold(false)
	assert.False(t, r.Bold())
}

func TestTable_AddRowWithBorders(t *testing.T) {
	d, err := Read(buildDocx(t, testBody))
	require.NoError(t, err)

	tbl := d.Tables()[0]
	row := tbl.AddRow()
	cells := row.Cells()
	require.Len(t, cells, 3)

	for i, text := range []string{"1", "Фильтр", "2"} {
		cells[i].SetText(text)
		cells[i].SetBorders(SingleBlack)
	}
	cells[2].SetVerticalAlign("center")
	cells[2].Paragraphs()[0].SetAlignment("center")

	require.Len(t, tbl.Rows(), 2)
	assert.Equal(t, "Фильтр", tbl.Rows()[1].Cells()[1].Text())
	assert.Equal(t, "center", cells[2].VerticalAlign())

	borders := cells[0].Borders()
	for _, side := range []string{"top", "left", "bottom", "right"} {
		assert.Equal(t, SingleBlack, borders[side], side)
	}

	// tcPr children keep schema order: tcW, tcBorders, vAlign
	tcPr := child(cells[2].el, "tcPr")
	var tags []string
	for _, el := range tcPr.ChildElements() {
		tags = append(tags, el.Tag)
	}
	assert.Equal(t, []string{"tcW", "tcBorders", "vAlign"}, tags)
}

func TestDocument_SaveRoundTrip(t *testing.T) {
	d, err := Read(buildDocx(t, testBody))
	require.NoError(t, err)
	d.Paragraphs()[0].Replace("{{ NUM }}", "42")

	path := filepath.Join(t.TempDir(), "act.docx")
	require.NoError(t, d.Save(path))

	reopened, err := Open(path)
	require.NoError(t, err)
	assert.Contains(t, reopened.Paragraphs()[0].Text(), "№ 42 от")

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file is cleaned up")

	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"[Content_Types].xml", "_rels/.rels", "word/document.xml"}, names)
}
