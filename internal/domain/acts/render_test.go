package acts

import (
	"bytes"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ebase/internal/core/apperror"
	"ebase/internal/domain/repair"
	"ebase/pkg/docx"
)

func cell(text string) string {
	return `<w:tc><w:p><w:r><w:t xml:space="preserve">` + text + `</w:t></w:r></w:p></w:tc>`
}

func row(texts ...string) string {
	var b strings.Builder
	b.WriteString("<w:tr>")
	for _, t := range texts {
		b.WriteString(cell(t))
	}
	b.WriteString("</w:tr>")
	return b.String()
}

func table(cols int, rows ...string) string {
	var b strings.Builder
	b.WriteString("<w:tbl><w:tblGrid>")
	for i := 0; i < cols; i++ {
		b.WriteString(`<w:gridCol w:w="1000"/>`)
	}
	b.WriteString("</w:tblGrid>")
	for _, r := range rows {
		b.WriteString(r)
	}
	b.WriteString("</w:tbl>")
	return b.String()
}

func docxBytes(t *testing.T, blocks ...string) []byte {
	t.Helper()
	body := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		strings.Join(blocks, "") + `<w:sectPr/></w:body></w:document>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// legacyTemplate mirrors the positional layout of the service act.
func legacyTemplate(t *testing.T) *docx.Document {
	doc, err := docx.Read(docxBytes(t, legacyBlocks()...))
	require.NoError(t, err)
	return doc
}

func legacyBlocks() []string {
	return []string{
		`<w:p><w:r><w:t>Акт от {{ DAY }} {{ MONTH }} {{ YEAR }} г.</w:t></w:r></w:p>`,
		table(2,
			row("Заказчик:", "{{ CLIENT }}"),
			row("ИНН/КПП:", "{{ INN }} / {{ KPP }}"),
			row("Оборудование:", "{{ EQUIPMENT }} s/n {{ SERIAL_NUM }}"),
		),
		table(1, row("Описание"), row(""), row(""), row("описание неисправности")),
		table(1, row("работы")),
		table(1, row("запчасть")),
	}
}

func TestRender_LegacyLayout(t *testing.T) {
	doc := legacyTemplate(t)
	desc := DefaultDescriptors()[repair.ActRepair]

	require.NoError(t, Render(doc, desc, testSnapshot()))

	assert.Equal(t, "Акт от 05 марта 2024 г.", doc.Paragraphs()[0].Text())

	tables := doc.Tables()
	req := tables[0].Rows()
	client := req[0].Cells()[1].Paragraphs()[0]
	assert.Equal(t, "ООО Ромашка", client.Text())
	assert.True(t, client.Runs()[0].Bold())
	assert.Equal(t, 20, client.Runs()[0].FontSize())
	assert.Equal(t, "7701234567 / "+NoKPP, req[1].Cells()[1].Text())
	assert.Equal(t, "Анализатор ABC 2000 s/n SN 0042", req[2].Cells()[1].Text())

	assert.Equal(t, "Не включается", tables[1].Rows()[3].Cells()[0].Text())
	assert.Equal(t, "Заменён фильтр", tables[2].Rows()[0].Cells()[0].Text())

	parts := tables[3].Rows()
	require.Len(t, parts, 2, "one row appended for the second part")
	assert.Equal(t, "1. Фильтр (арт. F-100), 3 шт.", parts[0].Cells()[0].Text())
	assert.Equal(t, "2. Лампа (арт. L-7), 1", parts[1].Cells()[0].Text())

	assert.Empty(t, parts[0].Cells()[0].Borders(), "template rows keep their own style")
	borders := parts[1].Cells()[0].Borders()
	for _, side := range []string{"top", "left", "bottom", "right"} {
		assert.Equal(t, docx.SingleBlack, borders[side], side)
	}
}

func TestRender_AnchoredLists(t *testing.T) {
	doc, err := docx.Read(docxBytes(t,
		table(2, row("Заказчик", "{{ CLIENT }}")),
		table(3, row("№", "Принадлежности {{ ACCESSORIES }}", "Кол-во"), row("", "", ""), row("", "старое", "")),
		table(3, row("№", "Подменное оборудование {{ REPLACEMENT_ITEMS }}", "Кол-во")),
	))
	require.NoError(t, err)

	snap := testSnapshot()
	snap.Replacement = repair.NewReplacement("Анализатор XYZ", "R-1", []string{"Кабель", "Сумка"})

	require.NoError(t, Render(doc, DefaultDescriptors()[repair.ActTransferIn], snap))

	acc := doc.Tables()[1].Rows()
	require.Len(t, acc, 3)
	assert.Equal(t, "Принадлежности ", acc[0].Cells()[1].Text())
	assert.Equal(t, []string{"1", "Кабель питания", "1"}, texts(acc[1]))
	assert.Equal(t, []string{"", "", ""}, texts(acc[2]), "unused template rows are cleared")

	repl := doc.Tables()[2].Rows()
	require.Len(t, repl, 4)
	assert.Equal(t, []string{"1", "Анализатор XYZ s/n R-1", "1"}, texts(repl[1]))
	assert.Equal(t, []string{"3", "Сумка", "1"}, texts(repl[3]))

	qty := repl[3].Cells()[2]
	assert.Equal(t, "center", qty.VerticalAlign())
	assert.Equal(t, "center", qty.Paragraphs()[0].Alignment())
	assert.Equal(t, docx.SingleBlack, qty.Borders()["top"])
}

func TestRender_MissingRequiredRegion(t *testing.T) {
	doc, err := docx.Read(docxBytes(t, table(1, row("no placeholders"))))
	require.NoError(t, err)

	err = Render(doc, DefaultDescriptors()[repair.ActRepair], testSnapshot())
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeTemplate))
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, string(RoleDescription), appErr.Details["role"])
}

func TestRender_Deterministic(t *testing.T) {
	render := func() []byte {
		doc := legacyTemplate(t)
		require.NoError(t, Render(doc, DefaultDescriptors()[repair.ActRepair], testSnapshot()))
		b, err := doc.Bytes()
		require.NoError(t, err)
		return b
	}
	assert.Equal(t, render(), render())
}

func texts(r *docx.Row) []string {
	var out []string
	for _, c := range r.Cells() {
		out = append(out, c.Text())
	}
	return out
}
