package acts

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ebase/internal/core/id"
	"ebase/internal/core/types"
	"ebase/internal/domain/catalogs/part"
	"ebase/internal/domain/equipment"
	"ebase/internal/domain/repair"
)

func strPtr(s string) *string { return &s }

func testSnapshot() *Snapshot {
	filter := part.NewPart("F-100", "Фильтр", "шт.", false)
	lamp := part.NewPart("L-7", "Лампа", "", true)

	rec := &repair.Record{
		Description: strPtr("Не включается"),
		JobContent:  strPtr("Заменён фильтр"),
		Engineer:    strPtr("Петров П. П."),
		BegDate:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     types.MustDate("2024-03-05"),
		Parts: []repair.PartUsage{
			{PartID: filter.ID, Quantity: types.NewQuantity(2)},
			{PartID: lamp.ID, ExpirationDate: types.MustDate("2026-01-01"), Quantity: types.NewQuantity(1)},
			{PartID: filter.ID, ExpirationDate: types.MustDate("2027-01-01"), Quantity: types.NewQuantity(1)},
		},
		Accessories: []repair.AccessoryUsage{{Name: "Кабель питания", Quantity: types.NewQuantity(1)}},
	}

	return &Snapshot{
		Record: rec,
		Card: &equipment.Card{
			AccountingID: id.New(),
			FullName:     "Анализатор ABC 2000",
			ShortName:    "ABC 2000/M",
			SerialNumber: "SN 0042",
			Client: &equipment.Client{
				Name:  "ООО Ромашка",
				INN:   strPtr("7701234567"),
				Phone: strPtr("8 (495) 123-45-67"),
			},
			Department: &equipment.Department{Name: "Лаборатория", City: strPtr("Москва")},
		},
		Parts: map[id.ID]*part.Part{filter.ID: filter, lamp.ID: lamp},
		Date:  rec.EndDate,
	}
}

func TestPlaceholders_Values(t *testing.T) {
	m := Placeholders(testSnapshot())

	assert.Equal(t, "ООО Ромашка", m[PhClient])
	assert.Equal(t, "7701234567", m[PhINN])
	assert.Equal(t, NoKPP, m[PhKPP])
	assert.Equal(t, "Лаборатория, Москва", m[PhDepartment])
	assert.Equal(t, "+7 495 123-45-67", m[PhPhone])
	assert.Equal(t, NoEmail, m[PhEmail])
	assert.Equal(t, NoContact, m[PhContact])
	assert.Equal(t, NoAddress, m[PhAddress])
	assert.Equal(t, "SN 0042", m[PhSerial])
	assert.Equal(t, "05.03.2024", m[PhDate])
	assert.Equal(t, "05", m[PhDay])
	assert.Equal(t, "марта", m[PhMonth])
	assert.Equal(t, "2024", m[PhYear])
	assert.Equal(t, NoReplacement, m[PhReplacement])
}

func TestPlaceholders_ContactOverridesClient(t *testing.T) {
	s := testSnapshot()
	s.Card.Contact = &equipment.Contact{
		Surname:    "Иванова",
		Name:       strPtr("Мария"),
		Patronymic: strPtr("Сергеевна"),
		Position:   strPtr("заведующая"),
		WorkPhone:  strPtr("+74951112233"),
		Email:      strPtr("lab@example.ru"),
	}
	s.Card.Department.Address = strPtr("ул. Ленина, 1")

	m := Placeholders(s)
	assert.Equal(t, "Иванова М. С.", m[PhContact])
	assert.Equal(t, "заведующая", m[PhPosition])
	assert.Equal(t, "+7 495 111-22-33", m[PhPhone])
	assert.Equal(t, "lab@example.ru", m[PhEmail])
	assert.Equal(t, "ул. Ленина, 1", m[PhAddress])
}

func TestPlaceholders_BlankDate(t *testing.T) {
	s := testSnapshot()
	s.Date = nil

	m := Placeholders(s)
	assert.Equal(t, blankDate, m[PhDate])
	assert.Equal(t, blankMonth, m[PhMonth])
}

func TestFormatPhone_KeepsUnparseable(t *testing.T) {
	assert.Equal(t, "доб. 12", FormatPhone("  доб. 12 "))
}

func TestMonthGenitive(t *testing.T) {
	assert.Equal(t, "января", MonthGenitive(time.January))
	assert.Equal(t, "декабря", MonthGenitive(time.December))
}

func TestPartItems_MergesLots(t *testing.T) {
	items := PartItems(testSnapshot())
	require.Len(t, items, 2)
	assert.Equal(t, Item{Title: "Фильтр (арт. F-100)", Quantity: "3 шт."}, items[0])
	assert.Equal(t, Item{Title: "Лампа (арт. L-7)", Quantity: "1"}, items[1])
}

func TestReplacementItems(t *testing.T) {
	s := testSnapshot()
	assert.Nil(t, ReplacementItems(s))

	s.Replacement = repair.NewReplacement("Анализатор XYZ", "R-1", []string{"Кабель"})
	items := ReplacementItems(s)
	require.Len(t, items, 2)
	assert.Equal(t, "Анализатор XYZ s/n R-1", items[0].Title)
	assert.Equal(t, "Кабель", items[1].Title)
}

func TestFileNameAndDir(t *testing.T) {
	desc := DefaultDescriptors()[repair.ActRepair]

	assert.Equal(t, "service_akt_SN_0042_05.03.2024.docx", FileName(desc, "SN 0042", types.MustDate("2024-03-05")))
	assert.Equal(t, "service_akt_SN_0042.docx", FileName(desc, "SN 0042", nil))
	assert.Equal(t, "ABC_2000-M", SanitizeDir("ABC 2000/M"))

	assert.Equal(t, "service_akt_SN_12-34_04.03.2025.docx", FileName(desc, "SN 12/34", types.MustDate("2025-03-04")))
	assert.Equal(t, "service_akt_A-B.docx", FileName(desc, `A\B`, nil))

	for input, want := range map[string]string{
		"..":    "__",
		".":     "_",
		"":      "_",
		" .. ":  "__",
		"../..": "..-..",
		"v1.2":  "v1.2",
	} {
		got := SanitizeDir(input)
		assert.Equal(t, want, got, "input %q", input)
		assert.NotEqual(t, "..", filepath.Clean(got), "input %q", input)
	}
}
