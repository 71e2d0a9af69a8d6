// Package export renders ledger listings into spreadsheet files.
package export

import (
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"ebase/internal/core/types"
	"ebase/internal/domain/registers/stock"
)

// ContentTypeXLSX is the MIME type of the produced workbook.
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	stockSheet    = "Остаток запчастей"
	maxColumnWide = 50
)

var stockHeaders = []string{"Артикул", "Наименование", "Ед.изм.", "Годен до", "Количество", "Не просрочено"}

// StockXLSX writes ledger rows as a workbook with a bold centered header.
func StockXLSX(w io.Writer, rows []stock.EntryView) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", stockSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	widths := make([]int, len(stockHeaders))
	for col, h := range stockHeaders {
		if err := setCell(f, col, 1, h, widths); err != nil {
			return err
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(stockHeaders), 1)
	if err := f.SetCellStyle(stockSheet, "A1", last, header); err != nil {
		return fmt.Errorf("apply header style: %w", err)
	}

	for i, r := range rows {
		values := []any{
			r.Article,
			r.Name,
			r.Unit,
			types.FormatDate(r.ExpirationDate),
			r.Quantity.Float64(),
			yesNo(!r.IsOverdue),
		}
		for col, v := range values {
			if err := setCell(f, col, i+2, v, widths); err != nil {
				return err
			}
		}
	}

	for col, width := range widths {
		name, _ := excelize.ColumnNumberToName(col + 1)
		if err := f.SetColWidth(stockSheet, name, name, float64(min(width+2, maxColumnWide))); err != nil {
			return fmt.Errorf("column width: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func setCell(f *excelize.File, col, row int, v any, widths []int) error {
	cell, err := excelize.CoordinatesToCellName(col+1, row)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	if err := f.SetCellValue(stockSheet, cell, v); err != nil {
		return fmt.Errorf("set %s: %w", cell, err)
	}
	widths[col] = max(widths[col], utf8.RuneCountInString(fmt.Sprint(v)))
	return nil
}

func yesNo(b bool) string {
	if b {
		return "Да"
	}
	return "Нет"
}
