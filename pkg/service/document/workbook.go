package document

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Vamsi1807/AI-Call-Center/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"github.com/xuri/excelize/v2"
)

// ParseWorkbook reads every sheet of an Excel workbook in workbook order.
// The first row of a sheet is its header; following rows become data rows
// and fully blank rows are skipped.
func ParseWorkbook(name string, r io.Reader) (*model.Document, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open workbook", goerr.V("document", name))
	}
	defer f.Close()

	doc := &model.Document{Name: name}
	for _, sheetName := range f.GetSheetList() {
		sheet, err := readSheet(f, sheetName)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read sheet",
				goerr.V("document", name),
				goerr.V("sheet", sheetName))
		}
		doc.Sheets = append(doc.Sheets, sheet)
	}
	return doc, nil
}

func readSheet(f *excelize.File, name string) (*model.Sheet, error) {
	formatted, err := f.GetRows(name)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get rows")
	}
	raw, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get raw rows")
	}

	sheet := &model.Sheet{Name: name}
	if len(formatted) == 0 {
		return sheet, nil
	}

	width := 0
	for _, row := range formatted {
		width = max(width, len(row))
	}
	header := headerNames(formatted[0], width)

	for i := 1; i < len(formatted); i++ {
		if isBlankRow(formatted[i]) {
			continue
		}

		row := make(model.Row, 0, width)
		for c, column := range header {
			display := cellAt(formatted, i, c)
			rawValue := cellAt(raw, i, c)

			axis, err := excelize.CoordinatesToCellName(c+1, i+1)
			if err != nil {
				return nil, goerr.Wrap(err, "invalid cell coordinates", goerr.V("row", i+1), goerr.V("col", c+1))
			}
			cellType, err := f.GetCellType(name, axis)
			if err != nil {
				return nil, goerr.Wrap(err, "failed to get cell type", goerr.V("cell", axis))
			}

			row = append(row, model.Cell{Column: column, Value: cellValue(cellType, display, rawValue)})
		}
		sheet.Rows = append(sheet.Rows, row)
	}

	return sheet, nil
}

// headerNames names every column the way spreadsheet tools do: blank
// headers become "Unnamed: <index>" and repeated names get a ".N" suffix.
func headerNames(row []string, width int) []string {
	names := make([]string, width)
	seen := make(map[string]int, width)
	for i := 0; i < width; i++ {
		name := ""
		if i < len(row) {
			name = strings.TrimSpace(row[i])
		}
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if n, ok := seen[name]; ok {
			seen[name] = n + 1
			name = fmt.Sprintf("%s.%d", name, n+1)
		} else {
			seen[name] = 0
		}
		names[i] = name
	}
	return names
}

func cellAt(rows [][]string, r, c int) string {
	if r >= len(rows) || c >= len(rows[r]) {
		return ""
	}
	return rows[r][c]
}

func isBlankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func cellValue(cellType excelize.CellType, display, raw string) model.Value {
	if display == "" && raw == "" {
		return model.NullValue()
	}

	switch cellType {
	case excelize.CellTypeBool:
		return model.BoolValue(raw == "1" || strings.EqualFold(raw, "true"))

	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		// Dates and other formatted numbers keep their display text
		if _, err := strconv.ParseFloat(display, 64); err == nil {
			if n, err := strconv.ParseFloat(raw, 64); err == nil {
				return model.NumberValue(n)
			}
		}
		return model.StringValue(display)

	default:
		return model.StringValue(display)
	}
}
