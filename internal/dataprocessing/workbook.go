package dataprocessing

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"salespulse/pkg/contracts/domain"
)

// yearSheetPattern matches worksheet tabs named after a calendar year
// ("2023", "2024", ...), the layout the sales workbook uses.
var yearSheetPattern = regexp.MustCompile(`^\d{4}$`)

// IsYearSheet reports whether a worksheet name is a year tab.
func IsYearSheet(name string) bool {
	return yearSheetPattern.MatchString(strings.TrimSpace(name))
}

// ReadWorkbook loads raw rows from a local XLSX workbook laid out like
// the online spreadsheet: one worksheet per year, first row headers.
// Worksheets that do not look like year tabs are skipped.
func ReadWorkbook(path string) ([]domain.RawRow, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := make([]string, 0, 4)
	for _, name := range f.GetSheetList() {
		if IsYearSheet(name) {
			sheets = append(sheets, name)
		}
	}
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook %s has no year worksheets", path)
	}
	sort.Strings(sheets)

	var rows []domain.RawRow
	for _, sheet := range sheets {
		sheetRows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("failed to read worksheet %s: %w", sheet, err)
		}
		rows = append(rows, RowsFromGrid(strings.TrimSpace(sheet), sheetRows)...)
	}
	return rows, nil
}

// ReadWorkbookSheet loads raw rows from one named worksheet of a local
// XLSX workbook. A missing worksheet is not an error: optional tabs
// (like a targets tab) simply yield no rows.
func ReadWorkbookSheet(path, sheet string) ([]domain.RawRow, error) {
	if sheet == "" {
		return nil, nil
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	grid, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil
	}
	return RowsFromGrid(sheet, grid), nil
}

// RowsFromGrid converts a worksheet's cell grid into RawRows, using
// the first non-empty row as the header. Row numbers are 1-based and
// count the header, matching what a human sees in the spreadsheet UI.
func RowsFromGrid(source string, grid [][]string) []domain.RawRow {
	headerIdx := -1
	var headers []string
	for i, row := range grid {
		if !emptyRow(row) {
			headerIdx = i
			headers = trimAll(row)
			break
		}
	}
	if headerIdx < 0 {
		return nil
	}

	rows := make([]domain.RawRow, 0, len(grid)-headerIdx-1)
	for i := headerIdx + 1; i < len(grid); i++ {
		if emptyRow(grid[i]) {
			continue
		}
		cells := make(map[string]string, len(headers))
		for j, header := range headers {
			if header == "" {
				continue
			}
			if j < len(grid[i]) {
				cells[header] = grid[i][j]
			}
		}
		rows = append(rows, domain.RawRow{
			Source: source,
			Number: i + 1,
			Cells:  cells,
		})
	}
	return rows
}

func emptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func trimAll(row []string) []string {
	out := make([]string, len(row))
	for i, cell := range row {
		out[i] = strings.TrimSpace(cell)
	}
	return out
}
