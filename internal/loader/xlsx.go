// Package loader reads change-log workbooks. A workbook carries the report
// identifier in cell B1, column headers in row 2, and change rows below.
package loader

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/finreport-labs/balproc/internal/parser"
)

// Column headers, matched case-insensitively after trimming.
const (
	colChangeDate     = "change date"
	colArticleID      = "article id"
	colArticleName    = "article name"
	colAction         = "action"
	colAttributeValue = "attribute value"
)

// Workbook is the normalized content of one change-log file.
type Workbook struct {
	ReportID string
	Rows     []*parser.ChangeRow
}

// Read opens an .xlsx change-log file and normalizes its rows. Rows whose
// change-date cell is blank or unparseable are kept with a zero date; the
// processor skips them.
func Read(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets", path)
	}
	sheet := sheets[0]

	reportID, err := f.GetCellValue(sheet, "B1")
	if err != nil {
		return nil, fmt.Errorf("reading report ID cell: %w", err)
	}
	reportID = strings.TrimSpace(reportID)
	if reportID == "" {
		return nil, fmt.Errorf("workbook %s: no report ID in cell B1", path)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("workbook %s: missing header row", path)
	}

	cols, err := mapColumns(rows[1])
	if err != nil {
		return nil, fmt.Errorf("workbook %s: %w", path, err)
	}

	wb := &Workbook{ReportID: reportID}
	for i, cells := range rows[2:] {
		row := &parser.ChangeRow{
			// Spreadsheet row number: 1-based, after the two header rows.
			Line:          i + 3,
			ChangeDate:    parseDate(cols.get(cells, colChangeDate)),
			ArticleToken:  cols.get(cells, colArticleID),
			ArticleName:   cols.get(cells, colArticleName),
			ActionText:    cols.get(cells, colAction),
			AttributeText: cols.get(cells, colAttributeValue),
		}
		wb.Rows = append(wb.Rows, row)
	}
	return wb, nil
}

// columnIndex maps a normalized header name to its cell position.
type columnIndex map[string]int

func mapColumns(header []string) (columnIndex, error) {
	cols := columnIndex{}
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{colChangeDate, colArticleID} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}
	return cols, nil
}

func (c columnIndex) get(cells []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(cells) {
		return ""
	}
	return cells[i]
}

// Date layouts seen in exported workbooks.
var dateLayouts = []string{
	"02.01.2006",
	"2006-01-02",
	"02/01/2006",
	"01-02-06",
	"1/2/06 15:04",
}

// excelEpoch is the serial-date origin Excel uses (with the 1900 leap-year
// quirk folded in).
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// parseDate converts a change-date cell into a time. Returns the zero time
// when the cell is blank or not a date in any known representation.
func parseDate(cell string) time.Time {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return time.Time{}
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, cell); err == nil {
			return t
		}
	}

	// Raw Excel serial number.
	if serial, err := strconv.ParseFloat(cell, 64); err == nil && serial > 0 {
		return excelEpoch.Add(time.Duration(serial * float64(24*time.Hour)))
	}

	return time.Time{}
}
