// backend/src/parsers/statementxlsx/parser.go
package statementxlsx

import (
	"fmt"
	"io"
	"strings"

	"github.com/username/clubtreso/backend/src/models"
	"github.com/xuri/excelize/v2"
)

// XLSXParser reads the first sheet of a spreadsheet statement export. The
// header row must carry the same column names as the CSV export.
type XLSXParser struct{}

func NewParser() *XLSXParser {
	return &XLSXParser{}
}

func (p *XLSXParser) Parse(file io.Reader) ([]models.RawBankLine, error) {
	book, err := excelize.OpenReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := book.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheets[0])
	}

	columns := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		columns[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"date", "amount", "account_number"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("required column %q not found in sheet header", required)
		}
	}

	var lines []models.RawBankLine
	for _, row := range rows[1:] {
		if isEmptyRow(row) {
			continue
		}
		lines = append(lines, models.RawBankLine{
			ExecutionDate:       cell(row, columns, "date"),
			Amount:              cell(row, columns, "amount"),
			CounterpartyName:    cell(row, columns, "counterparty_name"),
			CounterpartyAccount: cell(row, columns, "counterparty_account"),
			Communication:       cell(row, columns, "communication"),
			AccountNumber:       cell(row, columns, "account_number"),
		})
	}
	return lines, nil
}

func cell(row []string, columns map[string]int, name string) string {
	if i, ok := columns[name]; ok && i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

func isEmptyRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
