// backend/src/parsers/statementcsv/parser.go
package statementcsv

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/username/clubtreso/backend/src/models"
)

// Column headers expected in a statement export. Matching is
// case-insensitive and ignores surrounding whitespace.
const (
	colDate                = "date"
	colAmount              = "amount"
	colCounterpartyName    = "counterparty_name"
	colCounterpartyAccount = "counterparty_account"
	colCommunication       = "communication"
	colAccountNumber       = "account_number"
)

var requiredColumns = []string{colDate, colAmount, colAccountNumber}

type CSVParser struct{}

func NewParser() *CSVParser {
	return &CSVParser{}
}

func (p *CSVParser) Parse(file io.Reader) ([]models.RawBankLine, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	columns, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	var lines []models.RawBankLine
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}
		lines = append(lines, models.RawBankLine{
			ExecutionDate:       field(record, columns, colDate),
			Amount:              field(record, columns, colAmount),
			CounterpartyName:    field(record, columns, colCounterpartyName),
			CounterpartyAccount: field(record, columns, colCounterpartyAccount),
			Communication:       field(record, columns, colCommunication),
			AccountNumber:       field(record, columns, colAccountNumber),
		})
	}
	return lines, nil
}

func mapColumns(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, h := range header {
		columns[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range requiredColumns {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("required column %q not found in CSV header", required)
		}
	}
	return columns, nil
}

func field(record []string, columns map[string]int, name string) string {
	if i, ok := columns[name]; ok && i < len(record) {
		return strings.TrimSpace(record[i])
	}
	return ""
}
