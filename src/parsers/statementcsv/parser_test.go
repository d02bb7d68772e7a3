package statementcsv

import (
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	input := strings.Join([]string{
		"Date,Amount,Counterparty_Name,Counterparty_Account,Communication,Account_Number",
		"2025-03-01,-45.50,CLUB X,BE68 5390 0754 7034,COTISATION,BE71096123456769",
		"2025-03-02,120.00,DUPONT MARIE,BE00111122223333,INSCRIPTION ZELANDE,BE71096123456769",
	}, "\n")

	lines, err := NewParser().Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].Amount != "-45.50" || lines[0].Communication != "COTISATION" {
		t.Errorf("unexpected first line: %+v", lines[0])
	}
	if lines[1].CounterpartyName != "DUPONT MARIE" {
		t.Errorf("unexpected second line: %+v", lines[1])
	}
}

func TestParseHeaderCaseInsensitive(t *testing.T) {
	input := "DATE,AMOUNT,ACCOUNT_NUMBER\n2025-01-01,10.00,BE71096123456769\n"
	lines, err := NewParser().Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lines) != 1 || lines[0].Amount != "10.00" {
		t.Errorf("unexpected result: %+v", lines)
	}
}

func TestParseMissingRequiredColumn(t *testing.T) {
	input := "date,communication\n2025-01-01,hello\n"
	if _, err := NewParser().Parse(strings.NewReader(input)); err == nil {
		t.Error("expected error for missing amount column, got nil")
	}
}
