// backend/src/processors/statement_processor.go
package processors

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/username/clubtreso/backend/src/logger"
	"github.com/username/clubtreso/backend/src/models"
	"github.com/username/clubtreso/backend/src/utils"
)

// StatementProcessor turns raw parsed statement lines into transaction
// records ready for storage: trimmed text, normalized accounts, decimal
// amounts and a dedup fingerprint. Lines it cannot make sense of are dropped
// with a log entry rather than poisoning the batch.
type StatementProcessor struct {
	dedup *DedupProcessor
}

func NewStatementProcessor(dedup *DedupProcessor) *StatementProcessor {
	return &StatementProcessor{dedup: dedup}
}

// Process normalizes and fingerprints a parsed batch. Only records returned
// here are considered live transactions downstream.
func (p *StatementProcessor) Process(lines []models.RawBankLine) []models.Transaction {
	txs := make([]models.Transaction, 0, len(lines))
	for i, line := range lines {
		date, err := utils.ParseStatementDate(strings.TrimSpace(line.ExecutionDate))
		if err != nil {
			logger.L.Warn("Skipping statement line with unparseable date", "line", i+1, "date", line.ExecutionDate)
			continue
		}

		amount, err := parseAmount(line.Amount)
		if err != nil {
			logger.L.Warn("Skipping statement line with unparseable amount", "line", i+1, "amount", line.Amount)
			continue
		}

		tx := models.Transaction{
			ID:                  uuid.NewString(),
			ExecutionDate:       date,
			Amount:              amount,
			CounterpartyName:    strings.TrimSpace(line.CounterpartyName),
			CounterpartyAccount: utils.NormalizeAccount(line.CounterpartyAccount),
			Communication:       strings.TrimSpace(line.Communication),
			AccountNumber:       utils.NormalizeAccount(line.AccountNumber),
		}
		tx.DedupHash = p.dedup.Fingerprint(tx)
		txs = append(txs, tx)
	}
	return txs
}

// parseAmount accepts both "1234.56" and the "1.234,56" style some bank
// exports use.
func parseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	return decimal.NewFromString(s)
}
