// backend/src/models/models.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RawBankLine is a single parsed statement row as produced by the import
// parsers, before normalization and fingerprinting.
type RawBankLine struct {
	ExecutionDate       string `json:"execution_date"` // as printed on the statement
	Amount              string `json:"amount"`
	CounterpartyName    string `json:"counterparty_name"`
	CounterpartyAccount string `json:"counterparty_account"`
	Communication       string `json:"communication"`
	AccountNumber       string `json:"account_number"`
}

// MatchMode selects which kind of entity a candidate search targets.
type MatchMode string

const (
	ModeEvent       MatchMode = "event"
	ModeInscription MatchMode = "inscription"
	ModeExpense     MatchMode = "expense"
)

// MatchContext carries everything the scorer knows about the target entity.
// Every field besides Mode is optional; absent fields simply contribute no
// score.
type MatchContext struct {
	Mode         MatchMode        `json:"mode"`
	TargetAmount *decimal.Decimal `json:"target_amount,omitempty"`
	TargetName   string           `json:"target_name,omitempty"`
	TargetDate   *time.Time       `json:"target_date,omitempty"`
	EventDate    *time.Time       `json:"event_date,omitempty"`
}

// ScoredCandidate pairs a candidate transaction with its combined relevance
// score and the sub-scores it was built from.
type ScoredCandidate struct {
	Transaction Transaction `json:"transaction"`
	Score       float64     `json:"score"`
	AmountScore float64     `json:"amount_score"`
	NameScore   float64     `json:"name_score"`
	DateScore   float64     `json:"date_score"`
}

// AmountGroup is one bucket of the grouped-by-amount candidate view. The
// representative amount is the absolute amount of the first candidate
// assigned to the group.
type AmountGroup struct {
	Representative decimal.Decimal `json:"representative_amount"`
	Candidates     []Transaction   `json:"candidates"`
}

// DuplicateGroup is a set of records sharing one dedup fingerprint. All but
// one member are spurious re-imports; which one to keep is the operator's
// call, members are ordered by ID so "keep the first" is deterministic.
type DuplicateGroup struct {
	Hash    string        `json:"hash"`
	Records []Transaction `json:"records"`
}

// DuplicateLinkFinding reports one association key that appears more than
// once on a transaction, with the positions of every occurrence.
type DuplicateLinkFinding struct {
	Type     EntityType `json:"entity_type"`
	EntityID string     `json:"entity_id"`
	Indices  []int      `json:"indices"`
}

// LinkAuditReport aggregates a duplicate-link scan over a set of
// transactions.
type LinkAuditReport struct {
	Scanned        int `json:"scanned"`
	WithLinks      int `json:"with_links"`
	MultiLinked    int `json:"multi_linked"`    // more than one association
	WithDuplicates int `json:"with_duplicates"` // at least one duplicate key
	Repaired       int `json:"repaired"`        // only meaningful in fix mode

	Findings map[string][]DuplicateLinkFinding `json:"findings,omitempty"` // keyed by transaction ID
}

// CategorySuggestion is one proposed accounting code with the amount of
// historical evidence behind it.
type CategorySuggestion struct {
	AccountCode string `json:"account_code"`
	Count       int    `json:"count"`
	MatchReason string `json:"match_reason"`
}

// TotalsReport is the financial aggregation over the designated current
// account: parents and movements on other accounts do not count.
type TotalsReport struct {
	CurrentAccount string          `json:"current_account"`
	Eligible       int             `json:"eligible"`
	Total          decimal.Decimal `json:"total"`
}

// ImportResult summarizes one statement upload.
type ImportResult struct {
	BatchID    string `json:"batch_id"`
	Parsed     int    `json:"parsed"`
	Imported   int    `json:"imported"`
	Duplicates int    `json:"duplicates"` // lines skipped because their fingerprint is already stored
}
