// backend/src/processors/category_processor.go
package processors

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/username/clubtreso/backend/src/models"
	"github.com/username/clubtreso/backend/src/utils"
)

const (
	reasonKeyword          = "keyword match"
	reasonAmount           = "amount match"
	reasonKeywordAndAmount = "keyword and amount match"
)

// CategoryProcessor proposes accounting codes for an unlabeled transaction
// from transactions an operator already categorized. Advisory only: it never
// assigns a code itself.
type CategoryProcessor struct {
	keywordMinLength   int
	amountTolerancePct decimal.Decimal
}

// NewCategoryProcessor configures the matcher. keywordMinLength drops short
// noise tokens from communications; amountTolerancePct is the relative
// band (in percent) within which two amounts count as similar.
func NewCategoryProcessor(keywordMinLength int, amountTolerancePct float64) *CategoryProcessor {
	if keywordMinLength < 1 {
		keywordMinLength = 1
	}
	return &CategoryProcessor{
		keywordMinLength:   keywordMinLength,
		amountTolerancePct: decimal.NewFromFloat(amountTolerancePct),
	}
}

// Suggest searches the categorized history for transactions sharing keywords
// with the target's communication or counterparty, or a similar amount, and
// aggregates the supporting evidence per account code. Results come back
// ordered by supporting count descending; equal counts order by code so the
// list is reproducible.
func (p *CategoryProcessor) Suggest(tx models.Transaction, history []models.Transaction) []models.CategorySuggestion {
	keywords := p.keywords(tx)

	type evidence struct {
		count     int
		byKeyword bool
		byAmount  bool
	}
	support := make(map[string]*evidence)

	for _, past := range history {
		if past.AccountCode == "" {
			continue
		}
		keywordHit := p.sharesKeyword(keywords, past)
		amountHit := p.similarAmount(tx.Amount, past.Amount)
		if !keywordHit && !amountHit {
			continue
		}
		ev := support[past.AccountCode]
		if ev == nil {
			ev = &evidence{}
			support[past.AccountCode] = ev
		}
		ev.count++
		ev.byKeyword = ev.byKeyword || keywordHit
		ev.byAmount = ev.byAmount || amountHit
	}

	suggestions := make([]models.CategorySuggestion, 0, len(support))
	for code, ev := range support {
		reason := reasonKeyword
		switch {
		case ev.byKeyword && ev.byAmount:
			reason = reasonKeywordAndAmount
		case ev.byAmount:
			reason = reasonAmount
		}
		suggestions = append(suggestions, models.CategorySuggestion{
			AccountCode: code,
			Count:       ev.count,
			MatchReason: reason,
		})
	}

	sort.Slice(suggestions, func(i, j int) bool {
		if suggestions[i].Count != suggestions[j].Count {
			return suggestions[i].Count > suggestions[j].Count
		}
		return suggestions[i].AccountCode < suggestions[j].AccountCode
	})
	return suggestions
}

func (p *CategoryProcessor) keywords(tx models.Transaction) map[string]bool {
	set := make(map[string]bool)
	for _, t := range utils.Tokenize(tx.Communication, p.keywordMinLength) {
		set[t] = true
	}
	for _, t := range utils.Tokenize(tx.CounterpartyName, p.keywordMinLength) {
		set[t] = true
	}
	return set
}

func (p *CategoryProcessor) sharesKeyword(keywords map[string]bool, past models.Transaction) bool {
	if len(keywords) == 0 {
		return false
	}
	for _, t := range utils.Tokenize(past.Communication, p.keywordMinLength) {
		if keywords[t] {
			return true
		}
	}
	for _, t := range utils.Tokenize(past.CounterpartyName, p.keywordMinLength) {
		if keywords[t] {
			return true
		}
	}
	return false
}

// similarAmount compares absolute amounts within the configured relative
// band. A zero target only matches an exactly zero history amount.
func (p *CategoryProcessor) similarAmount(target, past decimal.Decimal) bool {
	targetAbs := target.Abs()
	pastAbs := past.Abs()
	if targetAbs.IsZero() {
		return pastAbs.IsZero()
	}
	band := targetAbs.Mul(p.amountTolerancePct).Div(decimal.NewFromInt(100))
	return targetAbs.Sub(pastAbs).Abs().LessThanOrEqual(band)
}
