// backend/src/processors/dedup_processor.go
package processors

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/username/clubtreso/backend/src/models"
	"github.com/username/clubtreso/backend/src/utils"
)

// DedupProcessor fingerprints imported bank lines and detects re-imports of
// the same logical movement across batches.
type DedupProcessor struct{}

func NewDedupProcessor() *DedupProcessor { return &DedupProcessor{} }

// Fingerprint derives the canonical hash of a bank movement. Two records with
// equal fingerprints are the same movement no matter which import batch
// produced them. The hash covers the execution day, the amount at cent
// precision, the case-folded communication and the whitespace-stripped
// counterparty account.
func (p *DedupProcessor) Fingerprint(tx models.Transaction) string {
	input := fmt.Sprintf("%s|%s|%s|%s",
		tx.ExecutionDate.Format(utils.DayFormat),
		tx.Amount.StringFixed(2),
		strings.ToLower(tx.Communication),
		utils.NormalizeAccount(tx.CounterpartyAccount),
	)
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])
}

// FindDuplicates partitions a record set by fingerprint and returns every
// group with more than one member. Within a group records are ordered by ID
// and groups by hash, so a caller acting on the report ("keep the first")
// behaves the same on every run. Records without a stored hash are
// fingerprinted on the fly.
func (p *DedupProcessor) FindDuplicates(txs []models.Transaction) []models.DuplicateGroup {
	byHash := make(map[string][]models.Transaction)
	for _, tx := range txs {
		h := tx.DedupHash
		if h == "" {
			h = p.Fingerprint(tx)
		}
		byHash[h] = append(byHash[h], tx)
	}

	var groups []models.DuplicateGroup
	for h, members := range byHash {
		if len(members) < 2 {
			continue
		}
		sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })
		groups = append(groups, models.DuplicateGroup{Hash: h, Records: members})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Hash < groups[j].Hash })
	return groups
}

// EligibleForTotals reports whether a record counts toward financial
// aggregation: only movements on the designated current account, and never
// parent records (their children carry the amounts).
func (p *DedupProcessor) EligibleForTotals(tx models.Transaction, currentAccount string) bool {
	if tx.IsParent {
		return false
	}
	return utils.NormalizeAccount(tx.AccountNumber) == utils.NormalizeAccount(currentAccount)
}

// SumAmounts totals every eligible record.
func (p *DedupProcessor) SumAmounts(txs []models.Transaction, currentAccount string) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		if p.EligibleForTotals(tx, currentAccount) {
			total = total.Add(tx.Amount)
		}
	}
	return total
}
