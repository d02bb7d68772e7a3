// backend/src/processors/link_registry.go
package processors

import (
	"sort"

	"github.com/username/clubtreso/backend/src/logger"
	"github.com/username/clubtreso/backend/src/models"
)

// LinkRegistry owns the matched-entities association of a transaction and
// its invariant: at most one entry per (entity type, entity id) pair. The
// normal write path guards the invariant with a keyed set; the audit and
// repair operations exist for data written before the guard, or by paths
// that bypassed it.
type LinkRegistry struct{}

func NewLinkRegistry() *LinkRegistry { return &LinkRegistry{} }

// Link appends an association unless the (type, id) key is already present,
// in which case the transaction is returned unchanged. Idempotent, so two
// operators racing to confirm the same match cannot corrupt the record.
func (r *LinkRegistry) Link(tx models.Transaction, entityType models.EntityType, entityID, entityName string) models.Transaction {
	seen := make(map[string]bool, len(tx.MatchedEntities))
	for _, m := range tx.MatchedEntities {
		seen[m.Key()] = true
	}
	entry := models.MatchedEntity{Type: entityType, EntityID: entityID, EntityName: entityName}
	if seen[entry.Key()] {
		return tx
	}
	tx.MatchedEntities = append(append([]models.MatchedEntity{}, tx.MatchedEntities...), entry)
	return tx
}

// Unlink removes the association if present; a missing target is a no-op,
// not an error.
func (r *LinkRegistry) Unlink(tx models.Transaction, entityType models.EntityType, entityID string) models.Transaction {
	kept := make([]models.MatchedEntity, 0, len(tx.MatchedEntities))
	for _, m := range tx.MatchedEntities {
		if m.Type == entityType && m.EntityID == entityID {
			continue
		}
		kept = append(kept, m)
	}
	tx.MatchedEntities = kept
	return tx
}

// IsLinkedToOther reports whether the transaction carries any association of
// the given type whose id differs from excludingEntityID. The UI uses this
// to flag a candidate as already claimed elsewhere.
func (r *LinkRegistry) IsLinkedToOther(tx models.Transaction, entityType models.EntityType, excludingEntityID string) bool {
	for _, m := range tx.MatchedEntities {
		if m.Type == entityType && m.EntityID != excludingEntityID {
			return true
		}
	}
	return false
}

// FindDuplicateLinks scans the association list and returns every key that
// appears more than once, with the positions of all occurrences. Findings
// are ordered by first occurrence.
func (r *LinkRegistry) FindDuplicateLinks(tx models.Transaction) []models.DuplicateLinkFinding {
	indices := make(map[string][]int)
	order := make([]string, 0)
	for i, m := range tx.MatchedEntities {
		k := m.Key()
		if len(indices[k]) == 0 {
			order = append(order, k)
		}
		indices[k] = append(indices[k], i)
	}

	var findings []models.DuplicateLinkFinding
	for _, k := range order {
		occ := indices[k]
		if len(occ) < 2 {
			continue
		}
		first := tx.MatchedEntities[occ[0]]
		findings = append(findings, models.DuplicateLinkFinding{
			Type:     first.Type,
			EntityID: first.EntityID,
			Indices:  occ,
		})
	}
	return findings
}

// Repair collapses duplicate association keys, keeping the first occurrence
// of each in original list order. Repairing an already-clean transaction
// returns it unchanged; repairing twice equals repairing once.
func (r *LinkRegistry) Repair(tx models.Transaction) models.Transaction {
	if len(r.FindDuplicateLinks(tx)) == 0 {
		return tx
	}
	seen := make(map[string]bool, len(tx.MatchedEntities))
	cleaned := make([]models.MatchedEntity, 0, len(tx.MatchedEntities))
	for _, m := range tx.MatchedEntities {
		if seen[m.Key()] {
			continue
		}
		seen[m.Key()] = true
		cleaned = append(cleaned, m)
	}
	tx.MatchedEntities = cleaned
	return tx
}

// AuditLinks runs the duplicate-link scan across a batch of transactions and
// aggregates the counts the operator report needs. In fix mode every flagged
// transaction is repaired; repair of one record is all-or-nothing, so an
// interrupted scan never leaves a record half-cleaned. The returned slice
// holds the repaired records for the caller to persist (empty outside fix
// mode).
func (r *LinkRegistry) AuditLinks(txs []models.Transaction, fix bool) (models.LinkAuditReport, []models.Transaction) {
	report := models.LinkAuditReport{
		Scanned:  len(txs),
		Findings: make(map[string][]models.DuplicateLinkFinding),
	}
	var repaired []models.Transaction

	for i, tx := range txs {
		if logger.L != nil {
			logger.L.Debug("Scanning transaction links",
				"progress", i+1, "of", len(txs), "transactionID", tx.ID)
		}
		if len(tx.MatchedEntities) > 0 {
			report.WithLinks++
		}
		if len(tx.MatchedEntities) > 1 {
			report.MultiLinked++
		}
		findings := r.FindDuplicateLinks(tx)
		if len(findings) == 0 {
			continue
		}
		report.WithDuplicates++
		report.Findings[tx.ID] = findings
		if logger.L != nil {
			logger.L.Info("Duplicate links found",
				"progress", i+1, "of", len(txs),
				"transactionID", tx.ID, "duplicateKeys", len(findings))
		}
		if fix {
			repaired = append(repaired, r.Repair(tx))
			report.Repaired++
		}
	}

	sort.Slice(repaired, func(i, j int) bool { return repaired[i].ID < repaired[j].ID })
	return report, repaired
}
