// backend/src/services/reconciliation_service.go
package services

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"github.com/username/clubtreso/backend/src/config"
	"github.com/username/clubtreso/backend/src/database"
	"github.com/username/clubtreso/backend/src/logger"
	"github.com/username/clubtreso/backend/src/models"
	"github.com/username/clubtreso/backend/src/parsers"
	"github.com/username/clubtreso/backend/src/processors"
)

const (
	ckAllTransactions    = "res_all_transactions"
	ckDuplicateGroups    = "res_duplicate_groups"
	ckCategorizedHistory = "res_categorized_history"

	CacheCleanupInterval = 30 * time.Minute
)

// groupTolerance is the half-width of an amount bucket in the grouped
// candidate view. Amounts within fifty cents of a group's representative
// land in that group.
var groupTolerance = decimal.New(50, -2)

type reconciliationServiceImpl struct {
	statementProcessor *processors.StatementProcessor
	dedupProcessor     *processors.DedupProcessor
	ventilation        *processors.VentilationProcessor
	linkRegistry       *processors.LinkRegistry
	scorer             *processors.ScoringProcessor
	categorizer        *processors.CategoryProcessor
	resultCache        *cache.Cache
}

func NewReconciliationService(
	statementProcessor *processors.StatementProcessor,
	dedupProcessor *processors.DedupProcessor,
	ventilation *processors.VentilationProcessor,
	linkRegistry *processors.LinkRegistry,
	scorer *processors.ScoringProcessor,
	categorizer *processors.CategoryProcessor,
	resultCache *cache.Cache,
) ReconciliationService {
	return &reconciliationServiceImpl{
		statementProcessor: statementProcessor,
		dedupProcessor:     dedupProcessor,
		ventilation:        ventilation,
		linkRegistry:       linkRegistry,
		scorer:             scorer,
		categorizer:        categorizer,
		resultCache:        resultCache,
	}
}

func (s *reconciliationServiceImpl) ImportStatement(fileReader io.Reader, source string) (*models.ImportResult, error) {
	startTime := time.Now()
	batchID := uuid.NewString()
	logger.L.Info("ImportStatement START", "batchID", batchID, "source", source)

	parser, err := parsers.GetParser(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}

	lines, err := parser.Parse(fileReader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}

	txs := s.statementProcessor.Process(lines)

	stored, err := database.ExistingHashes(database.DB)
	if err != nil {
		return nil, err
	}

	// The import gate: a line whose fingerprint is already stored, or seen
	// earlier in this same batch, is counted but not inserted.
	fresh := make([]models.Transaction, 0, len(txs))
	skipped := 0
	for _, tx := range txs {
		if stored[tx.DedupHash] {
			skipped++
			logger.L.Debug("Skipping already stored statement line", "batchID", batchID, "hash", tx.DedupHash)
			continue
		}
		stored[tx.DedupHash] = true
		fresh = append(fresh, tx)
	}

	if len(fresh) > 0 {
		if err := database.InsertTransactions(database.DB, fresh); err != nil {
			return nil, err
		}
		s.invalidateCache()
	}

	logger.L.Info("ImportStatement END", "batchID", batchID,
		"parsed", len(lines), "imported", len(fresh), "duplicates", skipped,
		"duration", time.Since(startTime))
	return &models.ImportResult{
		BatchID:    batchID,
		Parsed:     len(lines),
		Imported:   len(fresh),
		Duplicates: skipped,
	}, nil
}

func (s *reconciliationServiceImpl) GetTransaction(id string) (*models.Transaction, error) {
	tx, err := database.GetTransactionByID(database.DB, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return &tx, nil
}

func (s *reconciliationServiceImpl) ListTransactions() ([]models.Transaction, error) {
	if cached, found := s.resultCache.Get(ckAllTransactions); found {
		logger.L.Debug("Cache hit for ListTransactions")
		return cached.([]models.Transaction), nil
	}
	txs, err := database.ListTransactions(database.DB)
	if err != nil {
		return nil, err
	}
	s.resultCache.Set(ckAllTransactions, txs, cache.DefaultExpiration)
	return txs, nil
}

func (s *reconciliationServiceImpl) ListDuplicates() ([]models.DuplicateGroup, error) {
	if cached, found := s.resultCache.Get(ckDuplicateGroups); found {
		logger.L.Debug("Cache hit for ListDuplicates")
		return cached.([]models.DuplicateGroup), nil
	}
	txs, err := s.ListTransactions()
	if err != nil {
		return nil, err
	}
	groups := s.dedupProcessor.FindDuplicates(txs)
	s.resultCache.Set(ckDuplicateGroups, groups, cache.DefaultExpiration)
	return groups, nil
}

// Totals aggregates the stored set over the configured current account.
// Parent records and movements posted to any other account are excluded.
func (s *reconciliationServiceImpl) Totals() (*models.TotalsReport, error) {
	txs, err := s.ListTransactions()
	if err != nil {
		return nil, err
	}

	currentAccount := config.Cfg.CurrentAccountIBAN
	eligible := 0
	for _, tx := range txs {
		if s.dedupProcessor.EligibleForTotals(tx, currentAccount) {
			eligible++
		}
	}
	return &models.TotalsReport{
		CurrentAccount: currentAccount,
		Eligible:       eligible,
		Total:          s.dedupProcessor.SumAmounts(txs, currentAccount),
	}, nil
}

func (s *reconciliationServiceImpl) SplitTransaction(id string, allocations []models.AllocationInput) (*processors.SplitResult, error) {
	tx, err := s.GetTransaction(id)
	if err != nil {
		return nil, err
	}

	result, err := s.ventilation.Split(*tx, allocations)
	if err != nil {
		return nil, err
	}

	if err := database.SaveSplit(database.DB, result.Parent, result.Children); err != nil {
		return nil, err
	}
	s.invalidateCache()

	logger.L.Info("Transaction split", "id", id, "children", len(result.Children))
	return &result, nil
}

func (s *reconciliationServiceImpl) LinkTransaction(id string, entityType models.EntityType, entityID, entityName string) (*models.Transaction, error) {
	tx, err := s.GetTransaction(id)
	if err != nil {
		return nil, err
	}

	updated := s.linkRegistry.Link(*tx, entityType, entityID, entityName)
	if err := database.UpdateTransaction(database.DB, updated); err != nil {
		return nil, err
	}
	s.invalidateCache()

	logger.L.Info("Transaction linked", "id", id, "entityType", entityType, "entityID", entityID)
	return &updated, nil
}

func (s *reconciliationServiceImpl) UnlinkTransaction(id string, entityType models.EntityType, entityID string) (*models.Transaction, error) {
	tx, err := s.GetTransaction(id)
	if err != nil {
		return nil, err
	}

	updated := s.linkRegistry.Unlink(*tx, entityType, entityID)
	if err := database.UpdateTransaction(database.DB, updated); err != nil {
		return nil, err
	}
	s.invalidateCache()

	logger.L.Info("Transaction unlinked", "id", id, "entityType", entityType, "entityID", entityID)
	return &updated, nil
}

func (s *reconciliationServiceImpl) Candidates(matchCtx models.MatchContext) ([]models.ScoredCandidate, error) {
	txs, err := s.ListTransactions()
	if err != nil {
		return nil, err
	}
	filtered := s.scorer.FilterCandidates(txs, matchCtx)
	return s.scorer.Rank(filtered, matchCtx), nil
}

func (s *reconciliationServiceImpl) GroupedCandidates(matchCtx models.MatchContext) ([]models.AmountGroup, error) {
	txs, err := s.ListTransactions()
	if err != nil {
		return nil, err
	}
	filtered := s.scorer.FilterCandidates(txs, matchCtx)
	return s.scorer.GroupByAmount(filtered, groupTolerance), nil
}

func (s *reconciliationServiceImpl) SuggestCategories(id string) ([]models.CategorySuggestion, error) {
	tx, err := s.GetTransaction(id)
	if err != nil {
		return nil, err
	}

	history, err := s.categorizedHistory()
	if err != nil {
		return nil, err
	}
	return s.categorizer.Suggest(*tx, history), nil
}

func (s *reconciliationServiceImpl) AuditLinks(fix bool) (*models.LinkAuditReport, error) {
	startTime := time.Now()
	txs, err := database.ListTransactions(database.DB)
	if err != nil {
		return nil, err
	}

	report, repaired := s.linkRegistry.AuditLinks(txs, fix)
	for _, tx := range repaired {
		if err := database.UpdateTransaction(database.DB, tx); err != nil {
			return nil, fmt.Errorf("error persisting repaired links for %s: %w", tx.ID, err)
		}
	}
	if len(repaired) > 0 {
		s.invalidateCache()
	}

	logger.L.Info("Link audit complete", "fix", fix,
		"scanned", report.Scanned, "withDuplicates", report.WithDuplicates,
		"repaired", report.Repaired, "duration", time.Since(startTime))
	return &report, nil
}

func (s *reconciliationServiceImpl) categorizedHistory() ([]models.Transaction, error) {
	if cached, found := s.resultCache.Get(ckCategorizedHistory); found {
		return cached.([]models.Transaction), nil
	}
	history, err := database.ListCategorized(database.DB)
	if err != nil {
		return nil, err
	}
	s.resultCache.Set(ckCategorizedHistory, history, cache.DefaultExpiration)
	return history, nil
}

// invalidateCache clears every derived result after a write. The next read
// rebuilds from the database.
func (s *reconciliationServiceImpl) invalidateCache() {
	s.resultCache.Delete(ckAllTransactions)
	s.resultCache.Delete(ckDuplicateGroups)
	s.resultCache.Delete(ckCategorizedHistory)
}
