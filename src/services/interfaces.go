package services

import (
	"errors"
	"io"

	"github.com/username/clubtreso/backend/src/models"
	"github.com/username/clubtreso/backend/src/processors"
)

var (
	ErrParsingFailed       = errors.New("statement parsing failed")
	ErrTransactionNotFound = errors.New("transaction not found")
)

// ReconciliationService is the core back-office surface: statement imports,
// duplicate review, ventilation, entity links, candidate search and category
// suggestions.
type ReconciliationService interface {
	ImportStatement(fileReader io.Reader, source string) (*models.ImportResult, error)
	GetTransaction(id string) (*models.Transaction, error)
	ListTransactions() ([]models.Transaction, error)
	ListDuplicates() ([]models.DuplicateGroup, error)
	Totals() (*models.TotalsReport, error)
	SplitTransaction(id string, allocations []models.AllocationInput) (*processors.SplitResult, error)
	LinkTransaction(id string, entityType models.EntityType, entityID, entityName string) (*models.Transaction, error)
	UnlinkTransaction(id string, entityType models.EntityType, entityID string) (*models.Transaction, error)
	Candidates(matchCtx models.MatchContext) ([]models.ScoredCandidate, error)
	GroupedCandidates(matchCtx models.MatchContext) ([]models.AmountGroup, error)
	SuggestCategories(id string) ([]models.CategorySuggestion, error)
	AuditLinks(fix bool) (*models.LinkAuditReport, error)
}
