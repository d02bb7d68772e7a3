// backend/src/processors/ventilation_processor.go
package processors

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/username/clubtreso/backend/src/models"
)

var (
	// ErrAlreadySplit is returned when a split is requested on a record that
	// is already a parent.
	ErrAlreadySplit = errors.New("transaction is already split")
	// ErrChildRecord is returned when a split is requested on an allocation;
	// only original movements can be ventilated.
	ErrChildRecord = errors.New("transaction is a child allocation")
	// ErrInvalidAllocation is returned when the allocation list is empty.
	ErrInvalidAllocation = errors.New("allocation list must not be empty")
)

// SplitResult is the outcome of a ventilation: the mutated parent and its
// freshly created children. The caller persists both.
type SplitResult struct {
	Parent   models.Transaction   `json:"parent"`
	Children []models.Transaction `json:"children"`
}

// VentilationProcessor turns one imported bank line into several accounting
// allocations. The original becomes a parent record excluded from totals and
// from candidate sets; only its children participate from then on.
type VentilationProcessor struct{}

func NewVentilationProcessor() *VentilationProcessor { return &VentilationProcessor{} }

// Split marks tx as a parent and derives one child per allocation. Children
// inherit the parent's date, accounts and counterparty; amount, communication
// and classification come from the allocation. Child records start with no
// matched entities: links made on the original stay on the parent record and
// are not duplicated onto allocations.
func (p *VentilationProcessor) Split(tx models.Transaction, allocations []models.AllocationInput) (SplitResult, error) {
	if tx.IsParent {
		return SplitResult{}, fmt.Errorf("%w: %s", ErrAlreadySplit, tx.ID)
	}
	if tx.IsChild() {
		return SplitResult{}, fmt.Errorf("%w: %s", ErrChildRecord, tx.ID)
	}
	if len(allocations) == 0 {
		return SplitResult{}, ErrInvalidAllocation
	}

	parent := tx
	parent.IsParent = true

	children := make([]models.Transaction, 0, len(allocations))
	for i, alloc := range allocations {
		communication := alloc.Communication
		if communication == "" {
			communication = tx.Communication
		}
		children = append(children, models.Transaction{
			ID:                  uuid.NewString(),
			ExecutionDate:       tx.ExecutionDate,
			Amount:              alloc.Amount,
			CounterpartyName:    tx.CounterpartyName,
			CounterpartyAccount: tx.CounterpartyAccount,
			Communication:       communication,
			AccountNumber:       tx.AccountNumber,
			ParentID:            parent.ID,
			ChildIndex:          i + 1,
			ChildCount:          len(allocations),
			Category:            alloc.Category,
			AccountCode:         alloc.AccountCode,
		})
	}

	return SplitResult{Parent: parent, Children: children}, nil
}
