// backend/src/models/transaction.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntityType identifies the kind of business object a transaction can be
// linked to.
type EntityType string

const (
	EntityEvent       EntityType = "event"
	EntityInscription EntityType = "inscription"
	EntityExpense     EntityType = "expense"
)

// MatchedEntity is one association between a transaction and a business
// object (an event, a member registration or an expense claim).
type MatchedEntity struct {
	Type       EntityType `json:"entity_type"`
	EntityID   string     `json:"entity_id"`
	EntityName string     `json:"entity_name,omitempty"`
}

// Key returns the identity of the association. A transaction carries at most
// one entry per key.
func (m MatchedEntity) Key() string {
	return string(m.Type) + "|" + m.EntityID
}

// Transaction is one imported bank movement, or one allocation derived from
// a movement by a split. A record is either plain (neither parent nor child),
// a parent (IsParent set, no ParentID) or a child (ParentID set).
type Transaction struct {
	ID                  string          `json:"id"`
	ExecutionDate       time.Time       `json:"execution_date"` // calendar day precision
	Amount              decimal.Decimal `json:"amount"`         // signed: positive inflow, negative outflow
	CounterpartyName    string          `json:"counterparty_name"`
	CounterpartyAccount string          `json:"counterparty_account"`
	Communication       string          `json:"communication"`
	AccountNumber       string          `json:"account_number"` // the club account the movement posted to
	DedupHash           string          `json:"dedup_hash"`

	IsParent   bool   `json:"is_parent"`
	ParentID   string `json:"parent_id,omitempty"`
	ChildIndex int    `json:"child_index,omitempty"` // 1-based, only on children
	ChildCount int    `json:"child_count,omitempty"` // total siblings, only on children

	MatchedEntities []MatchedEntity `json:"matched_entities"`

	Category    string `json:"category,omitempty"`
	AccountCode string `json:"account_code,omitempty"`
}

// IsChild reports whether the record is an allocation derived from a split.
func (t *Transaction) IsChild() bool {
	return t.ParentID != ""
}

// IsLinkedTo reports whether the transaction carries an association with the
// given entity.
func (t *Transaction) IsLinkedTo(entityType EntityType, entityID string) bool {
	for _, m := range t.MatchedEntities {
		if m.Type == entityType && m.EntityID == entityID {
			return true
		}
	}
	return false
}

// HasLinkOfType reports whether any association of the given type is present.
func (t *Transaction) HasLinkOfType(entityType EntityType) bool {
	for _, m := range t.MatchedEntities {
		if m.Type == entityType {
			return true
		}
	}
	return false
}

// AllocationInput describes one child allocation requested by a split.
type AllocationInput struct {
	Amount        decimal.Decimal `json:"amount"`
	Communication string          `json:"communication,omitempty"`
	Category      string          `json:"category,omitempty"`
	AccountCode   string          `json:"account_code,omitempty"`
}
