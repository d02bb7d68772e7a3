package processors

import (
	"errors"
	"testing"

	"github.com/username/clubtreso/backend/src/models"
)

func TestSplitCreatesNumberedChildren(t *testing.T) {
	p := NewVentilationProcessor()
	tx := baseTx("parent-1")
	tx.Amount = amt("-90.00")

	result, err := p.Split(tx, []models.AllocationInput{
		{Amount: amt("-30.00"), AccountCode: "6061"},
		{Amount: amt("-40.00"), AccountCode: "6062"},
		{Amount: amt("-20.00")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.Parent.IsParent {
		t.Error("parent record not flagged as parent")
	}
	if len(result.Children) != 3 {
		t.Fatalf("expected 3 children, got %d", len(result.Children))
	}
	for i, child := range result.Children {
		if child.ChildIndex != i+1 {
			t.Errorf("child %d: ChildIndex = %d, want %d", i, child.ChildIndex, i+1)
		}
		if child.ChildCount != 3 {
			t.Errorf("child %d: ChildCount = %d, want 3", i, child.ChildCount)
		}
		if child.ParentID != "parent-1" {
			t.Errorf("child %d: ParentID = %q, want parent-1", i, child.ParentID)
		}
		if child.IsParent {
			t.Errorf("child %d flagged as parent", i)
		}
		if child.ID == "" || child.ID == tx.ID {
			t.Errorf("child %d: invalid ID %q", i, child.ID)
		}
		if len(child.MatchedEntities) != 0 {
			t.Errorf("child %d inherited matched entities", i)
		}
		// Children keep the movement's identity for matching purposes.
		if !child.ExecutionDate.Equal(tx.ExecutionDate) || child.AccountNumber != tx.AccountNumber {
			t.Errorf("child %d did not inherit date/account", i)
		}
	}

	// Missing allocation communication falls back to the parent's.
	if result.Children[2].Communication != tx.Communication {
		t.Errorf("child communication = %q, want inherited %q", result.Children[2].Communication, tx.Communication)
	}
}

func TestSplitParentExcludedFromTotals(t *testing.T) {
	vent := NewVentilationProcessor()
	dedup := NewDedupProcessor()

	tx := baseTx("parent-2")
	tx.Amount = amt("-90.00")
	result, err := vent.Split(tx, []models.AllocationInput{
		{Amount: amt("-50.00")},
		{Amount: amt("-40.00")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	all := append([]models.Transaction{result.Parent}, result.Children...)
	total := dedup.SumAmounts(all, tx.AccountNumber)
	if !total.Equal(amt("-90.00")) {
		t.Errorf("post-split total = %s, want -90.00 (children only)", total)
	}

	scorer := NewScoringProcessor(DefaultWeights())
	eligible := scorer.FilterCandidates(all, models.MatchContext{Mode: models.ModeExpense})
	for _, c := range eligible {
		if c.ID == result.Parent.ID {
			t.Error("parent record present in candidate set after split")
		}
	}
	if len(eligible) != 2 {
		t.Errorf("expected the 2 children as candidates, got %d", len(eligible))
	}
}

func TestSplitErrorConditions(t *testing.T) {
	p := NewVentilationProcessor()

	alreadyParent := baseTx("p")
	alreadyParent.IsParent = true
	if _, err := p.Split(alreadyParent, []models.AllocationInput{{Amount: amt("1.00")}}); !errors.Is(err, ErrAlreadySplit) {
		t.Errorf("split of a parent: err = %v, want ErrAlreadySplit", err)
	}

	child := baseTx("c")
	child.ParentID = "p"
	if _, err := p.Split(child, []models.AllocationInput{{Amount: amt("1.00")}}); !errors.Is(err, ErrChildRecord) {
		t.Errorf("split of a child: err = %v, want ErrChildRecord", err)
	}

	if _, err := p.Split(baseTx("x"), nil); !errors.Is(err, ErrInvalidAllocation) {
		t.Errorf("split with no allocations: err = %v, want ErrInvalidAllocation", err)
	}
}
