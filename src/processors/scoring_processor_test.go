package processors

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/username/clubtreso/backend/src/models"
)

func candidate(id, amount string) models.Transaction {
	tx := baseTx(id)
	tx.Amount = amt(amount)
	return tx
}

func TestRankAmountProximity(t *testing.T) {
	p := NewScoringProcessor(DefaultWeights())
	target := amt("100")
	candidates := []models.Transaction{
		candidate("far", "150"),
		candidate("close", "100.01"),
		candidate("exact", "100"),
	}

	ranked := p.Rank(candidates, models.MatchContext{Mode: models.ModeEvent, TargetAmount: &target})
	if len(ranked) != 3 {
		t.Fatalf("expected 3 ranked candidates, got %d", len(ranked))
	}
	gotOrder := []string{ranked[0].Transaction.ID, ranked[1].Transaction.ID, ranked[2].Transaction.ID}
	wantOrder := []string{"exact", "close", "far"}
	for i := range wantOrder {
		if gotOrder[i] != wantOrder[i] {
			t.Fatalf("rank order = %v, want %v", gotOrder, wantOrder)
		}
	}
	if ranked[0].Score <= ranked[1].Score || ranked[1].Score <= ranked[2].Score {
		t.Errorf("scores not strictly decreasing: %v, %v, %v",
			ranked[0].Score, ranked[1].Score, ranked[2].Score)
	}
	if ranked[0].AmountScore != 1 {
		t.Errorf("exact amount sub-score = %v, want 1", ranked[0].AmountScore)
	}
}

func TestRankNameSimilarity(t *testing.T) {
	p := NewScoringProcessor(ScoringWeights{Amount: 0, Name: 1, Date: 0})

	exact := candidate("exact", "10")
	exact.CounterpartyName = "dupont marie"
	partial := candidate("partial", "10")
	partial.CounterpartyName = "DUPONT M"
	unrelated := candidate("unrelated", "10")
	unrelated.CounterpartyName = "ACME LOGISTICS"

	ranked := p.Rank([]models.Transaction{unrelated, partial, exact},
		models.MatchContext{Mode: models.ModeEvent, TargetName: "Dupont Marie"})

	if ranked[0].Transaction.ID != "exact" {
		t.Errorf("best candidate = %s, want exact", ranked[0].Transaction.ID)
	}
	if ranked[0].NameScore != 1 {
		t.Errorf("exact case-insensitive match score = %v, want 1", ranked[0].NameScore)
	}
	if ranked[1].Transaction.ID != "partial" {
		t.Errorf("second candidate = %s, want partial", ranked[1].Transaction.ID)
	}
	if ranked[1].NameScore <= ranked[2].NameScore {
		t.Errorf("partial (%v) not above unrelated (%v)", ranked[1].NameScore, ranked[2].NameScore)
	}
}

func TestRankDateProximity(t *testing.T) {
	p := NewScoringProcessor(ScoringWeights{Amount: 0, Name: 0, Date: 1})
	anchor := day(2025, 6, 15)

	onDay := candidate("on-day", "10")
	onDay.ExecutionDate = day(2025, 6, 15)
	nearby := candidate("nearby", "10")
	nearby.ExecutionDate = day(2025, 6, 18)
	farOff := candidate("far-off", "10")
	farOff.ExecutionDate = day(2025, 9, 1)

	ranked := p.Rank([]models.Transaction{farOff, nearby, onDay},
		models.MatchContext{Mode: models.ModeEvent, EventDate: &anchor})

	if ranked[0].Transaction.ID != "on-day" || ranked[0].DateScore != 1 {
		t.Errorf("anchor-day candidate not first with score 1: %s %v",
			ranked[0].Transaction.ID, ranked[0].DateScore)
	}
	if ranked[1].Transaction.ID != "nearby" || ranked[2].Transaction.ID != "far-off" {
		t.Errorf("date order = %s, %s", ranked[1].Transaction.ID, ranked[2].Transaction.ID)
	}
}

func TestRankEmptyContextKeepsInputOrder(t *testing.T) {
	p := NewScoringProcessor(DefaultWeights())
	candidates := []models.Transaction{
		candidate("first", "10"),
		candidate("second", "20"),
		candidate("third", "30"),
	}

	ranked := p.Rank(candidates, models.MatchContext{Mode: models.ModeEvent})
	for i, want := range []string{"first", "second", "third"} {
		if ranked[i].Transaction.ID != want {
			t.Fatalf("position %d = %s, want %s (input order)", i, ranked[i].Transaction.ID, want)
		}
		if ranked[i].Score != 0 {
			t.Errorf("score without context = %v, want 0", ranked[i].Score)
		}
	}
}

func TestRankWeightsChangeOrdering(t *testing.T) {
	target := amt("50")
	anchor := day(2025, 6, 15)

	amountWinner := candidate("amount-winner", "50")
	amountWinner.ExecutionDate = day(2025, 8, 1)
	dateWinner := candidate("date-winner", "500")
	dateWinner.ExecutionDate = anchor

	matchCtx := models.MatchContext{Mode: models.ModeEvent, TargetAmount: &target, TargetDate: &anchor}
	candidates := []models.Transaction{amountWinner, dateWinner}

	byAmount := NewScoringProcessor(ScoringWeights{Amount: 1, Name: 0, Date: 0.1}).Rank(candidates, matchCtx)
	if byAmount[0].Transaction.ID != "amount-winner" {
		t.Errorf("amount-heavy weights: best = %s", byAmount[0].Transaction.ID)
	}

	byDate := NewScoringProcessor(ScoringWeights{Amount: 0.1, Name: 0, Date: 1}).Rank(candidates, matchCtx)
	if byDate[0].Transaction.ID != "date-winner" {
		t.Errorf("date-heavy weights: best = %s", byDate[0].Transaction.ID)
	}
}

func TestFilterCandidatesInscriptionMode(t *testing.T) {
	p := NewScoringProcessor(DefaultWeights())

	inflow := candidate("eligible", "50")
	outflow := candidate("outflow", "-20")
	claimed := candidate("claimed", "50")
	claimed.MatchedEntities = []models.MatchedEntity{
		{Type: models.EntityInscription, EntityID: "I-other"},
	}

	eligible := p.FilterCandidates(
		[]models.Transaction{inflow, outflow, claimed},
		models.MatchContext{Mode: models.ModeInscription},
	)
	if len(eligible) != 1 || eligible[0].ID != "eligible" {
		t.Fatalf("inscription filter kept %d candidates, want only 'eligible'", len(eligible))
	}
}

func TestFilterCandidatesByMode(t *testing.T) {
	p := NewScoringProcessor(DefaultWeights())
	inflow := candidate("in", "50")
	outflow := candidate("out", "-20")
	parent := candidate("parent", "70")
	parent.IsParent = true
	txs := []models.Transaction{inflow, outflow, parent}

	tests := []struct {
		mode models.MatchMode
		want []string
	}{
		{models.ModeEvent, []string{"in", "out"}},
		{models.ModeInscription, []string{"in"}},
		{models.ModeExpense, []string{"out"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			got := p.FilterCandidates(txs, models.MatchContext{Mode: tt.mode})
			if len(got) != len(tt.want) {
				t.Fatalf("got %d candidates, want %d", len(got), len(tt.want))
			}
			for i := range tt.want {
				if got[i].ID != tt.want[i] {
					t.Errorf("candidate %d = %s, want %s", i, got[i].ID, tt.want[i])
				}
			}
		})
	}
}

func TestGroupByAmountTolerance(t *testing.T) {
	p := NewScoringProcessor(DefaultWeights())
	candidates := []models.Transaction{
		candidate("a", "45.00"),
		candidate("b", "-45.50"), // absolute value groups with 45.00
		candidate("c", "46.50"),  // beyond tolerance of the 45.00 group
		candidate("d", "120.00"),
	}

	groups := p.GroupByAmount(candidates, decimal.NewFromInt(1))
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}

	// Sorted by representative amount descending.
	if !groups[0].Representative.Equal(amt("120.00")) {
		t.Errorf("first group representative = %s, want 120.00", groups[0].Representative)
	}
	if !groups[1].Representative.Equal(amt("46.50")) {
		t.Errorf("second group representative = %s, want 46.50", groups[1].Representative)
	}
	if !groups[2].Representative.Equal(amt("45.00")) {
		t.Errorf("third group representative = %s, want 45.00", groups[2].Representative)
	}
	if len(groups[2].Candidates) != 2 {
		t.Errorf("45.00 group size = %d, want 2 (45.00 and -45.50)", len(groups[2].Candidates))
	}
	if len(groups[1].Candidates) != 1 {
		t.Errorf("46.50 group size = %d, want 1", len(groups[1].Candidates))
	}
}
