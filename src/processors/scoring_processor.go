// backend/src/processors/scoring_processor.go
package processors

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/texttheater/golang-levenshtein/levenshtein"
	"github.com/username/clubtreso/backend/src/models"
	"github.com/username/clubtreso/backend/src/utils"
	"gopkg.in/yaml.v3"
)

// ScoringWeights controls how the amount, name and date sub-scores combine
// into the relevance score. The values are tuned per club, not hard-coded:
// override them with a YAML file via SCORING_WEIGHTS_PATH.
type ScoringWeights struct {
	Amount float64 `yaml:"amount"`
	Name   float64 `yaml:"name"`
	Date   float64 `yaml:"date"`
}

// DefaultWeights favors an exact amount over everything else, which is how
// treasurers actually confirm matches.
func DefaultWeights() ScoringWeights {
	return ScoringWeights{Amount: 0.5, Name: 0.3, Date: 0.2}
}

// LoadWeights reads a weights override file. An empty path returns the
// defaults.
func LoadWeights(path string) (ScoringWeights, error) {
	if path == "" {
		return DefaultWeights(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultWeights(), fmt.Errorf("reading scoring weights file: %w", err)
	}
	w := DefaultWeights()
	if err := yaml.Unmarshal(data, &w); err != nil {
		return DefaultWeights(), fmt.Errorf("parsing scoring weights file: %w", err)
	}
	return w, nil
}

// ScoringProcessor ranks candidate transactions against a target entity
// context to assist the operator confirming a match. Pure computation: the
// caller loads the candidate set and persists nothing here.
type ScoringProcessor struct {
	weights ScoringWeights
}

func NewScoringProcessor(weights ScoringWeights) *ScoringProcessor {
	return &ScoringProcessor{weights: weights}
}

// FilterCandidates applies the preconditions the scorer expects: parent
// records never qualify; inscription mode only accepts inflows and drops
// records already claimed by another inscription (a registration accepts a
// single payment); expense mode only accepts outflows; event mode takes both
// signs.
func (p *ScoringProcessor) FilterCandidates(txs []models.Transaction, matchCtx models.MatchContext) []models.Transaction {
	var eligible []models.Transaction
	for _, tx := range txs {
		if tx.IsParent {
			continue
		}
		switch matchCtx.Mode {
		case models.ModeInscription:
			if tx.Amount.Sign() <= 0 {
				continue
			}
			if tx.HasLinkOfType(models.EntityInscription) {
				continue
			}
		case models.ModeExpense:
			if tx.Amount.Sign() >= 0 {
				continue
			}
		}
		eligible = append(eligible, tx)
	}
	return eligible
}

// Rank scores every candidate and returns them ordered by combined score,
// highest first. The sort is stable: candidates with equal scores keep their
// input order. When the context carries no target amount, name or anchor
// date, every score is zero and the input order is returned untouched, which
// is a degraded-but-valid result rather than an error.
func (p *ScoringProcessor) Rank(candidates []models.Transaction, matchCtx models.MatchContext) []models.ScoredCandidate {
	scored := make([]models.ScoredCandidate, 0, len(candidates))
	for _, tx := range candidates {
		sc := models.ScoredCandidate{
			Transaction: tx,
			AmountScore: amountProximity(tx, matchCtx),
			NameScore:   nameSimilarity(tx.CounterpartyName, matchCtx.TargetName),
			DateScore:   dateProximity(tx, matchCtx),
		}
		sc.Score = p.weights.Amount*sc.AmountScore +
			p.weights.Name*sc.NameScore +
			p.weights.Date*sc.DateScore
		scored = append(scored, sc)
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	return scored
}

// GroupByAmount buckets candidates whose absolute amounts differ by at most
// tolerance. Assignment is first match: each candidate joins the first
// existing group within tolerance or opens a new one, so a candidate belongs
// to exactly one group. Groups come back sorted by representative amount
// descending. This is a presentation aid on top of ranking, not a substitute.
func (p *ScoringProcessor) GroupByAmount(candidates []models.Transaction, tolerance decimal.Decimal) []models.AmountGroup {
	var groups []models.AmountGroup
	for _, tx := range candidates {
		abs := tx.Amount.Abs()
		assigned := false
		for i := range groups {
			if abs.Sub(groups[i].Representative).Abs().LessThanOrEqual(tolerance) {
				groups[i].Candidates = append(groups[i].Candidates, tx)
				assigned = true
				break
			}
		}
		if !assigned {
			groups = append(groups, models.AmountGroup{Representative: abs, Candidates: []models.Transaction{tx}})
		}
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Representative.GreaterThan(groups[j].Representative)
	})
	return groups
}

// amountProximity is 1 for an exact match of absolute amounts and decays
// with the absolute difference. No target amount, no contribution.
func amountProximity(tx models.Transaction, matchCtx models.MatchContext) float64 {
	if matchCtx.TargetAmount == nil {
		return 0
	}
	diff, _ := tx.Amount.Abs().Sub(matchCtx.TargetAmount.Abs()).Abs().Float64()
	return 1 / (1 + diff)
}

// nameSimilarity is 1 for an exact case-insensitive match, with partial
// credit for substring containment, shared keyword tokens and edit distance.
// Either side missing contributes nothing.
func nameSimilarity(candidateName, targetName string) float64 {
	if candidateName == "" || targetName == "" {
		return 0
	}
	if strings.EqualFold(candidateName, targetName) {
		return 1
	}

	a := strings.ToLower(candidateName)
	b := strings.ToLower(targetName)
	best := 0.0
	if strings.Contains(a, b) || strings.Contains(b, a) {
		best = 0.8
	}

	if overlap := tokenOverlap(a, b); overlap*0.8 > best {
		best = overlap * 0.8
	}

	distance := levenshtein.DistanceForStrings([]rune(a), []rune(b), levenshtein.DefaultOptions)
	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	if maxLen > 0 {
		if ratio := (1 - float64(distance)/float64(maxLen)) * 0.8; ratio > best {
			best = ratio
		}
	}
	if best < 0 {
		best = 0
	}
	return best
}

// tokenOverlap is the share of the smaller token set found in the other.
func tokenOverlap(a, b string) float64 {
	tokensA := utils.Tokenize(a, 2)
	tokensB := utils.Tokenize(b, 2)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}
	setA := make(map[string]bool, len(tokensA))
	for _, t := range tokensA {
		setA[t] = true
	}
	common := 0
	for _, t := range tokensB {
		if setA[t] {
			common++
		}
	}
	smaller := len(tokensA)
	if len(tokensB) < smaller {
		smaller = len(tokensB)
	}
	return float64(common) / float64(smaller)
}

// dateProximity is 1 when the execution date falls on an anchor day and
// decays with day distance. With both a target date and an event date the
// nearest anchor wins. No anchor, no contribution.
func dateProximity(tx models.Transaction, matchCtx models.MatchContext) float64 {
	best := -1
	if matchCtx.TargetDate != nil {
		best = utils.DaysBetween(tx.ExecutionDate, *matchCtx.TargetDate)
	}
	if matchCtx.EventDate != nil {
		if d := utils.DaysBetween(tx.ExecutionDate, *matchCtx.EventDate); best < 0 || d < best {
			best = d
		}
	}
	if best < 0 {
		return 0
	}
	return 1 / (1 + float64(best))
}
