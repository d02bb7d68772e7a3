// backend/src/handlers/matching_handler.go
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/username/clubtreso/backend/src/logger"
	"github.com/username/clubtreso/backend/src/models"
	"github.com/username/clubtreso/backend/src/services"
	"github.com/username/clubtreso/backend/src/utils"
)

// MatchingHandler serves the candidate search endpoints the reconciliation
// screens call while an operator links transactions to events, inscriptions
// and expenses.
type MatchingHandler struct {
	reconciliationService services.ReconciliationService
}

func NewMatchingHandler(service services.ReconciliationService) *MatchingHandler {
	return &MatchingHandler{
		reconciliationService: service,
	}
}

func decodeMatchContext(r *http.Request) (models.MatchContext, error) {
	var matchCtx models.MatchContext
	if err := json.NewDecoder(r.Body).Decode(&matchCtx); err != nil {
		return matchCtx, fmt.Errorf("invalid request body: %w", err)
	}
	switch matchCtx.Mode {
	case models.ModeEvent, models.ModeInscription, models.ModeExpense:
	default:
		return matchCtx, fmt.Errorf("unknown match mode '%s'", matchCtx.Mode)
	}
	return matchCtx, nil
}

func (h *MatchingHandler) HandleCandidates(w http.ResponseWriter, r *http.Request) {
	matchCtx, err := decodeMatchContext(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	candidates, err := h.reconciliationService.Candidates(matchCtx)
	if err != nil {
		logger.L.Error("Error ranking candidates", "mode", matchCtx.Mode, "error", err)
		utils.SendJSONError(w, "Error retrieving candidates", http.StatusInternalServerError)
		return
	}
	if candidates == nil {
		candidates = []models.ScoredCandidate{}
	}
	utils.SendJSON(w, candidates, http.StatusOK)
}

func (h *MatchingHandler) HandleGroupedCandidates(w http.ResponseWriter, r *http.Request) {
	matchCtx, err := decodeMatchContext(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	groups, err := h.reconciliationService.GroupedCandidates(matchCtx)
	if err != nil {
		logger.L.Error("Error grouping candidates", "mode", matchCtx.Mode, "error", err)
		utils.SendJSONError(w, "Error retrieving grouped candidates", http.StatusInternalServerError)
		return
	}
	if groups == nil {
		groups = []models.AmountGroup{}
	}
	utils.SendJSON(w, groups, http.StatusOK)
}
