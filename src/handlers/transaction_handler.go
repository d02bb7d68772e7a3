// backend/src/handlers/transaction_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/username/clubtreso/backend/src/logger"
	"github.com/username/clubtreso/backend/src/models"
	"github.com/username/clubtreso/backend/src/processors"
	"github.com/username/clubtreso/backend/src/services"
	"github.com/username/clubtreso/backend/src/utils"
)

type TransactionHandler struct {
	reconciliationService services.ReconciliationService
}

func NewTransactionHandler(service services.ReconciliationService) *TransactionHandler {
	return &TransactionHandler{
		reconciliationService: service,
	}
}

func (h *TransactionHandler) HandleGetTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.reconciliationService.ListTransactions()
	if err != nil {
		logger.L.Error("Error listing transactions", "error", err)
		utils.SendJSONError(w, "Error retrieving transactions", http.StatusInternalServerError)
		return
	}
	if txs == nil {
		txs = []models.Transaction{}
	}
	utils.SendJSON(w, txs, http.StatusOK)
}

func (h *TransactionHandler) HandleGetDuplicates(w http.ResponseWriter, r *http.Request) {
	groups, err := h.reconciliationService.ListDuplicates()
	if err != nil {
		logger.L.Error("Error listing duplicate groups", "error", err)
		utils.SendJSONError(w, "Error retrieving duplicate groups", http.StatusInternalServerError)
		return
	}
	if groups == nil {
		groups = []models.DuplicateGroup{}
	}
	utils.SendJSON(w, groups, http.StatusOK)
}

func (h *TransactionHandler) HandleGetTotals(w http.ResponseWriter, r *http.Request) {
	report, err := h.reconciliationService.Totals()
	if err != nil {
		logger.L.Error("Error computing totals", "error", err)
		utils.SendJSONError(w, "Error computing totals", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, report, http.StatusOK)
}

type splitRequest struct {
	Allocations []models.AllocationInput `json:"allocations"`
}

func (h *TransactionHandler) HandleSplitTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req splitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.reconciliationService.SplitTransaction(id, req.Allocations)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTransactionNotFound):
			utils.SendJSONError(w, "Transaction not found", http.StatusNotFound)
		case errors.Is(err, processors.ErrAlreadySplit),
			errors.Is(err, processors.ErrChildRecord),
			errors.Is(err, processors.ErrInvalidAllocation):
			utils.SendJSONError(w, fmt.Sprintf("Cannot split transaction: %v", err), http.StatusUnprocessableEntity)
		default:
			logger.L.Error("Error splitting transaction", "id", id, "error", err)
			utils.SendJSONError(w, "Error splitting transaction", http.StatusInternalServerError)
		}
		return
	}

	utils.SendJSON(w, result, http.StatusOK)
}

type linkRequest struct {
	EntityType models.EntityType `json:"entity_type"`
	EntityID   string            `json:"entity_id"`
	EntityName string            `json:"entity_name,omitempty"`
}

func (r linkRequest) validate() error {
	switch r.EntityType {
	case models.EntityEvent, models.EntityInscription, models.EntityExpense:
	default:
		return fmt.Errorf("unknown entity type '%s'", r.EntityType)
	}
	if r.EntityID == "" {
		return errors.New("entity_id is required")
	}
	return nil
}

func (h *TransactionHandler) HandleLinkTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req linkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.validate(); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	tx, err := h.reconciliationService.LinkTransaction(id, req.EntityType, req.EntityID, req.EntityName)
	if err != nil {
		if errors.Is(err, services.ErrTransactionNotFound) {
			utils.SendJSONError(w, "Transaction not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Error linking transaction", "id", id, "error", err)
		utils.SendJSONError(w, "Error linking transaction", http.StatusInternalServerError)
		return
	}

	utils.SendJSON(w, tx, http.StatusOK)
}

func (h *TransactionHandler) HandleUnlinkTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req linkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.validate(); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	tx, err := h.reconciliationService.UnlinkTransaction(id, req.EntityType, req.EntityID)
	if err != nil {
		if errors.Is(err, services.ErrTransactionNotFound) {
			utils.SendJSONError(w, "Transaction not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Error unlinking transaction", "id", id, "error", err)
		utils.SendJSONError(w, "Error unlinking transaction", http.StatusInternalServerError)
		return
	}

	utils.SendJSON(w, tx, http.StatusOK)
}

func (h *TransactionHandler) HandleGetCategorySuggestions(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	suggestions, err := h.reconciliationService.SuggestCategories(id)
	if err != nil {
		if errors.Is(err, services.ErrTransactionNotFound) {
			utils.SendJSONError(w, "Transaction not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Error building category suggestions", "id", id, "error", err)
		utils.SendJSONError(w, "Error building category suggestions", http.StatusInternalServerError)
		return
	}
	if suggestions == nil {
		suggestions = []models.CategorySuggestion{}
	}
	utils.SendJSON(w, suggestions, http.StatusOK)
}
