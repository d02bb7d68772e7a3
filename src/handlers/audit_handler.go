// backend/src/handlers/audit_handler.go
package handlers

import (
	"net/http"

	"github.com/username/clubtreso/backend/src/logger"
	"github.com/username/clubtreso/backend/src/services"
	"github.com/username/clubtreso/backend/src/utils"
)

// AuditHandler exposes the duplicate-link audit. The default is a report-only
// scan; passing ?fix=true also repairs what it finds.
type AuditHandler struct {
	reconciliationService services.ReconciliationService
}

func NewAuditHandler(service services.ReconciliationService) *AuditHandler {
	return &AuditHandler{
		reconciliationService: service,
	}
}

func (h *AuditHandler) HandleAuditLinks(w http.ResponseWriter, r *http.Request) {
	operator, _ := GetOperatorFromContext(r.Context())
	fix := r.URL.Query().Get("fix") == "true"

	logger.L.Info("Link audit requested", "operator", operator, "fix", fix)
	report, err := h.reconciliationService.AuditLinks(fix)
	if err != nil {
		logger.L.Error("Link audit failed", "operator", operator, "error", err)
		utils.SendJSONError(w, "Error running link audit", http.StatusInternalServerError)
		return
	}

	utils.SendJSON(w, report, http.StatusOK)
}
