package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"salesQuestAPI/internal/types/quota"
	"salesQuestAPI/services"
)

type QuotaHandler struct {
	quotaService *services.QuotaService
}

func NewQuotaHandler(quotaService *services.QuotaService) *QuotaHandler {
	return &QuotaHandler{quotaService: quotaService}
}

// GET /api/v1/quota/{category}?urgent=true — advisory check only; the
// dispatcher consumes quota itself when it sends.
func (h *QuotaHandler) CheckQuota(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	category := quota.Category(mux.Vars(r)["category"])
	urgent := r.URL.Query().Get("urgent") == "true"

	decision, err := h.quotaService.CanSendMessage(ctx, category, urgent)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, decision)
}
