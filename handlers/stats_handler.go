package handlers

import (
	"context"
	"net/http"
	"time"

	"salesQuestAPI/internal/types/leaderboard"
	"salesQuestAPI/services"
)

type StatsHandler struct {
	aggregationService *services.AggregationService
}

func NewStatsHandler(aggregationService *services.AggregationService) *StatsHandler {
	return &StatsHandler{aggregationService: aggregationService}
}

// GET /api/v1/team/stats
func (h *StatsHandler) GetTeamStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	stats, err := h.aggregationService.GetTeamStats(ctx)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, stats)
}

// GET /api/v1/leaderboard?period=daily|weekly|monthly&date=YYYY-MM-DD
func (h *StatsHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	period := leaderboard.Period(r.URL.Query().Get("period"))
	if period == "" {
		period = leaderboard.PeriodDaily
	}

	var date time.Time
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid date, want YYYY-MM-DD")
			return
		}
		date = parsed
	}

	lb, err := h.aggregationService.GetLeaderboard(ctx, period, date)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, lb)
}
