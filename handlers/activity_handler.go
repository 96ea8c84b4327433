package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"salesQuestAPI/internal/types/activity"
	"salesQuestAPI/services"
)

type ActivityHandler struct {
	activityService *services.ActivityService
}

func NewActivityHandler(activityService *services.ActivityService) *ActivityHandler {
	return &ActivityHandler{activityService: activityService}
}

// POST /api/v1/activities
func (h *ActivityHandler) CreateActivity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req activity.CreateActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	created, err := h.activityService.CreateActivity(ctx, &req)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, created)
}

// GET /api/v1/activities?user_id=&date= or ?start=&end=[&user_id=]
func (h *ActivityHandler) GetActivities(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	q := r.URL.Query()
	start, end := q.Get("start"), q.Get("end")

	if start != "" || end != "" {
		h.getByDateRange(ctx, w, q.Get("user_id"), start, end)
		return
	}

	userID, err := uuid.Parse(q.Get("user_id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid or missing user_id")
		return
	}

	activities, err := h.activityService.GetUserActivities(ctx, userID, q.Get("date"))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, activities)
}

func (h *ActivityHandler) getByDateRange(ctx context.Context, w http.ResponseWriter, userIDRaw, startRaw, endRaw string) {
	start, err := time.Parse("2006-01-02", startRaw)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid start date, want YYYY-MM-DD")
		return
	}
	end, err := time.Parse("2006-01-02", endRaw)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid end date, want YYYY-MM-DD")
		return
	}

	var userID *uuid.UUID
	if userIDRaw != "" {
		parsed, err := uuid.Parse(userIDRaw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid user_id")
			return
		}
		userID = &parsed
	}

	activities, err := h.activityService.GetActivitiesByDateRange(ctx, userID, start, end)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, activities)
}

// DELETE /api/v1/activities/{id}
func (h *ActivityHandler) DeleteActivity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid activity ID")
		return
	}

	if err := h.activityService.DeleteActivity(ctx, id); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Activity deleted"})
}
