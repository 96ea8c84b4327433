package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"salesQuestAPI/internal/store"
	"salesQuestAPI/services"
)

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithServiceError maps the engine's error taxonomy onto HTTP:
// validation 400, typed absence 404, everything else 500.
func respondWithServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		respondWithError(w, http.StatusNotFound, "not found")
	default:
		respondWithError(w, http.StatusInternalServerError, err.Error())
	}
}
