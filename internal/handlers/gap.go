package handlers

import (
	"net/http"

	"feynman-backend/internal/models"
	"feynman-backend/internal/services"
)

type GapHandler struct {
	gaps *services.GapService
}

func NewGapHandler(gaps *services.GapService) *GapHandler {
	return &GapHandler{gaps: gaps}
}

func (h *GapHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req models.AnalyzeGapsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	gaps, err := h.gaps.AnalyzeGaps(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, gaps)
}

func (h *GapHandler) List(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := requireSessionID(w, r)
	if !ok {
		return
	}

	gaps, err := h.gaps.List(r.Context(), sessionID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, gaps)
}

func (h *GapHandler) Teach(w http.ResponseWriter, r *http.Request) {
	var req models.TeachConceptRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.gaps.TeachConcept(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
