package handlers

import (
	"net/http"

	"feynman-backend/internal/models"
	"feynman-backend/internal/services"
)

type PersonaHandler struct {
	personas *services.PersonaService
}

func NewPersonaHandler(personas *services.PersonaService) *PersonaHandler {
	return &PersonaHandler{personas: personas}
}

func (h *PersonaHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePersonaRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	fillUserID(r, &req.UserID)

	persona, err := h.personas.Create(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, persona)
}

func (h *PersonaHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	personas, err := h.personas.ListByUser(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, personas)
}

func (h *PersonaHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "persona")
	if !ok {
		return
	}

	persona, err := h.personas.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, persona)
}

func (h *PersonaHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "persona")
	if !ok {
		return
	}
	var req models.UpdatePersonaRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	persona, err := h.personas.Update(r.Context(), id, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, persona)
}
