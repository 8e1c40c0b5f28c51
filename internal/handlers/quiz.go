package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"feynman-backend/internal/models"
	"feynman-backend/internal/services"
)

type QuizHandler struct {
	quizzes *services.QuizService
}

func NewQuizHandler(quizzes *services.QuizService) *QuizHandler {
	return &QuizHandler{quizzes: quizzes}
}

func (h *QuizHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateQuizRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	quiz, err := h.quizzes.Generate(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, quiz)
}

func (h *QuizHandler) List(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := requireSessionID(w, r)
	if !ok {
		return
	}

	quizzes, err := h.quizzes.List(r.Context(), sessionID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, quizzes)
}

func (h *QuizHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "quiz")
	if !ok {
		return
	}

	quiz, err := h.quizzes.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, quiz)
}

func (h *QuizHandler) StartAttempt(w http.ResponseWriter, r *http.Request) {
	quizID, ok := pathID(w, r, "quiz")
	if !ok {
		return
	}

	attempt, err := h.quizzes.StartAttempt(r.Context(), quizID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, attempt)
}

func (h *QuizHandler) Answer(w http.ResponseWriter, r *http.Request) {
	attemptID, ok := attemptParam(w, r)
	if !ok {
		return
	}
	var req models.AnswerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.quizzes.Answer(r.Context(), attemptID, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *QuizHandler) GetAttempt(w http.ResponseWriter, r *http.Request) {
	attemptID, ok := attemptParam(w, r)
	if !ok {
		return
	}

	attempt, err := h.quizzes.GetAttempt(r.Context(), attemptID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, attempt)
}

func attemptParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid attempt ID", r))
		return "", false
	}
	return id.String(), true
}
