package handlers

import (
	"net/http"

	"feynman-backend/internal/models"
	"feynman-backend/internal/services"
)

type SessionHandler struct {
	sessions *services.SessionService
	progress *services.ProgressService
}

func NewSessionHandler(sessions *services.SessionService, progress *services.ProgressService) *SessionHandler {
	return &SessionHandler{sessions: sessions, progress: progress}
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	fillUserID(r, &req.UserID)

	sess, err := h.sessions.Create(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, sess)
}

func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	sessions, err := h.sessions.ListByUser(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, sessions)
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "session")
	if !ok {
		return
	}

	sess, err := h.sessions.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, sess)
}

func (h *SessionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "session")
	if !ok {
		return
	}
	var req models.UpdateSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sess, err := h.sessions.Update(r.Context(), id, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, sess)
}

func (h *SessionHandler) Progress(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "session")
	if !ok {
		return
	}

	progress, err := h.progress.Progress(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, progress)
}

// Advance moves the session to its next step. When saving fails the
// computed progress is still sent next to the error.
func (h *SessionHandler) Advance(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "session")
	if !ok {
		return
	}

	progress, err := h.progress.Advance(r.Context(), id)
	if err != nil && progress != nil {
		resp := errorResp("INTERNAL_ERROR", "Failed to save progress", r)
		writeJSON(w, http.StatusInternalServerError, struct {
			models.ErrorResponse
			Progress *models.FeynmanProgress `json:"progress"`
		}{resp, progress})
		return
	}
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, progress)
}

func (h *SessionHandler) Feedback(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "session")
	if !ok {
		return
	}
	var req models.FeedbackRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	progress, err := h.progress.RecordFeedback(r.Context(), id, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, progress)
}

func (h *SessionHandler) Export(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "session")
	if !ok {
		return
	}

	body, contentType, err := h.sessions.Export(r.Context(), id, r.URL.Query().Get("format"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// ──── Messages ────

func (h *SessionHandler) CreateMessage(w http.ResponseWriter, r *http.Request) {
	var req models.CreateMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	msg, err := h.sessions.AddMessage(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, msg)
}

// ListMessages serves both /messages?session_id= and /sessions/{id}/messages.
func (h *SessionHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	var (
		sessionID int64
		ok        bool
	)
	if r.URL.Query().Get("session_id") != "" || r.URL.Query().Get("sessionId") != "" {
		sessionID, ok = requireSessionID(w, r)
	} else {
		sessionID, ok = pathID(w, r, "session")
	}
	if !ok {
		return
	}

	msgs, err := h.sessions.Messages(r.Context(), sessionID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, msgs)
}
