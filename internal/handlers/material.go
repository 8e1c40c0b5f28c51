package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"feynman-backend/internal/middleware"
	"feynman-backend/internal/models"
	"feynman-backend/internal/services"
)

const multipartMemory = 8 << 20

type MaterialHandler struct {
	materials      *services.MaterialService
	maxUploadBytes int64
}

func NewMaterialHandler(materials *services.MaterialService, maxUploadBytes int64) *MaterialHandler {
	return &MaterialHandler{materials: materials, maxUploadBytes: maxUploadBytes}
}

func (h *MaterialHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateMaterialRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	fillUserID(r, &req.UserID)

	material, err := h.materials.Create(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, material)
}

// Upload accepts multipart form data with one or more "files" parts plus
// optional user_id and session_id fields.
func (h *MaterialHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.maxUploadBytes > 0 {
		if r.ContentLength > h.maxUploadBytes {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResp("FILE_TOO_LARGE", "Upload exceeds the size limit", r))
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResp("FILE_TOO_LARGE", "Upload exceeds the size limit", r))
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid multipart form", r))
		return
	}
	defer r.MultipartForm.RemoveAll()

	userID := middleware.GetUserID(r.Context())
	if raw := r.FormValue("user_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
				map[string]string{"user_id": "Must be a positive integer"}, r))
			return
		}
		userID = id
	}
	if userID == 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"user_id": "This field is required"}, r))
		return
	}

	var sessionID *int64
	if raw := r.FormValue("session_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
				map[string]string{"session_id": "Must be a positive integer"}, r))
			return
		}
		sessionID = &id
	}

	headers := r.MultipartForm.File["files"]
	files := make([]services.UploadedFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Could not read "+fh.Filename, r))
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Could not read "+fh.Filename, r))
			return
		}
		files = append(files, services.UploadedFile{Name: fh.Filename, Content: data})
	}

	materials, err := h.materials.Upload(r.Context(), userID, sessionID, files)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, materials)
}

// List returns a session's materials when session_id is given, otherwise
// the user's.
func (h *MaterialHandler) List(w http.ResponseWriter, r *http.Request) {
	sessionID, hasSession, bad := queryID(w, r, "session_id", "sessionId")
	if bad {
		return
	}

	if hasSession {
		materials, err := h.materials.List(r.Context(), 0, &sessionID)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, materials)
		return
	}

	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}
	materials, err := h.materials.List(r.Context(), userID, nil)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, materials)
}

func (h *MaterialHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "material")
	if !ok {
		return
	}

	material, err := h.materials.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, material)
}
