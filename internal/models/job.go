package models

import (
	"time"

	"github.com/google/uuid"
)

const JobConceptExtraction = "concept-extraction"

type Job struct {
	ID          uuid.UUID `json:"id"`
	UserID      int64     `json:"user_id"`
	Type        string    `json:"type"` // "concept-extraction"
	ReferenceID int64     `json:"reference_id"`
	RetryCount  int       `json:"retry_count"`
	MaxRetries  int       `json:"max_retries"`
	CreatedAt   time.Time `json:"created_at"`
}

// WebSocket message types
const (
	EventProgressUpdated  = "progress_updated"
	EventMaterialAnalyzed = "material_analyzed"
	EventRefocusConcept   = "refocus_concept"
	EventError            = "error"
)

type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type MaterialAnalyzedEvent struct {
	MaterialID int64    `json:"material_id"`
	Concepts   []string `json:"concepts"`
}

type RefocusConceptEvent struct {
	SessionID int64  `json:"session_id"`
	Concept   string `json:"concept"`
}

type ErrorEvent struct {
	JobID        uuid.UUID `json:"job_id"`
	ErrorCode    string    `json:"error_code"`
	ErrorMessage string    `json:"error_message"`
}

// API Error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
