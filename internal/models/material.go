package models

import "time"

type MaterialType string

const (
	MaterialPDF  MaterialType = "pdf"
	MaterialText MaterialType = "text"
	MaterialDocx MaterialType = "docx"
	MaterialPPT  MaterialType = "ppt"
)

type Material struct {
	ID        int64        `json:"id"`
	UserID    int64        `json:"user_id"`
	SessionID *int64       `json:"session_id"`
	Name      string       `json:"name"`
	Type      MaterialType `json:"type"`
	Content   string       `json:"content"`
	// ExtractedConcepts stays nil until analysis has run.
	ExtractedConcepts []string  `json:"extracted_concepts"`
	CreatedAt         time.Time `json:"created_at"`
}

type CreateMaterialRequest struct {
	UserID    int64         `json:"user_id" validate:"required,gt=0"`
	SessionID *int64        `json:"session_id" validate:"omitempty,gt=0"`
	Name      string        `json:"name" validate:"required"`
	Type      *MaterialType `json:"type" validate:"omitempty,oneof=pdf text docx ppt"`
	Content   string        `json:"content" validate:"required"`
}

type GapStatus string

const (
	GapNotCovered       GapStatus = "not_covered"
	GapPartiallyCovered GapStatus = "partially_covered"
	GapCovered          GapStatus = "covered"
)

func (s GapStatus) Valid() bool {
	switch s {
	case GapNotCovered, GapPartiallyCovered, GapCovered:
		return true
	}
	return false
}

type Gap struct {
	ID          int64     `json:"id"`
	SessionID   int64     `json:"session_id"`
	Concept     string    `json:"concept"`
	Description string    `json:"description"`
	Status      GapStatus `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type AnalyzeGapsRequest struct {
	SessionID   int64   `json:"session_id" validate:"required,gt=0"`
	MaterialIDs []int64 `json:"material_ids"`
}

type TeachConceptRequest struct {
	SessionID int64  `json:"session_id" validate:"required,gt=0"`
	Concept   string `json:"concept" validate:"required"`
}

type TeachConceptResult struct {
	Gaps   []*Gap  `json:"gaps"`
	Notice *Notice `json:"notice,omitempty"`
}
