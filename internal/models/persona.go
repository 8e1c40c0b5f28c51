package models

import "time"

type CommunicationStyle string

const (
	StyleFormal   CommunicationStyle = "formal"
	StyleCasual   CommunicationStyle = "casual"
	StyleBalanced CommunicationStyle = "balanced"
)

func (s CommunicationStyle) Valid() bool {
	switch s {
	case StyleFormal, StyleCasual, StyleBalanced:
		return true
	}
	return false
}

// AiPersona is the simulated learner a user teaches.
type AiPersona struct {
	ID                 int64              `json:"id"`
	UserID             int64              `json:"user_id"`
	Name               string             `json:"name"`
	Age                int                `json:"age"`
	Interests          []string           `json:"interests"`
	CommunicationStyle CommunicationStyle `json:"communication_style"`
	AvatarURL          *string            `json:"avatar_url"`
	Active             bool               `json:"active"`
	CreatedAt          time.Time          `json:"created_at"`
}

type CreatePersonaRequest struct {
	UserID             int64              `json:"user_id" validate:"required,gt=0"`
	Name               string             `json:"name" validate:"required,min=1"`
	Age                int                `json:"age" validate:"required,min=10,max=120"`
	Interests          []string           `json:"interests" validate:"required,min=1,dive,required"`
	CommunicationStyle CommunicationStyle `json:"communication_style" validate:"required,oneof=formal casual balanced"`
	AvatarURL          *string            `json:"avatar_url"`
}

// UpdatePersonaRequest carries a partial edit; nil fields are left untouched.
type UpdatePersonaRequest struct {
	Name               *string             `json:"name" validate:"omitempty,min=1"`
	Age                *int                `json:"age" validate:"omitempty,min=10,max=120"`
	Interests          []string            `json:"interests" validate:"omitempty,min=1,dive,required"`
	CommunicationStyle *CommunicationStyle `json:"communication_style" validate:"omitempty,oneof=formal casual balanced"`
	AvatarURL          *string             `json:"avatar_url"`
}
