package models

import "time"

type MessageRole string

const (
	RoleUser MessageRole = "user"
	RoleAI   MessageRole = "ai"
)

type Message struct {
	ID          int64        `json:"id"`
	SessionID   int64        `json:"session_id"`
	Role        MessageRole  `json:"role"`
	Content     string       `json:"content"`
	FeynmanStep *FeynmanStep `json:"feynman_step"`
	CreatedAt   time.Time    `json:"created_at"`
}

type CreateMessageRequest struct {
	SessionID   int64        `json:"session_id" validate:"required,gt=0"`
	Role        MessageRole  `json:"role" validate:"required,oneof=user ai"`
	Content     string       `json:"content" validate:"required"`
	FeynmanStep *FeynmanStep `json:"feynman_step" validate:"omitempty,oneof=explain review simplify analogize"`
}
