package models

type ChatRequest struct {
	SessionID int64  `json:"session_id" validate:"required,gt=0"`
	Content   string `json:"content"`
	IsInitial bool   `json:"is_initial"`
}

// ChatResult is one exchange. AIMessage is nil when the reply failed, in
// which case Notice explains why and UserMessage stays persisted.
type ChatResult struct {
	UserMessage *Message         `json:"user_message"`
	AIMessage   *Message         `json:"ai_message"`
	Progress    *FeynmanProgress `json:"progress,omitempty"`
	Notice      *Notice          `json:"notice,omitempty"`
}
