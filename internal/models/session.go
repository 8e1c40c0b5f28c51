package models

import "time"

// FeynmanStep is one of the four ordered teaching phases.
type FeynmanStep string

const (
	StepExplain   FeynmanStep = "explain"
	StepReview    FeynmanStep = "review"
	StepSimplify  FeynmanStep = "simplify"
	StepAnalogize FeynmanStep = "analogize"
)

// FeynmanSteps lists the phases in their fixed order.
var FeynmanSteps = []FeynmanStep{StepExplain, StepReview, StepSimplify, StepAnalogize}

var stepLabels = map[FeynmanStep][2]string{
	StepExplain:   {"Explain", "Explain the concept as if you're teaching it to someone else"},
	StepReview:    {"Review", "Review your explanation and identify gaps or confusions"},
	StepSimplify:  {"Simplify", "Simplify the explanation with plain language"},
	StepAnalogize: {"Analogize", "Create analogies to make the concept more relatable"},
}

func (s FeynmanStep) Valid() bool {
	return s.Index() >= 0
}

// Index returns the position of s in FeynmanSteps, or -1.
func (s FeynmanStep) Index() int {
	for i, step := range FeynmanSteps {
		if step == s {
			return i
		}
	}
	return -1
}

// Next returns the following step; ok is false at the last step.
func (s FeynmanStep) Next() (FeynmanStep, bool) {
	i := s.Index()
	if i < 0 || i == len(FeynmanSteps)-1 {
		return s, false
	}
	return FeynmanSteps[i+1], true
}

func (s FeynmanStep) Label() string       { return stepLabels[s][0] }
func (s FeynmanStep) Description() string { return stepLabels[s][1] }

type Session struct {
	ID             int64         `json:"id"`
	UserID         int64         `json:"user_id"`
	AiPersonaID    int64         `json:"ai_persona_id"`
	Title          string        `json:"title"`
	Topic          *string       `json:"topic"`
	CurrentStep    FeynmanStep   `json:"current_step"`
	StepsCompleted []FeynmanStep `json:"steps_completed"`
	Completed      bool          `json:"completed"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// HasCompleted reports whether step is recorded as complete.
func (s *Session) HasCompleted(step FeynmanStep) bool {
	for _, c := range s.StepsCompleted {
		if c == step {
			return true
		}
	}
	return false
}

type CreateSessionRequest struct {
	UserID         int64         `json:"user_id" validate:"required,gt=0"`
	AiPersonaID    int64         `json:"ai_persona_id" validate:"required,gt=0"`
	Title          string        `json:"title" validate:"required"`
	Topic          *string       `json:"topic"`
	CurrentStep    *FeynmanStep  `json:"current_step" validate:"omitempty,oneof=explain review simplify analogize"`
	StepsCompleted []FeynmanStep `json:"steps_completed" validate:"omitempty,dive,oneof=explain review simplify analogize"`
}

type UpdateSessionRequest struct {
	Title          *string       `json:"title" validate:"omitempty,min=1"`
	Topic          *string       `json:"topic"`
	CurrentStep    *FeynmanStep  `json:"current_step" validate:"omitempty,oneof=explain review simplify analogize"`
	StepsCompleted []FeynmanStep `json:"steps_completed" validate:"omitempty,dive,oneof=explain review simplify analogize"`
	Completed      *bool         `json:"completed"`
}

type StepState struct {
	ID          FeynmanStep `json:"id"`
	Label       string      `json:"label"`
	Description string      `json:"description"`
	Complete    bool        `json:"complete"`
}

// FeynmanProgress is a snapshot of a session's position in the four phases.
type FeynmanProgress struct {
	SessionID      int64         `json:"session_id"`
	CurrentStep    FeynmanStep   `json:"current_step"`
	StepsCompleted []FeynmanStep `json:"steps_completed"`
	Steps          []StepState   `json:"steps"`
	Percent        int           `json:"percent"`
	AllComplete    bool          `json:"all_complete"`
	Notice         *Notice       `json:"notice,omitempty"`
}

// Notice is a short, dismissible message for the user.
type Notice struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Variant     string `json:"variant,omitempty"`
}

type FeedbackRequest struct {
	Feedback string `json:"feedback" validate:"required,oneof=good confused"`
	Message  string `json:"message"`
}
