package models

import "time"

type Quiz struct {
	ID        int64          `json:"id"`
	SessionID int64          `json:"session_id"`
	Title     string         `json:"title"`
	Questions []QuizQuestion `json:"questions"`
	CreatedAt time.Time      `json:"created_at"`
}

type QuizQuestion struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectOption int      `json:"correct_option"`
}

type GenerateQuizRequest struct {
	SessionID int64  `json:"session_id" validate:"required,gt=0"`
	Topic     string `json:"topic"`
}

// QuizAttempt tracks one pass through a quiz.
type QuizAttempt struct {
	ID           string          `json:"id"`
	QuizID       int64           `json:"quiz_id"`
	SessionID    int64           `json:"session_id"`
	CurrentIndex int             `json:"current_index"`
	Answers      []AttemptAnswer `json:"answers"`
	CorrectCount int             `json:"correct_count"`
	Finished     bool            `json:"finished"`
	StartedAt    time.Time       `json:"started_at"`
	CompletedAt  *time.Time      `json:"completed_at"`
}

type AttemptAnswer struct {
	QuestionID  string `json:"question_id"`
	OptionIndex int    `json:"option_index"`
	Correct     bool   `json:"correct"`
}

type AnswerRequest struct {
	OptionIndex *int `json:"option_index" validate:"required,min=0"`
}

type AnswerResult struct {
	AttemptID         string  `json:"attempt_id"`
	QuestionID        string  `json:"question_id"`
	Correct           bool    `json:"correct"`
	CorrectOption     int     `json:"correct_option"`
	Finished          bool    `json:"finished"`
	NextQuestionIndex *int    `json:"next_question_index"`
	AdvanceAfterMs    int64   `json:"advance_after_ms"`
	CorrectCount      int     `json:"correct_count"`
	Notice            *Notice `json:"notice,omitempty"`
}
