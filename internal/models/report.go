package models

// ProgressReport summarises a user's teaching history.
type ProgressReport struct {
	UserID            int64               `json:"user_id"`
	TotalSessions     int                 `json:"total_sessions"`
	CompletedSessions int                 `json:"completed_sessions"`
	MeanProgress      float64             `json:"mean_progress"`
	MedianProgress    float64             `json:"median_progress"`
	StepCompletions   map[FeynmanStep]int `json:"step_completions"`
	GapsByStatus      map[GapStatus]int   `json:"gaps_by_status"`
	TotalMessages     int                 `json:"total_messages"`
	TotalQuizzes      int                 `json:"total_quizzes"`
	Sessions          []SessionSummary    `json:"sessions"`
}

type SessionSummary struct {
	SessionID   int64       `json:"session_id"`
	Title       string      `json:"title"`
	CurrentStep FeynmanStep `json:"current_step"`
	Percent     int         `json:"percent"`
	Messages    int         `json:"messages"`
	Completed   bool        `json:"completed"`
}
