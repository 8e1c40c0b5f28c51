package services

import (
	"context"

	"github.com/montanaflynn/stats"

	"feynman-backend/internal/models"
	"feynman-backend/internal/repository"
)

type StatsService struct {
	store repository.Store
}

func NewStatsService(store repository.Store) *StatsService {
	return &StatsService{store: store}
}

// UserProgress summarises every session a user has taught.
func (s *StatsService) UserProgress(ctx context.Context, userID int64) (*models.ProgressReport, error) {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, storeError(err, "User")
	}
	sessions, err := s.store.ListSessionsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	report := &models.ProgressReport{
		UserID:          userID,
		TotalSessions:   len(sessions),
		StepCompletions: make(map[models.FeynmanStep]int, len(models.FeynmanSteps)),
		GapsByStatus:    make(map[models.GapStatus]int, 3),
		Sessions:        make([]models.SessionSummary, 0, len(sessions)),
	}
	for _, step := range models.FeynmanSteps {
		report.StepCompletions[step] = 0
	}
	for _, st := range []models.GapStatus{models.GapNotCovered, models.GapPartiallyCovered, models.GapCovered} {
		report.GapsByStatus[st] = 0
	}

	percents := make(stats.Float64Data, 0, len(sessions))
	for _, sess := range sessions {
		messages, err := s.store.ListMessagesBySession(ctx, sess.ID)
		if err != nil {
			return nil, err
		}
		gaps, err := s.store.ListGapsBySession(ctx, sess.ID)
		if err != nil {
			return nil, err
		}
		quizzes, err := s.store.ListQuizzesBySession(ctx, sess.ID)
		if err != nil {
			return nil, err
		}

		snap := Snapshot(sess)
		percents = append(percents, float64(snap.Percent))

		if sess.Completed {
			report.CompletedSessions++
		}
		for _, step := range snap.StepsCompleted {
			report.StepCompletions[step]++
		}
		for _, g := range gaps {
			report.GapsByStatus[g.Status]++
		}
		report.TotalMessages += len(messages)
		report.TotalQuizzes += len(quizzes)

		report.Sessions = append(report.Sessions, models.SessionSummary{
			SessionID:   sess.ID,
			Title:       sess.Title,
			CurrentStep: sess.CurrentStep,
			Percent:     snap.Percent,
			Messages:    len(messages),
			Completed:   sess.Completed,
		})
	}

	if len(percents) > 0 {
		mean, _ := stats.Mean(percents)
		median, _ := stats.Median(percents)
		report.MeanProgress, _ = stats.Round(mean, 1)
		report.MedianProgress, _ = stats.Round(median, 1)
	}
	return report, nil
}
