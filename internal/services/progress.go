package services

import (
	"context"
	"fmt"
	"math"

	"feynman-backend/internal/logger"
	"feynman-backend/internal/models"
	"feynman-backend/internal/repository"
)

// ProgressService owns the four-step Feynman state of each session.
type ProgressService struct {
	store     repository.Store
	publisher Publisher
	log       *logger.Logger
}

func NewProgressService(store repository.Store, publisher Publisher, log *logger.Logger) *ProgressService {
	return &ProgressService{
		store:     store,
		publisher: publisherOrNop(publisher),
		log:       log,
	}
}

// Snapshot renders the progress view of a session.
func Snapshot(s *models.Session) *models.FeynmanProgress {
	steps := make([]models.StepState, len(models.FeynmanSteps))
	for i, step := range models.FeynmanSteps {
		steps[i] = models.StepState{
			ID:          step,
			Label:       step.Label(),
			Description: step.Description(),
			Complete:    s.HasCompleted(step),
		}
	}

	completed := repository.MergeSteps(nil, s.StepsCompleted)
	percent := int(math.Round(float64(len(completed)) / float64(len(models.FeynmanSteps)) * 100))
	if percent > 100 {
		percent = 100
	}

	return &models.FeynmanProgress{
		SessionID:      s.ID,
		CurrentStep:    s.CurrentStep,
		StepsCompleted: completed,
		Steps:          steps,
		Percent:        percent,
		AllComplete:    len(completed) == len(models.FeynmanSteps),
	}
}

// RecomputeFromTranscript derives step state from tagged messages. The most
// recently created tagged message sets the current step (ties go to the
// higher ID) and every tag seen is marked complete. Without tagged messages
// the session's own step is kept. The input session is not modified.
func RecomputeFromTranscript(s *models.Session, messages []*models.Message) *models.Session {
	out := *s
	out.StepsCompleted = repository.MergeSteps(nil, s.StepsCompleted)

	var (
		latest *models.Message
		seen   []models.FeynmanStep
	)
	for _, m := range messages {
		if m.FeynmanStep == nil || !m.FeynmanStep.Valid() {
			continue
		}
		seen = append(seen, *m.FeynmanStep)
		if latest == nil || newerThan(m, latest) {
			latest = m
		}
	}
	if latest == nil {
		return &out
	}

	out.CurrentStep = *latest.FeynmanStep
	out.StepsCompleted = repository.MergeSteps(out.StepsCompleted, seen)
	return &out
}

func newerThan(a, b *models.Message) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

// advanceState applies one advance to s in place and returns the notice to
// show. At the last step every step is marked complete and the step stays.
func advanceState(s *models.Session) *models.Notice {
	next, ok := s.CurrentStep.Next()
	if !ok {
		s.StepsCompleted = repository.MergeSteps(s.StepsCompleted, models.FeynmanSteps)
		s.Completed = true
		return &models.Notice{
			Title:       "Feynman Process Completed",
			Description: "You've completed all Feynman technique steps!",
		}
	}
	s.StepsCompleted = repository.MergeSteps(s.StepsCompleted, []models.FeynmanStep{s.CurrentStep})
	s.CurrentStep = next
	return &models.Notice{
		Title:       "Feynman Process",
		Description: fmt.Sprintf("Moving to %s step", next),
	}
}

// Advance completes the current step and moves to the next one. When the
// write fails the computed snapshot is still returned alongside the error.
func (s *ProgressService) Advance(ctx context.Context, sessionID int64) (*models.FeynmanProgress, error) {
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, storeError(err, "Session")
	}

	notice := advanceState(sess)
	snapshot := Snapshot(sess)
	snapshot.Notice = notice

	updated, err := s.store.UpdateSession(ctx, sessionID, repository.SessionUpdate{
		CurrentStep:    &sess.CurrentStep,
		StepsCompleted: sess.StepsCompleted,
		Completed:      &sess.Completed,
	})
	if err != nil {
		s.log.Error("Failed to persist step advance", "session_id", sessionID, "error", err)
		return snapshot, fmt.Errorf("failed to save progress: %w", storeError(err, "Session"))
	}

	snapshot = Snapshot(updated)
	snapshot.Notice = notice
	s.publish(ctx, updated, snapshot)
	return snapshot, nil
}

// RecordFeedback handles the learner's reaction to an explanation. "good"
// on the explain step advances; "confused" only produces a notice.
func (s *ProgressService) RecordFeedback(ctx context.Context, sessionID int64, req models.FeedbackRequest) (*models.FeynmanProgress, error) {
	if err := ValidateStruct(req); err != nil {
		return nil, err
	}

	if req.Feedback == "confused" {
		snapshot, err := s.Progress(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		snapshot.Notice = &models.Notice{
			Title:       "Still Confused",
			Description: "Let's try to clarify this concept further.",
		}
		return snapshot, nil
	}

	good := &models.Notice{
		Title:       "Good Explanation",
		Description: "Great! Let's move to the next step.",
	}

	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, storeError(err, "Session")
	}
	if sess.CurrentStep != models.StepExplain {
		snapshot := Snapshot(sess)
		snapshot.Notice = good
		return snapshot, nil
	}

	snapshot, err := s.Advance(ctx, sessionID)
	if snapshot != nil {
		snapshot.Notice = good
	}
	return snapshot, err
}

// Progress returns the session's state merged with its transcript without
// writing anything.
func (s *ProgressService) Progress(ctx context.Context, sessionID int64) (*models.FeynmanProgress, error) {
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, storeError(err, "Session")
	}
	messages, err := s.store.ListMessagesBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return Snapshot(mergeTranscript(sess, messages)), nil
}

// Sync folds the transcript into the stored session. The current step never
// moves backward and completed steps are never dropped.
func (s *ProgressService) Sync(ctx context.Context, sessionID int64) (*models.FeynmanProgress, error) {
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, storeError(err, "Session")
	}
	messages, err := s.store.ListMessagesBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	merged := mergeTranscript(sess, messages)
	if merged.CurrentStep == sess.CurrentStep && len(merged.StepsCompleted) == len(sess.StepsCompleted) {
		return Snapshot(sess), nil
	}

	updated, err := s.store.UpdateSession(ctx, sessionID, repository.SessionUpdate{
		CurrentStep:    &merged.CurrentStep,
		StepsCompleted: merged.StepsCompleted,
	})
	if err != nil {
		return Snapshot(merged), fmt.Errorf("failed to save progress: %w", storeError(err, "Session"))
	}

	snapshot := Snapshot(updated)
	s.publish(ctx, updated, snapshot)
	return snapshot, nil
}

func mergeTranscript(sess *models.Session, messages []*models.Message) *models.Session {
	merged := RecomputeFromTranscript(sess, messages)
	if merged.CurrentStep.Index() < sess.CurrentStep.Index() {
		merged.CurrentStep = sess.CurrentStep
	}
	return merged
}

func (s *ProgressService) publish(ctx context.Context, sess *models.Session, snapshot *models.FeynmanProgress) {
	s.publisher.Publish(ctx, sess.UserID, models.WSMessage{
		Type:    models.EventProgressUpdated,
		Payload: snapshot,
	})
}
