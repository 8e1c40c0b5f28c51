package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feynman-backend/internal/models"
)

func TestRecordFeedback_GoodOnExplainAdvances(t *testing.T) {
	f := newFixture(t)
	pub := &recordingPublisher{}
	svc := NewProgressService(f.store, pub, nop)

	got, err := svc.RecordFeedback(context.Background(), f.session.ID, models.FeedbackRequest{Feedback: "good"})
	require.NoError(t, err)

	assert.Equal(t, models.StepReview, got.CurrentStep)
	assert.Equal(t, []models.FeynmanStep{models.StepExplain}, got.StepsCompleted)
	assert.Equal(t, 25, got.Percent)
	require.NotNil(t, got.Notice)
	assert.Equal(t, "Good Explanation", got.Notice.Title)
	assert.Equal(t, "Great! Let's move to the next step.", got.Notice.Description)
	assert.Equal(t, []string{models.EventProgressUpdated}, pub.types())

	stored, err := f.store.GetSession(context.Background(), f.session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StepReview, stored.CurrentStep)
}

func TestRecordFeedback_GoodAfterExplainDoesNotAdvance(t *testing.T) {
	f := newFixture(t)
	f.setStep(t, models.StepReview)
	svc := NewProgressService(f.store, nil, nop)

	got, err := svc.RecordFeedback(context.Background(), f.session.ID, models.FeedbackRequest{Feedback: "good"})
	require.NoError(t, err)
	assert.Equal(t, models.StepReview, got.CurrentStep)
	assert.Equal(t, "Good Explanation", got.Notice.Title)
}

func TestRecordFeedback_Confused(t *testing.T) {
	f := newFixture(t)
	svc := NewProgressService(f.store, nil, nop)

	got, err := svc.RecordFeedback(context.Background(), f.session.ID, models.FeedbackRequest{Feedback: "confused"})
	require.NoError(t, err)
	assert.Equal(t, models.StepExplain, got.CurrentStep)
	assert.Empty(t, got.StepsCompleted)
	assert.Equal(t, "Still Confused", got.Notice.Title)
}

func TestRecordFeedback_RejectsUnknownFeedback(t *testing.T) {
	f := newFixture(t)
	svc := NewProgressService(f.store, nil, nop)

	_, err := svc.RecordFeedback(context.Background(), f.session.ID, models.FeedbackRequest{Feedback: "meh"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "feedback")
}

func TestAdvance_WalksAllSteps(t *testing.T) {
	f := newFixture(t)
	svc := NewProgressService(f.store, nil, nop)
	ctx := context.Background()

	wantNotices := []string{"Moving to review step", "Moving to simplify step", "Moving to analogize step"}
	for _, want := range wantNotices {
		got, err := svc.Advance(ctx, f.session.ID)
		require.NoError(t, err)
		assert.Equal(t, "Feynman Process", got.Notice.Title)
		assert.Equal(t, want, got.Notice.Description)
	}

	got, err := svc.Advance(ctx, f.session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StepAnalogize, got.CurrentStep)
	assert.Equal(t, models.FeynmanSteps, got.StepsCompleted)
	assert.Equal(t, 100, got.Percent)
	assert.True(t, got.AllComplete)
	assert.Equal(t, "Feynman Process Completed", got.Notice.Title)
	assert.Equal(t, "You've completed all Feynman technique steps!", got.Notice.Description)

	stored, err := f.store.GetSession(ctx, f.session.ID)
	require.NoError(t, err)
	assert.True(t, stored.Completed)
}

func TestAdvance_AtAnalogizeCompletesEverything(t *testing.T) {
	f := newFixture(t)
	f.setStep(t, models.StepAnalogize)
	svc := NewProgressService(f.store, nil, nop)

	got, err := svc.Advance(context.Background(), f.session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StepAnalogize, got.CurrentStep)
	assert.Len(t, got.StepsCompleted, 4)
	for _, s := range got.Steps {
		assert.True(t, s.Complete, s.ID)
	}
}

func TestAdvance_UnknownSession(t *testing.T) {
	f := newFixture(t)
	svc := NewProgressService(f.store, nil, nop)

	_, err := svc.Advance(context.Background(), 999)
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "Session not found", nf.Message)
}

func TestRecomputeFromTranscript(t *testing.T) {
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	sess := &models.Session{ID: 1, CurrentStep: models.StepExplain, StepsCompleted: []models.FeynmanStep{}}
	msgs := []*models.Message{
		{ID: 1, Role: models.RoleAI, FeynmanStep: stepPtr(models.StepExplain), CreatedAt: base},
		{ID: 2, Role: models.RoleUser, CreatedAt: base.Add(time.Minute)},
		{ID: 3, Role: models.RoleAI, FeynmanStep: stepPtr(models.StepReview), CreatedAt: base.Add(2 * time.Minute)},
		{ID: 4, Role: models.RoleUser, CreatedAt: base.Add(3 * time.Minute)},
	}

	once := RecomputeFromTranscript(sess, msgs)
	assert.Equal(t, models.StepReview, once.CurrentStep)
	assert.Equal(t, []models.FeynmanStep{models.StepExplain, models.StepReview}, once.StepsCompleted)

	twice := RecomputeFromTranscript(once, msgs)
	assert.Equal(t, once, twice)

	assert.Equal(t, models.StepExplain, sess.CurrentStep, "input must not change")
	assert.Empty(t, sess.StepsCompleted)
}

func TestRecomputeFromTranscript_TieGoesToHigherID(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	sess := &models.Session{CurrentStep: models.StepExplain}
	msgs := []*models.Message{
		{ID: 8, FeynmanStep: stepPtr(models.StepReview), CreatedAt: at},
		{ID: 7, FeynmanStep: stepPtr(models.StepSimplify), CreatedAt: at},
	}

	got := RecomputeFromTranscript(sess, msgs)
	assert.Equal(t, models.StepReview, got.CurrentStep)
}

func TestRecomputeFromTranscript_NoTagsKeepsStep(t *testing.T) {
	sess := &models.Session{CurrentStep: models.StepSimplify, StepsCompleted: []models.FeynmanStep{models.StepExplain}}
	got := RecomputeFromTranscript(sess, []*models.Message{{ID: 1, Role: models.RoleUser}})
	assert.Equal(t, models.StepSimplify, got.CurrentStep)
	assert.Equal(t, []models.FeynmanStep{models.StepExplain}, got.StepsCompleted)
}

func TestSync_NeverMovesBackward(t *testing.T) {
	f := newFixture(t)
	f.setStep(t, models.StepSimplify)
	f.addMessage(t, models.RoleAI, "old reply", stepPtr(models.StepExplain))
	pub := &recordingPublisher{}
	svc := NewProgressService(f.store, pub, nop)

	got, err := svc.Sync(context.Background(), f.session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StepSimplify, got.CurrentStep)
	assert.Equal(t, []models.FeynmanStep{models.StepExplain}, got.StepsCompleted)
	assert.Len(t, pub.types(), 1)

	// Nothing new to fold in.
	_, err = svc.Sync(context.Background(), f.session.ID)
	require.NoError(t, err)
	assert.Len(t, pub.types(), 1)
}

func TestProgress_IsReadOnly(t *testing.T) {
	f := newFixture(t)
	f.addMessage(t, models.RoleAI, "reply", stepPtr(models.StepReview))
	svc := NewProgressService(f.store, nil, nop)

	got, err := svc.Progress(context.Background(), f.session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StepReview, got.CurrentStep)

	stored, err := f.store.GetSession(context.Background(), f.session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StepExplain, stored.CurrentStep)
}

func TestSnapshot(t *testing.T) {
	tests := []struct {
		completed []models.FeynmanStep
		percent   int
	}{
		{nil, 0},
		{[]models.FeynmanStep{models.StepExplain}, 25},
		{[]models.FeynmanStep{models.StepExplain, models.StepReview, models.StepSimplify}, 75},
		{[]models.FeynmanStep{models.StepReview, models.StepReview}, 25},
		{models.FeynmanSteps, 100},
	}
	for _, tt := range tests {
		got := Snapshot(&models.Session{CurrentStep: models.StepExplain, StepsCompleted: tt.completed})
		assert.Equal(t, tt.percent, got.Percent, "%v", tt.completed)
		assert.Len(t, got.Steps, 4)
	}
}
