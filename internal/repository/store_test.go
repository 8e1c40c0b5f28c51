package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feynman-backend/internal/models"
)

// runStoreSuite exercises behaviour every Store implementation must share.
func runStoreSuite(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	seedSession := func(t *testing.T, s Store) (*models.User, *models.AiPersona, *models.Session) {
		t.Helper()
		user := &models.User{Username: "ada", PasswordHash: "x", DisplayName: "Ada"}
		require.NoError(t, s.CreateUser(ctx, user))
		persona := &models.AiPersona{UserID: user.ID, Name: "Alex", Age: 16, Interests: []string{"Science"}, CommunicationStyle: models.StyleBalanced}
		require.NoError(t, s.CreatePersona(ctx, persona))
		sess := &models.Session{UserID: user.ID, AiPersonaID: persona.ID, Title: "Newton"}
		require.NoError(t, s.CreateSession(ctx, sess))
		return user, persona, sess
	}

	t.Run("session defaults to explain", func(t *testing.T) {
		s := newStore(t)
		_, _, sess := seedSession(t, s)

		got, err := s.GetSession(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StepExplain, got.CurrentStep)
		assert.Empty(t, got.StepsCompleted)
		assert.False(t, got.Completed)
	})

	t.Run("missing records return ErrNotFound", func(t *testing.T) {
		s := newStore(t)
		_, err := s.GetSession(ctx, 9999)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = s.UpdateSession(ctx, 9999, SessionUpdate{})
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = s.UpdateGapStatus(ctx, 9999, models.GapCovered)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("foreign keys are enforced", func(t *testing.T) {
		s := newStore(t)
		user, _, _ := seedSession(t, s)

		err := s.CreateSession(ctx, &models.Session{UserID: user.ID, AiPersonaID: 9999, Title: "x"})
		assert.ErrorIs(t, err, ErrInvalidReference)

		err = s.CreateMessage(ctx, &models.Message{SessionID: 9999, Role: models.RoleUser, Content: "hi"})
		assert.ErrorIs(t, err, ErrInvalidReference)
	})

	t.Run("completed steps are never dropped", func(t *testing.T) {
		s := newStore(t)
		_, _, sess := seedSession(t, s)

		_, err := s.UpdateSession(ctx, sess.ID, SessionUpdate{StepsCompleted: []models.FeynmanStep{models.StepReview, models.StepExplain}})
		require.NoError(t, err)
		got, err := s.UpdateSession(ctx, sess.ID, SessionUpdate{StepsCompleted: []models.FeynmanStep{}})
		require.NoError(t, err)

		assert.Equal(t, []models.FeynmanStep{models.StepExplain, models.StepReview}, got.StepsCompleted)
		assert.False(t, got.UpdatedAt.Before(sess.UpdatedAt))
	})

	t.Run("messages are ordered by creation", func(t *testing.T) {
		s := newStore(t)
		_, _, sess := seedSession(t, s)

		for _, content := range []string{"one", "two", "three"} {
			require.NoError(t, s.CreateMessage(ctx, &models.Message{SessionID: sess.ID, Role: models.RoleUser, Content: content}))
		}
		msgs, err := s.ListMessagesBySession(ctx, sess.ID)
		require.NoError(t, err)
		require.Len(t, msgs, 3)
		assert.Equal(t, "one", msgs[0].Content)
		assert.Equal(t, "three", msgs[2].Content)
	})

	t.Run("material concepts stay null until analysed", func(t *testing.T) {
		s := newStore(t)
		user, _, sess := seedSession(t, s)

		m := &models.Material{UserID: user.ID, SessionID: &sess.ID, Name: "notes.txt", Type: models.MaterialText, Content: "f=ma"}
		require.NoError(t, s.CreateMaterial(ctx, m))
		got, err := s.GetMaterial(ctx, m.ID)
		require.NoError(t, err)
		assert.Nil(t, got.ExtractedConcepts)

		got, err = s.UpdateMaterialConcepts(ctx, m.ID, []string{"Force"})
		require.NoError(t, err)
		assert.Equal(t, []string{"Force"}, got.ExtractedConcepts)

		bySession, err := s.ListMaterialsBySession(ctx, sess.ID)
		require.NoError(t, err)
		assert.Len(t, bySession, 1)
	})

	t.Run("gaps append without deduplication", func(t *testing.T) {
		s := newStore(t)
		_, _, sess := seedSession(t, s)

		for i := 0; i < 2; i++ {
			require.NoError(t, s.CreateGap(ctx, &models.Gap{SessionID: sess.ID, Concept: "Inertia", Status: models.GapNotCovered}))
		}
		gaps, err := s.ListGapsBySession(ctx, sess.ID)
		require.NoError(t, err)
		assert.Len(t, gaps, 2)

		updated, err := s.UpdateGapStatus(ctx, gaps[0].ID, models.GapCovered)
		require.NoError(t, err)
		assert.Equal(t, models.GapCovered, updated.Status)
	})

	t.Run("quiz questions round trip", func(t *testing.T) {
		s := newStore(t)
		_, _, sess := seedSession(t, s)

		q := &models.Quiz{SessionID: sess.ID, Title: "Quiz", Questions: []models.QuizQuestion{
			{ID: "q1", Question: "?", Options: []string{"a", "b", "c", "d"}, CorrectOption: 2},
		}}
		require.NoError(t, s.CreateQuiz(ctx, q))
		got, err := s.GetQuiz(ctx, q.ID)
		require.NoError(t, err)
		assert.Equal(t, q.Questions, got.Questions)
	})
}
