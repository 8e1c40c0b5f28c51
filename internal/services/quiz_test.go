package services

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feynman-backend/internal/models"
	"feynman-backend/internal/repository"
)

func intPtr(v int) *int { return &v }

func newQuizService(f *fixture) *QuizService {
	return NewQuizService(f.store, NewHeuristicAnalyzer(), NewMemoryAttemptStore(), 1500*time.Millisecond, nop)
}

func TestGenerateQuiz_MitochondriaQuestion(t *testing.T) {
	f := newFixture(t)
	f.addMessage(t, models.RoleUser, "Mitochondria are the powerhouse of the cell.", nil)
	svc := newQuizService(f)

	quiz, err := svc.Generate(context.Background(), models.GenerateQuizRequest{SessionID: f.session.ID})
	require.NoError(t, err)

	assert.Equal(t, "Quiz on Current Topic", quiz.Title)
	require.Len(t, quiz.Questions, 1)
	q := quiz.Questions[0]
	assert.Equal(t, "q1", q.ID)
	assert.Equal(t, "Which organelle is known as the powerhouse of the cell?", q.Question)
	assert.Equal(t, "Mitochondria", q.Options[q.CorrectOption])

	listed, err := svc.List(context.Background(), f.session.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, quiz.ID, listed[0].ID)
}

func TestGenerateQuiz_TitleFallsBackToSessionTopic(t *testing.T) {
	f := newFixture(t)
	topic := "Forces and motion"
	_, err := f.store.UpdateSession(context.Background(), f.session.ID, repository.SessionUpdate{Topic: &topic})
	require.NoError(t, err)
	svc := newQuizService(f)

	quiz, err := svc.Generate(context.Background(), models.GenerateQuizRequest{SessionID: f.session.ID})
	require.NoError(t, err)
	assert.Equal(t, topic, quiz.Title)
	require.Len(t, quiz.Questions, 1)
	assert.Contains(t, quiz.Questions[0].Question, "Newton's First Law")

	quiz, err = svc.Generate(context.Background(), models.GenerateQuizRequest{SessionID: f.session.ID, Topic: "Study habits"})
	require.NoError(t, err)
	assert.Equal(t, "Study habits", quiz.Title)
	assert.Contains(t, quiz.Questions[0].Question, "Feynman technique")
}

func TestGenerateQuiz_StoresEmptyQuiz(t *testing.T) {
	f := newFixture(t)
	gateway, _ := mockGateway()
	svc := NewQuizService(f.store, NewDelegatedAnalyzer(gateway), NewMemoryAttemptStore(), 0, nop)

	quiz, err := svc.Generate(context.Background(), models.GenerateQuizRequest{SessionID: f.session.ID})
	require.NoError(t, err)
	assert.NotZero(t, quiz.ID)
	assert.NotNil(t, quiz.Questions)
	assert.Empty(t, quiz.Questions)

	_, err = svc.StartAttempt(context.Background(), quiz.ID)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func twoQuestionQuiz(t *testing.T, f *fixture) *models.Quiz {
	t.Helper()
	quiz := &models.Quiz{
		SessionID: f.session.ID,
		Title:     "Cells",
		Questions: []models.QuizQuestion{
			{ID: "q1", Question: "Powerhouse?", Options: []string{"Nucleus", "Ribosome", "Mitochondria", "Golgi apparatus"}, CorrectOption: 2},
			{ID: "q2", Question: "Holds DNA?", Options: []string{"Nucleus", "Ribosome", "Mitochondria", "Golgi apparatus"}, CorrectOption: 0},
		},
	}
	require.NoError(t, f.store.CreateQuiz(context.Background(), quiz))
	return quiz
}

func TestQuizAttempt_AnswerFlow(t *testing.T) {
	f := newFixture(t)
	quiz := twoQuestionQuiz(t, f)
	svc := newQuizService(f)
	ctx := context.Background()

	attempt, err := svc.StartAttempt(ctx, quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, attempt.CurrentIndex)
	assert.NotEmpty(t, attempt.ID)

	first, err := svc.Answer(ctx, attempt.ID, models.AnswerRequest{OptionIndex: intPtr(1)})
	require.NoError(t, err)
	assert.False(t, first.Correct)
	assert.Equal(t, 2, first.CorrectOption)
	assert.False(t, first.Finished)
	require.NotNil(t, first.NextQuestionIndex)
	assert.Equal(t, 1, *first.NextQuestionIndex)
	assert.Equal(t, int64(1500), first.AdvanceAfterMs)
	assert.Nil(t, first.Notice)

	second, err := svc.Answer(ctx, attempt.ID, models.AnswerRequest{OptionIndex: intPtr(0)})
	require.NoError(t, err)
	assert.True(t, second.Correct)
	assert.True(t, second.Finished)
	assert.Nil(t, second.NextQuestionIndex)
	assert.Equal(t, 1, second.CorrectCount)
	require.NotNil(t, second.Notice)
	assert.Equal(t, "Quiz Completed", second.Notice.Title)
	assert.Equal(t, "You've completed the quiz!", second.Notice.Description)

	stored, err := svc.GetAttempt(ctx, attempt.ID)
	require.NoError(t, err)
	assert.True(t, stored.Finished)
	assert.NotNil(t, stored.CompletedAt)
	assert.Len(t, stored.Answers, 2)

	_, err = svc.Answer(ctx, attempt.ID, models.AnswerRequest{OptionIndex: intPtr(0)})
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
}

func TestQuizAttempt_RejectsBadAnswers(t *testing.T) {
	f := newFixture(t)
	quiz := twoQuestionQuiz(t, f)
	svc := newQuizService(f)
	ctx := context.Background()

	attempt, err := svc.StartAttempt(ctx, quiz.ID)
	require.NoError(t, err)

	var verr *ValidationError
	_, err = svc.Answer(ctx, attempt.ID, models.AnswerRequest{OptionIndex: intPtr(4)})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "option_index")

	_, err = svc.Answer(ctx, attempt.ID, models.AnswerRequest{})
	require.ErrorAs(t, err, &verr)

	_, err = svc.Answer(ctx, "missing", models.AnswerRequest{OptionIndex: intPtr(0)})
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestMemoryAttemptStore_ReturnsCopies(t *testing.T) {
	s := NewMemoryAttemptStore()
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, &models.QuizAttempt{ID: "a1", QuizID: 3, Answers: []models.AttemptAnswer{}}))

	got, err := s.Get(ctx, "a1")
	require.NoError(t, err)
	got.CurrentIndex = 5

	again, err := s.Get(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, 0, again.CurrentIndex)

	_, err = s.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrAttemptNotFound)
}

func TestRedisAttemptStore(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	opt, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opt)
	defer client.Close()

	s := NewRedisAttemptStore(client)
	ctx := context.Background()
	a := &models.QuizAttempt{ID: "redis-test-attempt", QuizID: 9, Answers: []models.AttemptAnswer{}}
	require.NoError(t, s.Save(ctx, a))
	defer client.Del(ctx, attemptKey(a.ID))

	got, err := s.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(9), got.QuizID)

	ttl, err := client.TTL(ctx, attemptKey(a.ID)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Hour)

	_, err = s.Get(ctx, "does-not-exist")
	assert.ErrorIs(t, err, ErrAttemptNotFound)
}
