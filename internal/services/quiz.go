package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"feynman-backend/internal/logger"
	"feynman-backend/internal/models"
	"feynman-backend/internal/repository"
)

const defaultQuizTitle = "Quiz on Current Topic"

type QuizService struct {
	store        repository.Store
	analyzer     ContentAnalyzer
	attempts     AttemptStore
	advanceDelay time.Duration
	log          *logger.Logger

	mu sync.Mutex // serializes answers
}

func NewQuizService(store repository.Store, analyzer ContentAnalyzer, attempts AttemptStore, advanceDelay time.Duration, log *logger.Logger) *QuizService {
	return &QuizService{
		store:        store,
		analyzer:     analyzer,
		attempts:     attempts,
		advanceDelay: advanceDelay,
		log:          log,
	}
}

// Generate builds a quiz from the session transcript. A blank topic falls
// back to the session topic. The quiz is stored even when no questions
// could be produced.
func (s *QuizService) Generate(ctx context.Context, req models.GenerateQuizRequest) (*models.Quiz, error) {
	if err := ValidateStruct(req); err != nil {
		return nil, err
	}

	sess, err := s.store.GetSession(ctx, req.SessionID)
	if err != nil {
		return nil, storeError(err, "Session")
	}
	messages, err := s.store.ListMessagesBySession(ctx, sess.ID)
	if err != nil {
		return nil, err
	}

	topic := strings.TrimSpace(req.Topic)
	if topic == "" && sess.Topic != nil {
		topic = strings.TrimSpace(*sess.Topic)
	}
	title := topic
	if title == "" {
		title = defaultQuizTitle
	}

	questions := s.analyzer.GenerateQuiz(ctx, messages, topic)
	if questions == nil {
		questions = []models.QuizQuestion{}
	}

	quiz := &models.Quiz{SessionID: sess.ID, Title: title, Questions: questions}
	if err := s.store.CreateQuiz(ctx, quiz); err != nil {
		return nil, storeError(err, "Quiz")
	}
	s.log.Info("Quiz generated", "session_id", sess.ID, "quiz_id", quiz.ID, "questions", len(questions))
	return quiz, nil
}

func (s *QuizService) Get(ctx context.Context, id int64) (*models.Quiz, error) {
	q, err := s.store.GetQuiz(ctx, id)
	if err != nil {
		return nil, storeError(err, "Quiz")
	}
	return q, nil
}

func (s *QuizService) List(ctx context.Context, sessionID int64) ([]*models.Quiz, error) {
	if _, err := s.store.GetSession(ctx, sessionID); err != nil {
		return nil, storeError(err, "Session")
	}
	return s.store.ListQuizzesBySession(ctx, sessionID)
}

// StartAttempt opens a new pass through a quiz at its first question.
func (s *QuizService) StartAttempt(ctx context.Context, quizID int64) (*models.QuizAttempt, error) {
	quiz, err := s.Get(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if len(quiz.Questions) == 0 {
		return nil, &ValidationError{Fields: map[string]string{"quiz_id": "Quiz has no questions"}}
	}

	a := &models.QuizAttempt{
		ID:        uuid.New().String(),
		QuizID:    quiz.ID,
		SessionID: quiz.SessionID,
		Answers:   []models.AttemptAnswer{},
		StartedAt: time.Now().UTC(),
	}
	if err := s.attempts.Save(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *QuizService) GetAttempt(ctx context.Context, id string) (*models.QuizAttempt, error) {
	a, err := s.attempts.Get(ctx, id)
	if errors.Is(err, ErrAttemptNotFound) {
		return nil, &NotFoundError{Message: "Quiz attempt not found"}
	}
	return a, err
}

// Answer checks optionIndex against the current question and moves the
// attempt on. The attempt finishes after the last question whatever the
// answer. The client waits AdvanceAfterMs before showing the next question.
func (s *QuizService) Answer(ctx context.Context, attemptID string, req models.AnswerRequest) (*models.AnswerResult, error) {
	if err := ValidateStruct(req); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.GetAttempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if a.Finished {
		return nil, &ConflictError{Message: "Quiz attempt already finished"}
	}

	quiz, err := s.Get(ctx, a.QuizID)
	if err != nil {
		return nil, err
	}
	if a.CurrentIndex >= len(quiz.Questions) {
		return nil, &ConflictError{Message: "Quiz attempt already finished"}
	}

	q := quiz.Questions[a.CurrentIndex]
	choice := *req.OptionIndex
	if choice >= len(q.Options) {
		return nil, &ValidationError{Fields: map[string]string{"option_index": "Option does not exist"}}
	}

	correct := choice == q.CorrectOption
	a.Answers = append(a.Answers, models.AttemptAnswer{QuestionID: q.ID, OptionIndex: choice, Correct: correct})
	if correct {
		a.CorrectCount++
	}

	result := &models.AnswerResult{
		AttemptID:      a.ID,
		QuestionID:     q.ID,
		Correct:        correct,
		CorrectOption:  q.CorrectOption,
		AdvanceAfterMs: s.advanceDelay.Milliseconds(),
	}

	if a.CurrentIndex == len(quiz.Questions)-1 {
		now := time.Now().UTC()
		a.Finished = true
		a.CompletedAt = &now
		result.Notice = &models.Notice{Title: "Quiz Completed", Description: "You've completed the quiz!"}
	} else {
		a.CurrentIndex++
		next := a.CurrentIndex
		result.NextQuestionIndex = &next
	}
	result.Finished = a.Finished
	result.CorrectCount = a.CorrectCount

	if err := s.attempts.Save(ctx, a); err != nil {
		return nil, err
	}
	return result, nil
}
