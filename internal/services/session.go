package services

import (
	"context"
	"strings"

	"feynman-backend/internal/logger"
	"feynman-backend/internal/models"
	"feynman-backend/internal/repository"
)

type SessionService struct {
	store     repository.Store
	publisher Publisher
	log       *logger.Logger
}

func NewSessionService(store repository.Store, publisher Publisher, log *logger.Logger) *SessionService {
	return &SessionService{
		store:     store,
		publisher: publisherOrNop(publisher),
		log:       log,
	}
}

// Create starts a session. The persona must belong to the same user.
func (s *SessionService) Create(ctx context.Context, req models.CreateSessionRequest) (*models.Session, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := ValidateStruct(req); err != nil {
		return nil, err
	}

	if _, err := s.store.GetUser(ctx, req.UserID); err != nil {
		return nil, storeError(err, "User")
	}
	persona, err := s.store.GetPersona(ctx, req.AiPersonaID)
	if err != nil {
		return nil, storeError(err, "Persona")
	}
	if persona.UserID != req.UserID {
		return nil, &ValidationError{Fields: map[string]string{"ai_persona_id": "Persona does not belong to this user"}}
	}

	sess := &models.Session{
		UserID:         req.UserID,
		AiPersonaID:    req.AiPersonaID,
		Title:          req.Title,
		Topic:          req.Topic,
		CurrentStep:    models.StepExplain,
		StepsCompleted: repository.MergeSteps(nil, req.StepsCompleted),
	}
	if req.CurrentStep != nil {
		sess.CurrentStep = *req.CurrentStep
	}
	if err := s.store.CreateSession(ctx, sess); err != nil {
		return nil, storeError(err, "Session")
	}

	s.log.Info("Session created", "session_id", sess.ID, "user_id", sess.UserID)
	return sess, nil
}

func (s *SessionService) Get(ctx context.Context, id int64) (*models.Session, error) {
	sess, err := s.store.GetSession(ctx, id)
	if err != nil {
		return nil, storeError(err, "Session")
	}
	return sess, nil
}

// ListByUser returns the user's sessions, most recently updated first.
func (s *SessionService) ListByUser(ctx context.Context, userID int64) ([]*models.Session, error) {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, storeError(err, "User")
	}
	return s.store.ListSessionsByUser(ctx, userID)
}

// Update applies a partial edit. The step may only move forward and
// completed steps are merged into, never replacing, the stored set.
func (s *SessionService) Update(ctx context.Context, id int64, req models.UpdateSessionRequest) (*models.Session, error) {
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		req.Title = &title
	}
	if err := ValidateStruct(req); err != nil {
		return nil, err
	}

	current, err := s.store.GetSession(ctx, id)
	if err != nil {
		return nil, storeError(err, "Session")
	}
	if req.Title != nil && *req.Title == "" {
		return nil, &ValidationError{Fields: map[string]string{"title": "Must have at least 1 character"}}
	}
	if req.CurrentStep != nil && req.CurrentStep.Index() < current.CurrentStep.Index() {
		return nil, &ValidationError{Fields: map[string]string{"current_step": "Cannot move back to an earlier step"}}
	}

	updated, err := s.store.UpdateSession(ctx, id, repository.SessionUpdate{
		Title:          req.Title,
		Topic:          req.Topic,
		CurrentStep:    req.CurrentStep,
		StepsCompleted: req.StepsCompleted,
		Completed:      req.Completed,
	})
	if err != nil {
		return nil, storeError(err, "Session")
	}

	if req.CurrentStep != nil || req.StepsCompleted != nil || req.Completed != nil {
		s.publisher.Publish(ctx, updated.UserID, models.WSMessage{
			Type:    models.EventProgressUpdated,
			Payload: Snapshot(updated),
		})
	}
	return updated, nil
}

// Messages lists a session's transcript in creation order.
func (s *SessionService) Messages(ctx context.Context, sessionID int64) ([]*models.Message, error) {
	if _, err := s.store.GetSession(ctx, sessionID); err != nil {
		return nil, storeError(err, "Session")
	}
	return s.store.ListMessagesBySession(ctx, sessionID)
}

// AddMessage appends a message as-is, without asking the persona to reply.
func (s *SessionService) AddMessage(ctx context.Context, req models.CreateMessageRequest) (*models.Message, error) {
	req.Content = storableText(req.Content)
	if err := ValidateStruct(req); err != nil {
		return nil, err
	}
	m := &models.Message{
		SessionID:   req.SessionID,
		Role:        req.Role,
		Content:     req.Content,
		FeynmanStep: req.FeynmanStep,
	}
	if err := s.store.CreateMessage(ctx, m); err != nil {
		return nil, storeError(err, "Session")
	}
	return m, nil
}
