package services

import (
	"context"
	"strings"

	"feynman-backend/internal/logger"
	"feynman-backend/internal/models"
	"feynman-backend/internal/repository"
)

// ChatService turns one user utterance into a persisted exchange.
type ChatService struct {
	store     repository.Store
	responder Responder
	progress  *ProgressService
	log       *logger.Logger

	locks keyedMutex // by session ID
}

func NewChatService(store repository.Store, responder Responder, progress *ProgressService, log *logger.Logger) *ChatService {
	return &ChatService{
		store:     store,
		responder: responder,
		progress:  progress,
		log:       log,
	}
}

// Send stores the user's message, asks the persona for a reply tagged with
// the session's current step and syncs progress. An initial send skips the
// user message and stores the persona's greeting instead.
//
// If the reply fails the user message stays stored, no AI message is added
// and the result carries a notice instead of an error.
func (s *ChatService) Send(ctx context.Context, req models.ChatRequest) (*models.ChatResult, error) {
	if err := ValidateStruct(req); err != nil {
		return nil, err
	}
	content := strings.TrimSpace(storableText(req.Content))
	if !req.IsInitial && content == "" {
		return nil, &ValidationError{Fields: map[string]string{"content": "This field is required"}}
	}

	unlock := s.locks.Lock(req.SessionID)
	defer unlock()

	sess, err := s.store.GetSession(ctx, req.SessionID)
	if err != nil {
		return nil, storeError(err, "Session")
	}
	persona, err := s.store.GetPersona(ctx, sess.AiPersonaID)
	if err != nil {
		return nil, storeError(err, "Persona")
	}
	step := sess.CurrentStep

	result := &models.ChatResult{}
	var reply string

	if req.IsInitial {
		reply = s.responder.Greeting(persona)
	} else {
		history, err := s.store.ListMessagesBySession(ctx, sess.ID)
		if err != nil {
			return nil, err
		}

		userMsg := &models.Message{SessionID: sess.ID, Role: models.RoleUser, Content: content}
		if err := s.store.CreateMessage(ctx, userMsg); err != nil {
			return nil, storeError(err, "Session")
		}
		result.UserMessage = userMsg

		reply, err = s.responder.Reply(ctx, persona, step, history, content)
		if err != nil {
			s.log.Warn("Chat reply failed", "session_id", sess.ID, "error", err)
			result.Notice = &models.Notice{
				Title:       "Message Failed",
				Description: "Failed to send message. Please try again.",
				Variant:     "destructive",
			}
			result.Progress = Snapshot(sess)
			return result, nil
		}
	}

	aiMsg := &models.Message{SessionID: sess.ID, Role: models.RoleAI, Content: reply, FeynmanStep: &step}
	if err := s.store.CreateMessage(ctx, aiMsg); err != nil {
		return nil, storeError(err, "Session")
	}
	result.AIMessage = aiMsg

	progress, err := s.progress.Sync(ctx, sess.ID)
	if err != nil {
		s.log.Error("Failed to sync progress after chat", "session_id", sess.ID, "error", err)
	}
	result.Progress = progress
	return result, nil
}
