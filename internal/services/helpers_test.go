package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"feynman-backend/internal/logger"
	"feynman-backend/internal/models"
	"feynman-backend/internal/repository"
)

type fixture struct {
	store   *repository.MemoryStore
	user    *models.User
	persona *models.AiPersona
	session *models.Session
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := repository.NewMemoryStore()

	user := &models.User{Username: "maria", DisplayName: "Maria"}
	require.NoError(t, store.CreateUser(ctx, user))

	persona := &models.AiPersona{
		UserID:             user.ID,
		Name:               "Alex",
		Age:                16,
		Interests:          []string{"Science", "Gaming"},
		CommunicationStyle: models.StyleBalanced,
	}
	require.NoError(t, store.CreatePersona(ctx, persona))

	sess := &models.Session{UserID: user.ID, AiPersonaID: persona.ID, Title: "Physics 101"}
	require.NoError(t, store.CreateSession(ctx, sess))

	return &fixture{store: store, user: user, persona: persona, session: sess}
}

func (f *fixture) addMessage(t *testing.T, role models.MessageRole, content string, step *models.FeynmanStep) *models.Message {
	t.Helper()
	m := &models.Message{SessionID: f.session.ID, Role: role, Content: content, FeynmanStep: step}
	require.NoError(t, f.store.CreateMessage(context.Background(), m))
	return m
}

func (f *fixture) setStep(t *testing.T, step models.FeynmanStep) {
	t.Helper()
	_, err := f.store.UpdateSession(context.Background(), f.session.ID, repository.SessionUpdate{CurrentStep: &step})
	require.NoError(t, err)
}

func stepPtr(s models.FeynmanStep) *models.FeynmanStep { return &s }

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.WSMessage
}

func (p *recordingPublisher) Publish(_ context.Context, _ int64, msg models.WSMessage) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, msg)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

var nop = logger.Nop()
