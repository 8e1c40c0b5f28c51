package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"feynman-backend/internal/models"
)

// MemoryStore keeps every record in process memory. IDs are allocated from
// per-entity counters under a single lock.
type MemoryStore struct {
	mu    sync.RWMutex
	clock func() time.Time

	users     map[int64]*models.User
	personas  map[int64]*models.AiPersona
	sessions  map[int64]*models.Session
	messages  map[int64]*models.Message
	materials map[int64]*models.Material
	gaps      map[int64]*models.Gap
	quizzes   map[int64]*models.Quiz

	nextUser, nextPersona, nextSession, nextMessage int64
	nextMaterial, nextGap, nextQuiz                 int64
}

type MemoryOption func(*MemoryStore)

// WithClock overrides the timestamp source.
func WithClock(clock func() time.Time) MemoryOption {
	return func(s *MemoryStore) { s.clock = clock }
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		clock:     now,
		users:     make(map[int64]*models.User),
		personas:  make(map[int64]*models.AiPersona),
		sessions:  make(map[int64]*models.Session),
		messages:  make(map[int64]*models.Message),
		materials: make(map[int64]*models.Material),
		gaps:      make(map[int64]*models.Gap),
		quizzes:   make(map[int64]*models.Quiz),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ Store = (*MemoryStore)(nil)

// ──── Users ────

func (s *MemoryStore) GetUser(_ context.Context, id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyUser(u), nil
}

func (s *MemoryStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Username, username) {
			return copyUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Username, u.Username) {
			return ErrDuplicate
		}
	}
	s.nextUser++
	u.ID = s.nextUser
	u.CreatedAt = s.clock()
	s.users[u.ID] = copyUser(u)
	return nil
}

// ──── Personas ────

func (s *MemoryStore) GetPersona(_ context.Context, id int64) (*models.AiPersona, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.personas[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyPersona(p), nil
}

func (s *MemoryStore) ListPersonasByUser(_ context.Context, userID int64) ([]*models.AiPersona, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.AiPersona{}
	for _, p := range s.personas {
		if p.UserID == userID {
			out = append(out, copyPersona(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) CreatePersona(_ context.Context, p *models.AiPersona) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[p.UserID]; !ok {
		return ErrInvalidReference
	}
	s.nextPersona++
	p.ID = s.nextPersona
	p.Active = true
	p.CreatedAt = s.clock()
	s.personas[p.ID] = copyPersona(p)
	return nil
}

func (s *MemoryStore) UpdatePersona(_ context.Context, id int64, upd PersonaUpdate) (*models.AiPersona, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.personas[id]
	if !ok {
		return nil, ErrNotFound
	}
	if upd.Name != nil {
		p.Name = *upd.Name
	}
	if upd.Age != nil {
		p.Age = *upd.Age
	}
	if upd.Interests != nil {
		p.Interests = append([]string(nil), upd.Interests...)
	}
	if upd.CommunicationStyle != nil {
		p.CommunicationStyle = *upd.CommunicationStyle
	}
	if upd.AvatarURL != nil {
		p.AvatarURL = copyString(upd.AvatarURL)
	}
	return copyPersona(p), nil
}

// ──── Sessions ────

func (s *MemoryStore) GetSession(_ context.Context, id int64) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copySession(sess), nil
}

func (s *MemoryStore) ListSessionsByUser(_ context.Context, userID int64) ([]*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.Session{}
	for _, sess := range s.sessions {
		if sess.UserID == userID {
			out = append(out, copySession(sess))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) CreateSession(_ context.Context, sess *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[sess.UserID]; !ok {
		return ErrInvalidReference
	}
	if _, ok := s.personas[sess.AiPersonaID]; !ok {
		return ErrInvalidReference
	}
	if sess.CurrentStep == "" {
		sess.CurrentStep = models.StepExplain
	}
	sess.StepsCompleted = MergeSteps(nil, sess.StepsCompleted)
	s.nextSession++
	sess.ID = s.nextSession
	sess.CreatedAt = s.clock()
	sess.UpdatedAt = sess.CreatedAt
	s.sessions[sess.ID] = copySession(sess)
	return nil
}

func (s *MemoryStore) UpdateSession(_ context.Context, id int64, upd SessionUpdate) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if upd.Title != nil {
		sess.Title = *upd.Title
	}
	if upd.Topic != nil {
		sess.Topic = copyString(upd.Topic)
	}
	if upd.CurrentStep != nil {
		sess.CurrentStep = *upd.CurrentStep
	}
	if upd.StepsCompleted != nil {
		sess.StepsCompleted = MergeSteps(sess.StepsCompleted, upd.StepsCompleted)
	}
	if upd.Completed != nil {
		sess.Completed = *upd.Completed
	}
	sess.UpdatedAt = s.clock()
	return copySession(sess), nil
}

// ──── Messages ────

func (s *MemoryStore) GetMessage(_ context.Context, id int64) (*models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.messages[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyMessage(m), nil
}

// ListMessagesBySession orders by creation time, breaking ties by ID.
func (s *MemoryStore) ListMessagesBySession(_ context.Context, sessionID int64) ([]*models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.Message{}
	for _, m := range s.messages {
		if m.SessionID == sessionID {
			out = append(out, copyMessage(m))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) CreateMessage(_ context.Context, m *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[m.SessionID]; !ok {
		return ErrInvalidReference
	}
	s.nextMessage++
	m.ID = s.nextMessage
	m.CreatedAt = s.clock()
	s.messages[m.ID] = copyMessage(m)
	return nil
}

// ──── Materials ────

func (s *MemoryStore) GetMaterial(_ context.Context, id int64) (*models.Material, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.materials[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyMaterial(m), nil
}

func (s *MemoryStore) ListMaterialsByUser(_ context.Context, userID int64) ([]*models.Material, error) {
	return s.listMaterials(func(m *models.Material) bool { return m.UserID == userID }), nil
}

func (s *MemoryStore) ListMaterialsBySession(_ context.Context, sessionID int64) ([]*models.Material, error) {
	return s.listMaterials(func(m *models.Material) bool {
		return m.SessionID != nil && *m.SessionID == sessionID
	}), nil
}

func (s *MemoryStore) listMaterials(match func(*models.Material) bool) []*models.Material {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.Material{}
	for _, m := range s.materials {
		if match(m) {
			out = append(out, copyMaterial(m))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *MemoryStore) CreateMaterial(_ context.Context, m *models.Material) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[m.UserID]; !ok {
		return ErrInvalidReference
	}
	if m.SessionID != nil {
		if _, ok := s.sessions[*m.SessionID]; !ok {
			return ErrInvalidReference
		}
	}
	s.nextMaterial++
	m.ID = s.nextMaterial
	m.CreatedAt = s.clock()
	s.materials[m.ID] = copyMaterial(m)
	return nil
}

func (s *MemoryStore) UpdateMaterialConcepts(_ context.Context, id int64, concepts []string) (*models.Material, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.materials[id]
	if !ok {
		return nil, ErrNotFound
	}
	m.ExtractedConcepts = append([]string{}, concepts...)
	return copyMaterial(m), nil
}

// ──── Gaps ────

func (s *MemoryStore) GetGap(_ context.Context, id int64) (*models.Gap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.gaps[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *g
	return &cp, nil
}

func (s *MemoryStore) ListGapsBySession(_ context.Context, sessionID int64) ([]*models.Gap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.Gap{}
	for _, g := range s.gaps {
		if g.SessionID == sessionID {
			cp := *g
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) CreateGap(_ context.Context, g *models.Gap) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[g.SessionID]; !ok {
		return ErrInvalidReference
	}
	if g.Status == "" {
		g.Status = models.GapNotCovered
	}
	s.nextGap++
	g.ID = s.nextGap
	g.CreatedAt = s.clock()
	g.UpdatedAt = g.CreatedAt
	cp := *g
	s.gaps[g.ID] = &cp
	return nil
}

func (s *MemoryStore) UpdateGapStatus(_ context.Context, id int64, status models.GapStatus) (*models.Gap, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.gaps[id]
	if !ok {
		return nil, ErrNotFound
	}
	g.Status = status
	g.UpdatedAt = s.clock()
	cp := *g
	return &cp, nil
}

// ──── Quizzes ────

func (s *MemoryStore) GetQuiz(_ context.Context, id int64) (*models.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.quizzes[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyQuiz(q), nil
}

func (s *MemoryStore) ListQuizzesBySession(_ context.Context, sessionID int64) ([]*models.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.Quiz{}
	for _, q := range s.quizzes {
		if q.SessionID == sessionID {
			out = append(out, copyQuiz(q))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) CreateQuiz(_ context.Context, q *models.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[q.SessionID]; !ok {
		return ErrInvalidReference
	}
	if q.Questions == nil {
		q.Questions = []models.QuizQuestion{}
	}
	s.nextQuiz++
	q.ID = s.nextQuiz
	q.CreatedAt = s.clock()
	s.quizzes[q.ID] = copyQuiz(q)
	return nil
}

// ──── copy helpers ────

func copyString(v *string) *string {
	if v == nil {
		return nil
	}
	cp := *v
	return &cp
}

func copyUser(u *models.User) *models.User {
	cp := *u
	cp.Email = copyString(u.Email)
	cp.AvatarURL = copyString(u.AvatarURL)
	return &cp
}

func copyPersona(p *models.AiPersona) *models.AiPersona {
	cp := *p
	cp.Interests = append([]string{}, p.Interests...)
	cp.AvatarURL = copyString(p.AvatarURL)
	return &cp
}

func copySession(s *models.Session) *models.Session {
	cp := *s
	cp.Topic = copyString(s.Topic)
	cp.StepsCompleted = append([]models.FeynmanStep{}, s.StepsCompleted...)
	return &cp
}

func copyMessage(m *models.Message) *models.Message {
	cp := *m
	if m.FeynmanStep != nil {
		step := *m.FeynmanStep
		cp.FeynmanStep = &step
	}
	return &cp
}

func copyMaterial(m *models.Material) *models.Material {
	cp := *m
	if m.SessionID != nil {
		id := *m.SessionID
		cp.SessionID = &id
	}
	if m.ExtractedConcepts != nil {
		cp.ExtractedConcepts = append([]string{}, m.ExtractedConcepts...)
	}
	return &cp
}

func copyQuiz(q *models.Quiz) *models.Quiz {
	cp := *q
	cp.Questions = make([]models.QuizQuestion, len(q.Questions))
	for i, question := range q.Questions {
		question.Options = append([]string{}, question.Options...)
		cp.Questions[i] = question
	}
	return &cp
}
