package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"feynman-backend/internal/models"
)

var ErrAttemptNotFound = errors.New("quiz attempt not found")

// AttemptStore keeps in-progress quiz attempts. Attempts are short-lived
// and are not part of the relational model.
type AttemptStore interface {
	Save(ctx context.Context, a *models.QuizAttempt) error
	Get(ctx context.Context, id string) (*models.QuizAttempt, error)
}

type MemoryAttemptStore struct {
	mu       sync.RWMutex
	attempts map[string][]byte
}

func NewMemoryAttemptStore() *MemoryAttemptStore {
	return &MemoryAttemptStore{attempts: make(map[string][]byte)}
}

func (s *MemoryAttemptStore) Save(_ context.Context, a *models.QuizAttempt) error {
	data, err := json.Marshal(a)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.attempts[a.ID] = data
	s.mu.Unlock()
	return nil
}

func (s *MemoryAttemptStore) Get(_ context.Context, id string) (*models.QuizAttempt, error) {
	s.mu.RLock()
	data, ok := s.attempts[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrAttemptNotFound
	}
	var a models.QuizAttempt
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

const attemptTTL = 24 * time.Hour

// RedisAttemptStore keeps attempts under quiz_attempt:{id} with a TTL so
// every API instance sees the same state.
type RedisAttemptStore struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewRedisAttemptStore(client *redis.Client) *RedisAttemptStore {
	return &RedisAttemptStore{redis: client, ttl: attemptTTL}
}

func attemptKey(id string) string {
	return fmt.Sprintf("quiz_attempt:%s", id)
}

func (s *RedisAttemptStore) Save(ctx context.Context, a *models.QuizAttempt) error {
	data, err := json.Marshal(a)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, attemptKey(a.ID), data, s.ttl).Err()
}

func (s *RedisAttemptStore) Get(ctx context.Context, id string) (*models.QuizAttempt, error) {
	data, err := s.redis.Get(ctx, attemptKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrAttemptNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load quiz attempt: %w", err)
	}
	var a models.QuizAttempt
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, err
	}
	return &a, nil
}
