package repository

import (
	"context"
	"errors"
	"time"

	"feynman-backend/internal/models"
)

var (
	ErrNotFound         = errors.New("record not found")
	ErrInvalidReference = errors.New("referenced record does not exist")
	ErrDuplicate        = errors.New("record already exists")
)

// PersonaUpdate is a partial persona edit. Nil fields are left unchanged.
type PersonaUpdate struct {
	Name               *string
	Age                *int
	Interests          []string
	CommunicationStyle *models.CommunicationStyle
	AvatarURL          *string
}

// SessionUpdate is a partial session edit. Nil fields are left unchanged,
// StepsCompleted is merged into the stored set and UpdatedAt is always bumped.
type SessionUpdate struct {
	Title          *string
	Topic          *string
	CurrentStep    *models.FeynmanStep
	StepsCompleted []models.FeynmanStep
	Completed      *bool
}

// Store is the persistence boundary shared by the in-memory and Postgres
// backends. Create methods fill in ID and timestamps on the passed record.
type Store interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	CreateUser(ctx context.Context, u *models.User) error

	GetPersona(ctx context.Context, id int64) (*models.AiPersona, error)
	ListPersonasByUser(ctx context.Context, userID int64) ([]*models.AiPersona, error)
	CreatePersona(ctx context.Context, p *models.AiPersona) error
	UpdatePersona(ctx context.Context, id int64, upd PersonaUpdate) (*models.AiPersona, error)

	GetSession(ctx context.Context, id int64) (*models.Session, error)
	ListSessionsByUser(ctx context.Context, userID int64) ([]*models.Session, error)
	CreateSession(ctx context.Context, s *models.Session) error
	UpdateSession(ctx context.Context, id int64, upd SessionUpdate) (*models.Session, error)

	GetMessage(ctx context.Context, id int64) (*models.Message, error)
	ListMessagesBySession(ctx context.Context, sessionID int64) ([]*models.Message, error)
	CreateMessage(ctx context.Context, m *models.Message) error

	GetMaterial(ctx context.Context, id int64) (*models.Material, error)
	ListMaterialsByUser(ctx context.Context, userID int64) ([]*models.Material, error)
	ListMaterialsBySession(ctx context.Context, sessionID int64) ([]*models.Material, error)
	CreateMaterial(ctx context.Context, m *models.Material) error
	UpdateMaterialConcepts(ctx context.Context, id int64, concepts []string) (*models.Material, error)

	GetGap(ctx context.Context, id int64) (*models.Gap, error)
	ListGapsBySession(ctx context.Context, sessionID int64) ([]*models.Gap, error)
	CreateGap(ctx context.Context, g *models.Gap) error
	UpdateGapStatus(ctx context.Context, id int64, status models.GapStatus) (*models.Gap, error)

	GetQuiz(ctx context.Context, id int64) (*models.Quiz, error)
	ListQuizzesBySession(ctx context.Context, sessionID int64) ([]*models.Quiz, error)
	CreateQuiz(ctx context.Context, q *models.Quiz) error
}

// MergeSteps returns the union of existing and added, in canonical order.
// Completed steps are never dropped.
func MergeSteps(existing, added []models.FeynmanStep) []models.FeynmanStep {
	seen := make(map[models.FeynmanStep]bool, len(existing)+len(added))
	for _, s := range existing {
		seen[s] = true
	}
	for _, s := range added {
		seen[s] = true
	}
	out := make([]models.FeynmanStep, 0, len(seen))
	for _, s := range models.FeynmanSteps {
		if seen[s] {
			out = append(out, s)
		}
	}
	return out
}

func now() time.Time {
	return time.Now().UTC()
}
