package repository

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"feynman-backend/internal/models"
)

// PostgresStore implements Store on a pgx connection pool. Queries are split
// per entity across the *_repo.go files.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

var _ Store = (*PostgresStore)(nil)

// mapError translates driver errors into repository sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23503":
			return fmt.Errorf("%w: %s", ErrInvalidReference, pgErr.ConstraintName)
		case "23505":
			return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.ConstraintName)
		}
	}
	return err
}

func encodeSteps(steps []models.FeynmanStep) []byte {
	if steps == nil {
		steps = []models.FeynmanStep{}
	}
	b, _ := json.Marshal(steps)
	return b
}

func decodeSteps(raw []byte) ([]models.FeynmanStep, error) {
	steps := []models.FeynmanStep{}
	if len(raw) == 0 {
		return steps, nil
	}
	if err := json.Unmarshal(raw, &steps); err != nil {
		return nil, fmt.Errorf("decode steps_completed: %w", err)
	}
	if steps == nil {
		steps = []models.FeynmanStep{}
	}
	return steps, nil
}

// encodeConcepts keeps a nil slice as SQL NULL.
func encodeConcepts(concepts []string) []byte {
	if concepts == nil {
		return nil
	}
	b, _ := json.Marshal(concepts)
	return b
}

func decodeConcepts(raw []byte) ([]string, error) {
	if raw == nil {
		return nil, nil
	}
	concepts := []string{}
	if err := json.Unmarshal(raw, &concepts); err != nil {
		return nil, fmt.Errorf("decode extracted_concepts: %w", err)
	}
	if concepts == nil {
		concepts = []string{}
	}
	return concepts, nil
}
