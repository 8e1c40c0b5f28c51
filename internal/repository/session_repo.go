package repository

import (
	"context"

	"feynman-backend/internal/models"
)

const sessionColumns = `id, user_id, ai_persona_id, title, topic, current_step::text, steps_completed, completed, created_at, updated_at`

func scanSession(row interface{ Scan(...any) error }) (*models.Session, error) {
	s := &models.Session{}
	var step string
	var steps []byte
	err := row.Scan(&s.ID, &s.UserID, &s.AiPersonaID, &s.Title, &s.Topic, &step, &steps, &s.Completed, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	s.CurrentStep = models.FeynmanStep(step)
	if s.StepsCompleted, err = decodeSteps(steps); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *PostgresStore) GetSession(ctx context.Context, id int64) (*models.Session, error) {
	return scanSession(r.pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id))
}

func (r *PostgresStore) ListSessionsByUser(ctx context.Context, userID int64) ([]*models.Session, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE user_id = $1 ORDER BY updated_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := []*models.Session{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func (r *PostgresStore) CreateSession(ctx context.Context, s *models.Session) error {
	if s.CurrentStep == "" {
		s.CurrentStep = models.StepExplain
	}
	s.StepsCompleted = MergeSteps(nil, s.StepsCompleted)

	query := `INSERT INTO sessions (user_id, ai_persona_id, title, topic, current_step, steps_completed)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, completed, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		s.UserID, s.AiPersonaID, s.Title, s.Topic, string(s.CurrentStep), encodeSteps(s.StepsCompleted),
	).Scan(&s.ID, &s.Completed, &s.CreatedAt, &s.UpdatedAt)
	return mapError(err)
}

// UpdateSession merges steps inside a row lock so concurrent writers cannot
// drop a completed step.
func (r *PostgresStore) UpdateSession(ctx context.Context, id int64, upd SessionUpdate) (*models.Session, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	current, err := scanSession(tx.QueryRow(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, err
	}

	if upd.Title != nil {
		current.Title = *upd.Title
	}
	if upd.Topic != nil {
		current.Topic = upd.Topic
	}
	if upd.CurrentStep != nil {
		current.CurrentStep = *upd.CurrentStep
	}
	if upd.StepsCompleted != nil {
		current.StepsCompleted = MergeSteps(current.StepsCompleted, upd.StepsCompleted)
	}
	if upd.Completed != nil {
		current.Completed = *upd.Completed
	}

	query := `UPDATE sessions SET title = $2, topic = $3, current_step = $4, steps_completed = $5,
			completed = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + sessionColumns

	updated, err := scanSession(tx.QueryRow(ctx, query,
		id, current.Title, current.Topic, string(current.CurrentStep), encodeSteps(current.StepsCompleted), current.Completed,
	))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return updated, nil
}
