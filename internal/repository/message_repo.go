package repository

import (
	"context"

	"feynman-backend/internal/models"
)

const messageColumns = `id, session_id, role::text, content, feynman_step::text, created_at`

func scanMessage(row interface{ Scan(...any) error }) (*models.Message, error) {
	m := &models.Message{}
	var role string
	var step *string
	if err := row.Scan(&m.ID, &m.SessionID, &role, &m.Content, &step, &m.CreatedAt); err != nil {
		return nil, mapError(err)
	}
	m.Role = models.MessageRole(role)
	if step != nil {
		s := models.FeynmanStep(*step)
		m.FeynmanStep = &s
	}
	return m, nil
}

func (r *PostgresStore) GetMessage(ctx context.Context, id int64) (*models.Message, error) {
	return scanMessage(r.pool.QueryRow(ctx, `SELECT `+messageColumns+` FROM messages WHERE id = $1`, id))
}

func (r *PostgresStore) ListMessagesBySession(ctx context.Context, sessionID int64) ([]*models.Message, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE session_id = $1 ORDER BY created_at, id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []*models.Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (r *PostgresStore) CreateMessage(ctx context.Context, m *models.Message) error {
	var step *string
	if m.FeynmanStep != nil {
		s := string(*m.FeynmanStep)
		step = &s
	}

	query := `INSERT INTO messages (session_id, role, content, feynman_step)
		VALUES ($1, $2, $3, $4) RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query, m.SessionID, string(m.Role), m.Content, step).Scan(&m.ID, &m.CreatedAt)
	return mapError(err)
}
