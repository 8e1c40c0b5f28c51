package repository

import (
	"context"

	"feynman-backend/internal/models"
)

const personaColumns = `id, user_id, name, age, interests, communication_style::text, avatar_url, active, created_at`

func scanPersona(row interface{ Scan(...any) error }) (*models.AiPersona, error) {
	p := &models.AiPersona{}
	var style string
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Age, &p.Interests, &style, &p.AvatarURL, &p.Active, &p.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	p.CommunicationStyle = models.CommunicationStyle(style)
	if p.Interests == nil {
		p.Interests = []string{}
	}
	return p, nil
}

func (r *PostgresStore) GetPersona(ctx context.Context, id int64) (*models.AiPersona, error) {
	return scanPersona(r.pool.QueryRow(ctx, `SELECT `+personaColumns+` FROM ai_personas WHERE id = $1`, id))
}

func (r *PostgresStore) ListPersonasByUser(ctx context.Context, userID int64) ([]*models.AiPersona, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+personaColumns+` FROM ai_personas WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	personas := []*models.AiPersona{}
	for rows.Next() {
		p, err := scanPersona(rows)
		if err != nil {
			return nil, err
		}
		personas = append(personas, p)
	}
	return personas, rows.Err()
}

func (r *PostgresStore) CreatePersona(ctx context.Context, p *models.AiPersona) error {
	query := `INSERT INTO ai_personas (user_id, name, age, interests, communication_style, avatar_url)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, active, created_at`

	err := r.pool.QueryRow(ctx, query,
		p.UserID, p.Name, p.Age, p.Interests, string(p.CommunicationStyle), p.AvatarURL,
	).Scan(&p.ID, &p.Active, &p.CreatedAt)
	return mapError(err)
}

func (r *PostgresStore) UpdatePersona(ctx context.Context, id int64, upd PersonaUpdate) (*models.AiPersona, error) {
	var style *string
	if upd.CommunicationStyle != nil {
		s := string(*upd.CommunicationStyle)
		style = &s
	}

	query := `UPDATE ai_personas SET
			name = COALESCE($2, name),
			age = COALESCE($3, age),
			interests = COALESCE($4, interests),
			communication_style = COALESCE($5::ai_persona_style, communication_style),
			avatar_url = COALESCE($6, avatar_url)
		WHERE id = $1
		RETURNING ` + personaColumns

	return scanPersona(r.pool.QueryRow(ctx, query, id, upd.Name, upd.Age, upd.Interests, style, upd.AvatarURL))
}
