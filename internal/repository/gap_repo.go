package repository

import (
	"context"

	"feynman-backend/internal/models"
)

const gapColumns = `id, session_id, concept, COALESCE(description, ''), status::text, created_at, updated_at`

func scanGap(row interface{ Scan(...any) error }) (*models.Gap, error) {
	g := &models.Gap{}
	var status string
	if err := row.Scan(&g.ID, &g.SessionID, &g.Concept, &g.Description, &status, &g.CreatedAt, &g.UpdatedAt); err != nil {
		return nil, mapError(err)
	}
	g.Status = models.GapStatus(status)
	return g, nil
}

func (r *PostgresStore) GetGap(ctx context.Context, id int64) (*models.Gap, error) {
	return scanGap(r.pool.QueryRow(ctx, `SELECT `+gapColumns+` FROM gaps WHERE id = $1`, id))
}

func (r *PostgresStore) ListGapsBySession(ctx context.Context, sessionID int64) ([]*models.Gap, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+gapColumns+` FROM gaps WHERE session_id = $1 ORDER BY id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	gaps := []*models.Gap{}
	for rows.Next() {
		g, err := scanGap(rows)
		if err != nil {
			return nil, err
		}
		gaps = append(gaps, g)
	}
	return gaps, rows.Err()
}

func (r *PostgresStore) CreateGap(ctx context.Context, g *models.Gap) error {
	if g.Status == "" {
		g.Status = models.GapNotCovered
	}
	query := `INSERT INTO gaps (session_id, concept, description, status)
		VALUES ($1, $2, $3, $4) RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query, g.SessionID, g.Concept, g.Description, string(g.Status)).
		Scan(&g.ID, &g.CreatedAt, &g.UpdatedAt)
	return mapError(err)
}

func (r *PostgresStore) UpdateGapStatus(ctx context.Context, id int64, status models.GapStatus) (*models.Gap, error) {
	query := `UPDATE gaps SET status = $2, updated_at = NOW() WHERE id = $1 RETURNING ` + gapColumns
	return scanGap(r.pool.QueryRow(ctx, query, id, string(status)))
}
