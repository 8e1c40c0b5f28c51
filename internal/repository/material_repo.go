package repository

import (
	"context"

	"feynman-backend/internal/models"
)

const materialColumns = `id, user_id, session_id, name, type::text, content, extracted_concepts, created_at`

func scanMaterial(row interface{ Scan(...any) error }) (*models.Material, error) {
	m := &models.Material{}
	var typ string
	var concepts []byte
	err := row.Scan(&m.ID, &m.UserID, &m.SessionID, &m.Name, &typ, &m.Content, &concepts, &m.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	m.Type = models.MaterialType(typ)
	if m.ExtractedConcepts, err = decodeConcepts(concepts); err != nil {
		return nil, err
	}
	return m, nil
}

func (r *PostgresStore) GetMaterial(ctx context.Context, id int64) (*models.Material, error) {
	return scanMaterial(r.pool.QueryRow(ctx, `SELECT `+materialColumns+` FROM materials WHERE id = $1`, id))
}

func (r *PostgresStore) ListMaterialsByUser(ctx context.Context, userID int64) ([]*models.Material, error) {
	return r.listMaterials(ctx, `SELECT `+materialColumns+` FROM materials WHERE user_id = $1 ORDER BY id`, userID)
}

func (r *PostgresStore) ListMaterialsBySession(ctx context.Context, sessionID int64) ([]*models.Material, error) {
	return r.listMaterials(ctx, `SELECT `+materialColumns+` FROM materials WHERE session_id = $1 ORDER BY id`, sessionID)
}

func (r *PostgresStore) listMaterials(ctx context.Context, query string, arg int64) ([]*models.Material, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	materials := []*models.Material{}
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, err
		}
		materials = append(materials, m)
	}
	return materials, rows.Err()
}

func (r *PostgresStore) CreateMaterial(ctx context.Context, m *models.Material) error {
	query := `INSERT INTO materials (user_id, session_id, name, type, content, extracted_concepts)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query,
		m.UserID, m.SessionID, m.Name, string(m.Type), m.Content, encodeConcepts(m.ExtractedConcepts),
	).Scan(&m.ID, &m.CreatedAt)
	return mapError(err)
}

func (r *PostgresStore) UpdateMaterialConcepts(ctx context.Context, id int64, concepts []string) (*models.Material, error) {
	if concepts == nil {
		concepts = []string{}
	}
	query := `UPDATE materials SET extracted_concepts = $2 WHERE id = $1 RETURNING ` + materialColumns
	return scanMaterial(r.pool.QueryRow(ctx, query, id, encodeConcepts(concepts)))
}
