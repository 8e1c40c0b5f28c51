package repository

import (
	"context"

	"feynman-backend/internal/models"
)

const userColumns = `id, username, password, display_name, email, avatar_url, created_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.DisplayName, &u.Email, &u.AvatarURL, &u.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return u, nil
}

func (r *PostgresStore) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *PostgresStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE LOWER(username) = LOWER($1)`, username))
}

func (r *PostgresStore) CreateUser(ctx context.Context, u *models.User) error {
	query := `INSERT INTO users (username, password, display_name, email, avatar_url)
		VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query,
		u.Username, u.PasswordHash, u.DisplayName, u.Email, u.AvatarURL,
	).Scan(&u.ID, &u.CreatedAt)
	return mapError(err)
}
