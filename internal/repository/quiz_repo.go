package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"feynman-backend/internal/models"
)

const quizColumns = `id, session_id, title, questions, created_at`

func scanQuiz(row interface{ Scan(...any) error }) (*models.Quiz, error) {
	q := &models.Quiz{}
	var questions []byte
	if err := row.Scan(&q.ID, &q.SessionID, &q.Title, &questions, &q.CreatedAt); err != nil {
		return nil, mapError(err)
	}
	q.Questions = []models.QuizQuestion{}
	if len(questions) > 0 {
		if err := json.Unmarshal(questions, &q.Questions); err != nil {
			return nil, fmt.Errorf("decode quiz questions: %w", err)
		}
	}
	return q, nil
}

func (r *PostgresStore) GetQuiz(ctx context.Context, id int64) (*models.Quiz, error) {
	return scanQuiz(r.pool.QueryRow(ctx, `SELECT `+quizColumns+` FROM quizzes WHERE id = $1`, id))
}

func (r *PostgresStore) ListQuizzesBySession(ctx context.Context, sessionID int64) ([]*models.Quiz, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+quizColumns+` FROM quizzes WHERE session_id = $1 ORDER BY id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	quizzes := []*models.Quiz{}
	for rows.Next() {
		q, err := scanQuiz(rows)
		if err != nil {
			return nil, err
		}
		quizzes = append(quizzes, q)
	}
	return quizzes, rows.Err()
}

func (r *PostgresStore) CreateQuiz(ctx context.Context, q *models.Quiz) error {
	if q.Questions == nil {
		q.Questions = []models.QuizQuestion{}
	}
	questionsBytes, err := json.Marshal(q.Questions)
	if err != nil {
		return fmt.Errorf("encode quiz questions: %w", err)
	}

	query := `INSERT INTO quizzes (session_id, title, questions) VALUES ($1, $2, $3) RETURNING id, created_at`
	return mapError(r.pool.QueryRow(ctx, query, q.SessionID, q.Title, questionsBytes).Scan(&q.ID, &q.CreatedAt))
}
