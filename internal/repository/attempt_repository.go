package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/classbridge/assess-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AttemptRepository stores quiz attempt documents. Attempts are
// queried by quiz only; per-student filtering and all ordering happen
// in the service layer.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

// GetByID retrieves an attempt by its UUID.
func (r *AttemptRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.QuizAttempt, error) {
	var doc []byte
	err := r.pool.QueryRow(ctx,
		`SELECT doc FROM quiz_attempts WHERE id = $1`, id,
	).Scan(&doc)
	if err != nil {
		return nil, err
	}
	return unmarshalAttempt(doc)
}

// ListByQuiz retrieves every attempt recorded for a quiz.
func (r *AttemptRepository) ListByQuiz(ctx context.Context, quizID uuid.UUID) ([]model.QuizAttempt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT doc FROM quiz_attempts WHERE quiz_id = $1`, quizID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []model.QuizAttempt
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		a, err := unmarshalAttempt(doc)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, *a)
	}
	return attempts, rows.Err()
}

// Create inserts a new attempt document.
func (r *AttemptRepository) Create(ctx context.Context, a *model.QuizAttempt) error {
	doc, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal attempt: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO quiz_attempts (id, course_id, quiz_id, student_id, is_submitted, doc)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.CourseID, a.QuizID, a.StudentID, a.IsSubmitted, doc)
	return err
}

// Update overwrites an existing attempt document.
func (r *AttemptRepository) Update(ctx context.Context, a *model.QuizAttempt) error {
	doc, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal attempt: %w", err)
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE quiz_attempts SET is_submitted = $1, doc = $2 WHERE id = $3`,
		a.IsSubmitted, doc, a.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func unmarshalAttempt(doc []byte) (*model.QuizAttempt, error) {
	var a model.QuizAttempt
	if err := json.Unmarshal(doc, &a); err != nil {
		return nil, fmt.Errorf("unmarshal attempt: %w", err)
	}
	return &a, nil
}
