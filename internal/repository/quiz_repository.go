package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/classbridge/assess-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNoRows is returned when a requested document does not exist.
// Services translate it into their own not-found errors.
var ErrNoRows = pgx.ErrNoRows

// QuizRepository stores quiz documents. The full quiz (including its
// question list) lives in a JSONB column; course_id and status are
// extracted for single-field equality filters, everything else is
// sorted and filtered in application code.
type QuizRepository struct {
	pool *pgxpool.Pool
}

// NewQuizRepository creates a new QuizRepository.
func NewQuizRepository(pool *pgxpool.Pool) *QuizRepository {
	return &QuizRepository{pool: pool}
}

// GetByID retrieves a quiz by its UUID.
func (r *QuizRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Quiz, error) {
	var doc []byte
	err := r.pool.QueryRow(ctx,
		`SELECT doc FROM quizzes WHERE id = $1`, id,
	).Scan(&doc)
	if err != nil {
		return nil, err
	}
	return unmarshalQuiz(doc)
}

// ListByCourse retrieves all quizzes belonging to a course.
func (r *QuizRepository) ListByCourse(ctx context.Context, courseID string) ([]model.Quiz, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT doc FROM quizzes WHERE course_id = $1`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quizzes []model.Quiz
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		q, err := unmarshalQuiz(doc)
		if err != nil {
			return nil, err
		}
		quizzes = append(quizzes, *q)
	}
	return quizzes, rows.Err()
}

// Create inserts a new quiz document.
func (r *QuizRepository) Create(ctx context.Context, q *model.Quiz) error {
	doc, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("marshal quiz: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO quizzes (id, course_id, status, doc) VALUES ($1, $2, $3, $4)`,
		q.ID, q.CourseID, q.Status, doc)
	return err
}

// Update overwrites an existing quiz document.
func (r *QuizRepository) Update(ctx context.Context, q *model.Quiz) error {
	doc, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("marshal quiz: %w", err)
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE quizzes SET status = $1, doc = $2 WHERE id = $3`,
		q.Status, doc, q.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Delete removes a quiz document. Existing attempts are not touched.
func (r *QuizRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM quizzes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func unmarshalQuiz(doc []byte) (*model.Quiz, error) {
	var q model.Quiz
	if err := json.Unmarshal(doc, &q); err != nil {
		return nil, fmt.Errorf("unmarshal quiz: %w", err)
	}
	return &q, nil
}

// IsNoRows reports whether err means the document was absent.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
