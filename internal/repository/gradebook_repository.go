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

// ColumnRepository stores grade column documents.
type ColumnRepository struct {
	pool *pgxpool.Pool
}

// NewColumnRepository creates a new ColumnRepository.
func NewColumnRepository(pool *pgxpool.Pool) *ColumnRepository {
	return &ColumnRepository{pool: pool}
}

// GetByID retrieves a column by its UUID.
func (r *ColumnRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.GradeColumn, error) {
	var doc []byte
	err := r.pool.QueryRow(ctx,
		`SELECT doc FROM grade_columns WHERE id = $1`, id,
	).Scan(&doc)
	if err != nil {
		return nil, err
	}
	var col model.GradeColumn
	if err := json.Unmarshal(doc, &col); err != nil {
		return nil, fmt.Errorf("unmarshal column: %w", err)
	}
	return &col, nil
}

// ListByCourse retrieves all grade columns of a course.
func (r *ColumnRepository) ListByCourse(ctx context.Context, courseID string) ([]model.GradeColumn, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT doc FROM grade_columns WHERE course_id = $1`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []model.GradeColumn
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var col model.GradeColumn
		if err := json.Unmarshal(doc, &col); err != nil {
			return nil, fmt.Errorf("unmarshal column: %w", err)
		}
		cols = append(cols, col)
	}
	return cols, rows.Err()
}

// Create inserts a new column document.
func (r *ColumnRepository) Create(ctx context.Context, col *model.GradeColumn) error {
	doc, err := json.Marshal(col)
	if err != nil {
		return fmt.Errorf("marshal column: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO grade_columns (id, course_id, doc) VALUES ($1, $2, $3)`,
		col.ID, col.CourseID, doc)
	return err
}

// Update overwrites an existing column document.
func (r *ColumnRepository) Update(ctx context.Context, col *model.GradeColumn) error {
	doc, err := json.Marshal(col)
	if err != nil {
		return fmt.Errorf("marshal column: %w", err)
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE grade_columns SET doc = $1 WHERE id = $2`, doc, col.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Delete removes a column document. Grade entries referencing the
// column are left in place and skipped by recomputation.
func (r *ColumnRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM grade_columns WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// RecordRepository stores the per-(course,student) grade record
// documents. The pair is the document key, so upserts are conditional
// on it.
type RecordRepository struct {
	pool *pgxpool.Pool
}

// NewRecordRepository creates a new RecordRepository.
func NewRecordRepository(pool *pgxpool.Pool) *RecordRepository {
	return &RecordRepository{pool: pool}
}

// Get retrieves one student's grade record in a course.
func (r *RecordRepository) Get(ctx context.Context, courseID, studentID string) (*model.StudentGradeRecord, error) {
	var doc []byte
	err := r.pool.QueryRow(ctx,
		`SELECT doc FROM student_grade_records WHERE course_id = $1 AND student_id = $2`,
		courseID, studentID,
	).Scan(&doc)
	if err != nil {
		return nil, err
	}
	var rec model.StudentGradeRecord
	if err := json.Unmarshal(doc, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	return &rec, nil
}

// ListByCourse retrieves every student grade record of a course.
func (r *RecordRepository) ListByCourse(ctx context.Context, courseID string) ([]model.StudentGradeRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT doc FROM student_grade_records WHERE course_id = $1`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []model.StudentGradeRecord
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var rec model.StudentGradeRecord
		if err := json.Unmarshal(doc, &rec); err != nil {
			return nil, fmt.Errorf("unmarshal record: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Upsert writes a student's grade record, creating it if absent.
func (r *RecordRepository) Upsert(ctx context.Context, rec *model.StudentGradeRecord) error {
	doc, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO student_grade_records (course_id, student_id, doc)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (course_id, student_id) DO UPDATE SET doc = EXCLUDED.doc`,
		rec.CourseID, rec.StudentID, doc)
	return err
}

// HistoryRepository stores append-only grade history rows, scoped
// per (course, student).
type HistoryRepository struct {
	pool *pgxpool.Pool
}

// NewHistoryRepository creates a new HistoryRepository.
func NewHistoryRepository(pool *pgxpool.Pool) *HistoryRepository {
	return &HistoryRepository{pool: pool}
}

// Append writes a new history row. Rows are never updated or deleted.
func (r *HistoryRepository) Append(ctx context.Context, h *model.GradeHistory) error {
	doc, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO grade_history (id, course_id, student_id, changed_at, doc)
		 VALUES ($1, $2, $3, $4, $5)`,
		h.ID, h.CourseID, h.StudentID, h.ChangedAt, doc)
	return err
}

// ListByStudent retrieves a student's history rows in a course.
func (r *HistoryRepository) ListByStudent(ctx context.Context, courseID, studentID string) ([]model.GradeHistory, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT doc FROM grade_history WHERE course_id = $1 AND student_id = $2`,
		courseID, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hist []model.GradeHistory
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var h model.GradeHistory
		if err := json.Unmarshal(doc, &h); err != nil {
			return nil, fmt.Errorf("unmarshal history: %w", err)
		}
		hist = append(hist, h)
	}
	return hist, rows.Err()
}
