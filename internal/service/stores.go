package service

import (
	"context"

	"github.com/classbridge/assess-backend/internal/model"
	"github.com/google/uuid"
)

// The store interfaces mirror the document-collection contract the
// engines are built against: get by id, equality-filtered listing
// under the owning scope, and whole-document writes. The pgx-backed
// repositories implement them in production; tests use in-memory
// fakes. Ordering and cross-field filtering are always done in the
// service layer, never pushed into the store.

// QuizStore persists quiz documents.
type QuizStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Quiz, error)
	ListByCourse(ctx context.Context, courseID string) ([]model.Quiz, error)
	Create(ctx context.Context, q *model.Quiz) error
	Update(ctx context.Context, q *model.Quiz) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// AttemptStore persists quiz attempt documents.
type AttemptStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.QuizAttempt, error)
	ListByQuiz(ctx context.Context, quizID uuid.UUID) ([]model.QuizAttempt, error)
	Create(ctx context.Context, a *model.QuizAttempt) error
	Update(ctx context.Context, a *model.QuizAttempt) error
}

// ColumnStore persists grade column documents.
type ColumnStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.GradeColumn, error)
	ListByCourse(ctx context.Context, courseID string) ([]model.GradeColumn, error)
	Create(ctx context.Context, col *model.GradeColumn) error
	Update(ctx context.Context, col *model.GradeColumn) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// RecordStore persists the per-(course,student) grade records.
type RecordStore interface {
	Get(ctx context.Context, courseID, studentID string) (*model.StudentGradeRecord, error)
	ListByCourse(ctx context.Context, courseID string) ([]model.StudentGradeRecord, error)
	Upsert(ctx context.Context, rec *model.StudentGradeRecord) error
}

// HistoryStore persists append-only grade history rows.
type HistoryStore interface {
	Append(ctx context.Context, h *model.GradeHistory) error
	ListByStudent(ctx context.Context, courseID, studentID string) ([]model.GradeHistory, error)
}
