package service

import (
	"context"
	"encoding/json"

	"github.com/classbridge/assess-backend/internal/model"
	"github.com/classbridge/assess-backend/internal/repository"
	"github.com/google/uuid"
)

// The fakes mimic the document-store contract of the pgx repositories:
// whole-document reads and writes, decoupled from caller pointers the
// same way a JSONB round trip would be.

func clone[T any](src *T) *T {
	raw, err := json.Marshal(src)
	if err != nil {
		panic(err)
	}
	var dst T
	if err := json.Unmarshal(raw, &dst); err != nil {
		panic(err)
	}
	return &dst
}

type fakeQuizStore struct {
	items map[uuid.UUID]*model.Quiz
}

func newFakeQuizStore() *fakeQuizStore {
	return &fakeQuizStore{items: map[uuid.UUID]*model.Quiz{}}
}

func (s *fakeQuizStore) GetByID(_ context.Context, id uuid.UUID) (*model.Quiz, error) {
	q, ok := s.items[id]
	if !ok {
		return nil, repository.ErrNoRows
	}
	return clone(q), nil
}

func (s *fakeQuizStore) ListByCourse(_ context.Context, courseID string) ([]model.Quiz, error) {
	var out []model.Quiz
	for _, q := range s.items {
		if q.CourseID == courseID {
			out = append(out, *clone(q))
		}
	}
	return out, nil
}

func (s *fakeQuizStore) Create(_ context.Context, q *model.Quiz) error {
	s.items[q.ID] = clone(q)
	return nil
}

func (s *fakeQuizStore) Update(_ context.Context, q *model.Quiz) error {
	if _, ok := s.items[q.ID]; !ok {
		return repository.ErrNoRows
	}
	s.items[q.ID] = clone(q)
	return nil
}

func (s *fakeQuizStore) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := s.items[id]; !ok {
		return repository.ErrNoRows
	}
	delete(s.items, id)
	return nil
}

type fakeAttemptStore struct {
	items map[uuid.UUID]*model.QuizAttempt
}

func newFakeAttemptStore() *fakeAttemptStore {
	return &fakeAttemptStore{items: map[uuid.UUID]*model.QuizAttempt{}}
}

func (s *fakeAttemptStore) GetByID(_ context.Context, id uuid.UUID) (*model.QuizAttempt, error) {
	a, ok := s.items[id]
	if !ok {
		return nil, repository.ErrNoRows
	}
	return clone(a), nil
}

func (s *fakeAttemptStore) ListByQuiz(_ context.Context, quizID uuid.UUID) ([]model.QuizAttempt, error) {
	var out []model.QuizAttempt
	for _, a := range s.items {
		if a.QuizID == quizID {
			out = append(out, *clone(a))
		}
	}
	return out, nil
}

func (s *fakeAttemptStore) Create(_ context.Context, a *model.QuizAttempt) error {
	s.items[a.ID] = clone(a)
	return nil
}

func (s *fakeAttemptStore) Update(_ context.Context, a *model.QuizAttempt) error {
	if _, ok := s.items[a.ID]; !ok {
		return repository.ErrNoRows
	}
	s.items[a.ID] = clone(a)
	return nil
}

type fakeColumnStore struct {
	items map[uuid.UUID]*model.GradeColumn
}

func newFakeColumnStore() *fakeColumnStore {
	return &fakeColumnStore{items: map[uuid.UUID]*model.GradeColumn{}}
}

func (s *fakeColumnStore) GetByID(_ context.Context, id uuid.UUID) (*model.GradeColumn, error) {
	c, ok := s.items[id]
	if !ok {
		return nil, repository.ErrNoRows
	}
	return clone(c), nil
}

func (s *fakeColumnStore) ListByCourse(_ context.Context, courseID string) ([]model.GradeColumn, error) {
	var out []model.GradeColumn
	for _, c := range s.items {
		if c.CourseID == courseID {
			out = append(out, *clone(c))
		}
	}
	return out, nil
}

func (s *fakeColumnStore) Create(_ context.Context, c *model.GradeColumn) error {
	s.items[c.ID] = clone(c)
	return nil
}

func (s *fakeColumnStore) Update(_ context.Context, c *model.GradeColumn) error {
	if _, ok := s.items[c.ID]; !ok {
		return repository.ErrNoRows
	}
	s.items[c.ID] = clone(c)
	return nil
}

func (s *fakeColumnStore) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := s.items[id]; !ok {
		return repository.ErrNoRows
	}
	delete(s.items, id)
	return nil
}

type fakeRecordStore struct {
	items map[string]*model.StudentGradeRecord
}

func newFakeRecordStore() *fakeRecordStore {
	return &fakeRecordStore{items: map[string]*model.StudentGradeRecord{}}
}

func recordKey(courseID, studentID string) string {
	return courseID + "|" + studentID
}

func (s *fakeRecordStore) Get(_ context.Context, courseID, studentID string) (*model.StudentGradeRecord, error) {
	rec, ok := s.items[recordKey(courseID, studentID)]
	if !ok {
		return nil, repository.ErrNoRows
	}
	return clone(rec), nil
}

func (s *fakeRecordStore) ListByCourse(_ context.Context, courseID string) ([]model.StudentGradeRecord, error) {
	var out []model.StudentGradeRecord
	for _, rec := range s.items {
		if rec.CourseID == courseID {
			out = append(out, *clone(rec))
		}
	}
	return out, nil
}

func (s *fakeRecordStore) Upsert(_ context.Context, rec *model.StudentGradeRecord) error {
	s.items[recordKey(rec.CourseID, rec.StudentID)] = clone(rec)
	return nil
}

type fakeHistoryStore struct {
	rows []model.GradeHistory
}

func newFakeHistoryStore() *fakeHistoryStore {
	return &fakeHistoryStore{}
}

func (s *fakeHistoryStore) Append(_ context.Context, h *model.GradeHistory) error {
	s.rows = append(s.rows, *clone(h))
	return nil
}

func (s *fakeHistoryStore) ListByStudent(_ context.Context, courseID, studentID string) ([]model.GradeHistory, error) {
	var out []model.GradeHistory
	for _, h := range s.rows {
		if h.CourseID == courseID && h.StudentID == studentID {
			out = append(out, h)
		}
	}
	return out, nil
}
