package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/classbridge/assess-backend/internal/lock"
	"github.com/classbridge/assess-backend/internal/model"
	"github.com/classbridge/assess-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Domain Errors
var (
	ErrColumnNotFound = errors.New("grade column not found")
)

// GradebookService manages grade columns, per-student entries with
// change history, and the derived overall record. Grade mutations per
// (course,student) are serialized through a keyed lock because entry
// write, history append and overall recompute are separate store
// calls.
type GradebookService struct {
	columns ColumnStore
	records RecordStore
	history HistoryStore
	locks   *lock.Keyed
	log     zerolog.Logger
	now     func() time.Time
}

// NewGradebookService creates a new GradebookService.
func NewGradebookService(columns ColumnStore, records RecordStore, history HistoryStore, log zerolog.Logger) *GradebookService {
	return &GradebookService{
		columns: columns,
		records: records,
		history: history,
		locks:   lock.NewKeyed(),
		log:     log.With().Str("component", "gradebook_service").Logger(),
		now:     time.Now,
	}
}

func gradeKey(courseID, studentID string) string {
	return "grade:" + courseID + ":" + studentID
}

// CreateColumn inserts a new column with display order max+1. Orders
// left by deleted columns are never backfilled.
func (s *GradebookService) CreateColumn(ctx context.Context, courseID string, req *model.CreateColumnRequest) (*model.GradeColumn, error) {
	if courseID == "" {
		return nil, ErrInvalidCourse
	}

	existing, err := s.columns.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("list columns: %w", err)
	}
	maxOrder := 0
	for _, c := range existing {
		if c.Order > maxOrder {
			maxOrder = c.Order
		}
	}

	visible := true
	if req.Visible != nil {
		visible = *req.Visible
	}
	include := true
	if req.IncludeInCalculations != nil {
		include = *req.IncludeInCalculations
	}

	now := s.now()
	col := &model.GradeColumn{
		ID:                    uuid.New(),
		CourseID:              courseID,
		Name:                  req.Name,
		Kind:                  model.ColumnKind(req.Kind),
		Points:                req.Points,
		Weight:                req.Weight,
		Category:              req.Category,
		SourceID:              req.SourceID,
		Visible:               visible,
		IncludeInCalculations: include,
		Order:                 maxOrder + 1,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if err := s.columns.Create(ctx, col); err != nil {
		return nil, fmt.Errorf("create column: %w", err)
	}

	s.log.Info().
		Str("column_id", col.ID.String()).
		Str("course_id", courseID).
		Int("order", col.Order).
		Msg("Grade column created")
	return col, nil
}

// ListColumns returns a course's columns in display order.
func (s *GradebookService) ListColumns(ctx context.Context, courseID string) ([]model.GradeColumn, error) {
	if courseID == "" {
		return nil, ErrInvalidCourse
	}
	cols, err := s.columns.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("list columns: %w", err)
	}
	sort.Slice(cols, func(i, j int) bool { return cols[i].Order < cols[j].Order })
	if cols == nil {
		cols = []model.GradeColumn{}
	}
	return cols, nil
}

// UpdateColumn applies a partial update. Existing entries keep the
// points they were graded against.
func (s *GradebookService) UpdateColumn(ctx context.Context, courseID string, columnID uuid.UUID, req *model.UpdateColumnRequest) (*model.GradeColumn, error) {
	col, err := s.getColumn(ctx, courseID, columnID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		col.Name = *req.Name
	}
	if req.Kind != nil {
		col.Kind = model.ColumnKind(*req.Kind)
	}
	if req.Points != nil {
		col.Points = *req.Points
	}
	if req.Weight != nil {
		col.Weight = req.Weight
	}
	if req.Category != nil {
		col.Category = *req.Category
	}
	if req.Visible != nil {
		col.Visible = *req.Visible
	}
	if req.IncludeInCalculations != nil {
		col.IncludeInCalculations = *req.IncludeInCalculations
	}
	col.UpdatedAt = s.now()

	if err := s.columns.Update(ctx, col); err != nil {
		return nil, fmt.Errorf("update column: %w", err)
	}
	return col, nil
}

// DeleteColumn removes a column. Entries referencing it stay on the
// student records and drop out of recompute, statistics and export.
func (s *GradebookService) DeleteColumn(ctx context.Context, courseID string, columnID uuid.UUID) error {
	if _, err := s.getColumn(ctx, courseID, columnID); err != nil {
		return err
	}
	if err := s.columns.Delete(ctx, columnID); err != nil {
		return fmt.Errorf("%w: %v", ErrDeleteFailed, err)
	}
	return nil
}

// UpdateGrade sets a student's grade for a column. When a prior entry
// with a different value exists, a history row is appended before the
// overwrite. The student's overall record is recomputed afterwards,
// unconditionally.
func (s *GradebookService) UpdateGrade(ctx context.Context, courseID, studentID string, columnID uuid.UUID, gradedBy string, req *model.UpdateGradeRequest) (*model.StudentGradeRecord, error) {
	unlock := s.locks.Lock(gradeKey(courseID, studentID))
	defer unlock()

	col, err := s.getColumn(ctx, courseID, columnID)
	if err != nil {
		return nil, err
	}

	record, err := s.loadOrInitRecord(ctx, courseID, studentID)
	if err != nil {
		return nil, err
	}
	if req.StudentName != "" {
		record.StudentName = req.StudentName
	}

	now := s.now()
	pct := percentageOf(req.Grade, col.Points)

	// History only records changes: a first-time grade appends
	// nothing, and re-setting the same value appends nothing.
	if prior, ok := record.Entries[columnID.String()]; ok && prior.Grade != req.Grade {
		hist := &model.GradeHistory{
			ID:         uuid.New(),
			CourseID:   courseID,
			StudentID:  studentID,
			ColumnID:   columnID,
			ColumnName: col.Name,
			OldGrade:   prior.Grade,
			NewGrade:   req.Grade,
			IsOverride: req.IsOverride,
			Reason:     req.OverrideReason,
			ChangedBy:  gradedBy,
			ChangedAt:  now,
		}
		if err := s.history.Append(ctx, hist); err != nil {
			return nil, fmt.Errorf("append history: %w", err)
		}
	}

	record.Entries[columnID.String()] = model.GradeEntry{
		ColumnID:       columnID,
		Grade:          req.Grade,
		Points:         col.Points,
		Percentage:     pct,
		LetterGrade:    letterGrade(pct),
		IsOverride:     req.IsOverride,
		OverrideReason: req.OverrideReason,
		GradedBy:       gradedBy,
		GradedAt:       now,
	}

	cols, err := s.columns.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("list columns: %w", err)
	}
	recomputeOverall(record, cols)
	record.UpdatedAt = now

	if err := s.records.Upsert(ctx, record); err != nil {
		return nil, fmt.Errorf("upsert record: %w", err)
	}

	s.log.Info().
		Str("course_id", courseID).
		Str("student_id", studentID).
		Str("column_id", columnID.String()).
		Float64("grade", req.Grade).
		Msg("Grade updated")
	return record, nil
}

// StudentGrades returns one student's record, or an empty record if
// the student has no grades yet.
func (s *GradebookService) StudentGrades(ctx context.Context, courseID, studentID string) (*model.StudentGradeRecord, error) {
	if courseID == "" {
		return nil, ErrInvalidCourse
	}
	return s.loadOrInitRecord(ctx, courseID, studentID)
}

// GradeCenter returns every student record of a course, ordered by
// student id.
func (s *GradebookService) GradeCenter(ctx context.Context, courseID string) ([]model.StudentGradeRecord, error) {
	if courseID == "" {
		return nil, ErrInvalidCourse
	}
	records, err := s.records.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].StudentID < records[j].StudentID })
	if records == nil {
		records = []model.StudentGradeRecord{}
	}
	return records, nil
}

// History returns a student's grade history, newest change first.
func (s *GradebookService) History(ctx context.Context, courseID, studentID string) ([]model.GradeHistory, error) {
	if courseID == "" {
		return nil, ErrInvalidCourse
	}
	hist, err := s.history.ListByStudent(ctx, courseID, studentID)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	sort.Slice(hist, func(i, j int) bool { return hist[i].ChangedAt.After(hist[j].ChangedAt) })
	if hist == nil {
		hist = []model.GradeHistory{}
	}
	return hist, nil
}

// ColumnStatistics summarizes the grades recorded for one column
// across all student records; students without an entry are skipped.
func (s *GradebookService) ColumnStatistics(ctx context.Context, courseID string, columnID uuid.UUID) (*model.ColumnStatistics, error) {
	col, err := s.getColumn(ctx, courseID, columnID)
	if err != nil {
		return nil, err
	}

	records, err := s.records.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	var grades []float64
	for _, rec := range records {
		if entry, ok := rec.Entries[columnID.String()]; ok {
			grades = append(grades, entry.Grade)
		}
	}

	stats := &model.ColumnStatistics{ColumnID: columnID, Name: col.Name}
	sum := summarize(grades)
	if sum == nil {
		return stats, nil
	}
	stats.HasData = true
	stats.Count = sum.Count
	stats.Mean = sum.Mean
	stats.Median = sum.Median
	stats.Min = sum.Min
	stats.Max = sum.Max
	stats.StdDev = sum.StdDev
	return stats, nil
}

// ExportCSV renders the grade center as CSV: one row per student
// record, columns in display order, blank cells for ungraded columns,
// plus the overall percentage and letter grade. Name fields are
// always quoted to tolerate embedded commas.
func (s *GradebookService) ExportCSV(ctx context.Context, courseID string) ([]byte, error) {
	cols, err := s.ListColumns(ctx, courseID)
	if err != nil {
		return nil, err
	}
	records, err := s.GradeCenter(ctx, courseID)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString("Student ID,Student Name")
	for _, c := range cols {
		b.WriteString(",")
		b.WriteString(csvQuote(c.Name))
	}
	b.WriteString(",Overall Percentage,Overall Grade\n")

	for _, rec := range records {
		b.WriteString(csvQuote(rec.StudentID))
		b.WriteString(",")
		b.WriteString(csvQuote(rec.StudentName))
		for _, c := range cols {
			b.WriteString(",")
			if entry, ok := rec.Entries[c.ID.String()]; ok {
				b.WriteString(formatGrade(entry.Grade))
			}
		}
		b.WriteString(",")
		b.WriteString(formatGrade(rec.OverallPercentage))
		b.WriteString(",")
		b.WriteString(rec.OverallLetterGrade)
		b.WriteString("\n")
	}
	return []byte(b.String()), nil
}

// ────────────────────────────────────────────────────────────────────
// Internals
// ────────────────────────────────────────────────────────────────────

func (s *GradebookService) getColumn(ctx context.Context, courseID string, columnID uuid.UUID) (*model.GradeColumn, error) {
	col, err := s.columns.GetByID(ctx, columnID)
	if err != nil {
		if repository.IsNoRows(err) {
			return nil, ErrColumnNotFound
		}
		return nil, fmt.Errorf("get column: %w", err)
	}
	if col.CourseID != courseID {
		return nil, ErrColumnNotFound
	}
	return col, nil
}

func (s *GradebookService) loadOrInitRecord(ctx context.Context, courseID, studentID string) (*model.StudentGradeRecord, error) {
	record, err := s.records.Get(ctx, courseID, studentID)
	if err != nil {
		if repository.IsNoRows(err) {
			return &model.StudentGradeRecord{
				CourseID:  courseID,
				StudentID: studentID,
				Entries:   map[string]model.GradeEntry{},
			}, nil
		}
		return nil, fmt.Errorf("get record: %w", err)
	}
	if record.Entries == nil {
		record.Entries = map[string]model.GradeEntry{}
	}
	return record, nil
}

// recomputeOverall re-derives the overall fields from the columns
// flagged for calculation. Point-based averaging: a column without an
// entry for this student contributes to neither earned nor possible.
func recomputeOverall(record *model.StudentGradeRecord, cols []model.GradeColumn) {
	earned := 0.0
	possible := 0.0
	for _, c := range cols {
		if !c.IncludeInCalculations {
			continue
		}
		entry, ok := record.Entries[c.ID.String()]
		if !ok {
			continue
		}
		earned += entry.Grade
		possible += c.Points
	}

	record.OverallPointsEarned = earned
	record.OverallPointsPossible = possible
	record.OverallPercentage = percentageOf(earned, possible)
	record.OverallLetterGrade = letterGrade(record.OverallPercentage)
}

// csvQuote wraps a field in double quotes, doubling embedded quotes.
func csvQuote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func formatGrade(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
