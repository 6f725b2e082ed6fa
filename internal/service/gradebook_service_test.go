package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/classbridge/assess-backend/internal/model"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func newTestGradebookService() (*GradebookService, *fakeHistoryStore) {
	history := newFakeHistoryStore()
	svc := NewGradebookService(newFakeColumnStore(), newFakeRecordStore(), history, zerolog.Nop())
	return svc, history
}

func mustCreateColumn(t *testing.T, svc *GradebookService, req *model.CreateColumnRequest) *model.GradeColumn {
	t.Helper()
	col, err := svc.CreateColumn(context.Background(), "course-1", req)
	if err != nil {
		t.Fatalf("CreateColumn: %v", err)
	}
	return col
}

func TestCreateColumnAssignsNextOrder(t *testing.T) {
	svc, _ := newTestGradebookService()
	ctx := context.Background()

	first := mustCreateColumn(t, svc, &model.CreateColumnRequest{Name: "Homework 1", Kind: "ASSIGNMENT", Points: 100})
	second := mustCreateColumn(t, svc, &model.CreateColumnRequest{Name: "Midterm", Kind: "EXAM", Points: 100})

	if first.Order != 1 || second.Order != 2 {
		t.Errorf("orders = %d, %d, want 1, 2", first.Order, second.Order)
	}
	if !first.Visible || !first.IncludeInCalculations {
		t.Errorf("defaults not applied: %+v", first)
	}

	// Order is max of the surviving columns plus one.
	if err := svc.DeleteColumn(ctx, "course-1", second.ID); err != nil {
		t.Fatalf("DeleteColumn: %v", err)
	}
	third := mustCreateColumn(t, svc, &model.CreateColumnRequest{Name: "Final", Kind: "EXAM", Points: 100})
	if third.Order != 2 {
		t.Errorf("Order after delete = %d, want 2", third.Order)
	}
}

func TestUpdateGradeLetterAndPercentage(t *testing.T) {
	svc, _ := newTestGradebookService()
	ctx := context.Background()

	col := mustCreateColumn(t, svc, &model.CreateColumnRequest{Name: "Midterm", Kind: "EXAM", Points: 100})

	record, err := svc.UpdateGrade(ctx, "course-1", "student-1", col.ID, "instructor-1", &model.UpdateGradeRequest{
		Grade:       85,
		StudentName: "Alice Chen",
	})
	if err != nil {
		t.Fatalf("UpdateGrade: %v", err)
	}

	entry := record.Entries[col.ID.String()]
	if entry.Percentage != 85 {
		t.Errorf("Percentage = %v, want 85", entry.Percentage)
	}
	if entry.LetterGrade != "B" {
		t.Errorf("LetterGrade = %q, want B", entry.LetterGrade)
	}
	if entry.GradedBy != "instructor-1" {
		t.Errorf("GradedBy = %q", entry.GradedBy)
	}
	if record.OverallPercentage != 85 || record.OverallLetterGrade != "B" {
		t.Errorf("overall = %v/%q", record.OverallPercentage, record.OverallLetterGrade)
	}
	if record.StudentName != "Alice Chen" {
		t.Errorf("StudentName = %q", record.StudentName)
	}

	// 97 on the boundary gets the top letter.
	record, err = svc.UpdateGrade(ctx, "course-1", "student-1", col.ID, "instructor-1", &model.UpdateGradeRequest{Grade: 97})
	if err != nil {
		t.Fatalf("second UpdateGrade: %v", err)
	}
	if record.Entries[col.ID.String()].LetterGrade != "A+" {
		t.Errorf("LetterGrade = %q, want A+", record.Entries[col.ID.String()].LetterGrade)
	}
}

func TestUpdateGradeHistoryOnlyOnChange(t *testing.T) {
	svc, history := newTestGradebookService()
	ctx := context.Background()

	col := mustCreateColumn(t, svc, &model.CreateColumnRequest{Name: "Quiz 1", Kind: "QUIZ", Points: 100})

	// First-time grade: no history.
	if _, err := svc.UpdateGrade(ctx, "course-1", "student-1", col.ID, "instructor-1", &model.UpdateGradeRequest{Grade: 70}); err != nil {
		t.Fatalf("UpdateGrade: %v", err)
	}
	if len(history.rows) != 0 {
		t.Fatalf("history after first grade = %d rows, want 0", len(history.rows))
	}

	// Same value again: still no history.
	if _, err := svc.UpdateGrade(ctx, "course-1", "student-1", col.ID, "instructor-1", &model.UpdateGradeRequest{Grade: 70}); err != nil {
		t.Fatalf("UpdateGrade same value: %v", err)
	}
	if len(history.rows) != 0 {
		t.Fatalf("history after unchanged grade = %d rows, want 0", len(history.rows))
	}

	// Changed value: exactly one row with the old and new grades.
	if _, err := svc.UpdateGrade(ctx, "course-1", "student-1", col.ID, "instructor-2", &model.UpdateGradeRequest{
		Grade:          75,
		IsOverride:     true,
		OverrideReason: "regrade after appeal",
	}); err != nil {
		t.Fatalf("UpdateGrade changed value: %v", err)
	}
	if len(history.rows) != 1 {
		t.Fatalf("history after change = %d rows, want 1", len(history.rows))
	}
	row := history.rows[0]
	if row.OldGrade != 70 || row.NewGrade != 75 {
		t.Errorf("history grades = %v -> %v, want 70 -> 75", row.OldGrade, row.NewGrade)
	}
	if !row.IsOverride || row.Reason != "regrade after appeal" {
		t.Errorf("override fields = %+v", row)
	}
	if row.ChangedBy != "instructor-2" {
		t.Errorf("ChangedBy = %q", row.ChangedBy)
	}
	if row.ColumnName != "Quiz 1" {
		t.Errorf("ColumnName = %q", row.ColumnName)
	}
}

func TestRecomputeOverallSkipsExcludedColumns(t *testing.T) {
	svc, _ := newTestGradebookService()
	ctx := context.Background()

	graded := mustCreateColumn(t, svc, &model.CreateColumnRequest{Name: "Midterm", Kind: "EXAM", Points: 100})
	practice := mustCreateColumn(t, svc, &model.CreateColumnRequest{
		Name:                  "Practice",
		Kind:                  "PARTICIPATION",
		Points:                50,
		IncludeInCalculations: boolPtr(false),
	})
	// A column the student never got graded on contributes nothing.
	mustCreateColumn(t, svc, &model.CreateColumnRequest{Name: "Final", Kind: "EXAM", Points: 200})

	if _, err := svc.UpdateGrade(ctx, "course-1", "student-1", graded.ID, "instructor-1", &model.UpdateGradeRequest{Grade: 80}); err != nil {
		t.Fatalf("UpdateGrade graded: %v", err)
	}
	record, err := svc.UpdateGrade(ctx, "course-1", "student-1", practice.ID, "instructor-1", &model.UpdateGradeRequest{Grade: 10})
	if err != nil {
		t.Fatalf("UpdateGrade practice: %v", err)
	}

	// Only the included, graded column counts: 80 of 100.
	if record.OverallPointsEarned != 80 || record.OverallPointsPossible != 100 {
		t.Errorf("overall points = %v/%v, want 80/100", record.OverallPointsEarned, record.OverallPointsPossible)
	}
	if record.OverallPercentage != 80 {
		t.Errorf("OverallPercentage = %v, want 80", record.OverallPercentage)
	}
	if record.OverallLetterGrade != "B-" {
		t.Errorf("OverallLetterGrade = %q, want B-", record.OverallLetterGrade)
	}
}

func TestUpdateGradeUnknownColumn(t *testing.T) {
	svc, _ := newTestGradebookService()

	_, err := svc.UpdateGrade(context.Background(), "course-1", "student-1", uuid.New(), "instructor-1", &model.UpdateGradeRequest{Grade: 50})
	if !errors.Is(err, ErrColumnNotFound) {
		t.Fatalf("err = %v, want ErrColumnNotFound", err)
	}
}

func TestStudentGradesEmptyRecord(t *testing.T) {
	svc, _ := newTestGradebookService()

	record, err := svc.StudentGrades(context.Background(), "course-1", "student-9")
	if err != nil {
		t.Fatalf("StudentGrades: %v", err)
	}
	if record.StudentID != "student-9" || len(record.Entries) != 0 {
		t.Errorf("empty record = %+v", record)
	}
	if record.OverallLetterGrade != "" {
		t.Errorf("OverallLetterGrade = %q, want empty", record.OverallLetterGrade)
	}
}

func TestColumnStatistics(t *testing.T) {
	svc, _ := newTestGradebookService()
	ctx := context.Background()

	col := mustCreateColumn(t, svc, &model.CreateColumnRequest{Name: "Midterm", Kind: "EXAM", Points: 100})

	for student, grade := range map[string]float64{"student-1": 60, "student-2": 70, "student-3": 80, "student-4": 90} {
		if _, err := svc.UpdateGrade(ctx, "course-1", student, col.ID, "instructor-1", &model.UpdateGradeRequest{Grade: grade}); err != nil {
			t.Fatalf("UpdateGrade %s: %v", student, err)
		}
	}
	// A student without an entry for the column is skipped, not zero.
	other := mustCreateColumn(t, svc, &model.CreateColumnRequest{Name: "Final", Kind: "EXAM", Points: 100})
	if _, err := svc.UpdateGrade(ctx, "course-1", "student-5", other.ID, "instructor-1", &model.UpdateGradeRequest{Grade: 40}); err != nil {
		t.Fatalf("UpdateGrade other column: %v", err)
	}

	stats, err := svc.ColumnStatistics(ctx, "course-1", col.ID)
	if err != nil {
		t.Fatalf("ColumnStatistics: %v", err)
	}
	if !stats.HasData || stats.Count != 4 {
		t.Fatalf("stats = %+v, want 4 graded entries", stats)
	}
	if stats.Mean != 75 || stats.Median != 80 || stats.Min != 60 || stats.Max != 90 {
		t.Errorf("stats = %+v", stats)
	}

	single, err := svc.ColumnStatistics(ctx, "course-1", other.ID)
	if err != nil {
		t.Fatalf("ColumnStatistics other: %v", err)
	}
	if !single.HasData || single.Count != 1 {
		t.Errorf("other column stats = %+v", single)
	}

	ungraded := mustCreateColumn(t, svc, &model.CreateColumnRequest{Name: "Project", Kind: "ASSIGNMENT", Points: 100})
	empty, err := svc.ColumnStatistics(ctx, "course-1", ungraded.ID)
	if err != nil {
		t.Fatalf("ColumnStatistics ungraded: %v", err)
	}
	if empty.HasData || empty.Count != 0 {
		t.Errorf("ungraded column stats = %+v", empty)
	}
	if empty.Name != "Project" {
		t.Errorf("Name = %q", empty.Name)
	}
}

func TestHistoryNewestFirst(t *testing.T) {
	svc, _ := newTestGradebookService()
	ctx := context.Background()

	col := mustCreateColumn(t, svc, &model.CreateColumnRequest{Name: "Quiz 1", Kind: "QUIZ", Points: 100})

	grades := []float64{50, 60, 70}
	base := time.Now()
	for i, g := range grades {
		tick := base.Add(time.Duration(i) * time.Minute)
		svc.now = func() time.Time { return tick }
		if _, err := svc.UpdateGrade(ctx, "course-1", "student-1", col.ID, "instructor-1", &model.UpdateGradeRequest{Grade: g}); err != nil {
			t.Fatalf("UpdateGrade %v: %v", g, err)
		}
	}

	hist, err := svc.History(ctx, "course-1", "student-1")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(hist) != 2 {
		t.Fatalf("len(history) = %d, want 2", len(hist))
	}
	if hist[0].NewGrade != 70 || hist[1].NewGrade != 60 {
		t.Errorf("history order = %v, %v, want 70, 60", hist[0].NewGrade, hist[1].NewGrade)
	}
}

func TestExportCSV(t *testing.T) {
	svc, _ := newTestGradebookService()
	ctx := context.Background()

	hw := mustCreateColumn(t, svc, &model.CreateColumnRequest{Name: "Homework, Week 1", Kind: "ASSIGNMENT", Points: 50})
	exam := mustCreateColumn(t, svc, &model.CreateColumnRequest{Name: "Midterm", Kind: "EXAM", Points: 100})

	if _, err := svc.UpdateGrade(ctx, "course-1", "student-1", hw.ID, "instructor-1", &model.UpdateGradeRequest{
		Grade:       45,
		StudentName: `Alice "Ace" Chen`,
	}); err != nil {
		t.Fatalf("UpdateGrade hw: %v", err)
	}
	if _, err := svc.UpdateGrade(ctx, "course-1", "student-1", exam.ID, "instructor-1", &model.UpdateGradeRequest{Grade: 90}); err != nil {
		t.Fatalf("UpdateGrade exam: %v", err)
	}
	// student-2 only has the exam; the homework cell must stay blank.
	if _, err := svc.UpdateGrade(ctx, "course-1", "student-2", exam.ID, "instructor-1", &model.UpdateGradeRequest{
		Grade:       80,
		StudentName: "Bob Diaz",
	}); err != nil {
		t.Fatalf("UpdateGrade student-2: %v", err)
	}

	csv, err := svc.ExportCSV(ctx, "course-1")
	if err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}

	lines := strings.Split(strings.TrimRight(string(csv), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("csv has %d lines, want 3:\n%s", len(lines), csv)
	}
	wantHeader := `Student ID,Student Name,"Homework, Week 1","Midterm",Overall Percentage,Overall Grade`
	if lines[0] != wantHeader {
		t.Errorf("header = %q, want %q", lines[0], wantHeader)
	}
	wantRow1 := `"student-1","Alice ""Ace"" Chen",45,90,90,A-`
	if lines[1] != wantRow1 {
		t.Errorf("row 1 = %q, want %q", lines[1], wantRow1)
	}
	wantRow2 := `"student-2","Bob Diaz",,80,80,B-`
	if lines[2] != wantRow2 {
		t.Errorf("row 2 = %q, want %q", lines[2], wantRow2)
	}
}
