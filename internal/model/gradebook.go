package model

import (
	"time"

	"github.com/google/uuid"
)

// ColumnKind enumerates the kinds of gradable columns.
type ColumnKind string

const (
	ColumnKindAssignment    ColumnKind = "ASSIGNMENT"
	ColumnKindExam          ColumnKind = "EXAM"
	ColumnKindQuiz          ColumnKind = "QUIZ"
	ColumnKindParticipation ColumnKind = "PARTICIPATION"
	ColumnKindCustom        ColumnKind = "CUSTOM"
	ColumnKindTotal         ColumnKind = "TOTAL"
)

// GradeColumn is a named gradable item in a course's gradebook.
// Order is assigned as current-max+1 at creation and never reused
// after deletion.
type GradeColumn struct {
	ID                    uuid.UUID  `json:"id"`
	CourseID              string     `json:"course_id"`
	Name                  string     `json:"name"`
	Kind                  ColumnKind `json:"kind"`
	Points                float64    `json:"points"`
	Weight                *float64   `json:"weight,omitempty"`
	Category              string     `json:"category,omitempty"`
	SourceID              *uuid.UUID `json:"source_id,omitempty"`
	Visible               bool       `json:"visible"`
	IncludeInCalculations bool       `json:"include_in_calculations"`
	Order                 int        `json:"order"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// GradeEntry is one student's recorded value for one column. Points
// is copied from the column at grading time, not re-derived later.
type GradeEntry struct {
	ColumnID       uuid.UUID `json:"column_id"`
	Grade          float64   `json:"grade"`
	Points         float64   `json:"points"`
	Percentage     float64   `json:"percentage"`
	LetterGrade    string    `json:"letter_grade"`
	IsOverride     bool      `json:"is_override,omitempty"`
	OverrideReason string    `json:"override_reason,omitempty"`
	GradedBy       string    `json:"graded_by"`
	GradedAt       time.Time `json:"graded_at"`
}

// StudentGradeRecord is the per-(course,student) aggregate document:
// the entry map keyed by column ID plus the derived overall fields,
// recomputed every time any entry changes.
type StudentGradeRecord struct {
	CourseID              string                `json:"course_id"`
	StudentID             string                `json:"student_id"`
	StudentName           string                `json:"student_name,omitempty"`
	Entries               map[string]GradeEntry `json:"entries"`
	OverallPointsEarned   float64               `json:"overall_points_earned"`
	OverallPointsPossible float64               `json:"overall_points_possible"`
	OverallPercentage     float64               `json:"overall_percentage"`
	OverallLetterGrade    string                `json:"overall_letter_grade"`
	UpdatedAt             time.Time             `json:"updated_at"`
}

// GradeHistory is an append-only row recording a grade change. It is
// only written when an existing entry's value differs from the new
// one, and is immutable once written.
type GradeHistory struct {
	ID         uuid.UUID `json:"id"`
	CourseID   string    `json:"course_id"`
	StudentID  string    `json:"student_id"`
	ColumnID   uuid.UUID `json:"column_id"`
	ColumnName string    `json:"column_name"`
	OldGrade   float64   `json:"old_grade"`
	NewGrade   float64   `json:"new_grade"`
	IsOverride bool      `json:"is_override,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	ChangedBy  string    `json:"changed_by"`
	ChangedAt  time.Time `json:"changed_at"`
}

// CreateColumnRequest is the payload for creating a grade column.
type CreateColumnRequest struct {
	Name                  string     `json:"name" binding:"required,min=1,max=255"`
	Kind                  string     `json:"kind" binding:"required,oneof=ASSIGNMENT EXAM QUIZ PARTICIPATION CUSTOM TOTAL"`
	Points                float64    `json:"points" binding:"required,gt=0"`
	Weight                *float64   `json:"weight" binding:"omitempty,min=0,max=100"`
	Category              string     `json:"category" binding:"omitempty,max=100"`
	SourceID              *uuid.UUID `json:"source_id"`
	Visible               *bool      `json:"visible"`
	IncludeInCalculations *bool      `json:"include_in_calculations"`
}

// UpdateColumnRequest is the payload for partially updating a column.
type UpdateColumnRequest struct {
	Name                  *string  `json:"name" binding:"omitempty,min=1,max=255"`
	Kind                  *string  `json:"kind" binding:"omitempty,oneof=ASSIGNMENT EXAM QUIZ PARTICIPATION CUSTOM TOTAL"`
	Points                *float64 `json:"points" binding:"omitempty,gt=0"`
	Weight                *float64 `json:"weight" binding:"omitempty,min=0,max=100"`
	Category              *string  `json:"category" binding:"omitempty,max=100"`
	Visible               *bool    `json:"visible"`
	IncludeInCalculations *bool    `json:"include_in_calculations"`
}

// UpdateGradeRequest is the payload for setting a student's grade on
// a column. StudentName is optional denormalized roster data carried
// onto the student's record for display and CSV export.
type UpdateGradeRequest struct {
	Grade          float64 `json:"grade" binding:"min=0"`
	StudentName    string  `json:"student_name" binding:"omitempty,max=255"`
	IsOverride     bool    `json:"is_override"`
	OverrideReason string  `json:"override_reason" binding:"omitempty,max=1000"`
}

// ColumnStatistics summarizes the graded entries of one column.
// HasData is false when no student has an entry for the column.
type ColumnStatistics struct {
	ColumnID uuid.UUID `json:"column_id"`
	Name     string    `json:"name"`
	HasData  bool      `json:"has_data"`
	Count    int       `json:"count"`
	Mean     float64   `json:"mean"`
	Median   float64   `json:"median"`
	Min      float64   `json:"min"`
	Max      float64   `json:"max"`
	StdDev   float64   `json:"std_dev"`
}
