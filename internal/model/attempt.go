package model

import (
	"time"

	"github.com/google/uuid"
)

// GradedAnswer is one question's graded result inside an attempt.
// It snapshots the defining fields of the question it was graded
// against, so the attempt stays interpretable after quiz edits.
type GradedAnswer struct {
	QuestionID     uuid.UUID    `json:"question_id"`
	QuestionText   string       `json:"question_text"`
	Kind           QuestionKind `json:"kind"`
	PointsPossible float64      `json:"points_possible"`
	SelectedOption *int         `json:"selected_option,omitempty"`
	SelectedBool   *bool        `json:"selected_bool,omitempty"`
	TextAnswer     string       `json:"text_answer,omitempty"`
	Answered       bool         `json:"answered"`
	Correct        bool         `json:"correct"`
	PointsEarned   float64      `json:"points_earned"`
}

// QuizAttempt is one instance of a student taking a quiz.
type QuizAttempt struct {
	ID             uuid.UUID               `json:"id"`
	CourseID       string                  `json:"course_id"`
	QuizID         uuid.UUID               `json:"quiz_id"`
	StudentID      string                  `json:"student_id"`
	AttemptNumber  int                     `json:"attempt_number"`
	StartedAt      time.Time               `json:"started_at"`
	Answers        map[string]GradedAnswer `json:"answers"`
	Score          float64                 `json:"score"`
	MaxScore       float64                 `json:"max_score"`
	Percentage     float64                 `json:"percentage"`
	Passed         *bool                   `json:"passed,omitempty"`
	IsSubmitted    bool                    `json:"is_submitted"`
	SubmittedAt    *time.Time              `json:"submitted_at,omitempty"`
	ElapsedMinutes int                     `json:"elapsed_minutes"`
}

// AnswerInput is a single submitted answer, keyed by question ID in
// the submit payload. Exactly one of the value fields is meaningful
// depending on the question kind.
type AnswerInput struct {
	SelectedOption *int    `json:"selected_option"`
	SelectedBool   *bool   `json:"selected_bool"`
	TextAnswer     *string `json:"text_answer" binding:"omitempty,max=2000"`
}

// SubmitAttemptRequest is the payload for submitting an attempt.
type SubmitAttemptRequest struct {
	Answers map[string]AnswerInput `json:"answers" binding:"required"`
}

// QuestionAccuracy is per-question accuracy across all submitted
// attempts of a quiz.
type QuestionAccuracy struct {
	QuestionID   uuid.UUID `json:"question_id"`
	QuestionText string    `json:"question_text"`
	Attempted    int       `json:"attempted"`
	Correct      int       `json:"correct"`
	Accuracy     float64   `json:"accuracy"`
}

// QuizStatistics summarizes submitted attempts of a quiz. The numeric
// summary is computed over each student's best attempt; question
// accuracy covers all submitted attempts. HasData is false when no
// submitted attempts exist, in which case every other field is zero.
type QuizStatistics struct {
	QuizID            uuid.UUID          `json:"quiz_id"`
	HasData           bool               `json:"has_data"`
	SubmittedAttempts int                `json:"submitted_attempts"`
	UniqueStudents    int                `json:"unique_students"`
	Mean              float64            `json:"mean"`
	Median            float64            `json:"median"`
	Min               float64            `json:"min"`
	Max               float64            `json:"max"`
	StdDev            float64            `json:"std_dev"`
	PassRate          *float64           `json:"pass_rate,omitempty"`
	Questions         []QuestionAccuracy `json:"questions,omitempty"`
}

// SubmissionEvent is published on the course monitor channel after a
// successful attempt submission.
type SubmissionEvent struct {
	CourseID      string    `json:"course_id"`
	QuizID        uuid.UUID `json:"quiz_id"`
	QuizTitle     string    `json:"quiz_title"`
	StudentID     string    `json:"student_id"`
	AttemptID     uuid.UUID `json:"attempt_id"`
	AttemptNumber int       `json:"attempt_number"`
	Score         float64   `json:"score"`
	Percentage    float64   `json:"percentage"`
	SubmittedAt   time.Time `json:"submitted_at"`
}
