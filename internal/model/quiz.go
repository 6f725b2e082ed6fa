package model

import (
	"time"

	"github.com/google/uuid"
)

// QuizStatus enumerates the lifecycle states of a quiz.
type QuizStatus string

const (
	QuizStatusDraft     QuizStatus = "DRAFT"
	QuizStatusPublished QuizStatus = "PUBLISHED"
	QuizStatusClosed    QuizStatus = "CLOSED"
)

// QuestionKind enumerates the auto-gradable question types.
type QuestionKind string

const (
	QuestionKindMultipleChoice QuestionKind = "MULTIPLE_CHOICE"
	QuestionKindTrueFalse      QuestionKind = "TRUE_FALSE"
	QuestionKindShortAnswer    QuestionKind = "SHORT_ANSWER"
)

// QuizQuestion is one question inside a quiz. Question identity is
// edit-scoped: replacing a quiz's question list mints fresh IDs, so
// attempts snapshot the fields they were graded against.
type QuizQuestion struct {
	ID              uuid.UUID    `json:"id"`
	Text            string       `json:"text"`
	Kind            QuestionKind `json:"kind"`
	Points          float64      `json:"points"`
	Options         []string     `json:"options,omitempty"`
	CorrectOption   *int         `json:"correct_option,omitempty"`
	CorrectBool     *bool        `json:"correct_bool,omitempty"`
	AcceptedAnswers []string     `json:"accepted_answers,omitempty"`
	CaseSensitive   bool         `json:"case_sensitive,omitempty"`
	Order           int          `json:"order"`
}

// Quiz represents a quiz owned by a course.
type Quiz struct {
	ID                 uuid.UUID      `json:"id"`
	CourseID           string         `json:"course_id"`
	Title              string         `json:"title"`
	Description        string         `json:"description,omitempty"`
	Instructions       string         `json:"instructions,omitempty"`
	TimeLimitMinutes   int            `json:"time_limit_minutes,omitempty"`
	MaxAttempts        int            `json:"max_attempts"`
	ShuffleQuestions   bool           `json:"shuffle_questions"`
	ShuffleAnswers     bool           `json:"shuffle_answers"`
	ShowCorrectAnswers bool           `json:"show_correct_answers"`
	AvailableFrom      *time.Time     `json:"available_from,omitempty"`
	AvailableUntil     *time.Time     `json:"available_until,omitempty"`
	Questions          []QuizQuestion `json:"questions"`
	TotalPoints        float64        `json:"total_points"`
	PassingScore       *float64       `json:"passing_score,omitempty"`
	Status             QuizStatus     `json:"status"`
	TotalAttempts      int            `json:"total_attempts"`
	AverageScore       float64        `json:"average_score"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// QuestionInput is the authoring payload for a single question.
// Correctness fields are validated per kind by the struct-level
// validation registered in the validator package.
type QuestionInput struct {
	Text            string   `json:"text" binding:"required,min=1,max=2000"`
	Kind            string   `json:"kind" binding:"required,oneof=MULTIPLE_CHOICE TRUE_FALSE SHORT_ANSWER"`
	Points          float64  `json:"points" binding:"required,gt=0"`
	Options         []string `json:"options" binding:"omitempty,max=10,dive,max=500"`
	CorrectOption   *int     `json:"correct_option" binding:"omitempty,min=0"`
	CorrectBool     *bool    `json:"correct_bool"`
	AcceptedAnswers []string `json:"accepted_answers" binding:"omitempty,max=20,dive,min=1,max=500"`
	CaseSensitive   bool     `json:"case_sensitive"`
}

// CreateQuizRequest is the payload for creating a new quiz.
type CreateQuizRequest struct {
	Title              string          `json:"title" binding:"required,min=3,max=255"`
	Description        string          `json:"description" binding:"omitempty,max=5000"`
	Instructions       string          `json:"instructions" binding:"omitempty,max=5000"`
	TimeLimitMinutes   int             `json:"time_limit_minutes" binding:"omitempty,min=1,max=480"`
	MaxAttempts        int             `json:"max_attempts" binding:"required,min=1,max=50"`
	ShuffleQuestions   bool            `json:"shuffle_questions"`
	ShuffleAnswers     bool            `json:"shuffle_answers"`
	ShowCorrectAnswers bool            `json:"show_correct_answers"`
	AvailableFrom      *time.Time      `json:"available_from" binding:"omitempty"`
	AvailableUntil     *time.Time      `json:"available_until" binding:"omitempty,gtfield=AvailableFrom"`
	PassingScore       *float64        `json:"passing_score" binding:"omitempty,min=0,max=100"`
	Questions          []QuestionInput `json:"questions" binding:"omitempty,dive"`
}

// UpdateQuizRequest is the payload for partially updating a quiz.
// Supplying Questions replaces the entire question list: every
// question gets a fresh ID and total points are recomputed.
type UpdateQuizRequest struct {
	Title              *string          `json:"title" binding:"omitempty,min=3,max=255"`
	Description        *string          `json:"description" binding:"omitempty,max=5000"`
	Instructions       *string          `json:"instructions" binding:"omitempty,max=5000"`
	TimeLimitMinutes   *int             `json:"time_limit_minutes" binding:"omitempty,min=1,max=480"`
	MaxAttempts        *int             `json:"max_attempts" binding:"omitempty,min=1,max=50"`
	ShuffleQuestions   *bool            `json:"shuffle_questions"`
	ShuffleAnswers     *bool            `json:"shuffle_answers"`
	ShowCorrectAnswers *bool            `json:"show_correct_answers"`
	AvailableFrom      *time.Time       `json:"available_from"`
	AvailableUntil     *time.Time       `json:"available_until"`
	PassingScore       *float64         `json:"passing_score" binding:"omitempty,min=0,max=100"`
	Questions          *[]QuestionInput `json:"questions" binding:"omitempty,dive"`
}

// QuestionForStudent is a question stripped of correctness data,
// delivered to students when they fetch the quiz paper.
type QuestionForStudent struct {
	ID      uuid.UUID    `json:"id"`
	Text    string       `json:"text"`
	Kind    QuestionKind `json:"kind"`
	Points  float64      `json:"points"`
	Options []string     `json:"options,omitempty"`
	Order   int          `json:"order"`
}

// QuizPayload is the cached student-facing quiz paper.
type QuizPayload struct {
	QuizID           uuid.UUID            `json:"quiz_id"`
	CourseID         string               `json:"course_id"`
	Title            string               `json:"title"`
	Instructions     string               `json:"instructions,omitempty"`
	TimeLimitMinutes int                  `json:"time_limit_minutes,omitempty"`
	TotalPoints      float64              `json:"total_points"`
	Questions        []QuestionForStudent `json:"questions"`
}
