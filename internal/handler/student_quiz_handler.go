package handler

import (
	"errors"
	"net/http"

	"github.com/classbridge/assess-backend/internal/middleware"
	"github.com/classbridge/assess-backend/internal/model"
	"github.com/classbridge/assess-backend/internal/response"
	"github.com/classbridge/assess-backend/internal/service"
	"github.com/classbridge/assess-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// StudentQuizHandler handles the student-facing quiz and grade endpoints.
type StudentQuizHandler struct {
	quizService      *service.QuizService
	attemptService   *service.AttemptService
	gradebookService *service.GradebookService
}

// NewStudentQuizHandler creates a new StudentQuizHandler.
func NewStudentQuizHandler(quizService *service.QuizService, attemptService *service.AttemptService, gradebookService *service.GradebookService) *StudentQuizHandler {
	return &StudentQuizHandler{
		quizService:      quizService,
		attemptService:   attemptService,
		gradebookService: gradebookService,
	}
}

// ListPublishedQuizzes godoc
// GET /api/v1/student/courses/:course_id/quizzes
// Lists published quizzes with correctness data stripped.
func (h *StudentQuizHandler) ListPublishedQuizzes(c *gin.Context) {
	quizzes, err := h.quizService.ListPublished(c.Request.Context(), c.Param("course_id"))
	if err != nil {
		failAttemptError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"quizzes": quizzes})
}

// GetPaper godoc
// GET /api/v1/student/courses/:course_id/quizzes/:quiz_id/paper
// Returns the student-facing paper, cached when possible.
func (h *StudentQuizHandler) GetPaper(c *gin.Context) {
	quizID, err := uuid.Parse(c.Param("quiz_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	paper, err := h.quizService.StudentPaper(c.Request.Context(), c.Param("course_id"), quizID)
	if err != nil {
		failAttemptError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"paper": paper})
}

// StartAttempt godoc
// POST /api/v1/student/courses/:course_id/quizzes/:quiz_id/attempts
// Starts a new attempt, enforcing the availability window and the
// attempt limit.
func (h *StudentQuizHandler) StartAttempt(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	quizID, err := uuid.Parse(c.Param("quiz_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	attempt, err := h.attemptService.Start(c.Request.Context(), c.Param("course_id"), quizID, claims.UserID)
	if err != nil {
		failAttemptError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"attempt": attempt})
}

// SubmitAttempt godoc
// POST /api/v1/student/courses/:course_id/quizzes/:quiz_id/attempts/:attempt_id/submit
// Submits and auto-grades the attempt in one step.
func (h *StudentQuizHandler) SubmitAttempt(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	quizID, err := uuid.Parse(c.Param("quiz_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.SubmitAttemptRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	attempt, err := h.attemptService.Submit(c.Request.Context(), c.Param("course_id"), quizID, attemptID, claims.UserID, req.Answers)
	if err != nil {
		failAttemptError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempt": attempt})
}

// ListOwnAttempts godoc
// GET /api/v1/student/courses/:course_id/quizzes/:quiz_id/attempts
// Returns the student's own attempts, ordered by attempt number.
func (h *StudentQuizHandler) ListOwnAttempts(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	quizID, err := uuid.Parse(c.Param("quiz_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	attempts, err := h.attemptService.ListForStudent(c.Request.Context(), c.Param("course_id"), quizID, claims.UserID)
	if err != nil {
		failAttemptError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempts": attempts})
}

// GetOwnGrades godoc
// GET /api/v1/student/courses/:course_id/grades
// Returns the student's own grade record for the course.
func (h *StudentQuizHandler) GetOwnGrades(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	record, err := h.gradebookService.StudentGrades(c.Request.Context(), c.Param("course_id"), claims.UserID)
	if err != nil {
		failGradebookError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"grades": record})
}

// failAttemptError maps attempt domain errors onto HTTP responses,
// falling through to the quiz mapping for shared errors.
func failAttemptError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotAvailableYet):
		response.Fail(c, http.StatusForbidden, response.ErrNotAvailableYet)
	case errors.Is(err, service.ErrNoLongerAvailable):
		response.Fail(c, http.StatusForbidden, response.ErrNoLongerAvailable)
	case errors.Is(err, service.ErrAttemptLimitExceeded):
		response.Fail(c, http.StatusForbidden, response.ErrAttemptLimitExceeded)
	case errors.Is(err, service.ErrAttemptNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrAlreadySubmitted):
		response.Fail(c, http.StatusConflict, response.ErrAlreadySubmitted)
	default:
		failQuizError(c, err)
	}
}
