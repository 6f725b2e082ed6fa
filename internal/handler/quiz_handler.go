package handler

import (
	"errors"
	"net/http"

	"github.com/classbridge/assess-backend/internal/model"
	"github.com/classbridge/assess-backend/internal/response"
	"github.com/classbridge/assess-backend/internal/service"
	"github.com/classbridge/assess-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// QuizHandler handles instructor-side quiz management endpoints.
type QuizHandler struct {
	quizService    *service.QuizService
	attemptService *service.AttemptService
}

// NewQuizHandler creates a new QuizHandler.
func NewQuizHandler(quizService *service.QuizService, attemptService *service.AttemptService) *QuizHandler {
	return &QuizHandler{
		quizService:    quizService,
		attemptService: attemptService,
	}
}

// CreateQuiz godoc
// POST /api/v1/instructor/courses/:course_id/quizzes
// Creates a new draft quiz with its question list.
func (h *QuizHandler) CreateQuiz(c *gin.Context) {
	courseID := c.Param("course_id")

	var req model.CreateQuizRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	quiz, err := h.quizService.Create(c.Request.Context(), courseID, &req)
	if err != nil {
		failQuizError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"quiz": quiz})
}

// ListQuizzes godoc
// GET /api/v1/instructor/courses/:course_id/quizzes
// Lists a course's quizzes, newest first, all statuses.
func (h *QuizHandler) ListQuizzes(c *gin.Context) {
	quizzes, err := h.quizService.ListByCourse(c.Request.Context(), c.Param("course_id"))
	if err != nil {
		failQuizError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"quizzes": quizzes})
}

// GetQuiz godoc
// GET /api/v1/instructor/courses/:course_id/quizzes/:quiz_id
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	quizID, err := uuid.Parse(c.Param("quiz_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	quiz, err := h.quizService.Get(c.Request.Context(), c.Param("course_id"), quizID)
	if err != nil {
		failQuizError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"quiz": quiz})
}

// UpdateQuiz godoc
// PATCH /api/v1/instructor/courses/:course_id/quizzes/:quiz_id
// Partial update. Supplying a question list replaces it wholesale.
func (h *QuizHandler) UpdateQuiz(c *gin.Context) {
	quizID, err := uuid.Parse(c.Param("quiz_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpdateQuizRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	quiz, err := h.quizService.Update(c.Request.Context(), c.Param("course_id"), quizID, &req)
	if err != nil {
		failQuizError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"quiz": quiz})
}

// PublishQuiz godoc
// POST /api/v1/instructor/courses/:course_id/quizzes/:quiz_id/publish
// Transitions DRAFT -> PUBLISHED and warms the paper cache.
func (h *QuizHandler) PublishQuiz(c *gin.Context) {
	quizID, err := uuid.Parse(c.Param("quiz_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	quiz, err := h.quizService.Publish(c.Request.Context(), c.Param("course_id"), quizID)
	if err != nil {
		failQuizError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"quiz": quiz})
}

// CloseQuiz godoc
// POST /api/v1/instructor/courses/:course_id/quizzes/:quiz_id/close
// Transitions the quiz to CLOSED. Closed quizzes are never reopened.
func (h *QuizHandler) CloseQuiz(c *gin.Context) {
	quizID, err := uuid.Parse(c.Param("quiz_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	quiz, err := h.quizService.Close(c.Request.Context(), c.Param("course_id"), quizID)
	if err != nil {
		failQuizError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"quiz": quiz})
}

// DeleteQuiz godoc
// DELETE /api/v1/instructor/courses/:course_id/quizzes/:quiz_id
// Deletes a quiz. Attempts keep their question snapshots.
func (h *QuizHandler) DeleteQuiz(c *gin.Context) {
	quizID, err := uuid.Parse(c.Param("quiz_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.quizService.Delete(c.Request.Context(), c.Param("course_id"), quizID); err != nil {
		failQuizError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "quiz deleted successfully"})
}

// ListAttempts godoc
// GET /api/v1/instructor/courses/:course_id/quizzes/:quiz_id/attempts
// Returns every attempt of the quiz, newest start first.
func (h *QuizHandler) ListAttempts(c *gin.Context) {
	quizID, err := uuid.Parse(c.Param("quiz_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	attempts, err := h.attemptService.ListAll(c.Request.Context(), c.Param("course_id"), quizID)
	if err != nil {
		failQuizError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempts": attempts})
}

// QuizStatistics godoc
// GET /api/v1/instructor/courses/:course_id/quizzes/:quiz_id/statistics
func (h *QuizHandler) QuizStatistics(c *gin.Context) {
	quizID, err := uuid.Parse(c.Param("quiz_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	stats, err := h.attemptService.Statistics(c.Request.Context(), c.Param("course_id"), quizID)
	if err != nil {
		failQuizError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"statistics": stats})
}

// failQuizError maps quiz domain errors onto HTTP responses.
func failQuizError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCourse):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidCourse)
	case errors.Is(err, service.ErrQuizNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrQuizNotDraft):
		response.Fail(c, http.StatusConflict, response.ErrQuizNotDraft)
	case errors.Is(err, service.ErrQuizNotPublished):
		response.Fail(c, http.StatusConflict, response.ErrQuizNotPublished)
	case errors.Is(err, service.ErrDeleteFailed):
		response.Fail(c, http.StatusInternalServerError, response.ErrDeleteFailed)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
