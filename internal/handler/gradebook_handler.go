package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/classbridge/assess-backend/internal/middleware"
	"github.com/classbridge/assess-backend/internal/model"
	"github.com/classbridge/assess-backend/internal/response"
	"github.com/classbridge/assess-backend/internal/service"
	"github.com/classbridge/assess-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GradebookHandler handles instructor-side gradebook endpoints.
type GradebookHandler struct {
	gradebookService *service.GradebookService
}

// NewGradebookHandler creates a new GradebookHandler.
func NewGradebookHandler(gradebookService *service.GradebookService) *GradebookHandler {
	return &GradebookHandler{gradebookService: gradebookService}
}

// CreateColumn godoc
// POST /api/v1/instructor/courses/:course_id/grade-columns
func (h *GradebookHandler) CreateColumn(c *gin.Context) {
	var req model.CreateColumnRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	col, err := h.gradebookService.CreateColumn(c.Request.Context(), c.Param("course_id"), &req)
	if err != nil {
		failGradebookError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"column": col})
}

// ListColumns godoc
// GET /api/v1/instructor/courses/:course_id/grade-columns
// Returns the course's columns in display order.
func (h *GradebookHandler) ListColumns(c *gin.Context) {
	cols, err := h.gradebookService.ListColumns(c.Request.Context(), c.Param("course_id"))
	if err != nil {
		failGradebookError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"columns": cols})
}

// UpdateColumn godoc
// PATCH /api/v1/instructor/courses/:course_id/grade-columns/:column_id
func (h *GradebookHandler) UpdateColumn(c *gin.Context) {
	columnID, err := uuid.Parse(c.Param("column_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpdateColumnRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	col, err := h.gradebookService.UpdateColumn(c.Request.Context(), c.Param("course_id"), columnID, &req)
	if err != nil {
		failGradebookError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"column": col})
}

// DeleteColumn godoc
// DELETE /api/v1/instructor/courses/:course_id/grade-columns/:column_id
func (h *GradebookHandler) DeleteColumn(c *gin.Context) {
	columnID, err := uuid.Parse(c.Param("column_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.gradebookService.DeleteColumn(c.Request.Context(), c.Param("course_id"), columnID); err != nil {
		failGradebookError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "column deleted successfully"})
}

// UpdateGrade godoc
// PUT /api/v1/instructor/courses/:course_id/students/:student_id/grades/:column_id
// Sets a student's grade for a column and recomputes their overall record.
func (h *GradebookHandler) UpdateGrade(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	columnID, err := uuid.Parse(c.Param("column_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpdateGradeRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	record, err := h.gradebookService.UpdateGrade(
		c.Request.Context(),
		c.Param("course_id"),
		c.Param("student_id"),
		columnID,
		claims.UserID,
		&req,
	)
	if err != nil {
		failGradebookError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"record": record})
}

// GradeCenter godoc
// GET /api/v1/instructor/courses/:course_id/grade-center
// Returns every student record of the course, ordered by student id.
func (h *GradebookHandler) GradeCenter(c *gin.Context) {
	records, err := h.gradebookService.GradeCenter(c.Request.Context(), c.Param("course_id"))
	if err != nil {
		failGradebookError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"records": records})
}

// StudentGrades godoc
// GET /api/v1/instructor/courses/:course_id/students/:student_id/grades
func (h *GradebookHandler) StudentGrades(c *gin.Context) {
	record, err := h.gradebookService.StudentGrades(c.Request.Context(), c.Param("course_id"), c.Param("student_id"))
	if err != nil {
		failGradebookError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"record": record})
}

// GradeHistory godoc
// GET /api/v1/instructor/courses/:course_id/students/:student_id/grade-history
// Returns the student's grade changes, newest first.
func (h *GradebookHandler) GradeHistory(c *gin.Context) {
	history, err := h.gradebookService.History(c.Request.Context(), c.Param("course_id"), c.Param("student_id"))
	if err != nil {
		failGradebookError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"history": history})
}

// ColumnStatistics godoc
// GET /api/v1/instructor/courses/:course_id/grade-columns/:column_id/statistics
func (h *GradebookHandler) ColumnStatistics(c *gin.Context) {
	columnID, err := uuid.Parse(c.Param("column_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	stats, err := h.gradebookService.ColumnStatistics(c.Request.Context(), c.Param("course_id"), columnID)
	if err != nil {
		failGradebookError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"statistics": stats})
}

// ExportCSV godoc
// GET /api/v1/instructor/courses/:course_id/grade-export
// Streams the grade center as a CSV attachment.
func (h *GradebookHandler) ExportCSV(c *gin.Context) {
	courseID := c.Param("course_id")

	csv, err := h.gradebookService.ExportCSV(c.Request.Context(), courseID)
	if err != nil {
		failGradebookError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=grades-%s.csv", courseID))
	c.Data(http.StatusOK, "text/csv", csv)
}

// failGradebookError maps gradebook domain errors onto HTTP responses.
func failGradebookError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCourse):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidCourse)
	case errors.Is(err, service.ErrColumnNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrDeleteFailed):
		response.Fail(c, http.StatusInternalServerError, response.ErrDeleteFailed)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
