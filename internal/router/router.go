package router

import (
	"net/http"
	"time"

	"github.com/classbridge/assess-backend/internal/config"
	"github.com/classbridge/assess-backend/internal/handler"
	"github.com/classbridge/assess-backend/internal/middleware"
	"github.com/classbridge/assess-backend/internal/response"
	"github.com/classbridge/assess-backend/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Quiz        *handler.QuizHandler
	StudentQuiz *handler.StudentQuizHandler
	Gradebook   *handler.GradebookHandler
	Monitor     *handler.MonitorHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Content-Disposition"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for attempt starts (30 requests per minute per IP).
	attemptLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Instructor Group (Instructor JWT) ──────────────────────────
	instructorAPI := router.Group("/api/v1/instructor")
	instructorAPI.Use(middleware.RequireInstructorJWT(authService))
	{
		courses := instructorAPI.Group("/courses/:course_id")

		// Quiz authoring and lifecycle
		courses.POST("/quizzes", handlers.Quiz.CreateQuiz)
		courses.GET("/quizzes", handlers.Quiz.ListQuizzes)
		courses.GET("/quizzes/:quiz_id", handlers.Quiz.GetQuiz)
		courses.PATCH("/quizzes/:quiz_id", handlers.Quiz.UpdateQuiz)
		courses.POST("/quizzes/:quiz_id/publish", handlers.Quiz.PublishQuiz)
		courses.POST("/quizzes/:quiz_id/close", handlers.Quiz.CloseQuiz)
		courses.DELETE("/quizzes/:quiz_id", handlers.Quiz.DeleteQuiz)
		courses.GET("/quizzes/:quiz_id/attempts", handlers.Quiz.ListAttempts)
		courses.GET("/quizzes/:quiz_id/statistics", handlers.Quiz.QuizStatistics)

		// Gradebook
		courses.POST("/grade-columns", handlers.Gradebook.CreateColumn)
		courses.GET("/grade-columns", handlers.Gradebook.ListColumns)
		courses.PATCH("/grade-columns/:column_id", handlers.Gradebook.UpdateColumn)
		courses.DELETE("/grade-columns/:column_id", handlers.Gradebook.DeleteColumn)
		courses.GET("/grade-columns/:column_id/statistics", handlers.Gradebook.ColumnStatistics)
		courses.PUT("/students/:student_id/grades/:column_id", handlers.Gradebook.UpdateGrade)
		courses.GET("/students/:student_id/grades", handlers.Gradebook.StudentGrades)
		courses.GET("/students/:student_id/grade-history", handlers.Gradebook.GradeHistory)
		courses.GET("/grade-center", handlers.Gradebook.GradeCenter)
		courses.GET("/grade-export", handlers.Gradebook.ExportCSV)
	}

	// ─── 2. Student Group (Student JWT) ────────────────────────────────
	studentAPI := router.Group("/api/v1/student")
	studentAPI.Use(middleware.RequireStudentJWT(authService))
	{
		courses := studentAPI.Group("/courses/:course_id")

		courses.GET("/quizzes", handlers.StudentQuiz.ListPublishedQuizzes)
		courses.GET("/quizzes/:quiz_id/paper", handlers.StudentQuiz.GetPaper)
		courses.POST("/quizzes/:quiz_id/attempts", attemptLimiter.Middleware(), handlers.StudentQuiz.StartAttempt)
		courses.POST("/quizzes/:quiz_id/attempts/:attempt_id/submit", handlers.StudentQuiz.SubmitAttempt)
		courses.GET("/quizzes/:quiz_id/attempts", handlers.StudentQuiz.ListOwnAttempts)
		courses.GET("/grades", handlers.StudentQuiz.GetOwnGrades)
	}

	// ─── 3. WebSocket Group (Instructor WS Auth) ───────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireInstructorWSAuth(authService))
	{
		ws.GET("/courses/:course_id/monitor", handlers.Monitor.CourseMonitorStream)
	}

	return router
}
