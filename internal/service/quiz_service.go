package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/classbridge/assess-backend/internal/config"
	"github.com/classbridge/assess-backend/internal/model"
	"github.com/classbridge/assess-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Domain Errors
var (
	ErrInvalidCourse    = errors.New("course id is required")
	ErrQuizNotFound     = errors.New("quiz not found")
	ErrQuizNotDraft     = errors.New("quiz status is not DRAFT")
	ErrQuizNotPublished = errors.New("quiz is not published")
	ErrDeleteFailed     = errors.New("delete failed")
)

// QuizService handles quiz authoring, lifecycle and the cached
// student-facing paper.
type QuizService struct {
	quizzes QuizStore
	rdb     *redis.Client
	log     zerolog.Logger
	now     func() time.Time
}

// NewQuizService creates a new QuizService. rdb may be nil, in which
// case the payload cache is skipped and papers are always built from
// the store.
func NewQuizService(quizzes QuizStore, rdb *redis.Client, log zerolog.Logger) *QuizService {
	return &QuizService{
		quizzes: quizzes,
		rdb:     rdb,
		log:     log.With().Str("component", "quiz_service").Logger(),
		now:     time.Now,
	}
}

// Create inserts a new quiz as DRAFT. Every question receives a fresh
// ID and a 1-based order; total points are the sum of question points.
func (s *QuizService) Create(ctx context.Context, courseID string, req *model.CreateQuizRequest) (*model.Quiz, error) {
	if courseID == "" {
		return nil, ErrInvalidCourse
	}

	questions, total := buildQuestions(req.Questions)
	now := s.now()

	quiz := &model.Quiz{
		ID:                 uuid.New(),
		CourseID:           courseID,
		Title:              req.Title,
		Description:        req.Description,
		Instructions:       req.Instructions,
		TimeLimitMinutes:   req.TimeLimitMinutes,
		MaxAttempts:        req.MaxAttempts,
		ShuffleQuestions:   req.ShuffleQuestions,
		ShuffleAnswers:     req.ShuffleAnswers,
		ShowCorrectAnswers: req.ShowCorrectAnswers,
		AvailableFrom:      req.AvailableFrom,
		AvailableUntil:     req.AvailableUntil,
		Questions:          questions,
		TotalPoints:        total,
		PassingScore:       req.PassingScore,
		Status:             model.QuizStatusDraft,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.quizzes.Create(ctx, quiz); err != nil {
		return nil, fmt.Errorf("create quiz: %w", err)
	}

	s.log.Info().
		Str("quiz_id", quiz.ID.String()).
		Str("course_id", courseID).
		Int("questions", len(questions)).
		Msg("Quiz created")
	return quiz, nil
}

// Get retrieves a quiz, enforcing course ownership.
func (s *QuizService) Get(ctx context.Context, courseID string, quizID uuid.UUID) (*model.Quiz, error) {
	quiz, err := s.quizzes.GetByID(ctx, quizID)
	if err != nil {
		if repository.IsNoRows(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("get quiz: %w", err)
	}
	if quiz.CourseID != courseID {
		return nil, ErrQuizNotFound
	}
	return quiz, nil
}

// ListByCourse retrieves all quizzes of a course, newest first.
func (s *QuizService) ListByCourse(ctx context.Context, courseID string) ([]model.Quiz, error) {
	if courseID == "" {
		return nil, ErrInvalidCourse
	}
	quizzes, err := s.quizzes.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	sortQuizzesNewestFirst(quizzes)
	if quizzes == nil {
		quizzes = []model.Quiz{}
	}
	return quizzes, nil
}

// ListPublished retrieves a course's published quizzes for students,
// with correctness data stripped from the question list.
func (s *QuizService) ListPublished(ctx context.Context, courseID string) ([]model.Quiz, error) {
	quizzes, err := s.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	published := make([]model.Quiz, 0, len(quizzes))
	for _, q := range quizzes {
		if q.Status != model.QuizStatusPublished {
			continue
		}
		q.Questions = nil
		published = append(published, q)
	}
	return published, nil
}

// Update applies a partial update. Supplying a question list replaces
// it wholesale: fresh IDs, recomputed order and total points. A
// published quiz's cached paper is re-warmed after the write.
func (s *QuizService) Update(ctx context.Context, courseID string, quizID uuid.UUID, req *model.UpdateQuizRequest) (*model.Quiz, error) {
	quiz, err := s.Get(ctx, courseID, quizID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		quiz.Title = *req.Title
	}
	if req.Description != nil {
		quiz.Description = *req.Description
	}
	if req.Instructions != nil {
		quiz.Instructions = *req.Instructions
	}
	if req.TimeLimitMinutes != nil {
		quiz.TimeLimitMinutes = *req.TimeLimitMinutes
	}
	if req.MaxAttempts != nil {
		quiz.MaxAttempts = *req.MaxAttempts
	}
	if req.ShuffleQuestions != nil {
		quiz.ShuffleQuestions = *req.ShuffleQuestions
	}
	if req.ShuffleAnswers != nil {
		quiz.ShuffleAnswers = *req.ShuffleAnswers
	}
	if req.ShowCorrectAnswers != nil {
		quiz.ShowCorrectAnswers = *req.ShowCorrectAnswers
	}
	if req.AvailableFrom != nil {
		quiz.AvailableFrom = req.AvailableFrom
	}
	if req.AvailableUntil != nil {
		quiz.AvailableUntil = req.AvailableUntil
	}
	if req.PassingScore != nil {
		quiz.PassingScore = req.PassingScore
	}
	if req.Questions != nil {
		quiz.Questions, quiz.TotalPoints = buildQuestions(*req.Questions)
	}
	quiz.UpdatedAt = s.now()

	if err := s.quizzes.Update(ctx, quiz); err != nil {
		return nil, fmt.Errorf("update quiz: %w", err)
	}

	if quiz.Status == model.QuizStatusPublished {
		if err := s.warmPaperCache(ctx, quiz); err != nil {
			s.log.Warn().Err(err).Str("quiz_id", quizID.String()).Msg("Paper cache refresh failed")
		}
	}
	return quiz, nil
}

// Publish transitions DRAFT -> PUBLISHED and warms the paper cache.
func (s *QuizService) Publish(ctx context.Context, courseID string, quizID uuid.UUID) (*model.Quiz, error) {
	quiz, err := s.Get(ctx, courseID, quizID)
	if err != nil {
		return nil, err
	}
	if quiz.Status != model.QuizStatusDraft {
		return nil, ErrQuizNotDraft
	}

	quiz.Status = model.QuizStatusPublished
	quiz.UpdatedAt = s.now()
	if err := s.quizzes.Update(ctx, quiz); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}

	if err := s.warmPaperCache(ctx, quiz); err != nil {
		s.log.Warn().Err(err).Str("quiz_id", quizID.String()).Msg("Paper cache warm failed")
	}

	s.log.Info().Str("quiz_id", quizID.String()).Msg("Quiz published")
	return quiz, nil
}

// Close transitions any status to CLOSED and drops the cached paper.
// A closed quiz is never reopened.
func (s *QuizService) Close(ctx context.Context, courseID string, quizID uuid.UUID) (*model.Quiz, error) {
	quiz, err := s.Get(ctx, courseID, quizID)
	if err != nil {
		return nil, err
	}

	quiz.Status = model.QuizStatusClosed
	quiz.UpdatedAt = s.now()
	if err := s.quizzes.Update(ctx, quiz); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}

	s.dropPaperCache(ctx, quizID)
	s.log.Info().Str("quiz_id", quizID.String()).Msg("Quiz closed")
	return quiz, nil
}

// Delete removes a quiz unconditionally. Existing attempts keep their
// question snapshots and are left in place.
func (s *QuizService) Delete(ctx context.Context, courseID string, quizID uuid.UUID) error {
	if _, err := s.Get(ctx, courseID, quizID); err != nil {
		return err
	}
	if err := s.quizzes.Delete(ctx, quizID); err != nil {
		return fmt.Errorf("%w: %v", ErrDeleteFailed, err)
	}
	s.dropPaperCache(ctx, quizID)
	return nil
}

// StudentPaper returns the student-facing paper for a published quiz,
// from the cache when possible. Shuffle flags are applied per fetch
// on a copy, so the cached payload stays in authored order.
func (s *QuizService) StudentPaper(ctx context.Context, courseID string, quizID uuid.UUID) (*model.QuizPayload, error) {
	if payload := s.cachedPaper(ctx, quizID); payload != nil && payload.CourseID == courseID {
		return s.shufflePaper(ctx, payload)
	}

	quiz, err := s.Get(ctx, courseID, quizID)
	if err != nil {
		return nil, err
	}
	if quiz.Status != model.QuizStatusPublished {
		return nil, ErrQuizNotPublished
	}

	payload := buildPaper(quiz)
	if err := s.warmPaperCache(ctx, quiz); err != nil {
		s.log.Warn().Err(err).Str("quiz_id", quizID.String()).Msg("Paper cache warm failed")
	}
	return s.shufflePaperFor(payload, quiz.ShuffleQuestions, quiz.ShuffleAnswers), nil
}

// ────────────────────────────────────────────────────────────────────
// Paper cache
// ────────────────────────────────────────────────────────────────────

func (s *QuizService) warmPaperCache(ctx context.Context, quiz *model.Quiz) error {
	if s.rdb == nil {
		return nil
	}
	payload := buildPaper(quiz)
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal paper: %w", err)
	}
	if err := s.rdb.Set(ctx, config.CacheKey.QuizPayloadKey(quiz.ID.String()), raw, 0).Err(); err != nil {
		return fmt.Errorf("cache paper: %w", err)
	}
	return nil
}

func (s *QuizService) cachedPaper(ctx context.Context, quizID uuid.UUID) *model.QuizPayload {
	if s.rdb == nil {
		return nil
	}
	raw, err := s.rdb.Get(ctx, config.CacheKey.QuizPayloadKey(quizID.String())).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Warn().Err(err).Str("quiz_id", quizID.String()).Msg("Paper cache read failed")
		}
		return nil
	}
	var payload model.QuizPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil
	}
	return &payload
}

func (s *QuizService) dropPaperCache(ctx context.Context, quizID uuid.UUID) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, config.CacheKey.QuizPayloadKey(quizID.String())).Err(); err != nil {
		s.log.Warn().Err(err).Str("quiz_id", quizID.String()).Msg("Paper cache drop failed")
	}
}

// shufflePaper re-reads the quiz's shuffle flags for a cache hit.
func (s *QuizService) shufflePaper(ctx context.Context, payload *model.QuizPayload) (*model.QuizPayload, error) {
	quiz, err := s.quizzes.GetByID(ctx, payload.QuizID)
	if err != nil {
		// Cache outlived the quiz document.
		if repository.IsNoRows(err) {
			s.dropPaperCache(ctx, payload.QuizID)
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("get quiz: %w", err)
	}
	return s.shufflePaperFor(payload, quiz.ShuffleQuestions, quiz.ShuffleAnswers), nil
}

func (s *QuizService) shufflePaperFor(payload *model.QuizPayload, shuffleQuestions, shuffleAnswers bool) *model.QuizPayload {
	if !shuffleQuestions && !shuffleAnswers {
		return payload
	}
	out := *payload
	out.Questions = make([]model.QuestionForStudent, len(payload.Questions))
	copy(out.Questions, payload.Questions)

	if shuffleQuestions {
		rand.Shuffle(len(out.Questions), func(i, j int) {
			out.Questions[i], out.Questions[j] = out.Questions[j], out.Questions[i]
		})
	}
	if shuffleAnswers {
		for i := range out.Questions {
			if len(out.Questions[i].Options) < 2 {
				continue
			}
			opts := make([]string, len(out.Questions[i].Options))
			copy(opts, out.Questions[i].Options)
			rand.Shuffle(len(opts), func(a, b int) { opts[a], opts[b] = opts[b], opts[a] })
			out.Questions[i].Options = opts
		}
	}
	return &out
}

// ────────────────────────────────────────────────────────────────────
// Helpers
// ────────────────────────────────────────────────────────────────────

// buildQuestions converts authoring inputs into stored questions with
// fresh IDs and 1-based order, returning the summed point total.
func buildQuestions(inputs []model.QuestionInput) ([]model.QuizQuestion, float64) {
	questions := make([]model.QuizQuestion, len(inputs))
	total := 0.0
	for i, in := range inputs {
		questions[i] = model.QuizQuestion{
			ID:              uuid.New(),
			Text:            in.Text,
			Kind:            model.QuestionKind(in.Kind),
			Points:          in.Points,
			Options:         in.Options,
			CorrectOption:   in.CorrectOption,
			CorrectBool:     in.CorrectBool,
			AcceptedAnswers: in.AcceptedAnswers,
			CaseSensitive:   in.CaseSensitive,
			Order:           i + 1,
		}
		total += in.Points
	}
	return questions, total
}

// buildPaper strips correctness data from a quiz's question list.
func buildPaper(quiz *model.Quiz) *model.QuizPayload {
	questions := make([]model.QuestionForStudent, len(quiz.Questions))
	for i, q := range quiz.Questions {
		questions[i] = model.QuestionForStudent{
			ID:      q.ID,
			Text:    q.Text,
			Kind:    q.Kind,
			Points:  q.Points,
			Options: q.Options,
			Order:   q.Order,
		}
	}
	return &model.QuizPayload{
		QuizID:           quiz.ID,
		CourseID:         quiz.CourseID,
		Title:            quiz.Title,
		Instructions:     quiz.Instructions,
		TimeLimitMinutes: quiz.TimeLimitMinutes,
		TotalPoints:      quiz.TotalPoints,
		Questions:        questions,
	}
}

func sortQuizzesNewestFirst(quizzes []model.Quiz) {
	sort.Slice(quizzes, func(i, j int) bool {
		return quizzes[i].CreatedAt.After(quizzes[j].CreatedAt)
	})
}
