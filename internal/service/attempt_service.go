package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/classbridge/assess-backend/internal/config"
	"github.com/classbridge/assess-backend/internal/lock"
	"github.com/classbridge/assess-backend/internal/model"
	"github.com/classbridge/assess-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Domain Errors
var (
	ErrNotAvailableYet      = errors.New("quiz is not available yet")
	ErrNoLongerAvailable    = errors.New("quiz is no longer available")
	ErrAttemptLimitExceeded = errors.New("attempt limit exceeded")
	ErrAttemptNotFound      = errors.New("attempt not found")
	ErrAlreadySubmitted     = errors.New("attempt is already submitted")
)

// AttemptService runs the attempt state machine: start, synchronous
// auto-grading on submit, and quiz statistics. Per-(course,quiz,
// student) mutations are serialized through a keyed lock, since the
// attempt-count check and the attempt write are separate store calls.
type AttemptService struct {
	attempts AttemptStore
	quizzes  QuizStore
	locks    *lock.Keyed
	rdb      *redis.Client
	log      zerolog.Logger
	now      func() time.Time
}

// NewAttemptService creates a new AttemptService. rdb may be nil, in
// which case submission events are not published.
func NewAttemptService(attempts AttemptStore, quizzes QuizStore, rdb *redis.Client, log zerolog.Logger) *AttemptService {
	return &AttemptService{
		attempts: attempts,
		quizzes:  quizzes,
		locks:    lock.NewKeyed(),
		rdb:      rdb,
		log:      log.With().Str("component", "attempt_service").Logger(),
		now:      time.Now,
	}
}

func attemptKey(courseID string, quizID uuid.UUID, studentID string) string {
	return "attempt:" + courseID + ":" + quizID.String() + ":" + studentID
}

// Start creates a new attempt for the student. The quiz must be
// PUBLISHED and the current time inside its availability window; both
// gates are checked independently. The attempt number is the count of
// the student's prior attempts plus one, capped at max attempts.
func (s *AttemptService) Start(ctx context.Context, courseID string, quizID uuid.UUID, studentID string) (*model.QuizAttempt, error) {
	unlock := s.locks.Lock(attemptKey(courseID, quizID, studentID))
	defer unlock()

	quiz, err := s.getQuiz(ctx, courseID, quizID)
	if err != nil {
		return nil, err
	}
	if quiz.Status != model.QuizStatusPublished {
		return nil, ErrQuizNotPublished
	}

	now := s.now()
	if quiz.AvailableFrom != nil && now.Before(*quiz.AvailableFrom) {
		return nil, ErrNotAvailableYet
	}
	if quiz.AvailableUntil != nil && now.After(*quiz.AvailableUntil) {
		return nil, ErrNoLongerAvailable
	}

	prior, err := s.listForStudent(ctx, quizID, studentID)
	if err != nil {
		return nil, err
	}
	if quiz.MaxAttempts > 0 && len(prior) >= quiz.MaxAttempts {
		return nil, ErrAttemptLimitExceeded
	}

	attempt := &model.QuizAttempt{
		ID:            uuid.New(),
		CourseID:      courseID,
		QuizID:        quizID,
		StudentID:     studentID,
		AttemptNumber: len(prior) + 1,
		StartedAt:     now,
		Answers:       map[string]model.GradedAnswer{},
		MaxScore:      quiz.TotalPoints,
	}
	if err := s.attempts.Create(ctx, attempt); err != nil {
		return nil, fmt.Errorf("create attempt: %w", err)
	}

	s.log.Info().
		Str("attempt_id", attempt.ID.String()).
		Str("quiz_id", quizID.String()).
		Str("student_id", studentID).
		Int("attempt_number", attempt.AttemptNumber).
		Msg("Attempt started")
	return attempt, nil
}

// Submit grades the attempt against the quiz's current question list
// and marks it submitted. A submitted attempt is never re-graded
// through this path. After the write, the quiz's running aggregates
// are recomputed by a full re-scan of submitted attempts.
func (s *AttemptService) Submit(ctx context.Context, courseID string, quizID uuid.UUID, attemptID uuid.UUID, studentID string, answers map[string]model.AnswerInput) (*model.QuizAttempt, error) {
	unlock := s.locks.Lock(attemptKey(courseID, quizID, studentID))
	defer unlock()

	attempt, err := s.attempts.GetByID(ctx, attemptID)
	if err != nil {
		if repository.IsNoRows(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("get attempt: %w", err)
	}
	if attempt.CourseID != courseID || attempt.QuizID != quizID || attempt.StudentID != studentID {
		return nil, ErrAttemptNotFound
	}
	if attempt.IsSubmitted {
		return nil, ErrAlreadySubmitted
	}

	quiz, err := s.getQuiz(ctx, courseID, quizID)
	if err != nil {
		return nil, err
	}

	// Every question of the quiz is graded, not just the answers
	// supplied: an unanswered question counts as incorrect.
	graded := make(map[string]model.GradedAnswer, len(quiz.Questions))
	score := 0.0
	for _, q := range quiz.Questions {
		in, ok := answers[q.ID.String()]
		ga := gradeQuestion(&q, in, ok)
		graded[q.ID.String()] = ga
		score += ga.PointsEarned
	}

	now := s.now()
	attempt.Answers = graded
	attempt.Score = score
	attempt.MaxScore = quiz.TotalPoints
	attempt.Percentage = percentageOf(score, quiz.TotalPoints)
	if quiz.PassingScore != nil {
		passed := attempt.Percentage >= *quiz.PassingScore
		attempt.Passed = &passed
	}
	attempt.IsSubmitted = true
	attempt.SubmittedAt = &now
	attempt.ElapsedMinutes = int(math.Round(now.Sub(attempt.StartedAt).Minutes()))

	if err := s.attempts.Update(ctx, attempt); err != nil {
		return nil, fmt.Errorf("update attempt: %w", err)
	}

	if err := s.recomputeQuizAggregates(ctx, quiz); err != nil {
		s.log.Warn().Err(err).Str("quiz_id", quizID.String()).Msg("Aggregate recompute failed")
	}
	s.publishSubmission(ctx, quiz, attempt)

	s.log.Info().
		Str("attempt_id", attempt.ID.String()).
		Float64("score", attempt.Score).
		Float64("percentage", attempt.Percentage).
		Msg("Attempt submitted")
	return redactForStudent(attempt, quiz.ShowCorrectAnswers), nil
}

// ListForStudent returns one student's attempts for a quiz, ordered
// by attempt number. Answer detail follows the quiz's
// show_correct_answers setting.
func (s *AttemptService) ListForStudent(ctx context.Context, courseID string, quizID uuid.UUID, studentID string) ([]model.QuizAttempt, error) {
	quiz, err := s.getQuiz(ctx, courseID, quizID)
	if err != nil {
		return nil, err
	}
	attempts, err := s.listForStudent(ctx, quizID, studentID)
	if err != nil {
		return nil, err
	}
	sort.Slice(attempts, func(i, j int) bool {
		return attempts[i].AttemptNumber < attempts[j].AttemptNumber
	})
	if !quiz.ShowCorrectAnswers {
		for i := range attempts {
			attempts[i].Answers = nil
		}
	}
	return attempts, nil
}

// ListAll returns every attempt of a quiz, newest start first.
func (s *AttemptService) ListAll(ctx context.Context, courseID string, quizID uuid.UUID) ([]model.QuizAttempt, error) {
	if _, err := s.getQuiz(ctx, courseID, quizID); err != nil {
		return nil, err
	}
	attempts, err := s.attempts.ListByQuiz(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	sort.Slice(attempts, func(i, j int) bool {
		return attempts[i].StartedAt.After(attempts[j].StartedAt)
	})
	if attempts == nil {
		attempts = []model.QuizAttempt{}
	}
	return attempts, nil
}

// Statistics summarizes a quiz's submitted attempts: the numeric
// summary and pass rate run over each student's best attempt, while
// question accuracy covers all submitted attempts.
func (s *AttemptService) Statistics(ctx context.Context, courseID string, quizID uuid.UUID) (*model.QuizStatistics, error) {
	quiz, err := s.getQuiz(ctx, courseID, quizID)
	if err != nil {
		return nil, err
	}

	all, err := s.attempts.ListByQuiz(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}

	var submitted []model.QuizAttempt
	for _, a := range all {
		if a.IsSubmitted {
			submitted = append(submitted, a)
		}
	}

	stats := &model.QuizStatistics{QuizID: quizID}
	if len(submitted) == 0 {
		return stats, nil
	}

	best := make(map[string]model.QuizAttempt, len(submitted))
	for _, a := range submitted {
		if prev, ok := best[a.StudentID]; !ok || a.Score > prev.Score {
			best[a.StudentID] = a
		}
	}

	scores := make([]float64, 0, len(best))
	passedCount := 0
	for _, a := range best {
		scores = append(scores, a.Score)
		if a.Passed != nil && *a.Passed {
			passedCount++
		}
	}

	sum := summarize(scores)
	stats.HasData = true
	stats.SubmittedAttempts = len(submitted)
	stats.UniqueStudents = len(best)
	stats.Mean = sum.Mean
	stats.Median = sum.Median
	stats.Min = sum.Min
	stats.Max = sum.Max
	stats.StdDev = sum.StdDev
	if quiz.PassingScore != nil {
		rate := float64(passedCount) / float64(len(best)) * 100
		stats.PassRate = &rate
	}
	stats.Questions = questionAccuracy(submitted)
	return stats, nil
}

// ────────────────────────────────────────────────────────────────────
// Grading
// ────────────────────────────────────────────────────────────────────

// gradeQuestion grades one question, snapshotting the question's
// defining fields onto the result. answered is false when the submit
// payload had no entry for the question.
func gradeQuestion(q *model.QuizQuestion, in model.AnswerInput, answered bool) model.GradedAnswer {
	ga := model.GradedAnswer{
		QuestionID:     q.ID,
		QuestionText:   q.Text,
		Kind:           q.Kind,
		PointsPossible: q.Points,
	}
	if !answered {
		return ga
	}

	switch q.Kind {
	case model.QuestionKindMultipleChoice:
		ga.SelectedOption = in.SelectedOption
		ga.Answered = in.SelectedOption != nil
		if ga.Answered && q.CorrectOption != nil {
			ga.Correct = *in.SelectedOption == *q.CorrectOption
		}
	case model.QuestionKindTrueFalse:
		ga.SelectedBool = in.SelectedBool
		ga.Answered = in.SelectedBool != nil
		if ga.Answered && q.CorrectBool != nil {
			ga.Correct = *in.SelectedBool == *q.CorrectBool
		}
	case model.QuestionKindShortAnswer:
		ga.Answered = in.TextAnswer != nil
		if ga.Answered {
			ga.TextAnswer = *in.TextAnswer
			submitted := normalizeAnswer(*in.TextAnswer, q.CaseSensitive)
			for _, accepted := range q.AcceptedAnswers {
				if submitted == normalizeAnswer(accepted, q.CaseSensitive) {
					ga.Correct = true
					break
				}
			}
		}
	}

	if ga.Correct {
		ga.PointsEarned = q.Points
	}
	return ga
}

// redactForStudent drops the per-question grading detail when the quiz
// does not reveal correct answers, leaving only the score line. The
// stored attempt keeps the full grading either way.
func redactForStudent(attempt *model.QuizAttempt, showAnswers bool) *model.QuizAttempt {
	if showAnswers {
		return attempt
	}
	out := *attempt
	out.Answers = nil
	return &out
}

// normalizeAnswer trims whitespace and, unless the question is case
// sensitive, lowercases the string.
func normalizeAnswer(s string, caseSensitive bool) string {
	s = strings.TrimSpace(s)
	if !caseSensitive {
		s = strings.ToLower(s)
	}
	return s
}

// questionAccuracy aggregates correct/attempted per question across
// all submitted attempts, keyed by the snapshotted question identity.
func questionAccuracy(attempts []model.QuizAttempt) []model.QuestionAccuracy {
	byID := make(map[uuid.UUID]*model.QuestionAccuracy)
	for _, a := range attempts {
		for _, ga := range a.Answers {
			qa, ok := byID[ga.QuestionID]
			if !ok {
				qa = &model.QuestionAccuracy{
					QuestionID:   ga.QuestionID,
					QuestionText: ga.QuestionText,
				}
				byID[ga.QuestionID] = qa
			}
			if ga.Answered {
				qa.Attempted++
				if ga.Correct {
					qa.Correct++
				}
			}
		}
	}

	out := make([]model.QuestionAccuracy, 0, len(byID))
	for _, qa := range byID {
		if qa.Attempted > 0 {
			qa.Accuracy = float64(qa.Correct) / float64(qa.Attempted) * 100
		}
		out = append(out, *qa)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].QuestionText != out[j].QuestionText {
			return out[i].QuestionText < out[j].QuestionText
		}
		return out[i].QuestionID.String() < out[j].QuestionID.String()
	})
	return out
}

// ────────────────────────────────────────────────────────────────────
// Internals
// ────────────────────────────────────────────────────────────────────

func (s *AttemptService) getQuiz(ctx context.Context, courseID string, quizID uuid.UUID) (*model.Quiz, error) {
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

func (s *AttemptService) listForStudent(ctx context.Context, quizID uuid.UUID, studentID string) ([]model.QuizAttempt, error) {
	all, err := s.attempts.ListByQuiz(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	mine := make([]model.QuizAttempt, 0, len(all))
	for _, a := range all {
		if a.StudentID == studentID {
			mine = append(mine, a)
		}
	}
	return mine, nil
}

// recomputeQuizAggregates re-derives total_attempts and average_score
// from all submitted attempts. The full re-scan, not an incremental
// counter, is the source of truth.
func (s *AttemptService) recomputeQuizAggregates(ctx context.Context, quiz *model.Quiz) error {
	all, err := s.attempts.ListByQuiz(ctx, quiz.ID)
	if err != nil {
		return fmt.Errorf("list attempts: %w", err)
	}

	count := 0
	sum := 0.0
	for _, a := range all {
		if a.IsSubmitted {
			count++
			sum += a.Score
		}
	}

	quiz.TotalAttempts = count
	quiz.AverageScore = 0
	if count > 0 {
		quiz.AverageScore = sum / float64(count)
	}
	quiz.UpdatedAt = s.now()

	if err := s.quizzes.Update(ctx, quiz); err != nil {
		return fmt.Errorf("update quiz: %w", err)
	}
	return nil
}

// publishSubmission emits the submission event on the course monitor
// channel. Best effort: a publish failure never fails the submit.
func (s *AttemptService) publishSubmission(ctx context.Context, quiz *model.Quiz, attempt *model.QuizAttempt) {
	if s.rdb == nil {
		return
	}
	event := model.SubmissionEvent{
		CourseID:      attempt.CourseID,
		QuizID:        quiz.ID,
		QuizTitle:     quiz.Title,
		StudentID:     attempt.StudentID,
		AttemptID:     attempt.ID,
		AttemptNumber: attempt.AttemptNumber,
		Score:         attempt.Score,
		Percentage:    attempt.Percentage,
		SubmittedAt:   *attempt.SubmittedAt,
	}
	raw, err := json.Marshal(event)
	if err != nil {
		return
	}
	channel := config.CacheKey.CourseMonitorChannel(attempt.CourseID)
	if err := s.rdb.Publish(ctx, channel, raw).Err(); err != nil {
		s.log.Warn().Err(err).Str("channel", channel).Msg("Submission event publish failed")
	}
}
