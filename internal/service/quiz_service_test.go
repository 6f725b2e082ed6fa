package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/classbridge/assess-backend/internal/model"
	"github.com/rs/zerolog"
)

func intPtr(v int) *int { return &v }

func boolPtr(v bool) *bool { return &v }

func floatPtr(v float64) *float64 { return &v }

func strPtr(v string) *string { return &v }

func testQuestions() []model.QuestionInput {
	return []model.QuestionInput{
		{
			Text:          "What is 2+2?",
			Kind:          string(model.QuestionKindMultipleChoice),
			Points:        10,
			Options:       []string{"3", "4", "5"},
			CorrectOption: intPtr(1),
		},
		{
			Text:        "The sky is blue.",
			Kind:        string(model.QuestionKindTrueFalse),
			Points:      5,
			CorrectBool: boolPtr(true),
		},
		{
			Text:            "Capital of France?",
			Kind:            string(model.QuestionKindShortAnswer),
			Points:          5,
			AcceptedAnswers: []string{"Paris"},
		},
	}
}

func newTestQuizService() (*QuizService, *fakeQuizStore) {
	store := newFakeQuizStore()
	svc := NewQuizService(store, nil, zerolog.Nop())
	return svc, store
}

func TestCreateQuizComputesTotalPoints(t *testing.T) {
	svc, _ := newTestQuizService()

	quiz, err := svc.Create(context.Background(), "course-1", &model.CreateQuizRequest{
		Title:       "Algebra Quiz",
		MaxAttempts: 3,
		Questions:   testQuestions(),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if quiz.Status != model.QuizStatusDraft {
		t.Errorf("Status = %s, want DRAFT", quiz.Status)
	}
	if quiz.TotalPoints != 20 {
		t.Errorf("TotalPoints = %v, want 20", quiz.TotalPoints)
	}
	for i, q := range quiz.Questions {
		if q.Order != i+1 {
			t.Errorf("question %d: Order = %d, want %d", i, q.Order, i+1)
		}
		if q.ID.String() == "00000000-0000-0000-0000-000000000000" {
			t.Errorf("question %d: missing ID", i)
		}
	}
}

func TestCreateQuizRequiresCourse(t *testing.T) {
	svc, _ := newTestQuizService()

	_, err := svc.Create(context.Background(), "", &model.CreateQuizRequest{Title: "X", MaxAttempts: 1})
	if !errors.Is(err, ErrInvalidCourse) {
		t.Fatalf("err = %v, want ErrInvalidCourse", err)
	}
}

func TestGetQuizEnforcesCourseOwnership(t *testing.T) {
	svc, _ := newTestQuizService()

	quiz, err := svc.Create(context.Background(), "course-1", &model.CreateQuizRequest{
		Title:       "Algebra Quiz",
		MaxAttempts: 1,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Get(context.Background(), "course-2", quiz.ID); !errors.Is(err, ErrQuizNotFound) {
		t.Errorf("cross-course Get err = %v, want ErrQuizNotFound", err)
	}
	if _, err := svc.Get(context.Background(), "course-1", quiz.ID); err != nil {
		t.Errorf("owner Get err = %v", err)
	}
}

func TestUpdateQuizReplacesQuestionList(t *testing.T) {
	svc, _ := newTestQuizService()
	ctx := context.Background()

	quiz, err := svc.Create(ctx, "course-1", &model.CreateQuizRequest{
		Title:       "Algebra Quiz",
		MaxAttempts: 1,
		Questions:   testQuestions(),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	oldIDs := map[string]bool{}
	for _, q := range quiz.Questions {
		oldIDs[q.ID.String()] = true
	}

	replacement := []model.QuestionInput{
		{
			Text:        "Water boils at 100C at sea level.",
			Kind:        string(model.QuestionKindTrueFalse),
			Points:      7,
			CorrectBool: boolPtr(true),
		},
	}
	updated, err := svc.Update(ctx, "course-1", quiz.ID, &model.UpdateQuizRequest{
		Questions: &replacement,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	if len(updated.Questions) != 1 {
		t.Fatalf("len(Questions) = %d, want 1", len(updated.Questions))
	}
	if updated.TotalPoints != 7 {
		t.Errorf("TotalPoints = %v, want 7", updated.TotalPoints)
	}
	if oldIDs[updated.Questions[0].ID.String()] {
		t.Error("replaced question reused an old ID")
	}
}

func TestUpdateQuizPartialFieldsOnly(t *testing.T) {
	svc, _ := newTestQuizService()
	ctx := context.Background()

	quiz, err := svc.Create(ctx, "course-1", &model.CreateQuizRequest{
		Title:       "Algebra Quiz",
		MaxAttempts: 2,
		Questions:   testQuestions(),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := svc.Update(ctx, "course-1", quiz.ID, &model.UpdateQuizRequest{
		Title: strPtr("Renamed Quiz"),
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Title != "Renamed Quiz" {
		t.Errorf("Title = %q", updated.Title)
	}
	if updated.MaxAttempts != 2 {
		t.Errorf("MaxAttempts changed: %d", updated.MaxAttempts)
	}
	if len(updated.Questions) != 3 || updated.TotalPoints != 20 {
		t.Errorf("questions touched by unrelated update: len=%d total=%v", len(updated.Questions), updated.TotalPoints)
	}
}

func TestPublishRequiresDraft(t *testing.T) {
	svc, _ := newTestQuizService()
	ctx := context.Background()

	quiz, err := svc.Create(ctx, "course-1", &model.CreateQuizRequest{
		Title:       "Algebra Quiz",
		MaxAttempts: 1,
		Questions:   testQuestions(),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	published, err := svc.Publish(ctx, "course-1", quiz.ID)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if published.Status != model.QuizStatusPublished {
		t.Errorf("Status = %s, want PUBLISHED", published.Status)
	}

	if _, err := svc.Publish(ctx, "course-1", quiz.ID); !errors.Is(err, ErrQuizNotDraft) {
		t.Errorf("second Publish err = %v, want ErrQuizNotDraft", err)
	}
}

func TestCloseFromAnyStatus(t *testing.T) {
	svc, _ := newTestQuizService()
	ctx := context.Background()

	quiz, err := svc.Create(ctx, "course-1", &model.CreateQuizRequest{
		Title:       "Algebra Quiz",
		MaxAttempts: 1,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	closed, err := svc.Close(ctx, "course-1", quiz.ID)
	if err != nil {
		t.Fatalf("Close: %v", err)
	}
	if closed.Status != model.QuizStatusClosed {
		t.Errorf("Status = %s, want CLOSED", closed.Status)
	}

	// Closing an already-closed quiz stays CLOSED.
	closed, err = svc.Close(ctx, "course-1", quiz.ID)
	if err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if closed.Status != model.QuizStatusClosed {
		t.Errorf("Status after re-close = %s", closed.Status)
	}
}

func TestDeleteQuiz(t *testing.T) {
	svc, _ := newTestQuizService()
	ctx := context.Background()

	quiz, err := svc.Create(ctx, "course-1", &model.CreateQuizRequest{
		Title:       "Algebra Quiz",
		MaxAttempts: 1,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.Delete(ctx, "course-1", quiz.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(ctx, "course-1", quiz.ID); !errors.Is(err, ErrQuizNotFound) {
		t.Errorf("Get after delete err = %v, want ErrQuizNotFound", err)
	}
	if err := svc.Delete(ctx, "course-1", quiz.ID); !errors.Is(err, ErrQuizNotFound) {
		t.Errorf("second Delete err = %v, want ErrQuizNotFound", err)
	}
}

func TestListByCourseNewestFirst(t *testing.T) {
	svc, _ := newTestQuizService()
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, title := range []string{"Oldest", "Middle", "Newest"} {
		tick := base.Add(time.Duration(i) * time.Hour)
		svc.now = func() time.Time { return tick }
		if _, err := svc.Create(ctx, "course-1", &model.CreateQuizRequest{Title: title, MaxAttempts: 1}); err != nil {
			t.Fatalf("Create %s: %v", title, err)
		}
	}

	quizzes, err := svc.ListByCourse(ctx, "course-1")
	if err != nil {
		t.Fatalf("ListByCourse: %v", err)
	}
	if len(quizzes) != 3 {
		t.Fatalf("len = %d, want 3", len(quizzes))
	}
	want := []string{"Newest", "Middle", "Oldest"}
	for i, w := range want {
		if quizzes[i].Title != w {
			t.Errorf("quizzes[%d].Title = %q, want %q", i, quizzes[i].Title, w)
		}
	}
}

func TestListPublishedStripsQuestions(t *testing.T) {
	svc, _ := newTestQuizService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, "course-1", &model.CreateQuizRequest{
		Title:       "Draft Quiz",
		MaxAttempts: 1,
		Questions:   testQuestions(),
	}); err != nil {
		t.Fatalf("Create draft: %v", err)
	}

	pub, err := svc.Create(ctx, "course-1", &model.CreateQuizRequest{
		Title:       "Published Quiz",
		MaxAttempts: 1,
		Questions:   testQuestions(),
	})
	if err != nil {
		t.Fatalf("Create published: %v", err)
	}
	if _, err := svc.Publish(ctx, "course-1", pub.ID); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	quizzes, err := svc.ListPublished(ctx, "course-1")
	if err != nil {
		t.Fatalf("ListPublished: %v", err)
	}
	if len(quizzes) != 1 {
		t.Fatalf("len = %d, want 1", len(quizzes))
	}
	if quizzes[0].Title != "Published Quiz" {
		t.Errorf("Title = %q", quizzes[0].Title)
	}
	if quizzes[0].Questions != nil {
		t.Error("published listing leaked the question list")
	}
}

func TestStudentPaperStripsCorrectness(t *testing.T) {
	svc, _ := newTestQuizService()
	ctx := context.Background()

	quiz, err := svc.Create(ctx, "course-1", &model.CreateQuizRequest{
		Title:       "Algebra Quiz",
		MaxAttempts: 1,
		Questions:   testQuestions(),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Draft papers are not served.
	if _, err := svc.StudentPaper(ctx, "course-1", quiz.ID); !errors.Is(err, ErrQuizNotPublished) {
		t.Errorf("draft paper err = %v, want ErrQuizNotPublished", err)
	}

	if _, err := svc.Publish(ctx, "course-1", quiz.ID); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	paper, err := svc.StudentPaper(ctx, "course-1", quiz.ID)
	if err != nil {
		t.Fatalf("StudentPaper: %v", err)
	}
	if paper.TotalPoints != 20 {
		t.Errorf("TotalPoints = %v, want 20", paper.TotalPoints)
	}
	if len(paper.Questions) != 3 {
		t.Fatalf("len(Questions) = %d, want 3", len(paper.Questions))
	}
	// QuestionForStudent carries no correctness fields at the type
	// level; check the options survived for the MC question.
	if len(paper.Questions[0].Options) != 3 {
		t.Errorf("Options = %v", paper.Questions[0].Options)
	}

	// Paper for the wrong course is refused.
	if _, err := svc.StudentPaper(ctx, "course-2", quiz.ID); !errors.Is(err, ErrQuizNotFound) {
		t.Errorf("cross-course paper err = %v, want ErrQuizNotFound", err)
	}
}
