package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/practice-service/internal/models"
	"github.com/SAP-F-2025/practice-service/internal/repositories"
	"github.com/SAP-F-2025/practice-service/internal/testutil"
	"github.com/SAP-F-2025/practice-service/internal/validator"
)

func newQuestionRequest(title string) *CreateQuestionRequest {
	return &CreateQuestionRequest{
		Title:        title,
		Description:  "Describe " + title,
		Topic:        models.TopicDSA,
		Category:     "arrays",
		Difficulty:   models.DifficultyEasy,
		SolutionCode: "return 42",
		TestCases:    []models.TestCase{{Input: []int{1}, Output: 1}},
	}
}

func TestQuestionService_AdminOnlyWrites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewQuestionService(f.repo, f.db, testutil.Logger(), f.validator, nil)

	user := testutil.CreateUser(t, f.db, "alice")
	admin := f.admin(t)

	_, err := svc.Create(ctx, newQuestionRequest("Two Sum"), user.ID)
	require.Error(t, err)
	assert.True(t, IsPermissionError(err))

	q, err := svc.Create(ctx, newQuestionRequest("Two Sum"), admin.ID)
	require.NoError(t, err)
	assert.NotZero(t, q.ID)
	assert.JSONEq(t, `[{"input":[1],"output":1}]`, string(q.TestCases))

	title := "Two Sum II"
	updated, err := svc.Update(ctx, q.ID, &UpdateQuestionRequest{Title: &title}, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.Equal(t, "return 42", updated.SolutionCode)

	err = svc.Delete(ctx, q.ID, user.ID)
	assert.True(t, IsPermissionError(err))

	require.NoError(t, svc.Delete(ctx, q.ID, admin.ID))
	_, err = svc.GetByID(ctx, q.ID)
	assert.ErrorIs(t, err, ErrQuestionNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, q.ID, admin.ID), ErrQuestionNotFound)
}

func TestQuestionService_CreateValidation(t *testing.T) {
	f := newFixture(t)
	svc := NewQuestionService(f.repo, f.db, testutil.Logger(), f.validator, nil)
	admin := f.admin(t)

	req := newQuestionRequest("Bad")
	req.Category = "astrology"

	_, err := svc.Create(context.Background(), req, admin.ID)
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "category", verrs[0].Field)
}

func TestQuestionService_ListHidesSolutions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewQuestionService(f.repo, f.db, testutil.Logger(), f.validator, nil)
	admin := f.admin(t)

	_, err := svc.Create(ctx, newQuestionRequest("Two Sum"), admin.ID)
	require.NoError(t, err)
	_, err = svc.Create(ctx, newQuestionRequest("Three Sum"), admin.ID)
	require.NoError(t, err)

	list, err := svc.List(ctx, repositories.QuestionFilters{Search: "three"})
	require.NoError(t, err)
	require.Len(t, list.Questions, 1)
	assert.EqualValues(t, 1, list.Total)
	assert.Equal(t, "Three Sum", list.Questions[0].Title)
	assert.Empty(t, list.Questions[0].SolutionCode)
}

func TestQuestionService_CountsIncludeEmptyChoices(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewQuestionService(f.repo, f.db, testutil.Logger(), f.validator, nil)

	testutil.CreateQuestion(t, f.db, "Two Sum", "arrays")
	testutil.CreateQuestion(t, f.db, "Max Subarray", "arrays")
	testutil.CreateQuestion(t, f.db, "BFS", "graphs")

	byCategory, err := svc.CountByCategory(ctx)
	require.NoError(t, err)
	assert.Len(t, byCategory, len(models.Categories))
	assert.Equal(t, models.ChoiceCount{Name: "Arrays", Count: 2}, byCategory["arrays"])
	assert.Equal(t, models.ChoiceCount{Name: "Graphs", Count: 1}, byCategory["graphs"])
	assert.Equal(t, models.ChoiceCount{Name: "Math", Count: 0}, byCategory["math"])

	byDifficulty, err := svc.CountByDifficulty(ctx)
	require.NoError(t, err)
	assert.Len(t, byDifficulty, 3)
	assert.EqualValues(t, 3, byDifficulty["easy"].Count)
	assert.EqualValues(t, 0, byDifficulty["hard"].Count)
}

func TestQuizService_CreateAndRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewQuizService(f.repo, f.db, testutil.Logger(), f.validator)
	admin := f.admin(t)

	q1 := testutil.CreateQuestion(t, f.db, "Two Sum", "arrays")
	q2 := testutil.CreateQuestion(t, f.db, "BFS", "graphs")

	noLimit := 0
	quiz, err := svc.Create(ctx, &CreateQuizRequest{
		Name:        "Mock 1",
		QuizType:    models.QuizMock,
		Difficulty:  models.DifficultyMedium,
		TimeLimit:   &noLimit,
		QuestionIDs: []uint{q2.ID, q1.ID},
	}, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, quiz.TimeLimit)
	assert.True(t, quiz.IsActive)
	require.Len(t, quiz.Questions, 2)
	assert.Equal(t, q2.ID, quiz.Questions[0].QuestionID)
	assert.EqualValues(t, 2, quiz.QuestionsCount)

	got, err := svc.GetByID(ctx, quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mock 1", got.Name)

	byType, err := svc.ByType(ctx, "mock")
	require.NoError(t, err)
	require.Len(t, byType, 1)

	_, err = svc.ByType(ctx, "")
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "type", verrs[0].Field)
}

func TestQuizService_CreateRejectsUnknownQuestions(t *testing.T) {
	f := newFixture(t)
	svc := NewQuizService(f.repo, f.db, testutil.Logger(), f.validator)
	admin := f.admin(t)

	_, err := svc.Create(context.Background(), &CreateQuizRequest{
		Name:        "Broken",
		QuizType:    models.QuizPractice,
		Difficulty:  models.DifficultyEasy,
		QuestionIDs: []uint{777},
	}, admin.ID)
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "question_ids", verrs[0].Field)

	var count int64
	require.NoError(t, f.db.Model(&models.Quiz{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestQuizService_InactiveQuizzesAreHidden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewQuizService(f.repo, f.db, testutil.Logger(), f.validator)
	admin := f.admin(t)

	inactive := false
	quiz, err := svc.Create(ctx, &CreateQuizRequest{
		Name:       "Draft",
		QuizType:   models.QuizPractice,
		Difficulty: models.DifficultyEasy,
		IsActive:   &inactive,
	}, admin.ID)
	require.NoError(t, err)
	assert.False(t, quiz.IsActive)
	assert.Equal(t, DefaultTimeLimit, quiz.TimeLimit)

	_, err = svc.GetByID(ctx, quiz.ID)
	assert.ErrorIs(t, err, ErrQuizNotFound)

	list, err := svc.List(ctx, repositories.QuizFilters{})
	require.NoError(t, err)
	assert.Zero(t, list.Total)

	active := true
	_, err = svc.Update(ctx, quiz.ID, &UpdateQuizRequest{IsActive: &active}, admin.ID)
	require.NoError(t, err)

	list, err = svc.List(ctx, repositories.QuizFilters{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, list.Total)
}

func TestQuizService_DeleteDetachesSessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	quizzes := NewQuizService(f.repo, f.db, testutil.Logger(), f.validator)
	sessions := f.sessions()

	admin := f.admin(t)
	user := testutil.CreateUser(t, f.db, "alice")
	q1 := testutil.CreateQuestion(t, f.db, "Two Sum", "arrays")
	quiz := f.quiz(t, "Warmup", q1)

	session, err := sessions.Start(ctx, quiz.ID, user.ID)
	require.NoError(t, err)

	require.NoError(t, quizzes.Delete(ctx, quiz.ID, admin.ID))

	got, err := sessions.Get(ctx, session.ID, user.ID)
	require.NoError(t, err)
	assert.Nil(t, got.QuizID)
	assert.Equal(t, "Warmup", got.QuizName)
}

func TestProfileService_MeAndPreferences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewProfileService(f.repo, f.db, testutil.Logger(), f.validator)
	user := testutil.CreateUser(t, f.db, "alice")

	profile, err := svc.Me(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DifficultyMedium, profile.PreferredDifficulty)
	assert.Equal(t, models.TopicDSA, profile.PreferredTopic)
	assert.True(t, profile.NotificationEnabled)

	hard, off := models.DifficultyHard, false
	updated, err := svc.UpdatePreferences(ctx, user.ID, &UpdatePreferencesRequest{
		PreferredDifficulty: &hard,
		NotificationEnabled: &off,
	})
	require.NoError(t, err)
	assert.Equal(t, models.DifficultyHard, updated.PreferredDifficulty)

	again, err := svc.Me(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DifficultyHard, again.PreferredDifficulty)
	assert.False(t, again.NotificationEnabled)
	assert.Equal(t, profile.ID, again.ID)

	bad := models.DifficultyLevel("legendary")
	_, err = svc.UpdatePreferences(ctx, user.ID, &UpdatePreferencesRequest{PreferredDifficulty: &bad})
	assert.Error(t, err)
}
