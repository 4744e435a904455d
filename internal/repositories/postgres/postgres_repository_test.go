package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/practice-service/internal/models"
	"github.com/SAP-F-2025/practice-service/internal/repositories"
	"github.com/SAP-F-2025/practice-service/internal/testutil"
)

func TestLeaderboardAggregate_OrdersByScoreThenUserID(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewPostgreSQLRepository(RepositoryConfig{DB: db})
	ctx := context.Background()
	now := time.Now().UTC()

	u1 := testutil.CreateUser(t, db, "u1")
	u2 := testutil.CreateUser(t, db, "u2")
	u3 := testutil.CreateUser(t, db, "u3")

	testutil.CompletedSession(t, db, u2.ID, 30, 3, 3, now.Add(-time.Hour))
	testutil.CompletedSession(t, db, u1.ID, 20, 2, 2, now.Add(-2*time.Hour))
	testutil.CompletedSession(t, db, u1.ID, 10, 2, 1, now.Add(-10*24*time.Hour))
	testutil.CompletedSession(t, db, u3.ID, 5, 1, 0, now.Add(-time.Hour))

	rows, err := repo.Leaderboard().Aggregate(ctx, nil, nil)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	// u1 and u2 tie at 30; the lower user id wins
	assert.Equal(t, u1.ID, rows[0].UserID)
	assert.Equal(t, 30, rows[0].Score)
	assert.Equal(t, 4, rows[0].QuestionsSolved)
	assert.Equal(t, 3, rows[0].TotalCorrect)
	assert.Equal(t, u2.ID, rows[1].UserID)
	assert.Equal(t, u3.ID, rows[2].UserID)

	since := now.Add(-7 * 24 * time.Hour)
	rows, err = repo.Leaderboard().Aggregate(ctx, nil, &since)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, u2.ID, rows[0].UserID)
	assert.Equal(t, u1.ID, rows[1].UserID)
	assert.Equal(t, 20, rows[1].Score)
}

func TestLeaderboardUpsert_UpdatesInPlace(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewPostgreSQLRepository(RepositoryConfig{DB: db})
	ctx := context.Background()

	u1 := testutil.CreateUser(t, db, "u1")
	u2 := testutil.CreateUser(t, db, "u2")

	require.NoError(t, repo.Leaderboard().Upsert(ctx, nil, []*models.Leaderboard{
		{UserID: u1.ID, Period: models.PeriodWeek, Rank: 1, Score: 10},
		{UserID: u2.ID, Period: models.PeriodWeek, Rank: 2, Score: 5},
	}))
	require.NoError(t, repo.Leaderboard().Upsert(ctx, nil, []*models.Leaderboard{
		{UserID: u2.ID, Period: models.PeriodWeek, Rank: 1, Score: 50},
		{UserID: u1.ID, Period: models.PeriodWeek, Rank: 2, Score: 10},
	}))

	entries, total, err := repo.Leaderboard().List(ctx, nil, models.PeriodWeek, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, entries, 2)
	assert.Equal(t, u2.ID, entries[0].UserID)
	assert.Equal(t, 50, entries[0].Score)
	assert.Equal(t, "u2", entries[0].User.Username)

	entry, err := repo.Leaderboard().GetByUser(ctx, nil, models.PeriodWeek, u1.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, entry.Rank)

	_, err = repo.Leaderboard().GetByUser(ctx, nil, models.PeriodMonth, u1.ID)
	assert.True(t, repositories.IsNotFoundError(err))
}

func TestSessionApplyAnswer_GuardsStatusAndCapacity(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewPostgreSQLRepository(RepositoryConfig{DB: db})
	ctx := context.Background()

	user := testutil.CreateUser(t, db, "player")
	q1 := testutil.CreateQuestion(t, db, "Two Sum", "arrays")
	q2 := testutil.CreateQuestion(t, db, "Reverse", "strings")

	session := &models.QuizSession{
		UserID:         user.ID,
		QuizType:       models.QuizPractice,
		Status:         models.SessionStarted,
		TotalQuestions: 2,
		TimeStarted:    time.Now().UTC(),
	}
	require.NoError(t, repo.Session().Create(ctx, nil, session, []uint{q1.ID, q2.ID}))

	ok, err := repo.Session().HasQuestion(ctx, nil, session.ID, q2.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	applied, err := repo.Session().ApplyAnswer(ctx, nil, session.ID, repositories.AnswerOutcome{Correct: true, Score: 10})
	require.NoError(t, err)
	assert.True(t, applied)

	got, err := repo.Session().GetByID(ctx, nil, session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionInProgress, got.Status)
	assert.Equal(t, 1, got.CorrectAnswers)
	assert.Equal(t, 10, got.TotalScore)
	assert.InDelta(t, 50.0, got.Accuracy, 0.001)

	applied, err = repo.Session().ApplyAnswer(ctx, nil, session.ID, repositories.AnswerOutcome{Correct: false})
	require.NoError(t, err)
	assert.True(t, applied)

	// Full
	applied, err = repo.Session().ApplyAnswer(ctx, nil, session.ID, repositories.AnswerOutcome{Correct: true, Score: 10})
	require.NoError(t, err)
	assert.False(t, applied)

	got, err = repo.Session().GetByID(ctx, nil, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CorrectAnswers)
	assert.Equal(t, 1, got.WrongAnswers)
	assert.InDelta(t, 50.0, got.Accuracy, 0.001)

	closed, err := repo.Session().Close(ctx, nil, session.ID, repositories.SessionClose{
		Status:  models.SessionCompleted,
		EndedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.True(t, closed)

	closed, err = repo.Session().Close(ctx, nil, session.ID, repositories.SessionClose{
		Status:  models.SessionAbandoned,
		EndedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.False(t, closed)
}

func TestAnswerAggregates(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewPostgreSQLRepository(RepositoryConfig{DB: db})
	ctx := context.Background()

	user := testutil.CreateUser(t, db, "player")
	other := testutil.CreateUser(t, db, "other")
	arrays := testutil.CreateQuestion(t, db, "Two Sum", "arrays")
	trees := testutil.CreateQuestion(t, db, "Invert", "trees")

	s := testutil.CompletedSession(t, db, user.ID, 20, 4, 2, time.Now().UTC())
	testutil.AddAnswer(t, db, s.ID, arrays.ID, true)
	testutil.AddAnswer(t, db, s.ID, arrays.ID, false)
	testutil.AddAnswer(t, db, s.ID, trees.ID, true)
	testutil.AddAnswer(t, db, s.ID, trees.ID, true)

	otherSession := testutil.CompletedSession(t, db, other.ID, 10, 1, 1, time.Now().UTC())
	testutil.AddAnswer(t, db, otherSession.ID, arrays.ID, true)

	totals, err := repo.Answer().TotalsByUser(ctx, nil, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), totals.Total)
	assert.Equal(t, int64(3), totals.Correct)

	rows, err := repo.Answer().CategoryAccuracyByUser(ctx, nil, user.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, models.CategoryAccuracy{Category: "arrays", Total: 2, Correct: 1}, rows[0])
	assert.Equal(t, models.CategoryAccuracy{Category: "trees", Total: 2, Correct: 2}, rows[1])

	ids, err := repo.Session().UserIDsWithSessions(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []uint{user.ID, other.ID}, ids)
}

func TestQuestionList_FiltersAndCounts(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewPostgreSQLRepository(RepositoryConfig{DB: db})
	ctx := context.Background()

	testutil.CreateQuestion(t, db, "Two Sum", "arrays")
	testutil.CreateQuestion(t, db, "Three Sum", "arrays")
	testutil.CreateQuestion(t, db, "Palindrome", "strings")

	category := "arrays"
	list, total, err := repo.Question().List(ctx, nil, repositories.QuestionFilters{Category: &category, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, list, 2)

	list, total, err = repo.Question().List(ctx, nil, repositories.QuestionFilters{Search: "PALIN", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "Palindrome", list[0].Title)

	counts, err := repo.Question().CountByCategory(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts["arrays"])
	assert.Equal(t, int64(1), counts["strings"])

	existing, err := repo.Question().ExistingTitles(ctx, nil, []string{"Two Sum", "Missing"})
	require.NoError(t, err)
	assert.True(t, existing["Two Sum"])
	assert.False(t, existing["Missing"])
}

func TestQuizCreate_KeepsQuestionOrder(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewPostgreSQLRepository(RepositoryConfig{DB: db})
	ctx := context.Background()

	a := testutil.CreateQuestion(t, db, "A", "arrays")
	b := testutil.CreateQuestion(t, db, "B", "arrays")
	c := testutil.CreateQuestion(t, db, "C", "arrays")

	quiz := &models.Quiz{Name: "Mixed", QuizType: models.QuizPractice, TimeLimit: 30, IsActive: true}
	require.NoError(t, repo.Quiz().Create(ctx, nil, quiz, []uint{c.ID, a.ID, c.ID, b.ID}))

	ids, err := repo.Quiz().GetQuestionIDs(ctx, nil, quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{c.ID, a.ID, b.ID}, ids)

	detail, err := repo.Quiz().GetByIDWithQuestions(ctx, nil, quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), detail.QuestionsCount)
	assert.Equal(t, "C", detail.Questions[0].Question.Title)

	quizzes, total, err := repo.Quiz().List(ctx, nil, repositories.QuizFilters{ActiveOnly: true, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, int64(3), quizzes[0].QuestionsCount)
}

func TestQuizCreate_StoresZeroValues(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewPostgreSQLRepository(RepositoryConfig{DB: db})
	ctx := context.Background()

	quiz := &models.Quiz{Name: "Draft", QuizType: models.QuizTimed, TimeLimit: 0, IsActive: false}
	require.NoError(t, repo.Quiz().Create(ctx, nil, quiz, nil))
	assert.Equal(t, 0, quiz.TimeLimit)
	assert.False(t, quiz.IsActive)

	var stored models.Quiz
	require.NoError(t, db.First(&stored, quiz.ID).Error)
	assert.Equal(t, 0, stored.TimeLimit)
	assert.False(t, stored.IsActive)

	_, total, err := repo.Quiz().List(ctx, nil, repositories.QuizFilters{ActiveOnly: true})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestProfileGetOrCreate_IsIdempotent(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewPostgreSQLRepository(RepositoryConfig{DB: db})
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "player")

	first, err := repo.Profile().GetOrCreate(ctx, nil, user.ID)
	require.NoError(t, err)
	second, err := repo.Profile().GetOrCreate(ctx, nil, user.ID)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, models.DifficultyMedium, second.PreferredDifficulty)
	assert.True(t, second.NotificationEnabled)
	assert.JSONEq(t, "{}", string(second.WeakAreas))
}

func TestMaintenancePurge_KeepsCatalog(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewPostgreSQLRepository(RepositoryConfig{DB: db})
	ctx := context.Background()

	user := testutil.CreateUser(t, db, "player")
	q := testutil.CreateQuestion(t, db, "Two Sum", "arrays")
	s := testutil.CompletedSession(t, db, user.ID, 10, 1, 1, time.Now().UTC())
	testutil.AddAnswer(t, db, s.ID, q.ID, true)
	_, err := repo.Profile().GetOrCreate(ctx, nil, user.ID)
	require.NoError(t, err)

	before, err := repo.Maintenance().CountUserData(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), before.Users)
	assert.Equal(t, int64(1), before.Answers)

	deleted, err := repo.Maintenance().PurgeUserData(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted.Sessions)
	assert.Equal(t, int64(1), deleted.Profiles)

	after, err := repo.Maintenance().CountUserData(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, repositories.UserDataCounts{}, *after)

	var questions int64
	require.NoError(t, db.Model(&models.Question{}).Count(&questions).Error)
	assert.Equal(t, int64(1), questions)
}
