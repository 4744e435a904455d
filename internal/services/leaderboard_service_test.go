package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/practice-service/internal/cache"
	"github.com/SAP-F-2025/practice-service/internal/models"
	"github.com/SAP-F-2025/practice-service/internal/testutil"
	"github.com/SAP-F-2025/practice-service/internal/validator"
)

func TestLeaderboardService_WeeklyRanking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewLeaderboardService(f.repo, f.db, testutil.Logger(), nil)
	now := time.Now().UTC()

	a := testutil.CreateUser(t, f.db, "user_a")
	b := testutil.CreateUser(t, f.db, "user_b")

	testutil.CompletedSession(t, f.db, a.ID, 30, 5, 4, now.Add(-24*time.Hour))
	testutil.CompletedSession(t, f.db, a.ID, 20, 5, 4, now.Add(-48*time.Hour))
	testutil.CompletedSession(t, f.db, b.ID, 60, 6, 6, now.Add(-time.Hour))

	n, err := svc.Recompute(ctx, models.PeriodWeek)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	list, err := svc.List(ctx, models.PeriodWeek, models.PageParams{})
	require.NoError(t, err)
	require.Len(t, list.Entries, 2)
	assert.EqualValues(t, 2, list.Total)

	first, second := list.Entries[0], list.Entries[1]
	assert.Equal(t, b.ID, first.UserID)
	assert.Equal(t, 1, first.Rank)
	assert.Equal(t, 60, first.Score)
	assert.InDelta(t, 100.0, first.Accuracy, 0.001)

	assert.Equal(t, a.ID, second.UserID)
	assert.Equal(t, 2, second.Rank)
	assert.Equal(t, 50, second.Score)
	assert.Equal(t, 10, second.QuestionsSolved)
	assert.InDelta(t, 80.0, second.Accuracy, 0.001)
	assert.Equal(t, "user_a", second.User.Username)
}

func TestLeaderboardService_WindowAndStaleRows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewLeaderboardService(f.repo, f.db, testutil.Logger(), nil)
	now := time.Now().UTC()

	recent := testutil.CreateUser(t, f.db, "recent")
	old := testutil.CreateUser(t, f.db, "old")
	testutil.CompletedSession(t, f.db, recent.ID, 10, 1, 1, now.Add(-time.Hour))
	testutil.CompletedSession(t, f.db, old.ID, 90, 9, 9, now.Add(-20*24*time.Hour))

	results, err := svc.RecomputeAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[models.LeaderboardPeriod]int{
		models.PeriodWeek:    1,
		models.PeriodMonth:   2,
		models.PeriodAllTime: 2,
	}, results)

	entry, err := svc.GetUserEntry(ctx, models.PeriodWeek, old.ID)
	assert.ErrorIs(t, err, ErrLeaderboardEntryNotFound)
	assert.Nil(t, entry)

	entry, err = svc.GetUserEntry(ctx, models.PeriodMonth, old.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, entry.Rank)

	// Moving the only recent session out of the week window leaves its row in place
	require.NoError(t, f.db.Model(&models.QuizSession{}).
		Where("user_id = ?", recent.ID).
		Update("time_ended", now.Add(-10*24*time.Hour)).Error)

	n, err := svc.Recompute(ctx, models.PeriodWeek)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	entry, err = svc.GetUserEntry(ctx, models.PeriodWeek, recent.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, entry.Rank)
}

func TestLeaderboardService_InvalidPeriod(t *testing.T) {
	f := newFixture(t)
	svc := NewLeaderboardService(f.repo, f.db, testutil.Logger(), nil)

	_, err := svc.Recompute(context.Background(), "year")
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "period", verrs[0].Field)
}

func TestRankAggregates_DenseAndTieBroken(t *testing.T) {
	entries := RankAggregates(models.PeriodAllTime, []models.LeaderboardAggregate{
		{UserID: 7, Score: 40, QuestionsSolved: 4, TotalCorrect: 4},
		{UserID: 3, Score: 40, QuestionsSolved: 5, TotalCorrect: 2},
		{UserID: 9, Score: 90, QuestionsSolved: 9, TotalCorrect: 9},
		{UserID: 1, Score: 0, QuestionsSolved: 0, TotalCorrect: 0},
	})

	require.Len(t, entries, 4)
	wantUsers := []uint{9, 3, 7, 1}
	for i, e := range entries {
		assert.Equal(t, i+1, e.Rank)
		assert.Equal(t, wantUsers[i], e.UserID)
		assert.Equal(t, models.PeriodAllTime, e.Period)
	}
	assert.InDelta(t, 40.0, entries[1].Accuracy, 0.001)
	assert.Equal(t, 0.0, entries[3].Accuracy)
}

func TestLeaderboardService_TopUsesCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	svc := NewLeaderboardService(f.repo, f.db, testutil.Logger(), cache.NewCacheManager(client))
	now := time.Now().UTC()

	var last *models.User
	for i, name := range []string{"u1", "u2", "u3"} {
		last = testutil.CreateUser(t, f.db, name)
		testutil.CompletedSession(t, f.db, last.ID, (i+1)*10, 2, 1, now.Add(-time.Hour))
	}

	_, err := svc.Recompute(ctx, models.PeriodAllTime)
	require.NoError(t, err)
	assert.True(t, mr.Exists("leaderboard:all_time:rank"))

	// Rows removed from the database are still served from redis
	require.NoError(t, f.db.Where("1 = 1").Delete(&models.Leaderboard{}).Error)

	top, err := svc.Top(ctx, models.PeriodAllTime, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "u3", top[0].User.Username)
	assert.Equal(t, 1, top[0].Rank)
	assert.Equal(t, 2, top[1].Rank)

	entry, err := svc.GetUserEntry(ctx, models.PeriodAllTime, last.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, entry.Rank)
	assert.Equal(t, 30, entry.Score)

	mr.FlushAll()
	top, err = svc.Top(ctx, models.PeriodAllTime, 0)
	require.NoError(t, err)
	assert.Empty(t, top)

	_, err = svc.GetUserEntry(ctx, models.PeriodAllTime, last.ID)
	assert.ErrorIs(t, err, ErrLeaderboardEntryNotFound)
}

func TestLeaderboardService_TopFallsBackToDatabase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewLeaderboardService(f.repo, f.db, testutil.Logger(), nil)

	u := testutil.CreateUser(t, f.db, "solo")
	testutil.CompletedSession(t, f.db, u.ID, 10, 1, 1, time.Now().UTC())

	_, err := svc.Recompute(ctx, models.PeriodAllTime)
	require.NoError(t, err)

	top, err := svc.Top(ctx, models.PeriodAllTime, 500)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, u.ID, top[0].UserID)
}

func TestLeaderboardService_Export(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewLeaderboardService(f.repo, f.db, testutil.Logger(), nil)

	u := testutil.CreateUser(t, f.db, "solo")
	testutil.CompletedSession(t, f.db, u.ID, 10, 2, 1, time.Now().UTC())
	_, err := svc.Recompute(ctx, models.PeriodAllTime)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, svc.Export(ctx, models.PeriodAllTime, &buf))

	wb, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer wb.Close()

	rows, err := wb.GetRows("Leaderboard")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Rank", "Username", "Score", "Questions Solved", "Accuracy"}, rows[0])
	assert.Equal(t, "1", rows[1][0])
	assert.Equal(t, "solo", rows[1][1])
	assert.Equal(t, "10", rows[1][2])
	assert.Equal(t, "50", rows[1][4])
}
