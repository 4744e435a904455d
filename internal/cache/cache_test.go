package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/practice-service/internal/models"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestCacheHelper_SetGetDelete(t *testing.T) {
	_, client := setupRedis(t)
	helper := NewCacheHelper(client, "test:")
	ctx := context.Background()

	require.NoError(t, helper.Set(ctx, "a", payload{Name: "x", Count: 2}, time.Minute))

	var got payload
	require.NoError(t, helper.Get(ctx, "a", &got))
	assert.Equal(t, payload{Name: "x", Count: 2}, got)

	exists, err := helper.Exists(ctx, "a")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, helper.Delete(ctx, "a"))
	assert.ErrorIs(t, helper.Get(ctx, "a", &got), ErrCacheNotFound)
}

func TestCacheHelper_InvalidatePattern(t *testing.T) {
	mr, client := setupRedis(t)
	helper := NewCacheHelper(client, "stats:")
	ctx := context.Background()

	for _, k := range []string{"questions:by_category", "questions:by_difficulty", "other"} {
		require.NoError(t, helper.Set(ctx, k, 1, time.Minute))
	}

	require.NoError(t, helper.InvalidatePattern(ctx, "questions:*"))

	assert.False(t, mr.Exists("stats:questions:by_category"))
	assert.False(t, mr.Exists("stats:questions:by_difficulty"))
	assert.True(t, mr.Exists("stats:other"))
}

func TestCacheHelper_NilClientIsNoop(t *testing.T) {
	helper := NewCacheHelper(nil, "q:")
	ctx := context.Background()

	assert.False(t, helper.Available())
	assert.NoError(t, helper.Set(ctx, "a", 1, time.Minute))
	assert.NoError(t, helper.Delete(ctx, "a"))
	assert.NoError(t, helper.InvalidatePattern(ctx, "*"))

	var v int
	assert.ErrorIs(t, helper.Get(ctx, "a", &v), ErrCacheNotAvailable)
}

func TestCacheHelper_CacheOrExecute(t *testing.T) {
	_, client := setupRedis(t)
	helper := NewCacheHelper(client, "q:")
	ctx := context.Background()

	calls := 0
	fetch := func() (interface{}, error) {
		calls++
		return payload{Name: "fetched", Count: calls}, nil
	}

	var first payload
	require.NoError(t, helper.CacheOrExecute(ctx, "k", &first, time.Minute, fetch))
	assert.Equal(t, "fetched", first.Name)

	// The store is asynchronous
	require.Eventually(t, func() bool {
		ok, _ := helper.Exists(ctx, "k")
		return ok
	}, time.Second, 10*time.Millisecond)

	var second payload
	require.NoError(t, helper.CacheOrExecute(ctx, "k", &second, time.Minute, fetch))
	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
}

func TestLeaderboardCache_ReplaceTopEntry(t *testing.T) {
	_, client := setupRedis(t)
	lc := NewLeaderboardCache(client)
	ctx := context.Background()

	_, err := lc.Top(ctx, models.PeriodWeek, 10)
	assert.ErrorIs(t, err, ErrCacheNotFound)

	entries := []models.Leaderboard{
		{ID: 1, UserID: 5, Period: models.PeriodWeek, Rank: 1, Score: 30, QuestionsSolved: 3, Accuracy: 100, User: models.User{ID: 5, Username: "alice"}},
		{ID: 2, UserID: 2, Period: models.PeriodWeek, Rank: 2, Score: 20, QuestionsSolved: 4, Accuracy: 50, User: models.User{ID: 2, Username: "bob"}},
		{ID: 3, UserID: 9, Period: models.PeriodWeek, Rank: 3, Score: 10, QuestionsSolved: 1, Accuracy: 100, User: models.User{ID: 9, Username: "carol"}},
	}
	require.NoError(t, lc.Replace(ctx, models.PeriodWeek, entries))

	top, err := lc.Top(ctx, models.PeriodWeek, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, uint(5), top[0].UserID)
	assert.Equal(t, "alice", top[0].User.Username)
	assert.Equal(t, 1, top[0].Rank)
	assert.Equal(t, uint(2), top[1].UserID)

	entry, err := lc.Entry(ctx, models.PeriodWeek, 9)
	require.NoError(t, err)
	assert.Equal(t, 3, entry.Rank)
	assert.Equal(t, "carol", entry.User.Username)
	assert.Equal(t, models.PeriodWeek, entry.Period)

	_, err = lc.Entry(ctx, models.PeriodWeek, 100)
	assert.ErrorIs(t, err, ErrCacheNotFound)

	_, err = NewLeaderboardCache(nil).Entry(ctx, models.PeriodWeek, 9)
	assert.ErrorIs(t, err, ErrCacheNotAvailable)

	// A smaller ranking fully replaces the previous one
	require.NoError(t, lc.Replace(ctx, models.PeriodWeek, entries[2:]))
	top, err = lc.Top(ctx, models.PeriodWeek, 10)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, uint(9), top[0].UserID)

	// Other periods are independent
	_, err = lc.Top(ctx, models.PeriodMonth, 10)
	assert.ErrorIs(t, err, ErrCacheNotFound)
}

func TestCacheManager_HealthCheck(t *testing.T) {
	_, client := setupRedis(t)
	assert.NoError(t, NewCacheManager(client).HealthCheck(context.Background()))
	assert.ErrorIs(t, NewCacheManager(nil).HealthCheck(context.Background()), ErrCacheNotAvailable)
}
