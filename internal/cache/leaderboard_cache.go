package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/SAP-F-2025/practice-service/internal/models"
)

// LeaderboardCache mirrors each period's ranking into a redis sorted set scored by rank,
// with entry payloads in a companion hash. The set is rebuilt wholesale after every recompute.
type LeaderboardCache struct {
	client *redis.Client
	config CacheConfig
}

func NewLeaderboardCache(client *redis.Client) *LeaderboardCache {
	return &LeaderboardCache{client: client, config: LeaderboardCacheConfig}
}

type cachedEntry struct {
	ID              uint    `json:"id"`
	UserID          uint    `json:"user_id"`
	Username        string  `json:"username"`
	FirstName       string  `json:"first_name"`
	LastName        string  `json:"last_name"`
	Rank            int     `json:"rank"`
	Score           int     `json:"score"`
	QuestionsSolved int     `json:"questions_solved"`
	Accuracy        float64 `json:"accuracy"`
}

func (lc *LeaderboardCache) rankKey(period models.LeaderboardPeriod) string {
	return fmt.Sprintf("%s%s:rank", lc.config.Prefix, period)
}

func (lc *LeaderboardCache) entryKey(period models.LeaderboardPeriod) string {
	return fmt.Sprintf("%s%s:entries", lc.config.Prefix, period)
}

// Replace swaps the cached ranking for period with entries in one MULTI block
func (lc *LeaderboardCache) Replace(ctx context.Context, period models.LeaderboardPeriod, entries []models.Leaderboard) error {
	if lc.client == nil {
		return nil
	}

	rankKey, entryKey := lc.rankKey(period), lc.entryKey(period)
	_, err := lc.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, rankKey, entryKey)
		if len(entries) == 0 {
			return nil
		}

		members := make([]redis.Z, 0, len(entries))
		fields := make(map[string]interface{}, len(entries))
		for _, e := range entries {
			member := strconv.FormatUint(uint64(e.UserID), 10)
			payload, err := json.Marshal(cachedEntry{
				ID:              e.ID,
				UserID:          e.UserID,
				Username:        e.User.Username,
				FirstName:       e.User.FirstName,
				LastName:        e.User.LastName,
				Rank:            e.Rank,
				Score:           e.Score,
				QuestionsSolved: e.QuestionsSolved,
				Accuracy:        e.Accuracy,
			})
			if err != nil {
				return fmt.Errorf("cache marshal error: %w", err)
			}
			members = append(members, redis.Z{Score: float64(e.Rank), Member: member})
			fields[member] = payload
		}

		pipe.ZAdd(ctx, rankKey, members...)
		pipe.HSet(ctx, entryKey, fields)
		pipe.Expire(ctx, rankKey, lc.config.TTL)
		pipe.Expire(ctx, entryKey, lc.config.TTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to replace leaderboard cache: %w", err)
	}
	return nil
}

// Top returns the first n ranked entries. ErrCacheNotFound means the period was never cached.
func (lc *LeaderboardCache) Top(ctx context.Context, period models.LeaderboardPeriod, n int) ([]models.Leaderboard, error) {
	if lc.client == nil {
		return nil, ErrCacheNotAvailable
	}

	members, err := lc.client.ZRange(ctx, lc.rankKey(period), 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("cache zrange error: %w", err)
	}
	if len(members) == 0 {
		return nil, ErrCacheNotFound
	}

	payloads, err := lc.client.HMGet(ctx, lc.entryKey(period), members...).Result()
	if err != nil {
		return nil, fmt.Errorf("cache hmget error: %w", err)
	}

	entries := make([]models.Leaderboard, 0, len(payloads))
	for _, p := range payloads {
		s, ok := p.(string)
		if !ok {
			// Hash and set drifted apart; let the caller fall back to the database
			return nil, ErrCacheNotFound
		}
		entry, err := decodeEntry(period, s)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func decodeEntry(period models.LeaderboardPeriod, payload string) (models.Leaderboard, error) {
	var ce cachedEntry
	if err := json.Unmarshal([]byte(payload), &ce); err != nil {
		return models.Leaderboard{}, fmt.Errorf("cache unmarshal error: %w", err)
	}
	return models.Leaderboard{
		ID:              ce.ID,
		UserID:          ce.UserID,
		Period:          period,
		Rank:            ce.Rank,
		Score:           ce.Score,
		QuestionsSolved: ce.QuestionsSolved,
		Accuracy:        ce.Accuracy,
		User: models.User{
			ID:        ce.UserID,
			Username:  ce.Username,
			FirstName: ce.FirstName,
			LastName:  ce.LastName,
		},
	}, nil
}

// Entry returns userID's cached row. Only the top of each period is mirrored,
// so ErrCacheNotFound is expected for everyone below it.
func (lc *LeaderboardCache) Entry(ctx context.Context, period models.LeaderboardPeriod, userID uint) (*models.Leaderboard, error) {
	if lc.client == nil {
		return nil, ErrCacheNotAvailable
	}

	payload, err := lc.client.HGet(ctx, lc.entryKey(period), strconv.FormatUint(uint64(userID), 10)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("cache hget error: %w", err)
	}

	entry, err := decodeEntry(period, payload)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}
