package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/practice-service/internal/cache"
	"github.com/SAP-F-2025/practice-service/internal/models"
	"github.com/SAP-F-2025/practice-service/internal/repositories"
	"github.com/SAP-F-2025/practice-service/internal/validator"
)

const (
	DefaultTopN = 10
	MaxTopN     = 100

	exportSheet = "Leaderboard"
)

type leaderboardService struct {
	repo   repositories.Repository
	db     *gorm.DB
	logger *slog.Logger
	cache  *cache.LeaderboardCache
	now    func() time.Time
}

func NewLeaderboardService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, cacheManager *cache.CacheManager) LeaderboardService {
	var lc *cache.LeaderboardCache
	if cacheManager != nil {
		lc = cacheManager.Leaderboard
	} else {
		lc = cache.NewLeaderboardCache(nil)
	}

	return &leaderboardService{
		repo:   repo,
		db:     db,
		logger: logger,
		cache:  lc,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func validatePeriod(period models.LeaderboardPeriod) error {
	if !period.IsValid() {
		return validator.Field("period", fmt.Sprintf("%q is not a valid choice.", period))
	}
	return nil
}

// Recompute ranks every user with a completed session inside period's window and
// upserts their rows. Users who fell out of the window keep their previous row.
func (s *leaderboardService) Recompute(ctx context.Context, period models.LeaderboardPeriod) (int, error) {
	if err := validatePeriod(period); err != nil {
		return 0, err
	}

	var since *time.Time
	if window := period.Window(); window > 0 {
		t := s.now().Add(-window)
		since = &t
	}

	var written int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		aggregates, err := s.repo.Leaderboard().Aggregate(ctx, tx, since)
		if err != nil {
			return fmt.Errorf("failed to aggregate sessions: %w", err)
		}

		entries := RankAggregates(period, aggregates)
		if len(entries) == 0 {
			return nil
		}

		if err := s.repo.Leaderboard().Upsert(ctx, tx, entries); err != nil {
			return fmt.Errorf("failed to upsert leaderboard: %w", err)
		}
		written = len(entries)
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.refreshCache(ctx, period)

	s.logger.Info("Leaderboard recomputed", "period", period, "entries", written)
	return written, nil
}

// RankAggregates orders aggregates by score descending, then user id ascending,
// and assigns sequential ranks starting at 1. Tied scores still get distinct ranks.
func RankAggregates(period models.LeaderboardPeriod, aggregates []models.LeaderboardAggregate) []*models.Leaderboard {
	sorted := make([]models.LeaderboardAggregate, len(aggregates))
	copy(sorted, aggregates)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].UserID < sorted[j].UserID
	})

	entries := make([]*models.Leaderboard, len(sorted))
	for i, a := range sorted {
		entries[i] = &models.Leaderboard{
			UserID:          a.UserID,
			Period:          period,
			Rank:            i + 1,
			Score:           a.Score,
			QuestionsSolved: a.QuestionsSolved,
			Accuracy:        a.Accuracy(),
		}
	}
	return entries
}

// RecomputeAll recomputes week, month and all_time in that order, stopping at the first failure
func (s *leaderboardService) RecomputeAll(ctx context.Context) (map[models.LeaderboardPeriod]int, error) {
	results := make(map[models.LeaderboardPeriod]int, len(models.LeaderboardPeriods))
	for _, period := range models.LeaderboardPeriods {
		n, err := s.Recompute(ctx, period)
		if err != nil {
			return results, fmt.Errorf("failed to recompute %s leaderboard: %w", period, err)
		}
		results[period] = n
	}
	return results, nil
}

// refreshCache mirrors the top MaxTopN rows of period into redis
func (s *leaderboardService) refreshCache(ctx context.Context, period models.LeaderboardPeriod) {
	entries, _, err := s.repo.Leaderboard().List(ctx, s.db, period, MaxTopN, 0)
	if err != nil {
		s.logger.Error("Failed to load leaderboard for cache", "period", period, "error", err)
		return
	}

	rows := make([]models.Leaderboard, len(entries))
	for i, e := range entries {
		rows[i] = *e
	}
	if err := s.cache.Replace(ctx, period, rows); err != nil {
		s.logger.Error("Failed to refresh leaderboard cache", "period", period, "error", err)
	}
}

func (s *leaderboardService) List(ctx context.Context, period models.LeaderboardPeriod, page models.PageParams) (*LeaderboardListResponse, error) {
	if err := validatePeriod(period); err != nil {
		return nil, err
	}

	entries, total, err := s.repo.Leaderboard().List(ctx, s.db, period, page.Limit(), page.Offset())
	if err != nil {
		return nil, fmt.Errorf("failed to list leaderboard: %w", err)
	}
	return &LeaderboardListResponse{Entries: entries, Total: total}, nil
}

// Top returns the n best ranked entries, reading the redis mirror first
func (s *leaderboardService) Top(ctx context.Context, period models.LeaderboardPeriod, n int) ([]*models.Leaderboard, error) {
	if err := validatePeriod(period); err != nil {
		return nil, err
	}
	if n <= 0 {
		n = DefaultTopN
	}
	if n > MaxTopN {
		n = MaxTopN
	}

	cached, err := s.cache.Top(ctx, period, n)
	if err == nil {
		entries := make([]*models.Leaderboard, len(cached))
		for i := range cached {
			entries[i] = &cached[i]
		}
		return entries, nil
	}
	if !errors.Is(err, cache.ErrCacheNotFound) && !errors.Is(err, cache.ErrCacheNotAvailable) {
		s.logger.Warn("Leaderboard cache read failed, using database", "period", period, "error", err)
	}

	entries, _, err := s.repo.Leaderboard().List(ctx, s.db, period, n, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list top entries: %w", err)
	}
	return entries, nil
}

// GetUserEntry reads the redis mirror first and falls back to the database for users outside it
func (s *leaderboardService) GetUserEntry(ctx context.Context, period models.LeaderboardPeriod, userID uint) (*models.Leaderboard, error) {
	if err := validatePeriod(period); err != nil {
		return nil, err
	}

	cached, err := s.cache.Entry(ctx, period, userID)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, cache.ErrCacheNotFound) && !errors.Is(err, cache.ErrCacheNotAvailable) {
		s.logger.Warn("Leaderboard cache read failed, using database", "period", period, "error", err)
	}

	entry, err := s.repo.Leaderboard().GetByUser(ctx, s.db, period, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrLeaderboardEntryNotFound
		}
		return nil, fmt.Errorf("failed to get leaderboard entry: %w", err)
	}
	return entry, nil
}

// Export writes period's full ranking as an xlsx workbook
func (s *leaderboardService) Export(ctx context.Context, period models.LeaderboardPeriod, w io.Writer) error {
	if err := validatePeriod(period); err != nil {
		return err
	}

	entries, _, err := s.repo.Leaderboard().List(ctx, s.db, period, 0, 0)
	if err != nil {
		return fmt.Errorf("failed to list leaderboard: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := []interface{}{"Rank", "Username", "Score", "Questions Solved", "Accuracy"}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, e := range entries {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{e.Rank, e.User.Username, e.Score, e.QuestionsSolved, e.Accuracy}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	s.logger.Info("Leaderboard exported", "period", period, "rows", len(entries))
	return nil
}
