package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/practice-service/internal/models"
)

// LeaderboardRepository interface for ranking rows
type LeaderboardRepository interface {
	// Aggregate sums completed sessions ended at or after since (all when nil) per user,
	// ordered by score descending then user id ascending
	Aggregate(ctx context.Context, tx *gorm.DB, since *time.Time) ([]models.LeaderboardAggregate, error)
	// Upsert writes entries keyed by (user, period)
	Upsert(ctx context.Context, tx *gorm.DB, entries []*models.Leaderboard) error

	List(ctx context.Context, tx *gorm.DB, period models.LeaderboardPeriod, limit, offset int) ([]*models.Leaderboard, int64, error)
	GetByUser(ctx context.Context, tx *gorm.DB, period models.LeaderboardPeriod, userID uint) (*models.Leaderboard, error)
}

// MaintenanceRepository interface for bulk operations run outside request handling
type MaintenanceRepository interface {
	CountUserData(ctx context.Context, tx *gorm.DB) (*UserDataCounts, error)
	// PurgeUserData deletes every user-owned row and leaves the catalog in place
	PurgeUserData(ctx context.Context, tx *gorm.DB) (*UserDataCounts, error)
}
