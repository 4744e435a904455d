package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/practice-service/internal/models"
	"github.com/SAP-F-2025/practice-service/internal/repositories"
)

type LeaderboardPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewLeaderboardPostgreSQL(db *gorm.DB) repositories.LeaderboardRepository {
	return &LeaderboardPostgreSQL{db: db, helpers: NewSharedHelpers(db)}
}

// Aggregate runs one grouped query over completed sessions
func (r *LeaderboardPostgreSQL) Aggregate(ctx context.Context, tx *gorm.DB, since *time.Time) ([]models.LeaderboardAggregate, error) {
	db := getDB(r.db, tx)
	query := db.WithContext(ctx).
		Model(&models.QuizSession{}).
		Select("user_id, SUM(total_score) AS score, SUM(total_questions) AS questions_solved, SUM(correct_answers) AS total_correct").
		Where("status = ?", models.SessionCompleted)

	if since != nil {
		query = query.Where("time_ended >= ?", *since)
	}

	var rows []models.LeaderboardAggregate
	if err := query.
		Group("user_id").
		Order("score DESC").
		Order("user_id ASC").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate leaderboard: %w", err)
	}
	return rows, nil
}

func (r *LeaderboardPostgreSQL) Upsert(ctx context.Context, tx *gorm.DB, entries []*models.Leaderboard) error {
	if len(entries) == 0 {
		return nil
	}

	db := getDB(r.db, tx)
	if err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "period"}},
			DoUpdates: clause.AssignmentColumns([]string{"rank", "score", "questions_solved", "accuracy", "updated_at"}),
		}).
		Omit(clause.Associations).
		CreateInBatches(entries, 500).Error; err != nil {
		return fmt.Errorf("failed to upsert leaderboard: %w", err)
	}
	return nil
}

// List returns one period ordered by rank
func (r *LeaderboardPostgreSQL) List(ctx context.Context, tx *gorm.DB, period models.LeaderboardPeriod, limit, offset int) ([]*models.Leaderboard, int64, error) {
	db := getDB(r.db, tx)
	query := db.WithContext(ctx).Model(&models.Leaderboard{}).Where("period = ?", period)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count leaderboard: %w", err)
	}

	var entries []*models.Leaderboard
	if err := r.helpers.ApplyPagination(query.Order("rank ASC").Order("user_id ASC"), limit, offset).
		Preload("User").
		Find(&entries).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list leaderboard: %w", err)
	}
	return entries, total, nil
}

func (r *LeaderboardPostgreSQL) GetByUser(ctx context.Context, tx *gorm.DB, period models.LeaderboardPeriod, userID uint) (*models.Leaderboard, error) {
	db := getDB(r.db, tx)
	var entry models.Leaderboard
	if err := db.WithContext(ctx).
		Preload("User").
		Where("period = ? AND user_id = ?", period, userID).
		First(&entry).Error; err != nil {
		return nil, notFound("leaderboard entry", userID, err)
	}
	return &entry, nil
}

// ===== MAINTENANCE =====

type MaintenancePostgreSQL struct {
	db *gorm.DB
}

func NewMaintenancePostgreSQL(db *gorm.DB) repositories.MaintenanceRepository {
	return &MaintenancePostgreSQL{db: db}
}

// userDataTables lists user-owned tables children first, the order deletes must follow
var userDataTables = []struct {
	model interface{}
	count func(*repositories.UserDataCounts) *int64
}{
	{&models.Answer{}, func(c *repositories.UserDataCounts) *int64 { return &c.Answers }},
	{&models.SessionQuestion{}, func(c *repositories.UserDataCounts) *int64 { return &c.SessionQuestions }},
	{&models.QuizSession{}, func(c *repositories.UserDataCounts) *int64 { return &c.Sessions }},
	{&models.Bookmark{}, func(c *repositories.UserDataCounts) *int64 { return &c.Bookmarks }},
	{&models.Leaderboard{}, func(c *repositories.UserDataCounts) *int64 { return &c.Leaderboard }},
	{&models.UserProfile{}, func(c *repositories.UserDataCounts) *int64 { return &c.Profiles }},
	{&models.User{}, func(c *repositories.UserDataCounts) *int64 { return &c.Users }},
}

func (r *MaintenancePostgreSQL) CountUserData(ctx context.Context, tx *gorm.DB) (*repositories.UserDataCounts, error) {
	db := getDB(r.db, tx)
	counts := &repositories.UserDataCounts{}
	for _, t := range userDataTables {
		if err := db.WithContext(ctx).Model(t.model).Count(t.count(counts)).Error; err != nil {
			return nil, fmt.Errorf("failed to count user data: %w", err)
		}
	}
	return counts, nil
}

// PurgeUserData deletes in one transaction and reports rows removed per table
func (r *MaintenancePostgreSQL) PurgeUserData(ctx context.Context, tx *gorm.DB) (*repositories.UserDataCounts, error) {
	db := getDB(r.db, tx)
	counts := &repositories.UserDataCounts{}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, t := range userDataTables {
			result := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(t.model)
			if result.Error != nil {
				return fmt.Errorf("failed to purge user data: %w", result.Error)
			}
			*t.count(counts) = result.RowsAffected
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}
