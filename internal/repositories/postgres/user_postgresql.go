package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/practice-service/internal/models"
	"github.com/SAP-F-2025/practice-service/internal/repositories"
)

type UserPostgreSQL struct {
	db *gorm.DB
}

func NewUserPostgreSQL(db *gorm.DB) repositories.UserRepository {
	return &UserPostgreSQL{db: db}
}

func (r *UserPostgreSQL) Create(ctx context.Context, tx *gorm.DB, user *models.User) error {
	db := getDB(r.db, tx)
	if err := db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *UserPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error) {
	return r.first(ctx, tx, "user", id, "id = ?", id)
}

// GetByEmail matches case-insensitively
func (r *UserPostgreSQL) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error) {
	return r.first(ctx, tx, "user", email, "LOWER(email) = ?", strings.ToLower(email))
}

func (r *UserPostgreSQL) GetByLogin(ctx context.Context, tx *gorm.DB, login string) (*models.User, error) {
	return r.first(ctx, tx, "user", login, "username = ? OR LOWER(email) = ?", login, strings.ToLower(login))
}

func (r *UserPostgreSQL) GetByExternalID(ctx context.Context, tx *gorm.DB, externalID string) (*models.User, error) {
	return r.first(ctx, tx, "user", externalID, "external_id = ?", externalID)
}

func (r *UserPostgreSQL) first(ctx context.Context, tx *gorm.DB, entity string, key interface{}, query string, args ...interface{}) (*models.User, error) {
	db := getDB(r.db, tx)
	var user models.User
	if err := db.WithContext(ctx).Where(query, args...).First(&user).Error; err != nil {
		return nil, notFound(entity, key, err)
	}
	return &user, nil
}

func (r *UserPostgreSQL) ExistsByUsername(ctx context.Context, tx *gorm.DB, username string) (bool, error) {
	return r.exists(ctx, tx, "username = ?", username)
}

func (r *UserPostgreSQL) ExistsByEmail(ctx context.Context, tx *gorm.DB, email string) (bool, error) {
	return r.exists(ctx, tx, "LOWER(email) = ?", strings.ToLower(email))
}

func (r *UserPostgreSQL) exists(ctx context.Context, tx *gorm.DB, query string, args ...interface{}) (bool, error) {
	db := getDB(r.db, tx)
	var count int64
	if err := db.WithContext(ctx).Model(&models.User{}).Where(query, args...).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return count > 0, nil
}

// UpdatePassword sets the hash and clears any outstanding reset token
func (r *UserPostgreSQL) UpdatePassword(ctx context.Context, tx *gorm.DB, id uint, passwordHash string) error {
	return r.updateColumns(ctx, tx, id, map[string]interface{}{
		"password_hash":          passwordHash,
		"reset_token":            nil,
		"reset_token_expires_at": nil,
	})
}

func (r *UserPostgreSQL) SetResetToken(ctx context.Context, tx *gorm.DB, id uint, token string, expiresAt time.Time) error {
	return r.updateColumns(ctx, tx, id, map[string]interface{}{
		"reset_token":            token,
		"reset_token_expires_at": expiresAt,
	})
}

func (r *UserPostgreSQL) LinkExternalID(ctx context.Context, tx *gorm.DB, id uint, externalID string) error {
	return r.updateColumns(ctx, tx, id, map[string]interface{}{"external_id": externalID})
}

func (r *UserPostgreSQL) updateColumns(ctx context.Context, tx *gorm.DB, id uint, values map[string]interface{}) error {
	db := getDB(r.db, tx)
	result := db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(values)
	if result.Error != nil {
		return fmt.Errorf("failed to update user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return notFound("user", id, gorm.ErrRecordNotFound)
	}
	return nil
}

// ===== PROFILES =====

type ProfilePostgreSQL struct {
	db *gorm.DB
}

func NewProfilePostgreSQL(db *gorm.DB) repositories.ProfileRepository {
	return &ProfilePostgreSQL{db: db}
}

// GetOrCreate returns the user's profile, inserting the default one when missing.
// A concurrent insert loses on the unique user_id and re-reads the winner.
func (r *ProfilePostgreSQL) GetOrCreate(ctx context.Context, tx *gorm.DB, userID uint) (*models.UserProfile, error) {
	db := getDB(r.db, tx)

	profile := models.NewUserProfile(userID)
	if err := db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Omit(clause.Associations).
		Create(profile).Error; err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	return r.GetByUserID(ctx, tx, userID)
}

func (r *ProfilePostgreSQL) GetByUserID(ctx context.Context, tx *gorm.DB, userID uint) (*models.UserProfile, error) {
	db := getDB(r.db, tx)
	var profile models.UserProfile
	if err := db.WithContext(ctx).Preload("User").Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, notFound("profile", userID, err)
	}
	return &profile, nil
}

func (r *ProfilePostgreSQL) UpdateStats(ctx context.Context, tx *gorm.DB, profile *models.UserProfile) error {
	return r.updateSelected(ctx, tx, profile,
		"total_questions_solved", "total_quizzes_completed", "total_correct_answers", "overall_accuracy", "weak_areas")
}

func (r *ProfilePostgreSQL) UpdatePreferences(ctx context.Context, tx *gorm.DB, profile *models.UserProfile) error {
	return r.updateSelected(ctx, tx, profile, "preferred_difficulty", "preferred_topic", "notification_enabled")
}

func (r *ProfilePostgreSQL) updateSelected(ctx context.Context, tx *gorm.DB, profile *models.UserProfile, columns ...string) error {
	db := getDB(r.db, tx)
	// Select forces zero values (0 counters, false flags) to be written
	if err := db.WithContext(ctx).
		Model(profile).
		Select(columns).
		Omit(clause.Associations).
		Updates(profile).Error; err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}

func (r *ProfilePostgreSQL) TouchLastPractice(ctx context.Context, tx *gorm.DB, userID uint, at time.Time) error {
	db := getDB(r.db, tx)
	if err := db.WithContext(ctx).
		Model(&models.UserProfile{}).
		Where("user_id = ?", userID).
		Update("last_practice_date", at).Error; err != nil {
		return fmt.Errorf("failed to update last practice date: %w", err)
	}
	return nil
}

// ===== BOOKMARKS =====

type BookmarkPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewBookmarkPostgreSQL(db *gorm.DB) repositories.BookmarkRepository {
	return &BookmarkPostgreSQL{db: db, helpers: NewSharedHelpers(db)}
}

func (r *BookmarkPostgreSQL) Create(ctx context.Context, tx *gorm.DB, bookmark *models.Bookmark) error {
	db := getDB(r.db, tx)
	if err := db.WithContext(ctx).Omit(clause.Associations).Create(bookmark).Error; err != nil {
		return fmt.Errorf("failed to create bookmark: %w", err)
	}
	return nil
}

func (r *BookmarkPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, userID, id uint) (*models.Bookmark, error) {
	db := getDB(r.db, tx)
	var bookmark models.Bookmark
	if err := db.WithContext(ctx).
		Preload("Question").
		Where("id = ? AND user_id = ?", id, userID).
		First(&bookmark).Error; err != nil {
		return nil, notFound("bookmark", id, err)
	}
	return &bookmark, nil
}

func (r *BookmarkPostgreSQL) GetByQuestion(ctx context.Context, tx *gorm.DB, userID, questionID uint) (*models.Bookmark, error) {
	db := getDB(r.db, tx)
	var bookmark models.Bookmark
	if err := db.WithContext(ctx).
		Where("user_id = ? AND question_id = ?", userID, questionID).
		First(&bookmark).Error; err != nil {
		return nil, notFound("bookmark", questionID, err)
	}
	return &bookmark, nil
}

func (r *BookmarkPostgreSQL) Update(ctx context.Context, tx *gorm.DB, bookmark *models.Bookmark) error {
	db := getDB(r.db, tx)
	if err := db.WithContext(ctx).
		Model(bookmark).
		Select("notes", "is_solved").
		Omit(clause.Associations).
		Updates(bookmark).Error; err != nil {
		return fmt.Errorf("failed to update bookmark: %w", err)
	}
	return nil
}

func (r *BookmarkPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, userID, id uint) error {
	db := getDB(r.db, tx)
	result := db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Bookmark{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete bookmark: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return notFound("bookmark", id, gorm.ErrRecordNotFound)
	}
	return nil
}

// ListByUser returns bookmarks newest first with their questions
func (r *BookmarkPostgreSQL) ListByUser(ctx context.Context, tx *gorm.DB, userID uint, limit, offset int) ([]*models.Bookmark, int64, error) {
	db := getDB(r.db, tx)
	query := db.WithContext(ctx).Model(&models.Bookmark{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookmarks: %w", err)
	}

	var bookmarks []*models.Bookmark
	if err := r.helpers.ApplyPagination(query.Order("created_at DESC").Order("id DESC"), limit, offset).
		Preload("Question").
		Find(&bookmarks).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list bookmarks: %w", err)
	}
	return bookmarks, total, nil
}
