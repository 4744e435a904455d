package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/practice-service/internal/models"
)

// UserRepository interface for account operations
type UserRepository interface {
	Create(ctx context.Context, tx *gorm.DB, user *models.User) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error)
	// GetByLogin matches username or email
	GetByLogin(ctx context.Context, tx *gorm.DB, login string) (*models.User, error)
	GetByExternalID(ctx context.Context, tx *gorm.DB, externalID string) (*models.User, error)

	ExistsByUsername(ctx context.Context, tx *gorm.DB, username string) (bool, error)
	ExistsByEmail(ctx context.Context, tx *gorm.DB, email string) (bool, error)

	UpdatePassword(ctx context.Context, tx *gorm.DB, id uint, passwordHash string) error
	SetResetToken(ctx context.Context, tx *gorm.DB, id uint, token string, expiresAt time.Time) error
	LinkExternalID(ctx context.Context, tx *gorm.DB, id uint, externalID string) error
}

// ProfileRepository interface for derived user statistics and preferences
type ProfileRepository interface {
	GetOrCreate(ctx context.Context, tx *gorm.DB, userID uint) (*models.UserProfile, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uint) (*models.UserProfile, error)
	// UpdateStats writes the derived counters and weak_areas only
	UpdateStats(ctx context.Context, tx *gorm.DB, profile *models.UserProfile) error
	UpdatePreferences(ctx context.Context, tx *gorm.DB, profile *models.UserProfile) error
	TouchLastPractice(ctx context.Context, tx *gorm.DB, userID uint, at time.Time) error
}

// BookmarkRepository interface for bookmark operations. Every lookup is scoped to its owner.
type BookmarkRepository interface {
	Create(ctx context.Context, tx *gorm.DB, bookmark *models.Bookmark) error
	GetByID(ctx context.Context, tx *gorm.DB, userID, id uint) (*models.Bookmark, error)
	GetByQuestion(ctx context.Context, tx *gorm.DB, userID, questionID uint) (*models.Bookmark, error)
	Update(ctx context.Context, tx *gorm.DB, bookmark *models.Bookmark) error
	Delete(ctx context.Context, tx *gorm.DB, userID, id uint) error
	ListByUser(ctx context.Context, tx *gorm.DB, userID uint, limit, offset int) ([]*models.Bookmark, int64, error)
}

// ExternalIdentity is a user asserted by an external identity provider
type ExternalIdentity struct {
	Subject   string
	Username  string
	Email     string
	FirstName string
	LastName  string
	IsAdmin   bool
}

// IdentityProvider verifies tokens issued by an external SSO server
type IdentityProvider interface {
	VerifyToken(ctx context.Context, token string) (*ExternalIdentity, error)
}
