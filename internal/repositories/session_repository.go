package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/practice-service/internal/models"
)

// SessionRepository interface for practice session operations
type SessionRepository interface {
	// Create stores the session and its ordered question set
	Create(ctx context.Context, tx *gorm.DB, session *models.QuizSession, questionIDs []uint) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.QuizSession, error)
	GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.QuizSession, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uint, filters SessionFilters) ([]*models.QuizSession, int64, error)

	HasQuestion(ctx context.Context, tx *gorm.DB, sessionID, questionID uint) (bool, error)

	// ApplyAnswer folds one graded answer into the session totals with a single
	// conditional UPDATE. It returns false when the session is closed or full.
	ApplyAnswer(ctx context.Context, tx *gorm.DB, sessionID uint, outcome AnswerOutcome) (bool, error)

	// Close moves an open session to completed or abandoned; false when it was not open
	Close(ctx context.Context, tx *gorm.DB, sessionID uint, change SessionClose) (bool, error)

	CountCompletedByUser(ctx context.Context, tx *gorm.DB, userID uint) (int64, error)
	// UserIDsWithSessions returns every user owning at least one session, ascending
	UserIDsWithSessions(ctx context.Context, tx *gorm.DB) ([]uint, error)
}

// AnswerRepository interface for answer operations. Answers are append-only.
type AnswerRepository interface {
	Create(ctx context.Context, tx *gorm.DB, answer *models.Answer) error
	ListBySession(ctx context.Context, tx *gorm.DB, sessionID uint) ([]*models.Answer, error)
	CountBySession(ctx context.Context, tx *gorm.DB, sessionID uint) (int64, error)

	// Aggregates across every session owned by userID
	TotalsByUser(ctx context.Context, tx *gorm.DB, userID uint) (*AnswerTotals, error)
	CategoryAccuracyByUser(ctx context.Context, tx *gorm.DB, userID uint) ([]models.CategoryAccuracy, error)
}
