package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/practice-service/internal/models"
)

// QuestionRepository interface for question operations
type QuestionRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, question *models.Question) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error)
	Update(ctx context.Context, tx *gorm.DB, question *models.Question) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	// Bulk operations
	CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.Question, error)

	// Query operations
	List(ctx context.Context, tx *gorm.DB, filters QuestionFilters) ([]*models.Question, int64, error)
	CountByCategory(ctx context.Context, tx *gorm.DB) (map[string]int64, error)
	CountByDifficulty(ctx context.Context, tx *gorm.DB) (map[string]int64, error)

	// Counters and checks
	IncrementSolvedCount(ctx context.Context, tx *gorm.DB, id uint) error
	ExistingTitles(ctx context.Context, tx *gorm.DB, titles []string) (map[string]bool, error)
}

// QuizRepository interface for quiz template operations
type QuizRepository interface {
	Create(ctx context.Context, tx *gorm.DB, quiz *models.Quiz, questionIDs []uint) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error)
	GetByIDWithQuestions(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error)
	Update(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	List(ctx context.Context, tx *gorm.DB, filters QuizFilters) ([]*models.Quiz, int64, error)

	// Question membership, ordered by position
	ReplaceQuestions(ctx context.Context, tx *gorm.DB, quizID uint, questionIDs []uint) error
	GetQuestionIDs(ctx context.Context, tx *gorm.DB, quizID uint) ([]uint, error)
}
