package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/practice-service/internal/cache"
	"github.com/SAP-F-2025/practice-service/internal/models"
	"github.com/SAP-F-2025/practice-service/internal/repositories"
)

type QuestionPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewQuestionPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.QuestionRepository {
	return &QuestionPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cacheManager,
	}
}

// ===== BASIC CRUD OPERATIONS =====

// Create creates a new question and invalidates the count caches
func (q *QuestionPostgreSQL) Create(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	db := getDB(q.db, tx)
	if err := db.WithContext(ctx).Create(question).Error; err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}

	cache.SafeInvalidatePattern(ctx, q.cacheManager.Stats, "questions:*")
	return nil
}

// GetByID retrieves a question by ID with caching
func (q *QuestionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	db := getDB(q.db, tx)
	cacheKey := fmt.Sprintf("id:%d", id)
	var question models.Question

	err := q.cacheManager.Question.CacheOrExecute(ctx, cacheKey, &question, cache.QuestionCacheConfig.TTL, func() (interface{}, error) {
		var dbQuestion models.Question
		if err := db.WithContext(ctx).First(&dbQuestion, id).Error; err != nil {
			return nil, notFound("question", id, err)
		}
		return &dbQuestion, nil
	})
	if err != nil {
		return nil, err
	}

	return &question, nil
}

// Update saves every column of question
func (q *QuestionPostgreSQL) Update(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	db := getDB(q.db, tx)
	if err := db.WithContext(ctx).Save(question).Error; err != nil {
		return fmt.Errorf("failed to update question: %w", err)
	}

	cache.InvalidateQuestionCache(ctx, q.cacheManager, question.ID)
	return nil
}

// Delete removes a question together with the rows that reference it
func (q *QuestionPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := getDB(q.db, tx)

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Foreign keys first
		if err := tx.Where("question_id = ?", id).Delete(&models.QuizQuestion{}).Error; err != nil {
			return fmt.Errorf("failed to delete question from quizzes: %w", err)
		}
		if err := tx.Where("question_id = ?", id).Delete(&models.Bookmark{}).Error; err != nil {
			return fmt.Errorf("failed to delete question bookmarks: %w", err)
		}
		if err := tx.Where("question_id = ?", id).Delete(&models.SessionQuestion{}).Error; err != nil {
			return fmt.Errorf("failed to delete question from sessions: %w", err)
		}
		// Answers cascade with their question
		if err := tx.Where("question_id = ?", id).Delete(&models.Answer{}).Error; err != nil {
			return fmt.Errorf("failed to delete question answers: %w", err)
		}

		result := tx.Delete(&models.Question{}, id)
		if result.Error != nil {
			return fmt.Errorf("failed to delete question: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return notFound("question", id, gorm.ErrRecordNotFound)
		}
		return nil
	})
	if err != nil {
		return err
	}

	cache.InvalidateQuestionCache(ctx, q.cacheManager, id)
	return nil
}

// ===== BULK OPERATIONS =====

// CreateBatch creates multiple questions in a batch
func (q *QuestionPostgreSQL) CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error {
	if len(questions) == 0 {
		return nil
	}

	db := getDB(q.db, tx)
	if err := db.WithContext(ctx).CreateInBatches(questions, 100).Error; err != nil {
		return fmt.Errorf("failed to create questions batch: %w", err)
	}

	cache.SafeInvalidatePattern(ctx, q.cacheManager.Stats, "questions:*")
	return nil
}

// GetByIDs retrieves the questions that exist among ids
func (q *QuestionPostgreSQL) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.Question, error) {
	if len(ids) == 0 {
		return []*models.Question{}, nil
	}

	db := getDB(q.db, tx)
	var questions []*models.Question
	if err := db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&questions).Error; err != nil {
		return nil, fmt.Errorf("failed to get questions by IDs: %w", err)
	}

	return questions, nil
}

// ===== QUERY OPERATIONS =====

// List retrieves questions with filtering and pagination
func (q *QuestionPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	db := getDB(q.db, tx)
	query := db.WithContext(ctx).Model(&models.Question{})

	query = q.helpers.ApplyQuestionFilters(query, filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count questions: %w", err)
	}

	query = q.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	var questions []*models.Question
	if err := query.Find(&questions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list questions: %w", err)
	}

	return questions, total, nil
}

// CountByCategory counts questions per stored category; categories without questions are absent
func (q *QuestionPostgreSQL) CountByCategory(ctx context.Context, tx *gorm.DB) (map[string]int64, error) {
	return q.countBy(ctx, tx, "category")
}

// CountByDifficulty counts questions per difficulty
func (q *QuestionPostgreSQL) CountByDifficulty(ctx context.Context, tx *gorm.DB) (map[string]int64, error) {
	return q.countBy(ctx, tx, "difficulty")
}

func (q *QuestionPostgreSQL) countBy(ctx context.Context, tx *gorm.DB, column string) (map[string]int64, error) {
	db := getDB(q.db, tx)

	var rows []struct {
		Value string
		Count int64
	}
	if err := db.WithContext(ctx).
		Model(&models.Question{}).
		Select(column + " AS value, COUNT(*) AS count").
		Group(column).
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count questions by %s: %w", column, err)
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Value] = r.Count
	}
	return counts, nil
}

// ===== COUNTERS AND CHECKS =====

// IncrementSolvedCount bumps solved_count in SQL so concurrent submissions do not lose updates
func (q *QuestionPostgreSQL) IncrementSolvedCount(ctx context.Context, tx *gorm.DB, id uint) error {
	db := getDB(q.db, tx)
	if err := db.WithContext(ctx).
		Model(&models.Question{}).
		Where("id = ?", id).
		UpdateColumn("solved_count", gorm.Expr("solved_count + ?", 1)).Error; err != nil {
		return fmt.Errorf("failed to increment solved count: %w", err)
	}

	cache.SafeDelete(ctx, q.cacheManager.Question, fmt.Sprintf("id:%d", id))
	return nil
}

// ExistingTitles reports which of titles are already in the catalog
func (q *QuestionPostgreSQL) ExistingTitles(ctx context.Context, tx *gorm.DB, titles []string) (map[string]bool, error) {
	existing := make(map[string]bool)
	if len(titles) == 0 {
		return existing, nil
	}

	db := getDB(q.db, tx)
	var found []string
	if err := db.WithContext(ctx).
		Model(&models.Question{}).
		Where("title IN ?", titles).
		Pluck("title", &found).Error; err != nil {
		return nil, fmt.Errorf("failed to check question titles: %w", err)
	}

	for _, t := range found {
		existing[t] = true
	}
	return existing, nil
}
