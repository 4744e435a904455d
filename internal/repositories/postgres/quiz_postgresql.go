package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/practice-service/internal/cache"
	"github.com/SAP-F-2025/practice-service/internal/models"
	"github.com/SAP-F-2025/practice-service/internal/repositories"
)

type QuizPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewQuizPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.QuizRepository {
	return &QuizPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cacheManager,
	}
}

// Create stores quiz and its ordered questions atomically
func (r *QuizPostgreSQL) Create(ctx context.Context, tx *gorm.DB, quiz *models.Quiz, questionIDs []uint) error {
	db := getDB(r.db, tx)
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(quiz).Error; err != nil {
			return fmt.Errorf("failed to create quiz: %w", err)
		}
		return r.ReplaceQuestions(ctx, tx, quiz.ID, questionIDs)
	})
}

func (r *QuizPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error) {
	db := getDB(r.db, tx)
	var quiz models.Quiz
	if err := db.WithContext(ctx).First(&quiz, id).Error; err != nil {
		return nil, notFound("quiz", id, err)
	}
	return &quiz, nil
}

// GetByIDWithQuestions loads the quiz with its questions in position order, cached
func (r *QuizPostgreSQL) GetByIDWithQuestions(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error) {
	db := getDB(r.db, tx)
	cacheKey := fmt.Sprintf("id:%d", id)
	var quiz models.Quiz

	err := r.cacheManager.Quiz.CacheOrExecute(ctx, cacheKey, &quiz, cache.QuizCacheConfig.TTL, func() (interface{}, error) {
		var dbQuiz models.Quiz
		if err := db.WithContext(ctx).
			Preload("Questions", func(db *gorm.DB) *gorm.DB {
				return db.Order("sort_order ASC")
			}).
			Preload("Questions.Question").
			First(&dbQuiz, id).Error; err != nil {
			return nil, notFound("quiz", id, err)
		}
		dbQuiz.QuestionsCount = int64(len(dbQuiz.Questions))
		return &dbQuiz, nil
	})
	if err != nil {
		return nil, err
	}

	return &quiz, nil
}

// Update saves the quiz columns; membership changes go through ReplaceQuestions
func (r *QuizPostgreSQL) Update(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error {
	db := getDB(r.db, tx)
	if err := db.WithContext(ctx).Omit(clause.Associations).Save(quiz).Error; err != nil {
		return fmt.Errorf("failed to update quiz: %w", err)
	}

	cache.InvalidateQuizCache(ctx, r.cacheManager, quiz.ID)
	return nil
}

// Delete removes the quiz. Sessions started from it keep their copied title and question set.
func (r *QuizPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := getDB(r.db, tx)

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quiz_id = ?", id).Delete(&models.QuizQuestion{}).Error; err != nil {
			return fmt.Errorf("failed to delete quiz questions: %w", err)
		}
		if err := tx.Model(&models.QuizSession{}).
			Where("quiz_id = ?", id).
			UpdateColumn("quiz_id", nil).Error; err != nil {
			return fmt.Errorf("failed to detach quiz sessions: %w", err)
		}

		result := tx.Delete(&models.Quiz{}, id)
		if result.Error != nil {
			return fmt.Errorf("failed to delete quiz: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return notFound("quiz", id, gorm.ErrRecordNotFound)
		}
		return nil
	})
	if err != nil {
		return err
	}

	cache.InvalidateQuizCache(ctx, r.cacheManager, id)
	return nil
}

// List returns quizzes newest first with QuestionsCount filled in
func (r *QuizPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.QuizFilters) ([]*models.Quiz, int64, error) {
	db := getDB(r.db, tx)
	query := db.WithContext(ctx).Model(&models.Quiz{})

	if filters.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if filters.QuizType != nil {
		query = query.Where("quiz_type = ?", *filters.QuizType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count quizzes: %w", err)
	}

	query = r.helpers.ApplyPagination(query.Order("created_at DESC").Order("id DESC"), filters.Limit, filters.Offset)

	var quizzes []*models.Quiz
	if err := query.Find(&quizzes).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list quizzes: %w", err)
	}

	if err := r.fillQuestionCounts(ctx, db, quizzes); err != nil {
		return nil, 0, err
	}

	return quizzes, total, nil
}

func (r *QuizPostgreSQL) fillQuestionCounts(ctx context.Context, db *gorm.DB, quizzes []*models.Quiz) error {
	if len(quizzes) == 0 {
		return nil
	}

	ids := make([]uint, len(quizzes))
	for i, q := range quizzes {
		ids[i] = q.ID
	}

	var rows []struct {
		QuizID uint
		Count  int64
	}
	if err := db.WithContext(ctx).
		Model(&models.QuizQuestion{}).
		Select("quiz_id, COUNT(*) AS count").
		Where("quiz_id IN ?", ids).
		Group("quiz_id").
		Scan(&rows).Error; err != nil {
		return fmt.Errorf("failed to count quiz questions: %w", err)
	}

	counts := make(map[uint]int64, len(rows))
	for _, row := range rows {
		counts[row.QuizID] = row.Count
	}
	for _, q := range quizzes {
		q.QuestionsCount = counts[q.ID]
	}
	return nil
}

// ReplaceQuestions rewrites the membership in the given order; repeated ids keep their first position
func (r *QuizPostgreSQL) ReplaceQuestions(ctx context.Context, tx *gorm.DB, quizID uint, questionIDs []uint) error {
	db := getDB(r.db, tx)

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quiz_id = ?", quizID).Delete(&models.QuizQuestion{}).Error; err != nil {
			return fmt.Errorf("failed to clear quiz questions: %w", err)
		}

		rows := make([]models.QuizQuestion, 0, len(questionIDs))
		seen := make(map[uint]bool, len(questionIDs))
		for _, id := range questionIDs {
			if seen[id] {
				continue
			}
			seen[id] = true
			rows = append(rows, models.QuizQuestion{QuizID: quizID, QuestionID: id, Order: len(rows) + 1})
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.Omit(clause.Associations).Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to add quiz questions: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	cache.InvalidateQuizCache(ctx, r.cacheManager, quizID)
	return nil
}

// GetQuestionIDs returns the quiz's question ids in position order
func (r *QuizPostgreSQL) GetQuestionIDs(ctx context.Context, tx *gorm.DB, quizID uint) ([]uint, error) {
	db := getDB(r.db, tx)
	var ids []uint
	if err := db.WithContext(ctx).
		Model(&models.QuizQuestion{}).
		Where("quiz_id = ?", quizID).
		Order("sort_order ASC").
		Pluck("question_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to get quiz question ids: %w", err)
	}
	return ids, nil
}
