package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/practice-service/internal/cache"
	"github.com/SAP-F-2025/practice-service/internal/models"
	"github.com/SAP-F-2025/practice-service/internal/repositories"
	"github.com/SAP-F-2025/practice-service/internal/validator"
)

const (
	countByCategoryKey   = "questions:by_category"
	countByDifficultyKey = "questions:by_difficulty"
)

type questionService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	cache     *cache.CacheManager
}

func NewQuestionService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, cacheManager *cache.CacheManager) QuestionService {
	if cacheManager == nil {
		cacheManager = cache.NewCacheManager(nil)
	}
	return &questionService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		cache:     cacheManager,
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *questionService) Create(ctx context.Context, req *CreateQuestionRequest, userID uint) (*models.Question, error) {
	s.logger.Info("Creating question", "user_id", userID, "category", req.Category)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if err := requireAdmin(ctx, s.repo, s.db, userID, "question", "create", 0); err != nil {
		return nil, err
	}

	testCases, err := marshalTestCases(req.TestCases)
	if err != nil {
		return nil, err
	}

	question := &models.Question{
		Title:        req.Title,
		Description:  req.Description,
		Topic:        req.Topic,
		Category:     req.Category,
		Difficulty:   req.Difficulty,
		TemplateCode: req.TemplateCode,
		SolutionCode: req.SolutionCode,
		Explanation:  req.Explanation,
		VideoURL:     req.VideoURL,
		TestCases:    testCases,
	}

	if err := s.repo.Question().Create(ctx, s.db, question); err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}

	s.logger.Info("Question created", "question_id", question.ID, "user_id", userID)
	return question, nil
}

func (s *questionService) GetByID(ctx context.Context, id uint) (*models.Question, error) {
	question, err := s.repo.Question().GetByID(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return question, nil
}

// Update applies only the fields present in req
func (s *questionService) Update(ctx context.Context, id uint, req *UpdateQuestionRequest, userID uint) (*models.Question, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if err := requireAdmin(ctx, s.repo, s.db, userID, "question", "update", id); err != nil {
		return nil, err
	}

	question, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		question.Title = *req.Title
	}
	if req.Description != nil {
		question.Description = *req.Description
	}
	if req.Topic != nil {
		question.Topic = *req.Topic
	}
	if req.Category != nil {
		question.Category = *req.Category
	}
	if req.Difficulty != nil {
		question.Difficulty = *req.Difficulty
	}
	if req.TemplateCode != nil {
		question.TemplateCode = *req.TemplateCode
	}
	if req.SolutionCode != nil {
		question.SolutionCode = *req.SolutionCode
	}
	if req.Explanation != nil {
		question.Explanation = *req.Explanation
	}
	if req.VideoURL != nil {
		question.VideoURL = req.VideoURL
	}
	if req.TestCases != nil {
		testCases, err := marshalTestCases(req.TestCases)
		if err != nil {
			return nil, err
		}
		question.TestCases = testCases
	}

	if err := s.repo.Question().Update(ctx, s.db, question); err != nil {
		return nil, fmt.Errorf("failed to update question: %w", err)
	}

	s.logger.Info("Question updated", "question_id", id, "user_id", userID)
	return question, nil
}

// Delete removes the question along with its bookmarks, answers and quiz memberships
func (s *questionService) Delete(ctx context.Context, id uint, userID uint) error {
	if err := requireAdmin(ctx, s.repo, s.db, userID, "question", "delete", id); err != nil {
		return err
	}

	if err := s.repo.Question().Delete(ctx, s.db, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrQuestionNotFound
		}
		return fmt.Errorf("failed to delete question: %w", err)
	}

	s.logger.Info("Question deleted", "question_id", id, "user_id", userID)
	return nil
}

// ===== LISTING AND COUNTS =====

// List returns question summaries; solution code never appears in list results
func (s *questionService) List(ctx context.Context, filters repositories.QuestionFilters) (*QuestionListResponse, error) {
	questions, total, err := s.repo.Question().List(ctx, s.db, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}

	out := make([]models.Question, len(questions))
	for i, q := range questions {
		out[i] = q.Summary()
	}
	return &QuestionListResponse{Questions: out, Total: total}, nil
}

// CountByCategory returns every known category with its question count, zero included
func (s *questionService) CountByCategory(ctx context.Context) (map[string]models.ChoiceCount, error) {
	return s.countBy(ctx, countByCategoryKey, models.Categories, s.repo.Question().CountByCategory)
}

// CountByDifficulty returns every difficulty with its question count, zero included
func (s *questionService) CountByDifficulty(ctx context.Context) (map[string]models.ChoiceCount, error) {
	return s.countBy(ctx, countByDifficultyKey, models.Difficulties, s.repo.Question().CountByDifficulty)
}

func (s *questionService) countBy(
	ctx context.Context,
	key string,
	choices []models.Choice,
	count func(ctx context.Context, tx *gorm.DB) (map[string]int64, error),
) (map[string]models.ChoiceCount, error) {
	var result map[string]models.ChoiceCount
	err := s.cache.Stats.CacheOrExecute(ctx, key, &result, cache.StatsCacheConfig.TTL, func() (interface{}, error) {
		counts, err := count(ctx, s.db)
		if err != nil {
			return nil, err
		}
		return choiceCounts(choices, counts), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count questions: %w", err)
	}
	return result, nil
}

// choiceCounts keys every choice by value; stored values outside choices are ignored
func choiceCounts(choices []models.Choice, counts map[string]int64) map[string]models.ChoiceCount {
	out := make(map[string]models.ChoiceCount, len(choices))
	for _, c := range choices {
		out[c.Value] = models.ChoiceCount{Name: c.Name, Count: counts[c.Value]}
	}
	return out
}
