package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/practice-service/internal/models"
	"github.com/SAP-F-2025/practice-service/internal/repositories"
	"github.com/SAP-F-2025/practice-service/internal/validator"
)

// DefaultTimeLimit is used when a quiz is created without time_limit
const DefaultTimeLimit = 30

type quizService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewQuizService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) QuizService {
	return &quizService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
}

func (s *quizService) Create(ctx context.Context, req *CreateQuizRequest, userID uint) (*models.Quiz, error) {
	s.logger.Info("Creating quiz", "user_id", userID, "name", req.Name)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if err := requireAdmin(ctx, s.repo, s.db, userID, "quiz", "create", 0); err != nil {
		return nil, err
	}

	quiz := &models.Quiz{
		Name:        req.Name,
		Description: req.Description,
		QuizType:    req.QuizType,
		TimeLimit:   DefaultTimeLimit,
		Difficulty:  req.Difficulty,
		Category:    req.Category,
		IsActive:    true,
	}
	if req.TimeLimit != nil {
		quiz.TimeLimit = *req.TimeLimit
	}
	if req.IsActive != nil {
		quiz.IsActive = *req.IsActive
	}

	questionIDs := uniqueIDs(req.QuestionIDs)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.checkQuestions(ctx, tx, questionIDs); err != nil {
			return err
		}
		return s.repo.Quiz().Create(ctx, tx, quiz, questionIDs)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Quiz created", "quiz_id", quiz.ID, "questions", len(questionIDs))
	return s.load(ctx, quiz.ID)
}

// checkQuestions rejects ids that are not in the catalog
func (s *quizService) checkQuestions(ctx context.Context, tx *gorm.DB, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}

	questions, err := s.repo.Question().GetByIDs(ctx, tx, ids)
	if err != nil {
		return fmt.Errorf("failed to load questions: %w", err)
	}
	if len(questions) == len(ids) {
		return nil
	}

	found := existingInOrder(ids, questions)
	known := make(map[uint]bool, len(found))
	for _, id := range found {
		known[id] = true
	}
	for _, id := range ids {
		if !known[id] {
			return validator.Field("question_ids", fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", id))
		}
	}
	return nil
}

// GetByID returns an active quiz with its ordered questions. Inactive quizzes are hidden.
func (s *quizService) GetByID(ctx context.Context, id uint) (*models.Quiz, error) {
	quiz, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !quiz.IsActive {
		return nil, ErrQuizNotFound
	}
	return quiz, nil
}

func (s *quizService) load(ctx context.Context, id uint) (*models.Quiz, error) {
	quiz, err := s.repo.Quiz().GetByIDWithQuestions(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	return quiz, nil
}

// Update applies the fields present in req. A non-nil QuestionIDs replaces the question list.
func (s *quizService) Update(ctx context.Context, id uint, req *UpdateQuizRequest, userID uint) (*models.Quiz, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if err := requireAdmin(ctx, s.repo, s.db, userID, "quiz", "update", id); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		quiz, err := s.repo.Quiz().GetByID(ctx, tx, id)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrQuizNotFound
			}
			return fmt.Errorf("failed to get quiz: %w", err)
		}

		if req.Name != nil {
			quiz.Name = *req.Name
		}
		if req.Description != nil {
			quiz.Description = *req.Description
		}
		if req.QuizType != nil {
			quiz.QuizType = *req.QuizType
		}
		if req.TimeLimit != nil {
			quiz.TimeLimit = *req.TimeLimit
		}
		if req.Difficulty != nil {
			quiz.Difficulty = *req.Difficulty
		}
		if req.Category != nil {
			quiz.Category = *req.Category
		}
		if req.IsActive != nil {
			quiz.IsActive = *req.IsActive
		}

		if err := s.repo.Quiz().Update(ctx, tx, quiz); err != nil {
			return err
		}

		if req.QuestionIDs != nil {
			ids := uniqueIDs(req.QuestionIDs)
			if err := s.checkQuestions(ctx, tx, ids); err != nil {
				return err
			}
			if err := s.repo.Quiz().ReplaceQuestions(ctx, tx, id, ids); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Quiz updated", "quiz_id", id, "user_id", userID)
	return s.load(ctx, id)
}

// Delete removes the quiz; sessions started from it are detached and kept
func (s *quizService) Delete(ctx context.Context, id uint, userID uint) error {
	if err := requireAdmin(ctx, s.repo, s.db, userID, "quiz", "delete", id); err != nil {
		return err
	}

	if err := s.repo.Quiz().Delete(ctx, s.db, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrQuizNotFound
		}
		return fmt.Errorf("failed to delete quiz: %w", err)
	}

	s.logger.Info("Quiz deleted", "quiz_id", id, "user_id", userID)
	return nil
}

// List returns active quizzes only
func (s *quizService) List(ctx context.Context, filters repositories.QuizFilters) (*QuizListResponse, error) {
	filters.ActiveOnly = true
	quizzes, total, err := s.repo.Quiz().List(ctx, s.db, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list quizzes: %w", err)
	}
	return &QuizListResponse{Quizzes: quizzes, Total: total}, nil
}

func (s *quizService) ByType(ctx context.Context, quizType string) ([]*models.Quiz, error) {
	if quizType == "" {
		return nil, validator.Field("type", "type parameter required")
	}
	if !models.IsValidChoice(models.QuizTypes, quizType) {
		return nil, validator.Field("type", fmt.Sprintf("%q is not a valid choice.", quizType))
	}

	qt := models.QuizType(quizType)
	quizzes, _, err := s.repo.Quiz().List(ctx, s.db, repositories.QuizFilters{QuizType: &qt, ActiveOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to list quizzes: %w", err)
	}
	return quizzes, nil
}
