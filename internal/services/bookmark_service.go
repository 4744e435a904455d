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

type bookmarkService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewBookmarkService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) BookmarkService {
	return &bookmarkService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
}

// Toggle bookmarks a question, or removes the bookmark when one already exists
func (s *bookmarkService) Toggle(ctx context.Context, userID uint, req *ToggleBookmarkRequest) (*BookmarkToggleResult, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	result := &BookmarkToggleResult{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.repo.Question().GetByID(ctx, tx, req.QuestionID); err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrQuestionNotFound
			}
			return fmt.Errorf("failed to get question: %w", err)
		}

		existing, err := s.repo.Bookmark().GetByQuestion(ctx, tx, userID, req.QuestionID)
		switch {
		case err == nil:
			if err := s.repo.Bookmark().Delete(ctx, tx, userID, existing.ID); err != nil {
				return err
			}
			result.Deleted = true
			return nil
		case !repositories.IsNotFoundError(err):
			return fmt.Errorf("failed to get bookmark: %w", err)
		}

		bookmark := &models.Bookmark{UserID: userID, QuestionID: req.QuestionID}
		if err := s.repo.Bookmark().Create(ctx, tx, bookmark); err != nil {
			return err
		}
		result.Bookmark = bookmark
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Deleted {
		s.logger.Info("Bookmark removed", "user_id", userID, "question_id", req.QuestionID)
		return result, nil
	}

	// Reload for the embedded question
	bookmark, err := s.repo.Bookmark().GetByID(ctx, s.db, userID, result.Bookmark.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload bookmark: %w", err)
	}
	result.Bookmark = bookmark

	s.logger.Info("Bookmark created", "user_id", userID, "question_id", req.QuestionID)
	return result, nil
}

func (s *bookmarkService) List(ctx context.Context, userID uint, page models.PageParams) (*BookmarkListResponse, error) {
	bookmarks, total, err := s.repo.Bookmark().ListByUser(ctx, s.db, userID, page.Limit(), page.Offset())
	if err != nil {
		return nil, err
	}
	return &BookmarkListResponse{Bookmarks: bookmarks, Total: total}, nil
}

func (s *bookmarkService) IsBookmarked(ctx context.Context, userID, questionID uint) (bool, error) {
	if questionID == 0 {
		return false, validator.Field("question_id", "question_id required")
	}

	_, err := s.repo.Bookmark().GetByQuestion(ctx, s.db, userID, questionID)
	if err == nil {
		return true, nil
	}
	if repositories.IsNotFoundError(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check bookmark: %w", err)
}

func (s *bookmarkService) Update(ctx context.Context, userID, id uint, req *UpdateBookmarkRequest) (*models.Bookmark, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	bookmark, err := s.repo.Bookmark().GetByID(ctx, s.db, userID, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrBookmarkNotFound
		}
		return nil, fmt.Errorf("failed to get bookmark: %w", err)
	}

	if req.Notes != nil {
		bookmark.Notes = *req.Notes
	}
	if req.IsSolved != nil {
		bookmark.IsSolved = *req.IsSolved
	}

	if err := s.repo.Bookmark().Update(ctx, s.db, bookmark); err != nil {
		return nil, err
	}
	return bookmark, nil
}

func (s *bookmarkService) Delete(ctx context.Context, userID, id uint) error {
	if err := s.repo.Bookmark().Delete(ctx, s.db, userID, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrBookmarkNotFound
		}
		return err
	}

	s.logger.Info("Bookmark deleted", "user_id", userID, "bookmark_id", id)
	return nil
}
