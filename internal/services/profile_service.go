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

type profileService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewProfileService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) ProfileService {
	return &profileService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
}

// Me returns the caller's profile, creating the default one on first access
func (s *profileService) Me(ctx context.Context, userID uint) (*models.UserProfile, error) {
	profile, err := s.repo.Profile().GetOrCreate(ctx, s.db, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return profile, nil
}

func (s *profileService) UpdatePreferences(ctx context.Context, userID uint, req *UpdatePreferencesRequest) (*models.UserProfile, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	var profile *models.UserProfile
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		profile, err = s.repo.Profile().GetOrCreate(ctx, tx, userID)
		if err != nil {
			return fmt.Errorf("failed to get profile: %w", err)
		}

		if req.PreferredDifficulty != nil {
			profile.PreferredDifficulty = *req.PreferredDifficulty
		}
		if req.PreferredTopic != nil {
			profile.PreferredTopic = *req.PreferredTopic
		}
		if req.NotificationEnabled != nil {
			profile.NotificationEnabled = *req.NotificationEnabled
		}

		return s.repo.Profile().UpdatePreferences(ctx, tx, profile)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Preferences updated", "user_id", userID)
	return profile, nil
}
