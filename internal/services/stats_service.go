package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/practice-service/internal/events"
	"github.com/SAP-F-2025/practice-service/internal/models"
	"github.com/SAP-F-2025/practice-service/internal/repositories"
)

// WeakAreaThreshold is the category accuracy below which a category counts as weak
const WeakAreaThreshold = 70.0

type statsService struct {
	repo   repositories.Repository
	db     *gorm.DB
	logger *slog.Logger
}

func NewStatsService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger) StatsService {
	return &statsService{
		repo:   repo,
		db:     db,
		logger: logger,
	}
}

// Recompute rebuilds the derived fields of userID's profile from their answer history.
// Users without a completed session keep their profile untouched.
func (s *statsService) Recompute(ctx context.Context, userID uint) (*models.UserProfile, error) {
	var profile *models.UserProfile
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		profile, _, err = s.recompute(ctx, tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// recompute reports whether the profile was rewritten
func (s *statsService) recompute(ctx context.Context, tx *gorm.DB, userID uint) (*models.UserProfile, bool, error) {
	profile, err := s.repo.Profile().GetOrCreate(ctx, tx, userID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get profile: %w", err)
	}

	completed, err := s.repo.Session().CountCompletedByUser(ctx, tx, userID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to count completed sessions: %w", err)
	}
	if completed == 0 {
		return profile, false, nil
	}

	totals, err := s.repo.Answer().TotalsByUser(ctx, tx, userID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to count answers: %w", err)
	}

	categories, err := s.repo.Answer().CategoryAccuracyByUser(ctx, tx, userID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to aggregate category accuracy: %w", err)
	}

	weakAreas, err := json.Marshal(WeakAreas(categories))
	if err != nil {
		return nil, false, fmt.Errorf("failed to marshal weak areas: %w", err)
	}

	profile.TotalQuestionsSolved = int(totals.Total)
	profile.TotalQuizzesCompleted = int(completed)
	profile.TotalCorrectAnswers = int(totals.Correct)
	profile.OverallAccuracy = models.Percentage(totals.Correct, totals.Total)
	profile.WeakAreas = datatypes.JSON(weakAreas)

	if err := s.repo.Profile().UpdateStats(ctx, tx, profile); err != nil {
		return nil, false, err
	}
	return profile, true, nil
}

// WeakAreas maps every known category with at least one answer and accuracy
// under WeakAreaThreshold to that accuracy
func WeakAreas(tallies []models.CategoryAccuracy) map[string]float64 {
	byCategory := make(map[string]models.CategoryAccuracy, len(tallies))
	for _, t := range tallies {
		byCategory[t.Category] = t
	}

	weak := make(map[string]float64)
	for _, category := range models.Categories {
		t, ok := byCategory[category.Value]
		if !ok || t.Total == 0 {
			continue
		}
		if accuracy := models.Percentage(t.Correct, t.Total); accuracy < WeakAreaThreshold {
			weak[category.Value] = accuracy
		}
	}
	return weak
}

// RecomputeAll runs Recompute for every user owning a session, in id order.
// The first failure stops the run; the returned summary covers the users handled before it.
func (s *statsService) RecomputeAll(ctx context.Context) (*StatsRunSummary, error) {
	userIDs, err := s.repo.Session().UserIDsWithSessions(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	s.logger.Info("Recomputing user stats", "users", len(userIDs))

	summary := &StatsRunSummary{}
	for _, userID := range userIDs {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		var updated bool
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			_, updated, err = s.recompute(ctx, tx, userID)
			return err
		})
		if err != nil {
			return summary, fmt.Errorf("failed to recompute stats for user %d: %w", userID, err)
		}

		summary.Scanned++
		if updated {
			summary.Updated++
		} else {
			summary.Skipped++
		}
	}

	s.logger.Info("User stats recomputed",
		"scanned", summary.Scanned,
		"updated", summary.Updated,
		"skipped", summary.Skipped)

	return summary, nil
}

// HandleSessionCompleted stamps the practice date and refreshes the owner's stats
func (s *statsService) HandleSessionCompleted(ctx context.Context, event *events.Event) error {
	var data events.SessionCompletedData
	if err := event.Decode(&data); err != nil {
		return err
	}

	if _, err := s.repo.Profile().GetOrCreate(ctx, s.db, data.UserID); err != nil {
		return fmt.Errorf("failed to get profile: %w", err)
	}
	if err := s.repo.Profile().TouchLastPractice(ctx, s.db, data.UserID, data.CompletedAt); err != nil {
		return err
	}

	if _, err := s.Recompute(ctx, data.UserID); err != nil {
		return err
	}

	s.logger.Debug("Stats refreshed after session", "user_id", data.UserID, "session_id", data.SessionID)
	return nil
}
