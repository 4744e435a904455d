package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/practice-service/internal/models"
	"github.com/SAP-F-2025/practice-service/internal/repositories"
)

type SessionPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewSessionPostgreSQL(db *gorm.DB) repositories.SessionRepository {
	return &SessionPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

// Create stores the session with its question set in position order
func (r *SessionPostgreSQL) Create(ctx context.Context, tx *gorm.DB, session *models.QuizSession, questionIDs []uint) error {
	db := getDB(r.db, tx)
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(session).Error; err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}
		if len(questionIDs) == 0 {
			return nil
		}

		rows := make([]models.SessionQuestion, len(questionIDs))
		for i, id := range questionIDs {
			rows[i] = models.SessionQuestion{SessionID: session.ID, QuestionID: id, Order: i + 1}
		}
		if err := tx.Omit(clause.Associations).Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to create session questions: %w", err)
		}
		return nil
	})
}

func (r *SessionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.QuizSession, error) {
	db := getDB(r.db, tx)
	var session models.QuizSession
	if err := db.WithContext(ctx).First(&session, id).Error; err != nil {
		return nil, notFound("session", id, err)
	}
	return &session, nil
}

// GetByIDWithDetails loads ordered questions and answers
func (r *SessionPostgreSQL) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.QuizSession, error) {
	db := getDB(r.db, tx)
	var session models.QuizSession
	if err := db.WithContext(ctx).
		Preload("Quiz").
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Preload("Questions.Question").
		Preload("Answers", func(db *gorm.DB) *gorm.DB {
			return db.Order("submitted_at ASC").Order("id ASC")
		}).
		First(&session, id).Error; err != nil {
		return nil, notFound("session", id, err)
	}
	return &session, nil
}

// ListByUser returns a user's sessions newest first
func (r *SessionPostgreSQL) ListByUser(ctx context.Context, tx *gorm.DB, userID uint, filters repositories.SessionFilters) ([]*models.QuizSession, int64, error) {
	db := getDB(r.db, tx)
	query := db.WithContext(ctx).Model(&models.QuizSession{}).Where("user_id = ?", userID)

	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count sessions: %w", err)
	}

	query = r.helpers.ApplyPagination(query.Order("created_at DESC").Order("id DESC"), filters.Limit, filters.Offset)

	var sessions []*models.QuizSession
	if err := query.Preload("Quiz").Find(&sessions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, total, nil
}

func (r *SessionPostgreSQL) HasQuestion(ctx context.Context, tx *gorm.DB, sessionID, questionID uint) (bool, error) {
	db := getDB(r.db, tx)
	var count int64
	if err := db.WithContext(ctx).
		Model(&models.SessionQuestion{}).
		Where("session_id = ? AND question_id = ?", sessionID, questionID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check session question: %w", err)
	}
	return count > 0, nil
}

// ApplyAnswer increments the totals in one statement. SQL evaluates every SET expression
// against the pre-update row, so the accuracy uses the old correct_answers plus this answer.
func (r *SessionPostgreSQL) ApplyAnswer(ctx context.Context, tx *gorm.DB, sessionID uint, outcome repositories.AnswerOutcome) (bool, error) {
	db := getDB(r.db, tx)

	correct, wrong := 0, 1
	if outcome.Correct {
		correct, wrong = 1, 0
	}

	result := db.WithContext(ctx).
		Model(&models.QuizSession{}).
		Where("id = ?", sessionID).
		Where("status IN ?", models.OpenSessionStatuses).
		Where("correct_answers + wrong_answers < total_questions").
		Updates(map[string]interface{}{
			"correct_answers": gorm.Expr("correct_answers + ?", correct),
			"wrong_answers":   gorm.Expr("wrong_answers + ?", wrong),
			"total_score":     gorm.Expr("total_score + ?", outcome.Score),
			"accuracy": gorm.Expr(
				"CASE WHEN total_questions > 0 THEN (correct_answers + ?) * 100.0 / total_questions ELSE 0 END",
				correct),
			"status": gorm.Expr("CASE WHEN status = ? THEN ? ELSE status END",
				models.SessionStarted, models.SessionInProgress),
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to update session totals: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

// Close is guarded by the open statuses so a session is completed or abandoned once
func (r *SessionPostgreSQL) Close(ctx context.Context, tx *gorm.DB, sessionID uint, change repositories.SessionClose) (bool, error) {
	db := getDB(r.db, tx)

	result := db.WithContext(ctx).
		Model(&models.QuizSession{}).
		Where("id = ?", sessionID).
		Where("status IN ?", models.OpenSessionStatuses).
		Updates(map[string]interface{}{
			"status":     change.Status,
			"time_ended": change.EndedAt,
			"time_spent": change.TimeSpent,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to close session: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *SessionPostgreSQL) CountCompletedByUser(ctx context.Context, tx *gorm.DB, userID uint) (int64, error) {
	db := getDB(r.db, tx)
	var count int64
	if err := db.WithContext(ctx).
		Model(&models.QuizSession{}).
		Where("user_id = ? AND status = ?", userID, models.SessionCompleted).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count completed sessions: %w", err)
	}
	return count, nil
}

func (r *SessionPostgreSQL) UserIDsWithSessions(ctx context.Context, tx *gorm.DB) ([]uint, error) {
	db := getDB(r.db, tx)
	var ids []uint
	if err := db.WithContext(ctx).
		Model(&models.QuizSession{}).
		Distinct("user_id").
		Order("user_id ASC").
		Pluck("user_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list users with sessions: %w", err)
	}
	return ids, nil
}

// ===== ANSWERS =====

type AnswerPostgreSQL struct {
	db *gorm.DB
}

func NewAnswerPostgreSQL(db *gorm.DB) repositories.AnswerRepository {
	return &AnswerPostgreSQL{db: db}
}

func (r *AnswerPostgreSQL) Create(ctx context.Context, tx *gorm.DB, answer *models.Answer) error {
	db := getDB(r.db, tx)
	if err := db.WithContext(ctx).Create(answer).Error; err != nil {
		return fmt.Errorf("failed to create answer: %w", err)
	}
	return nil
}

func (r *AnswerPostgreSQL) ListBySession(ctx context.Context, tx *gorm.DB, sessionID uint) ([]*models.Answer, error) {
	db := getDB(r.db, tx)
	var answers []*models.Answer
	if err := db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("submitted_at ASC").Order("id ASC").
		Find(&answers).Error; err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}
	return answers, nil
}

func (r *AnswerPostgreSQL) CountBySession(ctx context.Context, tx *gorm.DB, sessionID uint) (int64, error) {
	db := getDB(r.db, tx)
	var count int64
	if err := db.WithContext(ctx).
		Model(&models.Answer{}).
		Where("session_id = ?", sessionID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count answers: %w", err)
	}
	return count, nil
}

// TotalsByUser counts answers in every session of userID, whatever the session status
func (r *AnswerPostgreSQL) TotalsByUser(ctx context.Context, tx *gorm.DB, userID uint) (*repositories.AnswerTotals, error) {
	db := getDB(r.db, tx)
	var totals repositories.AnswerTotals
	if err := db.WithContext(ctx).
		Table("answers").
		Select("COUNT(answers.id) AS total, COALESCE(SUM(CASE WHEN answers.is_correct THEN 1 ELSE 0 END), 0) AS correct").
		Joins("JOIN quiz_sessions ON quiz_sessions.id = answers.session_id").
		Where("quiz_sessions.user_id = ?", userID).
		Scan(&totals).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate answers: %w", err)
	}
	return &totals, nil
}

// CategoryAccuracyByUser tallies answers per question category in one grouped query
func (r *AnswerPostgreSQL) CategoryAccuracyByUser(ctx context.Context, tx *gorm.DB, userID uint) ([]models.CategoryAccuracy, error) {
	db := getDB(r.db, tx)
	var rows []models.CategoryAccuracy
	if err := db.WithContext(ctx).
		Table("answers").
		Select("questions.category AS category, COUNT(answers.id) AS total, SUM(CASE WHEN answers.is_correct THEN 1 ELSE 0 END) AS correct").
		Joins("JOIN quiz_sessions ON quiz_sessions.id = answers.session_id").
		Joins("JOIN questions ON questions.id = answers.question_id").
		Where("quiz_sessions.user_id = ?", userID).
		Group("questions.category").
		Order("questions.category ASC").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate category accuracy: %w", err)
	}
	return rows, nil
}
