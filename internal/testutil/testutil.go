// Package testutil builds throwaway databases and fixtures for package tests.
package testutil

import (
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/SAP-F-2025/practice-service/internal/models"
	"github.com/SAP-F-2025/practice-service/pkg"
)

// NewTestDB opens a private in-memory sqlite database with the full schema
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := pkg.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	// One connection keeps writers from tripping over shared-cache table locks
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

// Logger discards output
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// CreateUser inserts a user named username
func CreateUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Role:     models.RoleUser,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

// CreateQuestion inserts a question in category
func CreateQuestion(t *testing.T, db *gorm.DB, title, category string) *models.Question {
	t.Helper()
	q := &models.Question{
		Title:       title,
		Description: "Solve " + title,
		Topic:       models.TopicDSA,
		Category:    category,
		Difficulty:  models.DifficultyEasy,
		TestCases:   datatypes.JSON(`[{"input":[1,2],"output":3}]`),
	}
	if err := db.Create(q).Error; err != nil {
		t.Fatalf("failed to create question: %v", err)
	}
	return q
}

// CompletedSession inserts a completed session that ended at endedAt
func CompletedSession(t *testing.T, db *gorm.DB, userID uint, score, total, correct int, endedAt time.Time) *models.QuizSession {
	t.Helper()
	s := &models.QuizSession{
		UserID:         userID,
		Title:          "Fixture",
		QuizType:       models.QuizPractice,
		Status:         models.SessionCompleted,
		TotalScore:     score,
		TotalQuestions: total,
		CorrectAnswers: correct,
		Accuracy:       models.Percentage(correct, total),
		TimeStarted:    endedAt.Add(-10 * time.Minute),
		TimeEnded:      &endedAt,
	}
	if err := db.Create(s).Error; err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	return s
}

// AddAnswer inserts an answer for questionID in sessionID
func AddAnswer(t *testing.T, db *gorm.DB, sessionID, questionID uint, correct bool) *models.Answer {
	t.Helper()
	a := &models.Answer{
		SessionID:   sessionID,
		QuestionID:  questionID,
		UserCode:    "return 1",
		IsCorrect:   correct,
		TestResults: datatypes.JSON("[]"),
	}
	if err := db.Create(a).Error; err != nil {
		t.Fatalf("failed to create answer: %v", err)
	}
	return a
}
