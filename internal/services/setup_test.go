package services

import (
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/practice-service/internal/config"
	"github.com/SAP-F-2025/practice-service/internal/events"
	"github.com/SAP-F-2025/practice-service/internal/models"
	"github.com/SAP-F-2025/practice-service/internal/repositories"
	"github.com/SAP-F-2025/practice-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/practice-service/internal/testutil"
	"github.com/SAP-F-2025/practice-service/internal/validator"
)

type fixture struct {
	db        *gorm.DB
	repo      repositories.Repository
	validator *validator.Validator
	publisher *events.MockEventPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	return &fixture{
		db:        db,
		repo:      postgres.NewPostgreSQLRepository(postgres.RepositoryConfig{DB: db}),
		validator: validator.New(),
		publisher: events.NewMockEventPublisher(nil),
	}
}

func (f *fixture) sessions() SessionService {
	return NewSessionService(f.repo, f.db, testutil.Logger(), f.validator, NewStubGrader(), f.publisher)
}

func (f *fixture) stats() StatsService {
	return NewStatsService(f.repo, f.db, testutil.Logger())
}

func (f *fixture) admin(t *testing.T) *models.User {
	t.Helper()
	u := testutil.CreateUser(t, f.db, "admin")
	if err := f.db.Model(u).Update("role", models.RoleAdmin).Error; err != nil {
		t.Fatalf("failed to promote admin: %v", err)
	}
	u.Role = models.RoleAdmin
	return u
}

// quiz inserts an active quiz holding questions in order
func (f *fixture) quiz(t *testing.T, name string, questions ...*models.Question) *models.Quiz {
	t.Helper()
	q := &models.Quiz{Name: name, QuizType: models.QuizPractice, TimeLimit: 30, Difficulty: models.DifficultyEasy, IsActive: true}
	if err := f.db.Create(q).Error; err != nil {
		t.Fatalf("failed to create quiz: %v", err)
	}
	for i, question := range questions {
		row := models.QuizQuestion{QuizID: q.ID, QuestionID: question.ID, Order: i + 1}
		if err := f.db.Omit("Question").Create(&row).Error; err != nil {
			t.Fatalf("failed to add quiz question: %v", err)
		}
	}
	return q
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:        "test-secret",
		Issuer:        "practice-service-test",
		AccessTTL:     time.Hour,
		RefreshTTL:    24 * time.Hour,
		ResetTokenTTL: time.Hour,
	}
}
