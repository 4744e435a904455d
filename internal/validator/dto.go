package validator

import (
	"github.com/SAP-F-2025/practice-service/internal/models"
)

// ===== AUTH =====

type RegisterRequest struct {
	Username        string `json:"username" validate:"required,not_blank,max=150"`
	Email           string `json:"email" validate:"required,email,max=255"`
	FirstName       string `json:"first_name" validate:"max=150"`
	LastName        string `json:"last_name" validate:"max=150"`
	Password        string `json:"password" validate:"required,min=8,max=128"`
	PasswordConfirm string `json:"password_confirm" validate:"required,min=8,max=128"`
}

type LoginRequest struct {
	// Username accepts either the username or the email address
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

type SSOLoginRequest struct {
	Token string `json:"token" validate:"required"`
}

type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type PasswordResetConfirmRequest struct {
	UID             string `json:"uid" validate:"required"`
	Token           string `json:"token" validate:"required"`
	Password        string `json:"password" validate:"required,min=8,max=128"`
	PasswordConfirm string `json:"password_confirm" validate:"required,min=8,max=128"`
}

// ===== CATALOG =====

type QuestionCreateRequest struct {
	Title        string                 `json:"title" validate:"required,not_blank,max=255"`
	Description  string                 `json:"description" validate:"required"`
	Topic        models.Topic           `json:"topic" validate:"required,question_topic"`
	Category     string                 `json:"category" validate:"required,question_category"`
	Difficulty   models.DifficultyLevel `json:"difficulty" validate:"required,difficulty_level"`
	TemplateCode string                 `json:"template_code"`
	SolutionCode string                 `json:"solution_code"`
	Explanation  string                 `json:"explanation"`
	VideoURL     *string                `json:"video_url" validate:"omitempty,url,max=500"`
	TestCases    []models.TestCase      `json:"test_cases" validate:"omitempty,max=100"`
}

type QuestionUpdateRequest struct {
	Title        *string                 `json:"title" validate:"omitempty,not_blank,max=255"`
	Description  *string                 `json:"description"`
	Topic        *models.Topic           `json:"topic" validate:"omitempty,question_topic"`
	Category     *string                 `json:"category" validate:"omitempty,question_category"`
	Difficulty   *models.DifficultyLevel `json:"difficulty" validate:"omitempty,difficulty_level"`
	TemplateCode *string                 `json:"template_code"`
	SolutionCode *string                 `json:"solution_code"`
	Explanation  *string                 `json:"explanation"`
	VideoURL     *string                 `json:"video_url" validate:"omitempty,url,max=500"`
	TestCases    []models.TestCase       `json:"test_cases" validate:"omitempty,max=100"`
}

type QuizCreateRequest struct {
	Name        string                 `json:"name" validate:"required,not_blank,max=255"`
	Description string                 `json:"description"`
	QuizType    models.QuizType        `json:"quiz_type" validate:"required,quiz_type"`
	TimeLimit   *int                   `json:"time_limit" validate:"omitempty,min=0,max=600"`
	Difficulty  models.DifficultyLevel `json:"difficulty" validate:"required,difficulty_level"`
	Category    string                 `json:"category" validate:"omitempty,question_category"`
	IsActive    *bool                  `json:"is_active"`
	// Ordered question ids
	QuestionIDs []uint `json:"question_ids" validate:"omitempty,dive,required"`
}

type QuizUpdateRequest struct {
	Name        *string                 `json:"name" validate:"omitempty,not_blank,max=255"`
	Description *string                 `json:"description"`
	QuizType    *models.QuizType        `json:"quiz_type" validate:"omitempty,quiz_type"`
	TimeLimit   *int                    `json:"time_limit" validate:"omitempty,min=0,max=600"`
	Difficulty  *models.DifficultyLevel `json:"difficulty" validate:"omitempty,difficulty_level"`
	Category    *string                 `json:"category" validate:"omitempty,question_category"`
	IsActive    *bool                   `json:"is_active"`
	QuestionIDs []uint                  `json:"question_ids" validate:"omitempty,dive,required"`
}

// ===== SESSIONS =====

type CreateCustomSessionRequest struct {
	Questions []uint          `json:"questions"`
	QuizType  models.QuizType `json:"quiz_type" validate:"omitempty,quiz_type"`
	TimeLimit int             `json:"time_limit" validate:"min=0,max=600"`
	Title     string          `json:"title" validate:"max=255"`
}

type SubmitAnswerRequest struct {
	QuestionID uint   `json:"question_id" validate:"required"`
	Code       string `json:"code" validate:"required"`
}

type RunCodeRequest struct {
	Code      string            `json:"code" validate:"required"`
	TestCases []models.TestCase `json:"test_cases" validate:"max=100"`
}

// ===== PROFILE / BOOKMARKS =====

type UpdatePreferencesRequest struct {
	PreferredDifficulty *models.DifficultyLevel `json:"preferred_difficulty" validate:"omitempty,difficulty_level"`
	PreferredTopic      *models.Topic           `json:"preferred_topic" validate:"omitempty,question_topic"`
	NotificationEnabled *bool                   `json:"notification_enabled"`
}

type ToggleBookmarkRequest struct {
	QuestionID uint `json:"question_id" validate:"required"`
}

type UpdateBookmarkRequest struct {
	Notes    *string `json:"notes" validate:"omitempty,max=5000"`
	IsSolved *bool   `json:"is_solved"`
}
