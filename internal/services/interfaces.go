package services

import (
	"context"
	"io"

	"github.com/SAP-F-2025/practice-service/internal/events"
	"github.com/SAP-F-2025/practice-service/internal/models"
	"github.com/SAP-F-2025/practice-service/internal/repositories"
	"github.com/SAP-F-2025/practice-service/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

// Use business validator types
type RegisterRequest = validator.RegisterRequest
type LoginRequest = validator.LoginRequest
type RefreshRequest = validator.RefreshRequest
type SSOLoginRequest = validator.SSOLoginRequest
type PasswordResetRequest = validator.PasswordResetRequest
type PasswordResetConfirmRequest = validator.PasswordResetConfirmRequest

type CreateQuestionRequest = validator.QuestionCreateRequest
type UpdateQuestionRequest = validator.QuestionUpdateRequest
type CreateQuizRequest = validator.QuizCreateRequest
type UpdateQuizRequest = validator.QuizUpdateRequest

type CreateCustomSessionRequest = validator.CreateCustomSessionRequest
type SubmitAnswerRequest = validator.SubmitAnswerRequest
type RunCodeRequest = validator.RunCodeRequest

type UpdatePreferencesRequest = validator.UpdatePreferencesRequest
type ToggleBookmarkRequest = validator.ToggleBookmarkRequest
type UpdateBookmarkRequest = validator.UpdateBookmarkRequest

// UserSummary is the public part of a user
type UserSummary struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func NewUserSummary(u *models.User) *UserSummary {
	return &UserSummary{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type AuthResponse struct {
	User *UserSummary `json:"user"`
	TokenPair
}

type PasswordResetResponse struct {
	Message string `json:"message"`
	UID     string `json:"uid"`
	Token   string `json:"token"`
}

// Claims is what AuthMiddleware needs from a verified access token
type Claims struct {
	UserID   uint
	Username string
	Role     models.UserRole
}

type QuestionListResponse struct {
	Questions []models.Question
	Total     int64
}

type QuizListResponse struct {
	Quizzes []*models.Quiz
	Total   int64
}

// SessionResponse adds the display name to a session
type SessionResponse struct {
	*models.QuizSession
	QuizName string `json:"quiz_name"`
}

func NewSessionResponse(s *models.QuizSession) *SessionResponse {
	return &SessionResponse{QuizSession: s, QuizName: s.DisplayName()}
}

type SessionListResponse struct {
	Sessions []*SessionResponse
	Total    int64
}

type RunCodeResponse struct {
	Results []models.TestResult `json:"results"`
}

// BookmarkToggleResult holds the created bookmark, or Deleted when the toggle removed it
type BookmarkToggleResult struct {
	Bookmark *models.Bookmark
	Deleted  bool
}

type BookmarkListResponse struct {
	Bookmarks []*models.Bookmark
	Total     int64
}

type LeaderboardListResponse struct {
	Entries []*models.Leaderboard
	Total   int64
}

// StatsRunSummary reports a RecomputeAll pass
type StatsRunSummary struct {
	Scanned int `json:"scanned"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

// ===== SERVICE INTERFACES =====

type AuthService interface {
	Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error)
	Refresh(ctx context.Context, req *RefreshRequest) (*TokenPair, error)
	SSOLogin(ctx context.Context, req *SSOLoginRequest) (*AuthResponse, error)
	CurrentUser(ctx context.Context, userID uint) (*UserSummary, error)

	RequestPasswordReset(ctx context.Context, req *PasswordResetRequest) (*PasswordResetResponse, error)
	ConfirmPasswordReset(ctx context.Context, req *PasswordResetConfirmRequest) error

	// ParseAccessToken validates a bearer token for the auth middleware
	ParseAccessToken(token string) (*Claims, error)
}

type QuestionService interface {
	Create(ctx context.Context, req *CreateQuestionRequest, userID uint) (*models.Question, error)
	GetByID(ctx context.Context, id uint) (*models.Question, error)
	Update(ctx context.Context, id uint, req *UpdateQuestionRequest, userID uint) (*models.Question, error)
	Delete(ctx context.Context, id uint, userID uint) error

	List(ctx context.Context, filters repositories.QuestionFilters) (*QuestionListResponse, error)
	CountByCategory(ctx context.Context) (map[string]models.ChoiceCount, error)
	CountByDifficulty(ctx context.Context) (map[string]models.ChoiceCount, error)
}

type QuizService interface {
	Create(ctx context.Context, req *CreateQuizRequest, userID uint) (*models.Quiz, error)
	GetByID(ctx context.Context, id uint) (*models.Quiz, error)
	Update(ctx context.Context, id uint, req *UpdateQuizRequest, userID uint) (*models.Quiz, error)
	Delete(ctx context.Context, id uint, userID uint) error

	List(ctx context.Context, filters repositories.QuizFilters) (*QuizListResponse, error)
	ByType(ctx context.Context, quizType string) ([]*models.Quiz, error)
}

type SessionService interface {
	Start(ctx context.Context, quizID uint, userID uint) (*SessionResponse, error)
	CreateCustom(ctx context.Context, req *CreateCustomSessionRequest, userID uint) (*SessionResponse, error)
	SubmitAnswer(ctx context.Context, sessionID uint, req *SubmitAnswerRequest, userID uint) (*models.Answer, error)
	Finish(ctx context.Context, sessionID uint, userID uint) (*SessionResponse, error)
	Abandon(ctx context.Context, sessionID uint, userID uint) (*SessionResponse, error)

	Get(ctx context.Context, sessionID uint, userID uint) (*SessionResponse, error)
	List(ctx context.Context, userID uint, filters repositories.SessionFilters) (*SessionListResponse, error)
	GetAnswers(ctx context.Context, sessionID uint, userID uint) ([]*models.Answer, error)

	RunCode(ctx context.Context, req *RunCodeRequest) (*RunCodeResponse, error)
}

// StatsService is the stat aggregator
type StatsService interface {
	Recompute(ctx context.Context, userID uint) (*models.UserProfile, error)
	RecomputeAll(ctx context.Context) (*StatsRunSummary, error)

	// HandleSessionCompleted is the session.completed subscriber
	HandleSessionCompleted(ctx context.Context, event *events.Event) error
}

// LeaderboardService is the leaderboard ranker and its read side
type LeaderboardService interface {
	Recompute(ctx context.Context, period models.LeaderboardPeriod) (int, error)
	RecomputeAll(ctx context.Context) (map[models.LeaderboardPeriod]int, error)

	List(ctx context.Context, period models.LeaderboardPeriod, page models.PageParams) (*LeaderboardListResponse, error)
	Top(ctx context.Context, period models.LeaderboardPeriod, n int) ([]*models.Leaderboard, error)
	GetUserEntry(ctx context.Context, period models.LeaderboardPeriod, userID uint) (*models.Leaderboard, error)
	Export(ctx context.Context, period models.LeaderboardPeriod, w io.Writer) error
}

type ProfileService interface {
	Me(ctx context.Context, userID uint) (*models.UserProfile, error)
	UpdatePreferences(ctx context.Context, userID uint, req *UpdatePreferencesRequest) (*models.UserProfile, error)
}

type BookmarkService interface {
	Toggle(ctx context.Context, userID uint, req *ToggleBookmarkRequest) (*BookmarkToggleResult, error)
	List(ctx context.Context, userID uint, page models.PageParams) (*BookmarkListResponse, error)
	IsBookmarked(ctx context.Context, userID, questionID uint) (bool, error)
	Update(ctx context.Context, userID, id uint, req *UpdateBookmarkRequest) (*models.Bookmark, error)
	Delete(ctx context.Context, userID, id uint) error
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	// Core service getters
	Auth() AuthService
	Question() QuestionService
	Quiz() QuizService
	Session() SessionService
	Stats() StatsService
	Leaderboard() LeaderboardService
	Profile() ProfileService
	Bookmark() BookmarkService

	// Health and lifecycle
	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
