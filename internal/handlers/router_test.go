package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/practice-service/internal/config"
	"github.com/SAP-F-2025/practice-service/internal/models"
	"github.com/SAP-F-2025/practice-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/practice-service/internal/services"
	"github.com/SAP-F-2025/practice-service/internal/testutil"
	"github.com/SAP-F-2025/practice-service/internal/utils"
	"github.com/SAP-F-2025/practice-service/internal/validator"
)

type testServer struct {
	t      *testing.T
	db     *gorm.DB
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewTestDB(t)
	repo := postgres.NewPostgreSQLRepository(postgres.RepositoryConfig{DB: db})
	sm := services.NewServiceManager(db, repo, testutil.Logger(), validator.New(), services.ServiceManagerConfig{
		JWT: config.JWTConfig{
			Secret:     "handler-test-secret",
			Issuer:     "practice-service-test",
			AccessTTL:  time.Hour,
			RefreshTTL: 24 * time.Hour,
		},
	})
	require.NoError(t, sm.Initialize(context.Background()))

	logger := utils.NewSlogLogger(testutil.Logger())
	router := gin.New()
	SetupMiddleware(router, logger)
	NewHandlerManager(sm, logger, 600).SetupRoutes(router)

	return &testServer{t: t, db: db, router: router}
}

func (s *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// register creates an account and returns its access token
func (s *testServer) register(username string) string {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"username":         username,
		"email":            username + "@example.com",
		"password":         "s3cret-pass",
		"password_confirm": "s3cret-pass",
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[services.AuthResponse](s.t, w).Access
}

// admin registers a user, promotes it and logs in again so the token carries the role
func (s *testServer) admin() string {
	s.t.Helper()
	s.register("root")
	require.NoError(s.t, s.db.Model(&models.User{}).Where("username = ?", "root").Update("role", models.RoleAdmin).Error)

	w := s.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"username": "root", "password": "s3cret-pass"})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	return decode[services.AuthResponse](s.t, w).Access
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode[map[string]interface{}](t, w)["status"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)

	token := s.register("alice")

	w := s.do(http.MethodGet, "/api/v1/auth/current-user", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", decode[services.UserSummary](t, w).Username)

	w = s.do(http.MethodGet, "/api/v1/auth/current-user", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/api/v1/auth/current-user", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"username": "alice", "password": "nope-nope"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid username/email or password", decode[ErrorResponse](t, w).Message)

	w = s.do(http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"username":         "alice",
		"email":            "alice@example.com",
		"password":         "s3cret-pass",
		"password_confirm": "s3cret-pass",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode[struct {
		Details []validator.ValidationError `json:"details"`
	}](t, w)
	require.Len(t, body.Details, 2)
	assert.Equal(t, "username", body.Details[0].Field)
	assert.Equal(t, "email", body.Details[1].Field)
}

func TestPasswordResetFlow(t *testing.T) {
	s := newTestServer(t)
	s.register("alice")

	w := s.do(http.MethodPost, "/api/v1/auth/password-reset-request", "", gin.H{"email": "alice@example.com"})
	require.Equal(t, http.StatusOK, w.Code)
	reset := decode[services.PasswordResetResponse](t, w)

	w = s.do(http.MethodPost, "/api/v1/auth/password-reset-confirm", "", gin.H{
		"uid": reset.UID, "token": "bogus", "password": "another-pass", "password_confirm": "another-pass",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid token", decode[ErrorResponse](t, w).Message)

	w = s.do(http.MethodPost, "/api/v1/auth/password-reset-confirm", "", gin.H{
		"uid": reset.UID, "token": reset.Token, "password": "another-pass", "password_confirm": "another-pass",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Password reset successful", decode[map[string]string](t, w)["message"])

	w = s.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"username": "alice@example.com", "password": "another-pass"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSSODisabled(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/v1/auth/sso", "", gin.H{"token": "anything"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestCatalogRoutes(t *testing.T) {
	s := newTestServer(t)
	user := s.register("alice")
	admin := s.admin()

	question := gin.H{
		"title":       "Two Sum",
		"description": "Find two numbers",
		"topic":       "dsa",
		"category":    "arrays",
		"difficulty":  "easy",
		"test_cases":  []gin.H{{"input": []int{2, 7}, "output": 9}},
	}

	w := s.do(http.MethodPost, "/api/v1/questions", "", question)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/api/v1/questions", user, question)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, "/api/v1/questions", admin, question)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[models.Question](t, w)

	w = s.do(http.MethodGet, "/api/v1/questions?search=two&page_size=500", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[models.PaginatedResponse](t, w)
	assert.EqualValues(t, 1, page.Count)
	assert.Equal(t, models.MaxPageSize, page.PageSize)
	assert.Equal(t, 1, page.TotalPages)

	w = s.do(http.MethodGet, "/api/v1/questions/by-category", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	counts := decode[map[string]models.ChoiceCount](t, w)
	assert.Equal(t, models.ChoiceCount{Name: "Arrays", Count: 1}, counts["arrays"])

	w = s.do(http.MethodGet, "/api/v1/questions/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(http.MethodGet, "/api/v1/questions/9999", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodPost, "/api/v1/quizzes", admin, gin.H{
		"name":         "Warmup",
		"quiz_type":    "practice",
		"difficulty":   "easy",
		"question_ids": []uint{created.ID},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/api/v1/quizzes/by-type", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/v1/quizzes/by-type?type=practice", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Quiz](t, w), 1)

	w = s.do(http.MethodDelete, fmt.Sprintf("/api/v1/questions/%d", created.ID), admin, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestSessionRoutes(t *testing.T) {
	s := newTestServer(t)
	alice := s.register("alice")
	bob := s.register("bob")

	q1 := testutil.CreateQuestion(t, s.db, "Two Sum", "arrays")
	quiz := &models.Quiz{Name: "Warmup", QuizType: models.QuizPractice, Difficulty: models.DifficultyEasy, IsActive: true}
	require.NoError(t, s.db.Create(quiz).Error)
	require.NoError(t, s.db.Omit("Question").Create(&models.QuizQuestion{QuizID: quiz.ID, QuestionID: q1.ID, Order: 1}).Error)

	w := s.do(http.MethodPost, fmt.Sprintf("/api/v1/quizzes/%d/start", quiz.ID), alice, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	session := decode[services.SessionResponse](t, w)
	assert.Equal(t, "Warmup", session.QuizName)
	sessionPath := fmt.Sprintf("/api/v1/sessions/%d", session.ID)

	w = s.do(http.MethodGet, sessionPath, bob, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	answer := gin.H{"question_id": q1.ID, "code": "return a + b"}
	w = s.do(http.MethodPost, sessionPath+"/submit-answer", alice, answer)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, decode[models.Answer](t, w).IsCorrect)

	w = s.do(http.MethodPost, sessionPath+"/finish", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	finished := decode[services.SessionResponse](t, w)
	assert.Equal(t, models.SessionCompleted, finished.Status)
	assert.InDelta(t, 100.0, finished.Accuracy, 0.001)

	w = s.do(http.MethodPost, sessionPath+"/submit-answer", alice, answer)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Quiz session already completed", decode[ErrorResponse](t, w).Message)

	w = s.do(http.MethodGet, sessionPath+"/answers", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Answer](t, w), 1)

	w = s.do(http.MethodGet, "/api/v1/sessions?status=completed", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode[models.PaginatedResponse](t, w).Count)

	w = s.do(http.MethodPost, "/api/v1/sessions/custom", alice, gin.H{"questions": []uint{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/v1/submissions/run", alice, gin.H{"code": "print(1)"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodPost, "/api/v1/profile/me/recompute", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[models.UserProfile](t, w).TotalQuestionsSolved)
}

func TestBookmarkToggleRoute(t *testing.T) {
	s := newTestServer(t)
	token := s.register("alice")
	q := testutil.CreateQuestion(t, s.db, "Two Sum", "arrays")

	w := s.do(http.MethodPost, "/api/v1/bookmarks", token, gin.H{"question_id": q.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodGet, fmt.Sprintf("/api/v1/bookmarks/is-bookmarked?question_id=%d", q.ID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode[map[string]bool](t, w)["is_bookmarked"])

	w = s.do(http.MethodPost, "/api/v1/bookmarks", token, gin.H{"question_id": q.ID})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]bool{"deleted": true}, decode[map[string]bool](t, w))

	var count int64
	require.NoError(t, s.db.Model(&models.Bookmark{}).Count(&count).Error)
	assert.Zero(t, count)

	w = s.do(http.MethodGet, "/api/v1/bookmarks/is-bookmarked", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLeaderboardRoutes(t *testing.T) {
	s := newTestServer(t)
	user := s.register("alice")
	admin := s.admin()

	var alice models.User
	require.NoError(t, s.db.Where("username = ?", "alice").First(&alice).Error)
	testutil.CompletedSession(t, s.db, alice.ID, 30, 3, 3, time.Now().UTC())

	w := s.do(http.MethodGet, "/api/v1/leaderboard?period=year", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/v1/leaderboard/recompute", user, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, "/api/v1/leaderboard/recompute", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/v1/leaderboard", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode[models.PaginatedResponse](t, w).Count)

	w = s.do(http.MethodGet, "/api/v1/leaderboard/top?period=all_time&limit=5", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	top := decode[[]models.Leaderboard](t, w)
	require.Len(t, top, 1)
	assert.Equal(t, 1, top[0].Rank)

	w = s.do(http.MethodGet, "/api/v1/leaderboard/me?period=month", user, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 30, decode[models.Leaderboard](t, w).Score)

	w = s.do(http.MethodGet, "/api/v1/leaderboard/me", admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodGet, "/api/v1/leaderboard/export?period=all_time", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "leaderboard-all_time-")
	assert.NotZero(t, w.Body.Len())
}

func TestIPRateLimiter(t *testing.T) {
	limiter := NewIPRateLimiter(2)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.False(t, limiter.Allow("10.0.0.1"))
	assert.True(t, limiter.Allow("10.0.0.2"))

	// Two per minute refills one token every 30s
	now = now.Add(31 * time.Second)
	assert.True(t, limiter.Allow("10.0.0.1"))
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/limited", RateLimitMiddleware(NewIPRateLimiter(1), utils.NewSlogLogger(testutil.Logger())), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/limited", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)
}
