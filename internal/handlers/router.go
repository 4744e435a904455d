package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/practice-service/internal/models"
	"github.com/SAP-F-2025/practice-service/internal/services"
	"github.com/SAP-F-2025/practice-service/internal/utils"
)

type HandlerManager struct {
	authHandler        *AuthHandler
	questionHandler    *QuestionHandler
	quizHandler        *QuizHandler
	sessionHandler     *SessionHandler
	profileHandler     *ProfileHandler
	leaderboardHandler *LeaderboardHandler
	authMiddleware     *AuthMiddleware
	authLimiter        *IPRateLimiter

	serviceManager services.ServiceManager
	logger         utils.Logger
}

// NewHandlerManager wires handlers to an initialized service manager. authRate is requests per minute per IP on /auth.
func NewHandlerManager(serviceManager services.ServiceManager, logger utils.Logger, authRate int) *HandlerManager {
	return &HandlerManager{
		authHandler:        NewAuthHandler(serviceManager.Auth(), logger),
		questionHandler:    NewQuestionHandler(serviceManager.Question(), logger),
		quizHandler:        NewQuizHandler(serviceManager.Quiz(), serviceManager.Session(), logger),
		sessionHandler:     NewSessionHandler(serviceManager.Session(), logger),
		profileHandler:     NewProfileHandler(serviceManager.Profile(), serviceManager.Stats(), serviceManager.Bookmark(), logger),
		leaderboardHandler: NewLeaderboardHandler(serviceManager.Leaderboard(), logger),
		authMiddleware:     NewAuthMiddleware(serviceManager.Auth(), NewBaseHandler(logger)),
		authLimiter:        NewIPRateLimiter(authRate),
		serviceManager:     serviceManager,
		logger:             logger,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", hm.HealthCheck)

	required := hm.authMiddleware.Required()
	optional := hm.authMiddleware.Optional()
	admin := hm.authMiddleware.RequireRole(models.RoleAdmin)

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		auth.Use(RateLimitMiddleware(hm.authLimiter, hm.logger))
		{
			auth.POST("/register", hm.authHandler.Register)
			auth.POST("/login", hm.authHandler.Login)
			auth.POST("/refresh", hm.authHandler.Refresh)
			auth.POST("/sso", hm.authHandler.SSOLogin)
			auth.POST("/password-reset-request", hm.authHandler.RequestPasswordReset)
			auth.POST("/password-reset-confirm", hm.authHandler.ConfirmPasswordReset)
			auth.GET("/current-user", required, hm.authHandler.CurrentUser)
		}

		// Catalog reads are public; writes are admin only
		questions := v1.Group("/questions")
		{
			questions.GET("", optional, hm.questionHandler.ListQuestions)
			questions.GET("/by-category", optional, hm.questionHandler.ByCategory)
			questions.GET("/by-difficulty", optional, hm.questionHandler.ByDifficulty)
			questions.GET("/:id", optional, hm.questionHandler.GetQuestion)
			questions.POST("", required, admin, hm.questionHandler.CreateQuestion)
			questions.PUT("/:id", required, admin, hm.questionHandler.UpdateQuestion)
			questions.DELETE("/:id", required, admin, hm.questionHandler.DeleteQuestion)
		}

		quizzes := v1.Group("/quizzes")
		{
			quizzes.GET("", optional, hm.quizHandler.ListQuizzes)
			quizzes.GET("/by-type", optional, hm.quizHandler.ByType)
			quizzes.GET("/:id", optional, hm.quizHandler.GetQuiz)
			quizzes.POST("/:id/start", required, hm.quizHandler.StartQuiz)
			quizzes.POST("", required, admin, hm.quizHandler.CreateQuiz)
			quizzes.PUT("/:id", required, admin, hm.quizHandler.UpdateQuiz)
			quizzes.DELETE("/:id", required, admin, hm.quizHandler.DeleteQuiz)
		}

		sessions := v1.Group("/sessions", required)
		{
			sessions.GET("", hm.sessionHandler.ListSessions)
			sessions.POST("/custom", hm.sessionHandler.CreateCustom)
			sessions.GET("/:id", hm.sessionHandler.GetSession)
			sessions.GET("/:id/answers", hm.sessionHandler.GetAnswers)
			sessions.POST("/:id/submit-answer", hm.sessionHandler.SubmitAnswer)
			sessions.POST("/:id/finish", hm.sessionHandler.Finish)
			sessions.POST("/:id/abandon", hm.sessionHandler.Abandon)
		}

		v1.POST("/submissions/run", required, hm.sessionHandler.RunCode)

		profile := v1.Group("/profile", required)
		{
			profile.GET("/me", hm.profileHandler.Me)
			profile.PATCH("/me", hm.profileHandler.UpdatePreferences)
			profile.POST("/me/recompute", hm.profileHandler.Recompute)
		}

		bookmarks := v1.Group("/bookmarks", required)
		{
			bookmarks.GET("", hm.profileHandler.ListBookmarks)
			bookmarks.POST("", hm.profileHandler.ToggleBookmark)
			bookmarks.GET("/is-bookmarked", hm.profileHandler.IsBookmarked)
			bookmarks.PATCH("/:id", hm.profileHandler.UpdateBookmark)
			bookmarks.DELETE("/:id", hm.profileHandler.DeleteBookmark)
		}

		leaderboard := v1.Group("/leaderboard")
		{
			leaderboard.GET("", optional, hm.leaderboardHandler.ListLeaderboard)
			leaderboard.GET("/top", optional, hm.leaderboardHandler.Top)
			leaderboard.GET("/me", required, hm.leaderboardHandler.Me)
			leaderboard.GET("/export", required, admin, hm.leaderboardHandler.Export)
			leaderboard.POST("/recompute", required, admin, hm.leaderboardHandler.Recompute)
		}
	}
}

// HealthCheck reports database and cache reachability
func (hm *HandlerManager) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if err := hm.serviceManager.HealthCheck(ctx); err != nil {
		utils.GetLogger(c, hm.logger).Warn("Health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "unhealthy",
			"error":     err.Error(),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "practice-service",
	})
}
