package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/practice-service/internal/models"
	"github.com/SAP-F-2025/practice-service/internal/services"
	"github.com/SAP-F-2025/practice-service/internal/utils"
	"github.com/SAP-F-2025/practice-service/internal/validator"
)

type ErrorResponse = models.ErrorResponse

// BaseHandler carries the logger and the error mapping shared by every handler
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	utils.GetLogger(c, h.logger).Debug(msg, args...)
}

func (h *BaseHandler) LogError(c *gin.Context, err error, msg string, args ...any) {
	args = append(args, "error", err)
	utils.GetLogger(c, h.logger).Error(msg, args...)
}

// RespondWithError writes the standard error envelope
func (h *BaseHandler) RespondWithError(c *gin.Context, status int, message string, details interface{}) {
	if err, ok := details.(error); ok {
		details = err.Error()
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:     http.StatusText(status),
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
		Path:      c.Request.URL.Path,
	})
}

// HandleServiceError maps service errors to HTTP responses
func (h *BaseHandler) HandleServiceError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		h.RespondWithError(c, http.StatusBadRequest, "Validation failed", validationErrors)
		return
	}

	var businessRuleError *services.BusinessRuleError
	if errors.As(err, &businessRuleError) {
		h.RespondWithError(c, http.StatusBadRequest, businessRuleError.Message, map[string]interface{}{
			"rule":    businessRuleError.Rule,
			"context": businessRuleError.Context,
		})
		return
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		h.RespondWithError(c, http.StatusForbidden, "Access denied", map[string]interface{}{
			"resource": permissionError.Resource,
			"action":   permissionError.Action,
			"reason":   permissionError.Reason,
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrQuestionNotFound):
		h.RespondWithError(c, http.StatusNotFound, "Question not found", nil)
	case errors.Is(err, services.ErrQuizNotFound):
		h.RespondWithError(c, http.StatusNotFound, "Quiz not found", nil)
	case errors.Is(err, services.ErrSessionNotFound):
		h.RespondWithError(c, http.StatusNotFound, "Session not found", nil)
	case errors.Is(err, services.ErrBookmarkNotFound):
		h.RespondWithError(c, http.StatusNotFound, "Bookmark not found", nil)
	case errors.Is(err, services.ErrUserNotFound):
		h.RespondWithError(c, http.StatusNotFound, "User not found", nil)
	case errors.Is(err, services.ErrLeaderboardEntryNotFound):
		h.RespondWithError(c, http.StatusNotFound, "No leaderboard entry for this period", nil)
	case errors.Is(err, services.ErrInvalidCredentials):
		h.RespondWithError(c, http.StatusUnauthorized, "Invalid username/email or password", nil)
	case errors.Is(err, services.ErrInvalidAccessToken),
		errors.Is(err, services.ErrInvalidRefreshToken),
		errors.Is(err, services.ErrInvalidSSOToken):
		h.RespondWithError(c, http.StatusUnauthorized, "Invalid or expired token", nil)
	case errors.Is(err, services.ErrInvalidResetUser):
		h.RespondWithError(c, http.StatusBadRequest, "Invalid user", nil)
	case errors.Is(err, services.ErrInvalidResetToken):
		h.RespondWithError(c, http.StatusBadRequest, "Invalid token", nil)
	case errors.Is(err, services.ErrSSODisabled):
		h.RespondWithError(c, http.StatusServiceUnavailable, "SSO login is not configured", nil)
	default:
		h.LogError(c, err, "Unhandled service error")
		h.RespondWithError(c, http.StatusInternalServerError, "Internal server error", nil)
	}
}

// bindJSON decodes the body and writes a 400 on failure
func (h *BaseHandler) bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err)
		return false
	}
	return true
}

func (h *BaseHandler) parseIDParam(c *gin.Context, param string) uint {
	id, err := strconv.ParseUint(c.Param(param), 10, 32)
	if err != nil || id == 0 {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid "+param, nil)
		return 0
	}
	return uint(id)
}

// parsePage reads page and page_size; bad values fall back to the defaults
func (h *BaseHandler) parsePage(c *gin.Context) models.PageParams {
	return models.PageParams{
		Page:     parseIntQuery(c, "page", 1),
		PageSize: parseIntQuery(c, "page_size", models.DefaultPageSize),
	}.Normalize()
}

func parseIntQuery(c *gin.Context, param string, defaultValue int) int {
	valueStr := c.Query(param)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func (h *BaseHandler) parsePeriod(c *gin.Context) (models.LeaderboardPeriod, bool) {
	period := models.LeaderboardPeriod(c.DefaultQuery("period", string(models.PeriodWeek)))
	if !period.IsValid() {
		h.RespondWithError(c, http.StatusBadRequest, "Validation failed",
			validator.Field("period", `"`+string(period)+`" is not a valid choice.`))
		return "", false
	}
	return period, true
}

// currentUserID returns the authenticated user; AuthMiddleware guarantees it on protected routes
func (h *BaseHandler) currentUserID(c *gin.Context) (uint, bool) {
	if v, ok := c.Get(contextUserID); ok {
		if id, ok := v.(uint); ok && id != 0 {
			return id, true
		}
	}
	h.RespondWithError(c, http.StatusUnauthorized, "User not authenticated", nil)
	return 0, false
}
