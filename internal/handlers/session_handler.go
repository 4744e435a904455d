package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/practice-service/internal/models"
	"github.com/SAP-F-2025/practice-service/internal/repositories"
	"github.com/SAP-F-2025/practice-service/internal/services"
	"github.com/SAP-F-2025/practice-service/internal/utils"
)

// SessionHandler serves the session lifecycle. Every route is scoped to the caller's sessions.
type SessionHandler struct {
	BaseHandler
	sessionService services.SessionService
}

func NewSessionHandler(sessionService services.SessionService, logger utils.Logger) *SessionHandler {
	return &SessionHandler{
		BaseHandler:    NewBaseHandler(logger),
		sessionService: sessionService,
	}
}

func (h *SessionHandler) ListSessions(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	page := h.parsePage(c)
	filters := repositories.SessionFilters{
		Limit:  page.Limit(),
		Offset: page.Offset(),
	}
	if v := c.Query("status"); v != "" {
		status := models.SessionStatus(v)
		filters.Status = &status
	}

	res, err := h.sessionService.List(c.Request.Context(), userID, filters)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.NewPaginatedResponse(res.Sessions, res.Total, page))
}

func (h *SessionHandler) GetSession(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	session, err := h.sessionService.Get(c.Request.Context(), id, userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

func (h *SessionHandler) GetAnswers(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	answers, err := h.sessionService.GetAnswers(c.Request.Context(), id, userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, answers)
}

// CreateCustom starts a session over an explicit question list
// @Summary Create custom session
// @Tags sessions
// @Accept json
// @Produce json
// @Param request body services.CreateCustomSessionRequest true "Question ids"
// @Success 201 {object} services.SessionResponse
// @Failure 400 {object} ErrorResponse
// @Router /sessions/custom [post]
func (h *SessionHandler) CreateCustom(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req services.CreateCustomSessionRequest
	if !h.bindJSON(c, &req) {
		return
	}

	session, err := h.sessionService.CreateCustom(c.Request.Context(), &req, userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, session)
}

// SubmitAnswer grades and records an answer
// @Summary Submit answer
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path uint true "Session ID"
// @Param request body services.SubmitAnswerRequest true "Answer"
// @Success 200 {object} models.Answer
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id}/submit-answer [post]
func (h *SessionHandler) SubmitAnswer(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req services.SubmitAnswerRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Submitting answer", "session_id", id, "question_id", req.QuestionID)

	answer, err := h.sessionService.SubmitAnswer(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, answer)
}

func (h *SessionHandler) Finish(c *gin.Context) {
	h.close(c, h.sessionService.Finish)
}

func (h *SessionHandler) Abandon(c *gin.Context) {
	h.close(c, h.sessionService.Abandon)
}

func (h *SessionHandler) close(c *gin.Context, fn func(ctx context.Context, sessionID, userID uint) (*services.SessionResponse, error)) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	session, err := fn(c.Request.Context(), id, userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// RunCode runs code against test cases without recording anything
func (h *SessionHandler) RunCode(c *gin.Context) {
	if _, ok := h.currentUserID(c); !ok {
		return
	}

	var req services.RunCodeRequest
	if !h.bindJSON(c, &req) {
		return
	}

	res, err := h.sessionService.RunCode(c.Request.Context(), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}
