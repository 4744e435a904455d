package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/practice-service/internal/models"
	"github.com/SAP-F-2025/practice-service/internal/services"
	"github.com/SAP-F-2025/practice-service/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type LeaderboardHandler struct {
	BaseHandler
	leaderboardService services.LeaderboardService
}

func NewLeaderboardHandler(leaderboardService services.LeaderboardService, logger utils.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{
		BaseHandler:        NewBaseHandler(logger),
		leaderboardService: leaderboardService,
	}
}

// ListLeaderboard returns one period's standings by rank
// @Summary Leaderboard
// @Tags leaderboard
// @Produce json
// @Param period query string false "week (default), month or all_time"
// @Param page query int false "Page number (default: 1)"
// @Param page_size query int false "Page size (default: 20, max: 100)"
// @Success 200 {object} models.PaginatedResponse
// @Router /leaderboard [get]
func (h *LeaderboardHandler) ListLeaderboard(c *gin.Context) {
	period, ok := h.parsePeriod(c)
	if !ok {
		return
	}
	page := h.parsePage(c)

	res, err := h.leaderboardService.List(c.Request.Context(), period, page)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.NewPaginatedResponse(res.Entries, res.Total, page))
}

func (h *LeaderboardHandler) Top(c *gin.Context) {
	period, ok := h.parsePeriod(c)
	if !ok {
		return
	}

	entries, err := h.leaderboardService.Top(c.Request.Context(), period, parseIntQuery(c, "limit", services.DefaultTopN))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, entries)
}

// Me returns the caller's entry for the period
func (h *LeaderboardHandler) Me(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	period, ok := h.parsePeriod(c)
	if !ok {
		return
	}

	entry, err := h.leaderboardService.GetUserEntry(c.Request.Context(), period, userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, entry)
}

// Export downloads a period as an .xlsx workbook
func (h *LeaderboardHandler) Export(c *gin.Context) {
	period, ok := h.parsePeriod(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.leaderboardService.Export(c.Request.Context(), period, &buf); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("leaderboard-%s-%s.xlsx", period, time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// Recompute reranks every period now
func (h *LeaderboardHandler) Recompute(c *gin.Context) {
	results, err := h.leaderboardService.RecomputeAll(c.Request.Context())
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	utils.GetLogger(c, h.logger).Info("Leaderboard recomputed", "results", results)
	c.JSON(http.StatusOK, gin.H{"updated": results})
}
