package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/practice-service/internal/models"
	"github.com/SAP-F-2025/practice-service/internal/services"
	"github.com/SAP-F-2025/practice-service/internal/utils"
)

// ProfileHandler serves the caller's own profile and bookmarks
type ProfileHandler struct {
	BaseHandler
	profileService  services.ProfileService
	statsService    services.StatsService
	bookmarkService services.BookmarkService
}

func NewProfileHandler(
	profileService services.ProfileService,
	statsService services.StatsService,
	bookmarkService services.BookmarkService,
	logger utils.Logger,
) *ProfileHandler {
	return &ProfileHandler{
		BaseHandler:     NewBaseHandler(logger),
		profileService:  profileService,
		statsService:    statsService,
		bookmarkService: bookmarkService,
	}
}

func (h *ProfileHandler) Me(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	profile, err := h.profileService.Me(c.Request.Context(), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

func (h *ProfileHandler) UpdatePreferences(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req services.UpdatePreferencesRequest
	if !h.bindJSON(c, &req) {
		return
	}

	profile, err := h.profileService.UpdatePreferences(c.Request.Context(), userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// Recompute runs the stat aggregator for the caller now
// @Summary Recompute my stats
// @Tags profile
// @Produce json
// @Success 200 {object} models.UserProfile
// @Router /profile/me/recompute [post]
func (h *ProfileHandler) Recompute(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	profile, err := h.statsService.Recompute(c.Request.Context(), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// ===== BOOKMARKS =====

func (h *ProfileHandler) ListBookmarks(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	page := h.parsePage(c)
	res, err := h.bookmarkService.List(c.Request.Context(), userID, page)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.NewPaginatedResponse(res.Bookmarks, res.Total, page))
}

// ToggleBookmark creates the bookmark, or deletes it when it already exists
// @Summary Toggle bookmark
// @Tags bookmarks
// @Accept json
// @Produce json
// @Param request body services.ToggleBookmarkRequest true "Question"
// @Success 201 {object} models.Bookmark
// @Success 200 {object} object{deleted=bool}
// @Router /bookmarks [post]
func (h *ProfileHandler) ToggleBookmark(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req services.ToggleBookmarkRequest
	if !h.bindJSON(c, &req) {
		return
	}

	res, err := h.bookmarkService.Toggle(c.Request.Context(), userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	if res.Deleted {
		c.JSON(http.StatusOK, gin.H{"deleted": true})
		return
	}
	c.JSON(http.StatusCreated, res.Bookmark)
}

func (h *ProfileHandler) IsBookmarked(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	// Unparseable ids become 0, which the service reports as missing
	questionID, _ := strconv.ParseUint(c.Query("question_id"), 10, 32)

	bookmarked, err := h.bookmarkService.IsBookmarked(c.Request.Context(), userID, uint(questionID))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"is_bookmarked": bookmarked})
}

func (h *ProfileHandler) UpdateBookmark(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req services.UpdateBookmarkRequest
	if !h.bindJSON(c, &req) {
		return
	}

	bookmark, err := h.bookmarkService.Update(c.Request.Context(), userID, id, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, bookmark)
}

func (h *ProfileHandler) DeleteBookmark(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	if err := h.bookmarkService.Delete(c.Request.Context(), userID, id); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
