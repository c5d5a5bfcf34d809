package savedsearch

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"homefinder/internal/pkg/response"
	"homefinder/internal/pkg/validator"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Create handles POST /api/v1/saved-searches
func (h *Handler) Create(c *gin.Context) {
	userID := c.GetInt64("user_id")
	if userID == 0 {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "User not authenticated")
		return
	}

	var req CreateSavedSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body", err.Error())
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid saved search", errs)
		return
	}

	ss, err := h.service.Create(c.Request.Context(), userID, req.Params())
	if err != nil {
		response.FromError(c, err, "Failed to create saved search")
		return
	}

	response.Success(c, http.StatusCreated, SavedSearchResponseFromEntity(ss))
}

// ListMine handles GET /api/v1/saved-searches/mine
func (h *Handler) ListMine(c *gin.Context) {
	userID := c.GetInt64("user_id")
	if userID == 0 {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "User not authenticated")
		return
	}

	searches, err := h.service.ListActive(c.Request.Context(), userID)
	if err != nil {
		response.FromError(c, err, "Failed to get saved searches")
		return
	}

	items := make([]*SavedSearchResponse, len(searches))
	for i, ss := range searches {
		items[i] = SavedSearchResponseFromEntity(ss)
	}
	response.Success(c, http.StatusOK, gin.H{"saved_searches": items})
}

// Delete handles DELETE /api/v1/saved-searches/:id
func (h *Handler) Delete(c *gin.Context) {
	userID := c.GetInt64("user_id")
	if userID == 0 {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "User not authenticated")
		return
	}

	id, ok := parseID(c)
	if !ok {
		return
	}

	removed, err := h.service.Deactivate(c.Request.Context(), id, userID)
	if err != nil {
		response.FromError(c, err, "Failed to delete saved search")
		return
	}
	if !removed {
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Saved search not found")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": "deleted"})
}

// Matches handles GET /api/v1/saved-searches/:id/matches
func (h *Handler) Matches(c *gin.Context) {
	userID := c.GetInt64("user_id")
	if userID == 0 {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "User not authenticated")
		return
	}

	id, ok := parseID(c)
	if !ok {
		return
	}

	matches, err := h.service.FindMatchingListings(c.Request.Context(), id, userID)
	if err != nil {
		response.FromError(c, err, "Failed to find matching listings")
		return
	}

	items := make([]MatchResponse, len(matches))
	for i, m := range matches {
		items[i] = MatchResponseFromMatch(m)
	}
	response.Success(c, http.StatusOK, gin.H{"matches": items, "total": len(items)})
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid saved search ID")
		return 0, false
	}
	return id, true
}

// ListingActivated handles POST /internal/listings/:id/activated, called by
// the listing moderation service when a listing becomes visible.
func (h *Handler) ListingActivated(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid listing ID")
		return
	}

	created, err := h.service.OnListingActivated(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err, "Failed to process listing activation")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"listing_id": id, "notified": created})
}
