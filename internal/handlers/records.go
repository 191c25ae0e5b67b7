package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pawwalk/pawwalk/internal/services"
	"github.com/pawwalk/pawwalk/pkg/response"
)

// RecordHandler serves the read side of a pet's walk history.
type RecordHandler struct {
	walks  *services.WalkService
	photos *services.PhotoService
}

// NewRecordHandler constructs a record handler.
func NewRecordHandler(walks *services.WalkService, photos *services.PhotoService) *RecordHandler {
	return &RecordHandler{walks: walks, photos: photos}
}

// Walks lists a pet's walks, optionally limited to start_date..end_date.
func (h *RecordHandler) Walks(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	walks, err := h.walks.List(requestContext(c), userID, c.Query("pet_id"), c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"walks": walks})
}

// Photos pages through a pet's photo album. Pages are 0-based.
func (h *RecordHandler) Photos(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	page, err := h.photos.List(requestContext(c), userID, services.ListPhotosInput{
		PetID:     c.Query("pet_id"),
		StartDate: c.Query("start_date"),
		EndDate:   c.Query("end_date"),
		Page:      parseIntQuery(c, "page", 0),
		Size:      parseIntQuery(c, "size", 20),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"pet_id":      page.PetID,
		"photos":      page.Items,
		"page":        page.Page,
		"size":        page.Size,
		"total_count": page.TotalCount,
	})
}

// Recent returns the last three walks of a pet.
func (h *RecordHandler) Recent(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	petID := c.Query("pet_id")
	activities, err := h.walks.Recent(requestContext(c), userID, petID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"pet_id": petID, "recent_activities": activities})
}
