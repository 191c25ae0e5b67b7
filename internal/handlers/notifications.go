package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pawwalk/pawwalk/internal/services"
	appErrors "github.com/pawwalk/pawwalk/pkg/errors"
	"github.com/pawwalk/pawwalk/pkg/response"
)

// NotificationHandler exposes HTTP endpoints for notifications.
type NotificationHandler struct {
	service *services.NotificationService
}

// NewNotificationHandler constructs a notification handler.
func NewNotificationHandler(service *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// List returns notifications visible to the current user. Pages are 0-based.
func (h *NotificationHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	page, err := h.service.List(requestContext(c), services.ListNotificationsInput{
		UserID: userID,
		PetID:  strings.TrimSpace(c.Query("pet_id")),
		Type:   strings.TrimSpace(c.Query("type")),
		Page:   parseIntQuery(c, "page", 0),
		Size:   parseIntQuery(c, "size", 20),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"notifications": page.Items,
		"page":          page.Page,
		"size":          page.Size,
		"total_count":   page.TotalCount,
	})
}

// MarkRead records that the current user has read a notification.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathParam(c, "id", appErrors.ErrNotificationReadNotFound)
	if !ok {
		return
	}

	status, err := h.service.MarkRead(requestContext(c), id, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"notification_id": id, "read_status": status})
}
