package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pawwalk/pawwalk/internal/middleware"
	"github.com/pawwalk/pawwalk/internal/services"
	appErrors "github.com/pawwalk/pawwalk/pkg/errors"
	"github.com/pawwalk/pawwalk/pkg/response"
)

// PetShareHandler exposes the share request workflow.
type PetShareHandler struct {
	service *services.PetShareService
}

// NewPetShareHandler constructs a share handler.
func NewPetShareHandler(service *services.PetShareService) *PetShareHandler {
	return &PetShareHandler{service: service}
}

type createShareRequest struct {
	Message string `json:"message" validate:"max=255"`
}

type respondShareRequest struct {
	Status string `json:"status" validate:"required"`
}

// Create files a share request for the pet behind the search code in :id.
func (h *PetShareHandler) Create(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, appErrors.ErrShareUnauthorized)
		return
	}
	code, ok := pathParam(c, "id", appErrors.ErrSharePetNotFound)
	if !ok {
		return
	}

	var req createShareRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	request, err := h.service.CreateRequest(requestContext(c), code, userID, req.Message)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"request_id": request.ID,
		"pet_id":     request.PetID,
		"request":    request,
	})
}

// Respond approves or rejects a pending request.
func (h *PetShareHandler) Respond(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	requestID, ok := pathParam(c, "request_id", appErrors.ErrApproveRequestNotFound)
	if !ok {
		return
	}

	var req respondShareRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Status == "" {
		response.Error(c, appErrors.ErrApproveInvalidDecision)
		return
	}

	result, err := h.service.Respond(requestContext(c), requestID, req.Status, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// ListMine pages through requests the caller has filed.
func (h *PetShareHandler) ListMine(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	page, err := h.service.ListMine(requestContext(c), userID, parseIntQuery(c, "page", 1), parseIntQuery(c, "size", 20))
	if err != nil {
		response.Error(c, err)
		return
	}

	respondSharePage(c, page)
}

// ListReceived pages through requests for pets the caller owns.
func (h *PetShareHandler) ListReceived(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	page, err := h.service.ListReceived(requestContext(c), userID, parseIntQuery(c, "page", 1), parseIntQuery(c, "size", 20))
	if err != nil {
		response.Error(c, err)
		return
	}

	respondSharePage(c, page)
}

func respondSharePage(c *gin.Context, page *services.ShareRequestPage) {
	response.Success(c, http.StatusOK, gin.H{
		"requests":    page.Items,
		"page":        page.Page,
		"size":        page.Size,
		"total_count": page.TotalCount,
	})
}
