package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pawwalk/pawwalk/internal/services"
	"github.com/pawwalk/pawwalk/pkg/response"
)

// UserHandler exposes the caller's own profile.
type UserHandler struct {
	service *services.UserService
}

// NewUserHandler constructs a user handler.
func NewUserHandler(service *services.UserService) *UserHandler {
	return &UserHandler{service: service}
}

type updateProfileRequest struct {
	Nickname      *string `json:"nickname" validate:"omitempty,max=50"`
	Phone         *string `json:"phone" validate:"omitempty,max=30"`
	ProfileImgURL *string `json:"profile_img_url" validate:"omitempty,url"`
}

type updateFCMTokenRequest struct {
	FCMToken string `json:"fcm_token" validate:"required"`
}

// Me returns the authenticated user's profile.
func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	user, err := h.service.GetByID(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user": user})
}

// UpdateMe patches nickname, phone and profile image.
func (h *UserHandler) UpdateMe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req updateProfileRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.service.UpdateProfile(requestContext(c), userID, services.UpdateProfileInput{
		Nickname:      req.Nickname,
		Phone:         req.Phone,
		ProfileImgURL: req.ProfileImgURL,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user": user})
}

// UpdateFCMToken stores the device push token.
func (h *UserHandler) UpdateFCMToken(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req updateFCMTokenRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.service.UpdateFCMToken(requestContext(c), userID, req.FCMToken); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"updated": true})
}
