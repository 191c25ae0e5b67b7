package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pawwalk/pawwalk/internal/services"
	appErrors "github.com/pawwalk/pawwalk/pkg/errors"
	"github.com/pawwalk/pawwalk/pkg/response"
)

const maxPhotoBytes = 10 << 20

// PhotoHandler accepts walk photo uploads.
type PhotoHandler struct {
	service *services.PhotoService
}

// NewPhotoHandler constructs a photo handler.
func NewPhotoHandler(service *services.PhotoService) *PhotoHandler {
	return &PhotoHandler{service: service}
}

// Upload stores the multipart "file" field as a photo of the walk.
func (h *PhotoHandler) Upload(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	walkID, ok := pathParam(c, "id", appErrors.ErrPhotoWalkNotFound)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxPhotoBytes)
	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.ErrPhotoMissingFile.WithInternal(err))
		return
	}

	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.ErrPhotoMissingFile.WithInternal(err))
		return
	}
	defer file.Close()

	photo, err := h.service.Upload(requestContext(c), userID, walkID, services.UploadPhotoInput{
		Body:        file,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Caption:     c.PostForm("caption"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"photo_id": photo.ID, "image_url": photo.ImageURL, "photo": photo})
}
