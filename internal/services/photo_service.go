package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pawwalk/pawwalk/internal/integrations/storage"
	"github.com/pawwalk/pawwalk/internal/models"
	"github.com/pawwalk/pawwalk/internal/permissions"
	apperrors "github.com/pawwalk/pawwalk/pkg/errors"
	"github.com/pawwalk/pawwalk/pkg/logger"
)

const walkPhotoFolder = "walk_photos"

// ObjectStorage uploads a single object and returns its public URL.
type ObjectStorage interface {
	Upload(ctx context.Context, obj storage.Object) (string, error)
}

// UploadPhotoInput is a walk photo received from a client.
type UploadPhotoInput struct {
	Body        io.Reader
	Filename    string
	ContentType string
	Caption     string
}

// PhotoService stores walk photos in object storage.
type PhotoService struct {
	db        *gorm.DB
	authority *permissions.Authority
	storage   ObjectStorage
	now       func() time.Time
	log       *zap.Logger
}

// NewPhotoService constructs a PhotoService. A nil store leaves uploads
// disabled; they fail with PHOTO_503_1.
func NewPhotoService(db *gorm.DB, authority *permissions.Authority, store ObjectStorage) (*PhotoService, error) {
	if db == nil {
		return nil, errors.New("photo service: db is required")
	}
	if authority == nil {
		return nil, errors.New("photo service: authority is required")
	}
	return &PhotoService{
		db:        db,
		authority: authority,
		storage:   store,
		now:       systemNow,
		log:       logger.WithModule("photos"),
	}, nil
}

// Upload stores the image under walk_photos/<walk_id> and records a Photo row.
func (s *PhotoService) Upload(ctx context.Context, userID, walkID string, input UploadPhotoInput) (*models.Photo, error) {
	ctx = ensureContext(ctx)

	if s.storage == nil {
		return nil, apperrors.ErrStorageUnavailable
	}
	if input.Body == nil || strings.TrimSpace(input.Filename) == "" {
		return nil, apperrors.ErrPhotoMissingFile
	}

	ext := strings.ToLower(filepath.Ext(input.Filename))
	contentType := imageContentType(input.ContentType, ext)
	if contentType == "" {
		return nil, apperrors.ErrPhotoUnsupportedType
	}

	var walk models.Walk
	if err := s.db.WithContext(ctx).Take(&walk, "id = ?", strings.TrimSpace(walkID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPhotoWalkNotFound
		}
		return nil, apperrors.ErrStorageUploadFailed.WithInternal(fmt.Errorf("photo service: load walk: %w", err))
	}
	if _, err := s.authority.AuthorizeForPet(ctx, userID, walk.PetID); err != nil {
		return nil, petAccessErrors{notFound: apperrors.ErrPhotoWalkNotFound, forbidden: apperrors.ErrPhotoForbidden}.translate(err)
	}

	folder := path.Join(walkPhotoFolder, walk.ID)
	name := fmt.Sprintf("%d_%s%s", s.now().Unix(), uuid.NewString(), ext)
	url, err := s.storage.Upload(ctx, storage.Object{
		Body:        input.Body,
		Name:        name,
		ContentType: contentType,
		Folder:      folder,
	})
	if err != nil {
		s.log.Warn("photo upload failed", zap.String("walk_id", walk.ID), zap.Error(err))
		return nil, apperrors.ErrStorageUploadFailed.WithInternal(err)
	}

	photo := &models.Photo{
		WalkID:     walk.ID,
		PetID:      walk.PetID,
		UploadedBy: userID,
		ImageURL:   url,
		ObjectKey:  path.Join(folder, name),
		Caption:    strings.TrimSpace(input.Caption),
	}
	photo.CreatedAt = s.now().UTC()
	if err := s.db.WithContext(ctx).Create(photo).Error; err != nil {
		return nil, apperrors.ErrStorageUploadFailed.WithInternal(fmt.Errorf("photo service: save photo: %w", err))
	}
	return photo, nil
}

// PhotoView is a photo album entry.
type PhotoView struct {
	PhotoID       string    `json:"photo_id"`
	WalkID        string    `json:"walk_id"`
	ImageURL      string    `json:"image_url"`
	UploadedBy    UserBrief `json:"uploaded_by"`
	Caption       string    `json:"caption,omitempty"`
	WalkDate      string    `json:"walk_date"`
	WalkStartTime time.Time `json:"walk_start_time"`
	CreatedAt     time.Time `json:"created_at"`
}

// PhotoPage is one 0-based page of a pet's photo album.
type PhotoPage struct {
	PetID      string      `json:"pet_id"`
	Items      []PhotoView `json:"photos"`
	Page       int         `json:"page"`
	Size       int         `json:"size"`
	TotalCount int64       `json:"total_count"`
}

// ListPhotosInput filters the album by the KST days of the walks the photos
// were taken on.
type ListPhotosInput struct {
	PetID     string
	StartDate string
	EndDate   string
	Page      int
	Size      int
}

// List pages through a pet's photos, newest first. Out of range sizes fall
// back to the default rather than being clamped.
func (s *PhotoService) List(ctx context.Context, userID string, input ListPhotosInput) (*PhotoPage, error) {
	ctx = ensureContext(ctx)
	petID := strings.TrimSpace(input.PetID)
	if petID == "" {
		return nil, apperrors.ErrPhotoListPetRequired
	}
	if _, err := s.authority.AuthorizeForPet(ctx, userID, petID); err != nil {
		return nil, petAccessErrors{notFound: apperrors.ErrPhotoListPetNotFound, forbidden: apperrors.ErrPhotoListForbidden}.translate(err)
	}
	days, err := parseDayRange(input.StartDate, input.EndDate)
	if err != nil {
		return nil, dateRangeErrors{format: apperrors.ErrPhotoListDateFormat, order: apperrors.ErrPhotoListDateOrder}.translate(err)
	}

	page, size := input.Page, input.Size
	if page < 0 {
		page = 0
	}
	if size < 1 || size > maxPageSize {
		size = defaultPageSize
	}

	query := s.db.WithContext(ctx).
		Model(&models.Photo{}).
		Joins("JOIN walks ON walks.id = photos.walk_id").
		Where("walks.pet_id = ?", petID)
	query = withStartTimeRange(query, "walks.start_time", days)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, apperrors.ErrPhotoListQuery.WithInternal(fmt.Errorf("photo service: count photos: %w", err))
	}

	var photos []models.Photo
	if err := query.Session(&gorm.Session{}).
		Select("photos.*").
		Order("photos.created_at DESC").
		Order("photos.id DESC").
		Offset(zeroBasedOffset(page, size)).
		Limit(size).
		Find(&photos).Error; err != nil {
		return nil, apperrors.ErrPhotoListQuery.WithInternal(fmt.Errorf("photo service: list photos: %w", err))
	}

	walkIDs := make([]string, 0, len(photos))
	uploaderIDs := make([]string, 0, len(photos))
	for _, photo := range photos {
		walkIDs = append(walkIDs, photo.WalkID)
		uploaderIDs = append(uploaderIDs, photo.UploadedBy)
	}
	walkStarts := make(map[string]time.Time, len(walkIDs))
	if ids := normaliseIDs(walkIDs); len(ids) > 0 {
		var walks []models.Walk
		if err := s.db.WithContext(ctx).Select("id", "start_time").Where("id IN ?", ids).Find(&walks).Error; err != nil {
			return nil, apperrors.ErrPhotoListQuery.WithInternal(fmt.Errorf("photo service: load walks: %w", err))
		}
		for _, walk := range walks {
			walkStarts[walk.ID] = walk.StartTime
		}
	}
	uploaders, err := userBriefs(s.db.WithContext(ctx), uploaderIDs)
	if err != nil {
		return nil, apperrors.ErrPhotoListQuery.WithInternal(err)
	}

	items := make([]PhotoView, 0, len(photos))
	for _, photo := range photos {
		started := walkStarts[photo.WalkID]
		date, _, _ := kstDay(started)
		items = append(items, PhotoView{
			PhotoID:       photo.ID,
			WalkID:        photo.WalkID,
			ImageURL:      photo.ImageURL,
			UploadedBy:    uploaders[photo.UploadedBy],
			Caption:       photo.Caption,
			WalkDate:      date,
			WalkStartTime: started,
			CreatedAt:     photo.CreatedAt,
		})
	}

	return &PhotoPage{PetID: petID, Items: items, Page: page, Size: size, TotalCount: total}, nil
}

// imageContentType returns the image media type for the upload, or "" when it
// is not an image.
func imageContentType(declared, ext string) string {
	declared = strings.TrimSpace(declared)
	if declared != "" {
		mediaType, _, err := mime.ParseMediaType(declared)
		if err == nil && strings.HasPrefix(mediaType, "image/") {
			return mediaType
		}
		if err == nil && mediaType != "application/octet-stream" {
			return ""
		}
	}
	byExt := mime.TypeByExtension(ext)
	if strings.HasPrefix(byExt, "image/") {
		return byExt
	}
	return ""
}
