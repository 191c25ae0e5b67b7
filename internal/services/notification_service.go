package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/pawwalk/pawwalk/internal/models"
	"github.com/pawwalk/pawwalk/internal/permissions"
	apperrors "github.com/pawwalk/pawwalk/pkg/errors"
	"github.com/pawwalk/pawwalk/pkg/logger"
	"github.com/pawwalk/pawwalk/pkg/metrics"
)

// MarkReadStatus describes the outcome of MarkRead.
type MarkReadStatus string

const (
	MarkReadAlreadyRead MarkReadStatus = "already_read"
	MarkReadMarked      MarkReadStatus = "marked"
)

// CreateNotificationInput describes a notification to persist. A non-empty
// TargetUserID makes it personal; otherwise it is broadcast to FamilyID.
type CreateNotificationInput struct {
	FamilyID         string
	TargetUserID     string
	RelatedPetID     string
	RelatedUserID    string
	RelatedRequestID string
	Type             models.NotificationType
	Title            string
	Message          string
	Latitude         *float64
	Longitude        *float64
	Payload          any
}

// ListNotificationsInput filters the notification feed of UserID.
type ListNotificationsInput struct {
	UserID string
	PetID  string
	Type   string
	Page   int
	Size   int
}

// NotificationItem is a notification enriched with per-viewer read state.
type NotificationItem struct {
	ID                  string                  `json:"notification_id"`
	Type                models.NotificationType `json:"type"`
	Title               string                  `json:"title"`
	Message             string                  `json:"message"`
	FamilyID            string                  `json:"family_id"`
	TargetUserID        *string                 `json:"target_user_id"`
	RelatedPetID        *string                 `json:"related_pet_id"`
	RelatedUserID       *string                 `json:"related_user_id"`
	RelatedLat          *float64                `json:"related_lat"`
	RelatedLng          *float64                `json:"related_lng"`
	ShareRequestID      *string                 `json:"share_request_id"`
	Payload             datatypes.JSON          `json:"payload,omitempty"`
	IsReadByMe          bool                    `json:"is_read_by_me"`
	ReadCount           int                     `json:"read_count"`
	UnreadCount         int                     `json:"unread_count"`
	CreatedAt           time.Time               `json:"created_at"`
	DisplayTypeLabel    string                  `json:"display_type_label"`
	DisplayTime         string                  `json:"display_time"`
	DisplayReadText     string                  `json:"display_read_text"`
	SenderProfileImgURL *string                 `json:"sender_profile_img_url"`
	SenderNickname      *string                 `json:"sender_nickname"`
	IsMe                bool                    `json:"is_me"`
}

// NotificationPage is one page of the feed.
type NotificationPage struct {
	Items      []NotificationItem `json:"notifications"`
	Page       int                `json:"page"`
	Size       int                `json:"size"`
	TotalCount int64              `json:"total_count"`
}

// NotificationService persists notifications and computes read state on the fly.
type NotificationService struct {
	db        *gorm.DB
	authority *permissions.Authority
	now       func() time.Time
	log       *zap.Logger
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(db *gorm.DB, authority *permissions.Authority) (*NotificationService, error) {
	if db == nil {
		return nil, errors.New("notification service: db is required")
	}
	if authority == nil {
		return nil, errors.New("notification service: authority is required")
	}
	return &NotificationService{
		db:        db,
		authority: authority,
		now:       systemNow,
		log:       logger.WithModule("notifications"),
	}, nil
}

// Create persists a notification in its own transaction.
func (s *NotificationService) Create(ctx context.Context, input CreateNotificationInput) (*models.Notification, error) {
	ctx = ensureContext(ctx)

	var created *models.Notification
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		created, err = s.CreateTx(ctx, tx, input)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// CreateTx persists a notification using tx. A personal notification is marked
// read for its target in the same transaction.
func (s *NotificationService) CreateTx(ctx context.Context, tx *gorm.DB, input CreateNotificationInput) (*models.Notification, error) {
	if !input.Type.Valid() {
		return nil, apperrors.ErrNotificationInvalidType
	}
	if strings.TrimSpace(input.FamilyID) == "" {
		return nil, errors.New("notification service: family id is required")
	}

	notification := &models.Notification{
		FamilyID:         input.FamilyID,
		TargetUserID:     stringPtr(strings.TrimSpace(input.TargetUserID)),
		RelatedPetID:     stringPtr(input.RelatedPetID),
		RelatedUserID:    stringPtr(input.RelatedUserID),
		RelatedRequestID: stringPtr(input.RelatedRequestID),
		Type:             input.Type,
		Title:            input.Title,
		Message:          input.Message,
		Latitude:         input.Latitude,
		Longitude:        input.Longitude,
	}
	notification.CreatedAt = s.now().UTC()

	if input.Payload != nil {
		raw, err := json.Marshal(input.Payload)
		if err != nil {
			return nil, fmt.Errorf("notification service: encode payload: %w", err)
		}
		notification.Payload = datatypes.JSON(raw)
	}

	db := tx.WithContext(ensureContext(ctx))
	if err := db.Create(notification).Error; err != nil {
		return nil, fmt.Errorf("notification service: create notification: %w", err)
	}

	scope := "broadcast"
	if notification.IsPersonal() {
		scope = "personal"
		read := &models.NotificationRead{
			NotificationID: notification.ID,
			UserID:         *notification.TargetUserID,
			ReadAt:         notification.CreatedAt,
		}
		if err := db.Create(read).Error; err != nil {
			return nil, fmt.Errorf("notification service: auto read: %w", err)
		}
	}

	metrics.NotificationsCreated.WithLabelValues(string(notification.Type), scope).Inc()
	return notification, nil
}

// List returns the notifications visible to the user, oldest first.
func (s *NotificationService) List(ctx context.Context, input ListNotificationsInput) (*NotificationPage, error) {
	ctx = ensureContext(ctx)

	var typeFilter models.NotificationType
	if raw := strings.TrimSpace(input.Type); raw != "" {
		parsed, ok := models.ParseNotificationType(raw)
		if !ok {
			return nil, apperrors.ErrNotificationInvalidType
		}
		typeFilter = parsed
	}

	petID := strings.TrimSpace(input.PetID)
	if petID != "" {
		_, err := s.authority.AuthorizeForPet(ctx, input.UserID, petID)
		if err := (petAccessErrors{
			notFound:  apperrors.ErrNotificationPetNotFound,
			forbidden: apperrors.ErrNotificationForbidden,
		}).translate(err); err != nil {
			return nil, err
		}
	}

	familyIDs, err := s.authority.FamilyIDs(ctx, input.UserID)
	if err != nil {
		return nil, apperrors.ErrNotificationList.WithInternal(err)
	}

	size := normalisePageSize(input.Size)
	page := input.Page
	if page < 0 {
		page = 0
	}

	query := s.visibleTo(s.db.WithContext(ctx), input.UserID, familyIDs)
	if petID != "" {
		query = query.Where("related_pet_id = ?", petID)
	}
	if typeFilter != "" {
		query = query.Where("type = ?", typeFilter)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Model(&models.Notification{}).Count(&total).Error; err != nil {
		return nil, apperrors.ErrNotificationList.WithInternal(fmt.Errorf("notification service: count: %w", err))
	}

	var rows []models.Notification
	if err := query.Session(&gorm.Session{}).
		Order("created_at ASC").
		Order("id ASC").
		Offset(zeroBasedOffset(page, size)).
		Limit(size).
		Find(&rows).Error; err != nil {
		return nil, apperrors.ErrNotificationList.WithInternal(fmt.Errorf("notification service: list: %w", err))
	}

	items, err := s.enrich(ctx, input.UserID, rows)
	if err != nil {
		return nil, apperrors.ErrNotificationList.WithInternal(err)
	}

	return &NotificationPage{Items: items, Page: page, Size: size, TotalCount: total}, nil
}

// MarkRead records that userID read the notification. Notifications the user
// cannot see are reported as missing.
func (s *NotificationService) MarkRead(ctx context.Context, notificationID, userID string) (MarkReadStatus, error) {
	ctx = ensureContext(ctx)

	var notification models.Notification
	if err := s.db.WithContext(ctx).Take(&notification, "id = ?", strings.TrimSpace(notificationID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperrors.ErrNotificationReadNotFound
		}
		return "", apperrors.ErrNotificationReadPersist.WithInternal(fmt.Errorf("notification service: load: %w", err))
	}

	visible, err := s.isVisible(ctx, &notification, userID)
	if err != nil {
		return "", apperrors.ErrNotificationReadPersist.WithInternal(err)
	}
	if !visible {
		return "", apperrors.ErrNotificationReadHidden
	}

	var existing int64
	if err := s.db.WithContext(ctx).Model(&models.NotificationRead{}).
		Where("notification_id = ? AND user_id = ?", notification.ID, userID).
		Count(&existing).Error; err != nil {
		return "", apperrors.ErrNotificationReadPersist.WithInternal(fmt.Errorf("notification service: check read: %w", err))
	}
	if existing > 0 {
		return MarkReadAlreadyRead, nil
	}

	read := &models.NotificationRead{
		NotificationID: notification.ID,
		UserID:         userID,
		ReadAt:         s.now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(read).Error; err != nil {
		if isDuplicateKey(err) {
			return MarkReadAlreadyRead, nil
		}
		return "", apperrors.ErrNotificationReadPersist.WithInternal(fmt.Errorf("notification service: mark read: %w", err))
	}
	return MarkReadMarked, nil
}

func (s *NotificationService) visibleTo(db *gorm.DB, userID string, familyIDs []string) *gorm.DB {
	query := db.Model(&models.Notification{})
	if len(familyIDs) == 0 {
		return query.Where("target_user_id = ?", userID)
	}
	return query.Where("(target_user_id = ? OR (target_user_id IS NULL AND family_id IN ?))", userID, familyIDs)
}

func (s *NotificationService) isVisible(ctx context.Context, n *models.Notification, userID string) (bool, error) {
	if n.IsPersonal() {
		return *n.TargetUserID == userID, nil
	}
	return s.authority.IsMember(ctx, userID, n.FamilyID)
}

type countRow struct {
	GroupKey string
	Total    int
}

func (s *NotificationService) enrich(ctx context.Context, userID string, rows []models.Notification) ([]NotificationItem, error) {
	items := make([]NotificationItem, 0, len(rows))
	if len(rows) == 0 {
		return items, nil
	}

	ids := make([]string, 0, len(rows))
	familyIDs := make([]string, 0, len(rows))
	senderIDs := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
		familyIDs = append(familyIDs, row.FamilyID)
		if row.RelatedUserID != nil {
			senderIDs = append(senderIDs, *row.RelatedUserID)
		}
	}
	familyIDs = normaliseIDs(familyIDs)
	senderIDs = normaliseIDs(senderIDs)

	db := s.db.WithContext(ctx)

	var readByMe []string
	if err := db.Model(&models.NotificationRead{}).
		Where("user_id = ? AND notification_id IN ?", userID, ids).
		Pluck("notification_id", &readByMe).Error; err != nil {
		return nil, fmt.Errorf("notification service: load own reads: %w", err)
	}
	mine := make(map[string]struct{}, len(readByMe))
	for _, id := range readByMe {
		mine[id] = struct{}{}
	}

	var readRows []countRow
	if err := db.Model(&models.NotificationRead{}).
		Select("notification_id AS group_key, COUNT(*) AS total").
		Where("notification_id IN ?", ids).
		Group("notification_id").
		Scan(&readRows).Error; err != nil {
		return nil, fmt.Errorf("notification service: count reads: %w", err)
	}
	readCounts := toCountMap(readRows)

	var memberRows []countRow
	if err := db.Model(&models.FamilyMember{}).
		Select("family_id AS group_key, COUNT(*) AS total").
		Where("family_id IN ?", familyIDs).
		Group("family_id").
		Scan(&memberRows).Error; err != nil {
		return nil, fmt.Errorf("notification service: count members: %w", err)
	}
	memberCounts := toCountMap(memberRows)

	senders := make(map[string]models.User, len(senderIDs))
	if len(senderIDs) > 0 {
		var users []models.User
		if err := db.Where("id IN ?", senderIDs).Find(&users).Error; err != nil {
			return nil, fmt.Errorf("notification service: load senders: %w", err)
		}
		for _, u := range users {
			senders[u.ID] = u
		}
	}

	for _, row := range rows {
		_, readByViewer := mine[row.ID]
		readCount := readCounts[row.ID]
		unread := memberCounts[row.FamilyID] - readCount
		if unread < 0 {
			unread = 0
		}

		item := NotificationItem{
			ID:               row.ID,
			Type:             row.Type,
			Title:            row.Title,
			Message:          row.Message,
			FamilyID:         row.FamilyID,
			TargetUserID:     row.TargetUserID,
			RelatedPetID:     row.RelatedPetID,
			RelatedUserID:    row.RelatedUserID,
			RelatedLat:       row.Latitude,
			RelatedLng:       row.Longitude,
			ShareRequestID:   row.RelatedRequestID,
			Payload:          row.Payload,
			IsReadByMe:       readByViewer,
			ReadCount:        readCount,
			UnreadCount:      unread,
			CreatedAt:        row.CreatedAt,
			DisplayTypeLabel: fmt.Sprintf("[%s]", row.Type.Label()),
			DisplayTime:      row.CreatedAt.Format("15:04"),
			DisplayReadText:  fmt.Sprintf("%d명 읽음", readCount),
			IsMe:             row.RelatedUserID != nil && *row.RelatedUserID == userID,
		}
		if row.RelatedUserID != nil {
			if sender, ok := senders[*row.RelatedUserID]; ok {
				item.SenderNickname = stringPtr(sender.DisplayName())
				item.SenderProfileImgURL = stringPtr(sender.ProfileImgURL)
			}
		}
		items = append(items, item)
	}
	return items, nil
}

func toCountMap(rows []countRow) map[string]int {
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.GroupKey] = row.Total
	}
	return counts
}
