package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pawwalk/pawwalk/internal/models"
	"github.com/pawwalk/pawwalk/internal/permissions"
	apperrors "github.com/pawwalk/pawwalk/pkg/errors"
	"github.com/pawwalk/pawwalk/pkg/logger"
	"github.com/pawwalk/pawwalk/pkg/metrics"
)

// ShareRequestView is a share request joined with its pet and requester.
type ShareRequestView struct {
	ID                     string             `json:"request_id"`
	PetID                  string             `json:"pet_id"`
	PetName                string             `json:"pet_name"`
	PetSearchID            string             `json:"pet_search_id"`
	RequesterID            string             `json:"requester_id"`
	RequesterNickname      string             `json:"requester_nickname"`
	RequesterProfileImgURL string             `json:"requester_profile_img_url,omitempty"`
	Status                 models.ShareStatus `json:"status"`
	Message                string             `json:"message,omitempty"`
	CreatedAt              time.Time          `json:"created_at"`
	RespondedAt            *time.Time         `json:"responded_at,omitempty"`
}

// ShareRequestPage is one page of share requests.
type ShareRequestPage struct {
	Items      []ShareRequestView `json:"requests"`
	Page       int                `json:"page"`
	Size       int                `json:"size"`
	TotalCount int64              `json:"total_count"`
}

// ShareRespondResult describes the outcome of Respond.
type ShareRespondResult struct {
	RequestID   string             `json:"request_id"`
	PetID       string             `json:"pet_id"`
	FamilyID    string             `json:"family_id"`
	RequesterID string             `json:"requester_id"`
	Status      models.ShareStatus `json:"status"`
	RespondedAt time.Time          `json:"responded_at"`
}

// PetShareService runs the request/approve workflow that grants family membership.
type PetShareService struct {
	db            *gorm.DB
	authority     *permissions.Authority
	notifications *NotificationService
	now           func() time.Time
	log           *zap.Logger
}

// NewPetShareService constructs a PetShareService.
func NewPetShareService(db *gorm.DB, authority *permissions.Authority, notifications *NotificationService) (*PetShareService, error) {
	if db == nil {
		return nil, errors.New("pet share service: db is required")
	}
	if authority == nil {
		return nil, errors.New("pet share service: authority is required")
	}
	if notifications == nil {
		return nil, errors.New("pet share service: notification service is required")
	}
	return &PetShareService{
		db:            db,
		authority:     authority,
		notifications: notifications,
		now:           systemNow,
		log:           logger.WithModule("pet_share"),
	}, nil
}

// CreateRequest files a PENDING request for the pet identified by searchCode
// and notifies its owner.
func (s *PetShareService) CreateRequest(ctx context.Context, searchCode, requesterID, message string) (*models.PetShareRequest, error) {
	ctx = ensureContext(ctx)
	if strings.TrimSpace(requesterID) == "" {
		return nil, apperrors.ErrShareUnauthorized
	}

	var request *models.PetShareRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The pet row lock serialises concurrent requests for the same pet so the
		// pending check below cannot race.
		var pet models.Pet
		if err := lockForUpdate(tx).Take(&pet, "pet_search_id = ?", strings.ToUpper(strings.TrimSpace(searchCode))).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrSharePetNotFound
			}
			return fmt.Errorf("pet share service: find pet: %w", err)
		}

		member, err := s.authority.WithTx(tx).IsMember(ctx, requesterID, pet.FamilyID)
		if err != nil {
			return err
		}
		if member {
			return apperrors.ErrShareAlreadyMember
		}

		var pending int64
		if err := tx.Model(&models.PetShareRequest{}).
			Where("pet_id = ? AND requester_id = ? AND status = ?", pet.ID, requesterID, models.ShareStatusPending).
			Count(&pending).Error; err != nil {
			return fmt.Errorf("pet share service: check pending: %w", err)
		}
		if pending > 0 {
			return apperrors.ErrShareDuplicatePending
		}

		request = &models.PetShareRequest{
			PetID:       pet.ID,
			RequesterID: requesterID,
			Status:      models.ShareStatusPending,
			Message:     strings.TrimSpace(message),
		}
		request.CreatedAt = s.now().UTC()
		if err := tx.Create(request).Error; err != nil {
			return fmt.Errorf("pet share service: create request: %w", err)
		}

		requester := actorName(tx, requesterID)
		_, err = s.notifications.CreateTx(ctx, tx, CreateNotificationInput{
			FamilyID:         pet.FamilyID,
			TargetUserID:     pet.OwnerID,
			RelatedPetID:     pet.ID,
			RelatedUserID:    requesterID,
			RelatedRequestID: request.ID,
			Type:             models.NotificationRequest,
			Title:            "공유 승인 요청",
			Message:          fmt.Sprintf("%s님이 %s의 공유를 요청했습니다.", requester, pet.Name),
		})
		return err
	})
	if err != nil {
		return nil, asAppError(err, apperrors.ErrSharePersist)
	}

	metrics.ShareRequests.WithLabelValues("created").Inc()
	return request, nil
}

// Respond approves or rejects a pending request. Only the pet owner may
// respond and only one response per request ever succeeds.
func (s *PetShareService) Respond(ctx context.Context, requestID, decision, actorID string) (*ShareRespondResult, error) {
	ctx = ensureContext(ctx)

	status, ok := models.ParseShareDecision(decision)
	if !ok {
		return nil, apperrors.ErrApproveInvalidDecision
	}

	var result *ShareRespondResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var request models.PetShareRequest
		if err := lockForUpdate(tx).Take(&request, "id = ?", strings.TrimSpace(requestID)).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrApproveRequestNotFound
			}
			return fmt.Errorf("pet share service: load request: %w", err)
		}

		pet, err := s.authority.WithTx(tx).RequireOwner(ctx, actorID, request.PetID)
		switch {
		case errors.Is(err, permissions.ErrPetNotFound):
			return apperrors.ErrApprovePetNotFound
		case errors.Is(err, permissions.ErrNotOwner):
			return apperrors.ErrApproveNotOwner
		case err != nil:
			return err
		}

		if !request.IsPending() {
			return apperrors.ErrApproveAlreadyProcessed
		}

		respondedAt := s.now().UTC()
		update := tx.Model(&models.PetShareRequest{}).
			Where("id = ? AND status = ?", request.ID, models.ShareStatusPending).
			Updates(map[string]any{"status": status, "responded_at": respondedAt, "updated_at": respondedAt})
		if update.Error != nil {
			return fmt.Errorf("pet share service: update request: %w", update.Error)
		}
		if update.RowsAffected == 0 {
			return apperrors.ErrApproveAlreadyProcessed
		}

		result = &ShareRespondResult{
			RequestID:   request.ID,
			PetID:       pet.ID,
			FamilyID:    pet.FamilyID,
			RequesterID: request.RequesterID,
			Status:      status,
			RespondedAt: respondedAt,
		}

		if status == models.ShareStatusRejected {
			_, err := s.notifications.CreateTx(ctx, tx, CreateNotificationInput{
				FamilyID:         pet.FamilyID,
				TargetUserID:     request.RequesterID,
				RelatedPetID:     pet.ID,
				RelatedUserID:    actorID,
				RelatedRequestID: request.ID,
				Type:             models.NotificationInviteRejected,
				Title:            "공유 요청 거절",
				Message:          fmt.Sprintf("%s 공유 요청이 거절되었습니다.", pet.Name),
			})
			return err
		}

		member, err := s.authority.WithTx(tx).IsMember(ctx, request.RequesterID, pet.FamilyID)
		if err != nil {
			return err
		}
		if member {
			return apperrors.ErrApproveAlreadyMember
		}

		if err := tx.Create(&models.FamilyMember{
			FamilyID: pet.FamilyID,
			UserID:   request.RequesterID,
			Role:     models.FamilyRoleMember,
			JoinedAt: respondedAt,
		}).Error; err != nil {
			if isDuplicateKey(err) {
				return apperrors.ErrApproveAlreadyMember
			}
			return fmt.Errorf("pet share service: add member: %w", err)
		}

		if err := tx.Model(&models.PetShareRequest{}).
			Where("pet_id = ? AND requester_id = ? AND status = ? AND id <> ?",
				pet.ID, request.RequesterID, models.ShareStatusPending, request.ID).
			Updates(map[string]any{"status": models.ShareStatusRejected, "responded_at": respondedAt, "updated_at": respondedAt}).Error; err != nil {
			return fmt.Errorf("pet share service: reject duplicates: %w", err)
		}

		_, err = s.notifications.CreateTx(ctx, tx, CreateNotificationInput{
			FamilyID:         pet.FamilyID,
			TargetUserID:     request.RequesterID,
			RelatedPetID:     pet.ID,
			RelatedUserID:    actorID,
			RelatedRequestID: request.ID,
			Type:             models.NotificationInviteAccepted,
			Title:            "공유 요청 수락",
			Message:          fmt.Sprintf("%s 공유 요청이 수락되었습니다.", pet.Name),
		})
		return err
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrApproveAlreadyProcessed) || errors.Is(err, apperrors.ErrApproveAlreadyMember) {
			metrics.ShareRequests.WithLabelValues("conflict").Inc()
		}
		return nil, asAppError(err, apperrors.ErrApprovePersist)
	}

	metrics.ShareRequests.WithLabelValues(strings.ToLower(string(status))).Inc()
	s.log.Info("share request answered",
		zap.String("request_id", result.RequestID),
		zap.String("status", string(result.Status)),
	)
	return result, nil
}

// ListMine pages through requests filed by userID, newest first.
func (s *PetShareService) ListMine(ctx context.Context, userID string, page, size int) (*ShareRequestPage, error) {
	ctx = ensureContext(ctx)
	query := s.db.WithContext(ctx).Model(&models.PetShareRequest{}).Where("requester_id = ?", userID)
	return s.list(query, page, size)
}

// ListReceived pages through requests for pets owned by ownerID, newest first.
func (s *PetShareService) ListReceived(ctx context.Context, ownerID string, page, size int) (*ShareRequestPage, error) {
	ctx = ensureContext(ctx)
	owned := s.db.WithContext(ctx).Unscoped().Model(&models.Pet{}).Select("id").Where("owner_id = ?", ownerID)
	query := s.db.WithContext(ctx).Model(&models.PetShareRequest{}).Where("pet_id IN (?)", owned)
	return s.list(query, page, size)
}

func (s *PetShareService) list(query *gorm.DB, page, size int) (*ShareRequestPage, error) {
	size = normalisePageSize(size)
	if page < 1 {
		page = 1
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("pet share service: count requests: %w", err)
	}

	var rows []models.PetShareRequest
	if err := query.Session(&gorm.Session{}).
		Preload("Pet", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Preload("Requester").
		Order("created_at DESC").
		Order("id DESC").
		Offset(oneBasedOffset(page, size)).
		Limit(size).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("pet share service: list requests: %w", err)
	}

	items := make([]ShareRequestView, 0, len(rows))
	for _, row := range rows {
		view := ShareRequestView{
			ID:          row.ID,
			PetID:       row.PetID,
			RequesterID: row.RequesterID,
			Status:      row.Status,
			Message:     row.Message,
			CreatedAt:   row.CreatedAt,
			RespondedAt: row.RespondedAt,
		}
		if row.Pet != nil {
			view.PetName = row.Pet.Name
			view.PetSearchID = row.Pet.PetSearchID
		}
		if row.Requester != nil {
			view.RequesterNickname = row.Requester.DisplayName()
			view.RequesterProfileImgURL = row.Requester.ProfileImgURL
		}
		items = append(items, view)
	}

	return &ShareRequestPage{Items: items, Page: page, Size: size, TotalCount: total}, nil
}
