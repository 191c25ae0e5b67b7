package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pawwalk/pawwalk/internal/auth"
	"github.com/pawwalk/pawwalk/internal/models"
	apperrors "github.com/pawwalk/pawwalk/pkg/errors"
	"github.com/pawwalk/pawwalk/pkg/logger"
)

// UpdateProfileInput captures mutable profile fields. Nil values are left unchanged.
type UpdateProfileInput struct {
	Nickname      *string
	Phone         *string
	ProfileImgURL *string
}

// UserService manages local accounts bound to identity provider subjects.
type UserService struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewUserService constructs a UserService.
func NewUserService(db *gorm.DB) (*UserService, error) {
	if db == nil {
		return nil, errors.New("user service: db is required")
	}
	return &UserService{db: db, log: logger.WithModule("users")}, nil
}

// ResolveByFirebaseUID maps a verified identity onto a local user. When the
// subject is unknown the account is created if autoProvision is set, otherwise
// USER_404_1 is returned.
func (s *UserService) ResolveByFirebaseUID(ctx context.Context, identity *auth.Identity, autoProvision bool) (*models.User, error) {
	ctx = ensureContext(ctx)
	if identity == nil || strings.TrimSpace(identity.Subject) == "" {
		return nil, apperrors.ErrAuthInvalidToken
	}

	user, err := s.findBySubject(ctx, identity.Subject)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("user service: resolve: %w", err)
	}
	if !autoProvision {
		return nil, apperrors.ErrUserNotFound
	}

	user = &models.User{
		FirebaseUID:   identity.Subject,
		SNSProvider:   identity.Provider,
		Email:         strings.TrimSpace(identity.Email),
		Nickname:      strings.TrimSpace(identity.Name),
		ProfileImgURL: identity.Picture,
	}
	if user.Nickname == "" {
		user.Nickname = user.DisplayName()
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if isDuplicateKey(err) {
			// Another request provisioned the same subject first.
			existing, findErr := s.findBySubject(ctx, identity.Subject)
			if findErr == nil {
				return existing, nil
			}
		}
		return nil, fmt.Errorf("user service: provision: %w", err)
	}

	s.log.Info("provisioned user", zap.String("user_id", user.ID), zap.String("provider", user.SNSProvider))
	return user, nil
}

// GetByID loads a user by id.
func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	if err := s.db.WithContext(ctx).Take(&user, "id = ?", strings.TrimSpace(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("user service: get user: %w", err)
	}
	return &user, nil
}

// UpdateProfile applies the non-nil fields of input.
func (s *UserService) UpdateProfile(ctx context.Context, id string, input UpdateProfileInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Nickname != nil {
		nickname := strings.TrimSpace(*input.Nickname)
		if nickname == "" {
			return nil, apperrors.NewBadRequest("nickname must not be empty")
		}
		updates["nickname"] = nickname
	}
	if input.Phone != nil {
		updates["phone"] = strings.TrimSpace(*input.Phone)
	}
	if input.ProfileImgURL != nil {
		updates["profile_img_url"] = strings.TrimSpace(*input.ProfileImgURL)
	}
	if len(updates) == 0 {
		return user, nil
	}

	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("user service: update profile: %w", err)
	}
	return s.GetByID(ctx, id)
}

// UpdateFCMToken stores the push token for later delivery.
func (s *UserService) UpdateFCMToken(ctx context.Context, id, token string) error {
	ctx = ensureContext(ctx)

	token = strings.TrimSpace(token)
	if token == "" {
		return apperrors.NewBadRequest("fcm_token is required")
	}

	result := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("fcm_token", token)
	if result.Error != nil {
		return fmt.Errorf("user service: update fcm token: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

func (s *UserService) findBySubject(ctx context.Context, subject string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Take(&user, "firebase_uid = ?", subject).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
