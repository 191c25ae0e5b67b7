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
	"github.com/pawwalk/pawwalk/pkg/crypto"
	apperrors "github.com/pawwalk/pawwalk/pkg/errors"
	"github.com/pawwalk/pawwalk/pkg/logger"
)

const (
	searchCodeLength   = 8
	searchCodeAttempts = 5
)

// RegisterPetInput describes a new pet. An empty FamilyID creates a new family.
type RegisterPetInput struct {
	FamilyID string
	Name     string
	Breed    string
	AgeYears int
	WeightKg float64
	Gender   string
	ImageURL string
	Neutered *bool
}

// UpdatePetInput captures mutable pet fields. Nil values are left unchanged.
type UpdatePetInput struct {
	Name     *string
	Breed    *string
	AgeYears *int
	WeightKg *float64
	Gender   *string
	ImageURL *string
	Neutered *bool
}

// PetService manages pets and the families that own them.
type PetService struct {
	db            *gorm.DB
	authority     *permissions.Authority
	notifications *NotificationService
	now           func() time.Time
	generateCode  func() (string, error)
	log           *zap.Logger
}

// NewPetService constructs a PetService.
func NewPetService(db *gorm.DB, authority *permissions.Authority, notifications *NotificationService) (*PetService, error) {
	if db == nil {
		return nil, errors.New("pet service: db is required")
	}
	if authority == nil {
		return nil, errors.New("pet service: authority is required")
	}
	if notifications == nil {
		return nil, errors.New("pet service: notification service is required")
	}
	return &PetService{
		db:            db,
		authority:     authority,
		notifications: notifications,
		now:           systemNow,
		generateCode: func() (string, error) {
			return crypto.GenerateCode(searchCodeLength, crypto.SearchCodeAlphabet)
		},
		log: logger.WithModule("pets"),
	}, nil
}

var petAccess = petAccessErrors{notFound: apperrors.ErrPetNotFound, forbidden: apperrors.ErrPetForbidden}

// Register creates a pet. Without a family the caller becomes OWNER of a new
// family named after their nickname; otherwise the caller must already belong
// to the requested family.
func (s *PetService) Register(ctx context.Context, userID string, input RegisterPetInput) (*models.Pet, error) {
	ctx = ensureContext(ctx)

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewBadRequest("name is required")
	}

	var pet *models.Pet
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		familyID := strings.TrimSpace(input.FamilyID)
		if familyID == "" {
			var owner models.User
			if err := tx.Take(&owner, "id = ?", userID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperrors.ErrUserNotFound
				}
				return fmt.Errorf("pet service: load owner: %w", err)
			}

			family := &models.Family{FamilyName: owner.DisplayName() + "의 가족"}
			if err := tx.Create(family).Error; err != nil {
				return fmt.Errorf("pet service: create family: %w", err)
			}
			member := &models.FamilyMember{
				FamilyID: family.ID,
				UserID:   userID,
				Role:     models.FamilyRoleOwner,
				JoinedAt: s.now().UTC(),
			}
			if err := tx.Create(member).Error; err != nil {
				return fmt.Errorf("pet service: create owner membership: %w", err)
			}
			familyID = family.ID
		} else {
			ok, err := s.authority.WithTx(tx).IsMember(ctx, userID, familyID)
			if err != nil {
				return err
			}
			if !ok {
				return apperrors.ErrPetFamilyForbidden
			}
		}

		code, err := s.uniqueSearchCode(tx)
		if err != nil {
			return err
		}

		pet = &models.Pet{
			FamilyID:    familyID,
			OwnerID:     userID,
			Name:        name,
			Breed:       strings.TrimSpace(input.Breed),
			AgeYears:    input.AgeYears,
			WeightKg:    input.WeightKg,
			Gender:      strings.TrimSpace(input.Gender),
			ImageURL:    strings.TrimSpace(input.ImageURL),
			PetSearchID: code,
			Neutered:    input.Neutered,
		}
		if err := tx.Create(pet).Error; err != nil {
			return fmt.Errorf("pet service: create pet: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, asAppError(err, apperrors.ErrPetPersist)
	}

	s.log.Info("registered pet", zap.String("pet_id", pet.ID), zap.String("family_id", pet.FamilyID))
	return pet, nil
}

// ListMine returns every pet across the caller's families.
func (s *PetService) ListMine(ctx context.Context, userID string) ([]models.Pet, error) {
	ctx = ensureContext(ctx)

	familyIDs, err := s.authority.FamilyIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	pets := make([]models.Pet, 0)
	if len(familyIDs) == 0 {
		return pets, nil
	}
	if err := s.db.WithContext(ctx).
		Where("family_id IN ?", familyIDs).
		Order("created_at ASC").
		Find(&pets).Error; err != nil {
		return nil, fmt.Errorf("pet service: list pets: %w", err)
	}
	return pets, nil
}

// Get returns a pet visible to userID.
func (s *PetService) Get(ctx context.Context, userID, petID string) (*models.Pet, error) {
	pet, err := s.authority.AuthorizeForPet(ensureContext(ctx), userID, petID)
	if err != nil {
		return nil, petAccess.translate(err)
	}
	return pet, nil
}

// Update applies the non-nil fields and broadcasts a PET_UPDATE notification.
func (s *PetService) Update(ctx context.Context, userID, petID string, input UpdatePetInput) (*models.Pet, error) {
	ctx = ensureContext(ctx)

	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.NewBadRequest("name must not be empty")
		}
		updates["name"] = name
	}
	if input.Breed != nil {
		updates["breed"] = strings.TrimSpace(*input.Breed)
	}
	if input.AgeYears != nil {
		updates["age_years"] = *input.AgeYears
	}
	if input.WeightKg != nil {
		updates["weight_kg"] = *input.WeightKg
	}
	if input.Gender != nil {
		updates["gender"] = strings.TrimSpace(*input.Gender)
	}
	if input.ImageURL != nil {
		updates["image_url"] = strings.TrimSpace(*input.ImageURL)
	}
	if input.Neutered != nil {
		updates["neutered"] = *input.Neutered
	}

	var pet *models.Pet
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		pet, err = s.authority.WithTx(tx).AuthorizeForPet(ctx, userID, petID)
		if err != nil {
			return petAccess.translate(err)
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(pet).Updates(updates).Error; err != nil {
			return fmt.Errorf("pet service: update pet: %w", err)
		}
		if err := tx.Take(pet, "id = ?", pet.ID).Error; err != nil {
			return fmt.Errorf("pet service: reload pet: %w", err)
		}

		actor := actorName(tx, userID)
		_, err = s.notifications.CreateTx(ctx, tx, CreateNotificationInput{
			FamilyID:      pet.FamilyID,
			RelatedPetID:  pet.ID,
			RelatedUserID: userID,
			Type:          models.NotificationPetUpdate,
			Title:         "반려동물 정보 수정",
			Message:       fmt.Sprintf("%s님이 %s의 정보를 수정했습니다.", actor, pet.Name),
		})
		return err
	})
	if err != nil {
		return nil, asAppError(err, apperrors.ErrPetPersist)
	}
	return pet, nil
}

// Delete soft deletes a pet and removes its walk records and plans. Share
// requests and notifications about the pet are kept. Only the owner may delete.
func (s *PetService) Delete(ctx context.Context, userID, petID string) error {
	ctx = ensureContext(ctx)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pet, err := s.authority.WithTx(tx).RequireOwner(ctx, userID, petID)
		if err != nil {
			return petAccessErrors{notFound: apperrors.ErrPetNotFound, forbidden: apperrors.ErrPetOwnerRequired}.translate(err)
		}

		walkIDs := tx.Model(&models.Walk{}).Select("id").Where("pet_id = ?", pet.ID)

		steps := []struct {
			name  string
			model any
			where string
			arg   any
		}{
			{"tracking points", &models.WalkTrackingPoint{}, "walk_id IN (?)", walkIDs},
			{"photos", &models.Photo{}, "pet_id = ?", pet.ID},
			{"walks", &models.Walk{}, "pet_id = ?", pet.ID},
			{"walk goal", &models.PetWalkGoal{}, "pet_id = ?", pet.ID},
			{"walk recommendation", &models.PetWalkRecommendation{}, "pet_id = ?", pet.ID},
		}
		for _, step := range steps {
			if err := tx.Where(step.where, step.arg).Delete(step.model).Error; err != nil {
				return fmt.Errorf("pet service: delete %s: %w", step.name, err)
			}
		}
		if err := tx.Delete(pet).Error; err != nil {
			return fmt.Errorf("pet service: delete pet: %w", err)
		}
		return nil
	})
	if err != nil {
		return asAppError(err, apperrors.ErrPetPersist)
	}

	s.log.Info("deleted pet", zap.String("pet_id", petID), zap.String("user_id", userID))
	return nil
}

func (s *PetService) uniqueSearchCode(tx *gorm.DB) (string, error) {
	for attempt := 0; attempt < searchCodeAttempts; attempt++ {
		code, err := s.generateCode()
		if err != nil {
			return "", fmt.Errorf("pet service: generate search code: %w", err)
		}
		var count int64
		// Soft deleted pets still hold their code in the unique index.
		if err := tx.Unscoped().Model(&models.Pet{}).Where("pet_search_id = ?", code).Count(&count).Error; err != nil {
			return "", fmt.Errorf("pet service: check search code: %w", err)
		}
		if count == 0 {
			return code, nil
		}
	}
	return "", errors.New("pet service: could not allocate a unique search code")
}

// actorName returns the display name of userID, or an empty string when unknown.
func actorName(db *gorm.DB, userID string) string {
	var user models.User
	if err := db.Select("id", "nickname", "email").Take(&user, "id = ?", userID).Error; err != nil {
		return ""
	}
	return user.DisplayName()
}

// AllIDs lists every pet id, oldest first. Used by scheduled advisories.
func (s *PetService) AllIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := s.db.WithContext(ensureContext(ctx)).
		Model(&models.Pet{}).
		Order("created_at ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("pet service: list pet ids: %w", err)
	}
	return ids, nil
}
