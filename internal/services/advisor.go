package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pawwalk/pawwalk/internal/integrations/advice"
	"github.com/pawwalk/pawwalk/internal/models"
	"github.com/pawwalk/pawwalk/internal/permissions"
	apperrors "github.com/pawwalk/pawwalk/pkg/errors"
	"github.com/pawwalk/pawwalk/pkg/logger"
)

// AdviceGenerator turns a prompt into a raw JSON completion.
type AdviceGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Trigger says who asked for an advisory. Manual advisories go to the actor
// alone; scheduled ones are broadcast to the family.
type Trigger string

const (
	TriggerManual    Trigger = "manual"
	TriggerScheduled Trigger = "scheduled"
)

// ParseTrigger accepts manual or scheduled, defaulting to manual when empty.
func ParseTrigger(raw string) (Trigger, bool) {
	switch Trigger(strings.ToLower(strings.TrimSpace(raw))) {
	case "", TriggerManual:
		return TriggerManual, true
	case TriggerScheduled:
		return TriggerScheduled, true
	default:
		return "", false
	}
}

// RecommendedInfo is the weekly minute range shown alongside an advisory.
type RecommendedInfo struct {
	MinMinutes         *int `json:"min_minutes"`
	RecommendedMinutes *int `json:"recommended_minutes"`
	MaxMinutes         *int `json:"max_minutes"`
}

func newRecommendedInfo(rec *models.PetWalkRecommendation) RecommendedInfo {
	if rec == nil {
		return RecommendedInfo{}
	}
	minMinutes, recommended, maxMinutes := rec.MinMinutes, rec.RecommendedMinutes, rec.MaxMinutes
	return RecommendedInfo{MinMinutes: &minMinutes, RecommendedMinutes: &recommended, MaxMinutes: &maxMinutes}
}

func (r RecommendedInfo) describe() string {
	format := func(v *int) string {
		if v == nil {
			return "정보 없음"
		}
		return fmt.Sprintf("%d분", *v)
	}
	return fmt.Sprintf("최소: %s\n적정: %s\n최대: %s", format(r.MinMinutes), format(r.RecommendedMinutes), format(r.MaxMinutes))
}

// advisoryErrors are the domain codes one advisor reports.
type advisoryErrors struct {
	access   petAccessErrors
	generate *apperrors.AppError
	parse    *apperrors.AppError
	persist  *apperrors.AppError
}

// advisor holds what every advisory generator shares: authorization, the
// generate/parse step and notification delivery.
type advisor struct {
	db            *gorm.DB
	authority     *permissions.Authority
	notifications *NotificationService
	generator     AdviceGenerator
	codes         advisoryErrors
	now           func() time.Time
	log           *zap.Logger
}

func newAdvisor(name string, db *gorm.DB, authority *permissions.Authority, notifications *NotificationService, generator AdviceGenerator, codes advisoryErrors) (advisor, error) {
	switch {
	case db == nil:
		return advisor{}, fmt.Errorf("%s advisor: db is required", name)
	case authority == nil:
		return advisor{}, fmt.Errorf("%s advisor: authority is required", name)
	case notifications == nil:
		return advisor{}, fmt.Errorf("%s advisor: notification service is required", name)
	case generator == nil:
		return advisor{}, fmt.Errorf("%s advisor: advice generator is required", name)
	}
	return advisor{
		db:            db,
		authority:     authority,
		notifications: notifications,
		generator:     generator,
		codes:         codes,
		now:           systemNow,
		log:           logger.WithModule(name + "_advisor"),
	}, nil
}

// resolvePet authorizes actorID for petID. Scheduled runs without an actor
// are issued by the system and skip the membership check.
func (a *advisor) resolvePet(ctx context.Context, actorID, petID string, trigger Trigger) (*models.Pet, error) {
	if strings.TrimSpace(actorID) == "" {
		if trigger != TriggerScheduled {
			return nil, apperrors.ErrUnauthorized
		}
		var pet models.Pet
		if err := a.db.WithContext(ctx).Take(&pet, "id = ?", strings.TrimSpace(petID)).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, a.codes.access.notFound
			}
			return nil, fmt.Errorf("advisor: load pet: %w", err)
		}
		return &pet, nil
	}

	pet, err := a.authority.AuthorizeForPet(ctx, actorID, petID)
	if err != nil {
		return nil, a.codes.access.translate(err)
	}
	return pet, nil
}

// generate runs the prompt and strictly decodes the completion into out.
func (a *advisor) generate(ctx context.Context, prompt string, out any) error {
	raw, err := a.generator.Generate(ctx, prompt)
	if err != nil {
		a.log.Warn("advice generation failed", zap.Error(err))
		return a.codes.generate.WithInternal(err)
	}
	if err := advice.Parse(raw, out); err != nil {
		a.log.Warn("advice response rejected", zap.Error(err))
		return a.codes.parse.WithInternal(err)
	}
	return nil
}

// deliver stores the advisory notification: personal and read for manual
// triggers, broadcast for scheduled ones.
func (a *advisor) deliver(ctx context.Context, pet *models.Pet, actorID string, trigger Trigger, input CreateNotificationInput) (*models.Notification, error) {
	input.FamilyID = pet.FamilyID
	input.RelatedPetID = pet.ID
	if trigger == TriggerManual {
		input.TargetUserID = actorID
	}

	notification, err := a.notifications.Create(ctx, input)
	if err != nil {
		return nil, a.codes.persist.WithInternal(err)
	}
	return notification, nil
}

func (a *advisor) activityContext(ctx context.Context, petID string) (ActivitySummary, *models.PetWalkRecommendation, error) {
	summary, err := weeklyActivity(ctx, a.db, petID, a.now())
	if err != nil {
		return ActivitySummary{}, nil, err
	}
	rec, err := findRecommendation(ctx, a.db, petID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return ActivitySummary{}, nil, err
	}
	return summary, rec, nil
}

func describePet(pet *models.Pet) string {
	breed := pet.Breed
	if breed == "" {
		breed = "정보 없음"
	}
	gender := pet.Gender
	if gender == "" {
		gender = "정보 없음"
	}
	neutered := "정보 없음"
	if pet.Neutered != nil {
		neutered = "아니오"
		if *pet.Neutered {
			neutered = "예"
		}
	}
	return fmt.Sprintf("이름: %s\n견종: %s\n나이: %d살\n체중: %.1fkg\n성별: %s\n중성화: %s",
		pet.Name, breed, pet.AgeYears, pet.WeightKg, gender, neutered)
}
