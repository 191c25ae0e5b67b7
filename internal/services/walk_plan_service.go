package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pawwalk/pawwalk/internal/models"
	"github.com/pawwalk/pawwalk/internal/permissions"
	apperrors "github.com/pawwalk/pawwalk/pkg/errors"
)

// GoalInput is the requested weekly target for a pet.
type GoalInput struct {
	TargetWalks      int
	TargetMinutes    int
	TargetDistanceKm float64
}

// RecommendationInput is a manually entered weekly recommendation.
type RecommendationInput struct {
	MinWalks              int
	MinMinutes            int
	MinDistanceKm         float64
	RecommendedWalks      int
	RecommendedMinutes    int
	RecommendedDistanceKm float64
	MaxWalks              int
	MaxMinutes            int
	MaxDistanceKm         float64
}

// PerWalk is the recommended volume of a single walk.
type PerWalk struct {
	RecommendedMinutesPerWalk    int     `json:"recommended_minutes_per_walk"`
	RecommendedDistanceKmPerWalk float64 `json:"recommended_distance_km_per_walk"`
}

// RecommendationView is a stored recommendation with its per-walk split.
type RecommendationView struct {
	*models.PetWalkRecommendation
	PerWalk PerWalk `json:"per_walk"`
}

// WalkPlanService stores weekly walk goals and recommendations.
type WalkPlanService struct {
	db        *gorm.DB
	authority *permissions.Authority
	now       func() time.Time
}

// NewWalkPlanService constructs a WalkPlanService.
func NewWalkPlanService(db *gorm.DB, authority *permissions.Authority) (*WalkPlanService, error) {
	if db == nil {
		return nil, errors.New("walk plan service: db is required")
	}
	if authority == nil {
		return nil, errors.New("walk plan service: authority is required")
	}
	return &WalkPlanService{db: db, authority: authority, now: systemNow}, nil
}

var (
	goalAccess           = petAccessErrors{notFound: apperrors.ErrGoalPetNotFound, forbidden: apperrors.ErrGoalForbidden}
	recommendationAccess = petAccessErrors{notFound: apperrors.ErrWalkRecPetNotFound, forbidden: apperrors.ErrWalkRecForbidden}
)

// GetGoal returns the goal of a pet.
func (s *WalkPlanService) GetGoal(ctx context.Context, userID, petID string) (*models.PetWalkGoal, error) {
	ctx = ensureContext(ctx)

	pet, err := s.authority.AuthorizeForPet(ctx, userID, petID)
	if err != nil {
		return nil, goalAccess.translate(err)
	}

	var goal models.PetWalkGoal
	if err := s.db.WithContext(ctx).Take(&goal, "pet_id = ?", pet.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrGoalNotSet
		}
		return nil, apperrors.ErrGoalPersist.WithInternal(fmt.Errorf("walk plan service: load goal: %w", err))
	}
	return &goal, nil
}

// UpsertGoal validates and stores the goal. Targets must be positive and not
// excessive relative to the stored recommendation.
func (s *WalkPlanService) UpsertGoal(ctx context.Context, userID, petID string, input GoalInput) (*models.PetWalkGoal, error) {
	ctx = ensureContext(ctx)

	if input.TargetWalks <= 0 || input.TargetMinutes <= 0 || input.TargetDistanceKm <= 0 {
		return nil, apperrors.ErrGoalNotPositive
	}

	pet, err := s.authority.AuthorizeForPet(ctx, userID, petID)
	if err != nil {
		return nil, goalAccess.translate(err)
	}

	goal := &models.PetWalkGoal{
		PetID:            pet.ID,
		TargetWalks:      input.TargetWalks,
		TargetMinutes:    input.TargetMinutes,
		TargetDistanceKm: input.TargetDistanceKm,
	}

	rec, err := s.loadRecommendation(ctx, pet.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrGoalPersist.WithInternal(err)
	}
	if goal.ExceedsRecommendation(rec) {
		return nil, apperrors.ErrGoalExcessive
	}

	now := s.now().UTC()
	goal.CreatedAt = now
	goal.UpdatedAt = now
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "pet_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"target_walks", "target_minutes", "target_distance_km", "updated_at"}),
	}).Create(goal).Error; err != nil {
		return nil, apperrors.ErrGoalPersist.WithInternal(fmt.Errorf("walk plan service: save goal: %w", err))
	}

	var saved models.PetWalkGoal
	if err := s.db.WithContext(ctx).Take(&saved, "pet_id = ?", pet.ID).Error; err != nil {
		return nil, apperrors.ErrGoalPersist.WithInternal(fmt.Errorf("walk plan service: reload goal: %w", err))
	}
	return &saved, nil
}

// GetRecommendation returns the stored recommendation with its per-walk split.
func (s *WalkPlanService) GetRecommendation(ctx context.Context, userID, petID string) (*RecommendationView, error) {
	ctx = ensureContext(ctx)

	pet, err := s.authority.AuthorizeForPet(ctx, userID, petID)
	if err != nil {
		return nil, recommendationAccess.translate(err)
	}

	rec, err := s.loadRecommendation(ctx, pet.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrWalkRecMissing
		}
		return nil, apperrors.ErrWalkRecPersist.WithInternal(err)
	}
	return newRecommendationView(rec), nil
}

// PutRecommendation stores a manually entered recommendation.
func (s *WalkPlanService) PutRecommendation(ctx context.Context, userID, petID string, input RecommendationInput) (*RecommendationView, error) {
	ctx = ensureContext(ctx)

	if !validRecommendation(input) {
		return nil, apperrors.ErrWalkRecInvalidInput
	}

	pet, err := s.authority.AuthorizeForPet(ctx, userID, petID)
	if err != nil {
		return nil, recommendationAccess.translate(err)
	}

	now := s.now().UTC()
	rec := &models.PetWalkRecommendation{
		PetID:                 pet.ID,
		MinWalks:              input.MinWalks,
		MinMinutes:            input.MinMinutes,
		MinDistanceKm:         input.MinDistanceKm,
		RecommendedWalks:      input.RecommendedWalks,
		RecommendedMinutes:    input.RecommendedMinutes,
		RecommendedDistanceKm: input.RecommendedDistanceKm,
		MaxWalks:              input.MaxWalks,
		MaxMinutes:            input.MaxMinutes,
		MaxDistanceKm:         input.MaxDistanceKm,
		GeneratedBy:           models.RecommendationByManual,
	}
	rec.CreatedAt = now
	rec.UpdatedAt = now

	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "pet_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"min_walks", "min_minutes", "min_distance_km",
			"recommended_walks", "recommended_minutes", "recommended_distance_km",
			"max_walks", "max_minutes", "max_distance_km",
			"generated_by", "updated_at",
		}),
	}).Create(rec).Error; err != nil {
		return nil, apperrors.ErrWalkRecPersist.WithInternal(fmt.Errorf("walk plan service: save recommendation: %w", err))
	}

	saved, err := s.loadRecommendation(ctx, pet.ID)
	if err != nil {
		return nil, apperrors.ErrWalkRecPersist.WithInternal(err)
	}
	return newRecommendationView(saved), nil
}

func (s *WalkPlanService) loadRecommendation(ctx context.Context, petID string) (*models.PetWalkRecommendation, error) {
	return findRecommendation(ctx, s.db, petID)
}

func findRecommendation(ctx context.Context, db *gorm.DB, petID string) (*models.PetWalkRecommendation, error) {
	var rec models.PetWalkRecommendation
	if err := db.WithContext(ensureContext(ctx)).Take(&rec, "pet_id = ?", petID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("walk plan service: load recommendation: %w", err)
	}
	return &rec, nil
}

func newRecommendationView(rec *models.PetWalkRecommendation) *RecommendationView {
	minutes, distance := rec.PerWalk()
	return &RecommendationView{
		PetWalkRecommendation: rec,
		PerWalk: PerWalk{
			RecommendedMinutesPerWalk:    minutes,
			RecommendedDistanceKmPerWalk: distance,
		},
	}
}

func validRecommendation(in RecommendationInput) bool {
	if in.MinWalks <= 0 || in.MinMinutes <= 0 || in.MinDistanceKm <= 0 {
		return false
	}
	return in.MinWalks <= in.RecommendedWalks && in.RecommendedWalks <= in.MaxWalks &&
		in.MinMinutes <= in.RecommendedMinutes && in.RecommendedMinutes <= in.MaxMinutes &&
		in.MinDistanceKm <= in.RecommendedDistanceKm && in.RecommendedDistanceKm <= in.MaxDistanceKm
}
