package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pawwalk/pawwalk/internal/models"
	"github.com/pawwalk/pawwalk/internal/permissions"
	apperrors "github.com/pawwalk/pawwalk/pkg/errors"
	"github.com/pawwalk/pawwalk/pkg/logger"
)

const earthRadiusKm = 6371.0

// StartWalkInput describes a new walk session.
type StartWalkInput struct {
	PetID         string
	StartTime     *time.Time
	WeatherStatus string
	WeatherTempC  *float64
	Latitude      *float64
	Longitude     *float64
}

// TrackPoint is one GPS sample submitted by the walker.
type TrackPoint struct {
	Latitude  float64
	Longitude float64
	Timestamp time.Time
}

// EndWalkInput closes a walk. Missing measurements are derived from the
// recorded points.
type EndWalkInput struct {
	EndTime     *time.Time
	DurationMin *int
	DistanceKm  *float64
	Calories    *float64
	LastLat     *float64
	LastLng     *float64
}

// ActivitySummary aggregates finished walks over a window.
type ActivitySummary struct {
	WalkCount       int     `json:"walk_count"`
	TotalMinutes    int     `json:"total_minutes"`
	TotalDistanceKm float64 `json:"total_distance_km"`
}

// Coordinates is a latitude/longitude pair.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// WalkService records walk sessions and their GPS traces.
type WalkService struct {
	db            *gorm.DB
	authority     *permissions.Authority
	notifications *NotificationService
	now           func() time.Time
	log           *zap.Logger
}

// NewWalkService constructs a WalkService.
func NewWalkService(db *gorm.DB, authority *permissions.Authority, notifications *NotificationService) (*WalkService, error) {
	if db == nil {
		return nil, errors.New("walk service: db is required")
	}
	if authority == nil {
		return nil, errors.New("walk service: authority is required")
	}
	if notifications == nil {
		return nil, errors.New("walk service: notification service is required")
	}
	return &WalkService{
		db:            db,
		authority:     authority,
		notifications: notifications,
		now:           systemNow,
		log:           logger.WithModule("walks"),
	}, nil
}

var walkAccess = petAccessErrors{notFound: apperrors.ErrWalkPetNotFound, forbidden: apperrors.ErrWalkForbidden}

// Start opens a walk for the pet. A pet has at most one ongoing walk.
func (s *WalkService) Start(ctx context.Context, userID string, input StartWalkInput) (*models.Walk, error) {
	ctx = ensureContext(ctx)

	startedAt := s.now().UTC()
	if input.StartTime != nil && !input.StartTime.IsZero() {
		startedAt = input.StartTime.UTC()
	}

	var walk *models.Walk
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pet, err := s.authority.WithTx(tx).AuthorizeForPet(ctx, userID, input.PetID)
		if err != nil {
			return walkAccess.translate(err)
		}

		var ongoing int64
		if err := tx.Model(&models.Walk{}).
			Where("pet_id = ? AND end_time IS NULL", pet.ID).
			Count(&ongoing).Error; err != nil {
			return fmt.Errorf("walk service: check ongoing: %w", err)
		}
		if ongoing > 0 {
			return apperrors.ErrWalkOngoing
		}

		walk = &models.Walk{
			PetID:         pet.ID,
			UserID:        userID,
			StartTime:     startedAt,
			WeatherStatus: strings.TrimSpace(input.WeatherStatus),
			WeatherTempC:  input.WeatherTempC,
			LastLat:       input.Latitude,
			LastLng:       input.Longitude,
		}
		if err := tx.Create(walk).Error; err != nil {
			return fmt.Errorf("walk service: create walk: %w", err)
		}

		_, err = s.notifications.CreateTx(ctx, tx, CreateNotificationInput{
			FamilyID:      pet.FamilyID,
			RelatedPetID:  pet.ID,
			RelatedUserID: userID,
			Type:          models.NotificationActivityStart,
			Title:         "산책 시작",
			Message:       fmt.Sprintf("%s님이 %s와(과) 산책을 시작했어요.", actorName(tx, userID), pet.Name),
			Latitude:      input.Latitude,
			Longitude:     input.Longitude,
		})
		return err
	})
	if err != nil {
		return nil, asAppError(err, apperrors.ErrWalkPersist)
	}
	return walk, nil
}

// Track appends raw GPS points to an ongoing walk. Only the walker may track.
func (s *WalkService) Track(ctx context.Context, userID, walkID string, points []TrackPoint) (int, error) {
	ctx = ensureContext(ctx)
	if len(points) == 0 {
		return 0, apperrors.ErrWalkNoPoints
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		walk, err := s.loadOwnWalk(tx, userID, walkID)
		if err != nil {
			return err
		}
		if !walk.Ongoing() {
			return apperrors.ErrWalkAlreadyEnded
		}

		rows := make([]models.WalkTrackingPoint, 0, len(points))
		for _, p := range points {
			ts := p.Timestamp.UTC()
			if p.Timestamp.IsZero() {
				ts = s.now().UTC()
			}
			rows = append(rows, models.WalkTrackingPoint{
				WalkID:    walk.ID,
				Latitude:  p.Latitude,
				Longitude: p.Longitude,
				Timestamp: ts,
			})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("walk service: save points: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, asAppError(err, apperrors.ErrWalkPersist)
	}
	return len(points), nil
}

// End closes an ongoing walk and broadcasts ACTIVITY_END to the family.
func (s *WalkService) End(ctx context.Context, userID, walkID string, input EndWalkInput) (*models.Walk, error) {
	ctx = ensureContext(ctx)

	var walk *models.Walk
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		walk, err = s.loadOwnWalk(tx, userID, walkID)
		if err != nil {
			return err
		}
		if !walk.Ongoing() {
			return apperrors.ErrWalkAlreadyEnded
		}

		endedAt := s.now().UTC()
		if input.EndTime != nil && !input.EndTime.IsZero() {
			endedAt = input.EndTime.UTC()
		}
		if endedAt.Before(walk.StartTime) {
			return apperrors.ErrWalkInvalidTime
		}

		var points []models.WalkTrackingPoint
		if err := tx.Where("walk_id = ?", walk.ID).
			Order("timestamp ASC").
			Order("created_at ASC").
			Find(&points).Error; err != nil {
			return fmt.Errorf("walk service: load points: %w", err)
		}

		duration := int(endedAt.Sub(walk.StartTime).Minutes())
		if input.DurationMin != nil {
			duration = *input.DurationMin
		}
		distance := math.Round(pathDistanceKm(points)*100) / 100
		if input.DistanceKm != nil {
			distance = *input.DistanceKm
		}

		lastLat, lastLng := input.LastLat, input.LastLng
		if (lastLat == nil || lastLng == nil) && len(points) > 0 {
			last := points[len(points)-1]
			lastLat, lastLng = floatPtr(last.Latitude), floatPtr(last.Longitude)
		}
		if lastLat == nil || lastLng == nil {
			lastLat, lastLng = walk.LastLat, walk.LastLng
		}

		walk.EndTime = &endedAt
		walk.DurationMin = &duration
		walk.DistanceKm = &distance
		walk.Calories = input.Calories
		walk.LastLat = lastLat
		walk.LastLng = lastLng

		update := tx.Model(&models.Walk{}).
			Where("id = ? AND end_time IS NULL", walk.ID).
			Updates(map[string]any{
				"end_time":     walk.EndTime,
				"duration_min": walk.DurationMin,
				"distance_km":  walk.DistanceKm,
				"calories":     walk.Calories,
				"last_lat":     walk.LastLat,
				"last_lng":     walk.LastLng,
				"updated_at":   s.now().UTC(),
			})
		if update.Error != nil {
			return fmt.Errorf("walk service: end walk: %w", update.Error)
		}
		if update.RowsAffected == 0 {
			return apperrors.ErrWalkAlreadyEnded
		}
		walk.Points = points

		var pet models.Pet
		if err := tx.Take(&pet, "id = ?", walk.PetID).Error; err != nil {
			return fmt.Errorf("walk service: load pet: %w", err)
		}
		_, err = s.notifications.CreateTx(ctx, tx, CreateNotificationInput{
			FamilyID:      pet.FamilyID,
			RelatedPetID:  pet.ID,
			RelatedUserID: userID,
			Type:          models.NotificationActivityEnd,
			Title:         "산책 종료",
			Message: fmt.Sprintf("%s님이 %s와(과) %d분 동안 %.2fkm 산책했어요.",
				actorName(tx, userID), pet.Name, duration, distance),
			Latitude:  lastLat,
			Longitude: lastLng,
		})
		return err
	})
	if err != nil {
		return nil, asAppError(err, apperrors.ErrWalkPersist)
	}
	return walk, nil
}

// Get returns a walk with its points to any member of the pet's family.
func (s *WalkService) Get(ctx context.Context, userID, walkID string) (*models.Walk, error) {
	ctx = ensureContext(ctx)

	walk, err := s.loadWalk(s.db.WithContext(ctx), walkID)
	if err != nil {
		return nil, err
	}
	if _, err := s.authority.AuthorizeForPet(ctx, userID, walk.PetID); err != nil {
		return nil, walkAccess.translate(err)
	}
	if err := s.db.WithContext(ctx).
		Where("walk_id = ?", walk.ID).
		Order("timestamp ASC").
		Find(&walk.Points).Error; err != nil {
		return nil, fmt.Errorf("walk service: load points: %w", err)
	}
	return walk, nil
}

func (s *WalkService) loadWalk(db *gorm.DB, walkID string) (*models.Walk, error) {
	var walk models.Walk
	if err := db.Take(&walk, "id = ?", strings.TrimSpace(walkID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrWalkNotFound
		}
		return nil, fmt.Errorf("walk service: load walk: %w", err)
	}
	return &walk, nil
}

func (s *WalkService) loadOwnWalk(tx *gorm.DB, userID, walkID string) (*models.Walk, error) {
	walk, err := s.loadWalk(tx, walkID)
	if err != nil {
		return nil, err
	}
	if walk.UserID != userID {
		return nil, apperrors.ErrWalkNotWalker
	}
	return walk, nil
}

// weeklyActivity sums the finished walks of petID that started within the
// seven days before now.
func weeklyActivity(ctx context.Context, db *gorm.DB, petID string, now time.Time) (ActivitySummary, error) {
	var row struct {
		WalkCount     int
		TotalMinutes  *int
		TotalDistance *float64
	}
	err := db.WithContext(ensureContext(ctx)).
		Model(&models.Walk{}).
		Select("COUNT(*) AS walk_count, SUM(duration_min) AS total_minutes, SUM(distance_km) AS total_distance").
		Where("pet_id = ? AND end_time IS NOT NULL AND start_time >= ?", petID, now.Add(-7*24*time.Hour)).
		Scan(&row).Error
	if err != nil {
		return ActivitySummary{}, fmt.Errorf("walk activity: %w", err)
	}

	summary := ActivitySummary{WalkCount: row.WalkCount}
	if row.TotalMinutes != nil {
		summary.TotalMinutes = *row.TotalMinutes
	}
	if row.TotalDistance != nil {
		summary.TotalDistanceKm = math.Round(*row.TotalDistance*100) / 100
	}
	return summary, nil
}

// lastKnownLocation returns the most recent walk coordinates recorded for petID.
func lastKnownLocation(ctx context.Context, db *gorm.DB, petID string) (*Coordinates, error) {
	var walk models.Walk
	err := db.WithContext(ensureContext(ctx)).
		Where("pet_id = ? AND last_lat IS NOT NULL AND last_lng IS NOT NULL", petID).
		Order("start_time DESC").
		Take(&walk).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("walk location: %w", err)
	}
	return &Coordinates{Latitude: *walk.LastLat, Longitude: *walk.LastLng}, nil
}

func pathDistanceKm(points []models.WalkTrackingPoint) float64 {
	total := 0.0
	for i := 1; i < len(points); i++ {
		total += haversineKm(points[i-1].Latitude, points[i-1].Longitude, points[i].Latitude, points[i].Longitude)
	}
	return total
}

func haversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// PetsWithKnownLocation lists pets that have at least one walk with recorded
// coordinates.
func (s *WalkService) PetsWithKnownLocation(ctx context.Context) ([]string, error) {
	var ids []string
	if err := s.db.WithContext(ensureContext(ctx)).
		Model(&models.Walk{}).
		Distinct("pet_id").
		Where("last_lat IS NOT NULL AND last_lng IS NOT NULL").
		Pluck("pet_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("walk service: list located pets: %w", err)
	}
	return ids, nil
}
