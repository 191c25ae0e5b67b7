package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/pawwalk/pawwalk/internal/models"
	apperrors "github.com/pawwalk/pawwalk/pkg/errors"
)

const recentActivityLimit = 3

// UserBrief identifies the member behind a walk or photo.
type UserBrief struct {
	UserID   string `json:"user_id"`
	Nickname string `json:"nickname"`
}

// RecentActivity is one of the latest walks of a pet.
type RecentActivity struct {
	WalkID        string     `json:"walk_id"`
	Date          string     `json:"date"`
	StartTime     time.Time  `json:"start_time"`
	EndTime       *time.Time `json:"end_time"`
	DurationMin   *int       `json:"duration_min"`
	DistanceKm    *float64   `json:"distance_km"`
	Walker        UserBrief  `json:"walker"`
	WeatherStatus string     `json:"weather_status,omitempty"`
	WeatherTempC  *float64   `json:"weather_temp_c,omitempty"`
}

// TodayWalks summarises the current KST day for a pet. Only finished walks
// count towards the totals.
type TodayWalks struct {
	PetID            string  `json:"pet_id"`
	Date             string  `json:"date"`
	TotalWalks       int     `json:"total_walks"`
	TotalDurationMin int     `json:"total_duration_min"`
	TotalDistanceKm  float64 `json:"total_distance_km"`
	CurrentWalkOrder int     `json:"current_walk_order"`
	HasOngoingWalk   bool    `json:"has_ongoing_walk"`
}

// List returns the walks of a pet that started within the given KST days,
// newest first. Empty bounds are open.
func (s *WalkService) List(ctx context.Context, userID, petID, startDate, endDate string) ([]models.Walk, error) {
	ctx = ensureContext(ctx)
	petID = strings.TrimSpace(petID)
	if petID == "" {
		return nil, apperrors.ErrWalkListPetRequired
	}
	if _, err := s.authority.AuthorizeForPet(ctx, userID, petID); err != nil {
		return nil, petAccessErrors{notFound: apperrors.ErrWalkListPetNotFound, forbidden: apperrors.ErrWalkListForbidden}.translate(err)
	}
	days, err := parseDayRange(startDate, endDate)
	if err != nil {
		return nil, dateRangeErrors{format: apperrors.ErrWalkListDateFormat, order: apperrors.ErrWalkListDateOrder}.translate(err)
	}

	walks := make([]models.Walk, 0)
	query := withStartTimeRange(s.db.WithContext(ctx).Where("pet_id = ?", petID), "start_time", days)
	if err := query.Order("start_time DESC").Find(&walks).Error; err != nil {
		return nil, apperrors.ErrWalkListQuery.WithInternal(fmt.Errorf("walk service: list walks: %w", err))
	}
	return walks, nil
}

// Recent returns the latest three walks of a pet with their walkers.
func (s *WalkService) Recent(ctx context.Context, userID, petID string) ([]RecentActivity, error) {
	ctx = ensureContext(ctx)
	petID = strings.TrimSpace(petID)
	if petID == "" {
		return nil, apperrors.ErrRecentPetRequired
	}
	if _, err := s.authority.AuthorizeForPet(ctx, userID, petID); err != nil {
		return nil, petAccessErrors{notFound: apperrors.ErrRecentPetNotFound, forbidden: apperrors.ErrRecentForbidden}.translate(err)
	}

	var walks []models.Walk
	if err := s.db.WithContext(ctx).
		Where("pet_id = ?", petID).
		Order("start_time DESC").
		Limit(recentActivityLimit).
		Find(&walks).Error; err != nil {
		return nil, apperrors.ErrRecentQuery.WithInternal(fmt.Errorf("walk service: recent walks: %w", err))
	}

	userIDs := make([]string, 0, len(walks))
	for _, walk := range walks {
		userIDs = append(userIDs, walk.UserID)
	}
	walkers, err := userBriefs(s.db.WithContext(ctx), userIDs)
	if err != nil {
		return nil, apperrors.ErrRecentQuery.WithInternal(err)
	}

	activities := make([]RecentActivity, 0, len(walks))
	for _, walk := range walks {
		date, _, _ := kstDay(walk.StartTime)
		activities = append(activities, RecentActivity{
			WalkID:        walk.ID,
			Date:          date,
			StartTime:     walk.StartTime,
			EndTime:       walk.EndTime,
			DurationMin:   walk.DurationMin,
			DistanceKm:    walk.DistanceKm,
			Walker:        walkers[walk.UserID],
			WeatherStatus: walk.WeatherStatus,
			WeatherTempC:  walk.WeatherTempC,
		})
	}
	return activities, nil
}

// Today summarises the walks a pet started on the current KST day.
// CurrentWalkOrder is the position of the ongoing walk, or the number the
// next walk will get.
func (s *WalkService) Today(ctx context.Context, userID, petID string) (*TodayWalks, error) {
	ctx = ensureContext(ctx)
	petID = strings.TrimSpace(petID)
	if petID == "" {
		return nil, apperrors.ErrTodayPetRequired
	}
	if _, err := s.authority.AuthorizeForPet(ctx, userID, petID); err != nil {
		return nil, petAccessErrors{notFound: apperrors.ErrTodayPetNotFound, forbidden: apperrors.ErrTodayForbidden}.translate(err)
	}

	date, from, to := kstDay(s.now())
	var walks []models.Walk
	if err := s.db.WithContext(ctx).
		Where("pet_id = ? AND start_time >= ? AND start_time < ?", petID, from, to).
		Order("start_time ASC").
		Find(&walks).Error; err != nil {
		return nil, apperrors.ErrTodayQuery.WithInternal(fmt.Errorf("walk service: today walks: %w", err))
	}

	today := &TodayWalks{PetID: petID, Date: date}
	ongoingOrder := 0
	for i, walk := range walks {
		if walk.Ongoing() {
			if ongoingOrder == 0 {
				ongoingOrder = i + 1
			}
			continue
		}
		today.TotalWalks++
		if walk.DurationMin != nil {
			today.TotalDurationMin += *walk.DurationMin
		}
		if walk.DistanceKm != nil {
			today.TotalDistanceKm += *walk.DistanceKm
		}
	}
	today.TotalDistanceKm = math.Round(today.TotalDistanceKm*100) / 100
	today.HasOngoingWalk = ongoingOrder > 0
	today.CurrentWalkOrder = today.TotalWalks + 1
	if today.HasOngoingWalk {
		today.CurrentWalkOrder = ongoingOrder
	}
	return today, nil
}

// withStartTimeRange restricts column to the day range.
func withStartTimeRange(query *gorm.DB, column string, days DayRange) *gorm.DB {
	if days.From != nil {
		query = query.Where(column+" >= ?", *days.From)
	}
	if days.To != nil {
		query = query.Where(column+" < ?", *days.To)
	}
	return query
}

// userBriefs loads nicknames for ids. Unknown ids map to a brief with only the id.
func userBriefs(db *gorm.DB, ids []string) (map[string]UserBrief, error) {
	ids = normaliseIDs(ids)
	briefs := make(map[string]UserBrief, len(ids))
	if len(ids) == 0 {
		return briefs, nil
	}
	var users []models.User
	if err := db.Select("id", "nickname", "email").Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	for _, id := range ids {
		briefs[id] = UserBrief{UserID: id}
	}
	for _, user := range users {
		briefs[user.ID] = UserBrief{UserID: user.ID, Nickname: user.DisplayName()}
	}
	return briefs, nil
}
