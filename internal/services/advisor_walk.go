package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/pawwalk/pawwalk/internal/integrations/advice"
	"github.com/pawwalk/pawwalk/internal/models"
	"github.com/pawwalk/pawwalk/internal/permissions"
	apperrors "github.com/pawwalk/pawwalk/pkg/errors"
)

// WalkAdviceRequest asks for a reminder based on today's activity.
type WalkAdviceRequest struct {
	PetID                string
	ActorID              string
	Trigger              Trigger
	Latitude             *float64
	Longitude            *float64
	WeatherStatus        string
	WeatherTempC         *float64
	TodayWalkCount       int
	TodayTotalDistanceKm float64
}

// WalkAdviceResult is the reminder plus the stored recommendation it used.
type WalkAdviceResult struct {
	Notification   *models.Notification `json:"notification"`
	Advice         advice.WalkAdvice    `json:"advice"`
	Recommendation *RecommendationView  `json:"recommendation"`
	WeeklyActivity ActivitySummary      `json:"weekly_activity"`
	Goal           *models.PetWalkGoal  `json:"goal,omitempty"`
	Broadcast      bool                 `json:"broadcast"`
}

// WalkAdvisor produces SYSTEM_REMINDER notifications from the stored
// recommendation and the goal.
type WalkAdvisor struct {
	advisor
}

// NewWalkAdvisor constructs a WalkAdvisor.
func NewWalkAdvisor(db *gorm.DB, authority *permissions.Authority, notifications *NotificationService, generator AdviceGenerator) (*WalkAdvisor, error) {
	base, err := newAdvisor("walk", db, authority, notifications, generator, advisoryErrors{
		access:   petAccessErrors{notFound: apperrors.ErrWalkRecPetNotFound, forbidden: apperrors.ErrWalkRecForbidden},
		generate: apperrors.ErrWalkRecGenerate,
		parse:    apperrors.ErrWalkRecParse,
		persist:  apperrors.ErrWalkRecPersist,
	})
	if err != nil {
		return nil, err
	}
	return &WalkAdvisor{advisor: base}, nil
}

// Advise generates a walk reminder. The pet must already have a stored recommendation.
func (w *WalkAdvisor) Advise(ctx context.Context, req WalkAdviceRequest) (*WalkAdviceResult, error) {
	ctx = ensureContext(ctx)

	trigger := req.Trigger
	if trigger == "" {
		trigger = TriggerManual
	}

	pet, err := w.resolvePet(ctx, req.ActorID, req.PetID, trigger)
	if err != nil {
		return nil, err
	}

	summary, rec, err := w.activityContext(ctx, pet.ID)
	if err != nil {
		return nil, apperrors.ErrWalkRecGenerate.WithInternal(err)
	}
	if rec == nil {
		return nil, apperrors.ErrWalkRecMissing
	}
	view := newRecommendationView(rec)

	var goal *models.PetWalkGoal
	var stored models.PetWalkGoal
	err = w.db.WithContext(ctx).Take(&stored, "pet_id = ?", pet.ID).Error
	switch {
	case err == nil:
		goal = &stored
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, apperrors.ErrWalkRecGenerate.WithInternal(fmt.Errorf("walk advisor: load goal: %w", err))
	}

	var doc advice.WalkAdvice
	if err := w.generate(ctx, walkPrompt(pet, req, summary, view, goal), &doc); err != nil {
		return nil, err
	}

	notification, err := w.deliver(ctx, pet, req.ActorID, trigger, CreateNotificationInput{
		Type:      models.NotificationSystemReminder,
		Title:     doc.Title,
		Message:   doc.Message,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Payload:   map[string]any{"per_walk": view.PerWalk},
	})
	if err != nil {
		return nil, err
	}

	return &WalkAdviceResult{
		Notification:   notification,
		Advice:         doc,
		Recommendation: view,
		WeeklyActivity: summary,
		Goal:           goal,
		Broadcast:      trigger == TriggerScheduled,
	}, nil
}

func walkPrompt(pet *models.Pet, req WalkAdviceRequest, summary ActivitySummary, view *RecommendationView, goal *models.PetWalkGoal) string {
	var b strings.Builder
	b.WriteString("너는 반려동물 산책 코치야.\n")
	b.WriteString("아래 정보를 바탕으로 오늘 남은 산책에 대한 짧은 알림을 JSON으로 작성해줘.\n\n")
	b.WriteString(`반드시 출력 JSON 구조: {"title": "string", "message": "string"}` + "\n\n")

	fmt.Fprintf(&b, "--- 반려동물 ---\n%s\n\n", describePet(pet))

	b.WriteString("--- 오늘 ---\n")
	fmt.Fprintf(&b, "산책 횟수: %d회\n산책 거리: %.2fkm\n", req.TodayWalkCount, req.TodayTotalDistanceKm)
	if req.WeatherStatus != "" {
		fmt.Fprintf(&b, "날씨: %s\n", req.WeatherStatus)
	}
	if req.WeatherTempC != nil {
		fmt.Fprintf(&b, "기온: %.1f℃\n", *req.WeatherTempC)
	}

	fmt.Fprintf(&b, "\n--- 최근 7일 ---\n산책 횟수: %d회\n산책 시간: %d분\n산책 거리: %.2fkm\n",
		summary.WalkCount, summary.TotalMinutes, summary.TotalDistanceKm)

	rec := view.PetWalkRecommendation
	fmt.Fprintf(&b, "\n--- 주간 추천 ---\n최소: %d회 / %d분 / %.2fkm\n적정: %d회 / %d분 / %.2fkm\n최대: %d회 / %d분 / %.2fkm\n",
		rec.MinWalks, rec.MinMinutes, rec.MinDistanceKm,
		rec.RecommendedWalks, rec.RecommendedMinutes, rec.RecommendedDistanceKm,
		rec.MaxWalks, rec.MaxMinutes, rec.MaxDistanceKm)
	fmt.Fprintf(&b, "1회 권장: %d분 / %.2fkm\n", view.PerWalk.RecommendedMinutesPerWalk, view.PerWalk.RecommendedDistanceKmPerWalk)

	if goal != nil {
		fmt.Fprintf(&b, "\n--- 주간 목표 ---\n%d회 / %d분 / %.2fkm\n", goal.TargetWalks, goal.TargetMinutes, goal.TargetDistanceKm)
	}

	b.WriteString("\nmessage는 1~2문장. 반드시 JSON만 출력.")
	return b.String()
}
