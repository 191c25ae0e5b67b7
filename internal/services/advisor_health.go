package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/pawwalk/pawwalk/internal/integrations/advice"
	"github.com/pawwalk/pawwalk/internal/models"
	"github.com/pawwalk/pawwalk/internal/permissions"
	apperrors "github.com/pawwalk/pawwalk/pkg/errors"
)

// HealthAdviceRequest asks for health feedback about one pet.
type HealthAdviceRequest struct {
	PetID   string
	ActorID string
	Trigger Trigger
}

// HealthAdviceResult is the stored health feedback and the context it was built from.
type HealthAdviceResult struct {
	Notification      *models.Notification `json:"notification"`
	Advice            advice.HealthAdvice  `json:"advice"`
	WeeklyWalkMinutes int                  `json:"weekly_walk_minutes"`
	WeeklyWalkCount   int                  `json:"weekly_walk_count"`
	RecommendedInfo   RecommendedInfo      `json:"recommended_info"`
	Broadcast         bool                 `json:"broadcast"`
}

// HealthAdvisor produces SYSTEM_HEALTH notifications from recent activity.
type HealthAdvisor struct {
	advisor
}

// NewHealthAdvisor constructs a HealthAdvisor.
func NewHealthAdvisor(db *gorm.DB, authority *permissions.Authority, notifications *NotificationService, generator AdviceGenerator) (*HealthAdvisor, error) {
	base, err := newAdvisor("health", db, authority, notifications, generator, advisoryErrors{
		access:   petAccessErrors{notFound: apperrors.ErrHealthPetNotFound, forbidden: apperrors.ErrHealthForbidden},
		generate: apperrors.ErrHealthGenerate,
		parse:    apperrors.ErrHealthParse,
		persist:  apperrors.ErrHealthPersist,
	})
	if err != nil {
		return nil, err
	}
	return &HealthAdvisor{advisor: base}, nil
}

// Advise generates and stores health feedback for the pet.
func (h *HealthAdvisor) Advise(ctx context.Context, req HealthAdviceRequest) (*HealthAdviceResult, error) {
	ctx = ensureContext(ctx)

	trigger := req.Trigger
	if trigger == "" {
		trigger = TriggerManual
	}
	if trigger != TriggerManual && trigger != TriggerScheduled {
		return nil, apperrors.ErrHealthInvalidTrigger
	}

	pet, err := h.resolvePet(ctx, req.ActorID, req.PetID, trigger)
	if err != nil {
		return nil, err
	}

	summary, rec, err := h.activityContext(ctx, pet.ID)
	if err != nil {
		return nil, apperrors.ErrHealthGenerate.WithInternal(err)
	}
	info := newRecommendedInfo(rec)

	var doc advice.HealthAdvice
	if err := h.generate(ctx, healthPrompt(pet, summary, info), &doc); err != nil {
		return nil, err
	}

	var payload any
	if len(doc.Tags) > 0 {
		payload = map[string]any{"tags": doc.Tags}
	}
	notification, err := h.deliver(ctx, pet, req.ActorID, trigger, CreateNotificationInput{
		Type:    models.NotificationSystemHealth,
		Title:   doc.Title,
		Message: doc.Message,
		Payload: payload,
	})
	if err != nil {
		return nil, err
	}

	return &HealthAdviceResult{
		Notification:      notification,
		Advice:            doc,
		WeeklyWalkMinutes: summary.TotalMinutes,
		WeeklyWalkCount:   summary.WalkCount,
		RecommendedInfo:   info,
		Broadcast:         trigger == TriggerScheduled,
	}, nil
}

func healthPrompt(pet *models.Pet, summary ActivitySummary, info RecommendedInfo) string {
	return fmt.Sprintf(`너는 전문 수의사 겸 반려동물 건강 코치야.
아래 정보를 종합 분석해서 사용자에게 줄 건강 관리 요약 피드백을 JSON으로 생성해줘.

반드시 출력 JSON 구조:
{"title": "string", "message": "string", "tags": ["string"]}

--- 반려동물 정보 ---
%s

--- 최근 산책량 ---
지난 7일 산책 횟수: %d회
지난 7일 산책 시간: %d분
지난 7일 산책 거리: %.2fkm

--- 추천 산책 정보 ---
%s

message는 2~4문장으로 간결하게.
title은 한 문장 요약.
tags는 2~3개 핵심 키워드만.
반드시 JSON만 출력.`,
		describePet(pet), summary.WalkCount, summary.TotalMinutes, summary.TotalDistanceKm, info.describe())
}
