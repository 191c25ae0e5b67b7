package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/pawwalk/pawwalk/internal/cache"
	"github.com/pawwalk/pawwalk/internal/integrations/advice"
	"github.com/pawwalk/pawwalk/internal/models"
	"github.com/pawwalk/pawwalk/internal/permissions"
	apperrors "github.com/pawwalk/pawwalk/pkg/errors"
)

// WeatherAdviceRequest asks for a weather based walk recommendation. Manual
// requests must carry coordinates; scheduled ones fall back to the pet's last
// known walk location.
type WeatherAdviceRequest struct {
	PetID     string
	ActorID   string
	Trigger   Trigger
	Latitude  *float64
	Longitude *float64
}

// WeatherAdviceResult is the stored recommendation and its inputs.
type WeatherAdviceResult struct {
	NotificationID  string               `json:"notification_id"`
	Title           string               `json:"title"`
	Message         string               `json:"message"`
	Weather         cache.Snapshot       `json:"weather"`
	Recommendation  advice.WeatherAdvice `json:"recommendation"`
	WeeklyMinutes   int                  `json:"weekly_minutes"`
	RecommendedInfo RecommendedInfo      `json:"recommended_info"`
	Broadcast       bool                 `json:"broadcast"`
}

// WeatherAdvisor produces SYSTEM_WEATHER notifications.
type WeatherAdvisor struct {
	advisor
	weather *WeatherService
}

// NewWeatherAdvisor constructs a WeatherAdvisor.
func NewWeatherAdvisor(db *gorm.DB, authority *permissions.Authority, notifications *NotificationService, generator AdviceGenerator, weather *WeatherService) (*WeatherAdvisor, error) {
	if weather == nil {
		return nil, errors.New("weather advisor: weather service is required")
	}
	base, err := newAdvisor("weather", db, authority, notifications, generator, advisoryErrors{
		access:   petAccessErrors{notFound: apperrors.ErrWeatherPetNotFound, forbidden: apperrors.ErrWeatherForbidden},
		generate: apperrors.ErrWeatherGenerate,
		parse:    apperrors.ErrWeatherParse,
		persist:  apperrors.ErrWeatherPersist,
	})
	if err != nil {
		return nil, err
	}
	return &WeatherAdvisor{advisor: base, weather: weather}, nil
}

// Advise builds and stores a walk time recommendation from current weather.
func (w *WeatherAdvisor) Advise(ctx context.Context, req WeatherAdviceRequest) (*WeatherAdviceResult, error) {
	ctx = ensureContext(ctx)

	trigger := req.Trigger
	if trigger == "" {
		trigger = TriggerManual
	}
	hasCoords := req.Latitude != nil && req.Longitude != nil
	if trigger == TriggerManual && !hasCoords {
		return nil, apperrors.ErrWeatherInvalidInput
	}

	pet, err := w.resolvePet(ctx, req.ActorID, req.PetID, trigger)
	if err != nil {
		return nil, err
	}

	lat, lng := req.Latitude, req.Longitude
	if !hasCoords {
		loc, err := lastKnownLocation(ctx, w.db, pet.ID)
		if err != nil {
			return nil, apperrors.ErrWeatherUnavailable.WithInternal(err)
		}
		if loc == nil {
			return nil, apperrors.ErrWeatherInvalidInput
		}
		lat, lng = floatPtr(loc.Latitude), floatPtr(loc.Longitude)
	}

	snapshot, err := w.weather.Current(ctx, *lat, *lng)
	if err != nil {
		return nil, err
	}

	summary, rec, err := w.activityContext(ctx, pet.ID)
	if err != nil {
		return nil, apperrors.ErrWeatherGenerate.WithInternal(err)
	}
	info := newRecommendedInfo(rec)

	var doc advice.WeatherAdvice
	prompt := weatherPrompt(pet, summary, info, snapshot, trigger, w.now().In(kst))
	if err := w.generate(ctx, prompt, &doc); err != nil {
		return nil, err
	}

	message := weatherMessage(snapshot, doc)
	notification, err := w.deliver(ctx, pet, req.ActorID, trigger, CreateNotificationInput{
		Type:      models.NotificationSystemWeather,
		Title:     doc.Title,
		Message:   message,
		Latitude:  lat,
		Longitude: lng,
		Payload: map[string]any{
			"suggested_time_slots":   doc.SuggestedTimeSlots,
			"suggested_duration_min": doc.SuggestedDurationMin,
		},
	})
	if err != nil {
		return nil, err
	}

	return &WeatherAdviceResult{
		NotificationID:  notification.ID,
		Title:           notification.Title,
		Message:         notification.Message,
		Weather:         snapshot,
		Recommendation:  doc,
		WeeklyMinutes:   summary.TotalMinutes,
		RecommendedInfo: info,
		Broadcast:       trigger == TriggerScheduled,
	}, nil
}

// weatherMessage renders the notification body from the observation and the
// first suggested slot.
func weatherMessage(snapshot cache.Snapshot, doc advice.WeatherAdvice) string {
	condition := snapshot.Data.ConditionLocalized
	if condition == "" {
		condition = snapshot.Data.Condition
	}

	var b strings.Builder
	fmt.Fprintf(&b, "오늘 날씨는 %s(%s℃)입니다.\n", condition, strconv.FormatFloat(snapshot.Data.TemperatureC, 'f', -1, 64))
	if len(doc.SuggestedTimeSlots) > 0 {
		slot := doc.SuggestedTimeSlots[0]
		fmt.Fprintf(&b, "추천 산책 시간대는 %s~%s 입니다.", slot.StartTime, slot.EndTime)
	} else {
		b.WriteString("오늘은 적절한 산책 시간을 찾기 어려워요.")
	}
	if len(doc.Notes) > 0 && strings.TrimSpace(doc.Notes[0]) != "" {
		fmt.Fprintf(&b, "\n주의사항: %s", doc.Notes[0])
	}
	return b.String()
}

func weatherPrompt(pet *models.Pet, summary ActivitySummary, info RecommendedInfo, snapshot cache.Snapshot, trigger Trigger, now time.Time) string {
	return fmt.Sprintf(`너는 반려동물 건강·산책 전문가야.
아래 정보를 기반으로 오늘의 산책 시간대와 산책 시간(분)을 JSON으로 추천해줘.

반드시 아래 JSON 형식만 출력:
{"title": "string", "message": "string", "suggested_time_slots": [{"label": "string", "start_time": "HH:MM", "end_time": "HH:MM"}], "suggested_duration_min": 0, "notes": ["string"]}

--- 입력 정보 ---
trigger_type: %s
current_time_kst: %s

--- 날씨 ---
상태: %s
기온: %.1f℃
습도: %.0f%%

--- 반려동물 ---
%s

--- 최근 활동 ---
최근 7일 산책 시간: %d분
권장 산책:
%s`,
		trigger, now.Format("2006-01-02 15:04:05"),
		snapshot.Data.ConditionLocalized, snapshot.Data.TemperatureC, snapshot.Data.Humidity,
		describePet(pet), summary.TotalMinutes, info.describe())
}
