package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pawwalk/pawwalk/internal/database/testutil"
	"github.com/pawwalk/pawwalk/internal/integrations/advice"
	"github.com/pawwalk/pawwalk/internal/models"
	apperrors "github.com/pawwalk/pawwalk/pkg/errors"
)

const (
	healthReply  = "```json\n{\"title\":\"활동량이 좋아요\",\"message\":\"이번 주도 꾸준히 걸었어요.\",\"tags\":[\"활동\",\"체중\"]}\n```"
	weatherReply = `{"title":"아침 산책 추천","message":"선선한 아침이 좋아요","suggested_time_slots":[{"label":"아침","start_time":"07:00","end_time":"08:00"}],"suggested_duration_min":40,"notes":["물을 챙겨주세요"]}`
	walkReply    = `{"title":"한 번 더 걸어요","message":"오늘 20분 산책이 남았어요."}`
)

func TestParseTrigger(t *testing.T) {
	trigger, ok := ParseTrigger("")
	require.True(t, ok)
	require.Equal(t, TriggerManual, trigger)

	trigger, ok = ParseTrigger(" Scheduled ")
	require.True(t, ok)
	require.Equal(t, TriggerScheduled, trigger)

	_, ok = ParseTrigger("weekly")
	require.False(t, ok)
}

func TestHealthAdvisorManualIsPersonal(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	owner := testutil.MustCreateUser(t, env.db, "owner")
	_, pet := testutil.MustCreatePet(t, env.db, owner, "bori")
	env.storeRecommendation(t, pet)

	now := env.clock.Now()
	env.finishedWalk(t, pet, owner, now.Add(-48*time.Hour), 35, 2.1, nil, nil)

	generator := &fakeGenerator{reply: healthReply}
	health, err := NewHealthAdvisor(env.db, env.authority, env.notifications, generator)
	require.NoError(t, err)
	health.now = env.clock.Now

	result, err := health.Advise(ctx, HealthAdviceRequest{PetID: pet.ID, ActorID: owner.ID})
	require.NoError(t, err)
	require.False(t, result.Broadcast)
	require.Equal(t, 35, result.WeeklyWalkMinutes)
	require.Equal(t, 1, result.WeeklyWalkCount)
	require.Equal(t, 420, *result.RecommendedInfo.RecommendedMinutes)
	require.Equal(t, "활동량이 좋아요", result.Notification.Title)
	require.Equal(t, models.NotificationSystemHealth, result.Notification.Type)
	require.Equal(t, owner.ID, *result.Notification.TargetUserID)
	require.EqualValues(t, 1, env.readCount(t, result.Notification.ID))
	require.Contains(t, string(result.Notification.Payload), "체중")

	prompt := generator.lastPrompt()
	require.Contains(t, prompt, "이름: bori")
	require.Contains(t, prompt, "지난 7일 산책 시간: 35분")
	require.Contains(t, prompt, "적정: 420분")
}

func TestHealthAdvisorScheduledBroadcasts(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	owner := testutil.MustCreateUser(t, env.db, "owner")
	_, pet := testutil.MustCreatePet(t, env.db, owner, "bori")

	generator := &fakeGenerator{reply: healthReply}
	health, err := NewHealthAdvisor(env.db, env.authority, env.notifications, generator)
	require.NoError(t, err)

	result, err := health.Advise(ctx, HealthAdviceRequest{PetID: pet.ID, Trigger: TriggerScheduled})
	require.NoError(t, err)
	require.True(t, result.Broadcast)
	require.False(t, result.Notification.IsPersonal())
	require.Zero(t, env.readCount(t, result.Notification.ID))
	require.Nil(t, result.RecommendedInfo.RecommendedMinutes)
	require.Contains(t, generator.lastPrompt(), "적정: 정보 없음")

	_, err = health.Advise(ctx, HealthAdviceRequest{PetID: "missing", Trigger: TriggerScheduled})
	require.ErrorIs(t, err, apperrors.ErrHealthPetNotFound)

	_, err = health.Advise(ctx, HealthAdviceRequest{PetID: pet.ID})
	require.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestHealthAdvisorErrors(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	owner := testutil.MustCreateUser(t, env.db, "owner")
	stranger := testutil.MustCreateUser(t, env.db, "stranger")
	_, pet := testutil.MustCreatePet(t, env.db, owner, "bori")

	generator := &fakeGenerator{err: errUpstream}
	health, err := NewHealthAdvisor(env.db, env.authority, env.notifications, generator)
	require.NoError(t, err)

	_, err = health.Advise(ctx, HealthAdviceRequest{PetID: pet.ID, ActorID: owner.ID, Trigger: Trigger("weekly")})
	require.ErrorIs(t, err, apperrors.ErrHealthInvalidTrigger)

	_, err = health.Advise(ctx, HealthAdviceRequest{PetID: pet.ID, ActorID: stranger.ID})
	require.ErrorIs(t, err, apperrors.ErrHealthForbidden)

	_, err = health.Advise(ctx, HealthAdviceRequest{PetID: pet.ID, ActorID: owner.ID})
	require.ErrorIs(t, err, apperrors.ErrHealthGenerate)

	generator.err = nil
	generator.reply = "I think bori is doing great!"
	_, err = health.Advise(ctx, HealthAdviceRequest{PetID: pet.ID, ActorID: owner.ID})
	require.ErrorIs(t, err, apperrors.ErrHealthParse)

	require.Empty(t, env.notificationsFor(t, pet.ID))

	_, err = NewHealthAdvisor(env.db, env.authority, env.notifications, nil)
	require.Error(t, err)
}

func TestWeatherAdvisorManual(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	owner := testutil.MustCreateUser(t, env.db, "owner")
	_, pet := testutil.MustCreatePet(t, env.db, owner, "bori")

	fetcher := &fakeFetcher{obs: clearSky()}
	weatherSvc, _ := env.newWeatherService(t, fetcher)
	generator := &fakeGenerator{reply: weatherReply}
	weatherAdvisor, err := NewWeatherAdvisor(env.db, env.authority, env.notifications, generator, weatherSvc)
	require.NoError(t, err)
	weatherAdvisor.now = env.clock.Now

	_, err = weatherAdvisor.Advise(ctx, WeatherAdviceRequest{PetID: pet.ID, ActorID: owner.ID})
	require.ErrorIs(t, err, apperrors.ErrWeatherInvalidInput)
	require.Zero(t, fetcher.calls.Load())

	lat, lng := 37.5665, 126.978
	result, err := weatherAdvisor.Advise(ctx, WeatherAdviceRequest{PetID: pet.ID, ActorID: owner.ID, Latitude: &lat, Longitude: &lng})
	require.NoError(t, err)
	require.False(t, result.Broadcast)
	require.Equal(t, "아침 산책 추천", result.Title)
	require.Equal(t, "오늘 날씨는 맑음(21.5℃)입니다.\n추천 산책 시간대는 07:00~08:00 입니다.\n주의사항: 물을 챙겨주세요", result.Message)
	require.Equal(t, 40, result.Recommendation.SuggestedDurationMin)

	var stored models.Notification
	require.NoError(t, env.db.Take(&stored, "id = ?", result.NotificationID).Error)
	require.Equal(t, models.NotificationSystemWeather, stored.Type)
	require.Equal(t, owner.ID, *stored.TargetUserID)
	require.InDelta(t, lat, *stored.Latitude, 1e-9)
	require.Contains(t, string(stored.Payload), "suggested_time_slots")

	prompt := generator.lastPrompt()
	require.Contains(t, prompt, "trigger_type: manual")
	require.Contains(t, prompt, "current_time_kst: 2024-05-01 18:")
}

func TestWeatherAdvisorScheduledUsesLastWalkLocation(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	owner := testutil.MustCreateUser(t, env.db, "owner")
	_, pet := testutil.MustCreatePet(t, env.db, owner, "bori")
	_, lonely := testutil.MustCreatePet(t, env.db, owner, "choco")

	lat, lng := 35.1796, 129.0756
	env.finishedWalk(t, pet, owner, env.clock.Now().Add(-time.Hour), 30, 1.2, &lat, &lng)

	fetcher := &fakeFetcher{obs: clearSky()}
	weatherSvc, _ := env.newWeatherService(t, fetcher)
	weatherAdvisor, err := NewWeatherAdvisor(env.db, env.authority, env.notifications, &fakeGenerator{reply: weatherReply}, weatherSvc)
	require.NoError(t, err)

	result, err := weatherAdvisor.Advise(ctx, WeatherAdviceRequest{PetID: pet.ID, Trigger: TriggerScheduled})
	require.NoError(t, err)
	require.True(t, result.Broadcast)

	var stored models.Notification
	require.NoError(t, env.db.Take(&stored, "id = ?", result.NotificationID).Error)
	require.False(t, stored.IsPersonal())
	require.InDelta(t, lat, *stored.Latitude, 1e-9)
	require.InDelta(t, lng, *stored.Longitude, 1e-9)

	_, err = weatherAdvisor.Advise(ctx, WeatherAdviceRequest{PetID: lonely.ID, Trigger: TriggerScheduled})
	require.ErrorIs(t, err, apperrors.ErrWeatherInvalidInput)

	fetcher.err = errUpstream
	other := 33.0
	_, err = weatherAdvisor.Advise(ctx, WeatherAdviceRequest{PetID: pet.ID, ActorID: owner.ID, Latitude: &other, Longitude: &other})
	require.ErrorIs(t, err, apperrors.ErrWeatherUnavailable)
}

func TestWeatherMessageWithoutSlots(t *testing.T) {
	env := newServiceEnv(t)
	weatherSvc, weatherCache := env.newWeatherService(t, nil)
	weatherCache.Put(1, 1, *clearSky())
	snap, err := weatherSvc.Current(context.Background(), 1, 1)
	require.NoError(t, err)

	message := weatherMessage(snap, advice.WeatherAdvice{Title: "t", Message: "m"})
	require.True(t, strings.HasSuffix(message, "오늘은 적절한 산책 시간을 찾기 어려워요."))
}

func TestWalkAdvisor(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	owner := testutil.MustCreateUser(t, env.db, "owner")
	_, pet := testutil.MustCreatePet(t, env.db, owner, "bori")

	generator := &fakeGenerator{reply: walkReply}
	walkAdvisor, err := NewWalkAdvisor(env.db, env.authority, env.notifications, generator)
	require.NoError(t, err)
	walkAdvisor.now = env.clock.Now

	_, err = walkAdvisor.Advise(ctx, WalkAdviceRequest{PetID: pet.ID, ActorID: owner.ID})
	require.ErrorIs(t, err, apperrors.ErrWalkRecMissing)
	require.Empty(t, generator.prompts)

	env.storeRecommendation(t, pet)
	_, err = env.plans.UpsertGoal(ctx, owner.ID, pet.ID, GoalInput{TargetWalks: 14, TargetMinutes: 420, TargetDistanceKm: 21})
	require.NoError(t, err)

	temp := 18.0
	result, err := walkAdvisor.Advise(ctx, WalkAdviceRequest{
		PetID:                pet.ID,
		ActorID:              owner.ID,
		WeatherStatus:        "맑음",
		WeatherTempC:         &temp,
		TodayWalkCount:       1,
		TodayTotalDistanceKm: 1.2,
	})
	require.NoError(t, err)
	require.Equal(t, 30, result.Recommendation.PerWalk.RecommendedMinutesPerWalk)
	require.NotNil(t, result.Goal)
	require.Equal(t, models.NotificationSystemReminder, result.Notification.Type)
	require.Contains(t, string(result.Notification.Payload), "recommended_minutes_per_walk")

	prompt := generator.lastPrompt()
	require.Contains(t, prompt, "1회 권장: 30분 / 1.50km")
	require.Contains(t, prompt, "--- 주간 목표 ---")
	require.Contains(t, prompt, "기온: 18.0℃")
}
