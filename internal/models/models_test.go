package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBaseModelBeforeCreateGeneratesID(t *testing.T) {
	var base BaseModel
	require.NoError(t, base.BeforeCreate(nil))
	require.NotEmpty(t, base.ID)

	var record RecordModel
	require.NoError(t, record.BeforeCreate(nil))
	require.NotEmpty(t, record.ID)

	var read NotificationRead
	require.NoError(t, read.BeforeCreate(nil))
	require.NotEmpty(t, read.ID)
}

func TestParseNotificationTypeIsClosed(t *testing.T) {
	typ, ok := ParseNotificationType("system_health")
	require.True(t, ok)
	require.Equal(t, NotificationSystemHealth, typ)
	require.Equal(t, "건강 피드백", typ.Label())

	_, ok = ParseNotificationType("MARKETING")
	require.False(t, ok)

	_, ok = ParseNotificationType("")
	require.False(t, ok)
}

func TestEveryNotificationTypeHasLabel(t *testing.T) {
	all := []NotificationType{
		NotificationRequest, NotificationInviteAccepted, NotificationInviteRejected,
		NotificationActivityStart, NotificationActivityEnd, NotificationFamilyRoleChanged,
		NotificationPetUpdate, NotificationSystemRanking, NotificationSystemWeather,
		NotificationSystemReminder, NotificationSystemHealth, NotificationSOS,
		NotificationSOSResolved,
	}
	for _, typ := range all {
		require.True(t, typ.Valid(), string(typ))
	}
}

func TestParseShareDecision(t *testing.T) {
	status, ok := ParseShareDecision("approved")
	require.True(t, ok)
	require.Equal(t, ShareStatusApproved, status)

	_, ok = ParseShareDecision("PENDING")
	require.False(t, ok)
}

func TestPerWalkSplit(t *testing.T) {
	rec := &PetWalkRecommendation{RecommendedWalks: 3, RecommendedMinutes: 100, RecommendedDistanceKm: 5}
	minutes, distance := rec.PerWalk()
	require.Equal(t, 33, minutes)
	require.InDelta(t, 1.67, distance, 0.0001)

	minutes, distance = (&PetWalkRecommendation{}).PerWalk()
	require.Zero(t, minutes)
	require.Zero(t, distance)
}

func TestGoalExceedsRecommendation(t *testing.T) {
	rec := &PetWalkRecommendation{
		RecommendedWalks: 7, RecommendedMinutes: 210, RecommendedDistanceKm: 10,
		MaxWalks: 14, MaxMinutes: 420, MaxDistanceKm: 20,
	}

	sane := &PetWalkGoal{TargetWalks: 7, TargetMinutes: 200, TargetDistanceKm: 9}
	require.False(t, sane.ExceedsRecommendation(rec))

	tooFar := &PetWalkGoal{TargetWalks: 7, TargetMinutes: 200, TargetDistanceKm: 25}
	require.True(t, tooFar.ExceedsRecommendation(rec))

	require.False(t, tooFar.ExceedsRecommendation(nil))
}

func TestUserDisplayName(t *testing.T) {
	require.Equal(t, "bori", (&User{Nickname: "bori"}).DisplayName())
	require.Equal(t, "walker", (&User{Email: "walker@example.com"}).DisplayName())
}
