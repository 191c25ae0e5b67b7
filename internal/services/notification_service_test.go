package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pawwalk/pawwalk/internal/database/testutil"
	"github.com/pawwalk/pawwalk/internal/models"
	apperrors "github.com/pawwalk/pawwalk/pkg/errors"
)

func TestNotificationCreatePersonalIsReadByTarget(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	owner := testutil.MustCreateUser(t, env.db, "owner")
	family, pet := testutil.MustCreatePet(t, env.db, owner, "bori")

	personal, err := env.notifications.Create(ctx, CreateNotificationInput{
		FamilyID:     family.ID,
		TargetUserID: owner.ID,
		RelatedPetID: pet.ID,
		Type:         models.NotificationSystemHealth,
		Title:        "health",
	})
	require.NoError(t, err)
	require.True(t, personal.IsPersonal())
	require.EqualValues(t, 1, env.readCount(t, personal.ID))

	broadcast, err := env.notifications.Create(ctx, CreateNotificationInput{
		FamilyID:     family.ID,
		RelatedPetID: pet.ID,
		Type:         models.NotificationActivityStart,
		Title:        "walk",
	})
	require.NoError(t, err)
	require.False(t, broadcast.IsPersonal())
	require.Zero(t, env.readCount(t, broadcast.ID))
}

func TestNotificationCreateRejectsUnknownType(t *testing.T) {
	env := newServiceEnv(t)

	owner := testutil.MustCreateUser(t, env.db, "owner")
	family, _ := testutil.MustCreatePet(t, env.db, owner, "bori")

	_, err := env.notifications.Create(context.Background(), CreateNotificationInput{
		FamilyID: family.ID,
		Type:     models.NotificationType("MARKETING"),
	})
	require.ErrorIs(t, err, apperrors.ErrNotificationInvalidType)
}

func TestNotificationListVisibilityAndOrder(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	owner := testutil.MustCreateUser(t, env.db, "owner")
	member := testutil.MustCreateUser(t, env.db, "member")
	outsider := testutil.MustCreateUser(t, env.db, "outsider")
	family, pet := testutil.MustCreatePet(t, env.db, owner, "bori")
	testutil.MustAddMember(t, env.db, family, member, models.FamilyRoleMember)
	otherFamily, _ := testutil.MustCreatePet(t, env.db, outsider, "choco")

	first, err := env.notifications.Create(ctx, CreateNotificationInput{
		FamilyID: family.ID, RelatedPetID: pet.ID, RelatedUserID: member.ID,
		Type: models.NotificationActivityStart, Title: "first",
	})
	require.NoError(t, err)
	_, err = env.notifications.Create(ctx, CreateNotificationInput{
		FamilyID: family.ID, TargetUserID: member.ID, RelatedPetID: pet.ID,
		Type: models.NotificationSystemHealth, Title: "member only",
	})
	require.NoError(t, err)
	_, err = env.notifications.Create(ctx, CreateNotificationInput{
		FamilyID: family.ID, TargetUserID: owner.ID, RelatedPetID: pet.ID,
		Type: models.NotificationRequest, Title: "owner only",
	})
	require.NoError(t, err)
	_, err = env.notifications.Create(ctx, CreateNotificationInput{
		FamilyID: otherFamily.ID, Type: models.NotificationActivityEnd, Title: "other family",
	})
	require.NoError(t, err)

	page, err := env.notifications.List(ctx, ListNotificationsInput{UserID: owner.ID})
	require.NoError(t, err)
	require.EqualValues(t, 2, page.TotalCount)
	require.Len(t, page.Items, 2)
	require.Equal(t, "first", page.Items[0].Title)
	require.Equal(t, "owner only", page.Items[1].Title)

	item := page.Items[0]
	require.Equal(t, first.ID, item.ID)
	require.False(t, item.IsReadByMe)
	require.Zero(t, item.ReadCount)
	require.Equal(t, 2, item.UnreadCount)
	require.Equal(t, "[산책 시작]", item.DisplayTypeLabel)
	require.Equal(t, "0명 읽음", item.DisplayReadText)
	require.Equal(t, first.CreatedAt.Format("15:04"), item.DisplayTime)
	require.False(t, item.IsMe)
	require.NotNil(t, item.SenderNickname)
	require.Equal(t, "member", *item.SenderNickname)

	ownerOnly := page.Items[1]
	require.True(t, ownerOnly.IsReadByMe)
	require.Equal(t, 1, ownerOnly.ReadCount)
	require.Equal(t, 1, ownerOnly.UnreadCount)

	memberPage, err := env.notifications.List(ctx, ListNotificationsInput{UserID: member.ID})
	require.NoError(t, err)
	require.EqualValues(t, 2, memberPage.TotalCount)
	require.True(t, memberPage.Items[0].IsMe)
	require.Equal(t, "member only", memberPage.Items[1].Title)

	outsiderPage, err := env.notifications.List(ctx, ListNotificationsInput{UserID: outsider.ID})
	require.NoError(t, err)
	require.EqualValues(t, 1, outsiderPage.TotalCount)
	require.Equal(t, "other family", outsiderPage.Items[0].Title)
}

func TestNotificationListFilters(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	owner := testutil.MustCreateUser(t, env.db, "owner")
	stranger := testutil.MustCreateUser(t, env.db, "stranger")
	family, pet := testutil.MustCreatePet(t, env.db, owner, "bori")

	for _, typ := range []models.NotificationType{models.NotificationActivityStart, models.NotificationActivityEnd, models.NotificationActivityEnd} {
		_, err := env.notifications.Create(ctx, CreateNotificationInput{FamilyID: family.ID, RelatedPetID: pet.ID, Type: typ, Title: string(typ)})
		require.NoError(t, err)
	}
	_, err := env.notifications.Create(ctx, CreateNotificationInput{FamilyID: family.ID, Type: models.NotificationSystemRanking, Title: "ranking"})
	require.NoError(t, err)

	page, err := env.notifications.List(ctx, ListNotificationsInput{UserID: owner.ID, Type: "activity_end"})
	require.NoError(t, err)
	require.EqualValues(t, 2, page.TotalCount)

	page, err = env.notifications.List(ctx, ListNotificationsInput{UserID: owner.ID, PetID: pet.ID})
	require.NoError(t, err)
	require.EqualValues(t, 3, page.TotalCount)

	_, err = env.notifications.List(ctx, ListNotificationsInput{UserID: owner.ID, Type: "MARKETING"})
	require.ErrorIs(t, err, apperrors.ErrNotificationInvalidType)

	_, err = env.notifications.List(ctx, ListNotificationsInput{UserID: stranger.ID, PetID: pet.ID})
	require.ErrorIs(t, err, apperrors.ErrNotificationForbidden)

	_, err = env.notifications.List(ctx, ListNotificationsInput{UserID: owner.ID, PetID: "missing"})
	require.ErrorIs(t, err, apperrors.ErrNotificationPetNotFound)
}

func TestNotificationListPaging(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	owner := testutil.MustCreateUser(t, env.db, "owner")
	family, _ := testutil.MustCreatePet(t, env.db, owner, "bori")
	for i := 0; i < 5; i++ {
		_, err := env.notifications.Create(ctx, CreateNotificationInput{FamilyID: family.ID, Type: models.NotificationSystemReminder, Title: "n"})
		require.NoError(t, err)
	}

	page, err := env.notifications.List(ctx, ListNotificationsInput{UserID: owner.ID, Page: 1, Size: 2})
	require.NoError(t, err)
	require.Equal(t, 1, page.Page)
	require.Equal(t, 2, page.Size)
	require.Len(t, page.Items, 2)
	require.EqualValues(t, 5, page.TotalCount)

	page, err = env.notifications.List(ctx, ListNotificationsInput{UserID: owner.ID, Page: 2, Size: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)

	page, err = env.notifications.List(ctx, ListNotificationsInput{UserID: owner.ID, Size: 1000})
	require.NoError(t, err)
	require.Equal(t, maxPageSize, page.Size)

	page, err = env.notifications.List(ctx, ListNotificationsInput{UserID: owner.ID})
	require.NoError(t, err)
	require.Equal(t, defaultPageSize, page.Size)
	require.Zero(t, page.Page)
}

func TestNotificationMarkRead(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	owner := testutil.MustCreateUser(t, env.db, "owner")
	member := testutil.MustCreateUser(t, env.db, "member")
	outsider := testutil.MustCreateUser(t, env.db, "outsider")
	family, _ := testutil.MustCreatePet(t, env.db, owner, "bori")
	testutil.MustAddMember(t, env.db, family, member, models.FamilyRoleMember)

	broadcast, err := env.notifications.Create(ctx, CreateNotificationInput{FamilyID: family.ID, Type: models.NotificationActivityStart, Title: "walk"})
	require.NoError(t, err)
	personal, err := env.notifications.Create(ctx, CreateNotificationInput{FamilyID: family.ID, TargetUserID: owner.ID, Type: models.NotificationRequest, Title: "request"})
	require.NoError(t, err)

	status, err := env.notifications.MarkRead(ctx, broadcast.ID, member.ID)
	require.NoError(t, err)
	require.Equal(t, MarkReadMarked, status)

	status, err = env.notifications.MarkRead(ctx, broadcast.ID, member.ID)
	require.NoError(t, err)
	require.Equal(t, MarkReadAlreadyRead, status)
	require.EqualValues(t, 1, env.readCount(t, broadcast.ID))

	status, err = env.notifications.MarkRead(ctx, personal.ID, owner.ID)
	require.NoError(t, err)
	require.Equal(t, MarkReadAlreadyRead, status)

	_, err = env.notifications.MarkRead(ctx, personal.ID, member.ID)
	require.ErrorIs(t, err, apperrors.ErrNotificationReadHidden)

	_, err = env.notifications.MarkRead(ctx, broadcast.ID, outsider.ID)
	require.ErrorIs(t, err, apperrors.ErrNotificationReadHidden)

	_, err = env.notifications.MarkRead(ctx, "missing", owner.ID)
	require.ErrorIs(t, err, apperrors.ErrNotificationReadNotFound)

	page, err := env.notifications.List(ctx, ListNotificationsInput{UserID: owner.ID})
	require.NoError(t, err)
	require.Equal(t, 1, page.Items[0].ReadCount)
	require.Equal(t, 1, page.Items[0].UnreadCount)
	require.False(t, page.Items[0].IsReadByMe)
}
