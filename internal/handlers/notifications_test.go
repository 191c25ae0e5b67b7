package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pawwalk/pawwalk/internal/handlers/testutil"
	"github.com/pawwalk/pawwalk/internal/models"
	"github.com/pawwalk/pawwalk/internal/services"
)

func TestNotificationHandler_ListAndMarkRead(t *testing.T) {
	env := testutil.NewEnv(t)
	owner, ownerToken := env.CreateUser("owner")
	member, memberToken := env.CreateUser("member")
	_, strangerToken := env.CreateUser("stranger")
	family, pet := env.CreatePet(owner, "bori")
	env.AddMember(family, member)

	w := env.Request(http.MethodPost, "/api/walks/start", map[string]any{"pet_id": pet.ID}, ownerToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.Request(http.MethodGet, "/api/notifications?pet_id="+pet.ID, nil, memberToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := testutil.DecodeResponse(t, w)
	var items []services.NotificationItem
	testutil.DecodeField(t, resp, "notifications", &items)
	require.Len(t, items, 1)
	require.Equal(t, models.NotificationActivityStart, items[0].Type)
	require.False(t, items[0].IsReadByMe)
	require.Equal(t, 2, items[0].UnreadCount)
	var total int64
	testutil.DecodeField(t, resp, "total_count", &total)
	require.EqualValues(t, 1, total)

	id := items[0].ID
	w = env.Request(http.MethodPatch, "/api/notifications/"+id+"/read", nil, memberToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var status string
	testutil.DecodeField(t, testutil.DecodeResponse(t, w), "read_status", &status)
	require.Equal(t, "marked", status)

	w = env.Request(http.MethodPatch, "/api/notifications/"+id+"/read", nil, memberToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	testutil.DecodeField(t, testutil.DecodeResponse(t, w), "read_status", &status)
	require.Equal(t, "already_read", status)

	w = env.Request(http.MethodGet, "/api/notifications", nil, memberToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	testutil.DecodeField(t, testutil.DecodeResponse(t, w), "notifications", &items)
	require.True(t, items[0].IsReadByMe)
	require.Equal(t, 1, items[0].ReadCount)
	require.Equal(t, 1, items[0].UnreadCount)

	w = env.Request(http.MethodPatch, "/api/notifications/"+id+"/read", nil, strangerToken)
	testutil.RequireError(t, w, http.StatusNotFound, "NOTIF_READ_404_3")

	w = env.Request(http.MethodPatch, "/api/notifications/missing/read", nil, memberToken)
	testutil.RequireError(t, w, http.StatusNotFound, "NOTIF_READ_404_2")
}

func TestNotificationHandler_RejectsUnknownType(t *testing.T) {
	env := testutil.NewEnv(t)
	_, token := env.CreateUser("owner")

	w := env.Request(http.MethodGet, "/api/notifications?type=NOT_A_TYPE", nil, token)
	testutil.RequireError(t, w, http.StatusBadRequest, "NOTIF_400_1")

	w = env.Request(http.MethodGet, "/api/notifications?type=SYSTEM_HEALTH&page=0&size=5", nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var size int
	testutil.DecodeField(t, testutil.DecodeResponse(t, w), "size", &size)
	require.Equal(t, 5, size)
}
