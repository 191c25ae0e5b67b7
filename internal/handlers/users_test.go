package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pawwalk/pawwalk/internal/handlers/testutil"
	"github.com/pawwalk/pawwalk/internal/models"
)

func TestUserHandler_MeRequiresToken(t *testing.T) {
	env := testutil.NewEnv(t)

	w := env.Request(http.MethodGet, "/api/users/me", nil, "")
	testutil.RequireError(t, w, http.StatusUnauthorized, "AUTH_401_1")
	require.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))

	w = env.Request(http.MethodGet, "/api/users/me", nil, "not-a-jwt")
	testutil.RequireError(t, w, http.StatusUnauthorized, "AUTH_401_3")
}

func TestUserHandler_ProvisionsAndUpdatesProfile(t *testing.T) {
	env := testutil.NewEnv(t)
	token := env.TokenFor("firebase-new-user", "walker@example.com")

	w := env.Request(http.MethodGet, "/api/users/me", nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := testutil.DecodeResponse(t, w)
	require.True(t, resp.Success)
	var me models.User
	testutil.DecodeField(t, resp, "user", &me)
	require.Equal(t, "firebase-new-user", me.FirebaseUID)
	require.NotEmpty(t, me.ID)

	w = env.Request(http.MethodPatch, "/api/users/me", map[string]any{
		"nickname": "보리아빠",
		"phone":    "010-0000-0000",
	}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	testutil.DecodeField(t, testutil.DecodeResponse(t, w), "user", &me)
	require.Equal(t, "보리아빠", me.Nickname)
	require.Equal(t, "010-0000-0000", me.Phone)

	w = env.Request(http.MethodPatch, "/api/users/me", map[string]any{"profile_img_url": "not a url"}, token)
	testutil.RequireError(t, w, http.StatusBadRequest, "BAD_REQUEST")
}

func TestUserHandler_UpdateFCMToken(t *testing.T) {
	env := testutil.NewEnv(t)
	user, token := env.CreateUser("dana")

	w := env.Request(http.MethodPut, "/api/users/me/fcm-token", map[string]any{}, token)
	testutil.RequireError(t, w, http.StatusBadRequest, "BAD_REQUEST")

	w = env.Request(http.MethodPut, "/api/users/me/fcm-token", map[string]any{"fcm_token": "device-token"}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var stored models.User
	require.NoError(t, env.DB.Take(&stored, "id = ?", user.ID).Error)
	require.Equal(t, "device-token", stored.FCMToken)
}
