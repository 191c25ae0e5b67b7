package handlers_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pawwalk/pawwalk/internal/handlers/testutil"
	"github.com/pawwalk/pawwalk/internal/models"
)

func TestRecordHandler_WalksPhotosRecent(t *testing.T) {
	env := testutil.NewEnv(t)
	owner, ownerToken := env.CreateUser("owner")
	_, strangerToken := env.CreateUser("stranger")
	_, pet := env.CreatePet(owner, "bori")

	minutes := 30
	for i, start := range []time.Time{
		time.Date(2024, 4, 30, 14, 0, 0, 0, time.UTC),
		time.Date(2024, 5, 1, 1, 0, 0, 0, time.UTC),
		time.Date(2024, 5, 3, 1, 0, 0, 0, time.UTC),
		time.Date(2024, 5, 4, 1, 0, 0, 0, time.UTC),
	} {
		end := start.Add(30 * time.Minute)
		walk := &models.Walk{PetID: pet.ID, UserID: owner.ID, StartTime: start, EndTime: &end, DurationMin: &minutes}
		require.NoError(t, env.DB.Create(walk).Error)
		photo := &models.Photo{WalkID: walk.ID, PetID: pet.ID, UploadedBy: owner.ID, ImageURL: "https://cdn.example.com/p.jpg"}
		photo.CreatedAt = start.Add(time.Duration(i+1) * time.Minute)
		require.NoError(t, env.DB.Create(photo).Error)
	}

	w := env.Request(http.MethodGet, "/api/records/walks?pet_id="+pet.ID+"&start_date=2024-05-01&end_date=2024-05-03", nil, ownerToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var walks []models.Walk
	testutil.DecodeField(t, testutil.DecodeResponse(t, w), "walks", &walks)
	require.Len(t, walks, 2)
	require.True(t, walks[0].StartTime.After(walks[1].StartTime))

	w = env.Request(http.MethodGet, "/api/records/walks", nil, ownerToken)
	testutil.RequireError(t, w, http.StatusBadRequest, "WALK_LIST_400_1")
	w = env.Request(http.MethodGet, "/api/records/walks?pet_id="+pet.ID+"&start_date=20240501", nil, ownerToken)
	testutil.RequireError(t, w, http.StatusBadRequest, "WALK_LIST_400_2")
	w = env.Request(http.MethodGet, "/api/records/walks?pet_id="+pet.ID+"&start_date=2024-05-03&end_date=2024-05-01", nil, ownerToken)
	testutil.RequireError(t, w, http.StatusBadRequest, "WALK_LIST_400_3")
	w = env.Request(http.MethodGet, "/api/records/walks?pet_id="+pet.ID, nil, strangerToken)
	testutil.RequireError(t, w, http.StatusForbidden, "WALK_LIST_403_1")
	w = env.Request(http.MethodGet, "/api/records/walks?pet_id=missing", nil, ownerToken)
	testutil.RequireError(t, w, http.StatusNotFound, "WALK_LIST_404_2")

	w = env.Request(http.MethodGet, "/api/records/photos?pet_id="+pet.ID+"&page=1&size=3", nil, ownerToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := testutil.DecodeResponse(t, w)
	var total int64
	testutil.DecodeField(t, body, "total_count", &total)
	require.EqualValues(t, 4, total)
	var photos []map[string]any
	testutil.DecodeField(t, body, "photos", &photos)
	require.Len(t, photos, 1)
	require.Equal(t, "2024-04-30", photos[0]["walk_date"])

	w = env.Request(http.MethodGet, "/api/records/photos", nil, ownerToken)
	testutil.RequireError(t, w, http.StatusBadRequest, "PHOTO_LIST_400_3")
	w = env.Request(http.MethodGet, "/api/records/photos?pet_id="+pet.ID+"&end_date=May", nil, ownerToken)
	testutil.RequireError(t, w, http.StatusBadRequest, "PHOTO_LIST_400_1")
	w = env.Request(http.MethodGet, "/api/records/photos?pet_id="+pet.ID, nil, strangerToken)
	testutil.RequireError(t, w, http.StatusForbidden, "PHOTO_LIST_403_1")

	w = env.Request(http.MethodGet, "/api/records/recent?pet_id="+pet.ID, nil, ownerToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var recent []map[string]any
	testutil.DecodeField(t, testutil.DecodeResponse(t, w), "recent_activities", &recent)
	require.Len(t, recent, 3)
	require.Equal(t, "2024-05-04", recent[0]["date"])
	walker, ok := recent[0]["walker"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "owner", walker["nickname"])

	w = env.Request(http.MethodGet, "/api/records/recent?pet_id="+pet.ID, nil, strangerToken)
	testutil.RequireError(t, w, http.StatusForbidden, "RECENT_ACT_403_1")
	w = env.Request(http.MethodGet, "/api/records/recent", nil, ownerToken)
	testutil.RequireError(t, w, http.StatusBadRequest, "RECENT_ACT_400_1")
}

func TestWalkHandler_Today(t *testing.T) {
	env := testutil.NewEnv(t)
	owner, ownerToken := env.CreateUser("owner")
	_, strangerToken := env.CreateUser("stranger")
	_, pet := env.CreatePet(owner, "bori")

	w := env.Request(http.MethodPost, "/api/walks/start", map[string]any{"pet_id": pet.ID}, ownerToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.Request(http.MethodGet, "/api/walks/today?pet_id="+pet.ID, nil, ownerToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var today struct {
		PetID            string `json:"pet_id"`
		Date             string `json:"date"`
		TotalWalks       int    `json:"total_walks"`
		CurrentWalkOrder int    `json:"current_walk_order"`
		HasOngoingWalk   bool   `json:"has_ongoing_walk"`
	}
	testutil.DecodeField(t, testutil.DecodeResponse(t, w), "today", &today)
	require.Equal(t, pet.ID, today.PetID)
	require.Len(t, today.Date, len("2006-01-02"))
	require.Zero(t, today.TotalWalks)
	require.True(t, today.HasOngoingWalk)
	require.Equal(t, 1, today.CurrentWalkOrder)

	w = env.Request(http.MethodGet, "/api/walks/today?pet_id="+pet.ID, nil, strangerToken)
	testutil.RequireError(t, w, http.StatusForbidden, "WALK_TODAY_403_1")
	w = env.Request(http.MethodGet, "/api/walks/today", nil, ownerToken)
	testutil.RequireError(t, w, http.StatusBadRequest, "WALK_TODAY_400_1")
}
