package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pawwalk/pawwalk/internal/handlers/testutil"
	"github.com/pawwalk/pawwalk/internal/services"
)

func TestPetShareHandler_RequestAndApprove(t *testing.T) {
	env := testutil.NewEnv(t)
	owner, ownerToken := env.CreateUser("owner")
	_, requesterToken := env.CreateUser("requester")
	_, pet := env.CreatePet(owner, "bori")

	w := env.Request(http.MethodPost, "/api/pets/NOPE0000/request", nil, requesterToken)
	testutil.RequireError(t, w, http.StatusNotFound, "PET_SHARE_404_2")

	w = env.Request(http.MethodPost, "/api/pets/"+pet.PetSearchID+"/request", map[string]any{"message": "hi"}, requesterToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var requestID string
	testutil.DecodeField(t, testutil.DecodeResponse(t, w), "request_id", &requestID)
	require.NotEmpty(t, requestID)

	w = env.Request(http.MethodPost, "/api/pets/"+pet.PetSearchID+"/request", nil, requesterToken)
	testutil.RequireError(t, w, http.StatusConflict, "PET_SHARE_409_2")

	w = env.Request(http.MethodGet, "/api/pets/share/requests/received", nil, ownerToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := testutil.DecodeResponse(t, w)
	var received []services.ShareRequestView
	testutil.DecodeField(t, resp, "requests", &received)
	require.Len(t, received, 1)
	require.Equal(t, "hi", received[0].Message)
	var page int
	testutil.DecodeField(t, resp, "page", &page)
	require.Equal(t, 1, page)

	w = env.Request(http.MethodGet, "/api/pets/share/requests/me", nil, requesterToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var mine []services.ShareRequestView
	testutil.DecodeField(t, testutil.DecodeResponse(t, w), "requests", &mine)
	require.Len(t, mine, 1)

	w = env.Request(http.MethodGet, "/api/pets/"+pet.ID, nil, requesterToken)
	testutil.RequireError(t, w, http.StatusForbidden, "PET_403_1")

	w = env.Request(http.MethodPatch, "/api/pets/share/"+requestID, map[string]any{"status": "MAYBE"}, ownerToken)
	testutil.RequireError(t, w, http.StatusBadRequest, "PET_SHARE_APPROVE_400_1")

	w = env.Request(http.MethodPatch, "/api/pets/share/"+requestID, map[string]any{"status": "APPROVED"}, requesterToken)
	testutil.RequireError(t, w, http.StatusForbidden, "PET_SHARE_APPROVE_403_1")

	w = env.Request(http.MethodPatch, "/api/pets/share/"+requestID, map[string]any{"status": "APPROVED"}, ownerToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var result services.ShareRespondResult
	testutil.DecodeField(t, testutil.DecodeResponse(t, w), "result", &result)
	require.Equal(t, pet.FamilyID, result.FamilyID)

	w = env.Request(http.MethodPatch, "/api/pets/share/"+requestID, map[string]any{"status": "REJECTED"}, ownerToken)
	testutil.RequireError(t, w, http.StatusConflict, "PET_SHARE_APPROVE_409_1")

	w = env.Request(http.MethodGet, "/api/pets/"+pet.ID, nil, requesterToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.Request(http.MethodPost, "/api/pets/"+pet.PetSearchID+"/request", nil, requesterToken)
	testutil.RequireError(t, w, http.StatusConflict, "PET_SHARE_409_1")
}
