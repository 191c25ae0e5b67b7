package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pawwalk/pawwalk/internal/handlers/testutil"
)

func TestHealthAndMetrics(t *testing.T) {
	env := testutil.NewEnv(t)

	w := env.Request(http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var status string
	testutil.DecodeField(t, testutil.DecodeResponse(t, w), "health", &status)
	require.Equal(t, "up", status)

	w = env.Request(http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "# HELP")

	w = env.Request(http.MethodGet, "/api/unknown", nil, "")
	testutil.RequireError(t, w, http.StatusNotFound, "NOT_FOUND")
}
