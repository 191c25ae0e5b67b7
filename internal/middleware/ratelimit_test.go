package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RateLimit(2, 100*time.Millisecond))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	hit := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		return w
	}

	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusOK, hit().Code)
	}

	w := hit()
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.Equal(t, "RATE_LIMIT_EXCEEDED", errorCode(t, w))
	require.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	time.Sleep(120 * time.Millisecond)
	require.Equal(t, http.StatusOK, hit().Code)
}

func TestRateStoreWindows(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	store := newRateStore(func() time.Time { return now })

	count, reset := store.increment("10.0.0.1", time.Minute)
	require.Equal(t, 1, count)
	require.Equal(t, time.Minute, reset)

	count, _ = store.increment("10.0.0.1", time.Minute)
	require.Equal(t, 2, count)
	count, _ = store.increment("10.0.0.2", time.Minute)
	require.Equal(t, 1, count)

	now = now.Add(61 * time.Second)
	count, _ = store.increment("10.0.0.1", time.Minute)
	require.Equal(t, 1, count)
}
