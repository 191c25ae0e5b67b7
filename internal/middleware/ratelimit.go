package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/pawwalk/pawwalk/pkg/errors"
	"github.com/pawwalk/pawwalk/pkg/response"
)

type rateCounter struct {
	count     int
	windowEnd time.Time
}

// rateStore is a process-local fixed window counter keyed by client.
type rateStore struct {
	mu    sync.Mutex
	data  map[string]*rateCounter
	clock func() time.Time
}

func newRateStore(clock func() time.Time) *rateStore {
	return &rateStore{data: make(map[string]*rateCounter), clock: clock}
}

func (s *rateStore) increment(key string, window time.Duration) (int, time.Duration) {
	now := s.clock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Expired counters are swept on write so the map tracks active clients only.
	if len(s.data) > 1024 {
		for k, v := range s.data {
			if now.After(v.windowEnd) {
				delete(s.data, k)
			}
		}
	}

	counter, ok := s.data[key]
	if !ok || now.After(counter.windowEnd) {
		counter = &rateCounter{windowEnd: now.Add(window)}
		s.data[key] = counter
	}
	counter.count++
	return counter.count, counter.windowEnd.Sub(now)
}

// RateLimit limits requests per client IP within a fixed window. A
// non-positive limit or window disables it.
func RateLimit(maxRequests int, window time.Duration) gin.HandlerFunc {
	store := newRateStore(time.Now)
	return func(c *gin.Context) {
		if maxRequests <= 0 || window <= 0 {
			c.Next()
			return
		}

		count, resetIn := store.increment(c.ClientIP(), window)
		remaining := maxRequests - count
		if remaining < 0 {
			remaining = 0
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.Itoa(int(resetIn.Seconds())))

		if count > maxRequests {
			response.Error(c, apperrors.ErrRateLimit)
			c.Abort()
			return
		}
		c.Next()
	}
}
