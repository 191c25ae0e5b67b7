package services

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pawwalk/pawwalk/internal/cache"
	"github.com/pawwalk/pawwalk/internal/database/testutil"
	"github.com/pawwalk/pawwalk/internal/integrations/storage"
	"github.com/pawwalk/pawwalk/internal/integrations/weather"
	"github.com/pawwalk/pawwalk/internal/models"
	"github.com/pawwalk/pawwalk/internal/permissions"
)

// testClock hands out strictly increasing timestamps so rows created in a
// test have a deterministic order.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeGenerator struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []string
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

func (g *fakeGenerator) lastPrompt() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.prompts) == 0 {
		return ""
	}
	return g.prompts[len(g.prompts)-1]
}

type fakeFetcher struct {
	calls atomic.Int32
	obs   *weather.Observation
	err   error
	delay time.Duration
}

func (f *fakeFetcher) Fetch(ctx context.Context, _, _ float64) (*weather.Observation, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	obs := *f.obs
	return &obs, nil
}

type fakeStorage struct {
	objects []storage.Object
	bodies  [][]byte
	err     error
}

func (s *fakeStorage) Upload(_ context.Context, obj storage.Object) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	body, err := io.ReadAll(obj.Body)
	if err != nil {
		return "", err
	}
	s.objects = append(s.objects, obj)
	s.bodies = append(s.bodies, body)
	return "https://cdn.example.com/" + obj.Folder + "/" + obj.Name, nil
}

var errUpstream = errors.New("upstream down")

// serviceEnv wires every service against one in-memory database.
type serviceEnv struct {
	db            *gorm.DB
	clock         *testClock
	authority     *permissions.Authority
	notifications *NotificationService
	users         *UserService
	pets          *PetService
	shares        *PetShareService
	walks         *WalkService
	plans         *WalkPlanService
}

func newServiceEnv(t *testing.T) *serviceEnv {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	clock := newTestClock()

	authority, err := permissions.NewAuthority(db)
	require.NoError(t, err)

	notifications, err := NewNotificationService(db, authority)
	require.NoError(t, err)
	notifications.now = clock.Now

	users, err := NewUserService(db)
	require.NoError(t, err)

	pets, err := NewPetService(db, authority, notifications)
	require.NoError(t, err)
	pets.now = clock.Now

	shares, err := NewPetShareService(db, authority, notifications)
	require.NoError(t, err)
	shares.now = clock.Now

	walks, err := NewWalkService(db, authority, notifications)
	require.NoError(t, err)
	walks.now = clock.Now

	plans, err := NewWalkPlanService(db, authority)
	require.NoError(t, err)
	plans.now = clock.Now

	return &serviceEnv{
		db:            db,
		clock:         clock,
		authority:     authority,
		notifications: notifications,
		users:         users,
		pets:          pets,
		shares:        shares,
		walks:         walks,
		plans:         plans,
	}
}

func (e *serviceEnv) newWeatherService(t *testing.T, fetcher WeatherFetcher) (*WeatherService, *cache.WeatherCache) {
	t.Helper()
	weatherCache := cache.NewWeatherCache(cache.WithClock(e.clock.Now))
	svc, err := NewWeatherService(weatherCache, fetcher)
	require.NoError(t, err)
	svc.now = e.clock.Now
	return svc, weatherCache
}

func (e *serviceEnv) notificationsFor(t *testing.T, petID string) []models.Notification {
	t.Helper()
	var rows []models.Notification
	require.NoError(t, e.db.Where("related_pet_id = ?", petID).Order("created_at ASC").Find(&rows).Error)
	return rows
}

func (e *serviceEnv) readCount(t *testing.T, notificationID string) int64 {
	t.Helper()
	var count int64
	require.NoError(t, e.db.Model(&models.NotificationRead{}).Where("notification_id = ?", notificationID).Count(&count).Error)
	return count
}

func (e *serviceEnv) finishedWalk(t *testing.T, pet *models.Pet, walker *models.User, startedAt time.Time, minutes int, km float64, lat, lng *float64) *models.Walk {
	t.Helper()
	end := startedAt.Add(time.Duration(minutes) * time.Minute)
	walk := &models.Walk{
		PetID:       pet.ID,
		UserID:      walker.ID,
		StartTime:   startedAt,
		EndTime:     &end,
		DurationMin: &minutes,
		DistanceKm:  &km,
		LastLat:     lat,
		LastLng:     lng,
	}
	require.NoError(t, e.db.Create(walk).Error)
	return walk
}

func (e *serviceEnv) storeRecommendation(t *testing.T, pet *models.Pet) *models.PetWalkRecommendation {
	t.Helper()
	rec := &models.PetWalkRecommendation{
		PetID:    pet.ID,
		MinWalks: 7, MinMinutes: 140, MinDistanceKm: 7,
		RecommendedWalks: 14, RecommendedMinutes: 420, RecommendedDistanceKm: 21,
		MaxWalks: 21, MaxMinutes: 630, MaxDistanceKm: 30,
		GeneratedBy: models.RecommendationByLLM,
	}
	require.NoError(t, e.db.Create(rec).Error)
	return rec
}
