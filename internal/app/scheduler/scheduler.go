package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/pawwalk/pawwalk/internal/services"
	"github.com/pawwalk/pawwalk/pkg/logger"
)

const (
	defaultHealthSpec  = "0 9 * * *"
	defaultWeatherSpec = "0 6 * * *"
	defaultJobTimeout  = 10 * time.Minute
)

// Scheduler broadcasts the daily advisories to every family. Health feedback
// goes out for every pet; weather recommendations only for pets with a known
// walk location.
type Scheduler struct {
	pets    *services.PetService
	walks   *services.WalkService
	health  *services.HealthAdvisor
	weather *services.WeatherAdvisor
	cron    *cron.Cron
	now     func() time.Time
	log     *zap.Logger
	timeout time.Duration

	healthSchedule  string
	weatherSchedule string
}

// Option customises the Scheduler.
type Option func(*Scheduler)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(s *Scheduler) {
		if c != nil {
			s.cron = c
		}
	}
}

// WithNow overrides the clock used for run bookkeeping.
func WithNow(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// WithHealthSchedule overrides the cron specification for health broadcasts.
func WithHealthSchedule(spec string) Option {
	return func(s *Scheduler) {
		if spec != "" {
			s.healthSchedule = spec
		}
	}
}

// WithWeatherSchedule overrides the cron specification for weather broadcasts.
func WithWeatherSchedule(spec string) Option {
	return func(s *Scheduler) {
		if spec != "" {
			s.weatherSchedule = spec
		}
	}
}

// WithJobTimeout bounds a single broadcast run.
func WithJobTimeout(timeout time.Duration) Option {
	return func(s *Scheduler) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// New constructs a Scheduler. A nil advisor disables its job.
func New(pets *services.PetService, walks *services.WalkService, health *services.HealthAdvisor, weather *services.WeatherAdvisor, opts ...Option) *Scheduler {
	s := &Scheduler{
		pets:            pets,
		walks:           walks,
		health:          health,
		weather:         weather,
		now:             time.Now,
		timeout:         defaultJobTimeout,
		healthSchedule:  defaultHealthSpec,
		weatherSchedule: defaultWeatherSpec,
		log:             logger.WithModule("scheduler"),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.cron == nil {
		s.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}
	return s
}

func (s *Scheduler) healthEnabled() bool {
	return s.health != nil && s.pets != nil
}

func (s *Scheduler) weatherEnabled() bool {
	return s.weather != nil && s.walks != nil
}

// Start registers the broadcast jobs and launches cron when at least one is enabled.
func (s *Scheduler) Start() error {
	if !s.healthEnabled() && !s.weatherEnabled() {
		return nil
	}

	if s.healthEnabled() {
		if _, err := s.cron.AddFunc(s.healthSchedule, func() {
			s.runJob("health", s.BroadcastHealth)
		}); err != nil {
			return fmt.Errorf("scheduler: health schedule: %w", err)
		}
	}

	if s.weatherEnabled() {
		if _, err := s.cron.AddFunc(s.weatherSchedule, func() {
			s.runJob("weather", s.BroadcastWeather)
		}); err != nil {
			return fmt.Errorf("scheduler: weather schedule: %w", err)
		}
	}

	s.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (s *Scheduler) Stop() context.Context {
	if s.cron == nil {
		return context.Background()
	}
	return s.cron.Stop()
}

// RunOnce executes every enabled broadcast sequentially.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error
	if s.healthEnabled() {
		if _, err := s.BroadcastHealth(ctx); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	if s.weatherEnabled() {
		if _, err := s.BroadcastWeather(ctx); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

// BroadcastHealth sends scheduled health feedback for every pet. A failure for
// one pet does not stop the run.
func (s *Scheduler) BroadcastHealth(ctx context.Context) (int, error) {
	if !s.healthEnabled() {
		return 0, errors.New("scheduler: health broadcast is not configured")
	}
	ids, err := s.pets.AllIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("scheduler: list pets: %w", err)
	}

	var (
		sent int
		errs error
	)
	for _, petID := range ids {
		if err := ctx.Err(); err != nil {
			return sent, multierr.Append(errs, err)
		}
		if _, err := s.health.Advise(ctx, services.HealthAdviceRequest{PetID: petID, Trigger: services.TriggerScheduled}); err != nil {
			s.log.Warn("scheduled health advice failed", zap.String("pet_id", petID), zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("pet %s: %w", petID, err))
			continue
		}
		sent++
	}
	return sent, errs
}

// BroadcastWeather sends scheduled weather recommendations for every pet with
// a recorded walk location.
func (s *Scheduler) BroadcastWeather(ctx context.Context) (int, error) {
	if !s.weatherEnabled() {
		return 0, errors.New("scheduler: weather broadcast is not configured")
	}
	ids, err := s.walks.PetsWithKnownLocation(ctx)
	if err != nil {
		return 0, fmt.Errorf("scheduler: list located pets: %w", err)
	}

	var (
		sent int
		errs error
	)
	for _, petID := range ids {
		if err := ctx.Err(); err != nil {
			return sent, multierr.Append(errs, err)
		}
		if _, err := s.weather.Advise(ctx, services.WeatherAdviceRequest{PetID: petID, Trigger: services.TriggerScheduled}); err != nil {
			s.log.Warn("scheduled weather advice failed", zap.String("pet_id", petID), zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("pet %s: %w", petID, err))
			continue
		}
		sent++
	}
	return sent, errs
}

func (s *Scheduler) runJob(name string, job func(context.Context) (int, error)) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	started := s.now()
	sent, err := job(ctx)
	fields := []zap.Field{
		zap.String("job", name),
		zap.Int("sent", sent),
		zap.Duration("elapsed", s.now().Sub(started)),
	}
	if err != nil {
		s.log.Warn("scheduled broadcast finished with errors", append(fields, zap.Error(err))...)
		return
	}
	s.log.Info("scheduled broadcast finished", fields...)
}
