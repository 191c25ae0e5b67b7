package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/pawwalk/pawwalk/internal/cache"
	"github.com/pawwalk/pawwalk/internal/permissions"
)

// Collaborators are the outbound dependencies of the domain services. Fetcher
// and Storage may be nil; Generator may not.
type Collaborators struct {
	Generator    AdviceGenerator
	Fetcher      WeatherFetcher
	WeatherCache *cache.WeatherCache
	Storage      ObjectStorage
}

// Registry holds one instance of every domain service sharing a database and
// membership authority.
type Registry struct {
	Authority     *permissions.Authority
	Users         *UserService
	Notifications *NotificationService
	Pets          *PetService
	Shares        *PetShareService
	Walks         *WalkService
	WalkPlans     *WalkPlanService
	Photos        *PhotoService
	Weather       *WeatherService
	HealthAdvisor *HealthAdvisor
	WeatherAdvice *WeatherAdvisor
	WalkAdvisor   *WalkAdvisor
}

// NewRegistry wires the domain services together.
func NewRegistry(db *gorm.DB, collab Collaborators) (*Registry, error) {
	if db == nil {
		return nil, errors.New("services: db is required")
	}
	if collab.WeatherCache == nil {
		collab.WeatherCache = cache.NewWeatherCache()
	}

	var (
		r   = &Registry{}
		err error
	)
	if r.Authority, err = permissions.NewAuthority(db); err != nil {
		return nil, fmt.Errorf("services: %w", err)
	}
	if r.Users, err = NewUserService(db); err != nil {
		return nil, err
	}
	if r.Notifications, err = NewNotificationService(db, r.Authority); err != nil {
		return nil, err
	}
	if r.Pets, err = NewPetService(db, r.Authority, r.Notifications); err != nil {
		return nil, err
	}
	if r.Shares, err = NewPetShareService(db, r.Authority, r.Notifications); err != nil {
		return nil, err
	}
	if r.Walks, err = NewWalkService(db, r.Authority, r.Notifications); err != nil {
		return nil, err
	}
	if r.WalkPlans, err = NewWalkPlanService(db, r.Authority); err != nil {
		return nil, err
	}
	if r.Photos, err = NewPhotoService(db, r.Authority, collab.Storage); err != nil {
		return nil, err
	}
	if r.Weather, err = NewWeatherService(collab.WeatherCache, collab.Fetcher); err != nil {
		return nil, err
	}
	if r.HealthAdvisor, err = NewHealthAdvisor(db, r.Authority, r.Notifications, collab.Generator); err != nil {
		return nil, err
	}
	if r.WeatherAdvice, err = NewWeatherAdvisor(db, r.Authority, r.Notifications, collab.Generator, r.Weather); err != nil {
		return nil, err
	}
	if r.WalkAdvisor, err = NewWalkAdvisor(db, r.Authority, r.Notifications, collab.Generator); err != nil {
		return nil, err
	}
	return r, nil
}
