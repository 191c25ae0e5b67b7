package app

import (
	"strings"

	"github.com/pawwalk/pawwalk/internal/cache"
	"github.com/pawwalk/pawwalk/internal/integrations/advice"
	"github.com/pawwalk/pawwalk/internal/integrations/storage"
	"github.com/pawwalk/pawwalk/internal/integrations/weather"
)

// Supported storage drivers.
const (
	StorageDriverS3   = "s3"
	StorageDriverNone = "none"
)

// Enabled reports whether a weather API key was supplied.
func (c WeatherConfig) Enabled() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// ClientConfig converts WeatherConfig into weather client parameters.
func (c WeatherConfig) ClientConfig() weather.Config {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = weather.DefaultTimeout
	}
	return weather.Config{
		APIKey:  strings.TrimSpace(c.APIKey),
		BaseURL: strings.TrimSpace(c.BaseURL),
		Timeout: timeout,
	}
}

// CacheOptions converts WeatherConfig into weather cache options.
func (c WeatherConfig) CacheOptions() []cache.WeatherOption {
	return []cache.WeatherOption{
		cache.WithTTL(c.CacheTTL),
		cache.WithCapacity(c.CacheCapacity),
	}
}

// Enabled reports whether an advice API key was supplied.
func (c AdviceConfig) Enabled() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// ClientConfig converts AdviceConfig into advice client parameters.
func (c AdviceConfig) ClientConfig() advice.Config {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = advice.DefaultTimeout
	}
	model := strings.TrimSpace(c.Model)
	if model == "" {
		model = advice.DefaultModel
	}
	return advice.Config{
		APIKey:  strings.TrimSpace(c.APIKey),
		BaseURL: strings.TrimSpace(c.BaseURL),
		Model:   model,
		Timeout: timeout,
	}
}

// DriverName returns the normalised storage driver, defaulting to none.
func (c StorageConfig) DriverName() string {
	driver := strings.ToLower(strings.TrimSpace(c.Driver))
	if driver == "" {
		return StorageDriverNone
	}
	return driver
}

// S3StorageConfig converts StorageConfig into S3 storage parameters.
func (c StorageConfig) S3StorageConfig() storage.S3Config {
	return storage.S3Config{
		Bucket:        strings.TrimSpace(c.S3.Bucket),
		Region:        strings.TrimSpace(c.S3.Region),
		Endpoint:      strings.TrimSpace(c.S3.Endpoint),
		PublicBaseURL: strings.TrimSpace(c.S3.PublicBaseURL),
	}
}
