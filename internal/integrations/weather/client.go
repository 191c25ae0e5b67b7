// Package weather fetches current conditions from OpenWeatherMap.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pawwalk/pawwalk/pkg/metrics"
)

const (
	DefaultBaseURL = "https://api.openweathermap.org/data/2.5"
	DefaultTimeout = 5 * time.Second
)

// ErrUnavailable is returned for any non-200 answer or transport failure.
var ErrUnavailable = errors.New("weather: unavailable")

// Observation is a current-conditions snapshot.
type Observation struct {
	Condition          string  `json:"condition"`
	ConditionLocalized string  `json:"condition_ko"`
	TemperatureC       float64 `json:"temperature_c"`
	Humidity           float64 `json:"humidity"`
}

// Config configures Client.
type Config struct {
	APIKey     string
	BaseURL    string
	Language   string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client is an OpenWeatherMap current weather client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	language   string
	timeout    time.Duration
}

type owmResponse struct {
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity float64 `json:"humidity"`
	} `json:"main"`
}

// NewClient builds a weather client.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("weather: api key must be provided")
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	language := cfg.Language
	if language == "" {
		language = "kr"
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		language:   language,
		timeout:    timeout,
	}, nil
}

// Fetch returns the current conditions at the given coordinates.
func (c *Client) Fetch(ctx context.Context, lat, lng float64) (*Observation, error) {
	obs, err := c.fetch(ctx, lat, lng)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues("weather", "error").Inc()
		return nil, err
	}
	metrics.UpstreamRequests.WithLabelValues("weather", "success").Inc()
	return obs, nil
}

func (c *Client) fetch(ctx context.Context, lat, lng float64) (*Observation, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	query := url.Values{}
	query.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	query.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))
	query.Set("appid", c.apiKey)
	query.Set("units", "metric")
	query.Set("lang", c.language)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/weather?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("weather: build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var payload owmResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}
	if len(payload.Weather) == 0 {
		return nil, fmt.Errorf("%w: no conditions in response", ErrUnavailable)
	}

	return &Observation{
		Condition:          payload.Weather[0].Main,
		ConditionLocalized: payload.Weather[0].Description,
		TemperatureC:       payload.Main.Temp,
		Humidity:           payload.Main.Humidity,
	}, nil
}
