package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/rs/zerolog"
)

// DefaultBaseURL is the OpenWeatherMap current-conditions endpoint.
const DefaultBaseURL = "https://api.openweathermap.org/data/2.5/weather"

// defaultRefreshInterval spaces out upstream fetches per city. Conditions
// do not change fast enough to justify hitting the API on every render of a
// weather slide.
const defaultRefreshInterval = 20 * time.Minute

// Reading is one observed weather state for a city.
type Reading struct {
	City          string    `json:"city"`
	Description   string    `json:"description"`
	Icon          string    `json:"icon"`
	ConditionCode int       `json:"condition_code"`
	TempC         float64   `json:"temp_c"`
	Humidity      float64   `json:"humidity"`
	WindSpeed     float64   `json:"wind_speed"`
	FetchedAt     time.Time `json:"fetched_at"`
}

// Night reports whether the reading was taken after sunset. OpenWeatherMap
// icon codes carry a trailing "n" at night.
func (r Reading) Night() bool {
	return strings.HasSuffix(r.Icon, "n")
}

// Client fetches current conditions and remembers the last successful
// reading per city, so an offline device can keep showing something
// plausible instead of a blank card.
type Client struct {
	baseURL         string
	httpClient      *http.Client
	refreshInterval time.Duration
	logger          zerolog.Logger
	lastReadings    cmap.ConcurrentMap[string, Reading]
}

// NewClient creates a weather client against the given endpoint. An empty
// baseURL selects the public OpenWeatherMap API.
func NewClient(baseURL string, timeout time.Duration, logger zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:         baseURL,
		httpClient:      &http.Client{Timeout: timeout},
		refreshInterval: defaultRefreshInterval,
		logger:          logger,
		lastReadings:    cmap.New[Reading](),
	}
}

// apiResponse mirrors the subset of the OpenWeatherMap payload the card
// needs.
type apiResponse struct {
	Weather []struct {
		ID          int    `json:"id"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity float64 `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Name string `json:"name"`
}

// Current returns the current conditions for a city. A reading fresher
// than the refresh interval is served from memory; the upstream API is only
// hit once the interval has elapsed, however often the slide renders.
// Successful readings are cached and retrievable via LastReading after
// later failures.
func (c *Client) Current(ctx context.Context, city, apiKey string) (Reading, error) {
	if cached, ok := c.lastReadings.Get(strings.ToLower(city)); ok &&
		time.Since(cached.FetchedAt) < c.refreshInterval {
		return cached, nil
	}

	if apiKey == "" {
		return Reading{}, fmt.Errorf("no weather API key configured")
	}

	query := url.Values{}
	query.Set("q", city)
	query.Set("units", "metric")
	query.Set("appid", apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return Reading{}, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Reading{}, fmt.Errorf("weather request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Reading{}, fmt.Errorf("weather API returned status %d", resp.StatusCode)
	}

	var payload apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Reading{}, fmt.Errorf("failed to parse weather response: %w", err)
	}
	if len(payload.Weather) == 0 {
		return Reading{}, fmt.Errorf("weather response carried no conditions")
	}

	reading := Reading{
		City:          city,
		Description:   payload.Weather[0].Description,
		Icon:          payload.Weather[0].Icon,
		ConditionCode: payload.Weather[0].ID,
		TempC:         payload.Main.Temp,
		Humidity:      payload.Main.Humidity,
		WindSpeed:     payload.Wind.Speed,
		FetchedAt:     time.Now(),
	}

	c.lastReadings.Set(strings.ToLower(city), reading)
	return reading, nil
}

// LastReading returns the most recent successful reading for a city, if
// any.
func (c *Client) LastReading(city string) (Reading, bool) {
	return c.lastReadings.Get(strings.ToLower(city))
}
