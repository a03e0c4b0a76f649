// Package openweather implements domain.WindSource against the
// OpenWeatherMap current-weather API.
package openweather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/bseverns/pointy-clumps/internal/domain"
	"github.com/bseverns/pointy-clumps/internal/observability"
)

// DefaultBaseURL is the current-weather endpoint.
const DefaultBaseURL = "https://api.openweathermap.org/data/2.5/weather"

const (
	maxSnippet  = 120
	maxBodySize = 1 << 20
)

// Client fetches current wind for a location. A circuit breaker stops calls
// while the upstream keeps failing; there are no retries.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	breaker    *gobreaker.CircuitBreaker[*http.Response]
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithBreaker replaces the default circuit breaker.
func WithBreaker(b *gobreaker.CircuitBreaker[*http.Response]) Option {
	return func(c *Client) { c.breaker = b }
}

// NewClient creates an OpenWeatherMap client.
func NewClient(apiKey string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    DefaultBaseURL,
		breaker:    newBreaker("openweather"),
		metrics:    metrics,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func newBreaker(name string) *gobreaker.CircuitBreaker[*http.Response] {
	return gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil
		},
	})
}

// FetchWind returns the current wind at location. Imperial speeds are converted
// to m/s; a missing or non-numeric direction yields a nil DirectionDeg.
func (c *Client) FetchWind(ctx context.Context, location string, units domain.Units) (domain.WindReading, error) {
	if c.apiKey == "" {
		return domain.WindReading{}, fmt.Errorf("%w: no OpenWeatherMap API key provided; set OPENWEATHER_API_KEY or pass -api-key", domain.ErrMissingCredentials)
	}

	params := url.Values{
		"q":     {location},
		"appid": {c.apiKey},
		"units": {string(units)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return domain.WindReading{}, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		r, doErr := c.httpClient.Do(req)
		if doErr != nil {
			return nil, doErr
		}
		// 5xx and 429 count against the breaker; other statuses are the caller's problem.
		if r.StatusCode >= http.StatusInternalServerError || r.StatusCode == http.StatusTooManyRequests {
			return r, fmt.Errorf("upstream returned %d", r.StatusCode)
		}
		return r, nil
	})
	c.metrics.WeatherAPIDuration.Observe(time.Since(start).Seconds())

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		c.metrics.WeatherRequests.WithLabelValues("open").Inc()
		return domain.WindReading{}, fmt.Errorf("%w: openweathermap circuit open: %w", domain.ErrSourceUnavailable, err)
	}
	if resp == nil {
		c.metrics.WeatherRequests.WithLabelValues("error").Inc()
		c.logger.Warn("openweathermap request failed", "location", location, "error", err)
		return domain.WindReading{}, fmt.Errorf("%w: error contacting OpenWeatherMap: %w", domain.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		c.metrics.WeatherRequests.WithLabelValues("error").Inc()
		return domain.WindReading{}, fmt.Errorf("%w: read response: %w", domain.ErrSourceUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		c.metrics.WeatherRequests.WithLabelValues("error").Inc()
		msg := errorMessage(resp.StatusCode, body)
		c.logger.Warn("openweathermap request failed", "location", location, "status", resp.StatusCode, "message", msg)
		return domain.WindReading{}, fmt.Errorf("%w: OpenWeatherMap request failed: %s", domain.ErrSourceUnavailable, msg)
	}

	reading, err := parseWind(body, units)
	if err != nil {
		c.metrics.WeatherRequests.WithLabelValues("error").Inc()
		return domain.WindReading{}, err
	}

	c.metrics.WeatherRequests.WithLabelValues("success").Inc()
	c.logger.Debug("wind fetched", "location", location, "speed_mps", reading.SpeedMPS)
	return reading, nil
}

// errorMessage prefers the API's own "cod: message" and falls back to a
// trimmed snippet of the body.
func errorMessage(status int, body []byte) string {
	var payload struct {
		Cod     any `json:"cod"`
		Message any `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil && present(payload.Message) {
		if present(payload.Cod) {
			return fmt.Sprintf("%v: %v", payload.Cod, payload.Message)
		}
		return fmt.Sprint(payload.Message)
	}

	snippet := strings.TrimSpace(string(body))
	if r := []rune(snippet); len(r) > maxSnippet {
		snippet = string(r[:maxSnippet-3]) + "..."
	}
	if snippet == "" {
		snippet = "unknown error"
	}
	return fmt.Sprintf("HTTP %d: %s", status, snippet)
}

func present(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case float64:
		return t != 0
	case bool:
		return t
	default:
		return true
	}
}

func parseWind(body []byte, units domain.Units) (domain.WindReading, error) {
	if !json.Valid(body) {
		return domain.WindReading{}, fmt.Errorf("%w: API returned invalid JSON", domain.ErrMalformedResponse)
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return domain.WindReading{}, fmt.Errorf("%w: unexpected JSON structure from API (expected an object)", domain.ErrMalformedResponse)
	}

	var wind map[string]any
	if raw, ok := payload["wind"]; !ok || json.Unmarshal(raw, &wind) != nil || wind == nil {
		return domain.WindReading{}, fmt.Errorf("%w: API response does not contain 'wind' section", domain.ErrMalformedResponse)
	}

	speedRaw, ok := wind["speed"]
	if !ok || speedRaw == nil {
		return domain.WindReading{}, fmt.Errorf("%w: API response does not contain 'wind.speed' value", domain.ErrMalformedResponse)
	}
	speed, ok := number(speedRaw)
	if !ok {
		return domain.WindReading{}, fmt.Errorf("%w: API returned non-numeric wind speed: %v", domain.ErrMalformedResponse, speedRaw)
	}

	var direction *float64
	if deg, ok := number(wind["deg"]); ok {
		direction = &deg
	}

	return domain.NewWindReading(domain.ConvertSpeedToMPS(speed, units), direction), nil
}

// number accepts JSON numbers and numeric strings. "NaN" and "Inf" are not numbers.
func number(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
	default:
		return 0, false
	}
}
