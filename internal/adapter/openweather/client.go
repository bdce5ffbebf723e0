package openweather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/gear-smarts-service/internal/observability"
)

// DefaultBaseURL is the OpenWeatherMap 2.5 API root.
const DefaultBaseURL = "http://api.openweathermap.org/data/2.5"

// Client implements domain.WeatherProvider using the OpenWeatherMap API.
type Client struct {
	appID      string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an OpenWeatherMap client.
func NewClient(appID string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		appID: appID,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: DefaultBaseURL,
		metrics: metrics,
		logger:  logger,
	}
}

// Current returns the current weather for a "city,state,country" location.
func (c *Client) Current(ctx context.Context, location string) (json.RawMessage, error) {
	params := url.Values{"q": {location}}
	return c.doRequest(ctx, c.baseURL+"/weather?"+params.Encode(), endpointCurrent)
}

// Historical returns daily observations for a location between start and end.
func (c *Client) Historical(ctx context.Context, location string, start, end time.Time) (json.RawMessage, error) {
	params := url.Values{
		"q":     {location},
		"start": {strconv.FormatInt(start.Unix(), 10)},
		"end":   {strconv.FormatInt(end.Unix(), 10)},
		"type":  {"day"},
	}
	return c.doRequest(ctx, c.baseURL+"/history/city?"+params.Encode(), endpointHistorical)
}

func (c *Client) doRequest(ctx context.Context, fullURL, endpoint string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("x-api-key", c.appID)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.WeatherAPIDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.WeatherRequests.WithLabelValues(endpoint, "error").Inc()
		return nil, fmt.Errorf("%s weather request: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.WeatherRequests.WithLabelValues(endpoint, "error").Inc()
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.metrics.WeatherRequests.WithLabelValues(endpoint, "error").Inc()
		return nil, fmt.Errorf("openweathermap API error: status %d: %s", resp.StatusCode, body)
	}
	if !json.Valid(body) {
		c.metrics.WeatherRequests.WithLabelValues(endpoint, "error").Inc()
		return nil, fmt.Errorf("decode response: invalid JSON from %s endpoint", endpoint)
	}

	c.metrics.WeatherRequests.WithLabelValues(endpoint, "success").Inc()
	c.logger.Debug("weather fetched", "endpoint", endpoint, "bytes", len(body))
	return json.RawMessage(body), nil
}
