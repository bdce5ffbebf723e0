package openweather

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/gear-smarts-service/internal/observability"
)

const (
	testAppID         = "test-app-id"
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testClient(baseURL string) *Client {
	return &Client{
		appID:      testAppID,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		metrics:    observability.NewMetricsForTesting(),
		logger:     testLogger(),
	}
}

func TestClient_Current_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/weather", r.URL.Path)
		assert.Equal(t, "Littleton,CO,USA", r.URL.Query().Get("q"))
		assert.Equal(t, testAppID, r.Header.Get("x-api-key"))

		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = io.WriteString(w, `{"name":"Littleton","main":{"temp":290.5}}`)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	body, err := c.Current(context.Background(), "Littleton,CO,USA")
	require.NoError(t, err)

	assert.JSONEq(t, `{"name":"Littleton","main":{"temp":290.5}}`, string(body))
	assert.InDelta(t, 1, testutil.ToFloat64(c.metrics.WeatherRequests.WithLabelValues("current", "success")), 0)
}

func TestClient_Historical_Success(t *testing.T) {
	start := time.Date(2015, 3, 30, 0, 0, 0, 0, time.UTC)
	end := start.Add(24*time.Hour - time.Second)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/history/city", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "Littleton", q.Get("q"))
		assert.Equal(t, "1427673600", q.Get("start"))
		assert.Equal(t, "1427759999", q.Get("end"))
		assert.Equal(t, "day", q.Get("type"))

		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = io.WriteString(w, `{"list":[]}`)
	}))
	defer srv.Close()

	body, err := testClient(srv.URL).Historical(context.Background(), "Littleton", start, end)
	require.NoError(t, err)
	assert.JSONEq(t, `{"list":[]}`, string(body))
}

func TestClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"cod":401,"message":"Invalid API key"}`)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.Current(context.Background(), "Denver")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
	assert.InDelta(t, 1, testutil.ToFloat64(c.metrics.WeatherRequests.WithLabelValues("current", "error")), 0)
}

func TestClient_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `<html>oops</html>`)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Current(context.Background(), "Denver")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JSON")
}

func TestClient_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testClient(srv.URL).Current(ctx, "Denver")
	require.Error(t, err)
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(testAppID, 3*time.Second, observability.NewMetricsForTesting(), testLogger())
	assert.Equal(t, DefaultBaseURL, c.baseURL)
	assert.Equal(t, 3*time.Second, c.httpClient.Timeout)
}
