package domain

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock provider ---

type mockWeatherProvider struct {
	location        string
	start, end      time.Time
	currentCalls    int
	historicalCalls int
}

func (m *mockWeatherProvider) Current(_ context.Context, location string) (json.RawMessage, error) {
	m.currentCalls++
	m.location = location
	return json.RawMessage(`{"name":"current"}`), nil
}

func (m *mockWeatherProvider) Historical(_ context.Context, location string, start, end time.Time) (json.RawMessage, error) {
	m.historicalCalls++
	m.location = location
	m.start, m.end = start, end
	return json.RawMessage(`{"name":"history"}`), nil
}

// --- tests ---

func TestGetWeather_NeedsCity(t *testing.T) {
	_, err := GetWeather(context.Background(), &mockWeatherProvider{}, WeatherQuery{State: "CO"})
	require.ErrorIs(t, err, ErrBadArguments)
	assert.Contains(t, err.Error(), "need a city")
}

func TestGetWeather_Current(t *testing.T) {
	p := &mockWeatherProvider{}
	body, err := GetWeather(context.Background(), p, WeatherQuery{City: "Littleton", State: "CO", Country: "USA"})

	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"current"}`, string(body))
	assert.Equal(t, "Littleton,CO,USA", p.location)
	assert.Equal(t, 1, p.currentCalls)
	assert.Equal(t, 0, p.historicalCalls)
}

func TestGetWeather_HistoricalUsesWholeDay(t *testing.T) {
	p := &mockWeatherProvider{}
	date := time.Date(2015, 3, 30, 15, 4, 0, 0, time.UTC)

	_, err := GetWeather(context.Background(), p, WeatherQuery{City: "Littleton", Date: &date})

	require.NoError(t, err)
	assert.Equal(t, 1, p.historicalCalls)
	assert.Equal(t, time.Date(2015, 3, 30, 0, 0, 0, 0, time.UTC), p.start)
	assert.Equal(t, time.Date(2015, 3, 30, 23, 59, 59, 0, time.UTC), p.end)
	assert.Equal(t, "Littleton", p.location)
}

func TestParseWeatherDate(t *testing.T) {
	want := time.Date(2015, 3, 30, 0, 0, 0, 0, time.UTC)

	for _, in := range []string{"3/30/2015", "2015-03-30", "2015-03-30T00:00:00Z"} {
		got, err := ParseWeatherDate(in)
		require.NoError(t, err, in)
		assert.True(t, want.Equal(got), in)
	}

	_, err := ParseWeatherDate("yesterday")
	require.ErrorIs(t, err, ErrBadArguments)
}
