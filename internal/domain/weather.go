package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// WeatherQuery identifies a weather lookup. A nil Date asks for current conditions.
type WeatherQuery struct {
	City    string
	State   string
	Country string
	Date    *time.Time
}

// Location renders the query as an OpenWeatherMap "q" value, e.g. "Littleton,CO,USA".
func (q WeatherQuery) Location() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{q.City, q.State, q.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ",")
}

// WeatherProvider fetches raw weather payloads.
type WeatherProvider interface {
	// Current returns the current conditions for a location.
	Current(ctx context.Context, location string) (json.RawMessage, error)

	// Historical returns observations for a location between start and end.
	Historical(ctx context.Context, location string, start, end time.Time) (json.RawMessage, error)
}

var weatherDateLayouts = []string{
	"1/2/2006",
	"2006-01-02",
	time.RFC3339,
}

// ParseWeatherDate accepts "3/30/2015", "2015-03-30" or an RFC 3339 timestamp.
func ParseWeatherDate(s string) (time.Time, error) {
	for _, layout := range weatherDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unrecognized date %q", ErrBadArguments, s)
}

// GetWeather resolves a query against a provider: current conditions when no
// date is given, otherwise the whole UTC day containing the date.
func GetWeather(ctx context.Context, provider WeatherProvider, q WeatherQuery) (json.RawMessage, error) {
	if strings.TrimSpace(q.City) == "" {
		return nil, fmt.Errorf("%w: need a city", ErrBadArguments)
	}

	if q.Date == nil {
		return provider.Current(ctx, q.Location())
	}

	d := q.Date.UTC()
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24*time.Hour - time.Second)
	return provider.Historical(ctx, q.Location(), start, end)
}
