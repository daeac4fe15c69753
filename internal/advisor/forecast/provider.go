// internal/advisor/forecast/provider.go

// Package forecast supplies 7-day weather forecasts for a district, either
// simulated from seasonal profiles or fetched from a live provider.
package forecast

import (
	"context"
	"math"
	"time"

	"agrichain/internal/advisor/catalog"
	"agrichain/internal/models"
)

// Provider returns a forecast of models.ForecastDays points starting at asOf.
type Provider interface {
	Forecast(ctx context.Context, region catalog.Region, asOf time.Time) (models.Forecast, error)
}

// dateOnly truncates t to midnight UTC of its calendar date.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func location(region catalog.Region) models.Location {
	return models.Location{State: region.State, District: region.District}
}
