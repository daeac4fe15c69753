// internal/models/forecast.go
package models

import "time"

const ForecastDays = 7

type ForecastSource string

const (
	ForecastSimulated ForecastSource = "simulated"
	ForecastLive      ForecastSource = "live"
)

type ForecastPoint struct {
	DayOffset           int       `json:"dayOffset"`
	Date                time.Time `json:"date"`
	TemperatureC        float64   `json:"temperatureC"`
	HumidityPct         float64   `json:"humidityPct"`
	RainfallProbability float64   `json:"rainfallProbability"` // 0..1
	RainfallMM          float64   `json:"rainfallMm"`
}

// Forecast is a 7-point daily forecast produced fresh for every request.
type Forecast struct {
	Location       Location        `json:"location"`
	AsOf           time.Time       `json:"asOf"`
	Points         []ForecastPoint `json:"points"`
	Source         ForecastSource  `json:"source"`
	FallbackReason string          `json:"fallbackReason,omitempty"`
}

func (f Forecast) AvgTemperature() float64 {
	if len(f.Points) == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range f.Points {
		sum += p.TemperatureC
	}
	return sum / float64(len(f.Points))
}

func (f Forecast) AvgHumidity() float64 {
	if len(f.Points) == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range f.Points {
		sum += p.HumidityPct
	}
	return sum / float64(len(f.Points))
}

// RainDays counts forecast days whose rainfall probability is above threshold.
func (f Forecast) RainDays(threshold float64) int {
	n := 0
	for _, p := range f.Points {
		if p.RainfallProbability > threshold {
			n++
		}
	}
	return n
}

// LiveFallback reports whether a live forecast was requested but the
// simulated one was served instead.
func (f Forecast) LiveFallback() bool {
	return f.Source == ForecastSimulated && f.FallbackReason != ""
}
