package forecast

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
	"math/rand/v2"
	"time"

	"agrichain/internal/advisor/catalog"
	"agrichain/internal/models"
)

// monthlyProfile is the seasonal baseline of a calendar month.
type monthlyProfile struct {
	TMax     float64 // °C
	TMin     float64 // °C
	Humidity float64 // %
	RainProb float64 // 0..1
}

var seasonalProfiles = [13]monthlyProfile{
	1:  {28, 12, 55, 0.05},
	2:  {32, 15, 45, 0.05},
	3:  {37, 19, 35, 0.08},
	4:  {41, 23, 30, 0.10},
	5:  {43, 26, 35, 0.15},
	6:  {35, 25, 75, 0.55},
	7:  {32, 24, 85, 0.70},
	8:  {31, 23, 88, 0.65},
	9:  {32, 23, 78, 0.45},
	10: {33, 20, 65, 0.20},
	11: {30, 15, 55, 0.08},
	12: {27, 11, 50, 0.05},
}

// Simulated is a pure function of (region, asOf date). It keeps no state and
// is safe for concurrent use.
type Simulated struct{}

func NewSimulated() *Simulated {
	return &Simulated{}
}

func (s *Simulated) Forecast(_ context.Context, region catalog.Region, asOf time.Time) (models.Forecast, error) {
	day0 := dateOnly(asOf)
	profile := seasonalProfiles[day0.Month()]
	rng := seededRand(region, day0)

	points := make([]models.ForecastPoint, models.ForecastDays)
	for i := range points {
		tempVar := (rng.Float64() - 0.5) * 6 // ±3 °C
		humVar := (rng.Float64() - 0.5) * 20
		rainVar := (rng.Float64() - 0.5) * 0.5
		rainProb := clamp(profile.RainProb+rainVar, 0, 1)

		rainMM := 0.0
		if rng.Float64() < rainProb {
			rainMM = round1(rainProb * 25 * rng.Float64())
		}

		points[i] = models.ForecastPoint{
			DayOffset:           i,
			Date:                day0.AddDate(0, 0, i),
			TemperatureC:        round1(profile.TMax + tempVar),
			HumidityPct:         round1(clamp(profile.Humidity+humVar, 20, 100)),
			RainfallProbability: math.Round(rainProb*100) / 100,
			RainfallMM:          rainMM,
		}
	}

	return models.Forecast{
		Location: location(region),
		AsOf:     day0,
		Points:   points,
		Source:   models.ForecastSimulated,
	}, nil
}

// seededRand derives a local PCG generator from SHA-256 of
// "state|district|YYYY-MM-DD".
func seededRand(region catalog.Region, day time.Time) *rand.Rand {
	sum := sha256.Sum256([]byte(region.State + "|" + region.District + "|" + day.Format("2006-01-02")))
	return rand.New(rand.NewPCG(
		binary.BigEndian.Uint64(sum[0:8]),
		binary.BigEndian.Uint64(sum[8:16]),
	))
}
