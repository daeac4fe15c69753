package forecast

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"agrichain/internal/advisor/catalog"
	apperrors "agrichain/internal/common/errors"
	apphttp "agrichain/internal/common/http"
	"agrichain/internal/models"
)

// openMeteoResponse is the subset of the Open-Meteo daily forecast we read.
type openMeteoResponse struct {
	Daily struct {
		Time          []string  `json:"time"`
		TempMax       []float64 `json:"temperature_2m_max"`
		HumidityMean  []float64 `json:"relative_humidity_2m_mean"`
		PrecipProbMax []float64 `json:"precipitation_probability_max"`
		PrecipSum     []float64 `json:"precipitation_sum"`
	} `json:"daily"`
}

// Live fetches the daily forecast for a district's coordinates from Open-Meteo.
type Live struct {
	client *apphttp.Client
}

func NewLive(client *apphttp.Client) *Live {
	return &Live{client: client}
}

func (l *Live) Forecast(ctx context.Context, region catalog.Region, asOf time.Time) (models.Forecast, error) {
	day0 := dateOnly(asOf)
	params := map[string]string{
		"latitude":   strconv.FormatFloat(region.Coordinates.Lat, 'f', 4, 64),
		"longitude":  strconv.FormatFloat(region.Coordinates.Lon, 'f', 4, 64),
		"daily":      "temperature_2m_max,relative_humidity_2m_mean,precipitation_probability_max,precipitation_sum",
		"timezone":   "Asia/Kolkata",
		"start_date": day0.Format("2006-01-02"),
		"end_date":   day0.AddDate(0, 0, models.ForecastDays-1).Format("2006-01-02"),
	}

	var resp openMeteoResponse
	if err := l.client.GetJSON(ctx, "/v1/forecast", params, &resp); err != nil {
		return models.Forecast{}, apperrors.NewForecastUnavailableError(err)
	}

	d := resp.Daily
	n := min(len(d.Time), len(d.TempMax), len(d.HumidityMean), len(d.PrecipProbMax), len(d.PrecipSum))
	if n < models.ForecastDays {
		return models.Forecast{}, apperrors.NewForecastUnavailableError(
			fmt.Errorf("provider returned %d daily points, need %d", n, models.ForecastDays))
	}

	points := make([]models.ForecastPoint, models.ForecastDays)
	for i := range points {
		date, err := time.Parse("2006-01-02", d.Time[i])
		if err != nil {
			return models.Forecast{}, apperrors.NewForecastUnavailableError(err)
		}
		points[i] = models.ForecastPoint{
			DayOffset:           i,
			Date:                date,
			TemperatureC:        round1(d.TempMax[i]),
			HumidityPct:         round1(clamp(d.HumidityMean[i], 0, 100)),
			RainfallProbability: clamp(d.PrecipProbMax[i]/100, 0, 1),
			RainfallMM:          round1(d.PrecipSum[i]),
		}
	}

	return models.Forecast{
		Location: location(region),
		AsOf:     day0,
		Points:   points,
		Source:   models.ForecastLive,
	}, nil
}
