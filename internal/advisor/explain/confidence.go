package explain

import (
	"fmt"
	"math"
	"strconv"

	"agrichain/internal/common/config"
	"agrichain/internal/models"
)

// Evidence is what the confidence rules look at.
type Evidence struct {
	TrendPoints   int
	YieldPoints   int
	StateFallback bool
	PriceSource   models.PriceSource
	Forecast      models.Forecast
	LiveRequested bool
}

// Rule is one independent confidence penalty. Zero points means the rule
// did not fire.
type Rule struct {
	Name  string
	Apply func(config.ConfidenceRules, Evidence) (float64, string)
}

// Rules are evaluated in this order; each one is independent of the others.
var Rules = []Rule{
	{"trend_support", TrendSupport},
	{"yield_support", YieldSupport},
	{"distance_fallback", DistanceFallback},
	{"price_fallback", PriceFallback},
	{"simulated_forecast", SimulatedForecast},
	{"live_unavailable", LiveUnavailable},
}

func TrendSupport(r config.ConfidenceRules, e Evidence) (float64, string) {
	if e.TrendPoints >= r.MinTrendPoints {
		return 0, ""
	}
	missing := r.MinTrendPoints - max(0, e.TrendPoints)
	return float64(missing) * r.TrendPerPoint,
		fmt.Sprintf("Only %d price point(s) in the trend window (want %d)", e.TrendPoints, r.MinTrendPoints)
}

func YieldSupport(r config.ConfidenceRules, e Evidence) (float64, string) {
	if e.YieldPoints >= r.MinYieldPoints {
		return 0, ""
	}
	missing := r.MinYieldPoints - max(0, e.YieldPoints)
	return float64(missing) * r.YieldPerPoint,
		fmt.Sprintf("Only %d historical yield record(s) for this crop and state (want %d)", e.YieldPoints, r.MinYieldPoints)
}

func DistanceFallback(r config.ConfidenceRules, e Evidence) (float64, string) {
	if !e.StateFallback {
		return 0, ""
	}
	return r.DistanceFallback, "District not in the distance table; state-level markets used"
}

func PriceFallback(r config.ConfidenceRules, e Evidence) (float64, string) {
	switch e.PriceSource {
	case models.PriceFromState:
		return r.PriceState, "No mandi prices for the best market; state median used"
	case models.PriceFromNational:
		return r.PriceNational, "No prices in this state; national median used"
	case models.PriceFromBenchmark:
		return r.PriceBenchmark, "No mandi prices at all; crop benchmark price used"
	default:
		return 0, ""
	}
}

func SimulatedForecast(r config.ConfidenceRules, e Evidence) (float64, string) {
	if e.Forecast.Source != models.ForecastSimulated {
		return 0, ""
	}
	return r.SimulatedForecast, "Seasonal simulated forecast used instead of a live forecast"
}

func LiveUnavailable(r config.ConfidenceRules, e Evidence) (float64, string) {
	if !e.LiveRequested || !e.Forecast.LiveFallback() {
		return 0, ""
	}
	return r.LiveUnavailable, fmt.Sprintf("Live forecast unavailable (%s)", e.Forecast.FallbackReason)
}

// Confidence aggregates the rules: score = baseline - total penalty clamped
// to [0,100], band widens linearly with the total.
func Confidence(r config.ConfidenceRules, e Evidence) models.Confidence {
	var (
		total     float64
		penalties []models.Penalty
	)
	for _, rule := range Rules {
		points, reason := rule.Apply(r, e)
		if points <= 0 {
			continue
		}
		total += points
		penalties = append(penalties, models.Penalty{Rule: rule.Name, Points: points, Reason: reason})
	}

	score := math.Round(math.Min(100, math.Max(0, r.Baseline-total))*10) / 10
	band := math.Round((r.BandBase+r.BandPerPenalty*total)*10) / 10

	return models.Confidence{
		Score:     score,
		Label:     fmt.Sprintf("%s%% confident", strconv.FormatFloat(score, 'f', -1, 64)),
		Band:      band,
		BandLabel: "±" + strconv.FormatFloat(band, 'f', -1, 64) + "%",
		Penalties: penalties,
	}
}
