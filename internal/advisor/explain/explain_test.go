package explain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agrichain/internal/advisor/catalog"
	"agrichain/internal/advisor/marketdata"
	"agrichain/internal/common/config"
	"agrichain/internal/models"
)

func rules() config.ConfidenceRules {
	return config.DefaultEngineConfig().Confidence
}

func liveForecast() models.Forecast {
	return models.Forecast{Source: models.ForecastLive}
}

func fullEvidence() Evidence {
	return Evidence{
		TrendPoints: 5,
		YieldPoints: 5,
		PriceSource: models.PriceFromMarket,
		Forecast:    liveForecast(),
	}
}

// ---------- confidence rules ----------

func TestConfidence_FullSupportIsBaseline(t *testing.T) {
	c := Confidence(rules(), fullEvidence())
	assert.Equal(t, 85.0, c.Score)
	assert.Equal(t, "85% confident", c.Label)
	assert.Equal(t, 4.0, c.Band)
	assert.Equal(t, "±4%", c.BandLabel)
	assert.Empty(t, c.Penalties)
}

func TestConfidence_DecreasesWithTrendSupport(t *testing.T) {
	prev := Confidence(rules(), fullEvidence()).Score
	for points := 4; points >= 0; points-- {
		e := fullEvidence()
		e.TrendPoints = points
		score := Confidence(rules(), e).Score
		assert.Less(t, score, prev, "trend points %d", points)
		prev = score
	}

	zero := fullEvidence()
	zero.TrendPoints = 0
	assert.Equal(t, 70.0, Confidence(rules(), zero).Score)
}

func TestConfidence_DecreasesWithYieldSupport(t *testing.T) {
	prev := Confidence(rules(), fullEvidence()).Score
	for points := 4; points >= 0; points-- {
		e := fullEvidence()
		e.YieldPoints = points
		score := Confidence(rules(), e).Score
		assert.Less(t, score, prev, "yield points %d", points)
		prev = score
	}
}

func TestConfidence_StateFallbackLowersScore(t *testing.T) {
	e := fullEvidence()
	e.StateFallback = true
	c := Confidence(rules(), e)
	assert.Equal(t, 77.0, c.Score)
	require.Len(t, c.Penalties, 1)
	assert.Equal(t, "distance_fallback", c.Penalties[0].Rule)
	assert.Equal(t, 6.0, c.Band)
}

func TestConfidence_PriceSources(t *testing.T) {
	tests := []struct {
		source models.PriceSource
		want   float64
	}{
		{models.PriceFromMarket, 85},
		{models.PriceFromState, 80},
		{models.PriceFromNational, 77},
		{models.PriceFromBenchmark, 73},
	}
	for _, tt := range tests {
		e := fullEvidence()
		e.PriceSource = tt.source
		assert.Equal(t, tt.want, Confidence(rules(), e).Score, string(tt.source))
	}
}

func TestConfidence_ForecastPenalties(t *testing.T) {
	simulated := fullEvidence()
	simulated.Forecast = models.Forecast{Source: models.ForecastSimulated}
	assert.Equal(t, 82.0, Confidence(rules(), simulated).Score)

	fallback := fullEvidence()
	fallback.LiveRequested = true
	fallback.Forecast = models.Forecast{Source: models.ForecastSimulated, FallbackReason: "timeout"}
	c := Confidence(rules(), fallback)
	assert.Equal(t, 80.0, c.Score)
	require.Len(t, c.Penalties, 2)
	assert.Equal(t, "live_unavailable", c.Penalties[1].Rule)
	assert.Contains(t, c.Penalties[1].Reason, "timeout")
}

func TestConfidence_ClampedAndBandWidens(t *testing.T) {
	r := rules()
	r.Baseline = 10
	e := Evidence{PriceSource: models.PriceFromBenchmark, StateFallback: true, Forecast: models.Forecast{Source: models.ForecastSimulated}}

	c := Confidence(r, e)
	assert.Equal(t, 0.0, c.Score)
	// 15 trend + 10 yield + 8 distance + 12 price + 3 simulated = 48
	assert.Equal(t, 16.0, c.Band)
	assert.Len(t, c.Penalties, 5)
}

func TestRules_AreIndependent(t *testing.T) {
	e := fullEvidence()
	for _, rule := range Rules {
		points, reason := rule.Apply(rules(), e)
		assert.Zero(t, points, rule.Name)
		assert.Empty(t, reason, rule.Name)
	}
}

// ---------- explanations ----------

func sampleInputs(t *testing.T) Inputs {
	t.Helper()
	profile, err := catalog.Profile("tomato")
	require.NoError(t, err)
	region, err := catalog.ResolveRegion("maharashtra", "nashik")
	require.NoError(t, err)

	fc := models.Forecast{Source: models.ForecastSimulated}
	for i := 0; i < models.ForecastDays; i++ {
		fc.Points = append(fc.Points, models.ForecastPoint{DayOffset: i, TemperatureC: 29, HumidityPct: 70})
	}
	fc.Points[2].RainfallProbability = 0.8

	best := models.MarketCandidate{
		Name: "Nashik", LatestPrice: 24, PriceSource: models.PriceFromMarket,
		TrendPct: 12.5, TrendPoints: 6, DistanceKm: 15, TransitHours: 0.4,
		TransportCostPerKg: 0.02, ProjectedYieldKg: 20000, NetProfit: 479050, IsBest: true,
	}
	return Inputs{
		Profile:  profile,
		Region:   region,
		Request:  models.AnalysisRequest{CropType: "tomato", State: "maharashtra", District: "nashik", HarvestStage: models.StageFifteenDays, StorageType: models.StorageNone, LandSize: 2.5},
		Forecast: fc,
		Harvest: models.HarvestWindow{
			DisplayRange: "Jan 18–21", DaysFromToday: "In 16–19 days — plan ahead", Urgency: models.UrgencyPlanAhead,
			RainDelayDays: 1, RecommendationDetail: "Mark your calendar and prepare equipment.",
			Factors: []models.Factor{models.Good("Avg max temp 29°C — within ideal range"), models.Warning("High humidity 70% — increases fungal risk")},
		},
		Best:     best,
		Markets:  []models.MarketCandidate{best},
		Yield:    marketdata.YieldEstimate{KgPerAcre: 8000, Scope: marketdata.YieldScopeCatalog},
		Spoilage: models.SpoilageAssessment{RiskPct: 73.1, RiskLevel: models.RiskHigh, TransitHours: 0.4, Factors: []models.Factor{models.Warning("No storage: +30 risk points — ventilate well")}},
		Actions: []models.PreservationAction{
			{Rank: 1, Title: "Pre-cooling at nearest cold store (4 hrs)", SpoilageAfter: 53.1},
			{Rank: 2, Title: "Harvest in early morning (5–8 AM)", SpoilageAfter: 45.1},
		},
		RainThreshold:   0.6,
		TrendWindowDays: 30,
	}
}

func TestExplain(t *testing.T) {
	e := Explain(sampleInputs(t))

	assert.Contains(t, e.Weather, "Weather forecast for Nashik shows 1 rain day(s) expected")
	assert.Contains(t, e.Weather, "High humidity 70% — increases fungal risk.")
	assert.Contains(t, e.Price, "Nashik offers the best net return at ₹24.00/kg")
	assert.Contains(t, e.Price, "₹4,79,050")
	assert.Contains(t, e.Price, "rising 12.5% over 30 days")
	assert.Contains(t, e.Soil, "8000 kg/acre (reference yield, no local history)")
	assert.Contains(t, e.Spoilage, "73.1% (High)")
	assert.Contains(t, e.Spoilage, "pre-cooling at nearest cold store")
}

func TestSteps_FixedOrder(t *testing.T) {
	steps := Steps(sampleInputs(t))
	require.Len(t, steps, 4)

	wantDomains := []string{"weather", "price", "soil", "spoilage"}
	for i, s := range steps {
		assert.Equal(t, wantDomains[i], s.Domain)
		assert.Equal(t, []string{"01", "02", "03", "04"}[i], s.Step)
		assert.NotEmpty(t, s.Description)
	}
	assert.Equal(t, "Price Pattern (Mandi Data)", steps[1].Title)
	assert.True(t, strings.HasPrefix(steps[2].Description, "Tomato reaches its harvest window in 16–19 days."))
	assert.Contains(t, steps[3].Description, "Cold storage is strongly recommended")
}

func TestTrendText(t *testing.T) {
	c := models.MarketCandidate{PriceSource: models.PriceFromMarket, TrendPoints: 3, TrendPct: -4}
	assert.Equal(t, "falling 4% over 30 days", trendText(c, 30))

	c.TrendPct = 0
	assert.Equal(t, "flat over 30 days", trendText(c, 30))

	c.PriceSource = models.PriceFromState
	assert.Equal(t, "not enough recent price history", trendText(c, 30))
}

func TestRupees(t *testing.T) {
	assert.Equal(t, "₹950", rupees(950))
	assert.Equal(t, "₹1,000", rupees(999.6))
	assert.Equal(t, "₹12,34,567", rupees(1234567))
	assert.Equal(t, "-₹2,500", rupees(-2500))
}
