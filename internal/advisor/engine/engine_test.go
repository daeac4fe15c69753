package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"agrichain/internal/advisor/catalog"
	"agrichain/internal/advisor/forecast"
	"agrichain/internal/advisor/marketdata"
	"agrichain/internal/common/config"
	apperrors "agrichain/internal/common/errors"
	"agrichain/internal/common/logger"
	"agrichain/internal/common/metrics"
	"agrichain/internal/models"
)

var today = time.Date(2025, time.January, 2, 0, 0, 0, 0, time.UTC)

type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) RecordAnalysis(ctx context.Context, crop, bestMarket, forecastSource string, confidence float64) {
	m.Called(ctx, crop, bestMarket, forecastSource, confidence)
}

type failingProvider struct{}

func (failingProvider) Forecast(context.Context, catalog.Region, time.Time) (models.Forecast, error) {
	return models.Forecast{}, errors.New("upstream down")
}

// nashikPrices is six tomato prices at Nashik over the last two weeks.
func nashikPrices() *marketdata.Store {
	var recs []models.CommodityPriceRecord
	for i, price := range []float64{2400, 2450, 2500, 2600, 2700, 2800} {
		recs = append(recs, models.CommodityPriceRecord{
			Commodity: "Tomato",
			Market:    "Nashik",
			District:  "Nashik",
			State:     "Maharashtra",
			Date:      today.AddDate(0, 0, -12+2*i),
			Price:     price,
		})
	}
	return marketdata.NewStore(recs)
}

func newEngine(t *testing.T, deps Deps) *Engine {
	t.Helper()
	deps.Config = config.DefaultEngineConfig()
	deps.Clock = FixedClock{Date: today}
	deps.Logger = logger.NewTestLogger(t)
	return New(deps)
}

func tomatoRequest() models.AnalysisRequest {
	return models.AnalysisRequest{
		CropType:     "tomato",
		State:        "maharashtra",
		District:     "nashik",
		HarvestStage: models.StageFifteenDays,
		StorageType:  models.StorageNone,
		LandSize:     2.5,
	}
}

func TestAnalyze_TomatoNashik(t *testing.T) {
	e := newEngine(t, Deps{Prices: nashikPrices()})

	res, err := e.Analyze(context.Background(), tomatoRequest())
	require.NoError(t, err)

	require.NotEmpty(t, res.Markets)
	best := 0
	for _, m := range res.Markets {
		if m.IsBest {
			best++
		}
	}
	assert.Equal(t, 1, best)
	assert.Equal(t, res.Markets[0], res.BestMarket)
	assert.Equal(t, "Nashik", res.BestMarket.Name)
	assert.Equal(t, models.PriceFromMarket, res.BestMarket.PriceSource)
	assert.Equal(t, 6, res.BestMarket.TrendPoints)

	rain := res.Forecast.RainDays(0.6)
	assert.Equal(t, today.AddDate(0, 0, 15+rain), res.HarvestWindow.Start)
	assert.Equal(t, rain, res.HarvestWindow.RainDelayDays)

	assert.NotEqual(t, models.RiskLow, res.Spoilage.RiskLevel)
	require.NotEmpty(t, res.Actions)
	assert.LessOrEqual(t, len(res.Actions), 4)

	assert.GreaterOrEqual(t, res.Confidence.Score, 0.0)
	assert.LessOrEqual(t, res.Confidence.Score, 100.0)
	assert.Contains(t, res.Confidence.Basis, "Nashik")

	require.Len(t, res.ReasoningSteps, 4)
	assert.NotEmpty(t, res.Explanation.Weather)
	assert.NotEmpty(t, res.Explanation.Price)
	assert.NotEmpty(t, res.Explanation.Soil)
	assert.NotEmpty(t, res.Explanation.Spoilage)
	assert.Equal(t, []string{"Seasonal Weather Simulation", "AGMARKNET Mandi Prices", "Rule-Based Models"}, res.DataSources)
	assert.Equal(t, today, res.GeneratedFor)
}

func TestAnalyze_NormalizesRequest(t *testing.T) {
	e := newEngine(t, Deps{})
	req := tomatoRequest()
	req.CropType = "  Tomato "
	req.State = "Maharashtra"
	req.District = "NASHIK"
	req.StorageType = "Cold"

	res, err := e.Analyze(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "tomato", res.Request.CropType)
	assert.Equal(t, "nashik", res.Request.District)
	assert.Equal(t, models.StorageCold, res.Request.StorageType)
}

func TestAnalyze_Deterministic(t *testing.T) {
	e := newEngine(t, Deps{Prices: nashikPrices()})

	a, err := e.Analyze(context.Background(), tomatoRequest())
	require.NoError(t, err)
	b, err := e.Analyze(context.Background(), tomatoRequest())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestAnalyze_StateFallbackLowersConfidence(t *testing.T) {
	e := newEngine(t, Deps{})

	district, err := e.Analyze(context.Background(), tomatoRequest())
	require.NoError(t, err)

	req := tomatoRequest()
	req.District = "solapur"
	fallback, err := e.Analyze(context.Background(), req)
	require.NoError(t, err)

	assert.Less(t, fallback.Confidence.Score, district.Confidence.Score)
	assert.Greater(t, fallback.Confidence.Band, district.Confidence.Band)

	var rules []string
	for _, p := range fallback.Confidence.Penalties {
		rules = append(rules, p.Rule)
	}
	assert.Contains(t, rules, "distance_fallback")
}

func TestAnalyze_TrendSupportRaisesConfidence(t *testing.T) {
	without, err := newEngine(t, Deps{}).Analyze(context.Background(), tomatoRequest())
	require.NoError(t, err)
	with, err := newEngine(t, Deps{Prices: nashikPrices()}).Analyze(context.Background(), tomatoRequest())
	require.NoError(t, err)

	assert.Equal(t, 0, without.BestMarket.TrendPoints)
	assert.Equal(t, models.PriceFromBenchmark, without.BestMarket.PriceSource)
	assert.Contains(t, without.DataSources, "Crop Benchmark Prices")
	assert.Less(t, without.Confidence.Score, with.Confidence.Score)
}

func TestAnalyze_OverdueStartsToday(t *testing.T) {
	e := newEngine(t, Deps{})
	req := tomatoRequest()
	req.HarvestStage = models.StageOverdue

	res, err := e.Analyze(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, today, res.HarvestWindow.Start)
	assert.Equal(t, models.UrgencyUrgent, res.HarvestWindow.Urgency)
}

func TestAnalyze_ColdStorageLowersRisk(t *testing.T) {
	e := newEngine(t, Deps{})

	open, err := e.Analyze(context.Background(), tomatoRequest())
	require.NoError(t, err)

	req := tomatoRequest()
	req.StorageType = models.StorageCold
	cold, err := e.Analyze(context.Background(), req)
	require.NoError(t, err)

	assert.Less(t, cold.Spoilage.RiskPct, open.Spoilage.RiskPct)
}

func TestAnalyze_ForecastFailureFallsBackToSimulated(t *testing.T) {
	e := newEngine(t, Deps{Forecasts: failingProvider{}, LiveRequested: true})

	res, err := e.Analyze(context.Background(), tomatoRequest())
	require.NoError(t, err)
	assert.Equal(t, models.ForecastSimulated, res.Forecast.Source)
	assert.Equal(t, forecast.ReasonUnavailable, res.Forecast.FallbackReason)
	assert.Len(t, res.Forecast.Points, models.ForecastDays)

	var rules []string
	for _, p := range res.Confidence.Penalties {
		rules = append(rules, p.Rule)
	}
	assert.Contains(t, rules, "live_unavailable")
}

func TestAnalyze_RecordsSuccessfulAnalysis(t *testing.T) {
	rec := new(MockRecorder)
	rec.On("RecordAnalysis", mock.Anything, "tomato", "Nashik", "simulated", mock.AnythingOfType("float64")).Return()

	e := newEngine(t, Deps{Prices: nashikPrices(), Recorder: rec})
	_, err := e.Analyze(context.Background(), tomatoRequest())
	require.NoError(t, err)

	req := tomatoRequest()
	req.CropType = "mango"
	_, err = e.Analyze(context.Background(), req)
	require.Error(t, err)

	rec.AssertNumberOfCalls(t, "RecordAnalysis", 1)
}

func TestAnalyze_UnsupportedCropMetricLabel(t *testing.T) {
	e := newEngine(t, Deps{Prices: nashikPrices()})
	code := string(apperrors.ErrCodeUnsupportedCrop)
	before := testutil.ToFloat64(metrics.AnalysesTotal.WithLabelValues("unsupported", code))

	req := tomatoRequest()
	req.CropType = "dragonfruit"
	_, err := e.Analyze(context.Background(), req)
	require.Error(t, err)

	assert.Equal(t, before+1, testutil.ToFloat64(metrics.AnalysesTotal.WithLabelValues("unsupported", code)))
	assert.False(t, metrics.AnalysesTotal.DeleteLabelValues("dragonfruit", code), "raw crop must not become a label value")
}

func TestAnalyze_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.AnalysisRequest)
		code   apperrors.ErrorCode
	}{
		{"unsupported crop", func(r *models.AnalysisRequest) { r.CropType = "mango" }, apperrors.ErrCodeUnsupportedCrop},
		{"unsupported state", func(r *models.AnalysisRequest) { r.State = "atlantis" }, apperrors.ErrCodeUnsupportedRegion},
		{"unsupported district", func(r *models.AnalysisRequest) { r.District = "gotham" }, apperrors.ErrCodeUnsupportedRegion},
		{"unknown stage", func(r *models.AnalysisRequest) { r.HarvestStage = "30days" }, apperrors.ErrCodeInvalidRequest},
		{"unknown storage", func(r *models.AnalysisRequest) { r.StorageType = "silo" }, apperrors.ErrCodeInvalidRequest},
		{"zero land", func(r *models.AnalysisRequest) { r.LandSize = 0 }, apperrors.ErrCodeInvalidRequest},
	}

	e := newEngine(t, Deps{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tomatoRequest()
			tt.mutate(&req)

			res, err := e.Analyze(context.Background(), req)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.Equal(t, tt.code, apperrors.CodeOf(err))
		})
	}
}

func TestAnalyze_NoReachableMarket(t *testing.T) {
	table := marketdata.NewDistanceTable([]models.MandiDistance{
		{State: "punjab", Market: "Chandigarh", DistanceKm: 60},
	})
	e := newEngine(t, Deps{Distances: table})

	_, err := e.Analyze(context.Background(), tomatoRequest())
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeNoReachableMarket, apperrors.CodeOf(err))
	assert.ErrorIs(t, err, apperrors.ErrNoReachableMarket)
}

func TestFixedClock_TruncatesToDate(t *testing.T) {
	c := FixedClock{Date: time.Date(2025, time.March, 9, 17, 45, 0, 0, time.FixedZone("IST", 5*3600+1800))}
	assert.Equal(t, time.Date(2025, time.March, 9, 0, 0, 0, 0, time.UTC), c.Today())
}
