// Package engine runs the full farm-to-market analysis: forecast, harvest
// window, market ranking, spoilage risk, preservation advice and the
// explanation layer.
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"agrichain/internal/advisor/catalog"
	"agrichain/internal/advisor/explain"
	"agrichain/internal/advisor/forecast"
	"agrichain/internal/advisor/harvest"
	"agrichain/internal/advisor/market"
	"agrichain/internal/advisor/marketdata"
	"agrichain/internal/advisor/preservation"
	"agrichain/internal/advisor/spoilage"
	"agrichain/internal/common/config"
	apperrors "agrichain/internal/common/errors"
	"agrichain/internal/common/logger"
	"agrichain/internal/common/metrics"
	"agrichain/internal/models"
)

// Recorder receives one event per successful analysis.
type Recorder interface {
	RecordAnalysis(ctx context.Context, crop, bestMarket, forecastSource string, confidence float64)
}

// Deps are the read-only collaborators of the engine. Everything in here is
// built once at startup and shared between concurrent analyses.
type Deps struct {
	Config        config.EngineConfig
	Forecasts     forecast.Provider
	LiveRequested bool
	Prices        market.PriceLookup
	Distances     *marketdata.DistanceTable
	Yields        *marketdata.YieldHistory
	Clock         Clock
	Recorder      Recorder // optional
	Logger        logger.Logger
}

type Engine struct {
	cfg           config.EngineConfig
	forecasts     forecast.Provider
	simulated     forecast.Provider
	liveRequested bool
	distances     *marketdata.DistanceTable
	yields        *marketdata.YieldHistory
	clock         Clock
	recorder      Recorder
	logger        logger.Logger

	harvest  *harvest.Model
	market   *market.Model
	spoilage *spoilage.Model
	advisor  *preservation.Advisor
}

func New(d Deps) *Engine {
	if d.Clock == nil {
		d.Clock = SystemClock{}
	}
	if d.Prices == nil {
		d.Prices = marketdata.NewStore(nil)
	}
	if d.Yields == nil {
		d.Yields = marketdata.NewYieldHistory()
	}
	if d.Distances == nil {
		d.Distances = marketdata.DefaultDistances()
	}
	if d.Logger == nil {
		d.Logger = logger.NewNoOpLogger()
	}
	simulated := forecast.NewSimulated()
	if d.Forecasts == nil {
		d.Forecasts = simulated
	}

	return &Engine{
		cfg:           d.Config,
		forecasts:     d.Forecasts,
		simulated:     simulated,
		liveRequested: d.LiveRequested,
		distances:     d.Distances,
		yields:        d.Yields,
		clock:         d.Clock,
		recorder:      d.Recorder,
		logger:        d.Logger.WithFields(map[string]interface{}{"component": "engine"}),
		harvest:       harvest.NewModel(d.Config.Harvest),
		market:        market.NewModel(d.Config.Market, d.Prices),
		spoilage:      spoilage.NewModel(d.Config.Spoilage),
		advisor:       preservation.NewAdvisor(d.Config.Preservation.MaxActions, d.Config.Preservation.ResidualFloor),
	}
}

// Analyze runs one synchronous analysis. Only UNSUPPORTED_CROP,
// UNSUPPORTED_REGION, NO_REACHABLE_MARKET and INVALID_REQUEST are returned;
// missing prices and an unreachable live forecast degrade the result instead.
func (e *Engine) Analyze(ctx context.Context, req models.AnalysisRequest) (*models.AnalysisResult, error) {
	start := time.Now()
	req = Normalize(req)

	result, err := e.analyze(ctx, req)
	if err != nil {
		metrics.AnalysesTotal.WithLabelValues(cropLabel(req.CropType), string(apperrors.CodeOf(err))).Inc()
		e.logger.Warn("analysis rejected", map[string]interface{}{
			"crop":     req.CropType,
			"location": req.Location().String(),
			"error":    err.Error(),
		})
		return nil, err
	}

	metrics.AnalysesTotal.WithLabelValues(req.CropType, "ok").Inc()
	metrics.AnalysisDuration.WithLabelValues(string(result.Forecast.Source)).Observe(time.Since(start).Seconds())
	if e.recorder != nil {
		e.recorder.RecordAnalysis(ctx, req.CropType, result.BestMarket.Name, string(result.Forecast.Source), result.Confidence.Score)
	}
	e.logger.Info("analysis completed", map[string]interface{}{
		"crop":       req.CropType,
		"location":   req.Location().String(),
		"bestMarket": result.BestMarket.Name,
		"riskLevel":  string(result.Spoilage.RiskLevel),
		"confidence": result.Confidence.Score,
		"duration":   time.Since(start).String(),
	})
	return result, nil
}

// cropLabel keeps metric label values within the catalog.
func cropLabel(crop string) string {
	if _, err := catalog.Profile(crop); err != nil {
		return "unsupported"
	}
	return crop
}

func (e *Engine) analyze(ctx context.Context, req models.AnalysisRequest) (*models.AnalysisResult, error) {
	profile, err := catalog.Profile(req.CropType)
	if err != nil {
		return nil, err
	}
	region, err := catalog.ResolveRegion(req.State, req.District)
	if err != nil {
		return nil, err
	}
	if _, ok := profile.StageOffset(req.HarvestStage); !ok {
		return nil, apperrors.NewInvalidRequestError(fmt.Sprintf("unknown harvest stage %q", req.HarvestStage))
	}
	if _, ok := catalog.Storage(req.StorageType); !ok {
		return nil, apperrors.NewInvalidRequestError(fmt.Sprintf("unknown storage type %q", req.StorageType))
	}
	if req.LandSize <= 0 {
		return nil, apperrors.NewInvalidRequestError("landSize must be greater than 0")
	}

	candidates, err := e.distances.CandidateMarkets(region.State, region.District)
	if err != nil {
		return nil, err
	}

	today := e.clock.Today()
	fc := e.forecast(ctx, region, today)

	yield := e.yields.YieldFor(req.CropType, region.State)
	markets := e.market.Rank(market.Input{
		Profile:        profile,
		State:          region.State,
		Markets:        candidates.Markets,
		YieldKgPerAcre: yield.KgPerAcre,
		LandSize:       req.LandSize,
	})
	if len(markets) == 0 {
		return nil, apperrors.NewNoReachableMarketError(region.State, region.District)
	}
	best := markets[0]

	window, err := e.harvest.Window(profile, req.HarvestStage, fc, today)
	if err != nil {
		return nil, err
	}

	risk, err := e.spoilage.Assess(spoilage.Input{
		Profile:      profile,
		Storage:      req.StorageType,
		Forecast:     fc,
		TransitHours: best.TransitHours,
	})
	if err != nil {
		return nil, err
	}
	actions := e.advisor.Advise(profile, req.StorageType, risk)

	in := explain.Inputs{
		Profile:         profile,
		Region:          region,
		Request:         req,
		Forecast:        fc,
		Harvest:         window,
		Best:            best,
		Markets:         markets,
		Yield:           yield,
		Spoilage:        risk,
		Actions:         actions,
		RainThreshold:   e.cfg.Harvest.RainThreshold,
		TrendWindowDays: e.cfg.Market.TrendWindowDays,
	}
	confidence := explain.Confidence(e.cfg.Confidence, explain.Evidence{
		TrendPoints:   best.TrendPoints,
		YieldPoints:   yield.Points,
		StateFallback: candidates.StateFallback,
		PriceSource:   best.PriceSource,
		Forecast:      fc,
		LiveRequested: e.liveRequested,
	})
	confidence.Basis = basis(profile, region, fc, yield)

	return &models.AnalysisResult{
		Request:        req,
		GeneratedFor:   today,
		Forecast:       fc,
		HarvestWindow:  window,
		Markets:        markets,
		BestMarket:     best,
		Spoilage:       risk,
		Actions:        actions,
		Explanation:    explain.Explain(in),
		ReasoningSteps: explain.Steps(in),
		Confidence:     confidence,
		DataSources:    dataSources(fc, best, yield),
	}, nil
}

// forecast never fails: a provider error is served from the simulated
// forecast with the reason recorded.
func (e *Engine) forecast(ctx context.Context, region catalog.Region, today time.Time) models.Forecast {
	fc, err := e.forecasts.Forecast(ctx, region, today)
	if err == nil {
		return fc
	}
	e.logger.Warn("forecast provider failed, using simulated forecast", map[string]interface{}{
		"location": region.State + "/" + region.District,
		"error":    err.Error(),
	})
	metrics.ForecastFallbacks.WithLabelValues(forecast.ReasonUnavailable).Inc()
	fc, _ = e.simulated.Forecast(ctx, region, today)
	fc.FallbackReason = forecast.ReasonUnavailable
	return fc
}

// Normalize lower-cases and trims the enumerated request fields.
func Normalize(req models.AnalysisRequest) models.AnalysisRequest {
	req.CropType = catalog.NormalizeKey(req.CropType)
	req.State = catalog.NormalizeKey(req.State)
	req.District = catalog.NormalizeKey(req.District)
	req.HarvestStage = strings.ToLower(strings.TrimSpace(req.HarvestStage))
	req.StorageType = catalog.NormalizeKey(req.StorageType)
	return req
}

func basis(profile catalog.CropProfile, region catalog.Region, fc models.Forecast, yield marketdata.YieldEstimate) string {
	kind := "simulated seasonal"
	if fc.Source == models.ForecastLive {
		kind = "live"
	}
	history := "reference yields"
	if yield.Points > 0 {
		history = fmt.Sprintf("%d historical yield record(s)", yield.Points)
	}
	return fmt.Sprintf("Based on a %d-day %s weather forecast for %s, AGMARKNET mandi price data, and %s for %s.",
		len(fc.Points), kind, region.DisplayDistrict(), history, profile.DisplayName)
}

func dataSources(fc models.Forecast, best models.MarketCandidate, yield marketdata.YieldEstimate) []string {
	sources := make([]string, 0, 4)
	if fc.Source == models.ForecastLive {
		sources = append(sources, "Open-Meteo Weather Forecast")
	} else {
		sources = append(sources, "Seasonal Weather Simulation")
	}
	if best.PriceSource == models.PriceFromBenchmark {
		sources = append(sources, "Crop Benchmark Prices")
	} else {
		sources = append(sources, "AGMARKNET Mandi Prices")
	}
	if yield.Scope != marketdata.YieldScopeCatalog {
		sources = append(sources, "Crop Yield History")
	}
	return append(sources, "Rule-Based Models")
}
