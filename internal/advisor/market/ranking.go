// Package market ranks the reachable mandis by projected net profit.
package market

import (
	"math"
	"sort"

	"agrichain/internal/advisor/catalog"
	"agrichain/internal/advisor/marketdata"
	"agrichain/internal/common/config"
	"agrichain/internal/common/metrics"
	"agrichain/internal/models"
)

// PriceLookup is the read side of the market data store.
type PriceLookup interface {
	LatestPrice(commodity, market string) (models.CommodityPriceRecord, error)
	Trend(commodity, market string, windowDays int) marketdata.Trend
	StatePrice(commodity, state string) (float64, bool)
	NationalPrice(commodity string) (float64, bool)
}

type Model struct {
	rules  config.MarketRules
	prices PriceLookup
}

func NewModel(rules config.MarketRules, prices PriceLookup) *Model {
	return &Model{rules: rules, prices: prices}
}

// Input describes one ranking request.
type Input struct {
	Profile        catalog.CropProfile
	State          string
	Markets        []models.MandiDistance
	YieldKgPerAcre float64
	LandSize       float64 // acres
}

// Rank prices every market, computes its net profit and returns the
// candidates ordered by net profit desc, distance asc, name asc. The first
// candidate is marked best. Markets without price data fall back to the
// state median, the national median and finally the crop benchmark.
func (m *Model) Rank(in Input) []models.MarketCandidate {
	crop := string(in.Profile.Crop)
	yieldKg := round2(in.YieldKgPerAcre * in.LandSize)

	out := make([]models.MarketCandidate, 0, len(in.Markets))
	for _, md := range in.Markets {
		price, source := m.quote(crop, md.Market, in.State, in.Profile.BenchmarkPricePerKg)
		trend := m.prices.Trend(crop, md.Market, m.rules.TrendWindowDays)

		perKg := m.TransportCostPerKg(md.DistanceKm)
		transport := perKg * yieldKg
		c := models.MarketCandidate{
			Name:               md.Market,
			LatestPrice:        round2(price),
			PriceSource:        source,
			TrendPct:           trend.Pct,
			TrendPoints:        trend.Points,
			DistanceKm:         md.DistanceKm,
			TransitHours:       m.TransitHours(md.DistanceKm),
			TransportCostPerKg: round2(perKg),
			TransportCost:      round2(transport),
			HandlingCost:       m.rules.HandlingCost,
			ProjectedYieldKg:   yieldKg,
			NetProfit:          round2(yieldKg*price - transport - m.rules.HandlingCost),
		}
		out = append(out, c)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].NetProfit != out[j].NetProfit {
			return out[i].NetProfit > out[j].NetProfit
		}
		if out[i].DistanceKm != out[j].DistanceKm {
			return out[i].DistanceKm < out[j].DistanceKm
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > 0 {
		out[0].IsBest = true
	}
	return out
}

func (m *Model) quote(crop, market, state string, benchmark float64) (float64, models.PriceSource) {
	if rec, err := m.prices.LatestPrice(crop, market); err == nil {
		return rec.PricePerKg(), models.PriceFromMarket
	}

	source, price := models.PriceFromBenchmark, benchmark
	if p, ok := m.prices.StatePrice(crop, state); ok {
		source, price = models.PriceFromState, p
	} else if p, ok := m.prices.NationalPrice(crop); ok {
		source, price = models.PriceFromNational, p
	}
	metrics.PriceFallbacks.WithLabelValues(string(source)).Inc()
	return price, source
}

// TransportCostPerKg is the haulage cost of one kg over distanceKm.
func (m *Model) TransportCostPerKg(distanceKm float64) float64 {
	return m.rules.TransportRatePer100Km * distanceKm / 100
}

// TransitHours is the road time to a market at the average truck speed.
func (m *Model) TransitHours(distanceKm float64) float64 {
	if m.rules.TruckSpeedKmh <= 0 {
		return 0
	}
	return math.Round(distanceKm/m.rules.TruckSpeedKmh*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
