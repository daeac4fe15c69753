package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"agrichain/internal/advisor/catalog"
	"agrichain/internal/advisor/marketdata"
	"agrichain/internal/common/config"
	apperrors "agrichain/internal/common/errors"
	"agrichain/internal/models"
)

type MockPriceLookup struct {
	mock.Mock
}

func (m *MockPriceLookup) LatestPrice(commodity, market string) (models.CommodityPriceRecord, error) {
	args := m.Called(commodity, market)
	return args.Get(0).(models.CommodityPriceRecord), args.Error(1)
}

func (m *MockPriceLookup) Trend(commodity, market string, windowDays int) marketdata.Trend {
	args := m.Called(commodity, market, windowDays)
	return args.Get(0).(marketdata.Trend)
}

func (m *MockPriceLookup) StatePrice(commodity, state string) (float64, bool) {
	args := m.Called(commodity, state)
	return args.Get(0).(float64), args.Bool(1)
}

func (m *MockPriceLookup) NationalPrice(commodity string) (float64, bool) {
	args := m.Called(commodity)
	return args.Get(0).(float64), args.Bool(1)
}

func profile(t *testing.T, crop string) catalog.CropProfile {
	t.Helper()
	p, err := catalog.Profile(crop)
	require.NoError(t, err)
	return p
}

func record(market string, day int, pricePerQuintal float64) models.CommodityPriceRecord {
	return models.CommodityPriceRecord{
		Commodity: "Tomato", State: "Maharashtra", Market: market,
		Date:  time.Date(2025, 9, day, 0, 0, 0, 0, time.UTC),
		Price: pricePerQuintal,
	}
}

func TestRank_NetProfitOrdering(t *testing.T) {
	store := marketdata.NewStore([]models.CommodityPriceRecord{
		record("Nashik", 1, 2000),
		record("Pune", 1, 2600),
		record("Mumbai", 1, 2500),
	})
	m := NewModel(config.DefaultEngineConfig().Market, store)

	candidates := m.Rank(Input{
		Profile: profile(t, "tomato"),
		State:   "maharashtra",
		Markets: []models.MandiDistance{
			{Market: "Nashik", DistanceKm: 15},
			{Market: "Pune", DistanceKm: 210},
			{Market: "Mumbai", DistanceKm: 170},
		},
		YieldKgPerAcre: 1000,
		LandSize:       2,
	})
	require.Len(t, candidates, 3)

	// 2000 kg: Pune 52000-630-500, Mumbai 50000-510-500, Nashik 40000-45-500.
	assert.Equal(t, "Pune", candidates[0].Name)
	assert.Equal(t, 50870.0, candidates[0].NetProfit)
	assert.Equal(t, "Mumbai", candidates[1].Name)
	assert.Equal(t, 48990.0, candidates[1].NetProfit)
	assert.Equal(t, "Nashik", candidates[2].Name)

	assert.Equal(t, 2000.0, candidates[0].ProjectedYieldKg)
	assert.InDelta(t, 0.315, candidates[0].TransportCostPerKg, 0.0051)
	assert.Equal(t, 5.3, candidates[0].TransitHours)
	assert.Equal(t, models.PriceFromMarket, candidates[0].PriceSource)
}

func TestRank_ExactlyOneBest(t *testing.T) {
	store := marketdata.NewStore([]models.CommodityPriceRecord{
		record("Nashik", 1, 2400),
		record("Lasalgaon", 1, 2400),
		record("Pune", 1, 2400),
	})
	m := NewModel(config.DefaultEngineConfig().Market, store)

	candidates := m.Rank(Input{
		Profile: profile(t, "tomato"),
		State:   "maharashtra",
		Markets: []models.MandiDistance{
			{Market: "Pune", DistanceKm: 0},
			{Market: "Nashik", DistanceKm: 0},
			{Market: "Lasalgaon", DistanceKm: 60},
		},
		YieldKgPerAcre: 8000,
		LandSize:       1,
	})

	best := 0
	for _, c := range candidates {
		if c.IsBest {
			best++
		}
		assert.LessOrEqual(t, c.NetProfit, candidates[0].NetProfit)
	}
	assert.Equal(t, 1, best)
	assert.True(t, candidates[0].IsBest)
	assert.Equal(t, "Nashik", candidates[0].Name, "equal profit and distance break ties by name")
}

func TestRank_EqualProfitPrefersNearerMarket(t *testing.T) {
	// Akola is priced higher by exactly its haulage: 100 km at 0.15 ₹/kg.
	store := marketdata.NewStore([]models.CommodityPriceRecord{
		record("Akola", 1, 2015),
		record("Pune", 1, 2000),
	})
	m := NewModel(config.DefaultEngineConfig().Market, store)

	candidates := m.Rank(Input{
		Profile: profile(t, "tomato"),
		State:   "maharashtra",
		Markets: []models.MandiDistance{
			{Market: "Akola", DistanceKm: 100},
			{Market: "Pune", DistanceKm: 0},
		},
		YieldKgPerAcre: 1000,
		LandSize:       1,
	})
	require.Len(t, candidates, 2)

	assert.Equal(t, 19500.0, candidates[0].NetProfit)
	assert.Equal(t, candidates[0].NetProfit, candidates[1].NetProfit)
	assert.Equal(t, "Pune", candidates[0].Name)
	assert.True(t, candidates[0].IsBest)
	assert.Equal(t, "Akola", candidates[1].Name)
	assert.False(t, candidates[1].IsBest)
}

func TestRank_PriceFallbackChain(t *testing.T) {
	tests := []struct {
		name      string
		state     *float64
		national  *float64
		wantPrice float64
		want      models.PriceSource
	}{
		{"state median", ptr(24), ptr(30), 24, models.PriceFromState},
		{"national median", nil, ptr(30), 30, models.PriceFromNational},
		{"catalog benchmark", nil, nil, 28.5, models.PriceFromBenchmark},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prices := new(MockPriceLookup)
			prices.On("LatestPrice", "tomato", "Agra").
				Return(models.CommodityPriceRecord{}, apperrors.NewNoPriceDataError("tomato", "Agra"))
			prices.On("Trend", "tomato", "Agra", 30).Return(marketdata.Trend{LowConfidence: true})
			prices.On("StatePrice", "tomato", "uttar_pradesh").Return(value(tt.state), tt.state != nil)
			if tt.state == nil {
				prices.On("NationalPrice", "tomato").Return(value(tt.national), tt.national != nil)
			}

			m := NewModel(config.DefaultEngineConfig().Market, prices)
			candidates := m.Rank(Input{
				Profile:        profile(t, "tomato"),
				State:          "uttar_pradesh",
				Markets:        []models.MandiDistance{{Market: "Agra", DistanceKm: 8}},
				YieldKgPerAcre: 100,
				LandSize:       1,
			})

			require.Len(t, candidates, 1)
			assert.Equal(t, tt.want, candidates[0].PriceSource)
			assert.Equal(t, tt.wantPrice, candidates[0].LatestPrice)
			assert.True(t, candidates[0].IsBest)
			prices.AssertExpectations(t)
		})
	}
}

func TestTransitHours(t *testing.T) {
	m := NewModel(config.DefaultEngineConfig().Market, marketdata.NewStore(nil))
	assert.Equal(t, 0.0, m.TransitHours(0))
	assert.Equal(t, 1.5, m.TransitHours(60))
	assert.InDelta(t, 0.15, m.TransportCostPerKg(100), 1e-9)
}

func ptr(v float64) *float64 { return &v }

func value(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
