package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
app:
  name: advisor-test
data:
  price_source: csv
  price_path: data/commodity_price.csv
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "advisor-test", cfg.App.Name)
	assert.Equal(t, ForecastModeSimulated, cfg.Forecast.Mode)
	assert.Equal(t, 3000, cfg.Forecast.Timeout)
	assert.Equal(t, ":8080", cfg.HTTP.Address)
	assert.Equal(t, "info", cfg.Logging.Level)

	assert.Equal(t, 0.6, cfg.Engine.Harvest.RainThreshold)
	assert.Equal(t, 40.0, cfg.Engine.Market.TruckSpeedKmh)
	assert.Equal(t, 85.0, cfg.Engine.Confidence.Baseline)
	assert.Equal(t, 4, cfg.Engine.Preservation.MaxActions)
}

func TestLoadFromFile_KeepsConfiguredWeights(t *testing.T) {
	path := writeConfig(t, `
data:
  price_source: csv
  price_path: prices.csv
engine:
  confidence:
    baseline: 90
    trend_per_point: 4
  market:
    handling_cost: 750
workers:
  analyze-harvest:
    enabled: true
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 90.0, cfg.Engine.Confidence.Baseline)
	assert.Equal(t, 4.0, cfg.Engine.Confidence.TrendPerPoint)
	assert.Equal(t, 2.0, cfg.Engine.Confidence.YieldPerPoint)
	assert.Equal(t, 750.0, cfg.Engine.Market.HandlingCost)

	w := GetWorkerConfig(cfg, "analyze-harvest")
	assert.True(t, w.Enabled)
	assert.Equal(t, 5, w.MaxJobsActive)
	assert.Equal(t, 3, w.MaxRetries)
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "missing price path",
			body: "data:\n  price_source: csv\n",
			want: "data.price_path",
		},
		{
			name: "unknown price source",
			body: "data:\n  price_source: parquet\n",
			want: "data.price_source",
		},
		{
			name: "postgres without host",
			body: "data:\n  price_source: postgres\n",
			want: "database.postgres.host",
		},
		{
			name: "cache without redis",
			body: "data:\n  price_source: csv\n  price_path: p.csv\nforecast:\n  cache_enabled: true\n",
			want: "database.redis.address",
		},
		{
			name: "camunda without broker",
			body: "data:\n  price_source: csv\n  price_path: p.csv\ncamunda:\n  enabled: true\n",
			want: "camunda.broker_address",
		},
		{
			name: "bad forecast mode",
			body: "data:\n  price_source: csv\n  price_path: p.csv\nforecast:\n  mode: satellite\n",
			want: "forecast.mode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadFromFile_KeepsExplicitZeroWeights(t *testing.T) {
	path := writeConfig(t, `
data:
  price_source: csv
  price_path: data/commodity_price.csv
engine:
  market:
    handling_cost: 0
  spoilage:
    heat_weight: 0
    materiality_points: 0
  confidence:
    simulated_forecast: 0
    distance_fallback: 0
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 0.0, cfg.Engine.Market.HandlingCost)
	assert.Equal(t, 0.0, cfg.Engine.Spoilage.HeatWeight)
	assert.Equal(t, 0.0, cfg.Engine.Spoilage.MaterialityPoints)
	assert.Equal(t, 0.0, cfg.Engine.Confidence.SimulatedForecast)
	assert.Equal(t, 0.0, cfg.Engine.Confidence.DistanceFallback)

	// Siblings of the zeroed keys still get their defaults.
	assert.Equal(t, 0.15, cfg.Engine.Market.TransportRatePer100Km)
	assert.Equal(t, 0.4, cfg.Engine.Spoilage.HumidityWeight)
	assert.Equal(t, 12.0, cfg.Engine.Confidence.PriceBenchmark)
}

func TestLoadFromFile_EngineEnvOverride(t *testing.T) {
	t.Setenv("ENGINE_MARKET_HANDLING_COST", "0")
	path := writeConfig(t, "data:\n  price_source: csv\n  price_path: p.csv\n")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 0.0, cfg.Engine.Market.HandlingCost)
}

func TestDefaultEngineConfig(t *testing.T) {
	e := DefaultEngineConfig()
	assert.Equal(t, 0.15, e.Market.TransportRatePer100Km)
	assert.Equal(t, 500.0, e.Market.HandlingCost)
	assert.Equal(t, 50.0, e.Spoilage.Midpoint)
	assert.Equal(t, 15.0, e.Spoilage.Scale)
	assert.Equal(t, 12.0, e.Confidence.PriceBenchmark)
	assert.Equal(t, 0.25, e.Confidence.BandPerPenalty)
}

func TestIsWorkerEnabled(t *testing.T) {
	cfg := &Config{Workers: map[string]WorkerConfig{"notify-advisory": {Enabled: false}}}
	assert.False(t, IsWorkerEnabled(cfg, "notify-advisory"))
	assert.True(t, IsWorkerEnabled(cfg, "analyze-harvest"))
}
