// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	// ENV override like FORECAST_MODE or DATABASE_REDIS_ADDRESS
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment overlay, e.g. config.production.yaml
	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig()

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func finish(v *viper.Viper) (*Config, error) {
	setEngineDefaults(v)
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// loadEnvFile loads .env from the first location that has one.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env", // tests in test/e2e/
		"../../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up from the working directory looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideEmptyConfig fills secrets that are conventionally provided as
// bare environment variables.
func overrideEmptyConfig(cfg *Config) {
	if cfg.Database.Postgres.User == "" {
		if val := os.Getenv("DB_USER"); val != "" {
			cfg.Database.Postgres.User = val
		}
	}
	if cfg.Database.Postgres.Password == "" {
		if val := os.Getenv("DB_PASSWORD"); val != "" {
			cfg.Database.Postgres.Password = val
		}
	}
	if cfg.Database.Redis.Password == "" {
		if val := os.Getenv("REDIS_PASSWORD"); val != "" {
			cfg.Database.Redis.Password = val
		}
	}
	if cfg.Notifications.AWS.Region == "" {
		if val := os.Getenv("AWS_REGION"); val != "" {
			cfg.Notifications.AWS.Region = val
		}
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "agrichain-advisor"
	}

	// Camunda defaults
	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	// Database defaults
	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}

	// Data defaults
	if cfg.Data.PriceSource == "" {
		cfg.Data.PriceSource = PriceSourceCSV
	}
	if cfg.Data.PriceTable == "" {
		cfg.Data.PriceTable = "mandi_prices"
	}

	// Forecast defaults
	if cfg.Forecast.Mode == "" {
		cfg.Forecast.Mode = ForecastModeSimulated
	}
	if cfg.Forecast.BaseURL == "" {
		cfg.Forecast.BaseURL = "https://api.open-meteo.com"
	}
	if cfg.Forecast.Timeout == 0 {
		cfg.Forecast.Timeout = 3000
	}
	if cfg.Forecast.CacheTTL == 0 {
		cfg.Forecast.CacheTTL = 3600
	}

	// HTTP defaults
	if cfg.HTTP.Address == "" {
		cfg.HTTP.Address = ":8080"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 10000
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 10000
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 30000
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}
}

// engineDefaults are registered with viper so an explicit 0 in yaml or the
// environment is kept. Every rule weight has a meaningful zero.
var engineDefaults = map[string]interface{}{
	"engine.harvest.rain_threshold":   0.6,
	"engine.harvest.dry_stretch_days": 3,
	"engine.harvest.urgent_days":      3,
	"engine.harvest.normal_days":      10,

	"engine.market.transport_rate_per_100km": 0.15,
	"engine.market.truck_speed_kmh":          40.0,
	"engine.market.handling_cost":            500.0,
	"engine.market.trend_window_days":        30,

	"engine.spoilage.midpoint":           50.0,
	"engine.spoilage.scale":              15.0,
	"engine.spoilage.humidity_weight":    0.4,
	"engine.spoilage.heat_threshold_c":   30.0,
	"engine.spoilage.heat_weight":        1.5,
	"engine.spoilage.materiality_points": 5.0,
	"engine.spoilage.medium_from":        30.0,
	"engine.spoilage.high_from":          60.0,

	"engine.preservation.max_actions":    4,
	"engine.preservation.residual_floor": 5.0,

	"engine.confidence.baseline":           85.0,
	"engine.confidence.min_trend_points":   5,
	"engine.confidence.trend_per_point":    3.0,
	"engine.confidence.min_yield_points":   5,
	"engine.confidence.yield_per_point":    2.0,
	"engine.confidence.distance_fallback":  8.0,
	"engine.confidence.price_state":        5.0,
	"engine.confidence.price_national":     8.0,
	"engine.confidence.price_benchmark":    12.0,
	"engine.confidence.simulated_forecast": 3.0,
	"engine.confidence.live_unavailable":   2.0,
	"engine.confidence.band_base":          4.0,
	"engine.confidence.band_per_penalty":   0.25,
}

func setEngineDefaults(v *viper.Viper) {
	for key, val := range engineDefaults {
		v.SetDefault(key, val)
	}
}

// DefaultEngineConfig returns the rule weights used when nothing is configured.
func DefaultEngineConfig() EngineConfig {
	v := viper.New()
	setEngineDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("config: engine defaults do not decode: %v", err))
	}
	return cfg.Engine
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Camunda.Enabled && cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required")
	}

	switch cfg.Data.PriceSource {
	case PriceSourceCSV, PriceSourceXLSX:
		if cfg.Data.PricePath == "" {
			return fmt.Errorf("data.price_path is required for price_source %q", cfg.Data.PriceSource)
		}
	case PriceSourcePostgres:
		if cfg.Database.Postgres.Host == "" {
			return fmt.Errorf("database.postgres.host is required")
		}
		if cfg.Database.Postgres.Database == "" {
			return fmt.Errorf("database.postgres.database is required")
		}
		if cfg.Database.Postgres.User == "" {
			return fmt.Errorf("database.postgres.user is required")
		}
	default:
		return fmt.Errorf("data.price_source must be one of csv, xlsx, postgres (got %q)", cfg.Data.PriceSource)
	}

	switch cfg.Forecast.Mode {
	case ForecastModeSimulated, ForecastModeLive:
	default:
		return fmt.Errorf("forecast.mode must be simulated or live (got %q)", cfg.Forecast.Mode)
	}
	if cfg.Forecast.CacheEnabled && cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required when forecast.cache_enabled is set")
	}

	if cfg.Engine.Harvest.RainThreshold < 0 || cfg.Engine.Harvest.RainThreshold > 1 {
		return fmt.Errorf("engine.harvest.rain_threshold must be within [0,1]")
	}
	if cfg.Engine.Harvest.UrgentDays > cfg.Engine.Harvest.NormalDays {
		return fmt.Errorf("engine.harvest.urgent_days must not exceed normal_days")
	}
	if cfg.Engine.Market.TruckSpeedKmh <= 0 {
		return fmt.Errorf("engine.market.truck_speed_kmh must be positive")
	}
	if cfg.Engine.Spoilage.Scale <= 0 {
		return fmt.Errorf("engine.spoilage.scale must be positive")
	}
	if cfg.Engine.Spoilage.MediumFrom >= cfg.Engine.Spoilage.HighFrom {
		return fmt.Errorf("engine.spoilage.medium_from must be below high_from")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to defaults
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}
	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30000,
		MaxRetries:    3,
	}
}

// IsWorkerEnabled checks if a specific worker is enabled
func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}
