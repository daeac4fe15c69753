// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Data          DataConfig              `mapstructure:"data"`
	Forecast      ForecastConfig          `mapstructure:"forecast"`
	Engine        EngineConfig            `mapstructure:"engine"`
	HTTP          HTTPConfig              `mapstructure:"http"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Price sources accepted by data.price_source.
const (
	PriceSourceCSV      = "csv"
	PriceSourceXLSX     = "xlsx"
	PriceSourcePostgres = "postgres"
)

// DataConfig points at the reference data loaded once at startup.
type DataConfig struct {
	PriceSource  string `mapstructure:"price_source"`
	PricePath    string `mapstructure:"price_path"`
	PriceSheet   string `mapstructure:"price_sheet"` // xlsx only
	PriceTable   string `mapstructure:"price_table"` // postgres only
	DistancePath string `mapstructure:"distance_path"`
	YieldPath    string `mapstructure:"yield_path"`
}

// Forecast modes accepted by forecast.mode.
const (
	ForecastModeSimulated = "simulated"
	ForecastModeLive      = "live"
)

type ForecastConfig struct {
	Mode         string `mapstructure:"mode"`
	BaseURL      string `mapstructure:"base_url"`
	Timeout      int    `mapstructure:"timeout"` // milliseconds
	CacheEnabled bool   `mapstructure:"cache_enabled"`
	CacheTTL     int    `mapstructure:"cache_ttl"` // seconds
}

// EngineConfig carries every threshold and weight used by the decision rules.
type EngineConfig struct {
	Harvest      HarvestRules      `mapstructure:"harvest"`
	Market       MarketRules       `mapstructure:"market"`
	Spoilage     SpoilageRules     `mapstructure:"spoilage"`
	Preservation PreservationRules `mapstructure:"preservation"`
	Confidence   ConfidenceRules   `mapstructure:"confidence"`
}

type HarvestRules struct {
	RainThreshold  float64 `mapstructure:"rain_threshold"`
	DryStretchDays int     `mapstructure:"dry_stretch_days"`
	UrgentDays     int     `mapstructure:"urgent_days"`
	NormalDays     int     `mapstructure:"normal_days"`
}

type MarketRules struct {
	TransportRatePer100Km float64 `mapstructure:"transport_rate_per_100km"` // ₹ per kg
	TruckSpeedKmh         float64 `mapstructure:"truck_speed_kmh"`
	HandlingCost          float64 `mapstructure:"handling_cost"`
	TrendWindowDays       int     `mapstructure:"trend_window_days"`
}

type SpoilageRules struct {
	Midpoint          float64 `mapstructure:"midpoint"`
	Scale             float64 `mapstructure:"scale"`
	HumidityWeight    float64 `mapstructure:"humidity_weight"`
	HeatThresholdC    float64 `mapstructure:"heat_threshold_c"`
	HeatWeight        float64 `mapstructure:"heat_weight"`
	MaterialityPoints float64 `mapstructure:"materiality_points"`
	MediumFrom        float64 `mapstructure:"medium_from"` // risk % at which Medium starts
	HighFrom          float64 `mapstructure:"high_from"`
}

type PreservationRules struct {
	MaxActions    int     `mapstructure:"max_actions"`
	ResidualFloor float64 `mapstructure:"residual_floor"`
}

type ConfidenceRules struct {
	Baseline          float64 `mapstructure:"baseline"`
	MinTrendPoints    int     `mapstructure:"min_trend_points"`
	TrendPerPoint     float64 `mapstructure:"trend_per_point"`
	MinYieldPoints    int     `mapstructure:"min_yield_points"`
	YieldPerPoint     float64 `mapstructure:"yield_per_point"`
	DistanceFallback  float64 `mapstructure:"distance_fallback"`
	PriceState        float64 `mapstructure:"price_state"`
	PriceNational     float64 `mapstructure:"price_national"`
	PriceBenchmark    float64 `mapstructure:"price_benchmark"`
	SimulatedForecast float64 `mapstructure:"simulated_forecast"`
	LiveUnavailable   float64 `mapstructure:"live_unavailable"`
	BandBase          float64 `mapstructure:"band_base"`
	BandPerPenalty    float64 `mapstructure:"band_per_penalty"`
}

// HTTPConfig holds settings for the REST API.
type HTTPConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Address      string `mapstructure:"address"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // milliseconds
	WriteTimeout int    `mapstructure:"write_timeout"` // milliseconds
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// NotificationConfig holds settings for the notify-advisory worker.
type NotificationConfig struct {
	Email struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
	} `mapstructure:"email"`
	SMS struct {
		Enabled  bool   `mapstructure:"enabled"`
		SenderID string `mapstructure:"sender_id"`
	} `mapstructure:"sms"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
