// cmd/advisor/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"agrichain/internal/advisor/engine"
	"agrichain/internal/advisor/forecast"
	"agrichain/internal/advisor/marketdata"
	"agrichain/internal/api"
	"agrichain/internal/common/aws"
	"agrichain/internal/common/camunda"
	"agrichain/internal/common/config"
	"agrichain/internal/common/database"
	apphttp "agrichain/internal/common/http"
	"agrichain/internal/common/logger"
	"agrichain/internal/common/observability"

	ah "agrichain/internal/workers/advisory/analyze-harvest"
	na "agrichain/internal/workers/advisory/notify-advisory"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{
		"service": cfg.App.Name,
		"version": cfg.App.Version,
	})

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Postgres, only when prices come from the database ---
	var pg *database.PostgresClient
	if cfg.Data.PriceSource == config.PriceSourcePostgres {
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()
	}

	// --- Reference data: any failure is fatal ---
	data, err := loadReferenceData(ctx, cfg, pg)
	if err != nil {
		zapLog.Fatal("reference data load failed", zap.Error(err))
	}
	summary := data.prices.Summary()
	log.Info("reference data loaded", map[string]interface{}{
		"priceRecords": summary.Records,
		"commodities":  summary.Commodities,
		"priceSource":  cfg.Data.PriceSource,
	})

	// --- Forecast chain: live (optional) -> resilient fallback -> redis cache ---
	provider, liveRequested, closeCache := buildForecast(ctx, cfg, log)
	defer closeCache()

	eng := engine.New(engine.Deps{
		Config:        cfg.Engine,
		Forecasts:     provider,
		LiveRequested: liveRequested,
		Prices:        data.prices,
		Distances:     data.distances,
		Yields:        data.yields,
		Clock:         engine.SystemClock{},
		Recorder:      obs,
		Logger:        log,
	})

	// --- HTTP API ---
	var server *api.Server
	if cfg.HTTP.Enabled {
		router := api.NewRouter(api.Deps{
			Analyzer:     eng,
			PriceSummary: summary,
			ForecastMode: cfg.Forecast.Mode,
			Service:      cfg.App.Name,
			Version:      cfg.App.Version,
			Logger:       log,
		})
		server = api.NewServer(cfg.HTTP.Address,
			config.GetDuration(cfg.HTTP.ReadTimeout), config.GetDuration(cfg.HTTP.WriteTimeout), router, log)
		server.Start()
	}

	// --- Zeebe workers ---
	var workers []*camunda.Worker
	var zeebe *camunda.Client
	if cfg.Camunda.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			zeebe, err = camunda.NewClientWithConfig(camunda.ConfigFrom(cfg.Camunda))
			return err
		}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		defer zeebe.Close()

		if config.IsWorkerEnabled(cfg, ah.TaskType) {
			handler := ah.NewHandler(ah.LoadConfig(cfg), eng, obs, log)
			workers = append(workers, startWorker(zeebe, cfg, ah.TaskType, handler, log))
		}

		if config.IsWorkerEnabled(cfg, na.TaskType) {
			ncfg := na.LoadConfig(cfg)
			clients, err := aws.NewClients(ctx, ncfg.AWSRegion)
			if err != nil {
				zapLog.Fatal("aws clients failed", zap.Error(err))
			}
			handler := na.NewHandler(ncfg, clients.SES, clients.SNS, log)
			workers = append(workers, startWorker(zeebe, cfg, na.TaskType, handler, log))
		}
	}

	log.Info("advisor started", map[string]interface{}{
		"http":    cfg.HTTP.Enabled,
		"workers": len(workers),
	})

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop()
	}
	if server != nil {
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("http shutdown failed", map[string]interface{}{"error": err.Error()})
		}
	}
	log.Info("advisor stopped", nil)
}

func startWorker(zeebe *camunda.Client, cfg *config.Config, taskType string, handler camunda.JobHandler, log logger.Logger) *camunda.Worker {
	wcfg := config.GetWorkerConfig(cfg, taskType)
	return camunda.NewWorker(zeebe.GetClient(), camunda.WorkerOptions{
		TaskType:      taskType,
		MaxJobsActive: wcfg.MaxJobsActive,
		Timeout:       config.GetDuration(wcfg.Timeout),
	}, handler, log)
}

type referenceData struct {
	prices    *marketdata.Store
	distances *marketdata.DistanceTable
	yields    *marketdata.YieldHistory
}

func loadReferenceData(ctx context.Context, cfg *config.Config, pg *database.PostgresClient) (*referenceData, error) {
	var loader marketdata.PriceLoader
	switch cfg.Data.PriceSource {
	case config.PriceSourceXLSX:
		loader = marketdata.XLSXLoader{Path: cfg.Data.PricePath, Sheet: cfg.Data.PriceSheet}
	case config.PriceSourcePostgres:
		loader = marketdata.PostgresLoader{DB: pg.DB, Table: cfg.Data.PriceTable}
	default:
		loader = marketdata.CSVLoader{Path: cfg.Data.PricePath}
	}
	records, err := loader.Load(ctx)
	if err != nil {
		return nil, err
	}

	out := &referenceData{
		prices:    marketdata.NewStore(records),
		distances: marketdata.DefaultDistances(),
		yields:    marketdata.NewYieldHistory(),
	}
	if cfg.Data.DistancePath != "" {
		if out.distances, err = marketdata.LoadDistanceCSV(cfg.Data.DistancePath); err != nil {
			return nil, err
		}
	}
	if cfg.Data.YieldPath != "" {
		if out.yields, err = marketdata.LoadYieldCSV(cfg.Data.YieldPath); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// buildForecast returns the provider chain and a cleanup func.
func buildForecast(ctx context.Context, cfg *config.Config, log logger.Logger) (forecast.Provider, bool, func()) {
	var live forecast.Provider
	if cfg.Forecast.Mode == config.ForecastModeLive {
		live = forecast.NewLive(apphttp.NewClient(cfg.Forecast.BaseURL, config.GetDuration(cfg.Forecast.Timeout)))
	}
	resilient := forecast.NewResilient(live, forecast.NewSimulated(), config.GetDuration(cfg.Forecast.Timeout), log)

	if !cfg.Forecast.CacheEnabled {
		return resilient, resilient.LiveConfigured(), func() {}
	}

	rdb := database.NewRedis(cfg.Database.Redis)
	if err := rdb.Ping(ctx); err != nil {
		log.Warn("redis unavailable, forecast cache disabled", map[string]interface{}{"error": err.Error()})
		_ = rdb.Close()
		return resilient, resilient.LiveConfigured(), func() {}
	}
	ttl := time.Duration(cfg.Forecast.CacheTTL) * time.Second
	return forecast.NewCached(resilient, rdb.Client, ttl, log), resilient.LiveConfigured(), func() { _ = rdb.Close() }
}
