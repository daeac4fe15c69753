package forecast

import (
	"context"
	"errors"
	"time"

	"agrichain/internal/advisor/catalog"
	"agrichain/internal/common/logger"
	"agrichain/internal/common/metrics"
	"agrichain/internal/models"
)

// Fallback reasons recorded on the forecast and in metrics.
const (
	ReasonTimeout     = "timeout"
	ReasonUnavailable = "unavailable"
)

// Resilient calls the live provider in its own goroutine bounded by timeout
// and serves the fallback forecast on timeout or error. It never returns
// FORECAST_UNAVAILABLE.
type Resilient struct {
	live     Provider
	fallback Provider
	timeout  time.Duration
	logger   logger.Logger
}

// NewResilient builds the provider. A nil live provider means simulated mode.
func NewResilient(live, fallback Provider, timeout time.Duration, log logger.Logger) *Resilient {
	return &Resilient{
		live:     live,
		fallback: fallback,
		timeout:  timeout,
		logger:   log.WithFields(map[string]interface{}{"component": "forecast"}),
	}
}

// LiveConfigured reports whether forecasts are requested from a live source.
func (r *Resilient) LiveConfigured() bool {
	return r.live != nil
}

type liveResult struct {
	forecast models.Forecast
	err      error
}

func (r *Resilient) Forecast(ctx context.Context, region catalog.Region, asOf time.Time) (models.Forecast, error) {
	if r.live == nil {
		return r.fallback.Forecast(ctx, region, asOf)
	}

	liveCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	// Buffered so the goroutine can exit after a timeout.
	done := make(chan liveResult, 1)
	go func() {
		fc, err := r.live.Forecast(liveCtx, region, asOf)
		done <- liveResult{forecast: fc, err: err}
	}()

	var reason string
	select {
	case res := <-done:
		if res.err == nil {
			return res.forecast, nil
		}
		reason = ReasonUnavailable
		if errors.Is(res.err, context.DeadlineExceeded) || liveCtx.Err() != nil {
			reason = ReasonTimeout
		}
		r.logger.Warn("live forecast failed, using simulated forecast", map[string]interface{}{
			"location": region.State + "/" + region.District,
			"error":    res.err.Error(),
		})
	case <-liveCtx.Done():
		reason = ReasonTimeout
		r.logger.Warn("live forecast timed out, using simulated forecast", map[string]interface{}{
			"location": region.State + "/" + region.District,
			"timeout":  r.timeout.String(),
		})
	}

	metrics.ForecastFallbacks.WithLabelValues(reason).Inc()

	fc, err := r.fallback.Forecast(ctx, region, asOf)
	if err != nil {
		return models.Forecast{}, err
	}
	fc.FallbackReason = reason
	return fc, nil
}
