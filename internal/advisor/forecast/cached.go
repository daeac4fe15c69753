package forecast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"agrichain/internal/advisor/catalog"
	"agrichain/internal/common/logger"
	"agrichain/internal/common/metrics"
	"agrichain/internal/models"
)

const cacheKeyPrefix = "forecast:v1"

// Cached memoizes a provider in Redis, keyed by region and date. Cache
// failures are logged and bypassed. Errors and live-fallback forecasts are
// never stored, so a recovered live source is used on the next call.
type Cached struct {
	next   Provider
	rdb    redis.Cmdable
	ttl    time.Duration
	logger logger.Logger
}

func NewCached(next Provider, rdb redis.Cmdable, ttl time.Duration, log logger.Logger) *Cached {
	return &Cached{
		next:   next,
		rdb:    rdb,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "forecast-cache"}),
	}
}

func CacheKey(region catalog.Region, asOf time.Time) string {
	return fmt.Sprintf("%s:%s:%s:%s", cacheKeyPrefix, region.State, region.District, dateOnly(asOf).Format("2006-01-02"))
}

func (c *Cached) Forecast(ctx context.Context, region catalog.Region, asOf time.Time) (models.Forecast, error) {
	key := CacheKey(region, asOf)

	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var fc models.Forecast
		if jsonErr := json.Unmarshal(raw, &fc); jsonErr == nil && len(fc.Points) == models.ForecastDays {
			metrics.ForecastCacheLookups.WithLabelValues("hit").Inc()
			return fc, nil
		}
		c.logger.Warn("discarding corrupt cached forecast", map[string]interface{}{"key": key})
		metrics.ForecastCacheLookups.WithLabelValues("error").Inc()
	case errors.Is(err, redis.Nil):
		metrics.ForecastCacheLookups.WithLabelValues("miss").Inc()
	default:
		c.logger.Warn("forecast cache read failed", map[string]interface{}{"key": key, "error": err.Error()})
		metrics.ForecastCacheLookups.WithLabelValues("error").Inc()
	}

	fc, err := c.next.Forecast(ctx, region, asOf)
	if err != nil {
		return models.Forecast{}, err
	}

	if fc.LiveFallback() {
		return fc, nil
	}

	if data, mErr := json.Marshal(fc); mErr == nil {
		if sErr := c.rdb.Set(ctx, key, data, c.ttl).Err(); sErr != nil {
			c.logger.Warn("forecast cache write failed", map[string]interface{}{"key": key, "error": sErr.Error()})
		}
	}
	return fc, nil
}
