// internal/workers/advisory/analyze-harvest/config.go
package analyzeharvest

import (
	"time"

	"agrichain/internal/common/config"
)

type Config struct {
	Timeout time.Duration
}

func LoadConfig(cfg *config.Config) *Config {
	wc := config.GetWorkerConfig(cfg, TaskType)
	timeout := config.GetDuration(wc.Timeout)
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Config{Timeout: timeout}
}
