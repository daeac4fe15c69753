// internal/workers/advisory/notify-advisory/config.go
package notifyadvisory

import (
	"time"

	"agrichain/internal/common/config"
)

type Config struct {
	EmailEnabled bool
	SMSEnabled   bool
	FromEmail    string
	SenderID     string
	AWSRegion    string
	Timeout      time.Duration
}

func LoadConfig(cfg *config.Config) *Config {
	timeout := config.GetDuration(config.GetWorkerConfig(cfg, TaskType).Timeout)
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	n := cfg.Notifications
	return &Config{
		EmailEnabled: n.Email.Enabled,
		SMSEnabled:   n.SMS.Enabled,
		FromEmail:    n.Email.FromEmail,
		SenderID:     n.SMS.SenderID,
		AWSRegion:    n.AWS.Region,
		Timeout:      timeout,
	}
}
