// internal/workers/evaluation/send-evaluation-report/config.go
package sendevaluationreport

import (
	"fmt"
	"time"

	"evaluation-workers/internal/common/config"
)

// Config for report delivery. DefaultRecipient receives the e-mail when a
// job names no recipient.
type Config struct {
	EmailEnabled     bool
	SMSEnabled       bool
	FromEmail        string
	DefaultRecipient string
	SMSSenderID      string
	Timeout          time.Duration
}

func LoadConfig(cfg *config.Config) *Config {
	wcfg := config.GetWorkerConfig(cfg, TaskType)
	aws := cfg.Integrations.AWS
	return &Config{
		EmailEnabled:     aws.SES.Enabled,
		SMSEnabled:       aws.SNS.Enabled,
		FromEmail:        aws.SES.FromEmail,
		DefaultRecipient: aws.SES.DefaultRecipient,
		SMSSenderID:      aws.SNS.DefaultSMSSenderID,
		Timeout:          config.GetDuration(wcfg.Timeout),
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.EmailEnabled && c.FromEmail == "" {
		return fmt.Errorf("from email is required when email delivery is enabled")
	}
	return nil
}
