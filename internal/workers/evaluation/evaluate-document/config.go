package evaluatedocument

import (
	"fmt"
	"time"

	"evaluation-workers/internal/common/config"
)

type Config struct {
	Timeout          time.Duration
	MinTextLength    int
	MaxDocumentBytes int
}

// LoadConfig reads the worker section and the evaluation settings it needs.
func LoadConfig(cfg *config.Config) *Config {
	wcfg := config.GetWorkerConfig(cfg, TaskType)
	return &Config{
		Timeout:          config.GetDuration(wcfg.Timeout),
		MinTextLength:    cfg.Evaluation.MinTextLength,
		MaxDocumentBytes: 20 << 20,
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxDocumentBytes <= 0 {
		return fmt.Errorf("max document size must be positive")
	}
	return nil
}
