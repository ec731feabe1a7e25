package emailsend

import (
	"fmt"
	"time"

	"omerhsa-quotes/internal/common/config"
)

const ConfigKey = "email-send"

type Config struct {
	Enabled       bool          `mapstructure:"enabled"`
	MaxJobsActive int           `mapstructure:"max_jobs_active"`
	Timeout       time.Duration `mapstructure:"timeout"`
	SMTPHost      string        `mapstructure:"smtp_host"`
	SMTPPort      int           `mapstructure:"smtp_port"`
	SMTPUsername  string        `mapstructure:"smtp_username"`
	SMTPPassword  string        `mapstructure:"smtp_password"`
	UseTLS        bool          `mapstructure:"use_tls"`
	DefaultFrom   string        `mapstructure:"default_from"`
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30 * time.Second,
		SMTPPort:      587,
		UseTLS:        true,
		DefaultFrom:   "info@omerhsa.com",
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxJobsActive <= 0 {
		return fmt.Errorf("max_jobs_active must be positive")
	}
	if c.SMTPHost == "" {
		return fmt.Errorf("smtp_host is required")
	}
	if c.SMTPPort <= 0 || c.SMTPPort > 65535 {
		return fmt.Errorf("smtp_port must be between 1 and 65535")
	}
	if c.DefaultFrom == "" {
		return fmt.Errorf("default_from email is required")
	}
	return nil
}

func createConfigFromAppConfig(appConfig *config.Config, customConfig *Config) *Config {
	if customConfig != nil {
		return customConfig
	}

	cfg := DefaultConfig()
	if appConfig == nil {
		return cfg
	}
	if workerCfg, exists := appConfig.Workers[ConfigKey]; exists {
		cfg.Enabled = workerCfg.Enabled
		if workerCfg.MaxJobsActive > 0 {
			cfg.MaxJobsActive = workerCfg.MaxJobsActive
		}
		if workerCfg.Timeout > 0 {
			cfg.Timeout = config.GetDuration(workerCfg.Timeout)
		}
	}

	smtpCfg := appConfig.Integrations.SMTP
	cfg.SMTPHost = smtpCfg.Host
	if smtpCfg.Port > 0 {
		cfg.SMTPPort = smtpCfg.Port
	}
	cfg.SMTPUsername = smtpCfg.Username
	cfg.SMTPPassword = smtpCfg.Password
	cfg.UseTLS = smtpCfg.UseTLS
	if smtpCfg.DefaultFrom != "" {
		cfg.DefaultFrom = smtpCfg.DefaultFrom
	}
	return cfg
}
