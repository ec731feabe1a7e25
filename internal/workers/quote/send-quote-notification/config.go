package sendquotenotification

import (
	"fmt"
	"time"

	"omerhsa-quotes/internal/common/config"
)

const ConfigKey = "send-quote-notification"

type Config struct {
	Enabled       bool
	MaxJobsActive int
	Timeout       time.Duration
	EmailEnabled  bool
	SMSEnabled    bool
	FromEmail     string
	AdvisorEmail  string
	AdvisorPhone  string
	SiteName      string
	SitePhone     string
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30 * time.Second,
		SiteName:      "OMERHSA",
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.EmailEnabled && c.FromEmail == "" {
		return fmt.Errorf("from_email is required when email notifications are enabled")
	}
	if c.SMSEnabled && c.AdvisorPhone == "" {
		return fmt.Errorf("advisor_phone is required when sms notifications are enabled")
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

	n := appConfig.Notifications
	cfg.EmailEnabled = n.Email.Enabled && appConfig.Integrations.AWS.SES.Enabled
	cfg.FromEmail = n.Email.FromEmail
	if cfg.FromEmail == "" {
		cfg.FromEmail = appConfig.Integrations.AWS.SES.FromEmail
	}
	cfg.AdvisorEmail = n.Email.AdvisorEmail
	cfg.SMSEnabled = n.SMS.Enabled && appConfig.Integrations.AWS.SNS.Enabled
	cfg.AdvisorPhone = n.SMS.AdvisorPhone
	if appConfig.Site.Name != "" {
		cfg.SiteName = appConfig.Site.Name
	}
	cfg.SitePhone = appConfig.Site.Phone
	return cfg
}
