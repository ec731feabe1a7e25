package quote

import (
	"time"

	"omerhsa-quotes/internal/common/config"
	"omerhsa-quotes/internal/wizard"
)

const (
	draftKeyPrefix = "quote:draft:"
	lockKeyPrefix  = "quote:lock:"
)

// Config tunes the wizard sessions and the submission pipeline.
type Config struct {
	SubmitTimeout time.Duration
	DraftTTL      time.Duration
	ProcessID     string
	Rules         wizard.Rules
}

func DefaultConfig() Config {
	return Config{
		SubmitTimeout: 30 * time.Second,
		DraftTTL:      2 * time.Hour,
		ProcessID:     "quote-request",
		Rules:         wizard.DefaultRules(),
	}
}

func ConfigFromApp(cfg *config.Config) Config {
	out := DefaultConfig()
	if cfg == nil {
		return out
	}
	if cfg.Wizard.SubmitTimeout > 0 {
		out.SubmitTimeout = config.GetDuration(cfg.Wizard.SubmitTimeout)
	}
	if cfg.Wizard.DraftTTL > 0 {
		out.DraftTTL = config.GetDuration(cfg.Wizard.DraftTTL)
	}
	if cfg.Wizard.MinVehicleYear > 0 {
		out.Rules.MinVehicleYear = cfg.Wizard.MinVehicleYear
	}
	if cfg.Camunda.ProcessID != "" {
		out.ProcessID = cfg.Camunda.ProcessID
	}
	return out
}

// lockTTL outlives the submit timeout so a crashed instance cannot hold the
// lock forever.
func (c Config) lockTTL() time.Duration {
	return c.SubmitTimeout + 10*time.Second
}
