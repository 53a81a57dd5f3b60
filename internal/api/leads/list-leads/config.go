package listleads

import (
	"time"

	"realty-crm/internal/common/config"
)

type Config struct {
	Timeout      time.Duration
	CacheTTL     time.Duration
	DefaultLimit int
	MaxLimit     int
}

func LoadConfig(cfg *config.Config) *Config {
	hc := config.GetHandlerConfig(cfg, config.HandlerListLeads)
	return &Config{
		Timeout:      config.GetDuration(hc.Timeout),
		CacheTTL:     time.Duration(hc.CacheTTL) * time.Second,
		DefaultLimit: 50,
		MaxLimit:     200,
	}
}
