package searchproperties

import (
	"time"

	"realty-crm/internal/common/config"
)

type Config struct {
	Index        string
	Timeout      time.Duration
	DefaultLimit int
	MaxLimit     int
}

func LoadConfig(cfg *config.Config) *Config {
	hc := config.GetHandlerConfig(cfg, config.HandlerSearchProperties)
	return &Config{
		Index:        cfg.Database.Elasticsearch.PropertyIndex,
		Timeout:      config.GetDuration(hc.Timeout),
		DefaultLimit: 20,
		MaxLimit:     100,
	}
}
