package dashboardmetrics

import (
	"time"

	"realty-crm/internal/common/config"

	"github.com/shopspring/decimal"
)

type Config struct {
	Timeout        time.Duration
	CacheTTL       time.Duration
	MonthlyGCIGoal decimal.Decimal
}

func LoadConfig(cfg *config.Config) *Config {
	hc := config.GetHandlerConfig(cfg, config.HandlerDashboardMetrics)
	return &Config{
		Timeout:        config.GetDuration(hc.Timeout),
		CacheTTL:       time.Duration(hc.CacheTTL) * time.Second,
		MonthlyGCIGoal: decimal.NewFromFloat(cfg.Dashboard.MonthlyGCIGoal),
	}
}
