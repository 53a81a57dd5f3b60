package models

import "github.com/shopspring/decimal"

type DashboardMetrics struct {
	TotalLeads         int             `json:"total_leads"`
	QualifiedLeads     int             `json:"qualified_leads"`
	ActiveTransactions int             `json:"active_transactions"`
	ClosedTransactions int             `json:"closed_transactions"`
	CommissionPipeline decimal.Decimal `json:"commission_pipeline"`
	MonthlyGCI         decimal.Decimal `json:"monthly_gci"`
	ConversionRate     float64         `json:"conversion_rate"`
	// ResponseTimeAvg is minutes from an inbound contact activity to the
	// agent's next outbound one, over the trailing 30 days.
	ResponseTimeAvg    float64         `json:"response_time_avg"`
	// GoalProgress is MonthlyGCI as a whole percentage of the monthly goal.
	GoalProgress       int             `json:"goal_progress"`
}
