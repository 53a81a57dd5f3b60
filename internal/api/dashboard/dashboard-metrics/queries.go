package dashboardmetrics

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"realty-crm/internal/models"

	"github.com/shopspring/decimal"
)

const leadCountsQuery = `
	SELECT COUNT(*),
	       COUNT(*) FILTER (WHERE lead_status = 'qualified')
	FROM contacts
	WHERE user_id = $1`

const transactionTotalsQuery = `
	SELECT COUNT(*) FILTER (WHERE status NOT IN ('closed', 'cancelled')),
	       COUNT(*) FILTER (WHERE status = 'closed'),
	       COALESCE(SUM(commission_amount) FILTER (WHERE status NOT IN ('closed', 'cancelled')), 0),
	       COALESCE(SUM(commission_amount) FILTER (WHERE status = 'closed' AND closing_date >= date_trunc('month', $2::timestamptz)), 0)
	FROM transactions
	WHERE user_id = $1`

// responseTimeQuery pairs each inbound activity in the trailing 30 days with
// the next outbound activity for the same contact.
const responseTimeQuery = `
	SELECT COALESCE(ROUND((AVG(EXTRACT(EPOCH FROM (reply.created_at - inbound.created_at))) / 60)::numeric, 1), 0)
	FROM activities inbound
	CROSS JOIN LATERAL (
		SELECT a.created_at
		FROM activities a
		WHERE a.user_id = inbound.user_id
		  AND a.contact_id = inbound.contact_id
		  AND a.direction = 'outbound'
		  AND a.created_at > inbound.created_at
		ORDER BY a.created_at
		LIMIT 1
	) reply
	WHERE inbound.user_id = $1
	  AND inbound.direction = 'inbound'
	  AND inbound.contact_id IS NOT NULL
	  AND inbound.created_at >= $2::timestamptz - interval '30 days'`

type counts struct {
	totalLeads     int
	qualifiedLeads int
	active         int
	closed         int
	pipeline       decimal.Decimal
	monthlyGCI     decimal.Decimal
	responseTime   decimal.Decimal
}

func (h *Handler) loadCounts(ctx context.Context, userID string) (*counts, error) {
	var c counts

	if err := h.db.QueryRowContext(ctx, leadCountsQuery, userID).Scan(&c.totalLeads, &c.qualifiedLeads); err != nil {
		return nil, fmt.Errorf("lead counts: %w", err)
	}

	err := h.db.QueryRowContext(ctx, transactionTotalsQuery, userID, h.now()).
		Scan(&c.active, &c.closed, &c.pipeline, &c.monthlyGCI)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction totals: %w", err)
	}

	if err := h.db.QueryRowContext(ctx, responseTimeQuery, userID, h.now()).Scan(&c.responseTime); err != nil {
		return nil, fmt.Errorf("response time: %w", err)
	}

	return &c, nil
}

// toMetrics derives the dashboard figures. Conversion rate is closed deals
// per lead as a percentage with one decimal, 0 when there are no leads.
// Goal progress is 0 without a positive goal and is not capped at 100.
func (c *counts) toMetrics(goal decimal.Decimal) *models.DashboardMetrics {
	rate := 0.0
	if c.totalLeads > 0 {
		rate = decimal.NewFromInt(int64(c.closed)).
			Mul(decimal.NewFromInt(100)).
			Div(decimal.NewFromInt(int64(c.totalLeads))).
			Round(1).
			InexactFloat64()
	}

	progress := 0
	if goal.IsPositive() {
		progress = int(c.monthlyGCI.Mul(decimal.NewFromInt(100)).Div(goal).Round(0).IntPart())
	}

	return &models.DashboardMetrics{
		TotalLeads:         c.totalLeads,
		QualifiedLeads:     c.qualifiedLeads,
		ActiveTransactions: c.active,
		ClosedTransactions: c.closed,
		CommissionPipeline: c.pipeline,
		MonthlyGCI:         c.monthlyGCI,
		ConversionRate:     rate,
		ResponseTimeAvg:    c.responseTime.InexactFloat64(),
		GoalProgress:       progress,
	}
}
