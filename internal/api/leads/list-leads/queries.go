package listleads

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"realty-crm/internal/models"

	"github.com/lib/pq"
)

const contactColumns = `id, user_id, first_name, last_name, email, phone, lead_source,
		lead_status, COALESCE(lead_score, 0), buyer_seller, preferred_locations,
		last_contacted_at, created_at, updated_at`

// statsQuery summarizes the user's whole book. Status and search filters only
// narrow the listed page, never the stats.
const statsQuery = `SELECT COUNT(*),
		COUNT(*) FILTER (WHERE lead_status = $2),
		COUNT(*) FILTER (WHERE lead_status = $3),
		COALESCE(ROUND(AVG(COALESCE(lead_score, 0)))::int, 0)
	FROM contacts
	WHERE user_id = $1`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// buildQuery renders the contacts query for q. q must already be normalized.
func buildQuery(q *Query) (string, []interface{}) {
	var sb strings.Builder
	args := []interface{}{q.UserID}

	sb.WriteString("SELECT ")
	sb.WriteString(contactColumns)
	sb.WriteString("\n\tFROM contacts\n\tWHERE user_id = $1")

	if q.Status != "" && q.Status != StatusAll {
		args = append(args, q.Status)
		fmt.Fprintf(&sb, "\n\t  AND lead_status = $%d", len(args))
	}

	if search := strings.TrimSpace(q.Search); search != "" {
		args = append(args, "%"+likeEscaper.Replace(strings.ToLower(search))+"%")
		fmt.Fprintf(&sb, "\n\t  AND LOWER(COALESCE(first_name, '') || ' ' || COALESCE(last_name, '') || ' ' || COALESCE(email, '')) LIKE $%d", len(args))
	}

	sb.WriteString("\n\tORDER BY lead_score DESC NULLS LAST, created_at DESC")

	args = append(args, q.Limit, q.Offset)
	fmt.Fprintf(&sb, "\n\tLIMIT $%d OFFSET $%d", len(args)-1, len(args))

	return sb.String(), args
}

func queryContacts(ctx context.Context, db *sql.DB, q *Query) ([]models.Contact, error) {
	query, args := buildQuery(q)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contacts := make([]models.Contact, 0, q.Limit)
	for rows.Next() {
		var c models.Contact
		var status string
		if err := rows.Scan(
			&c.ID, &c.UserID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.LeadSource,
			&status, &c.LeadScore, &c.BuyerSeller, pq.Array(&c.PreferredLocations),
			&c.LastContactedAt, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		c.LeadStatus = models.LeadStatus(status)
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return contacts, nil
}

func queryStats(ctx context.Context, db *sql.DB, userID string) (Stats, error) {
	var stats Stats
	err := db.QueryRowContext(ctx, statsQuery, userID,
		string(models.LeadStatusNew), string(models.LeadStatusQualified),
	).Scan(&stats.Total, &stats.New, &stats.Qualified, &stats.AvgScore)
	if err != nil {
		return Stats{}, fmt.Errorf("lead stats: %w", err)
	}
	return stats, nil
}
