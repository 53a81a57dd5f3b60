package models

import "time"

type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusQualified LeadStatus = "qualified"
	LeadStatusNurture   LeadStatus = "nurture"
	LeadStatusDead      LeadStatus = "dead"
	LeadStatusClient    LeadStatus = "client"
)

var leadStatuses = map[LeadStatus]struct{}{
	LeadStatusNew:       {},
	LeadStatusContacted: {},
	LeadStatusQualified: {},
	LeadStatusNurture:   {},
	LeadStatusDead:      {},
	LeadStatusClient:    {},
}

func (s LeadStatus) Valid() bool {
	_, ok := leadStatuses[s]
	return ok
}

// Contact is a row of the contacts table. A contact in the pipeline is a lead.
type Contact struct {
	ID                 string     `json:"id"`
	UserID             string     `json:"user_id"`
	FirstName          *string    `json:"first_name"`
	LastName           *string    `json:"last_name"`
	Email              *string    `json:"email"`
	Phone              *string    `json:"phone"`
	LeadSource         *string    `json:"lead_source"`
	LeadStatus         LeadStatus `json:"lead_status"`
	LeadScore          int        `json:"lead_score"`
	BuyerSeller        string     `json:"buyer_seller"`
	PreferredLocations []string   `json:"preferred_locations"`
	LastContactedAt    *time.Time `json:"last_contacted_at"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

type ScoreBand string

const (
	ScoreBandHot  ScoreBand = "hot"
	ScoreBandWarm ScoreBand = "warm"
	ScoreBandCold ScoreBand = "cold"
)

// BandForScore buckets a 0-100 lead score.
func BandForScore(score int) ScoreBand {
	switch {
	case score >= 80:
		return ScoreBandHot
	case score >= 60:
		return ScoreBandWarm
	default:
		return ScoreBandCold
	}
}
