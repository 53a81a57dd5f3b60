package listleads

import "realty-crm/internal/models"

const StatusAll = "all"

// Query is bound from the request query string.
type Query struct {
	UserID string `form:"user_id" binding:"required,uuid"`
	Status string `form:"status" binding:"omitempty,oneof=new contacted qualified nurture dead client all"`
	Search string `form:"search" binding:"max=100"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=200"`
	Offset int    `form:"offset" binding:"omitempty,min=0"`
}

type Lead struct {
	models.Contact
	ScoreBand models.ScoreBand `json:"score_band"`
}

// Stats summarize the user's whole book, not just the filtered page.
type Stats struct {
	Total     int `json:"total"`
	New       int `json:"new"`
	Qualified int `json:"qualified"`
	AvgScore  int `json:"avg_score"`
}

type Response struct {
	Leads []Lead `json:"leads"`
	Stats Stats  `json:"stats"`
}
