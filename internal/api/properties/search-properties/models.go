package searchproperties

import (
	"github.com/shopspring/decimal"

	"realty-crm/internal/models"
)

type Query struct {
	City        string `form:"city" binding:"max=100"`
	Status      string `form:"status" binding:"omitempty,oneof=active pending sold expired off_market"`
	MinPrice    string `form:"min_price" binding:"omitempty,numeric"`
	MaxPrice    string `form:"max_price" binding:"omitempty,numeric"`
	MinBedrooms int    `form:"min_bedrooms" binding:"omitempty,min=0,max=20"`
	Limit       int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset      int    `form:"offset" binding:"omitempty,min=0"`
}

// Filters is a validated Query.
type Filters struct {
	City        string
	Status      models.PropertyStatus
	MinPrice    *decimal.Decimal
	MaxPrice    *decimal.Decimal
	MinBedrooms int
	From        int
	Size        int
}

type Response struct {
	Properties []models.Property `json:"properties"`
	Total      int64             `json:"total"`
}
