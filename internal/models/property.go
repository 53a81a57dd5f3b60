package models

import "github.com/shopspring/decimal"

type PropertyStatus string

const (
	PropertyStatusActive    PropertyStatus = "active"
	PropertyStatusPending   PropertyStatus = "pending"
	PropertyStatusSold      PropertyStatus = "sold"
	PropertyStatusExpired   PropertyStatus = "expired"
	PropertyStatusOffMarket PropertyStatus = "off_market"
)

func (s PropertyStatus) Valid() bool {
	switch s {
	case PropertyStatusActive, PropertyStatusPending, PropertyStatusSold, PropertyStatusExpired, PropertyStatusOffMarket:
		return true
	}
	return false
}

// Property is a listing document as indexed for search.
type Property struct {
	ID           string          `json:"id"`
	MLSNumber    *string         `json:"mls_number,omitempty"`
	Address      string          `json:"address"`
	City         string          `json:"city"`
	State        string          `json:"state"`
	Zip          string          `json:"zip"`
	Latitude     *float64        `json:"latitude,omitempty"`
	Longitude    *float64        `json:"longitude,omitempty"`
	Price        decimal.Decimal `json:"price"`
	Bedrooms     *int            `json:"bedrooms,omitempty"`
	Bathrooms    *float64        `json:"bathrooms,omitempty"`
	Sqft         *int            `json:"sqft,omitempty"`
	PropertyType string          `json:"property_type"`
	ListingDate  *string         `json:"listing_date,omitempty"`
	Status       PropertyStatus  `json:"status"`
	PhotoURLs    []string        `json:"photos_urls,omitempty"`
	Description  *string         `json:"description,omitempty"`
	YearBuilt    *int            `json:"year_built,omitempty"`
}
