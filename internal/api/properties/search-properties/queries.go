package searchproperties

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/shopspring/decimal"

	"realty-crm/internal/models"
)

// parseFilters validates q and applies paging defaults.
func (h *Handler) parseFilters(q *Query) (*Filters, error) {
	f := &Filters{
		City:        strings.TrimSpace(q.City),
		Status:      models.PropertyStatus(q.Status),
		MinBedrooms: q.MinBedrooms,
		From:        q.Offset,
		Size:        q.Limit,
	}

	if f.Status != "" && !f.Status.Valid() {
		return nil, fmt.Errorf("unknown status %q", q.Status)
	}

	var err error
	if f.MinPrice, err = parsePrice("min_price", q.MinPrice); err != nil {
		return nil, err
	}
	if f.MaxPrice, err = parsePrice("max_price", q.MaxPrice); err != nil {
		return nil, err
	}
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return nil, fmt.Errorf("min_price %s exceeds max_price %s", f.MinPrice, f.MaxPrice)
	}

	if f.Size <= 0 {
		f.Size = h.config.DefaultLimit
	}
	if h.config.MaxLimit > 0 && f.Size > h.config.MaxLimit {
		f.Size = h.config.MaxLimit
	}
	if f.From < 0 {
		f.From = 0
	}
	return f, nil
}

func parsePrice(name, raw string) (*decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("%s must not be negative", name)
	}
	return &d, nil
}

// buildQueryBody renders the bool query for f. Exact-match filters go in the
// filter context so they do not affect scoring.
func buildQueryBody(f *Filters) map[string]interface{} {
	filters := []interface{}{}

	if f.City != "" {
		filters = append(filters, map[string]interface{}{
			"term": map[string]interface{}{"city.keyword": f.City},
		})
	}
	if f.Status != "" {
		filters = append(filters, map[string]interface{}{
			"term": map[string]interface{}{"status": string(f.Status)},
		})
	}
	if f.MinPrice != nil || f.MaxPrice != nil {
		bounds := map[string]interface{}{}
		if f.MinPrice != nil {
			bounds["gte"] = json.Number(f.MinPrice.String())
		}
		if f.MaxPrice != nil {
			bounds["lte"] = json.Number(f.MaxPrice.String())
		}
		filters = append(filters, map[string]interface{}{
			"range": map[string]interface{}{"price": bounds},
		})
	}
	if f.MinBedrooms > 0 {
		filters = append(filters, map[string]interface{}{
			"range": map[string]interface{}{"bedrooms": map[string]interface{}{"gte": f.MinBedrooms}},
		})
	}

	boolQuery := map[string]interface{}{
		"must": []interface{}{map[string]interface{}{"match_all": map[string]interface{}{}}},
	}
	if len(filters) > 0 {
		boolQuery["filter"] = filters
	}

	return map[string]interface{}{
		"query": map[string]interface{}{"bool": boolQuery},
		"sort": []interface{}{
			map[string]interface{}{"listing_date": map[string]interface{}{"order": "desc", "unmapped_type": "date"}},
		},
		"track_total_hits": true,
	}
}

func buildSearchRequest(index string, f *Filters) (*esapi.SearchRequest, error) {
	body, err := json.Marshal(buildQueryBody(f))
	if err != nil {
		return nil, err
	}

	return &esapi.SearchRequest{
		Index: []string{index},
		Body:  bytes.NewReader(body),
		From:  &f.From,
		Size:  &f.Size,
	}, nil
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID     string          `json:"_id"`
			Source models.Property `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

type errorResponse struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
	Status int `json:"status"`
}
