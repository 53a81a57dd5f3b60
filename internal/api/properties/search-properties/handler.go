package searchproperties

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/gin-gonic/gin"

	"realty-crm/internal/common/config"
	apperrors "realty-crm/internal/common/errors"
	"realty-crm/internal/common/logger"
	"realty-crm/internal/common/metrics"
	"realty-crm/internal/models"
)

const (
	HandlerName = config.HandlerSearchProperties
	Route       = "/api/properties/search"
	queryType   = "property_search"
)

var (
	ErrSearchFailed  = errors.New("SEARCH_QUERY_FAILED")
	ErrIndexNotFound = errors.New("INDEX_NOT_FOUND")
)

type Handler struct {
	config *Config
	client *elasticsearch.Client
	logger logger.Logger
}

func NewHandler(cfg *Config, client *elasticsearch.Client, log logger.Logger) *Handler {
	return &Handler{
		config: cfg,
		client: client,
		logger: log.WithFields(map[string]interface{}{"handler": HandlerName, "index": cfg.Index}),
	}
}

// Handle serves GET /api/properties/search.
func (h *Handler) Handle(c *gin.Context) {
	start := time.Now()
	status := http.StatusOK
	metrics.HandlerRequestsActive.WithLabelValues(HandlerName).Inc()
	defer func() {
		metrics.HandlerRequestsActive.WithLabelValues(HandlerName).Dec()
		metrics.HandlerRequestsTotal.WithLabelValues(HandlerName, strconv.Itoa(status)).Inc()
		metrics.HandlerRequestDuration.WithLabelValues(HandlerName).Observe(time.Since(start).Seconds())
	}()

	var q Query
	if err := c.ShouldBindQuery(&q); err != nil {
		stdErr := apperrors.NewInvalidParameterError(err.Error())
		status = apperrors.HTTPStatusFor(stdErr.Code)
		c.JSON(status, stdErr.ToResponse())
		return
	}

	resp, err := h.Execute(c.Request.Context(), &q)
	if err != nil {
		stdErr := apperrors.Normalize(err)
		status = apperrors.HTTPStatusFor(stdErr.Code)
		h.logger.Error("property search failed", map[string]interface{}{
			"requestId": c.GetString("request_id"),
			"code":      stdErr.Code,
			"error":     err.Error(),
		})
		c.JSON(status, stdErr.ToResponse())
		return
	}

	c.JSON(status, resp)
}

func (h *Handler) Execute(ctx context.Context, q *Query) (*Response, error) {
	f, err := h.parseFilters(q)
	if err != nil {
		return nil, apperrors.NewInvalidParameterError(err.Error())
	}

	if h.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.config.Timeout)
		defer cancel()
	}

	resp, err := h.search(ctx, f)
	if err != nil {
		switch {
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			return nil, apperrors.NewSearchTimeoutError(queryType)
		case errors.Is(err, ErrIndexNotFound):
			return nil, apperrors.NewIndexNotFoundError(h.config.Index)
		default:
			return nil, apperrors.NewSearchQueryFailedError(queryType, err)
		}
	}

	h.logger.Debug("property search completed", map[string]interface{}{
		"total":    resp.Total,
		"returned": len(resp.Properties),
	})
	return resp, nil
}

func (h *Handler) search(ctx context.Context, f *Filters) (*Response, error) {
	req, err := buildSearchRequest(h.config.Index, f)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrSearchFailed, err)
	}

	res, err := req.Do(ctx, h.client)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		var er errorResponse
		_ = json.NewDecoder(res.Body).Decode(&er)
		if res.StatusCode == http.StatusNotFound || er.Error.Type == "index_not_found_exception" {
			return nil, ErrIndexNotFound
		}
		return nil, fmt.Errorf("%w: %s %s", ErrSearchFailed, res.Status(), er.Error.Reason)
	}

	var sr searchResponse
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrSearchFailed, err)
	}

	props := make([]models.Property, 0, len(sr.Hits.Hits))
	for _, hit := range sr.Hits.Hits {
		p := hit.Source
		if p.ID == "" {
			p.ID = hit.ID
		}
		props = append(props, p)
	}

	return &Response{Properties: props, Total: sr.Hits.Total.Value}, nil
}
