package listleads

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"realty-crm/internal/common/config"
	"realty-crm/internal/common/database"
	apperrors "realty-crm/internal/common/errors"
	"realty-crm/internal/common/logger"
	"realty-crm/internal/common/metrics"
	"realty-crm/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
)

const (
	HandlerName = config.HandlerListLeads
	Route       = "/api/leads"
	queryType   = "list_leads"
)

type Handler struct {
	config *Config
	db     *sql.DB
	cache  redis.Cmdable
	logger logger.Logger
}

// NewHandler wires the handler. cache may be nil, in which case every
// request goes to Postgres.
func NewHandler(cfg *Config, db *sql.DB, cache redis.Cmdable, log logger.Logger) *Handler {
	return &Handler{
		config: cfg,
		db:     db,
		cache:  cache,
		logger: log.WithFields(map[string]interface{}{"handler": HandlerName}),
	}
}

// Handle serves GET /api/leads.
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
		stdErr := apperrors.NewInvalidParameterError(describeBindError(err))
		status = apperrors.HTTPStatusFor(stdErr.Code)
		c.JSON(status, stdErr.ToResponse())
		return
	}

	resp, err := h.Execute(c.Request.Context(), &q)
	if err != nil {
		stdErr := apperrors.Normalize(err)
		status = apperrors.HTTPStatusFor(stdErr.Code)
		h.logger.Error("list leads failed", map[string]interface{}{
			"requestId": c.GetString("request_id"),
			"userId":    q.UserID,
			"code":      stdErr.Code,
			"error":     err.Error(),
		})
		c.JSON(status, stdErr.ToResponse())
		return
	}

	c.JSON(status, resp)
}

func (h *Handler) Execute(ctx context.Context, q *Query) (*Response, error) {
	if q.UserID == "" {
		return nil, apperrors.NewInvalidParameterError("user_id is required")
	}
	if q.Status != "" && q.Status != StatusAll && !models.LeadStatus(q.Status).Valid() {
		return nil, apperrors.NewInvalidParameterError(fmt.Sprintf("unknown status %q", q.Status))
	}
	h.normalize(q)

	if h.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.config.Timeout)
		defer cancel()
	}

	key := cacheKey(q)
	if resp, ok := h.fromCache(ctx, key); ok {
		return resp, nil
	}

	contacts, err := queryContacts(ctx, h.db, q)
	if err != nil {
		return nil, queryError(ctx, err)
	}
	stats, err := queryStats(ctx, h.db, q.UserID)
	if err != nil {
		return nil, queryError(ctx, err)
	}

	resp := buildResponse(contacts, stats)
	h.toCache(ctx, key, resp)

	h.logger.Debug("leads listed", map[string]interface{}{
		"userId": q.UserID,
		"count":  len(resp.Leads),
	})
	return resp, nil
}

func (h *Handler) normalize(q *Query) {
	if q.Status == "" {
		q.Status = StatusAll
	}
	q.Search = strings.TrimSpace(q.Search)
	if q.Limit <= 0 {
		q.Limit = h.config.DefaultLimit
	}
	if h.config.MaxLimit > 0 && q.Limit > h.config.MaxLimit {
		q.Limit = h.config.MaxLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
}

func cacheKey(q *Query) string {
	return fmt.Sprintf("leads:%s:%s:%s:%d:%d", q.UserID, q.Status, strings.ToLower(q.Search), q.Limit, q.Offset)
}

func (h *Handler) fromCache(ctx context.Context, key string) (*Response, bool) {
	if h.cache == nil {
		return nil, false
	}

	var resp Response
	err := database.GetJSON(ctx, h.cache, key, &resp)
	switch {
	case err == nil:
		metrics.CacheLookupsTotal.WithLabelValues(HandlerName, "hit").Inc()
		return &resp, true
	case errors.Is(err, database.ErrCacheMiss):
		metrics.CacheLookupsTotal.WithLabelValues(HandlerName, "miss").Inc()
	default:
		metrics.CacheLookupsTotal.WithLabelValues(HandlerName, "error").Inc()
		cacheErr := apperrors.NewCacheUnavailableError(err)
		h.logger.Warn("lead cache read failed", map[string]interface{}{
			"key":       key,
			"code":      string(cacheErr.Code),
			"retryable": cacheErr.Retryable,
			"error":     cacheErr.Details,
		})
	}
	return nil, false
}

func (h *Handler) toCache(ctx context.Context, key string, resp *Response) {
	if h.cache == nil || h.config.CacheTTL <= 0 {
		return
	}
	if err := database.SetJSON(ctx, h.cache, key, resp, h.config.CacheTTL); err != nil {
		h.logger.Warn("lead cache write failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
}

func queryError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apperrors.NewQueryTimeoutError(queryType)
	}
	return apperrors.NewQueryExecutionFailedError(queryType, err)
}

func buildResponse(contacts []models.Contact, stats Stats) *Response {
	leads := make([]Lead, 0, len(contacts))
	for _, c := range contacts {
		leads = append(leads, Lead{Contact: c, ScoreBand: models.BandForScore(c.LeadScore)})
	}
	return &Response{Leads: leads, Stats: stats}
}

func describeBindError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		switch field {
		case "UserID":
			field = "user_id"
		default:
			field = strings.ToLower(field)
		}
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s: failed %s=%s", field, fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s: failed %s", field, fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}
