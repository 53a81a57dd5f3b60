package dashboardmetrics

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"realty-crm/internal/common/config"
	"realty-crm/internal/common/database"
	apperrors "realty-crm/internal/common/errors"
	"realty-crm/internal/common/logger"
	"realty-crm/internal/common/metrics"
	"realty-crm/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	HandlerName = config.HandlerDashboardMetrics
	Route       = "/api/dashboard/metrics"
	queryType   = "dashboard_metrics"
)

type Handler struct {
	config *Config
	db     *sql.DB
	cache  redis.Cmdable
	logger logger.Logger
	now    func() time.Time
}

func NewHandler(cfg *Config, db *sql.DB, cache redis.Cmdable, log logger.Logger) *Handler {
	return &Handler{
		config: cfg,
		db:     db,
		cache:  cache,
		logger: log.WithFields(map[string]interface{}{"handler": HandlerName}),
		now:    time.Now,
	}
}

// Handle serves GET /api/dashboard/metrics.
func (h *Handler) Handle(c *gin.Context) {
	start := time.Now()
	status := http.StatusOK
	metrics.HandlerRequestsActive.WithLabelValues(HandlerName).Inc()
	defer func() {
		metrics.HandlerRequestsActive.WithLabelValues(HandlerName).Dec()
		metrics.HandlerRequestsTotal.WithLabelValues(HandlerName, strconv.Itoa(status)).Inc()
		metrics.HandlerRequestDuration.WithLabelValues(HandlerName).Observe(time.Since(start).Seconds())
	}()

	userID := c.Query("user_id")
	result, err := h.Execute(c.Request.Context(), userID)
	if err != nil {
		stdErr := apperrors.Normalize(err)
		status = apperrors.HTTPStatusFor(stdErr.Code)
		h.logger.Error("dashboard metrics failed", map[string]interface{}{
			"requestId": c.GetString("request_id"),
			"userId":    userID,
			"code":      stdErr.Code,
			"error":     err.Error(),
		})
		c.JSON(status, stdErr.ToResponse())
		return
	}

	c.JSON(status, result)
}

func (h *Handler) Execute(ctx context.Context, userID string) (*models.DashboardMetrics, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, apperrors.NewInvalidParameterError("user_id must be a uuid")
	}

	if h.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.config.Timeout)
		defer cancel()
	}

	key := "dashboard:metrics:" + userID
	if h.cache != nil {
		var cached models.DashboardMetrics
		err := database.GetJSON(ctx, h.cache, key, &cached)
		switch {
		case err == nil:
			metrics.CacheLookupsTotal.WithLabelValues(HandlerName, "hit").Inc()
			return &cached, nil
		case errors.Is(err, database.ErrCacheMiss):
			metrics.CacheLookupsTotal.WithLabelValues(HandlerName, "miss").Inc()
		default:
			metrics.CacheLookupsTotal.WithLabelValues(HandlerName, "error").Inc()
			cacheErr := apperrors.NewCacheUnavailableError(err)
			h.logger.Warn("metrics cache read failed", map[string]interface{}{
				"key":       key,
				"code":      string(cacheErr.Code),
				"retryable": cacheErr.Retryable,
				"error":     cacheErr.Details,
			})
		}
	}

	c, err := h.loadCounts(ctx, userID)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, apperrors.NewQueryTimeoutError(queryType)
		}
		return nil, apperrors.NewQueryExecutionFailedError(queryType, err)
	}
	result := c.toMetrics(h.config.MonthlyGCIGoal)

	if h.cache != nil && h.config.CacheTTL > 0 {
		if err := database.SetJSON(ctx, h.cache, key, result, h.config.CacheTTL); err != nil {
			h.logger.Warn("metrics cache write failed", map[string]interface{}{"key": key, "error": err.Error()})
		}
	}

	return result, nil
}
