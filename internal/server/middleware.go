package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "realty-crm/internal/common/errors"
	"realty-crm/internal/common/logger"
	"realty-crm/internal/common/observability"
)

const (
	RequestIDHeader    = "X-Request-ID"
	requestIDKey       = "request_id"
	maxRequestIDLength = 128
)

// RequestID propagates X-Request-ID, generating a UUID when the caller did
// not send a usable one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(RequestIDHeader))
		if id == "" || len(id) > maxRequestIDLength {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Writer.Header().Set(RequestIDHeader, id)
		c.Next()
	}
}

func AccessLog(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := map[string]interface{}{
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"route":     c.FullPath(),
			"status":    status,
			"latencyMs": time.Since(start).Milliseconds(),
			"requestId": c.GetString(requestIDKey),
			"clientIp":  c.ClientIP(),
		}
		switch {
		case status >= 500:
			log.Error("request completed", fields)
		case status >= 400:
			log.Warn("request completed", fields)
		default:
			log.Info("request completed", fields)
		}
	}
}

// Recovery turns a panic into a JSON 500. fallback, when it returns non-nil
// for the request, replaces the default error body.
func Recovery(log logger.Logger, fallback func(c *gin.Context) interface{}) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			if err, ok := r.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(r)
			}

			log.Error("panic recovered", map[string]interface{}{
				"panic":     fmt.Sprintf("%v", r),
				"path":      c.Request.URL.Path,
				"requestId": c.GetString(requestIDKey),
			})

			var body interface{}
			if fallback != nil {
				body = fallback(c)
			}
			if body == nil {
				body = apperrors.Normalize(fmt.Errorf("panic: %v", r)).ToResponse()
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, body)
		}()
		c.Next()
	}
}

// BodyLimit rejects requests whose declared length exceeds maxBytes and caps
// the body reader for the rest.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes <= 0 {
			c.Next()
			return
		}
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": "Request body exceeds maximum allowed size",
				"code":  "REQUEST_TOO_LARGE",
			})
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// CORS allows the listed origins. "*" allows any origin without credentials.
// Preflight requests are answered with 204 whether or not the origin matched.
func CORS(allowOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowOrigins))
	wildcard := false
	for _, o := range allowOrigins {
		if o == "*" {
			wildcard = true
		}
		allowed[o] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		h := c.Writer.Header()

		if origin != "" {
			if wildcard {
				h.Set("Access-Control-Allow-Origin", "*")
			} else if _, ok := allowed[origin]; ok {
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Credentials", "true")
				h.Add("Vary", "Origin")
			}
			if h.Get("Access-Control-Allow-Origin") != "" {
				h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
				h.Set("Access-Control-Expose-Headers", RequestIDHeader)
				h.Set("Access-Control-Max-Age", strconv.Itoa(int((12 * time.Hour).Seconds())))
			}
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// Metrics records every request against its route template. Unmatched routes
// are grouped under "unmatched".
func Metrics(obs *observability.Observability) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		obs.RecordRequest(c.Request.Context(), route, c.Writer.Status(), time.Since(start))
	}
}
