package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

const checkTimeout = 2 * time.Second

// HealthCheck is one dependency pinged by /ready.
type HealthCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func readyHandler(checks []HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		results := runChecks(c.Request.Context(), checks)

		status := http.StatusOK
		state := "ready"
		for _, r := range results {
			if r != "ok" {
				status = http.StatusServiceUnavailable
				state = "not_ready"
				break
			}
		}

		c.JSON(status, gin.H{
			"status": state,
			"checks": results,
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

func runChecks(ctx context.Context, checks []HealthCheck) map[string]string {
	results := make(map[string]string, len(checks))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, check := range checks {
		wg.Add(1)
		go func(check HealthCheck) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(ctx, checkTimeout)
			defer cancel()

			result := "ok"
			if err := check.Ping(ctx); err != nil {
				result = err.Error()
			}
			mu.Lock()
			results[check.Name] = result
			mu.Unlock()
		}(check)
	}
	wg.Wait()
	return results
}
