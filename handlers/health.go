package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

var startTime = time.Now()

// ReadyFunc reports whether a named dependency is usable.
type ReadyFunc func(ctx context.Context) error

// RegisterHealth registers /health (liveness) and /ready (readiness).
// /ready returns 503 when any dependency check fails.
func RegisterHealth(r gin.IRouter, deps map[string]ReadyFunc) {
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		ready := true
		status := map[string]bool{}
		for name, check := range deps {
			ok := check(ctx) == nil
			status[name] = ok
			if !ok {
				ready = false
			}
		}
		uptime := time.Since(startTime).String()
		if !ready {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "deps": status, "uptime": uptime})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "deps": status, "uptime": uptime})
	})
}
