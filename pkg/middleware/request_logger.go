package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/trustfundbaby/trustfund/pkg/logger"
)

// RequestLogger replaces gin.Logger so access lines share the service log format.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		logger.Request(c.Request.Method, path, c.Writer.Status(), float64(time.Since(start).Microseconds())/1000, c.ClientIP())
	}
}
