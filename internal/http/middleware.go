package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"go.ngs.io/skychart-api/internal/logging"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// RequestLogger attaches a request-scoped logger and ID to every request and
// logs one line per completed request. An incoming X-Request-ID is reused.
func RequestLogger(base logging.Logger) gin.HandlerFunc {
	if base == nil {
		base = logging.Noop()
	}
	return func(c *gin.Context) {
		start := time.Now()

		ctx := c.Request.Context()
		if id := c.GetHeader(RequestIDHeader); id != "" && len(id) <= 128 {
			ctx = logging.ContextWithRequestID(ctx, id)
		}
		ctx, log := logging.WithRequestLogger(ctx, base)
		c.Request = c.Request.WithContext(ctx)
		c.Header(RequestIDHeader, logging.RequestIDFromContext(ctx))

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		fields := []logging.Field{
			logging.String("method", c.Request.Method),
			logging.String("route", route),
			logging.Int("status", c.Writer.Status()),
			logging.Duration("latency", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, logging.String("errors", c.Errors.String()))
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			log.Error(ctx, "request failed", fields...)
		case status >= 400:
			log.Warn(ctx, "request rejected", fields...)
		default:
			log.Info(ctx, "request completed", fields...)
		}
	}
}
