package middleware

import (
	"context"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/google/uuid"
	"github.com/yi-nology/asset_tracker/pkg/common"
	"github.com/yi-nology/asset_tracker/pkg/metrics"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

// Logging returns a middleware that tags each request with an id, logs its
// outcome and records request metrics. Routes are labelled by their pattern,
// so /assets/:id is one series.
func Logging(log *zap.Logger, m *metrics.Metrics) app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		start := time.Now()

		requestID := string(c.GetHeader(requestIDHeader))
		if requestID == "" || len(requestID) > 64 {
			requestID = uuid.NewString()
		}
		c.Response.Header.Set(requestIDHeader, requestID)
		ctx = common.ContextWithRequestID(ctx, requestID)

		c.Next(ctx)

		latency := time.Since(start)
		method := string(c.Request.Method())
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Response.StatusCode()
		m.ObserveRequest(method, route, status, latency)

		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("method", method),
			zap.String("path", string(c.Request.URI().Path())),
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		}
		if actor := common.GetActor(ctx); actor != "" {
			fields = append(fields, zap.String("actor", actor))
		}
		switch {
		case status >= 500:
			log.Error("request", fields...)
		case status >= 400:
			log.Warn("request", fields...)
		default:
			log.Info("request", fields...)
		}
	}
}
