package middleware

import (
	"time"

	"github.com/agency/backend/internal/infrastructure/logger"
	"github.com/agency/backend/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

var responseSizeBuckets = []float64{100, 500, 1000, 5000, 10000, 50000, 100000, 500000}

type httpMetrics struct {
	requests *telemetry.Counter
	latency  *telemetry.Histogram
	size     *telemetry.Histogram
	inFlight metric.Int64UpDownCounter
}

func newHTTPMetrics(meter metric.Meter) (m httpMetrics, err error) {
	if m.requests, err = telemetry.NewCounter(meter, "http_server_request_total", "HTTP requests by route and status", "{request}"); err != nil {
		return m, err
	}
	if m.latency, err = telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "http_server_request_duration_seconds",
		Description: "HTTP request latency in seconds",
		Unit:        "s",
		Boundaries:  telemetry.HTTPDurationBuckets,
	}); err != nil {
		return m, err
	}
	if m.size, err = telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "http_server_response_size_bytes",
		Description: "HTTP response body size in bytes",
		Unit:        "By",
		Boundaries:  responseSizeBuckets,
	}); err != nil {
		return m, err
	}
	m.inFlight, err = meter.Int64UpDownCounter("http_server_active_requests",
		metric.WithDescription("HTTP requests being served"), metric.WithUnit("{request}"))
	return m, err
}

// HTTPMetrics records request count, latency and response size per route
// pattern. It passes requests through untouched when meter is nil or the
// instruments cannot be created.
func HTTPMetrics(meter metric.Meter, log *zap.Logger) gin.HandlerFunc {
	passThrough := func(c *gin.Context) { c.Next() }
	if meter == nil {
		return passThrough
	}
	m, err := newHTTPMetrics(meter)
	if err != nil {
		if log != nil {
			log.Warn("HTTP metrics disabled", zap.Error(err))
		}
		return passThrough
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		start := time.Now()
		m.inFlight.Add(ctx, 1)
		defer m.inFlight.Add(ctx, -1)

		c.Next()

		// the route pattern keeps cardinality bounded, raw paths would not
		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		attrs := []attribute.KeyValue{
			telemetry.AttrHTTPMethod.String(c.Request.Method),
			telemetry.AttrHTTPRoute.String(route),
		}
		m.latency.RecordDuration(ctx, time.Since(start), attrs...)
		if n := c.Writer.Size(); n > 0 {
			m.size.Record(ctx, float64(n), attrs...)
		}

		attrs = append(attrs, telemetry.AttrHTTPStatusCode.Int(c.Writer.Status()))
		if tenantID := c.GetString(logger.GinTenantIDKey); tenantID != "" {
			attrs = append(attrs, telemetry.AttrTenantID.String(tenantID))
		}
		m.requests.Inc(ctx, attrs...)
	}
}
