package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/agency/backend/internal/domain/identity"
	"github.com/agency/backend/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func installSpanRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return recorder
}

func spanAttr(span sdktrace.ReadOnlySpan, key string) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestTracing(t *testing.T) {
	tenantID := uuid.New()
	userID := uuid.New()

	newRouter := func(enabled bool, status int) *gin.Engine {
		router := gin.New()
		router.Use(RequestID(), Tracing(TracingConfig{ServiceName: "agency-test", Enabled: enabled}))
		router.Use(func(c *gin.Context) {
			c.Set(PrincipalKey, identity.Principal{UserID: userID, Role: identity.RoleCompany, TenantID: &tenantID})
			c.Set(logger.GinTenantIDKey, tenantID.String())
			c.Set(logger.GinUserIDKey, userID.String())
			c.Next()
		}, TraceAttributes())
		router.GET("/api/v1/clients/b2c/:id", func(c *gin.Context) { c.Status(status) })
		return router
	}

	t.Run("disabled records nothing", func(t *testing.T) {
		recorder := installSpanRecorder(t)

		w := httptest.NewRecorder()
		newRouter(false, http.StatusOK).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/clients/b2c/"+uuid.NewString(), nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, recorder.Ended())
	})

	t.Run("span is named by route and carries principal", func(t *testing.T) {
		recorder := installSpanRecorder(t)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/clients/b2c/"+uuid.NewString(), nil)
		req.Header.Set(RequestIDHeader, "req-trace")
		w := httptest.NewRecorder()
		newRouter(true, http.StatusOK).ServeHTTP(w, req)

		spans := recorder.Ended()
		require.Len(t, spans, 1)
		assert.Contains(t, spans[0].Name(), "/api/v1/clients/b2c/:id")

		v, ok := spanAttr(spans[0], "tenant_id")
		require.True(t, ok)
		assert.Equal(t, tenantID.String(), v.AsString())
		v, ok = spanAttr(spans[0], "request_id")
		require.True(t, ok)
		assert.Equal(t, "req-trace", v.AsString())
		_, ok = spanAttr(spans[0], "user_id")
		assert.True(t, ok)
	})

	t.Run("server errors mark the span", func(t *testing.T) {
		recorder := installSpanRecorder(t)

		w := httptest.NewRecorder()
		newRouter(true, http.StatusInternalServerError).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/clients/b2c/"+uuid.NewString(), nil))

		spans := recorder.Ended()
		require.Len(t, spans, 1)
		assert.Equal(t, codes.Error, spans[0].Status().Code)
	})

	t.Run("client errors keep the span unset", func(t *testing.T) {
		recorder := installSpanRecorder(t)

		w := httptest.NewRecorder()
		newRouter(true, http.StatusNotFound).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/clients/b2c/"+uuid.NewString(), nil))

		spans := recorder.Ended()
		require.Len(t, spans, 1)
		assert.NotEqual(t, codes.Error, spans[0].Status().Code)
	})
}
