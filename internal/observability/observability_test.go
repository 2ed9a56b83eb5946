package observability

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/honeycombio/kennel"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	RegisterMetrics()
	RegisterMetrics()

	RecordHTTPRequest("POST", "/api/v0.2/traces", 200, 12*time.Millisecond)
	RecordEventsSent("stdout", 3, true)
}

func TestInitLoggerWritesAppField(t *testing.T) {
	var buf bytes.Buffer
	logger := initLogger(&buf, "kennel-test", zerolog.InfoLevel)

	logger.Info().Msg("hello")
	logger.Debug().Msg("hidden")

	assert.Contains(t, buf.String(), "hello")
	assert.Contains(t, buf.String(), "kennel-test")
	assert.NotContains(t, buf.String(), "hidden")
}

func TestTelemetryHookRecordsMetricsAndLogs(t *testing.T) {
	t.Cleanup(func() { kennel.AddTelemetryAttributeFunc = nil })

	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	InstallTelemetryHook(logger)
	require.NotNil(t, kennel.AddTelemetryAttributeFunc)

	beforeEvents := testutil.ToFloat64(eventsReceived)
	beforeBytes := testutil.ToFloat64(requestBytes)
	beforeV2 := testutil.ToFloat64(payloadsReceived.WithLabelValues("v2"))

	kennel.AddTelemetryAttributes(context.Background(), map[string]any{
		"datadog.payload_version": "v2",
		"datadog.events_received": 4,
	})
	kennel.AddTelemetryAttribute(context.Background(), "datadog.request_size", 128)

	assert.Equal(t, beforeEvents+4, testutil.ToFloat64(eventsReceived))
	assert.Equal(t, beforeBytes+128, testutil.ToFloat64(requestBytes))
	assert.Equal(t, beforeV2+1, testutil.ToFloat64(payloadsReceived.WithLabelValues("v2")))
	assert.Contains(t, buf.String(), `"key":"datadog.request_size"`)
}

func TestTelemetryHookPrefersContextLogger(t *testing.T) {
	t.Cleanup(func() { kennel.AddTelemetryAttributeFunc = nil })

	var fallback, scoped bytes.Buffer
	InstallTelemetryHook(zerolog.New(&fallback).Level(zerolog.DebugLevel))

	ctx := zerolog.New(&scoped).Level(zerolog.DebugLevel).WithContext(context.Background())
	kennel.AddTelemetryAttribute(ctx, "datadog.payload_version", "v1")

	assert.Contains(t, scoped.String(), "datadog.payload_version")
	assert.Empty(t, fallback.String())
}

func TestMiddlewares(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	router := gin.New()
	router.Use(RequestLogger(logger), RequestMetricsMiddleware())
	router.GET("/ok", func(c *gin.Context) {
		assert.NotEqual(t, zerolog.Disabled, zerolog.Ctx(c.Request.Context()).GetLevel())
		c.Status(http.StatusOK)
	})
	router.GET("/fail", func(c *gin.Context) { c.Status(http.StatusServiceUnavailable) })

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/ok", "200"))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	assert.Equal(t, before+1, testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/ok", "200")))
	assert.Contains(t, buf.String(), `"path":"/ok"`)
	assert.Contains(t, buf.String(), `"level":"error"`)
}
