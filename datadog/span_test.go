package datadog

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConvertSpan(t *testing.T) {
	start := time.Unix(1700000000, 42).UTC()
	span := buildSpan(math.MaxUint64, 2, 1, start, "web.request")
	span.Metrics["nan"] = math.NaN()

	converted := convertSpan(span)

	assert.Equal(t, "my-service", converted["service"])
	assert.Equal(t, "web.request", converted["name"])
	assert.Equal(t, "GET /users/:id", converted["resource"])
	assert.Equal(t, "web", converted["type"])
	// span IDs stay unsigned, unlike the legacy trace-level ID
	assert.Equal(t, uint64(math.MaxUint64), converted["trace_id"])
	assert.Equal(t, uint64(2), converted["span_id"])
	assert.Equal(t, uint64(1), converted["parent_id"])
	assert.Equal(t, start, converted["start"])
	assert.Equal(t, int64(5*time.Millisecond), converted["duration"])
	assert.Equal(t, int64(1), converted["error"])
	assert.Equal(t, map[string]interface{}{
		"http.method": "GET",
		"span.kind":   "server",
	}, converted["meta"])
	assert.Equal(t, map[string]interface{}{
		"appsec": []byte{0x81, 0xa1, 0x61, 0x01},
	}, converted["meta_struct"])

	metrics := converted["metrics"].(map[string]interface{})
	assert.Len(t, metrics, 3)
	assert.Equal(t, float64(1), metrics["_sampling_priority_v1"])
	assert.Equal(t, float64(1), metrics["_dd.measured"])
	v, ok := metrics["nan"]
	assert.True(t, ok, "NaN metric must be kept as an explicit null")
	assert.Nil(t, v)
}

func TestConvertSpan_Empty(t *testing.T) {
	for _, span := range []*Span{{}, nil} {
		converted := convertSpan(span)
		assert.Len(t, converted, 13)
		assert.Equal(t, map[string]interface{}{}, converted["meta"])
		assert.Equal(t, map[string]interface{}{}, converted["metrics"])
		assert.Equal(t, map[string]interface{}{}, converted["meta_struct"])
		assert.Equal(t, time.Unix(0, 0).UTC(), converted["start"])
		assert.Equal(t, "", converted["service"])
	}
}

func TestConvertSpan_InfiniteMetricsAreKept(t *testing.T) {
	converted := convertSpan(&Span{Metrics: map[string]float64{
		"pos": math.Inf(1),
		"neg": math.Inf(-1),
	}})

	metrics := converted["metrics"].(map[string]interface{})
	assert.Equal(t, math.Inf(1), metrics["pos"])
	assert.Equal(t, math.Inf(-1), metrics["neg"])
}

func TestConvertSpan_NegativeError(t *testing.T) {
	converted := convertSpan(&Span{Error: -1})
	assert.Equal(t, int64(-1), converted["error"])
}
