package datadog

import (
	"math"
	"time"
)

// convertSpan maps a wire span into its canonical attribute map. It never
// fails: a NaN metric becomes an explicit nil rather than being dropped or
// rejected, and absent maps become empty ones.
func convertSpan(span *Span) map[string]interface{} {
	if span == nil {
		span = &Span{}
	}

	metrics := make(map[string]interface{}, len(span.Metrics))
	for k, v := range span.Metrics {
		if math.IsNaN(v) {
			metrics[k] = nil
		} else {
			metrics[k] = v
		}
	}

	metaStruct := make(map[string]interface{}, len(span.MetaStruct))
	for k, v := range span.MetaStruct {
		metaStruct[k] = v
	}

	return map[string]interface{}{
		"service":     span.Service,
		"name":        span.Name,
		"resource":    span.Resource,
		"trace_id":    span.TraceID,
		"span_id":     span.SpanID,
		"parent_id":   span.ParentID,
		"start":       timestampFromNanos(span.Start),
		"duration":    span.Duration,
		"error":       int64(span.Error),
		"meta":        MergeTags(span.Meta),
		"metrics":     metrics,
		"type":        span.Type,
		"meta_struct": metaStruct,
	}
}

func convertSpans(spans []*Span) []interface{} {
	converted := make([]interface{}, 0, len(spans))
	for _, s := range spans {
		converted = append(converted, convertSpan(s))
	}
	return converted
}

func timestampFromNanos(nanos int64) time.Time {
	return time.Unix(0, nanos).UTC()
}
