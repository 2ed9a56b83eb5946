package datadog

import (
	"context"
	"errors"
	"io"
	"math"
	"net/http"

	"github.com/honeycombio/kennel"
)

const (
	// The payload_version values are one ahead of what the wire generations are
	// usually called; downstream consumers key on these exact strings.
	payloadVersionLegacy = "v1"
	payloadVersionTracer = "v2"
)

// TranslateTraceRequestResult represents a Datadog trace request translated into canonical events
// RequestSize is the decompressed byte size of the payload, when it was translated from bytes
// Events are in payload order
type TranslateTraceRequestResult struct {
	RequestSize    int
	PayloadVersion string
	Events         []Event
}

// TranslateTraceRequestFromReader decompresses and decodes a trace request body, then
// translates it. RequestInfo is the parsed information from the HTTP headers.
func TranslateTraceRequestFromReader(ctx context.Context, body io.Reader, ri RequestInfo) (*TranslateTraceRequestResult, error) {
	data, err := parseRequestBody(body, ri.ContentEncoding)
	if err != nil {
		var ddErr DatadogError
		var maxBytesErr *http.MaxBytesError
		switch {
		case errors.As(err, &ddErr):
			return nil, ddErr
		case errors.As(err, &maxBytesErr):
			return nil, ErrBodyTooLarge
		default:
			return nil, ErrFailedReadBody
		}
	}
	return TranslateTraceRequestFromBytes(ctx, data, ri)
}

// TranslateTraceRequestFromBytes decodes an uncompressed TracePayload and translates it.
func TranslateTraceRequestFromBytes(ctx context.Context, data []byte, ri RequestInfo) (*TranslateTraceRequestResult, error) {
	payload, err := UnmarshalTracePayload(data)
	if err != nil {
		return nil, err
	}
	result := TranslateTraceRequest(ctx, payload, ri)
	result.RequestSize = len(data)
	kennel.AddTelemetryAttribute(ctx, "datadog.request_size", len(data))
	return result, nil
}

// TranslateTraceRequest converts a decoded payload into canonical events. There is no version
// field on the wire: a payload with tracer payloads uses the newer schema, anything else
// the older one.
//
// A NaN targetTPS or errorTPS on a newer-schema payload panics. Those rates are set by the
// agent, never by user code, so a NaN there is a broken agent rather than bad input.
func TranslateTraceRequest(ctx context.Context, payload *TracePayload, ri RequestInfo) *TranslateTraceRequestResult {
	var result *TranslateTraceRequestResult
	if len(payload.TracerPayloads) > 0 {
		result = &TranslateTraceRequestResult{
			PayloadVersion: payloadVersionTracer,
			Events:         translateTracePayloadV1(payload, ri),
		}
	} else {
		result = &TranslateTraceRequestResult{
			PayloadVersion: payloadVersionLegacy,
			Events:         translateTracePayloadV0(payload, ri),
		}
	}
	kennel.AddTelemetryAttributes(ctx, map[string]any{
		"datadog.payload_version": result.PayloadVersion,
		"datadog.events_received": len(result.Events),
	})
	return result
}

// translateTracePayloadV1 emits one event per trace chunk, walking tracer payloads and
// their chunks in order.
func translateTracePayloadV1(payload *TracePayload, ri RequestInfo) []Event {
	var events []Event
	for _, tp := range payload.TracerPayloads {
		events = append(events, convertTracerPayload(tp)...)
	}

	for i := range events {
		attrs := events[i].Attributes
		events[i].APIKey = ri.APIKey
		attrs[ri.Schema.sourceTypeKey()] = sourceTypeValue
		attrs["payload_version"] = payloadVersionTracer
		attrs[ri.Schema.hostKey()] = payload.HostName
		attrs["env"] = payload.Env
		attrs["agent_version"] = payload.AgentVersion
		attrs["target_tps"] = mustNotBeNaN(payload.TargetTPS, "target_tps")
		attrs["error_tps"] = mustNotBeNaN(payload.ErrorTPS, "error_tps")
		if tags, ok := attrs["tags"].(map[string]interface{}); ok {
			mergeTagsInto(tags, payload.Tags)
		} else {
			attrs["tags"] = MergeTags(payload.Tags)
		}
	}
	return events
}

func convertTracerPayload(tp *TracerPayload) []Event {
	if tp == nil {
		return nil
	}
	events := make([]Event, 0, len(tp.Chunks))
	for _, chunk := range tp.Chunks {
		if chunk == nil {
			chunk = &TraceChunk{}
		}
		events = append(events, Event{Attributes: map[string]interface{}{
			"priority":         int64(chunk.Priority),
			"origin":           chunk.Origin,
			"dropped":          chunk.DroppedTrace,
			"tags":             MergeTags(chunk.Tags, tp.Tags),
			"spans":            convertSpans(chunk.Spans),
			"container_id":     tp.ContainerID,
			"language_name":    tp.LanguageName,
			"language_version": tp.LanguageVersion,
			"tracer_version":   tp.TracerVersion,
			"runtime_id":       tp.RuntimeID,
			"app_version":      tp.AppVersion,
		}})
	}
	return events
}

// translateTracePayloadV0 emits one event per trace followed by one event per
// transaction. Transactions are standalone analyzed spans and are always
// marked dropped.
func translateTracePayloadV0(payload *TracePayload, ri RequestInfo) []Event {
	events := make([]Event, 0, len(payload.Traces)+len(payload.Transactions))
	for _, trace := range payload.Traces {
		if trace == nil {
			trace = &APITrace{}
		}
		events = append(events, Event{Attributes: map[string]interface{}{
			// TODO: the wire trace ID is a uint64; storing it as int64 wraps IDs
			// above MaxInt64. Switch to uint64 once downstream sinks accept it.
			"trace_id":   int64(trace.TraceID),
			"start_time": timestampFromNanos(trace.StartTime),
			"end_time":   timestampFromNanos(trace.EndTime),
			"spans":      convertSpans(trace.Spans),
		}})
	}
	for _, transaction := range payload.Transactions {
		events = append(events, Event{Attributes: map[string]interface{}{
			"spans":   []interface{}{convertSpan(transaction)},
			"dropped": true,
		}})
	}

	for i := range events {
		attrs := events[i].Attributes
		events[i].APIKey = ri.APIKey
		if ri.ReportedLanguages != "" || ri.ReportedLanguagesPresent {
			attrs["language_name"] = ri.ReportedLanguages
		}
		attrs[ri.Schema.sourceTypeKey()] = sourceTypeValue
		attrs["payload_version"] = payloadVersionLegacy
		attrs[ri.Schema.hostKey()] = payload.HostName
		attrs["env"] = payload.Env
	}
	return events
}

func mustNotBeNaN(v float64, name string) float64 {
	if math.IsNaN(v) {
		panic(name + " cannot be NaN")
	}
	return v
}
