package kennel

import "context"

// AddTelemetryAttributeFunc is a function that can be used to set attributes in telemetry controlled
// by users of this package.
// For example, OTel users would use span.SetAttributes and zerolog users would add a field to a log event.
var AddTelemetryAttributeFunc func(ctx context.Context, key string, value any) = nil

// AddTelemetryAttribute is used internally to set an attribute using the configured AddTelemetryAttributeFunc.
// This function is not intended to be used directly by consumers of this package.
func AddTelemetryAttribute(ctx context.Context, key string, value any) {
	if AddTelemetryAttributeFunc != nil {
		AddTelemetryAttributeFunc(ctx, key, value)
	}
}

// AddTelemetryAttributes sets each attribute in the map through AddTelemetryAttributeFunc.
func AddTelemetryAttributes(ctx context.Context, attributes map[string]any) {
	if AddTelemetryAttributeFunc == nil {
		return
	}
	for k, v := range attributes {
		AddTelemetryAttributeFunc(ctx, k, v)
	}
}
