package datadog

import (
	"math"
	"sort"

	"google.golang.org/protobuf/encoding/protowire"
)

// MarshalTracePayload serializes a TracePayload into the protobuf wire format
// read by UnmarshalTracePayload. Zero-valued scalars are omitted and map
// entries are written in key order, so the output is deterministic.
func MarshalTracePayload(p *TracePayload) []byte {
	return appendTracePayload(nil, p)
}

func appendTracePayload(b []byte, p *TracePayload) []byte {
	b = appendString(b, 1, p.HostName)
	b = appendString(b, 2, p.Env)
	for _, t := range p.Traces {
		b = appendMessage(b, 3, appendAPITrace(nil, t))
	}
	for _, s := range p.Transactions {
		b = appendMessage(b, 4, appendSpan(nil, s))
	}
	for _, tp := range p.TracerPayloads {
		b = appendMessage(b, 5, appendTracerPayload(nil, tp))
	}
	b = appendMap(b, 6, p.Tags, appendString)
	b = appendString(b, 7, p.AgentVersion)
	b = appendDouble(b, 8, p.TargetTPS)
	b = appendDouble(b, 9, p.ErrorTPS)
	return b
}

func appendTracerPayload(b []byte, tp *TracerPayload) []byte {
	if tp == nil {
		return b
	}
	b = appendString(b, 1, tp.ContainerID)
	b = appendString(b, 2, tp.LanguageName)
	b = appendString(b, 3, tp.LanguageVersion)
	b = appendString(b, 4, tp.TracerVersion)
	b = appendString(b, 5, tp.RuntimeID)
	for _, c := range tp.Chunks {
		b = appendMessage(b, 6, appendTraceChunk(nil, c))
	}
	b = appendMap(b, 7, tp.Tags, appendString)
	b = appendString(b, 8, tp.Env)
	b = appendString(b, 9, tp.Hostname)
	b = appendString(b, 10, tp.AppVersion)
	return b
}

func appendTraceChunk(b []byte, c *TraceChunk) []byte {
	if c == nil {
		return b
	}
	// int32 is sign extended to 64 bits on the wire
	b = appendVarint(b, 1, uint64(int64(c.Priority)))
	b = appendString(b, 2, c.Origin)
	for _, s := range c.Spans {
		b = appendMessage(b, 3, appendSpan(nil, s))
	}
	b = appendMap(b, 4, c.Tags, appendString)
	b = appendVarint(b, 5, protowire.EncodeBool(c.DroppedTrace))
	return b
}

func appendAPITrace(b []byte, t *APITrace) []byte {
	if t == nil {
		return b
	}
	b = appendVarint(b, 1, t.TraceID)
	for _, s := range t.Spans {
		b = appendMessage(b, 2, appendSpan(nil, s))
	}
	b = appendVarint(b, 6, uint64(t.StartTime))
	b = appendVarint(b, 7, uint64(t.EndTime))
	return b
}

func appendSpan(b []byte, s *Span) []byte {
	if s == nil {
		return b
	}
	b = appendString(b, 1, s.Service)
	b = appendString(b, 2, s.Name)
	b = appendString(b, 3, s.Resource)
	b = appendVarint(b, 4, s.TraceID)
	b = appendVarint(b, 5, s.SpanID)
	b = appendVarint(b, 6, s.ParentID)
	b = appendVarint(b, 7, uint64(s.Start))
	b = appendVarint(b, 8, uint64(s.Duration))
	b = appendVarint(b, 9, uint64(int64(s.Error)))
	b = appendMap(b, 10, s.Meta, appendString)
	b = appendMap(b, 11, s.Metrics, appendDouble)
	b = appendString(b, 12, s.Type)
	b = appendMap(b, 13, s.MetaStruct, appendBytes)
	return b
}

func appendMap[V any](b []byte, num protowire.Number, m map[string]V, appendValue func([]byte, protowire.Number, V) []byte) []byte {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		entry := appendString(nil, 1, k)
		entry = appendValue(entry, 2, m[k])
		b = appendMessage(b, num, entry)
	}
	return b
}

func appendMessage(b []byte, num protowire.Number, msg []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, msg)
}

func appendString(b []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendDouble(b []byte, num protowire.Number, v float64) []byte {
	bits := math.Float64bits(v)
	if bits == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, bits)
}
