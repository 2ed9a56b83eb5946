package datadog

import (
	"bytes"
	"errors"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

// Encode a slice of bytes destined to be the body of an HTTP request
// to a target encoding.
func encodeBody(body []byte, encoding string) ([]byte, error) {
	encoded := new(bytes.Buffer)
	switch encoding {
	case "", "identity":
		encoded.Write(body)
	case "gzip", "x-gzip":
		w := gzip.NewWriter(encoded)
		w.Write(body)
		w.Close()
	case "deflate", "x-deflate":
		w := zlib.NewWriter(encoded)
		w.Write(body)
		w.Close()
	case "zstd":
		w, _ := zstd.NewWriter(encoded)
		w.Write(body)
		w.Close()
	case "snappy":
		encoded.Write(s2.EncodeSnappy(nil, body))
	default:
		return nil, errors.New("Unknown content-encoding '" + encoding + "' given for test case. This probably won't go well.")
	}
	return encoded.Bytes(), nil
}

// Return a friendlier string for the test cases where Content Encoding
// is ambiguous, e.g. no encoding given is blank, so we give it a
// meaningful name here.
func testCaseNameForEncoding(encoding string) string {
	if encoding == "" {
		return "no encoding given assume uncompressed"
	}
	return encoding
}

// buildSpan returns a span with every field populated.
func buildSpan(traceID, spanID, parentID uint64, start time.Time, name string) *Span {
	return &Span{
		Service:  "my-service",
		Name:     name,
		Resource: "GET /users/:id",
		TraceID:  traceID,
		SpanID:   spanID,
		ParentID: parentID,
		Start:    start.UnixNano(),
		Duration: int64(5 * time.Millisecond),
		Error:    1,
		Meta: map[string]string{
			"http.method": "GET",
			"span.kind":   "server",
		},
		Metrics: map[string]float64{
			"_sampling_priority_v1": 1,
			"_dd.measured":          1,
		},
		Type: "web",
		MetaStruct: map[string][]byte{
			"appsec": {0x81, 0xa1, 0x61, 0x01},
		},
	}
}

// buildTracerPayloadRequest builds a newer-schema payload: one tracer payload
// holding the given chunks.
func buildTracerPayloadRequest(chunks ...*TraceChunk) *TracePayload {
	return &TracePayload{
		HostName:     "agent-host",
		Env:          "prod",
		AgentVersion: "7.50.0",
		TargetTPS:    10,
		ErrorTPS:     1.5,
		Tags:         map[string]string{"_dd.tags.container": "image:web"},
		TracerPayloads: []*TracerPayload{{
			ContainerID:     "container-1",
			LanguageName:    "go",
			LanguageVersion: "go1.22.1",
			TracerVersion:   "v1.60.0",
			RuntimeID:       "7c6ae3cd-19a1-45b5-9ab7-8f87d4a39f1c",
			AppVersion:      "2.3.4",
			Env:             "staging",
			Hostname:        "tracer-host",
			Tags:            map[string]string{"_dd.apm_mode": "edge"},
			Chunks:          chunks,
		}},
	}
}
