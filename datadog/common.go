package datadog

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"google.golang.org/grpc/metadata"
)

const (
	apiKeyHeader            = "dd-api-key"
	apiKeyQueryParam        = "dd_api_key"
	reportedLanguagesHeader = "x-datadog-reported-languages"
	userAgentHeader         = "user-agent"
	contentEncodingHeader   = "content-encoding"

	defaultSourceTypeKey = "source_type"
	defaultHostKey       = "host"
	sourceTypeValue      = "datadog_agent"
)

var (
	// Incoming Content-Encodings we support. "" and "identity" both mean uncompressed.
	supportedContentEncodings = []string{"", "identity", "gzip", "x-gzip", "deflate", "x-deflate", "zstd", "snappy"}

	// Use json-iterator for better performance. Keys are sorted so encoded
	// events have a stable field order.
	json = jsoniter.Config{
		EscapeHTML:             false,
		SortMapKeys:            true,
		ValidateJsonRawMessage: true,
	}.Froze()
)

// List of HTTP Content Encodings supported for Datadog trace ingest.
func GetSupportedContentEncodings() []string {
	return supportedContentEncodings
}

// LogSchema names the event keys whose location is configurable downstream.
// Zero values fall back to "source_type" and "host".
type LogSchema struct {
	SourceTypeKey string
	HostKey       string
}

func (s LogSchema) sourceTypeKey() string {
	if s.SourceTypeKey == "" {
		return defaultSourceTypeKey
	}
	return s.SourceTypeKey
}

func (s LogSchema) hostKey() string {
	if s.HostKey == "" {
		return defaultHostKey
	}
	return s.HostKey
}

// RequestInfo represents information parsed from either HTTP headers or gRPC metadata,
// plus the schema keys events are written with.
type RequestInfo struct {
	APIKey            string
	ReportedLanguages string
	UserAgent         string
	ContentEncoding   string

	// ReportedLanguagesPresent records that the header was sent, even empty.
	ReportedLanguagesPresent bool

	Schema LogSchema
}

// GetRequestInfoFromHttpRequest parses relevant incoming HTTP headers. The API key
// comes from the dd-api-key header, falling back to the dd_api_key query parameter.
func GetRequestInfoFromHttpRequest(r *http.Request) RequestInfo {
	ri := RequestInfo{
		APIKey:            r.Header.Get(apiKeyHeader),
		ReportedLanguages: r.Header.Get(reportedLanguagesHeader),
		UserAgent:         r.Header.Get(userAgentHeader),
		ContentEncoding:   r.Header.Get(contentEncodingHeader),
	}
	_, ri.ReportedLanguagesPresent = r.Header[http.CanonicalHeaderKey(reportedLanguagesHeader)]
	if ri.APIKey == "" && r.URL != nil {
		ri.APIKey = r.URL.Query().Get(apiKeyQueryParam)
	}
	return ri
}

// GetRequestInfoFromGrpcMetadata parses relevant gRPC metadata from an incoming request context
func GetRequestInfoFromGrpcMetadata(ctx context.Context) RequestInfo {
	ri := RequestInfo{}
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		ri.APIKey = getValueFromMetadata(md, apiKeyHeader)
		ri.ReportedLanguages = getValueFromMetadata(md, reportedLanguagesHeader)
		ri.ReportedLanguagesPresent = len(md.Get(reportedLanguagesHeader)) > 0
		ri.UserAgent = getValueFromMetadata(md, userAgentHeader)
		ri.ContentEncoding = getValueFromMetadata(md, contentEncodingHeader)
	}
	return ri
}

func getValueFromMetadata(md metadata.MD, key string) string {
	if vals := md.Get(key); len(vals) > 0 {
		return vals[0]
	}
	return ""
}

// parseRequestBody reads the body and undoes its content-encoding. Multiple
// encodings are comma separated in the order they were applied, so they are
// removed last to first.
func parseRequestBody(body io.Reader, contentEncoding string) ([]byte, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	if contentEncoding == "" {
		return data, nil
	}

	encodings := strings.Split(contentEncoding, ",")
	for i := len(encodings) - 1; i >= 0; i-- {
		encoding := strings.ToLower(strings.TrimSpace(encodings[i]))
		data, err = decompress(data, encoding)
		if err != nil {
			return nil, err
		}
	}
	return data, nil
}

func decompress(data []byte, encoding string) ([]byte, error) {
	var reader io.Reader
	switch encoding {
	case "", "identity":
		return data, nil
	case "gzip", "x-gzip":
		gzipReader, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, decompressionError(encoding)
		}
		defer gzipReader.Close()
		reader = gzipReader
	case "deflate", "x-deflate":
		zlibReader, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, decompressionError(encoding)
		}
		defer zlibReader.Close()
		reader = zlibReader
	case "zstd":
		zstdReader, err := zstd.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, decompressionError(encoding)
		}
		defer zstdReader.Close()
		reader = zstdReader
	case "snappy":
		decoded, err := s2.Decode(nil, data)
		if err != nil {
			return nil, decompressionError(encoding)
		}
		return decoded, nil
	default:
		return nil, ErrUnsupportedEncoding
	}

	decoded, err := io.ReadAll(reader)
	if err != nil {
		return nil, decompressionError(encoding)
	}
	return decoded, nil
}
