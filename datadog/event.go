package datadog

import (
	"math"
	"reflect"
	"sort"
	"unsafe"

	jsoniter "github.com/json-iterator/go"
	"github.com/modern-go/reflect2"
	"github.com/tinylib/msgp/msgp"
)

func init() {
	json.RegisterExtension(&nonFiniteFloatExtension{})
}

// nonFiniteFloatExtension writes NaN and ±Inf float64 values as null. Span
// metrics and agent rates may legitimately be infinite, and JSON has no
// spelling for them.
type nonFiniteFloatExtension struct {
	jsoniter.DummyExtension
}

func (e *nonFiniteFloatExtension) CreateEncoder(typ reflect2.Type) jsoniter.ValEncoder {
	if typ.Kind() == reflect.Float64 {
		return nonFiniteFloatEncoder{}
	}
	return nil
}

type nonFiniteFloatEncoder struct{}

func (nonFiniteFloatEncoder) IsEmpty(ptr unsafe.Pointer) bool {
	return *(*float64)(ptr) == 0
}

func (nonFiniteFloatEncoder) Encode(ptr unsafe.Pointer, stream *jsoniter.Stream) {
	v := *(*float64)(ptr)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		stream.WriteNil()
		return
	}
	stream.WriteFloat64(v)
}

// Event represents a single canonical trace event. Attributes hold one trace
// (or one standalone transaction) with its spans and enrichment fields.
// APIKey is request metadata and is never written into Attributes.
type Event struct {
	Attributes map[string]interface{}
	APIKey     string
}

// MarshalJSON encodes the event attributes with keys in sorted order at every
// nesting level. Timestamps are RFC 3339, meta_struct blobs are base64, and
// non-finite floats are null.
func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Attributes)
}

// MarshalMsgp encodes the event attributes as a messagepack map with keys in
// sorted order at every nesting level.
func (e Event) MarshalMsgp() ([]byte, error) {
	return appendMsgpValue(nil, e.Attributes)
}

func appendMsgpValue(b []byte, value interface{}) ([]byte, error) {
	var err error
	switch v := value.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b = msgp.AppendMapHeader(b, uint32(len(v)))
		for _, k := range keys {
			b = msgp.AppendString(b, k)
			if b, err = appendMsgpValue(b, v[k]); err != nil {
				return nil, err
			}
		}
		return b, nil
	case []interface{}:
		b = msgp.AppendArrayHeader(b, uint32(len(v)))
		for _, item := range v {
			if b, err = appendMsgpValue(b, item); err != nil {
				return nil, err
			}
		}
		return b, nil
	default:
		return msgp.AppendIntf(b, v)
	}
}
