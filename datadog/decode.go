package datadog

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// UnmarshalTracePayload parses a serialized TracePayload. It walks the
// protobuf wire format directly into the plain records in payload.go,
// so both wire generations decode through the same message. Unknown
// fields are skipped. Any malformed input returns a *DecodeError and no
// partial payload.
func UnmarshalTracePayload(data []byte) (*TracePayload, error) {
	payload, err := unmarshalTracePayload(data)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	return payload, nil
}

// fieldFunc consumes the value of one field whose tag has already been read
// and returns the number of bytes consumed.
type fieldFunc func(num protowire.Number, typ protowire.Type, b []byte) (int, error)

func unmarshalMessage(data []byte, name string, field fieldFunc) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return fmt.Errorf("%s: %w", name, protowire.ParseError(n))
		}
		data = data[n:]
		if typ == protowire.EndGroupType {
			return fmt.Errorf("%s: wiretype end group for non-group field %d", name, num)
		}
		n, err := field(num, typ, data)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		data = data[n:]
	}
	return nil
}

func unmarshalTracePayload(data []byte) (*TracePayload, error) {
	p := &TracePayload{}
	err := unmarshalMessage(data, "TracePayload", func(num protowire.Number, typ protowire.Type, b []byte) (n int, err error) {
		switch num {
		case 1:
			p.HostName, n, err = consumeString(typ, b)
		case 2:
			p.Env, n, err = consumeString(typ, b)
		case 3:
			var t *APITrace
			t, n, err = consumeMessage(typ, b, unmarshalAPITrace)
			p.Traces = append(p.Traces, t)
		case 4:
			var s *Span
			s, n, err = consumeMessage(typ, b, unmarshalSpan)
			p.Transactions = append(p.Transactions, s)
		case 5:
			var tp *TracerPayload
			tp, n, err = consumeMessage(typ, b, unmarshalTracerPayload)
			p.TracerPayloads = append(p.TracerPayloads, tp)
		case 6:
			n, err = consumeMapEntry(typ, b, &p.Tags, consumeString)
		case 7:
			p.AgentVersion, n, err = consumeString(typ, b)
		case 8:
			p.TargetTPS, n, err = consumeDouble(typ, b)
		case 9:
			p.ErrorTPS, n, err = consumeDouble(typ, b)
		default:
			n, err = skipField(num, typ, b)
		}
		return n, err
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func unmarshalTracerPayload(data []byte) (*TracerPayload, error) {
	tp := &TracerPayload{}
	err := unmarshalMessage(data, "TracerPayload", func(num protowire.Number, typ protowire.Type, b []byte) (n int, err error) {
		switch num {
		case 1:
			tp.ContainerID, n, err = consumeString(typ, b)
		case 2:
			tp.LanguageName, n, err = consumeString(typ, b)
		case 3:
			tp.LanguageVersion, n, err = consumeString(typ, b)
		case 4:
			tp.TracerVersion, n, err = consumeString(typ, b)
		case 5:
			tp.RuntimeID, n, err = consumeString(typ, b)
		case 6:
			var c *TraceChunk
			c, n, err = consumeMessage(typ, b, unmarshalTraceChunk)
			tp.Chunks = append(tp.Chunks, c)
		case 7:
			n, err = consumeMapEntry(typ, b, &tp.Tags, consumeString)
		case 8:
			tp.Env, n, err = consumeString(typ, b)
		case 9:
			tp.Hostname, n, err = consumeString(typ, b)
		case 10:
			tp.AppVersion, n, err = consumeString(typ, b)
		default:
			n, err = skipField(num, typ, b)
		}
		return n, err
	})
	if err != nil {
		return nil, err
	}
	return tp, nil
}

func unmarshalTraceChunk(data []byte) (*TraceChunk, error) {
	c := &TraceChunk{}
	err := unmarshalMessage(data, "TraceChunk", func(num protowire.Number, typ protowire.Type, b []byte) (n int, err error) {
		var v uint64
		switch num {
		case 1:
			v, n, err = consumeVarint(typ, b)
			c.Priority = int32(v)
		case 2:
			c.Origin, n, err = consumeString(typ, b)
		case 3:
			var s *Span
			s, n, err = consumeMessage(typ, b, unmarshalSpan)
			c.Spans = append(c.Spans, s)
		case 4:
			n, err = consumeMapEntry(typ, b, &c.Tags, consumeString)
		case 5:
			v, n, err = consumeVarint(typ, b)
			c.DroppedTrace = protowire.DecodeBool(v)
		default:
			n, err = skipField(num, typ, b)
		}
		return n, err
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func unmarshalAPITrace(data []byte) (*APITrace, error) {
	t := &APITrace{}
	err := unmarshalMessage(data, "APITrace", func(num protowire.Number, typ protowire.Type, b []byte) (n int, err error) {
		var v uint64
		switch num {
		case 1:
			t.TraceID, n, err = consumeVarint(typ, b)
		case 2:
			var s *Span
			s, n, err = consumeMessage(typ, b, unmarshalSpan)
			t.Spans = append(t.Spans, s)
		case 6:
			v, n, err = consumeVarint(typ, b)
			t.StartTime = int64(v)
		case 7:
			v, n, err = consumeVarint(typ, b)
			t.EndTime = int64(v)
		default:
			n, err = skipField(num, typ, b)
		}
		return n, err
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func unmarshalSpan(data []byte) (*Span, error) {
	s := &Span{}
	err := unmarshalMessage(data, "Span", func(num protowire.Number, typ protowire.Type, b []byte) (n int, err error) {
		var v uint64
		switch num {
		case 1:
			s.Service, n, err = consumeString(typ, b)
		case 2:
			s.Name, n, err = consumeString(typ, b)
		case 3:
			s.Resource, n, err = consumeString(typ, b)
		case 4:
			s.TraceID, n, err = consumeVarint(typ, b)
		case 5:
			s.SpanID, n, err = consumeVarint(typ, b)
		case 6:
			s.ParentID, n, err = consumeVarint(typ, b)
		case 7:
			v, n, err = consumeVarint(typ, b)
			s.Start = int64(v)
		case 8:
			v, n, err = consumeVarint(typ, b)
			s.Duration = int64(v)
		case 9:
			v, n, err = consumeVarint(typ, b)
			s.Error = int32(v)
		case 10:
			n, err = consumeMapEntry(typ, b, &s.Meta, consumeString)
		case 11:
			n, err = consumeMapEntry(typ, b, &s.Metrics, consumeDouble)
		case 12:
			s.Type, n, err = consumeString(typ, b)
		case 13:
			n, err = consumeMapEntry(typ, b, &s.MetaStruct, consumeBytes)
		default:
			n, err = skipField(num, typ, b)
		}
		return n, err
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// consumeMapEntry reads one map<string, V> entry and stores it in m,
// allocating the map on first use. A missing key or value decodes as the
// zero value, as protobuf requires.
func consumeMapEntry[V any](typ protowire.Type, b []byte, m *map[string]V, consumeValue func(protowire.Type, []byte) (V, int, error)) (int, error) {
	entry, n, err := consumeLengthDelimited(typ, b)
	if err != nil {
		return 0, err
	}
	var key string
	var value V
	err = unmarshalMessage(entry, "map entry", func(num protowire.Number, typ protowire.Type, b []byte) (n int, err error) {
		switch num {
		case 1:
			key, n, err = consumeString(typ, b)
		case 2:
			value, n, err = consumeValue(typ, b)
		default:
			n, err = skipField(num, typ, b)
		}
		return n, err
	})
	if err != nil {
		return 0, err
	}
	if *m == nil {
		*m = make(map[string]V)
	}
	(*m)[key] = value
	return n, nil
}

func consumeMessage[T any](typ protowire.Type, b []byte, unmarshal func([]byte) (*T, error)) (*T, int, error) {
	data, n, err := consumeLengthDelimited(typ, b)
	if err != nil {
		return nil, 0, err
	}
	msg, err := unmarshal(data)
	if err != nil {
		return nil, 0, err
	}
	return msg, n, nil
}

func consumeLengthDelimited(typ protowire.Type, b []byte) ([]byte, int, error) {
	if typ != protowire.BytesType {
		return nil, 0, errWrongWireType(typ)
	}
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return nil, 0, protowire.ParseError(n)
	}
	return v, n, nil
}

func consumeString(typ protowire.Type, b []byte) (string, int, error) {
	v, n, err := consumeLengthDelimited(typ, b)
	if err != nil {
		return "", 0, err
	}
	return string(v), n, nil
}

// consumeBytes copies the value so decoded payloads never alias the request buffer.
func consumeBytes(typ protowire.Type, b []byte) ([]byte, int, error) {
	v, n, err := consumeLengthDelimited(typ, b)
	if err != nil {
		return nil, 0, err
	}
	return append([]byte{}, v...), n, nil
}

func consumeVarint(typ protowire.Type, b []byte) (uint64, int, error) {
	if typ != protowire.VarintType {
		return 0, 0, errWrongWireType(typ)
	}
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, 0, protowire.ParseError(n)
	}
	return v, n, nil
}

func consumeDouble(typ protowire.Type, b []byte) (float64, int, error) {
	if typ != protowire.Fixed64Type {
		return 0, 0, errWrongWireType(typ)
	}
	v, n := protowire.ConsumeFixed64(b)
	if n < 0 {
		return 0, 0, protowire.ParseError(n)
	}
	return math.Float64frombits(v), n, nil
}

func skipField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	n := protowire.ConsumeFieldValue(num, typ, b)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	return n, nil
}

func errWrongWireType(typ protowire.Type) error {
	return fmt.Errorf("wrong wireType = %d for field", typ)
}
