// Package sender delivers translated trace events to a sink.
package sender

import (
	"context"
	"io"
	"sync"

	"github.com/honeycombio/kennel/datadog"
	"github.com/honeycombio/kennel/internal/observability"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Writer writes each event as one JSON line.
type Writer struct {
	mu  sync.Mutex
	out io.Writer
}

func NewWriter(out io.Writer) *Writer {
	return &Writer{out: out}
}

type writerLine struct {
	APIKey     string        `json:"api_key,omitempty"`
	Attributes datadog.Event `json:"attributes"`
}

func (w *Writer) Send(_ context.Context, events []datadog.Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	stream := json.BorrowStream(w.out)
	defer json.ReturnStream(stream)

	for _, ev := range events {
		stream.WriteVal(writerLine{APIKey: ev.APIKey, Attributes: ev})
		stream.WriteRaw("\n")
		if stream.Error != nil {
			observability.RecordEventsSent("stdout", len(events), false)
			return datadog.ErrDeliveryFailed
		}
	}
	if err := stream.Flush(); err != nil {
		observability.RecordEventsSent("stdout", len(events), false)
		return datadog.ErrDeliveryFailed
	}
	observability.RecordEventsSent("stdout", len(events), true)
	return nil
}
