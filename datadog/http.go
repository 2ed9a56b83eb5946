package datadog

import (
	"context"
	"errors"
	"io"
	"net/http"
)

// Sender receives the events translated from one request. The HTTP response
// reflects its outcome: nil is a 200, a DatadogError carries its own status,
// and any other error is reported as 503.
type Sender interface {
	Send(ctx context.Context, events []Event) error
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, events []Event) error

func (f SenderFunc) Send(ctx context.Context, events []Event) error {
	return f(ctx, events)
}

type HandlerOptions struct {
	// MaxBodyBytes bounds the compressed request body; 0 means unbounded.
	MaxBodyBytes int64
	// StoreAPIKey attaches the request API key to each event.
	StoreAPIKey bool
	Schema      LogSchema
}

// TracesHandler serves POST /api/v0.2/traces.
func TracesHandler(sender Sender, opts HandlerOptions) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		ri := GetRequestInfoFromHttpRequest(r)
		if !opts.StoreAPIKey {
			ri.APIKey = ""
		}
		ri.Schema = opts.Schema

		body := io.Reader(r.Body)
		if opts.MaxBodyBytes > 0 {
			body = http.MaxBytesReader(w, r.Body, opts.MaxBodyBytes)
		}

		result, err := TranslateTraceRequestFromReader(r.Context(), body, ri)
		if err != nil {
			WriteHttpFailureResponse(w, err)
			return
		}

		if err := sender.Send(r.Context(), result.Events); err != nil {
			var ddErr DatadogError
			if !errors.As(err, &ddErr) {
				ddErr = ErrSenderUnavailable
			}
			WriteHttpFailureResponse(w, ddErr)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
}

// StatsHandler serves POST /api/v0.2/stats. APM stats are computed downstream
// from the traces themselves, so the payload is read and dropped. At most
// opts.MaxBodyBytes are read; the agent still gets a 200.
func StatsHandler(opts HandlerOptions) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := io.Reader(r.Body)
		if opts.MaxBodyBytes > 0 {
			body = http.MaxBytesReader(w, r.Body, opts.MaxBodyBytes)
		}
		_, _ = io.Copy(io.Discard, body)
		w.WriteHeader(http.StatusOK)
	})
}

// WriteHttpFailureResponse writes err as a plain-text response with the status
// the error carries. The Datadog agent logs the body verbatim.
func WriteHttpFailureResponse(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), HTTPStatusCode(err))
}
