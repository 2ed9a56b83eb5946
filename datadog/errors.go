package datadog

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// statusCoder is implemented by errors that know how they should be reported
// to an HTTP or gRPC client.
type statusCoder interface {
	error
	HTTPStatus() int
	GRPCCode() codes.Code
}

type DatadogError struct {
	Message        string
	HTTPStatusCode int
	GRPCStatusCode codes.Code
}

var (
	ErrUnsupportedEncoding = DatadogError{Message: "unsupported content-encoding", HTTPStatusCode: http.StatusUnsupportedMediaType, GRPCStatusCode: codes.Unimplemented}
	ErrBodyTooLarge        = DatadogError{Message: "request body too large", HTTPStatusCode: http.StatusRequestEntityTooLarge, GRPCStatusCode: codes.ResourceExhausted}
	ErrFailedReadBody      = DatadogError{Message: "failed to read request body", HTTPStatusCode: http.StatusBadRequest, GRPCStatusCode: codes.InvalidArgument}
	ErrDeliveryFailed      = DatadogError{Message: "Error delivering contents to sink", HTTPStatusCode: http.StatusInternalServerError, GRPCStatusCode: codes.Internal}
	ErrDeliveryRejected    = DatadogError{Message: "Contents failed to deliver to sink", HTTPStatusCode: http.StatusBadRequest, GRPCStatusCode: codes.InvalidArgument}
	ErrSenderUnavailable   = DatadogError{Message: "Service Unavailable", HTTPStatusCode: http.StatusServiceUnavailable, GRPCStatusCode: codes.Unavailable}
)

func (e DatadogError) Error() string {
	return e.Message
}

func (e DatadogError) HTTPStatus() int {
	return e.HTTPStatusCode
}

func (e DatadogError) GRPCCode() codes.Code {
	return e.GRPCStatusCode
}

// DecodeError reports a trace payload that is not a well-formed TracePayload
// message. It carries no partial result.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("Error decoding Datadog traces: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func (e *DecodeError) HTTPStatus() int {
	return http.StatusUnprocessableEntity
}

func (e *DecodeError) GRPCCode() codes.Code {
	return codes.InvalidArgument
}

// decompressionError is returned when a body could not be inflated with the
// decoder its content-encoding names.
func decompressionError(encoding string) DatadogError {
	return DatadogError{
		Message:        fmt.Sprintf("Failed decompressing payload with %s decoder.", encoding),
		HTTPStatusCode: http.StatusUnprocessableEntity,
		GRPCStatusCode: codes.InvalidArgument,
	}
}

// HTTPStatusCode returns the status an HTTP client should see for err.
// Errors that carry no status of their own are reported as 500.
func HTTPStatusCode(err error) int {
	var sc statusCoder
	if errors.As(err, &sc) {
		return sc.HTTPStatus()
	}
	return http.StatusInternalServerError
}

func AsJson(e error) string {
	b, err := json.Marshal(map[string]string{"message": e.Error()})
	if err != nil {
		return `{"message":""}`
	}
	return string(b)
}

func AsGRPCError(e error) error {
	var sc statusCoder
	if errors.As(e, &sc) {
		return status.Error(sc.GRPCCode(), e.Error())
	}
	return status.Error(codes.Internal, "")
}
