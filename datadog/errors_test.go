package datadog

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	spb "google.golang.org/genproto/googleapis/rpc/status"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestErrorsReturnJson(t *testing.T) {
	err := DatadogError{Message: "test-message"}
	assert.Equal(t, `{"message":"test-message"}`, AsJson(err))
}

func TestErrorsReturnJsonEscapesQuotes(t *testing.T) {
	err := &DecodeError{Err: errors.New(`bad "field"`)}
	assert.Equal(t, `{"message":"Error decoding Datadog traces: bad \"field\""}`, AsJson(err))
}

func TestAsGRPCError(t *testing.T) {
	err := DatadogError{Message: "datadog-error", GRPCStatusCode: codes.InvalidArgument}
	assert.Equal(t, "rpc error: code = InvalidArgument desc = datadog-error", AsGRPCError(err).Error())
}

func TestDecodeErrorAsGRPCError(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &DecodeError{Err: errors.New("truncated")})

	var st *spb.Status = status.Convert(AsGRPCError(err)).Proto()
	assert.Equal(t, int32(codes.InvalidArgument), st.Code)
	assert.Equal(t, "wrapped: Error decoding Datadog traces: truncated", st.Message)
}

func TestNonDatadogErrorAsGRPCError(t *testing.T) {
	err := errors.New("base-error")
	assert.Equal(t, "rpc error: code = Internal desc = ", AsGRPCError(err).Error())
}

func TestHTTPStatusCode(t *testing.T) {
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatusCode(&DecodeError{Err: errors.New("x")}))
	assert.Equal(t, http.StatusUnsupportedMediaType, HTTPStatusCode(ErrUnsupportedEncoding))
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatusCode(fmt.Errorf("send: %w", ErrSenderUnavailable)))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatusCode(errors.New("other")))
}

func TestDecodeErrorUnwraps(t *testing.T) {
	cause := errors.New("cause")
	err := &DecodeError{Err: cause}
	assert.ErrorIs(t, err, cause)
}
