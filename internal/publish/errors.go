package publish

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/aws/smithy-go"
)

// Failure kinds reported for a publish attempt.
const (
	KindAPI       = "api"
	KindCanceled  = "canceled"
	KindTimeout   = "timeout"
	KindTransport = "transport"
	KindPanic     = "panic"
	KindUnknown   = "unknown"
)

// PublishError is the structured form of a failed publish: which operation,
// what kind of failure, the service error code when there is one, and the
// underlying cause.
type PublishError struct {
	Op      string
	Kind    string
	Code    string
	Message string
	Cause   error
}

func (e *PublishError) Error() string {
	kind := e.Kind
	if e.Code != "" {
		kind += "/" + e.Code
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, kind, e.Message)
}

func (e *PublishError) Unwrap() error {
	return e.Cause
}

// classify maps an SDK error onto a PublishError.
func classify(op string, err error) *PublishError {
	var pe *PublishError
	if errors.As(err, &pe) {
		return pe
	}
	out := &PublishError{Op: op, Kind: KindUnknown, Message: err.Error(), Cause: err}

	var apiErr smithy.APIError
	var netErr net.Error
	switch {
	case errors.Is(err, context.Canceled):
		out.Kind = KindCanceled
	case errors.Is(err, context.DeadlineExceeded):
		out.Kind = KindTimeout
	case errors.As(err, &apiErr):
		out.Kind = KindAPI
		out.Code = apiErr.ErrorCode()
		if msg := apiErr.ErrorMessage(); msg != "" {
			out.Message = msg
		}
	case errors.As(err, &netErr):
		out.Kind = KindTransport
		if netErr.Timeout() {
			out.Kind = KindTimeout
		}
	}
	return out
}
