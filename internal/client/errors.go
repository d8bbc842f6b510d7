package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/takeout/client/internal/domain/shared"
)

// ErrorKind groups failures by what the user should be told
type ErrorKind int

// Error kinds
const (
	KindUnauthorized ErrorKind = iota + 1
	KindNotFound
	KindTimeout
	KindNetwork
	KindCanceled
	KindServer
	KindRejected
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindTimeout:
		return "timeout"
	case KindNetwork:
		return "network"
	case KindCanceled:
		return "canceled"
	case KindServer:
		return "server"
	case KindRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// ResponseError describes a failed call in user-facing terms
type ResponseError struct {
	Kind    ErrorKind
	Status  int
	Message string
	// Detail is the backend's own message, when it sent one
	Detail string
	Err    error
}

func (e *ResponseError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (%s)", e.Message, e.Detail)
	}
	return e.Message
}

// Unwrap returns the transport error, if any
func (e *ResponseError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match the shared session and not-found errors
func (e *ResponseError) Is(target error) bool {
	switch e.Kind {
	case KindUnauthorized:
		return target == shared.ErrSessionExpired
	case KindNotFound:
		return target == shared.ErrNotFound
	}
	return false
}

// Classify maps a status code or transport error to a ResponseError. It
// returns nil for a 2xx status with no error.
func Classify(status int, err error) *ResponseError {
	if err != nil {
		return classifyTransport(err)
	}
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized:
		return &ResponseError{Kind: KindUnauthorized, Status: status, Message: "session expired, please log in again"}
	case status == http.StatusNotFound:
		return &ResponseError{Kind: KindNotFound, Status: status, Message: "system error, please try again later"}
	case status >= 500:
		return &ResponseError{Kind: KindServer, Status: status, Message: "server error, please try again later"}
	default:
		return &ResponseError{Kind: KindRejected, Status: status, Message: fmt.Sprintf("request failed with status %d", status)}
	}
}

// CheckResponse classifies a completed call, filling Detail from the
// response envelope.
func CheckResponse[T any](resp *Response[T], err error) error {
	if err != nil {
		var required *RequiredError
		var decode *DecodeError
		if errors.As(err, &required) || errors.As(err, &decode) {
			return err
		}
		return Classify(0, err)
	}
	if re := Classify(resp.Status, nil); re != nil {
		re.Detail = resp.Message
		return re
	}
	return nil
}

func classifyTransport(err error) *ResponseError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &ResponseError{Kind: KindTimeout, Message: "request timed out, please check your network and retry", Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &ResponseError{Kind: KindTimeout, Message: "request timed out, please check your network and retry", Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return &ResponseError{Kind: KindCanceled, Message: "request canceled", Err: err}
	}
	return &ResponseError{Kind: KindNetwork, Message: "network error, please check your connection", Err: err}
}
