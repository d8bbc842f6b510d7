package client

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

// DefaultTokenPath is where the login response carries the token
const DefaultTokenPath = "data"

// ErrNoToken is returned when a login response carries no token
var ErrNoToken = errors.New("login response carries no token")

// DecodeError is returned when a 2xx body does not match the expected type.
// The Response is returned alongside it.
type DecodeError struct {
	Operation string
	Err       error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %s response: %v", e.Operation, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Response is the outcome of a completed HTTP exchange. Data is decoded
// only for 2xx responses; Body always holds the raw payload.
type Response[T any] struct {
	Data    T
	Status  int
	Headers http.Header
	Body    []byte
	// Message is the backend's message field, read from any JSON body
	Message string
}

// OK reports whether the status is 2xx
func (r *Response[T]) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Result is the backend's response envelope
type Result[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

// TokenFromLoginResult extracts the session token from a login response
// body. path is a gjson path; empty means DefaultTokenPath. A body whose
// success flag is false is rejected with the backend's message.
func TokenFromLoginResult(body []byte, path string) (string, error) {
	if path == "" {
		path = DefaultTokenPath
	}
	if !gjson.ValidBytes(body) {
		return "", fmt.Errorf("%w: body is not JSON", ErrNoToken)
	}
	if success := gjson.GetBytes(body, "success"); success.Exists() && !success.Bool() {
		return "", fmt.Errorf("login rejected: %s", gjson.GetBytes(body, "message").String())
	}

	token := gjson.GetBytes(body, path)
	if token.Type != gjson.String || token.String() == "" {
		return "", fmt.Errorf("%w at %q", ErrNoToken, path)
	}
	return token.String(), nil
}

func envelopeMessage(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	return gjson.GetBytes(body, "message").String()
}
