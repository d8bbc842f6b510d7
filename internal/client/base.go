package client

import "net/http"

// RequiredError is returned when a mandatory parameter was not supplied
type RequiredError struct {
	Field string
	Msg   string
}

func (e *RequiredError) Error() string {
	return e.Msg
}

// Name returns the error kind name
func (e *RequiredError) Name() string {
	return "RequiredError"
}

// RequestOptions is the request under construction
type RequestOptions struct {
	Method string
	Header http.Header
	Query  Params
	Auth   *BasicAuth
	Body   any
}

// RequestArgs is a built request: URL is relative to the base path
type RequestArgs struct {
	URL     string
	Options *RequestOptions
}

// CallOption adjusts a single call. Caller headers and query values are
// merged over the client defaults.
type CallOption func(*RequestOptions)

// WithHeader sets a request header
func WithHeader(key, value string) CallOption {
	return func(o *RequestOptions) {
		if o.Header == nil {
			o.Header = http.Header{}
		}
		o.Header.Set(key, value)
	}
}

// WithQuery appends a query parameter
func WithQuery(key string, value any) CallOption {
	return func(o *RequestOptions) {
		o.Query.Add(key, value)
	}
}

// WithBearerToken sets Authorization: Bearer <token> for this call
func WithBearerToken(token string) CallOption {
	return WithHeader("Authorization", "Bearer "+token)
}
