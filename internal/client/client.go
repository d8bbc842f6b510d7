package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/takeout/client/internal/infrastructure/logger"
	"github.com/takeout/client/internal/infrastructure/telemetry"
)

// RequestIDHeader carries the per-request correlation id
const RequestIDHeader = "X-Request-ID"

// Client talks to the takeout backend. It is safe for concurrent use.
type Client struct {
	cfg        *Configuration
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a client; a nil configuration uses defaults
func NewClient(cfg *Configuration) *Client {
	if cfg == nil {
		cfg = NewConfiguration()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		cfg:        cfg,
		httpClient: httpClient,
		logger:     log.Named("client"),
	}
}

// Configuration returns the client's configuration
func (c *Client) Configuration() *Configuration {
	return c.cfg
}

// endpoint describes one operation before any caller input is applied
type endpoint struct {
	operation string
	method    string
	path      string
	query     Params
	body      any
	hasBody   bool
}

// buildArgs turns an endpoint and caller options into RequestArgs: local
// headers first, then credentials, then caller headers on top.
func (c *Client) buildArgs(ctx context.Context, ep endpoint, opts []CallOption) (*RequestArgs, error) {
	u, err := url.Parse(ep.path)
	if err != nil {
		return nil, fmt.Errorf("parsing %s path: %w", ep.operation, err)
	}

	options := &RequestOptions{Method: ep.method, Header: http.Header{}}
	options.Header.Set("Accept", "application/json")
	if ep.hasBody {
		options.Header.Set("Content-Type", "application/json")
	}

	query := append(Params(nil), ep.query...)
	if err := c.applyCredentials(ctx, options, &query); err != nil {
		return nil, err
	}

	for k, v := range c.cfg.DefaultHeaders {
		options.Header.Set(k, v)
	}
	caller := &RequestOptions{Header: http.Header{}}
	for _, opt := range opts {
		opt(caller)
	}
	for k, vs := range caller.Header {
		options.Header[k] = vs
	}

	SetSearchParams(u, query, caller.Query)

	if ep.hasBody {
		body, err := SerializeDataIfNeeded(ep.body, options.Header, c.cfg)
		if err != nil {
			return nil, err
		}
		options.Body = body
	}

	return &RequestArgs{URL: ToPathString(u), Options: options}, nil
}

// applyCredentials is the single dispatch point over credential variants
func (c *Client) applyCredentials(ctx context.Context, options *RequestOptions, query *Params) error {
	switch creds := c.cfg.Credentials.(type) {
	case nil, NoAuth:
		return nil
	case APIKey:
		if creds.In == KeyInQuery {
			return SetAPIKeyToObject(ctx, query, creds.Name, c.cfg)
		}
		return SetAPIKeyToObject(ctx, options.Header, creds.Name, c.cfg)
	case BasicAuth:
		return SetBasicAuthToObject(ctx, options, c.cfg)
	case BearerToken:
		return SetBearerAuthToObject(ctx, options.Header, c.cfg)
	case OAuth2:
		return SetOAuthToObject(ctx, options.Header, creds.Name, creds.Scopes, c.cfg)
	default:
		return fmt.Errorf("unsupported credentials %T", creds)
	}
}

// rawResponse is a completed exchange before decoding
type rawResponse struct {
	status  int
	headers http.Header
	body    []byte
}

// dispatch sends args against the effective base path. Transport errors
// are returned unchanged.
func (c *Client) dispatch(ctx context.Context, operation string, args *RequestArgs) (*rawResponse, error) {
	if c.cfg.RateLimiter != nil {
		if err := c.cfg.RateLimiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	requestID := args.Options.Header.Get(RequestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	ctx, span := telemetry.StartSpan(ctx, "client."+operation,
		telemetry.WithSpanKind(trace.SpanKindClient),
		telemetry.WithAttribute(telemetry.SpanAttrOperation, operation),
		telemetry.WithAttribute(telemetry.SpanAttrMethod, args.Options.Method),
		telemetry.WithAttribute(telemetry.SpanAttrPath, args.URL),
		telemetry.WithAttribute(telemetry.SpanAttrRequestID, requestID),
	)
	defer span.End()

	log := logger.WithTraceContext(ctx, c.logger).With(
		zap.String("operation", operation),
		zap.String("method", args.Options.Method),
		zap.String("path", args.URL),
		zap.String("request_id", requestID),
	)

	body, err := requestBody(args.Options.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, args.Options.Method, c.cfg.EffectiveBasePath()+args.URL, body)
	if err != nil {
		return nil, fmt.Errorf("creating %s request: %w", operation, err)
	}
	req.Header = args.Options.Header.Clone()
	req.Header.Set(RequestIDHeader, requestID)
	if c.cfg.UserAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}
	if auth := args.Options.Auth; auth != nil {
		req.SetBasicAuth(auth.Username, auth.Password)
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		duration := time.Since(start)
		c.cfg.Metrics.ObserveRequest(operation, 0, duration)
		telemetry.RecordError(span, err)
		log.Debug("request failed", zap.Duration("duration", duration), zap.Error(err))
		return nil, err
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	duration := time.Since(start)
	if err != nil {
		c.cfg.Metrics.ObserveRequest(operation, 0, duration)
		telemetry.RecordError(span, err)
		log.Debug("reading response failed", zap.Duration("duration", duration), zap.Error(err))
		return nil, err
	}

	c.cfg.Metrics.ObserveRequest(operation, httpResp.StatusCode, duration)
	telemetry.SetAttributes(span, telemetry.SpanAttrStatusCode, httpResp.StatusCode)
	log.Debug("request completed",
		zap.Int("status", httpResp.StatusCode),
		zap.Duration("duration", duration),
		zap.Int("bytes", len(data)),
	)

	return &rawResponse{status: httpResp.StatusCode, headers: httpResp.Header, body: data}, nil
}

func requestBody(body any) (io.Reader, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case string:
		return strings.NewReader(b), nil
	case []byte:
		return bytes.NewReader(b), nil
	case io.Reader:
		return b, nil
	default:
		return nil, fmt.Errorf("unsupported request body type %T for non-JSON content", body)
	}
}

// execute builds, dispatches and decodes one call
func execute[T any](ctx context.Context, c *Client, ep endpoint, opts []CallOption) (*Response[T], error) {
	args, err := c.buildArgs(ctx, ep, opts)
	if err != nil {
		return nil, err
	}

	raw, err := c.dispatch(ctx, ep.operation, args)
	if err != nil {
		return nil, err
	}

	resp := &Response[T]{
		Status:  raw.status,
		Headers: raw.headers,
		Body:    raw.body,
		Message: envelopeMessage(raw.body),
	}
	if resp.OK() && len(bytes.TrimSpace(raw.body)) > 0 {
		if err := json.Unmarshal(raw.body, &resp.Data); err != nil {
			return resp, &DecodeError{Operation: ep.operation, Err: err}
		}
	}
	return resp, nil
}
