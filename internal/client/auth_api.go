package client

import (
	"context"
	"encoding/json"
	"net/http"
)

// Login authenticates. Data is left raw because backends place the token
// at different paths; see TokenFromLoginResult.
func (c *Client) Login(ctx context.Context, creds *LoginCredentials, opts ...CallOption) (*Response[Result[json.RawMessage]], error) {
	return c.postCredentials(ctx, "Login", "/auth/login", creds, opts)
}

// Register creates an account
func (c *Client) Register(ctx context.Context, creds *LoginCredentials, opts ...CallOption) (*Response[Result[json.RawMessage]], error) {
	return c.postCredentials(ctx, "Register", "/user/post", creds, opts)
}

func (c *Client) postCredentials(ctx context.Context, op, path string, creds *LoginCredentials, opts []CallOption) (*Response[Result[json.RawMessage]], error) {
	var body any
	if creds != nil {
		body = creds
	}
	if err := AssertParamExists(op, "credentials", body); err != nil {
		return nil, err
	}

	return execute[Result[json.RawMessage]](ctx, c, endpoint{
		operation: op,
		method:    http.MethodPost,
		path:      path,
		body:      body,
		hasBody:   true,
	}, opts)
}
