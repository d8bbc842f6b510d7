package client

import (
	"context"
	"encoding/json"
	"net/http"
)

// SavedOrder submits a new order. Pass the session token with
// WithBearerToken; caller options are merged over client defaults.
func (c *Client) SavedOrder(ctx context.Context, order *OrderCreateDTO, opts ...CallOption) (*Response[Result[json.RawMessage]], error) {
	const op = "SavedOrder"

	var body any
	if order != nil {
		body = order
	}
	if err := AssertParamExists(op, "order", body); err != nil {
		return nil, err
	}

	return execute[Result[json.RawMessage]](ctx, c, endpoint{
		operation: op,
		method:    http.MethodPut,
		path:      "/user/saveorder",
		body:      body,
		hasBody:   true,
	}, opts)
}

// GetPayedOrder lists the current user's paid orders
func (c *Client) GetPayedOrder(ctx context.Context, opts ...CallOption) (*Response[Result[[]OrderTableDTO]], error) {
	return execute[Result[[]OrderTableDTO]](ctx, c, endpoint{
		operation: "GetPayedOrder",
		method:    http.MethodGet,
		path:      "/user/payedorder",
	}, opts)
}

// GetUnpayOrder lists the current user's unpaid orders
func (c *Client) GetUnpayOrder(ctx context.Context, opts ...CallOption) (*Response[Result[[]OrderTableDTO]], error) {
	return execute[Result[[]OrderTableDTO]](ctx, c, endpoint{
		operation: "GetUnpayOrder",
		method:    http.MethodGet,
		path:      "/user/unpayorder",
	}, opts)
}

// GetUserInfo fetches the current user's profile
func (c *Client) GetUserInfo(ctx context.Context, opts ...CallOption) (*Response[Result[UserDTO]], error) {
	return execute[Result[UserDTO]](ctx, c, endpoint{
		operation: "GetUserInfo",
		method:    http.MethodGet,
		path:      "/user/info",
	}, opts)
}
