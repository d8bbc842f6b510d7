package client

import (
	"context"
	"net/http"
	"strconv"
	"strings"
)

// GetBusinessList lists all businesses
func (c *Client) GetBusinessList(ctx context.Context, opts ...CallOption) (*Response[Result[[]BusinessDTO]], error) {
	return execute[Result[[]BusinessDTO]](ctx, c, endpoint{
		operation: "GetBusinessList",
		method:    http.MethodGet,
		path:      "/business/list",
	}, opts)
}

// GetBusiness fetches one business by id
func (c *Client) GetBusiness(ctx context.Context, id int64, opts ...CallOption) (*Response[Result[BusinessDTO]], error) {
	path := strings.ReplaceAll("/business/{id}", "{id}", strconv.FormatInt(id, 10))
	return execute[Result[BusinessDTO]](ctx, c, endpoint{
		operation: "GetBusiness",
		method:    http.MethodGet,
		path:      path,
	}, opts)
}

// GetCommodityList lists the menu of a business. A nil businessID fails
// with a *RequiredError before any request is made.
func (c *Client) GetCommodityList(ctx context.Context, businessID *int64, opts ...CallOption) (*Response[Result[[]CommodityDTO]], error) {
	const op = "GetCommodityList"

	var id any
	if businessID != nil {
		id = *businessID
	}
	if err := AssertParamExists(op, "id", id); err != nil {
		return nil, err
	}

	return execute[Result[[]CommodityDTO]](ctx, c, endpoint{
		operation: op,
		method:    http.MethodGet,
		path:      "/business/itemList",
		query:     Params{{Key: "id", Value: id}},
	}, opts)
}

// GetFoodTypeList lists food categories
func (c *Client) GetFoodTypeList(ctx context.Context, opts ...CallOption) (*Response[Result[[]FoodTypeDTO]], error) {
	return execute[Result[[]FoodTypeDTO]](ctx, c, endpoint{
		operation: "GetFoodTypeList",
		method:    http.MethodGet,
		path:      "/foodtype/foodTypeList",
	}, opts)
}
