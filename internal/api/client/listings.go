package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	domain "github.com/secondhand-labs/fraudlens/pkg/types"
)

// ListingsResponse wraps a paginated listings response.
type ListingsResponse struct {
	Listings []domain.Listing `json:"listings"`
	Total    int              `json:"total"`
}

// ListListingsParams defines query parameters for listing queries.
type ListListingsParams struct {
	MinRisk        int
	MaxRisk        int
	Segment        string
	SellerID       string
	PriceRecovered bool
	Limit          int
	Offset         int
	OrderBy        string
}

// ListListings returns listings matching the given parameters.
func (c *Client) ListListings(
	ctx context.Context,
	params *ListListingsParams,
) (*ListingsResponse, error) {
	q := url.Values{}
	if params.MinRisk > 0 {
		q.Set("min_risk", strconv.Itoa(params.MinRisk))
	}
	if params.MaxRisk > 0 {
		q.Set("max_risk", strconv.Itoa(params.MaxRisk))
	}
	if params.Segment != "" {
		q.Set("segment", params.Segment)
	}
	if params.SellerID != "" {
		q.Set("seller_id", params.SellerID)
	}
	if params.PriceRecovered {
		q.Set("price_recovered", "true")
	}
	if params.Limit > 0 {
		q.Set("limit", strconv.Itoa(params.Limit))
	}
	if params.Offset > 0 {
		q.Set("offset", strconv.Itoa(params.Offset))
	}
	if params.OrderBy != "" {
		q.Set("order_by", params.OrderBy)
	}

	path := "/api/v1/listings"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp ListingsResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetListing returns a single listing by its marketplace ID.
func (c *Client) GetListing(ctx context.Context, id string) (*domain.Listing, error) {
	var l domain.Listing
	if err := c.get(ctx, fmt.Sprintf("/api/v1/listings/%s", id), &l); err != nil {
		return nil, err
	}
	return &l, nil
}
