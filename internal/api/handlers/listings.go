package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/secondhand-labs/fraudlens/internal/store"
	domain "github.com/secondhand-labs/fraudlens/pkg/types"
)

// ListingStore is the slice of the store the listing endpoints need.
type ListingStore interface {
	ListListings(ctx context.Context, opts *store.ListingQuery) ([]domain.Listing, int, error)
	GetListing(ctx context.Context, id string) (*domain.Listing, error)
}

// ListingsHandler handles listing query endpoints.
type ListingsHandler struct {
	store ListingStore
}

// NewListingsHandler creates a new ListingsHandler.
func NewListingsHandler(s ListingStore) *ListingsHandler {
	return &ListingsHandler{store: s}
}

// --- Input/Output types ---

// ListListingsInput is the input for listing listings with optional filters.
type ListListingsInput struct {
	MinRisk        int    `query:"min_risk"        doc:"Minimum risk score"                                                            minimum:"0" maximum:"100"`
	MaxRisk        int    `query:"max_risk"        doc:"Maximum risk score"                                                            minimum:"0" maximum:"100"`
	Segment        string `query:"segment"         doc:"Filter by market segment"        enum:"PRIME,BROKEN,ACCESSORY,UNCERTAIN,JUNK,"`
	SellerID       string `query:"seller_id"       doc:"Filter by seller ID"`
	PriceRecovered bool   `query:"price_recovered" doc:"Only listings whose price was recovered from text"`
	Limit          int    `query:"limit"           doc:"Number of results (default 50)"                                                minimum:"1" maximum:"500"`
	Offset         int    `query:"offset"          doc:"Pagination offset"                                                             minimum:"0"`
	OrderBy        string `query:"order_by"        doc:"Sort field"                      enum:"risk_score,price,first_seen_at,"`
}

// ListListingsOutput is the response for listing listings.
type ListListingsOutput struct {
	Body struct {
		Listings []domain.Listing `json:"listings"`
		Total    int              `json:"total"`
		Limit    int              `json:"limit"`
		Offset   int              `json:"offset"`
	}
}

// GetListingInput is the input for getting a single listing.
type GetListingInput struct {
	ID string `path:"id" doc:"Marketplace listing ID"`
}

// GetListingOutput is the response for getting a single listing.
type GetListingOutput struct {
	Body domain.Listing
}

// --- Handlers ---

// ListListings returns listings with optional filters for risk range,
// segment, seller, and pagination.
func (h *ListingsHandler) ListListings(
	ctx context.Context,
	input *ListListingsInput,
) (*ListListingsOutput, error) {
	q := &store.ListingQuery{
		Offset:  input.Offset,
		OrderBy: input.OrderBy,
	}

	if input.MinRisk != 0 {
		q.MinRisk = &input.MinRisk
	}

	if input.MaxRisk != 0 {
		q.MaxRisk = &input.MaxRisk
	}

	if input.Segment != "" {
		q.Segment = &input.Segment
	}

	if input.SellerID != "" {
		q.SellerID = &input.SellerID
	}

	if input.PriceRecovered {
		q.PriceRecovered = &input.PriceRecovered
	}

	if input.Limit != 0 {
		q.Limit = input.Limit
	}

	listings, total, err := h.store.ListListings(ctx, q)
	if err != nil {
		return nil, huma.Error500InternalServerError("listing query failed: " + err.Error())
	}

	resp := &ListListingsOutput{}
	resp.Body.Listings = listings
	resp.Body.Total = total
	resp.Body.Limit = q.Limit
	resp.Body.Offset = q.Offset

	return resp, nil
}

// GetListing returns a single listing by its marketplace ID.
func (h *ListingsHandler) GetListing(
	ctx context.Context,
	input *GetListingInput,
) (*GetListingOutput, error) {
	listing, err := h.store.GetListing(ctx, input.ID)
	if err != nil {
		return nil, huma.Error500InternalServerError("listing lookup failed: " + err.Error())
	}
	if listing == nil {
		return nil, huma.Error404NotFound("listing not found")
	}

	return &GetListingOutput{Body: *listing}, nil
}

// RegisterListingRoutes registers listing endpoints with the Huma API.
func RegisterListingRoutes(api huma.API, h *ListingsHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-listings",
		Method:      http.MethodGet,
		Path:        "/api/v1/listings",
		Summary:     "List listings",
		Description: "Returns listings with optional filters for risk range, segment, seller, and pagination.",
		Tags:        []string{"listings"},
	}, h.ListListings)

	huma.Register(api, huma.Operation{
		OperationID: "get-listing",
		Method:      http.MethodGet,
		Path:        "/api/v1/listings/{id}",
		Summary:     "Get a listing by ID",
		Description: "Returns a single listing by its marketplace ID.",
		Tags:        []string{"listings"},
		Errors:      []int{http.StatusNotFound},
	}, h.GetListing)
}
