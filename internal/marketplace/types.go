// Package marketplace provides a client for the second-hand marketplace API
// abstracted behind interfaces for testability.
package marketplace

import (
	"context"

	domain "github.com/secondhand-labs/fraudlens/pkg/types"
)

// SearchRequest defines the parameters for a marketplace search.
type SearchRequest struct {
	Keywords      string
	CategoryID    string
	SubcategoryID string
	OrderBy       string // "newest"
	NextPage      string // pagination token from the previous page
}

// SearchPage holds one page of search results.
type SearchPage struct {
	Items    []Item
	NextPage string
}

// HasMore reports whether another page exists.
func (p *SearchPage) HasMore() bool { return p.NextPage != "" }

// Client defines the interface for interacting with the marketplace API.
type Client interface {
	Search(ctx context.Context, req SearchRequest) (*SearchPage, error)
	Item(ctx context.Context, itemID string) (*ItemDetail, error)
	User(ctx context.Context, userID string) (*UserProfile, error)
	Reviews(ctx context.Context, userID string) ([]Review, error)
}

// Item is one listing as returned by the search endpoint. The search payload
// is partial; ItemDetail fills the gaps when deep fetch is on.
type Item struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Price        domain.Price    `json:"price"`
	User         *domain.UserRef `json:"user,omitempty"`
	CreationDate int64           `json:"creation_date,omitempty"` // unix millis
	ModifiedDate int64           `json:"modified_date,omitempty"` // unix millis
}

// ItemDetail is the item-detail endpoint payload: the structured condition,
// the refurbished flag, demand counters and the untruncated description.
type ItemDetail struct {
	TypeAttributes *domain.TypeAttributes `json:"type_attributes,omitempty"`
	IsRefurbished  *domain.FlagAttribute  `json:"is_refurbished,omitempty"`
	Counters       *Counters              `json:"counters,omitempty"`
	Flags          *domain.ListingFlags   `json:"flags,omitempty"`
	Description    *DetailDescription     `json:"description,omitempty"`
}

// DetailDescription wraps the full description text.
type DetailDescription struct {
	Original string `json:"original"`
}

// Counters holds per-listing demand metrics.
type Counters struct {
	Views         int `json:"views"`
	Favorites     int `json:"favorites"`
	Conversations int `json:"conversations"`
}

// UserProfile is the user endpoint payload.
type UserProfile struct {
	ID           string   `json:"id"`
	RegisterDate int64    `json:"register_date,omitempty"` // unix millis
	Badges       []string `json:"badges,omitempty"`
	Type         string   `json:"type,omitempty"` // "pro" for professional sellers
	ScamReports  int      `json:"scam_reports,omitempty"`
}

// Review is one entry from the user reviews endpoint. Scoring comes on a
// 0-100 scale.
type Review struct {
	Review struct {
		Scoring int `json:"scoring"`
	} `json:"review"`
}

// searchResponse covers both wire shapes the search endpoint has been seen
// returning: the sectioned payload and the legacy flat items array.
type searchResponse struct {
	Data *struct {
		Section struct {
			Payload struct {
				Items []Item `json:"items"`
			} `json:"payload"`
		} `json:"section"`
	} `json:"data,omitempty"`
	Items []Item `json:"items,omitempty"`
	Meta  struct {
		NextPage string `json:"next_page"`
	} `json:"meta"`
}

func (r *searchResponse) items() []Item {
	if r.Data != nil && len(r.Data.Section.Payload.Items) > 0 {
		return r.Data.Section.Payload.Items
	}
	return r.Items
}
