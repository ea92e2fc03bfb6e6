package marketplace

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	domain "github.com/secondhand-labs/fraudlens/pkg/types"
)

const (
	defaultMaxPages      = 10
	defaultFirstRunPages = 5
)

// ListingChecker determines whether a listing already exists in the store.
type ListingChecker interface {
	GetListing(ctx context.Context, id string) (*domain.Listing, error)
}

// Paginator walks search result pages via the next_page token.
type Paginator struct {
	client   Client
	checker  ListingChecker
	logger   *slog.Logger
	maxPages int
	maxAge   time.Duration // 0 means no age cutoff
	nowFunc  func() time.Time
}

// PaginatorOption configures the Paginator.
type PaginatorOption func(*Paginator)

// WithMaxPages overrides the default max pages.
func WithMaxPages(n int) PaginatorOption {
	return func(p *Paginator) { p.maxPages = n }
}

// WithMaxAge stops pagination once listings older than the cutoff appear.
// Search results come newest-first, so everything after is older still.
func WithMaxAge(d time.Duration) PaginatorOption {
	return func(p *Paginator) { p.maxAge = d }
}

// WithPaginatorLogger sets the logger.
func WithPaginatorLogger(l *slog.Logger) PaginatorOption {
	return func(p *Paginator) { p.logger = l }
}

// WithPaginatorNowFunc overrides the time function for testing.
func WithPaginatorNowFunc(f func() time.Time) PaginatorOption {
	return func(p *Paginator) { p.nowFunc = f }
}

// NewPaginator creates a new Paginator.
func NewPaginator(client Client, checker ListingChecker, opts ...PaginatorOption) *Paginator {
	p := &Paginator{
		client:   client,
		checker:  checker,
		logger:   slog.Default(),
		maxPages: defaultMaxPages,
		nowFunc:  time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PaginateResult holds the result of a paginated search.
type PaginateResult struct {
	NewListings []domain.Listing
	TotalSeen   int
	PagesUsed   int
	StoppedAt   string // "known_listing", "max_pages", "no_more_results", "age_cutoff"
}

// Paginate fetches listings for a search query, stopping when:
// - A known listing is found (already in the store)
// - Listings fall past the age cutoff
// - Max pages reached
// - No more results
// isFirstRun caps at defaultFirstRunPages pages for initial polls.
func (p *Paginator) Paginate(
	ctx context.Context,
	req SearchRequest,
	isFirstRun bool,
) (*PaginateResult, error) {
	maxPages := p.maxPages
	if isFirstRun && maxPages > defaultFirstRunPages {
		maxPages = defaultFirstRunPages
	}

	result := &PaginateResult{}
	crawledAt := p.nowFunc()
	cutoff := time.Time{}
	if p.maxAge > 0 {
		cutoff = crawledAt.Add(-p.maxAge)
	}

	for page := range maxPages {
		resp, err := p.client.Search(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("searching page %d: %w", page, err)
		}

		result.PagesUsed++

		if len(resp.Items) == 0 {
			result.StoppedAt = "no_more_results"
			return result, nil
		}

		for i := range resp.Items {
			item := &resp.Items[i]
			result.TotalSeen++

			if !cutoff.IsZero() && itemTime(item).Before(cutoff) {
				result.StoppedAt = "age_cutoff"
				return result, nil
			}

			existing, err := p.checker.GetListing(ctx, item.ID)
			if err != nil {
				// Log but continue — a store error shouldn't stop the poll.
				p.logger.Warn("error checking listing", "id", item.ID, "err", err)
			}
			if existing != nil {
				result.StoppedAt = "known_listing"
				return result, nil
			}

			result.NewListings = append(result.NewListings, ToListing(item, crawledAt))
		}

		if !resp.HasMore() {
			result.StoppedAt = "no_more_results"
			return result, nil
		}
		req.NextPage = resp.NextPage
	}

	result.StoppedAt = "max_pages"
	return result, nil
}

// itemTime prefers the modification time over creation; a bumped listing is
// effectively new again.
func itemTime(item *Item) time.Time {
	ts := item.ModifiedDate
	if ts == 0 {
		ts = item.CreationDate
	}
	if ts == 0 {
		// No timestamp at all: treat as fresh.
		return time.Unix(1<<40, 0)
	}
	return time.UnixMilli(ts)
}
