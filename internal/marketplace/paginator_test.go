package marketplace_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/secondhand-labs/fraudlens/internal/marketplace"
	domain "github.com/secondhand-labs/fraudlens/pkg/types"
)

// fakeClient serves canned search pages keyed by next_page token.
type fakeClient struct {
	pages map[string]*marketplace.SearchPage
	err   error
	calls int
}

func (f *fakeClient) Search(_ context.Context, req marketplace.SearchRequest) (*marketplace.SearchPage, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	page, ok := f.pages[req.NextPage]
	if !ok {
		return &marketplace.SearchPage{}, nil
	}
	return page, nil
}

func (f *fakeClient) Item(context.Context, string) (*marketplace.ItemDetail, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeClient) User(context.Context, string) (*marketplace.UserProfile, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeClient) Reviews(context.Context, string) ([]marketplace.Review, error) {
	return nil, errors.New("not implemented")
}

// fakeChecker knows a fixed set of listing IDs.
type fakeChecker struct {
	known map[string]bool
	err   error
}

func (f *fakeChecker) GetListing(_ context.Context, id string) (*domain.Listing, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.known[id] {
		return &domain.Listing{ID: id}, nil
	}
	return nil, nil
}

func items(ids ...string) []marketplace.Item {
	out := make([]marketplace.Item, len(ids))
	for i, id := range ids {
		out[i] = marketplace.Item{ID: id, Title: "Portatil " + id}
	}
	return out
}

func TestPaginateStopsAtKnownListing(t *testing.T) {
	t.Parallel()

	client := &fakeClient{pages: map[string]*marketplace.SearchPage{
		"": {Items: items("n1", "n2", "k3", "n4"), NextPage: "p2"},
	}}
	p := marketplace.NewPaginator(client, &fakeChecker{known: map[string]bool{"k3": true}})

	res, err := p.Paginate(context.Background(), marketplace.SearchRequest{Keywords: "portatil"}, false)
	require.NoError(t, err)
	assert.Equal(t, "known_listing", res.StoppedAt)
	assert.Len(t, res.NewListings, 2)
	assert.Equal(t, 3, res.TotalSeen)
	assert.Equal(t, 1, res.PagesUsed)
}

func TestPaginateFollowsNextPageTokens(t *testing.T) {
	t.Parallel()

	client := &fakeClient{pages: map[string]*marketplace.SearchPage{
		"":   {Items: items("a", "b"), NextPage: "p2"},
		"p2": {Items: items("c"), NextPage: ""},
	}}
	p := marketplace.NewPaginator(client, &fakeChecker{})

	res, err := p.Paginate(context.Background(), marketplace.SearchRequest{Keywords: "portatil"}, false)
	require.NoError(t, err)
	assert.Equal(t, "no_more_results", res.StoppedAt)
	assert.Len(t, res.NewListings, 3)
	assert.Equal(t, 2, res.PagesUsed)
}

func TestPaginateMaxPages(t *testing.T) {
	t.Parallel()

	// Every page links to itself: pagination must stop at the cap.
	client := &fakeClient{pages: map[string]*marketplace.SearchPage{
		"":   {Items: items("a"), NextPage: "p2"},
		"p2": {Items: items("b"), NextPage: "p2"},
	}}
	p := marketplace.NewPaginator(client, &fakeChecker{}, marketplace.WithMaxPages(3))

	res, err := p.Paginate(context.Background(), marketplace.SearchRequest{}, false)
	require.NoError(t, err)
	assert.Equal(t, "max_pages", res.StoppedAt)
	assert.Equal(t, 3, res.PagesUsed)
}

func TestPaginateFirstRunCap(t *testing.T) {
	t.Parallel()

	client := &fakeClient{pages: map[string]*marketplace.SearchPage{
		"":   {Items: items("a"), NextPage: "p2"},
		"p2": {Items: items("b"), NextPage: "p2"},
	}}
	p := marketplace.NewPaginator(client, &fakeChecker{}, marketplace.WithMaxPages(20))

	res, err := p.Paginate(context.Background(), marketplace.SearchRequest{}, true)
	require.NoError(t, err)
	assert.Equal(t, "max_pages", res.StoppedAt)
	assert.Equal(t, 5, res.PagesUsed)
}

func TestPaginateAgeCutoff(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	fresh := marketplace.Item{ID: "f", CreationDate: now.Add(-time.Hour).UnixMilli()}
	stale := marketplace.Item{ID: "s", CreationDate: now.Add(-48 * time.Hour).UnixMilli()}

	client := &fakeClient{pages: map[string]*marketplace.SearchPage{
		"": {Items: []marketplace.Item{fresh, stale}, NextPage: "p2"},
	}}
	p := marketplace.NewPaginator(client, &fakeChecker{},
		marketplace.WithMaxAge(24*time.Hour),
		marketplace.WithPaginatorNowFunc(func() time.Time { return now }),
	)

	res, err := p.Paginate(context.Background(), marketplace.SearchRequest{}, false)
	require.NoError(t, err)
	assert.Equal(t, "age_cutoff", res.StoppedAt)
	assert.Len(t, res.NewListings, 1)
	assert.Equal(t, "f", res.NewListings[0].ID)
}

func TestPaginateStoreErrorContinues(t *testing.T) {
	t.Parallel()

	client := &fakeClient{pages: map[string]*marketplace.SearchPage{
		"": {Items: items("a", "b")},
	}}
	p := marketplace.NewPaginator(client, &fakeChecker{err: errors.New("db down")})

	res, err := p.Paginate(context.Background(), marketplace.SearchRequest{}, false)
	require.NoError(t, err)
	assert.Len(t, res.NewListings, 2)
}

func TestPaginateSearchError(t *testing.T) {
	t.Parallel()

	client := &fakeClient{err: errors.New("boom")}
	p := marketplace.NewPaginator(client, &fakeChecker{})

	_, err := p.Paginate(context.Background(), marketplace.SearchRequest{}, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "searching page 0")
}
