package marketplace_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/secondhand-labs/fraudlens/internal/marketplace"
)

func newTestClient(t *testing.T, handler http.Handler, opts ...marketplace.ClientOption) (*marketplace.HTTPClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	base := append([]marketplace.ClientOption{
		marketplace.WithRetries(3, time.Millisecond),
	}, opts...)
	c := marketplace.NewHTTPClient(srv.URL+"/search", srv.URL+"/items", srv.URL+"/users", base...)
	return c, srv
}

func TestSearchSectionedPayload(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "portatil", r.URL.Query().Get("keywords"))
		assert.Equal(t, "newest", r.URL.Query().Get("order_by"))
		w.Write([]byte(`{
			"data": {"section": {"payload": {"items": [
				{"id": "a1", "title": "Portatil i7", "price": {"amount": 450, "currency": "EUR"}}
			]}}},
			"meta": {"next_page": "tok2"}
		}`))
	}))

	page, err := c.Search(context.Background(), marketplace.SearchRequest{Keywords: "portatil"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "a1", page.Items[0].ID)
	assert.Equal(t, 450.0, page.Items[0].Price.Amount)
	assert.True(t, page.HasMore())
	assert.Equal(t, "tok2", page.NextPage)
}

func TestSearchLegacyFlatPayload(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items": [{"id": "b2", "title": "Macbook", "price": 900}], "meta": {}}`))
	}))

	page, err := c.Search(context.Background(), marketplace.SearchRequest{Keywords: "macbook"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, 900.0, page.Items[0].Price.Amount)
	assert.False(t, page.HasMore())
}

func TestSearchRetriesOnServerError(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"items": [{"id": "c3"}], "meta": {}}`))
	}))

	page, err := c.Search(context.Background(), marketplace.SearchRequest{Keywords: "x"})
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Len(t, page.Items, 1)
}

func TestSearchRetriesExhausted(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := c.Search(context.Background(), marketplace.SearchRequest{Keywords: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retries exhausted")
}

func TestRateLimitResponseStartsCooldown(t *testing.T) {
	t.Parallel()

	limiter := marketplace.NewLimiter(100, 10)
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}), marketplace.WithLimiter(limiter), marketplace.WithCooldown([]int{429, 403}, time.Minute))

	_, err := c.Search(context.Background(), marketplace.SearchRequest{Keywords: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, marketplace.ErrCoolingDown)
	assert.True(t, limiter.CoolingDown())

	// Subsequent calls fail fast without touching the API.
	_, err = c.Search(context.Background(), marketplace.SearchRequest{Keywords: "x"})
	assert.ErrorIs(t, err, marketplace.ErrCoolingDown)
}

func TestItemDetail(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/items/it9", r.URL.Path)
		w.Write([]byte(`{
			"type_attributes": {"condition": {"value": "as_good_as_new"}},
			"is_refurbished": {"flag": true},
			"counters": {"views": 42, "favorites": 3},
			"description": {"original": "texto completo"}
		}`))
	}))

	detail, err := c.Item(context.Background(), "it9")
	require.NoError(t, err)
	require.NotNil(t, detail.TypeAttributes)
	assert.Equal(t, "as_good_as_new", detail.TypeAttributes.Condition.Value)
	assert.True(t, detail.IsRefurbished.Flag)
	assert.Equal(t, 42, detail.Counters.Views)
	assert.Equal(t, "texto completo", detail.Description.Original)
}

func TestUserAndReviews(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users/u1":
			w.Write([]byte(`{"id": "u1", "register_date": 1600000000000, "badges": ["TOP_PROFILE"], "type": "pro"}`))
		case "/users/u1/reviews":
			w.Write([]byte(`[{"review": {"scoring": 100}}, {"review": {"scoring": 80}}]`))
		default:
			http.NotFound(w, r)
		}
	}))

	profile, err := c.User(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "pro", profile.Type)

	reviews, err := c.Reviews(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, reviews, 2)
}

func TestClientErrorDoesNotRetry(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := c.Item(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}
