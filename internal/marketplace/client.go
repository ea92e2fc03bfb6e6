package marketplace

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"net/http"
	"net/url"
	"time"

	"github.com/secondhand-labs/fraudlens/internal/metrics"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/110.0.0.0 Safari/537.36"

// HTTPClient implements Client against the live marketplace API with
// retries, exponential backoff with jitter, and 429/403 cool-downs.
type HTTPClient struct {
	searchURL  string
	itemURL    string // item detail base, item ID appended
	userURL    string // user base, user ID appended
	client     *http.Client
	limiter    *Limiter
	logger     *slog.Logger
	userAgent  string
	maxRetries int
	retryDelay time.Duration
	cooldownOn map[int]bool
	cooldown   time.Duration
	sleep      func(context.Context, time.Duration) error
}

// ClientOption configures the HTTPClient.
type ClientOption func(*HTTPClient)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *HTTPClient) { c.client = hc }
}

// WithLimiter injects a rate limiter. When set, every call goes through
// Wait() first.
func WithLimiter(l *Limiter) ClientOption {
	return func(c *HTTPClient) { c.limiter = l }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *HTTPClient) { c.logger = l }
}

// WithUserAgent overrides the default browser user agent.
func WithUserAgent(ua string) ClientOption {
	return func(c *HTTPClient) { c.userAgent = ua }
}

// WithRetries sets the retry count and base delay.
func WithRetries(n int, delay time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.maxRetries = n
		c.retryDelay = delay
	}
}

// WithCooldown sets which HTTP statuses trigger a cool-down and for how long.
func WithCooldown(statuses []int, d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.cooldownOn = make(map[int]bool, len(statuses))
		for _, s := range statuses {
			c.cooldownOn[s] = true
		}
		c.cooldown = d
	}
}

// NewHTTPClient creates a marketplace API client. itemURL and userURL may be
// empty when deep fetch and reputation lookups are disabled.
func NewHTTPClient(searchURL, itemURL, userURL string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		searchURL:  searchURL,
		itemURL:    itemURL,
		userURL:    userURL,
		client:     &http.Client{Timeout: 20 * time.Second},
		logger:     slog.Default(),
		userAgent:  defaultUserAgent,
		maxRetries: 3,
		retryDelay: 2 * time.Second,
		cooldownOn: map[int]bool{http.StatusTooManyRequests: true, http.StatusForbidden: true},
		cooldown:   5 * time.Minute,
		sleep:      sleepCtx,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search implements Client.Search.
func (c *HTTPClient) Search(ctx context.Context, req SearchRequest) (*SearchPage, error) {
	params := url.Values{}
	params.Set("keywords", req.Keywords)
	params.Set("order_by", orDefault(req.OrderBy, "newest"))
	if req.CategoryID != "" {
		params.Set("category_ids", req.CategoryID)
	}
	if req.SubcategoryID != "" {
		params.Set("subcategory_ids", req.SubcategoryID)
	}
	if req.NextPage != "" {
		params.Set("next_page", req.NextPage)
	}

	body, err := c.get(ctx, "search", c.searchURL+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing search response: %w", err)
	}
	return &SearchPage{Items: resp.items(), NextPage: resp.Meta.NextPage}, nil
}

// Item implements Client.Item.
func (c *HTTPClient) Item(ctx context.Context, itemID string) (*ItemDetail, error) {
	if c.itemURL == "" {
		return nil, fmt.Errorf("item detail endpoint not configured")
	}
	body, err := c.get(ctx, "item", c.itemURL+"/"+url.PathEscape(itemID))
	if err != nil {
		return nil, err
	}
	var detail ItemDetail
	if err := json.Unmarshal(body, &detail); err != nil {
		return nil, fmt.Errorf("parsing item detail: %w", err)
	}
	return &detail, nil
}

// User implements Client.User.
func (c *HTTPClient) User(ctx context.Context, userID string) (*UserProfile, error) {
	if c.userURL == "" {
		return nil, fmt.Errorf("user endpoint not configured")
	}
	body, err := c.get(ctx, "user", c.userURL+"/"+url.PathEscape(userID))
	if err != nil {
		return nil, err
	}
	var profile UserProfile
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, fmt.Errorf("parsing user profile: %w", err)
	}
	return &profile, nil
}

// Reviews implements Client.Reviews.
func (c *HTTPClient) Reviews(ctx context.Context, userID string) ([]Review, error) {
	if c.userURL == "" {
		return nil, fmt.Errorf("user endpoint not configured")
	}
	body, err := c.get(ctx, "reviews", c.userURL+"/"+url.PathEscape(userID)+"/reviews")
	if err != nil {
		return nil, err
	}
	var reviews []Review
	if err := json.Unmarshal(body, &reviews); err != nil {
		return nil, fmt.Errorf("parsing reviews: %w", err)
	}
	return reviews, nil
}

// get performs one GET with rate limiting, retries and cool-down handling.
func (c *HTTPClient) get(ctx context.Context, endpoint, fullURL string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff with jitter: delay * 1.5^attempt + noise.
			wait := time.Duration(float64(c.retryDelay)*math.Pow(1.5, float64(attempt-1))) +
				time.Duration(rand.Int64N(int64(c.retryDelay)))
			if err := c.sleep(ctx, wait); err != nil {
				return nil, err
			}
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("rate limit: %w", err)
			}
		}
		metrics.MarketplaceCallsTotal.WithLabelValues(endpoint).Inc()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, http.NoBody)
		if err != nil {
			return nil, fmt.Errorf("creating HTTP request: %w", err)
		}
		req.Header.Set("Accept", "application/json, text/plain, */*")
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("X-Requested-With", "XMLHttpRequest")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("executing %s request: %w", endpoint, err)
			c.logger.Warn("marketplace request failed", "endpoint", endpoint, "attempt", attempt, "err", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("reading %s response: %w", endpoint, err)
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			return body, nil
		case c.cooldownOn[resp.StatusCode]:
			metrics.MarketplaceCooldownsTotal.Inc()
			if c.limiter != nil {
				c.limiter.StartCooldown(c.cooldown)
			}
			return nil, fmt.Errorf("marketplace API blocked %s (status %d): %w",
				endpoint, resp.StatusCode, ErrCoolingDown)
		case resp.StatusCode >= 500:
			lastErr = fmt.Errorf("marketplace API error on %s (status %d)", endpoint, resp.StatusCode)
			continue
		default:
			return nil, fmt.Errorf("marketplace API error on %s (status %d): %s",
				endpoint, resp.StatusCode, string(body))
		}
	}

	return nil, fmt.Errorf("%s: retries exhausted: %w", endpoint, lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
