package client

import (
	"context"
	"net/url"
	"strconv"

	domain "github.com/secondhand-labs/fraudlens/pkg/types"
)

// TriggerPoll runs one full poll cycle on the server.
func (c *Client) TriggerPoll(ctx context.Context) error {
	return c.post(ctx, "/api/v1/poll", nil, nil)
}

// TriggerRebuild recomputes the statistics table on the server.
func (c *Client) TriggerRebuild(ctx context.Context) error {
	return c.post(ctx, "/api/v1/stats/rebuild", nil, nil)
}

// Rescore scores the unscored backlog. A zero limit uses the server default.
func (c *Client) Rescore(ctx context.Context, limit int) (int, error) {
	body := map[string]any{}
	if limit > 0 {
		body["limit"] = limit
	}

	var resp struct {
		Rescored int `json:"rescored"`
	}
	if err := c.post(ctx, "/api/v1/rescore", body, &resp); err != nil {
		return 0, err
	}
	return resp.Rescored, nil
}

// ScoreResult is the response of the ad-hoc scoring endpoint.
type ScoreResult struct {
	Result  *domain.RiskResult `json:"result"`
	Segment domain.Segment     `json:"segment"`
}

// Score evaluates one listing on the server without persisting it.
func (c *Client) Score(ctx context.Context, title, description string, price float64) (*ScoreResult, error) {
	body := map[string]any{
		"title":       title,
		"description": description,
		"price":       map[string]any{"amount": price, "currency": "EUR"},
	}

	var resp ScoreResult
	if err := c.post(ctx, "/api/v1/score", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListJobs returns recent job runs; without a name, the latest run per job.
func (c *Client) ListJobs(ctx context.Context, jobName string, limit int) ([]domain.JobRun, error) {
	q := url.Values{}
	if jobName != "" {
		q.Set("job", jobName)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	path := "/api/v1/jobs"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp struct {
		Runs []domain.JobRun `json:"runs"`
	}
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Runs, nil
}
