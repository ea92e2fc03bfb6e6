package client

import (
	"context"
	"time"

	domain "github.com/secondhand-labs/fraudlens/pkg/types"
)

// StatusResponse is the pipeline status payload.
type StatusResponse struct {
	State *domain.SystemState `json:"state"`
	Stats *struct {
		SampleCount int       `json:"sample_count"`
		CellCount   int       `json:"cell_count"`
		BuiltAt     time.Time `json:"built_at"`
	} `json:"stats,omitempty"`
	LatestJobs []domain.JobRun `json:"latest_jobs"`
}

// GetStatus returns pipeline progress counts and the active stats snapshot.
func (c *Client) GetStatus(ctx context.Context) (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.get(ctx, "/api/v1/status", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListPendingAlerts returns alerts that have not been notified yet.
func (c *Client) ListPendingAlerts(ctx context.Context) ([]domain.Alert, error) {
	var resp struct {
		Alerts []domain.Alert `json:"alerts"`
	}
	if err := c.get(ctx, "/api/v1/alerts/pending", &resp); err != nil {
		return nil, err
	}
	return resp.Alerts, nil
}
