package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	domain "github.com/secondhand-labs/fraudlens/pkg/types"
)

// StatusStore is the slice of the store the status endpoint needs.
type StatusStore interface {
	GetSystemState(ctx context.Context, riskThreshold int) (*domain.SystemState, error)
	GetLatestStatsSnapshot(ctx context.Context) (*domain.StatsSnapshot, error)
	ListLatestJobRuns(ctx context.Context) ([]domain.JobRun, error)
}

// StatusHandler handles GET /api/v1/status.
type StatusHandler struct {
	store         StatusStore
	riskThreshold int
}

// NewStatusHandler creates a StatusHandler.
func NewStatusHandler(s StatusStore, riskThreshold int) *StatusHandler {
	return &StatusHandler{store: s, riskThreshold: riskThreshold}
}

// statsSummary describes the active statistics snapshot without its payload.
type statsSummary struct {
	SampleCount int       `json:"sample_count"`
	CellCount   int       `json:"cell_count"`
	BuiltAt     time.Time `json:"built_at"`
}

// StatusOutput is the response for GET /api/v1/status.
type StatusOutput struct {
	Body struct {
		State      *domain.SystemState `json:"state"`
		Stats      *statsSummary       `json:"stats,omitempty"`
		LatestJobs []domain.JobRun     `json:"latest_jobs"`
	}
}

// GetStatus returns pipeline progress counts, the active stats snapshot
// summary, and the most recent run of each job.
func (h *StatusHandler) GetStatus(
	ctx context.Context,
	_ *struct{},
) (*StatusOutput, error) {
	state, err := h.store.GetSystemState(ctx, h.riskThreshold)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to get system state")
	}

	resp := &StatusOutput{}
	resp.Body.State = state

	if snap, err := h.store.GetLatestStatsSnapshot(ctx); err == nil && snap != nil {
		resp.Body.Stats = &statsSummary{
			SampleCount: snap.SampleCount,
			CellCount:   snap.CellCount,
			BuiltAt:     snap.BuiltAt,
		}
	}

	if runs, err := h.store.ListLatestJobRuns(ctx); err == nil {
		resp.Body.LatestJobs = runs
	}

	return resp, nil
}

// RegisterStatusRoutes registers the status route on the Huma API.
func RegisterStatusRoutes(api huma.API, h *StatusHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "get-status",
		Method:      http.MethodGet,
		Path:        "/api/v1/status",
		Summary:     "Get pipeline status",
		Description: "Returns aggregate pipeline counts, the active stats snapshot, and the latest job runs.",
		Tags:        []string{"system"},
	}, h.GetStatus)
}
