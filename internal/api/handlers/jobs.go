package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domain "github.com/secondhand-labs/fraudlens/pkg/types"
)

// JobStore is the slice of the store the job endpoints need.
type JobStore interface {
	ListJobRuns(ctx context.Context, jobName string, limit int) ([]domain.JobRun, error)
	ListLatestJobRuns(ctx context.Context) ([]domain.JobRun, error)
}

// JobsHandler handles job-run query endpoints.
type JobsHandler struct {
	store JobStore
}

// NewJobsHandler creates a new JobsHandler.
func NewJobsHandler(s JobStore) *JobsHandler {
	return &JobsHandler{store: s}
}

// ListJobRunsInput is the input for listing job runs.
type ListJobRunsInput struct {
	Job   string `query:"job"   doc:"Filter by job name" enum:"poll,rebuild_stats,"`
	Limit int    `query:"limit" doc:"Number of results (default 20)" minimum:"1" maximum:"200"`
}

// ListJobRunsOutput is the response for listing job runs.
type ListJobRunsOutput struct {
	Body struct {
		Runs []domain.JobRun `json:"runs"`
	}
}

// ListRuns returns recent job runs. Without a job filter it returns the
// latest run of every job.
func (h *JobsHandler) ListRuns(
	ctx context.Context,
	input *ListJobRunsInput,
) (*ListJobRunsOutput, error) {
	var (
		runs []domain.JobRun
		err  error
	)
	if input.Job == "" {
		runs, err = h.store.ListLatestJobRuns(ctx)
	} else {
		limit := input.Limit
		if limit == 0 {
			limit = 20
		}
		runs, err = h.store.ListJobRuns(ctx, input.Job, limit)
	}
	if err != nil {
		return nil, huma.Error500InternalServerError("job run query failed: " + err.Error())
	}

	resp := &ListJobRunsOutput{}
	resp.Body.Runs = runs

	return resp, nil
}

// RegisterJobRoutes registers job endpoints with the Huma API.
func RegisterJobRoutes(api huma.API, h *JobsHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-job-runs",
		Method:      http.MethodGet,
		Path:        "/api/v1/jobs",
		Summary:     "List job runs",
		Description: "Returns recent scheduled job runs, optionally filtered by job name.",
		Tags:        []string{"system"},
	}, h.ListRuns)
}
