package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// Poller runs one full poll cycle on demand.
type Poller interface {
	RunPoll(ctx context.Context) error
}

// StatsRebuilder rebuilds the statistics table on demand.
type StatsRebuilder interface {
	RunStatsRebuild(ctx context.Context) error
}

// Rescorer scores the unscored backlog on demand.
type Rescorer interface {
	RescoreUnscored(ctx context.Context, limit int) (int, error)
}

// PollHandler handles manual poll trigger requests.
type PollHandler struct {
	poller Poller
}

// NewPollHandler creates a new PollHandler.
func NewPollHandler(p Poller) *PollHandler {
	return &PollHandler{poller: p}
}

// PollOutput is the response body for the poll trigger endpoint.
type PollOutput struct {
	Body struct {
		Status string `json:"status" example:"poll completed" doc:"Poll status"`
	}
}

// Poll runs one full poll cycle: search, enrich, score, persist, alert.
func (h *PollHandler) Poll(ctx context.Context, _ *struct{}) (*PollOutput, error) {
	if err := h.poller.RunPoll(ctx); err != nil {
		return nil, huma.Error500InternalServerError("poll failed: " + err.Error())
	}

	resp := &PollOutput{}
	resp.Body.Status = "poll completed"
	return resp, nil
}

// RebuildHandler handles manual stats rebuild requests.
type RebuildHandler struct {
	rebuilder StatsRebuilder
}

// NewRebuildHandler creates a new RebuildHandler.
func NewRebuildHandler(r StatsRebuilder) *RebuildHandler {
	return &RebuildHandler{rebuilder: r}
}

// RebuildOutput is the response body for the stats rebuild endpoint.
type RebuildOutput struct {
	Body struct {
		Status string `json:"status" example:"stats rebuild completed" doc:"Rebuild status"`
	}
}

// Rebuild recomputes the statistics table from recently scored listings.
func (h *RebuildHandler) Rebuild(ctx context.Context, _ *struct{}) (*RebuildOutput, error) {
	if err := h.rebuilder.RunStatsRebuild(ctx); err != nil {
		return nil, huma.Error500InternalServerError("stats rebuild failed: " + err.Error())
	}

	resp := &RebuildOutput{}
	resp.Body.Status = "stats rebuild completed"
	return resp, nil
}

// RescoreHandler handles manual rescore requests.
type RescoreHandler struct {
	rescorer Rescorer
}

// NewRescoreHandler creates a new RescoreHandler.
func NewRescoreHandler(r Rescorer) *RescoreHandler {
	return &RescoreHandler{rescorer: r}
}

// RescoreInput is the input for the rescore endpoint.
type RescoreInput struct {
	Body struct {
		Limit int `json:"limit,omitempty" doc:"Maximum listings to rescore (default 1000)" minimum:"1" maximum:"10000"`
	}
}

// RescoreOutput is the response body for the rescore endpoint.
type RescoreOutput struct {
	Body struct {
		Rescored int `json:"rescored" doc:"Number of listings scored"`
	}
}

// Rescore scores listings that were persisted but never scored.
func (h *RescoreHandler) Rescore(ctx context.Context, input *RescoreInput) (*RescoreOutput, error) {
	limit := input.Body.Limit
	if limit == 0 {
		limit = 1000
	}

	n, err := h.rescorer.RescoreUnscored(ctx, limit)
	if err != nil {
		return nil, huma.Error500InternalServerError("rescore failed: " + err.Error())
	}

	resp := &RescoreOutput{}
	resp.Body.Rescored = n
	return resp, nil
}

// RegisterTriggerRoutes registers trigger endpoints with the Huma API.
func RegisterTriggerRoutes(api huma.API, pollH *PollHandler, rebuildH *RebuildHandler, rescoreH *RescoreHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "trigger-poll",
		Method:      http.MethodPost,
		Path:        "/api/v1/poll",
		Summary:     "Trigger a poll cycle",
		Description: "Runs one full poll cycle: search the marketplace, enrich, score, persist, and alert.",
		Tags:        []string{"pipeline"},
		Errors:      []int{http.StatusInternalServerError},
	}, pollH.Poll)

	huma.Register(api, huma.Operation{
		OperationID: "rebuild-stats",
		Method:      http.MethodPost,
		Path:        "/api/v1/stats/rebuild",
		Summary:     "Rebuild market statistics",
		Description: "Recomputes the reference statistics table from recently scored listings.",
		Tags:        []string{"pipeline"},
		Errors:      []int{http.StatusInternalServerError},
	}, rebuildH.Rebuild)

	huma.Register(api, huma.Operation{
		OperationID: "rescore-backlog",
		Method:      http.MethodPost,
		Path:        "/api/v1/rescore",
		Summary:     "Rescore the unscored backlog",
		Description: "Scores listings that were persisted but never scored.",
		Tags:        []string{"pipeline"},
		Errors:      []int{http.StatusInternalServerError},
	}, rescoreH.Rescore)
}
