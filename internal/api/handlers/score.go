package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/secondhand-labs/fraudlens/pkg/analyze"
	domain "github.com/secondhand-labs/fraudlens/pkg/types"
)

// AdhocScorer scores a listing against the active statistics table.
type AdhocScorer interface {
	ScoreListing(l *domain.Listing) *domain.RiskResult
}

// ScoreHandler handles ad-hoc scoring requests. Nothing is persisted; the
// endpoint exists so operators can probe a listing by hand.
type ScoreHandler struct {
	scorer AdhocScorer
}

// NewScoreHandler creates a new ScoreHandler.
func NewScoreHandler(s AdhocScorer) *ScoreHandler {
	return &ScoreHandler{scorer: s}
}

// ScoreInput is the request body for ad-hoc scoring.
type ScoreInput struct {
	Body struct {
		Title       string       `json:"title"       doc:"Listing title"       minLength:"1"`
		Description string       `json:"description" doc:"Listing description"`
		Price       domain.Price `json:"price"       doc:"Listing price"`
	}
}

// ScoreOutput is the response for ad-hoc scoring.
type ScoreOutput struct {
	Body struct {
		Result  *domain.RiskResult `json:"result"`
		Segment domain.Segment     `json:"segment"`
	}
}

// Score evaluates one listing without persisting it.
func (h *ScoreHandler) Score(
	_ context.Context,
	input *ScoreInput,
) (*ScoreOutput, error) {
	l := &domain.Listing{
		Title:       input.Body.Title,
		Description: input.Body.Description,
		Price:       input.Body.Price,
	}

	res := h.scorer.ScoreListing(l)

	resp := &ScoreOutput{}
	resp.Body.Result = res
	resp.Body.Segment = analyze.Segment(l.Title, l.Price.Amount,
		res.MarketAnalysis.Condition, res.MarketAnalysis.Specs)

	return resp, nil
}

// RegisterScoreRoutes registers the ad-hoc scoring endpoint with the Huma API.
func RegisterScoreRoutes(api huma.API, h *ScoreHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "score-listing",
		Method:      http.MethodPost,
		Path:        "/api/v1/score",
		Summary:     "Score a listing ad hoc",
		Description: "Analyzes and scores a listing against the active statistics table without persisting it.",
		Tags:        []string{"scoring"},
	}, h.Score)
}
