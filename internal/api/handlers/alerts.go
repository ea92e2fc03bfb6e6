package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domain "github.com/secondhand-labs/fraudlens/pkg/types"
)

// AlertStore is the slice of the store the alert endpoints need.
type AlertStore interface {
	ListPendingAlerts(ctx context.Context) ([]domain.Alert, error)
}

// AlertsHandler handles alert query endpoints.
type AlertsHandler struct {
	store AlertStore
}

// NewAlertsHandler creates a new AlertsHandler.
func NewAlertsHandler(s AlertStore) *AlertsHandler {
	return &AlertsHandler{store: s}
}

// ListPendingAlertsOutput is the response for listing pending alerts.
type ListPendingAlertsOutput struct {
	Body struct {
		Alerts []domain.Alert `json:"alerts"`
		Total  int            `json:"total"`
	}
}

// ListPending returns alerts that have not been notified yet.
func (h *AlertsHandler) ListPending(
	ctx context.Context,
	_ *struct{},
) (*ListPendingAlertsOutput, error) {
	alerts, err := h.store.ListPendingAlerts(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("alert query failed: " + err.Error())
	}

	resp := &ListPendingAlertsOutput{}
	resp.Body.Alerts = alerts
	resp.Body.Total = len(alerts)

	return resp, nil
}

// RegisterAlertRoutes registers alert endpoints with the Huma API.
func RegisterAlertRoutes(api huma.API, h *AlertsHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-pending-alerts",
		Method:      http.MethodGet,
		Path:        "/api/v1/alerts/pending",
		Summary:     "List pending alerts",
		Description: "Returns alerts that have not been sent to the notifier yet.",
		Tags:        []string{"alerts"},
	}, h.ListPending)
}
