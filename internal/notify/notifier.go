// Package notify defines the notification interface and implementations
// for fraud alert delivery.
package notify

import (
	"context"
)

// AlertPayload contains the data needed to send a fraud alert notification.
type AlertPayload struct {
	ListingTitle   string
	ListingURL     string
	Price          string
	EstimatedValue string
	RiskScore      int
	RiskFactors    []string
	Category       string
	Condition      string
	Segment        string
	Seller         string
}

// Notifier defines the interface for sending fraud alert notifications.
type Notifier interface {
	SendAlert(ctx context.Context, alert *AlertPayload) error
	SendBatchAlert(ctx context.Context, alerts []AlertPayload) error
}
