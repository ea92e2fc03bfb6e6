// Package store defines the datastore abstraction for fraudlens.
// All business logic depends on the Store interface, never on concrete
// implementations. This enables mock-based testing without a running database.
package store

import (
	"context"
	"time"

	domain "github.com/secondhand-labs/fraudlens/pkg/types"
)

// ListingQuery defines optional filters for listing queries.
type ListingQuery struct {
	MinRisk        *int
	MaxRisk        *int
	Segment        *string
	SellerID       *string
	PriceRecovered *bool
	Limit          int // default 50
	Offset         int
	OrderBy        string // "risk_score", "price", "first_seen_at"
}

// Store defines all data access operations for fraudlens.
type Store interface {
	// Listings
	UpsertListing(ctx context.Context, l *domain.Listing) error
	// GetListing returns (nil, nil) when the listing does not exist, so the
	// paginator can probe for known IDs without error plumbing.
	GetListing(ctx context.Context, id string) (*domain.Listing, error)
	ListListings(ctx context.Context, opts *ListingQuery) ([]domain.Listing, int, error)
	// UpdateEnrichment persists the derived fields of a scored listing:
	// segment, recovered price, risk score and the full analysis payload.
	UpdateEnrichment(ctx context.Context, l *domain.Listing) error
	ListUnscoredListings(ctx context.Context, limit int) ([]domain.Listing, error)
	// ListScoredSince returns scored listings newer than the cutoff. The
	// statistics rebuild job feeds these into the aggregator.
	ListScoredSince(ctx context.Context, since time.Time, limit int) ([]domain.Listing, error)

	// Statistics snapshots
	InsertStatsSnapshot(ctx context.Context, s *domain.StatsSnapshot) error
	GetLatestStatsSnapshot(ctx context.Context) (*domain.StatsSnapshot, error)

	// Alerts
	CreateAlert(ctx context.Context, a *domain.Alert) error
	ListPendingAlerts(ctx context.Context) ([]domain.Alert, error)
	MarkAlertNotified(ctx context.Context, id string) error
	HasRecentAlert(ctx context.Context, listingID string, cooldown time.Duration) (bool, error)

	// State
	GetSystemState(ctx context.Context, riskThreshold int) (*domain.SystemState, error)

	// Scheduler
	InsertJobRun(ctx context.Context, jobName string) (id string, err error)
	CompleteJobRun(ctx context.Context, id string, status string, errText string, rowsAffected int) error
	ListJobRuns(ctx context.Context, jobName string, limit int) ([]domain.JobRun, error)
	ListLatestJobRuns(ctx context.Context) ([]domain.JobRun, error)
	RecoverStaleJobRuns(ctx context.Context, olderThan time.Duration) (int, error)
	AcquireSchedulerLock(ctx context.Context, jobName string, holder string, ttl time.Duration) (bool, error)
	ReleaseSchedulerLock(ctx context.Context, jobName string, holder string) error

	// Migrations
	Migrate(ctx context.Context) error

	// Health
	Ping(ctx context.Context) error
}
