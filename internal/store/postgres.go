package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domain "github.com/secondhand-labs/fraudlens/pkg/types"
)

const defaultPoolSize = 10

// PostgresStore implements Store using pgxpool (connection-pooled PostgreSQL).
//
// TODO(test): PostgresStore methods require live Postgres, tested via integration tests.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore with connection pooling.
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	cfg.MaxConns = defaultPoolSize

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close gracefully shuts down the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping verifies the database connection is alive.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate applies pending SQL schema migrations.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	return RunMigrations(ctx, s.pool)
}

// UpsertListing inserts or updates a listing by its marketplace ID. Structured
// attributes from a previous deep fetch survive a shallow re-crawl.
func (s *PostgresStore) UpsertListing(ctx context.Context, l *domain.Listing) error {
	var sellerID *string
	if l.User != nil && l.User.ID != "" {
		sellerID = &l.User.ID
	}

	var condValue *string
	if l.TypeAttributes != nil && l.TypeAttributes.Condition != nil {
		condValue = &l.TypeAttributes.Condition.Value
	}

	var refurbished *bool
	if l.IsRefurbished != nil {
		refurbished = &l.IsRefurbished.Flag
	}

	crawledAt := l.CrawledAt
	if crawledAt.IsZero() {
		crawledAt = time.Now()
	}

	args := pgx.NamedArgs{
		"id":              l.ID,
		"title":           l.Title,
		"description":     l.Description,
		"price":           l.Price.Amount,
		"currency":        orDefaultCurrency(l.Price.Currency),
		"seller_id":       sellerID,
		"condition_value": condValue,
		"is_refurbished":  refurbished,
		"crawled_at":      crawledAt,
	}

	return s.pool.QueryRow(ctx, queryUpsertListing, args).Scan(
		&l.FirstSeenAt, &l.UpdatedAt,
	)
}

// GetListing retrieves a listing by its marketplace ID.
// Returns (nil, nil) when the listing does not exist.
func (s *PostgresStore) GetListing(ctx context.Context, id string) (*domain.Listing, error) {
	l := &domain.Listing{}
	err := scanListing(s.pool.QueryRow(ctx, queryGetListing, id), l)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

// ListListings queries listings with optional filters, returning results and total count.
func (s *PostgresStore) ListListings(
	ctx context.Context,
	opts *ListingQuery,
) ([]domain.Listing, int, error) {
	dataSQL, countSQL, args := opts.ToSQL()

	// Get total count.
	var total int
	if err := s.pool.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting listings: %w", err)
	}

	// Get data rows.
	rows, err := s.pool.Query(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("querying listings: %w", err)
	}
	defer rows.Close()

	var listings []domain.Listing
	for rows.Next() {
		var l domain.Listing
		if err := scanListing(rows, &l); err != nil {
			return nil, 0, fmt.Errorf("scanning listing: %w", err)
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating listings: %w", err)
	}

	return listings, total, nil
}

// UpdateEnrichment persists the derived fields of a scored listing.
func (s *PostgresStore) UpdateEnrichment(ctx context.Context, l *domain.Listing) error {
	if l.Enrichment == nil {
		return fmt.Errorf("listing %s has no enrichment to persist", l.ID)
	}

	enrichmentJSON, err := json.Marshal(l.Enrichment)
	if err != nil {
		return fmt.Errorf("marshaling enrichment: %w", err)
	}

	_, err = s.pool.Exec(ctx, queryUpdateEnrichment,
		l.ID, l.Price.Amount, l.PriceRecovered, string(l.Segment),
		l.Enrichment.RiskScore, enrichmentJSON,
	)
	if err != nil {
		return fmt.Errorf("updating enrichment: %w", err)
	}
	return nil
}

// ListUnscoredListings returns listings that haven't been scored yet.
func (s *PostgresStore) ListUnscoredListings(
	ctx context.Context,
	limit int,
) ([]domain.Listing, error) {
	return s.queryListings(ctx, queryListUnscoredListings, limit)
}

// ListScoredSince returns scored listings updated after the cutoff, oldest first.
func (s *PostgresStore) ListScoredSince(
	ctx context.Context,
	since time.Time,
	limit int,
) ([]domain.Listing, error) {
	return s.queryListings(ctx, queryListScoredSince, since, limit)
}

// InsertStatsSnapshot persists one build of the market statistics table.
func (s *PostgresStore) InsertStatsSnapshot(ctx context.Context, snap *domain.StatsSnapshot) error {
	err := s.pool.QueryRow(ctx, queryInsertStatsSnapshot,
		snap.Table, snap.SampleCount, snap.CellCount,
	).Scan(&snap.ID, &snap.BuiltAt)
	if err != nil {
		return fmt.Errorf("inserting stats snapshot: %w", err)
	}
	return nil
}

// GetLatestStatsSnapshot returns the most recent snapshot, or (nil, nil) on a
// cold start with no snapshots yet.
func (s *PostgresStore) GetLatestStatsSnapshot(ctx context.Context) (*domain.StatsSnapshot, error) {
	snap := &domain.StatsSnapshot{}
	err := s.pool.QueryRow(ctx, queryGetLatestStatsSnapshot).Scan(
		&snap.ID, &snap.Table, &snap.SampleCount, &snap.CellCount, &snap.BuiltAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting latest stats snapshot: %w", err)
	}
	return snap, nil
}

// CreateAlert inserts a new alert, silently ignoring duplicates.
func (s *PostgresStore) CreateAlert(ctx context.Context, a *domain.Alert) error {
	factorsJSON, err := json.Marshal(a.RiskFactors)
	if err != nil {
		return fmt.Errorf("marshaling risk factors: %w", err)
	}

	err = s.pool.QueryRow(ctx, queryCreateAlert,
		a.ListingID, a.RiskScore, factorsJSON,
	).Scan(&a.ID, &a.CreatedAt)

	// ON CONFLICT DO NOTHING returns no rows — treat as success.
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	return err
}

// ListPendingAlerts returns all un-notified alerts.
func (s *PostgresStore) ListPendingAlerts(ctx context.Context) ([]domain.Alert, error) {
	rows, err := s.pool.Query(ctx, queryListPendingAlerts)
	if err != nil {
		return nil, fmt.Errorf("querying alerts: %w", err)
	}
	defer rows.Close()

	var alerts []domain.Alert
	for rows.Next() {
		var a domain.Alert
		if err := rows.Scan(
			&a.ID, &a.ListingID, &a.RiskScore, &a.RiskFactors,
			&a.Notified, &a.NotifiedAt, &a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning alert: %w", err)
		}
		alerts = append(alerts, a)
	}

	return alerts, rows.Err()
}

// MarkAlertNotified marks a single alert as notified.
func (s *PostgresStore) MarkAlertNotified(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, queryMarkAlertNotified, id)
	if err != nil {
		return fmt.Errorf("marking alert notified: %w", err)
	}
	return nil
}

// HasRecentAlert returns true if a notified alert for the listing exists
// within the given cooldown window.
func (s *PostgresStore) HasRecentAlert(
	ctx context.Context,
	listingID string,
	cooldown time.Duration,
) (bool, error) {
	cutoff := time.Now().Add(-cooldown)
	var exists bool
	if err := s.pool.QueryRow(ctx, queryHasRecentAlert, listingID, cutoff).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking recent alert: %w", err)
	}
	return exists, nil
}

// GetSystemState returns a point-in-time summary of pipeline progress.
func (s *PostgresStore) GetSystemState(
	ctx context.Context,
	riskThreshold int,
) (*domain.SystemState, error) {
	st := &domain.SystemState{}
	err := s.pool.QueryRow(ctx, queryGetSystemState, riskThreshold).Scan(
		&st.TotalListings, &st.UnscoredListings, &st.HighRiskListings,
		&st.PendingAlerts, &st.LastSnapshotAt,
	)
	if err != nil {
		return nil, fmt.Errorf("getting system state: %w", err)
	}
	return st, nil
}

// InsertJobRun records the start of a scheduled job and returns its UUID.
func (s *PostgresStore) InsertJobRun(ctx context.Context, jobName string) (string, error) {
	var id string
	if err := s.pool.QueryRow(ctx, queryInsertJobRun, jobName).Scan(&id); err != nil {
		return "", fmt.Errorf("inserting job run: %w", err)
	}
	return id, nil
}

// CompleteJobRun marks a job run as finished with the given status and metadata.
func (s *PostgresStore) CompleteJobRun(
	ctx context.Context,
	id string,
	status string,
	errText string,
	rowsAffected int,
) error {
	_, err := s.pool.Exec(ctx, queryCompleteJobRun, id, status, errText, rowsAffected)
	if err != nil {
		return fmt.Errorf("completing job run: %w", err)
	}
	return nil
}

// ListJobRuns returns the most recent runs for a specific job, newest first.
func (s *PostgresStore) ListJobRuns(
	ctx context.Context,
	jobName string,
	limit int,
) ([]domain.JobRun, error) {
	rows, err := s.pool.Query(ctx, queryListJobRuns, jobName, limit)
	if err != nil {
		return nil, fmt.Errorf("querying job runs: %w", err)
	}
	defer rows.Close()

	return scanJobRuns(rows)
}

// ListLatestJobRuns returns the single most recent run for each distinct job name.
func (s *PostgresStore) ListLatestJobRuns(ctx context.Context) ([]domain.JobRun, error) {
	rows, err := s.pool.Query(ctx, queryListLatestJobRuns)
	if err != nil {
		return nil, fmt.Errorf("querying latest job runs: %w", err)
	}
	defer rows.Close()

	return scanJobRuns(rows)
}

// RecoverStaleJobRuns marks any 'running' job rows older than olderThan as 'crashed',
// then deletes all rows older than 30 days. Returns the number of rows marked as crashed.
func (s *PostgresStore) RecoverStaleJobRuns(
	ctx context.Context,
	olderThan time.Duration,
) (int, error) {
	cutoff := time.Now().Add(-olderThan)

	tag, err := s.pool.Exec(ctx, queryMarkStaleJobRunsCrashed, cutoff)
	if err != nil {
		return 0, fmt.Errorf("marking stale job runs crashed: %w", err)
	}
	affected := int(tag.RowsAffected())

	if _, err := s.pool.Exec(ctx, queryDeleteOldJobRuns); err != nil {
		return affected, fmt.Errorf("deleting old job runs: %w", err)
	}

	return affected, nil
}

// AcquireSchedulerLock attempts to acquire a distributed lock for the given job.
// Returns true if the lock was acquired, false if another holder already owns it.
func (s *PostgresStore) AcquireSchedulerLock(
	ctx context.Context,
	jobName string,
	holder string,
	ttl time.Duration,
) (bool, error) {
	expiresAt := time.Now().Add(ttl)

	var gotName string
	err := s.pool.QueryRow(ctx, queryAcquireSchedulerLock, jobName, holder, expiresAt).Scan(&gotName)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil // lock held by another; conflict not replaced
	}
	if err != nil {
		return false, fmt.Errorf("acquiring scheduler lock: %w", err)
	}

	return true, nil
}

// ReleaseSchedulerLock deletes the lock row for the given job and holder.
func (s *PostgresStore) ReleaseSchedulerLock(
	ctx context.Context,
	jobName string,
	holder string,
) error {
	_, err := s.pool.Exec(ctx, queryReleaseSchedulerLock, jobName, holder)
	if err != nil {
		return fmt.Errorf("releasing scheduler lock: %w", err)
	}
	return nil
}

// scanJobRuns scans rows from a job_runs query into a slice.
func scanJobRuns(rows pgx.Rows) ([]domain.JobRun, error) {
	var runs []domain.JobRun
	for rows.Next() {
		var r domain.JobRun
		if err := rows.Scan(
			&r.ID, &r.JobName, &r.StartedAt, &r.CompletedAt,
			&r.Status, &r.ErrorText, &r.RowsAffected,
		); err != nil {
			return nil, fmt.Errorf("scanning job run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// queryListings is a helper for listing queries with positional parameters.
func (s *PostgresStore) queryListings(
	ctx context.Context,
	query string,
	args ...any,
) ([]domain.Listing, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying listings: %w", err)
	}
	defer rows.Close()

	var listings []domain.Listing
	for rows.Next() {
		var l domain.Listing
		if err := scanListing(rows, &l); err != nil {
			return nil, fmt.Errorf("scanning listing: %w", err)
		}
		listings = append(listings, l)
	}

	return listings, rows.Err()
}

// scannable abstracts pgx.Row and pgx.Rows for reuse.
type scannable interface {
	Scan(dest ...any) error
}

// scanListing scans a full listing row, reassembling the nested wire shapes
// from their flattened columns.
func scanListing(row scannable, l *domain.Listing) error {
	var (
		sellerID    *string
		condValue   *string
		refurbished *bool
		segment     string
	)

	err := row.Scan(
		&l.ID, &l.Title, &l.Description, &l.Price.Amount, &l.Price.Currency,
		&sellerID, &condValue, &refurbished,
		&segment, &l.PriceRecovered, &l.Enrichment,
		&l.CrawledAt, &l.FirstSeenAt, &l.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if sellerID != nil {
		l.User = &domain.UserRef{ID: *sellerID}
	}
	if condValue != nil {
		l.TypeAttributes = &domain.TypeAttributes{
			Condition: &domain.ConditionAttribute{Value: *condValue},
		}
	}
	if refurbished != nil {
		l.IsRefurbished = &domain.FlagAttribute{Flag: *refurbished}
	}
	l.Segment = domain.Segment(segment)

	return nil
}

func orDefaultCurrency(c string) string {
	if c == "" {
		return "EUR"
	}
	return c
}
