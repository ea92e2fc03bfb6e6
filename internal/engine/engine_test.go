package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/secondhand-labs/fraudlens/internal/marketplace"
	"github.com/secondhand-labs/fraudlens/internal/notify"
	"github.com/secondhand-labs/fraudlens/internal/store"
	"github.com/secondhand-labs/fraudlens/pkg/marketstats"
	domain "github.com/secondhand-labs/fraudlens/pkg/types"
)

// quietLogger returns a logger that discards output for tests.
func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeStore is an in-memory Store for engine tests.
type fakeStore struct {
	mu        sync.Mutex
	listings  map[string]*domain.Listing
	alerts    []*domain.Alert
	snapshots []*domain.StatsSnapshot
	jobRuns   map[string]*domain.JobRun
	locks     map[string]string
	nextRunID int

	upsertErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		listings: make(map[string]*domain.Listing),
		jobRuns:  make(map[string]*domain.JobRun),
		locks:    make(map[string]string),
	}
}

func (f *fakeStore) UpsertListing(_ context.Context, l *domain.Listing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	cp := *l
	f.listings[l.ID] = &cp
	return nil
}

func (f *fakeStore) GetListing(_ context.Context, id string) (*domain.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.listings[id]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (f *fakeStore) ListListings(context.Context, *store.ListingQuery) ([]domain.Listing, int, error) {
	return nil, 0, nil
}

func (f *fakeStore) UpdateEnrichment(_ context.Context, l *domain.Listing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *l
	f.listings[l.ID] = &cp
	return nil
}

func (f *fakeStore) ListUnscoredListings(_ context.Context, limit int) ([]domain.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Listing
	for _, l := range f.listings {
		if l.Enrichment == nil && len(out) < limit {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (f *fakeStore) ListScoredSince(_ context.Context, since time.Time, limit int) ([]domain.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Listing
	for _, l := range f.listings {
		if l.Enrichment != nil && len(out) < limit {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (f *fakeStore) InsertStatsSnapshot(_ context.Context, s *domain.StatsSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s.ID = "snap"
	s.BuiltAt = time.Now()
	cp := *s
	f.snapshots = append(f.snapshots, &cp)
	return nil
}

func (f *fakeStore) GetLatestStatsSnapshot(context.Context) (*domain.StatsSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.snapshots) == 0 {
		return nil, nil
	}
	cp := *f.snapshots[len(f.snapshots)-1]
	return &cp, nil
}

func (f *fakeStore) CreateAlert(_ context.Context, a *domain.Alert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.alerts {
		if existing.ListingID == a.ListingID && !existing.Notified {
			return nil // duplicate pending alert is a no-op
		}
	}
	a.ID = "alert-" + a.ListingID
	a.CreatedAt = time.Now()
	cp := *a
	f.alerts = append(f.alerts, &cp)
	return nil
}

func (f *fakeStore) ListPendingAlerts(context.Context) ([]domain.Alert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Alert
	for _, a := range f.alerts {
		if !a.Notified {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeStore) MarkAlertNotified(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	for _, a := range f.alerts {
		if a.ID == id {
			a.Notified = true
			a.NotifiedAt = &now
		}
	}
	return nil
}

func (f *fakeStore) HasRecentAlert(_ context.Context, listingID string, cooldown time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cutoff := time.Now().Add(-cooldown)
	for _, a := range f.alerts {
		if a.ListingID == listingID && a.Notified && a.NotifiedAt.After(cutoff) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) GetSystemState(_ context.Context, threshold int) (*domain.SystemState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st := &domain.SystemState{TotalListings: len(f.listings)}
	for _, l := range f.listings {
		if l.Enrichment == nil {
			st.UnscoredListings++
		} else if l.Enrichment.RiskScore >= threshold {
			st.HighRiskListings++
		}
	}
	for _, a := range f.alerts {
		if !a.Notified {
			st.PendingAlerts++
		}
	}
	return st, nil
}

func (f *fakeStore) InsertJobRun(_ context.Context, jobName string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextRunID++
	id := jobName + "-run"
	f.jobRuns[id] = &domain.JobRun{ID: id, JobName: jobName, Status: "running", StartedAt: time.Now()}
	return id, nil
}

func (f *fakeStore) CompleteJobRun(_ context.Context, id, status, errText string, rows int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.jobRuns[id]; ok {
		now := time.Now()
		r.Status = status
		r.ErrorText = errText
		r.RowsAffected = rows
		r.CompletedAt = &now
	}
	return nil
}

func (f *fakeStore) ListJobRuns(context.Context, string, int) ([]domain.JobRun, error) {
	return nil, nil
}

func (f *fakeStore) ListLatestJobRuns(context.Context) ([]domain.JobRun, error) {
	return nil, nil
}

func (f *fakeStore) RecoverStaleJobRuns(context.Context, time.Duration) (int, error) {
	return 0, nil
}

func (f *fakeStore) AcquireSchedulerLock(_ context.Context, jobName, holder string, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if h, held := f.locks[jobName]; held && h != holder {
		return false, nil
	}
	f.locks[jobName] = holder
	return true, nil
}

func (f *fakeStore) ReleaseSchedulerLock(_ context.Context, jobName, holder string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.locks[jobName] == holder {
		delete(f.locks, jobName)
	}
	return nil
}

func (f *fakeStore) Migrate(context.Context) error { return nil }
func (f *fakeStore) Ping(context.Context) error    { return nil }

// fakeMarket serves canned marketplace responses.
type fakeMarket struct {
	pages   map[string]*marketplace.SearchPage
	details map[string]*marketplace.ItemDetail
	users   map[string]*marketplace.UserProfile
	reviews map[string][]marketplace.Review
}

func (f *fakeMarket) Search(_ context.Context, req marketplace.SearchRequest) (*marketplace.SearchPage, error) {
	if page, ok := f.pages[req.Keywords]; ok {
		return page, nil
	}
	return &marketplace.SearchPage{}, nil
}

func (f *fakeMarket) Item(_ context.Context, id string) (*marketplace.ItemDetail, error) {
	if d, ok := f.details[id]; ok {
		return d, nil
	}
	return nil, errors.New("not found")
}

func (f *fakeMarket) User(_ context.Context, id string) (*marketplace.UserProfile, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, errors.New("not found")
}

func (f *fakeMarket) Reviews(_ context.Context, id string) ([]marketplace.Review, error) {
	return f.reviews[id], nil
}

// fakeNotifier records sent payloads.
type fakeNotifier struct {
	mu      sync.Mutex
	single  []notify.AlertPayload
	batches [][]notify.AlertPayload
	err     error
}

func (f *fakeNotifier) SendAlert(_ context.Context, a *notify.AlertPayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.single = append(f.single, *a)
	return nil
}

func (f *fakeNotifier) SendBatchAlert(_ context.Context, alerts []notify.AlertPayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.batches = append(f.batches, alerts)
	return nil
}

// appleUsedTable yields APPLE/USED populations with avg 1200, stdev 150.
func appleUsedTable() *marketstats.Table {
	b := marketstats.NewBuilder()
	for _, price := range []float64{1050, 1350} {
		b.Add(marketstats.Sample{
			Category:  domain.CategoryApple,
			Condition: domain.ConditionUsed,
			Segment:   domain.SegmentPrime,
			Specs:     domain.SpecSet{CPU: "APPLE M2", RAM: "16GB"},
			Price:     price,
		})
	}
	return b.Build()
}

func searchItems(items ...marketplace.Item) *marketplace.SearchPage {
	return &marketplace.SearchPage{Items: items}
}

func newTestEngine(s store.Store, m marketplace.Client, n notify.Notifier, opts ...EngineOption) *Engine {
	base := append([]EngineOption{
		WithLogger(quietLogger()),
		WithStaggerOffset(0),
	}, opts...)
	return NewEngine(s, m, n, base...)
}

func TestNewEngine_Defaults(t *testing.T) {
	t.Parallel()

	eng := NewEngine(newFakeStore(), &fakeMarket{}, &fakeNotifier{})
	assert.Equal(t, defaultRiskThreshold, eng.riskThreshold)
	assert.Equal(t, defaultReAlertCooldown, eng.reAlertCooldown)
	assert.Equal(t, []string{"portatil"}, eng.keywords)
	assert.False(t, eng.reAlertsEnabled)
	assert.NotNil(t, eng.currentScorer())
}

func TestRunPoll_ScoresAndAlerts(t *testing.T) {
	t.Parallel()

	fs := newFakeStore()
	fm := &fakeMarket{pages: map[string]*marketplace.SearchPage{
		"macbook": searchItems(marketplace.Item{
			ID:          "mb1",
			Title:       "Macbook Pro M2 16GB",
			Description: "oportunidad",
			Price:       domain.Price{Amount: 300, Currency: "EUR"},
			User:        &domain.UserRef{ID: "u1"},
		}),
	}}
	fn := &fakeNotifier{}

	eng := newTestEngine(fs, fm, fn, WithKeywords([]string{"macbook"}))
	eng.SetStatsTable(appleUsedTable())

	require.NoError(t, eng.RunPoll(context.Background()))

	got, err := fs.GetListing(context.Background(), "mb1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.NotNil(t, got.Enrichment)
	assert.Equal(t, 100, got.Enrichment.RiskScore)
	assert.Equal(t, domain.SegmentPrime, got.Segment)
	assert.Equal(t, domain.CategoryApple, got.Enrichment.MarketAnalysis.Category)

	// The alert fired and was notified in the same cycle.
	require.Len(t, fn.single, 1)
	assert.Equal(t, 100, fn.single[0].RiskScore)
	assert.Equal(t, "u1", fn.single[0].Seller)

	pending, err := fs.ListPendingAlerts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pending)

	run := fs.jobRuns["poll-run"]
	require.NotNil(t, run)
	assert.Equal(t, "success", run.Status)
	assert.Equal(t, 1, run.RowsAffected)
}

func TestRunPoll_FairPriceNoAlert(t *testing.T) {
	t.Parallel()

	fs := newFakeStore()
	fm := &fakeMarket{pages: map[string]*marketplace.SearchPage{
		"macbook": searchItems(marketplace.Item{
			ID:          "mb2",
			Title:       "Macbook Pro M2 16GB",
			Description: "macbook en perfecto estado, con cargador original incluido",
			Price:       domain.Price{Amount: 1150, Currency: "EUR"},
		}),
	}}
	fn := &fakeNotifier{}

	eng := newTestEngine(fs, fm, fn, WithKeywords([]string{"macbook"}))
	eng.SetStatsTable(appleUsedTable())

	require.NoError(t, eng.RunPoll(context.Background()))

	got, _ := fs.GetListing(context.Background(), "mb2")
	require.NotNil(t, got.Enrichment)
	assert.Zero(t, got.Enrichment.RiskScore)
	assert.Empty(t, fn.single)
	assert.Empty(t, fs.alerts)
}

func TestProcessListing_HiddenPriceRecovery(t *testing.T) {
	t.Parallel()

	fs := newFakeStore()
	eng := newTestEngine(fs, &fakeMarket{}, &fakeNotifier{})

	l := &domain.Listing{
		ID:          "hp1",
		Title:       "Portatil HP i5",
		Description: "vendo por 450 euros, como nuevo",
		Price:       domain.Price{Amount: 0},
	}
	assert.True(t, eng.processListing(context.Background(), l))
	assert.InDelta(t, 450, l.Price.Amount, 0.001)
	assert.True(t, l.PriceRecovered)

	got, _ := fs.GetListing(context.Background(), "hp1")
	require.NotNil(t, got)
	assert.True(t, got.PriceRecovered)
	require.NotNil(t, got.Enrichment)
	assert.Contains(t, got.Enrichment.RiskFactors, "price recovered from description")
}

func TestProcessListing_UnrecoverablePriceDropped(t *testing.T) {
	t.Parallel()

	fs := newFakeStore()
	eng := newTestEngine(fs, &fakeMarket{}, &fakeNotifier{})

	l := &domain.Listing{
		ID:          "hp2",
		Title:       "Portatil regalo",
		Description: "pregunta sin compromiso",
		Price:       domain.Price{Amount: 0},
	}
	assert.False(t, eng.processListing(context.Background(), l))

	got, _ := fs.GetListing(context.Background(), "hp2")
	assert.Nil(t, got)
}

func TestProcessListing_DeepFetchVerifiedCondition(t *testing.T) {
	t.Parallel()

	fs := newFakeStore()
	fm := &fakeMarket{details: map[string]*marketplace.ItemDetail{
		"df1": {
			TypeAttributes: &domain.TypeAttributes{
				Condition: &domain.ConditionAttribute{Value: "as_good_as_new"},
			},
		},
	}}
	eng := newTestEngine(fs, fm, &fakeNotifier{}, WithDeepFetch(true))

	l := &domain.Listing{
		ID:          "df1",
		Title:       "Portatil Lenovo i7",
		Description: "portatil lenovo seminuevo con garantia",
		Price:       domain.Price{Amount: 600},
	}
	require.True(t, eng.processListing(context.Background(), l))

	got, _ := fs.GetListing(context.Background(), "df1")
	require.NotNil(t, got.Enrichment)
	assert.Contains(t, got.Enrichment.RiskFactors, "Verified Condition: as_good_as_new")
	assert.Equal(t, domain.ConditionLikeNew, got.Enrichment.MarketAnalysis.Condition)
}

func TestProcessListing_ReputationScamSeller(t *testing.T) {
	t.Parallel()

	fs := newFakeStore()
	fm := &fakeMarket{
		pages: map[string]*marketplace.SearchPage{},
		users: map[string]*marketplace.UserProfile{
			"scammer": {ID: "scammer", ScamReports: 3},
		},
	}
	eng := newTestEngine(fs, fm, &fakeNotifier{}, WithReputationEnrichment(true))
	eng.SetStatsTable(appleUsedTable())

	l := &domain.Listing{
		ID:          "rs1",
		Title:       "Macbook Pro M2 16GB",
		Description: "urge",
		Price:       domain.Price{Amount: 300},
		User:        &domain.UserRef{ID: "scammer"},
	}
	require.True(t, eng.processListing(context.Background(), l))

	got, _ := fs.GetListing(context.Background(), "rs1")
	require.NotNil(t, got.Enrichment)
	assert.Equal(t, 100, got.Enrichment.RiskScore)
	assert.Contains(t, got.Enrichment.RiskFactors, "seller has scam reports")
}

func TestEvaluateAlert_PriorAlertSuppresses(t *testing.T) {
	t.Parallel()

	fs := newFakeStore()
	eng := newTestEngine(fs, &fakeMarket{}, &fakeNotifier{})

	l := &domain.Listing{ID: "dup1"}
	res := &domain.RiskResult{RiskScore: 90, RiskFactors: []string{"test"}}

	eng.evaluateAlert(context.Background(), l, res)
	require.Len(t, fs.alerts, 1)
	require.NoError(t, fs.MarkAlertNotified(context.Background(), fs.alerts[0].ID))

	// Re-alerts are disabled by default: no second alert, ever.
	eng.evaluateAlert(context.Background(), l, res)
	assert.Len(t, fs.alerts, 1)
}

func TestRunStatsRebuild(t *testing.T) {
	t.Parallel()

	fs := newFakeStore()
	eng := newTestEngine(fs, &fakeMarket{}, &fakeNotifier{})

	// Two scored PRIME listings sharing a cell.
	for i, price := range []float64{1050, 1350} {
		id := string(rune('a' + i))
		fs.listings[id] = &domain.Listing{
			ID:      id,
			Price:   domain.Price{Amount: price},
			Segment: domain.SegmentPrime,
			Enrichment: &domain.RiskResult{
				MarketAnalysis: domain.MarketAnalysis{
					Category:  domain.CategoryApple,
					Condition: domain.ConditionUsed,
					Specs:     domain.SpecSet{CPU: "APPLE M2"},
				},
			},
		}
	}
	// One unscored listing becomes scorable after the rebuild.
	fs.listings["pending"] = &domain.Listing{
		ID:          "pending",
		Title:       "Macbook Pro M2",
		Description: "macbook a muy buen precio por no usarlo",
		Price:       domain.Price{Amount: 1200},
	}

	require.NoError(t, eng.RunStatsRebuild(context.Background()))

	require.Len(t, fs.snapshots, 1)
	assert.Equal(t, 2, fs.snapshots[0].SampleCount)
	assert.Positive(t, fs.snapshots[0].CellCount)

	got, _ := fs.GetListing(context.Background(), "pending")
	require.NotNil(t, got.Enrichment, "backlog is re-scored after the rebuild")

	run := fs.jobRuns["rebuild_stats-run"]
	require.NotNil(t, run)
	assert.Equal(t, "success", run.Status)
}

func TestLoadStats_FromSnapshot(t *testing.T) {
	t.Parallel()

	fs := newFakeStore()
	eng := newTestEngine(fs, &fakeMarket{}, &fakeNotifier{})
	eng.SetStatsTable(appleUsedTable())

	// Persist a snapshot, then arm a fresh engine from it.
	require.NoError(t, eng.RunStatsRebuild(context.Background()))
	fs2 := newFakeStore()
	fs2.snapshots = fs.snapshots

	eng2 := newTestEngine(fs2, &fakeMarket{}, &fakeNotifier{})
	require.NoError(t, eng2.LoadStats(context.Background()))
}

func TestLoadStats_ColdStart(t *testing.T) {
	t.Parallel()

	eng := newTestEngine(newFakeStore(), &fakeMarket{}, &fakeNotifier{})
	require.NoError(t, eng.LoadStats(context.Background()))
}
