// Package engine implements the core business logic loops:
// polling, scoring, statistics rebuilds, and alert evaluation.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/secondhand-labs/fraudlens/internal/marketplace"
	"github.com/secondhand-labs/fraudlens/internal/metrics"
	"github.com/secondhand-labs/fraudlens/internal/notify"
	"github.com/secondhand-labs/fraudlens/internal/store"
	"github.com/secondhand-labs/fraudlens/internal/telemetry"
	"github.com/secondhand-labs/fraudlens/pkg/analyze"
	"github.com/secondhand-labs/fraudlens/pkg/marketstats"
	"github.com/secondhand-labs/fraudlens/pkg/riskscore"
	domain "github.com/secondhand-labs/fraudlens/pkg/types"
)

const (
	defaultRiskThreshold   = 50
	defaultReAlertCooldown = 24 * time.Hour
	defaultRebuildWindow   = 30 * 24 * time.Hour
	defaultRebuildLimit    = 10000

	// Window used when re-alerts are disabled: any prior alert suppresses.
	reAlertNever = 50 * 365 * 24 * time.Hour
)

var tracer = telemetry.Tracer("fraudlens/engine")

// Engine orchestrates polling, enrichment, scoring, and alerting.
type Engine struct {
	store    store.Store
	market   marketplace.Client
	notifier notify.Notifier
	log      *slog.Logger

	paginator        *marketplace.Paginator
	keywords         []string
	deepFetch        bool
	enrichReputation bool
	weights          riskscore.Weights
	suspiciousZ      float64
	riskThreshold    int
	reAlertsEnabled  bool
	reAlertCooldown  time.Duration
	staggerOffset    time.Duration
	rebuildWindow    time.Duration
	statsPath        string
	listingURLBase   string
	nowFunc          func() time.Time

	mu     sync.RWMutex
	scorer *riskscore.Scorer
}

// NewEngine creates a new Engine with injected dependencies. It starts with
// an empty statistics table; call LoadStats or RunStatsRebuild to arm the
// market comparison.
func NewEngine(
	s store.Store,
	m marketplace.Client,
	n notify.Notifier,
	opts ...EngineOption,
) *Engine {
	eng := &Engine{
		store:            s,
		market:           m,
		notifier:         n,
		log:              slog.Default(),
		keywords:         []string{"portatil"},
		weights:          riskscore.DefaultWeights(),
		suspiciousZ:      -1.5,
		riskThreshold:    defaultRiskThreshold,
		reAlertsEnabled:  false,
		reAlertCooldown:  defaultReAlertCooldown,
		staggerOffset:    30 * time.Second,
		rebuildWindow:    defaultRebuildWindow,
		nowFunc:          time.Now,
	}
	for _, opt := range opts {
		opt(eng)
	}
	eng.scorer = riskscore.New(nil, riskscore.WithWeights(eng.weights))
	return eng
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) { e.log = l }
}

// WithKeywords sets the search keywords polled each cycle.
func WithKeywords(kws []string) EngineOption {
	return func(e *Engine) {
		if len(kws) > 0 {
			e.keywords = kws
		}
	}
}

// WithPaginator sets the paginator for multi-page marketplace searches.
func WithPaginator(p *marketplace.Paginator) EngineOption {
	return func(e *Engine) { e.paginator = p }
}

// WithDeepFetch enables the per-listing item detail lookup.
func WithDeepFetch(enabled bool) EngineOption {
	return func(e *Engine) { e.deepFetch = enabled }
}

// WithReputationEnrichment enables the selective seller reputation pass.
func WithReputationEnrichment(enabled bool) EngineOption {
	return func(e *Engine) { e.enrichReputation = enabled }
}

// WithWeights sets the component weights used by the scorer.
func WithWeights(w riskscore.Weights) EngineOption {
	return func(e *Engine) { e.weights = w }
}

// WithSuspiciousZ sets the Z-score below which reputation enrichment triggers.
func WithSuspiciousZ(z float64) EngineOption {
	return func(e *Engine) { e.suspiciousZ = z }
}

// WithRiskThreshold sets the minimum risk score that fires an alert.
func WithRiskThreshold(n int) EngineOption {
	return func(e *Engine) { e.riskThreshold = n }
}

// WithReAlerts configures whether a listing may alert again after the cooldown.
func WithReAlerts(enabled bool, cooldown time.Duration) EngineOption {
	return func(e *Engine) {
		e.reAlertsEnabled = enabled
		if cooldown > 0 {
			e.reAlertCooldown = cooldown
		}
	}
}

// WithStaggerOffset sets the delay between processing each keyword.
func WithStaggerOffset(d time.Duration) EngineOption {
	return func(e *Engine) { e.staggerOffset = d }
}

// WithRebuildWindow sets how far back the statistics rebuild looks.
func WithRebuildWindow(d time.Duration) EngineOption {
	return func(e *Engine) { e.rebuildWindow = d }
}

// WithStatsPath sets the JSON file the stats table is mirrored to, for the
// offline scoring command.
func WithStatsPath(path string) EngineOption {
	return func(e *Engine) { e.statsPath = path }
}

// WithListingURLBase sets the web URL prefix used to link alert
// notifications back to the marketplace listing.
func WithListingURLBase(base string) EngineOption {
	return func(e *Engine) { e.listingURLBase = base }
}

// WithNowFunc overrides the time source, for tests.
func WithNowFunc(f func() time.Time) EngineOption {
	return func(e *Engine) { e.nowFunc = f }
}

// SetStatsTable swaps the active statistics table and rebuilds the scorer.
func (eng *Engine) SetStatsTable(t *marketstats.Table) {
	eng.mu.Lock()
	defer eng.mu.Unlock()
	eng.scorer = riskscore.New(t, riskscore.WithWeights(eng.weights))
	metrics.StatsTableCells.Set(float64(t.Cells()))
}

// ScoreListing scores one listing against the active statistics table
// without persisting anything. Serves the ad-hoc scoring endpoint.
func (eng *Engine) ScoreListing(l *domain.Listing) *domain.RiskResult {
	return eng.currentScorer().Score(l)
}

func (eng *Engine) currentScorer() *riskscore.Scorer {
	eng.mu.RLock()
	defer eng.mu.RUnlock()
	return eng.scorer
}

// LoadStats arms the scorer with the newest persisted statistics table:
// the latest database snapshot, falling back to the JSON file mirror.
// A cold start with neither is not an error.
func (eng *Engine) LoadStats(ctx context.Context) error {
	snap, err := eng.store.GetLatestStatsSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("loading stats snapshot: %w", err)
	}
	if snap != nil {
		var t marketstats.Table
		if err := t.UnmarshalJSON(snap.Table); err != nil {
			return fmt.Errorf("parsing stats snapshot: %w", err)
		}
		eng.SetStatsTable(&t)
		eng.log.Info("stats table loaded from snapshot", "cells", t.Cells(), "built_at", snap.BuiltAt)
		return nil
	}

	if eng.statsPath == "" {
		return nil
	}
	t, err := marketstats.Load(eng.statsPath)
	if err != nil {
		eng.log.Warn("no stats table available, starting cold", "err", err)
		return nil
	}
	eng.SetStatsTable(t)
	eng.log.Info("stats table loaded from file", "path", eng.statsPath, "cells", t.Cells())
	return nil
}

// RunPoll executes one full poll cycle: search every configured keyword,
// enrich, score, persist, and fire alerts.
func (eng *Engine) RunPoll(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "engine.poll")
	defer span.End()

	start := eng.nowFunc()
	defer func() {
		metrics.PollDuration.Observe(time.Since(start).Seconds())
	}()

	runID, err := eng.store.InsertJobRun(ctx, "poll")
	if err != nil {
		eng.log.Warn("recording job run failed", "err", err)
	}

	processed, pollErr := eng.pollKeywords(ctx)
	span.SetAttributes(attribute.Int("listings.processed", processed))
	if pollErr != nil {
		span.SetStatus(codes.Error, pollErr.Error())
	}

	if runID != "" {
		status, errText := "success", ""
		if pollErr != nil {
			status, errText = "failed", pollErr.Error()
		}
		if err := eng.store.CompleteJobRun(ctx, runID, status, errText, processed); err != nil {
			eng.log.Warn("completing job run failed", "err", err)
		}
	}

	// Always flush alerts, even after a partial cycle.
	if err := ProcessAlerts(ctx, eng.store, eng.notifier, eng.listingURLBase, eng.log); err != nil {
		eng.log.Error("alert processing failed", "error", err)
	}

	eng.SyncStateMetrics(ctx)

	return pollErr
}

func (eng *Engine) pollKeywords(ctx context.Context) (int, error) {
	state, err := eng.store.GetSystemState(ctx, eng.riskThreshold)
	if err != nil {
		return 0, fmt.Errorf("reading system state: %w", err)
	}
	firstRun := state.TotalListings == 0

	var processed int
	for i, kw := range eng.keywords {
		if ctx.Err() != nil {
			return processed, ctx.Err()
		}

		eng.log.Info("polling keyword", "keyword", kw, "first_run", firstRun)

		n, err := eng.pollKeyword(ctx, kw, firstRun)
		processed += n

		if err != nil {
			if errors.Is(err, marketplace.ErrCoolingDown) {
				eng.log.Warn("marketplace cooling down, stopping cycle", "keyword", kw)
				return processed, nil
			}
			eng.log.Error("keyword poll failed", "keyword", kw, "error", err)
			metrics.PollErrorsTotal.Inc()
			continue
		}

		// Stagger between keywords to avoid API bursts.
		if i < len(eng.keywords)-1 && eng.staggerOffset > 0 {
			select {
			case <-ctx.Done():
				return processed, ctx.Err()
			case <-time.After(eng.staggerOffset):
			}
		}
	}

	return processed, nil
}

func (eng *Engine) pollKeyword(ctx context.Context, keyword string, firstRun bool) (int, error) {
	req := marketplace.SearchRequest{Keywords: keyword}

	var listings []domain.Listing
	if eng.paginator != nil {
		result, err := eng.paginator.Paginate(ctx, req, firstRun)
		if err != nil {
			return 0, fmt.Errorf("paginating search: %w", err)
		}
		listings = result.NewListings
		eng.log.Info("paginated search complete",
			"keyword", keyword,
			"pages_used", result.PagesUsed,
			"total_seen", result.TotalSeen,
			"new_listings", len(result.NewListings),
			"stopped_at", result.StoppedAt,
		)
	} else {
		page, err := eng.market.Search(ctx, req)
		if err != nil {
			return 0, fmt.Errorf("searching marketplace: %w", err)
		}
		listings = marketplace.ToListings(page.Items, eng.nowFunc())
	}

	var processed int
	for i := range listings {
		if ctx.Err() != nil {
			return processed, ctx.Err()
		}
		if eng.processListing(ctx, &listings[i]) {
			processed++
		}
	}

	return processed, nil
}

// processListing runs the full per-listing pipeline. Returns false when the
// listing was dropped instead of persisted.
func (eng *Engine) processListing(ctx context.Context, l *domain.Listing) bool {
	if eng.deepFetch {
		detail, err := eng.market.Item(ctx, l.ID)
		if err != nil {
			eng.log.Warn("item detail fetch failed", "listing", l.ID, "err", err)
		} else {
			marketplace.ApplyDetail(l, detail)
		}
	}

	// Sellers hide the real price behind a symbolic one; recover it from the
	// text before scoring, and drop the listing if nothing turns up.
	if l.Price.Amount < 1 {
		recovered := analyze.RecoverHiddenPrice(l.Title + " " + l.Description)
		if recovered <= 0 {
			eng.log.Debug("dropping listing with unrecoverable price", "listing", l.ID)
			return false
		}
		l.Price.Amount = recovered
		l.PriceRecovered = true
		metrics.HiddenPricesRecovered.Inc()
	}

	if err := eng.store.UpsertListing(ctx, l); err != nil {
		eng.log.Error("upsert failed", "listing", l.ID, "error", err)
		return false
	}
	metrics.PollListingsTotal.Inc()

	res := eng.currentScorer().Score(l)

	if l.TypeAttributes != nil && l.TypeAttributes.Condition != nil {
		res.RiskFactors = append(res.RiskFactors,
			"Verified Condition: "+l.TypeAttributes.Condition.Value)
	}
	if l.PriceRecovered {
		res.RiskFactors = append(res.RiskFactors, "price recovered from description")
	}

	if eng.enrichReputation && l.User != nil && eng.shouldEnrich(l, res) {
		eng.applyReputation(ctx, l, res)
	}

	metrics.RiskScoreDistribution.Observe(float64(res.RiskScore))

	l.Segment = analyze.Segment(l.Title, l.Price.Amount,
		res.MarketAnalysis.Condition, res.MarketAnalysis.Specs)
	l.Enrichment = res

	if err := eng.store.UpdateEnrichment(ctx, l); err != nil {
		eng.log.Error("persisting enrichment failed", "listing", l.ID, "error", err)
		return false
	}

	eng.evaluateAlert(ctx, l, res)
	return true
}

// shouldEnrich gates the expensive reputation lookups: only listings that
// already look suspicious are worth two extra API calls.
func (eng *Engine) shouldEnrich(l *domain.Listing, res *domain.RiskResult) bool {
	if res.MarketAnalysis.CompositeZScore < eng.suspiciousZ &&
		len(res.MarketAnalysis.ComponentsUsed) > 0 {
		return true
	}
	if l.PriceRecovered {
		return true
	}
	for _, f := range res.RiskFactors {
		if strings.Contains(f, "external contact") {
			return true
		}
	}
	return false
}

func (eng *Engine) applyReputation(ctx context.Context, l *domain.Listing, res *domain.RiskResult) {
	metrics.ReputationLookupsTotal.Inc()

	profile, err := eng.market.User(ctx, l.User.ID)
	if err != nil {
		eng.log.Warn("user lookup failed", "seller", l.User.ID, "err", err)
		return
	}
	reviews, err := eng.market.Reviews(ctx, l.User.ID)
	if err != nil {
		eng.log.Warn("reviews lookup failed", "seller", l.User.ID, "err", err)
		reviews = nil
	}

	seller := marketplace.ToSellerProfile(profile, reviews, eng.nowFunc())
	riskscore.AdjustForSeller(res, seller)
}

func (eng *Engine) evaluateAlert(ctx context.Context, l *domain.Listing, res *domain.RiskResult) {
	if res.RiskScore < eng.riskThreshold {
		return
	}

	window := eng.reAlertCooldown
	if !eng.reAlertsEnabled {
		window = reAlertNever
	}
	recent, err := eng.store.HasRecentAlert(ctx, l.ID, window)
	if err != nil {
		eng.log.Error("checking recent alert failed", "listing", l.ID, "error", err)
		return
	}
	if recent {
		return
	}

	alert := &domain.Alert{
		ListingID:   l.ID,
		RiskScore:   res.RiskScore,
		RiskFactors: res.RiskFactors,
	}
	if err := eng.store.CreateAlert(ctx, alert); err != nil {
		eng.log.Error("creating alert failed", "listing", l.ID, "error", err)
	}
}

// RescoreUnscored scores listings that were persisted but never scored,
// e.g. after a crash mid-cycle. Returns the number of listings scored.
func (eng *Engine) RescoreUnscored(ctx context.Context, limit int) (int, error) {
	listings, err := eng.store.ListUnscoredListings(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("listing unscored: %w", err)
	}

	var scored int
	for i := range listings {
		l := &listings[i]
		res := eng.currentScorer().Score(l)
		metrics.RiskScoreDistribution.Observe(float64(res.RiskScore))

		l.Segment = analyze.Segment(l.Title, l.Price.Amount,
			res.MarketAnalysis.Condition, res.MarketAnalysis.Specs)
		l.Enrichment = res

		if err := eng.store.UpdateEnrichment(ctx, l); err != nil {
			eng.log.Error("persisting enrichment failed", "listing", l.ID, "error", err)
			continue
		}
		eng.evaluateAlert(ctx, l, res)
		scored++
	}

	return scored, nil
}

// SyncStateMetrics refreshes the state gauges from the store.
func (eng *Engine) SyncStateMetrics(ctx context.Context) {
	state, err := eng.store.GetSystemState(ctx, eng.riskThreshold)
	if err != nil {
		eng.log.Warn("reading system state failed", "err", err)
		return
	}
	metrics.TotalListingsGauge.Set(float64(state.TotalListings))
	metrics.UnscoredListingsGauge.Set(float64(state.UnscoredListings))
	metrics.HighRiskListingsGauge.Set(float64(state.HighRiskListings))
	metrics.PendingAlertsGauge.Set(float64(state.PendingAlerts))
}
