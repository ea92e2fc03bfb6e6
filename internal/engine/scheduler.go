package engine

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/robfig/cron/v3"
)

const lockTTLFactor = 2

// Scheduler manages periodic polling and statistics rebuild tasks. Jobs run
// under a store-backed lock so that multiple replicas never poll twice.
type Scheduler struct {
	cron   *cron.Cron
	engine *Engine
	holder string
	log    *slog.Logger

	pollInterval    time.Duration
	rebuildInterval time.Duration
}

// NewScheduler creates a new Scheduler that runs engine tasks on a schedule.
func NewScheduler(
	eng *Engine,
	pollInterval time.Duration,
	rebuildInterval time.Duration,
	log *slog.Logger,
) (*Scheduler, error) {
	c := cron.New()

	host, _ := os.Hostname()
	s := &Scheduler{
		cron:            c,
		engine:          eng,
		holder:          host,
		log:             log,
		pollInterval:    pollInterval,
		rebuildInterval: rebuildInterval,
	}

	if _, err := c.AddFunc("@every "+pollInterval.String(), s.runPoll); err != nil {
		return nil, err
	}

	if _, err := c.AddFunc("@every "+rebuildInterval.String(), s.runRebuild); err != nil {
		return nil, err
	}

	return s, nil
}

// Start begins running scheduled tasks.
func (s *Scheduler) Start() {
	s.log.Info("scheduler started",
		"poll_interval", s.pollInterval,
		"rebuild_interval", s.rebuildInterval,
	)
	s.cron.Start()
}

// Stop gracefully stops the scheduler, waiting for running jobs to finish.
func (s *Scheduler) Stop() context.Context {
	s.log.Info("scheduler stopping")
	return s.cron.Stop()
}

// Entries returns the registered cron entries for inspection.
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

func (s *Scheduler) runPoll() {
	s.runLocked("poll", s.pollInterval, s.engine.RunPoll)
}

func (s *Scheduler) runRebuild() {
	s.runLocked("rebuild_stats", s.rebuildInterval, s.engine.RunStatsRebuild)
}

func (s *Scheduler) runLocked(name string, interval time.Duration, job func(context.Context) error) {
	ctx := context.Background()

	ok, err := s.engine.store.AcquireSchedulerLock(ctx, name, s.holder, interval*lockTTLFactor)
	if err != nil {
		s.log.Error("acquiring scheduler lock failed", "job", name, "error", err)
		return
	}
	if !ok {
		s.log.Info("scheduler lock held elsewhere, skipping", "job", name)
		return
	}
	defer func() {
		if err := s.engine.store.ReleaseSchedulerLock(ctx, name, s.holder); err != nil {
			s.log.Warn("releasing scheduler lock failed", "job", name, "err", err)
		}
	}()

	s.log.Info("scheduled job starting", "job", name)
	if err := job(ctx); err != nil {
		s.log.Error("scheduled job failed", "job", name, "error", err)
	}
}
