// Package scheduler owns the recurring collection triggers: a primary
// monthly job and a weekly catch-up job that compensates for a missed or
// failed monthly run. Both fire the same collection routine that the manual
// trigger invokes.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	defaultTimezone     = "America/Sao_Paulo"
	defaultMonthlySpec  = "0 9 10 * *"
	defaultWeeklySpec   = "0 8 * * 1"
	defaultCycleTimeout = 5 * time.Minute

	JobMonthly = "monthly"
	JobWeekly  = "weekly"
)

// CollectFunc runs one full collection cycle and reports processed counts
// per source. It must not fail; partial cycles report zeros.
type CollectFunc func(ctx context.Context) map[string]int

type Config struct {
	Timezone     string
	MonthlySpec  string
	WeeklySpec   string
	CycleTimeout time.Duration
}

// Status reports, per job name, whether the job is currently running, plus
// the configured timezone.
type Status struct {
	Jobs      map[string]bool
	TotalJobs int
	Timezone  string
}

type Scheduler struct {
	config   Config
	location *time.Location
	collect  CollectFunc
	logger   *slog.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	jobs    map[string]cron.EntryID
	running bool
}

func New(cfg Config, collect CollectFunc, logger *slog.Logger) (*Scheduler, error) {
	if cfg.Timezone == "" {
		cfg.Timezone = defaultTimezone
	}
	if cfg.MonthlySpec == "" {
		cfg.MonthlySpec = defaultMonthlySpec
	}
	if cfg.WeeklySpec == "" {
		cfg.WeeklySpec = defaultWeeklySpec
	}
	if cfg.CycleTimeout <= 0 {
		cfg.CycleTimeout = defaultCycleTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, err
	}

	return &Scheduler{
		config:   cfg,
		location: location,
		collect:  collect,
		logger:   logger.With("component", "scheduler"),
		jobs:     make(map[string]cron.EntryID),
	}, nil
}

// Start registers the standing jobs and begins firing them. Starting an
// already-running scheduler is a no-op.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	s.cron = cron.New(cron.WithLocation(s.location))

	monthlyID, err := s.cron.AddFunc(s.config.MonthlySpec, func() { s.runCycle(JobMonthly) })
	if err != nil {
		return err
	}
	weeklyID, err := s.cron.AddFunc(s.config.WeeklySpec, func() { s.runCycle(JobWeekly) })
	if err != nil {
		return err
	}

	s.jobs[JobMonthly] = monthlyID
	s.jobs[JobWeekly] = weeklyID
	s.cron.Start()
	s.running = true

	s.logger.Info("collection jobs started",
		"monthly", s.config.MonthlySpec,
		"weekly", s.config.WeeklySpec,
		"timezone", s.config.Timezone)
	return nil
}

// Stop halts and discards all jobs. A fired cycle already in flight runs to
// completion; its writes are idempotent upserts, so interruption never
// corrupts persisted state.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}

	s.cron.Stop()
	for name := range s.jobs {
		s.logger.Info("job stopped", "job", name)
		delete(s.jobs, name)
	}
	s.cron = nil
	s.running = false
}

// RunNow invokes the same collection routine the triggers use, outside of
// any trigger, for operator-initiated execution.
func (s *Scheduler) RunNow(ctx context.Context) map[string]int {
	s.logger.Info("manual collection requested")
	cycleCtx, cancel := context.WithTimeout(ctx, s.config.CycleTimeout)
	defer cancel()
	return s.collect(cycleCtx)
}

func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs := make(map[string]bool, len(s.jobs))
	for name := range s.jobs {
		jobs[name] = s.running
	}
	return Status{
		Jobs:      jobs,
		TotalJobs: len(s.jobs),
		Timezone:  s.config.Timezone,
	}
}

func (s *Scheduler) runCycle(job string) {
	s.logger.Info("scheduled collection starting", "job", job)
	ctx, cancel := context.WithTimeout(context.Background(), s.config.CycleTimeout)
	defer cancel()
	results := s.collect(ctx)
	s.logger.Info("scheduled collection finished", "job", job, "results", results)
}
