// Package checkservice runs registered health checks and keeps their latest
// non-healthy results.
//
// All checks run once at startup. Afterwards only schedulable checks are
// re-run on the configured cron schedule; a check that reports Schedulable()
// false, such as the runtime version rule, runs again only through RunAll.
package checkservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	runtimehealth "github.com/zero-day-ai/runtimehealth"
	"github.com/zero-day-ai/runtimehealth/health"
	"github.com/zero-day-ai/runtimehealth/localization"
	"github.com/zero-day-ai/runtimehealth/store"
	"github.com/zero-day-ai/runtimehealth/types"
)

// Defaults applied by New.
const (
	DefaultConcurrency = 4
	DefaultSchedule    = "@every 6h"
)

var (
	// ErrDuplicateCheck is returned when a check ID is registered twice.
	ErrDuplicateCheck = errors.New("duplicate health check")

	// ErrAlreadyStarted is returned by a second call to Start.
	ErrAlreadyStarted = errors.New("check service already started")

	// ErrNilCheck is returned when Register is given a nil check.
	ErrNilCheck = errors.New("nil health check")
)

// Options configures a Service.
type Options struct {
	// Store keeps non-healthy results. Default: store.NewMemory().
	Store store.Store

	// Publisher, when set, receives a CompletedEvent after every run.
	Publisher store.Publisher

	// Concurrency bounds how many checks run at once. Default: 4.
	Concurrency int

	// Schedule is a cron spec for re-running schedulable checks.
	// Default: "@every 6h".
	Schedule string

	Localizer localization.Localizer

	// Tracer and Meter enable telemetry. Nil disables it.
	Tracer trace.Tracer
	Meter  metric.Meter

	Logger *slog.Logger
}

// Report describes one aggregated run.
type Report struct {
	ID        string               `json:"id"`
	StartedAt time.Time            `json:"started_at"`
	Duration  time.Duration        `json:"duration"`
	Scheduled bool                 `json:"scheduled"`
	Results   []types.HealthStatus `json:"results"`
	Overall   string               `json:"overall"`
}

// HasErrors reports whether any result in the run is an error.
func (r Report) HasErrors() bool {
	for _, res := range r.Results {
		if res.IsError() {
			return true
		}
	}
	return false
}

// CheckInfo describes a registered check.
type CheckInfo struct {
	ID          string `json:"id"`
	Schedulable bool   `json:"schedulable"`
}

// Service aggregates health checks.
//
// Thread-safety: All methods are safe for concurrent use.
type Service struct {
	mu        sync.RWMutex
	checks    []health.Check
	ids       map[string]struct{}
	listeners []func(Report)
	cron      *cron.Cron
	stopJobs  context.CancelFunc

	store       store.Store
	publisher   store.Publisher
	concurrency int
	schedule    string
	localizer   localization.Localizer
	telemetry   *telemetry
	logger      *slog.Logger
}

// New validates opts and returns a Service with no checks registered.
func New(opts Options) (*Service, error) {
	if opts.Store == nil {
		opts.Store = store.NewMemory()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Schedule == "" {
		opts.Schedule = DefaultSchedule
	}
	if _, err := cron.ParseStandard(opts.Schedule); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", opts.Schedule, err)
	}
	if opts.Localizer == nil {
		opts.Localizer = localization.Default()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	tel, err := newTelemetry(opts.Tracer, opts.Meter)
	if err != nil {
		return nil, err
	}

	return &Service{
		ids:         make(map[string]struct{}),
		store:       opts.Store,
		publisher:   opts.Publisher,
		concurrency: opts.Concurrency,
		schedule:    opts.Schedule,
		localizer:   opts.Localizer,
		telemetry:   tel,
		logger:      opts.Logger.With(slog.String("component", "checkservice")),
	}, nil
}

// Register adds checks. Nothing is registered if any check is nil or its ID
// is empty or taken.
func (s *Service) Register(checks ...health.Check) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch := make(map[string]struct{}, len(checks))
	for i, c := range checks {
		if c == nil {
			return fmt.Errorf("%w at position %d", ErrNilCheck, i)
		}
		id := c.ID()
		if id == "" {
			return fmt.Errorf("health check has no id")
		}
		if _, taken := s.ids[id]; taken {
			return fmt.Errorf("%w: %s", ErrDuplicateCheck, id)
		}
		if _, taken := batch[id]; taken {
			return fmt.Errorf("%w: %s", ErrDuplicateCheck, id)
		}
		batch[id] = struct{}{}
	}

	for _, c := range checks {
		s.ids[c.ID()] = struct{}{}
		s.checks = append(s.checks, c)
	}
	return nil
}

// Checks lists registered checks in registration order.
func (s *Service) Checks() []CheckInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]CheckInfo, len(s.checks))
	for i, c := range s.checks {
		out[i] = CheckInfo{ID: c.ID(), Schedulable: c.Schedulable()}
	}
	return out
}

// OnReport registers fn to be called after every run.
func (s *Service) OnReport(fn func(Report)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// RunAll runs every registered check.
func (s *Service) RunAll(ctx context.Context) (Report, error) {
	return s.run(ctx, s.selectChecks(false), false)
}

// RunScheduled runs only checks whose Schedulable method returns true.
func (s *Service) RunScheduled(ctx context.Context) (Report, error) {
	return s.run(ctx, s.selectChecks(true), true)
}

// Results returns the stored non-healthy results, worst first and then by
// source.
func (s *Service) Results(ctx context.Context) ([]types.HealthStatus, error) {
	results, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	SortResults(results)
	return results, nil
}

// SortResults orders statuses by descending severity, then by source.
func SortResults(statuses []types.HealthStatus) {
	sort.SliceStable(statuses, func(i, j int) bool {
		si, sj := types.Severity(statuses[i].Status), types.Severity(statuses[j].Status)
		if si != sj {
			return si > sj
		}
		return statuses[i].Source < statuses[j].Source
	})
}

// Start runs every check once and then schedules the schedulable ones.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.cron != nil {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	c := cron.New(cron.WithLogger(cronLogger{s.logger}), cron.WithChain(cron.SkipIfStillRunning(cronLogger{s.logger})))
	jobCtx, stopJobs := context.WithCancel(context.Background())
	s.cron = c
	s.stopJobs = stopJobs
	s.mu.Unlock()

	if _, err := s.RunAll(ctx); err != nil {
		s.logger.Warn("startup health checks could not be recorded", "error", err)
	}

	if _, err := c.AddFunc(s.schedule, func() {
		if _, err := s.RunScheduled(jobCtx); err != nil {
			s.logger.Warn("scheduled health checks could not be recorded", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("schedule health checks: %w", err)
	}
	c.Start()

	s.logger.Info("health check scheduler started", "schedule", s.schedule, "checks", len(s.Checks()))
	return nil
}

// Stop stops the scheduler, cancels a running scheduled job and waits for it
// to return until ctx is done.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	c, stopJobs := s.cron, s.stopJobs
	s.cron, s.stopJobs = nil, nil
	s.mu.Unlock()

	if c == nil {
		return nil
	}
	stopJobs()

	select {
	case <-c.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) selectChecks(scheduledOnly bool) []health.Check {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]health.Check, 0, len(s.checks))
	for _, c := range s.checks {
		if scheduledOnly && !c.Schedulable() {
			continue
		}
		out = append(out, c)
	}
	return out
}

func (s *Service) run(ctx context.Context, checks []health.Check, scheduled bool) (Report, error) {
	report := Report{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
		Scheduled: scheduled,
		Results:   make([]types.HealthStatus, len(checks)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, c := range checks {
		g.Go(func() error {
			report.Results[i] = s.runOne(gctx, c)
			return nil
		})
	}
	_ = g.Wait()

	report.Duration = time.Since(report.StartedAt)
	report.Overall = health.Combine(report.Results...).Status

	var errs []error
	for _, res := range report.Results {
		if err := s.record(ctx, res); err != nil {
			errs = append(errs, err)
		}
	}

	s.logger.Info("health checks completed",
		"report", report.ID,
		"scheduled", scheduled,
		"checks", len(report.Results),
		"overall", report.Overall,
		"duration", report.Duration,
	)

	s.publish(ctx, report)

	s.mu.RLock()
	listeners := append([]func(Report){}, s.listeners...)
	s.mu.RUnlock()
	for _, fn := range listeners {
		fn(report)
	}

	return report, errors.Join(errs...)
}

func (s *Service) runOne(ctx context.Context, c health.Check) (status types.HealthStatus) {
	id := c.ID()
	ctx, finish := s.telemetry.start(ctx, id, c.Schedulable())
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("health check panicked", "check", id,
				"error", runtimehealth.NewInternalError("checkservice.run", fmt.Errorf("panic: %v", r)))
			status = types.NewErrorStatus(id, s.localizer.Localize("CheckPanicMessage", id, r), "")
		}
		finish(status)
	}()

	status = c.Check(ctx)
	if status.Source == "" {
		status.Source = id
	}
	if !types.ValidStatus(status.Status) {
		s.logger.Warn("health check returned unknown status", "check", id, "status", status.Status)
		status.Status = types.StatusError
	}
	return status
}

// record keeps only non-healthy results: a healthy result removes the entry.
func (s *Service) record(ctx context.Context, status types.HealthStatus) error {
	var err error
	if status.IsHealthy() {
		err = s.store.Delete(ctx, status.Source)
	} else {
		err = s.store.Put(ctx, status)
	}
	if err != nil {
		return runtimehealth.NewStoreError("checkservice.record", err).WithContext(map[string]any{"source": status.Source})
	}
	return nil
}

func (s *Service) publish(ctx context.Context, report Report) {
	if s.publisher == nil {
		return
	}
	event := store.CompletedEvent{
		ReportID:  report.ID,
		Overall:   report.Overall,
		Count:     len(report.Results),
		Scheduled: report.Scheduled,
		Time:      report.StartedAt,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish health check event", "report", report.ID, "error", err)
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
