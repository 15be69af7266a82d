// Package scheduler runs the ingestion loop. Every sweep reads a fresh source list from the
// registry, fetches the due sources and delivers their items one by one. Nothing is kept
// between sweeps, the registry's lastIngestedAt is the only record of past polls.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/umputun/livefeed/pkg/domain"
	"github.com/umputun/livefeed/pkg/fetch"
)

//go:generate moq -out mocks/registry.go -pkg mocks -skip-ensure -fmt goimports . Registry
//go:generate moq -out mocks/fetcher.go -pkg mocks -skip-ensure -fmt goimports . Fetcher
//go:generate moq -out mocks/deliverer.go -pkg mocks -skip-ensure -fmt goimports . Deliverer
//go:generate moq -out mocks/metrics.go -pkg mocks -skip-ensure -fmt goimports . Metrics

// Registry provides the current list of sources
type Registry interface {
	ActiveSources(ctx context.Context) ([]domain.SourceConfig, error)
}

// Fetcher runs the fetch strategy matching the source type
type Fetcher interface {
	Fetch(ctx context.Context, src domain.SourceConfig) ([]domain.Item, error)
}

// Deliverer sends a single envelope to the ingestion backend
type Deliverer interface {
	Deliver(ctx context.Context, env domain.Envelope) (ok bool, message string)
}

// Metrics records loop events
type Metrics interface {
	SweepCompleted(duration time.Duration, sources int)
	SourceProcessed(outcome string)
	DeliveryAttempted(sourceType, kind string, ok bool)
}

// Scheduler is the sweep loop
type Scheduler struct {
	registry  Registry
	fetcher   Fetcher
	deliverer Deliverer
	metrics   Metrics

	sweepInterval   time.Duration
	idleInterval    time.Duration
	errorBackoff    time.Duration
	defaultInterval time.Duration
	maxWorkers      int
	now             func() time.Time

	mu         sync.RWMutex
	lastReport *Report
}

// Params holds scheduler dependencies and timings
type Params struct {
	Registry  Registry
	Fetcher   Fetcher
	Deliverer Deliverer
	Metrics   Metrics // optional

	SweepInterval   time.Duration // pause after a regular sweep
	IdleInterval    time.Duration // pause after a sweep with no sources
	ErrorBackoff    time.Duration // pause after a crashed sweep
	DefaultInterval time.Duration // ingestion interval for sources without one
	MaxWorkers      int           // sources processed concurrently
}

// NewScheduler creates a scheduler, zero timings get defaults
func NewScheduler(params Params) *Scheduler {
	if params.SweepInterval <= 0 {
		params.SweepInterval = 60 * time.Second
	}
	if params.IdleInterval <= 0 {
		params.IdleInterval = 30 * time.Second
	}
	if params.ErrorBackoff <= 0 {
		params.ErrorBackoff = 45 * time.Second
	}
	if params.DefaultInterval <= 0 {
		params.DefaultInterval = domain.DefaultIngestionInterval
	}
	if params.MaxWorkers <= 0 {
		params.MaxWorkers = 1
	}
	if params.Metrics == nil {
		params.Metrics = noopMetrics{}
	}

	return &Scheduler{
		registry:        params.Registry,
		fetcher:         params.Fetcher,
		deliverer:       params.Deliverer,
		metrics:         params.Metrics,
		sweepInterval:   params.SweepInterval,
		idleInterval:    params.IdleInterval,
		errorBackoff:    params.ErrorBackoff,
		defaultInterval: params.DefaultInterval,
		maxWorkers:      params.MaxWorkers,
		now:             time.Now,
	}
}

// Run sweeps until ctx is canceled. It never stops on its own, a crashed sweep is
// followed by the error backoff.
func (s *Scheduler) Run(ctx context.Context) error {
	lgr.Printf("[INFO] scheduler started, sweep interval %v, idle interval %v, workers %d",
		s.sweepInterval, s.idleInterval, s.maxWorkers)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			lgr.Printf("[INFO] scheduler stopped")
			return nil
		case <-timer.C:
		}

		wait := s.cycle(ctx)
		if ctx.Err() == nil {
			lgr.Printf("[DEBUG] next sweep in %v", wait)
		}
		timer.Reset(wait)
	}
}

// cycle runs one guarded sweep and picks the pause before the next one
func (s *Scheduler) cycle(ctx context.Context) (wait time.Duration) {
	defer func() {
		if r := recover(); r != nil {
			lgr.Printf("[ERROR] sweep crashed: %v\n%s", r, debug.Stack())
			wait = s.errorBackoff
		}
	}()

	rep := s.Sweep(ctx)
	if rep.Sources == 0 {
		return s.idleInterval
	}
	return s.sweepInterval
}

// Sweep runs exactly one pass over the registry sources
func (s *Scheduler) Sweep(ctx context.Context) Report {
	started := s.now()
	rep := Report{ID: uuid.NewString(), Started: started}

	sources, err := s.registry.ActiveSources(ctx)
	if err != nil {
		lgr.Printf("[WARN] can't get sources from registry, treating as empty: %v", err)
		rep.RegistryError = err.Error()
		sources = nil
	}
	rep.Sources = len(sources)

	if len(sources) > 0 {
		lgr.Printf("[DEBUG] sweep %s, %d sources", rep.ID, len(sources))
		rep.Results = make([]SourceResult, len(sources))
		var eg errgroup.Group
		eg.SetLimit(s.maxWorkers)
		for i, src := range sources {
			eg.Go(func() error {
				rep.Results[i] = s.processSource(ctx, src, started)
				return nil // one source never stops the others
			})
		}
		_ = eg.Wait()
	} else {
		lgr.Printf("[INFO] no active sources")
	}

	rep.Duration = s.now().Sub(started)
	rep.summarize()
	s.metrics.SweepCompleted(rep.Duration, rep.Sources)
	if rep.Due > 0 {
		lgr.Printf("[INFO] sweep %s done in %v, %d/%d sources due, %d/%d items delivered",
			rep.ID, rep.Duration.Round(time.Millisecond), rep.Due, rep.Sources, rep.Delivered, rep.Items)
	}

	s.mu.Lock()
	s.lastReport = &rep
	s.mu.Unlock()
	return rep
}

// LastReport returns the report of the most recent sweep, nil before the first one
func (s *Scheduler) LastReport() *Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastReport == nil {
		return nil
	}
	rep := *s.lastReport
	rep.Results = append([]SourceResult(nil), s.lastReport.Results...)
	return &rep
}

// processSource checks due-ness, fetches and delivers items of a single source
func (s *Scheduler) processSource(ctx context.Context, src domain.SourceConfig, now time.Time) (res SourceResult) {
	res = SourceResult{SourceID: src.SourceID, SourceName: src.SourceName, SourceType: src.SourceType}
	defer func() {
		if r := recover(); r != nil {
			lgr.Printf("[ERROR] processing of %s crashed: %v\n%s", src.Name(), r, debug.Stack())
			res.Outcome, res.Error = OutcomeFailed, fmt.Sprintf("panic: %v", r)
		}
		s.metrics.SourceProcessed(string(res.Outcome))
	}()

	if !src.Eligible() {
		lgr.Printf("[DEBUG] skip %s, status %q, active %v", src.Name(), src.Status, src.IsActive)
		res.Outcome = OutcomeSkippedInactive
		return res
	}

	due, wait, err := src.Due(now, s.defaultInterval)
	if err != nil {
		lgr.Printf("[WARN] skip %s: %v", src.Name(), err)
		res.Outcome, res.Error = OutcomeInvalid, err.Error()
		return res
	}
	if !due {
		lgr.Printf("[DEBUG] %s not due, %v left", src.Name(), wait.Round(time.Second))
		res.Outcome, res.Wait = OutcomeNotDue, wait
		return res
	}

	if ctx.Err() != nil {
		res.Outcome = OutcomeCanceled
		return res
	}

	lgr.Printf("[DEBUG] fetching %s (%s)", src.Name(), src.SourceType)
	items, err := s.fetcher.Fetch(ctx, src)
	switch {
	case errors.Is(err, fetch.ErrUnsupportedType):
		lgr.Printf("[WARN] skip %s: %v", src.Name(), err)
		res.Outcome, res.Error = OutcomeUnsupported, err.Error()
		return res
	case err != nil:
		lgr.Printf("[WARN] fetch of %s failed: %v", src.Name(), err)
		res.Outcome, res.Error = OutcomeFailed, err.Error()
		return res
	case len(items) == 0:
		lgr.Printf("[INFO] no items from %s", src.Name())
		res.Outcome = OutcomeEmpty
		return res
	}

	res.Total = len(items)
	for i, item := range items {
		if ctx.Err() != nil {
			lgr.Printf("[WARN] stop delivering %s, %d items left", src.Name(), len(items)-i)
			break
		}
		ok, msg := s.deliverer.Deliver(ctx, domain.NewEnvelope(src, item, s.now()))
		s.metrics.DeliveryAttempted(src.SourceType, string(item.Kind()), ok)
		if !ok {
			lgr.Printf("[WARN] delivery of %s %s item %d failed: %s", src.Name(), item.Kind(), i, msg)
			continue
		}
		res.Delivered++
	}

	lgr.Printf("[INFO] %s: %d/%d items delivered", src.Name(), res.Delivered, res.Total)
	res.Outcome = OutcomeDelivered
	if res.Delivered == 0 {
		res.Outcome = OutcomeFailed
	}
	return res
}

type noopMetrics struct{}

func (noopMetrics) SweepCompleted(time.Duration, int) {}
func (noopMetrics) SourceProcessed(string)            {}
func (noopMetrics) DeliveryAttempted(string, string, bool) {}
