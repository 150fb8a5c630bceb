// Package scheduler runs the periodic cache maintenance jobs: warming
// the watch-list symbols and pruning expired entries.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"FinSentinel/internal/cache"
	"FinSentinel/internal/resolver"
)

// Scheduler owns the cron runner and the registered jobs.
type Scheduler struct {
	ctx      context.Context
	cron     *cron.Cron
	resolver *resolver.Resolver
	cache    *cache.Store
	watch    []string
	log      zerolog.Logger
}

// New creates a scheduler with second-granularity cron specs.
func New(ctx context.Context, res *resolver.Resolver, store *cache.Store, watch []string, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		ctx:      ctx,
		cron:     cron.New(cron.WithSeconds()),
		resolver: res,
		cache:    store,
		watch:    watch,
		log:      log.With().Str("component", "scheduler").Logger(),
	}
}

// RegisterAll wires the refresh and prune jobs to their cron specs.
func (s *Scheduler) RegisterAll(refreshSpec, pruneSpec string) error {
	if _, err := s.cron.AddFunc(refreshSpec, s.safely("refresh", s.runRefresh)); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(pruneSpec, s.safely("prune", s.runPrune)); err != nil {
		return err
	}
	return nil
}

// safely wraps a job so a panic inside it cannot kill the cron runner.
func (s *Scheduler) safely(name string, job func()) func() {
	return func() {
		defer func() {
			if r := recover(); r != nil {
				s.log.Error().Str("job", name).Interface("panic", r).Msg("job panicked")
			}
		}()
		job()
	}
}

// runRefresh resolves every watch-list symbol, repopulating the cache
// so interactive callers rarely pay a live provider round trip.
func (s *Scheduler) runRefresh() {
	for _, symbol := range s.watch {
		if s.ctx.Err() != nil {
			return
		}
		rec, err := s.resolver.Resolve(s.ctx, symbol)
		if err != nil {
			s.log.Warn().Str("symbol", symbol).Err(err).Msg("watch refresh failed")
			continue
		}
		s.log.Debug().
			Str("symbol", rec.Symbol).
			Str("source", string(rec.Source)).
			Bool("stale", rec.Stale).
			Msg("watch symbol refreshed")
	}
}

func (s *Scheduler) runPrune() {
	if _, err := s.cache.PruneExpired(time.Now()); err != nil {
		s.log.Warn().Err(err).Msg("cache prune failed")
	}
}

// RunRefreshNow triggers an immediate warm pass outside the schedule.
func (s *Scheduler) RunRefreshNow() { s.safely("refresh", s.runRefresh)() }

// Start begins cron execution.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Int("watch_symbols", len(s.watch)).Msg("scheduler started")
}

// Stop halts cron execution and waits for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("scheduler stopped")
}
