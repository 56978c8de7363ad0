// Package scheduler drives the refresh pipeline: fetch, derive, commit,
// flush. At most one refresh runs at a time; a manual trigger while one
// is in flight is rejected, never queued.
package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"hero-tracker/internal/cache"
	"hero-tracker/internal/constants"
	"hero-tracker/internal/derive"
	"hero-tracker/internal/domain"
	"hero-tracker/internal/store"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

var ErrRefreshInFlight = errors.New("refresh already in progress")

// Fetcher is the slice of the provider client the scheduler needs.
type Fetcher interface {
	FetchAll(ctx context.Context) []domain.Hero
}

type Scheduler struct {
	fetcher  Fetcher
	store    *store.Store
	flushers []cache.Flusher
	cron     *cron.Cron
	inFlight atomic.Bool
	logger   zerolog.Logger
}

func New(fetcher Fetcher, st *store.Store, flushers []cache.Flusher, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		fetcher:  fetcher,
		store:    st,
		flushers: flushers,
		cron:     cron.New(),
		logger:   logger,
	}
}

// Start registers the periodic refresh and kicks off the initial one in
// the background. The server accepts connections immediately; reads
// before the first refresh completes see the initializing snapshot.
// The lifecycle context only covers startup, so refreshes run on their
// own contexts bounded by the fetch timeout.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(constants.RefreshSchedule, func() {
		if err := s.run(context.Background()); err != nil {
			s.logger.Warn().Err(err).Msg("scheduled refresh skipped")
		}
	}); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info().Str("schedule", constants.RefreshSchedule).Msg("refresh schedule started")

	go func() {
		if err := s.run(context.Background()); err != nil {
			s.logger.Warn().Err(err).Msg("initial refresh skipped")
		}
	}()

	return nil
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
	s.logger.Info().Msg("refresh schedule stopped")
}

// TriggerManual claims the single-flight slot and starts a refresh in
// the background. It returns immediately; the caller only learns
// whether the refresh was accepted.
func (s *Scheduler) TriggerManual() error {
	if !s.inFlight.CompareAndSwap(false, true) {
		return ErrRefreshInFlight
	}
	s.logger.Info().Msg("manual refresh accepted")
	go func() {
		defer s.inFlight.Store(false)
		s.execute(context.Background())
	}()
	return nil
}

// RunOnce executes one refresh synchronously. Exposed for the initial
// sync path and for tests.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	return s.run(ctx)
}

func (s *Scheduler) run(ctx context.Context) error {
	if !s.inFlight.CompareAndSwap(false, true) {
		return ErrRefreshInFlight
	}
	defer s.inFlight.Store(false)

	s.execute(ctx)
	return nil
}

// execute runs one refresh. The caller owns the in-flight guard.
func (s *Scheduler) execute(ctx context.Context) {
	start := time.Now()
	s.store.BeginScrape()

	fetchCtx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	heroes := s.fetcher.FetchAll(fetchCtx)
	if len(heroes) == 0 {
		// Zero records is indistinguishable from a broken provider, so
		// it counts as a failure and the previous snapshot survives.
		s.store.CommitFailure()
		s.logger.Error().Dur("elapsed", time.Since(start)).Msg("refresh failed: no heroes fetched")
		return
	}

	tierList := derive.BuildTierList(heroes)
	leaderboard := derive.BuildLeaderboard(heroes)
	s.store.CommitSuccess(heroes, tierList, leaderboard)

	// Derived caches hold results computed from the previous snapshot;
	// only a successful commit invalidates them.
	for _, f := range s.flushers {
		f.FlushAll()
	}

	s.logger.Info().
		Int("heroes", len(heroes)).
		Dur("elapsed", time.Since(start)).
		Msg("refresh completed")
}
