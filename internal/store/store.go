// Package store holds the current snapshot behind a single atomic
// reference. Readers never block on a refresh and never observe a
// half-replaced snapshot.
package store

import (
	"sync"
	"sync/atomic"
	"time"

	"hero-tracker/internal/domain"

	"github.com/rs/zerolog"
)

type Store struct {
	current atomic.Pointer[domain.Snapshot]

	// writeMu serializes the read-modify-write transitions. Reads go
	// straight through the atomic pointer.
	writeMu sync.Mutex
	logger  zerolog.Logger
}

func New(logger zerolog.Logger) *Store {
	s := &Store{logger: logger}
	s.current.Store(&domain.Snapshot{Status: domain.StatusInitializing})
	return s
}

// Current returns the latest fully-committed snapshot.
func (s *Store) Current() domain.Snapshot {
	return *s.current.Load()
}

// BeginScrape marks a refresh as started. Data fields carry over from
// the previous snapshot so reads during the refresh stay coherent.
func (s *Store) BeginScrape() {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next := *s.current.Load()
	next.Status = domain.StatusScraping
	s.current.Store(&next)

	s.logger.Debug().Msg("snapshot entering scraping state")
}

// CommitSuccess swaps in the refreshed data as one unit.
func (s *Store) CommitSuccess(heroes []domain.Hero, tierList domain.TierList, leaderboard []domain.LeaderboardEntry) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	now := time.Now()
	s.current.Store(&domain.Snapshot{
		Heroes:              heroes,
		TierList:            tierList,
		Leaderboard:         leaderboard,
		LastUpdated:         &now,
		Status:              domain.StatusReady,
		ConsecutiveFailures: 0,
	})

	s.logger.Info().Int("heroes", len(heroes)).Msg("snapshot committed")
}

// CommitFailure records a failed refresh. If a previous snapshot holds
// data it keeps serving as stale; otherwise the store reports error.
func (s *Store) CommitFailure() {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next := *s.current.Load()
	next.ConsecutiveFailures++
	if len(next.Heroes) > 0 {
		next.Status = domain.StatusStale
	} else {
		next.Status = domain.StatusError
	}
	s.current.Store(&next)

	s.logger.Warn().
		Int("consecutive_failures", next.ConsecutiveFailures).
		Str("status", string(next.Status)).
		Msg("refresh failed, snapshot unchanged")
}
