package store

import (
	"sync"
	"testing"

	"hero-tracker/internal/derive"
	"hero-tracker/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore() *Store {
	return New(zerolog.Nop())
}

func heroes(names ...string) []domain.Hero {
	var out []domain.Hero
	for _, n := range names {
		out = append(out, domain.Hero{Name: n, RawWinRate: 0.5, HasWinRate: true})
	}
	return out
}

func TestInitialState(t *testing.T) {
	s := newStore()
	snap := s.Current()

	assert.Equal(t, domain.StatusInitializing, snap.Status)
	assert.Empty(t, snap.Heroes)
	assert.Nil(t, snap.LastUpdated)
}

func TestCommitSuccess(t *testing.T) {
	s := newStore()
	s.BeginScrape()
	assert.Equal(t, domain.StatusScraping, s.Current().Status)

	hs := heroes("A", "B")
	s.CommitSuccess(hs, derive.BuildTierList(hs), derive.BuildLeaderboard(hs))

	snap := s.Current()
	assert.Equal(t, domain.StatusReady, snap.Status)
	assert.Len(t, snap.Heroes, 2)
	assert.Equal(t, 0, snap.ConsecutiveFailures)
	require.NotNil(t, snap.LastUpdated)
}

func TestFailureWithoutPriorDataIsError(t *testing.T) {
	s := newStore()
	s.BeginScrape()
	s.CommitFailure()

	snap := s.Current()
	assert.Equal(t, domain.StatusError, snap.Status)
	assert.Empty(t, snap.Heroes)
	assert.Equal(t, 1, snap.ConsecutiveFailures)
}

func TestFailureWithPriorDataIsStale(t *testing.T) {
	s := newStore()
	hs := heroes("A")
	s.BeginScrape()
	s.CommitSuccess(hs, derive.BuildTierList(hs), derive.BuildLeaderboard(hs))

	s.BeginScrape()
	s.CommitFailure()
	s.BeginScrape()
	s.CommitFailure()

	snap := s.Current()
	assert.Equal(t, domain.StatusStale, snap.Status)
	assert.Equal(t, []domain.Hero{hs[0]}, snap.Heroes, "prior entity list preserved unchanged")
	assert.Equal(t, 2, snap.ConsecutiveFailures)
}

func TestFailureCounterResetsOnSuccess(t *testing.T) {
	s := newStore()
	s.BeginScrape()
	s.CommitFailure()

	hs := heroes("A")
	s.BeginScrape()
	s.CommitSuccess(hs, derive.BuildTierList(hs), derive.BuildLeaderboard(hs))

	assert.Equal(t, 0, s.Current().ConsecutiveFailures)
}

// A reader racing a committer must see heroes and derived views from
// the same refresh, never a mix.
func TestSnapshotReplacementIsAtomic(t *testing.T) {
	s := newStore()

	commit := func(names []string) {
		hs := heroes(names...)
		s.CommitSuccess(hs, derive.BuildTierList(hs), derive.BuildLeaderboard(hs))
	}
	commit([]string{"A"})

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			if i%2 == 0 {
				commit([]string{"A"})
			} else {
				commit([]string{"X", "Y", "Z"})
			}
		}
		close(done)
	}()

	for {
		select {
		case <-done:
			wg.Wait()
			return
		default:
		}
		snap := s.Current()
		// Leaderboard is 3 categories over the hero set of the same refresh.
		require.Len(t, snap.Leaderboard, 3*len(snap.Heroes))
		total := 0
		for _, names := range snap.TierList.Tiers {
			total += len(names)
		}
		require.Equal(t, len(snap.Heroes), total)
	}
}
