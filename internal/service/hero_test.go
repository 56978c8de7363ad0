package service

import (
	"context"
	"testing"
	"time"

	"hero-tracker/internal/cache"
	"hero-tracker/internal/derive"
	"hero-tracker/internal/domain"
	"hero-tracker/internal/store"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDetailFetcher struct {
	calls  int
	detail domain.HeroDetail
}

func (f *fakeDetailFetcher) FetchDetail(ctx context.Context, slug string, known []domain.Hero) domain.HeroDetail {
	f.calls++
	return f.detail
}

func rosterHero(name, role string, win float64) domain.Hero {
	h := domain.Hero{
		Name:       name,
		Role:       role,
		RawWinRate: win,
		HasWinRate: true,
	}
	h.WinRate = domain.FormatRate(win, true)
	h.BanRate = domain.RatePlaceholder
	h.PickRate = domain.RatePlaceholder
	h.Tier = derive.ClassifyTier(win, true)
	return h
}

func seededService(t *testing.T, fetcher DetailFetcher, heroes ...domain.Hero) *HeroService {
	t.Helper()
	st := store.New(zerolog.Nop())
	st.CommitSuccess(heroes, derive.BuildTierList(heroes), derive.BuildLeaderboard(heroes))
	if fetcher == nil {
		fetcher = &fakeDetailFetcher{}
	}
	return NewHeroService(st, fetcher, cache.New[domain.Hero](time.Hour), zerolog.Nop())
}

func TestListFiltersAndSorts(t *testing.T) {
	s := seededService(t, nil,
		rosterHero("Ling", "Assassin", 0.54),
		rosterHero("Chou", "Fighter", 0.58),
		rosterHero("Miya", "Marksman", 0.47),
		rosterHero("Paquito", "Fighter", 0.50),
	)

	fighters := s.List(ListFilter{Role: "fighter", Sort: "winrate"})
	require.Len(t, fighters, 2)
	assert.Equal(t, "Chou", fighters[0].Name)
	assert.Equal(t, "Paquito", fighters[1].Name)

	sPlus := s.List(ListFilter{Tier: "s+"})
	require.Len(t, sPlus, 1)
	assert.Equal(t, "Chou", sPlus[0].Name)

	named := s.List(ListFilter{Search: "mi"})
	require.Len(t, named, 1)
	assert.Equal(t, "Miya", named[0].Name)
}

func TestSearchCapAndRoleMatch(t *testing.T) {
	var heroes []domain.Hero
	for i := 0; i < 15; i++ {
		heroes = append(heroes, rosterHero("Clone", "Mage", 0.5))
	}
	heroes[0].Name = "Gord"
	s := seededService(t, nil, heroes...)

	assert.Len(t, s.Search("mage"), 10, "matches by role, capped at 10")
	assert.Len(t, s.Search("gord"), 1)
	assert.Empty(t, s.Search("  "))
}

func TestDetailCacheFirst(t *testing.T) {
	fetcher := &fakeDetailFetcher{detail: domain.HeroDetail{
		Summary:         "A jungler.",
		Counters:        []string{"Chou"},
		Compatibilities: []string{},
	}}
	s := seededService(t, fetcher, rosterHero("Ling", "Assassin", 0.54))

	first, err := s.Detail(context.Background(), "ling")
	require.NoError(t, err)
	require.NotNil(t, first.Detail)
	assert.Equal(t, []string{"Chou"}, first.Detail.Counters)
	assert.Equal(t, 1, fetcher.calls)

	_, err = s.Detail(context.Background(), "Ling")
	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.calls, "second lookup served from cache")
}

func TestDetailUnknownHero(t *testing.T) {
	s := seededService(t, nil, rosterHero("Ling", "Assassin", 0.54))

	_, err := s.Detail(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrHeroNotFound)
}

func TestLeaderboardCategoryAndLimit(t *testing.T) {
	s := seededService(t, nil,
		rosterHero("A", "Mage", 0.58),
		rosterHero("B", "Mage", 0.52),
		rosterHero("C", "Mage", 0.47),
	)

	all := s.Leaderboard("", 0)
	assert.Len(t, all, 3*3)

	wins := s.Leaderboard(derive.CategoryWinRate, 2)
	require.Len(t, wins, 2)
	assert.Equal(t, "A", wins[0].Name)
	assert.Equal(t, 1, wins[0].Rank)
	assert.Equal(t, "B", wins[1].Name)
}

func TestFindBySlugVariants(t *testing.T) {
	h := rosterHero("Yu Zhong", "Fighter", 0.53)
	h.ID = "88"
	s := seededService(t, nil, h)

	got, err := s.Find("yu-zhong")
	require.NoError(t, err)
	assert.Equal(t, "Yu Zhong", got.Name)

	got, err = s.Find("88")
	require.NoError(t, err)
	assert.Equal(t, "Yu Zhong", got.Name)
}
