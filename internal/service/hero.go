package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	"hero-tracker/internal/cache"
	"hero-tracker/internal/constants"
	"hero-tracker/internal/derive"
	"hero-tracker/internal/domain"
	"hero-tracker/internal/store"

	"github.com/rs/zerolog"
)

var ErrHeroNotFound = errors.New("hero not found")

// DetailFetcher is the slice of the provider client the hero service
// uses for on-demand detail loads.
type DetailFetcher interface {
	FetchDetail(ctx context.Context, slug string, known []domain.Hero) domain.HeroDetail
}

type HeroService struct {
	store       *store.Store
	provider    DetailFetcher
	detailCache *cache.Cache[domain.Hero]
	logger      zerolog.Logger
}

func NewHeroService(st *store.Store, provider DetailFetcher, detailCache *cache.Cache[domain.Hero], logger zerolog.Logger) *HeroService {
	return &HeroService{store: st, provider: provider, detailCache: detailCache, logger: logger}
}

// ListFilter narrows and orders the hero list. Zero values mean "all".
type ListFilter struct {
	Role   string
	Tier   string
	Sort   string // winrate | banrate | pickrate
	Search string
}

func (s *HeroService) List(filter ListFilter) []domain.Hero {
	snap := s.store.Current()

	out := make([]domain.Hero, 0, len(snap.Heroes))
	for _, h := range snap.Heroes {
		if filter.Role != "" && !strings.EqualFold(h.Role, filter.Role) {
			continue
		}
		if filter.Tier != "" && !strings.EqualFold(h.Tier, filter.Tier) {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(h.Name), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, h)
	}

	if filter.Sort != "" {
		metric := func(h domain.Hero) float64 {
			switch strings.ToLower(filter.Sort) {
			case "banrate":
				return h.RawBanRate
			case "pickrate":
				return h.RawPickRate
			default:
				return h.RawWinRate
			}
		}
		sort.SliceStable(out, func(i, j int) bool {
			return metric(out[i]) > metric(out[j])
		})
	}

	return out
}

// Search matches a case-insensitive substring against name and role,
// capped at the suggestion limit.
func (s *HeroService) Search(query string) []domain.Hero {
	snap := s.store.Current()
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return []domain.Hero{}
	}

	out := []domain.Hero{}
	for _, h := range snap.Heroes {
		if strings.Contains(strings.ToLower(h.Name), needle) || strings.Contains(strings.ToLower(h.Role), needle) {
			out = append(out, h)
			if len(out) == constants.SearchSuggestionLimit {
				break
			}
		}
	}
	return out
}

// Detail returns the hero with its extended record attached. The base
// hero must exist in the snapshot; the detail fragment itself degrades
// to empty sub-fields when the provider misbehaves.
func (s *HeroService) Detail(ctx context.Context, slug string) (domain.Hero, error) {
	snap := s.store.Current()

	base, ok := findHero(snap.Heroes, slug)
	if !ok {
		return domain.Hero{}, ErrHeroNotFound
	}

	key := "detail:" + base.Identity()
	if cached, ok := s.detailCache.Get(key); ok {
		s.logger.Debug().Str("slug", slug).Msg("hero detail served from cache")
		return cached, nil
	}

	detail := s.provider.FetchDetail(ctx, slug, snap.Heroes)
	base.Detail = &detail

	s.detailCache.SetTTL(key, base, constants.DetailCacheTTL)
	return base, nil
}

// Find resolves a slug or name against the current snapshot.
func (s *HeroService) Find(slug string) (domain.Hero, error) {
	h, ok := findHero(s.store.Current().Heroes, slug)
	if !ok {
		return domain.Hero{}, ErrHeroNotFound
	}
	return h, nil
}

// TierList returns the current snapshot's tier list.
func (s *HeroService) TierList() domain.TierList {
	return s.store.Current().TierList
}

// Leaderboard returns the current leaderboard, optionally narrowed to
// one category and truncated per category.
func (s *HeroService) Leaderboard(category string, limit int) []domain.LeaderboardEntry {
	snap := s.store.Current()
	if limit <= 0 || limit > constants.LeaderboardSize {
		limit = constants.LeaderboardSize
	}

	out := []domain.LeaderboardEntry{}
	for _, e := range snap.Leaderboard {
		if category != "" && !strings.EqualFold(e.Category, category) {
			continue
		}
		if e.Rank > limit {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Categories exposes the fixed leaderboard category order.
func (s *HeroService) Categories() []string {
	return derive.Categories
}

func findHero(heroes []domain.Hero, slug string) (domain.Hero, bool) {
	needle := strings.ToLower(strings.TrimSpace(slug))
	spaced := strings.ReplaceAll(needle, "-", " ")
	for _, h := range heroes {
		name := strings.ToLower(h.Name)
		if name == needle || name == spaced || strings.ToLower(h.ID) == needle {
			return h, true
		}
	}
	return domain.Hero{}, false
}
