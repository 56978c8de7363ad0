// Package derive computes the secondary views (tier list, leaderboards)
// from a set of canonical heroes. Everything here is a pure function of
// its input so a refresh can be replayed deterministically.
package derive

import (
	"sort"

	"hero-tracker/internal/constants"
	"hero-tracker/internal/domain"
)

const TierUnranked = "Unranked"

// TierPriority is the fixed render order for the known tiers. Labels
// outside this list (including Unranked) follow in first-seen order.
var TierPriority = []string{"S+", "S", "A", "B", "C"}

const (
	CategoryWinRate  = "Top Win Rate"
	CategoryBanRate  = "Top Ban Rate"
	CategoryPickRate = "Top Pick Rate"
)

// Categories in their fixed concatenation order.
var Categories = []string{CategoryWinRate, CategoryBanRate, CategoryPickRate}

// ClassifyTier bands a raw win rate into a tier label. Thresholds are
// expressed against the percentage value.
func ClassifyTier(rawWinRate float64, has bool) string {
	if !has {
		return TierUnranked
	}
	pct := rawWinRate * 100
	switch {
	case pct >= 56:
		return "S+"
	case pct >= 53:
		return "S"
	case pct >= 51:
		return "A"
	case pct >= 49:
		return "B"
	default:
		return "C"
	}
}

// BuildTierList groups heroes by tier. A hero with no assigned tier is
// classified from its win rate; every hero lands in exactly one bucket.
func BuildTierList(heroes []domain.Hero) domain.TierList {
	tiers := make(map[string][]string)
	var extras []string

	known := make(map[string]bool, len(TierPriority))
	for _, label := range TierPriority {
		known[label] = true
	}

	for _, h := range heroes {
		label := h.Tier
		if label == "" {
			label = ClassifyTier(h.RawWinRate, h.HasWinRate)
		}
		if _, seen := tiers[label]; !seen && !known[label] {
			extras = append(extras, label)
		}
		tiers[label] = append(tiers[label], h.Name)
	}

	var order []string
	for _, label := range TierPriority {
		if _, ok := tiers[label]; ok {
			order = append(order, label)
		}
	}
	order = append(order, extras...)

	return domain.TierList{Order: order, Tiers: tiers}
}

// BuildLeaderboard produces the top-10 list per category, in the fixed
// category order. Sorting is stable so ties keep input order.
func BuildLeaderboard(heroes []domain.Hero) []domain.LeaderboardEntry {
	var out []domain.LeaderboardEntry
	for _, category := range Categories {
		out = append(out, rankCategory(heroes, category)...)
	}
	return out
}

func rankCategory(heroes []domain.Hero, category string) []domain.LeaderboardEntry {
	ranked := make([]domain.Hero, len(heroes))
	copy(ranked, heroes)

	sort.SliceStable(ranked, func(i, j int) bool {
		return metricFor(ranked[i], category) > metricFor(ranked[j], category)
	})

	if len(ranked) > constants.LeaderboardSize {
		ranked = ranked[:constants.LeaderboardSize]
	}

	entries := make([]domain.LeaderboardEntry, 0, len(ranked))
	for i, h := range ranked {
		entries = append(entries, domain.LeaderboardEntry{
			Rank:     i + 1,
			Name:     h.Name,
			Category: category,
			Value:    displayFor(h, category),
			Role:     h.Role,
			ImageURL: h.ImageURL,
		})
	}
	return entries
}

func metricFor(h domain.Hero, category string) float64 {
	switch category {
	case CategoryBanRate:
		return h.RawBanRate
	case CategoryPickRate:
		return h.RawPickRate
	default:
		return h.RawWinRate
	}
}

func displayFor(h domain.Hero, category string) string {
	switch category {
	case CategoryBanRate:
		return h.BanRate
	case CategoryPickRate:
		return h.PickRate
	default:
		return h.WinRate
	}
}
