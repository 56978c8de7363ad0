package domain

import (
	"fmt"
	"strings"
	"time"
)

// Status describes the lifecycle of the hero snapshot.
type Status string

const (
	StatusInitializing Status = "initializing"
	StatusScraping     Status = "scraping"
	StatusReady        Status = "ready"
	StatusStale        Status = "stale"
	StatusError        Status = "error"
)

// RatePlaceholder is rendered whenever a metric is unknown.
const RatePlaceholder = "—"

type Hero struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
	Role string `json:"role"`

	WinRate  string `json:"winRate"`
	BanRate  string `json:"banRate"`
	PickRate string `json:"pickRate"`

	// Raw values exist solely for deterministic sorting and tier
	// banding. They are stripped from API output.
	RawWinRate  float64 `json:"-"`
	RawBanRate  float64 `json:"-"`
	RawPickRate float64 `json:"-"`
	HasWinRate  bool    `json:"-"`
	HasBanRate  bool    `json:"-"`
	HasPickRate bool    `json:"-"`

	Tier     string      `json:"tier"`
	ImageURL string      `json:"image"`
	Detail   *HeroDetail `json:"detail,omitempty"`
}

// Identity is the dedup key within one snapshot: provider id when
// known, otherwise the case-folded name.
func (h Hero) Identity() string {
	if h.ID != "" {
		return strings.ToLower(h.ID)
	}
	return strings.ToLower(h.Name)
}

// FormatRate renders a raw [0,1] metric as a one-decimal percentage,
// or the placeholder when the metric is unknown.
func FormatRate(raw float64, has bool) string {
	if !has {
		return RatePlaceholder
	}
	return fmt.Sprintf("%.1f%%", raw*100)
}

type HeroDetail struct {
	Summary         string   `json:"summary,omitempty"`
	Specialty       string   `json:"specialty,omitempty"`
	Counters        []string `json:"counters"`
	Compatibilities []string `json:"compatibilities"`
}

// TierList maps tier labels to hero names. Order carries the render
// order: the fixed priority labels first, then extras as first seen.
type TierList struct {
	Order []string            `json:"order"`
	Tiers map[string][]string `json:"tiers"`
}

type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Value    string `json:"value"`
	Role     string `json:"role"`
	ImageURL string `json:"image"`
}

// Snapshot is the complete service state at one point in time. It is
// immutable once published; the store replaces it as a whole.
type Snapshot struct {
	Heroes              []Hero
	TierList            TierList
	Leaderboard         []LeaderboardEntry
	LastUpdated         *time.Time
	Status              Status
	ConsecutiveFailures int
}

// AnalysisResult is the fixed-schema report returned for analyze and
// synergy requests. It is always well-formed: either model-produced
// or a templated fallback.
type AnalysisResult struct {
	Heroes      []string  `json:"heroes"`
	Title       string    `json:"title"`
	Overview    string    `json:"overview"`
	Strengths   []string  `json:"strengths"`
	Weaknesses  []string  `json:"weaknesses"`
	Tips        []string  `json:"tips"`
	Verdict     string    `json:"verdict"`
	Source      string    `json:"source"`
	GeneratedAt time.Time `json:"generatedAt"`
}

const (
	AnalysisSourceModel    = "model"
	AnalysisSourceFallback = "fallback"
)
