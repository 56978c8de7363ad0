package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"hero-tracker/internal/cache"
	"hero-tracker/internal/constants"
	"hero-tracker/internal/domain"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
)

var ErrSamePair = errors.New("synergy requires two distinct heroes")

// AnalysisService wraps the generative backend. Its contract is that a
// caller always gets a well-formed AnalysisResult: model output when
// the backend cooperates, a deterministic template when it does not.
type AnalysisService struct {
	gen         Generator
	cache       *cache.Cache[domain.AnalysisResult]
	backoffStep time.Duration
	logger      zerolog.Logger
}

func NewAnalysisService(gen Generator, c *cache.Cache[domain.AnalysisResult], logger zerolog.Logger) *AnalysisService {
	return &AnalysisService{
		gen:         gen,
		cache:       c,
		backoffStep: constants.AnalysisBackoffStep,
		logger:      logger,
	}
}

// WithBackoffStep overrides the retry backoff step. Tests use zero.
func (s *AnalysisService) WithBackoffStep(step time.Duration) *AnalysisService {
	s.backoffStep = step
	return s
}

func (s *AnalysisService) AnalyzeHero(ctx context.Context, hero domain.Hero) domain.AnalysisResult {
	key := "analyze:" + hero.Identity()
	if cached, ok := s.cache.Get(key); ok {
		s.logger.Debug().Str("hero", hero.Name).Msg("analysis served from cache")
		return cached
	}

	result, err := s.generate(ctx, heroPrompt(hero), []string{hero.Name})
	if err != nil {
		s.logger.Warn().Err(err).Str("hero", hero.Name).Msg("analysis fell back to template")
		result = fallbackHero(hero)
	}

	// Fallbacks are cached like successes so a failing backend is not
	// hammered by repeats of the same request.
	s.cache.SetTTL(key, result, constants.AnalysisCacheTTL)
	return result
}

func (s *AnalysisService) AnalyzeSynergy(ctx context.Context, a, b domain.Hero) domain.AnalysisResult {
	key := synergyKey(a, b)
	if cached, ok := s.cache.Get(key); ok {
		s.logger.Debug().Str("key", key).Msg("synergy served from cache")
		return cached
	}

	result, err := s.generate(ctx, synergyPrompt(a, b), []string{a.Name, b.Name})
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("synergy fell back to template")
		result = fallbackSynergy(a, b)
	}

	s.cache.SetTTL(key, result, constants.AnalysisCacheTTL)
	return result
}

// synergyKey canonicalizes the pair so (A,B) and (B,A) share an entry.
func synergyKey(a, b domain.Hero) string {
	ids := []string{a.Identity(), b.Identity()}
	sort.Strings(ids)
	return "synergy:" + ids[0] + ":" + ids[1]
}

func (s *AnalysisService) generate(ctx context.Context, prompt string, heroes []string) (domain.AnalysisResult, error) {
	var result domain.AnalysisResult

	backoff := retry.WithMaxRetries(constants.AnalysisMaxRetries, linearBackoff(s.backoffStep))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		raw, err := s.gen.GenerateJSON(ctx, prompt)
		if err != nil {
			return retry.RetryableError(err)
		}
		parsed, err := parseAnalysis(raw, heroes)
		if err != nil {
			// Malformed output retries the whole call too.
			return retry.RetryableError(err)
		}
		result = parsed
		return nil
	})
	return result, err
}

// linearBackoff waits step, 2*step, 3*step between attempts.
func linearBackoff(step time.Duration) retry.Backoff {
	attempt := 0
	return retry.BackoffFunc(func() (time.Duration, bool) {
		attempt++
		return time.Duration(attempt) * step, false
	})
}

func heroPrompt(h domain.Hero) string {
	var sb strings.Builder
	sb.WriteString("Write a competitive analysis of one hero.\n\n")
	sb.WriteString(statBlock(h))
	sb.WriteString("\nRespond with JSON using exactly these fields: ")
	sb.WriteString(`{"title": string, "overview": string, "strengths": [string], "weaknesses": [string], "tips": [string], "verdict": string}`)
	return sb.String()
}

func synergyPrompt(a, b domain.Hero) string {
	var sb strings.Builder
	sb.WriteString("Write a duo synergy analysis of two heroes playing together.\n\n")
	sb.WriteString(statBlock(a))
	sb.WriteString("\n")
	sb.WriteString(statBlock(b))
	sb.WriteString("\nRespond with JSON using exactly these fields: ")
	sb.WriteString(`{"title": string, "overview": string, "strengths": [string], "weaknesses": [string], "tips": [string], "verdict": string}`)
	return sb.String()
}

func statBlock(h domain.Hero) string {
	return fmt.Sprintf("Hero: %s\nRole: %s\nTier: %s\nWin rate: %s\nBan rate: %s\nPick rate: %s\n",
		h.Name, orUnknown(h.Role), h.Tier, h.WinRate, h.BanRate, h.PickRate)
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

// parseAnalysis strips incidental formatting and validates the fixed
// schema. Anything structurally off is an error so the retry loop can
// take another shot.
func parseAnalysis(raw string, heroes []string) (domain.AnalysisResult, error) {
	clean := stripCodeFences(strings.TrimSpace(raw))
	if clean == "" {
		return domain.AnalysisResult{}, fmt.Errorf("empty response")
	}

	var parsed struct {
		Title      string   `json:"title"`
		Overview   string   `json:"overview"`
		Strengths  []string `json:"strengths"`
		Weaknesses []string `json:"weaknesses"`
		Tips       []string `json:"tips"`
		Verdict    string   `json:"verdict"`
	}
	if err := json.Unmarshal([]byte(clean), &parsed); err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("unparsable analysis: %w", err)
	}
	if parsed.Title == "" || parsed.Overview == "" {
		return domain.AnalysisResult{}, fmt.Errorf("analysis missing required fields")
	}

	return domain.AnalysisResult{
		Heroes:      heroes,
		Title:       parsed.Title,
		Overview:    parsed.Overview,
		Strengths:   emptyIfNil(parsed.Strengths),
		Weaknesses:  emptyIfNil(parsed.Weaknesses),
		Tips:        emptyIfNil(parsed.Tips),
		Verdict:     parsed.Verdict,
		Source:      domain.AnalysisSourceModel,
		GeneratedAt: time.Now(),
	}, nil
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 {
		// Drop the language tag line ("json" etc).
		s = s[idx+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func fallbackHero(h domain.Hero) domain.AnalysisResult {
	return domain.AnalysisResult{
		Heroes: []string{h.Name},
		Title:  fmt.Sprintf("%s: current meta snapshot", h.Name),
		Overview: fmt.Sprintf("%s (%s) sits in tier %s with a %s win rate, %s ban rate and %s pick rate.",
			h.Name, orUnknown(h.Role), h.Tier, h.WinRate, h.BanRate, h.PickRate),
		Strengths:   []string{fmt.Sprintf("Holds a %s win rate in the current patch", h.WinRate)},
		Weaknesses:  []string{fmt.Sprintf("Drafts answer it often enough for a %s ban rate", h.BanRate)},
		Tips:        []string{fmt.Sprintf("Treat %s as a tier %s pick and draft accordingly", h.Name, h.Tier)},
		Verdict:     fmt.Sprintf("Tier %s pick based on current statistics.", h.Tier),
		Source:      domain.AnalysisSourceFallback,
		GeneratedAt: time.Now(),
	}
}

func fallbackSynergy(a, b domain.Hero) domain.AnalysisResult {
	return domain.AnalysisResult{
		Heroes: []string{a.Name, b.Name},
		Title:  fmt.Sprintf("%s + %s duo snapshot", a.Name, b.Name),
		Overview: fmt.Sprintf("%s (tier %s, %s win rate) paired with %s (tier %s, %s win rate).",
			a.Name, a.Tier, a.WinRate, b.Name, b.Tier, b.WinRate),
		Strengths:   []string{fmt.Sprintf("Combined presence across %s and %s roles", orUnknown(a.Role), orUnknown(b.Role))},
		Weaknesses:  []string{"No model-generated matchup reasoning available right now"},
		Tips:        []string{fmt.Sprintf("Evaluate the duo by its stronger half: %s", strongerOf(a, b))},
		Verdict:     "Statistics-only verdict; generative analysis was unavailable.",
		Source:      domain.AnalysisSourceFallback,
		GeneratedAt: time.Now(),
	}
}

func strongerOf(a, b domain.Hero) string {
	if b.RawWinRate > a.RawWinRate {
		return b.Name
	}
	return a.Name
}
