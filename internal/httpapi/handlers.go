package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"hero-tracker/internal/cache"
	"hero-tracker/internal/config"
	"hero-tracker/internal/domain"
	"hero-tracker/internal/scheduler"
	"hero-tracker/internal/service"
	"hero-tracker/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type Server struct {
	heroes   *service.HeroService
	analysis *service.AnalysisService
	sched    *scheduler.Scheduler
	store    *store.Store

	detailCache   *cache.Cache[domain.Hero]
	analysisCache *cache.Cache[domain.AnalysisResult]

	scrapeSecret string
	logger       zerolog.Logger
}

func NewServer(
	heroes *service.HeroService,
	analysis *service.AnalysisService,
	sched *scheduler.Scheduler,
	st *store.Store,
	detailCache *cache.Cache[domain.Hero],
	analysisCache *cache.Cache[domain.AnalysisResult],
	cfg *config.Config,
	logger zerolog.Logger,
) *Server {
	return &Server{
		heroes:        heroes,
		analysis:      analysis,
		sched:         sched,
		store:         st,
		detailCache:   detailCache,
		analysisCache: analysisCache,
		scrapeSecret:  cfg.ScrapeSecret,
		logger:        logger,
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Current()

	var lastUpdated *string
	if snap.LastUpdated != nil {
		formatted := snap.LastUpdated.Format(time.RFC3339)
		lastUpdated = &formatted
	}

	detailHits, detailMisses := s.detailCache.Stats()
	analysisHits, analysisMisses := s.analysisCache.Stats()

	writeJSON(w, http.StatusOK, map[string]any{
		"status":              snap.Status,
		"lastUpdated":         lastUpdated,
		"heroCount":           len(snap.Heroes),
		"consecutiveFailures": snap.ConsecutiveFailures,
		"cache": map[string]any{
			"detail":   map[string]uint64{"hits": detailHits, "misses": detailMisses},
			"analysis": map[string]uint64{"hits": analysisHits, "misses": analysisMisses},
		},
		"endpoints": map[string]string{
			"heroes":      "/api/heroes?role=&tier=&sort=winrate|banrate|pickrate&search=",
			"search":      "/api/search?q=",
			"heroDetail":  "/api/heroes/{slug}",
			"tierList":    "/api/tier-list",
			"leaderboard": "/api/leaderboard?category=&limit=",
			"analyze":     "/api/analyze/{name}",
			"synergy":     "/api/synergy/{name1}/{name2}",
			"scrape":      "POST /api/scrape",
		},
	})
}

func (s *Server) handleHeroes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	heroes := s.heroes.List(service.ListFilter{
		Role:   q.Get("role"),
		Tier:   q.Get("tier"),
		Sort:   q.Get("sort"),
		Search: q.Get("search"),
	})
	writeJSON(w, http.StatusOK, map[string]any{"count": len(heroes), "heroes": heroes})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	results := s.heroes.Search(r.URL.Query().Get("q"))
	writeJSON(w, http.StatusOK, map[string]any{"count": len(results), "results": results})
}

func (s *Server) handleHeroDetail(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	hero, err := s.heroes.Detail(r.Context(), slug)
	if errors.Is(err, service.ErrHeroNotFound) {
		writeError(w, http.StatusNotFound, "hero not found")
		return
	}
	writeJSON(w, http.StatusOK, hero)
}

func (s *Server) handleTierList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.heroes.TierList())
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 0
	if raw := q.Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}
	entries := s.heroes.Leaderboard(q.Get("category"), limit)
	writeJSON(w, http.StatusOK, map[string]any{
		"categories": s.heroes.Categories(),
		"entries":    entries,
	})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	hero, err := s.heroes.Find(name)
	if err != nil {
		writeError(w, http.StatusNotFound, "hero not found")
		return
	}

	// Always a success-shaped response: the service falls back to a
	// templated result when the backend is unreachable.
	writeJSON(w, http.StatusOK, s.analysis.AnalyzeHero(r.Context(), hero))
}

func (s *Server) handleSynergy(w http.ResponseWriter, r *http.Request) {
	name1 := chi.URLParam(r, "name1")
	name2 := chi.URLParam(r, "name2")

	heroA, err := s.heroes.Find(name1)
	if err != nil {
		writeError(w, http.StatusNotFound, "hero not found: "+name1)
		return
	}
	heroB, err := s.heroes.Find(name2)
	if err != nil {
		writeError(w, http.StatusNotFound, "hero not found: "+name2)
		return
	}
	if heroA.Identity() == heroB.Identity() {
		writeError(w, http.StatusBadRequest, service.ErrSamePair.Error())
		return
	}

	writeJSON(w, http.StatusOK, s.analysis.AnalyzeSynergy(r.Context(), heroA, heroB))
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	secret := r.Header.Get("X-Scrape-Secret")
	if secret == "" || secret != s.scrapeSecret {
		writeError(w, http.StatusUnauthorized, "invalid scrape secret")
		return
	}

	if err := s.sched.TriggerManual(); err != nil {
		if errors.Is(err, scheduler.ErrRefreshInFlight) {
			writeError(w, http.StatusConflict, "refresh already in progress")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to start refresh")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "refresh started"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": strings.TrimSpace(message)})
}
