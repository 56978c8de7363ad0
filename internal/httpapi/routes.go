package httpapi

import (
	"net/http"

	"hero-tracker/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

func SetupRoutes(s *Server, rl *middleware.RateLimiter, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID(logger))
	r.Use(rl.Middleware)

	r.Get("/", s.handleStatus)
	r.Get("/api/heroes", s.handleHeroes)
	r.Get("/api/search", s.handleSearch)
	r.Get("/api/heroes/{slug}", s.handleHeroDetail)
	r.Get("/api/tier-list", s.handleTierList)
	r.Get("/api/leaderboard", s.handleLeaderboard)
	r.Get("/api/analyze/{name}", s.handleAnalyze)
	r.Get("/api/synergy/{name1}/{name2}", s.handleSynergy)
	r.Post("/api/scrape", s.handleScrape)

	return r
}
