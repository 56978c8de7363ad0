package config

import (
	"fmt"
	"os"
	"time"

	"hero-tracker/internal/constants"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	ProviderBaseURL string
	AnthropicAPIKey string
	AnalysisModel   string
	ScrapeSecret    string
	ServerPort      string
	LogLevel        string
	CacheTTL        time.Duration
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		ProviderBaseURL: getEnv("PROVIDER_BASE_URL", "https://mlbb-stats.ridwaanhall.com"),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		AnalysisModel:   getEnv("ANALYSIS_MODEL", "claude-3-5-haiku-latest"),
		ScrapeSecret:    getEnv("SCRAPE_SECRET", ""),
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		CacheTTL:        constants.DefaultCacheTTL,
	}

	if cfg.ScrapeSecret == "" {
		return nil, fmt.Errorf("SCRAPE_SECRET is required")
	}

	logger.Info().
		Str("provider_base_url", cfg.ProviderBaseURL).
		Str("analysis_model", cfg.AnalysisModel).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Dur("cache_ttl", cfg.CacheTTL).
		Bool("anthropic_key_set", cfg.AnthropicAPIKey != "").
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

var Module = fx.Provide(Load)
