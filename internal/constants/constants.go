package constants

import "time"

const (
	DefaultCacheTTL  = 1 * time.Hour
	AnalysisCacheTTL = 1 * time.Hour
	DetailCacheTTL   = 1 * time.Hour
)

const (
	ProviderTimeout   = 15 * time.Second
	GenerativeTimeout = 30 * time.Second
	RequestTimeout    = 30 * time.Second
)

const (
	RefreshSchedule = "@every 1h"
)

const (
	AnalysisMaxRetries  = 2
	AnalysisBackoffStep = 1 * time.Second
	AnalysisMaxTokens   = 1024
)

const (
	LeaderboardSize       = 10
	SearchSuggestionLimit = 10
)

const (
	RateLimitBudget        = 60
	RateLimitWindow        = 1 * time.Minute
	RateLimitSweepInterval = 5 * time.Minute
)

const (
	ShutdownTimeout = 5 * time.Second
)
