package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 25
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts
const (
	ServerRequestTimeout  = 60 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Database ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// Background job intervals
const CleanupJobInterval = 5 * time.Minute

// Minimum gap between two messages from the same end user. Anything faster
// is treated as a double-send and dropped without touching the quota.
const MinMessageInterval = 2 * time.Second

// Rate-limit records idle longer than this are pruned by the cleanup job.
const RateLimitEntryTTL = 5 * time.Minute

// Rate limit applied to admin API callers (per tenant token, per minute).
const DefaultAPIRateLimitPerMin = 60
