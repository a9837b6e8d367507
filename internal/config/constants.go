package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 25
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts. Config.RequestTimeout stretches the request timeout
// past larger upload budgets.
const (
	ServerRequestTimeout  = 200 * time.Second
	RequestTimeoutMargin  = 20 * time.Second
	ServerReadTimeout     = 60 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Database ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// Remote call budgets used when nothing is configured
const (
	DefaultUploadTimeout = 180 * time.Second
	DefaultHealthTimeout = 10 * time.Second

	DefaultHealthProbeInterval = time.Minute
	DefaultResultCacheTTL      = 24 * time.Hour
)

const UploadRateLimitWindow = time.Minute
