package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// DeployTarget names one of the hosting setups the server runs under.
// Targets only change defaults; the routes are the same everywhere.
type DeployTarget string

const (
	TargetLocal      DeployTarget = "local"
	TargetDocker     DeployTarget = "docker"
	TargetRailway    DeployTarget = "railway"
	TargetProduction DeployTarget = "production"
)

var targetStaticDirs = map[DeployTarget]string{
	TargetLocal:      "client/dist",
	TargetDocker:     "/app/dist/public",
	TargetRailway:    "dist/public",
	TargetProduction: "dist/public",
}

type Config struct {
	Port         int          `env:"PORT" envDefault:"8080"`
	Host         string       `env:"HOST" envDefault:"0.0.0.0"`
	DeployTarget DeployTarget `env:"DEPLOY_TARGET" envDefault:"local"`
	StaticDir    string       `env:"STATIC_DIR"`
	LogLevel     string       `env:"LOG_LEVEL" envDefault:"info"`

	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`

	MasterAPIURL               string `env:"MASTER_API_URL,required"`
	MasterAPIKey               string `env:"MASTER_API_KEY,required"`
	MasterUploadPath           string `env:"MASTER_UPLOAD_PATH" envDefault:"/mobile-upload"`
	UploadTimeoutSeconds       int    `env:"UPLOAD_TIMEOUT_SECONDS" envDefault:"180"`
	HealthTimeoutSeconds       int    `env:"HEALTH_TIMEOUT_SECONDS" envDefault:"10"`
	HealthProbeIntervalSeconds int    `env:"HEALTH_PROBE_INTERVAL_SECONDS" envDefault:"60"`

	RelayLogSize          int   `env:"RELAY_LOG_SIZE" envDefault:"200"`
	MaxBodyBytes          int64 `env:"MAX_BODY_BYTES" envDefault:"26214400"`
	UploadRateLimitPerMin int   `env:"UPLOAD_RATE_LIMIT_PER_MIN" envDefault:"20"`
	ResultCacheTTLSeconds int   `env:"RESULT_CACHE_TTL_SECONDS" envDefault:"86400"`

	ImageArchiveBucket string `env:"IMAGE_ARCHIVE_BUCKET"`
	ImageArchivePrefix string `env:"IMAGE_ARCHIVE_PREFIX" envDefault:"uploads/"`
	AWSRegion          string `env:"AWS_REGION" envDefault:"us-east-1"`
}

func (c *Config) UploadTimeout() time.Duration {
	return secondsOr(c.UploadTimeoutSeconds, DefaultUploadTimeout)
}

// RequestTimeout bounds a whole inbound request. It always leaves
// RequestTimeoutMargin after the upload budget so the relay reports its own
// timeout before the router cuts the request.
func (c *Config) RequestTimeout() time.Duration {
	return max(ServerRequestTimeout, c.UploadTimeout()+RequestTimeoutMargin)
}

func (c *Config) HealthTimeout() time.Duration {
	return secondsOr(c.HealthTimeoutSeconds, DefaultHealthTimeout)
}

func (c *Config) HealthProbeInterval() time.Duration {
	return secondsOr(c.HealthProbeIntervalSeconds, DefaultHealthProbeInterval)
}

func (c *Config) ResultCacheTTL() time.Duration {
	return secondsOr(c.ResultCacheTTLSeconds, DefaultResultCacheTTL)
}

func secondsOr(seconds int, fallback time.Duration) time.Duration {
	if seconds <= 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}

func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c *Config) IsProduction() bool {
	return c.DeployTarget == TargetRailway || c.DeployTarget == TargetProduction
}

// ResolvedStaticDir returns STATIC_DIR when set, else the target default.
func (c *Config) ResolvedStaticDir() string {
	if c.StaticDir != "" {
		return c.StaticDir
	}
	if dir, ok := targetStaticDirs[c.DeployTarget]; ok {
		return dir
	}
	return targetStaticDirs[TargetLocal]
}

func (c *Config) Validate() error {
	if _, ok := targetStaticDirs[c.DeployTarget]; !ok {
		return fmt.Errorf("DEPLOY_TARGET must be one of local, docker, railway, production (got %q)", c.DeployTarget)
	}
	if !strings.HasPrefix(c.MasterAPIURL, "http://") && !strings.HasPrefix(c.MasterAPIURL, "https://") {
		return fmt.Errorf("MASTER_API_URL must be an http(s) URL")
	}
	if !strings.HasPrefix(c.MasterUploadPath, "/") {
		return fmt.Errorf("MASTER_UPLOAD_PATH must start with /")
	}
	if c.UploadTimeoutSeconds <= 0 || c.HealthTimeoutSeconds <= 0 {
		return fmt.Errorf("UPLOAD_TIMEOUT_SECONDS and HEALTH_TIMEOUT_SECONDS must be positive")
	}
	if c.RelayLogSize <= 0 {
		return fmt.Errorf("RELAY_LOG_SIZE must be positive")
	}

	if c.IsProduction() {
		if strings.HasPrefix(c.MasterAPIURL, "http://") {
			log.Warn().Msg("MASTER_API_URL uses http:// in production: API key is sent in clear text")
		}
		if c.DatabaseURL == "" {
			log.Warn().Msg("DATABASE_URL is empty in production: pin records are kept in memory only")
		}
		if c.RedisURL == "" {
			log.Warn().Msg("REDIS_URL is empty in production: results are not cached and rate limits are per instance")
		}
	}

	return nil
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("loaded .env file")
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
