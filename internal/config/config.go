// Package config loads service configuration from the environment.
package config

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds every runtime knob for the amulet backend.
type Config struct {
	Addr        string `envconfig:"ADDR" default:":3030"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	// DatabaseURL selects the store: a postgres DSN in deployments, a sqlite
	// path (or empty for the local default file) in development.
	DatabaseURL string `envconfig:"DATABASE_URL" default:""`

	ServiceName    string `envconfig:"SERVICE_NAME" default:"amulet-backend"`
	ServiceVersion string `envconfig:"SERVICE_VERSION" default:"dev"`

	Tracing TracingConfig
	API     APIConfig
}

// TracingConfig controls the OTLP exporter.
type TracingConfig struct {
	Enabled          bool    `envconfig:"TRACING_ENABLED" default:"false"`
	ExporterEndpoint string  `envconfig:"TRACING_EXPORTER_ENDPOINT" default:""`
	ExporterProtocol string  `envconfig:"TRACING_EXPORTER_PROTOCOL" default:"grpc"`
	SamplingRatio    float64 `envconfig:"TRACING_SAMPLING_RATIO" default:"0.1"`
}

// APIConfig controls the client-facing /api endpoint.
type APIConfig struct {
	RateLimit       int           `envconfig:"API_RATE_LIMIT" default:"120"`
	RateLimitWindow time.Duration `envconfig:"API_RATE_LIMIT_WINDOW" default:"1m"`
	CatalogCacheTTL time.Duration `envconfig:"API_CATALOG_CACHE_TTL" default:"30s"`
}

// Load reads configuration from the process environment.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("AMULET", &cfg); err != nil {
		return Config{}, err
	}
	cfg.Environment = strings.ToLower(strings.TrimSpace(cfg.Environment))
	return cfg, nil
}

// IsProduction reports whether the service runs in production mode.
func (c Config) IsProduction() bool {
	return c.Environment == "production"
}
