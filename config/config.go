// Package config provides typed, validated configuration for fluxstate's
// runtime-tunable knobs: persistence throttling, API-engine cache policy,
// retry/backoff, batching windows, and HTTP base-query timeouts.
//
// This mirrors the teacher's configuration architecture: logical grouping of
// related settings, struct-tag validation, and sensible defaults applied
// before validation runs.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the complete set of runtime-tunable fluxstate settings.
type Config struct {
	Persistence Persistence `yaml:"persistence" json:"persistence" validate:"required"`
	APIEngine   APIEngine   `yaml:"api_engine" json:"api_engine" validate:"required"`
	Retry       Retry       `yaml:"retry" json:"retry" validate:"required"`
	Batching    Batching    `yaml:"batching" json:"batching" validate:"required"`
	Cache       Cache       `yaml:"cache" json:"cache" validate:"required"`
	HTTP        HTTP        `yaml:"http" json:"http" validate:"required"`
	Tracing     Tracing     `yaml:"tracing" json:"tracing"`

	// LoadedFrom records the sources this configuration was assembled from,
	// for diagnostics only.
	LoadedFrom []string `yaml:"-" json:"-"`
}

// Persistence configures the snapshotting/rehydration layer (C7).
type Persistence struct {
	ThrottleInterval time.Duration `yaml:"throttle_interval" json:"throttle_interval" validate:"required,min=10ms"`
	Version          int           `yaml:"version" json:"version" validate:"min=1"`
	RehydrateReplace bool          `yaml:"rehydrate_replace" json:"rehydrate_replace"`
}

// APIEngine configures the cache engine (C9).
type APIEngine struct {
	KeepUnusedDataFor time.Duration `yaml:"keep_unused_data_for" json:"keep_unused_data_for" validate:"required,min=1s"`
	RefetchOnReconnect bool         `yaml:"refetch_on_reconnect" json:"refetch_on_reconnect"`
}

// Retry configures the retry middleware (C8).
type Retry struct {
	MaxRetries       int           `yaml:"max_retries" json:"max_retries" validate:"min=0,max=20"`
	BaseDelay        time.Duration `yaml:"base_delay" json:"base_delay" validate:"required,min=1ms"`
	BreakerThreshold uint32        `yaml:"breaker_threshold" json:"breaker_threshold" validate:"min=1"`
}

// Batching configures the batching middleware (C8).
type Batching struct {
	Size          int           `yaml:"size" json:"size" validate:"min=1"`
	FlushInterval time.Duration `yaml:"flush_interval" json:"flush_interval" validate:"required,min=1ms"`
}

// Cache configures the cache middleware's LRU (C8).
type Cache struct {
	MaxSize int           `yaml:"max_size" json:"max_size" validate:"min=1"`
	TTL     time.Duration `yaml:"ttl" json:"ttl" validate:"required,min=1s"`
}

// HTTP configures the default HTTP base query.
type HTTP struct {
	BaseURL string        `yaml:"base_url" json:"base_url"`
	Timeout time.Duration `yaml:"timeout" json:"timeout" validate:"required,min=1ms"`
}

// Tracing toggles distributed tracing export.
type Tracing struct {
	Enabled     bool   `yaml:"enabled" json:"enabled"`
	ServiceName string `yaml:"service_name" json:"service_name"`
	// Endpoint is the OTLP/gRPC collector address (host:port, no scheme),
	// passed to otlptracegrpc.WithEndpoint. Empty uses the exporter's
	// default (localhost:4317).
	Endpoint string `yaml:"endpoint" json:"endpoint"`
}

// Default returns a Config populated with the defaults the teacher's
// loader applies before validation, so a caller never has to hand-fill
// every field just to get a usable store.
func Default() *Config {
	return &Config{
		Persistence: Persistence{
			ThrottleInterval: time.Second,
			Version:          1,
			RehydrateReplace: true,
		},
		APIEngine: APIEngine{
			KeepUnusedDataFor:  60 * time.Second,
			RefetchOnReconnect: true,
		},
		Retry: Retry{
			MaxRetries:       3,
			BaseDelay:        200 * time.Millisecond,
			BreakerThreshold: 5,
		},
		Batching: Batching{
			Size:          20,
			FlushInterval: 50 * time.Millisecond,
		},
		Cache: Cache{
			MaxSize: 256,
			TTL:     5 * time.Minute,
		},
		HTTP: HTTP{
			Timeout: 10 * time.Second,
		},
		Tracing: Tracing{
			ServiceName: "fluxstate",
		},
	}
}

var validate = validator.New()

// Validate runs struct-tag validation over c.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}
