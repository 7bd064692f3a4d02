// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/lodestar/internal/embedding"
	"github.com/tomtom215/lodestar/internal/recommend"
	"github.com/tomtom215/lodestar/internal/vectorizer"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/lodestar/config.yaml",
	"/etc/lodestar/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	transport := vectorizer.DefaultTransportConfig()
	worker := vectorizer.DefaultWorkerConfig()

	return &Config{
		Server: ServerConfig{
			Port:              8420,
			Host:              "0.0.0.0",
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
			ShutdownTimeout:   30 * time.Second,
			Environment:       "development",
			CORSOrigins:       []string{"*"},
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Embedding: EmbeddingConfig{
			Model:         embedding.ModelHashing,
			Dimension:     embedding.DefaultDimension,
			CacheSize:     4096,
			CacheTTL:      time.Hour,
			OpenAITimeout: 30 * time.Second,
		},
		VectorStore: VectorStoreConfig{
			Driver: "badger",
			Dir:    "/data/vectors",
		},
		Catalog: CatalogConfig{
			Driver:  "sqlite",
			DSN:     "/data/lodestar.db",
			Migrate: true,
		},
		Queue: QueueConfig{
			Driver:               transport.Driver,
			Topic:                worker.Topic,
			Buffer:               transport.Buffer,
			PoisonTopic:          worker.PoisonTopic,
			RatePerSecond:        worker.RatePerSecond,
			Burst:                worker.Burst,
			JobTimeout:           worker.JobTimeout,
			RetryMaxRetries:      worker.RetryMaxRetries,
			RetryInitialInterval: worker.RetryInitialInterval,
			RetryMaxInterval:     worker.RetryMaxInterval,
			CloseTimeout:         worker.CloseTimeout,
			NATS: QueueNATSConfig{
				URL:            transport.NATS.URL,
				StreamName:     transport.NATS.StreamName,
				DurableName:    transport.NATS.DurableName,
				QueueGroup:     transport.NATS.QueueGroup,
				MaxReconnects:  transport.NATS.MaxReconnects,
				ReconnectWait:  transport.NATS.ReconnectWait,
				AckWaitTimeout: transport.NATS.AckWaitTimeout,
				MaxDeliver:     transport.NATS.MaxDeliver,
			},
		},
		Breaker: BreakerConfig{
			FailureThreshold: 5,
			MaxRequests:      1,
			Interval:         time.Minute,
			Timeout:          30 * time.Second,
		},
		Monitor: MonitorConfig{
			HealthInterval:    time.Minute,
			DegradedThreshold: 3,
			ReindexInterval:   0, // Disabled - collections are kept current by the vectorizer
			ReindexOnStartup:  false,
			ReindexTimeout:    30 * time.Minute,
		},
		Recommend: *recommend.DefaultConfig(),
	}
}

// Load loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any mapped setting
//
// Precedence is ENV > File > Defaults.
func Load() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars come in as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
// Unmapped variables are ignored so unrelated environment does not leak
// into the configuration.
var envMappings = map[string]string{
	// Server
	"http_port":           "server.port",
	"http_host":           "server.host",
	"http_read_timeout":   "server.read_timeout",
	"http_write_timeout":  "server.write_timeout",
	"http_idle_timeout":   "server.idle_timeout",
	"shutdown_timeout":    "server.shutdown_timeout",
	"environment":         "server.environment",
	"cors_origins":        "server.cors_origins",
	"rate_limit_requests": "server.rate_limit_requests",
	"rate_limit_window":   "server.rate_limit_window",
	"disable_rate_limit":  "server.rate_limit_disabled",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Embedding
	"embedding_model":      "embedding.model",
	"embedding_dimension":  "embedding.dimension",
	"embedding_cache_size": "embedding.cache_size",
	"embedding_cache_ttl":  "embedding.cache_ttl",
	"openai_api_key":       "embedding.openai_api_key",
	"openai_base_url":      "embedding.openai_base_url",
	"openai_timeout":       "embedding.openai_timeout",

	// Vector store
	"vector_store_driver":     "vector_store.driver",
	"vector_store_dir":        "vector_store.dir",
	"vector_store_sync_write": "vector_store.sync_write",

	// Catalog
	"catalog_driver":   "catalog.driver",
	"catalog_dsn":      "catalog.dsn",
	"catalog_migrate":  "catalog.migrate",
	"catalog_snapshot": "catalog.snapshot",

	// Vectorizer queue
	"queue_driver":              "queue.driver",
	"queue_topic":               "queue.topic",
	"queue_buffer":              "queue.buffer",
	"queue_poison_topic":        "queue.poison_topic",
	"queue_rate_per_second":     "queue.rate_per_second",
	"queue_burst":               "queue.burst",
	"queue_job_timeout":         "queue.job_timeout",
	"queue_retry_max_retries":   "queue.retry_max_retries",
	"queue_retry_interval":      "queue.retry_initial_interval",
	"queue_retry_max_interval":  "queue.retry_max_interval",
	"queue_close_timeout":       "queue.close_timeout",
	"nats_url":                  "queue.nats.url",
	"nats_stream_name":          "queue.nats.stream_name",
	"nats_durable_name":         "queue.nats.durable_name",
	"nats_queue_group":          "queue.nats.queue_group",
	"nats_max_reconnects":       "queue.nats.max_reconnects",
	"nats_reconnect_wait":       "queue.nats.reconnect_wait",
	"nats_ack_wait_timeout":     "queue.nats.ack_wait_timeout",
	"nats_max_deliver":          "queue.nats.max_deliver",
	"breaker_failure_threshold": "breaker.failure_threshold",
	"breaker_max_requests":      "breaker.max_requests",
	"breaker_interval":          "breaker.interval",
	"breaker_timeout":           "breaker.timeout",

	// Monitor
	"health_check_interval":  "monitor.health_interval",
	"health_degraded_checks": "monitor.degraded_threshold",
	"reindex_interval":       "monitor.reindex_interval",
	"reindex_on_startup":     "monitor.reindex_on_startup",
	"reindex_timeout":        "monitor.reindex_timeout",

	// Recommendation engine
	"recommend_request_timeout":      "recommend.request_timeout",
	"recommend_algorithm_limit":      "recommend.algorithms.result_limit",
	"recommend_post_limit":           "recommend.posts.result_limit",
	"recommend_post_min_similarity":  "recommend.posts.min_similarity",
	"recommend_related_per_page":     "recommend.related.default_per_page",
	"recommend_related_max_per_page": "recommend.related.max_per_page",
	"recommend_profile_min_progress": "recommend.profile.min_progress",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - HTTP_PORT -> server.port
//   - VECTOR_STORE_DIR -> vector_store.dir
//   - NATS_URL -> queue.nats.url
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
